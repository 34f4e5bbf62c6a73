package config

import (
	"errors"
	"fmt"
	"slices"
)

const (
	VerifyModeOnlyFilesTransferred = "ONLY_FILES_TRANSFERRED"
	VerifyModeFull                 = "FULL"
)

var allowedTriggers = []string{"datasync", "noop"}

type TransferConfig struct {
	Type           string               `yaml:"type"`
	VerifyMode     string               `yaml:"verify_mode"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Config         interface{}          `yaml:"config"`
}

func (transferConf TransferConfig) fillDefaultValues() TransferConfig {
	if transferConf.VerifyMode == "" {
		transferConf.VerifyMode = VerifyModeOnlyFilesTransferred
	}

	transferConf.CircuitBreaker = transferConf.CircuitBreaker.fillDefaultValues()
	return transferConf
}

func (transferConf TransferConfig) validate() error {
	if transferConf.Type == "" {
		return errors.New("type is required")
	}

	if !slices.Contains(allowedTriggers, transferConf.Type) {
		return fmt.Errorf("type must be one of %v", allowedTriggers)
	}

	if !allowed(allowedValues("transfer.verify_mode"), transferConf.VerifyMode) {
		return fmt.Errorf("verify_mode should be one of %v", allowedValues("transfer.verify_mode"))
	}

	return transferConf.CircuitBreaker.validate()
}
