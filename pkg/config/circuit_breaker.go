package config

import (
	"errors"
	"time"
)

const DefaultCBOpenInterval = 30000

type CircuitBreakerConfig struct {
	Disable      bool  `yaml:"disable"`
	OpenInterval int64 `yaml:"open_interval_in_ms"`
}

func (cbConf CircuitBreakerConfig) fillDefaultValues() CircuitBreakerConfig {
	if cbConf.OpenInterval == 0 {
		cbConf.OpenInterval = DefaultCBOpenInterval
	}
	return cbConf
}

func (cbConf CircuitBreakerConfig) validate() error {
	if cbConf.OpenInterval < 0 {
		return errors.New("circuit_breaker.open_interval_in_ms cannot be negative")
	}
	return nil
}

func (cbConf CircuitBreakerConfig) OpenIntervalAsDuration() time.Duration {
	return time.Duration(cbConf.OpenInterval) * time.Millisecond
}
