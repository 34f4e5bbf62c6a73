package config

import (
	"fmt"
	"slices"
)

const (
	DefaultPort             = 9199
	DefaultPayloadSizeLimit = "1mb"
)

type APIConfig struct {
	Port                    int      `yaml:"port"`
	PayloadSizeLimit        string   `yaml:"payload_size_limit"`
	Token                   string   `yaml:"token"`
	DecompressionAlgorithms []string `yaml:"decompression_algorithms"`
}

func (apiConf APIConfig) fillDefaults() APIConfig {
	if apiConf.Port == 0 {
		apiConf.Port = DefaultPort
	}

	if apiConf.PayloadSizeLimit == "" {
		apiConf.PayloadSizeLimit = DefaultPayloadSizeLimit
	}

	return apiConf
}

func (apiConf APIConfig) validate() error {

	if apiConf.PayloadSizeLimit != "" {
		_, err := ToBytes(apiConf.PayloadSizeLimit)
		if err != nil {
			return fmt.Errorf("invalid payload size limit: %w", err)
		}
	}

	if apiConf.Port < 0 {
		return fmt.Errorf("api.port cannot be negative")
	}

	for _, algorithm := range apiConf.DecompressionAlgorithms {
		if !slices.Contains(allowedCompressions, algorithm) {
			return fmt.Errorf("api.decompression_algorithms entries must be one of %v", allowedCompressions)
		}
	}
	return nil
}

func (apiConf APIConfig) PayloadSizeLimitInBytes() (int64, error) {
	return ToBytes(apiConf.PayloadSizeLimit)
}
