package config

import (
	"errors"
	"fmt"
	"slices"
)

var allowedManifestStores = []string{"s3", "localstorage", "redis"}

type ManifestStoreConfig struct {
	Type   string      `yaml:"type"`
	Config interface{} `yaml:"config"`
}

func (storeConf ManifestStoreConfig) fillDefaultValues() ManifestStoreConfig {
	return storeConf
}

func (storeConf ManifestStoreConfig) validate() error {
	if storeConf.Type == "" {
		return errors.New("type is required")
	}

	if !slices.Contains(allowedManifestStores, storeConf.Type) {
		return fmt.Errorf("type must be one of %v", allowedManifestStores)
	}

	return nil
}
