package config

import (
	"errors"
	"fmt"
	"slices"
)

var allowedArchiveStorages = []string{"s3", "localstorage", "httpstorage"}

type ObjectStorageConfig struct {
	Type   string      `yaml:"type"`
	Config interface{} `yaml:"config"`
}

type ArchiveConfig struct {
	Enabled         bool                `yaml:"enabled"`
	PathPrefixCount int                 `yaml:"path_prefix_count"`
	Compression     CompressionConfig   `yaml:"compression"`
	ObjectStorage   ObjectStorageConfig `yaml:"object_storage"`
}

func (archiveConf ArchiveConfig) fillDefaultValues() ArchiveConfig {
	if archiveConf.PathPrefixCount <= 0 {
		archiveConf.PathPrefixCount = 1
	}

	archiveConf.Compression = archiveConf.Compression.fillDefaultValues()
	return archiveConf
}

func (archiveConf ArchiveConfig) validate() error {
	if !archiveConf.Enabled {
		return nil
	}

	if archiveConf.ObjectStorage.Type == "" {
		return errors.New("object_storage.type is required when archive is enabled")
	}

	if !slices.Contains(allowedArchiveStorages, archiveConf.ObjectStorage.Type) {
		return fmt.Errorf("object_storage.type must be one of %v", allowedArchiveStorages)
	}

	return archiveConf.Compression.validate()
}
