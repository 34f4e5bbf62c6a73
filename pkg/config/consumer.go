package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

const (
	ConsumerTypeNone   = "none"
	ConsumerTypeSQS    = "sqs"
	DefaultBatchSize   = 100
	DefaultBatchWindow = 30 * time.Second
)

var allowedConsumers = []string{ConsumerTypeNone, ConsumerTypeSQS}

type ConsumerConfig struct {
	Type        string        `yaml:"type"`
	BatchSize   int           `yaml:"batch_size"`
	BatchWindow time.Duration `yaml:"batch_window"`
	Config      interface{}   `yaml:"config"`
}

func (consumerConf ConsumerConfig) fillDefaultValues() ConsumerConfig {
	if consumerConf.Type == "" {
		consumerConf.Type = ConsumerTypeNone
	}

	if consumerConf.BatchSize == 0 {
		consumerConf.BatchSize = DefaultBatchSize
	}

	if consumerConf.BatchWindow == 0 {
		consumerConf.BatchWindow = DefaultBatchWindow
	}

	return consumerConf
}

func (consumerConf ConsumerConfig) validate() error {
	if !slices.Contains(allowedConsumers, consumerConf.Type) {
		return fmt.Errorf("type must be one of %v", allowedConsumers)
	}

	if consumerConf.BatchSize < 1 {
		return errors.New("batch_size should be at least 1")
	}

	if consumerConf.BatchWindow < 0 {
		return errors.New("batch_window cannot be negative")
	}

	return nil
}
