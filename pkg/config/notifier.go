package config

import (
	"fmt"
	"slices"
)

var allowedNotifiers = []string{"noop", "sqs"}

type NotifierConfig struct {
	Type   string      `yaml:"type"`
	Config interface{} `yaml:"config"`
}

func (notifConf NotifierConfig) fillDefaultValues() NotifierConfig {
	if notifConf.Type == "" {
		notifConf.Type = "noop"
	}
	return notifConf
}

func (notifConf NotifierConfig) validate() error {
	if !slices.Contains(allowedNotifiers, notifConf.Type) {
		return fmt.Errorf("type must be one of %v", allowedNotifiers)
	}
	return nil
}
