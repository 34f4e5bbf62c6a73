package config

import (
	"errors"
	"time"
)

const (
	DefaultSoftLimit         = 100000
	DefaultHardLimit         = 409600
	DefaultInvocationTimeout = 30 * time.Second
)

type CoordinatorConfig struct {
	SoftLimit          int           `yaml:"soft_limit"`
	HardLimit          int           `yaml:"hard_limit"`
	FlushEmptyManifest bool          `yaml:"flush_empty_manifest"`
	RecheckAfterAppend bool          `yaml:"recheck_after_append"`
	InvocationTimeout  time.Duration `yaml:"invocation_timeout"`
}

func (coordConf CoordinatorConfig) fillDefaultValues() CoordinatorConfig {
	if coordConf.SoftLimit == 0 {
		coordConf.SoftLimit = DefaultSoftLimit
	}

	if coordConf.HardLimit == 0 {
		coordConf.HardLimit = DefaultHardLimit
	}

	if coordConf.InvocationTimeout == 0 {
		coordConf.InvocationTimeout = DefaultInvocationTimeout
	}

	return coordConf
}

func (coordConf CoordinatorConfig) validate() error {
	if coordConf.SoftLimit < 0 || coordConf.HardLimit < 0 {
		return errors.New("soft_limit and hard_limit cannot be negative")
	}

	if coordConf.SoftLimit >= coordConf.HardLimit {
		return errors.New("soft_limit should be smaller than hard_limit")
	}

	if coordConf.InvocationTimeout < 0 {
		return errors.New("invocation_timeout cannot be negative")
	}

	return nil
}
