package config

import (
	"errors"
	"time"
)

const DefaultSchedulerInterval = 10 * time.Minute

type SchedulerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

func (schedConf SchedulerConfig) fillDefaultValues() SchedulerConfig {
	if schedConf.Interval == 0 {
		schedConf.Interval = DefaultSchedulerInterval
	}
	return schedConf
}

func (schedConf SchedulerConfig) validate() error {
	if schedConf.Interval < 0 {
		return errors.New("interval cannot be negative")
	}
	return nil
}
