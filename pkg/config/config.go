package config

import (
	"fmt"

	"gopkg.in/yaml.v2"
)

var allowedVals map[string][]string

func init() {
	allowedVals = map[string][]string{
		"log.level":            {"debug", "info", "warn", "error"},
		"log.format":           {"json", "text"},
		"transfer.verify_mode": {VerifyModeOnlyFilesTransferred, VerifyModeFull},
	}
}

type Config struct {
	Log             LogConfig           `yaml:"log"`
	Version         string              `yaml:"version"`
	API             APIConfig           `yaml:"api"`
	O11y            O11yConfig          `yaml:"o11y"`
	DisableMaxProcs bool                `yaml:"disable_max_procs"`
	InstanceLock    InstanceLockConfig  `yaml:"instance_lock"`
	Coordinator     CoordinatorConfig   `yaml:"coordinator"`
	ManifestStore   ManifestStoreConfig `yaml:"manifest_store"`
	Transfer        TransferConfig      `yaml:"transfer"`
	Consumer        ConsumerConfig      `yaml:"consumer"`
	Scheduler       SchedulerConfig     `yaml:"scheduler"`
	Notifier        NotifierConfig      `yaml:"notifier"`
	Archive         ArchiveConfig       `yaml:"archive"`
}

func New(confData []byte) (*Config, error) {
	c := &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
		},
	}

	err := yaml.Unmarshal(confData, &c)
	if err != nil {
		return nil, err
	}

	c.fillDefaultValues()

	err = c.validate()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	err := c.Log.validate()
	if err != nil {
		return err
	}

	err = c.API.validate()
	if err != nil {
		return err
	}

	err = c.O11y.validate()
	if err != nil {
		return err
	}

	err = c.Coordinator.validate()
	if err != nil {
		return fmt.Errorf("coordinator: %w", err)
	}

	err = c.ManifestStore.validate()
	if err != nil {
		return fmt.Errorf("manifest_store: %w", err)
	}

	err = c.Transfer.validate()
	if err != nil {
		return fmt.Errorf("transfer: %w", err)
	}

	err = c.Consumer.validate()
	if err != nil {
		return fmt.Errorf("consumer: %w", err)
	}

	err = c.Scheduler.validate()
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	err = c.Notifier.validate()
	if err != nil {
		return fmt.Errorf("notifier: %w", err)
	}

	err = c.Archive.validate()
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}

	return nil
}

func allowed(group []string, elem string) bool {
	for _, a := range group {
		if a == elem {
			return true
		}
	}
	return false
}

func allowedValues(key string) []string {
	return allowedVals[key]
}

func (c *Config) fillDefaultValues() {
	c.Log = c.Log.fillDefaults()
	c.API = c.API.fillDefaults()
	c.O11y = c.O11y.fillDefaults()
	c.Coordinator = c.Coordinator.fillDefaultValues()
	c.ManifestStore = c.ManifestStore.fillDefaultValues()
	c.Transfer = c.Transfer.fillDefaultValues()
	c.Consumer = c.Consumer.fillDefaultValues()
	c.Scheduler = c.Scheduler.fillDefaultValues()
	c.Notifier = c.Notifier.fillDefaultValues()
	c.Archive = c.Archive.fillDefaultValues()
}
