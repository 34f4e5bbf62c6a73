package config

type O11yConfig struct {
	TracingEnabled bool          `yaml:"tracing_enabled"`
	Tracing        TracingConfig `yaml:"tracing"`
}

func (o11yConf O11yConfig) fillDefaults() O11yConfig {
	o11yConf.Tracing = o11yConf.Tracing.fillDefaults()
	o11yConf.Tracing.Enabled = o11yConf.TracingEnabled
	return o11yConf
}

func (o11yConf O11yConfig) validate() error {
	return o11yConf.Tracing.validate()
}
