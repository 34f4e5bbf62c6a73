package config

type InstanceLockConfig struct {
	Path string `yaml:"path"`
}
