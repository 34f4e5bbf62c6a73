package localstorage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jademcosta/syncbatcher/pkg/logger"
	"gopkg.in/yaml.v2"
)

const TYPE string = "localstorage"

type Config struct {
	Path string `yaml:"path"`
}

// Store keeps the manifest in a single file. Writes go to a temporary file
// which is then renamed over the manifest, so readers never see a partial write.
type Store struct {
	path string
	log  *slog.Logger
}

func New(l *slog.Logger, c *Config) (*Store, error) {
	if c.Path == "" {
		return nil, errors.New("localstorage manifest store needs a path")
	}

	dirInfo, err := os.Stat(filepath.Dir(c.Path))
	if err != nil {
		return nil, fmt.Errorf("error on the manifest directory: %w", err)
	}

	if !dirInfo.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", filepath.Dir(c.Path))
	}

	return &Store{path: c.Path, log: l.With(logger.ManifestStoreTypeKey, TYPE)}, nil
}

func ParseConfig(confData []byte) (*Config, error) {
	conf := &Config{}

	err := yaml.Unmarshal(confData, conf)
	if err != nil {
		return conf, fmt.Errorf("error parsing localstorage manifest store config: %w", err)
	}

	return conf, nil
}

func (store *Store) Read(_ context.Context) (string, bool, error) {
	content, err := os.ReadFile(store.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("error reading manifest file: %w", err)
	}

	return string(content), true, nil
}

func (store *Store) Write(_ context.Context, content string) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(store.path), filepath.Base(store.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temporary manifest file: %w", err)
	}
	tmpName := tmpFile.Name()

	_, err = tmpFile.WriteString(content)
	if err == nil {
		err = tmpFile.Sync()
	}
	closeErr := tmpFile.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("error writing temporary manifest file: %w", err)
	}

	err = os.Rename(tmpName, store.path)
	if err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("error replacing manifest file: %w", err)
	}

	store.log.Debug("manifest written", "path", store.path, "length", len(content))
	return nil
}

func (store *Store) Type() string {
	return TYPE
}
