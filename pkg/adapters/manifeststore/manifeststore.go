package manifeststore

import (
	"fmt"
	"log/slog"

	"github.com/jademcosta/syncbatcher/pkg/adapters/manifeststore/localstorage"
	"github.com/jademcosta/syncbatcher/pkg/adapters/manifeststore/redisstore"
	"github.com/jademcosta/syncbatcher/pkg/adapters/manifeststore/s3"
	"github.com/jademcosta/syncbatcher/pkg/config"
	"github.com/jademcosta/syncbatcher/pkg/coordinator"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v2"
)

type StoreWithMetadata interface {
	coordinator.ManifestStore
	Type() string
}

func New(l *slog.Logger, metricRegistry *prometheus.Registry, conf *config.ManifestStoreConfig) (StoreWithMetadata, error) {

	var store StoreWithMetadata
	specificConf, err := yaml.Marshal(conf.Config)
	if err != nil {
		return nil, fmt.Errorf("error parsing manifest store config: %w", err)
	}

	switch conf.Type {
	case s3.TYPE:
		c, err := s3.ParseConfig(specificConf)
		if err != nil {
			return nil, fmt.Errorf("error parsing s3-specific config: %w", err)
		}

		store, err = s3.New(l, c)
		if err != nil {
			return nil, fmt.Errorf("error creating S3 manifest store: %w", err)
		}
	case localstorage.TYPE:
		c, err := localstorage.ParseConfig(specificConf)
		if err != nil {
			return nil, fmt.Errorf("error parsing localstorage-specific config: %w", err)
		}

		store, err = localstorage.New(l, c)
		if err != nil {
			return nil, fmt.Errorf("error creating localstorage manifest store: %w", err)
		}
	case redisstore.TYPE:
		c, err := redisstore.ParseConfig(specificConf)
		if err != nil {
			return nil, fmt.Errorf("error parsing redis-specific config: %w", err)
		}

		store, err = redisstore.New(l, c)
		if err != nil {
			return nil, fmt.Errorf("error creating redis manifest store: %w", err)
		}
	default:
		return nil, fmt.Errorf("invalid manifest store type %s", conf.Type)
	}

	return NewStoreWithMetrics(store, metricRegistry), nil
}
