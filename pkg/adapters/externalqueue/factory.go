package externalqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jademcosta/syncbatcher/pkg/adapters/externalqueue/noopqueue"
	"github.com/jademcosta/syncbatcher/pkg/adapters/externalqueue/sqs"
	"github.com/jademcosta/syncbatcher/pkg/config"
	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v2"
)

type ExternalQueue interface {
	Enqueue(ctx context.Context, event *domain.FlushEvent) error
}

type ExtQueueWithMetadata interface {
	ExternalQueue
	Type() string
}

func New(l *slog.Logger, metricRegistry *prometheus.Registry, conf *config.NotifierConfig) (ExtQueueWithMetadata, error) {

	var externalQueue ExtQueueWithMetadata
	specificConf, err := yaml.Marshal(conf.Config)
	if err != nil {
		return nil, fmt.Errorf("error parsing external queue config: %w", err)
	}

	switch conf.Type {
	case noopqueue.TYPE:
		externalQueue = noopqueue.New(l)
	case sqs.TYPE:
		c, err := sqs.ParseConfig(specificConf)
		if err != nil {
			return nil, fmt.Errorf("error parsing SQS-specific config: %w", err)
		}

		externalQueue, err = sqs.New(l, c)
		if err != nil {
			return nil, fmt.Errorf("error creating SQS: %w", err)
		}
	default:
		return nil, fmt.Errorf("invalid external queue type %s", conf.Type)
	}

	return NewExternalQueueWithMetrics(externalQueue, metricRegistry), nil
}
