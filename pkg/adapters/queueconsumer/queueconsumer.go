package queueconsumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jademcosta/syncbatcher/pkg/adapters/queueconsumer/sqs"
	"github.com/jademcosta/syncbatcher/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v2"
)

type Consumer interface {
	Run(ctx context.Context)
}

// New returns a nil Consumer when the consumer type is none.
func New(
	l *slog.Logger, metricRegistry *prometheus.Registry, conf *config.ConsumerConfig, submitter sqs.Submitter,
) (Consumer, error) {

	specificConf, err := yaml.Marshal(conf.Config)
	if err != nil {
		return nil, fmt.Errorf("error parsing consumer config: %w", err)
	}

	switch conf.Type {
	case config.ConsumerTypeNone:
		return nil, nil
	case sqs.TYPE:
		c, err := sqs.ParseConfig(specificConf)
		if err != nil {
			return nil, fmt.Errorf("error parsing SQS-specific config: %w", err)
		}

		consumer, err := sqs.New(l, c, conf.BatchSize, conf.BatchWindow, submitter, metricRegistry)
		if err != nil {
			return nil, fmt.Errorf("error creating SQS consumer: %w", err)
		}
		return consumer, nil
	default:
		return nil, fmt.Errorf("invalid consumer type %s", conf.Type)
	}
}
