package transfer

import (
	"fmt"
	"log/slog"

	"github.com/jademcosta/syncbatcher/pkg/adapters/transfer/datasync"
	"github.com/jademcosta/syncbatcher/pkg/adapters/transfer/nooptrigger"
	"github.com/jademcosta/syncbatcher/pkg/circuitbreaker"
	"github.com/jademcosta/syncbatcher/pkg/config"
	"github.com/jademcosta/syncbatcher/pkg/coordinator"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v2"
)

type TriggerWithMetadata interface {
	coordinator.TransferTrigger
	Type() string
}

func New(l *slog.Logger, metricRegistry *prometheus.Registry, conf *config.TransferConfig) (TriggerWithMetadata, error) {

	var trigger TriggerWithMetadata
	specificConf, err := yaml.Marshal(conf.Config)
	if err != nil {
		return nil, fmt.Errorf("error parsing transfer config: %w", err)
	}

	switch conf.Type {
	case nooptrigger.TYPE:
		trigger = nooptrigger.New(l)
	case datasync.TYPE:
		c, err := datasync.ParseConfig(specificConf)
		if err != nil {
			return nil, fmt.Errorf("error parsing DataSync-specific config: %w", err)
		}

		trigger, err = datasync.New(l, c, conf.VerifyMode)
		if err != nil {
			return nil, fmt.Errorf("error creating DataSync trigger: %w", err)
		}
	default:
		return nil, fmt.Errorf("invalid transfer type %s", conf.Type)
	}

	cb := circuitbreaker.FromConfig(l, metricRegistry, conf.CircuitBreaker, "transfer-"+trigger.Type())

	return NewTriggerWithCircuitBreaker(
		NewTriggerWithMetrics(trigger, metricRegistry),
		cb,
	), nil
}
