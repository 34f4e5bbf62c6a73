package circuitbreaker

import (
	"log/slog"

	"github.com/jademcosta/syncbatcher/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

const (
	FixedFailCountThreshold = 1
	HalfOpenMaxRequests     = 1
)

func FromConfig(
	l *slog.Logger, registry *prometheus.Registry, cbConf config.CircuitBreakerConfig, name string,
) CircuitBreaker {
	if cbConf.Disable {
		l.Warn("circuit breaker not being used", "name", name)
		return NewDummyCircuitBreaker()
	}

	o11y := NewObservability(registry, l, name)

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: HalfOpenMaxRequests,
		Timeout:     cbConf.OpenIntervalAsDuration(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= FixedFailCountThreshold
		},
		OnStateChange: func(_ string, _ gobreaker.State, to gobreaker.State) {
			o11y.stateChanged(to)
		},
	})
}
