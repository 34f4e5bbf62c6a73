package invoker

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	sourceLabel = "source"
	statusLabel = "status"
)

var (
	ensureMetricRegisteringOnce sync.Once
	waitHistogram               *prometheus.HistogramVec
	invocationsCounter          *prometheus.CounterVec
	inFlightGauge               prometheus.Gauge
)

type metricCollector struct{}

func newMetricCollector(metricRegistry *prometheus.Registry) *metricCollector {
	ensureMetricRegisteringOnce.Do(func() {
		waitHistogram = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "syncbatcher",
				Subsystem: "invoker",
				Name:      "wait_seconds",
				Help:      "How long a submitted batch waited for its turn.",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{sourceLabel},
		)

		invocationsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "syncbatcher",
				Subsystem: "invoker",
				Name:      "invocations_total",
				Help:      "Invocations executed, by source and status.",
			},
			[]string{sourceLabel, statusLabel},
		)

		inFlightGauge = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "syncbatcher",
				Subsystem: "invoker",
				Name:      "in_flight",
				Help:      "Invocations running right now. Never above 1.",
			},
		)

		metricRegistry.MustRegister(waitHistogram, invocationsCounter, inFlightGauge)
	})

	return &metricCollector{}
}

func (m *metricCollector) observeWait(source string, elapsed time.Duration) {
	waitHistogram.WithLabelValues(source).Observe(elapsed.Seconds())
}

func (m *metricCollector) inFlight(delta float64) {
	inFlightGauge.Add(delta)
}

func (m *metricCollector) finished(source string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	invocationsCounter.WithLabelValues(source, status).Inc()
}
