package transfer

import (
	"context"
	"sync"
	"time"

	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const TriggerTypeLabel string = "trigger_type"

var (
	ensureMetricRegisteringOnce sync.Once
	latencyHistogram            *prometheus.HistogramVec
	startCounter                *prometheus.CounterVec
	startSuccessCounter         *prometheus.CounterVec
	startErrorCounter           *prometheus.CounterVec
	filterLengthHistogram       *prometheus.HistogramVec
)

type triggerWithMetrics struct {
	next        TriggerWithMetadata
	wrappedType string
}

func NewTriggerWithMetrics(next TriggerWithMetadata, metricRegistry *prometheus.Registry) TriggerWithMetadata {
	ensureMetricRegisteringOnce.Do(func() {
		latencyHistogram = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:      "start_latency_seconds",
				Subsystem: "transfer",
				Namespace: "syncbatcher",
				Help:      "the time it took for the transfer system to accept a job",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{TriggerTypeLabel},
		)

		startCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "start_total",
				Namespace: "syncbatcher",
				Subsystem: "transfer",
				Help:      "count of transfer job submissions",
			},
			[]string{TriggerTypeLabel},
		)

		startSuccessCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "start_success_total",
				Namespace: "syncbatcher",
				Subsystem: "transfer",
				Help:      "count of transfer jobs started",
			},
			[]string{TriggerTypeLabel},
		)

		startErrorCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "start_errors_total",
				Namespace: "syncbatcher",
				Subsystem: "transfer",
				Help:      "count of transfer job submissions that failed",
			},
			[]string{TriggerTypeLabel},
		)

		filterLengthHistogram = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:      "filter_length_bytes",
				Subsystem: "transfer",
				Namespace: "syncbatcher",
				Help:      "the length of the filter pattern sent with each job",
				Buckets:   prometheus.ExponentialBuckets(1024, 2, 10),
			},
			[]string{TriggerTypeLabel},
		)

		metricRegistry.MustRegister(
			latencyHistogram,
			startCounter,
			startSuccessCounter,
			startErrorCounter,
			filterLengthHistogram,
		)
	})

	return &triggerWithMetrics{
		next:        next,
		wrappedType: next.Type(),
	}
}

func (w *triggerWithMetrics) Start(ctx context.Context, filterPattern string) (domain.JobHandle, error) {
	startTime := time.Now()

	job, err := w.next.Start(ctx, filterPattern)
	latencyHistogram.WithLabelValues(w.wrappedType).Observe(time.Since(startTime).Seconds())
	startCounter.WithLabelValues(w.wrappedType).Inc()
	filterLengthHistogram.WithLabelValues(w.wrappedType).Observe(float64(len(filterPattern)))

	if err != nil {
		startErrorCounter.WithLabelValues(w.wrappedType).Inc()
	} else {
		startSuccessCounter.WithLabelValues(w.wrappedType).Inc()
	}
	return job, err
}

func (w *triggerWithMetrics) Type() string {
	return w.wrappedType
}
