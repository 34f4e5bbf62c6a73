package externalqueue

import (
	"context"
	"sync"
	"time"

	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const QueueTypeLabel string = "queue_type"

var (
	ensureMetricRegisteringOnce sync.Once
	latencyHistogram            *prometheus.HistogramVec
	enqueueCounter              *prometheus.CounterVec
	enqueueErrorCounter         *prometheus.CounterVec
	enqueueSuccessCounter       *prometheus.CounterVec
)

type queueWithMetrics struct {
	wrappedQueue ExternalQueue
	wrappedType  string
}

func NewExternalQueueWithMetrics(queue ExtQueueWithMetadata, metricRegistry *prometheus.Registry) ExtQueueWithMetadata {
	ensureMetricRegisteringOnce.Do(func() {
		latencyHistogram = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:      "put_latency_seconds",
				Subsystem: "external_queue",
				Namespace: "syncbatcher",
				Help:      "the time it took to finish the put action to a external queue (only successful cases)",
				Buckets:   []float64{0.25, 0.5, 1.0, 1.5, 2.0, 5.0, 10.0, 30.0, 45.0, 60.0},
			},
			[]string{QueueTypeLabel},
		)

		enqueueCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "put_total",
				Namespace: "syncbatcher",
				Subsystem: "external_queue",
				Help:      "count of put actions to external queues that finished (successful or not)",
			},
			[]string{QueueTypeLabel},
		)

		enqueueErrorCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "put_errors_total",
				Namespace: "syncbatcher",
				Subsystem: "external_queue",
				Help:      "count of errors putting to external queue",
			},
			[]string{QueueTypeLabel},
		)

		enqueueSuccessCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "put_success_total",
				Namespace: "syncbatcher",
				Subsystem: "external_queue",
				Help:      "count of successes putting to external queue",
			},
			[]string{QueueTypeLabel},
		)

		metricRegistry.MustRegister(latencyHistogram, enqueueCounter, enqueueErrorCounter, enqueueSuccessCounter)
	})

	return &queueWithMetrics{
		wrappedQueue: queue,
		wrappedType:  queue.Type(),
	}
}

func (w *queueWithMetrics) Enqueue(ctx context.Context, event *domain.FlushEvent) error {
	enqueueCounter.WithLabelValues(w.wrappedType).Inc()
	startTime := time.Now()

	err := w.wrappedQueue.Enqueue(ctx, event)
	elapsepTime := time.Since(startTime).Seconds()

	if err != nil {
		enqueueErrorCounter.WithLabelValues(w.wrappedType).Inc()
	} else {
		latencyHistogram.WithLabelValues(w.wrappedType).Observe(elapsepTime)
		enqueueSuccessCounter.WithLabelValues(w.wrappedType).Inc()
	}

	return err
}

func (w *queueWithMetrics) Type() string {
	return w.wrappedType
}
