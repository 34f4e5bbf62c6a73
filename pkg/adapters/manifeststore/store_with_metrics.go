package manifeststore

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StoreTypeLabel string = "store_type"
	OperationLabel string = "operation"
	readOperation  string = "read"
	writeOperation string = "write"
)

var (
	ensureMetricRegisteringOnce sync.Once
	latencyHistogram            *prometheus.HistogramVec
	operationsCounter           *prometheus.CounterVec
	operationErrorsCounter      *prometheus.CounterVec
	absentReadsCounter          *prometheus.CounterVec
)

type storeWithMetrics struct {
	store       StoreWithMetadata
	wrappedType string
}

func NewStoreWithMetrics(store StoreWithMetadata, metricRegistry *prometheus.Registry) StoreWithMetadata {
	ensureMetricRegisteringOnce.Do(func() {
		latencyHistogram = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:      "operation_latency_seconds",
				Subsystem: "manifest_store",
				Namespace: "syncbatcher",
				Help:      "the time it took for a manifest read or write to finish",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{StoreTypeLabel, OperationLabel},
		)

		operationsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "operations_total",
				Namespace: "syncbatcher",
				Subsystem: "manifest_store",
				Help:      "count of manifest reads and writes that finished",
			},
			[]string{StoreTypeLabel, OperationLabel},
		)

		operationErrorsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "operation_errors_total",
				Namespace: "syncbatcher",
				Subsystem: "manifest_store",
				Help:      "count of manifest reads and writes that failed",
			},
			[]string{StoreTypeLabel, OperationLabel},
		)

		absentReadsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "absent_reads_total",
				Namespace: "syncbatcher",
				Subsystem: "manifest_store",
				Help:      "count of reads that found no manifest at all",
			},
			[]string{StoreTypeLabel},
		)

		metricRegistry.MustRegister(
			latencyHistogram,
			operationsCounter,
			operationErrorsCounter,
			absentReadsCounter,
		)
	})

	return &storeWithMetrics{
		store:       store,
		wrappedType: store.Type(),
	}
}

func (w *storeWithMetrics) Read(ctx context.Context) (string, bool, error) {
	startTime := time.Now()

	content, found, err := w.store.Read(ctx)
	w.observe(readOperation, startTime, err)

	if err == nil && !found {
		absentReadsCounter.WithLabelValues(w.wrappedType).Inc()
	}
	return content, found, err
}

func (w *storeWithMetrics) Write(ctx context.Context, content string) error {
	startTime := time.Now()

	err := w.store.Write(ctx, content)
	w.observe(writeOperation, startTime, err)
	return err
}

func (w *storeWithMetrics) Type() string {
	return w.wrappedType
}

func (w *storeWithMetrics) Close() error {
	if closer, ok := w.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (w *storeWithMetrics) observe(operation string, startTime time.Time, err error) {
	latencyHistogram.WithLabelValues(w.wrappedType, operation).Observe(time.Since(startTime).Seconds())
	operationsCounter.WithLabelValues(w.wrappedType, operation).Inc()

	if err != nil {
		operationErrorsCounter.WithLabelValues(w.wrappedType, operation).Inc()
	}
}
