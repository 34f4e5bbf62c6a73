package httpin

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ensureMetricRegisteringOnce sync.Once
	sizeHist                    *prometheus.HistogramVec
	errorsCounter               *prometheus.CounterVec
)

func initializeMetrics(metricRegistry *prometheus.Registry) {
	ensureMetricRegisteringOnce.Do(func() {
		sizeHist = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:      "request_body_size_bytes",
				Subsystem: "http",
				Namespace: "syncbatcher",
				Help:      "The size in bytes of (received) request body, after decompression",
				// 0, 1KB, 64KB, 256KB, 512KB, 1MB, 2.5MB, 5MB
				Buckets: []float64{0, 1024, 65536, 262144, 524288, 1048576, 2621440, 5242880},
			},
			[]string{"path"},
		)

		errorsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "request_errors_total",
				Subsystem: "http",
				Namespace: "syncbatcher",
				Help:      "Invocation requests that could not be served, by error type.",
			},
			[]string{"error_type", "path"},
		)

		metricRegistry.MustRegister(sizeHist, errorsCounter)
	})
}

func observeSize(path string, size float64) {
	sizeHist.WithLabelValues(path).Observe(size)
}

func increaseErrorCount(errorType string, path string) {
	errorsCounter.WithLabelValues(errorType, path).Inc()
}
