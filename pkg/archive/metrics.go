package archive

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ensureSingleMetricRegistration sync.Once
	compressionRatioHist           *prometheus.HistogramVec
	compressionLatencyHist         *prometheus.HistogramVec
	archivedCounter                prometheus.Counter
	archiveFailuresCounter         *prometheus.CounterVec
)

func initializeMetrics(metricRegistry *prometheus.Registry) {
	ensureSingleMetricRegistration.Do(func() {
		compressionRatioHist = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "syncbatcher",
				Subsystem: "compression",
				Name:      "ratio",
				Help:      "the ratio of compressed size vs original size (the lower the better compression)",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.15, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0, 1.1},
			}, []string{"type"})

		compressionLatencyHist = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "syncbatcher",
				Subsystem: "compression",
				Name:      "duration_millis",
				Help:      "The time it took to compress a filter before archiving it, in milliseconds",
				Buckets:   []float64{1.0, 5.0, 10.0, 25.0, 50.0, 125.0, 250.0, 500.0, 1000.0},
			},
			[]string{"type"},
		)

		archivedCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "syncbatcher",
				Subsystem: "archive",
				Name:      "filters_archived_total",
				Help:      "Filters of started transfer jobs written to the archive storage.",
			})

		archiveFailuresCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "syncbatcher",
				Subsystem: "archive",
				Name:      "failures_total",
				Help:      "Filters that could not be archived, by stage.",
			},
			[]string{"stage"},
		)

		metricRegistry.MustRegister(
			compressionRatioHist,
			compressionLatencyHist,
			archivedCounter,
			archiveFailuresCounter,
		)
	})
}

func reportCompressionRatio(compressionType string, ratio float64) {
	compressionRatioHist.WithLabelValues(compressionType).Observe(ratio)
}

func reportCompressionDuration(compressionType string, duration time.Duration) {
	compressionLatencyHist.WithLabelValues(compressionType).Observe(float64(duration.Milliseconds()))
}

func incArchived() {
	archivedCounter.Inc()
}

func incArchiveFailures(stage string) {
	archiveFailuresCounter.WithLabelValues(stage).Inc()
}
