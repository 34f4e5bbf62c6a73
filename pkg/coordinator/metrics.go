package coordinator

import (
	"sync"
	"time"

	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	batchKindKey   = "batch_kind"
	outcomeKindKey = "outcome"
	reasonKey      = "reason"
)

var (
	ensureMetricRegisteringOnce sync.Once
	invocationsCounter          *prometheus.CounterVec
	invocationFailuresCounter   *prometheus.CounterVec
	invocationLatencyHist       *prometheus.HistogramVec
	manifestLengthGauge         prometheus.Gauge
	flushesCounter              *prometheus.CounterVec
	tokensFlushedCounter        prometheus.Counter
	keysAppendedCounter         prometheus.Counter
	deferredBatchesCounter      prometheus.Counter
	oversizedKeysCounter        prometheus.Counter
)

type metricCollector struct{}

func newMetricCollector(metricRegistry *prometheus.Registry) *metricCollector {
	ensureMetricRegisteringOnce.Do(func() {
		invocationsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "syncbatcher",
				Subsystem: "coordinator",
				Name:      "invocations_total",
				Help:      "Finished invocations, by batch kind, outcome and reason.",
			},
			[]string{batchKindKey, outcomeKindKey, reasonKey},
		)

		invocationFailuresCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "syncbatcher",
				Subsystem: "coordinator",
				Name:      "invocation_failures_total",
				Help:      "Invocations that returned an error, by batch kind and failure reason.",
			},
			[]string{batchKindKey, reasonKey},
		)

		invocationLatencyHist = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "syncbatcher",
				Subsystem: "coordinator",
				Name:      "invocation_seconds",
				Help:      "How long an invocation took.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{batchKindKey},
		)

		manifestLengthGauge = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "syncbatcher",
				Subsystem: "coordinator",
				Name:      "manifest_length_bytes",
				Help:      "The last observed length of the manifest.",
			},
		)

		flushesCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "syncbatcher",
				Subsystem: "coordinator",
				Name:      "flushes_total",
				Help:      "Transfer jobs started, by flush reason.",
			},
			[]string{reasonKey},
		)

		tokensFlushedCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "syncbatcher",
				Subsystem: "coordinator",
				Name:      "tokens_flushed_total",
				Help:      "Filter tokens handed to transfer jobs.",
			},
		)

		keysAppendedCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "syncbatcher",
				Subsystem: "coordinator",
				Name:      "keys_appended_total",
				Help:      "Object keys accumulated in the manifest.",
			},
		)

		deferredBatchesCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "syncbatcher",
				Subsystem: "coordinator",
				Name:      "deferred_batches_total",
				Help:      "Batches that had keys left out and must be delivered again.",
			},
		)

		oversizedKeysCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "syncbatcher",
				Subsystem: "coordinator",
				Name:      "oversized_keys_total",
				Help:      "Keys ignored because they do not fit an empty manifest.",
			},
		)

		metricRegistry.MustRegister(
			invocationsCounter,
			invocationFailuresCounter,
			invocationLatencyHist,
			manifestLengthGauge,
			flushesCounter,
			tokensFlushedCounter,
			keysAppendedCounter,
			deferredBatchesCounter,
			oversizedKeysCounter,
		)
	})

	return &metricCollector{}
}

func (m *metricCollector) observeInvocation(kind domain.BatchKind, elapsed time.Duration) {
	invocationLatencyHist.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

func (m *metricCollector) invocationSucceeded(kind domain.BatchKind, outcome domain.Outcome) {
	invocationsCounter.WithLabelValues(string(kind), string(outcome.Kind), outcome.Reason).Inc()
	if outcome.Deferred {
		deferredBatchesCounter.Inc()
	}
}

func (m *metricCollector) invocationFailed(kind domain.BatchKind, reason string) {
	invocationFailuresCounter.WithLabelValues(string(kind), reason).Inc()
}

func (m *metricCollector) setManifestLength(length int) {
	manifestLengthGauge.Set(float64(length))
}

func (m *metricCollector) incFlushes(reason string, tokens int) {
	flushesCounter.WithLabelValues(reason).Inc()
	tokensFlushedCounter.Add(float64(tokens))
}

func (m *metricCollector) addKeysAppended(count int) {
	keysAppendedCounter.Add(float64(count))
}

func (m *metricCollector) incOversizedKeys() {
	oversizedKeysCounter.Inc()
}
