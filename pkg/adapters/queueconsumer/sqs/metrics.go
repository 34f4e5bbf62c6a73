package sqs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const reasonLabel = "reason"

var (
	ensureMetricRegisteringOnce sync.Once
	receivedCounter             prometheus.Counter
	deletedCounter              prometheus.Counter
	deleteFailedCounter         prometheus.Counter
	batchesLeftCounter          *prometheus.CounterVec
)

type metricCollector struct{}

func newMetricCollector(metricRegistry *prometheus.Registry) *metricCollector {
	ensureMetricRegisteringOnce.Do(func() {
		receivedCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "syncbatcher",
			Subsystem: "sqs_consumer",
			Name:      "received_messages_total",
			Help:      "Messages received from the queue.",
		})

		deletedCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "syncbatcher",
			Subsystem: "sqs_consumer",
			Name:      "deleted_messages_total",
			Help:      "Messages deleted from the queue after their batch was applied.",
		})

		deleteFailedCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "syncbatcher",
			Subsystem: "sqs_consumer",
			Name:      "delete_failures_total",
			Help:      "Messages that could not be deleted and will be delivered again.",
		})

		batchesLeftCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "syncbatcher",
			Subsystem: "sqs_consumer",
			Name:      "batches_left_on_queue_total",
			Help:      "Batches whose messages were left on the queue, by reason.",
		}, []string{reasonLabel})

		metricRegistry.MustRegister(receivedCounter, deletedCounter, deleteFailedCounter, batchesLeftCounter)
	})

	return &metricCollector{}
}

func (m *metricCollector) received(count int) {
	receivedCounter.Add(float64(count))
}

func (m *metricCollector) deleted(count int) {
	deletedCounter.Add(float64(count))
}

func (m *metricCollector) deleteFailed(count int) {
	deleteFailedCounter.Add(float64(count))
}

func (m *metricCollector) batchLeft(reason string) {
	batchesLeftCounter.WithLabelValues(reason).Inc()
}
