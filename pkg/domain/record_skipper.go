package domain

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const ReasonLabel string = "reason"

var (
	ensureMetricRegisteringOnce sync.Once
	skippedCounter              *prometheus.CounterVec
)

type RecordSkipper interface {
	Skip(*MalformedRecordError)
}

type ObservableRecordSkipper struct {
	l *slog.Logger
}

func NewObservableRecordSkipper(l *slog.Logger, metricRegistry *prometheus.Registry) RecordSkipper {
	ensureMetricRegisteringOnce.Do(func() {
		skippedCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "skipped_records_total",
				Namespace: "syncbatcher",
				Help:      "How many inbound records were skipped because no object key could be extracted",
			},
			[]string{ReasonLabel},
		)
		metricRegistry.MustRegister(skippedCounter)
	})

	return &ObservableRecordSkipper{l: l}
}

func (skipper *ObservableRecordSkipper) Skip(recErr *MalformedRecordError) {
	skippedCounter.WithLabelValues(recErr.Reason).Inc()
	skipper.l.Warn("record has been skipped", "record_id", recErr.RecordID, "reason", recErr.Reason, "error", recErr.Err)
}
