package objstorage

import (
	"context"
	"sync"
	"time"

	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	StorageTypeLabel string = "storage_type"
	NameLabel        string = "name"
)

var (
	ensureMetricRegisteringOnce sync.Once
	latencyHistogram            *prometheus.HistogramVec
	uploadCounter               *prometheus.CounterVec
	uploadErrorCounter          *prometheus.CounterVec
	uploadedBytesCounter        *prometheus.CounterVec
)

type storageWithMetrics struct {
	storage     ObjStorage
	wrappedType string
	wrappedName string
}

func NewStorageWithMetrics(storage ObjStorageWithMetadata, metricRegistry *prometheus.Registry) ObjStorageWithMetadata {
	ensureMetricRegisteringOnce.Do(func() {
		latencyHistogram = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:      "upload_latency_seconds",
				Subsystem: "archive_storage",
				Namespace: "syncbatcher",
				Help:      "the time it took to write an archived filter to the object storage",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{StorageTypeLabel, NameLabel},
		)

		uploadCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "upload_total",
				Namespace: "syncbatcher",
				Subsystem: "archive_storage",
				Help:      "count of uploads to the archive storage that finished",
			},
			[]string{StorageTypeLabel, NameLabel},
		)

		uploadErrorCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "upload_errors_total",
				Namespace: "syncbatcher",
				Subsystem: "archive_storage",
				Help:      "count of errors uploading to the archive storage",
			},
			[]string{StorageTypeLabel, NameLabel},
		)

		uploadedBytesCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:      "uploaded_bytes_total",
				Namespace: "syncbatcher",
				Subsystem: "archive_storage",
				Help:      "bytes written to the archive storage",
			},
			[]string{StorageTypeLabel, NameLabel},
		)

		metricRegistry.MustRegister(
			latencyHistogram,
			uploadCounter,
			uploadErrorCounter,
			uploadedBytesCounter,
		)
	})

	return &storageWithMetrics{
		storage:     storage,
		wrappedType: storage.Type(),
		wrappedName: storage.Name(),
	}
}

func (w *storageWithMetrics) Upload(ctx context.Context, workU *domain.WorkUnit) (*domain.UploadResult, error) {
	startTime := time.Now()

	uploadResult, err := w.storage.Upload(ctx, workU)

	latencyHistogram.WithLabelValues(w.wrappedType, w.wrappedName).Observe(time.Since(startTime).Seconds())
	uploadCounter.WithLabelValues(w.wrappedType, w.wrappedName).Inc()

	if err != nil {
		uploadErrorCounter.WithLabelValues(w.wrappedType, w.wrappedName).Inc()
	} else {
		uploadedBytesCounter.WithLabelValues(w.wrappedType, w.wrappedName).Add(float64(uploadResult.SizeInBytes))
	}
	return uploadResult, err
}

func (w *storageWithMetrics) Type() string {
	return w.wrappedType
}

func (w *storageWithMetrics) Name() string {
	return w.wrappedName
}
