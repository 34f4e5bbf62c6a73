// Package archive keeps a compressed copy of every filter handed to a transfer
// job, so past jobs can be audited or replayed.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jademcosta/syncbatcher/pkg/archive/filepather"
	"github.com/jademcosta/syncbatcher/pkg/compressor"
	"github.com/jademcosta/syncbatcher/pkg/config"
	"github.com/jademcosta/syncbatcher/pkg/datetimeprovider"
	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
)

const SmallestAllowedCompressorWriter = 512

type ObjStorage interface {
	Upload(ctx context.Context, workU *domain.WorkUnit) (*domain.UploadResult, error)
}

type Archiver struct {
	l               *slog.Logger
	storage         ObjStorage
	compressionConf config.CompressionConfig
	pather          *filepather.FilePather
}

func New(
	l *slog.Logger, conf config.ArchiveConfig, storage ObjStorage,
	metricRegistry *prometheus.Registry, currentTimeProvider func() time.Time,
) *Archiver {
	initializeMetrics(metricRegistry)

	return &Archiver{
		l:               l.With(logger.ComponentKey, "archive"),
		storage:         storage,
		compressionConf: conf.Compression,
		pather: filepather.New(
			datetimeprovider.New(currentTimeProvider),
			conf.PathPrefixCount,
			compressor.Extension(conf.Compression.Type),
		),
	}
}

// OnFlush archives the filter of a started job. Failures are only logged and
// counted, the job is running already.
func (a *Archiver) OnFlush(ctx context.Context, event domain.FlushEvent) {
	compressedData, err := compress(a.compressionConf, []byte(event.FilterPattern))
	if err != nil {
		incArchiveFailures("compression")
		a.l.Error("error compressing filter", "job_id", event.JobID, "error", err)
		return
	}

	workU := &domain.WorkUnit{
		Prefix:   a.pather.Prefix(),
		Filename: a.pather.Filename(),
		Data:     compressedData,
	}

	uploadResult, err := a.storage.Upload(ctx, workU)
	if err != nil {
		incArchiveFailures("upload")
		a.l.Error("failed to archive filter", "job_id", event.JobID, "prefix", workU.Prefix,
			"filename", workU.Filename, "error", err)
		return
	}

	incArchived()
	a.l.Debug("filter archived", "job_id", event.JobID, "object_path", uploadResult.Path,
		"size_in_bytes", uploadResult.SizeInBytes)
}

func compress(conf config.CompressionConfig, data []byte) ([]byte, error) {
	startTime := time.Now()
	buf := newCompressionResultBuffer(conf, len(data))
	compressWorker, err := compressor.NewWriter(&conf, buf)
	if err != nil {
		return nil, fmt.Errorf("error creating compressor: %w", err)
	}

	_, err = compressWorker.Write(data)
	if err != nil {
		return nil, fmt.Errorf("error writing compressed data into memory buffer: %w", err)
	}

	err = compressWorker.Close()
	if err != nil {
		return nil, fmt.Errorf("error finishing compressed data: %w", err)
	}

	compressedData := buf.Bytes()
	if len(data) > 0 {
		reportCompressionRatio(conf.Type, float64(len(compressedData))/float64(len(data)))
	}
	reportCompressionDuration(conf.Type, time.Since(startTime))

	return compressedData, nil
}

func newCompressionResultBuffer(conf config.CompressionConfig, originalDataSize int) *bytes.Buffer {
	buf := &bytes.Buffer{}
	if conf.Type == "" {
		buf.Grow(originalDataSize)
		return buf
	}

	relativeSize := (originalDataSize * conf.PreallocSlicePercentage) / 100
	if relativeSize < SmallestAllowedCompressorWriter {
		relativeSize = SmallestAllowedCompressorWriter
	}
	buf.Grow(relativeSize)

	return buf
}
