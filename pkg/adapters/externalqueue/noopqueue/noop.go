package noopqueue

import (
	"context"
	"log/slog"

	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/logger"
)

const TYPE = "noop"

type NoopExternalQueue struct {
	log *slog.Logger
}

func New(l *slog.Logger) *NoopExternalQueue {
	return &NoopExternalQueue{
		log: l.With(logger.ExternalQueueTypeKey, TYPE),
	}
}

func (noop *NoopExternalQueue) Enqueue(_ context.Context, event *domain.FlushEvent) error {
	noop.log.Debug("enqueue called on No-op ext queue", "job_id", event.JobID)
	return nil
}

func (noop *NoopExternalQueue) Type() string {
	return TYPE
}
