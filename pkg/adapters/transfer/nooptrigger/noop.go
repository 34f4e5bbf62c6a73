package nooptrigger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/logger"
)

const TYPE string = "noop"

// Trigger pretends to start a transfer job. Useful for local runs.
type Trigger struct {
	log *slog.Logger
}

func New(l *slog.Logger) *Trigger {
	return &Trigger{log: l.With(logger.TriggerTypeKey, TYPE)}
}

func (trigger *Trigger) Start(_ context.Context, filterPattern string) (domain.JobHandle, error) {
	job := domain.JobHandle{ID: uuid.NewString()}
	trigger.log.Info("noop transfer job started", "job_id", job.ID, "filter_length", len(filterPattern))
	return job, nil
}

func (trigger *Trigger) Type() string {
	return TYPE
}
