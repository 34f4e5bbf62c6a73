package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/logger"
)

const Source = "scheduler"

type Submitter interface {
	Submit(ctx context.Context, source string, batch domain.Batch) (domain.Outcome, error)
}

// Scheduler submits a scheduled batch on every tick, so the manifest gets
// flushed even when notifications stop arriving.
type Scheduler struct {
	l         *slog.Logger
	submitter Submitter
	interval  time.Duration
}

func New(l *slog.Logger, submitter Submitter, interval time.Duration) *Scheduler {
	return &Scheduler{
		l:         l.With(logger.ComponentKey, "scheduler"),
		submitter: submitter,
		interval:  interval,
	}
}

// Run should be called on a goroutine
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.l.Info("scheduler started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.l.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	outcome, err := s.submitter.Submit(ctx, Source, domain.ScheduledBatch())
	if err != nil {
		s.l.Error("scheduled invocation failed", "error", err)
		return
	}

	s.l.Info("scheduled invocation finished", "outcome", outcome.Kind, "reason", outcome.Reason,
		"tokens_flushed", outcome.TokensFlushed, "job_id", outcome.JobID)
}
