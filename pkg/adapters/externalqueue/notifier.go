package externalqueue

import (
	"context"
	"log/slog"

	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/logger"
)

// FlushNotifier publishes a message for every transfer job started. The job is
// already running when it is called, so failures are only logged.
type FlushNotifier struct {
	l     *slog.Logger
	queue ExternalQueue
}

func NewFlushNotifier(l *slog.Logger, queue ExtQueueWithMetadata) *FlushNotifier {
	return &FlushNotifier{
		l:     l.With(logger.ComponentKey, "flush_notifier", logger.ExternalQueueTypeKey, queue.Type()),
		queue: queue,
	}
}

func (n *FlushNotifier) OnFlush(ctx context.Context, event domain.FlushEvent) {
	err := n.queue.Enqueue(ctx, &event)
	if err != nil {
		n.l.Error("could not publish flush notification", "job_id", event.JobID, "error", err)
	}
}
