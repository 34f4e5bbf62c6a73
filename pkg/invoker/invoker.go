// Package invoker runs coordinator invocations one at a time. Every source of
// batches (queue consumer, scheduler, HTTP API) submits here, which is what
// keeps a single invocation in flight against the manifest.
package invoker

import (
	"context"
	"log/slog"
	"time"

	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
)

type Executor interface {
	Invoke(ctx context.Context, batch domain.Batch) (domain.Outcome, error)
}

type result struct {
	outcome domain.Outcome
	err     error
}

type request struct {
	ctx       context.Context
	source    string
	batch     domain.Batch
	createdAt time.Time
	resp      chan result
}

type Invoker struct {
	l        *slog.Logger
	exec     Executor
	timeout  time.Duration
	requests chan *request
	done     chan struct{}
	metrics  *metricCollector
}

func New(l *slog.Logger, exec Executor, timeout time.Duration, metricRegistry *prometheus.Registry) *Invoker {
	return &Invoker{
		l:        l.With(logger.ComponentKey, "invoker"),
		exec:     exec,
		timeout:  timeout,
		requests: make(chan *request),
		done:     make(chan struct{}),
		metrics:  newMetricCollector(metricRegistry),
	}
}

// Run should be called on a goroutine. Once ctx is done no new invocation is
// accepted. An invocation already running is allowed to finish.
func (inv *Invoker) Run(ctx context.Context) {
	defer close(inv.done)

	for {
		select {
		case <-ctx.Done():
			inv.l.Info("invoker stopped")
			return
		case req := <-inv.requests:
			inv.execute(req)
		}
	}
}

// Submit blocks until the batch was applied. A caller giving up (ctx done)
// does not cancel an invocation that already started.
func (inv *Invoker) Submit(ctx context.Context, source string, batch domain.Batch) (domain.Outcome, error) {
	req := &request{
		ctx:       ctx,
		source:    source,
		batch:     batch,
		createdAt: time.Now(),
		resp:      make(chan result, 1),
	}

	select {
	case <-inv.done:
		return domain.Outcome{}, domain.ErrInvokerStopped
	case <-ctx.Done():
		return domain.Outcome{}, ctx.Err()
	case inv.requests <- req:
	}

	select {
	case res := <-req.resp:
		return res.outcome, res.err
	case <-ctx.Done():
		return domain.Outcome{}, ctx.Err()
	}
}

func (inv *Invoker) execute(req *request) {
	inv.metrics.observeWait(req.source, time.Since(req.createdAt))

	ctx := context.WithoutCancel(req.ctx)
	cancel := func() {}
	if inv.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, inv.timeout)
	}
	defer cancel()

	inv.metrics.inFlight(1)
	outcome, err := inv.exec.Invoke(ctx, req.batch)
	inv.metrics.inFlight(-1)
	inv.metrics.finished(req.source, err)

	if err != nil {
		inv.l.Warn("invocation failed", logger.InvocationSourceKey, req.source, "error", err)
	}

	req.resp <- result{outcome: outcome, err: err}
}
