package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"github.com/jademcosta/syncbatcher/pkg/scheduler"
	"github.com/stretchr/testify/assert"
)

type mockSubmitter struct {
	mu      sync.Mutex
	batches []domain.Batch
	sources []string
	err     error
}

func (m *mockSubmitter) Submit(_ context.Context, source string, batch domain.Batch) (domain.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batches = append(m.batches, batch)
	m.sources = append(m.sources, source)
	return domain.Outcome{Kind: domain.OutcomeFlushed}, m.err
}

func (m *mockSubmitter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func TestSubmitsScheduledBatchesOnEveryTick(t *testing.T) {
	submitter := &mockSubmitter{}
	sut := scheduler.New(logger.NewDummy(), submitter, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go sut.Run(ctx)

	time.Sleep(55 * time.Millisecond)
	cancel()

	submitter.mu.Lock()
	defer submitter.mu.Unlock()
	assert.GreaterOrEqual(t, len(submitter.batches), 3, "should have ticked several times")
	for i, batch := range submitter.batches {
		assert.Equal(t, domain.BatchKindScheduled, batch.Kind)
		assert.Equal(t, scheduler.Source, submitter.sources[i])
	}
}

func TestKeepsTickingAfterErrors(t *testing.T) {
	submitter := &mockSubmitter{err: errors.New("store is down")}
	sut := scheduler.New(logger.NewDummy(), submitter, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go sut.Run(ctx)

	time.Sleep(40 * time.Millisecond)
	cancel()

	assert.GreaterOrEqual(t, submitter.count(), 2)
}

func TestStopsWhenContextIsDone(t *testing.T) {
	submitter := &mockSubmitter{}
	sut := scheduler.New(logger.NewDummy(), submitter, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		sut.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		assert.Fail(t, "scheduler should stop when the context is cancelled")
	}
	assert.Equal(t, 0, submitter.count())
}
