package transfer

import (
	"context"

	"github.com/jademcosta/syncbatcher/pkg/circuitbreaker"
	"github.com/jademcosta/syncbatcher/pkg/domain"
)

type triggerWithCircuitBreaker struct {
	next TriggerWithMetadata
	cb   circuitbreaker.CircuitBreaker
}

// NewTriggerWithCircuitBreaker refuses to call next while the breaker is open.
// The caller gets gobreaker's open state error instead.
func NewTriggerWithCircuitBreaker(next TriggerWithMetadata, cb circuitbreaker.CircuitBreaker) TriggerWithMetadata {
	return &triggerWithCircuitBreaker{next: next, cb: cb}
}

func (w *triggerWithCircuitBreaker) Start(ctx context.Context, filterPattern string) (domain.JobHandle, error) {
	result, err := w.cb.Execute(func() (interface{}, error) {
		return w.next.Start(ctx, filterPattern)
	})
	if err != nil {
		return domain.JobHandle{}, err
	}

	return result.(domain.JobHandle), nil
}

func (w *triggerWithCircuitBreaker) Type() string {
	return w.next.Type()
}
