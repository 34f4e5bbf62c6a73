package circuitbreaker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jademcosta/syncbatcher/pkg/circuitbreaker"
	"github.com/jademcosta/syncbatcher/pkg/config"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

var testRegistry = prometheus.NewRegistry()

func TestFromConfigReturnsTheCorrectTypes(t *testing.T) {
	disabled := circuitbreaker.FromConfig(logger.NewDummy(), testRegistry,
		config.CircuitBreakerConfig{Disable: true, OpenInterval: 100}, "a")
	assert.IsType(t, &circuitbreaker.DummyCircuitBreaker{}, disabled)

	enabled := circuitbreaker.FromConfig(logger.NewDummy(), testRegistry,
		config.CircuitBreakerConfig{OpenInterval: 100}, "b")
	assert.IsType(t, &gobreaker.CircuitBreaker{}, enabled)
}

func TestOpensOnFirstFailureAndClosesAfterInterval(t *testing.T) {
	openInterval := 50 * time.Millisecond
	sut := circuitbreaker.FromConfig(logger.NewDummy(), testRegistry,
		config.CircuitBreakerConfig{OpenInterval: openInterval.Milliseconds()}, "c")

	calls := 0
	failing := func() (interface{}, error) {
		calls++
		return nil, errors.New("downstream is down")
	}

	_, err := sut.Execute(failing)
	assert.Error(t, err)
	assert.Equal(t, 1, calls)

	_, err = sut.Execute(failing)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState, "should not call the function while open")
	assert.Equal(t, 1, calls)

	time.Sleep(openInterval + 10*time.Millisecond)

	result, err := sut.Execute(func() (interface{}, error) {
		calls++
		return "ok", nil
	})
	assert.NoError(t, err, "should let a request through after the open interval")
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, calls)
}

func TestDummyAlwaysCalls(t *testing.T) {
	sut := circuitbreaker.NewDummyCircuitBreaker()

	for i := 0; i < 5; i++ {
		_, err := sut.Execute(func() (interface{}, error) { return nil, errors.New("fail") })
		assert.Error(t, err)
	}

	result, err := sut.Execute(func() (interface{}, error) { return 7, nil })
	assert.NoError(t, err)
	assert.Equal(t, 7, result)
}
