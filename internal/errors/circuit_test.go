package errors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("meili", WithMaxFailures(3))

	fail := func() error { return New(ErrCodeEngineUnavailable, "down", nil) }

	for i := 0; i < 3; i++ {
		err := cb.Execute(fail)
		require.Error(t, err)
	}

	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(fail), ErrCircuitOpen)
}

func TestCircuitBreaker_PermanentErrorDoesNotTrip(t *testing.T) {
	cb := NewCircuitBreaker("meili", WithMaxFailures(2))

	// A 4xx means the engine is up; the breaker must stay closed.
	for i := 0; i < 5; i++ {
		err := cb.Execute(func() error { return New(ErrCodeEngineRejected, "bad request", nil) })
		require.Error(t, err)
	}

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker("meili",
		WithMaxFailures(1),
		WithResetTimeout(10*time.Millisecond))

	_ = cb.Execute(func() error { return New(ErrCodeEngineTimeout, "timeout", nil) })
	assert.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	// A success in half-open closes the circuit.
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 0, cb.Failures())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker("meili", WithMaxFailures(1))
	_ = cb.Execute(func() error { return New(ErrCodeEngineTimeout, "timeout", nil) })
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_StateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}
