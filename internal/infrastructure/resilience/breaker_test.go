package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/legalbox/swa/internal/infrastructure/logging"
)

var errRemote = errors.New("remote failed")

func run(b *Breaker, success bool) error {
	_, err := Execute(b, func() (struct{}, error) {
		if success {
			return struct{}{}, nil
		}
		return struct{}{}, errRemote
	})
	return err
}

func TestBreakerStateTransitions(t *testing.T) {
	tripAfter := func(n uint32) func(Counts) bool {
		return func(c Counts) bool { return c.ConsecutiveFailures >= n }
	}

	tests := []struct {
		name     string
		settings Settings
		requests []bool
		wait     time.Duration
		want     State
	}{
		{
			name:     "stays closed on successes",
			settings: Settings{},
			requests: []bool{true, true, true},
			want:     StateClosed,
		},
		{
			name:     "opens after consecutive failures",
			settings: Settings{ReadyToTrip: tripAfter(3)},
			requests: []bool{false, false, false},
			want:     StateOpen,
		},
		{
			name:     "success resets consecutive failures",
			settings: Settings{ReadyToTrip: tripAfter(3)},
			requests: []bool{false, false, true, false, false},
			want:     StateClosed,
		},
		{
			name:     "half-open after timeout",
			settings: Settings{Timeout: 10 * time.Millisecond, ReadyToTrip: tripAfter(2)},
			requests: []bool{false, false},
			wait:     20 * time.Millisecond,
			want:     StateHalfOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("test", tt.settings, nil)
			for _, success := range tt.requests {
				_ = run(b, success)
			}
			time.Sleep(tt.wait)
			assert.Equal(t, tt.want, b.State())
		})
	}
}

func TestBreakerFailsFastWhenOpen(t *testing.T) {
	b := New("test", Settings{ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 }}, nil)

	assert.ErrorIs(t, run(b, false), errRemote)

	called := false
	_, err := Execute(b, func() (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerRecovers(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	b := New("server", Settings{
		MaxRequests: 2,
		Timeout:     10 * time.Millisecond,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	}, logging.NewFromCore(core))

	_ = run(b, false)
	require.Equal(t, StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, run(b, true))
	assert.Equal(t, StateHalfOpen, b.State())
	require.NoError(t, run(b, true))
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, 3, logs.FilterMessage("Circuit breaker state changed").Len())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New("test", Settings{
		Timeout:     10 * time.Millisecond,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	}, nil)

	_ = run(b, false)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	_ = run(b, false)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	b := New("test", Settings{ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 }}, nil)

	_, err := Execute(b, func() (int, error) { return 0, context.Canceled })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, uint32(1), b.Counts().TotalSuccesses)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b := New("test", Settings{ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 }}, nil)

	assert.Panics(t, func() {
		_, _ = Execute(b, func() (int, error) { panic("boom") })
	})
	assert.Equal(t, StateOpen, b.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}
