package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, Linear(time.Millisecond), func(context.Context) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	var delays []time.Duration

	backoff := func(attempt int) time.Duration {
		delays = append(delays, Linear(time.Millisecond)(attempt))
		return 0 // don't actually sleep in tests
	}

	err := Do(context.Background(), 3, backoff, func(context.Context) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls, "exactly three attempts")
	// Linear backoff consulted between attempts only: after 1 and after 2.
	require.Len(t, delays, 2)
	assert.Equal(t, 1*time.Millisecond, delays[0])
	assert.Equal(t, 2*time.Millisecond, delays[1])
}

func TestDo_RecoversMidway(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, Linear(0), func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, 3, Linear(time.Hour), func(context.Context) error {
			close(started)
			return errors.New("transient")
		})
	}()

	<-started
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestLinear(t *testing.T) {
	b := Linear(time.Second)
	assert.Equal(t, 1*time.Second, b(1))
	assert.Equal(t, 2*time.Second, b(2))
}

func TestExponential(t *testing.T) {
	b := Exponential(10*time.Second, 80*time.Second)
	assert.Equal(t, 10*time.Second, b(1))
	assert.Equal(t, 20*time.Second, b(2))
	assert.Equal(t, 40*time.Second, b(3))
	assert.Equal(t, 80*time.Second, b(4))
	assert.Equal(t, 80*time.Second, b(10), "capped")
}

func TestJitter_StaysWithinBounds(t *testing.T) {
	b := Jitter(Exponential(10*time.Second, 80*time.Second), 0.2)
	for i := 0; i < 50; i++ {
		d := b(1)
		assert.GreaterOrEqual(t, d, 8*time.Second)
		assert.LessOrEqual(t, d, 12*time.Second)
	}
}
