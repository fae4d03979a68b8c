package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Read(context.Background(), Config{Attempts: 3, Delay: time.Millisecond, Timeout: time.Second}, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestReadRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Read(context.Background(), Config{Attempts: 3, Delay: time.Millisecond, Timeout: time.Second}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestReadReturnsLastErrorAfterAttempts(t *testing.T) {
	calls := 0
	failure := errors.New("persistent")
	err := Read(context.Background(), Config{Attempts: 3, Delay: time.Millisecond, Timeout: time.Second}, func(ctx context.Context) error {
		calls++
		return failure
	})
	require.ErrorIs(t, err, failure)
	assert.Equal(t, 3, calls)
}

func TestReadStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Read(ctx, Config{Attempts: 5, Delay: time.Minute, Timeout: time.Second}, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestReadAppliesAttemptTimeout(t *testing.T) {
	err := Read(context.Background(), Config{Attempts: 1, Delay: time.Millisecond, Timeout: 20 * time.Millisecond}, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNormalizedDefaults(t *testing.T) {
	cfg := Config{}.Normalized()
	assert.Equal(t, 3, cfg.Attempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Delay)
	assert.Equal(t, 10*time.Second, cfg.Timeout)

	custom := Config{Attempts: 5, Delay: time.Second, Timeout: time.Minute}.Normalized()
	assert.Equal(t, 5, custom.Attempts)
}
