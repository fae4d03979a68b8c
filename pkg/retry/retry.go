package retry

import (
	"context"
	"time"
)

// Config bounds retries for entity-store reads. Writes are never retried and
// must not go through this helper.
type Config struct {
	Attempts int
	Delay    time.Duration
	Timeout  time.Duration
}

// Normalized returns the config with legacy defaults applied: three attempts
// with a linear backoff step of 500ms.
func (c Config) Normalized() Config {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.Delay <= 0 {
		c.Delay = 500 * time.Millisecond
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}

// Read runs fn up to cfg.Attempts times with linear backoff (delay ×
// attempt number) between failures. Each attempt runs under its own timeout.
// The context is honoured between attempts so a cancelled caller does not
// queue further work.
func Read(ctx context.Context, cfg Config, fn func(context.Context) error) error {
	cfg = cfg.Normalized()

	var lastErr error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		lastErr = fn(attemptCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.Attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.Delay * time.Duration(attempt)):
		}
	}
	return lastErr
}
