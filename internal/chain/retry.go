package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Retry dials or calls an endpoint until it answers.
type Retry struct {
	// Retries is the number of attempts after the first.
	Retries int
	// Backoff is the first delay; it doubles after each failure up to MaxBackoff.
	Backoff    time.Duration
	MaxBackoff time.Duration
	Logger     *zap.Logger
}

// Do runs fn until it succeeds, the retries run out or ctx ends. A context
// error returned by fn ends the loop at once.
func (r Retry) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	retries := r.Retries
	if retries < 0 {
		retries = 0
	}
	delay := r.Backoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	maxDelay := r.MaxBackoff
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("connected after retry", zap.String("op", op), zap.Int("attempt", attempt))
			}
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt > retries {
			return fmt.Errorf("%s: giving up after %d attempts: %w", op, attempt, err)
		}
		logger.Warn("attempt failed",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if delay *= 2; delay > maxDelay {
			delay = maxDelay
		}
	}
}
