package chain

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Backoff is how a startup call is retried. The delay doubles after each
// failed attempt and is capped at MaxDelay when that is set.
type Backoff struct {
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultBackoff covers a node or database that is still starting.
var DefaultBackoff = Backoff{Retries: 5, BaseDelay: 500 * time.Millisecond, MaxDelay: 8 * time.Second}

// Retry calls fn until it succeeds, the retries run out or ctx ends. Each
// failure is logged with op and the attempt number.
func Retry(ctx context.Context, logger *zap.Logger, op string, b Backoff, fn func(context.Context) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if b.Retries < 0 {
		b.Retries = 0
	}
	delay := b.BaseDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt > b.Retries {
			return fmt.Errorf("%s after %d attempts: %w", op, attempt, err)
		}
		logger.Warn("startup call failed",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}

		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
}
