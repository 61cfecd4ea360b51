package polite

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"context"

	"github.com/sirupsen/logrus"

	"chintai-crawler/pkg/utils"
)

// Operation is a fallible unit of work the Retrier executes. The Retrier
// never inspects the error to decide retryability: every failure is retried
// up to the bound, except session cancellation.
type Operation func(ctx context.Context) error

// Retrier wraps an operation with bounded retries and exponential backoff.
type Retrier struct {
	maxRetries int
	baseDelay  time.Duration
	clock      Clock
	log        *logrus.Entry
}

// NewRetrier creates a Retrier. A nil clock falls back to SystemClock.
func NewRetrier(maxRetries int, baseDelay time.Duration, clock Clock, log *logrus.Entry) *Retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Retrier{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		clock:      clock,
		log:        log,
	}
}

// Do executes op up to maxRetries+1 times. Failed attempt k (0-indexed)
// waits baseDelay * 2^k * jitter before the next try, jitter uniform in
// [0.5, 1.5] so parallel clients do not synchronize their retry storms.
// When all attempts fail the last error is wrapped in ErrRetriesExhausted.
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		// Never start an attempt once the session is cancelled.
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("context done (%v) during retry backoff after error: %w", err, lastErr)
			}
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		// The failure may be the session cancellation surfacing through the
		// operation itself; that is not retryable.
		if ctx.Err() != nil {
			return lastErr
		}

		if attempt == r.maxRetries {
			break
		}

		backoff := float64(r.baseDelay) * math.Pow(2, float64(attempt))
		jitter := 0.5 + rand.Float64() // uniform in [0.5, 1.5)
		wait := time.Duration(backoff * jitter)

		r.log.WithFields(logrus.Fields{
			"attempt": attempt + 1, "max_retries": r.maxRetries, "wait": wait,
		}).Warnf("Attempt failed: %v. Retrying...", lastErr)

		if err := r.clock.Sleep(ctx, wait); err != nil {
			return fmt.Errorf("context done (%v) during retry backoff after error: %w", err, lastErr)
		}
	}

	r.log.Errorf("Max retries (%d) exceeded: %v", r.maxRetries, lastErr)
	return fmt.Errorf("%w: %w", utils.ErrRetriesExhausted, lastErr)
}
