// Package retry runs external calls with exponential backoff and jitter.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

const (
	// DefaultBase is the backoff base for reporting API calls.
	DefaultBase = 1 * time.Second

	// DefaultRetries is the number of retries after the initial attempt.
	DefaultRetries = 5

	// StoreBase is the backoff base for spreadsheet reads and writes.
	StoreBase = 10 * time.Second
)

// Policy controls how an operation is retried.
type Policy struct {
	// Base is the delay before the first retry; it doubles on every subsequent retry.
	Base time.Duration

	// Jitter is the upper bound of the uniform random delay added to every wait.
	Jitter time.Duration

	// Logger receives a warning for each failed attempt that will be retried.
	Logger *slog.Logger

	// Name identifies the operation in log output.
	Name string

	// Retries is the number of retries after the initial attempt.
	Retries int

	// Sleep blocks for the given duration. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Default returns the policy used for reporting API calls.
func Default(name string) Policy {
	return Policy{
		Base:    DefaultBase,
		Jitter:  time.Second,
		Name:    name,
		Retries: DefaultRetries,
	}
}

// Store returns the policy used for spreadsheet calls, which have tighter rate limits.
func Store(name string) Policy {
	p := Default(name)
	p.Base = StoreBase
	return p
}

// Delay returns the wait after a failure on the given 0-indexed attempt.
// The jitter fraction must be in [0, 1).
func (p Policy) Delay(attempt int, jitterFraction float64) time.Duration {
	return p.Base<<attempt + time.Duration(jitterFraction*float64(p.Jitter))
}

// Do calls op until it succeeds or the retries are exhausted.
// Every failure is retried the same way; the last error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 0; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if attempt >= p.Retries {
			return result, err
		}

		delay := p.Delay(attempt, rand.Float64())
		logger.WarnContext(ctx, "retrying after failure",
			"operation", p.Name,
			"attempt", attempt+1,
			"delay", delay,
			"error", err)

		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			var zero T
			return zero, fmt.Errorf("waiting to retry %s: %w", p.Name, sleepErr)
		}
	}
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
