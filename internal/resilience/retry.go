package resilience

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// RetryConfig controls the retry coordinator wrapping extraction calls.
//
// The policy separates two failure classes: rate-limit failures sleep for
// RateLimitBase * 2^attempt before the next try (the server's cool-down
// scales with pressure), while any other failure retries immediately so
// ordinary transient errors don't incur needless latency.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	// A value of 0 means a single attempt. Default: 3.
	MaxRetries int

	// RateLimitBase is the backoff base for rate-limit classified failures.
	// Attempt n sleeps RateLimitBase << n (5s, 10s, 20s, ...). Default: 5s.
	RateLimitBase time.Duration

	// OnRetry is called before each retry with the attempt number (1-based)
	// and the cause of the previous failure.
	OnRetry func(attempt int, cause string)

	// Sleep overrides the backoff sleep. If nil, a context-aware timer
	// wait is used. Tests inject a recorder here.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryConfig returns the retry configuration used for completion calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		RateLimitBase: 5 * time.Second,
	}
}

func (cfg RetryConfig) withDefaults() RetryConfig {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RateLimitBase <= 0 {
		cfg.RateLimitBase = 5 * time.Second
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepCtx
	}
	return cfg
}

// RetryResult invokes op and retries on failure. Two failure shapes are
// recognised: an error returned by op (transport-level), and a structured
// result that failed reports as unsuccessful. In both cases the failure
// cause is classified; rate-limit causes back off exponentially and all
// others retry immediately.
//
// When every attempt fails, the last result is returned, not the first,
// together with an error identifying the final cause. Context cancellation
// stops retries and returns the most recent outcome.
func RetryResult[T any](ctx context.Context, cfg RetryConfig, op func(ctx context.Context) (T, error), failed func(T) (bool, string)) (T, error) {
	cfg = cfg.withDefaults()

	var last T
	var lastCause string

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		val, err := op(ctx)
		if err == nil {
			bad, cause := false, ""
			if failed != nil {
				bad, cause = failed(val)
			}
			if !bad {
				return val, nil
			}
			last, lastCause = val, cause
		} else {
			last, lastCause = val, err.Error()
		}

		if ctx.Err() != nil {
			break
		}
		if attempt >= cfg.MaxRetries {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, lastCause)
		}

		if IsRateLimitText(lastCause) {
			delay := cfg.RateLimitBase << attempt
			zap.L().Warn("retry: rate limited, backing off",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
			)
			if sleepErr := cfg.Sleep(ctx, delay); sleepErr != nil {
				break
			}
		}
		// Non-rate-limit failures retry immediately.
	}

	return last, eris.Errorf("retry: exhausted %d attempts, last error: %s", cfg.MaxRetries+1, lastCause)
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(service, operation string) func(int, string) {
	return func(attempt int, cause string) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.String("cause", cause),
		)
	}
}
