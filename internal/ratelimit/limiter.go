// Package ratelimit implements a sliding-window limiter bounding outbound
// calls per minute per logical client. Unlike a token bucket, it guarantees
// no trailing 60-second window ever contains more than the configured number
// of acquisitions, at the cost of bursty release at the window boundary.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// window is the sliding interval over which requests are counted.
const window = time.Minute

// Limiter blocks callers until a request may be issued without exceeding
// requestsPerMinute for a client key. Acquisition is check-then-act, so all
// state is guarded by a single mutex shared across workers.
type Limiter struct {
	mu                sync.Mutex
	requestsPerMinute int
	windows           map[string][]time.Time

	// Test hooks.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Limiter allowing requestsPerMinute acquisitions per client key.
func New(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &Limiter{
		requestsPerMinute: requestsPerMinute,
		windows:           make(map[string][]time.Time),
		now:               time.Now,
		sleep:             sleepCtx,
	}
}

// Acquire blocks until a request may be issued for clientKey, then records
// the acquisition. Requests are never dropped; the caller is slept instead.
// Returns the context's error if it is cancelled while waiting.
func (l *Limiter) Acquire(ctx context.Context, clientKey string) error {
	for {
		l.mu.Lock()
		now := l.now()
		ts := prune(l.windows[clientKey], now)

		if len(ts) < l.requestsPerMinute {
			l.windows[clientKey] = append(ts, now)
			l.mu.Unlock()
			return nil
		}

		// Window full: wait until the oldest recorded acquisition ages out,
		// then re-check under the lock (another worker may have slotted in).
		wait := window - now.Sub(ts[0])
		l.windows[clientKey] = ts
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		zap.L().Debug("ratelimit: window full, waiting",
			zap.String("client", clientKey),
			zap.Duration("wait", wait),
		)
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Recorded returns the number of acquisitions currently inside the trailing
// window for clientKey. Used for observability and tests.
func (l *Limiter) Recorded(clientKey string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(prune(l.windows[clientKey], l.now()))
}

// prune drops timestamps older than the trailing window.
func prune(ts []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-window)
	i := 0
	for ; i < len(ts); i++ {
		if ts[i].After(cutoff) {
			break
		}
	}
	return ts[i:]
}

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
