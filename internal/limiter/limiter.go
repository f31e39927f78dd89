package limiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrUnavailable means the counter store could not be reached. It is
// distinct from a denial: a denied caller is over its budget, an
// unavailable limiter cannot tell.
var ErrUnavailable = errors.New("rate limiter counter store unavailable")

// CounterStore atomically increments the counter for key scoped to the
// current window and returns the new count. The first increment of a fresh
// window must return 1. Implementations must be safe for concurrent use
// and must not share a counter or a lock between distinct keys.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter bounds the number of admitted requests per key to Limit within
// each window. It uses fixed-window counting: counters reset at window
// boundaries, so a burst of up to 2*Limit may be admitted across one
// boundary. Counters for distinct keys are fully independent.
type Limiter struct {
	store    CounterStore
	limit    int64
	window   time.Duration
	failOpen bool
	logger   *zap.Logger
}

func New(store CounterStore, limit int64, window time.Duration, failOpen bool, logger *zap.Logger) *Limiter {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		store:    store,
		limit:    limit,
		window:   window,
		failOpen: failOpen,
		logger:   logger,
	}
}

// Allow reports whether one more request for key fits in the current
// window. The increment-then-compare on the store's atomic counter closes
// the read-check-write race: of N concurrent callers against a fresh
// window, at most limit observe a count within budget.
//
// When the counter store errors, Allow fails closed by default and
// returns ErrUnavailable; with failOpen it admits the request and logs a
// warning instead. It never silently admits unbounded traffic.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		if l.failOpen {
			l.logger.Warn("Counter store unreachable, admitting request (fail-open)",
				zap.String("key", key),
				zap.Error(err),
			)
			return true, nil
		}
		l.logger.Error("Counter store unreachable, rejecting request (fail-closed)",
			zap.String("key", key),
			zap.Error(err),
		)
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if count > l.limit {
		l.logger.Debug("Rate limit exceeded",
			zap.String("key", key),
			zap.Int64("count", count),
			zap.Int64("limit", l.limit),
		)
		return false, nil
	}

	return true, nil
}

// Window returns the configured window duration, used for Retry-After.
func (l *Limiter) Window() time.Duration {
	return l.window
}
