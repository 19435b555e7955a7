// Package ratelimit throttles repeated requests per caller identifier using
// fixed windows. The counter storage is pluggable: MemoryStore keeps entries
// in-process, RedisStore shares them between replicas.
package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 15 * time.Minute
)

// Entry is the state of one identifier's current window.
type Entry struct {
	Identifier    string
	Count         int
	WindowResetAt time.Time
}

// Store records one hit for identifier and returns the entry after the hit.
// Implementations must apply the reset-if-expired and increment steps
// atomically per identifier.
type Store interface {
	Hit(ctx context.Context, identifier string, window time.Duration) (Entry, error)
}

// Decision is the outcome of a Check. ResetTime is set only when the
// request is rejected.
type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	ResetTime time.Time
}

// RetryAfter is how long a rejected caller should wait, relative to now.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.Allowed || !d.ResetTime.After(now) {
		return 0
	}
	return d.ResetTime.Sub(now)
}

type Limiter struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{store: store, logger: logger}
}

// Check counts the current request and decides whether to admit it. The
// count is incremented before comparing, so exactly maxAttempts requests
// pass per window and the next one is the first rejection.
//
// Arguments are taken as given: maxAttempts <= 0 rejects every request, and
// a non-positive window only groups hits that share the same instant.
// Callers wanting the defaults pass DefaultMaxAttempts and DefaultWindow.
//
// Check never fails: if the store is unreachable the request is admitted
// and the error is logged at Warn.
func (l *Limiter) Check(ctx context.Context, identifier string, maxAttempts int, window time.Duration) Decision {
	entry, err := l.store.Hit(ctx, identifier, window)
	if err != nil {
		l.logger.Warn("rate limit store", "identifier", identifier, "error", err)
		return Decision{Allowed: true, Limit: maxAttempts}
	}

	if entry.Count > maxAttempts {
		return Decision{
			Allowed:   false,
			Count:     entry.Count,
			Limit:     maxAttempts,
			ResetTime: entry.WindowResetAt,
		}
	}
	return Decision{Allowed: true, Count: entry.Count, Limit: maxAttempts}
}
