// Package ratelimit implements per-client request quotas over a
// trailing sliding window. The store is owned by the limiter instance
// and injected into the middleware, so a shared backing store can
// replace the in-process map without touching the middleware contract.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result carries quota metadata for response headers. It is populated
// on both allowed and rejected checks.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter is consulted once per request with the client address.
// allowed=false means the client is over quota; a non-nil error means
// the backing store failed, which is a separate condition.
type Limiter interface {
	Check(ctx context.Context, addr string, now time.Time) (res Result, allowed bool, err error)
}

// SlidingWindow tracks request timestamps per client address in
// process-local memory. Timestamps are appended in order, so pruning
// can stop at the first entry still inside the window.
//
// The address map is never evicted: distinct addresses accumulate for
// the life of the process. The Redis-backed variant is the path out of
// that when it matters.
type SlidingWindow struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Check prunes entries older than the window, rejects when the retained
// count has reached the limit, and otherwise records the request.
func (l *SlidingWindow) Check(_ context.Context, addr string, now time.Time) (Result, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	timestamps := l.requests[addr]

	keep := 0
	for keep < len(timestamps) && !timestamps[keep].After(cutoff) {
		keep++
	}
	timestamps = timestamps[keep:]

	res := Result{Limit: l.limit, ResetAt: now.Add(l.window)}

	if len(timestamps) >= l.limit {
		l.requests[addr] = timestamps
		return res, false, nil
	}

	timestamps = append(timestamps, now)
	l.requests[addr] = timestamps
	res.Remaining = l.limit - len(timestamps)
	return res, true, nil
}

var _ Limiter = (*SlidingWindow)(nil)
