package ratelimit

import (
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

var errUnexpectedReply = errors.New("ratelimit: unexpected store reply")

// LoginLimiter throttles login attempts per username with a token
// bucket. It is separate from the per-IP window: a distributed guesser
// rotating source addresses still hits this one.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func NewLoginLimiter(rps float64, burst int) *LoginLimiter {
	return &LoginLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether another attempt for this username is permitted.
func (l *LoginLimiter) Allow(username string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[username]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[username] = lim

		// Crude bound on distinct usernames tracked.
		if len(l.limiters) > 10000 {
			l.limiters = map[string]*rate.Limiter{username: lim}
		}
	}
	l.mu.Unlock()

	return lim.Allow()
}
