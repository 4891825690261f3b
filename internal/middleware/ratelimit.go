package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jmcarrillo/clinica-api/internal/ratelimit"
)

// RateLimit consults the limiter keyed by client address. Quota headers
// are stamped on every response; over-quota clients get a 429 with a
// Retry-After hint before any further work happens. If the backing
// store fails the request is allowed through (fail open).
func RateLimit(l ratelimit.Limiter, log *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := clientAddr(r)
			now := time.Now()

			res, allowed, err := l.Check(r.Context(), addr, now)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if err != nil {
				log.Warn("rate limit store failure, failing open",
					zap.String("addr", addr), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				retryAfter := int(res.ResetAt.Sub(now).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				// Rejections short-circuit before the logging interceptor,
				// so the timing header is stamped here.
				w.Header().Set("X-Process-Time", fmt.Sprintf("%.3f", time.Since(now).Seconds()))
				log.Warn("rate limit exceeded", zap.String("addr", addr))
				WriteError(w, http.StatusTooManyRequests, "too_many_requests",
					fmt.Sprintf("limit of %d requests per %d seconds exceeded",
						res.Limit, int(res.ResetAt.Sub(now).Seconds())))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr strips the port from RemoteAddr so one client maps to one
// window regardless of ephemeral ports.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}
