package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSlowThreshold separates routine requests from ones worth a log
// line on their own.
const DefaultSlowThreshold = time.Second

// RequestLogging stamps X-Process-Time and X-Request-ID on every
// response it forwards and emits a log line only for error statuses or
// requests slower than the threshold, to keep the log volume sane.
func RequestLogging(log *zap.Logger, slowThreshold time.Duration) Middleware {
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowThreshold
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := uuid.NewString()
			w.Header().Set("X-Request-ID", reqID)

			tw := &timingWriter{
				responseWriterInterceptor: responseWriterInterceptor{ResponseWriter: w, statusCode: http.StatusOK},
				start:                     start,
			}

			next.ServeHTTP(tw, r)

			// A handler that never wrote still gets its timing header.
			tw.stampProcessTime()

			elapsed := time.Since(start)
			status := tw.statusCode
			if status < http.StatusBadRequest && elapsed <= slowThreshold {
				return
			}

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.String("addr", clientAddr(r)),
				zap.Duration("elapsed", elapsed),
				zap.String("request_id", reqID),
			}
			switch {
			case status >= http.StatusInternalServerError:
				log.Error("request failed", fields...)
			case status >= http.StatusBadRequest:
				log.Warn("request rejected", fields...)
			default:
				log.Info("slow request", fields...)
			}
		})
	}
}

// timingWriter sets X-Process-Time at the moment headers are flushed,
// since headers cannot change after WriteHeader.
type timingWriter struct {
	responseWriterInterceptor
	start   time.Time
	stamped bool
}

func (tw *timingWriter) WriteHeader(code int) {
	tw.stampProcessTime()
	tw.responseWriterInterceptor.WriteHeader(code)
}

func (tw *timingWriter) Write(b []byte) (int, error) {
	if !tw.wroteHeader {
		tw.WriteHeader(http.StatusOK)
	}
	return tw.responseWriterInterceptor.Write(b)
}

func (tw *timingWriter) stampProcessTime() {
	if tw.stamped || tw.wroteHeader {
		return
	}
	tw.stamped = true
	tw.Header().Set("X-Process-Time", fmt.Sprintf("%.3f", time.Since(tw.start).Seconds()))
}
