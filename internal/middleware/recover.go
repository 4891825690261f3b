package middleware

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Recover converts handler panics into a generic 500 response. It is
// the outermost interceptor: one bad request must not take the serving
// process down. The original cause is logged with a stack trace; in
// production nothing of it reaches the client.
func Recover(log *zap.Logger, production bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				log.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				msg := "internal server error"
				if !production {
					msg = fmt.Sprintf("panic: %v", rec)
				}
				WriteError(w, http.StatusInternalServerError, "internal_error", msg)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
