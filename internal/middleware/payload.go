package middleware

import (
	"fmt"
	"net/http"
)

// bodyMethods are the methods expected to carry a request body.
var bodyMethods = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

// MaxPayload rejects requests whose declared content length exceeds the
// cap, before the body is read at all.
func MaxPayload(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bodyMethods[r.Method] && r.ContentLength > maxBytes {
				WriteError(w, http.StatusRequestEntityTooLarge, "payload_too_large",
					fmt.Sprintf("maximum allowed payload size is %d bytes", maxBytes))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
