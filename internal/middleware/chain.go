// Package middleware contains the security pipeline every request
// passes through before any handler runs: security headers, rate
// limiting, request logging, payload-size and content-type gating.
// The per-endpoint authentication guard also lives here.
package middleware

import "net/http"

// Middleware wraps an http.Handler. An interceptor either calls the
// next handler or writes a response itself (short-circuit).
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares onto a handler. The first middleware in
// the list is the outermost: Chain(h, a, b) serves a(b(h)). Order is
// fixed at startup so there are no hidden ordering dependencies.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// responseWriterInterceptor captures the status code written by
// downstream handlers.
type responseWriterInterceptor struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriterInterceptor) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriterInterceptor) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
