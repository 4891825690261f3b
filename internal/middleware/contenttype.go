package middleware

import (
	"net/http"
	"strings"
)

// allowedContentTypes is the fixed allow-list for requests that carry a
// body. Matched as prefixes so parameters like charset pass.
var allowedContentTypes = []string{
	"application/json",
	"multipart/form-data",
	"application/x-www-form-urlencoded",
}

// ValidateContentType rejects body-carrying requests whose declared
// content type is not on the allow-list.
func ValidateContentType() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bodyMethods[r.Method] {
				ct := r.Header.Get("Content-Type")
				ok := false
				for _, allowed := range allowedContentTypes {
					if strings.HasPrefix(ct, allowed) {
						ok = true
						break
					}
				}
				if !ok {
					WriteError(w, http.StatusUnsupportedMediaType, "unsupported_media_type",
						"content type must be one of: "+strings.Join(allowedContentTypes, ", "))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
