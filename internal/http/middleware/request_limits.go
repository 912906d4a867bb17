package middleware

import (
	"net/http"
	"strings"
)

// RequestSizeLimit caps request bodies at maxBytes, or at maxUploadBytes for
// multipart forms carrying image uploads.
func RequestSizeLimit(maxBytes, maxUploadBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := maxBytes
			if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") && maxUploadBytes > limit {
				limit = maxUploadBytes
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
