package middleware

import "net/http"

const (
	// DefaultMaxBodySize bounds JSON request bodies.
	DefaultMaxBodySize int64 = 1 << 20 // 1MB

	// UploadMaxBodySize bounds multipart event submissions with images.
	UploadMaxBodySize int64 = 10 << 20 // 10MB
)

// RequestSize limits incoming request bodies via http.MaxBytesReader;
// oversized bodies surface as 413 when read.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
