package middleware

import (
	"io"
	"net/http"
	"strings"

	"github.com/vyrodovalexey/storegw/internal/observability"
)

// Per-path request body ceilings.
const (
	// DefaultMaxBodySize applies to routes without a specific ceiling.
	DefaultMaxBodySize = 1 << 20 // 1MiB

	// DownloadMaxBodySize applies to the download-initiating body.
	DownloadMaxBodySize = 10 << 20 // 10MiB

	// LoginMaxBodySize applies to login; credentials are small.
	LoginMaxBodySize = 2 << 10 // 2KiB
)

// BodyLimitFor returns the body ceiling for a request path.
func BodyLimitFor(path string) int64 {
	switch {
	case strings.HasSuffix(path, "/download"):
		return DownloadMaxBodySize
	case strings.HasSuffix(path, "/auth/login"):
		return LoginMaxBodySize
	default:
		return DefaultMaxBodySize
	}
}

// BodyLimit returns a middleware that enforces per-path request body
// ceilings. Oversized bodies are rejected with 413: eagerly when
// Content-Length declares the excess, otherwise when the handler reads
// past the limit through the wrapped body.
func BodyLimit(logger observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			maxSize := BodyLimitFor(r.URL.Path)

			if r.ContentLength > maxSize {
				logger.Warn("request body too large",
					observability.Int64("content_length", r.ContentLength),
					observability.Int64("max_size", maxSize),
					observability.String("path", r.URL.Path),
				)

				GetMiddlewareMetrics().bodyLimitRejected.Inc()

				w.Header().Set(HeaderContentType, ContentTypeJSON)
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_, _ = io.WriteString(w, ErrRequestEntityTooLarge)
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxSize)
			}

			next.ServeHTTP(w, r)
		})
	}
}
