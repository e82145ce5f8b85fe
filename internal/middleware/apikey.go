package middleware

import (
	"crypto/subtle"
	"io"
	"net/http"

	"github.com/vyrodovalexey/storegw/internal/observability"
)

// APIKey returns a middleware that rejects requests whose X-API-Key
// header does not match the configured key. The comparison is constant
// time. The key is never accepted from a query parameter. An empty
// configured key disables the check.
func APIKey(apiKey string, logger observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if apiKey == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Preflight requests carry no custom headers; they pass
			// through so the CORS stage can answer them.
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(HeaderXAPIKey)

			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				logger.Warn("rejected request with invalid API key",
					observability.String("path", r.URL.Path),
					observability.Bool("key_present", key != ""),
				)

				GetMiddlewareMetrics().apiKeyRejected.Inc()

				w.Header().Set(HeaderContentType, ContentTypeJSON)
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, ErrInvalidAPIKey)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
