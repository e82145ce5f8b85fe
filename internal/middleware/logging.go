package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vyrodovalexey/storegw/internal/observability"
)

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

// WriteHeader captures the status code.
func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size.
func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Flush implements http.Flusher for streaming support.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// secretParams are query parameter names whose values are masked before
// a URI reaches the log.
var secretParams = []string{"password", "auth_code", "token", "api_key"}

// maskSensitiveData replaces secret-bearing query values in a request
// URI with a placeholder.
func maskSensitiveData(uri string) string {
	idx := strings.IndexByte(uri, '?')
	if idx == -1 {
		return uri
	}

	values, err := url.ParseQuery(uri[idx+1:])
	if err != nil {
		return uri[:idx]
	}

	for _, param := range secretParams {
		if values.Has(param) {
			values.Set(param, "***")
		}
	}

	return uri[:idx] + "?" + values.Encode()
}

// staticSuffixes are asset-looking path endings never worth logging.
var staticSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".ico", ".svg"}

// criticalPrefixes are endpoints always logged even on success.
var criticalPrefixes = []string{
	"/api/v1/auth/login",
	"/api/v1/auth/info",
	"/api/v1/auth/revoke",
	"/api/v1/search",
	"/api/v1/purchase",
	"/api/v1/download",
	"/api/v1/versions",
	"/api/v1/metadata",
}

// shouldLog decides whether a completed request is logged: every 4xx and
// 5xx, every critical endpoint, nothing for static-asset paths or
// healthy health checks.
func shouldLog(path string, status int) bool {
	for _, suffix := range staticSuffixes {
		if strings.HasSuffix(path, suffix) {
			return false
		}
	}

	if path == "/health" && status == http.StatusOK {
		return false
	}

	for _, prefix := range criticalPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return status >= http.StatusBadRequest
}

// Logging returns a middleware that logs completed requests with their
// correlation id, masked path, client origin, status and duration.
func Logging(logger observability.Logger, extractor *ClientIPExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			GetMiddlewareMetrics().requestsTotal.WithLabelValues(statusClass(rw.status)).Inc()

			if !shouldLog(r.URL.Path, rw.status) {
				return
			}

			fields := []observability.Field{
				observability.String("request_id", observability.RequestIDFromContext(r.Context())),
				observability.String("method", r.Method),
				observability.String("path", maskSensitiveData(r.RequestURI)),
				observability.String("origin", extractor.Extract(r)),
				observability.Int("status", rw.status),
				observability.Int("size", rw.size),
				observability.Duration("duration", time.Since(start)),
			}

			switch {
			case rw.status >= http.StatusInternalServerError:
				logger.Error("server error", fields...)
			case rw.status >= http.StatusBadRequest:
				logger.Warn("client error", fields...)
			default:
				logger.Info("request completed", fields...)
			}
		})
	}
}

// statusClass buckets a status code into its metric label ("2xx"...).
func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
