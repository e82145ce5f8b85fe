package middleware

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/vyrodovalexey/storegw/internal/observability"
	"github.com/vyrodovalexey/storegw/internal/ratelimit"
)

// ClassifyPath maps a request path to its endpoint class.
func ClassifyPath(path string) ratelimit.Class {
	switch {
	case strings.HasSuffix(path, "/auth/login"):
		return ratelimit.ClassLogin
	case strings.HasSuffix(path, "/purchase"):
		return ratelimit.ClassPurchase
	case strings.HasSuffix(path, "/download"):
		return ratelimit.ClassDownload
	default:
		return ratelimit.ClassDefault
	}
}

// RateLimit returns a middleware that applies per-origin, per-class
// fixed-window rate limiting. Rejections carry Retry-After and
// X-RateLimit-* headers.
func RateLimit(limiter *ratelimit.Limiter, extractor *ClientIPExtractor, logger observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := extractor.Extract(r)
			class := ClassifyPath(r.URL.Path)

			result, err := limiter.Allow(r.Context(), class, origin)
			if err != nil {
				// A broken counter store must not take the gateway
				// down with it; let the request through and complain.
				logger.Error("rate limit check failed",
					observability.String("class", string(class)),
					observability.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))

			if !result.Allowed {
				logger.Warn("rate limit exceeded",
					observability.String("origin", origin),
					observability.String("class", string(class)),
					observability.String("path", r.URL.Path),
				)

				GetMiddlewareMetrics().rateLimitRejected.WithLabelValues(string(class)).Inc()

				retryAfter := int(result.RetryAfter.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set(HeaderRetryAfter, strconv.Itoa(retryAfter))
				w.Header().Set(HeaderContentType, ContentTypeJSON)
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = io.WriteString(w, ErrRateLimitExceeded)
				return
			}

			GetMiddlewareMetrics().rateLimitAllowed.WithLabelValues(string(class)).Inc()

			next.ServeHTTP(w, r)
		})
	}
}

// FloodGuard returns a middleware applying one coarse token-bucket cap
// across all origins, in front of the per-class windows. It exists to
// shed abusive floods cheaply, not to enforce policy.
func FloodGuard(rps, burst int, logger observability.Logger) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				logger.Warn("flood guard rejected request",
					observability.String("path", r.URL.Path),
				)

				GetMiddlewareMetrics().rateLimitRejected.WithLabelValues("flood").Inc()

				w.Header().Set(HeaderRetryAfter, "1")
				w.Header().Set(HeaderContentType, ContentTypeJSON)
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = io.WriteString(w, ErrRateLimitExceeded)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
