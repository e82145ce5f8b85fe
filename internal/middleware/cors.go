package middleware

import (
	"net/http"
)

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	// AllowOrigins is the exact-match allow-list. Empty means
	// development mode: every origin is allowed.
	AllowOrigins []string
}

// corsHeaders holds pre-computed CORS state.
type corsHeaders struct {
	allowOrigins    map[string]bool
	allowAllOrigins bool
}

func newCORSHeaders(cfg CORSConfig) *corsHeaders {
	h := &corsHeaders{
		allowOrigins:    make(map[string]bool, len(cfg.AllowOrigins)),
		allowAllOrigins: len(cfg.AllowOrigins) == 0,
	}
	for _, origin := range cfg.AllowOrigins {
		h.allowOrigins[origin] = true
	}
	return h
}

// setHeaders writes CORS and baseline security headers. With an
// allow-list configured, only an exactly matching Origin is echoed back;
// a non-matching origin gets no Access-Control-Allow-Origin at all.
func (h *corsHeaders) setHeaders(w http.ResponseWriter, origin string) {
	switch {
	case h.allowAllOrigins:
		w.Header().Set("Access-Control-Allow-Origin", "*")
	case origin != "" && h.allowOrigins[origin]:
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
	}

	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-Request-ID")
	w.Header().Set("Access-Control-Max-Age", "3600")

	// Baseline security headers on every response.
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("X-XSS-Protection", "1; mode=block")
}

// CORS returns a middleware that handles CORS and baseline security
// headers, short-circuiting OPTIONS preflight with 204.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	headers := newCORSHeaders(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers.setHeaders(w, r.Header.Get(HeaderOrigin))

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
