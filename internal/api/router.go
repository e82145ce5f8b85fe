package api

import (
	"net/http"

	"github.com/vyrodovalexey/storegw/internal/middleware"
	"github.com/vyrodovalexey/storegw/internal/observability"
	"github.com/vyrodovalexey/storegw/internal/ratelimit"
)

// RouterConfig carries the middleware pipeline settings.
type RouterConfig struct {
	// APIKey guards the versioned routes. Empty disables the check.
	APIKey string

	// CORS is the origin allow-list configuration.
	CORS middleware.CORSConfig

	// FloodRPS and FloodBurst configure the coarse global limiter in
	// front of the per-class windows.
	FloodRPS   int
	FloodBurst int
}

// NewRouter assembles the HTTP surface. Versioned routes run the full
// pipeline in fixed order: API key, CORS, flood guard, rate limiting,
// body limits, logging, then identity resolution on the protected
// subset. Health and the catalog stay unauthenticated and unlimited.
func NewRouter(h *Handler, limiter *ratelimit.Limiter, cfg RouterConfig, logger observability.Logger) http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/v1/auth/login", h.handleLogin)
	apiMux.HandleFunc("GET /api/v1/auth/info", h.protected(h.handleAccountInfo))
	apiMux.HandleFunc("POST /api/v1/auth/revoke", h.protected(h.handleRevoke))
	apiMux.HandleFunc("GET /api/v1/search", h.protected(h.handleSearch))
	apiMux.HandleFunc("POST /api/v1/purchase", h.protected(h.handlePurchase))
	apiMux.HandleFunc("GET /api/v1/versions", h.protected(h.handleVersions))
	apiMux.HandleFunc("GET /api/v1/metadata", h.protected(h.handleMetadata))
	apiMux.HandleFunc("POST /api/v1/download", h.protected(h.handleDownload))
	apiMux.HandleFunc("/api/", h.handleNotFound)

	apiChain := chain(apiMux,
		middleware.APIKey(cfg.APIKey, logger),
		middleware.CORS(cfg.CORS),
		middleware.FloodGuard(cfg.FloodRPS, cfg.FloodBurst, logger),
		middleware.RateLimit(limiter, h.extractor, logger),
		middleware.BodyLimit(logger),
		middleware.Logging(logger, h.extractor),
	)

	publicMux := http.NewServeMux()
	publicMux.HandleFunc("GET /health", h.handleHealth)
	publicMux.HandleFunc("GET /{$}", h.handleCatalog)
	publicMux.HandleFunc("/", h.handleNotFound)

	publicChain := chain(publicMux,
		middleware.CORS(cfg.CORS),
		middleware.Logging(logger, h.extractor),
	)

	root := http.NewServeMux()
	root.Handle("/api/", apiChain)
	root.Handle("/", publicChain)

	return chain(root,
		middleware.RequestID(),
		middleware.Recovery(logger),
	)
}

// chain wraps h with the given middlewares, outermost first.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
