package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vyrodovalexey/storegw/internal/api"
	"github.com/vyrodovalexey/storegw/internal/config"
	"github.com/vyrodovalexey/storegw/internal/middleware"
	"github.com/vyrodovalexey/storegw/internal/observability"
	"github.com/vyrodovalexey/storegw/internal/ratelimit"
	ratestore "github.com/vyrodovalexey/storegw/internal/ratelimit/store"
	"github.com/vyrodovalexey/storegw/internal/server"
	"github.com/vyrodovalexey/storegw/internal/session"
	"github.com/vyrodovalexey/storegw/internal/store/rest"
)

// application holds the wired gateway components.
type application struct {
	cfg    *config.Config
	logger observability.Logger

	tracer   *observability.Tracer
	sessions *session.Tracker
	limiter  *ratelimit.Limiter
	server   *server.Server
	handler  http.Handler

	metricsServer *http.Server
}

// newApplication wires the gateway from configuration.
func newApplication(cfg *config.Config, logger observability.Logger) (*application, error) {
	tracer, err := observability.NewTracer(observability.TracerConfig{
		ServiceName:  "storegw",
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: 1.0,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing tracer: %w", err)
	}

	storeClient := rest.New(rest.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.BackendTimeout,
	}, rest.WithLogger(logger))

	sessions := session.NewTracker(
		session.WithTimeout(cfg.SessionTimeout),
		session.WithLogger(logger),
	)

	counters, err := newCounterStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	limiter := ratelimit.NewLimiter(nil, counters)

	extractor := middleware.NewClientIPExtractor(cfg.TrustedProxies)

	handler := api.NewHandler(storeClient, sessions, extractor,
		api.WithLogger(logger),
		api.WithTracer(tracer),
		api.WithVersion(version),
		api.WithDebug(cfg.Debug),
	)

	router := api.NewRouter(handler, limiter, api.RouterConfig{
		APIKey:     cfg.APIKey,
		CORS:       middleware.CORSConfig{AllowOrigins: cfg.CORSAllowedOrigins},
		FloodRPS:   cfg.FloodRPS,
		FloodBurst: cfg.FloodBurst,
	}, logger)

	app := &application{
		cfg:      cfg,
		logger:   logger,
		tracer:   tracer,
		sessions: sessions,
		limiter:  limiter,
		server:   server.New(router, logger),
		handler:  router,
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		app.metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return app, nil
}

// newCounterStore picks the rate-limit counter backend: Redis when an
// address is configured, otherwise in-process memory.
func newCounterStore(cfg *config.Config, logger observability.Logger) (ratestore.Store, error) {
	if cfg.RedisAddr == "" {
		return ratestore.NewMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rs, err := ratestore.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("connecting rate limit redis: %w", err)
	}

	logger.Info("using redis rate limit counters",
		observability.String("addr", cfg.RedisAddr),
	)
	return rs, nil
}
