package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vyrodovalexey/storegw/internal/observability"
	"github.com/vyrodovalexey/storegw/internal/server"
)

// run binds the listener, starts the background tasks, and blocks
// until a shutdown signal or a server failure.
func run(app *application, logger observability.Logger) {
	ln, port, err := server.Listen(app.cfg.Port, app.cfg.PortFile, logger)
	if err != nil {
		logger.Fatal("failed to bind listener", observability.Error(err))
	}

	logger.Info("listening", observability.Int("port", port))

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go app.sessions.Run(sweepCtx)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- app.server.Serve(ln)
	}()

	if app.metricsServer != nil {
		go func() {
			logger.Info("metrics server listening",
				observability.String("addr", app.metricsServer.Addr),
			)
			if err := app.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", observability.Error(err))
			}
		}()
	}

	waitForShutdown(app, serveErr, stopSweeper, logger)
}

// waitForShutdown waits for a termination signal and tears the gateway
// down in order: stop accepting requests, drain in-flight downloads,
// then release background resources.
func waitForShutdown(app *application, serveErr chan error, stopSweeper context.CancelFunc, logger observability.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", observability.String("signal", sig.String()))
	case err := <-serveErr:
		if err != nil {
			logger.Error("server failed", observability.Error(err))
		}
	}

	if err := app.server.Shutdown(); err != nil {
		logger.Error("failed to stop server gracefully", observability.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if app.metricsServer != nil {
		logger.Info("stopping metrics server")
		if err := app.metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to stop metrics server gracefully", observability.Error(err))
		}
	}

	stopSweeper()

	if err := app.limiter.Close(); err != nil {
		logger.Error("failed to close rate limiter", observability.Error(err))
	}

	if err := app.tracer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	logger.Info("shutdown complete")
}
