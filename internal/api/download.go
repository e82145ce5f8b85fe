package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/vyrodovalexey/storegw/internal/observability"
	"github.com/vyrodovalexey/storegw/internal/store"
	"github.com/vyrodovalexey/storegw/internal/validate"
)

const (
	// downloadSetupTimeout bounds the setup phase: lookup, purchase,
	// and artifact materialization. The streaming phase that follows is
	// bounded only by the server write timeout.
	downloadSetupTimeout = 5 * time.Minute

	// streamBufferSize is the chunk size for streaming the artifact to
	// the client. One buffer per request; peak memory is independent of
	// artifact size.
	streamBufferSize = 4 * 1024 * 1024
)

// Download outcome labels.
const (
	outcomeCompleted     = "completed"
	outcomeSetupFailed   = "setup_failed"
	outcomeStreamAborted = "stream_aborted"
)

// handleDownload materializes the requested artifact into a private
// temp file and streams it to the client. The temp file is removed on
// every exit path.
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request, _ store.Account) {
	var req DownloadRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := validate.AppReference(req.AppID, req.BundleID); err != nil {
		badRequest(w, err)
		return
	}
	if err := validate.VersionID(req.ExternalVersionID); err != nil {
		badRequest(w, err)
		return
	}

	metrics := getDownloadMetrics()
	log := h.logger.WithContext(r.Context())

	setupCtx, cancel := context.WithTimeout(r.Context(), downloadSetupTimeout)
	defer cancel()

	tmpPath, size, app, err := h.setupDownload(setupCtx, req)
	if tmpPath != "" {
		defer func() {
			if removeErr := os.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				log.Warn("failed to remove download temp file",
					observability.String("path", tmpPath),
					observability.Error(removeErr),
				)
			}
		}()
	}
	if err != nil {
		metrics.downloadsTotal.WithLabelValues(outcomeSetupFailed).Inc()
		h.mapper.respond(w, r, err)
		return
	}
	cancel()

	f, err := os.Open(tmpPath)
	if err != nil {
		metrics.downloadsTotal.WithLabelValues(outcomeSetupFailed).Inc()
		h.mapper.respond(w, r, fmt.Errorf("opening artifact: %w", err))
		return
	}
	defer f.Close()

	filename := downloadFilename(app, req.ExternalVersionID)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusOK)

	_, streamSpan := h.startSpan(r.Context(), "download.stream")
	defer streamSpan.End()

	// Strip the ReadFrom fast path so the copy really goes through the
	// fixed-size buffer.
	buf := make([]byte, streamBufferSize)
	written, err := io.CopyBuffer(struct{ io.Writer }{w}, f, buf)
	metrics.bytesStreamed.Add(float64(written))

	if err != nil {
		// Headers are committed; the only option is to end the stream.
		// Disconnects and broken pipes are routine, not errors.
		metrics.downloadsTotal.WithLabelValues(outcomeStreamAborted).Inc()
		log.Debug("download stream ended early",
			observability.String("filename", filename),
			observability.Int64("written", written),
			observability.Int64("size", size),
			observability.Error(err),
		)
		return
	}

	metrics.downloadsTotal.WithLabelValues(outcomeCompleted).Inc()
	log.Info("download completed",
		observability.String("filename", filename),
		observability.Int64("size", size),
	)
}

// setupDownload runs the bounded setup phase: resolve the app
// reference, optionally purchase, and materialize the artifact into a
// fresh private temp file. It returns the temp path even on failure so
// the caller can clean up.
func (h *Handler) setupDownload(ctx context.Context, req DownloadRequest) (tmpPath string, size int64, app store.App, err error) {
	ctx, span := h.startSpan(ctx, "download.setup")
	defer span.End()

	app = store.App{ID: req.AppID}
	if req.BundleID != "" {
		app, err = h.client.Lookup(ctx, req.BundleID)
		if err != nil {
			return "", 0, app, err
		}
	}

	if req.AutoPurchase {
		// Already holding a license satisfies the purchase step; any
		// other failure aborts the download.
		if err := h.client.Purchase(ctx, app); err != nil && !errors.Is(err, store.ErrLicenseRequired) {
			return "", 0, app, err
		}
	}

	tmp, err := os.CreateTemp("", "storegw-artifact-*")
	if err != nil {
		return "", 0, app, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath = tmp.Name()
	if err := tmp.Close(); err != nil {
		return tmpPath, 0, app, fmt.Errorf("closing temp file: %w", err)
	}

	if err := h.client.Download(ctx, app, req.ExternalVersionID, tmpPath); err != nil {
		return tmpPath, 0, app, err
	}

	fi, err := os.Stat(tmpPath)
	if err != nil {
		return tmpPath, 0, app, fmt.Errorf("stating artifact: %w", err)
	}

	return tmpPath, fi.Size(), app, nil
}
