package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vyrodovalexey/storegw/internal/middleware"
	"github.com/vyrodovalexey/storegw/internal/observability"
	"github.com/vyrodovalexey/storegw/internal/session"
	"github.com/vyrodovalexey/storegw/internal/store"
	"github.com/vyrodovalexey/storegw/internal/validate"
)

// Handler serves the versioned API routes. Protected routes resolve the
// upstream identity and enforce the session timeout before their
// handler body runs.
type Handler struct {
	client    store.Client
	sessions  *session.Tracker
	extractor *middleware.ClientIPExtractor
	logger    observability.Logger
	tracer    *observability.Tracer
	mapper    *errorMapper
	version   string
	debug     bool
}

// HandlerOption is a functional option for configuring the handler.
type HandlerOption func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(logger observability.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithTracer sets the tracer used to record download phases.
func WithTracer(tracer *observability.Tracer) HandlerOption {
	return func(h *Handler) {
		h.tracer = tracer
	}
}

// WithVersion sets the version string reported by health and catalog
// responses.
func WithVersion(version string) HandlerOption {
	return func(h *Handler) {
		h.version = version
	}
}

// WithDebug enables detailed 5xx error messages. Off, internal errors
// are reported with a generic message.
func WithDebug(debug bool) HandlerOption {
	return func(h *Handler) {
		h.debug = debug
	}
}

// NewHandler creates a handler over the given store client, session
// tracker, and client origin extractor.
func NewHandler(client store.Client, sessions *session.Tracker, extractor *middleware.ClientIPExtractor, opts ...HandlerOption) *Handler {
	h := &Handler{
		client:    client,
		sessions:  sessions,
		extractor: extractor,
		logger:    observability.NopLogger(),
		version:   "dev",
	}

	for _, opt := range opts {
		opt(h)
	}

	h.mapper = &errorMapper{logger: h.logger, debug: h.debug}

	return h
}

// decodeJSON decodes the request body into v, answering the request
// itself on failure. An oversized body surfaces here as a
// MaxBytesError from the limited reader installed by the body-limit
// stage.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, errKeyTooLarge, "request body too large")
			return false
		}
		badRequest(w, fmt.Errorf("invalid JSON body"))
		return false
	}
	return true
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := validate.Email(req.Email); err != nil {
		badRequest(w, err)
		return
	}
	if req.Password == "" {
		badRequest(w, fmt.Errorf("password is required"))
		return
	}
	if req.AuthCode != "" {
		if err := validate.AuthCode(req.AuthCode); err != nil {
			badRequest(w, err)
			return
		}
	}

	account, err := h.client.Login(r.Context(), req.Email, req.Password, req.AuthCode)
	if err != nil {
		h.mapper.respond(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{
		Success:     true,
		Email:       account.Email,
		Name:        account.Name,
		CountryCode: account.StoreFront,
	})
}

func (h *Handler) handleAccountInfo(w http.ResponseWriter, r *http.Request, account store.Account) {
	respondJSON(w, http.StatusOK, AccountResponse{
		Email:       account.Email,
		Name:        account.Name,
		CountryCode: account.StoreFront,
	})
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request, _ store.Account) {
	if err := h.client.Revoke(r.Context()); err != nil {
		h.mapper.respond(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, RevokeResponse{Success: true})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request, _ store.Account) {
	q := r.URL.Query()

	term := q.Get("term")
	if err := validate.Term(term); err != nil {
		badRequest(w, err)
		return
	}
	limit, err := validate.Limit(q.Get("limit"))
	if err != nil {
		badRequest(w, err)
		return
	}
	country := q.Get("country")
	if err := validate.CountryCode(country); err != nil {
		badRequest(w, err)
		return
	}

	result, err := h.client.Search(r.Context(), term, limit, country)
	if err != nil {
		h.mapper.respond(w, r, err)
		return
	}

	apps := make([]AppInfo, 0, len(result.Apps))
	for _, app := range result.Apps {
		apps = append(apps, AppInfo{
			TrackID:    app.ID,
			BundleID:   app.BundleID,
			Name:       app.Name,
			Version:    app.Version,
			Price:      app.Price,
			ArtworkURL: app.ArtworkURL,
		})
	}

	respondJSON(w, http.StatusOK, SearchResponse{Count: result.Count, Apps: apps})
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request, _ store.Account) {
	var req PurchaseRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := validate.BundleID(req.BundleID); err != nil {
		badRequest(w, err)
		return
	}

	app, err := h.client.Lookup(r.Context(), req.BundleID)
	if err != nil {
		h.mapper.respond(w, r, err)
		return
	}

	err = h.client.Purchase(r.Context(), app)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, PurchaseResponse{Success: true, Message: "purchase completed"})
	case errors.Is(err, store.ErrLicenseRequired):
		// The distinguished already-licensed outcome: nothing to buy.
		respondJSON(w, http.StatusOK, PurchaseResponse{Success: true, Message: "license already present"})
	default:
		h.mapper.respond(w, r, err)
	}
}

// resolveApp turns query-string app references into a store.App,
// looking up the canonical record when a bundle ID is given.
func (h *Handler) resolveApp(w http.ResponseWriter, r *http.Request) (store.App, bool) {
	q := r.URL.Query()

	appID, err := validate.AppIDString(q.Get("app_id"))
	if err != nil {
		badRequest(w, err)
		return store.App{}, false
	}
	bundleID := q.Get("bundle_id")
	if err := validate.AppReference(appID, bundleID); err != nil {
		badRequest(w, err)
		return store.App{}, false
	}

	if bundleID != "" {
		app, err := h.client.Lookup(r.Context(), bundleID)
		if err != nil {
			h.mapper.respond(w, r, err)
			return store.App{}, false
		}
		return app, true
	}

	return store.App{ID: appID}, true
}

func (h *Handler) handleVersions(w http.ResponseWriter, r *http.Request, _ store.Account) {
	app, ok := h.resolveApp(w, r)
	if !ok {
		return
	}

	versions, err := h.client.ListVersions(r.Context(), app)
	if err != nil {
		h.mapper.respond(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, VersionsResponse{
		BundleID:                   app.BundleID,
		ExternalVersionIdentifiers: versions,
		Success:                    true,
	})
}

func (h *Handler) handleMetadata(w http.ResponseWriter, r *http.Request, _ store.Account) {
	versionID := r.URL.Query().Get("version_id")
	if err := validate.RequiredVersionID(versionID); err != nil {
		badRequest(w, err)
		return
	}

	app, ok := h.resolveApp(w, r)
	if !ok {
		return
	}

	meta, err := h.client.GetVersionMetadata(r.Context(), app, versionID)
	if err != nil {
		h.mapper.respond(w, r, err)
		return
	}

	releaseDate := ""
	if !meta.ReleaseDate.IsZero() {
		releaseDate = meta.ReleaseDate.Format(time.RFC3339)
	}

	respondJSON(w, http.StatusOK, MetadataResponse{
		Success:           true,
		ExternalVersionID: meta.ExternalVersionID,
		DisplayVersion:    meta.DisplayVersion,
		ReleaseDate:       releaseDate,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: h.version})
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, CatalogResponse{
		Service: "storegw",
		Version: h.version,
		Endpoints: []string{
			"POST /api/v1/auth/login",
			"GET /api/v1/auth/info",
			"POST /api/v1/auth/revoke",
			"GET /api/v1/search",
			"POST /api/v1/purchase",
			"GET /api/v1/versions",
			"GET /api/v1/metadata",
			"POST /api/v1/download",
			"GET /health",
		},
	})
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, errKeyNotFound, "no such route")
}
