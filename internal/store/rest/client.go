// Package rest implements the store.Client contract over the automation
// backend's JSON control endpoint.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vyrodovalexey/storegw/internal/observability"
	"github.com/vyrodovalexey/storegw/internal/store"
)

// downloadCopyBufferSize bounds memory while spooling an artifact from
// the backend into the destination file.
const downloadCopyBufferSize = 4 * 1024 * 1024

// breakerTrippedRequests is the minimum number of observed requests
// before the failure ratio can open the breaker.
const breakerTrippedRequests = 5

// Config contains backend connection settings.
type Config struct {
	// BaseURL is the backend control endpoint, e.g. "http://127.0.0.1:9090".
	BaseURL string

	// Timeout bounds a single non-download backend call.
	Timeout time.Duration
}

// Client is a store.Client backed by the automation backend's REST
// surface. All calls go through a circuit breaker; breaker-open and
// transport failures surface as store.ErrUnavailable.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  observability.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(logger observability.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a new backend client.
func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	c := &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "store-backend",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= breakerTrippedRequests && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Info("store backend circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// Domain outcomes (not found, license required) are not
			// backend health signals.
			return err == nil || !errors.Is(err, store.ErrUnavailable)
		},
	})

	return c
}

// backendError is the error shape the backend returns for failed calls.
type backendError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// errorFromCode translates a backend machine-readable error code into
// the gateway's sentinel taxonomy.
func errorFromCode(code, message string) error {
	var sentinel error
	switch code {
	case "not_found":
		sentinel = store.ErrNotFound
	case "auth_required":
		sentinel = store.ErrAuthRequired
	case "auth_failed":
		sentinel = store.ErrAuthFailed
	case "license_required":
		sentinel = store.ErrLicenseRequired
	default:
		return fmt.Errorf("backend error %s: %s", code, message)
	}
	return fmt.Errorf("%w: %s", sentinel, message)
}

// call performs a JSON request against the backend and decodes the
// response into out (which may be nil).
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.doCall(ctx, method, path, query, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &store.Error{Op: method + " " + path, Cause: fmt.Errorf("%w: %v", store.ErrUnavailable, err)}
	}
	return err
}

func (c *Client) doCall(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &store.Error{Op: path, Cause: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &store.Error{Op: path, Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &store.Error{Op: path, Cause: fmt.Errorf("%w: %v", store.ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return &store.Error{Op: path, Cause: fmt.Errorf("%w: backend returned %d", store.ErrUnavailable, resp.StatusCode)}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var be backendError
		if err := json.NewDecoder(resp.Body).Decode(&be); err != nil || be.Code == "" {
			return &store.Error{Op: path, Cause: fmt.Errorf("backend returned %d", resp.StatusCode)}
		}
		return &store.Error{Op: path, Cause: errorFromCode(be.Code, be.Error)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &store.Error{Op: path, Cause: fmt.Errorf("decoding backend response: %w", err)}
		}
	}

	return nil
}

// Login implements store.Client.
func (c *Client) Login(ctx context.Context, email, password, authCode string) (store.Account, error) {
	var account store.Account
	body := map[string]string{
		"email":     email,
		"password":  password,
		"auth_code": authCode,
	}
	if err := c.call(ctx, http.MethodPost, "/login", nil, body, &account); err != nil {
		return store.Account{}, err
	}
	return account, nil
}

// AccountInfo implements store.Client.
func (c *Client) AccountInfo(ctx context.Context) (store.Account, error) {
	var account store.Account
	if err := c.call(ctx, http.MethodGet, "/account", nil, nil, &account); err != nil {
		return store.Account{}, err
	}
	return account, nil
}

// Revoke implements store.Client.
func (c *Client) Revoke(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/revoke", nil, nil, nil)
}

// Search implements store.Client.
func (c *Client) Search(ctx context.Context, term string, limit int, countryCode string) (store.SearchResult, error) {
	query := url.Values{}
	query.Set("term", term)
	query.Set("limit", strconv.Itoa(limit))
	if countryCode != "" {
		query.Set("country", countryCode)
	}

	var result store.SearchResult
	if err := c.call(ctx, http.MethodGet, "/search", query, nil, &result); err != nil {
		return store.SearchResult{}, err
	}
	return result, nil
}

// Purchase implements store.Client.
func (c *Client) Purchase(ctx context.Context, app store.App) error {
	return c.call(ctx, http.MethodPost, "/purchase", nil, app, nil)
}

// Lookup implements store.Client.
func (c *Client) Lookup(ctx context.Context, bundleID string) (store.App, error) {
	query := url.Values{}
	query.Set("bundle_id", bundleID)

	var app store.App
	if err := c.call(ctx, http.MethodGet, "/lookup", query, nil, &app); err != nil {
		return store.App{}, err
	}
	return app, nil
}

// ListVersions implements store.Client.
func (c *Client) ListVersions(ctx context.Context, app store.App) ([]string, error) {
	var result struct {
		ExternalVersionIDs []string `json:"external_version_identifiers"`
	}
	if err := c.call(ctx, http.MethodPost, "/versions", nil, app, &result); err != nil {
		return nil, err
	}
	return result.ExternalVersionIDs, nil
}

// GetVersionMetadata implements store.Client.
func (c *Client) GetVersionMetadata(ctx context.Context, app store.App, versionID string) (store.VersionMetadata, error) {
	body := struct {
		store.App
		VersionID string `json:"version_id"`
	}{App: app, VersionID: versionID}

	var meta store.VersionMetadata
	if err := c.call(ctx, http.MethodPost, "/metadata", nil, body, &meta); err != nil {
		return store.VersionMetadata{}, err
	}
	return meta, nil
}

// Download implements store.Client. The artifact body is spooled into
// destPath with a bounded buffer; the download is not subject to the
// client's short call timeout, only to ctx.
func (c *Client) Download(ctx context.Context, app store.App, versionID, destPath string) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.doDownload(ctx, app, versionID, destPath)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &store.Error{Op: "download", Cause: fmt.Errorf("%w: %v", store.ErrUnavailable, err)}
	}
	return err
}

func (c *Client) doDownload(ctx context.Context, app store.App, versionID, destPath string) error {
	body, err := json.Marshal(struct {
		store.App
		VersionID string `json:"version_id,omitempty"`
	}{App: app, VersionID: versionID})
	if err != nil {
		return &store.Error{Op: "download", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/download", bytes.NewReader(body))
	if err != nil {
		return &store.Error{Op: "download", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	// A dedicated client without the short per-call timeout: artifact
	// transfers are bounded by the caller's context instead.
	hc := &http.Client{Transport: c.http.Transport}

	resp, err := hc.Do(req)
	if err != nil {
		return &store.Error{Op: "download", Cause: fmt.Errorf("%w: %v", store.ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var be backendError
		if err := json.NewDecoder(resp.Body).Decode(&be); err != nil || be.Code == "" {
			return &store.Error{Op: "download", Cause: fmt.Errorf("%w: backend returned %d", store.ErrUnavailable, resp.StatusCode)}
		}
		return &store.Error{Op: "download", Cause: errorFromCode(be.Code, be.Error)}
	}

	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return &store.Error{Op: "download", Cause: err}
	}

	buf := make([]byte, downloadCopyBufferSize)
	_, copyErr := io.CopyBuffer(dest, resp.Body, buf)
	closeErr := dest.Close()

	if copyErr != nil {
		return &store.Error{Op: "download", Cause: fmt.Errorf("%w: %v", store.ErrUnavailable, copyErr)}
	}
	if closeErr != nil {
		return &store.Error{Op: "download", Cause: closeErr}
	}

	return nil
}
