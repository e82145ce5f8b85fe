// Package store defines the contract between the gateway and the
// upstream store automation backend.
//
// The gateway never speaks the store protocol itself; it delegates every
// domain operation (login, search, purchase, version listing, artifact
// retrieval) to a Client implementation. The REST adapter in the rest
// subpackage talks to the automation backend's control endpoint, and
// storetest provides a scripted fake for handler tests.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// App identifies an application in the upstream catalog. Either ID or
// BundleID may be set; BundleID takes precedence when both are present.
type App struct {
	ID         int64   `json:"id,omitempty"`
	BundleID   string  `json:"bundle_id,omitempty"`
	Name       string  `json:"name,omitempty"`
	Version    string  `json:"version,omitempty"`
	Price      float64 `json:"price,omitempty"`
	ArtworkURL string  `json:"artwork_url,omitempty"`
}

// Account is the authenticated upstream identity. The gateway holds a
// single shared credential; every protected request resolves this same
// account.
type Account struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	StoreFront string `json:"store_front"`
}

// SearchResult holds the outcome of a catalog search.
type SearchResult struct {
	Count int   `json:"count"`
	Apps  []App `json:"apps"`
}

// VersionMetadata describes a single historical version of an app.
type VersionMetadata struct {
	ExternalVersionID string    `json:"external_version_id"`
	DisplayVersion    string    `json:"display_version"`
	ReleaseDate       time.Time `json:"release_date"`
}

// Client performs store operations against the automation backend.
// Download materializes the artifact for the given version into destPath;
// an empty versionID selects the latest version.
type Client interface {
	Login(ctx context.Context, email, password, authCode string) (Account, error)
	AccountInfo(ctx context.Context) (Account, error)
	Revoke(ctx context.Context) error
	Search(ctx context.Context, term string, limit int, countryCode string) (SearchResult, error)
	Purchase(ctx context.Context, app App) error
	Lookup(ctx context.Context, bundleID string) (App, error)
	ListVersions(ctx context.Context, app App) ([]string, error)
	GetVersionMetadata(ctx context.Context, app App, versionID string) (VersionMetadata, error)
	Download(ctx context.Context, app App, versionID, destPath string) error
}

// Sentinel errors for well-known upstream conditions. Callers check
// these with errors.Is; the API layer maps each to exactly one HTTP
// status.
var (
	// ErrNotFound indicates the app, bundle, or version does not exist
	// in the upstream catalog.
	ErrNotFound = errors.New("store: not found")

	// ErrAuthRequired indicates there is no valid upstream session.
	ErrAuthRequired = errors.New("store: authentication required")

	// ErrAuthFailed indicates the upstream rejected the credentials.
	ErrAuthFailed = errors.New("store: authentication failed")

	// ErrLicenseRequired indicates the account holds no license for the
	// app. During purchase it doubles as the already-licensed signal:
	// a purchase that reports it may be treated as satisfied.
	ErrLicenseRequired = errors.New("store: license required")

	// ErrUnavailable indicates the backend could not be reached or the
	// circuit breaker is open.
	ErrUnavailable = errors.New("store: backend unavailable")
)

// Error wraps an upstream failure with the operation that produced it.
type Error struct {
	Op    string
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *Error) Is(target error) bool {
	if _, ok := target.(*Error); ok {
		return true
	}
	return errors.Is(e.Cause, target)
}
