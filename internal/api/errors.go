package api

import (
	"errors"
	"net/http"

	"github.com/vyrodovalexey/storegw/internal/observability"
	"github.com/vyrodovalexey/storegw/internal/session"
	"github.com/vyrodovalexey/storegw/internal/store"
)

// Stable error keys. Clients branch on these, never on messages.
const (
	errKeyValidation      = "validation"
	errKeyTooLarge        = "request_too_large"
	errKeyAuthFailed      = "auth_failed"
	errKeyAuthRequired    = "auth_required"
	errKeySessionExpired  = "session_expired"
	errKeyNotFound        = "not_found"
	errKeyLicenseRequired = "license_required"
	errKeyUnavailable     = "unavailable"
	errKeyInternal        = "internal"
)

// errorMapper is the single place where domain errors become HTTP
// responses. The mapping is total: every error lands on exactly one
// status and key. In non-debug mode 5xx messages are generic so
// internals do not leak; 4xx messages stay specific.
type errorMapper struct {
	logger observability.Logger
	debug  bool
}

func (m *errorMapper) respond(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, errKeyNotFound, "not found in the store catalog")

	case errors.Is(err, store.ErrAuthFailed):
		respondError(w, http.StatusUnauthorized, errKeyAuthFailed, "authentication failed")

	case errors.Is(err, store.ErrAuthRequired):
		respondError(w, http.StatusUnauthorized, errKeyAuthRequired, "not authenticated, log in first")

	case errors.Is(err, session.ErrExpired):
		respondError(w, http.StatusUnauthorized, errKeySessionExpired, "session expired")

	case errors.Is(err, store.ErrLicenseRequired):
		respondError(w, http.StatusForbidden, errKeyLicenseRequired, "account does not hold a license for this app")

	case errors.Is(err, store.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, errKeyUnavailable, "store backend unavailable, try again later")

	default:
		m.logger.WithContext(r.Context()).Error("unhandled store error",
			observability.String("path", r.URL.Path),
			observability.Error(err),
		)

		message := "internal server error"
		if m.debug {
			message = err.Error()
		}
		respondError(w, http.StatusInternalServerError, errKeyInternal, message)
	}
}

// badRequest writes a validation failure. Validation messages are
// always specific; they describe the caller's input, not internals.
func badRequest(w http.ResponseWriter, err error) {
	respondError(w, http.StatusBadRequest, errKeyValidation, err.Error())
}
