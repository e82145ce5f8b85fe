package api

import (
	"net/http"

	"github.com/vyrodovalexey/storegw/internal/middleware"
	"github.com/vyrodovalexey/storegw/internal/observability"
	"github.com/vyrodovalexey/storegw/internal/store"
)

// protectedFunc is a handler that runs only after identity resolution.
// The resolved account arrives as an explicit parameter, not a context
// value.
type protectedFunc func(w http.ResponseWriter, r *http.Request, account store.Account)

// protected wraps a handler with identity resolution and session
// enforcement. The upstream identity is fetched first; a request with
// no valid identity never touches the session map, so a rejected call
// cannot refresh an entry.
func (h *Handler) protected(next protectedFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := h.client.AccountInfo(r.Context())
		if err != nil {
			h.mapper.respond(w, r, err)
			return
		}

		origin := h.extractor.Extract(r)
		if err := h.sessions.Touch(origin); err != nil {
			middleware.RecordSessionExpired()
			h.logger.WithContext(r.Context()).Warn("rejected expired session",
				observability.String("origin", origin),
				observability.String("path", r.URL.Path),
			)
			h.mapper.respond(w, r, err)
			return
		}

		next(w, r, account)
	}
}
