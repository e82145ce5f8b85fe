package api

import (
	"encoding/json"
	"net/http"

	"github.com/vyrodovalexey/storegw/internal/middleware"
)

// ErrorResponse is the uniform error envelope. Every error response
// carries a stable machine-readable key and a human-readable message.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(middleware.HeaderContentType, middleware.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError writes the uniform error envelope.
func respondError(w http.ResponseWriter, status int, key, message string) {
	respondJSON(w, status, ErrorResponse{
		Success: false,
		Error:   key,
		Message: message,
	})
}
