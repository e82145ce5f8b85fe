package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vyrodovalexey/storegw/internal/observability"
)

func TestBodyLimitFor(t *testing.T) {
	tests := []struct {
		path string
		want int64
	}{
		{"/api/v1/auth/login", LoginMaxBodySize},
		{"/api/v1/download", DownloadMaxBodySize},
		{"/api/v1/purchase", DefaultMaxBodySize},
		{"/health", DefaultMaxBodySize},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, BodyLimitFor(tt.path))
		})
	}
}

func TestBodyLimit_RejectsDeclaredOversize(t *testing.T) {
	mw := BodyLimit(observability.NopLogger())

	body := strings.NewReader(strings.Repeat("x", LoginMaxBodySize+1))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	rec := httptest.NewRecorder()

	mw(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, ErrRequestEntityTooLarge, rec.Body.String())
}

func TestBodyLimit_LimitsReads(t *testing.T) {
	mw := BodyLimit(observability.NopLogger())

	var readErr error
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	})

	// Chunked-style request: no declared length, oversize discovered on
	// read.
	body := strings.NewReader(strings.Repeat("x", LoginMaxBodySize+1))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", io.NopCloser(body))
	req.ContentLength = -1
	rec := httptest.NewRecorder()

	mw(next).ServeHTTP(rec, req)

	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxErr)
}

func TestBodyLimit_AllowsWithinLimit(t *testing.T) {
	mw := BodyLimit(observability.NopLogger())

	var got []byte
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = io.ReadAll(r.Body)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.c"}`))
	rec := httptest.NewRecorder()

	mw(next).ServeHTTP(rec, req)

	assert.Equal(t, `{"email":"a@b.c"}`, string(got))
}
