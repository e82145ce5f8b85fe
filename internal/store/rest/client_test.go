package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/storegw/internal/store"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Config{BaseURL: srv.URL})
}

func TestClient_Login(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user@example.com", body["email"])

		_ = json.NewEncoder(w).Encode(store.Account{
			Email:      "user@example.com",
			Name:       "Test User",
			StoreFront: "US",
		})
	}))

	account, err := c.Login(context.Background(), "user@example.com", "pw", "")
	require.NoError(t, err)
	assert.Equal(t, "Test User", account.Name)
	assert.Equal(t, "US", account.StoreFront)
}

func TestClient_ErrorCodeMapping(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"not_found", store.ErrNotFound},
		{"auth_required", store.ErrAuthRequired},
		{"auth_failed", store.ErrAuthFailed},
		{"license_required", store.ErrLicenseRequired},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(backendError{Error: "nope", Code: tt.code})
			}))

			_, err := c.AccountInfo(context.Background())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_ServerErrorIsUnavailable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.AccountInfo(context.Background())
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestClient_UnreachableBackendIsUnavailable(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1"})

	_, err := c.AccountInfo(context.Background())
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestClient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))

	for i := 0; i < breakerTrippedRequests; i++ {
		_, err := c.AccountInfo(context.Background())
		require.ErrorIs(t, err, store.ErrUnavailable)
	}

	// The breaker is now open: the backend stops seeing requests.
	before := calls
	_, err := c.AccountInfo(context.Background())
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Equal(t, before, calls)
}

func TestClient_DomainErrorsDoNotTripBreaker(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(backendError{Error: "missing", Code: "not_found"})
	}))

	for i := 0; i < breakerTrippedRequests*2; i++ {
		_, err := c.Lookup(context.Background(), "com.example.app")
		require.ErrorIs(t, err, store.ErrNotFound)
		require.NotErrorIs(t, err, store.ErrUnavailable)
	}
}

func TestClient_Search(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "maps", r.URL.Query().Get("term"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "US", r.URL.Query().Get("country"))

		_ = json.NewEncoder(w).Encode(store.SearchResult{
			Count: 1,
			Apps:  []store.App{{ID: 1, BundleID: "com.example.maps", Name: "Maps"}},
		})
	}))

	result, err := c.Search(context.Background(), "maps", 5, "US")
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, "com.example.maps", result.Apps[0].BundleID)
}

func TestClient_ListVersions(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"external_version_identifiers": []string{"1", "2", "3"},
		})
	}))

	versions, err := c.ListVersions(context.Background(), store.App{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, versions)
}

func TestClient_DownloadWritesDestination(t *testing.T) {
	payload := []byte("artifact-bytes")
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/download", r.URL.Path)
		_, _ = w.Write(payload)
	}))

	dest := filepath.Join(t.TempDir(), "artifact")
	err := c.Download(context.Background(), store.App{ID: 1}, "", dest)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestClient_DownloadBackendError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(backendError{Error: "no such version", Code: "not_found"})
	}))

	dest := filepath.Join(t.TempDir(), "artifact")
	err := c.Download(context.Background(), store.App{ID: 1}, "999", dest)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
