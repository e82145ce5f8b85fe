package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/storegw/internal/middleware"
	"github.com/vyrodovalexey/storegw/internal/observability"
	"github.com/vyrodovalexey/storegw/internal/ratelimit"
	ratestore "github.com/vyrodovalexey/storegw/internal/ratelimit/store"
	"github.com/vyrodovalexey/storegw/internal/session"
	"github.com/vyrodovalexey/storegw/internal/store/storetest"
)

func newTestRouter(t *testing.T, fake *storetest.Client, cfg RouterConfig) http.Handler {
	t.Helper()

	limiter := ratelimit.NewLimiter(nil, ratestore.NewMemoryStore())
	t.Cleanup(func() { _ = limiter.Close() })

	if cfg.FloodRPS == 0 {
		cfg.FloodRPS = 1000
		cfg.FloodBurst = 1000
	}

	h := NewHandler(fake, session.NewTracker(), middleware.NewClientIPExtractor(nil))
	return NewRouter(h, limiter, cfg, observability.NopLogger())
}

func TestRouter_APIKeyGuardsVersionedRoutes(t *testing.T) {
	router := newTestRouter(t, storetest.New(), RouterConfig{APIKey: "secret"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?term=x", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/search?term=x", nil)
	req.Header.Set(middleware.HeaderXAPIKey, "secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_HealthIsUnauthenticated(t *testing.T) {
	router := newTestRouter(t, storetest.New(), RouterConfig{APIKey: "secret"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CatalogIsUnauthenticated(t *testing.T) {
	router := newTestRouter(t, storetest.New(), RouterConfig{APIKey: "secret"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_SixthLoginIs429RegardlessOfCredentials(t *testing.T) {
	fake := storetest.New()
	router := newTestRouter(t, fake, RouterConfig{})

	do := func() int {
		body := strings.NewReader(`{"email":"user@example.com","password":"pw"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
		req.RemoteAddr = "10.9.8.7:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, do(), "attempt %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, do())

	// Another origin is unaffected.
	body := strings.NewReader(`{"email":"user@example.com","password":"pw"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	req.RemoteAddr = "10.0.0.99:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_PreflightWithoutAPIKey(t *testing.T) {
	router := newTestRouter(t, storetest.New(), RouterConfig{
		APIKey: "secret",
		CORS:   middleware.CORSConfig{AllowOrigins: []string{"https://good.example"}},
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/search", nil)
	req.Header.Set(middleware.HeaderOrigin, "https://good.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://good.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_DisallowedOriginGetsNoCORSHeader(t *testing.T) {
	router := newTestRouter(t, storetest.New(), RouterConfig{
		CORS: middleware.CORSConfig{AllowOrigins: []string{"https://good.example"}},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?term=x", nil)
	req.Header.Set(middleware.HeaderOrigin, "https://evil.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_UnknownAPIRouteGets404Envelope(t *testing.T) {
	router := newTestRouter(t, storetest.New(), RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nonsense", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errKeyNotFound, decodeError(t, rec).Error)
}

func TestRouter_RequestIDHeaderSet(t *testing.T) {
	router := newTestRouter(t, storetest.New(), RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderXRequestID))
}

func TestRouter_OversizedLoginBodyRejected(t *testing.T) {
	router := newTestRouter(t, storetest.New(), RouterConfig{})

	big := strings.NewReader(`{"email":"` + strings.Repeat("a", middleware.LoginMaxBodySize) + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", big)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRouter_SessionExpiryFlow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	tracker := session.NewTracker(session.WithTimeout(24*time.Hour), session.WithClock(clock))

	limiter := ratelimit.NewLimiter(nil, ratestore.NewMemoryStore())
	t.Cleanup(func() { _ = limiter.Close() })

	h := NewHandler(storetest.New(), tracker, middleware.NewClientIPExtractor(nil))
	router := NewRouter(h, limiter, RouterConfig{FloodRPS: 1000, FloodBurst: 1000}, observability.NopLogger())

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/info", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do())

	now = now.Add(25 * time.Hour)
	assert.Equal(t, http.StatusUnauthorized, do())
	assert.Equal(t, http.StatusOK, do())
}
