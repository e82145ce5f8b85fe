package middleware

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSensitiveData(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{
			name: "no query",
			uri:  "/api/v1/search",
			want: "/api/v1/search",
		},
		{
			name: "password masked",
			uri:  "/api/v1/auth/login?password=hunter2",
			want: "/api/v1/auth/login?password=%2A%2A%2A",
		},
		{
			name: "plain params untouched",
			uri:  "/api/v1/search?term=maps",
			want: "/api/v1/search?term=maps",
		},
		{
			name: "auth code masked alongside plain params",
			uri:  "/api/v1/auth/login?auth_code=123456&email=a%40b.c",
			want: "/api/v1/auth/login?auth_code=%2A%2A%2A&email=a%40b.c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, maskSensitiveData(tt.uri))
		})
	}
}

func TestMaskSensitiveData_NeverLeaksSecret(t *testing.T) {
	masked := maskSensitiveData("/api/v1/auth/login?password=topsecret&token=abc123")

	assert.NotContains(t, masked, "topsecret")
	assert.NotContains(t, masked, "abc123")
}

func TestShouldLog(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		want   bool
	}{
		{"healthy health check suppressed", "/health", http.StatusOK, false},
		{"failing health check logged", "/health", http.StatusServiceUnavailable, true},
		{"static asset suppressed", "/favicon.ico", http.StatusOK, false},
		{"static asset suppressed even on error", "/favicon.ico", http.StatusNotFound, false},
		{"critical endpoint logged on success", "/api/v1/auth/login", http.StatusOK, true},
		{"download logged on success", "/api/v1/download", http.StatusOK, true},
		{"catalog success suppressed", "/", http.StatusOK, false},
		{"client error always logged", "/anything", http.StatusBadRequest, true},
		{"server error always logged", "/anything", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldLog(tt.path, tt.status))
		})
	}
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(http.StatusOK))
	assert.Equal(t, "3xx", statusClass(http.StatusFound))
	assert.Equal(t, "4xx", statusClass(http.StatusTooManyRequests))
	assert.Equal(t, "5xx", statusClass(http.StatusBadGateway))
}
