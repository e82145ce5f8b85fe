package api

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vyrodovalexey/storegw/internal/store"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "com.example.app.ipa", "com.example.app.ipa"},
		{"path traversal", "../../etc/passwd", "_._etc_passwd"},
		{"backslash traversal", `..\..\windows\system32`, "_._windows_system32"},
		{"control characters", "file\x00\x1fname.ipa", "filename.ipa"},
		{"quotes stripped", `file"name'.ipa`, "file_name_.ipa"},
		{"empty becomes placeholder", "", "download"},
		{"only dots becomes placeholder", "....", "download"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeFilename(tt.input)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "..")
			assert.NotContains(t, got, "/")
			assert.NotContains(t, got, `\`)
		})
	}
}

func TestDownloadFilename(t *testing.T) {
	assert.Equal(t, "com.example.app.ipa",
		downloadFilename(store.App{BundleID: "com.example.app"}, ""))
	assert.Equal(t, "com.example.app_101.ipa",
		downloadFilename(store.App{BundleID: "com.example.app"}, "101"))
	assert.Equal(t, "12345.ipa",
		downloadFilename(store.App{ID: 12345}, ""))
}
