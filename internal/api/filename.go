package api

import (
	"strconv"
	"strings"

	"github.com/vyrodovalexey/storegw/internal/store"
)

// sanitizeFilename strips path separators, traversal sequences, control
// characters, and quoting characters from a download filename so it is
// safe inside a Content-Disposition header.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			// control characters
		case r == '/' || r == '\\' || r == ':' || r == '"' || r == '\'' || r == ';':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	out := b.String()
	for strings.Contains(out, "..") {
		out = strings.ReplaceAll(out, "..", ".")
	}
	out = strings.Trim(out, ". ")

	if out == "" {
		return "download"
	}
	return out
}

// downloadFilename builds the advertised artifact filename from the app
// reference and requested version.
func downloadFilename(app store.App, versionID string) string {
	base := app.BundleID
	if base == "" {
		base = strconv.FormatInt(app.ID, 10)
	}
	if versionID != "" {
		base += "_" + versionID
	}
	return sanitizeFilename(base + ".ipa")
}
