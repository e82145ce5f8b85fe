// Package validate provides syntax checks for request inputs. The
// checks are pure string validation; no domain call happens before they
// pass.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	maxTermLength  = 256
	maxEmailLength = 254
	defaultLimit   = 5
	maxLimit       = 200
)

var (
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	bundleIDPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]{1,255}$`)
	numericPattern  = regexp.MustCompile(`^[0-9]+$`)
	countryPattern  = regexp.MustCompile(`^[A-Za-z]{2}$`)
	authCodePattern = regexp.MustCompile(`^[0-9]{6}$`)
)

// Email checks that the value looks like an email address.
func Email(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > maxEmailLength || !emailPattern.MatchString(email) {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// AuthCode checks a two-factor authentication code.
func AuthCode(code string) error {
	if !authCodePattern.MatchString(code) {
		return fmt.Errorf("auth code must be 6 digits")
	}
	return nil
}

// BundleID checks a reverse-DNS bundle identifier.
func BundleID(bundleID string) error {
	if bundleID == "" {
		return fmt.Errorf("bundle_id is required")
	}
	if !bundleIDPattern.MatchString(bundleID) {
		return fmt.Errorf("invalid bundle_id")
	}
	return nil
}

// AppReference checks that exactly one usable app reference is present:
// a bundle ID, or a positive numeric app ID.
func AppReference(appID int64, bundleID string) error {
	if bundleID != "" {
		return BundleID(bundleID)
	}
	if appID <= 0 {
		return fmt.Errorf("either bundle_id or app_id is required")
	}
	return nil
}

// AppIDString checks a numeric app ID given in query-string form and
// returns its parsed value. Empty input yields zero.
func AppIDString(appID string) (int64, error) {
	if appID == "" {
		return 0, nil
	}
	if !numericPattern.MatchString(appID) {
		return 0, fmt.Errorf("app_id must be numeric")
	}
	id, err := strconv.ParseInt(appID, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid app_id")
	}
	return id, nil
}

// VersionID checks an external version identifier. Empty is allowed;
// it selects the latest version.
func VersionID(versionID string) error {
	if versionID == "" {
		return nil
	}
	if !numericPattern.MatchString(versionID) {
		return fmt.Errorf("invalid version_id")
	}
	return nil
}

// RequiredVersionID checks an external version identifier that must be
// present.
func RequiredVersionID(versionID string) error {
	if versionID == "" {
		return fmt.Errorf("version_id is required")
	}
	return VersionID(versionID)
}

// CountryCode checks an ISO 3166-1 alpha-2 storefront code. Empty is
// allowed; the account storefront applies.
func CountryCode(code string) error {
	if code == "" {
		return nil
	}
	if !countryPattern.MatchString(code) {
		return fmt.Errorf("invalid country code")
	}
	return nil
}

// Term checks a search term.
func Term(term string) error {
	if strings.TrimSpace(term) == "" {
		return fmt.Errorf("term is required")
	}
	if len(term) > maxTermLength {
		return fmt.Errorf("term too long")
	}
	return nil
}

// Limit parses a search result limit, applying the default when empty.
func Limit(limit string) (int, error) {
	if limit == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(limit)
	if err != nil || n <= 0 || n > maxLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d", maxLimit)
	}
	return n, nil
}
