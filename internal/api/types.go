package api

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	AuthCode string `json:"auth_code,omitempty"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Success     bool   `json:"success"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
}

// AccountResponse is the body of GET /api/v1/auth/info.
type AccountResponse struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
}

// RevokeResponse is the body of POST /api/v1/auth/revoke.
type RevokeResponse struct {
	Success bool `json:"success"`
}

// AppInfo is one catalog entry in a search response.
type AppInfo struct {
	TrackID    int64   `json:"track_id"`
	BundleID   string  `json:"bundle_id"`
	Name       string  `json:"name"`
	Version    string  `json:"version"`
	Price      float64 `json:"price"`
	ArtworkURL string  `json:"artwork_url,omitempty"`
}

// SearchResponse is the body of GET /api/v1/search.
type SearchResponse struct {
	Count int       `json:"count"`
	Apps  []AppInfo `json:"apps"`
}

// PurchaseRequest is the body of POST /api/v1/purchase.
type PurchaseRequest struct {
	BundleID string `json:"bundle_id"`
}

// PurchaseResponse is the body of a successful purchase.
type PurchaseResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VersionsResponse is the body of GET /api/v1/versions.
type VersionsResponse struct {
	BundleID                   string   `json:"bundle_id"`
	ExternalVersionIdentifiers []string `json:"external_version_identifiers"`
	Success                    bool     `json:"success"`
}

// MetadataResponse is the body of GET /api/v1/metadata.
type MetadataResponse struct {
	Success           bool   `json:"success"`
	ExternalVersionID string `json:"external_version_id"`
	DisplayVersion    string `json:"display_version"`
	ReleaseDate       string `json:"release_date"`
}

// DownloadRequest is the body of POST /api/v1/download. BundleID takes
// precedence over AppID when both are present; an absent
// ExternalVersionID selects the latest version.
type DownloadRequest struct {
	AppID             int64  `json:"app_id,omitempty"`
	BundleID          string `json:"bundle_id,omitempty"`
	ExternalVersionID string `json:"external_version_id,omitempty"`
	AutoPurchase      bool   `json:"auto_purchase,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// CatalogResponse is the body of GET /, a plain route catalog for
// discovery.
type CatalogResponse struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}
