// Package storetest provides a scripted store.Client fake for tests.
package storetest

import (
	"context"
	"os"
	"sync"

	"github.com/vyrodovalexey/storegw/internal/store"
)

// Client implements store.Client with canned results and per-method
// error injection. All methods are safe for concurrent use.
type Client struct {
	mu sync.Mutex

	// Canned results.
	Account  store.Account
	Apps     map[string]store.App // bundle ID -> app
	Searches store.SearchResult
	Versions []string
	Metadata store.VersionMetadata

	// Payload is written to destPath by Download.
	Payload []byte

	// DownloadFunc, when set, replaces the default Download behavior.
	DownloadFunc func(ctx context.Context, app store.App, versionID, destPath string) error

	// Error injection: method name -> error returned on every call.
	errors map[string]error

	// Call counters by method name.
	calls map[string]int
}

// New returns a Client with a default account and an empty catalog.
func New() *Client {
	return &Client{
		Account: store.Account{
			Email:      "user@example.com",
			Name:       "Test User",
			StoreFront: "US",
		},
		Apps:   make(map[string]store.App),
		errors: make(map[string]error),
		calls:  make(map[string]int),
	}
}

// SetError makes the named method return err on every subsequent call.
func (c *Client) SetError(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors[method] = err
}

// Calls returns how many times the named method was invoked.
func (c *Client) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

func (c *Client) enter(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[method]++
	return c.errors[method]
}

// Login implements store.Client.
func (c *Client) Login(ctx context.Context, email, password, authCode string) (store.Account, error) {
	if err := c.enter("Login"); err != nil {
		return store.Account{}, err
	}
	account := c.Account
	account.Email = email
	return account, nil
}

// AccountInfo implements store.Client.
func (c *Client) AccountInfo(ctx context.Context) (store.Account, error) {
	if err := c.enter("AccountInfo"); err != nil {
		return store.Account{}, err
	}
	return c.Account, nil
}

// Revoke implements store.Client.
func (c *Client) Revoke(ctx context.Context) error {
	return c.enter("Revoke")
}

// Search implements store.Client.
func (c *Client) Search(ctx context.Context, term string, limit int, countryCode string) (store.SearchResult, error) {
	if err := c.enter("Search"); err != nil {
		return store.SearchResult{}, err
	}
	return c.Searches, nil
}

// Purchase implements store.Client.
func (c *Client) Purchase(ctx context.Context, app store.App) error {
	return c.enter("Purchase")
}

// Lookup implements store.Client.
func (c *Client) Lookup(ctx context.Context, bundleID string) (store.App, error) {
	if err := c.enter("Lookup"); err != nil {
		return store.App{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	app, ok := c.Apps[bundleID]
	if !ok {
		return store.App{}, store.ErrNotFound
	}
	return app, nil
}

// ListVersions implements store.Client.
func (c *Client) ListVersions(ctx context.Context, app store.App) ([]string, error) {
	if err := c.enter("ListVersions"); err != nil {
		return nil, err
	}
	return c.Versions, nil
}

// GetVersionMetadata implements store.Client.
func (c *Client) GetVersionMetadata(ctx context.Context, app store.App, versionID string) (store.VersionMetadata, error) {
	if err := c.enter("GetVersionMetadata"); err != nil {
		return store.VersionMetadata{}, err
	}
	return c.Metadata, nil
}

// Download implements store.Client. By default it writes Payload to
// destPath.
func (c *Client) Download(ctx context.Context, app store.App, versionID, destPath string) error {
	if err := c.enter("Download"); err != nil {
		return err
	}
	if c.DownloadFunc != nil {
		return c.DownloadFunc(ctx, app, versionID, destPath)
	}
	return os.WriteFile(destPath, c.Payload, 0o600)
}
