package gitpress

import (
	"net/http"
	"time"

	"github.com/gitpress-io/gitpress/store"
)

// SiteConfig holds all server-side configuration for a gitpress admin panel.
// Site-level presentation settings (name, languages, menus) live inside the
// published repository itself and are loaded through the backend at startup.
type SiteConfig struct {
	Addr string // Listen address (default ":8080")

	// Backend selection. Provider is a registered backend name: "github"
	// publishes atomic commits to a git hosting provider, "local" writes
	// directly through the development file server.
	Provider string // default "github"

	// Remote repository coordinates, used by the github provider.
	RepoOwner string
	RepoName  string
	Branch    string // default "main"
	Token     string // bearer credential for the hosting API

	// LocalURL is the development server address, used by the local
	// provider (default "http://127.0.0.1:3000").
	LocalURL string

	// DraftDBPath is the SQLite file holding in-progress edits
	// (default "data/drafts.db").
	DraftDBPath string

	AdminPassword string // Required: admin login password
	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	// IndexCacheTTL bounds how stale a cached search index may be
	// (default 1min).
	IndexCacheTTL time.Duration

	// IndexRetryAttempts / IndexRetryDelay bound the read-through retry
	// used to ride out API lag right after a commit (defaults 3 / 2s).
	IndexRetryAttempts uint64
	IndexRetryDelay    time.Duration

	// HTTPClient is used for all backend calls. If nil, http.DefaultClient.
	HTTPClient *http.Client
}

func (c *SiteConfig) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Provider == "" {
		c.Provider = "github"
	}
	if c.Branch == "" {
		c.Branch = "main"
	}
	if c.LocalURL == "" {
		c.LocalURL = "http://127.0.0.1:3000"
	}
	if c.DraftDBPath == "" {
		c.DraftDBPath = "data/drafts.db"
	}
	if c.IndexCacheTTL == 0 {
		c.IndexCacheTTL = time.Minute
	}
	if c.IndexRetryAttempts == 0 {
		c.IndexRetryAttempts = 3
	}
	if c.IndexRetryDelay == 0 {
		c.IndexRetryDelay = 2 * time.Second
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for operator-owned static assets served
// under /public (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithBackend injects a pre-built backend, bypassing the provider registry.
// Used by tests and by embedders with custom stores.
func WithBackend(b store.Backend) Option {
	return func(a *App) {
		a.Backend = b
	}
}
