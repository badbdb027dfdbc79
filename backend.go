package gitpress

import (
	"fmt"
	"sort"

	"github.com/gitpress-io/gitpress/publish"
	"github.com/gitpress-io/gitpress/store"
)

// BackendFactory builds a store backend from the server configuration.
type BackendFactory func(SiteConfig) (store.Backend, error)

// backendFactories maps the Provider config value to a concrete backend,
// resolved once at startup.
var backendFactories = map[string]BackendFactory{
	"github": newGitHubBackend,
	"local":  newLocalBackend,
}

// RegisterBackend adds a provider to the registry. Call before Start; a
// duplicate name overwrites the previous registration.
func RegisterBackend(name string, factory BackendFactory) {
	backendFactories[name] = factory
}

// newBackend resolves the configured provider.
func newBackend(cfg SiteConfig) (store.Backend, error) {
	factory, ok := backendFactories[cfg.Provider]
	if !ok {
		names := make([]string, 0, len(backendFactories))
		for name := range backendFactories {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("gitpress: unknown provider %q (registered: %v)", cfg.Provider, names)
	}
	return factory(cfg)
}

func newGitHubBackend(cfg SiteConfig) (store.Backend, error) {
	gh, err := store.NewGitHub(store.GitHubConfig{
		Owner:      cfg.RepoOwner,
		Repo:       cfg.RepoName,
		Token:      cfg.Token,
		Branch:     cfg.Branch,
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}
	return publish.New(publish.Config{Store: gh, Branch: cfg.Branch})
}

func newLocalBackend(cfg SiteConfig) (store.Backend, error) {
	return store.NewLocal(store.LocalConfig{
		BaseURL:    cfg.LocalURL,
		HTTPClient: cfg.HTTPClient,
	})
}
