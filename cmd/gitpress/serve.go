package main

import (
	"strconv"
	"time"

	"github.com/gitpress-io/gitpress"
)

// runServe starts the admin server with configuration taken from the
// environment, mirroring how the library is embedded in a Go program.
func runServe() error {
	cfg := gitpress.SiteConfig{
		Addr:          gitpress.EnvOr("GITPRESS_ADDR", ":8080"),
		Provider:      gitpress.EnvOr("GITPRESS_PROVIDER", "github"),
		RepoOwner:     gitpress.EnvOr("GITPRESS_REPO_OWNER", ""),
		RepoName:      gitpress.EnvOr("GITPRESS_REPO_NAME", ""),
		Branch:        gitpress.EnvOr("GITPRESS_BRANCH", "main"),
		Token:         gitpress.EnvOr("GITPRESS_TOKEN", ""),
		LocalURL:      gitpress.EnvOr("GITPRESS_LOCAL_URL", "http://127.0.0.1:3000"),
		DraftDBPath:   gitpress.EnvOr("GITPRESS_DRAFT_DB", "data/drafts.db"),
		AdminPassword: gitpress.MustEnv("GITPRESS_ADMIN_PASSWORD"),
		SessionSecret: gitpress.MustEnv("GITPRESS_SESSION_SECRET"),
		CookieSecure:  gitpress.EnvOr("GITPRESS_COOKIE_SECURE", "") == "true",
	}
	if ttl, err := time.ParseDuration(gitpress.EnvOr("GITPRESS_INDEX_CACHE_TTL", "")); err == nil {
		cfg.IndexCacheTTL = ttl
	}
	if n, err := strconv.ParseUint(gitpress.EnvOr("GITPRESS_INDEX_RETRY_ATTEMPTS", ""), 10, 8); err == nil {
		cfg.IndexRetryAttempts = n
	}

	app := gitpress.New(cfg, gitpress.ViewFuncs{})
	return app.Start()
}
