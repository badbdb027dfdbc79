package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gitpress-io/gitpress/store"
)

// Settings is the site settings document stored in the repository
// (config/appSettings.json). It configures the rendered output, not the
// admin server itself.
type Settings struct {
	SiteName        string   `json:"siteName"`
	SiteURL         string   `json:"siteURL"`
	Description     string   `json:"description"`
	Languages       []string `json:"languages"`
	DefaultLanguage string   `json:"defaultLanguage"`
	Direction       string   `json:"direction"`
	// FeedType names the content type published to feed.xml during a
	// rebuild; empty disables the feed.
	FeedType string `json:"feedType,omitempty"`
}

// settingsPaths are tried in order; the site-level document wins over the
// defaults shipped inside the admin bundle.
var settingsPaths = []string{
	"config/appSettings.json",
	"cms-core/config/appSettings.json",
}

// LoadSettings reads the site settings from the repository, falling back
// through the known locations. Returns ErrNoSettings when no document
// exists, so the caller can route the operator to initial setup.
func LoadSettings(ctx context.Context, backend store.Backend) (Settings, error) {
	for _, path := range settingsPaths {
		raw, err := backend.ReadFile(ctx, path)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return Settings{}, err
		}
		var settings Settings
		if err := json.Unmarshal(raw, &settings); err != nil {
			return Settings{}, fmt.Errorf("content: decode %s: %w", path, err)
		}
		settings.ApplyDefaults()
		return settings, nil
	}
	return Settings{}, ErrNoSettings
}

// ApplyDefaults fills the zero-value fields a site can omit.
func (s *Settings) ApplyDefaults() {
	if s.SiteName == "" {
		s.SiteName = "Site"
	}
	if len(s.Languages) == 0 {
		s.Languages = []string{""}
	}
	if s.DefaultLanguage == "" {
		s.DefaultLanguage = s.Languages[0]
	}
	if s.Direction == "" {
		s.Direction = "ltr"
	}
}

// Artifact encodes the settings as the repository document LoadSettings
// reads back first. The settings editor commits it through the same
// publish path content uses.
func (s Settings) Artifact() (store.FileArtifact, error) {
	encoded, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return store.FileArtifact{}, fmt.Errorf("content: encode settings: %w", err)
	}
	return store.FileArtifact{
		Path:     settingsPaths[0],
		Content:  string(encoded),
		Encoding: store.EncodingUTF8,
	}, nil
}

// IsDefaultLanguage reports whether language renders at the site root
// rather than under a language prefix.
func (s Settings) IsDefaultLanguage(language string) bool {
	return language == "" || language == s.DefaultLanguage
}

// LinksPrefix returns the path prefix pages of the given language live
// under: empty for the default language, "<lang>/" otherwise.
func (s Settings) LinksPrefix(language string) string {
	if s.IsDefaultLanguage(language) {
		return ""
	}
	return language + "/"
}
