package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/gitpress-io/gitpress/store"
)

// MenuItem is one entry of a site menu document.
type MenuItem struct {
	Label    string     `json:"label"`
	URL      string     `json:"url"`
	SubItems []MenuItem `json:"subItems,omitempty"`
}

// menuPaths are tried in order when loading the main menu document, which
// maps language codes to menu item lists.
var menuPaths = []string{
	"admin/menus/main.json",
	"cms-core/admin/menus/main.json",
}

// LoadMenus reads the main menu document, which maps language codes to
// menu item lists. A site without one renders pages with no navigation.
func LoadMenus(ctx context.Context, backend store.Backend) (map[string][]MenuItem, error) {
	for _, path := range menuPaths {
		raw, err := backend.ReadFile(ctx, path)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var menus map[string][]MenuItem
		if err := json.Unmarshal(raw, &menus); err != nil {
			return nil, fmt.Errorf("render: decode %s: %w", path, err)
		}
		return menus, nil
	}
	return map[string][]MenuItem{}, nil
}

// MenusArtifact encodes the menu document for the path LoadMenus reads
// back first.
func MenusArtifact(menus map[string][]MenuItem) (store.FileArtifact, error) {
	encoded, err := json.MarshalIndent(menus, "", "    ")
	if err != nil {
		return store.FileArtifact{}, fmt.Errorf("render: encode menus: %w", err)
	}
	return store.FileArtifact{
		Path:     menuPaths[0],
		Content:  string(encoded),
		Encoding: store.EncodingUTF8,
	}, nil
}

// MenuHTML renders a menu item list as a nav list. Items with sub-items
// become dropdowns.
func MenuHTML(items []MenuItem) template.HTML {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<ul class="navbar-nav">`)
	for _, item := range items {
		if len(item.SubItems) > 0 {
			b.WriteString(`<li class="nav-item dropdown"><a>` + html.EscapeString(item.Label) + `</a><div class="dropdown-menu">`)
			for _, sub := range item.SubItems {
				fmt.Fprintf(&b, `<a class="dropdown-item" href="/%s">%s</a>`,
					html.EscapeString(store.NormalizePath(sub.URL)), html.EscapeString(sub.Label))
			}
			b.WriteString(`</div></li>`)
			continue
		}
		fmt.Fprintf(&b, `<li><a href="/%s">%s</a></li>`,
			html.EscapeString(store.NormalizePath(item.URL)), html.EscapeString(item.Label))
	}
	b.WriteString(`</ul>`)
	return template.HTML(b.String())
}
