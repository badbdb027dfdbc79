// Package render converts a content item's structured fields into the file
// artifacts a publish batch carries: the per-language HTML pages, the
// canonical item document, pending attachment uploads, and the item's
// search index record.
//
// Page HTML comes from the site's own base template, a document that lives
// in the published repository and is loaded at render time.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"html/template"

	"github.com/gitpress-io/gitpress/content"
	"github.com/gitpress-io/gitpress/store"
)

// templatePaths are tried in order when loading the site's base template.
var templatePaths = []string{
	"templates/base.html",
	"cms-core/templates/base.html",
}

// Renderer produces publishable artifacts for content items of one site.
type Renderer struct {
	backend  store.Backend
	settings content.Settings
}

// New creates a Renderer reading site resources through backend.
func New(backend store.Backend, settings content.Settings) *Renderer {
	return &Renderer{backend: backend, settings: settings}
}

// pageVars is the data the base template renders against.
type pageVars struct {
	SiteName        string
	PageTitle       string
	PageDescription string
	PageClass       string
	Direction       string
	LinksPrefix     string
	MenuMain        template.HTML
	Content         template.HTML
}

// ItemFiles renders the item's full artifact set: one index.html per
// configured language, the index.json document, and any attachment uploads
// queued on the item. Paths follow the layout convention
// "<urlPrefix><id>/..." with language-prefixed HTML for non-default
// languages.
func (r *Renderer) ItemFiles(ctx context.Context, item *content.ContentItem, typeData content.ContentType) ([]store.FileArtifact, error) {
	pages, err := r.renderPages(ctx, item, typeData, false)
	if err != nil {
		return nil, err
	}

	document, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("render: encode item %s/%s: %w", item.Type, item.ID, err)
	}
	artifacts := append(pages, store.FileArtifact{
		Path:     item.DocumentPath(typeData),
		Content:  string(document),
		Encoding: store.EncodingUTF8,
	})

	for field, data := range item.Attachments {
		path := item.Fields[field]
		if path == "" {
			return nil, fmt.Errorf("render: attachment %q on %s/%s has no target path", field, item.Type, item.ID)
		}
		artifacts = append(artifacts, store.FileArtifact{
			Path:     store.NormalizePath(path),
			Content:  data,
			Encoding: store.EncodingBase64,
		})
	}
	return artifacts, nil
}

// TombstoneFiles renders the artifact set for a deleted item: placeholder
// not-found pages at the item's paths plus an empty index.json. The store
// model only supports upsert-by-path, so a delete is a replace-with-
// placeholder plus the index removal the caller merges in.
func (r *Renderer) TombstoneFiles(ctx context.Context, item *content.ContentItem, typeData content.ContentType) ([]store.FileArtifact, error) {
	pages, err := r.renderPages(ctx, item, typeData, true)
	if err != nil {
		return nil, err
	}
	return append(pages, store.FileArtifact{
		Path:     item.DocumentPath(typeData),
		Content:  "",
		Encoding: store.EncodingUTF8,
	}), nil
}

func (r *Renderer) renderPages(ctx context.Context, item *content.ContentItem, typeData content.ContentType, tombstone bool) ([]store.FileArtifact, error) {
	base, err := r.loadBaseTemplate(ctx)
	if err != nil {
		return nil, err
	}
	menus, err := LoadMenus(ctx, r.backend)
	if err != nil {
		return nil, err
	}

	itemURL := item.URL(typeData)
	artifacts := make([]store.FileArtifact, 0, len(r.settings.Languages)+2)
	for _, language := range r.settings.Languages {
		isDefault := r.settings.IsDefaultLanguage(language)
		lang := language
		if isDefault {
			lang = ""
		}

		vars := pageVars{
			SiteName:        r.settings.SiteName,
			Direction:       r.settings.Direction,
			LinksPrefix:     r.settings.LinksPrefix(language),
			MenuMain:        MenuHTML(menus[language]),
			PageClass:       "itemPage " + item.Type + " " + item.Type + item.ID,
			PageDescription: r.settings.Description,
		}
		if description := item.SEO["description"]; description != "" {
			vars.PageDescription = description
		}
		if tombstone {
			vars.PageTitle = "Page not found"
			vars.PageClass = "itemPage notFound"
		} else {
			vars.PageTitle = item.TitleIn(lang)
			if vars.PageTitle == "" {
				vars.PageTitle = item.Title
			}
			vars.Content = template.HTML(FieldsHTML(item, typeData, lang))
		}

		var buf bytes.Buffer
		if err := base.Execute(&buf, vars); err != nil {
			return nil, fmt.Errorf("render: page %s/%s lang %q: %w", item.Type, item.ID, language, err)
		}
		artifacts = append(artifacts, store.FileArtifact{
			Path:     store.NormalizePath(r.settings.LinksPrefix(language) + itemURL + "/index.html"),
			Content:  buf.String(),
			Encoding: store.EncodingUTF8,
		})
	}
	return artifacts, nil
}

func (r *Renderer) loadBaseTemplate(ctx context.Context) (*template.Template, error) {
	for _, path := range templatePaths {
		raw, err := r.backend.ReadFile(ctx, path)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		parsed, err := template.New("base").Parse(string(raw))
		if err != nil {
			return nil, fmt.Errorf("render: parse %s: %w", path, err)
		}
		return parsed, nil
	}
	return nil, fmt.Errorf("render: base template not found (tried %v)", templatePaths)
}

// FieldsHTML renders the item's fields in schema order as the page body.
// Wysiwyg values are stored as markup and pass through untouched; binary
// fields render as a reference to their uploaded path. Empty values render
// nothing.
func FieldsHTML(item *content.ContentItem, typeData content.ContentType, language string) string {
	var buf bytes.Buffer
	for _, f := range typeData.Fields {
		value := item.Value(f, language)
		if value == "" {
			continue
		}
		var inner string
		switch f.Type {
		case content.FieldImage:
			inner = `<img src="/` + html.EscapeString(store.NormalizePath(value)) + `" alt="" />`
		case content.FieldFile:
			inner = `<a href="/` + html.EscapeString(store.NormalizePath(value)) + `">View file</a>`
		case content.FieldWysiwyg:
			inner = value
		default:
			inner = html.EscapeString(value)
		}
		fmt.Fprintf(&buf, `<div class="field field-%s f-%s">%s</div>`, f.Type, f.Name, inner)
	}
	return buf.String()
}
