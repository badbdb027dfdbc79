package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gitpress-io/gitpress/store"
)

// ContentItem is one editable piece of content. Field values live in Fields
// keyed by field name; per-language overrides live in Translations keyed by
// language code; SEO carries the metadata tab. Attachments holds pending
// base64 uploads keyed by field name, queued until the next publish — they
// are never serialized into the item document.
type ContentItem struct {
	ID           string
	Type         string
	Title        string
	Fields       map[string]string
	Translations map[string]map[string]string
	SEO          map[string]string
	Attachments  map[string]string
}

// NewItem creates an item of the given type with schema defaults applied.
func NewItem(typeData ContentType, id string) *ContentItem {
	item := &ContentItem{
		ID:           id,
		Type:         typeData.Name,
		Fields:       make(map[string]string, len(typeData.Fields)),
		Translations: make(map[string]map[string]string),
		SEO:          make(map[string]string),
		Attachments:  make(map[string]string),
	}
	for _, f := range typeData.Fields {
		item.Fields[f.Name] = f.DefaultValue
	}
	return item
}

// URL returns the item's repo-relative location under its type's URL
// prefix, without a leading slash: "<urlPrefix><id>".
func (i *ContentItem) URL(typeData ContentType) string {
	return store.NormalizePath(typeData.URLPrefix + i.ID)
}

// DocumentPath returns the path of the item's canonical JSON document.
func (i *ContentItem) DocumentPath(typeData ContentType) string {
	return i.URL(typeData) + "/index.json"
}

// Value returns the field's value for a language. A missing translation
// reads as empty, never as the default-language value; a blank input is how
// the translate tab shows what still needs translating. Non-translatable
// fields always read from Fields.
func (i *ContentItem) Value(f Field, language string) string {
	if language != "" && f.Translatable() {
		if tr, ok := i.Translations[language]; ok {
			if v, ok := tr[f.Name]; ok && v != "" {
				return v
			}
		}
		return ""
	}
	return i.Fields[f.Name]
}

// TitleIn returns the item title for a language, empty when untranslated.
func (i *ContentItem) TitleIn(language string) string {
	if language == "" {
		return i.Title
	}
	if tr, ok := i.Translations[language]; ok {
		return tr["title"]
	}
	return ""
}

// Set stores a field value, routed to the translation map when a language
// is given.
func (i *ContentItem) Set(field, value, language string) {
	if field == "title" && language == "" {
		i.Title = value
		return
	}
	if language == "" {
		if i.Fields == nil {
			i.Fields = make(map[string]string)
		}
		i.Fields[field] = value
		return
	}
	if i.Translations == nil {
		i.Translations = make(map[string]map[string]string)
	}
	if i.Translations[language] == nil {
		i.Translations[language] = make(map[string]string)
	}
	i.Translations[language][field] = value
}

// Validate checks the item is publishable. existingIDs guards a new item
// against shadowing an already-published id.
func (i *ContentItem) Validate(isNew bool, existingIDs []string) map[string]string {
	errs := make(map[string]string)
	if i.ID == "" || i.ID == "new" {
		errs["id"] = "Id is required"
	}
	if strings.ContainsAny(i.ID, "/\\ ") {
		errs["id"] = "Id must not contain slashes or spaces"
	}
	if isNew {
		for _, existing := range existingIDs {
			if existing == i.ID {
				errs["id"] = "This Id already exists"
				break
			}
		}
	}
	if i.Title == "" {
		errs["title"] = "Title is required"
	}
	return errs
}

// MarshalJSON flattens field values to top-level keys so the stored
// document matches the published file layout: {"id":..,"type":..,
// "title":..,"seo":{..},"<lang>":{..},"<field>":"value",...}.
func (i *ContentItem) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(i.Fields)+4)
	for name, value := range i.Fields {
		doc[name] = value
	}
	doc["id"] = i.ID
	doc["type"] = i.Type
	doc["title"] = i.Title
	if len(i.SEO) > 0 {
		doc["seo"] = i.SEO
	}
	for language, values := range i.Translations {
		if len(values) > 0 {
			doc[language] = values
		}
	}
	return json.Marshal(doc)
}

// UnmarshalJSON is the inverse of MarshalJSON: fixed keys fill the struct,
// any other object value is a translation map, any other scalar is a field.
func (i *ContentItem) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	i.Fields = make(map[string]string)
	i.Translations = make(map[string]map[string]string)
	i.SEO = make(map[string]string)
	i.Attachments = make(map[string]string)

	for key, raw := range doc {
		switch key {
		case "id":
			if err := json.Unmarshal(raw, &i.ID); err != nil {
				return fmt.Errorf("content: item id: %w", err)
			}
		case "type":
			if err := json.Unmarshal(raw, &i.Type); err != nil {
				return fmt.Errorf("content: item type: %w", err)
			}
		case "title":
			if err := json.Unmarshal(raw, &i.Title); err != nil {
				return fmt.Errorf("content: item title: %w", err)
			}
		case "seo":
			if err := json.Unmarshal(raw, &i.SEO); err != nil {
				return fmt.Errorf("content: item seo: %w", err)
			}
		default:
			var asMap map[string]string
			if err := json.Unmarshal(raw, &asMap); err == nil {
				i.Translations[key] = asMap
				continue
			}
			var asString string
			if err := json.Unmarshal(raw, &asString); err == nil {
				i.Fields[key] = asString
				continue
			}
			// Tolerate non-string scalars from hand-edited documents.
			var asAny any
			if err := json.Unmarshal(raw, &asAny); err == nil && asAny != nil {
				i.Fields[key] = fmt.Sprint(asAny)
			}
		}
	}
	return nil
}

// LoadItem fetches an item's canonical document from the backend. A missing
// document surfaces as store.ErrNotFound for callers that treat new items
// as empty.
func LoadItem(ctx context.Context, backend store.Backend, typeData ContentType, id string) (*ContentItem, error) {
	item := NewItem(typeData, id)
	raw, err := backend.ReadFile(ctx, item.DocumentPath(typeData))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, item); err != nil {
		return nil, fmt.Errorf("content: decode item %s/%s: %w", typeData.Name, id, err)
	}
	item.ID = id
	item.Type = typeData.Name
	return item, nil
}

// ErrNoSettings is returned when no settings document exists anywhere on
// the fallback path.
var ErrNoSettings = errors.New("content: site settings not found")
