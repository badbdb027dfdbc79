// Package content defines the content model: content types with their field
// schemas, content items, and the site settings documents that live inside
// the published repository itself.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gitpress-io/gitpress/store"
)

// Field describes one input in a content type's edit form.
type Field struct {
	Name         string            `json:"name"`
	Label        string            `json:"label"`
	Type         string            `json:"type"`
	I18n         *bool             `json:"i18n,omitempty"`
	Required     bool              `json:"required,omitempty"`
	Placeholder  string            `json:"placeholder,omitempty"`
	DefaultValue string            `json:"defaultValue,omitempty"`
	Values       map[string]string `json:"values,omitempty"`
}

// Field types understood by the form builder and renderer.
const (
	FieldText    = "textfield"
	FieldWysiwyg = "wysiwyg"
	FieldDate    = "date"
	FieldURL     = "url"
	FieldSelect  = "select"
	FieldImage   = "image"
	FieldFile    = "file"
)

// Translatable reports whether the field carries per-language values.
// Binary fields never do; text fields do unless the schema says otherwise.
func (f Field) Translatable() bool {
	if f.Type == FieldImage || f.Type == FieldFile {
		return false
	}
	return f.I18n == nil || *f.I18n
}

// Binary reports whether the field's value is an uploaded file path rather
// than text. Binary fields are excluded from search index records.
func (f Field) Binary() bool {
	return f.Type == FieldImage || f.Type == FieldFile
}

// Textual reports whether the field holds markup that must be stripped
// before indexing.
func (f Field) Textual() bool {
	return f.Type == FieldText || f.Type == FieldWysiwyg
}

// ContentType describes one kind of content item and where it publishes.
type ContentType struct {
	Name        string  `json:"name"`
	Label       string  `json:"label"`
	LabelPlural string  `json:"labelPlural"`
	URLPrefix   string  `json:"urlPrefix"`
	Fixed       bool    `json:"fixed,omitempty"`
	Fields      []Field `json:"fields"`
}

// Field returns the named field's schema, if the type defines it.
func (t ContentType) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// SEOFields are the per-item metadata inputs shown on the SEO tab.
var SEOFields = []Field{
	{Name: "description", Label: "Meta description", Type: FieldText},
	{Name: "keywords", Label: "Keywords", Type: FieldText},
}

// FixedTypes returns the built-in content types that are always available
// and cannot be deleted.
func FixedTypes() []ContentType {
	return []ContentType{
		{
			Name:        "page",
			Label:       "Page",
			LabelPlural: "Pages",
			URLPrefix:   "",
			Fixed:       true,
			Fields: []Field{
				{Name: "title", Label: "Title", Type: FieldText, Required: true},
				{Name: "body", Label: "Body", Type: FieldWysiwyg},
				{Name: "image", Label: "Featured Image", Type: FieldImage},
			},
		},
	}
}

// IsFixed reports whether name is a built-in type.
func IsFixed(name string) bool {
	for _, t := range FixedTypes() {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Types is the resolved content type list for a site: repo-defined types
// merged over the built-ins.
type Types []ContentType

// Get returns the type with the given name.
func (ts Types) Get(name string) (ContentType, bool) {
	for _, t := range ts {
		if t.Name == name {
			return t, true
		}
	}
	return ContentType{}, false
}

// Validate checks a type definition coming from the type editor. Keys of
// the returned map match the editor's form field names.
func (t ContentType) Validate() map[string]string {
	errs := map[string]string{}
	if !validTypeName(t.Name) {
		errs["name"] = "Name must be lowercase letters, digits and dashes."
	}
	if t.Label == "" {
		errs["label"] = "Label is required."
	}
	if len(t.Fields) == 0 {
		errs["fields"] = "At least one field is required."
	}
	seen := map[string]bool{}
	for _, f := range t.Fields {
		switch {
		case f.Name == "":
			errs["fields"] = "Every field needs a name."
		case seen[f.Name]:
			errs["fields"] = fmt.Sprintf("Duplicate field name %q.", f.Name)
		case !validFieldType(f.Type):
			errs["fields"] = fmt.Sprintf("Field %q has unknown type %q.", f.Name, f.Type)
		case f.Type == FieldSelect && len(f.Values) == 0:
			errs["fields"] = fmt.Sprintf("Select field %q needs at least one option.", f.Name)
		}
		seen[f.Name] = true
	}
	return errs
}

func validTypeName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}

func validFieldType(fieldType string) bool {
	switch fieldType {
	case FieldText, FieldWysiwyg, FieldDate, FieldURL, FieldSelect, FieldImage, FieldFile:
		return true
	}
	return false
}

// contentTypePaths are tried in order when loading the type schemas from
// the repository; the site-level document takes precedence over the
// defaults shipped inside the admin bundle.
var contentTypePaths = []string{
	"config/contentTypes.json",
	"cms-core/config/contentTypes.json",
}

// LoadTypes reads the content type schemas from the repository, falling
// back through the known locations, and merges them over the fixed types.
// A repo with no schema document still has the built-ins.
func LoadTypes(ctx context.Context, backend store.Backend) (Types, error) {
	var configured []ContentType
	for _, path := range contentTypePaths {
		raw, err := backend.ReadFile(ctx, path)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &configured); err != nil {
			return nil, fmt.Errorf("content: decode %s: %w", path, err)
		}
		break
	}

	merged := make(Types, 0, len(configured)+1)
	seen := make(map[string]int)
	for _, t := range append(FixedTypes(), configured...) {
		if i, ok := seen[t.Name]; ok {
			merged[i] = t
			continue
		}
		seen[t.Name] = len(merged)
		merged = append(merged, t)
	}
	return merged, nil
}

// Artifact encodes the full type list as the repository document LoadTypes
// reads back first. The built-ins are written out too; on load they merge
// over the fixed defaults by name, so the round trip is stable.
func (ts Types) Artifact() (store.FileArtifact, error) {
	encoded, err := json.MarshalIndent([]ContentType(ts), "", "    ")
	if err != nil {
		return store.FileArtifact{}, fmt.Errorf("content: encode content types: %w", err)
	}
	return store.FileArtifact{
		Path:     contentTypePaths[0],
		Content:  string(encoded),
		Encoding: store.EncodingUTF8,
	}, nil
}
