package content

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gitpress-io/gitpress/store"
)

func postsType() ContentType {
	return ContentType{
		Name:        "posts",
		Label:       "Post",
		LabelPlural: "Posts",
		URLPrefix:   "posts/",
		Fields: []Field{
			{Name: "id", Label: "Id", Type: FieldText},
			{Name: "title", Label: "Title", Type: FieldText, Required: true},
			{Name: "date", Label: "Date", Type: FieldDate},
			{Name: "content", Label: "Content", Type: FieldWysiwyg},
			{Name: "image", Label: "Image", Type: FieldImage},
		},
	}
}

// memBackend serves files from a map.
type memBackend map[string]string

func (m memBackend) ReadFile(ctx context.Context, path string) ([]byte, error) {
	path = store.NormalizePath(path)
	content, ok := m[path]
	if !ok {
		return nil, &store.APIError{Op: "readFile", Path: path, Status: 404, Err: store.ErrNotFound}
	}
	return []byte(content), nil
}
func (m memBackend) Publish(ctx context.Context, message string, artifacts []store.FileArtifact) (store.CommitResult, error) {
	for _, a := range artifacts {
		m[store.NormalizePath(a.Path)] = a.Content
	}
	return store.CommitResult{CommitSHA: "mem", RefSHA: "mem"}, nil
}
func (m memBackend) Ping(ctx context.Context) error { return nil }

func TestNewItemAppliesDefaults(t *testing.T) {
	typeData := postsType()
	typeData.Fields[2].DefaultValue = "2026-01-01"
	item := NewItem(typeData, "hello")
	if item.Type != "posts" || item.ID != "hello" {
		t.Fatalf("item = %+v", item)
	}
	if item.Fields["date"] != "2026-01-01" {
		t.Fatalf("default not applied: %q", item.Fields["date"])
	}
}

func TestItemPaths(t *testing.T) {
	item := NewItem(postsType(), "hello")
	if got := item.URL(postsType()); got != "posts/hello" {
		t.Fatalf("URL = %q", got)
	}
	if got := item.DocumentPath(postsType()); got != "posts/hello/index.json" {
		t.Fatalf("DocumentPath = %q", got)
	}
}

func TestValueTranslationFallback(t *testing.T) {
	typeData := postsType()
	item := NewItem(typeData, "hello")
	item.Fields["content"] = "<p>default</p>"
	item.Set("content", "<p>übersetzt</p>", "de")

	contentField, _ := typeData.Field("content")
	if got := item.Value(contentField, "de"); got != "<p>übersetzt</p>" {
		t.Fatalf("de value = %q", got)
	}
	if got := item.Value(contentField, "fr"); got != "" {
		t.Fatalf("untranslated language value = %q, want empty", got)
	}
	if got := item.Value(contentField, ""); got != "<p>default</p>" {
		t.Fatalf("default value = %q", got)
	}

	// Binary fields never come from translations.
	imageField, _ := typeData.Field("image")
	item.Fields["image"] = "posts/hello/cover.jpg"
	if got := item.Value(imageField, "de"); got != "posts/hello/cover.jpg" {
		t.Fatalf("binary field value = %q", got)
	}
}

func TestSetRoutesTitle(t *testing.T) {
	item := NewItem(postsType(), "hello")
	item.Set("title", "Hello", "")
	item.Set("title", "Hallo", "de")
	if item.Title != "Hello" {
		t.Fatalf("Title = %q", item.Title)
	}
	if got := item.TitleIn("de"); got != "Hallo" {
		t.Fatalf("TitleIn(de) = %q", got)
	}
	if got := item.TitleIn("fr"); got != "" {
		t.Fatalf("TitleIn(fr) = %q, want empty", got)
	}
}

func TestValidate(t *testing.T) {
	item := NewItem(postsType(), "")
	errs := item.Validate(true, nil)
	if errs["id"] == "" || errs["title"] == "" {
		t.Fatalf("errs = %v, want id and title errors", errs)
	}

	item.ID = "has space"
	item.Title = "T"
	if errs := item.Validate(true, nil); errs["id"] == "" {
		t.Fatalf("errs = %v, want id error for space", errs)
	}

	item.ID = "hello"
	if errs := item.Validate(true, []string{"hello"}); errs["id"] == "" {
		t.Fatalf("errs = %v, want duplicate id error", errs)
	}
	// Existing item keeps its id; collision check only applies to new ones.
	if errs := item.Validate(false, []string{"hello"}); len(errs) != 0 {
		t.Fatalf("errs = %v, want none", errs)
	}
}

func TestMarshalFlattensFields(t *testing.T) {
	item := NewItem(postsType(), "hello")
	item.Title = "Hello"
	item.Fields["content"] = "<p>hi</p>"
	item.SEO["description"] = "greeting"
	item.Set("title", "Hallo", "de")
	item.Attachments["image"] = "bm90IHNlcmlhbGl6ZWQ="

	encoded, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(encoded, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc["id"] != "hello" || doc["title"] != "Hello" || doc["content"] != "<p>hi</p>" {
		t.Fatalf("doc = %v", doc)
	}
	if _, ok := doc["seo"].(map[string]any); !ok {
		t.Fatalf("seo missing: %v", doc)
	}
	if _, ok := doc["de"].(map[string]any); !ok {
		t.Fatalf("translation missing: %v", doc)
	}
	// Pending uploads are publish inputs, not document content.
	for key := range doc {
		if key == "attachments" || key == "Attachments" {
			t.Fatalf("attachments leaked into document")
		}
	}
}

func TestUnmarshalRoundTrip(t *testing.T) {
	original := NewItem(postsType(), "hello")
	original.Title = "Hello"
	original.Fields["date"] = "2026-08-31"
	original.Fields["content"] = "<p>hi</p>"
	original.Set("title", "Hallo", "de")
	original.SEO["description"] = "greeting"

	encoded, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded ContentItem
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ID != "hello" || decoded.Title != "Hello" {
		t.Fatalf("decoded = %+v", decoded)
	}
	if decoded.Fields["content"] != "<p>hi</p>" {
		t.Fatalf("fields = %v", decoded.Fields)
	}
	if decoded.Translations["de"]["title"] != "Hallo" {
		t.Fatalf("translations = %v", decoded.Translations)
	}
	if decoded.SEO["description"] != "greeting" {
		t.Fatalf("seo = %v", decoded.SEO)
	}
}

func TestUnmarshalToleratesNonStringScalars(t *testing.T) {
	var item ContentItem
	err := json.Unmarshal([]byte(`{"id":"x","type":"posts","title":"X","order":3}`), &item)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if item.Fields["order"] != "3" {
		t.Fatalf("order = %q", item.Fields["order"])
	}
}

func TestLoadItem(t *testing.T) {
	backend := memBackend{
		"posts/hello/index.json": `{"id":"hello","type":"posts","title":"Hello","content":"<p>hi</p>"}`,
	}
	item, err := LoadItem(context.Background(), backend, postsType(), "hello")
	if err != nil {
		t.Fatalf("LoadItem: %v", err)
	}
	if item.Title != "Hello" || item.Fields["content"] != "<p>hi</p>" {
		t.Fatalf("item = %+v", item)
	}
}

func TestLoadItemMissing(t *testing.T) {
	_, err := LoadItem(context.Background(), memBackend{}, postsType(), "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
