package gitpress

import (
	"net/url"
	"testing"

	"github.com/gitpress-io/gitpress/content"
)

func siteTypes() content.Types {
	return content.Types{
		{Name: "page", Label: "Page", LabelPlural: "Pages", Fixed: true,
			Fields: []content.Field{{Name: "title", Type: content.FieldText}}},
		{Name: "posts", Label: "Post", LabelPlural: "Posts", URLPrefix: "posts/",
			Fields: []content.Field{{Name: "title", Type: content.FieldText}}},
	}
}

func TestSettingsFromValues(t *testing.T) {
	form := url.Values{
		"siteName":        {"My Site"},
		"siteURL":         {"https://example.com"},
		"languages":       {"en, de, , "},
		"defaultLanguage": {"en"},
		"direction":       {"ltr"},
		"feedType":        {"posts"},
	}
	settings, fieldErrors := settingsFromValues(form, siteTypes())
	if len(fieldErrors) != 0 {
		t.Fatalf("fieldErrors = %v", fieldErrors)
	}
	// Blank entries in the language list are dropped, not kept as "".
	if len(settings.Languages) != 2 || settings.Languages[0] != "en" || settings.Languages[1] != "de" {
		t.Fatalf("Languages = %v", settings.Languages)
	}
	if settings.FeedType != "posts" || settings.Direction != "ltr" {
		t.Fatalf("settings = %+v", settings)
	}
}

func TestSettingsFromValuesValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(url.Values)
		wantKey string
	}{
		{"missing site name", func(f url.Values) { f.Set("siteName", " ") }, "siteName"},
		{"no languages", func(f url.Values) { f.Set("languages", ", ,") }, "languages"},
		{"default not configured", func(f url.Values) { f.Set("defaultLanguage", "fr") }, "defaultLanguage"},
		{"bad direction", func(f url.Values) { f.Set("direction", "up") }, "direction"},
		{"unknown feed type", func(f url.Values) { f.Set("feedType", "podcasts") }, "feedType"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{
				"siteName":  {"My Site"},
				"languages": {"en"},
				"direction": {"ltr"},
			}
			tt.mutate(form)
			_, fieldErrors := settingsFromValues(form, siteTypes())
			if fieldErrors[tt.wantKey] == "" {
				t.Fatalf("fieldErrors = %v, want key %q", fieldErrors, tt.wantKey)
			}
		})
	}
}

func TestTypeFromValues(t *testing.T) {
	form := url.Values{
		"name":        {"events"},
		"label":       {"Event"},
		"labelPlural": {"Events"},
		"urlPrefix":   {"events"},
		"fields":      {`[{"name":"title","label":"Title","type":"textfield","required":true},{"name":"date","type":"date"}]`},
	}
	typeData, fieldErrors := typeFromValues(form, content.ContentType{}, true)
	if len(fieldErrors) != 0 {
		t.Fatalf("fieldErrors = %v", fieldErrors)
	}
	if typeData.Name != "events" || len(typeData.Fields) != 2 {
		t.Fatalf("typeData = %+v", typeData)
	}
	if typeData.URLPrefix != "events/" {
		t.Fatalf("URLPrefix = %q, want trailing slash", typeData.URLPrefix)
	}
}

func TestTypeFromValuesKeepsIdentityOnEdit(t *testing.T) {
	existing := content.ContentType{Name: "page", Label: "Page", Fixed: true}
	form := url.Values{
		"name":   {"renamed"},
		"label":  {"Page"},
		"fields": {`[{"name":"title","type":"textfield"}]`},
	}
	typeData, fieldErrors := typeFromValues(form, existing, false)
	if len(fieldErrors) != 0 {
		t.Fatalf("fieldErrors = %v", fieldErrors)
	}
	// Name and the built-in flag come from the stored type, not the form.
	if typeData.Name != "page" || !typeData.Fixed {
		t.Fatalf("typeData = %+v", typeData)
	}
}

func TestTypeFromValuesRejectsBadFields(t *testing.T) {
	form := url.Values{
		"name":   {"events"},
		"label":  {"Event"},
		"fields": {`not json`},
	}
	_, fieldErrors := typeFromValues(form, content.ContentType{}, true)
	if fieldErrors["fields"] == "" {
		t.Fatalf("fieldErrors = %v, want fields error", fieldErrors)
	}
}

func TestUpsertType(t *testing.T) {
	types := siteTypes()

	replaced := upsertType(types, content.ContentType{Name: "posts", Label: "Article"})
	if len(replaced) != 2 {
		t.Fatalf("len = %d after replace", len(replaced))
	}
	if got, _ := replaced.Get("posts"); got.Label != "Article" {
		t.Fatalf("posts not replaced: %+v", got)
	}
	// The input slice is not mutated.
	if got, _ := types.Get("posts"); got.Label != "Post" {
		t.Fatalf("original mutated: %+v", got)
	}

	appended := upsertType(types, content.ContentType{Name: "events", Label: "Event"})
	if len(appended) != 3 {
		t.Fatalf("len = %d after append", len(appended))
	}
}

func TestMenusFromValues(t *testing.T) {
	form := url.Values{
		"label-en": {"Home", "", "More"},
		"url-en":   {"/", "", "more"},
		"sub-en":   {"", "", `[{"label":"About","url":"about"}]`},
		"label-de": {"Start"},
		"url-de":   {"/"},
	}
	menus := menusFromValues(form, []string{"en", "de"})

	if len(menus["en"]) != 2 {
		t.Fatalf("en = %+v, want blank row dropped", menus["en"])
	}
	if menus["en"][0].Label != "Home" || menus["en"][0].URL != "/" {
		t.Fatalf("en[0] = %+v", menus["en"][0])
	}
	// Dropdown children survive a round trip through the form.
	if len(menus["en"][1].SubItems) != 1 || menus["en"][1].SubItems[0].Label != "About" {
		t.Fatalf("en[1] = %+v", menus["en"][1])
	}
	if len(menus["de"]) != 1 || menus["de"][0].Label != "Start" {
		t.Fatalf("de = %+v", menus["de"])
	}
}
