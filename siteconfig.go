package gitpress

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gitpress-io/gitpress/content"
	"github.com/gitpress-io/gitpress/render"
	"github.com/gitpress-io/gitpress/store"
)

// The admin edits the site's own configuration documents through the same
// commit path content uses: each save is one single-document publish, so
// config changes carry a commit message and the ref-level concurrency
// guarantees like everything else.

func (a *App) handleSettingsForm(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return Render(c, a.Views.Settings(a.Settings, a.Types, nil, c.QueryParam("msg"), CsrfToken(c)))
}

func (a *App) handleSettingsSave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	settings, fieldErrors := settingsFromValues(c.Request().Form, a.Types)
	if len(fieldErrors) > 0 {
		return Render(c, a.Views.Settings(settings, a.Types, fieldErrors, "", CsrfToken(c)))
	}

	artifact, err := settings.Artifact()
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := a.Backend.Publish(ctx, "Update global settings", []store.FileArtifact{artifact}); err != nil {
		return Render(c, a.Views.Settings(settings, a.Types, publishError(err), "", CsrfToken(c)))
	}

	a.Settings = settings
	a.Renderer = render.New(a.Backend, settings)
	return c.Redirect(http.StatusSeeOther, "/admin/settings/?msg=saved")
}

// settingsFromValues builds the settings document from the posted form.
// Defaults are only applied to a valid document, so a missing site name
// surfaces as an error instead of silently becoming "Site".
func settingsFromValues(form url.Values, types content.Types) (content.Settings, map[string]string) {
	settings := content.Settings{
		SiteName:        strings.TrimSpace(form.Get("siteName")),
		SiteURL:         strings.TrimSpace(form.Get("siteURL")),
		Description:     strings.TrimSpace(form.Get("description")),
		Languages:       FilterEmpty(strings.Split(form.Get("languages"), ",")),
		DefaultLanguage: strings.TrimSpace(form.Get("defaultLanguage")),
		Direction:       form.Get("direction"),
		FeedType:        form.Get("feedType"),
	}

	fieldErrors := map[string]string{}
	if settings.SiteName == "" {
		fieldErrors["siteName"] = "Site name is required."
	}
	if len(settings.Languages) == 0 {
		fieldErrors["languages"] = "At least one language is required."
	}
	if settings.DefaultLanguage != "" && !containsString(settings.Languages, settings.DefaultLanguage) {
		fieldErrors["defaultLanguage"] = "The default language must be one of the configured languages."
	}
	if settings.Direction != "" && settings.Direction != "ltr" && settings.Direction != "rtl" {
		fieldErrors["direction"] = "Direction must be ltr or rtl."
	}
	if settings.FeedType != "" {
		if _, ok := types.Get(settings.FeedType); !ok {
			fieldErrors["feedType"] = fmt.Sprintf("Unknown content type %q.", settings.FeedType)
		}
	}
	if len(fieldErrors) == 0 {
		settings.ApplyDefaults()
	}
	return settings, fieldErrors
}

func containsString(vals []string, want string) bool {
	for _, v := range vals {
		if v == want {
			return true
		}
	}
	return false
}

func (a *App) handleTypeList(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return Render(c, a.Views.TypeList(a.Types, c.QueryParam("msg"), CsrfToken(c)))
}

func (a *App) handleTypeForm(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	name := c.Param("name")
	if name == "new" {
		typeData := content.ContentType{
			Fields: []content.Field{{Name: "title", Label: "Title", Type: content.FieldText, Required: true}},
		}
		return Render(c, a.Views.TypeForm(typeData, true, fieldsJSON(typeData.Fields), nil, CsrfToken(c)))
	}
	typeData, ok := a.Types.Get(name)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown content type %q", name))
	}
	return Render(c, a.Views.TypeForm(typeData, false, fieldsJSON(typeData.Fields), nil, CsrfToken(c)))
}

func (a *App) handleTypeSave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	name := c.Param("name")
	isNew := name == "new"
	var existing content.ContentType
	if !isNew {
		var ok bool
		existing, ok = a.Types.Get(name)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown content type %q", name))
		}
	}
	if err := c.Request().ParseForm(); err != nil {
		return err
	}

	typeData, fieldErrors := typeFromValues(c.Request().Form, existing, isNew)
	if isNew {
		if _, exists := a.Types.Get(typeData.Name); exists {
			fieldErrors["name"] = "A content type with this name already exists."
		}
	}
	if len(fieldErrors) > 0 {
		return Render(c, a.Views.TypeForm(typeData, isNew, c.Request().Form.Get("fields"), fieldErrors, CsrfToken(c)))
	}

	updated := upsertType(a.Types, typeData)
	artifact, err := updated.Artifact()
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := a.Backend.Publish(ctx, "Update content types", []store.FileArtifact{artifact}); err != nil {
		return Render(c, a.Views.TypeForm(typeData, isNew, fieldsJSON(typeData.Fields), publishError(err), CsrfToken(c)))
	}

	a.Types = updated
	return c.Redirect(http.StatusSeeOther, "/admin/types/?msg=saved")
}

func (a *App) handleTypeDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	name := c.Param("name")
	if content.IsFixed(name) {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("content type %q is built in and cannot be deleted", name))
	}
	if _, ok := a.Types.Get(name); !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown content type %q", name))
	}

	updated := make(content.Types, 0, len(a.Types)-1)
	for _, t := range a.Types {
		if t.Name != name {
			updated = append(updated, t)
		}
	}
	artifact, err := updated.Artifact()
	if err != nil {
		return err
	}
	if _, err := a.Backend.Publish(c.Request().Context(), "Update content types", []store.FileArtifact{artifact}); err != nil {
		return err
	}

	a.Types = updated
	a.Cache.Invalidate(name)
	return c.Redirect(http.StatusSeeOther, "/admin/types/?msg=deleted")
}

// typeFromValues builds a type definition from the posted form. The field
// list is edited as a JSON document, the way it lives in the repository.
func typeFromValues(form url.Values, existing content.ContentType, isNew bool) (content.ContentType, map[string]string) {
	typeData := content.ContentType{
		Name:        existing.Name,
		Label:       strings.TrimSpace(form.Get("label")),
		LabelPlural: strings.TrimSpace(form.Get("labelPlural")),
		URLPrefix:   strings.TrimSpace(form.Get("urlPrefix")),
		Fixed:       existing.Fixed,
	}
	if isNew {
		typeData.Name = strings.TrimSpace(form.Get("name"))
	}
	if typeData.LabelPlural == "" {
		typeData.LabelPlural = typeData.Label
	}
	if typeData.URLPrefix != "" && !strings.HasSuffix(typeData.URLPrefix, "/") {
		typeData.URLPrefix += "/"
	}

	fieldErrors := map[string]string{}
	if err := json.Unmarshal([]byte(form.Get("fields")), &typeData.Fields); err != nil {
		fieldErrors["fields"] = "Fields must be a JSON list of field definitions."
		return typeData, fieldErrors
	}
	for name, msg := range typeData.Validate() {
		fieldErrors[name] = msg
	}
	return typeData, fieldErrors
}

func fieldsJSON(fields []content.Field) string {
	encoded, err := json.MarshalIndent(fields, "", "    ")
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

func upsertType(types content.Types, typeData content.ContentType) content.Types {
	updated := make(content.Types, len(types))
	copy(updated, types)
	for i, t := range updated {
		if t.Name == typeData.Name {
			updated[i] = typeData
			return updated
		}
	}
	return append(updated, typeData)
}

func (a *App) handleMenuForm(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	menus, err := render.LoadMenus(c.Request().Context(), a.Backend)
	if err != nil {
		return err
	}
	return Render(c, a.Views.MenuEditor(a.Settings.Languages, menus, c.QueryParam("msg"), CsrfToken(c)))
}

func (a *App) handleMenuSave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	menus := menusFromValues(c.Request().Form, a.Settings.Languages)

	artifact, err := render.MenusArtifact(menus)
	if err != nil {
		return err
	}
	if _, err := a.Backend.Publish(c.Request().Context(), "Update menu structure", []store.FileArtifact{artifact}); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/menu/?msg=saved")
}

// menusFromValues collects the per-language label/url row pairs. Rows left
// fully blank are dropped; dropdown children ride along in a hidden JSON
// column so saving the form does not flatten existing dropdowns.
func menusFromValues(form url.Values, languages []string) map[string][]render.MenuItem {
	menus := map[string][]render.MenuItem{}
	for _, lang := range languages {
		labels := form["label-"+lang]
		urls := form["url-"+lang]
		subs := form["sub-"+lang]
		items := []render.MenuItem{}
		for i, label := range labels {
			item := render.MenuItem{Label: strings.TrimSpace(label)}
			if i < len(urls) {
				item.URL = strings.TrimSpace(urls[i])
			}
			if item.Label == "" && item.URL == "" {
				continue
			}
			if i < len(subs) && subs[i] != "" {
				json.Unmarshal([]byte(subs[i]), &item.SubItems)
			}
			items = append(items, item)
		}
		menus[lang] = items
	}
	return menus
}
