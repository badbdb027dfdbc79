package gitpress

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/gitpress-io/gitpress/content"
	"github.com/gitpress-io/gitpress/publish"
	"github.com/gitpress-io/gitpress/render"
	"github.com/gitpress-io/gitpress/store"
)

// Edit form tabs. Any other op value is treated as a language code for the
// translate tab.
const (
	opEdit = "edit"
	opSEO  = "seo"
)

func (a *App) contentType(c echo.Context) (content.ContentType, error) {
	name := c.Param("type")
	typeData, ok := a.Types.Get(name)
	if !ok {
		return content.ContentType{}, echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown content type %q", name))
	}
	return typeData, nil
}

func (a *App) handleContentList(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	typeData, err := a.contentType(c)
	if err != nil {
		return err
	}
	records, err := a.Cache.List(c.Request().Context(), typeData.Name)
	if err != nil {
		return err
	}
	publish.SortByID(records)
	drafts, err := a.Drafts.List(typeData.Name)
	if err != nil {
		return err
	}
	draftIDs := make([]string, 0, len(drafts))
	for _, d := range drafts {
		draftIDs = append(draftIDs, d.ID)
	}
	return Render(c, a.Views.ContentList(typeData, records, draftIDs, c.QueryParam("msg"), CsrfToken(c)))
}

func (a *App) handleItemNew(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	typeData, err := a.contentType(c)
	if err != nil {
		return err
	}
	item := content.NewItem(typeData, "")
	return Render(c, a.Views.ItemForm(typeData, item, opEdit, true, a.translationLangs(), nil, CsrfToken(c)))
}

func (a *App) handleItemForm(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	typeData, err := a.contentType(c)
	if err != nil {
		return err
	}
	item, isNew, err := a.loadItemForEdit(c.Request().Context(), typeData, c.Param("id"))
	if err != nil {
		return err
	}
	op := c.QueryParam("op")
	if op == "" {
		op = opEdit
	}
	return Render(c, a.Views.ItemForm(typeData, item, op, isNew, a.translationLangs(), nil, CsrfToken(c)))
}

// loadItemForEdit resolves the editing copy of an item: an unsaved draft
// wins over the published document; a missing document means a new item.
func (a *App) loadItemForEdit(ctx context.Context, typeData content.ContentType, id string) (*content.ContentItem, bool, error) {
	if draft, err := a.Drafts.Get(typeData.Name, id); err == nil {
		return draft.Item, false, nil
	} else if err != ErrNoDraft {
		return nil, false, err
	}
	item, err := content.LoadItem(ctx, a.Backend, typeData, id)
	if errors.Is(err, store.ErrNotFound) {
		return content.NewItem(typeData, id), true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return item, false, nil
}

// applyForm merges the posted values of the active tab into the item.
func applyForm(c echo.Context, item *content.ContentItem, typeData content.ContentType, op string, isNew bool) {
	switch op {
	case opEdit:
		if isNew {
			if id := c.FormValue("id"); id != "" {
				item.ID = id
			}
		}
		item.Title = c.FormValue("title")
		for _, f := range typeData.Fields {
			if f.Binary() || f.Name == "id" || f.Name == "title" {
				continue
			}
			item.Set(f.Name, c.FormValue(f.Name), "")
		}
	case opSEO:
		for _, f := range content.SEOFields {
			item.SEO[f.Name] = c.FormValue(f.Name)
		}
	default: // language tab
		item.Set("title", c.FormValue("title"), op)
		for _, f := range typeData.Fields {
			if !f.Translatable() || f.Name == "id" || f.Name == "title" {
				continue
			}
			item.Set(f.Name, c.FormValue(f.Name), op)
		}
	}
}

func (a *App) handleDraftSave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	typeData, err := a.contentType(c)
	if err != nil {
		return err
	}
	item, isNew, err := a.loadItemForEdit(c.Request().Context(), typeData, c.Param("id"))
	if err != nil {
		return err
	}
	op := formOp(c)
	applyForm(c, item, typeData, op, isNew)
	if item.ID == "" {
		item.ID = Slugify(item.Title)
	}
	if err := a.Drafts.Save(item); err != nil {
		if err == ErrDraftPublishing {
			return c.String(http.StatusConflict, "A publish for this item is in progress.")
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, itemFormURL(typeData.Name, item.ID, op))
}

func (a *App) handleDraftDiscard(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	typeData, err := a.contentType(c)
	if err != nil {
		return err
	}
	if err := a.Drafts.Discard(typeData.Name, c.Param("id")); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, contentListURL(typeData.Name, "discarded"))
}

func (a *App) handleItemSave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	typeData, err := a.contentType(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	item, isNew, err := a.loadItemForEdit(ctx, typeData, c.Param("id"))
	if err != nil {
		return err
	}
	op := formOp(c)
	applyForm(c, item, typeData, op, isNew)
	if item.ID == "" {
		item.ID = Slugify(item.Title)
	}

	existingIDs, err := a.Cache.IDs(ctx, typeData.Name)
	if err != nil {
		return err
	}
	if fieldErrors := item.Validate(isNew, existingIDs); len(fieldErrors) > 0 {
		return Render(c, a.Views.ItemForm(typeData, item, op, isNew, a.translationLangs(), fieldErrors, CsrfToken(c)))
	}

	// The draft snapshot is what gets published; saving it first means a
	// failed publish still has the latest edits on disk.
	if err := a.Drafts.Save(item); err != nil {
		if err == ErrDraftPublishing {
			return c.String(http.StatusConflict, "A publish for this item is in progress.")
		}
		return err
	}
	draft, err := a.Drafts.BeginPublish(typeData.Name, item.ID)
	if err != nil {
		return err
	}

	message := fmt.Sprintf("Save %s: %s", typeData.Name, item.ID)
	if _, err := a.publishItem(ctx, draft.Item, typeData, false, message); err != nil {
		if abortErr := a.Drafts.AbortPublish(typeData.Name, item.ID); abortErr != nil {
			c.Logger().Errorf("abort publish: %v", abortErr)
		}
		return Render(c, a.Views.ItemForm(typeData, draft.Item, op, isNew, a.translationLangs(), publishError(err), CsrfToken(c)))
	}

	if err := a.Drafts.FinishPublish(typeData.Name, item.ID); err != nil {
		return err
	}
	a.Cache.Invalidate(typeData.Name)
	return c.Redirect(http.StatusSeeOther, contentListURL(typeData.Name, "saved"))
}

func (a *App) handleItemDeleteConfirm(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	typeData, err := a.contentType(c)
	if err != nil {
		return err
	}
	item, _, err := a.loadItemForEdit(c.Request().Context(), typeData, c.Param("id"))
	if err != nil {
		return err
	}
	return Render(c, a.Views.DeleteConfirm(typeData, item, CsrfToken(c)))
}

func (a *App) handleItemDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	typeData, err := a.contentType(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	id := c.Param("id")

	item, _, err := a.loadItemForEdit(ctx, typeData, id)
	if err != nil {
		return err
	}

	// The same Publishing gate saves use: an edit from another tab while
	// the delete is in flight is rejected rather than dropped by the
	// unconditional FinishPublish below.
	hadDraft, err := a.Drafts.BeginDelete(typeData.Name, id)
	if err != nil {
		if err == ErrDraftPublishing {
			return c.String(http.StatusConflict, "A publish for this item is in progress.")
		}
		return err
	}

	message := fmt.Sprintf("Delete %s: %s", typeData.Name, id)
	if _, err := a.publishItem(ctx, item, typeData, true, message); err != nil {
		if abortErr := a.Drafts.AbortDelete(typeData.Name, id, hadDraft); abortErr != nil {
			c.Logger().Errorf("abort delete: %v", abortErr)
		}
		return err
	}
	if err := a.Drafts.FinishPublish(typeData.Name, id); err != nil {
		return err
	}
	a.Cache.Invalidate(typeData.Name)
	return c.Redirect(http.StatusSeeOther, contentListURL(typeData.Name, "deleted"))
}

// publishItem assembles one item's publish batch — its rendered artifacts
// plus the merged search index — and commits it as one atomic unit. The
// index travels in the same batch as the content it describes; committing
// either alone would let readers observe an inconsistent site.
func (a *App) publishItem(ctx context.Context, item *content.ContentItem, typeData content.ContentType, remove bool, message string) (store.CommitResult, error) {
	var artifacts []store.FileArtifact
	var err error
	if remove {
		artifacts, err = a.Renderer.TombstoneFiles(ctx, item, typeData)
	} else {
		artifacts, err = a.Renderer.ItemFiles(ctx, item, typeData)
	}
	if err != nil {
		return store.CommitResult{}, err
	}

	records, err := publish.LoadIndex(ctx, a.Backend, typeData.Name)
	if err != nil {
		return store.CommitResult{}, err
	}
	records = publish.Merge(records, render.IndexRecord(item, typeData), remove)
	indexArtifact, err := publish.IndexArtifact(typeData.Name, records)
	if err != nil {
		return store.CommitResult{}, err
	}
	artifacts = append(artifacts, indexArtifact)

	return a.Backend.Publish(ctx, message, artifacts)
}

func (a *App) handleRebuildForm(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return Render(c, a.Views.Rebuild(a.Types, CsrfToken(c)))
}

// handleRebuild re-renders every indexed item of the selected types into
// one single commit. Any item failure aborts the whole batch: rebuild
// granularity is traded for commit atomicity.
func (a *App) handleRebuild(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	selected := c.Request().Form["types"]
	withFeeds := c.FormValue("feeds") != ""
	if len(selected) == 0 && !withFeeds {
		return c.Redirect(http.StatusSeeOther, "/admin/rebuild/")
	}
	ctx := c.Request().Context()

	var artifacts []store.FileArtifact
	for _, name := range selected {
		typeData, ok := a.Types.Get(name)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown content type %q", name))
		}
		records, err := publish.LoadIndex(ctx, a.Backend, name)
		if err != nil {
			return err
		}
		for _, record := range records {
			item, err := content.LoadItem(ctx, a.Backend, typeData, record.ID())
			if err != nil {
				return fmt.Errorf("gitpress: rebuild %s/%s: %w", name, record.ID(), err)
			}
			files, err := a.Renderer.ItemFiles(ctx, item, typeData)
			if err != nil {
				return fmt.Errorf("gitpress: rebuild %s/%s: %w", name, record.ID(), err)
			}
			artifacts = append(artifacts, files...)
		}
		// The index itself is unchanged by a rebuild but travels with the
		// pages it describes.
		indexArtifact, err := publish.IndexArtifact(name, records)
		if err != nil {
			return err
		}
		artifacts = append(artifacts, indexArtifact)
	}

	if withFeeds {
		feedArtifacts, err := a.feedArtifacts(ctx)
		if err != nil {
			return err
		}
		artifacts = append(artifacts, feedArtifacts...)
	}

	if _, err := a.Backend.Publish(ctx, "Rebuild content", artifacts); err != nil {
		return err
	}
	a.Cache.InvalidateAll()
	return c.Redirect(http.StatusSeeOther, "/admin/?msg=rebuilt")
}

// translationLangs returns the languages that get a translate tab, i.e.
// every configured language except the default one.
func (a *App) translationLangs() []string {
	var langs []string
	for _, lang := range a.Settings.Languages {
		if !a.Settings.IsDefaultLanguage(lang) {
			langs = append(langs, lang)
		}
	}
	return langs
}

func formOp(c echo.Context) string {
	if op := c.FormValue("op"); op != "" {
		return op
	}
	return opEdit
}

func contentListURL(contentType, msg string) string {
	return "/admin/content/" + url.PathEscape(contentType) + "/?msg=" + url.QueryEscape(msg)
}

func itemFormURL(contentType, id, op string) string {
	u := "/admin/content/" + url.PathEscape(contentType) + "/" + url.PathEscape(id) + "/"
	if op != opEdit {
		u += "?op=" + url.QueryEscape(op)
	}
	return u
}

// publishError renders a publish failure as a form-level message the
// operator can act on. Conflicts get a specific hint: the edits are still
// in the draft, reload and resubmit.
func publishError(err error) map[string]string {
	if store.IsConflict(err) {
		return map[string]string{"publish": "The repository changed while you were editing. Your edits are kept as a draft; review the current content and save again."}
	}
	if errors.Is(err, store.ErrUnauthorized) {
		return map[string]string{"publish": "The hosting credential was rejected. Update the token and retry."}
	}
	if errors.Is(err, store.ErrPayloadTooLarge) {
		return map[string]string{"publish": "An uploaded file is too large for the hosting API."}
	}
	return map[string]string{"publish": err.Error()}
}
