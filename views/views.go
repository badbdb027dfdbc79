// Package views provides the built-in admin screens as templ components.
// Embedders can replace any of them through the ViewFuncs struct on the
// root package; these defaults are deliberately plain HTML styled by the
// embedded admin.css.
package views

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/a-h/templ"

	"github.com/gitpress-io/gitpress/content"
	"github.com/gitpress-io/gitpress/markup"
	"github.com/gitpress-io/gitpress/publish"
	"github.com/gitpress-io/gitpress/render"
)

func esc(s string) string {
	return html.EscapeString(s)
}

func component(render func(buf *bytes.Buffer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		render(&buf)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func page(buf *bytes.Buffer, title string, body func(*bytes.Buffer)) {
	buf.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	buf.WriteString("<meta charset=\"utf-8\">\n")
	buf.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	buf.WriteString("<meta name=\"robots\" content=\"noindex\">\n")
	fmt.Fprintf(buf, "<title>%s</title>\n", esc(title))
	buf.WriteString("<link rel=\"stylesheet\" href=\"/public/admin.css\">\n")
	buf.WriteString("</head>\n<body class=\"gp-admin\">\n")
	buf.WriteString("<header class=\"gp-header\"><h1><a href=\"/admin/\">Admin</a></h1>")
	buf.WriteString("<form method=\"post\" action=\"/admin/logout/\"><button class=\"gp-btn secondary\" type=\"submit\">Log out</button></form>")
	buf.WriteString("</header>\n<main class=\"gp-main\">\n")
	body(buf)
	buf.WriteString("</main>\n<script src=\"/public/admin.js\"></script>\n</body>\n</html>\n")
}

func csrfField(buf *bytes.Buffer, csrfToken string) {
	fmt.Fprintf(buf, "<input type=\"hidden\" name=\"_csrf\" value=\"%s\">", esc(csrfToken))
}

func message(buf *bytes.Buffer, msg string) {
	if msg != "" {
		fmt.Fprintf(buf, "<p class=\"gp-message\">%s</p>\n", esc(msg))
	}
}

// Login renders the password prompt.
func Login(showError bool, csrfToken string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		page(buf, "Log in", func(buf *bytes.Buffer) {
			buf.WriteString("<div class=\"gp-card\">\n<h2>Log in</h2>\n")
			if showError {
				buf.WriteString("<p class=\"gp-message gp-error\">Wrong password.</p>\n")
			}
			buf.WriteString("<form class=\"gp-form\" method=\"post\" action=\"/admin/login/\">\n")
			csrfField(buf, csrfToken)
			buf.WriteString("<label for=\"password\">Password</label>")
			buf.WriteString("<input type=\"password\" id=\"password\" name=\"password\" autofocus>\n")
			buf.WriteString("<div class=\"gp-actions\"><button class=\"gp-btn\" type=\"submit\">Log in</button></div>\n")
			buf.WriteString("</form>\n</div>\n")
		})
	})
}

// Dashboard lists the content types plus the rebuild entry point.
func Dashboard(types content.Types, msg string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		page(buf, "Dashboard", func(buf *bytes.Buffer) {
			message(buf, msg)
			buf.WriteString("<div class=\"gp-card\">\n<h2>Content</h2>\n<ul>\n")
			for _, t := range types {
				fmt.Fprintf(buf, "<li><a href=\"/admin/content/%s/\">%s</a></li>\n",
					url.PathEscape(t.Name), esc(t.LabelPlural))
			}
			buf.WriteString("</ul>\n</div>\n")
			buf.WriteString("<div class=\"gp-card\">\n<h2>Site</h2>\n<ul>\n")
			buf.WriteString("<li><a href=\"/admin/settings/\">Site settings</a></li>\n")
			buf.WriteString("<li><a href=\"/admin/types/\">Content types</a></li>\n")
			buf.WriteString("<li><a href=\"/admin/menu/\">Menu</a></li>\n")
			buf.WriteString("</ul>\n</div>\n")
			buf.WriteString("<div class=\"gp-card\">\n<h2>Maintenance</h2>\n")
			buf.WriteString("<p><a href=\"/admin/rebuild/\">Rebuild published pages</a></p>\n</div>\n")
		})
	})
}

// ContentList renders the item table of one content type. Items with a
// pending draft get a badge.
func ContentList(typeData content.ContentType, records []publish.Record, draftIDs []string, msg, csrfToken string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		page(buf, typeData.LabelPlural, func(buf *bytes.Buffer) {
			message(buf, msg)
			fmt.Fprintf(buf, "<div class=\"gp-card\">\n<h2>%s</h2>\n", esc(typeData.LabelPlural))
			fmt.Fprintf(buf, "<p><a class=\"gp-btn\" href=\"/admin/content/%s/new/\">New %s</a></p>\n",
				url.PathEscape(typeData.Name), esc(typeData.Label))

			drafts := make(map[string]bool, len(draftIDs))
			for _, id := range draftIDs {
				drafts[id] = true
			}
			listed := make(map[string]bool, len(records))

			buf.WriteString("<table class=\"gp-list\">\n<tr><th>Title</th><th>Id</th><th>Summary</th><th></th></tr>\n")
			for _, record := range records {
				id := record.ID()
				listed[id] = true
				title, _ := record["title"].(string)
				row(buf, typeData.Name, id, title, recordSummary(record), drafts[id], false)
			}
			// Drafts for items that are not published yet.
			for _, id := range draftIDs {
				if !listed[id] {
					row(buf, typeData.Name, id, id, "", true, true)
				}
			}
			buf.WriteString("</table>\n</div>\n")
		})
	})
}

func row(buf *bytes.Buffer, typeName, id, title, summary string, hasDraft, unpublished bool) {
	itemURL := "/admin/content/" + url.PathEscape(typeName) + "/" + url.PathEscape(id) + "/"
	buf.WriteString("<tr><td>")
	fmt.Fprintf(buf, "<a href=\"%s\">%s</a>", itemURL, esc(title))
	if hasDraft {
		buf.WriteString(" <span class=\"gp-badge\">draft</span>")
	}
	if unpublished {
		buf.WriteString(" <span class=\"gp-badge\">unpublished</span>")
	}
	fmt.Fprintf(buf, "</td><td>%s</td>", esc(id))
	fmt.Fprintf(buf, "<td class=\"gp-summary\">%s</td>", esc(summary))
	fmt.Fprintf(buf, "<td><a href=\"%sdelete/\">Delete</a></td></tr>\n", itemURL)
}

// recordSummary picks the first textual field an index record carries and
// shortens it for the list row.
func recordSummary(record publish.Record) string {
	for _, key := range []string{"description", "content", "body"} {
		if v, _ := record[key].(string); v != "" {
			return markup.Excerpt(v, 80)
		}
	}
	return ""
}

// ItemForm renders the editor for one item: the main field tab, the SEO
// tab, and one tab per non-default language.
func ItemForm(typeData content.ContentType, item *content.ContentItem, op string, isNew bool, langs []string, fieldErrors map[string]string, csrfToken string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		title := item.Title
		if title == "" {
			title = "New " + typeData.Label
		}
		page(buf, title, func(buf *bytes.Buffer) {
			if msg, ok := fieldErrors["publish"]; ok {
				fmt.Fprintf(buf, "<p class=\"gp-message gp-error\">%s</p>\n", esc(msg))
			}
			fmt.Fprintf(buf, "<div class=\"gp-card\">\n<h2>%s</h2>\n", esc(title))
			formTabs(buf, typeData.Name, item.ID, op, isNew, langs)

			actionBase := "/admin/content/" + url.PathEscape(typeData.Name) + "/" + url.PathEscape(formID(item.ID, isNew)) + "/"
			fmt.Fprintf(buf, "<form class=\"gp-form\" method=\"post\" action=\"%ssave/\">\n", actionBase)
			csrfField(buf, csrfToken)
			fmt.Fprintf(buf, "<input type=\"hidden\" name=\"op\" value=\"%s\">\n", esc(op))

			switch op {
			case "seo":
				seoFields(buf, item, fieldErrors)
			case "edit":
				editFields(buf, typeData, item, isNew, fieldErrors)
			default:
				languageFields(buf, typeData, item, op, fieldErrors)
			}

			buf.WriteString("<div class=\"gp-actions\">\n")
			buf.WriteString("<button class=\"gp-btn\" type=\"submit\">Save and publish</button>\n")
			fmt.Fprintf(buf, "<button class=\"gp-btn secondary\" type=\"submit\" formaction=\"%sdraft/\">Save draft</button>\n", actionBase)
			if !isNew {
				fmt.Fprintf(buf, "<button class=\"gp-btn secondary\" type=\"submit\" formaction=\"%sdiscard/\" data-confirm=\"Discard the draft?\">Discard draft</button>\n", actionBase)
			}
			buf.WriteString("</div>\n</form>\n")

			if op == "edit" && !isNew {
				attachmentForms(buf, typeData, item, csrfToken)
			}
			buf.WriteString("</div>\n")
		})
	})
}

func formID(id string, isNew bool) string {
	if isNew && id == "" {
		return "new"
	}
	return id
}

func formTabs(buf *bytes.Buffer, typeName, id string, op string, isNew bool, langs []string) {
	base := "/admin/content/" + url.PathEscape(typeName) + "/" + url.PathEscape(formID(id, isNew)) + "/"
	buf.WriteString("<nav class=\"gp-tabs\">\n")
	tab(buf, base, "edit", "Content", op == "edit")
	tab(buf, base, "seo", "SEO", op == "seo")
	for _, lang := range langs {
		tab(buf, base, lang, strings.ToUpper(lang), op == lang)
	}
	buf.WriteString("</nav>\n")
}

func tab(buf *bytes.Buffer, base, op, label string, active bool) {
	class := ""
	if active {
		class = " class=\"active\""
	}
	href := base
	if op != "edit" {
		href += "?op=" + url.QueryEscape(op)
	}
	fmt.Fprintf(buf, "<a%s href=\"%s\">%s</a>\n", class, href, esc(label))
}

func editFields(buf *bytes.Buffer, typeData content.ContentType, item *content.ContentItem, isNew bool, fieldErrors map[string]string) {
	if isNew {
		textInput(buf, "id", "Id", item.ID, "lowercase, no spaces", fieldErrors["id"])
	} else {
		fmt.Fprintf(buf, "<p>Id: <code>%s</code></p>\n", esc(item.ID))
	}
	textInput(buf, "title", "Title", item.Title, "", fieldErrors["title"])
	for _, f := range typeData.Fields {
		if f.Name == "id" || f.Name == "title" {
			continue
		}
		fieldInput(buf, f, item.Value(f, ""), fieldErrors[f.Name])
	}
}

func seoFields(buf *bytes.Buffer, item *content.ContentItem, fieldErrors map[string]string) {
	for _, f := range content.SEOFields {
		fieldValue := item.SEO[f.Name]
		fieldInput(buf, f, fieldValue, fieldErrors[f.Name])
	}
}

func languageFields(buf *bytes.Buffer, typeData content.ContentType, item *content.ContentItem, lang string, fieldErrors map[string]string) {
	textInput(buf, "title", "Title", item.TitleIn(lang), "", fieldErrors["title"])
	for _, f := range typeData.Fields {
		if !f.Translatable() || f.Name == "id" || f.Name == "title" {
			continue
		}
		fieldInput(buf, f, item.Value(f, lang), fieldErrors[f.Name])
	}
}

func fieldInput(buf *bytes.Buffer, f content.Field, value, fieldError string) {
	label := f.Label
	if label == "" {
		label = f.Name
	}
	switch f.Type {
	case content.FieldWysiwyg:
		fmt.Fprintf(buf, "<label for=\"%s\">%s</label>\n", esc(f.Name), esc(label))
		fmt.Fprintf(buf, "<textarea id=\"%s\" name=\"%s\">%s</textarea>\n", esc(f.Name), esc(f.Name), esc(value))
	case content.FieldSelect:
		fmt.Fprintf(buf, "<label for=\"%s\">%s</label>\n", esc(f.Name), esc(label))
		fmt.Fprintf(buf, "<select id=\"%s\" name=\"%s\">\n", esc(f.Name), esc(f.Name))
		keys := make([]string, 0, len(f.Values))
		for k := range f.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			selected := ""
			if k == value {
				selected = " selected"
			}
			fmt.Fprintf(buf, "<option value=\"%s\"%s>%s</option>\n", esc(k), selected, esc(f.Values[k]))
		}
		buf.WriteString("</select>\n")
	case content.FieldDate:
		fmt.Fprintf(buf, "<label for=\"%s\">%s</label>\n", esc(f.Name), esc(label))
		fmt.Fprintf(buf, "<input type=\"date\" id=\"%s\" name=\"%s\" value=\"%s\">\n", esc(f.Name), esc(f.Name), esc(value))
	case content.FieldURL:
		fmt.Fprintf(buf, "<label for=\"%s\">%s</label>\n", esc(f.Name), esc(label))
		fmt.Fprintf(buf, "<input type=\"url\" id=\"%s\" name=\"%s\" value=\"%s\" placeholder=\"%s\">\n",
			esc(f.Name), esc(f.Name), esc(value), esc(f.Placeholder))
	case content.FieldImage, content.FieldFile:
		// Binary fields upload through their own form below the main one.
		fmt.Fprintf(buf, "<label>%s</label>\n", esc(label))
		if value != "" {
			fmt.Fprintf(buf, "<p class=\"gp-preview\"><code>%s</code></p>\n", esc(value))
		} else {
			buf.WriteString("<p>No file yet.</p>\n")
		}
	default:
		textInput(buf, f.Name, label, value, f.Placeholder, fieldError)
		return
	}
	if fieldError != "" {
		fmt.Fprintf(buf, "<p class=\"gp-field-error\">%s</p>\n", esc(fieldError))
	}
}

func textInput(buf *bytes.Buffer, name, label, value, placeholder, fieldError string) {
	fmt.Fprintf(buf, "<label for=\"%s\">%s</label>\n", esc(name), esc(label))
	fmt.Fprintf(buf, "<input type=\"text\" id=\"%s\" name=\"%s\" value=\"%s\" placeholder=\"%s\">\n",
		esc(name), esc(name), esc(value), esc(placeholder))
	if fieldError != "" {
		fmt.Fprintf(buf, "<p class=\"gp-field-error\">%s</p>\n", esc(fieldError))
	}
}

func attachmentForms(buf *bytes.Buffer, typeData content.ContentType, item *content.ContentItem, csrfToken string) {
	for _, f := range typeData.Fields {
		if !f.Binary() {
			continue
		}
		label := f.Label
		if label == "" {
			label = f.Name
		}
		action := "/admin/content/" + url.PathEscape(typeData.Name) + "/" + url.PathEscape(item.ID) +
			"/attachment/" + url.PathEscape(f.Name) + "/"
		fmt.Fprintf(buf, "<form class=\"gp-form\" method=\"post\" action=\"%s\" enctype=\"multipart/form-data\">\n", action)
		csrfField(buf, csrfToken)
		fmt.Fprintf(buf, "<label for=\"file-%s\">Upload %s</label>\n", esc(f.Name), esc(label))
		fmt.Fprintf(buf, "<input type=\"file\" id=\"file-%s\" name=\"file\">\n", esc(f.Name))
		if _, pending := item.Attachments[f.Name]; pending {
			buf.WriteString("<p class=\"gp-badge\">upload pending publish</p>\n")
		}
		buf.WriteString("<div class=\"gp-actions\"><button class=\"gp-btn secondary\" type=\"submit\">Attach</button></div>\n")
		buf.WriteString("</form>\n")
	}
}

// DeleteConfirm asks before unpublishing an item.
func DeleteConfirm(typeData content.ContentType, item *content.ContentItem, csrfToken string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		page(buf, "Delete "+item.Title, func(buf *bytes.Buffer) {
			buf.WriteString("<div class=\"gp-card\">\n")
			fmt.Fprintf(buf, "<h2>Delete %s?</h2>\n", esc(item.Title))
			fmt.Fprintf(buf, "<p>The published pages for <code>%s</code> will be replaced with placeholders and the item removed from the index.</p>\n", esc(item.ID))
			action := "/admin/content/" + url.PathEscape(typeData.Name) + "/" + url.PathEscape(item.ID) + "/delete/"
			fmt.Fprintf(buf, "<form class=\"gp-form\" method=\"post\" action=\"%s\">\n", action)
			csrfField(buf, csrfToken)
			buf.WriteString("<div class=\"gp-actions\">\n")
			buf.WriteString("<button class=\"gp-btn danger\" type=\"submit\">Delete</button>\n")
			fmt.Fprintf(buf, "<a class=\"gp-btn secondary\" href=\"/admin/content/%s/\">Cancel</a>\n", url.PathEscape(typeData.Name))
			buf.WriteString("</div>\n</form>\n</div>\n")
		})
	})
}

// Rebuild renders the type checklist for a bulk re-render.
func Rebuild(types content.Types, csrfToken string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		page(buf, "Rebuild", func(buf *bytes.Buffer) {
			buf.WriteString("<div class=\"gp-card\">\n<h2>Rebuild published pages</h2>\n")
			buf.WriteString("<p>Re-renders every published item of the selected types into a single commit. Use after changing the base template or menus.</p>\n")
			buf.WriteString("<form class=\"gp-form\" method=\"post\" action=\"/admin/rebuild/\">\n")
			csrfField(buf, csrfToken)
			for _, t := range types {
				fmt.Fprintf(buf, "<label><input type=\"checkbox\" name=\"types\" value=\"%s\" checked> %s</label>\n",
					esc(t.Name), esc(t.LabelPlural))
			}
			buf.WriteString("<label><input type=\"checkbox\" name=\"feeds\" value=\"1\" checked> Sitemap and feed</label>\n")
			buf.WriteString("<div class=\"gp-actions\"><button class=\"gp-btn\" type=\"submit\" data-confirm=\"Rebuild and publish now?\">Rebuild</button></div>\n")
			buf.WriteString("</form>\n</div>\n")
		})
	})
}

// Settings renders the global settings editor. Saving commits the settings
// document back to the repository.
func Settings(settings content.Settings, types content.Types, fieldErrors map[string]string, msg, csrfToken string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		page(buf, "Site settings", func(buf *bytes.Buffer) {
			message(buf, msg)
			if publishMsg, ok := fieldErrors["publish"]; ok {
				fmt.Fprintf(buf, "<p class=\"gp-message gp-error\">%s</p>\n", esc(publishMsg))
			}
			buf.WriteString("<div class=\"gp-card\">\n<h2>Site settings</h2>\n")
			buf.WriteString("<form class=\"gp-form\" method=\"post\" action=\"/admin/settings/\">\n")
			csrfField(buf, csrfToken)
			textInput(buf, "siteName", "Site name", settings.SiteName, "", fieldErrors["siteName"])
			textInput(buf, "siteURL", "Site URL", settings.SiteURL, "https://example.com", fieldErrors["siteURL"])
			textInput(buf, "description", "Description", settings.Description, "", fieldErrors["description"])
			textInput(buf, "languages", "Languages", strings.Join(settings.Languages, ", "), "en, de", fieldErrors["languages"])
			textInput(buf, "defaultLanguage", "Default language", settings.DefaultLanguage, "en", fieldErrors["defaultLanguage"])

			buf.WriteString("<label for=\"direction\">Text direction</label>\n<select id=\"direction\" name=\"direction\">\n")
			for _, dir := range []string{"ltr", "rtl"} {
				selected := ""
				if dir == settings.Direction {
					selected = " selected"
				}
				fmt.Fprintf(buf, "<option value=\"%s\"%s>%s</option>\n", dir, selected, dir)
			}
			buf.WriteString("</select>\n")

			buf.WriteString("<label for=\"feedType\">Feed content type</label>\n<select id=\"feedType\" name=\"feedType\">\n")
			buf.WriteString("<option value=\"\">No feed</option>\n")
			for _, t := range types {
				selected := ""
				if t.Name == settings.FeedType {
					selected = " selected"
				}
				fmt.Fprintf(buf, "<option value=\"%s\"%s>%s</option>\n", esc(t.Name), selected, esc(t.LabelPlural))
			}
			buf.WriteString("</select>\n")
			if fieldError := fieldErrors["feedType"]; fieldError != "" {
				fmt.Fprintf(buf, "<p class=\"gp-field-error\">%s</p>\n", esc(fieldError))
			}

			buf.WriteString("<div class=\"gp-actions\"><button class=\"gp-btn\" type=\"submit\">Save settings</button></div>\n")
			buf.WriteString("</form>\n</div>\n")
		})
	})
}

// TypeList renders the content type overview with edit and delete entry
// points. Built-in types cannot be deleted.
func TypeList(types content.Types, msg, csrfToken string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		page(buf, "Content types", func(buf *bytes.Buffer) {
			message(buf, msg)
			buf.WriteString("<div class=\"gp-card\">\n<h2>Content types</h2>\n")
			buf.WriteString("<p><a class=\"gp-btn\" href=\"/admin/types/new/\">New content type</a></p>\n")
			buf.WriteString("<table class=\"gp-list\">\n<tr><th>Name</th><th>Label</th><th>Fields</th><th></th></tr>\n")
			for _, t := range types {
				fmt.Fprintf(buf, "<tr><td><a href=\"/admin/types/%s/\">%s</a>", url.PathEscape(t.Name), esc(t.Name))
				if t.Fixed {
					buf.WriteString(" <span class=\"gp-badge\">built in</span>")
				}
				fmt.Fprintf(buf, "</td><td>%s</td><td>%d</td><td>", esc(t.LabelPlural), len(t.Fields))
				if !t.Fixed {
					fmt.Fprintf(buf, "<form method=\"post\" action=\"/admin/types/%s/delete/\">", url.PathEscape(t.Name))
					csrfField(buf, csrfToken)
					buf.WriteString("<button class=\"gp-btn secondary\" type=\"submit\" data-confirm=\"Delete this content type? Published items stay in the repository.\">Delete</button></form>")
				}
				buf.WriteString("</td></tr>\n")
			}
			buf.WriteString("</table>\n</div>\n")
		})
	})
}

// TypeForm renders the editor for one content type. The field list is
// edited as the JSON document it is stored as.
func TypeForm(typeData content.ContentType, isNew bool, fieldsJSON string, fieldErrors map[string]string, csrfToken string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		title := "Edit " + typeData.Name
		if isNew {
			title = "New content type"
		}
		page(buf, title, func(buf *bytes.Buffer) {
			if publishMsg, ok := fieldErrors["publish"]; ok {
				fmt.Fprintf(buf, "<p class=\"gp-message gp-error\">%s</p>\n", esc(publishMsg))
			}
			fmt.Fprintf(buf, "<div class=\"gp-card\">\n<h2>%s</h2>\n", esc(title))
			name := typeData.Name
			if isNew {
				name = "new"
			}
			action := "/admin/types/" + url.PathEscape(name) + "/save/"
			fmt.Fprintf(buf, "<form class=\"gp-form\" method=\"post\" action=\"%s\">\n", action)
			csrfField(buf, csrfToken)
			if isNew {
				textInput(buf, "name", "Name", typeData.Name, "lowercase, no spaces", fieldErrors["name"])
			} else {
				fmt.Fprintf(buf, "<p>Name: <code>%s</code></p>\n", esc(typeData.Name))
			}
			textInput(buf, "label", "Label", typeData.Label, "Post", fieldErrors["label"])
			textInput(buf, "labelPlural", "Plural label", typeData.LabelPlural, "Posts", fieldErrors["labelPlural"])
			textInput(buf, "urlPrefix", "URL prefix", typeData.URLPrefix, "posts/", fieldErrors["urlPrefix"])
			buf.WriteString("<label for=\"fields\">Fields</label>\n")
			fmt.Fprintf(buf, "<textarea id=\"fields\" name=\"fields\" rows=\"16\">%s</textarea>\n", esc(fieldsJSON))
			if fieldError := fieldErrors["fields"]; fieldError != "" {
				fmt.Fprintf(buf, "<p class=\"gp-field-error\">%s</p>\n", esc(fieldError))
			}
			buf.WriteString("<div class=\"gp-actions\"><button class=\"gp-btn\" type=\"submit\">Save content type</button></div>\n")
			buf.WriteString("</form>\n</div>\n")
		})
	})
}

// MenuEditor renders the per-language menu rows plus a few blank rows for
// additions. Dropdown children travel in a hidden column so a save does
// not flatten them.
func MenuEditor(languages []string, menus map[string][]render.MenuItem, msg, csrfToken string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		page(buf, "Menu", func(buf *bytes.Buffer) {
			message(buf, msg)
			buf.WriteString("<div class=\"gp-card\">\n<h2>Menu</h2>\n")
			buf.WriteString("<form class=\"gp-form\" method=\"post\" action=\"/admin/menu/\">\n")
			csrfField(buf, csrfToken)
			for _, lang := range languages {
				heading := strings.ToUpper(lang)
				if heading == "" {
					heading = "Menu items"
				}
				fmt.Fprintf(buf, "<h3>%s</h3>\n", esc(heading))
				buf.WriteString("<table class=\"gp-list\">\n<tr><th>Label</th><th>URL</th></tr>\n")
				for _, item := range menus[lang] {
					menuRow(buf, lang, item)
				}
				for i := 0; i < 3; i++ {
					menuRow(buf, lang, render.MenuItem{})
				}
				buf.WriteString("</table>\n")
			}
			buf.WriteString("<div class=\"gp-actions\"><button class=\"gp-btn\" type=\"submit\">Save menu</button></div>\n")
			buf.WriteString("</form>\n</div>\n")
		})
	})
}

func menuRow(buf *bytes.Buffer, lang string, item render.MenuItem) {
	sub := ""
	note := ""
	if len(item.SubItems) > 0 {
		if encoded, err := json.Marshal(item.SubItems); err == nil {
			sub = string(encoded)
		}
		note = fmt.Sprintf(" <span class=\"gp-badge\">%d sub-items</span>", len(item.SubItems))
	}
	buf.WriteString("<tr><td>")
	fmt.Fprintf(buf, "<input type=\"text\" name=\"label-%s\" value=\"%s\">%s</td>", esc(lang), esc(item.Label), note)
	fmt.Fprintf(buf, "<td><input type=\"text\" name=\"url-%s\" value=\"%s\">", esc(lang), esc(item.URL))
	fmt.Fprintf(buf, "<input type=\"hidden\" name=\"sub-%s\" value=\"%s\"></td></tr>\n", esc(lang), esc(sub))
}

// NotFound is the admin 404 page.
func NotFound() templ.Component {
	return component(func(buf *bytes.Buffer) {
		page(buf, "Not found", func(buf *bytes.Buffer) {
			buf.WriteString("<div class=\"gp-card\"><h2>Not found</h2><p>That page does not exist.</p></div>\n")
		})
	})
}

// ServerError is the admin 500 page.
func ServerError() templ.Component {
	return component(func(buf *bytes.Buffer) {
		page(buf, "Something went wrong", func(buf *bytes.Buffer) {
			buf.WriteString("<div class=\"gp-card\"><h2>Something went wrong</h2><p>The action failed. Check the server log.</p></div>\n")
		})
	})
}
