package render

import (
	"github.com/gitpress-io/gitpress/content"
	"github.com/gitpress-io/gitpress/markup"
	"github.com/gitpress-io/gitpress/publish"
)

// IndexRecord builds the item's search index record: id, title, href plus
// the non-binary field values, with markup stripped from textual fields so
// the index stays searchable plain text.
func IndexRecord(item *content.ContentItem, typeData content.ContentType) publish.Record {
	record := publish.Record{
		"id":    item.ID,
		"title": item.Title,
		"href":  item.URL(typeData),
	}
	for _, f := range typeData.Fields {
		// id/title are fixed keys sourced from the item itself, and binary
		// fields carry upload paths, not searchable text.
		if f.Binary() || f.Name == "id" || f.Name == "title" {
			continue
		}
		value := item.Fields[f.Name]
		if f.Textual() {
			value = markup.Strip(value)
		}
		record[f.Name] = value
	}
	return record
}
