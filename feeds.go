package gitpress

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/gitpress-io/gitpress/publish"
	"github.com/gitpress-io/gitpress/store"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// feedArtifacts builds sitemap.xml and, when a feed type is configured,
// feed.xml from the current search indexes. Both are plain artifacts so
// they ride in the same commit as the pages they list.
func (a *App) feedArtifacts(ctx context.Context) ([]store.FileArtifact, error) {
	indexes := make(map[string][]publish.Record, len(a.Types))
	for _, typeData := range a.Types {
		records, err := publish.LoadIndex(ctx, a.Backend, typeData.Name)
		if err != nil {
			return nil, err
		}
		indexes[typeData.Name] = records
	}

	artifacts := []store.FileArtifact{a.sitemapArtifact(indexes)}
	if a.Settings.FeedType != "" {
		feed, err := a.rssArtifact(indexes[a.Settings.FeedType])
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, feed)
	}
	return artifacts, nil
}

func (a *App) sitemapArtifact(indexes map[string][]publish.Record) store.FileArtifact {
	base := a.Settings.SiteURL
	urls := []sitemapURL{{Loc: BuildURL(base)}}
	for _, typeData := range a.Types {
		for _, record := range indexes[typeData.Name] {
			href, _ := record["href"].(string)
			if href == "" {
				continue
			}
			for _, lang := range a.Settings.Languages {
				urls = append(urls, sitemapURL{
					Loc:     BuildURL(base, a.Settings.LinksPrefix(lang), href),
					LastMod: recordString(record, "date"),
				})
			}
		}
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	return xmlArtifact("sitemap.xml", sitemap)
}

func (a *App) rssArtifact(records []publish.Record) (store.FileArtifact, error) {
	if _, ok := a.Types.Get(a.Settings.FeedType); !ok {
		return store.FileArtifact{}, fmt.Errorf("gitpress: feed type %q is not a known content type", a.Settings.FeedType)
	}
	base := a.Settings.SiteURL
	items := make([]rssItem, 0, len(records))
	for _, record := range records {
		href, _ := record["href"].(string)
		link := BuildURL(base, href)
		pubDate := ""
		if t, err := time.Parse("2006-01-02", recordString(record, "date")); err == nil {
			pubDate = t.Format(time.RFC1123Z)
		}
		items = append(items, rssItem{
			Title:       recordString(record, "title"),
			Link:        link,
			Description: recordString(record, "description"),
			PubDate:     pubDate,
			GUID:        link,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Settings.SiteName,
			Link:        base,
			Description: a.Settings.Description,
			Items:       items,
		},
	}
	return xmlArtifact("feed.xml", feed), nil
}

func xmlArtifact(path string, doc any) store.FileArtifact {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		// Marshalling fixed struct shapes cannot fail at runtime.
		panic(err)
	}
	return store.FileArtifact{
		Path:     path,
		Content:  xml.Header + string(body) + "\n",
		Encoding: store.EncodingUTF8,
	}
}

func recordString(record publish.Record, key string) string {
	v, _ := record[key].(string)
	return v
}
