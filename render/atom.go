package render

import (
	"fmt"
	"time"

	"github.com/IndieWebClubBlr/website/models"
	"github.com/gorilla/feeds"
)

const atomNamespace = "http://www.w3.org/2005/Atom"

// atomCategory is an Atom category element. gorilla/feeds models only a
// single category as element text, which Atom readers ignore.
type atomCategory struct {
	Term string `xml:"term,attr"`
}

// atomEntry shadows the single category of feeds.AtomEntry with one
// category element per tag
type atomEntry struct {
	*feeds.AtomEntry
	Categories []atomCategory `xml:"category"`
}

type atomFeed struct {
	*feeds.AtomFeed
	Entries []*atomEntry `xml:"entry"`
}

func (a *atomFeed) FeedXml() interface{} {
	return a
}

// RenderAtom writes feed as an Atom 1.0 document. Every entry is
// identified by its link and carries its tags as categories.
func (r *Renderer) RenderAtom(feed models.AggregatedFeed, updated time.Time) ([]byte, error) {
	atom := &atomFeed{AtomFeed: &feeds.AtomFeed{
		Xmlns:    atomNamespace,
		Title:    r.site.Title,
		Id:       r.site.AtomURL,
		Updated:  updated.UTC().Format(time.RFC3339),
		Subtitle: r.site.Subtitle,
		Link:     &feeds.AtomLink{Href: r.site.URL, Rel: "alternate"},
	}}
	if r.site.Author != "" {
		atom.Author = &feeds.AtomAuthor{AtomPerson: feeds.AtomPerson{Name: r.site.Author, Uri: r.site.URL}}
	}

	for _, entry := range feed.Entries {
		published := entry.PublishedAt.UTC().Format(time.RFC3339)
		authorURI := entry.SiteURL
		if authorURI == "" {
			authorURI = entry.SourceURL
		}

		e := &feeds.AtomEntry{
			Title:     entry.Title,
			Id:        entry.Link,
			Updated:   published,
			Published: published,
			Links:     []feeds.AtomLink{{Href: entry.Link, Rel: "alternate"}},
			Author:    &feeds.AtomAuthor{AtomPerson: feeds.AtomPerson{Name: entry.SourceTitle, Uri: authorURI}},
		}
		if entry.Summary != "" {
			e.Summary = &feeds.AtomSummary{Content: entry.Summary, Type: "text"}
		}

		categories := make([]atomCategory, 0, len(entry.Tags))
		for _, tag := range entry.Tags {
			categories = append(categories, atomCategory{Term: tag})
		}
		atom.Entries = append(atom.Entries, &atomEntry{AtomEntry: e, Categories: categories})
	}

	out, err := feeds.ToXML(atom)
	if err != nil {
		return nil, fmt.Errorf("error rendering atom feed: %w", err)
	}
	return []byte(out), nil
}
