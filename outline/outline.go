// Package outline reads the list of member feeds from an OPML document.
package outline

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/IndieWebClubBlr/website/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"
)

// ErrMalformedOutline is returned when the document cannot be read as OPML
var ErrMalformedOutline = errors.New("malformed outline document")

type opmlDocument struct {
	XMLName xml.Name  `xml:"opml"`
	Body    *opmlBody `xml:"body"`
}

type opmlBody struct {
	Outlines []opmlOutline `xml:"outline"`
}

type opmlOutline struct {
	Text     string        `xml:"text,attr"`
	Title    string        `xml:"title,attr"`
	Type     string        `xml:"type,attr"`
	XMLURL   string        `xml:"xmlUrl,attr"`
	HTMLURL  string        `xml:"htmlUrl,attr"`
	Outlines []opmlOutline `xml:"outline"`
}

// Load parses the outline file at path
func Load(path string) ([]models.FeedSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening outline: %w", err)
	}
	defer f.Close()

	sources, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.WithFields(log.Fields{
		"path":  path,
		"feeds": len(sources),
	}).Info("Loaded outline")

	return sources, nil
}

// Parse reads an OPML document and returns its feeds in document order.
// Entries without a usable feed URL are skipped with a warning.
func Parse(r io.Reader) ([]models.FeedSource, error) {
	var doc opmlDocument
	dec := xml.NewDecoder(r)
	// Feed readers still export Latin-1 and Windows code pages
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutline, err)
	}
	if doc.Body == nil {
		return nil, fmt.Errorf("%w: missing body element", ErrMalformedOutline)
	}

	w := walker{seen: map[string]bool{}}
	w.walk(doc.Body.Outlines)
	return w.sources, nil
}

type walker struct {
	sources []models.FeedSource
	seen    map[string]bool
}

func (w *walker) walk(outlines []opmlOutline) {
	for _, o := range outlines {
		w.visit(o)
		w.walk(o.Outlines)
	}
}

func (w *walker) visit(o opmlOutline) {
	feedURL := strings.TrimSpace(o.XMLURL)
	title := strings.TrimSpace(o.Title)
	if title == "" {
		title = strings.TrimSpace(o.Text)
	}

	if feedURL == "" {
		// Plain category outlines only group other outlines
		if len(o.Outlines) == 0 && (o.Type != "" || o.HTMLURL != "") {
			log.WithFields(log.Fields{
				"title": title,
			}).Warn("Skipping outline without feed URL")
		}
		return
	}

	if !isHTTPURL(feedURL) {
		log.WithFields(log.Fields{
			"title":   title,
			"feedUrl": feedURL,
		}).Warn("Skipping outline with invalid feed URL")
		return
	}

	if w.seen[feedURL] {
		log.WithFields(log.Fields{
			"title":   title,
			"feedUrl": feedURL,
		}).Warn("Skipping duplicate feed URL")
		return
	}
	w.seen[feedURL] = true

	if title == "" {
		log.WithFields(log.Fields{
			"feedUrl": feedURL,
		}).Warn("Outline has no title or text, using feed URL")
		title = feedURL
	}

	siteURL := strings.TrimSpace(o.HTMLURL)
	if siteURL != "" && !isHTTPURL(siteURL) {
		log.WithFields(log.Fields{
			"title":   title,
			"siteUrl": siteURL,
		}).Warn("Ignoring invalid site URL")
		siteURL = ""
	}

	w.sources = append(w.sources, models.FeedSource{
		Title:    title,
		FeedURL:  feedURL,
		SiteURL:  siteURL,
		Position: len(w.sources),
	})
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
