// Package render turns an aggregated feed into the files of the site.
package render

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/IndieWebClubBlr/website/models"
	"github.com/cbroglie/mustache"
	log "github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templates embed.FS

const (
	IndexTemplate    = "index.html"
	RedirectTemplate = "webring-redirect.html"
	MembersTemplate  = "members.html"
)

// Site describes the generated site and its Atom feed
type Site struct {
	Title    string
	Subtitle string
	URL      string
	AtomURL  string
	Author   string
	Location *time.Location
}

type Renderer struct {
	site     Site
	index    *mustache.Template
	redirect *mustache.Template
	members  *mustache.Template
}

// New loads the page templates. Files in templatesDir override the
// built-in ones; an empty templatesDir uses the built-in templates only.
func New(site Site, templatesDir string) (*Renderer, error) {
	if site.Location == nil {
		site.Location = time.UTC
	}

	index, err := loadTemplate(templatesDir, IndexTemplate)
	if err != nil {
		return nil, err
	}
	redirect, err := loadTemplate(templatesDir, RedirectTemplate)
	if err != nil {
		return nil, err
	}

	members, err := loadTemplate(templatesDir, MembersTemplate)
	if err != nil {
		return nil, err
	}

	return &Renderer{site: site, index: index, redirect: redirect, members: members}, nil
}

func loadTemplate(dir, name string) (*mustache.Template, error) {
	var data []byte
	if dir != "" {
		override, err := os.ReadFile(filepath.Join(dir, name))
		switch {
		case err == nil:
			data = override
			log.WithFields(log.Fields{
				"template": name,
				"dir":      dir,
			}).Debug("Using template override")
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("error reading template %s: %w", name, err)
		}
	}

	if data == nil {
		builtin, err := templates.ReadFile("templates/" + name)
		if err != nil {
			return nil, fmt.Errorf("missing built-in template %s: %w", name, err)
		}
		data = builtin
	}

	tmpl, err := mustache.ParseString(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing template %s: %w", name, err)
	}
	return tmpl, nil
}

// Page is everything shown on the home page. Entries are rendered in the
// order given.
type Page struct {
	Entries     models.AggregatedFeed
	WeekNotes   models.AggregatedFeed
	Failures    []models.FetchResult
	FeedCount   int
	GeneratedAt time.Time
}

// RenderHTML fills the home page template
func (r *Renderer) RenderHTML(page Page) ([]byte, error) {
	failed := make([]map[string]any, 0, len(page.Failures))
	for _, result := range page.Failures {
		if !result.Failed() {
			continue
		}
		failed = append(failed, map[string]any{
			"title":    result.Source.Title,
			"feed_url": result.Source.FeedURL,
			"site_url": result.Source.SiteURL,
			"reason":   result.Failure.Reason.Describe(),
		})
	}

	generated := page.GeneratedAt.In(r.site.Location)
	data := map[string]any{
		"site_title":        r.site.Title,
		"site_subtitle":     r.site.Subtitle,
		"site_url":          r.site.URL,
		"atom_url":          r.site.AtomURL,
		"entries":           r.entryViews(page.Entries),
		"has_entries":       page.Entries.Len() > 0,
		"week_notes":        r.entryViews(page.WeekNotes),
		"has_week_notes":    page.WeekNotes.Len() > 0,
		"failed_feeds":      failed,
		"has_failed_feeds":  len(failed) > 0,
		"feed_count":        page.FeedCount,
		"generated_human":   generated.Format("2 Jan 2006, 15:04 MST"),
		"generated_machine": generated.Format(time.RFC3339),
	}

	out, err := r.index.Render(data)
	if err != nil {
		return nil, fmt.Errorf("error rendering %s: %w", IndexTemplate, err)
	}
	return []byte(out), nil
}

func (r *Renderer) entryViews(feed models.AggregatedFeed) []map[string]any {
	views := make([]map[string]any, 0, feed.Len())
	for _, entry := range feed.Entries {
		published := entry.PublishedAt.In(r.site.Location)
		views = append(views, map[string]any{
			"title":        entry.Title,
			"link":         entry.Link,
			"source_title": entry.SourceTitle,
			"site_url":     entry.SiteURL,
			"feed_url":     entry.SourceURL,
			"date_human":   published.Format("2 Jan 2006"),
			"date_machine": entry.PublishedAt.UTC().Format(time.RFC3339),
			"summary":      entry.Summary,
			"tags":         entry.Tags,
			"has_tags":     len(entry.Tags) > 0,
		})
	}
	return views
}

// RenderRedirect fills the webring redirect template for one direction
func (r *Renderer) RenderRedirect(direction string, member models.FeedSource, target string) ([]byte, error) {
	out, err := r.redirect.Render(map[string]any{
		"direction": direction,
		"name":      member.Title,
		"url":       target,
	})
	if err != nil {
		return nil, fmt.Errorf("error rendering %s: %w", RedirectTemplate, err)
	}
	return []byte(out), nil
}

// Member is one row of the member directory
type Member struct {
	Title   string
	Link    string
	FeedURL string
	IconURL string
}

// RenderMembers fills the member directory template. Members are rendered
// in the order given.
func (r *Renderer) RenderMembers(members []Member) ([]byte, error) {
	views := make([]map[string]any, 0, len(members))
	for _, member := range members {
		views = append(views, map[string]any{
			"title":    member.Title,
			"link":     member.Link,
			"feed_url": member.FeedURL,
			"icon_url": member.IconURL,
		})
	}

	out, err := r.members.Render(map[string]any{
		"site_title":   r.site.Title,
		"site_url":     r.site.URL,
		"members":      views,
		"member_count": len(views),
	})
	if err != nil {
		return nil, fmt.Errorf("error rendering %s: %w", MembersTemplate, err)
	}
	return []byte(out), nil
}
