// Package pipeline runs a complete site build: load the outline, fetch
// every feed, aggregate, render and update the webring.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/IndieWebClubBlr/website/aggregate"
	"github.com/IndieWebClubBlr/website/cache"
	"github.com/IndieWebClubBlr/website/config"
	"github.com/IndieWebClubBlr/website/db"
	"github.com/IndieWebClubBlr/website/fetcher"
	"github.com/IndieWebClubBlr/website/models"
	"github.com/IndieWebClubBlr/website/outline"
	"github.com/IndieWebClubBlr/website/render"
	"github.com/IndieWebClubBlr/website/webring"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Options are the per-run switches given on the command line
type Options struct {
	OutlinePath string
	UseCache    bool
	MetricsFile string
}

// Report summarizes a finished build
type Report struct {
	RunID   string
	Sources int
	Results []models.FetchResult
	Feed    models.AggregatedFeed
	Pick    *models.WebringPick
}

// Failed returns the results of sources that produced no entries
func (r *Report) Failed() []models.FetchResult {
	return lo.Filter(r.Results, func(result models.FetchResult, _ int) bool {
		return result.Failed()
	})
}

type Builder struct {
	Config *config.TomlConfig

	// Now returns the current time; replaced in tests
	Now func() time.Time
	// HTTPClient replaces the fetcher's client when set
	HTTPClient *http.Client
}

func NewBuilder(cfg *config.TomlConfig) *Builder {
	return &Builder{Config: cfg, Now: time.Now}
}

// FetchOptions maps the configuration onto fetcher options
func FetchOptions(cfg *config.TomlConfig) fetcher.Options {
	return fetcher.Options{
		UserAgent:        cfg.Fetch.UserAgent,
		Timeout:          cfg.Fetch.Timeout.Duration,
		Retries:          cfg.Fetch.Retries,
		MaxContentLength: int64(cfg.Fetch.MaxContentLength),
		HostInterval:     cfg.Fetch.HostInterval.Duration,
		FreshnessWindow:  cfg.Fetch.FreshnessWindow.Duration,
		MaxFeedEntries:   cfg.Entries.MaxFeedEntries,
		MaxAge:           cfg.Entries.MaxAge.Duration,
		MaxFutureSkew:    cfg.Entries.MaxFutureSkew.Duration,
		MaxTags:          cfg.Entries.MaxTags,
		SummaryLength:    cfg.Entries.SummaryLength,
	}
}

func (b *Builder) renderer() (*render.Renderer, error) {
	loc, err := b.Config.Location()
	if err != nil {
		return nil, err
	}
	return render.New(render.Site{
		Title:    b.Config.Site.Title,
		Subtitle: b.Config.Site.Subtitle,
		URL:      b.Config.Site.URL,
		AtomURL:  b.Config.AtomURL(),
		Author:   b.Config.Site.Author,
		Location: loc,
	}, b.Config.Output.TemplatesDir)
}

// openState opens the state database. Failing to open it only loses the
// cache and the recorded membership, so the error is logged and nil returned.
func (b *Builder) openState() *db.Store {
	if b.Config.Output.StatePath == "" {
		return nil
	}
	store, err := db.Open(b.Config.Output.StatePath)
	if err != nil {
		log.WithFields(log.Fields{
			"state": b.Config.Output.StatePath,
			"error": err,
		}).Warn("State database unavailable, continuing without it")
		return nil
	}
	return store
}

// Build runs one complete build. Problems with individual feeds are
// reported in the result; an error means no usable site was produced.
func (b *Builder) Build(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()
	now := b.Now()
	report := &Report{RunID: uuid.NewString()}
	logger := log.WithField("run", report.RunID)

	sources, err := outline.Load(opts.OutlinePath)
	if err != nil {
		return nil, err
	}
	report.Sources = len(sources)
	if len(sources) == 0 {
		logger.Warn("No feeds found in outline")
	}

	r, err := b.renderer()
	if err != nil {
		return nil, err
	}

	store := b.openState()
	if store != nil {
		defer store.Close()
	}

	var c cache.Cache = cache.Disabled{}
	if opts.UseCache && store != nil {
		c = store
	}

	f := fetcher.New(FetchOptions(b.Config), c)
	f.Now = b.Now
	if b.HTTPClient != nil {
		f.WithClient(b.HTTPClient)
	}

	report.Results = fetcher.NewPool(f, b.Config.Fetch.Workers).FetchAll(ctx, sources)
	perSource := aggregate.FromResults(report.Results)

	report.Feed = aggregate.Aggregate(perSource, aggregate.Options{MaxEntries: b.Config.Page.MaxAtomEntries})
	notes, rest := aggregate.Partition(aggregate.Aggregate(perSource, aggregate.Options{}), aggregate.IsWeekNote)
	page := render.Page{
		Entries: aggregate.Limit(rest, aggregate.Options{
			MaxEntries:     b.Config.Page.MaxEntries,
			PerSourceLimit: b.Config.Page.PerSourceLimit,
		}),
		WeekNotes: aggregate.Limit(notes, aggregate.Options{
			MaxEntries:     b.Config.Page.MaxWeekNotes,
			PerSourceLimit: b.Config.Page.PerSourceLimit,
		}),
		Failures:    report.Failed(),
		FeedCount:   len(sources),
		GeneratedAt: now,
	}

	if err := b.writeSite(r, page, report.Feed, sources, now, opts); err != nil {
		return nil, err
	}

	pick, err := b.updateWebring(ctx, r, store, webring.Eligible(report.Results), now)
	if err != nil {
		return nil, err
	}
	report.Pick = pick

	b.summarize(logger, report)
	buildDuration.Set(time.Since(start).Seconds())
	buildLastSuccess.Set(float64(now.Unix()))
	writeMetrics(opts.MetricsFile)

	return report, nil
}

// writeSite renders every page before writing any of them. index.html is
// written last, so a failed write never pairs a new page with an old feed.
func (b *Builder) writeSite(r *render.Renderer, page render.Page, feed models.AggregatedFeed, sources []models.FeedSource, now time.Time, opts Options) error {
	out := b.Config.Output.Dir

	html, err := r.RenderHTML(page)
	if err != nil {
		return err
	}
	atom, err := r.RenderAtom(feed, now)
	if err != nil {
		return err
	}
	members, err := r.RenderMembers(memberDirectory(sources, b.Config.Webring.UTMSource))
	if err != nil {
		return err
	}

	if err := render.WriteFile(out, b.Config.Output.AtomFile, atom); err != nil {
		return err
	}
	if err := render.WriteFile(out, MembersPage, members); err != nil {
		return err
	}
	if err := render.WriteFile(out, "index.html", html); err != nil {
		return err
	}

	// Publish the outline so visitors can subscribe to every member at once
	if err := render.CopyFile(opts.OutlinePath, out, filepath.Base(opts.OutlinePath)); err != nil {
		return err
	}

	if b.Config.Output.AssetsDir != "" {
		copied, err := render.CopyDir(b.Config.Output.AssetsDir, out, "assets")
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"assets": copied,
		}).Debug("Copied assets")
	}

	log.WithFields(log.Fields{
		"output":    out,
		"entries":   page.Entries.Len(),
		"weekNotes": page.WeekNotes.Len(),
		"atom":      feed.Len(),
	}).Info("Site written")

	return nil
}

// updateWebring records the eligible members and writes today's redirects.
// Too few members skips the redirects with a warning.
func (b *Builder) updateWebring(ctx context.Context, r *render.Renderer, store *db.Store, members []models.FeedSource, now time.Time) (*models.WebringPick, error) {
	if store != nil {
		if err := store.SaveMembers(ctx, members, now); err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Warn("Failed to record webring members")
		}
	}

	return b.writeWebring(r, members, now)
}

func (b *Builder) writeWebring(r *render.Renderer, members []models.FeedSource, now time.Time) (*models.WebringPick, error) {
	loc, err := b.Config.Location()
	if err != nil {
		return nil, err
	}

	pick, err := webring.Select(members, now.In(loc))
	if errors.Is(err, webring.ErrNotEnoughMembers) {
		removed, err := webring.Remove(b.Config.Output.Dir)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"members": len(members),
			"removed": removed,
		}).Warn("Not enough members for the webring, removing redirects")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := webring.Write(r, pick, b.Config.Output.Dir, b.Config.Webring.UTMSource); err != nil {
		return nil, err
	}
	return &pick, nil
}

// Webring rewrites the redirects from the membership recorded by the last
// build, without fetching any feed
func (b *Builder) Webring(ctx context.Context) (*models.WebringPick, error) {
	if b.Config.Output.StatePath == "" {
		return nil, fmt.Errorf("no state database configured")
	}
	store, err := db.Open(b.Config.Output.StatePath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	members, err := store.Members(ctx)
	if err != nil {
		return nil, err
	}

	r, err := b.renderer()
	if err != nil {
		return nil, err
	}
	return b.writeWebring(r, members, b.Now())
}

func (b *Builder) summarize(logger *log.Entry, report *Report) {
	failed := report.Failed()
	buildSources.WithLabelValues("ok").Set(float64(len(report.Results) - len(failed)))
	buildSources.WithLabelValues("failed").Set(float64(len(failed)))
	buildEntries.Set(float64(report.Feed.Len()))

	logger.WithFields(log.Fields{
		"sources": report.Sources,
		"failed":  len(failed),
		"entries": report.Feed.Len(),
	}).Info("Build finished")

	if len(failed) == 0 {
		return
	}

	names := lo.Map(failed, func(result models.FetchResult, _ int) string {
		return fmt.Sprintf("%s (%s)", result.Source.Title, result.Failure.Reason)
	})
	logger.WithFields(log.Fields{
		"failed": strings.Join(names, ", "),
	}).Warn("Some feeds failed")
}

func writeMetrics(path string) {
	if path == "" {
		return
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		log.WithFields(log.Fields{
			"path":  path,
			"error": err,
		}).Warn("Failed to write metrics file")
	}
}
