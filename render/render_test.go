package render_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/IndieWebClubBlr/website/models"
	"github.com/IndieWebClubBlr/website/render"
	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var published = time.Date(2024, 5, 30, 18, 45, 0, 0, time.UTC)

func testSite() render.Site {
	return render.Site{
		Title:    "Test Blogroll",
		Subtitle: "Posts by members",
		URL:      "https://blogroll.example/",
		AtomURL:  "https://blogroll.example/blogroll.atom",
		Author:   "Test Club",
	}
}

func testFeed() models.AggregatedFeed {
	return models.AggregatedFeed{Entries: []models.FeedEntry{
		{
			SourceTitle: "Alice",
			SourceURL:   "https://alice.example/feed",
			SiteURL:     "https://alice.example/",
			Title:       "Tags & <markup>",
			Link:        "https://alice.example/posts/1?a=1&b=2",
			PublishedAt: published,
			Summary:     "A short summary",
			Tags:        []string{"go", "indieweb"},
		},
		{
			SourceTitle: "Bob",
			SourceURL:   "https://bob.example/feed",
			Title:       "Second",
			Link:        "https://bob.example/2",
			PublishedAt: published.Add(-24 * time.Hour),
		},
	}}
}

func newRenderer(t *testing.T, dir string) *render.Renderer {
	t.Helper()
	r, err := render.New(testSite(), dir)
	require.NoError(t, err)
	return r
}

func TestRenderHTML(t *testing.T) {
	r := newRenderer(t, "")

	out, err := r.RenderHTML(render.Page{
		Entries:   testFeed(),
		WeekNotes: models.AggregatedFeed{Entries: []models.FeedEntry{{SourceTitle: "Carol", Title: "Weeknote 7", Link: "https://carol.example/w7", PublishedAt: published}}},
		Failures: []models.FetchResult{
			{Source: models.FeedSource{Title: "Dave", FeedURL: "https://dave.example/feed"}, Failure: &models.FetchFailure{Reason: models.FailureHTTPStatus}},
			{Source: models.FeedSource{Title: "Erin"}},
		},
		FeedCount:   4,
		GeneratedAt: published,
	})
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "<title>Test Blogroll</title>")
	assert.Contains(t, html, "Tags &amp; &lt;markup&gt;", "entry titles are escaped")
	assert.NotContains(t, html, "<markup>")
	assert.Contains(t, html, `href="https://alice.example/posts/1?a=1&amp;b=2"`)
	assert.Contains(t, html, `datetime="2024-05-30T18:45:00Z"`)
	assert.Contains(t, html, "30 May 2024")
	assert.Contains(t, html, "<li>indieweb</li>")
	assert.Contains(t, html, "A short summary")
	assert.Contains(t, html, "Weeknote 7")
	assert.Contains(t, html, "Dave")
	assert.Contains(t, html, "Unexpected HTTP status")
	assert.NotContains(t, html, "Erin", "successful sources are not listed as failures")

	first := strings.Index(html, "Tags &amp;")
	second := strings.Index(html, "Second")
	assert.Less(t, first, second, "entries are rendered in the given order")
}

func TestRenderHTMLEmpty(t *testing.T) {
	out, err := newRenderer(t, "").RenderHTML(render.Page{GeneratedAt: published})
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "No recent posts.")
	assert.NotContains(t, html, "Week notes")
	assert.NotContains(t, html, "Feeds we could not read")
}

func TestRenderHTMLUsesSiteTimezone(t *testing.T) {
	site := testSite()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	site.Location = loc

	r, err := render.New(site, "")
	require.NoError(t, err)

	out, err := r.RenderHTML(render.Page{Entries: testFeed(), GeneratedAt: published})
	require.NoError(t, err)

	// 18:45 UTC is past midnight in India
	assert.Contains(t, string(out), "31 May 2024")
	assert.Contains(t, string(out), `datetime="2024-05-30T18:45:00Z"`)
}

func TestTemplateOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, render.IndexTemplate),
		[]byte("{{#entries}}[{{title}}|{{missing_value}}]{{/entries}}"), 0o644))

	out, err := newRenderer(t, dir).RenderHTML(render.Page{Entries: testFeed()})
	require.NoError(t, err)
	assert.Equal(t, "[Tags &amp; &lt;markup&gt;|][Second|]", string(out), "missing values render empty")
}

func TestTemplateOverrideInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, render.IndexTemplate), []byte("{{#entries}}unclosed"), 0o644))

	_, err := render.New(testSite(), dir)
	assert.Error(t, err)
}

func TestRenderAtom(t *testing.T) {
	updated := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	out, err := newRenderer(t, "").RenderAtom(testFeed(), updated)
	require.NoError(t, err)

	parsed, err := gofeed.NewParser().ParseString(string(out))
	require.NoError(t, err)

	assert.Equal(t, "atom", parsed.FeedType)
	assert.Equal(t, "Test Blogroll", parsed.Title)
	require.NotNil(t, parsed.UpdatedParsed)
	assert.True(t, updated.Equal(*parsed.UpdatedParsed))
	require.Len(t, parsed.Items, 2)

	first := parsed.Items[0]
	assert.Equal(t, "Tags & <markup>", first.Title)
	assert.Equal(t, "https://alice.example/posts/1?a=1&b=2", first.Link)
	assert.Equal(t, "https://alice.example/posts/1?a=1&b=2", first.GUID)
	require.NotNil(t, first.PublishedParsed)
	assert.True(t, published.Equal(*first.PublishedParsed))
	require.NotNil(t, first.Author)
	assert.Equal(t, "Alice", first.Author.Name)
	assert.Equal(t, "A short summary", first.Description)
	assert.Equal(t, []string{"go", "indieweb"}, first.Categories)

	assert.Equal(t, "Bob", parsed.Items[1].Author.Name)
	assert.Empty(t, parsed.Items[1].Categories)
	assert.Equal(t, 2, strings.Count(string(out), "<category "), "one category element per tag")
}

func TestRenderMembers(t *testing.T) {
	out, err := newRenderer(t, "").RenderMembers([]render.Member{
		{Title: "Alice & co", Link: "https://alice.example/?utm_source=x&utm_medium=website", FeedURL: "https://alice.example/feed", IconURL: "https://icons.example/alice.ico"},
		{Title: "Bob", Link: "https://bob.example/feed", FeedURL: "https://bob.example/feed"},
	})
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "2 members")
	assert.Contains(t, html, `href="https://alice.example/?utm_source=x&amp;utm_medium=website">Alice &amp; co</a>`)
	assert.Contains(t, html, `src="https://icons.example/alice.ico"`)
	assert.Equal(t, 1, strings.Count(html, "<img"), "members without an icon get no image")
	assert.Less(t, strings.Index(html, "Alice"), strings.Index(html, ">Bob<"))
}

func TestRenderRedirect(t *testing.T) {
	out, err := newRenderer(t, "").RenderRedirect("Next", models.FeedSource{Title: "Alice"}, "https://alice.example/?utm_source=x&utm_medium=webring")
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, `content="0; url=https://alice.example/?utm_source=x&amp;utm_medium=webring"`)
	assert.Contains(t, html, ">Alice</a>")
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, render.WriteFile(dir, "webring/next.html", []byte("one")))
	data, err := os.ReadFile(filepath.Join(dir, "webring", "next.html"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	require.NoError(t, render.WriteFile(dir, "webring/next.html", []byte("two")))
	data, err = os.ReadFile(filepath.Join(dir, "webring", "next.html"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "webring"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestCopyDir(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "style.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "img", "logo.svg"), []byte("<svg/>"), 0o644))

	out := t.TempDir()
	copied, err := render.CopyDir(src, out, "assets")
	require.NoError(t, err)
	assert.Equal(t, 2, copied)
	assert.FileExists(t, filepath.Join(out, "assets", "style.css"))
	assert.FileExists(t, filepath.Join(out, "assets", "img", "logo.svg"))
}
