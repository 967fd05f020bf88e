package outline_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/IndieWebClubBlr/website/outline"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <head><title>Members</title></head>
  <body>
    <outline text="Alice" title="Alice's Blog" type="rss" xmlUrl="https://alice.example/feed.xml" htmlUrl="https://alice.example/"/>
    <outline text="Friends">
      <outline text="Bob" type="rss" xmlUrl="https://bob.example/atom.xml" htmlUrl="https://bob.example"/>
      <outline text="No feed" type="rss" htmlUrl="https://nofeed.example"/>
    </outline>
    <outline type="rss" xmlUrl="https://anon.example/rss"/>
    <outline text="Gopher" type="rss" xmlUrl="gopher://old.example/feed"/>
    <outline text="Alice again" type="rss" xmlUrl="https://alice.example/feed.xml"/>
    <outline text="Carol" type="rss" xmlUrl="https://carol.example/feed" htmlUrl="not a url"/>
  </body>
</opml>`

func TestParse(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	sources, err := outline.Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, sources, 4)

	tests := []struct {
		title   string
		feedURL string
		siteURL string
	}{
		{"Alice's Blog", "https://alice.example/feed.xml", "https://alice.example/"},
		{"Bob", "https://bob.example/atom.xml", "https://bob.example"},
		{"https://anon.example/rss", "https://anon.example/rss", ""},
		{"Carol", "https://carol.example/feed", ""},
	}

	for i, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.title, sources[i].Title)
			assert.Equal(t, tt.feedURL, sources[i].FeedURL)
			assert.Equal(t, tt.siteURL, sources[i].SiteURL)
			assert.Equal(t, i, sources[i].Position)
		})
	}

	var warnings []string
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.WarnLevel {
			warnings = append(warnings, entry.Message)
		}
	}
	assert.Contains(t, warnings, "Skipping outline without feed URL")
	assert.Contains(t, warnings, "Skipping outline with invalid feed URL")
	assert.Contains(t, warnings, "Skipping duplicate feed URL")
	assert.Contains(t, warnings, "Outline has no title or text, using feed URL")
	assert.Contains(t, warnings, "Ignoring invalid site URL")
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: ""},
		{name: "not xml", doc: "this is not xml"},
		{name: "unclosed", doc: `<opml><body><outline xmlUrl="https://a.example/feed">`},
		{name: "wrong root", doc: `<rss><channel></channel></rss>`},
		{name: "no body", doc: `<opml version="2.0"><head/></opml>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := outline.Parse(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, outline.ErrMalformedOutline)
		})
	}
}

func TestParseEncodings(t *testing.T) {
	outlineIn := func(encoding, title string) string {
		return `<?xml version="1.0" encoding="` + encoding + `"?>
<opml version="2.0"><body>
  <outline text="` + title + `" type="rss" xmlUrl="https://cafe.example/feed" htmlUrl="https://cafe.example/"/>
</body></opml>`
	}

	tests := []struct {
		name string
		doc  string
	}{
		{name: "utf-8", doc: outlineIn("UTF-8", "Café")},
		{name: "iso-8859-1", doc: outlineIn("ISO-8859-1", "Caf\xe9")},
		{name: "windows-1252", doc: outlineIn("windows-1252", "Caf\xe9")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources, err := outline.Parse(strings.NewReader(tt.doc))
			require.NoError(t, err)
			require.Len(t, sources, 1)
			assert.Equal(t, "Café", sources[0].Title)
			assert.Equal(t, "https://cafe.example/feed", sources[0].FeedURL)
		})
	}
}

func TestParseEmptyBody(t *testing.T) {
	sources, err := outline.Parse(strings.NewReader(`<opml><body></body></opml>`))
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blogroll.opml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	sources, err := outline.Load(path)
	require.NoError(t, err)
	assert.Len(t, sources, 4)

	_, err = outline.Load(filepath.Join(dir, "missing.opml"))
	assert.Error(t, err)
}
