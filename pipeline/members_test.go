package pipeline

import (
	"net/url"
	"testing"

	"github.com/IndieWebClubBlr/website/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberDirectory(t *testing.T) {
	sources := []models.FeedSource{
		{Title: "carol", FeedURL: "https://carol.example/feed"},
		{Title: "Alice", FeedURL: "https://alice.example/feed", SiteURL: "https://alice.example/?utm_source=old"},
		{Title: "Bob", FeedURL: "https://bob.example/feed", SiteURL: "https://bob.example/"},
		{Title: "ALICE", FeedURL: "https://alice.example/other-feed", SiteURL: "https://alice.example/"},
	}

	members := memberDirectory(sources, "blogroll.example")
	require.Len(t, members, 3, "names are unique regardless of case")

	tests := []struct {
		title   string
		feedURL string
		icon    string
		hasSite bool
	}{
		{title: "Alice", feedURL: "https://alice.example/feed", icon: "https://icons.duckduckgo.com/ip3/alice.example.ico", hasSite: true},
		{title: "Bob", feedURL: "https://bob.example/feed", icon: "https://icons.duckduckgo.com/ip3/bob.example.ico", hasSite: true},
		{title: "carol", feedURL: "https://carol.example/feed"},
	}

	for i, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			member := members[i]
			assert.Equal(t, tt.title, member.Title)
			assert.Equal(t, tt.feedURL, member.FeedURL)
			assert.Equal(t, tt.icon, member.IconURL)

			if !tt.hasSite {
				assert.Equal(t, tt.feedURL, member.Link, "members without a site link to their feed")
				return
			}
			u, err := url.Parse(member.Link)
			require.NoError(t, err)
			assert.Equal(t, "blogroll.example", u.Query().Get("utm_source"))
			assert.Equal(t, "website", u.Query().Get("utm_medium"))
			assert.Equal(t, "members", u.Query().Get("utm_campaign"))
		})
	}
}
