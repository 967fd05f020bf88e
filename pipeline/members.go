package pipeline

import (
	"net/url"
	"sort"
	"strings"

	"github.com/IndieWebClubBlr/website/models"
	"github.com/IndieWebClubBlr/website/render"
	"github.com/IndieWebClubBlr/website/webring"
	"github.com/samber/lo"
)

// MembersPage is where the member directory is written
const MembersPage = "members/index.html"

// memberDirectory lists every source once by name, sorted by name. Members
// link to their site when they have one and to their feed otherwise.
func memberDirectory(sources []models.FeedSource, utmSource string) []render.Member {
	unique := lo.UniqBy(sources, func(source models.FeedSource) string {
		return strings.ToLower(source.Title)
	})

	members := lo.Map(unique, func(source models.FeedSource, _ int) render.Member {
		member := render.Member{
			Title:   source.Title,
			Link:    source.FeedURL,
			FeedURL: source.FeedURL,
		}
		if source.HasSite() {
			member.Link = webring.Decorate(source.SiteURL, utmSource, "website", "members")
			member.IconURL = iconURL(source.SiteURL)
		}
		return member
	})

	sort.SliceStable(members, func(i, j int) bool {
		return strings.ToLower(members[i].Title) < strings.ToLower(members[j].Title)
	})
	return members
}

// iconURL points at the DuckDuckGo favicon proxy for site. Nothing is
// fetched during the build; browsers load the icon lazily.
func iconURL(site string) string {
	u, err := url.Parse(site)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return "https://icons.duckduckgo.com/ip3/" + u.Hostname() + ".ico"
}
