// Package webring picks the daily previous and next members of the webring.
package webring

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/IndieWebClubBlr/website/models"
	"github.com/IndieWebClubBlr/website/render"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

var ErrNotEnoughMembers = errors.New("webring needs at least two members")

const (
	PreviousPage = "webring/previous.html"
	NextPage     = "webring/next.html"

	dayLayout = "2006-01-02"
)

// Eligible returns the members that can appear in the webring: sources
// with a website whose feed yielded entries in the latest build, even if
// all of them were filtered out
func Eligible(results []models.FetchResult) []models.FeedSource {
	return lo.FilterMap(results, func(result models.FetchResult, _ int) (models.FeedSource, bool) {
		return result.Source, result.Source.HasSite() && result.Fetched > 0
	})
}

// Select picks the members for day. The same members and day always give
// the same pick. Previous and Next are the neighbours of Current in
// member order, wrapping around at the ends.
func Select(members []models.FeedSource, day time.Time) (models.WebringPick, error) {
	n := len(members)
	if n < 2 {
		return models.WebringPick{}, fmt.Errorf("%w: have %d", ErrNotEnoughMembers, n)
	}

	key := day.Format(dayLayout)
	sum := sha256.Sum256([]byte(key))
	current := int(binary.BigEndian.Uint64(sum[:8]) % uint64(n))

	return models.WebringPick{
		Day:      key,
		Current:  members[current],
		Previous: members[(current-1+n)%n],
		Next:     members[(current+1)%n],
	}, nil
}

// Decorate adds campaign parameters to target so member sites can see
// traffic from the blogroll. Existing utm_ parameters are replaced. An
// empty source leaves target unchanged.
func Decorate(target, source, medium, campaign string) string {
	if source == "" {
		return target
	}

	u, err := url.Parse(target)
	if err != nil {
		return target
	}

	query := u.Query()
	for key := range query {
		if strings.HasPrefix(key, "utm_") {
			query.Del(key)
		}
	}
	query.Set("utm_source", source)
	query.Set("utm_medium", medium)
	query.Set("utm_campaign", campaign)
	u.RawQuery = query.Encode()

	return u.String()
}

// Write renders the redirect pages for pick into outputDir
func Write(r *render.Renderer, pick models.WebringPick, outputDir, utmSource string) error {
	pages := []struct {
		path      string
		direction string
		member    models.FeedSource
	}{
		{PreviousPage, "Previous", pick.Previous},
		{NextPage, "Next", pick.Next},
	}

	for _, page := range pages {
		target := Decorate(page.member.SiteURL, utmSource, "webring", strings.ToLower(page.direction))
		data, err := r.RenderRedirect(page.direction, page.member, target)
		if err != nil {
			return err
		}
		if err := render.WriteFile(outputDir, page.path, data); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"day":       pick.Day,
			"direction": page.direction,
			"member":    page.member.Title,
			"target":    page.member.SiteURL,
		}).Info("Generated webring link")
	}

	return nil
}

// Remove deletes the redirect pages left by an earlier pick and returns
// how many were removed
func Remove(outputDir string) (int, error) {
	removed := 0
	for _, page := range []string{PreviousPage, NextPage} {
		err := os.Remove(filepath.Join(outputDir, filepath.FromSlash(page)))
		switch {
		case err == nil:
			removed++
		case !errors.Is(err, os.ErrNotExist):
			return removed, fmt.Errorf("error removing %s: %w", page, err)
		}
	}
	return removed, nil
}
