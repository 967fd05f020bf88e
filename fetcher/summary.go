package fetcher

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

const ellipsis = "…"

// plainText strips markup from an HTML fragment and collapses whitespace
func plainText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc.Find("script, style, noscript").Remove()

	return strings.Join(strings.Fields(doc.Text()), " ")
}

// truncate shortens text to at most limit runes, cutting at a word
// boundary when one is available, and marks the cut with an ellipsis
func truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	cut := runes[:limit]
	if !unicode.IsSpace(runes[limit]) {
		if i := lastSpace(cut); i > limit/2 {
			cut = cut[:i]
		}
	}

	trimmed := strings.TrimRightFunc(string(cut), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	return trimmed + ellipsis
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}

// summarize turns an entry description into a short plain text summary
func summarize(fragment string, limit int) string {
	return truncate(plainText(fragment), limit)
}
