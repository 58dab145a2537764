package linkedin

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// SanitizeText strips any markup from remote-supplied text. Voyager
// commentary is mostly plain, but comments regularly carry anchor tags and
// entity markup.
func SanitizeText(s string) string {
	return strings.TrimSpace(textPolicy.Sanitize(s))
}

// ExtractPostText pulls the post body out of a public post page. Used as a
// fallback when the caller has no session for the voyager endpoint.
func ExtractPostText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse post page: %w", err)
	}

	doc.Find("script, style, nav, header, footer").Remove()

	// Shared posts and logged-out permalinks use different containers.
	for _, sel := range []string{
		"[data-test-id='main-feed-activity-card'] .attributed-text-segment-list__content",
		".share-update-card__update-text",
		"article p",
	} {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if text := strings.TrimSpace(node.Text()); text != "" {
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("no post body found in page")
}

// ExtractPostMeta reads the OpenGraph tags of a public post page.
func ExtractPostMeta(html string) (*PostMeta, error) {
	doc, err := htmlquery.Parse(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse post page: %w", err)
	}

	meta := &PostMeta{}
	for prop, dst := range map[string]*string{
		"og:title":       &meta.Title,
		"og:description": &meta.Description,
		"og:image":       &meta.Image,
	} {
		expr := fmt.Sprintf("//meta[@property='%s']", prop)
		if node := htmlquery.FindOne(doc, expr); node != nil {
			*dst = htmlquery.SelectAttr(node, "content")
		}
	}
	return meta, nil
}
