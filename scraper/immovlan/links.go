package immovlan

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"immo-harvester/config"
)

// NormalizeURL resolves href against base and drops the fragment. It returns
// "" for empty, unparseable or non-http(s) links.
func NormalizeURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// IsProjectURL reports whether link points at a multi-unit project page.
func IsProjectURL(c *config.Catalog, link string) bool {
	return c.ProjectMarker != "" && strings.Contains(link, c.ProjectMarker)
}

// extractListingLinks returns the listing links of one catalog page in page
// order, plus how many matched links were project pages and were dropped.
func extractListingLinks(c *config.Catalog, pageURL, body string) ([]string, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("parse catalog page %s: %w", pageURL, err)
	}
	base, _ := url.Parse(pageURL)

	var links []string
	projects := 0
	doc.Find(c.Selectors.ListingLink).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		link := NormalizeURL(base, href)
		if link == "" {
			return
		}
		if IsProjectURL(c, link) {
			projects++
			return
		}
		links = append(links, link)
	})
	return links, projects, nil
}
