package services

import (
	"strings"

	"immo-harvester/config"
	"immo-harvester/utils"
)

// Cleaner filters discovered or loaded URL lists down to the detail pages
// that extraction should fetch.
type Cleaner struct {
	logger  *utils.Logger
	catalog *config.Catalog
}

// NewCleaner creates a Cleaner with the given logger and catalog.
func NewCleaner(logger *utils.Logger, catalog *config.Catalog) *Cleaner {
	return &Cleaner{logger: logger, catalog: catalog}
}

// CleanURLs trims every URL, drops blanks, project pages and anything that is
// not a listing detail page, and removes duplicates. First-seen order is kept.
func (c *Cleaner) CleanURLs(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	result := make([]string, 0, len(raw))
	projects, foreign := 0, 0

	for _, r := range raw {
		url := strings.TrimSpace(r)
		if url == "" {
			continue
		}

		if c.catalog.ProjectMarker != "" && strings.Contains(url, c.catalog.ProjectMarker) {
			projects++
			continue
		}
		if c.catalog.DetailMarker != "" && !strings.Contains(url, c.catalog.DetailMarker) {
			foreign++
			c.logger.Debug("[cleaner] Not a detail page, skipped: %s", url)
			continue
		}

		if _, dup := seen[url]; dup {
			c.logger.Debug("[cleaner] Duplicate URL skipped: %s", url)
			continue
		}
		seen[url] = struct{}{}
		result = append(result, url)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d URLs (dropped %d, of which %d project pages and %d non-detail links)",
		len(raw), len(result), len(raw)-len(result), projects, foreign)
	return result
}
