package immovlan

import (
	"context"
	"fmt"

	"immo-harvester/models"
	"immo-harvester/utils"
)

// StatusError is returned when a detail page answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("detail %s: status %d", e.URL, e.StatusCode)
}

// FetchAndExtract waits a short random delay, fetches url with session and
// parses it. Any failure yields an error and no record.
func (s *Scraper) FetchAndExtract(ctx context.Context, url string, session Fetcher) (*models.ListingRecord, error) {
	if !utils.SleepContext(ctx, utils.Jitter(s.cfg.DetailDelayMin, s.cfg.DetailDelayMax)) {
		return nil, fmt.Errorf("detail %s: %w", url, ctx.Err())
	}

	page, err := session.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("detail %s: %w", url, err)
	}
	if !isSuccess(page.StatusCode) {
		return nil, &StatusError{URL: url, StatusCode: page.StatusCode}
	}

	return ParseListing(s.catalog, page.Body, url)
}
