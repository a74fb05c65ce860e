package immovlan

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"immo-harvester/models"
	"immo-harvester/utils"
)

// Outcome says why pagination of a sub-query stopped.
type Outcome int

const (
	// OutcomeExhausted: a page came back with no listing links.
	OutcomeExhausted Outcome = iota
	// OutcomePageCeiling: MaxPages pages were read without running dry.
	OutcomePageCeiling
	// OutcomeHTTPStatus: a page returned a non-success status other than a
	// retried 429.
	OutcomeHTTPStatus
	OutcomeNetworkError
	OutcomeParseError
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExhausted:
		return "exhausted"
	case OutcomePageCeiling:
		return "page-ceiling"
	case OutcomeHTTPStatus:
		return "http-status"
	case OutcomeNetworkError:
		return "network-error"
	case OutcomeParseError:
		return "parse-error"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Abandoned reports whether the sub-query stopped early on a failure.
func (o Outcome) Abandoned() bool {
	return o != OutcomeExhausted && o != OutcomePageCeiling
}

// CollectResult is what one sub-query yielded. URLs holds every distinct
// listing URL gathered before pagination stopped, in first-seen order, even
// when the sub-query was abandoned.
type CollectResult struct {
	Query            models.SubQuery
	URLs             []string
	Pages            int
	LinksSeen        int
	ProjectsFiltered int
	RateLimitRetries int
	Outcome          Outcome
	StatusCode       int
	Err              error
}

var errRateLimited = errors.New("rate limited (429)")

// Collect paginates q with session until the results run dry, the page
// ceiling is hit, or a page fails. It never returns an error: failures end
// the sub-query and are reported in the result alongside the partial URLs.
func (s *Scraper) Collect(ctx context.Context, q models.SubQuery, session Fetcher) CollectResult {
	res := CollectResult{Query: q, Outcome: OutcomePageCeiling}
	log := s.logger.With("subquery", q.Key())
	seen := make(map[string]struct{})

	for page := 1; page <= s.cfg.MaxPages; page++ {
		if page > 1 && !utils.SleepContext(ctx, utils.Jitter(s.cfg.PageDelayMin, s.cfg.PageDelayMax)) {
			res.Outcome, res.Err = OutcomeCancelled, ctx.Err()
			return res
		}

		pageURL := PageURL(s.catalog, q, page)
		raw, err := s.fetchWithCooldown(ctx, session, pageURL, &res)
		if err != nil {
			res.Outcome, res.Err = OutcomeNetworkError, err
			if ctx.Err() != nil {
				res.Outcome = OutcomeCancelled
			}
			log.Warn("[discovery] page %d failed, keeping %d links: %v", page, len(res.URLs), err)
			return res
		}
		res.Pages++

		if raw.StatusCode != http.StatusOK {
			res.Outcome, res.StatusCode = OutcomeHTTPStatus, raw.StatusCode
			res.Err = fmt.Errorf("page %d: status %d", page, raw.StatusCode)
			log.Warn("[discovery] page %d returned status %d, keeping %d links", page, raw.StatusCode, len(res.URLs))
			return res
		}

		links, projects, err := extractListingLinks(s.catalog, pageURL, raw.Body)
		if err != nil {
			res.Outcome, res.Err = OutcomeParseError, err
			log.Warn("[discovery] %v", err)
			return res
		}
		res.ProjectsFiltered += projects

		if len(links)+projects == 0 {
			res.Outcome = OutcomeExhausted
			log.Debug("[discovery] page %d is empty, %d links collected", page, len(res.URLs))
			return res
		}

		for _, link := range links {
			res.LinksSeen++
			if _, dup := seen[link]; dup {
				continue
			}
			seen[link] = struct{}{}
			res.URLs = append(res.URLs, link)
		}
		log.Debug("[discovery] page %d: %d links", page, len(links))
	}

	log.Info("[discovery] reached the %d page ceiling, results may be truncated", s.cfg.MaxPages)
	return res
}

// fetchWithCooldown fetches pageURL, waiting out 429 responses. When the
// retry cap is reached the last 429 page is returned without error.
func (s *Scraper) fetchWithCooldown(ctx context.Context, session Fetcher, pageURL string, res *CollectResult) (*models.RawPage, error) {
	maxAttempts := 0
	if s.cfg.RateLimitMaxRetries > 0 {
		maxAttempts = s.cfg.RateLimitMaxRetries + 1
	}
	retry := &utils.RetryConfig{
		MaxAttempts: maxAttempts,
		BaseDelay:   s.cfg.RateLimitCooldown,
		Multiplier:  1,
		Logger:      s.logger,
		OnRetry: func(int, error) {
			res.RateLimitRetries++
		},
	}

	var page *models.RawPage
	err := retry.Do(ctx, "fetch "+pageURL, func() error {
		p, err := session.Fetch(ctx, pageURL)
		if err != nil {
			return err
		}
		page = p
		if p.StatusCode == http.StatusTooManyRequests {
			return utils.Retryable(errRateLimited)
		}
		return nil
	})
	if err != nil {
		if utils.IsRetryable(err) && page != nil {
			return page, nil
		}
		return nil, err
	}
	return page, nil
}
