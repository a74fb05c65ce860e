package immovlan

import (
	"context"
	"sync"
	"time"

	"immo-harvester/models"
	"immo-harvester/utils"
)

// DiscoveryResult is the deduplicated union of every sub-query's URLs,
// sorted, plus run statistics.
type DiscoveryResult struct {
	URLs      []string
	Stats     models.DiscoveryStats
	Abandoned []CollectResult
}

// DiscoverAll runs Collect for every sub-query on the discovery pool. A
// sub-query that fails only loses its own remaining pages; all others run to
// completion.
func (s *Scraper) DiscoverAll(ctx context.Context, queries []models.SubQuery) *DiscoveryResult {
	start := time.Now()
	set := utils.NewURLSet()
	pool := utils.NewWorkerPool(s.discovery.Size(), 0)

	var mu sync.Mutex
	result := &DiscoveryResult{}
	result.Stats.SubQueries = len(queries)

	s.logger.Info("[discovery] %d sub-queries on %d workers", len(queries), pool.Size())

	for _, q := range queries {
		pool.Submit(func(workerID int) {
			res := s.Collect(ctx, q, s.discovery.For(workerID))
			added := set.Merge(res.URLs)

			mu.Lock()
			defer mu.Unlock()
			st := &result.Stats
			st.Pages += res.Pages
			st.LinksSeen += res.LinksSeen
			st.Duplicates += res.LinksSeen - added
			st.ProjectsFiltered += res.ProjectsFiltered
			st.RateLimitRetries += res.RateLimitRetries
			if res.Outcome.Abandoned() {
				st.Abandoned++
				result.Abandoned = append(result.Abandoned, res)
			} else {
				st.Completed++
			}
			s.logger.Info("[discovery] %s: %d links over %d pages (%s), %d unique so far",
				q.Key(), len(res.URLs), res.Pages, res.Outcome, set.Size())
		})
	}
	pool.Wait()

	result.URLs = set.Sorted()
	s.logger.Info("[discovery] done in %s: %d unique URLs, %d/%d sub-queries completed",
		time.Since(start).Round(time.Millisecond), len(result.URLs), result.Stats.Completed, result.Stats.SubQueries)
	return result
}
