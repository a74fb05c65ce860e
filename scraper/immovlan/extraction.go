package immovlan

import (
	"context"
	"sync"
	"time"

	"immo-harvester/models"
	"immo-harvester/utils"
)

// progressEvery controls how often extraction progress is logged at info level.
const progressEvery = 100

// ExtractionResult holds the records of every successful fetch, in completion
// order, plus run statistics.
type ExtractionResult struct {
	Records []*models.ListingRecord
	Stats   models.ExtractionStats
}

// ExtractAll fetches and parses every distinct URL on the extraction pool.
// Failed URLs are logged and counted but produce no record.
func (s *Scraper) ExtractAll(ctx context.Context, urls []string) *ExtractionResult {
	start := time.Now()
	seen := utils.NewURLSet()
	pool := utils.NewWorkerPool(s.extraction.Size(), 0)

	var mu sync.Mutex
	result := &ExtractionResult{}

	for _, u := range urls {
		if !seen.Add(u) {
			result.Stats.Duplicates++
		}
	}
	unique := seen.Sorted()
	total := len(unique)
	result.Stats.Scheduled = total
	s.logger.Info("[extraction] %d URLs (%d duplicates dropped) on %d workers",
		total, result.Stats.Duplicates, pool.Size())

	done := 0
	for _, u := range unique {
		pool.Submit(func(workerID int) {
			rec, err := s.FetchAndExtract(ctx, u, s.extraction.For(workerID))

			mu.Lock()
			defer mu.Unlock()
			done++
			if err != nil {
				result.Stats.Failed++
				s.logger.Warn("[extraction] [%d/%d] %v", done, total, err)
			} else {
				result.Stats.Succeeded++
				result.Records = append(result.Records, rec)
				s.logger.Debug("[extraction] [%d/%d] %s | %s | %s", done, total,
					rec.Locality.Format("-"), rec.PriceEUR.Format("-"), rec.PropertyType.Format("-"))
			}
			if done%progressEvery == 0 {
				s.logger.Info("[extraction] progress %d/%d (%d ok, %d failed)",
					done, total, result.Stats.Succeeded, result.Stats.Failed)
			}
		})
	}
	pool.Wait()

	s.logger.Info("[extraction] done in %s: %d records, %d failed",
		time.Since(start).Round(time.Millisecond), result.Stats.Succeeded, result.Stats.Failed)
	return result
}
