package services

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"immo-harvester/models"
	"immo-harvester/utils"
)

// unknownType buckets records whose property type could not be derived.
const unknownType = "Unknown"

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarises a harvest. Price statistics only consider records with a
// price.
func (s *InsightService) Generate(records []*models.ListingRecord, discovery models.DiscoveryStats, extraction models.ExtractionStats) *models.InsightReport {
	report := &models.InsightReport{
		Discovery:          discovery,
		Extraction:         extraction,
		ByPropertyType:     make(map[string]int),
		ListingsByLocality: make(map[string]int),
	}

	if len(records) == 0 {
		return report
	}

	report.TotalListings = len(records)

	var total float64
	for _, r := range records {
		if pt, ok := r.PropertyType.AsString(); ok {
			report.ByPropertyType[pt]++
		} else {
			report.ByPropertyType[unknownType]++
		}

		if loc, ok := r.Locality.AsString(); ok && loc != "" {
			report.ListingsByLocality[loc]++
		}

		price, ok := r.PriceEUR.AsInt()
		if !ok {
			continue
		}
		if report.PricedListings == 0 || price < report.MinPrice {
			report.MinPrice = price
		}
		if report.PricedListings == 0 || price > report.MaxPrice {
			report.MaxPrice = price
			report.MostExpensive = r
		}
		report.PricedListings++
		total += float64(price)
	}

	if report.PricedListings > 0 {
		report.AveragePrice = round2(total / float64(report.PricedListings))
	}

	s.logger.Debug("[insights] %d records, %d priced", report.TotalListings, report.PricedListings)
	return report
}

// Print writes the report to stdout.
func (s *InsightService) Print(r *models.InsightReport) {
	s.PrintTo(os.Stdout, r)
}

// PrintTo writes the report to w.
func (s *InsightService) PrintTo(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 IMMOVLAN HARVEST INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Harvest
	d, e := r.Discovery, r.Extraction
	fmt.Fprintf(w, "\033[1;33m  Harvest\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Sub-queries            : \033[1m%d\033[0m (%d completed, %d abandoned)\n", d.SubQueries, d.Completed, d.Abandoned)
	fmt.Fprintf(w, "  Catalog pages fetched  : \033[1m%d\033[0m\n", d.Pages)
	fmt.Fprintf(w, "  Links seen / dupes     : \033[1m%d\033[0m / %d\n", d.LinksSeen, d.Duplicates)
	fmt.Fprintf(w, "  Project pages skipped  : \033[1m%d\033[0m\n", d.ProjectsFiltered)
	fmt.Fprintf(w, "  Rate-limit retries     : \033[1m%d\033[0m\n", d.RateLimitRetries)
	fmt.Fprintf(w, "  Detail pages           : \033[1m%d\033[0m scheduled, %d ok, %d failed\n", e.Scheduled, e.Succeeded, e.Failed)
	fmt.Fprintln(w)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total listings extracted : \033[1m%d\033[0m\n", r.TotalListings)
	for _, kv := range sortedCounts(r.ByPropertyType) {
		fmt.Fprintf(w, "  %-24s : \033[1m%d\033[0m\n", kv.key, kv.count)
	}
	fmt.Fprintln(w)

	// Price Stats
	fmt.Fprintf(w, "\033[1;33m  Price Statistics (EUR)\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.PricedListings > 0 {
		fmt.Fprintf(w, "  Priced listings : \033[1m%d\033[0m\n", r.PricedListings)
		fmt.Fprintf(w, "  Average price   : \033[1;32m€%.2f\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum price   : \033[1;32m€%d\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price   : \033[1;32m€%d\033[0m\n", r.MaxPrice)
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	// Most Expensive
	if m := r.MostExpensive; m != nil {
		fmt.Fprintf(w, "\033[1;33m  Most Expensive Listing\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(m.SourceURL, 52))
		fmt.Fprintf(w, "  Type     : %s %s\n", m.PropertyType.Format("-"), m.Subtype.Format(""))
		fmt.Fprintf(w, "  Locality : %s\n", m.Locality.Format("-"))
		fmt.Fprintf(w, "  Price    : \033[1;31m€%s\033[0m\n", m.PriceEUR.Format("-"))
		fmt.Fprintln(w)
	}

	// Listings by Locality
	fmt.Fprintf(w, "\033[1;33m  Top Localities\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	locs := sortedCounts(r.ListingsByLocality)
	if len(locs) == 0 {
		fmt.Fprintf(w, "  No locality data\n")
	} else {
		if len(locs) > 10 {
			locs = locs[:10]
		}
		top := locs[0].count
		for _, lc := range locs {
			width := lc.count * 20 / top
			if width < 1 {
				width = 1
			}
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(lc.key, 28), strings.Repeat("█", width), lc.count)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

type keyCount struct {
	key   string
	count int
}

// sortedCounts orders m by count descending, then key ascending.
func sortedCounts(m map[string]int) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, c := range m {
		out = append(out, keyCount{k, c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
