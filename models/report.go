package models

// DiscoveryStats counts what happened across all sub-queries of one discovery run.
type DiscoveryStats struct {
	SubQueries       int
	Completed        int
	Abandoned        int
	Pages            int
	LinksSeen        int
	Duplicates       int
	ProjectsFiltered int
	RateLimitRetries int
}

// ExtractionStats counts what happened across all detail fetches.
type ExtractionStats struct {
	Scheduled  int
	Duplicates int
	Succeeded  int
	Failed     int
}

// InsightReport holds the computed analytics over one harvest.
type InsightReport struct {
	TotalListings      int
	Discovery          DiscoveryStats
	Extraction         ExtractionStats
	ByPropertyType     map[string]int
	PricedListings     int
	AveragePrice       float64
	MinPrice           int64
	MaxPrice           int64
	MostExpensive      *ListingRecord
	ListingsByLocality map[string]int
}
