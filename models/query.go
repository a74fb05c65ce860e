package models

import "fmt"

// PriceBracket is one price partition. A zero bound means the bound is not
// sent to the site.
type PriceBracket struct {
	Min int64 `toml:"min"`
	Max int64 `toml:"max"`
}

// SubQuery is one bounded (region, price-bracket) partition of the catalog search.
type SubQuery struct {
	Region   string
	MinPrice int64
	MaxPrice int64
}

// Key identifies the sub-query by its dimension tuple.
func (q SubQuery) Key() string {
	return fmt.Sprintf("%s:%d-%d", q.Region, q.MinPrice, q.MaxPrice)
}

// RawPage is the transient result of one fetch.
type RawPage struct {
	URL        string
	StatusCode int
	Body       string
}
