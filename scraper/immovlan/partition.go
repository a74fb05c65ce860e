package immovlan

import (
	"net/url"
	"strconv"
	"strings"

	"immo-harvester/config"
	"immo-harvester/models"
)

// Partition returns one sub-query per (region, price bracket) pair, regions
// in catalog order and brackets in ascending order within each region.
func Partition(c *config.Catalog) []models.SubQuery {
	out := make([]models.SubQuery, 0, len(c.Regions)*len(c.PriceBrackets))
	for _, region := range c.Regions {
		for _, b := range c.PriceBrackets {
			out = append(out, models.SubQuery{
				Region:   region,
				MinPrice: b.Min,
				MaxPrice: b.Max,
			})
		}
	}
	return out
}

// PageURL builds the catalog URL for page n of q. Page 1 carries no page
// parameter, and zero price bounds are left out.
func PageURL(c *config.Catalog, q models.SubQuery, page int) string {
	var sb strings.Builder
	sb.WriteString(c.BaseURL)
	sb.WriteByte('?')
	if c.Params != "" {
		sb.WriteString(c.Params)
		sb.WriteByte('&')
	}
	sb.WriteString("provinces=")
	sb.WriteString(url.QueryEscape(q.Region))
	if q.MinPrice > 0 {
		sb.WriteString("&minprice=")
		sb.WriteString(strconv.FormatInt(q.MinPrice, 10))
	}
	if q.MaxPrice > 0 {
		sb.WriteString("&maxprice=")
		sb.WriteString(strconv.FormatInt(q.MaxPrice, 10))
	}
	if page > 1 {
		sb.WriteString("&page=")
		sb.WriteString(strconv.Itoa(page))
	}
	sb.WriteString("&noindex=1")
	return sb.String()
}
