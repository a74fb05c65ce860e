package immovlan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"immo-harvester/config"
	"immo-harvester/models"
)

// ParseListing turns one detail page into a record. It does no I/O; the same
// input always gives the same record. Fields the page does not show stay null.
func ParseListing(c *config.Catalog, html, listingURL string) (*models.ListingRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse detail page %s: %w", listingURL, err)
	}

	rec := models.NewListingRecord(listingURL)
	parts := strings.Split(listingURL, "/")

	rec.TypeOfSale = urlSegment(parts, c.SaleTypeSegment, false)
	rec.PriceEUR = extractPrice(doc, c.Selectors.Price)
	rec.Locality = extractText(doc, c.Selectors.Locality)
	extractInfoBlock(doc, c, rec)

	rec.Subtype = urlSegment(parts, c.SubtypeSegment, true)
	if subtype, ok := rec.Subtype.AsString(); ok {
		rec.PropertyType = models.StringValue(c.PropertyType(subtype))
	}
	return rec, nil
}

// urlSegment returns part idx of a "/"-split URL with dashes turned into
// spaces, optionally title-cased. Missing or empty parts are null.
func urlSegment(parts []string, idx int, title bool) models.Value {
	if idx < 0 || idx >= len(parts) {
		return models.NullValue()
	}
	seg := parts[idx]
	if i := strings.IndexAny(seg, "?#"); i >= 0 {
		seg = seg[:i]
	}
	seg = strings.TrimSpace(strings.ReplaceAll(seg, "-", " "))
	if seg == "" {
		return models.NullValue()
	}
	if title {
		seg = cases.Title(language.Und).String(seg)
	}
	return models.StringValue(seg)
}

// extractPrice keeps only the digits of the price element, so "€ 350.000"
// becomes 350000. No element or no digits means null.
func extractPrice(doc *goquery.Document, selector string) models.Value {
	if selector == "" {
		return models.NullValue()
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return models.NullValue()
	}
	return digitsValue(sel.Text())
}

func extractText(doc *goquery.Document, selector string) models.Value {
	if selector == "" {
		return models.NullValue()
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return models.NullValue()
	}
	text := strings.TrimSpace(sel.Text())
	if text == "" {
		return models.NullValue()
	}
	return models.StringValue(text)
}

// extractInfoBlock walks the label/value rows of the general-info block and
// stores each recognised label in its column.
func extractInfoBlock(doc *goquery.Document, c *config.Catalog, rec *models.ListingRecord) {
	sel := c.Selectors
	if sel.InfoBlock == "" || sel.InfoRow == "" {
		return
	}
	block := doc.Find(sel.InfoBlock).First()
	if block.Length() == 0 {
		return
	}

	block.Find(sel.InfoRow).Each(func(_ int, row *goquery.Selection) {
		label := row.Find(sel.InfoLabel).First()
		if label.Length() == 0 {
			return
		}
		rule, ok := c.Field(label.Text())
		if !ok {
			return
		}

		if rule.Rule == config.RulePresence {
			rec.Set(rule.Column, models.BoolValue(true))
			return
		}
		value := row.Find(sel.InfoValue).First()
		if value.Length() == 0 {
			return
		}
		rec.Set(rule.Column, CoerceValue(rule.Rule, value.Text()))
	})
}

// CoerceValue converts raw info-block text under rule. For RuleAuto: "yes"
// and "no" (any case, surrounding space ignored) become booleans, text with
// any digit becomes the integer formed by all its digits, and anything else
// is kept as trimmed text.
func CoerceValue(rule, raw string) models.Value {
	text := strings.TrimSpace(raw)

	switch rule {
	case config.RulePresence:
		return models.BoolValue(true)
	case config.RuleInt:
		return digitsValue(text)
	case config.RuleText:
		if text == "" {
			return models.NullValue()
		}
		return models.StringValue(text)
	}

	switch strings.ToLower(text) {
	case "yes":
		return models.BoolValue(true)
	case "no":
		return models.BoolValue(false)
	}
	if strings.ContainsAny(text, "0123456789") {
		return digitsValue(text)
	}
	return models.StringValue(text)
}

// digitsValue concatenates the ASCII digits of s into an integer. No digits,
// or a number too large for int64, gives null.
func digitsValue(s string) models.Value {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return models.NullValue()
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return models.NullValue()
	}
	return models.IntValue(n)
}
