package config

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"immo-harvester/models"
)

//go:embed catalog.toml
var defaultCatalog []byte

// Coercion rules for info-block values.
const (
	// RuleAuto: yes/no -> bool, anything with a digit -> int, else text.
	RuleAuto = "auto"
	// RulePresence: the row existing at all means true.
	RulePresence = "presence"
	RuleText     = "text"
	RuleInt      = "int"
)

// Property categories derived from the subtype.
const (
	PropertyApartment = "Apartment"
	PropertyHouse     = "House"
	PropertyOther     = "Other"
)

// FieldRule maps one info-block label to a schema column.
type FieldRule struct {
	Label  string `toml:"label"`
	Column string `toml:"column"`
	Rule   string `toml:"rule"`
}

// Selectors are the CSS selectors used on catalog and detail pages.
type Selectors struct {
	ListingLink string `toml:"listing_link"`
	Price       string `toml:"price"`
	Locality    string `toml:"locality"`
	InfoBlock   string `toml:"info_block"`
	InfoRow     string `toml:"info_row"`
	InfoLabel   string `toml:"info_label"`
	InfoValue   string `toml:"info_value"`
}

// Catalog is the static, read-only description of the source site. It is
// built once by LoadCatalog and never modified afterwards.
type Catalog struct {
	BaseURL           string                `toml:"base_url"`
	Params            string                `toml:"params"`
	Regions           []string              `toml:"regions"`
	PriceBrackets     []models.PriceBracket `toml:"price_brackets"`
	Headers           map[string]string     `toml:"headers"`
	SubtypeSegment    int                   `toml:"subtype_segment"`
	SaleTypeSegment   int                   `toml:"sale_type_segment"`
	DetailMarker      string                `toml:"detail_marker"`
	ProjectMarker     string                `toml:"project_marker"`
	ApartmentSubtypes []string              `toml:"apartment_subtypes"`
	HouseSubtypes     []string              `toml:"house_subtypes"`
	Selectors         Selectors             `toml:"selectors"`
	Fields            []FieldRule           `toml:"fields"`

	fieldIndex map[string]FieldRule
	apartments map[string]struct{}
	houses     map[string]struct{}
}

// LoadCatalog parses the catalog at path, or the embedded default when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %q: %w", path, err)
		}
		data = b
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a TOML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	c.fieldIndex = make(map[string]FieldRule, len(c.Fields))
	for _, f := range c.Fields {
		c.fieldIndex[normaliseLabel(f.Label)] = f
	}
	c.apartments = toSet(c.ApartmentSubtypes)
	c.houses = toSet(c.HouseSubtypes)
	return &c, nil
}

// Validate reports configuration errors that must stop a run before it starts.
func (c *Catalog) Validate() error {
	if _, err := url.Parse(c.BaseURL); err != nil || c.BaseURL == "" {
		return fmt.Errorf("catalog: invalid base_url %q", c.BaseURL)
	}
	if len(c.Regions) == 0 {
		return fmt.Errorf("catalog: regions must not be empty")
	}
	seen := make(map[string]struct{}, len(c.Regions))
	for _, r := range c.Regions {
		if strings.TrimSpace(r) == "" {
			return fmt.Errorf("catalog: empty region name")
		}
		if _, dup := seen[r]; dup {
			return fmt.Errorf("catalog: duplicate region %q", r)
		}
		seen[r] = struct{}{}
	}

	if len(c.PriceBrackets) == 0 {
		return fmt.Errorf("catalog: price_brackets must not be empty")
	}
	for i, b := range c.PriceBrackets {
		if b.Min < 0 || b.Max < 0 {
			return fmt.Errorf("catalog: bracket %d has a negative bound", i)
		}
		if b.Max != 0 && b.Min >= b.Max {
			return fmt.Errorf("catalog: bracket %d has min %d >= max %d", i, b.Min, b.Max)
		}
		if i > 0 {
			prev := c.PriceBrackets[i-1]
			if prev.Max == 0 || b.Min < prev.Max {
				return fmt.Errorf("catalog: bracket %d overlaps bracket %d", i, i-1)
			}
		}
	}

	if c.SubtypeSegment <= 0 || c.SaleTypeSegment <= 0 {
		return fmt.Errorf("catalog: URL segment positions must be positive")
	}
	if c.Selectors.ListingLink == "" {
		return fmt.Errorf("catalog: selectors.listing_link is required")
	}

	labels := make(map[string]struct{}, len(c.Fields))
	for _, f := range c.Fields {
		if !models.IsColumn(f.Column) {
			return fmt.Errorf("catalog: field %q maps to unknown column %q", f.Label, f.Column)
		}
		switch f.Rule {
		case RuleAuto, RulePresence, RuleText, RuleInt:
		default:
			return fmt.Errorf("catalog: field %q has unknown rule %q", f.Label, f.Rule)
		}
		key := normaliseLabel(f.Label)
		if _, dup := labels[key]; dup {
			return fmt.Errorf("catalog: duplicate field label %q", f.Label)
		}
		labels[key] = struct{}{}
	}
	return nil
}

// Field looks up an info-block label, case-insensitively.
func (c *Catalog) Field(label string) (FieldRule, bool) {
	f, ok := c.fieldIndex[normaliseLabel(label)]
	return f, ok
}

// PropertyType classifies a subtype as Apartment, House or Other.
func (c *Catalog) PropertyType(subtype string) string {
	s := strings.ToLower(strings.TrimSpace(subtype))
	if _, ok := c.apartments[s]; ok {
		return PropertyApartment
	}
	if _, ok := c.houses[s]; ok {
		return PropertyHouse
	}
	return PropertyOther
}

func normaliseLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		out[normaliseLabel(it)] = struct{}{}
	}
	return out
}
