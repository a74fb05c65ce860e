package models

import (
	"strconv"
)

// Schema column names, in the order they are persisted.
const (
	ColLocality             = "locality"
	ColPropertyType         = "property_type"
	ColSubtype              = "subtype"
	ColPriceEUR             = "price_eur"
	ColTypeOfSale           = "type_of_sale"
	ColNumRooms             = "num_rooms"
	ColLivingAreaM2         = "living_area_m2"
	ColFullyEquippedKitchen = "fully_equipped_kitchen"
	ColFurnished            = "furnished"
	ColTerrace              = "terrace"
	ColTerraceAreaM2        = "terrace_area_m2"
	ColGarden               = "garden"
	ColGardenAreaM2         = "garden_area_m2"
	ColLandSurfaceM2        = "land_surface_m2"
	ColPlotSurfaceM2        = "plot_surface_m2"
	ColNumFacades           = "num_facades"
	ColSwimmingPool         = "swimming_pool"
	ColStateOfBuilding      = "state_of_building"
)

var columns = [...]string{
	ColLocality,
	ColPropertyType,
	ColSubtype,
	ColPriceEUR,
	ColTypeOfSale,
	ColNumRooms,
	ColLivingAreaM2,
	ColFullyEquippedKitchen,
	ColFurnished,
	ColTerrace,
	ColTerraceAreaM2,
	ColGarden,
	ColGardenAreaM2,
	ColLandSurfaceM2,
	ColPlotSurfaceM2,
	ColNumFacades,
	ColSwimmingPool,
	ColStateOfBuilding,
}

// Columns returns the fixed, ordered schema column list.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns[:])
	return out
}

// IsColumn reports whether name is a schema column.
func IsColumn(name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}

// Kind tags the scalar type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindBool
)

// Value is an optional scalar: null, text, integer or boolean.
// The zero Value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	b    bool
}

func NullValue() Value { return Value{} }

func StringValue(s string) Value { return Value{kind: KindString, s: s} }

func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// Format renders the value for tabular output: booleans as True/False,
// integers in decimal, null as nullMarker.
func (v Value) Format(nullMarker string) string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	default:
		return nullMarker
	}
}

// Interface returns nil, string, int64 or bool.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// ListingRecord is one extracted detail page. Every schema field is always
// present; a field extraction did not find is null.
type ListingRecord struct {
	SourceURL string

	Locality             Value
	PropertyType         Value
	Subtype              Value
	PriceEUR             Value
	TypeOfSale           Value
	NumRooms             Value
	LivingAreaM2         Value
	FullyEquippedKitchen Value
	Furnished            Value
	Terrace              Value
	TerraceAreaM2        Value
	Garden               Value
	GardenAreaM2         Value
	LandSurfaceM2        Value
	PlotSurfaceM2        Value
	NumFacades           Value
	SwimmingPool         Value
	StateOfBuilding      Value
}

// NewListingRecord returns an all-null record for url.
func NewListingRecord(url string) *ListingRecord {
	return &ListingRecord{SourceURL: url}
}

func (r *ListingRecord) field(col string) *Value {
	switch col {
	case ColLocality:
		return &r.Locality
	case ColPropertyType:
		return &r.PropertyType
	case ColSubtype:
		return &r.Subtype
	case ColPriceEUR:
		return &r.PriceEUR
	case ColTypeOfSale:
		return &r.TypeOfSale
	case ColNumRooms:
		return &r.NumRooms
	case ColLivingAreaM2:
		return &r.LivingAreaM2
	case ColFullyEquippedKitchen:
		return &r.FullyEquippedKitchen
	case ColFurnished:
		return &r.Furnished
	case ColTerrace:
		return &r.Terrace
	case ColTerraceAreaM2:
		return &r.TerraceAreaM2
	case ColGarden:
		return &r.Garden
	case ColGardenAreaM2:
		return &r.GardenAreaM2
	case ColLandSurfaceM2:
		return &r.LandSurfaceM2
	case ColPlotSurfaceM2:
		return &r.PlotSurfaceM2
	case ColNumFacades:
		return &r.NumFacades
	case ColSwimmingPool:
		return &r.SwimmingPool
	case ColStateOfBuilding:
		return &r.StateOfBuilding
	}
	return nil
}

// Set writes v into the named column. It returns false for unknown columns.
func (r *ListingRecord) Set(col string, v Value) bool {
	f := r.field(col)
	if f == nil {
		return false
	}
	*f = v
	return true
}

// Get reads the named column.
func (r *ListingRecord) Get(col string) (Value, bool) {
	f := r.field(col)
	if f == nil {
		return Value{}, false
	}
	return *f, true
}

// Values returns the record's values in Columns order.
func (r *ListingRecord) Values() []Value {
	out := make([]Value, len(columns))
	for i, c := range columns {
		out[i] = *r.field(c)
	}
	return out
}
