// Package valuation estimates a market value for a property listing.
//
// An Estimator asks an external text-completion service for an estimate and
// falls back to a deterministic rule-based model whenever that service is
// unconfigured, unreachable, or replies with something that cannot be parsed.
// Both paths produce the same Result shape.
package valuation

import "strings"

// Category is the broad kind of property being valued.
type Category string

// Known property categories.
const (
	Residential Category = "residential"
	Commercial  Category = "commercial"
	Industrial  Category = "industrial"
	Land        Category = "land"
)

// Attributes describes the property to value. Every field is optional.
type Attributes struct {
	Category   Category `json:"property_type,omitempty"`
	Address    string   `json:"address,omitempty"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	SquareFeet *int64   `json:"square_feet,omitempty"`
	Bedrooms   *float64 `json:"bedrooms,omitempty"`
	Bathrooms  *float64 `json:"bathrooms,omitempty"`
	YearBuilt  *int64   `json:"year_built,omitempty"`
	Price      *float64 `json:"price,omitempty"`
	LotSize    *float64 `json:"lot_size,omitempty"`
	Amenities  []string `json:"amenities,omitempty"`
}

// resolved is Attributes with every default applied. Both estimation paths
// read from it so defaults are decided in one place.
type resolved struct {
	category   Category
	address    string
	city       string
	state      string
	squareFeet int64
	hasArea    bool
	bedrooms   float64
	bathrooms  float64
	yearBuilt  int64
	price      float64
	lotSize    float64
	amenities  []string
}

func (a Attributes) resolve() resolved {
	r := resolved{
		category: a.Category,
		address:  strings.TrimSpace(a.Address),
		city:     strings.TrimSpace(a.City),
		state:    strings.TrimSpace(a.State),
	}
	if r.category == "" {
		r.category = Residential
	}
	if a.SquareFeet != nil {
		r.squareFeet = *a.SquareFeet
		r.hasArea = true
	}
	if a.Bedrooms != nil {
		r.bedrooms = *a.Bedrooms
	}
	if a.Bathrooms != nil {
		r.bathrooms = *a.Bathrooms
	}
	if a.YearBuilt != nil {
		r.yearBuilt = *a.YearBuilt
	}
	if a.Price != nil {
		r.price = *a.Price
	}
	if a.LotSize != nil {
		r.lotSize = *a.LotSize
	}
	for _, am := range a.Amenities {
		if s := strings.TrimSpace(am); s != "" {
			r.amenities = append(r.amenities, s)
		}
	}
	return r
}
