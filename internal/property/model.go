// Package property provides the listing domain model, data access, and
// listing operations such as search and valuation.
package property

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/ortrealty/ort/internal/valuation"
)

// Errors returned by the repository and service.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("not allowed to modify this property")
	ErrInvalid   = errors.New("invalid property")
)

// Type is the kind of property listed.
type Type string

// Property types.
const (
	Residential Type = "residential"
	Commercial  Type = "commercial"
	Industrial  Type = "industrial"
	Land        Type = "land"
)

// Status is the market status of a listing.
type Status string

// Listing statuses.
const (
	ForSale   Status = "for_sale"
	ForRent   Status = "for_rent"
	Sold      Status = "sold"
	Rented    Status = "rented"
	OffMarket Status = "off_market"
)

// Property is a listing record.
type Property struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	PropertyType Type      `json:"property_type"`
	Status       Status    `json:"status"`
	Price        float64   `json:"price"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	ZipCode      string    `json:"zip_code"`
	Country      string    `json:"country"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	Bedrooms     *int64    `json:"bedrooms,omitempty"`
	Bathrooms    *float64  `json:"bathrooms,omitempty"`
	SquareFeet   *int64    `json:"square_feet,omitempty"`
	LotSize      *float64  `json:"lot_size,omitempty"`
	YearBuilt    *int64    `json:"year_built,omitempty"`
	Amenities    []string  `json:"amenities"`
	AIValuation  *float64  `json:"ai_valuation,omitempty"`
	OwnerEmail   string    `json:"owner_email"`
	IsFeatured   bool      `json:"is_featured"`
	IsActive     bool      `json:"is_active"`
	ViewsCount   int64     `json:"views_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ValuationAttributes returns the attributes the valuation engine reads.
func (p *Property) ValuationAttributes() valuation.Attributes {
	a := valuation.Attributes{
		Category:   valuation.Category(p.PropertyType),
		Address:    p.Address,
		City:       p.City,
		State:      p.State,
		SquareFeet: p.SquareFeet,
		Bathrooms:  p.Bathrooms,
		YearBuilt:  p.YearBuilt,
		LotSize:    p.LotSize,
		Amenities:  p.Amenities,
	}
	price := p.Price
	a.Price = &price
	if p.Bedrooms != nil {
		beds := float64(*p.Bedrooms)
		a.Bedrooms = &beds
	}
	return a
}

// Valuation is the response to a valuation request for a stored listing.
type Valuation struct {
	PropertyID   int64            `json:"property_id"`
	CurrentPrice float64          `json:"current_price"`
	Valuation    valuation.Result `json:"valuation"`
}

const selectColumns = `id, title, description, property_type, status, price,
	address, city, state, zip_code, country, latitude, longitude,
	bedrooms, bathrooms, square_feet, lot_size, year_built,
	amenities, ai_valuation, owner_email, is_featured, is_active, views_count,
	created_at, updated_at`

// scanProperty scans a property from a database row.
func scanProperty(row interface{ Scan(...interface{}) error }) (*Property, error) {
	var p Property
	var latitude, longitude, bathrooms, lotSize, aiValuation sql.NullFloat64
	var bedrooms, sqft, yearBuilt sql.NullInt64
	var propertyType, status, amenities string

	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &propertyType, &status, &p.Price,
		&p.Address, &p.City, &p.State, &p.ZipCode, &p.Country, &latitude, &longitude,
		&bedrooms, &bathrooms, &sqft, &lotSize, &yearBuilt,
		&amenities, &aiValuation, &p.OwnerEmail, &p.IsFeatured, &p.IsActive, &p.ViewsCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.PropertyType = Type(propertyType)
	p.Status = Status(status)
	if latitude.Valid {
		p.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		p.Longitude = &longitude.Float64
	}
	if bedrooms.Valid {
		p.Bedrooms = &bedrooms.Int64
	}
	if bathrooms.Valid {
		p.Bathrooms = &bathrooms.Float64
	}
	if sqft.Valid {
		p.SquareFeet = &sqft.Int64
	}
	if lotSize.Valid {
		p.LotSize = &lotSize.Float64
	}
	if yearBuilt.Valid {
		p.YearBuilt = &yearBuilt.Int64
	}
	if aiValuation.Valid {
		p.AIValuation = &aiValuation.Float64
	}
	if err := json.Unmarshal([]byte(amenities), &p.Amenities); err != nil || p.Amenities == nil {
		p.Amenities = []string{}
	}

	return &p, nil
}
