package property

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Repository provides data access for listings.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a property repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO properties
	(title, description, property_type, status, price,
	 address, city, state, zip_code, country, latitude, longitude,
	 bedrooms, bathrooms, square_feet, lot_size, year_built,
	 amenities, owner_email, is_featured)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Insert adds a new listing and returns it with its generated ID.
func (r *Repository) Insert(p *Property) (*Property, error) {
	amenities, err := encodeAmenities(p.Amenities)
	if err != nil {
		return nil, err
	}

	result, err := r.db.Exec(insertSQL,
		p.Title, p.Description, string(p.PropertyType), string(p.Status), p.Price,
		p.Address, p.City, p.State, p.ZipCode, p.Country, p.Latitude, p.Longitude,
		p.Bedrooms, p.Bathrooms, p.SquareFeet, p.LotSize, p.YearBuilt,
		amenities, p.OwnerEmail, p.IsFeatured,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting property: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns an active listing by its ID.
func (r *Repository) GetByID(id int64) (*Property, error) {
	return r.get(id, true)
}

// Find returns a listing by ID whether or not it is active.
func (r *Repository) Find(id int64) (*Property, error) {
	return r.get(id, false)
}

func (r *Repository) get(id int64, activeOnly bool) (*Property, error) {
	query := fmt.Sprintf("SELECT %s FROM properties WHERE id = ?", selectColumns)
	if activeOnly {
		query += " AND is_active = 1"
	}

	p, err := scanProperty(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("property %d %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying property %d: %w", id, err)
	}

	return p, nil
}

// ListOptions filters List. Zero values mean "no filter".
type ListOptions struct {
	PropertyType Type
	MinPrice     *float64
	MaxPrice     *float64
	City         string
	Skip         int
	Limit        int
}

// List returns active listings, newest first.
func (r *Repository) List(opts ListOptions) ([]*Property, error) {
	var w where
	w.add(opts.PropertyType != "", "property_type = ?", string(opts.PropertyType))
	if opts.MinPrice != nil {
		w.add(true, "price >= ?", *opts.MinPrice)
	}
	if opts.MaxPrice != nil {
		w.add(true, "price <= ?", *opts.MaxPrice)
	}
	w.add(opts.City != "", "LOWER(city) = LOWER(?)", opts.City)

	query := fmt.Sprintf("SELECT %s FROM properties%s ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		selectColumns, w.clause())
	args := append(w.args, sqlLimit(opts.Limit), opts.Skip)

	return r.query(query, args...)
}

// SearchOptions filters and orders Search. Page is 1-based.
type SearchOptions struct {
	MinPrice     *float64 `json:"min_price,omitempty" validate:"omitnil,gte=0"`
	MaxPrice     *float64 `json:"max_price,omitempty" validate:"omitnil,gte=0"`
	PropertyType Type     `json:"property_type,omitempty" validate:"omitempty,oneof=residential commercial industrial land"`
	BedroomsMin  *int64   `json:"bedrooms_min,omitempty" validate:"omitnil,gte=0"`
	BedroomsMax  *int64   `json:"bedrooms_max,omitempty" validate:"omitnil,gte=0"`
	City         string   `json:"city,omitempty"`
	State        string   `json:"state,omitempty"`
	Page         int      `json:"page,omitempty" validate:"gte=0"`
	Limit        int      `json:"limit,omitempty" validate:"gte=0,lte=100"`
	SortBy       string   `json:"sort_by,omitempty"`
	SortOrder    string   `json:"sort_order,omitempty" validate:"omitempty,oneof=asc desc"`
}

// sortColumns are the columns Search may order by.
var sortColumns = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"price":       true,
	"title":       true,
	"bedrooms":    true,
	"bathrooms":   true,
	"square_feet": true,
	"year_built":  true,
	"views_count": true,
}

// Search returns one page of active listings matching opts. Unknown sort
// columns fall back to created_at.
func (r *Repository) Search(opts SearchOptions) ([]*Property, error) {
	var w where
	if opts.MinPrice != nil {
		w.add(true, "price >= ?", *opts.MinPrice)
	}
	if opts.MaxPrice != nil {
		w.add(true, "price <= ?", *opts.MaxPrice)
	}
	w.add(opts.PropertyType != "", "property_type = ?", string(opts.PropertyType))
	if opts.BedroomsMin != nil {
		w.add(true, "bedrooms >= ?", *opts.BedroomsMin)
	}
	if opts.BedroomsMax != nil {
		w.add(true, "bedrooms <= ?", *opts.BedroomsMax)
	}
	w.add(opts.City != "", "LOWER(city) = LOWER(?)", opts.City)
	w.add(opts.State != "", "LOWER(state) = LOWER(?)", opts.State)

	sortBy := opts.SortBy
	if !sortColumns[sortBy] {
		sortBy = "created_at"
	}
	order := "DESC"
	if opts.SortOrder == "asc" {
		order = "ASC"
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	offset := 0
	if opts.Limit > 0 {
		offset = (page - 1) * opts.Limit
	}

	query := fmt.Sprintf("SELECT %s FROM properties%s ORDER BY %s %s, id %s LIMIT ? OFFSET ?",
		selectColumns, w.clause(), sortBy, order, order)
	args := append(w.args, sqlLimit(opts.Limit), offset)

	return r.query(query, args...)
}

// UpdateInput holds the listing fields that may change after creation.
// Nil fields are left unchanged.
type UpdateInput struct {
	Title       *string   `json:"title,omitempty" validate:"omitnil,min=5,max=255"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty" validate:"omitnil,gt=0"`
	Status      *Status   `json:"status,omitempty" validate:"omitnil,oneof=for_sale for_rent sold rented off_market"`
	Bedrooms    *int64    `json:"bedrooms,omitempty" validate:"omitnil,gte=0"`
	Bathrooms   *float64  `json:"bathrooms,omitempty" validate:"omitnil,gte=0"`
	SquareFeet  *int64    `json:"square_feet,omitempty" validate:"omitnil,gte=0"`
	Amenities   *[]string `json:"amenities,omitempty"`
	IsActive    *bool     `json:"is_active,omitempty"`
}

// Update applies the non-nil fields of in to listing id.
func (r *Repository) Update(id int64, in UpdateInput) error {
	var sets []string
	var args []interface{}
	set := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if in.Title != nil {
		set("title", *in.Title)
	}
	if in.Description != nil {
		set("description", *in.Description)
	}
	if in.Price != nil {
		set("price", *in.Price)
	}
	if in.Status != nil {
		set("status", string(*in.Status))
	}
	if in.Bedrooms != nil {
		set("bedrooms", *in.Bedrooms)
	}
	if in.Bathrooms != nil {
		set("bathrooms", *in.Bathrooms)
	}
	if in.SquareFeet != nil {
		set("square_feet", *in.SquareFeet)
	}
	if in.Amenities != nil {
		amenities, err := encodeAmenities(*in.Amenities)
		if err != nil {
			return err
		}
		set("amenities", amenities)
	}
	if in.IsActive != nil {
		set("is_active", *in.IsActive)
	}
	if len(sets) == 0 {
		return nil
	}

	query := "UPDATE properties SET " + strings.Join(sets, ", ") + ", updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	args = append(args, id)
	return r.execOne(fmt.Sprintf("updating property %d", id), id, query, args...)
}

// IncrementViews adds one to the view counter of an active listing.
func (r *Repository) IncrementViews(id int64) error {
	return r.execOne("incrementing views", id,
		"UPDATE properties SET views_count = views_count + 1 WHERE id = ? AND is_active = 1", id)
}

// SoftDelete marks a listing inactive. Inactive listings are hidden from
// GetByID, List, and Search.
func (r *Repository) SoftDelete(id int64) error {
	return r.execOne("deleting property", id,
		"UPDATE properties SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id)
}

// SetValuation stores the most recent estimated value for a listing.
func (r *Repository) SetValuation(id int64, value float64) error {
	return r.execOne("saving valuation", id,
		"UPDATE properties SET ai_valuation = ? WHERE id = ?", value, id)
}

func (r *Repository) execOne(action string, id int64, query string, args ...interface{}) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("property %d %w", id, ErrNotFound)
	}

	return nil
}

func (r *Repository) query(query string, args ...interface{}) (props []*Property, err error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	props = []*Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		props = append(props, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}

	return props, nil
}

// where accumulates AND-ed conditions, always restricted to active rows.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(ok bool, cond string, arg interface{}) {
	if !ok {
		return
	}
	w.conds = append(w.conds, cond)
	w.args = append(w.args, arg)
}

func (w *where) clause() string {
	return " WHERE " + strings.Join(append([]string{"is_active = 1"}, w.conds...), " AND ")
}

// sqlLimit maps a non-positive limit to SQLite's "no limit".
func sqlLimit(n int) int {
	if n <= 0 {
		return -1
	}
	return n
}

func encodeAmenities(a []string) (string, error) {
	if a == nil {
		a = []string{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("encoding amenities: %w", err)
	}
	return string(b), nil
}
