package property

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/ortrealty/ort/internal/valuation"
)

// Paging defaults for List and Search.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Valuer estimates a market value for a property.
type Valuer interface {
	Estimate(ctx context.Context, a valuation.Attributes) (valuation.Result, error)
}

// Actor is the authenticated user performing a change.
type Actor struct {
	Email string
	Admin bool
}

func (a Actor) owns(p *Property) bool {
	return a.Admin || (a.Email != "" && strings.EqualFold(a.Email, p.OwnerEmail))
}

// CreateInput is a new listing as submitted by its owner.
type CreateInput struct {
	Title        string   `json:"title" validate:"required,min=5,max=255"`
	Description  string   `json:"description"`
	PropertyType Type     `json:"property_type" validate:"required,oneof=residential commercial industrial land"`
	Status       Status   `json:"status" validate:"omitempty,oneof=for_sale for_rent sold rented off_market"`
	Price        float64  `json:"price" validate:"gt=0"`
	Address      string   `json:"address" validate:"required"`
	City         string   `json:"city" validate:"required"`
	State        string   `json:"state"`
	ZipCode      string   `json:"zip_code"`
	Country      string   `json:"country"`
	Latitude     *float64 `json:"latitude,omitempty" validate:"omitnil,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude,omitempty" validate:"omitnil,gte=-180,lte=180"`
	Bedrooms     *int64   `json:"bedrooms,omitempty" validate:"omitnil,gte=0"`
	Bathrooms    *float64 `json:"bathrooms,omitempty" validate:"omitnil,gte=0"`
	SquareFeet   *int64   `json:"square_feet,omitempty" validate:"omitnil,gte=0"`
	LotSize      *float64 `json:"lot_size,omitempty" validate:"omitnil,gte=0"`
	YearBuilt    *int64   `json:"year_built,omitempty"`
	Amenities    []string `json:"amenities"`
	IsFeatured   bool     `json:"is_featured"`
}

// Service provides listing operations on top of the repository.
type Service struct {
	repo     *Repository
	valuer   Valuer
	validate *validator.Validate
}

// NewService creates a property service. valuer may be nil, in which case
// Valuate is unavailable.
func NewService(repo *Repository, valuer Valuer) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Service{repo: repo, valuer: valuer, validate: v}
}

// Create stores a new listing owned by owner.
func (s *Service) Create(owner string, in CreateInput) (*Property, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalid)
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := s.check(in); err != nil {
		return nil, err
	}

	p := &Property{
		Title:        in.Title,
		Description:  in.Description,
		PropertyType: in.PropertyType,
		Status:       lo.Ternary(in.Status == "", ForSale, in.Status),
		Price:        in.Price,
		Address:      strings.TrimSpace(in.Address),
		City:         strings.TrimSpace(in.City),
		State:        strings.TrimSpace(in.State),
		ZipCode:      strings.TrimSpace(in.ZipCode),
		Country:      lo.Ternary(strings.TrimSpace(in.Country) == "", "USA", strings.TrimSpace(in.Country)),
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Bedrooms:     in.Bedrooms,
		Bathrooms:    in.Bathrooms,
		SquareFeet:   in.SquareFeet,
		LotSize:      in.LotSize,
		YearBuilt:    in.YearBuilt,
		Amenities:    NormalizeAmenities(in.Amenities),
		OwnerEmail:   owner,
		IsFeatured:   in.IsFeatured,
	}

	saved, err := s.repo.Insert(p)
	if err != nil {
		return nil, fmt.Errorf("saving property: %w", err)
	}
	return saved, nil
}

// Get returns an active listing and counts the view.
func (s *Service) Get(id int64) (*Property, error) {
	if err := s.repo.IncrementViews(id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(id)
}

// Lookup returns an active listing without counting a view.
func (s *Service) Lookup(id int64) (*Property, error) {
	return s.repo.GetByID(id)
}

// Exists reports an error wrapping ErrNotFound unless id is an active
// listing. Views are not counted.
func (s *Service) Exists(id int64) error {
	_, err := s.Lookup(id)
	return err
}

// List returns active listings, newest first. The limit defaults to 20 and
// may not exceed 100.
func (s *Service) List(opts ListOptions) ([]*Property, error) {
	if opts.Skip < 0 {
		return nil, fmt.Errorf("%w: skip must not be negative", ErrInvalid)
	}
	if opts.Limit > MaxLimit {
		return nil, fmt.Errorf("%w: limit must be at most %d", ErrInvalid, MaxLimit)
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	return s.repo.List(opts)
}

// Search returns one page of listings matching opts.
func (s *Service) Search(opts SearchOptions) ([]*Property, error) {
	if err := s.check(opts); err != nil {
		return nil, err
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Page == 0 {
		opts.Page = 1
	}
	return s.repo.Search(opts)
}

// Update changes a listing. Only its owner or an admin may update it.
// Inactive listings can be updated, which is how they are restored.
func (s *Service) Update(actor Actor, id int64, in UpdateInput) (*Property, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}

	p, err := s.repo.Find(id)
	if err != nil {
		return nil, err
	}
	if !actor.owns(p) {
		return nil, ErrForbidden
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}
	if in.Amenities != nil {
		amenities := NormalizeAmenities(*in.Amenities)
		in.Amenities = &amenities
	}
	if err := s.repo.Update(id, in); err != nil {
		return nil, err
	}
	return s.repo.Find(id)
}

// Delete soft-deletes a listing. Only its owner or an admin may delete it.
func (s *Service) Delete(actor Actor, id int64) error {
	if err := s.Authorize(actor, id); err != nil {
		return err
	}
	return s.repo.SoftDelete(id)
}

// Authorize checks that actor may manage listing id and its inquiries and
// appointments.
func (s *Service) Authorize(actor Actor, id int64) error {
	p, err := s.repo.Find(id)
	if err != nil {
		return err
	}
	if !actor.owns(p) {
		return ErrForbidden
	}
	return nil
}

// Valuate estimates the market value of an active listing and records the
// estimate on it. A cancelled ctx yields an error wrapping
// valuation.ErrCancelled.
func (s *Service) Valuate(ctx context.Context, id int64) (*Valuation, error) {
	if s.valuer == nil {
		return nil, errors.New("valuation is not configured")
	}

	p, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	res, err := s.valuer.Estimate(ctx, p.ValuationAttributes())
	if err != nil {
		return nil, fmt.Errorf("valuing property %d: %w", id, err)
	}

	if res.EstimatedValue != nil {
		if err := s.repo.SetValuation(id, *res.EstimatedValue); err != nil {
			slog.Warn("saving valuation", "property_id", id, "err", err)
		}
	}

	return &Valuation{
		PropertyID:   p.ID,
		CurrentPrice: p.Price,
		Valuation:    res,
	}, nil
}

// NormalizeAmenities trims entries, drops blanks, and removes
// case-insensitive duplicates while keeping the first spelling.
func NormalizeAmenities(in []string) []string {
	trimmed := lo.Compact(lo.Map(in, func(a string, _ int) string {
		return strings.TrimSpace(a)
	}))
	return lo.UniqBy(trimmed, strings.ToLower)
}

func (s *Service) check(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := lo.Map(fieldErrs, func(fe validator.FieldError, _ int) string {
		return fieldMessage(fe)
	})
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}
