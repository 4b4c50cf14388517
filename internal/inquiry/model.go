// Package inquiry provides buyer inquiries on listings and their data access.
package inquiry

import (
	"errors"
	"time"
)

// Errors returned by the repository.
var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid inquiry")
)

// Inquiry is a question or message a user sends about a listing.
type Inquiry struct {
	ID         int64     `json:"id"`
	PropertyID int64     `json:"property_id"`
	Message    string    `json:"message"`
	Author     string    `json:"author"`
	CreatedAt  time.Time `json:"created_at"`
}
