// Package appointment provides scheduled listing appointments and their
// data access.
package appointment

import (
	"errors"
	"time"
)

// Errors returned by the repository.
var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid appointment")
)

// DateLayout is the format of Appointment.Date.
const DateLayout = "2006-01-02"

// Type is the kind of appointment.
type Type string

const (
	Showing    Type = "showing"
	OpenHouse  Type = "open_house"
	Inspection Type = "inspection"
	Appraisal  Type = "appraisal"
)

// ValidTypes is the set of allowed appointment types.
var ValidTypes = []Type{Showing, OpenHouse, Inspection, Appraisal}

// IsValid checks if an appointment type is recognized.
func (t Type) IsValid() bool {
	for _, v := range ValidTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable label for the appointment type.
func (t Type) Label() string {
	switch t {
	case Showing:
		return "Showing"
	case OpenHouse:
		return "Open House"
	case Inspection:
		return "Inspection"
	case Appraisal:
		return "Appraisal"
	default:
		return string(t)
	}
}

// Appointment is a scheduled event at a listing.
type Appointment struct {
	ID         int64     `json:"id"`
	PropertyID int64     `json:"property_id"`
	Date       string    `json:"appointment_date"` // YYYY-MM-DD
	Type       Type      `json:"appointment_type"`
	Notes      string    `json:"notes"`
	Agent      string    `json:"agent"`
	CreatedAt  time.Time `json:"created_at"`
}
