package appointment

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const selectColumns = "id, property_id, appointment_date, appointment_type, notes, agent, created_at"

// Repository provides data access for appointments.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an appointment repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Add schedules a new appointment at a listing.
func (r *Repository) Add(propertyID int64, date string, typ Type, notes, agent string) (*Appointment, error) {
	if !typ.IsValid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalid, typ)
	}

	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD: %v", ErrInvalid, err)
	}

	result, err := r.db.Exec(
		"INSERT INTO appointments (property_id, appointment_date, appointment_type, notes, agent) VALUES (?, ?, ?, ?, ?)",
		propertyID, date, string(typ), strings.TrimSpace(notes), strings.TrimSpace(agent),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting appointment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	a, err := scan(r.db.QueryRow("SELECT "+selectColumns+" FROM appointments WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("reading back appointment: %w", err)
	}

	return a, nil
}

// ListByPropertyID returns all appointments at a listing, latest date first.
func (r *Repository) ListByPropertyID(propertyID int64) (appts []*Appointment, err error) {
	rows, err := r.db.Query(
		"SELECT "+selectColumns+" FROM appointments WHERE property_id = ? ORDER BY appointment_date DESC, id DESC",
		propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	appts = []*Appointment{}
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning appointment: %w", err)
		}
		appts = append(appts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating appointments: %w", err)
	}

	return appts, nil
}

// Delete cancels an appointment at a listing.
func (r *Repository) Delete(propertyID, id int64) error {
	result, err := r.db.Exec("DELETE FROM appointments WHERE id = ? AND property_id = ?", id, propertyID)
	if err != nil {
		return fmt.Errorf("deleting appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("appointment %d %w", id, ErrNotFound)
	}

	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scan(s scanner) (*Appointment, error) {
	var a Appointment
	var typ string
	if err := s.Scan(&a.ID, &a.PropertyID, &a.Date, &typ, &a.Notes, &a.Agent, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Type = Type(typ)
	return &a, nil
}
