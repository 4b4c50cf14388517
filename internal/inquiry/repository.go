package inquiry

import (
	"database/sql"
	"fmt"
	"strings"
)

const maxMessageLen = 2000

// Repository provides data access for inquiries.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an inquiry repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Add records an inquiry from author on a listing.
func (r *Repository) Add(propertyID int64, message, author string) (*Inquiry, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalid)
	}
	if len(message) > maxMessageLen {
		return nil, fmt.Errorf("%w: message must be at most %d characters", ErrInvalid, maxMessageLen)
	}

	result, err := r.db.Exec(
		"INSERT INTO inquiries (property_id, message, author) VALUES (?, ?, ?)",
		propertyID, message, author,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting inquiry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	var q Inquiry
	err = r.db.QueryRow(
		"SELECT id, property_id, message, author, created_at FROM inquiries WHERE id = ?", id,
	).Scan(&q.ID, &q.PropertyID, &q.Message, &q.Author, &q.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reading back inquiry: %w", err)
	}

	return &q, nil
}

// ListByPropertyID returns all inquiries on a listing, newest first.
func (r *Repository) ListByPropertyID(propertyID int64) (inquiries []*Inquiry, err error) {
	rows, err := r.db.Query(
		"SELECT id, property_id, message, author, created_at FROM inquiries WHERE property_id = ? ORDER BY id DESC",
		propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing inquiries: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	inquiries = []*Inquiry{}
	for rows.Next() {
		var q Inquiry
		if err := rows.Scan(&q.ID, &q.PropertyID, &q.Message, &q.Author, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning inquiry: %w", err)
		}
		inquiries = append(inquiries, &q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inquiries: %w", err)
	}

	return inquiries, nil
}

// Delete removes an inquiry from a listing.
func (r *Repository) Delete(propertyID, id int64) error {
	result, err := r.db.Exec("DELETE FROM inquiries WHERE id = ? AND property_id = ?", id, propertyID)
	if err != nil {
		return fmt.Errorf("deleting inquiry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("inquiry %d %w", id, ErrNotFound)
	}

	return nil
}
