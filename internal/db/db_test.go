package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "creates new database",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "ort.db")
			},
		},
		{
			name: "creates nested directories",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "a", "b", "ort.db")
			},
		},
		{
			name: "opens existing database",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "ort.db")
				d, err := Open(path)
				if err != nil {
					t.Fatalf("setup: %v", err)
				}
				if err := d.Close(); err != nil {
					t.Fatalf("setup close: %v", err)
				}
				return path
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)
			d, err := Open(path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer func() {
				if err := d.Close(); err != nil {
					t.Errorf("close: %v", err)
				}
			}()

			if _, err := os.Stat(path); os.IsNotExist(err) {
				t.Error("database file was not created")
			}
		})
	}
}

func TestWALMode(t *testing.T) {
	d := openTestDB(t)

	var mode string
	if err := d.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestForeignKeys(t *testing.T) {
	d := openTestDB(t)

	var fk int
	if err := d.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestMigrations(t *testing.T) {
	tests := []struct {
		name  string
		table string
		cols  []string
	}{
		{
			name:  "properties table exists",
			table: "properties",
			cols: []string{
				"id", "title", "description", "property_type", "status", "price",
				"address", "city", "state", "zip_code", "country",
				"bedrooms", "bathrooms", "square_feet", "lot_size", "year_built",
				"amenities", "ai_valuation", "owner_email", "is_active", "views_count",
				"created_at", "updated_at", "latitude", "longitude", "is_featured",
			},
		},
		{
			name:  "inquiries table exists",
			table: "inquiries",
			cols:  []string{"id", "property_id", "message", "author", "created_at"},
		},
		{
			name:  "appointments table exists",
			table: "appointments",
			cols:  []string{"id", "property_id", "appointment_date", "appointment_type", "notes", "agent", "created_at"},
		},
		{
			name:  "auth_tokens table exists",
			table: "auth_tokens",
			cols:  []string{"id", "token", "email", "expires_at", "used", "created_at"},
		},
		{
			name:  "passkey_credentials table exists",
			table: "passkey_credentials",
			cols:  []string{"id", "email", "name", "credential_json", "created_at"},
		},
		{
			name:  "api_keys table exists",
			table: "api_keys",
			cols:  []string{"id", "name", "email", "key_prefix", "key_hash", "created_at", "last_used_at"},
		},
		{
			name:  "users table exists",
			table: "users",
			cols:  []string{"id", "email", "name", "role", "created_at", "phone"},
		},
	}

	d := openTestDB(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := tableColumns(t, d, tt.table)
			if len(cols) != len(tt.cols) {
				t.Fatalf("got %d columns, want %d: %v", len(cols), len(tt.cols), cols)
			}
			for i, want := range tt.cols {
				if cols[i] != want {
					t.Errorf("column %d = %q, want %q", i, cols[i], want)
				}
			}
		})
	}
}

func TestPropertyConstraints(t *testing.T) {
	d := openTestDB(t)

	insert := `INSERT INTO properties (title, price, property_type, status, owner_email) VALUES (?, ?, ?, ?, ?)`

	tests := []struct {
		name         string
		price        float64
		propertyType string
		status       string
		wantErr      bool
	}{
		{"valid listing", 250000, "residential", "for_sale", false},
		{"land for rent", 1200, "land", "for_rent", false},
		{"zero price is invalid", 0, "residential", "for_sale", true},
		{"negative price is invalid", -1, "commercial", "sold", true},
		{"unknown type is invalid", 100, "castle", "for_sale", true},
		{"unknown status is invalid", 100, "industrial", "pending", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Exec(insert, "Constraint test", tt.price, tt.propertyType, tt.status, "owner@example.com")
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCascadeDelete(t *testing.T) {
	d := openTestDB(t)

	res, err := d.Exec(
		`INSERT INTO properties (title, price, owner_email) VALUES (?, ?, ?)`,
		"Cascade Cottage", 300000, "owner@example.com",
	)
	if err != nil {
		t.Fatalf("insert property: %v", err)
	}
	propID, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("last insert id: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := d.Exec(`INSERT INTO inquiries (property_id, message) VALUES (?, ?)`, propID, fmt.Sprintf("inquiry %d", i)); err != nil {
			t.Fatalf("insert inquiry %d: %v", i, err)
		}
	}
	if _, err := d.Exec(
		`INSERT INTO appointments (property_id, appointment_date, appointment_type) VALUES (?, ?, ?)`,
		propID, "2026-11-02", "showing",
	); err != nil {
		t.Fatalf("insert appointment: %v", err)
	}

	if _, err := d.Exec(`DELETE FROM properties WHERE id = ?`, propID); err != nil {
		t.Fatalf("delete property: %v", err)
	}

	for _, table := range []string{"inquiries", "appointments"} {
		var count int
		if err := d.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE property_id = ?`, table), propID).Scan(&count); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("expected 0 %s after cascade delete, got %d", table, count)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ort.db")

	// Open twice; migrations should not fail on second run
	d1, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := d1.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}

	d2, err := Open(path)
	if err != nil {
		t.Fatalf("second open (idempotency): %v", err)
	}
	if err := d2.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestDefaultPath(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgDir)

	p, err := DefaultPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(cfgDir, "ort", "ort.db"); runtime.GOOS == "linux" && p != want {
		t.Errorf("path = %s, want %s", p, want)
	}

	if filepath.Base(p) != "ort.db" {
		t.Errorf("expected filename ort.db, got %s", filepath.Base(p))
	}

	dir := filepath.Base(filepath.Dir(p))
	if dir != "ort" {
		t.Errorf("expected directory ort, got %s", dir)
	}
}

// openTestDB creates a temporary database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ort.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close test db: %v", err)
		}
	})
	return d
}

// tableColumns returns column names for a table using PRAGMA table_info.
func tableColumns(t *testing.T, d *sql.DB, table string) []string {
	t.Helper()
	rows, err := d.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		t.Fatalf("pragma table_info(%s): %v", table, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			t.Errorf("close rows: %v", err)
		}
	}()

	var cols []string
	for rows.Next() {
		var cid int
		var name, typ string
		var notnull int
		var dflt *string
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			t.Fatalf("scan: %v", err)
		}
		cols = append(cols, name)
	}
	return cols
}
