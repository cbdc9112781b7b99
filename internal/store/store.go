// Package store persists suppliers, projects and saved calculations in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a project or calculation does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned when a record fails validation before it is written.
	ErrInvalid = errors.New("invalid record")
)

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02 15:04:05.000000000"

// Store wraps the application database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New returns a Store backed by db.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

// parseTimestamp accepts the layouts the sqlite driver may hand back for
// DATETIME columns.
func parseTimestamp(raw string) (time.Time, error) {
	layouts := []string{
		timeLayout,
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q", raw)
}
