// Package store persists customer contact submissions from the
// "Customize Product" form in a local SQLite database. Submissions are
// insert-only: nothing in the process updates or deletes them.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	_ "modernc.org/sqlite" // register "sqlite" driver
)

// ErrInvalidSubmission is returned when a required field is missing.
var ErrInvalidSubmission = errors.New("store: invalid submission")

// ErrNotFound is returned by Get when no submission has the given ID.
var ErrNotFound = errors.New("store: submission not found")

// validate checks Submission struct tags.
var validate = validator.New()

// Submission is one contact request.
type Submission struct {
	// ID is assigned by the store on insert.
	ID int64 `json:"id"`
	// Phone is the customer's phone number.
	Phone string `json:"phone" validate:"required"`
	// Email is the customer's email address.
	Email string `json:"email" validate:"required"`
	// Description is the free-text product request.
	Description string `json:"description" validate:"required"`
	// CreatedAt is set by the store on insert.
	CreatedAt time.Time `json:"created_at"`
}

// SQLiteStore is the contact store backed by SQLite.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns ~/.refubot/contacts.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".refubot")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "contacts.db"), nil
}

// Open opens (or creates) a SQLiteStore at path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// One connection serialises writers and keeps an in-memory database alive.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS user_data (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    phone        TEXT    NOT NULL,
    email        TEXT    NOT NULL,
    description  TEXT    NOT NULL,
    created_at   INTEGER NOT NULL  -- Unix timestamp (seconds)
);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Submit validates sub and inserts it, returning the assigned ID. Missing
// fields yield an error wrapping ErrInvalidSubmission and nothing is written.
func (s *SQLiteStore) Submit(ctx context.Context, sub Submission) (int64, error) {
	if err := validate.Struct(sub); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
	}

	const q = `INSERT INTO user_data (phone, email, description, created_at) VALUES (?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q, sub.Phone, sub.Email, sub.Description, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("store: submit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: submit id: %w", err)
	}
	return id, nil
}

// Get returns the submission with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (Submission, error) {
	const q = `SELECT id, phone, email, description, created_at FROM user_data WHERE id = ?`

	var (
		sub Submission
		ts  int64
	)
	err := s.db.QueryRowContext(ctx, q, id).Scan(&sub.ID, &sub.Phone, &sub.Email, &sub.Description, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return Submission{}, fmt.Errorf("store: get: %w", err)
	}
	sub.CreatedAt = time.Unix(ts, 0)
	return sub, nil
}

// Count returns the number of stored submissions.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_data`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
