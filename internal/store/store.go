package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed migrations/schema.sql
var schemaSQL string

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("store: not found")
	// ErrAlreadyExists is returned when an insert violates a unique index
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrInvalidTransition is returned when a guarded status update matches no row
	ErrInvalidTransition = errors.New("store: invalid status transition")
)

const uniqueViolation = "23505"

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Migrate applies the embedded schema. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// IsEventProcessed checks if an event has been processed by a consumer
func (s *Store) IsEventProcessed(ctx context.Context, eventID, consumer string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1 AND consumer = $2)", eventID, consumer)
	return exists, err
}

// MarkEventProcessed marks an event as processed by a consumer
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType, consumer string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type, consumer) VALUES ($1, $2, $3) ON CONFLICT (event_id, consumer) DO NOTHING",
		eventID, eventType, consumer)
	return err
}

// isUniqueViolation reports whether err is a Postgres unique_violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// translate maps driver errors onto store sentinels
func translate(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	}
	return err
}
