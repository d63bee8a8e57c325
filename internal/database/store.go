package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"compost-backend/internal/compost"
)

// Store is the Postgres-backed storage collaborator. Its methods are grouped by table in
// units.go, readings.go, monitoring.go, activity.go, materials.go and users.go.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewStore wraps an open connection pool.
func NewStore(db *sqlx.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// notFound maps sql.ErrNoRows to compost.ErrNotFound and wraps everything else.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, compost.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// uniqueViolation is the Postgres error code for a unique constraint collision.
const uniqueViolation = "23505"

// writeFailed maps a unique violation to compost.ErrAlreadyExists and wraps everything else.
func writeFailed(err error, what string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s (%s): %w", what, pqErr.Constraint, compost.ErrAlreadyExists)
	}
	return fmt.Errorf("failed to %s: %w", what, err)
}
