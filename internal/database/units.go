package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"compost-backend/internal/compost"
	"compost-backend/internal/models"
)

const unitColumns = `id, owner_id, name, description, location, latitude, longitude,
	capacity, current_load, unit_type, status, is_public,
	temperature, ph_level, moisture_level, created_at, updated_at`

// CreateUnit inserts a new compost unit. ID and timestamps must already be set.
func (s *Store) CreateUnit(ctx context.Context, u *models.CompostUnit) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO compost_units (`+unitColumns+`)
		VALUES (:id, :owner_id, :name, :description, :location, :latitude, :longitude,
		        :capacity, :current_load, :unit_type, :status, :is_public,
		        :temperature, :ph_level, :moisture_level, :created_at, :updated_at)
	`, u)
	if err != nil {
		return writeFailed(err, "create unit")
	}
	return nil
}

// GetUnit looks a unit up by id.
func (s *Store) GetUnit(ctx context.Context, id string) (*models.CompostUnit, error) {
	var u models.CompostUnit
	err := s.db.GetContext(ctx, &u, `SELECT `+unitColumns+` FROM compost_units WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "unit "+id)
	}
	return &u, nil
}

// ListUnitsByOwner returns an owner's units, newest first.
func (s *Store) ListUnitsByOwner(ctx context.Context, ownerID string) ([]models.CompostUnit, error) {
	units := []models.CompostUnit{}
	err := s.db.SelectContext(ctx, &units, `
		SELECT `+unitColumns+`
		FROM compost_units
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	return units, nil
}

// UnitExistsByName reports whether the owner already has a unit with this name.
func (s *Store) UnitExistsByName(ctx context.Context, ownerID, name string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM compost_units WHERE owner_id = $1 AND name = $2)`, ownerID, name)
	if err != nil {
		return false, fmt.Errorf("failed to check unit name: %w", err)
	}
	return exists, nil
}

// UpdateUnitStatus sets the unit status.
func (s *Store) UpdateUnitStatus(ctx context.Context, id, status string) error {
	return s.execOne(ctx, "unit "+id, `
		UPDATE compost_units SET status = $1, updated_at = $2 WHERE id = $3
	`, status, time.Now().Unix(), id)
}

// UpdateUnitSnapshot stores the last known measurements on the unit. Nil values keep the
// previous snapshot.
func (s *Store) UpdateUnitSnapshot(ctx context.Context, id string, temperature, ph, moisture *float64) error {
	return s.execOne(ctx, "unit "+id, `
		UPDATE compost_units
		SET temperature = COALESCE($1, temperature),
		    ph_level = COALESCE($2, ph_level),
		    moisture_level = COALESCE($3, moisture_level),
		    updated_at = $4
		WHERE id = $5
	`, temperature, ph, moisture, time.Now().Unix(), id)
}

// DeleteUnitCascade removes a unit and every record that belongs to it in one transaction.
func (s *Store) DeleteUnitCascade(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	dependents := []string{
		"sensor_readings",
		"monitoring_logs",
		"compost_harvests",
		"compost_entries",
	}
	for _, table := range dependents {
		res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE compost_unit_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			s.logger.Debug("cascade delete", zap.String("unit_id", id), zap.String("table", table), zap.Int64("rows", n))
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM compost_units WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete unit: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete unit: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("unit %s: %w", id, compost.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// execOne runs an UPDATE that must touch exactly one row.
func (s *Store) execOne(ctx context.Context, what, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", what, compost.ErrNotFound)
	}
	return nil
}
