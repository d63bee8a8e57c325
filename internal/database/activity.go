package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"compost-backend/internal/models"
)

// RecordEntry stores a feeding event and applies change to the unit in one transaction. The
// unit row stays locked from read to update so concurrent events see each other's load. An
// error from change aborts the write.
func (s *Store) RecordEntry(ctx context.Context, e *models.CompostEntry, change func(*models.CompostUnit) error) (*models.CompostUnit, error) {
	var unit *models.CompostUnit
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		if unit, err = lockUnit(ctx, tx, e.CompostUnitID, change); err != nil {
			return err
		}
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO compost_entries (compost_unit_id, material_id, user_id, quantity, date_added, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, e.CompostUnitID, e.MaterialID, e.UserID, e.Quantity, e.DateAdded, e.Notes).Scan(&e.ID)
		if err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}
		return updateLoad(ctx, tx, unit)
	})
	if err != nil {
		return nil, err
	}
	return unit, nil
}

// RecordHarvest stores a harvest and applies change to the unit in one transaction.
func (s *Store) RecordHarvest(ctx context.Context, h *models.CompostHarvest, change func(*models.CompostUnit) error) (*models.CompostUnit, error) {
	var unit *models.CompostUnit
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		if unit, err = lockUnit(ctx, tx, h.CompostUnitID, change); err != nil {
			return err
		}
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO compost_harvests (compost_unit_id, user_id, quantity, quality_grade, compost_age_days, harvest_date, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, h.CompostUnitID, h.UserID, h.Quantity, h.QualityGrade, h.CompostAgeDays, h.HarvestDate, h.Notes).Scan(&h.ID)
		if err != nil {
			return fmt.Errorf("failed to insert harvest: %w", err)
		}
		return updateLoad(ctx, tx, unit)
	})
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func lockUnit(ctx context.Context, tx *sqlx.Tx, unitID string, change func(*models.CompostUnit) error) (*models.CompostUnit, error) {
	var u models.CompostUnit
	err := tx.GetContext(ctx, &u, `SELECT `+unitColumns+`, load_carry FROM compost_units WHERE id = $1 FOR UPDATE`, unitID)
	if err != nil {
		return nil, notFound(err, "unit "+unitID)
	}
	if err := change(&u); err != nil {
		return nil, err
	}
	u.UpdatedAt = time.Now().Unix()
	return &u, nil
}

// ListEntries returns a unit's feeding events, newest first.
func (s *Store) ListEntries(ctx context.Context, unitID string) ([]models.CompostEntry, error) {
	entries := []models.CompostEntry{}
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, compost_unit_id, material_id, user_id, quantity, date_added, notes
		FROM compost_entries
		WHERE compost_unit_id = $1
		ORDER BY date_added DESC, id DESC
	`, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

// ListHarvests returns a unit's harvests, newest first.
func (s *Store) ListHarvests(ctx context.Context, unitID string) ([]models.CompostHarvest, error) {
	harvests := []models.CompostHarvest{}
	err := s.db.SelectContext(ctx, &harvests, `
		SELECT id, compost_unit_id, user_id, quantity, quality_grade, compost_age_days, harvest_date, notes
		FROM compost_harvests
		WHERE compost_unit_id = $1
		ORDER BY harvest_date DESC, id DESC
	`, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list harvests: %w", err)
	}
	return harvests, nil
}

func updateLoad(ctx context.Context, tx *sqlx.Tx, u *models.CompostUnit) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE compost_units SET current_load = $1, load_carry = $2, status = $3, updated_at = $4 WHERE id = $5
	`, u.CurrentLoad, u.LoadCarry, u.Status, u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update unit load: %w", err)
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
