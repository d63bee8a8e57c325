package database

import (
	"context"
	"fmt"
	"time"

	"compost-backend/internal/compost"
	"compost-backend/internal/models"
)

const readingColumns = `id, compost_unit_id, timestamp, temperature, ph, humidity, oxygen`

// InsertReading stores a reading and sets its ID. A zero timestamp is assigned now.
func (s *Store) InsertReading(ctx context.Context, r *models.SensorReading) error {
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().Unix()
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO sensor_readings (compost_unit_id, timestamp, temperature, ph, humidity, oxygen)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, r.CompostUnitID, r.Timestamp, r.Temperature, r.PH, r.Humidity, r.Oxygen).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}

// ReadingExistsNear reports whether the unit has a reading within window of at.
func (s *Store) ReadingExistsNear(ctx context.Context, unitID string, at time.Time, window time.Duration) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM sensor_readings
			WHERE compost_unit_id = $1 AND timestamp BETWEEN $2 AND $3
		)
	`, unitID, at.Add(-window).Unix(), at.Add(window).Unix())
	if err != nil {
		return false, fmt.Errorf("failed to check nearby readings: %w", err)
	}
	return exists, nil
}

// ListReadings returns one page of a unit's readings, newest first.
func (s *Store) ListReadings(ctx context.Context, unitID string, limit, offset int) ([]models.SensorReading, error) {
	readings := []models.SensorReading{}
	err := s.db.SelectContext(ctx, &readings, `
		SELECT `+readingColumns+`
		FROM sensor_readings
		WHERE compost_unit_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2 OFFSET $3
	`, unitID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	return readings, nil
}

// ListReadingsSince returns a unit's readings at or after since, oldest first.
func (s *Store) ListReadingsSince(ctx context.Context, unitID string, since time.Time) ([]models.SensorReading, error) {
	readings := []models.SensorReading{}
	err := s.db.SelectContext(ctx, &readings, `
		SELECT `+readingColumns+`
		FROM sensor_readings
		WHERE compost_unit_id = $1 AND timestamp >= $2
		ORDER BY timestamp ASC, id ASC
	`, unitID, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	return readings, nil
}

// ListRecentReadingsByOwner returns the newest readings across all of an owner's units.
func (s *Store) ListRecentReadingsByOwner(ctx context.Context, ownerID string, limit int) ([]models.SensorReading, error) {
	readings := []models.SensorReading{}
	err := s.db.SelectContext(ctx, &readings, `
		SELECT r.id, r.compost_unit_id, r.timestamp, r.temperature, r.ph, r.humidity, r.oxygen
		FROM sensor_readings r
		JOIN compost_units u ON u.id = r.compost_unit_id
		WHERE u.owner_id = $1
		ORDER BY r.timestamp DESC, r.id DESC
		LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent readings: %w", err)
	}
	return readings, nil
}

// CountReadings counts a unit's readings.
func (s *Store) CountReadings(ctx context.Context, unitID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM sensor_readings WHERE compost_unit_id = $1`, unitID)
	if err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}
	return count, nil
}

// CountReadingsByOwner counts readings across all of an owner's units.
func (s *Store) CountReadingsByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM sensor_readings r
		JOIN compost_units u ON u.id = r.compost_unit_id
		WHERE u.owner_id = $1
	`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}
	return count, nil
}

// ReadingAggregate computes mean/count/max over a unit's readings in the database.
// AVG skips NULLs, so averages only cover readings that carry the field.
func (s *Store) ReadingAggregate(ctx context.Context, unitID string) (compost.ReadingAggregate, error) {
	var agg compost.ReadingAggregate
	err := s.db.GetContext(ctx, &agg, `
		SELECT
			AVG(temperature) AS avg_temp,
			AVG(ph) AS avg_ph,
			AVG(humidity) AS avg_humidity,
			AVG(oxygen) AS avg_oxygen,
			COUNT(*) AS reading_count,
			MAX(timestamp) AS latest_at
		FROM sensor_readings
		WHERE compost_unit_id = $1
	`, unitID)
	if err != nil {
		return compost.ReadingAggregate{}, fmt.Errorf("failed to aggregate readings: %w", err)
	}
	return agg, nil
}

// LatestReading returns the unit's most recent reading.
func (s *Store) LatestReading(ctx context.Context, unitID string) (*models.SensorReading, error) {
	var r models.SensorReading
	err := s.db.GetContext(ctx, &r, `
		SELECT `+readingColumns+`
		FROM sensor_readings
		WHERE compost_unit_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`, unitID)
	if err != nil {
		return nil, notFound(err, "latest reading")
	}
	return &r, nil
}

// StreamReadings calls fn for each of the unit's readings, oldest first, without loading
// the full set into memory.
func (s *Store) StreamReadings(ctx context.Context, unitID string, fn func(models.SensorReading) error) error {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT `+readingColumns+`
		FROM sensor_readings
		WHERE compost_unit_id = $1
		ORDER BY timestamp ASC, id ASC
	`, unitID)
	if err != nil {
		return fmt.Errorf("failed to stream readings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r models.SensorReading
		if err := rows.StructScan(&r); err != nil {
			return fmt.Errorf("failed to scan reading row: %w", err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}
