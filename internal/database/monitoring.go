package database

import (
	"context"
	"fmt"
	"time"

	"compost-backend/internal/models"
)

const monitoringColumns = `id, compost_unit_id, user_id, temperature, ph_level, moisture_level,
	odor_intensity, pest_presence, turning_performed, date_recorded, notes`

// InsertMonitoringLog stores a manual inspection and sets its ID.
func (s *Store) InsertMonitoringLog(ctx context.Context, l *models.MonitoringLog) error {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO monitoring_logs (
			compost_unit_id, user_id, temperature, ph_level, moisture_level,
			odor_intensity, pest_presence, turning_performed, date_recorded, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, l.CompostUnitID, l.UserID, l.Temperature, l.PHLevel, l.MoistureLevel,
		l.OdorIntensity, l.PestPresence, l.TurningPerformed, l.DateRecorded, l.Notes).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("failed to insert monitoring log: %w", err)
	}
	return nil
}

// ListMonitoringLogs returns a unit's logs, newest first.
func (s *Store) ListMonitoringLogs(ctx context.Context, unitID string) ([]models.MonitoringLog, error) {
	logs := []models.MonitoringLog{}
	err := s.db.SelectContext(ctx, &logs, `
		SELECT `+monitoringColumns+`
		FROM monitoring_logs
		WHERE compost_unit_id = $1
		ORDER BY date_recorded DESC, id DESC
	`, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list monitoring logs: %w", err)
	}
	return logs, nil
}

// ListMonitoringLogsSince returns a unit's logs at or after since, oldest first.
func (s *Store) ListMonitoringLogsSince(ctx context.Context, unitID string, since time.Time) ([]models.MonitoringLog, error) {
	logs := []models.MonitoringLog{}
	err := s.db.SelectContext(ctx, &logs, `
		SELECT `+monitoringColumns+`
		FROM monitoring_logs
		WHERE compost_unit_id = $1 AND date_recorded >= $2
		ORDER BY date_recorded ASC, id ASC
	`, unitID, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list monitoring logs: %w", err)
	}
	return logs, nil
}
