package models

import "time"

type MonitoringLog struct {
	ID               int      `json:"id" db:"id"`
	CompostUnitID    string   `json:"compost_unit_id" db:"compost_unit_id"`
	UserID           string   `json:"user_id" db:"user_id"`
	Temperature      *float64 `json:"temperature,omitempty" db:"temperature"`
	PHLevel          *float64 `json:"ph_level,omitempty" db:"ph_level"`
	MoistureLevel    *float64 `json:"moisture_level,omitempty" db:"moisture_level"`
	OdorIntensity    *int     `json:"odor_intensity,omitempty" db:"odor_intensity"`
	PestPresence     bool     `json:"pest_presence" db:"pest_presence"`
	TurningPerformed bool     `json:"turning_performed" db:"turning_performed"`
	DateRecorded     int64    `json:"date_recorded" db:"date_recorded"` // Unix timestamp
	Notes            string   `json:"notes" db:"notes"`
}

// MonitoringLogResponse is what we send to the client
type MonitoringLogResponse struct {
	ID               int      `json:"id"`
	CompostUnitID    string   `json:"compostUnitId"`
	Temperature      *float64 `json:"temperature"`
	PHLevel          *float64 `json:"phLevel"`
	MoistureLevel    *float64 `json:"moistureLevel"`
	OdorIntensity    *int     `json:"odorIntensity"`
	PestPresence     bool     `json:"pestPresence"`
	TurningPerformed bool     `json:"turningPerformed"`
	DateRecordedIso  string   `json:"dateRecordedIso"`
	Notes            string   `json:"notes"`
}

// CreateMonitoringLogRequest is the request body for POST /api/units/:id/monitoring
type CreateMonitoringLogRequest struct {
	Temperature      *float64 `json:"temperature,omitempty" validate:"omitempty,gte=-50,lte=100"`
	PHLevel          *float64 `json:"ph_level,omitempty" validate:"omitempty,gte=0,lte=14"`
	MoistureLevel    *float64 `json:"moisture_level,omitempty" validate:"omitempty,gte=0,lte=100"`
	OdorIntensity    *int     `json:"odor_intensity,omitempty" validate:"omitempty,gte=0,lte=10"`
	PestPresence     bool     `json:"pest_presence"`
	TurningPerformed bool     `json:"turning_performed"`
	Notes            string   `json:"notes"`
}

func (l *MonitoringLog) ToMonitoringLogResponse() MonitoringLogResponse {
	return MonitoringLogResponse{
		ID:               l.ID,
		CompostUnitID:    l.CompostUnitID,
		Temperature:      l.Temperature,
		PHLevel:          l.PHLevel,
		MoistureLevel:    l.MoistureLevel,
		OdorIntensity:    l.OdorIntensity,
		PestPresence:     l.PestPresence,
		TurningPerformed: l.TurningPerformed,
		DateRecordedIso:  time.Unix(l.DateRecorded, 0).UTC().Format(time.RFC3339),
		Notes:            l.Notes,
	}
}
