package models

import "time"

type SensorReading struct {
	ID            int      `json:"id" db:"id"`
	CompostUnitID *string  `json:"compost_unit_id,omitempty" db:"compost_unit_id"` // nil for orphan readings
	Timestamp     int64    `json:"timestamp" db:"timestamp"`                       // Unix timestamp
	Temperature   *float64 `json:"temperature,omitempty" db:"temperature"`
	PH            *float64 `json:"ph,omitempty" db:"ph"`
	Humidity      *float64 `json:"humidity,omitempty" db:"humidity"`
	Oxygen        *float64 `json:"oxygen,omitempty" db:"oxygen"`
}

// SensorReadingResponse is what we send to the client
type SensorReadingResponse struct {
	ID            int      `json:"id"`
	CompostUnitID *string  `json:"compostUnitId"`
	TimestampIso  string   `json:"timestampIso"`
	Temperature   *float64 `json:"temperature"`
	PH            *float64 `json:"ph"`
	Humidity      *float64 `json:"humidity"`
	Oxygen        *float64 `json:"oxygen"`
	Phase         string   `json:"phase,omitempty"`
}

// CreateSensorReadingRequest is the request body for POST /api/units/:id/readings and POST /api/readings
type CreateSensorReadingRequest struct {
	CompostUnitID *string  `json:"compost_unit_id,omitempty" validate:"omitempty,uuid"`
	TimestampIso  *string  `json:"timestampIso,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Temperature   *float64 `json:"temperature,omitempty" validate:"omitempty,gte=-50,lte=100"`
	PH            *float64 `json:"ph,omitempty" validate:"omitempty,gte=0,lte=14"`
	Humidity      *float64 `json:"humidity,omitempty" validate:"omitempty,gte=0,lte=100"`
	Oxygen        *float64 `json:"oxygen,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// Time returns the reading timestamp as a time.Time
func (r *SensorReading) Time() time.Time {
	return time.Unix(r.Timestamp, 0).UTC()
}

func (r *SensorReading) ToSensorReadingResponse() SensorReadingResponse {
	return SensorReadingResponse{
		ID:            r.ID,
		CompostUnitID: r.CompostUnitID,
		TimestampIso:  r.Time().Format(time.RFC3339),
		Temperature:   r.Temperature,
		PH:            r.PH,
		Humidity:      r.Humidity,
		Oxygen:        r.Oxygen,
	}
}
