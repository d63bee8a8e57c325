package models

import "time"

type CompostEntry struct {
	ID            int     `json:"id" db:"id"`
	CompostUnitID string  `json:"compost_unit_id" db:"compost_unit_id"`
	MaterialID    int     `json:"material_id" db:"material_id"`
	UserID        string  `json:"user_id" db:"user_id"`
	Quantity      float64 `json:"quantity" db:"quantity"`     // kg
	DateAdded     int64   `json:"date_added" db:"date_added"` // Unix timestamp
	Notes         string  `json:"notes" db:"notes"`
}

// CompostEntryResponse is what we send to the client
type CompostEntryResponse struct {
	ID            int     `json:"id"`
	CompostUnitID string  `json:"compostUnitId"`
	MaterialID    int     `json:"materialId"`
	Quantity      float64 `json:"quantity"`
	DateAddedIso  string  `json:"dateAddedIso"`
	DateAdded     string  `json:"dateAdded"` // formatted date
	Notes         string  `json:"notes"`
}

// CreateEntryRequest is the request body for POST /api/units/:id/entries
type CreateEntryRequest struct {
	MaterialID   int     `json:"material_id" validate:"required,gt=0"`
	Quantity     float64 `json:"quantity" validate:"gte=0.01"`
	DateAddedIso *string `json:"dateAddedIso,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Notes        string  `json:"notes"`
}

func (e *CompostEntry) ToCompostEntryResponse() CompostEntryResponse {
	t := time.Unix(e.DateAdded, 0).UTC()
	return CompostEntryResponse{
		ID:            e.ID,
		CompostUnitID: e.CompostUnitID,
		MaterialID:    e.MaterialID,
		Quantity:      e.Quantity,
		DateAddedIso:  t.Format(time.RFC3339),
		DateAdded:     t.Format("Jan 02, 2006"),
		Notes:         e.Notes,
	}
}
