package models

import "time"

type CompostHarvest struct {
	ID             int     `json:"id" db:"id"`
	CompostUnitID  string  `json:"compost_unit_id" db:"compost_unit_id"`
	UserID         string  `json:"user_id" db:"user_id"`
	Quantity       float64 `json:"quantity" db:"quantity"`           // kg
	QualityGrade   string  `json:"quality_grade" db:"quality_grade"` // A-D
	CompostAgeDays int     `json:"compost_age_days" db:"compost_age_days"`
	HarvestDate    int64   `json:"harvest_date" db:"harvest_date"` // Unix timestamp
	Notes          string  `json:"notes" db:"notes"`
}

// CompostHarvestResponse is what we send to the client
type CompostHarvestResponse struct {
	ID             int     `json:"id"`
	CompostUnitID  string  `json:"compostUnitId"`
	Quantity       float64 `json:"quantity"`
	QualityGrade   string  `json:"qualityGrade"`
	CompostAgeDays int     `json:"compostAgeDays"`
	HarvestDateIso string  `json:"harvestDateIso"`
	HarvestDate    string  `json:"harvestDate"` // formatted date
	Notes          string  `json:"notes"`
}

// CreateHarvestRequest is the request body for POST /api/units/:id/harvests
type CreateHarvestRequest struct {
	Quantity       float64 `json:"quantity" validate:"gte=0.01"`
	QualityGrade   string  `json:"quality_grade" validate:"required,oneof=A B C D"`
	CompostAgeDays int     `json:"compost_age_days" validate:"gte=0"`
	Notes          string  `json:"notes"`
}

func (h *CompostHarvest) ToCompostHarvestResponse() CompostHarvestResponse {
	t := time.Unix(h.HarvestDate, 0).UTC()
	return CompostHarvestResponse{
		ID:             h.ID,
		CompostUnitID:  h.CompostUnitID,
		Quantity:       h.Quantity,
		QualityGrade:   h.QualityGrade,
		CompostAgeDays: h.CompostAgeDays,
		HarvestDateIso: t.Format(time.RFC3339),
		HarvestDate:    t.Format("Jan 02, 2006"),
		Notes:          h.Notes,
	}
}
