package models

import "time"

// Unit types
const (
	UnitTypeDomestic    = "domestic"
	UnitTypeCommunity   = "community"
	UnitTypeCommercial  = "commercial"
	UnitTypeIndustrial  = "industrial"
	UnitTypeEducational = "educational"
)

// Unit statuses
const (
	UnitStatusActive      = "active"
	UnitStatusInactive    = "inactive"
	UnitStatusMaintenance = "maintenance"
	UnitStatusFull        = "full"
)

type CompostUnit struct {
	ID            string   `json:"id" db:"id"`
	OwnerID       string   `json:"owner_id" db:"owner_id"`
	Name          string   `json:"name" db:"name"`
	Description   string   `json:"description" db:"description"`
	Location      string   `json:"location" db:"location"`
	Latitude      *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude     *float64 `json:"longitude,omitempty" db:"longitude"`
	Capacity      int      `json:"capacity" db:"capacity"`         // kg
	CurrentLoad   int      `json:"current_load" db:"current_load"` // kg
	LoadCarry     float64  `json:"-" db:"load_carry"`              // fraction of a kg not yet in CurrentLoad
	UnitType      string   `json:"unit_type" db:"unit_type"`
	Status        string   `json:"status" db:"status"`
	IsPublic      bool     `json:"is_public" db:"is_public"`
	Temperature   *float64 `json:"temperature,omitempty" db:"temperature"`
	PHLevel       *float64 `json:"ph_level,omitempty" db:"ph_level"`
	MoistureLevel *float64 `json:"moisture_level,omitempty" db:"moisture_level"`
	CreatedAt     int64    `json:"created_at" db:"created_at"` // Unix timestamp
	UpdatedAt     int64    `json:"updated_at" db:"updated_at"` // Unix timestamp
}

// CompostUnitResponse is what we send to the client with ISO timestamps and derived state
type CompostUnitResponse struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Location           string   `json:"location"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
	Capacity           int      `json:"capacity"`
	CurrentLoad        int      `json:"current_load"`
	CapacityPercentage float64  `json:"capacity_percentage"`
	IsFull             bool     `json:"is_full"`
	UnitType           string   `json:"unit_type"`
	Status             string   `json:"status"`
	IsPublic           bool     `json:"is_public"`
	Temperature        *float64 `json:"temperature,omitempty"`
	PHLevel            *float64 `json:"ph_level,omitempty"`
	MoistureLevel      *float64 `json:"moisture_level,omitempty"`
	CreatedAtIso       string   `json:"createdAtIso"`
	UpdatedAtIso       string   `json:"updatedAtIso"`
}

// CreateUnitRequest is the request body for POST /api/units
type CreateUnitRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description"`
	Location    string   `json:"location" validate:"required,max=200"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Capacity    int      `json:"capacity"`
	CurrentLoad int      `json:"current_load" validate:"gte=0"`
	UnitType    string   `json:"unit_type" validate:"required,oneof=domestic community commercial industrial educational"`
	IsPublic    bool     `json:"is_public"`
}

// UpdateUnitStatusRequest is the request body for PATCH /api/units/:id/status
type UpdateUnitStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive maintenance full"`
}

// ToCompostUnitResponse converts a CompostUnit to CompostUnitResponse. Derived values are
// supplied by the caller so the model stays free of domain rules.
func (u *CompostUnit) ToCompostUnitResponse(capacityPercentage float64, isFull bool) CompostUnitResponse {
	return CompostUnitResponse{
		ID:                 u.ID,
		Name:               u.Name,
		Description:        u.Description,
		Location:           u.Location,
		Latitude:           u.Latitude,
		Longitude:          u.Longitude,
		Capacity:           u.Capacity,
		CurrentLoad:        u.CurrentLoad,
		CapacityPercentage: capacityPercentage,
		IsFull:             isFull,
		UnitType:           u.UnitType,
		Status:             u.Status,
		IsPublic:           u.IsPublic,
		Temperature:        u.Temperature,
		PHLevel:            u.PHLevel,
		MoistureLevel:      u.MoistureLevel,
		CreatedAtIso:       time.Unix(u.CreatedAt, 0).UTC().Format(time.RFC3339),
		UpdatedAtIso:       time.Unix(u.UpdatedAt, 0).UTC().Format(time.RFC3339),
	}
}
