package models

const (
	MaterialGreen = "green" // nitrogen
	MaterialBrown = "brown" // carbon
	MaterialOther = "other"
)

type CompostMaterial struct {
	ID                  int     `json:"id" db:"id"`
	Name                string  `json:"name" db:"name"`
	MaterialType        string  `json:"material_type" db:"material_type"`
	CarbonNitrogenRatio float64 `json:"carbon_nitrogen_ratio" db:"carbon_nitrogen_ratio"`
	Description         string  `json:"description" db:"description"`
	IsRecommended       bool    `json:"is_recommended" db:"is_recommended"`
}
