package database

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// SeedMaterials loads the compost material catalog once.
func SeedMaterials(db *sqlx.DB, logger *zap.Logger) error {
	// Check if materials already exist
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM compost_materials"); err != nil {
		return err
	}

	if count > 0 {
		logger.Info("✓ Materials already seeded, skipping...", zap.Int("count", count))
		return nil
	}

	materials := []map[string]interface{}{
		{"name": "Vegetable scraps", "material_type": "green", "carbon_nitrogen_ratio": 12.0, "description": "Raw fruit and vegetable kitchen waste", "is_recommended": true},
		{"name": "Grass clippings", "material_type": "green", "carbon_nitrogen_ratio": 20.0, "description": "Fresh lawn clippings, spread thin to avoid matting", "is_recommended": true},
		{"name": "Coffee grounds", "material_type": "green", "carbon_nitrogen_ratio": 20.0, "description": "Used grounds and paper filters", "is_recommended": true},
		{"name": "Fresh manure", "material_type": "green", "carbon_nitrogen_ratio": 15.0, "description": "Herbivore manure only", "is_recommended": true},
		{"name": "Fruit waste", "material_type": "green", "carbon_nitrogen_ratio": 35.0, "description": "Peels, cores and overripe fruit", "is_recommended": true},
		{"name": "Dry leaves", "material_type": "brown", "carbon_nitrogen_ratio": 60.0, "description": "Shredded autumn leaves", "is_recommended": true},
		{"name": "Straw", "material_type": "brown", "carbon_nitrogen_ratio": 80.0, "description": "Cereal straw, chopped", "is_recommended": true},
		{"name": "Cardboard", "material_type": "brown", "carbon_nitrogen_ratio": 350.0, "description": "Uncoated corrugated cardboard, torn", "is_recommended": true},
		{"name": "Sawdust", "material_type": "brown", "carbon_nitrogen_ratio": 325.0, "description": "Untreated wood only", "is_recommended": true},
		{"name": "Newspaper", "material_type": "brown", "carbon_nitrogen_ratio": 175.0, "description": "Shredded black-and-white newsprint", "is_recommended": true},
		{"name": "Eggshells", "material_type": "other", "carbon_nitrogen_ratio": 0.0, "description": "Crushed; adds calcium", "is_recommended": true},
		{"name": "Wood ash", "material_type": "other", "carbon_nitrogen_ratio": 25.0, "description": "Small amounts only; raises pH", "is_recommended": false},
		{"name": "Meat and dairy", "material_type": "other", "carbon_nitrogen_ratio": 5.0, "description": "Attracts pests and causes odor", "is_recommended": false},
	}

	for _, m := range materials {
		query := `
			INSERT INTO compost_materials (name, material_type, carbon_nitrogen_ratio, description, is_recommended)
			VALUES (:name, :material_type, :carbon_nitrogen_ratio, :description, :is_recommended)
		`
		if _, err := db.NamedExec(query, m); err != nil {
			return err
		}
	}

	logger.Info("✓ Successfully seeded compost materials", zap.Int("count", len(materials)))
	return nil
}
