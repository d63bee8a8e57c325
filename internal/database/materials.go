package database

import (
	"context"
	"fmt"
	"strconv"

	"compost-backend/internal/models"
)

// ListMaterials returns the catalog ordered by name. When recommendedOnly is set only
// recommended materials are returned.
func (s *Store) ListMaterials(ctx context.Context, recommendedOnly bool) ([]models.CompostMaterial, error) {
	materials := []models.CompostMaterial{}
	query := `
		SELECT id, name, material_type, carbon_nitrogen_ratio, description, is_recommended
		FROM compost_materials`
	if recommendedOnly {
		query += ` WHERE is_recommended = TRUE`
	}
	query += ` ORDER BY name ASC`

	if err := s.db.SelectContext(ctx, &materials, query); err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	return materials, nil
}

// GetMaterial looks a material up by id.
func (s *Store) GetMaterial(ctx context.Context, id int) (*models.CompostMaterial, error) {
	var m models.CompostMaterial
	err := s.db.GetContext(ctx, &m, `
		SELECT id, name, material_type, carbon_nitrogen_ratio, description, is_recommended
		FROM compost_materials
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, notFound(err, "material "+strconv.Itoa(id))
	}
	return &m, nil
}
