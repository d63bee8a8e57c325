package services

import (
	"context"
	"time"

	"compost-backend/internal/compost"
	"compost-backend/internal/models"
)

// UnitStore persists compost units.
type UnitStore interface {
	CreateUnit(ctx context.Context, u *models.CompostUnit) error
	GetUnit(ctx context.Context, id string) (*models.CompostUnit, error)
	ListUnitsByOwner(ctx context.Context, ownerID string) ([]models.CompostUnit, error)
	UnitExistsByName(ctx context.Context, ownerID, name string) (bool, error)
	UpdateUnitStatus(ctx context.Context, id, status string) error
	UpdateUnitSnapshot(ctx context.Context, id string, temperature, ph, moisture *float64) error
	DeleteUnitCascade(ctx context.Context, id string) error
}

// ReadingStore persists and aggregates sensor readings.
type ReadingStore interface {
	compost.ReadingWriter
	compost.StatsSource
	ListReadings(ctx context.Context, unitID string, limit, offset int) ([]models.SensorReading, error)
	ListReadingsSince(ctx context.Context, unitID string, since time.Time) ([]models.SensorReading, error)
	ListRecentReadingsByOwner(ctx context.Context, ownerID string, limit int) ([]models.SensorReading, error)
	CountReadings(ctx context.Context, unitID string) (int, error)
	CountReadingsByOwner(ctx context.Context, ownerID string) (int, error)
	StreamReadings(ctx context.Context, unitID string, fn func(models.SensorReading) error) error
}

// ActivityStore persists feeding events, harvests, monitoring logs and the material catalog.
type ActivityStore interface {
	RecordEntry(ctx context.Context, e *models.CompostEntry, change func(*models.CompostUnit) error) (*models.CompostUnit, error)
	RecordHarvest(ctx context.Context, h *models.CompostHarvest, change func(*models.CompostUnit) error) (*models.CompostUnit, error)
	ListEntries(ctx context.Context, unitID string) ([]models.CompostEntry, error)
	ListHarvests(ctx context.Context, unitID string) ([]models.CompostHarvest, error)
	InsertMonitoringLog(ctx context.Context, l *models.MonitoringLog) error
	ListMonitoringLogs(ctx context.Context, unitID string) ([]models.MonitoringLog, error)
	ListMonitoringLogsSince(ctx context.Context, unitID string, since time.Time) ([]models.MonitoringLog, error)
	ListMaterials(ctx context.Context, recommendedOnly bool) ([]models.CompostMaterial, error)
	GetMaterial(ctx context.Context, id int) (*models.CompostMaterial, error)
}

// UserStore persists users, profiles and device tokens.
type UserStore interface {
	UserExists(ctx context.Context, email, username string) (bool, error)
	CreateUserWithProfile(ctx context.Context, u *models.User, p *models.UserProfile) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	SetWelcomeShown(ctx context.Context, userID string, shown bool) error
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpsertProfile(ctx context.Context, p *models.UserProfile) error
	RegisterFCMToken(ctx context.Context, userID, token, deviceType string) error
}

// TokenStore looks up push targets.
type TokenStore interface {
	LatestFCMToken(ctx context.Context, userID string) (*models.FCMToken, error)
}
