package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Connect opens the Postgres pool and verifies it with a ping.
func Connect(dbURL string, maxOpen, maxIdle int, logger *zap.Logger) (*sqlx.DB, error) {
	logger.Info("🔌 Database connection attempt",
		zap.Int("url_length", len(dbURL)),
		zap.String("url_prefix", dbURL[:min(30, len(dbURL))]+"..."),
	)

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		logger.Error("❌ Database connection failed at sqlx.Connect()",
			zap.String("error_type", fmt.Sprintf("%T", err)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)

	if err := db.Ping(); err != nil {
		logger.Error("❌ Database connection failed at Ping()", zap.Error(err))
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("✅ Database connection successful",
		zap.Int("max_open_conns", maxOpen),
		zap.Int("max_idle_conns", maxIdle),
	)
	return db, nil
}

// Migrate applies the schema. Every statement is idempotent.
// Foreign keys deliberately carry no ON DELETE CASCADE: unit deletion enumerates
// its dependent tables in Store.DeleteUnitCascade.
func Migrate(db *sqlx.DB, logger *zap.Logger) error {
	migrations := []string{
		// Create users table
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			welcome_shown BOOLEAN NOT NULL DEFAULT FALSE,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create user_profiles table (1:1 with users)
		`CREATE TABLE IF NOT EXISTS user_profiles (
			user_id TEXT PRIMARY KEY,
			organization TEXT,
			phone TEXT,
			avatar_url TEXT,
			bio TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			date_joined_extended BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			FOREIGN KEY (user_id) REFERENCES users(id),
			CHECK (char_length(bio) <= 500)
		)`,

		// Create compost_units table
		`CREATE TABLE IF NOT EXISTS compost_units (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			capacity INT NOT NULL CHECK (capacity > 0),
			current_load INT NOT NULL DEFAULT 0 CHECK (current_load >= 0),
			unit_type TEXT NOT NULL CHECK (unit_type IN ('domestic', 'community', 'commercial', 'industrial', 'educational')),
			status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive', 'maintenance', 'full')),
			is_public BOOLEAN NOT NULL DEFAULT FALSE,
			temperature DOUBLE PRECISION,
			ph_level DOUBLE PRECISION CHECK (ph_level BETWEEN 0 AND 14),
			moisture_level DOUBLE PRECISION CHECK (moisture_level BETWEEN 0 AND 100),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (owner_id) REFERENCES users(id)
		)`,

		`ALTER TABLE compost_units ADD COLUMN IF NOT EXISTS load_carry DOUBLE PRECISION NOT NULL DEFAULT 0`,

		// Create compost_materials catalog
		`CREATE TABLE IF NOT EXISTS compost_materials (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			material_type TEXT NOT NULL CHECK (material_type IN ('green', 'brown', 'other')),
			carbon_nitrogen_ratio DOUBLE PRECISION NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			is_recommended BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// Create compost_entries table (feeding events)
		`CREATE TABLE IF NOT EXISTS compost_entries (
			id SERIAL PRIMARY KEY,
			compost_unit_id TEXT NOT NULL,
			material_id INT NOT NULL,
			user_id TEXT NOT NULL,
			quantity DOUBLE PRECISION NOT NULL CHECK (quantity >= 0.01),
			date_added BIGINT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (compost_unit_id) REFERENCES compost_units(id),
			FOREIGN KEY (material_id) REFERENCES compost_materials(id),
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,

		// Create compost_harvests table
		`CREATE TABLE IF NOT EXISTS compost_harvests (
			id SERIAL PRIMARY KEY,
			compost_unit_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			quantity DOUBLE PRECISION NOT NULL CHECK (quantity >= 0.01),
			quality_grade TEXT NOT NULL CHECK (quality_grade IN ('A', 'B', 'C', 'D')),
			compost_age_days INT NOT NULL CHECK (compost_age_days >= 0),
			harvest_date BIGINT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (compost_unit_id) REFERENCES compost_units(id),
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,

		// Create monitoring_logs table (manual inspections)
		`CREATE TABLE IF NOT EXISTS monitoring_logs (
			id SERIAL PRIMARY KEY,
			compost_unit_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			temperature DOUBLE PRECISION,
			ph_level DOUBLE PRECISION,
			moisture_level DOUBLE PRECISION,
			odor_intensity INT,
			pest_presence BOOLEAN NOT NULL DEFAULT FALSE,
			turning_performed BOOLEAN NOT NULL DEFAULT FALSE,
			date_recorded BIGINT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (compost_unit_id) REFERENCES compost_units(id),
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,

		// Create sensor_readings table (unit is nullable for orphan readings)
		`CREATE TABLE IF NOT EXISTS sensor_readings (
			id SERIAL PRIMARY KEY,
			compost_unit_id TEXT,
			timestamp BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			temperature DOUBLE PRECISION,
			ph DOUBLE PRECISION,
			humidity DOUBLE PRECISION CHECK (humidity BETWEEN 0 AND 100),
			oxygen DOUBLE PRECISION CHECK (oxygen BETWEEN 0 AND 100),
			FOREIGN KEY (compost_unit_id) REFERENCES compost_units(id)
		)`,

		// Create fcm_tokens table (push targets for unit-full alerts)
		`CREATE TABLE IF NOT EXISTS fcm_tokens (
			id SERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			device_type TEXT NOT NULL CHECK (device_type IN ('ios', 'android')),
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,

		// Create indexes
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_compost_units_owner_id ON compost_units(owner_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_compost_units_owner_name ON compost_units(owner_id, name)`,
		`CREATE INDEX IF NOT EXISTS idx_compost_entries_unit_id ON compost_entries(compost_unit_id, date_added)`,
		`CREATE INDEX IF NOT EXISTS idx_compost_harvests_unit_id ON compost_harvests(compost_unit_id, harvest_date)`,
		`CREATE INDEX IF NOT EXISTS idx_monitoring_logs_unit_date ON monitoring_logs(compost_unit_id, date_recorded)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_readings_unit_ts ON sensor_readings(compost_unit_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_readings_timestamp ON sensor_readings(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_fcm_tokens_user_id ON fcm_tokens(user_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	logger.Info("✓ Database migrations completed", zap.Int("statements", len(migrations)))
	return nil
}
