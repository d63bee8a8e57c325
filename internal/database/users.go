package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"compost-backend/internal/models"
)

const userColumns = `id, email, username, password, first_name, last_name, welcome_shown, created_at, updated_at`

// UserExists reports whether the email or username is taken.
func (s *Store) UserExists(ctx context.Context, email, username string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 OR username = $2)`, email, username)
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return exists, nil
}

// CreateUserWithProfile inserts the user and its profile in one transaction. If the
// profile cannot be written the user is not created either.
func (s *Store) CreateUserWithProfile(ctx context.Context, u *models.User, p *models.UserProfile) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO users (`+userColumns+`)
			VALUES (:id, :email, :username, :password, :first_name, :last_name, :welcome_shown, :created_at, :updated_at)
		`, u); err != nil {
			return writeFailed(err, "create user")
		}

		p.UserID = u.ID
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO user_profiles (user_id, organization, phone, avatar_url, bio, location, date_joined_extended, is_verified)
			VALUES (:user_id, :organization, :phone, :avatar_url, :bio, :location, :date_joined_extended, :is_verified)
		`, p); err != nil {
			return fmt.Errorf("failed to create user profile: %w", err)
		}
		return nil
	})
}

// GetUser looks a user up by id.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, notFound(err, "user "+id)
	}
	return &u, nil
}

// GetUserByLogin looks a user up by email or username.
func (s *Store) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `
		SELECT `+userColumns+` FROM users WHERE email = $1 OR username = $1 LIMIT 1
	`, login)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

// SetWelcomeShown stores the user's welcome-screen flag.
func (s *Store) SetWelcomeShown(ctx context.Context, userID string, shown bool) error {
	return s.execOne(ctx, "user "+userID, `
		UPDATE users SET welcome_shown = $1, updated_at = $2 WHERE id = $3
	`, shown, time.Now().Unix(), userID)
}

// GetProfile returns the user's profile.
func (s *Store) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := s.db.GetContext(ctx, &p, `
		SELECT user_id, organization, phone, avatar_url, bio, location, date_joined_extended, is_verified
		FROM user_profiles
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, notFound(err, "profile for user "+userID)
	}
	return &p, nil
}

// UpsertProfile writes the editable profile fields, creating the profile row for users
// that never had one.
func (s *Store) UpsertProfile(ctx context.Context, p *models.UserProfile) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO user_profiles (user_id, organization, phone, avatar_url, bio, location, date_joined_extended, is_verified)
		VALUES (:user_id, :organization, :phone, :avatar_url, :bio, :location, :date_joined_extended, :is_verified)
		ON CONFLICT (user_id) DO UPDATE SET
			organization = excluded.organization,
			phone = excluded.phone,
			avatar_url = excluded.avatar_url,
			bio = excluded.bio,
			location = excluded.location
	`, p)
	if err != nil {
		return fmt.Errorf("failed to save profile for user %s: %w", p.UserID, err)
	}
	return nil
}

// RegisterFCMToken stores a device token, moving it to this user if it was registered before.
func (s *Store) RegisterFCMToken(ctx context.Context, userID, token, deviceType string) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fcm_tokens (user_id, token, device_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token) DO UPDATE SET
			user_id = excluded.user_id,
			device_type = excluded.device_type,
			updated_at = excluded.updated_at
	`, userID, token, deviceType, now, now)
	if err != nil {
		return fmt.Errorf("failed to register fcm token: %w", err)
	}
	return nil
}

// LatestFCMToken returns the user's most recently registered device token.
func (s *Store) LatestFCMToken(ctx context.Context, userID string) (*models.FCMToken, error) {
	var t models.FCMToken
	err := s.db.GetContext(ctx, &t, `
		SELECT id, user_id, token, device_type, created_at, updated_at
		FROM fcm_tokens
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`, userID)
	if err != nil {
		return nil, notFound(err, "fcm token for user "+userID)
	}
	return &t, nil
}
