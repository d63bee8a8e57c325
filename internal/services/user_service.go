package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"compost-backend/internal/compost"
	"compost-backend/internal/middleware"
	"compost-backend/internal/models"
)

// UserService registers and authenticates users and manages their profiles
type UserService struct {
	users     UserStore
	jwtSecret string
	logger    *zap.Logger
	now       func() time.Time
}

func NewUserService(users UserStore, jwtSecret string, logger *zap.Logger) *UserService {
	return &UserService{users: users, jwtSecret: jwtSecret, logger: logger, now: time.Now}
}

// AuthResult is returned by Register and Authenticate
type AuthResult struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

// Register creates a user and its profile in one transaction and signs the user in.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*AuthResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	exists, err := s.users.UserExists(ctx, req.Email, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().Unix()
	user := &models.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Username:  req.Username,
		Password:  string(hashed),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	profile := &models.UserProfile{
		Organization:       optional(req.Organization),
		Phone:              optional(req.Phone),
		DateJoinedExtended: now,
	}
	if err := s.users.CreateUserWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, compost.ErrAlreadyExists) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.logger.Info("✅ User registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return s.issue(user)
}

// Authenticate checks a login (email or username) and password. A successful login resets
// the welcome flag so the welcome screen shows once per session.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByLogin(ctx, login)
	if errors.Is(err, compost.ErrNotFound) {
		s.logger.Info("❌ Login for unknown user", zap.String("login", login))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.Info("❌ Invalid password", zap.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	if err := s.users.SetWelcomeShown(ctx, user.ID, false); err != nil {
		return nil, err
	}
	user.WelcomeShown = false

	s.logger.Info("✅ Login successful", zap.String("user_id", user.ID))
	return s.issue(user)
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := middleware.IssueToken(s.jwtSecret, middleware.UserClaims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
	}, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}
	return &AuthResult{Token: token, User: user.ToUserResponse()}, nil
}

// ConsumeWelcome reports whether the welcome screen should show and marks it shown.
func (s *UserService) ConsumeWelcome(ctx context.Context, userID string) (bool, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if user.WelcomeShown {
		return false, nil
	}
	if err := s.users.SetWelcomeShown(ctx, userID, true); err != nil {
		return false, err
	}
	return true, nil
}

// GetProfile returns the user's profile. Users registered before profiles existed get an
// empty profile dated from their account creation.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.UserProfileResponse, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profileFor(ctx, user)
	if err != nil {
		return nil, err
	}

	resp := profile.ToUserProfileResponse(user.DisplayName())
	return &resp, nil
}

func (s *UserService) profileFor(ctx context.Context, user *models.User) (*models.UserProfile, error) {
	profile, err := s.users.GetProfile(ctx, user.ID)
	if errors.Is(err, compost.ErrNotFound) {
		return &models.UserProfile{UserID: user.ID, DateJoinedExtended: user.CreatedAt}, nil
	}
	return profile, err
}

// UpdateProfile applies the fields present in req. A missing profile is created from the
// same defaults GetProfile shows.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.UserProfileResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileFor(ctx, user)
	if err != nil {
		return nil, err
	}

	if req.Organization != nil {
		profile.Organization = optional(*req.Organization)
	}
	if req.Phone != nil {
		profile.Phone = optional(*req.Phone)
	}
	if req.AvatarURL != nil {
		profile.AvatarURL = optional(*req.AvatarURL)
	}
	if req.Bio != nil {
		profile.Bio = *req.Bio
	}
	if req.Location != nil {
		profile.Location = *req.Location
	}

	if err := s.users.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	resp := profile.ToUserProfileResponse(user.DisplayName())
	return &resp, nil
}

// RegisterDevice stores a push token for the user.
func (s *UserService) RegisterDevice(ctx context.Context, userID string, req models.RegisterFCMTokenRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	if err := s.users.RegisterFCMToken(ctx, userID, req.Token, req.DeviceType); err != nil {
		return err
	}
	s.logger.Info("📱 FCM token registered", zap.String("user_id", userID), zap.String("device_type", req.DeviceType))
	return nil
}

// optional maps an empty string to NULL.
func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
