package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"compost-backend/internal/models"
	"compost-backend/internal/services"
	"compost-backend/pkg/utils"
)

// LoginRequest accepts either an email or a username as login
type LoginRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and returns a token for it
func Register(users *services.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := users.Register(r.Context(), req)
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusCreated, res)
	}
}

// Login authenticates by email or username
func Login(users *services.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		login := req.Login
		if login == "" {
			login = req.Email
		}
		if login == "" || req.Password == "" {
			utils.RespondError(w, http.StatusBadRequest, "login and password are required")
			return
		}

		logger.Info("🔐 Login attempt", zap.String("login", login))
		res, err := users.Authenticate(r.Context(), login, req.Password)
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, res)
	}
}

// Welcome reports whether to show the welcome screen, once per login
func Welcome(users *services.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		show, err := users.ConsumeWelcome(r.Context(), userID)
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]bool{"show_welcome": show})
	}
}

// GetProfile returns the current user's profile
func GetProfile(users *services.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		profile, err := users.GetProfile(r.Context(), userID)
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, profile)
	}
}

// UpdateProfile applies a partial profile update
func UpdateProfile(users *services.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		var req models.UpdateProfileRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		profile, err := users.UpdateProfile(r.Context(), userID, req)
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, profile)
	}
}

// RegisterFCMToken saves or refreshes the caller's push token
func RegisterFCMToken(users *services.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		var req models.RegisterFCMTokenRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := users.RegisterDevice(r.Context(), userID, req); err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "FCM token registered successfully",
		})
	}
}
