package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"compost-backend/internal/compost"
	"compost-backend/internal/middleware"
	"compost-backend/internal/services"
	"compost-backend/pkg/utils"
)

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, compost.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, compost.ErrInvalidCapacity), errors.Is(err, compost.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, compost.ErrCapacityExceeded),
		errors.Is(err, services.ErrUserExists),
		errors.Is(err, services.ErrUnitNameTaken):
		return http.StatusConflict
	case errors.Is(err, compost.ErrMissingMeasurement):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err with its mapped status. Internal errors are logged and
// hidden from the client.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("❌ Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		utils.RespondError(w, status, "internal server error")
		return
	}
	utils.RespondError(w, status, err.Error())
}

// currentUser returns the authenticated user's ID or writes a 401
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.GetUserFromContext(r)
	if !ok || claims.UserID == "" {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return claims.UserID, true
}
