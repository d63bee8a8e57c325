package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"compost-backend/internal/models"
	"compost-backend/internal/services"
	"compost-backend/pkg/utils"
)

// ListReadings returns a page of the unit's sensor readings
func ListReadings(activity *services.ActivityService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		readings, err := activity.ListReadings(r.Context(), userID, chi.URLParam(r, "id"), utils.PageParam(r))
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, readings)
	}
}

// CreateReading records a sensor reading. Under /api/units/{id} the unit comes from the
// route; on /api/readings it comes from the payload or is omitted.
func CreateReading(activity *services.ActivityService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		var req models.CreateSensorReadingRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		var unitID *string
		if id := chi.URLParam(r, "id"); id != "" {
			unitID = &id
		}

		reading, err := activity.RecordReading(r.Context(), userID, unitID, req)
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusCreated, reading)
	}
}

// ListMonitoring returns the unit's inspection logs
func ListMonitoring(activity *services.ActivityService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		logs, err := activity.ListLogs(r.Context(), userID, chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, logs)
	}
}

// CreateMonitoring records an inspection and returns it with its status bands
func CreateMonitoring(activity *services.ActivityService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		var req models.CreateMonitoringLogRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := activity.RecordMonitoring(r.Context(), userID, chi.URLParam(r, "id"), req)
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusCreated, res)
	}
}

// ListEntries returns the material added to the unit
func ListEntries(activity *services.ActivityService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		entries, err := activity.ListEntries(r.Context(), userID, chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, entries)
	}
}

// CreateEntry adds material to the unit
func CreateEntry(activity *services.ActivityService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		var req models.CreateEntryRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := activity.RecordEntry(r.Context(), userID, chi.URLParam(r, "id"), req)
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusCreated, res)
	}
}

// ListHarvests returns the unit's harvests
func ListHarvests(activity *services.ActivityService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		harvests, err := activity.ListHarvests(r.Context(), userID, chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, harvests)
	}
}

// CreateHarvest takes finished compost out of the unit
func CreateHarvest(activity *services.ActivityService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		var req models.CreateHarvestRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := activity.RecordHarvest(r.Context(), userID, chi.URLParam(r, "id"), req)
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusCreated, res)
	}
}

// ListMaterials returns the material catalog. ?recommended=true limits it to recommended ones.
func ListMaterials(activity *services.ActivityService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recommended := r.URL.Query().Get("recommended") == "true"

		materials, err := activity.ListMaterials(r.Context(), recommended)
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, materials)
	}
}
