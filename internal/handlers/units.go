package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"compost-backend/internal/compost"
	"compost-backend/internal/models"
	"compost-backend/internal/services"
	"compost-backend/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ListUnits returns a page of the caller's units
func ListUnits(units *services.UnitService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		page, err := units.List(r.Context(), userID, utils.PageParam(r))
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, page)
	}
}

// CreateUnit registers a new compost unit for the caller
func CreateUnit(units *services.UnitService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		var req models.CreateUnitRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		unit, err := units.Create(r.Context(), userID, req)
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusCreated, unitResponse(unit))
	}
}

// GetUnit returns the unit detail page. ?page= selects the reading history page.
func GetUnit(units *services.UnitService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		detail, err := units.Detail(r.Context(), userID, chi.URLParam(r, "id"), utils.PageParam(r))
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, detail)
	}
}

// UpdateUnitStatus changes a unit's status
func UpdateUnitStatus(units *services.UnitService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		var req models.UpdateUnitStatusRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		unit, err := units.UpdateStatus(r.Context(), userID, chi.URLParam(r, "id"), req)
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, unitResponse(unit))
	}
}

// DeleteUnit removes a unit and everything recorded against it
func DeleteUnit(units *services.UnitService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		if err := units.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Dashboard returns the caller's unit overview
func Dashboard(units *services.UnitService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		dash, err := units.Dashboard(r.Context(), userID)
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, dash)
	}
}

// Statistics returns per-unit reading statistics and the materials chart
func Statistics(units *services.UnitService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		stats, err := units.Statistics(r.Context(), userID)
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, stats)
	}
}

// TemperatureChart returns daily temperature buckets from the unit's inspections
func TemperatureChart(units *services.UnitService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		series, err := units.TemperatureChart(r.Context(), userID, chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, series)
	}
}

// ExportReadings downloads the unit's readings as an xlsx workbook
func ExportReadings(units *services.UnitService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		var buf bytes.Buffer
		unit, rows, err := units.ExportReadings(r.Context(), userID, chi.URLParam(r, "id"), &buf)
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}

		logger.Info("📊 Readings exported", zap.String("unit_id", unit.ID), zap.Int("rows", rows))

		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(unit, time.Now())))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		buf.WriteTo(w)
	}
}

func unitResponse(unit *models.CompostUnit) models.CompostUnitResponse {
	return unit.ToCompostUnitResponse(compost.UnitCapacityPercentage(unit), compost.IsFull(unit))
}

// exportFilename builds a header-safe file name from the unit name
func exportFilename(unit *models.CompostUnit, now time.Time) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		case r == ' ' || r == '_':
			return '_'
		default:
			return -1
		}
	}, unit.Name)
	if name == "" {
		name = "unit"
	}
	return fmt.Sprintf("%s_readings_%s.xlsx", name, now.Format("20060102"))
}

// CreateDemoData seeds the caller's account with demo units and readings
func CreateDemoData(units *services.UnitService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		demo, err := units.CreateDemoData(r.Context(), userID)
		if err != nil {
			respondServiceError(w, r, logger, err)
			return
		}

		status := http.StatusOK
		if len(demo.Created) > 0 {
			status = http.StatusCreated
		}
		utils.RespondJSON(w, status, demo)
	}
}
