package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"compost-backend/internal/compost"
	"compost-backend/internal/metrics"
	"compost-backend/internal/models"
)

// ActivityService records what happens to a unit: feeding, harvesting, inspections and
// sensor readings
type ActivityService struct {
	units    UnitStore
	readings ReadingStore
	activity ActivityStore
	notifier Notifier
	feed     LiveFeed
	logger   *zap.Logger
	now      func() time.Time
}

// NewActivityService wires the activity service. A nil notifier or feed disables that
// side channel.
func NewActivityService(units UnitStore, readings ReadingStore, activity ActivityStore, notifier Notifier, feed LiveFeed, logger *zap.Logger) *ActivityService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if feed == nil {
		feed = NopLiveFeed{}
	}
	return &ActivityService{
		units:    units,
		readings: readings,
		activity: activity,
		notifier: notifier,
		feed:     feed,
		logger:   logger,
		now:      time.Now,
	}
}

// EntryResult is a stored feeding event and the unit after it
type EntryResult struct {
	Entry models.CompostEntryResponse `json:"entry"`
	Unit  models.CompostUnitResponse  `json:"unit"`
}

// RecordEntry adds material to one of the owner's units. The capacity check and the load
// update run against the locked unit row; reaching the full threshold flips the status to
// full and alerts the owner.
func (s *ActivityService) RecordEntry(ctx context.Context, ownerID, unitID string, req models.CreateEntryRequest) (*EntryResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if _, err := ownedUnit(ctx, s.units, ownerID, unitID); err != nil {
		return nil, err
	}

	if _, err := s.activity.GetMaterial(ctx, req.MaterialID); err != nil {
		if errors.Is(err, compost.ErrNotFound) {
			return nil, fmt.Errorf("material %d does not exist: %w", req.MaterialID, compost.ErrInvalidInput)
		}
		return nil, err
	}

	added, err := s.timestamp(req.DateAddedIso)
	if err != nil {
		return nil, err
	}

	entry := &models.CompostEntry{
		CompostUnitID: unitID,
		MaterialID:    req.MaterialID,
		UserID:        ownerID,
		Quantity:      req.Quantity,
		DateAdded:     added,
		Notes:         req.Notes,
	}
	var wasFull bool
	unit, err := s.activity.RecordEntry(ctx, entry, func(u *models.CompostUnit) error {
		if !compost.CanAddMaterial(u, req.Quantity) {
			return fmt.Errorf("unit %s load %.2f + %.2f over capacity %d: %w",
				u.ID, float64(u.CurrentLoad)+u.LoadCarry, req.Quantity, u.Capacity, compost.ErrCapacityExceeded)
		}
		wasFull = compost.IsFull(u)
		compost.AdjustLoad(u, req.Quantity)
		if compost.IsFull(u) {
			u.Status = models.UnitStatusFull
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := unitResponse(unit)
	if !wasFull && resp.IsFull {
		s.unitFull(ctx, ownerID, unit, resp)
	}
	return &EntryResult{Entry: entry.ToCompostEntryResponse(), Unit: resp}, nil
}

func (s *ActivityService) unitFull(ctx context.Context, ownerID string, unit *models.CompostUnit, resp models.CompostUnitResponse) {
	s.logger.Info("📦 Unit reached full threshold",
		zap.String("unit_id", unit.ID),
		zap.Float64("capacity_percentage", resp.CapacityPercentage),
	)
	s.feed.PublishUnitFull(ownerID, resp)
	if err := s.notifier.NotifyUnitFull(ctx, ownerID, unit); err != nil {
		s.logger.Warn("⚠️  Failed to send unit-full notification", zap.String("unit_id", unit.ID), zap.Error(err))
	}
}

// HarvestResult is a stored harvest and the unit after it
type HarvestResult struct {
	Harvest models.CompostHarvestResponse `json:"harvest"`
	Unit    models.CompostUnitResponse    `json:"unit"`
}

// RecordHarvest takes finished compost out of one of the owner's units. The load never goes
// below zero, and a full unit that drops under the threshold becomes active again.
func (s *ActivityService) RecordHarvest(ctx context.Context, ownerID, unitID string, req models.CreateHarvestRequest) (*HarvestResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if _, err := ownedUnit(ctx, s.units, ownerID, unitID); err != nil {
		return nil, err
	}

	harvest := &models.CompostHarvest{
		CompostUnitID:  unitID,
		UserID:         ownerID,
		Quantity:       req.Quantity,
		QualityGrade:   req.QualityGrade,
		CompostAgeDays: req.CompostAgeDays,
		HarvestDate:    s.now().Unix(),
		Notes:          req.Notes,
	}
	unit, err := s.activity.RecordHarvest(ctx, harvest, func(u *models.CompostUnit) error {
		compost.AdjustLoad(u, -req.Quantity)
		if u.Status == models.UnitStatusFull && !compost.IsFull(u) {
			u.Status = models.UnitStatusActive
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &HarvestResult{Harvest: harvest.ToCompostHarvestResponse(), Unit: unitResponse(unit)}, nil
}

// MonitoringResult is a stored inspection and its status bands. Bands is nil when the log
// has neither pH nor moisture.
type MonitoringResult struct {
	Log   models.MonitoringLogResponse `json:"log"`
	Bands *compost.Bands               `json:"bands,omitempty"`
}

// RecordMonitoring stores an inspection of one of the owner's units and refreshes the unit's
// measurement snapshot.
func (s *ActivityService) RecordMonitoring(ctx context.Context, ownerID, unitID string, req models.CreateMonitoringLogRequest) (*MonitoringResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if _, err := ownedUnit(ctx, s.units, ownerID, unitID); err != nil {
		return nil, err
	}

	log := &models.MonitoringLog{
		CompostUnitID:    unitID,
		UserID:           ownerID,
		Temperature:      req.Temperature,
		PHLevel:          req.PHLevel,
		MoistureLevel:    req.MoistureLevel,
		OdorIntensity:    req.OdorIntensity,
		PestPresence:     req.PestPresence,
		TurningPerformed: req.TurningPerformed,
		DateRecorded:     s.now().Unix(),
		Notes:            req.Notes,
	}
	if err := s.activity.InsertMonitoringLog(ctx, log); err != nil {
		return nil, err
	}
	if log.Temperature != nil || log.PHLevel != nil || log.MoistureLevel != nil {
		if err := s.units.UpdateUnitSnapshot(ctx, unitID, log.Temperature, log.PHLevel, log.MoistureLevel); err != nil {
			return nil, err
		}
	}

	out := &MonitoringResult{Log: log.ToMonitoringLogResponse()}
	bands, err := compost.StatusBands(compost.ObservationFromLog(log))
	switch {
	case err == nil:
		out.Bands = &bands
	case !errors.Is(err, compost.ErrMissingMeasurement):
		return nil, err
	}
	return out, nil
}

// RecordReading stores a sensor reading. unitID comes from the route when present, otherwise
// from the payload; a reading with neither is stored as an orphan. Readings attached to a
// unit refresh its snapshot and are pushed to the owner's live feed.
func (s *ActivityService) RecordReading(ctx context.Context, ownerID string, unitID *string, req models.CreateSensorReadingRequest) (*models.SensorReadingResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if unitID == nil {
		unitID = req.CompostUnitID
	}

	var unit *models.CompostUnit
	if unitID != nil {
		var err error
		if unit, err = ownedUnit(ctx, s.units, ownerID, *unitID); err != nil {
			return nil, err
		}
	}

	ts, err := s.timestamp(req.TimestampIso)
	if err != nil {
		return nil, err
	}
	reading := &models.SensorReading{
		CompostUnitID: unitID,
		Timestamp:     ts,
		Temperature:   req.Temperature,
		PH:            req.PH,
		Humidity:      req.Humidity,
		Oxygen:        req.Oxygen,
	}
	if err := s.readings.InsertReading(ctx, reading); err != nil {
		return nil, err
	}
	metrics.ReadingsIngested.WithLabelValues("device").Inc()

	resp := readingResponse(reading)
	if unit != nil {
		if err := s.units.UpdateUnitSnapshot(ctx, unit.ID, reading.Temperature, reading.PH, reading.Humidity); err != nil {
			return nil, err
		}
		s.feed.PublishReading(unit.OwnerID, resp)
	}
	return &resp, nil
}

// ListReadings returns a page of one of the owner's unit readings, newest first.
func (s *ActivityService) ListReadings(ctx context.Context, ownerID, unitID string, page int) ([]models.SensorReadingResponse, error) {
	if _, err := ownedUnit(ctx, s.units, ownerID, unitID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	readings, err := s.readings.ListReadings(ctx, unitID, ReadingsPageSize, (page-1)*ReadingsPageSize)
	if err != nil {
		return nil, err
	}
	return readingResponses(readings), nil
}

// ListLogs returns one of the owner's unit inspections, newest first.
func (s *ActivityService) ListLogs(ctx context.Context, ownerID, unitID string) ([]models.MonitoringLogResponse, error) {
	if _, err := ownedUnit(ctx, s.units, ownerID, unitID); err != nil {
		return nil, err
	}
	logs, err := s.activity.ListMonitoringLogs(ctx, unitID)
	if err != nil {
		return nil, err
	}
	out := make([]models.MonitoringLogResponse, len(logs))
	for i := range logs {
		out[i] = logs[i].ToMonitoringLogResponse()
	}
	return out, nil
}

// ListEntries returns one of the owner's unit feeding events, newest first.
func (s *ActivityService) ListEntries(ctx context.Context, ownerID, unitID string) ([]models.CompostEntryResponse, error) {
	if _, err := ownedUnit(ctx, s.units, ownerID, unitID); err != nil {
		return nil, err
	}
	entries, err := s.activity.ListEntries(ctx, unitID)
	if err != nil {
		return nil, err
	}
	out := make([]models.CompostEntryResponse, len(entries))
	for i := range entries {
		out[i] = entries[i].ToCompostEntryResponse()
	}
	return out, nil
}

// ListHarvests returns one of the owner's unit harvests, newest first.
func (s *ActivityService) ListHarvests(ctx context.Context, ownerID, unitID string) ([]models.CompostHarvestResponse, error) {
	if _, err := ownedUnit(ctx, s.units, ownerID, unitID); err != nil {
		return nil, err
	}
	harvests, err := s.activity.ListHarvests(ctx, unitID)
	if err != nil {
		return nil, err
	}
	out := make([]models.CompostHarvestResponse, len(harvests))
	for i := range harvests {
		out[i] = harvests[i].ToCompostHarvestResponse()
	}
	return out, nil
}

// ListMaterials returns the material catalog.
func (s *ActivityService) ListMaterials(ctx context.Context, recommendedOnly bool) ([]models.CompostMaterial, error) {
	return s.activity.ListMaterials(ctx, recommendedOnly)
}

// timestamp parses an optional RFC 3339 value, defaulting to now.
func (s *ActivityService) timestamp(iso *string) (int64, error) {
	if iso == nil || *iso == "" {
		return s.now().Unix(), nil
	}
	t, err := time.Parse(time.RFC3339, *iso)
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: %w", *iso, compost.ErrInvalidInput)
	}
	return t.Unix(), nil
}
