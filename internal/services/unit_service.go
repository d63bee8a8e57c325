package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"compost-backend/internal/compost"
	"compost-backend/internal/export"
	"compost-backend/internal/metrics"
	"compost-backend/internal/models"
)

const (
	UnitsPageSize    = 10
	ReadingsPageSize = 20

	// Readings in the unit detail chart
	detailChartWindow = 24 * time.Hour

	// Readings in the statistics chart
	statisticsChartReadings = 100

	temperatureChartDays = 7
)

// demoUnits are created by CreateDemoData when the owner has no unit with the same name
var demoUnits = []struct {
	Name        string
	Location    string
	Description string
	Capacity    int
	UnitType    string
}{
	{"Demo Unit 1", "Main Garden", "Demo unit for household organic waste", 100, models.UnitTypeDomestic},
	{"Demo Unit 2", "Composting Area", "Industrial unit for large compost volumes", 200, models.UnitTypeIndustrial},
}

// UnitService owns compost units and the read models built on their readings
type UnitService struct {
	units    UnitStore
	readings ReadingStore
	activity ActivityStore
	geocoder Geocoder
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
	newRand  func() compost.Rand // called once per CreateDemoData
}

// NewUnitService wires the unit service. geocoder may be nil; loc is used for chart labels.
func NewUnitService(units UnitStore, readings ReadingStore, activity ActivityStore, geocoder Geocoder, loc *time.Location, logger *zap.Logger) *UnitService {
	if loc == nil {
		loc = time.UTC
	}
	return &UnitService{
		units:    units,
		readings: readings,
		activity: activity,
		geocoder: geocoder,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
		newRand: func() compost.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// Create validates and stores a new unit for ownerID. When no coordinates are given the
// location is geocoded; a geocoding failure does not block creation.
func (s *UnitService) Create(ctx context.Context, ownerID string, req models.CreateUnitRequest) (*models.CompostUnit, error) {
	if req.Capacity <= 0 {
		return nil, fmt.Errorf("unit %q capacity %d: %w", req.Name, req.Capacity, compost.ErrInvalidCapacity)
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	exists, err := s.units.UnitExistsByName(ctx, ownerID, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("unit %q: %w", req.Name, ErrUnitNameTaken)
	}

	now := s.now().Unix()
	unit := &models.CompostUnit{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Capacity:    req.Capacity,
		CurrentLoad: req.CurrentLoad,
		UnitType:    req.UnitType,
		Status:      models.UnitStatusActive,
		IsPublic:    req.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if compost.IsFull(unit) {
		unit.Status = models.UnitStatusFull
	}
	s.geocode(ctx, unit)

	if err := s.units.CreateUnit(ctx, unit); err != nil {
		if errors.Is(err, compost.ErrAlreadyExists) {
			return nil, fmt.Errorf("unit %q: %w", req.Name, ErrUnitNameTaken)
		}
		return nil, err
	}

	s.logger.Info("✅ Unit created",
		zap.String("unit_id", unit.ID),
		zap.String("owner_id", ownerID),
		zap.Int("capacity", unit.Capacity),
	)
	return unit, nil
}

func (s *UnitService) geocode(ctx context.Context, unit *models.CompostUnit) {
	if s.geocoder == nil || unit.Latitude != nil || unit.Longitude != nil {
		return
	}
	addr, err := s.geocoder.Geocode(ctx, unit.Location)
	if err != nil {
		s.logger.Warn("⚠️  Geocoding failed, storing unit without coordinates",
			zap.String("location", unit.Location),
			zap.Error(err),
		)
		return
	}
	lat, lng := addr.Coordinates.Lat, addr.Coordinates.Lng
	unit.Latitude = &lat
	unit.Longitude = &lng
}

// Get returns one of the owner's units.
func (s *UnitService) Get(ctx context.Context, ownerID, unitID string) (*models.CompostUnit, error) {
	return ownedUnit(ctx, s.units, ownerID, unitID)
}

// UnitPage is one page of an owner's units, newest first
type UnitPage struct {
	Units      []models.CompostUnitResponse `json:"units"`
	Page       int                          `json:"page"`
	TotalPages int                          `json:"total_pages"`
	TotalUnits int                          `json:"total_units"`
}

// List returns a page of the owner's units. Pages start at 1.
func (s *UnitService) List(ctx context.Context, ownerID string, page int) (*UnitPage, error) {
	units, err := s.units.ListUnitsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	total := len(units)
	totalPages := (total + UnitsPageSize - 1) / UnitsPageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * UnitsPageSize
	end := min(start+UnitsPageSize, total)

	out := &UnitPage{
		Units:      make([]models.CompostUnitResponse, 0, end-start),
		Page:       page,
		TotalPages: totalPages,
		TotalUnits: total,
	}
	for i := start; i < end; i++ {
		out.Units = append(out.Units, unitResponse(&units[i]))
	}
	return out, nil
}

// UnitDetail is the unit page: derived state, latest reading, last-24h chart and one page
// of reading history
type UnitDetail struct {
	Unit          models.CompostUnitResponse     `json:"unit"`
	LatestReading *models.SensorReadingResponse  `json:"latest_reading"`
	Phase         string                         `json:"phase,omitempty"`
	Chart         compost.Series                 `json:"chart"`
	Readings      []models.SensorReadingResponse `json:"readings"`
	Page          int                            `json:"page"`
	TotalReadings int                            `json:"total_readings"`
}

// Detail assembles the unit page for one of the owner's units.
func (s *UnitService) Detail(ctx context.Context, ownerID, unitID string, page int) (*UnitDetail, error) {
	unit, err := ownedUnit(ctx, s.units, ownerID, unitID)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}

	detail := &UnitDetail{Unit: unitResponse(unit), Page: page}

	latest, err := s.readings.LatestReading(ctx, unitID)
	switch {
	case err == nil:
		resp := readingResponse(latest)
		detail.LatestReading = &resp
		detail.Phase = resp.Phase
	case !errors.Is(err, compost.ErrNotFound):
		return nil, err
	}

	recent, err := s.readings.ListReadingsSince(ctx, unitID, s.now().Add(-detailChartWindow))
	if err != nil {
		return nil, err
	}
	detail.Chart = compost.BuildSeries(recent, s.loc)

	history, err := s.readings.ListReadings(ctx, unitID, ReadingsPageSize, (page-1)*ReadingsPageSize)
	if err != nil {
		return nil, err
	}
	detail.Readings = readingResponses(history)

	if detail.TotalReadings, err = s.readings.CountReadings(ctx, unitID); err != nil {
		return nil, err
	}
	return detail, nil
}

// UpdateStatus sets the status of one of the owner's units.
func (s *UnitService) UpdateStatus(ctx context.Context, ownerID, unitID string, req models.UpdateUnitStatusRequest) (*models.CompostUnit, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	unit, err := ownedUnit(ctx, s.units, ownerID, unitID)
	if err != nil {
		return nil, err
	}
	if err := s.units.UpdateUnitStatus(ctx, unitID, req.Status); err != nil {
		return nil, err
	}
	unit.Status = req.Status
	unit.UpdatedAt = s.now().Unix()
	return unit, nil
}

// Delete removes one of the owner's units together with its readings, logs, harvests and
// entries.
func (s *UnitService) Delete(ctx context.Context, ownerID, unitID string) error {
	if _, err := ownedUnit(ctx, s.units, ownerID, unitID); err != nil {
		return err
	}
	if err := s.units.DeleteUnitCascade(ctx, unitID); err != nil {
		return err
	}
	s.logger.Info("🗑️  Unit deleted", zap.String("unit_id", unitID), zap.String("owner_id", ownerID))
	return nil
}

// DashboardEntry is a unit with its latest reading
type DashboardEntry struct {
	Unit    models.CompostUnitResponse   `json:"unit"`
	Reading models.SensorReadingResponse `json:"data"`
	Phase   string                       `json:"phase,omitempty"`
}

// Dashboard is the owner's overview
type Dashboard struct {
	Units         []models.CompostUnitResponse `json:"units"`
	ActiveUnits   int                          `json:"active_units"`
	TotalCapacity int                          `json:"total_capacity"`
	RecentData    []DashboardEntry             `json:"recent_data"`
}

// Dashboard summarizes the owner's units. Units without readings are listed but have no
// recent data entry.
func (s *UnitService) Dashboard(ctx context.Context, ownerID string) (*Dashboard, error) {
	units, err := s.units.ListUnitsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := &Dashboard{
		Units:      make([]models.CompostUnitResponse, 0, len(units)),
		RecentData: []DashboardEntry{},
	}
	for i := range units {
		unit := &units[i]
		resp := unitResponse(unit)
		out.Units = append(out.Units, resp)
		out.TotalCapacity += unit.Capacity
		if unit.Status == models.UnitStatusActive {
			out.ActiveUnits++
		}

		latest, err := s.readings.LatestReading(ctx, unit.ID)
		if errors.Is(err, compost.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		reading := readingResponse(latest)
		out.RecentData = append(out.RecentData, DashboardEntry{Unit: resp, Reading: reading, Phase: reading.Phase})
	}
	return out, nil
}

// MaterialsChart is the C:N ratio of each recommended material
type MaterialsChart struct {
	Labels []string  `json:"labels"`
	Ratios []float64 `json:"ratios"`
}

// Statistics is the owner's statistics page
type Statistics struct {
	TotalReadings int                 `json:"total_readings"`
	UnitStats     []compost.UnitStats `json:"unit_stats"`
	Chart         compost.Series      `json:"chart"`
	Materials     MaterialsChart      `json:"materials_chart"`
}

// Statistics aggregates readings across all of the owner's units.
func (s *UnitService) Statistics(ctx context.Context, ownerID string) (*Statistics, error) {
	units, err := s.units.ListUnitsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := &Statistics{}
	if out.TotalReadings, err = s.readings.CountReadingsByOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if out.UnitStats, err = compost.CollectUnitStats(ctx, s.readings, units); err != nil {
		return nil, err
	}

	recent, err := s.readings.ListRecentReadingsByOwner(ctx, ownerID, statisticsChartReadings)
	if err != nil {
		return nil, err
	}
	out.Chart = compost.BuildSeries(recent, s.loc)

	materials, err := s.activity.ListMaterials(ctx, true)
	if err != nil {
		return nil, err
	}
	out.Materials = MaterialsChart{
		Labels: make([]string, len(materials)),
		Ratios: make([]float64, len(materials)),
	}
	for i, m := range materials {
		out.Materials.Labels[i] = m.Name
		out.Materials.Ratios[i] = m.CarbonNitrogenRatio
	}
	return out, nil
}

// TemperatureChart returns the last-log-of-day temperature for the past seven calendar days,
// today included.
func (s *UnitService) TemperatureChart(ctx context.Context, ownerID, unitID string) (*compost.DailySeries, error) {
	if _, err := ownedUnit(ctx, s.units, ownerID, unitID); err != nil {
		return nil, err
	}

	start := s.now().In(s.loc).AddDate(0, 0, -(temperatureChartDays - 1))
	since := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.loc)

	logs, err := s.activity.ListMonitoringLogsSince(ctx, unitID, since)
	if err != nil {
		return nil, err
	}
	series, err := compost.BucketDaily(logs, start, temperatureChartDays)
	if err != nil {
		return nil, err
	}
	return &series, nil
}

// ExportReadings writes an xlsx report of all the unit's readings to w and returns the
// unit and the number of rows written.
func (s *UnitService) ExportReadings(ctx context.Context, ownerID, unitID string, w io.Writer) (*models.CompostUnit, int, error) {
	unit, err := ownedUnit(ctx, s.units, ownerID, unitID)
	if err != nil {
		return nil, 0, err
	}

	wb, err := export.NewReadingsWorkbook(unit, s.loc)
	if err != nil {
		return nil, 0, err
	}
	if err := s.readings.StreamReadings(ctx, unitID, wb.Add); err != nil {
		wb.Close()
		return nil, 0, err
	}
	rows := wb.Rows()
	if _, err := wb.WriteTo(w); err != nil {
		return nil, 0, err
	}
	return unit, rows, nil
}

// DemoUnitResult reports one demo unit created by CreateDemoData
type DemoUnitResult struct {
	Unit models.CompostUnitResponse `json:"unit"`
	compost.DemoResult
}

// DemoData is the outcome of CreateDemoData
type DemoData struct {
	Created []DemoUnitResult `json:"created"`
	Existed []string         `json:"existed"`
}

// CreateDemoData creates the demo units the owner does not have yet and fills each new unit
// with a week of synthetic readings.
func (s *UnitService) CreateDemoData(ctx context.Context, ownerID string) (*DemoData, error) {
	gen := &compost.Generator{Store: s.readings, Rand: s.newRand(), Now: s.now}
	out := &DemoData{Created: []DemoUnitResult{}, Existed: []string{}}

	for _, d := range demoUnits {
		exists, err := s.units.UnitExistsByName(ctx, ownerID, d.Name)
		if err != nil {
			return nil, err
		}
		if exists {
			out.Existed = append(out.Existed, d.Name)
			continue
		}

		now := s.now().Unix()
		unit := &models.CompostUnit{
			ID:          uuid.NewString(),
			OwnerID:     ownerID,
			Name:        d.Name,
			Description: d.Description,
			Location:    d.Location,
			Capacity:    d.Capacity,
			UnitType:    d.UnitType,
			Status:      models.UnitStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.units.CreateUnit(ctx, unit); err != nil {
			if errors.Is(err, compost.ErrAlreadyExists) {
				out.Existed = append(out.Existed, d.Name)
				continue
			}
			return nil, err
		}

		res, err := gen.Generate(ctx, unit.ID)
		if err != nil {
			return nil, fmt.Errorf("demo readings for %s: %w", unit.Name, err)
		}
		metrics.ReadingsIngested.WithLabelValues("demo").Add(float64(res.Inserted))
		metrics.DemoReadingsSkipped.Add(float64(res.Skipped))

		out.Created = append(out.Created, DemoUnitResult{Unit: unitResponse(unit), DemoResult: res})
	}

	s.logger.Info("🧪 Demo data generated",
		zap.String("owner_id", ownerID),
		zap.Int("created", len(out.Created)),
		zap.Int("existed", len(out.Existed)),
	)
	return out, nil
}
