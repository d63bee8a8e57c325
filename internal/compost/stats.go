package compost

import (
	"context"
	"errors"
	"fmt"

	"compost-backend/internal/models"
)

// ReadingAggregate is the mean/count/max summary of one unit's readings. Averages are nil
// when no reading carries the field.
type ReadingAggregate struct {
	AvgTemp     *float64 `db:"avg_temp"`
	AvgPH       *float64 `db:"avg_ph"`
	AvgHumidity *float64 `db:"avg_humidity"`
	AvgOxygen   *float64 `db:"avg_oxygen"`
	Count       int      `db:"reading_count"`
	LatestAt    *int64   `db:"latest_at"`
}

// StatsSource is the storage side of statistics: aggregates are computed by the store.
type StatsSource interface {
	ReadingAggregate(ctx context.Context, unitID string) (ReadingAggregate, error)
	LatestReading(ctx context.Context, unitID string) (*models.SensorReading, error)
}

// UnitStats is the per-unit statistics row.
type UnitStats struct {
	Unit          models.CompostUnit    `json:"unit"`
	AvgTemp       *float64              `json:"avg_temp"`
	AvgPH         *float64              `json:"avg_ph"`
	AvgHumidity   *float64              `json:"avg_humidity"`
	AvgOxygen     *float64              `json:"avg_oxygen"`
	ReadingCount  int                   `json:"reading_count"`
	LatestReading *models.SensorReading `json:"latest_reading"`
}

// CollectUnitStats builds one UnitStats per unit that has readings. Units without
// readings are left out rather than reported with empty averages.
func CollectUnitStats(ctx context.Context, src StatsSource, units []models.CompostUnit) ([]UnitStats, error) {
	out := make([]UnitStats, 0, len(units))
	for _, u := range units {
		agg, err := src.ReadingAggregate(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("aggregate readings for unit %s: %w", u.ID, err)
		}
		if agg.Count == 0 {
			continue
		}

		latest, err := src.LatestReading(ctx, u.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("latest reading for unit %s: %w", u.ID, err)
		}

		out = append(out, UnitStats{
			Unit:          u,
			AvgTemp:       agg.AvgTemp,
			AvgPH:         agg.AvgPH,
			AvgHumidity:   agg.AvgHumidity,
			AvgOxygen:     agg.AvgOxygen,
			ReadingCount:  agg.Count,
			LatestReading: latest,
		})
	}
	return out, nil
}

// StatsAccumulator folds readings one at a time into a ReadingAggregate, for sources
// that cannot push aggregation down.
type StatsAccumulator struct {
	temp, ph, humidity, oxygen mean
	count                      int
	latest                     *models.SensorReading
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if isMissing(v) {
		return
	}
	m.sum += *v
	m.n++
}

func (m mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}

// Add folds one reading into the accumulator.
func (a *StatsAccumulator) Add(r models.SensorReading) {
	a.temp.add(r.Temperature)
	a.ph.add(r.PH)
	a.humidity.add(r.Humidity)
	a.oxygen.add(r.Oxygen)
	a.count++

	if a.latest == nil || r.Timestamp > a.latest.Timestamp ||
		(r.Timestamp == a.latest.Timestamp && r.ID > a.latest.ID) {
		latest := r
		a.latest = &latest
	}
}

// Aggregate returns the summary of everything added so far.
func (a *StatsAccumulator) Aggregate() ReadingAggregate {
	agg := ReadingAggregate{
		AvgTemp:     a.temp.value(),
		AvgPH:       a.ph.value(),
		AvgHumidity: a.humidity.value(),
		AvgOxygen:   a.oxygen.value(),
		Count:       a.count,
	}
	if a.latest != nil {
		ts := a.latest.Timestamp
		agg.LatestAt = &ts
	}
	return agg
}

// Latest returns the most recent reading added, or nil.
func (a *StatsAccumulator) Latest() *models.SensorReading {
	return a.latest
}
