package compost

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"compost-backend/internal/models"
)

const (
	// DemoHorizonDays is how many days of history the generator produces.
	DemoHorizonDays = 7
	// DemoDedupWindow is the half-width of the window in which an existing reading blocks a new one.
	DemoDedupWindow = 30 * time.Minute

	demoDaysPerPhase = 2
	demoMinPerDay    = 4
	demoExtraPerDay  = 3 // 4..6 readings per day
)

// Range is an inclusive numeric range.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// DemoPhase holds the value ranges of one decomposition stage.
type DemoPhase struct {
	Temperature Range
	Humidity    Range
	PH          Range
	Oxygen      Range
}

// DemoPhases follows a typical decomposition curve: hot start, then cooling and maturing.
var DemoPhases = []DemoPhase{
	{Temperature: Range{45, 65}, Humidity: Range{40, 60}, PH: Range{6.0, 7.5}, Oxygen: Range{5, 15}},
	{Temperature: Range{25, 45}, Humidity: Range{50, 70}, PH: Range{6.5, 8.0}, Oxygen: Range{10, 20}},
	{Temperature: Range{20, 35}, Humidity: Range{55, 75}, PH: Range{7.0, 8.5}, Oxygen: Range{15, 25}},
	{Temperature: Range{15, 25}, Humidity: Range{60, 80}, PH: Range{7.5, 8.5}, Oxygen: Range{18, 30}},
}

// PhaseIndexForDay maps a day of the horizon to its phase; the last phase absorbs the remainder.
func PhaseIndexForDay(day int) int {
	return min(day/demoDaysPerPhase, len(DemoPhases)-1)
}

// Rand is the random source used by the generator. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// ReadingWriter is the storage side of the generator.
type ReadingWriter interface {
	ReadingExistsNear(ctx context.Context, unitID string, at time.Time, window time.Duration) (bool, error)
	InsertReading(ctx context.Context, r *models.SensorReading) error
}

// DemoResult counts what a generator run did.
type DemoResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// Generator synthesizes a week of sensor history for a unit.
type Generator struct {
	Store ReadingWriter
	Rand  Rand
	Now   func() time.Time
}

// Generate writes DemoHorizonDays days of readings for unitID. Candidates that fall within
// DemoDedupWindow of an existing reading are skipped.
func (g *Generator) Generate(ctx context.Context, unitID string) (DemoResult, error) {
	var res DemoResult
	now := g.now()

	for day := 0; day < DemoHorizonDays; day++ {
		phase := DemoPhases[PhaseIndexForDay(day)]
		count := demoMinPerDay + g.Rand.Intn(demoExtraPerDay)

		for i := 0; i < count; i++ {
			offset := time.Duration(DemoHorizonDays-1-day)*24*time.Hour +
				time.Duration(g.Rand.Intn(24))*time.Hour +
				time.Duration(g.Rand.Intn(60))*time.Minute
			at := now.Add(-offset)

			reading := g.Sample(phase)
			reading.CompostUnitID = &unitID
			reading.Timestamp = at.Unix()

			err := g.insert(ctx, unitID, at, &reading)
			if errors.Is(err, ErrDuplicateSkipped) {
				res.Skipped++
				continue
			}
			if err != nil {
				return res, err
			}
			res.Inserted++
		}
	}
	return res, nil
}

// Sample draws one reading's values uniformly from the phase ranges, rounded to one decimal.
func (g *Generator) Sample(phase DemoPhase) models.SensorReading {
	temp := g.uniform(phase.Temperature)
	humidity := g.uniform(phase.Humidity)
	ph := g.uniform(phase.PH)
	oxygen := g.uniform(phase.Oxygen)
	return models.SensorReading{
		Temperature: &temp,
		Humidity:    &humidity,
		PH:          &ph,
		Oxygen:      &oxygen,
	}
}

func (g *Generator) insert(ctx context.Context, unitID string, at time.Time, r *models.SensorReading) error {
	exists, err := g.Store.ReadingExistsNear(ctx, unitID, at, DemoDedupWindow)
	if err != nil {
		return fmt.Errorf("check nearby readings: %w", err)
	}
	if exists {
		return ErrDuplicateSkipped
	}
	if err := g.Store.InsertReading(ctx, r); err != nil {
		return fmt.Errorf("insert demo reading: %w", err)
	}
	return nil
}

func (g *Generator) uniform(r Range) float64 {
	v := r.Min + g.Rand.Float64()*(r.Max-r.Min)
	return math.Round(v*10) / 10
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}
