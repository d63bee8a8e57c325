package compost

import (
	"context"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compost-backend/internal/models"
)

type memoryReadings struct {
	readings []models.SensorReading
}

func (m *memoryReadings) ReadingExistsNear(_ context.Context, unitID string, at time.Time, window time.Duration) (bool, error) {
	for _, r := range m.readings {
		if r.CompostUnitID == nil || *r.CompostUnitID != unitID {
			continue
		}
		diff := r.Time().Sub(at)
		if diff < 0 {
			diff = -diff
		}
		if diff <= window {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryReadings) InsertReading(_ context.Context, r *models.SensorReading) error {
	r.ID = len(m.readings) + 1
	m.readings = append(m.readings, *r)
	return nil
}

// constRand always returns the same draws.
type constRand struct {
	n int
	f float64
}

func (c constRand) Intn(int) int     { return c.n }
func (c constRand) Float64() float64 { return c.f }

var demoNow = time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC)

func TestPhaseIndexForDay(t *testing.T) {
	want := []int{0, 0, 1, 1, 2, 2, 3}
	for day, idx := range want {
		assert.Equal(t, idx, PhaseIndexForDay(day), "day %d", day)
	}
	assert.Equal(t, 3, PhaseIndexForDay(12))
}

func TestGeneratorSample_PhaseZeroRange(t *testing.T) {
	g := &Generator{Rand: rand.New(rand.NewSource(42))}
	phase := DemoPhases[0]
	for i := 0; i < 1000; i++ {
		r := g.Sample(phase)
		assert.True(t, phase.Temperature.Contains(*r.Temperature), "temperature %v", *r.Temperature)
		assert.True(t, phase.Humidity.Contains(*r.Humidity))
		assert.True(t, phase.PH.Contains(*r.PH))
		assert.True(t, phase.Oxygen.Contains(*r.Oxygen))
		assert.InDelta(t, *r.Temperature, float64(int(*r.Temperature*10+0.5))/10, 1e-9)
	}
}

func TestGenerate_RespectsPhasesAndSpacing(t *testing.T) {
	store := &memoryReadings{}
	g := &Generator{
		Store: store,
		Rand:  rand.New(rand.NewSource(7)),
		Now:   func() time.Time { return demoNow },
	}

	res, err := g.Generate(context.Background(), "unit-1")
	require.NoError(t, err)
	assert.Equal(t, len(store.readings), res.Inserted)
	assert.GreaterOrEqual(t, res.Inserted+res.Skipped, DemoHorizonDays*4)
	assert.LessOrEqual(t, res.Inserted+res.Skipped, DemoHorizonDays*6)

	for _, r := range store.readings {
		require.NotNil(t, r.CompostUnitID)
		assert.Equal(t, "unit-1", *r.CompostUnitID)

		back := demoNow.Sub(r.Time())
		day := DemoHorizonDays - 1 - int(back/(24*time.Hour))
		phase := DemoPhases[PhaseIndexForDay(day)]
		assert.True(t, phase.Temperature.Contains(*r.Temperature), "day %d temperature %v", day, *r.Temperature)
		assert.True(t, phase.Humidity.Contains(*r.Humidity))
		assert.True(t, phase.PH.Contains(*r.PH))
		assert.True(t, phase.Oxygen.Contains(*r.Oxygen))
	}

	sort.Slice(store.readings, func(i, j int) bool {
		return store.readings[i].Timestamp < store.readings[j].Timestamp
	})
	for i := 1; i < len(store.readings); i++ {
		gap := store.readings[i].Time().Sub(store.readings[i-1].Time())
		assert.Greater(t, gap, DemoDedupWindow)
	}
}

func TestGenerate_SkipsReadingsNearExistingOnes(t *testing.T) {
	store := &memoryReadings{}
	g := &Generator{
		Store: store,
		Rand:  constRand{n: 0, f: 0},
		Now:   func() time.Time { return demoNow },
	}

	// Every draw lands on the same instant of each day: 4 candidates per day, 1 survives.
	res, err := g.Generate(context.Background(), "unit-1")
	require.NoError(t, err)
	assert.Equal(t, DemoHorizonDays, res.Inserted)
	assert.Equal(t, DemoHorizonDays*3, res.Skipped)

	// A second run over the same clock inserts nothing.
	res, err = g.Generate(context.Background(), "unit-1")
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
	assert.Equal(t, DemoHorizonDays*4, res.Skipped)
}

func TestGenerate_OtherUnitsDoNotBlock(t *testing.T) {
	other := "unit-2"
	store := &memoryReadings{readings: []models.SensorReading{
		{ID: 1, CompostUnitID: &other, Timestamp: demoNow.Unix()},
	}}
	g := &Generator{Store: store, Rand: constRand{}, Now: func() time.Time { return demoNow }}

	res, err := g.Generate(context.Background(), "unit-1")
	require.NoError(t, err)
	assert.Equal(t, DemoHorizonDays, res.Inserted)
}
