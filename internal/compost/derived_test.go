package compost

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compost-backend/internal/models"
)

func ptr(v float64) *float64 { return &v }

func TestCapacityPercentage(t *testing.T) {
	for capacity := 1; capacity <= 250; capacity += 7 {
		for load := 0; load <= capacity; load += 3 {
			got := CapacityPercentage(capacity, load)
			assert.InDelta(t, float64(load)/float64(capacity)*100, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		}
	}
}

func TestCapacityPercentage_MissingCapacity(t *testing.T) {
	assert.Equal(t, 0.0, CapacityPercentage(0, 40))
	assert.Equal(t, 0.0, CapacityPercentage(-10, 40))
	assert.Equal(t, 0.0, UnitCapacityPercentage(nil))
	assert.Equal(t, 0.0, UnitCapacityPercentage(&models.CompostUnit{CurrentLoad: 12}))
}

func TestIsFull_Boundary(t *testing.T) {
	assert.False(t, IsFull(&models.CompostUnit{Capacity: 100000, CurrentLoad: 94999}))
	assert.True(t, IsFull(&models.CompostUnit{Capacity: 100, CurrentLoad: 95}))
	assert.True(t, IsFull(&models.CompostUnit{Capacity: 200, CurrentLoad: 190}))
	assert.False(t, IsFull(&models.CompostUnit{Capacity: 0, CurrentLoad: 50}))
}

func TestIsFull_EndToEnd(t *testing.T) {
	unit := &models.CompostUnit{Capacity: 100, CurrentLoad: 96}
	assert.True(t, IsFull(unit))
	assert.Equal(t, 96.0, UnitCapacityPercentage(unit))
}

func TestCanAddMaterial(t *testing.T) {
	unit := &models.CompostUnit{Capacity: 100, CurrentLoad: 90}
	assert.True(t, CanAddMaterial(unit, 10))
	assert.True(t, CanAddMaterial(unit, 0.5))
	assert.False(t, CanAddMaterial(unit, 10.01))
	assert.False(t, CanAddMaterial(nil, 1))

	carried := &models.CompostUnit{Capacity: 100, CurrentLoad: 99, LoadCarry: 0.6}
	assert.True(t, CanAddMaterial(carried, 0.4))
	assert.False(t, CanAddMaterial(carried, 0.5))
}

func TestAdjustLoad_AccumulatesFractions(t *testing.T) {
	unit := &models.CompostUnit{Capacity: 100}
	for i := 0; i < 10; i++ {
		AdjustLoad(unit, 0.4)
	}
	assert.Equal(t, 4, unit.CurrentLoad)
	assert.InDelta(t, 0, unit.LoadCarry, 1e-9)

	AdjustLoad(unit, 2.75)
	assert.Equal(t, 6, unit.CurrentLoad)
	assert.InDelta(t, 0.75, unit.LoadCarry, 1e-9)
}

func TestAdjustLoad_HarvestClampsAtZero(t *testing.T) {
	unit := &models.CompostUnit{Capacity: 100, CurrentLoad: 3, LoadCarry: 0.5}
	AdjustLoad(unit, -1.25)
	assert.Equal(t, 2, unit.CurrentLoad)
	assert.InDelta(t, 0.25, unit.LoadCarry, 1e-9)

	AdjustLoad(unit, -50)
	assert.Equal(t, 0, unit.CurrentLoad)
	assert.Zero(t, unit.LoadCarry)
}

func TestCompostPhase(t *testing.T) {
	cases := []struct {
		temp float64
		want Phase
	}{
		{51, PhaseThermophilic},
		{55, PhaseThermophilic},
		{50, PhaseMesophilic},
		{30.01, PhaseMesophilic},
		{30, PhaseCooling},
		{20, PhaseCooling},
		{-5, PhaseCooling},
	}
	for _, tc := range cases {
		got, err := CompostPhase(ptr(tc.temp))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "temperature %v", tc.temp)
		assert.Equal(t, tc.want, PhaseFor(tc.temp))
	}
}

func TestCompostPhase_MissingTemperature(t *testing.T) {
	_, err := CompostPhase(nil)
	assert.ErrorIs(t, err, ErrMissingMeasurement)

	_, err = CompostPhase(ptr(math.NaN()))
	assert.ErrorIs(t, err, ErrMissingMeasurement)
}

func TestStatusBands_PH(t *testing.T) {
	cases := map[float64]Band{
		6.5:  BandNominal,
		7.2:  BandNominal,
		8.0:  BandNominal,
		6.0:  BandWarning,
		6.49: BandWarning,
		8.01: BandWarning,
		9.0:  BandWarning,
		5.99: BandCritical,
		9.01: BandCritical,
	}
	for ph, want := range cases {
		b, err := StatusBands(Observation{PH: ptr(ph)})
		require.NoError(t, err)
		assert.Equal(t, want, b.PHBand, "ph %v", ph)
		assert.Equal(t, BandUnknown, b.MoistureBand)
	}
}

func TestStatusBands_Moisture(t *testing.T) {
	cases := map[float64]Band{
		40:    BandNominal,
		60:    BandNominal,
		30:    BandWarning,
		39.9:  BandWarning,
		60.5:  BandWarning,
		70:    BandWarning,
		29.9:  BandCritical,
		70.1:  BandCritical,
		100.0: BandCritical,
	}
	for m, want := range cases {
		b, err := StatusBands(Observation{Moisture: ptr(m)})
		require.NoError(t, err)
		assert.Equal(t, want, b.MoistureBand, "moisture %v", m)
	}
}

func TestStatusBands_Flags(t *testing.T) {
	log := &models.MonitoringLog{
		PHLevel:          ptr(7),
		MoistureLevel:    ptr(50),
		PestPresence:     true,
		TurningPerformed: true,
	}
	b, err := StatusBands(ObservationFromLog(log))
	require.NoError(t, err)
	assert.Equal(t, []string{FlagPestPresence, FlagTurningPerformed}, b.Flags)

	b, err = StatusBands(ObservationFromReading(&models.SensorReading{PH: ptr(7), Humidity: ptr(65)}))
	require.NoError(t, err)
	assert.Empty(t, b.Flags)
	assert.Equal(t, BandWarning, b.MoistureBand)
}

func TestStatusBands_NothingToClassify(t *testing.T) {
	_, err := StatusBands(Observation{PestPresence: true})
	assert.ErrorIs(t, err, ErrMissingMeasurement)
}
