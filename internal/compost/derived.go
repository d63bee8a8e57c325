package compost

import (
	"fmt"
	"math"

	"compost-backend/internal/models"
)

// FullThreshold is the capacity percentage at which a unit counts as full.
const FullThreshold = 95.0

// Phase is the decomposition stage inferred from temperature.
type Phase string

const (
	PhaseThermophilic Phase = "Thermophilic"
	PhaseMesophilic   Phase = "Mesophilic"
	PhaseCooling      Phase = "Cooling"
)

// Band classifies a measurement against its healthy range.
type Band string

const (
	BandNominal  Band = "nominal"
	BandWarning  Band = "warning"
	BandCritical Band = "critical"
	BandUnknown  Band = "unknown"
)

// Status flags
const (
	FlagPestPresence     = "pest_presence"
	FlagTurningPerformed = "turning_performed"
)

// CapacityPercentage returns load as a percentage of capacity. A non-positive capacity
// (including the zero value used for "missing") yields 0.
func CapacityPercentage(capacity, load int) float64 {
	if capacity <= 0 {
		return 0.0
	}
	return float64(load) * 100 / float64(capacity)
}

// UnitCapacityPercentage is CapacityPercentage over a unit snapshot.
func UnitCapacityPercentage(unit *models.CompostUnit) float64 {
	if unit == nil {
		return 0.0
	}
	return CapacityPercentage(unit.Capacity, unit.CurrentLoad)
}

// IsFull reports whether the unit is at or above FullThreshold.
func IsFull(unit *models.CompostUnit) bool {
	return UnitCapacityPercentage(unit) >= FullThreshold
}

// CanAddMaterial reports whether amount kg fits in the unit, counting the carried fraction.
func CanAddMaterial(unit *models.CompostUnit, amount float64) bool {
	if unit == nil {
		return false
	}
	return float64(unit.CurrentLoad)+unit.LoadCarry+amount <= float64(unit.Capacity)
}

const loadEpsilon = 1e-9

// AdjustLoad adds delta kg (negative for harvests) to the unit. CurrentLoad keeps whole
// kilograms and LoadCarry the remaining fraction, so small entries add up. The load never
// drops below zero.
func AdjustLoad(unit *models.CompostUnit, delta float64) {
	total := float64(unit.CurrentLoad) + unit.LoadCarry + delta
	if total < 0 {
		total = 0
	}
	whole := math.Floor(total + loadEpsilon)
	carry := total - whole
	if carry < loadEpsilon {
		carry = 0
	}
	unit.CurrentLoad = int(whole)
	unit.LoadCarry = carry
}

// PhaseFor classifies a known temperature.
func PhaseFor(temperature float64) Phase {
	switch {
	case temperature > 50:
		return PhaseThermophilic
	case temperature > 30:
		return PhaseMesophilic
	default:
		return PhaseCooling
	}
}

// CompostPhase classifies a nullable temperature.
func CompostPhase(temperature *float64) (Phase, error) {
	if temperature == nil || math.IsNaN(*temperature) {
		return "", fmt.Errorf("compost phase: temperature: %w", ErrMissingMeasurement)
	}
	return PhaseFor(*temperature), nil
}

// Observation is the subset of a reading or monitoring log that status bands look at.
type Observation struct {
	PH               *float64
	Moisture         *float64
	PestPresence     bool
	TurningPerformed bool
}

// ObservationFromLog builds an Observation from a manual monitoring log.
func ObservationFromLog(l *models.MonitoringLog) Observation {
	return Observation{
		PH:               l.PHLevel,
		Moisture:         l.MoistureLevel,
		PestPresence:     l.PestPresence,
		TurningPerformed: l.TurningPerformed,
	}
}

// ObservationFromReading builds an Observation from a sensor reading; humidity stands in for moisture.
func ObservationFromReading(r *models.SensorReading) Observation {
	return Observation{
		PH:       r.PH,
		Moisture: r.Humidity,
	}
}

// Bands is the status-indicator classification of one observation.
type Bands struct {
	PHBand       Band     `json:"ph_band"`
	MoistureBand Band     `json:"moisture_band"`
	Flags        []string `json:"flags"`
}

// StatusBands classifies pH and moisture. A single missing field is BandUnknown; when both
// are missing there is nothing to classify and ErrMissingMeasurement is returned.
func StatusBands(obs Observation) (Bands, error) {
	if isMissing(obs.PH) && isMissing(obs.Moisture) {
		return Bands{}, fmt.Errorf("status bands: ph and moisture: %w", ErrMissingMeasurement)
	}

	b := Bands{
		PHBand:       BandUnknown,
		MoistureBand: BandUnknown,
		Flags:        []string{},
	}
	if !isMissing(obs.PH) {
		b.PHBand = phBand(*obs.PH)
	}
	if !isMissing(obs.Moisture) {
		b.MoistureBand = moistureBand(*obs.Moisture)
	}
	if obs.PestPresence {
		b.Flags = append(b.Flags, FlagPestPresence)
	}
	if obs.TurningPerformed {
		b.Flags = append(b.Flags, FlagTurningPerformed)
	}
	return b, nil
}

func phBand(ph float64) Band {
	switch {
	case ph >= 6.5 && ph <= 8.0:
		return BandNominal
	case (ph >= 6.0 && ph < 6.5) || (ph > 8.0 && ph <= 9.0):
		return BandWarning
	default:
		return BandCritical
	}
}

func moistureBand(m float64) Band {
	switch {
	case m >= 40 && m <= 60:
		return BandNominal
	case (m >= 30 && m < 40) || (m > 60 && m <= 70):
		return BandWarning
	default:
		return BandCritical
	}
}

func isMissing(v *float64) bool {
	return v == nil || math.IsNaN(*v)
}
