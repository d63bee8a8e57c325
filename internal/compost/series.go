package compost

import (
	"fmt"
	"sort"
	"time"

	"compost-backend/internal/models"
)

const (
	seriesLabelLayout = "02/01 15:04"
	dailyLabelLayout  = "02 Jan"
)

// Series is chart-ready sensor data. All slices have the same length and share indexes.
type Series struct {
	Labels      []string   `json:"labels"`
	Temperature []*float64 `json:"temperature"`
	Humidity    []*float64 `json:"humidity"`
	PH          []*float64 `json:"ph"`
	Oxygen      []*float64 `json:"oxygen"`
}

// BuildSeries orders readings oldest first and splits them into label and value series.
// Missing fields stay nil at their index. The input slice is not modified.
func BuildSeries(readings []models.SensorReading, loc *time.Location) Series {
	if loc == nil {
		loc = time.UTC
	}

	sorted := make([]models.SensorReading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Timestamp != sorted[j].Timestamp {
			return sorted[i].Timestamp < sorted[j].Timestamp
		}
		return sorted[i].ID < sorted[j].ID
	})

	s := Series{
		Labels:      make([]string, len(sorted)),
		Temperature: make([]*float64, len(sorted)),
		Humidity:    make([]*float64, len(sorted)),
		PH:          make([]*float64, len(sorted)),
		Oxygen:      make([]*float64, len(sorted)),
	}
	for i, r := range sorted {
		s.Labels[i] = r.Time().In(loc).Format(seriesLabelLayout)
		s.Temperature[i] = r.Temperature
		s.Humidity[i] = r.Humidity
		s.PH[i] = r.PH
		s.Oxygen[i] = r.Oxygen
	}
	return s
}

// DailySeries is one temperature value per calendar day.
type DailySeries struct {
	Labels      []string   `json:"labels"`
	Temperature []*float64 `json:"temperature"`
}

// BucketDaily produces exactly days buckets starting at the calendar day of start (in
// start's location). Each bucket holds the temperature of that day's last log, or nil.
func BucketDaily(logs []models.MonitoringLog, start time.Time, days int) (DailySeries, error) {
	if days < 1 {
		return DailySeries{}, fmt.Errorf("bucket daily: days=%d: %w", days, ErrInvalidInput)
	}

	loc := start.Location()
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)

	out := DailySeries{
		Labels:      make([]string, days),
		Temperature: make([]*float64, days),
	}
	latest := make([]*models.MonitoringLog, days)

	for i := 0; i < days; i++ {
		out.Labels[i] = first.AddDate(0, 0, i).Format(dailyLabelLayout)
	}

	for i := range logs {
		l := &logs[i]
		idx := dayIndex(first, time.Unix(l.DateRecorded, 0).In(loc))
		if idx < 0 || idx >= days {
			continue
		}
		cur := latest[idx]
		if cur == nil || l.DateRecorded > cur.DateRecorded ||
			(l.DateRecorded == cur.DateRecorded && l.ID > cur.ID) {
			latest[idx] = l
		}
	}

	for i, l := range latest {
		if l != nil {
			out.Temperature[i] = l.Temperature
		}
	}
	return out, nil
}

// dayIndex counts calendar days from first to t. Both dates are projected onto UTC
// midnights so DST transitions in the local zone do not skew the count.
func dayIndex(first, t time.Time) int {
	a := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
