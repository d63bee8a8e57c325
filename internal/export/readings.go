package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"compost-backend/internal/compost"
	"compost-backend/internal/models"
)

const (
	summarySheet  = "Unit"
	readingsSheet = "Readings"
)

// ReadingsHeader is the column layout of the readings sheet
var ReadingsHeader = []string{
	"Timestamp",
	"Temperature (°C)",
	"pH",
	"Humidity (%)",
	"Oxygen (%)",
	"Phase",
}

// ReadingsWorkbook builds an xlsx report for one unit: a summary sheet and one row per
// reading. Rows are appended one at a time so callers can stream from the database.
type ReadingsWorkbook struct {
	f   *excelize.File
	row int
	loc *time.Location
}

// NewReadingsWorkbook creates the workbook and writes the unit summary and the readings header.
func NewReadingsWorkbook(unit *models.CompostUnit, loc *time.Location) (*ReadingsWorkbook, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()

	if _, err := f.NewSheet(summarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	index, err := f.NewSheet(readingsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	b := &ReadingsWorkbook{f: f, row: 1, loc: loc}
	if err := b.writeSummary(unit); err != nil {
		f.Close()
		return nil, err
	}
	if err := b.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return b, nil
}

func (b *ReadingsWorkbook) writeSummary(unit *models.CompostUnit) error {
	rows := [][]interface{}{
		{"Name", unit.Name},
		{"Location", unit.Location},
		{"Type", unit.UnitType},
		{"Status", unit.Status},
		{"Capacity (kg)", unit.Capacity},
		{"Current load (kg)", unit.CurrentLoad},
		{"Capacity used (%)", compost.UnitCapacityPercentage(unit)},
		{"Full", yesNo(compost.IsFull(unit))},
		{"Exported at", time.Now().In(b.loc).Format("2006-01-02 15:04:05")},
	}
	for i, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := b.f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	if err := b.f.SetColWidth(summarySheet, "A", "A", 20); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	return b.f.SetColWidth(summarySheet, "B", "B", 40)
}

func (b *ReadingsWorkbook) writeHeader() error {
	headerStyle, err := b.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E2F0D9"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(ReadingsHeader))
	for i, h := range ReadingsHeader {
		header[i] = h
	}
	if err := b.f.SetSheetRow(readingsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(ReadingsHeader), 1)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := b.f.SetCellStyle(readingsSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}

	columnWidths := []float64{20, 18, 8, 14, 12, 14}
	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := b.f.SetColWidth(readingsSheet, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return nil
}

// Add appends one reading row. Missing measurements leave their cell empty.
func (b *ReadingsWorkbook) Add(r models.SensorReading) error {
	b.row++
	phase := ""
	if p, err := compost.CompostPhase(r.Temperature); err == nil {
		phase = string(p)
	}
	values := []interface{}{
		r.Time().In(b.loc).Format("2006-01-02 15:04:05"),
		cellValue(r.Temperature),
		cellValue(r.PH),
		cellValue(r.Humidity),
		cellValue(r.Oxygen),
		phase,
	}
	cell, err := excelize.CoordinatesToCellName(1, b.row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := b.f.SetSheetRow(readingsSheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write reading row %d: %w", b.row, err)
	}
	return nil
}

// Rows returns the number of readings written so far.
func (b *ReadingsWorkbook) Rows() int {
	return b.row - 1
}

// WriteTo freezes the header, writes the workbook and closes it.
func (b *ReadingsWorkbook) WriteTo(w io.Writer) (int64, error) {
	defer b.f.Close()

	if err := b.f.SetPanes(readingsSheet, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return 0, fmt.Errorf("failed to freeze panes: %w", err)
	}

	n, err := b.f.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("failed to write workbook: %w", err)
	}
	return n, nil
}

// Close releases the workbook without writing it.
func (b *ReadingsWorkbook) Close() error {
	return b.f.Close()
}

func cellValue(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
