package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"navalha/internal/availability"
)

// Agenda renders a day snapshot as an Excel sheet: one time column plus
// one column per professional, each cell showing whether the slot is
// open or why it is not. Staff print this for the front desk.
type Agenda struct {
	file       *excelize.File
	sheet      string
	currentRow int
}

// NewAgenda creates the workbook for one business day.
func NewAgenda(date string) (*Agenda, error) {
	sheet := date
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheet)
	return &Agenda{file: f, sheet: sheet, currentRow: 1}, nil
}

// Fill writes the grid for every professional in the snapshot using the
// given service duration and grid interval.
func (a *Agenda) Fill(snap *availability.DaySnapshot, durationMin, intervalMin int) error {
	pros := snap.Professionals()

	header := make([]any, 0, len(pros)+1)
	header = append(header, "Horário")
	for _, p := range pros {
		header = append(header, p.Name)
	}
	if err := a.writeHeader(header); err != nil {
		return err
	}

	columns := make([][]availability.Cell, len(pros))
	for i, p := range pros {
		columns[i] = snap.Grid(p.ID, durationMin, intervalMin)
	}
	if len(columns) == 0 || len(columns[0]) == 0 {
		return nil
	}

	for row := range columns[0] {
		line := make([]any, 0, len(pros)+1)
		line = append(line, columns[0][row].Time)
		for _, col := range columns {
			line = append(line, cellLabel(col[row]))
		}
		if err := a.writeRow(line); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the workbook and releases it.
func (a *Agenda) Save(w io.Writer) error {
	defer a.file.Close()
	return a.file.Write(w)
}

func cellLabel(c availability.Cell) string {
	if c.Bookable {
		return "livre"
	}
	switch c.Reason {
	case availability.ReasonOnBreak:
		return "intervalo"
	case availability.ReasonBlocked:
		return "bloqueado"
	case availability.ReasonDoubleBooked:
		return "ocupado"
	case availability.ReasonOutsideShift, availability.ReasonOffDuty, availability.ReasonNoSchedule:
		return "fora do expediente"
	default:
		return string(c.Reason)
	}
}

func (a *Agenda) writeHeader(columns []any) error {
	if err := a.writeRow(columns); err != nil {
		return err
	}

	style, err := a.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = a.file.SetCellStyle(a.sheet, startCell, endCell, style)
	}
	return nil
}

func (a *Agenda) writeRow(row []any) error {
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, a.currentRow)
		if err != nil {
			return err
		}
		if err := a.file.SetCellValue(a.sheet, cell, val); err != nil {
			return fmt.Errorf("write cell %s: %w", cell, err)
		}
	}
	a.currentRow++
	return nil
}
