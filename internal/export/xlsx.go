package export

import (
	"fmt"
	"io"
	"time"

	"managerconsole/internal/projection"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Reports"

// Exporter renders the "all" projection as a downloadable document.
type Exporter interface {
	ContentType() string
	Extension() string
	Export(w io.Writer, rows []projection.ReportRow) error
}

var header = []any{
	"Report ID", "Booking ID", "Staff", "Appointment date", "Appointment time",
	"Status", "Approval", "Note", "Created at",
}

type XLSX struct{}

func (XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSX) Extension() string {
	return "xlsx"
}

func (XLSX) Export(w io.Writer, rows []projection.ReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		r := row.Report
		var createdAt string
		if !r.CreatedAt.IsZero() {
			createdAt = r.CreatedAt.Format(time.DateTime)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			r.ReportID, r.BookingID, row.StaffLabel, r.AppointmentDate, r.AppointmentTime,
			string(r.Status), row.ApprovalBadge, r.Note, createdAt,
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "I", 18); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Filename names an export of the given time.
func Filename(e Exporter, at time.Time) string {
	return fmt.Sprintf("manager-reports-%s.%s", at.Format("20060102-150405"), e.Extension())
}
