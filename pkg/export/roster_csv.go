package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// RosterRow is one enrolled student in a club roster export.
type RosterRow struct {
	EnrollmentNumber string
	StudentName      string
	ClassName        string
	PayerName        string
	PayerPhone       string
	AmountPaid       string
	EnrolledAt       string
}

var rosterHeaders = []string{
	"enrollment_number", "student_name", "class", "payer_name", "payer_phone", "amount_paid", "enrolled_at",
}

// RosterCSVExporter renders club rosters as CSV bytes.
type RosterCSVExporter struct{}

// NewRosterCSVExporter builds a roster exporter.
func NewRosterCSVExporter() *RosterCSVExporter {
	return &RosterCSVExporter{}
}

// Render produces CSV encoded bytes for the roster.
func (e *RosterCSVExporter) Render(rows []RosterRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(rosterHeaders); err != nil {
		return nil, fmt.Errorf("write roster headers: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.EnrollmentNumber,
			row.StudentName,
			row.ClassName,
			row.PayerName,
			row.PayerPhone,
			row.AmountPaid,
			row.EnrolledAt,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write roster row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush roster csv: %w", err)
	}
	return buf.Bytes(), nil
}
