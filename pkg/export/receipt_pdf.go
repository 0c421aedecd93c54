package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ReceiptLine is a single labelled row on a payment receipt.
type ReceiptLine struct {
	Label string
	Value string
}

// ReceiptDocument carries everything needed to render a payment receipt.
type ReceiptDocument struct {
	SchoolName    string
	Title         string
	ReceiptNumber string
	IssuedAt      time.Time
	Lines         []ReceiptLine
	Amount        float64
	Currency      string
	FooterNote    string
}

// ReceiptRenderer renders payment receipts as PDF bytes.
type ReceiptRenderer struct{}

// NewReceiptRenderer constructs a receipt renderer.
func NewReceiptRenderer() *ReceiptRenderer {
	return &ReceiptRenderer{}
}

// Render produces a single-page A5 receipt.
func (r *ReceiptRenderer) Render(doc ReceiptDocument) ([]byte, error) {
	if doc.ReceiptNumber == "" {
		return nil, fmt.Errorf("receipt number required")
	}
	if doc.Currency == "" {
		doc.Currency = "GNF"
	}
	if doc.Title == "" {
		doc.Title = "Payment Receipt"
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 14, 12)
	pdf.AddPage()

	if doc.SchoolName != "" {
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 8, doc.SchoolName, "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, strings.ToUpper(doc.Title), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(62, 6, fmt.Sprintf("No: %s", doc.ReceiptNumber), "", 0, "L", false, 0, "")
	issued := doc.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	pdf.CellFormat(62, 6, issued.Format("02/01/2006 15:04"), "", 1, "R", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 10)
	for _, line := range doc.Lines {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(46, 7, line.Label, "B", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(78, 7, line.Value, "B", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(46, 9, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(78, 9, fmt.Sprintf("%s %s", formatAmount(doc.Amount), doc.Currency), "T", 1, "R", false, 0, "")

	if doc.FooterNote != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 8)
		pdf.MultiCell(0, 4, doc.FooterNote, "", "C", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// formatAmount prints an amount with thousands separators, dropping
// the decimal part when it is whole.
func formatAmount(amount float64) string {
	whole := int64(amount)
	frac := amount - float64(whole)

	digits := fmt.Sprintf("%d", whole)
	if whole < 0 {
		digits = digits[1:]
	}
	var b strings.Builder
	for i, ch := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(ch)
	}
	out := b.String()
	if whole < 0 {
		out = "-" + out
	}
	if frac > 0.004 {
		out = fmt.Sprintf("%s.%02d", out, int(frac*100+0.5))
	}
	return out
}
