package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// PDF renders one analysis record into a paginated PDF buffer. Errors from
// the underlying library propagate unchanged; there is no retry.
func PDF(username, fileName, result, timestamp string) (*bytes.Buffer, error) {
	if timestamp == "" {
		timestamp = time.Now().Format(time.RFC3339)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(19, 25, 19)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Title
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(46, 134, 222)
	pdf.CellFormat(0, 12, tr("Project Analysis Report"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Metadata
	pdf.SetTextColor(0, 0, 0)
	writeMetaRow(pdf, tr, "User", username)
	writeMetaRow(pdf, tr, "File", fileName)
	writeMetaRow(pdf, tr, "Analyzed at", timestamp)
	writeMetaRow(pdf, tr, "System", "AI Project Grader")
	pdf.Ln(6)

	// Body
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(46, 134, 222)
	pdf.CellFormat(0, 8, tr("Analysis Result"), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(2)

	for _, line := range Classify(result) {
		switch line.Kind {
		case LineHeading:
			pdf.SetFont("Helvetica", "B", 13)
			pdf.SetTextColor(46, 134, 222)
			pdf.MultiCell(0, 7, tr(line.Text), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		case LineBold:
			pdf.SetFont("Helvetica", "B", 11)
			pdf.MultiCell(0, 6, tr(line.Text), "", "L", false)
		case LineBullet:
			pdf.SetFont("Helvetica", "", 11)
			pdf.MultiCell(0, 6, tr("- "+line.Text), "", "L", false)
		case LineText:
			pdf.SetFont("Helvetica", "", 11)
			pdf.MultiCell(0, 6, tr(line.Text), "", "L", false)
		case LineBlank:
			pdf.Ln(3)
		}
	}

	// Footer
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 6, tr(footerText()), "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("failed to generate pdf report: %w", err)
	}
	return buf, nil
}

func writeMetaRow(pdf *fpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(40, 7, tr(label), "1", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 7, tr(value), "1", 1, "L", false, 0, "")
}
