package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	firstColumnWidth = 60.0
	minColumnWidth   = 9.0
)

// PDFExporter renders a Dataset as a landscape table. The core fonts only
// cover cp1252, so cell text should avoid emoji.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays the table out on A4 landscape pages, repeating the header row.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)

	pageWidth, _ := pdf.GetPageSize()
	usable := pageWidth - 20
	widths := columnWidths(len(data.Headers), usable)

	header := func() {
		pdf.SetFont("Arial", "B", 8)
		for i, h := range data.Headers {
			pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}

	pdf.AddPage()
	if data.Title != "" {
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 9, tr(data.Title), "", 1, "C", false, 0, "")
	}
	if len(data.Notes) > 0 {
		pdf.SetFont("Arial", "", 9)
		for _, note := range data.Notes {
			pdf.CellFormat(0, 5, tr(note), "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	for _, row := range data.Rows {
		if pdf.GetY()+6 > pageHeight-12 {
			pdf.AddPage()
			header()
		}
		cells := pad(row, len(data.Headers))
		for i, value := range cells {
			align := "C"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, tr(value), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths gives the first (name) column a fixed width and splits the rest.
func columnWidths(n int, usable float64) []float64 {
	widths := make([]float64, n)
	if n == 1 {
		widths[0] = usable
		return widths
	}
	first := firstColumnWidth
	rest := (usable - first) / float64(n-1)
	if rest < minColumnWidth {
		rest = minColumnWidth
	}
	widths[0] = first
	for i := 1; i < n; i++ {
		widths[i] = rest
	}
	return widths
}
