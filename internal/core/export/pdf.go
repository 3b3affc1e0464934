package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/render"
)

const (
	pdfRowHeight    = 6
	pdfHeaderHeight = 7
	pdfChartHeight  = 60
	pdfKPIsPerLine  = 3
	pdfFooterSpace  = 20
)

// PDFExporter implements PDF export using gofpdf
type PDFExporter struct {
	style ExportStyle
}

// NewPDFExporter creates a new PDF exporter
func NewPDFExporter(style ExportStyle) *PDFExporter {
	return &PDFExporter{style: style.withDefaults()}
}

// pdfWriter carries one document being drawn
type pdfWriter struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	style  ExportStyle
	font   string
	width  float64 // usable width
	left   float64
	bottom float64 // lowest y a row may end at
}

// Export exports a document to PDF. Auto page breaks are off: every page
// break is placed between rows by the writer.
func (p *PDFExporter) Export(doc *render.Document, writer io.Writer) error {
	orientation := "P"
	if p.style.Orientation == "landscape" {
		orientation = "L"
	}

	pdf := gofpdf.New(orientation, "mm", p.style.PageSize, "")
	pdf.SetCreationDate(creationDate(doc))
	pdf.SetCatalogSort(true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("govreport "+doc.Metadata.RendererVersion, true)

	pageWidth, pageHeight := pdf.GetPageSize()
	leftMargin, _, rightMargin, _ := pdf.GetMargins()
	w := &pdfWriter{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		style:  p.style,
		font:   p.style.FontFamily,
		width:  pageWidth - leftMargin - rightMargin,
		left:   leftMargin,
		bottom: pageHeight - pdfFooterSpace,
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(w.font, "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	w.header(doc)
	for _, section := range doc.Sections {
		w.section(section)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build PDF: %w", err)
	}
	if err := pdf.Output(writer); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// GetContentType returns the MIME type for PDF files
func (p *PDFExporter) GetContentType() string {
	return "application/pdf"
}

// GetFileExtension returns the file extension for PDF files
func (p *PDFExporter) GetFileExtension() string {
	return ".pdf"
}

// creationDate is the only timestamp in the file and lives in the info
// dictionary
func creationDate(doc *render.Document) time.Time {
	if doc.Metadata.GeneratedAt.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return doc.Metadata.GeneratedAt.UTC()
}

func (w *pdfWriter) header(doc *render.Document) {
	pdf := w.pdf
	pdf.SetFont(w.font, "B", 16)
	pdf.MultiCell(0, 8, w.tr(doc.Title), "", "", false)
	pdf.Ln(2)

	if doc.Description != "" {
		pdf.SetFont(w.font, "", w.style.FontSize)
		pdf.MultiCell(0, 5, w.tr(doc.Description), "", "", false)
		pdf.Ln(3)
	}
	if len(doc.NarrativeGoals) > 0 {
		pdf.SetFont(w.font, "", w.style.FontSize)
		for _, goal := range doc.NarrativeGoals {
			w.ensure(5)
			pdf.MultiCell(0, 5, w.tr("- "+goal), "", "", false)
		}
		pdf.Ln(3)
	}
}

// ensure starts a new page unless h more millimetres fit on this one
func (w *pdfWriter) ensure(h float64) bool {
	if w.pdf.GetY()+h <= w.bottom {
		return false
	}
	w.pdf.AddPage()
	return true
}

func (w *pdfWriter) section(s render.Section) {
	pdf := w.pdf
	w.ensure(20)
	pdf.SetFont(w.font, "B", 13)
	pdf.CellFormat(0, 9, w.tr(s.Title), "B", 1, "L", false, 0, "")
	pdf.Ln(2)

	var kpis []*render.KPICard
	flush := func() {
		if len(kpis) > 0 {
			w.kpis(kpis)
			kpis = nil
		}
	}
	for _, b := range s.Blocks {
		if b.KPI != nil {
			kpis = append(kpis, b.KPI)
			continue
		}
		flush()
		switch {
		case b.Chart != nil:
			w.chart(b.Chart)
		case b.Table != nil:
			w.table(b.Table.Title, b.Table.Columns, b.Table.Numeric, b.Table.Rows)
			if note := b.Table.TruncationNote(); note != "" {
				pdf.SetFont(w.font, "I", 8)
				pdf.CellFormat(0, 5, w.tr(note), "", 1, "L", false, 0, "")
			}
		case b.Placeholder != nil:
			w.ensure(10)
			pdf.SetFont(w.font, "I", w.style.FontSize)
			pdf.SetFillColor(242, 242, 242)
			pdf.CellFormat(0, 8, w.tr(b.Placeholder.Message()), "1", 1, "L", true, 0, "")
		}
		pdf.Ln(4)
	}
	flush()
}

func (w *pdfWriter) kpis(cards []*render.KPICard) {
	pdf := w.pdf
	cardWidth := w.width / pdfKPIsPerLine
	for i, card := range cards {
		if i%pdfKPIsPerLine == 0 {
			if i > 0 {
				pdf.Ln(18)
			}
			w.ensure(18)
		}
		x := w.left + float64(i%pdfKPIsPerLine)*cardWidth
		y := pdf.GetY()
		pdf.Rect(x, y, cardWidth-2, 16, "D")
		pdf.SetXY(x+2, y+1)
		pdf.SetFont(w.font, "", 8)
		pdf.CellFormat(cardWidth-6, 5, w.fit(card.Title, cardWidth-6), "", 0, "L", false, 0, "")
		pdf.SetXY(x+2, y+7)
		pdf.SetFont(w.font, "B", 14)
		pdf.CellFormat(cardWidth-6, 7, w.fit(card.Value, cardWidth-6), "", 0, "L", false, 0, "")
		pdf.SetXY(w.left, y)
	}
	pdf.Ln(20)
}

func (w *pdfWriter) chart(c *render.ChartBlock) {
	pdf := w.pdf
	w.ensure(pdfChartHeight + 20)

	pdf.SetFont(w.font, "B", w.style.FontSize+1)
	pdf.CellFormat(0, 6, w.tr(c.Title), "", 1, "L", false, 0, "")

	top := pdf.GetY() + 2
	w.drawChart(layoutChart(c), w.left, top, w.width, pdfChartHeight)
	pdf.SetXY(w.left, top+pdfChartHeight+8)

	pdf.SetFont(w.font, "I", 8)
	pdf.MultiCell(0, 4, w.tr(c.AltText()), "", "", false)
	pdf.Ln(2)

	headers := append([]string{c.XLabel}, c.YLabels...)
	numeric := make([]bool, len(headers))
	rows := make([][]string, len(c.Labels))
	for i, label := range c.Labels {
		row := []string{label}
		for si, s := range c.Series {
			row = append(row, s.Display[i])
			numeric[si+1] = true
		}
		rows[i] = row
	}
	w.table("", headers, numeric, rows)
}

func (w *pdfWriter) drawChart(l chartLayout, x, y, width, height float64) {
	pdf := w.pdf
	if l.Empty {
		pdf.SetFont(w.font, "I", 9)
		pdf.SetXY(x, y+height/2)
		pdf.CellFormat(width, 6, "No data", "", 0, "C", false, 0, "")
		return
	}
	if l.Square {
		x += (width - height) / 2
		width = height
	}
	at := func(p point) gofpdf.PointType {
		return gofpdf.PointType{X: x + p.X*width, Y: y + p.Y*height}
	}

	pdf.SetLineWidth(0.2)
	pdf.SetDrawColor(160, 160, 160)
	if !l.Square {
		pdf.Line(x, y, x, y+height)
		pdf.Line(x, y+l.Baseline*height, x+width, y+l.Baseline*height)
	}

	for _, s := range l.Shapes {
		r, g, b := 160, 160, 160
		if s.Color >= 0 {
			r, g, b = hexToRGB(w.style.color(s.Color))
		}
		pts := make([]gofpdf.PointType, len(s.Points))
		for i, p := range s.Points {
			pts[i] = at(p)
		}
		switch s.Kind {
		case shapeFill:
			pdf.SetFillColor(r, g, b)
			pdf.Polygon(pts, "F")
		case shapeLine:
			pdf.SetDrawColor(r, g, b)
			pdf.SetLineWidth(0.5)
			for i := 1; i < len(pts); i++ {
				pdf.Line(pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y)
			}
			pdf.SetLineWidth(0.2)
		case shapeDot:
			pdf.SetFillColor(r, g, b)
			pdf.Circle(pts[0].X, pts[0].Y, 0.8, "F")
		}
	}

	pdf.SetFont(w.font, "", 6)
	if !l.Square {
		for _, t := range l.Ticks {
			label := w.tr(t.Label)
			lw := pdf.GetStringWidth(label)
			pdf.Text(x+t.Pos*width-lw/2, y+height+4, label)
		}
	}
	pdf.SetDrawColor(0, 0, 0)
}

// table draws rows in page-sized chunks with the header repeated on every
// page. Rows never straddle a page break.
func (w *pdfWriter) table(title string, headers []string, numeric []bool, rows [][]string) {
	pdf := w.pdf
	if len(headers) == 0 {
		return
	}
	colWidth := w.width / float64(len(headers))

	if title != "" {
		w.ensure(pdfHeaderHeight + pdfRowHeight + 6)
		pdf.SetFont(w.font, "B", w.style.FontSize+1)
		pdf.CellFormat(0, 6, w.tr(title), "", 1, "L", false, 0, "")
	}

	drawHeader := func() {
		pdf.SetFont(w.font, "B", w.style.FontSize)
		r, g, b := hexToRGB(w.style.HeaderBgColor)
		pdf.SetFillColor(r, g, b)
		pdf.SetTextColor(255, 255, 255)
		for _, header := range headers {
			pdf.CellFormat(colWidth, pdfHeaderHeight, w.fit(header, colWidth-2), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont(w.font, "", w.style.FontSize)
	}

	for ci, chunk := range paginateRows(len(rows), w.style.RowsPerPage) {
		if ci > 0 {
			pdf.AddPage()
		} else {
			w.ensure(pdfHeaderHeight + pdfRowHeight)
		}
		drawHeader()

		for i := chunk[0]; i < chunk[1]; i++ {
			if w.ensure(pdfRowHeight) {
				drawHeader()
			}
			bg := w.style.RowBgColor1
			if w.style.Banded(i) {
				bg = w.style.RowBgColor2
			}
			r, g, b := hexToRGB(bg)
			pdf.SetFillColor(r, g, b)
			for col, value := range rows[i] {
				align := "L"
				if col < len(numeric) && numeric[col] {
					align = "R"
				}
				pdf.CellFormat(colWidth, pdfRowHeight, w.fit(value, colWidth-2), "1", 0, align, true, 0, "")
			}
			pdf.Ln(-1)
		}
	}
	if len(rows) == 0 {
		w.ensure(pdfHeaderHeight)
		drawHeader()
	}
}

// fit translates s to the core font encoding and clips it to width so a
// cell never wraps onto a second line
func (w *pdfWriter) fit(s string, width float64) string {
	out := w.tr(s)
	if w.pdf.GetStringWidth(out) <= width {
		return out
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		out = w.tr(strings.TrimSpace(string(runes)) + "...")
		if w.pdf.GetStringWidth(out) <= width {
			return out
		}
	}
	return ""
}

// hexToRGB converts hex color to RGB values
func hexToRGB(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")

	// Default to white if invalid
	if len(hex) != 6 {
		return 255, 255, 255
	}

	var r, g, b int
	fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	return r, g, b
}
