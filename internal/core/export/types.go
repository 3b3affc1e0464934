package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/render"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatPDF      ExportFormat = "pdf"
	FormatDOCX     ExportFormat = "docx"
	FormatHTML     ExportFormat = "html"
	FormatExcel    ExportFormat = "xlsx"
	FormatMarkdown ExportFormat = "md"
)

// ErrUnsupportedFormat is returned for formats no exporter handles
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat accepts a format name or a common alias
func ParseFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatDOCX, FormatHTML, FormatExcel, FormatMarkdown:
		return f, nil
	case "excel":
		return FormatExcel, nil
	case "markdown":
		return FormatMarkdown, nil
	case "htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Exporter is the interface for all export formats. Exporters only see the
// rendered document, never the dataset behind it.
type Exporter interface {
	Export(doc *render.Document, writer io.Writer) error
	GetContentType() string
	GetFileExtension() string
}

// ExportError is a failure to serialize one format. Other formats are
// unaffected.
type ExportError struct {
	Format ExportFormat
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s export failed: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// ExportStyle defines styling options for exports
type ExportStyle struct {
	// PDF specific
	Orientation string `toml:"orientation"` // "portrait" or "landscape"
	PageSize    string `toml:"page_size"`   // "A4", "Letter", etc.

	// Common styling
	HeaderBold    bool   `toml:"header_bold"`
	HeaderBgColor string `toml:"header_bg_color"` // Hex color
	RowBgColor1   string `toml:"row_bg_color"`    // Hex color for plain rows
	RowBgColor2   string `toml:"band_bg_color"`   // Hex color for banded rows
	BandEvery     int    `toml:"band_every"`      // every Nth row is banded

	// Font settings
	FontFamily string  `toml:"font_family"`
	FontSize   float64 `toml:"font_size"`

	// Tables are split across pages after this many rows
	RowsPerPage int `toml:"rows_per_page"`

	// Chart series colors, cycled
	Palette []string `toml:"palette"`

	// Excel specific
	FreezeHeader bool `toml:"freeze_header"`
	AutoFilter   bool `toml:"auto_filter"`
}

// DefaultStyle returns default export styling
func DefaultStyle() ExportStyle {
	return ExportStyle{
		Orientation:   "portrait",
		PageSize:      "A4",
		HeaderBold:    true,
		HeaderBgColor: "#4472C4",
		RowBgColor1:   "#FFFFFF",
		RowBgColor2:   "#F2F2F2",
		BandEvery:     2,
		FontFamily:    "Arial",
		FontSize:      10,
		RowsPerPage:   30,
		Palette:       []string{"#4472C4", "#ED7D31", "#A5A5A5", "#FFC000", "#5B9BD5", "#70AD47"},
		FreezeHeader:  true,
		AutoFilter:    true,
	}
}

// withDefaults fills zero fields from DefaultStyle
func (s ExportStyle) withDefaults() ExportStyle {
	d := DefaultStyle()
	if s.Orientation == "" {
		s.Orientation = d.Orientation
	}
	if s.PageSize == "" {
		s.PageSize = d.PageSize
	}
	if s.HeaderBgColor == "" {
		s.HeaderBgColor = d.HeaderBgColor
	}
	if s.RowBgColor1 == "" {
		s.RowBgColor1 = d.RowBgColor1
	}
	if s.RowBgColor2 == "" {
		s.RowBgColor2 = d.RowBgColor2
	}
	if s.BandEvery <= 0 {
		s.BandEvery = d.BandEvery
	}
	if s.FontFamily == "" {
		s.FontFamily = d.FontFamily
	}
	if s.FontSize <= 0 {
		s.FontSize = d.FontSize
	}
	if s.RowsPerPage <= 0 {
		s.RowsPerPage = d.RowsPerPage
	}
	if len(s.Palette) == 0 {
		s.Palette = d.Palette
	}
	return s
}

// Banded reports whether the zero-based data row i gets the band color
func (s ExportStyle) Banded(i int) bool {
	return s.BandEvery > 0 && (i+1)%s.BandEvery == 0
}

func (s ExportStyle) color(series int) string {
	return s.Palette[series%len(s.Palette)]
}

// paginateRows splits n rows into consecutive [start, end) chunks of at
// most perPage rows. Chunks always break between rows.
func paginateRows(n, perPage int) [][2]int {
	if n == 0 {
		return nil
	}
	if perPage <= 0 {
		perPage = n
	}
	chunks := make([][2]int, 0, (n+perPage-1)/perPage)
	for start := 0; start < n; start += perPage {
		end := start + perPage
		if end > n {
			end = n
		}
		chunks = append(chunks, [2]int{start, end})
	}
	return chunks
}
