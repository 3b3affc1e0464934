package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/render"
)

// Service provides high-level export functionality
type Service struct {
	exporters map[ExportFormat]Exporter
}

// NewService creates a new export service with one exporter per format
func NewService(style ExportStyle) *Service {
	style = style.withDefaults()
	return &Service{
		exporters: map[ExportFormat]Exporter{
			FormatPDF:      NewPDFExporter(style),
			FormatDOCX:     NewDOCXExporter(style),
			FormatHTML:     NewHTMLExporter(style),
			FormatExcel:    NewExcelExporter(style),
			FormatMarkdown: NewMarkdownExporter(style),
		},
	}
}

// Formats lists the supported formats in a stable order
func (s *Service) Formats() []ExportFormat {
	return []ExportFormat{FormatPDF, FormatDOCX, FormatHTML, FormatExcel, FormatMarkdown}
}

func (s *Service) exporter(format ExportFormat) (Exporter, error) {
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return exporter, nil
}

// Export renders doc in the given format. Writer failures come back as
// *ExportError.
func (s *Service) Export(doc *render.Document, format ExportFormat) ([]byte, string, error) {
	exporter, err := s.exporter(format)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := exporter.Export(doc, &buf); err != nil {
		return nil, "", &ExportError{Format: format, Err: err}
	}

	return buf.Bytes(), exporter.GetContentType(), nil
}

// ExportToWriter exports data to a writer
func (s *Service) ExportToWriter(doc *render.Document, format ExportFormat, writer io.Writer) error {
	exporter, err := s.exporter(format)
	if err != nil {
		return err
	}
	if err := exporter.Export(doc, writer); err != nil {
		return &ExportError{Format: format, Err: err}
	}
	return nil
}

// GetContentType returns the content type for the given format
func (s *Service) GetContentType(format ExportFormat) string {
	if exporter, ok := s.exporters[format]; ok {
		return exporter.GetContentType()
	}
	return "application/octet-stream"
}

// GetFileExtension returns the file extension for the given format
func (s *Service) GetFileExtension(format ExportFormat) string {
	if exporter, ok := s.exporters[format]; ok {
		return exporter.GetFileExtension()
	}
	return ".bin"
}
