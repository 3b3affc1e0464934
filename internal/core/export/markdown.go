package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/render"
)

// MarkdownExporter converts the HTML rendering to Markdown. Charts appear
// as their alt text and data table.
type MarkdownExporter struct {
	html *HTMLExporter
	conv *converter.Converter
}

// NewMarkdownExporter creates a new Markdown exporter
func NewMarkdownExporter(style ExportStyle) *MarkdownExporter {
	html := NewHTMLExporter(style)
	html.charts = false
	return &MarkdownExporter{
		html: html,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (m *MarkdownExporter) Export(doc *render.Document, writer io.Writer) error {
	var buf bytes.Buffer
	if err := m.html.Export(doc, &buf); err != nil {
		return err
	}
	md, err := m.conv.ConvertString(buf.String())
	if err != nil {
		return fmt.Errorf("failed to convert to Markdown: %w", err)
	}
	if _, err := io.WriteString(writer, md+"\n"); err != nil {
		return fmt.Errorf("failed to write Markdown: %w", err)
	}
	return nil
}

func (m *MarkdownExporter) GetContentType() string {
	return "text/markdown; charset=utf-8"
}

func (m *MarkdownExporter) GetFileExtension() string {
	return ".md"
}
