package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/render"
)

// zip entries carry this fixed time; the generation time is only written
// to docProps/core.xml
var docxEntryTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// DOCXExporter writes WordprocessingML directly. Tables are split into
// page-sized chunks, rows may not break across pages and header rows
// repeat.
type DOCXExporter struct {
	style ExportStyle
}

// NewDOCXExporter creates a new DOCX exporter
func NewDOCXExporter(style ExportStyle) *DOCXExporter {
	return &DOCXExporter{style: style.withDefaults()}
}

func (d *DOCXExporter) Export(doc *render.Document, writer io.Writer) error {
	zw := zip.NewWriter(writer)
	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"docProps/app.xml", fmt.Sprintf(docxApp, esc("govreport "+doc.Metadata.RendererVersion))},
		{"docProps/core.xml", d.coreProps(doc)},
		{"word/document.xml", d.document(doc)},
	}
	for _, p := range parts {
		f, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate, Modified: docxEntryTime})
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", p.name, err)
		}
		if _, err := io.WriteString(f, p.body); err != nil {
			return fmt.Errorf("failed to write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to write DOCX: %w", err)
	}
	return nil
}

func (d *DOCXExporter) GetContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func (d *DOCXExporter) GetFileExtension() string {
	return ".docx"
}

func (d *DOCXExporter) coreProps(doc *render.Document) string {
	created := ""
	if !doc.Metadata.GeneratedAt.IsZero() {
		ts := doc.Metadata.GeneratedAt.UTC().Format(time.RFC3339)
		created = fmt.Sprintf(`<dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created>`, ts)
	}
	return fmt.Sprintf(docxCore, esc(doc.Title), esc(doc.Metadata.Source), created)
}

// docxBody accumulates document.xml body content
type docxBody struct {
	strings.Builder
	style ExportStyle
}

func (d *DOCXExporter) document(doc *render.Document) string {
	b := &docxBody{style: d.style}
	b.para(doc.Title, paraOpts{bold: true, size: 32})
	if doc.Description != "" {
		b.para(doc.Description, paraOpts{})
	}
	for _, goal := range doc.NarrativeGoals {
		b.para("• "+goal, paraOpts{indent: true})
	}

	for _, s := range doc.Sections {
		b.para(s.Title, paraOpts{bold: true, size: 26, keepNext: true})
		for _, block := range s.Blocks {
			switch {
			case block.KPI != nil:
				b.para(block.KPI.Title+": "+block.KPI.Value, paraOpts{bold: true})
			case block.Chart != nil:
				b.chart(block.Chart)
			case block.Table != nil:
				if block.Table.Title != "" {
					b.para(block.Table.Title, paraOpts{bold: true, keepNext: true})
				}
				b.table(block.Table.Columns, block.Table.Numeric, block.Table.Rows)
				if note := block.Table.TruncationNote(); note != "" {
					b.para(note, paraOpts{italic: true})
				}
			case block.Placeholder != nil:
				b.para(block.Placeholder.Message(), paraOpts{italic: true})
			}
		}
	}

	return fmt.Sprintf(docxDocument, b.String(), d.sectionProps())
}

func (d *DOCXExporter) sectionProps() string {
	// twentieths of a point
	w, h := 11906, 16838
	if strings.EqualFold(d.style.PageSize, "letter") {
		w, h = 12240, 15840
	}
	orient := ""
	if d.style.Orientation == "landscape" {
		w, h = h, w
		orient = ` w:orient="landscape"`
	}
	return fmt.Sprintf(`<w:sectPr><w:pgSz w:w="%d" w:h="%d"%s/><w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134" w:header="567" w:footer="567" w:gutter="0"/></w:sectPr>`, w, h, orient)
}

type paraOpts struct {
	bold, italic, indent, keepNext bool
	size                           int // half-points
}

func (b *docxBody) para(text string, o paraOpts) {
	b.WriteString("<w:p>")
	if o.keepNext || o.indent {
		b.WriteString("<w:pPr>")
		if o.keepNext {
			b.WriteString("<w:keepNext/>")
		}
		if o.indent {
			b.WriteString(`<w:ind w:left="360"/>`)
		}
		b.WriteString("</w:pPr>")
	}
	b.run(text, o.bold, o.italic, o.size, "")
	b.WriteString("</w:p>")
}

func (b *docxBody) run(text string, bold, italic bool, size int, color string) {
	b.WriteString("<w:r>")
	if bold || italic || size > 0 || color != "" {
		b.WriteString("<w:rPr>")
		if bold {
			b.WriteString("<w:b/>")
		}
		if italic {
			b.WriteString("<w:i/>")
		}
		if color != "" {
			fmt.Fprintf(b, `<w:color w:val="%s"/>`, color)
		}
		if size > 0 {
			fmt.Fprintf(b, `<w:sz w:val="%d"/>`, size)
		}
		b.WriteString("</w:rPr>")
	}
	fmt.Fprintf(b, `<w:t xml:space="preserve">%s</w:t></w:r>`, esc(text))
}

func (b *docxBody) pageBreak() {
	b.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
}

func (b *docxBody) chart(c *render.ChartBlock) {
	b.para(c.Title, paraOpts{bold: true, keepNext: true})
	b.para(c.AltText(), paraOpts{italic: true, keepNext: true})

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
	b.table(headers, numeric, rows)
}

// table writes one w:tbl per page chunk with a page break between chunks
func (b *docxBody) table(headers []string, numeric []bool, rows [][]string) {
	if len(headers) == 0 {
		return
	}
	chunks := paginateRows(len(rows), b.style.RowsPerPage)
	if len(chunks) == 0 {
		chunks = [][2]int{{0, 0}}
	}
	header := strings.TrimPrefix(b.style.HeaderBgColor, "#")
	band := strings.TrimPrefix(b.style.RowBgColor2, "#")

	for ci, chunk := range chunks {
		if ci > 0 {
			b.pageBreak()
		}
		b.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="5000" w:type="pct"/><w:tblBorders>`)
		for _, edge := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
			fmt.Fprintf(b, `<w:%s w:val="single" w:sz="4" w:space="0" w:color="BFBFBF"/>`, edge)
		}
		b.WriteString(`</w:tblBorders></w:tblPr>`)

		b.WriteString(`<w:tr><w:trPr><w:cantSplit/><w:tblHeader/></w:trPr>`)
		for _, h := range headers {
			b.cell(h, header, "center", true, "FFFFFF")
		}
		b.WriteString(`</w:tr>`)

		for i := chunk[0]; i < chunk[1]; i++ {
			b.WriteString(`<w:tr><w:trPr><w:cantSplit/></w:trPr>`)
			fill := ""
			if b.style.Banded(i) {
				fill = band
			}
			for col, value := range rows[i] {
				align := "left"
				if col < len(numeric) && numeric[col] {
					align = "right"
				}
				b.cell(value, fill, align, false, "")
			}
			b.WriteString(`</w:tr>`)
		}
		b.WriteString(`</w:tbl>`)
	}
	// a table must be followed by a paragraph
	b.WriteString(`<w:p/>`)
}

func (b *docxBody) cell(text, fill, align string, bold bool, color string) {
	b.WriteString("<w:tc><w:tcPr>")
	if fill != "" {
		fmt.Fprintf(b, `<w:shd w:val="clear" w:color="auto" w:fill="%s"/>`, fill)
	}
	fmt.Fprintf(b, `</w:tcPr><w:p><w:pPr><w:jc w:val="%s"/></w:pPr>`, align)
	b.run(text, bold, false, 0, color)
	b.WriteString("</w:p></w:tc>")
}

// esc escapes text for XML character data and attribute values
func esc(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/><Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/><Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/></Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/><Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/></Relationships>`

const docxApp = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"><Application>%s</Application></Properties>`

const docxCore = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"><dc:title>%s</dc:title><dc:description>%s</dc:description>%s</cp:coreProperties>`

const docxDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>%s%s</w:body></w:document>`
