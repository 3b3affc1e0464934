package export

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	pdfreader "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/render"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"
)

func sampleDoc(rows int, generated time.Time) *render.Document {
	table := &render.TableBlock{
		Title:     "Detail",
		Columns:   []string{"department", "spend"},
		Numeric:   []bool{false, true},
		TotalRows: rows + 5,
		Truncated: 5,
	}
	for i := 0; i < rows; i++ {
		table.Rows = append(table.Rows, []string{fmt.Sprintf("Dept %03d", i), fmt.Sprintf("$%d.00", i)})
	}
	return &render.Document{
		Title:          "Spend <Review> & Outlook",
		Description:    "Quarterly spend",
		NarrativeGoals: []string{"Show where money went"},
		Sections: []render.Section{
			{Title: "Overview", Blocks: []render.Block{
				{Kind: render.BlockKPI, KPI: &render.KPICard{Title: "Total spend", Value: "$1,234.00", SourceColumn: "spend", Aggregation: "sum"}},
				{Kind: render.BlockChart, Chart: &render.ChartBlock{
					Type: "bar", Title: "Spend by department", XLabel: "department", YLabels: []string{"spend (sum)"},
					Labels: []string{"Finance", "Parks", "Roads"},
					Series: []render.ChartSeries{{Name: "spend", Values: []float64{10, 20, 5}, Display: []string{"$10.00", "$20.00", "$5.00"}}},
				}},
				{Kind: render.BlockPlaceholder, Placeholder: &render.Placeholder{Item: spec.ItemKPI, Title: "Average", Reason: "no values to aggregate"}},
			}},
			{Title: "Data", Blocks: []render.Block{{Kind: render.BlockTable, Table: table}}},
		},
		Metadata: render.Metadata{GeneratedAt: generated, RendererVersion: render.Version, Source: "heuristic"},
	}
}

var (
	jan = time.Date(2031, 1, 2, 3, 4, 5, 0, time.UTC)
	feb = time.Date(2032, 2, 3, 4, 5, 6, 0, time.UTC)
)

func exportBytes(t *testing.T, e Exporter, doc *render.Document) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := e.Export(doc, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	return buf.Bytes()
}

func TestPaginateRows(t *testing.T) {
	tests := []struct {
		n, per int
		want   [][2]int
	}{
		{0, 10, nil},
		{5, 10, [][2]int{{0, 5}}},
		{10, 10, [][2]int{{0, 10}}},
		{25, 10, [][2]int{{0, 10}, {10, 20}, {20, 25}}},
		{3, 0, [][2]int{{0, 3}}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, paginateRows(tt.n, tt.per)); diff != "" {
			t.Fatalf("paginateRows(%d, %d) (-want +got):\n%s", tt.n, tt.per, diff)
		}
	}
}

func TestBanded(t *testing.T) {
	s := DefaultStyle()
	var got []bool
	for i := 0; i < 4; i++ {
		got = append(got, s.Banded(i))
	}
	if diff := cmp.Diff([]bool{false, true, false, true}, got); diff != "" {
		t.Fatalf("banding (-want +got):\n%s", diff)
	}
	s.BandEvery = 3
	if s.Banded(1) || !s.Banded(2) {
		t.Fatalf("every third row should be banded")
	}
}

func TestPDFPaginatesAtRowBoundaries(t *testing.T) {
	doc := sampleDoc(100, jan)
	doc.Sections = doc.Sections[1:]
	out := exportBytes(t, NewPDFExporter(DefaultStyle()), doc)

	r, err := pdfreader.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("reading PDF back: %v", err)
	}
	if r.NumPage() != 4 {
		t.Fatalf("pages = %d, want 4 (100 rows at 30 per page)", r.NumPage())
	}
}

var pdfDates = regexp.MustCompile(`/(CreationDate|ModDate) \([^)]*\)`)

func TestPDFIsReproducible(t *testing.T) {
	e := NewPDFExporter(DefaultStyle())
	a := exportBytes(t, e, sampleDoc(40, jan))
	b := exportBytes(t, e, sampleDoc(40, jan))
	if !bytes.Equal(a, b) {
		t.Fatalf("same document produced different PDFs")
	}

	c := exportBytes(t, e, sampleDoc(40, feb))
	if !bytes.Equal(pdfDates.ReplaceAll(a, nil), pdfDates.ReplaceAll(c, nil)) {
		t.Fatalf("generation time leaked outside the info dictionary")
	}
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		body, _ := io.ReadAll(rc)
		rc.Close()
		out[f.Name] = string(body)
	}
	return out
}

func TestDOCX(t *testing.T) {
	style := DefaultStyle()
	style.RowsPerPage = 10
	e := NewDOCXExporter(style)

	a := exportBytes(t, e, sampleDoc(25, jan))
	if !bytes.Equal(a, exportBytes(t, e, sampleDoc(25, jan))) {
		t.Fatalf("same document produced different DOCX files")
	}

	parts := readZip(t, a)
	body := parts["word/document.xml"]
	if body == "" || parts["[Content_Types].xml"] == "" {
		t.Fatalf("missing parts: %v", parts)
	}
	// 25 table rows in three chunks, plus the chart's 3 rows
	if got := strings.Count(body, `<w:br w:type="page"/>`); got != 2 {
		t.Fatalf("page breaks = %d, want 2", got)
	}
	if got := strings.Count(body, "<w:tblHeader/>"); got != 4 {
		t.Fatalf("header rows = %d, want 4", got)
	}
	if got := strings.Count(body, "<w:cantSplit/>"); got != 25+3+4 {
		t.Fatalf("unsplittable rows = %d", got)
	}
	if !strings.Contains(body, "Spend &lt;Review&gt; &amp; Outlook") {
		t.Fatalf("title not escaped")
	}
	if strings.Contains(body, "2031") || !strings.Contains(parts["docProps/core.xml"], "2031-01-02T03:04:05Z") {
		t.Fatalf("generation time belongs in core properties only")
	}

	other := readZip(t, exportBytes(t, e, sampleDoc(25, feb)))
	if other["word/document.xml"] != body {
		t.Fatalf("document body depends on generation time")
	}
}

func TestHTMLAccessibility(t *testing.T) {
	doc := sampleDoc(6, jan)
	out := string(exportBytes(t, NewHTMLExporter(DefaultStyle()), doc))

	alt := "Bar chart: Spend by department. X axis: department. Y axis: spend (sum). 3 data points from Finance to Roads."
	if !strings.Contains(out, `role="img"`) || !strings.Contains(out, `aria-label="`+alt+`"`) || !strings.Contains(out, "<title>"+alt+"</title>") {
		t.Fatalf("chart alt text missing:\n%s", out)
	}
	// 6 table rows and 3 chart data rows, every second one banded
	if got := strings.Count(out, `<tr class="band">`); got != 3+1 {
		t.Fatalf("banded rows = %d, want 4", got)
	}
	if strings.Count(out, "2031-01-02") != 1 || !strings.Contains(out, `<meta name="generated-at" content="2031-01-02T03:04:05Z">`) {
		t.Fatalf("generation time must appear once, in the head")
	}
	if !strings.Contains(out, "Spend &lt;Review&gt; &amp; Outlook") {
		t.Fatalf("title not escaped")
	}
	if !strings.Contains(out, "5 more rows truncated") || !strings.Contains(out, "Average unavailable: no values to aggregate") {
		t.Fatalf("truncation note or placeholder missing")
	}

	again := string(exportBytes(t, NewHTMLExporter(DefaultStyle()), sampleDoc(6, jan)))
	if out != again {
		t.Fatalf("HTML output is not reproducible")
	}
}

func TestMarkdown(t *testing.T) {
	out := string(exportBytes(t, NewMarkdownExporter(DefaultStyle()), sampleDoc(3, jan)))
	for _, want := range []string{"# Spend", "Total spend", "$1,234.00", "Dept 002", "Bar chart: Spend by department"} {
		if !strings.Contains(out, want) {
			t.Fatalf("markdown missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<svg") {
		t.Fatalf("markdown should not carry SVG")
	}
}

func TestExcel(t *testing.T) {
	out := exportBytes(t, NewExcelExporter(DefaultStyle()), sampleDoc(4, jan))
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if diff := cmp.Diff([]string{"Summary", "Spend by department", "Detail"}, f.GetSheetList()); diff != "" {
		t.Fatalf("sheets (-want +got):\n%s", diff)
	}
	rows, err := f.GetRows("Detail")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 5 || rows[0][0] != "department" || rows[4][0] != "Dept 003" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestUniqueSheetName(t *testing.T) {
	used := map[string]bool{"summary": true}
	got := []string{
		uniqueSheetName(used, "Summary", "Table"),
		uniqueSheetName(used, "a/b", "Table"),
		uniqueSheetName(used, "", "Table"),
		uniqueSheetName(used, strings.Repeat("x", 40), "Table"),
	}
	want := []string{"Summary (2)", "a b", "Table", strings.Repeat("x", 27)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestService(t *testing.T) {
	svc := NewService(ExportStyle{})

	for in, want := range map[string]ExportFormat{"PDF": FormatPDF, "excel": FormatExcel, "markdown": FormatMarkdown, " docx ": FormatDOCX} {
		if got, err := ParseFormat(in); err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("pptx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v", err)
	}

	doc := sampleDoc(3, jan)
	for _, format := range svc.Formats() {
		data, contentType, err := svc.Export(doc, format)
		if err != nil || len(data) == 0 || contentType == "" {
			t.Fatalf("%s: %d bytes, %q, %v", format, len(data), contentType, err)
		}
	}

	err := svc.ExportToWriter(doc, FormatHTML, failingWriter{})
	var exportErr *ExportError
	if !errors.As(err, &exportErr) || exportErr.Format != FormatHTML {
		t.Fatalf("err = %v, want *ExportError", err)
	}
	if svc.GetFileExtension(FormatDOCX) != ".docx" || svc.GetContentType("zip") != "application/octet-stream" {
		t.Fatalf("unexpected lookups")
	}
}
