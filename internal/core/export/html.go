package export

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/render"
)

const (
	svgWidth  = 640
	svgHeight = 280
	svgPad    = 40
)

// HTMLExporter writes a standalone page. Charts are inline SVG labelled
// with their alt text and followed by their data as a table.
type HTMLExporter struct {
	style  ExportStyle
	charts bool
}

// NewHTMLExporter creates a new HTML exporter
func NewHTMLExporter(style ExportStyle) *HTMLExporter {
	return &HTMLExporter{style: style.withDefaults(), charts: true}
}

func (h *HTMLExporter) Export(doc *render.Document, writer io.Writer) error {
	page := htmlPage{
		Doc:     doc,
		Version: doc.Metadata.RendererVersion,
		Style:   h.style,
		CSS:     h.css(),
	}
	if !doc.Metadata.GeneratedAt.IsZero() {
		page.GeneratedAt = doc.Metadata.GeneratedAt.UTC().Format(time.RFC3339)
	}
	for _, s := range doc.Sections {
		hs := htmlSection{Title: s.Title}
		for _, b := range s.Blocks {
			hb := htmlBlock{Block: b}
			if b.Chart != nil && h.charts {
				svg := h.svg(b.Chart)
				hb.SVG = &svg
			}
			hs.Blocks = append(hs.Blocks, hb)
		}
		page.Sections = append(page.Sections, hs)
	}

	if err := htmlTemplate.Execute(writer, page); err != nil {
		return fmt.Errorf("failed to write HTML: %w", err)
	}
	return nil
}

func (h *HTMLExporter) GetContentType() string {
	return "text/html; charset=utf-8"
}

func (h *HTMLExporter) GetFileExtension() string {
	return ".html"
}

type htmlPage struct {
	Doc         *render.Document
	Version     string
	GeneratedAt string
	Style       ExportStyle
	CSS         template.CSS
	Sections    []htmlSection
}

// css is trusted text built from the export style
func (h *HTMLExporter) css() template.CSS {
	return template.CSS(fmt.Sprintf(`
body { font-family: %q, sans-serif; font-size: %gpt; margin: 2rem; color: #1a1a1a; }
.kpi { display: inline-block; border: 1px solid #ccc; padding: .75rem 1rem; margin: 0 1rem 1rem 0; min-width: 10rem; }
.kpi-title { display: block; font-size: .85rem; }
.kpi-value { display: block; font-size: 1.5rem; font-weight: bold; }
table { border-collapse: collapse; margin: .5rem 0; }
th { background: %s; color: #fff; padding: .3rem .6rem; }
td { border: 1px solid #ddd; padding: .3rem .6rem; }
td.num { text-align: right; }
tr.band td { background: %s; }
.unavailable { border: 1px dashed #999; padding: .75rem; font-style: italic; }
.note { font-style: italic; font-size: .85rem; }
`, h.style.FontFamily, h.style.FontSize, h.style.HeaderBgColor, h.style.RowBgColor2))
}

type htmlSection struct {
	Title  string
	Blocks []htmlBlock
}

type htmlBlock struct {
	render.Block
	SVG *svgChart
}

type svgShape struct {
	Kind   string // polygon, polyline, circle
	Points string
	X, Y   string
	Color  string
}

type svgText struct {
	X, Y  string
	Label string
}

type svgChart struct {
	Width, Height int
	AltText       string
	Title         string
	Axes          []svgShape
	Shapes        []svgShape
	Ticks         []svgText
}

func (h *HTMLExporter) svg(c *render.ChartBlock) svgChart {
	out := svgChart{Width: svgWidth, Height: svgHeight, AltText: c.AltText(), Title: c.Title}
	l := layoutChart(c)
	if l.Empty {
		return out
	}

	x0, y0 := float64(svgPad), float64(svgPad/2)
	w, ht := float64(svgWidth-2*svgPad), float64(svgHeight-2*svgPad)
	if l.Square {
		x0 += (w - ht) / 2
		w = ht
	}
	coord := func(p point) (string, string) {
		return num(x0 + p.X*w), num(y0 + p.Y*ht)
	}
	points := func(pts []point) string {
		parts := make([]string, len(pts))
		for i, p := range pts {
			x, y := coord(p)
			parts[i] = x + "," + y
		}
		return strings.Join(parts, " ")
	}

	if !l.Square {
		base := y0 + l.Baseline*ht
		out.Axes = append(out.Axes,
			svgShape{Kind: "polyline", Points: fmt.Sprintf("%s,%s %s,%s", num(x0), num(y0), num(x0), num(y0+ht)), Color: "#A0A0A0"},
			svgShape{Kind: "polyline", Points: fmt.Sprintf("%s,%s %s,%s", num(x0), num(base), num(x0+w), num(base)), Color: "#A0A0A0"},
		)
		for _, t := range l.Ticks {
			out.Ticks = append(out.Ticks, svgText{X: num(x0 + t.Pos*w), Y: num(y0 + ht + 16), Label: t.Label})
		}
	}

	for _, s := range l.Shapes {
		color := "#A0A0A0"
		if s.Color >= 0 {
			color = h.style.color(s.Color)
		}
		switch s.Kind {
		case shapeFill:
			out.Shapes = append(out.Shapes, svgShape{Kind: "polygon", Points: points(s.Points), Color: color})
		case shapeLine:
			out.Shapes = append(out.Shapes, svgShape{Kind: "polyline", Points: points(s.Points), Color: color})
		case shapeDot:
			x, y := coord(s.Points[0])
			out.Shapes = append(out.Shapes, svgShape{Kind: "circle", X: x, Y: y, Color: color})
		}
	}
	return out
}

// num prints a coordinate with fixed precision so output is stable
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"banded": func(s ExportStyle, i int) bool { return s.Banded(i) },
	"align": func(numeric []bool, i int) string {
		if i < len(numeric) && numeric[i] {
			return "num"
		}
		return "text"
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="generator" content="govreport {{.Version}}">
{{- if .GeneratedAt}}
<meta name="generated-at" content="{{.GeneratedAt}}">
{{- end}}
<title>{{.Doc.Title}}</title>
<style>{{.CSS}}</style>
</head>
<body>
<main>
<h1>{{.Doc.Title}}</h1>
{{- with .Doc.Description}}
<p>{{.}}</p>
{{- end}}
{{- with .Doc.NarrativeGoals}}
<ul class="goals">
{{- range .}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
{{- $style := .Style}}
{{- range .Sections}}
<section>
<h2>{{.Title}}</h2>
{{- range .Blocks}}
{{- if .KPI}}
<div class="kpi"><span class="kpi-title">{{.KPI.Title}}</span><span class="kpi-value">{{.KPI.Value}}</span></div>
{{- else if .Chart}}
<figure class="chart">
{{- with .SVG}}
<svg xmlns="http://www.w3.org/2000/svg" role="img" aria-label="{{.AltText}}" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}">
<title>{{.AltText}}</title>
{{- range .Axes}}
<polyline points="{{.Points}}" fill="none" stroke="{{.Color}}"/>
{{- end}}
{{- range .Shapes}}
{{- if eq .Kind "polygon"}}
<polygon points="{{.Points}}" fill="{{.Color}}" fill-opacity="0.85"/>
{{- else if eq .Kind "polyline"}}
<polyline points="{{.Points}}" fill="none" stroke="{{.Color}}" stroke-width="2"/>
{{- else}}
<circle cx="{{.X}}" cy="{{.Y}}" r="3" fill="{{.Color}}"/>
{{- end}}
{{- end}}
{{- range .Ticks}}
<text x="{{.X}}" y="{{.Y}}" font-size="10" text-anchor="middle">{{.Label}}</text>
{{- end}}
</svg>
{{- else}}
<p class="note">{{.Chart.AltText}}</p>
{{- end}}
<figcaption>{{.Chart.Title}}</figcaption>
<table class="chart-data">
<caption>Data for {{.Chart.Title}}</caption>
<thead><tr><th scope="col">{{.Chart.XLabel}}</th>{{range .Chart.YLabels}}<th scope="col">{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- $chart := .Chart}}
{{- range $i, $label := .Chart.Labels}}
<tr{{if banded $style $i}} class="band"{{end}}><td>{{$label}}</td>{{range $chart.Series}}<td class="num">{{index .Display $i}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
</figure>
{{- else if .Table}}
{{- with .Table.Title}}
<h3>{{.}}</h3>
{{- end}}
{{- $numeric := .Table.Numeric}}
<table>
<thead><tr>{{range .Table.Columns}}<th scope="col">{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range $i, $row := .Table.Rows}}
<tr{{if banded $style $i}} class="band"{{end}}>{{range $j, $cell := $row}}<td class="{{align $numeric $j}}">{{$cell}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
{{- with .Table.TruncationNote}}
<p class="note">{{.}}</p>
{{- end}}
{{- else if .Placeholder}}
<div class="unavailable" role="note">{{.Placeholder.Message}}</div>
{{- end}}
{{- end}}
</section>
{{- end}}
</main>
</body>
</html>
`))
