package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"
)

// BlockKind names the payload of a Block
type BlockKind string

const (
	BlockKPI         BlockKind = "kpi"
	BlockChart       BlockKind = "chart"
	BlockTable       BlockKind = "table"
	BlockPlaceholder BlockKind = "placeholder"
)

// KPICard is a single formatted figure
type KPICard struct {
	Title        string   `json:"title"`
	Value        string   `json:"value"`
	Number       *float64 `json:"number,omitempty"`
	SourceColumn string   `json:"source_column"`
	Aggregation  string   `json:"aggregation"`
	Description  string   `json:"description,omitempty"`
}

// ChartSeries is one y column; Display holds the formatted Values
type ChartSeries struct {
	Name    string    `json:"name"`
	Values  []float64 `json:"values"`
	Display []string  `json:"display"`
}

// ChartBlock is a chart ready to be drawn
type ChartBlock struct {
	Type        string        `json:"type"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	XLabel      string        `json:"x_label"`
	YLabels     []string      `json:"y_labels"`
	Granularity string        `json:"granularity,omitempty"`
	Labels      []string      `json:"labels"`
	Series      []ChartSeries `json:"series"`
}

// AltText describes the chart for readers who cannot see it
func (c ChartBlock) AltText() string {
	var sb strings.Builder
	kind := c.Type
	if kind != "" {
		kind = strings.ToUpper(kind[:1]) + kind[1:]
	}
	title := c.Title
	if title == "" {
		title = strings.Join(c.YLabels, ", ") + " by " + c.XLabel
	}
	fmt.Fprintf(&sb, "%s chart: %s. X axis: %s", kind, title, c.XLabel)
	if c.Granularity != "" {
		fmt.Fprintf(&sb, ", grouped by %s", c.Granularity)
	}
	fmt.Fprintf(&sb, ". Y axis: %s.", strings.Join(c.YLabels, ", "))
	if len(c.Labels) == 0 {
		sb.WriteString(" No data points.")
	} else {
		fmt.Fprintf(&sb, " %d data points from %s to %s.", len(c.Labels), c.Labels[0], c.Labels[len(c.Labels)-1])
	}
	return sb.String()
}

// TableBlock is a table of formatted cells. Numeric marks right-aligned
// columns.
type TableBlock struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Columns     []string   `json:"columns"`
	Numeric     []bool     `json:"numeric"`
	Rows        [][]string `json:"rows"`
	TotalRows   int        `json:"total_rows"`
	Truncated   int        `json:"truncated"`
}

// TruncationNote is empty unless rows were dropped
func (t TableBlock) TruncationNote() string {
	switch t.Truncated {
	case 0:
		return ""
	case 1:
		return "1 more row truncated"
	}
	return FormatNumber(float64(t.Truncated)) + " more rows truncated"
}

// Placeholder stands in for an item that could not be rendered
type Placeholder struct {
	Item   spec.ItemKind `json:"item"`
	Title  string        `json:"title"`
	Reason string        `json:"reason"`
}

// Message is the visible text of the placeholder
func (p Placeholder) Message() string {
	title := p.Title
	if title == "" {
		title = string(p.Item)
	}
	return fmt.Sprintf("%s unavailable: %s", title, p.Reason)
}

// Block holds exactly one of its payloads
type Block struct {
	Kind        BlockKind    `json:"kind"`
	KPI         *KPICard     `json:"kpi,omitempty"`
	Chart       *ChartBlock  `json:"chart,omitempty"`
	Table       *TableBlock  `json:"table,omitempty"`
	Placeholder *Placeholder `json:"placeholder,omitempty"`
}

type Section struct {
	Title  string  `json:"title"`
	Blocks []Block `json:"blocks"`
}

// Metadata describes how a document was produced. It is never part of the
// document body.
type Metadata struct {
	GeneratedAt     time.Time `json:"generated_at"`
	RendererVersion string    `json:"renderer_version"`
	Source          string    `json:"source,omitempty"`
}

// Document is the format-independent report every writer consumes
type Document struct {
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	NarrativeGoals []string  `json:"narrative_goals,omitempty"`
	Sections       []Section `json:"sections"`
	Metadata       Metadata  `json:"metadata"`

	// Errors lists every item that rendered as a placeholder
	Errors []*RenderError `json:"-"`
}

// Content serializes the document without its metadata. Identical inputs
// give identical bytes.
func (d *Document) Content() ([]byte, error) {
	return json.Marshal(struct {
		Title          string    `json:"title"`
		Description    string    `json:"description,omitempty"`
		NarrativeGoals []string  `json:"narrative_goals,omitempty"`
		Sections       []Section `json:"sections"`
	}{d.Title, d.Description, d.NarrativeGoals, d.Sections})
}
