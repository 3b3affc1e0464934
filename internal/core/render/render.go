package render

import (
	"errors"
	"fmt"
	"time"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/dataset"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/profiler"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/selector"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"
)

// Version is stamped into Metadata; output bytes are stable within a version
const Version = "1.0.0"

type options struct {
	clock  func() time.Time
	source string
}

// Option configures Render
type Option func(*options)

// WithClock sets the generation time source
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithSource records where the specification came from
func WithSource(source string) Option {
	return func(o *options) { o.source = source }
}

// Render composes a validated specification and its dataset into a
// Document, section by section in spec order.
func Render(s *spec.ReportSpecification, ds *dataset.Dataset, profile *profiler.DatasetProfile, opts ...Option) *Document {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	doc := &Document{
		Title:          s.Title,
		Description:    s.Description,
		NarrativeGoals: append([]string(nil), s.NarrativeGoals...),
		Sections:       make([]Section, 0, len(s.Sections)),
		Metadata: Metadata{
			GeneratedAt:     o.clock().UTC(),
			RendererVersion: Version,
			Source:          o.source,
		},
	}

	r := renderer{profile: profile}
	for si, section := range s.Sections {
		resolved := selector.Resolve(section, ds, profile)
		out := Section{Title: resolved.Title, Blocks: make([]Block, 0, len(resolved.Items))}
		for ii, item := range resolved.Items {
			if item.Err != nil {
				rerr := &RenderError{Section: si, Item: ii, Title: item.Title, Err: item.Err}
				doc.Errors = append(doc.Errors, rerr)
				out.Blocks = append(out.Blocks, placeholder(item, rerr))
				continue
			}
			out.Blocks = append(out.Blocks, r.block(item))
		}
		doc.Sections = append(doc.Sections, out)
	}
	return doc
}

func placeholder(item selector.ResolvedItem, err *RenderError) Block {
	reason := "the data could not be computed"
	if errors.Is(err, selector.ErrNoValues) {
		reason = "no values to aggregate"
	}
	return Block{Kind: BlockPlaceholder, Placeholder: &Placeholder{Item: item.Kind, Title: item.Title, Reason: reason}}
}

type renderer struct {
	profile *profiler.DatasetProfile
}

func (r renderer) block(item selector.ResolvedItem) Block {
	switch {
	case item.KPI != nil:
		return Block{Kind: BlockKPI, KPI: r.kpi(item.KPI)}
	case item.Chart != nil:
		return Block{Kind: BlockChart, Chart: r.chart(item.Chart)}
	}
	return Block{Kind: BlockTable, Table: r.table(item.Table)}
}

func (r renderer) kpi(k *selector.ResolvedKPI) *KPICard {
	card := &KPICard{
		Title:        k.Spec.Label,
		SourceColumn: k.Spec.SourceColumn,
		Aggregation:  string(k.Spec.Aggregation),
		Description:  k.Spec.Description,
	}
	if k.Value == nil {
		card.Value = k.Raw
		return card
	}
	v := *k.Value
	card.Number = &v

	format := k.Spec.Format
	if k.Spec.Aggregation == spec.AggCount {
		format = spec.FormatNumber
	}
	card.Value = FormatValue(v, format, r.fractionScale(k.Spec.SourceColumn))
	return card
}

func (r renderer) chart(c *selector.ResolvedChart) *ChartBlock {
	out := &ChartBlock{
		Type:        string(c.Spec.ChartType),
		Title:       c.Spec.Title,
		Description: c.Spec.Description,
		XLabel:      c.Spec.XColumn,
		Granularity: string(c.Granularity),
		Labels:      append([]string{}, c.Labels...),
	}
	for _, s := range c.Series {
		out.YLabels = append(out.YLabels, fmt.Sprintf("%s (%s)", s.Column, s.Aggregation))

		format := formatFor(s.SourceType)
		if s.Aggregation == spec.AggCount {
			format = spec.FormatNumber
		}
		fraction := r.fractionScale(s.Column)
		series := ChartSeries{Name: s.Column, Values: append([]float64{}, s.Values...), Display: make([]string, len(s.Values))}
		for i, v := range s.Values {
			series.Display[i] = FormatValue(v, format, fraction)
		}
		out.Series = append(out.Series, series)
	}
	return out
}

func (r renderer) table(t *selector.ResolvedTable) *TableBlock {
	out := &TableBlock{
		Title:       t.Spec.Title,
		Description: t.Spec.Description,
		Columns:     append([]string{}, t.Columns...),
		Numeric:     make([]bool, len(t.Columns)),
		Rows:        make([][]string, len(t.Rows)),
		TotalRows:   t.TotalRows,
		Truncated:   t.Truncated,
	}
	fraction := make([]bool, len(t.Columns))
	for i, col := range t.Columns {
		out.Numeric[i] = t.ColumnTypes[i].IsNumeric()
		fraction[i] = r.fractionScale(col)
	}
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = formatCell(cell, t.ColumnTypes[j], fraction[j])
		}
		out.Rows[i] = cells
	}
	return out
}

// formatCell renders typed cells in their column's format. Cells that do
// not fit the column type keep their source text.
func formatCell(v dataset.Value, t profiler.SemanticType, fraction bool) string {
	switch {
	case v.IsNull():
		return ""
	case v.Kind == dataset.KindDate && t == profiler.TypeDate:
		if v.Time.Hour() == 0 && v.Time.Minute() == 0 && v.Time.Second() == 0 {
			return v.Time.Format("2006-01-02")
		}
		return v.Time.Format("2006-01-02 15:04")
	case v.IsNumeric() && t.IsNumeric():
		return FormatValue(v.Num, formatFor(t), fraction && v.Kind != dataset.KindPercent)
	}
	return v.Raw
}

func formatFor(t profiler.SemanticType) spec.Format {
	switch t {
	case profiler.TypeCurrency:
		return spec.FormatCurrency
	case profiler.TypePercent:
		return spec.FormatPercent
	}
	return spec.FormatNumber
}

// fractionScale reports a percent column stored as 0..1 fractions. A
// column with any "%" cell is in percentage points whatever its range.
func (r renderer) fractionScale(column string) bool {
	c, ok := r.profile.Column(column)
	if !ok || c.InferredType != profiler.TypePercent || c.PercentSigned || c.Max == nil || c.Min == nil {
		return false
	}
	return *c.Min >= 0 && *c.Max <= 1
}
