package suggest

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/profiler"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"
)

const (
	maxKPIs          = 4
	maxTableRows     = 50
	maxPieCategories = 6

	// DefaultTitle is used when no report pattern matches
	DefaultTitle = "Data Summary Report"
)

var countHints = []string{"count", "qty", "quantity", "units", "number", "num_", "total"}

// Suggest proposes a specification from the profile alone. The same profile
// always yields the same specification. Any profile with a numeric or date
// column yields a spec the validator accepts; otherwise only the detail
// table is produced.
func Suggest(profile *profiler.DatasetProfile) *spec.ReportSpecification {
	s := &spec.ReportSpecification{Title: DefaultTitle}
	if matches := ClassifyReportType(profile); len(matches) > 0 {
		best := matches[0]
		s.Title = best.Name
		s.Description = best.Description
		s.Template = best.Type
		s.NarrativeGoals = append([]string(nil), best.Insights...)
	}

	candidates := kpiCandidates(profile)
	top := topNumeric(profile, candidates)

	if kpis := suggestKPIs(candidates); len(kpis) > 0 {
		s.Sections = append(s.Sections, spec.ReportSection{Title: "Key Metrics", Items: kpis})
	}
	if charts := suggestCharts(profile, top); len(charts) > 0 {
		s.Sections = append(s.Sections, spec.ReportSection{Title: "Trends and Breakdown", Items: charts})
	}
	s.Sections = append(s.Sections, spec.ReportSection{Title: "Data Detail", Items: []spec.Item{suggestTable(profile)}})

	return s
}

type scored struct {
	col   profiler.ColumnProfile
	score float64
}

// kpiCandidates ranks number and currency columns by dispersion
func kpiCandidates(profile *profiler.DatasetProfile) []scored {
	var out []scored
	for _, c := range profile.ColumnsOfType(profiler.TypeNumber, profiler.TypeCurrency) {
		if c.Mean == nil || c.Variance == nil {
			continue
		}
		ratio := *c.Variance
		if *c.Mean != 0 {
			ratio = *c.Variance / math.Abs(*c.Mean)
		}
		out = append(out, scored{col: c, score: ratio})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

func topNumeric(profile *profiler.DatasetProfile, candidates []scored) *profiler.ColumnProfile {
	if len(candidates) > 0 {
		c := candidates[0].col
		return &c
	}
	for _, c := range profile.ColumnsOfType(profiler.TypePercent) {
		if c.Mean != nil {
			return &c
		}
	}
	return nil
}

func suggestKPIs(candidates []scored) []spec.Item {
	var items []spec.Item
	for i, cand := range candidates {
		if i == maxKPIs {
			break
		}
		c := cand.col
		agg, label := spec.AggAvg, "Average "+c.Name
		if c.InferredType == profiler.TypeCurrency || isCountLike(c.Name) {
			agg, label = spec.AggSum, "Total "+c.Name
		}
		format := spec.FormatNumber
		if c.InferredType == profiler.TypeCurrency {
			format = spec.FormatCurrency
		}
		items = append(items, spec.KPIItem(spec.KPIDefinition{
			Label:        label,
			SourceColumn: c.Name,
			Aggregation:  agg,
			Format:       format,
		}))
	}
	return items
}

func isCountLike(name string) bool {
	lower := strings.ToLower(name)
	for _, h := range countHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

func suggestCharts(profile *profiler.DatasetProfile, top *profiler.ColumnProfile) []spec.Item {
	if top == nil {
		return nil
	}
	var items []spec.Item

	if dates := profile.ColumnsOfType(profiler.TypeDate); len(dates) > 0 {
		items = append(items, spec.ChartItem(spec.ChartSpec{
			ChartType: spec.ChartLine,
			XColumn:   dates[0].Name,
			YColumns:  []string{top.Name},
			Title:     fmt.Sprintf("%s over %s", top.Name, dates[0].Name),
		}))
	}

	categorical := categoricalText(profile)
	if len(categorical) > 0 {
		best := categorical[0]
		for _, c := range categorical[1:] {
			if c.DistinctCount > best.DistinctCount {
				best = c
			}
		}
		items = append(items, spec.ChartItem(spec.ChartSpec{
			ChartType: spec.ChartBar,
			XColumn:   best.Name,
			YColumns:  []string{top.Name},
			Title:     fmt.Sprintf("%s by %s", top.Name, best.Name),
		}))
	}

	var pie *profiler.ColumnProfile
	for i, c := range categorical {
		if c.DistinctCount > maxPieCategories {
			continue
		}
		if pie == nil || c.DistinctCount < pie.DistinctCount {
			pie = &categorical[i]
		}
	}
	if pie != nil {
		items = append(items, spec.ChartItem(spec.ChartSpec{
			ChartType: spec.ChartPie,
			XColumn:   pie.Name,
			YColumns:  []string{top.Name},
			Title:     fmt.Sprintf("Share of %s by %s", top.Name, pie.Name),
		}))
	}

	return items
}

// categoricalText returns categorical string columns with at least one value
func categoricalText(profile *profiler.DatasetProfile) []profiler.ColumnProfile {
	var out []profiler.ColumnProfile
	for _, c := range profile.ColumnsOfType(profiler.TypeString) {
		if c.IsCategorical && c.DistinctCount > 0 {
			out = append(out, c)
		}
	}
	return out
}

func suggestTable(profile *profiler.DatasetProfile) spec.Item {
	t := spec.TableSpec{Title: "Detail", Columns: make([]string, len(profile.Columns))}
	for i, c := range profile.Columns {
		t.Columns[i] = c.Name
	}

	for _, c := range profile.Columns {
		if c.InferredType == profiler.TypeDate || c.InferredType.IsNumeric() {
			t.SortColumn = c.Name
			t.SortDirection = spec.SortDesc
			break
		}
	}

	rows := profile.RowCount
	if rows > maxTableRows {
		rows = maxTableRows
	}
	t.MaxRows = &rows

	return spec.TableItem(t)
}
