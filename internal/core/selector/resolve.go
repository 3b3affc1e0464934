package selector

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/dataset"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/profiler"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"
)

// ResolvedKPI is a KPI bound to its computed value. Value is nil when the
// KPI resolves to a non-numeric cell (latest over a text column), in which
// case Raw holds the cell text.
type ResolvedKPI struct {
	Spec       spec.KPIDefinition
	Value      *float64
	Raw        string
	SourceType profiler.SemanticType
}

// Series is one y column aggregated across the chart's groups
type Series struct {
	Column      string
	Aggregation spec.Aggregation
	SourceType  profiler.SemanticType
	Values      []float64
}

// ResolvedChart holds concrete data points in axis order
type ResolvedChart struct {
	Spec        spec.ChartSpec
	Granularity Granularity // set for date axes only
	Labels      []string
	Series      []Series
}

// ResolvedTable holds the sorted, truncated rows of a table
type ResolvedTable struct {
	Spec        spec.TableSpec
	Columns     []string
	ColumnTypes []profiler.SemanticType
	Rows        [][]dataset.Value
	TotalRows   int
	Truncated   int
}

// ResolvedItem carries exactly one resolved payload, or Err when the item
// could not be materialized.
type ResolvedItem struct {
	Kind  spec.ItemKind
	Title string
	KPI   *ResolvedKPI
	Chart *ResolvedChart
	Table *ResolvedTable
	Err   error
}

// ResolvedSection mirrors a spec section with data bound to every item
type ResolvedSection struct {
	Title string
	Items []ResolvedItem
}

// Resolve binds every item of a validated section to the dataset. A
// failing item is reported in its ResolvedItem and does not stop the
// remaining items.
func Resolve(section spec.ReportSection, ds *dataset.Dataset, profile *profiler.DatasetProfile) ResolvedSection {
	out := ResolvedSection{Title: section.Title, Items: make([]ResolvedItem, 0, len(section.Items))}

	kpiAggs := make(map[string]spec.Aggregation)
	for _, it := range section.Items {
		if it.KPI != nil {
			if _, seen := kpiAggs[it.KPI.SourceColumn]; !seen {
				kpiAggs[it.KPI.SourceColumn] = it.KPI.Aggregation
			}
		}
	}

	for _, it := range section.Items {
		item := ResolvedItem{Kind: it.Kind()}
		switch {
		case it.KPI != nil:
			item.Title = it.KPI.Label
			kpi, err := ResolveKPI(*it.KPI, ds, profile)
			item.KPI, item.Err = kpi, err
		case it.Chart != nil:
			item.Title = it.Chart.Title
			chart, err := ResolveChart(*it.Chart, ds, profile, kpiAggs)
			item.Chart, item.Err = chart, err
		case it.Table != nil:
			item.Title = it.Table.Title
			item.Table = ResolveTable(*it.Table, ds, profile)
		default:
			item.Err = fmt.Errorf("item has no payload")
		}
		out.Items = append(out.Items, item)
	}
	return out
}

// ResolveKPI computes a KPI value. latest follows the first date column
// when the profile has one and row order otherwise.
func ResolveKPI(k spec.KPIDefinition, ds *dataset.Dataset, profile *profiler.DatasetProfile) (*ResolvedKPI, error) {
	out := &ResolvedKPI{Spec: k, SourceType: columnType(profile, k.SourceColumn)}

	if k.Aggregation == spec.AggLatest {
		cell, ok := latestCell(k.SourceColumn, ds, profile)
		if !ok {
			return nil, fmt.Errorf("kpi %q: latest: %w", k.Label, ErrNoValues)
		}
		out.Raw = cell.Raw
		if cell.IsNumeric() {
			v := cell.Num
			out.Value = &v
		}
		return out, nil
	}

	v, err := Aggregate(k.Aggregation, ds.Column(k.SourceColumn))
	if err != nil {
		return nil, fmt.Errorf("kpi %q: %w", k.Label, err)
	}
	out.Value = &v
	return out, nil
}

func latestCell(column string, ds *dataset.Dataset, profile *profiler.DatasetProfile) (dataset.Value, bool) {
	var dateCol string
	if dates := profile.ColumnsOfType(profiler.TypeDate); len(dates) > 0 {
		dateCol = dates[0].Name
	}

	var (
		best     dataset.Value
		bestTime time.Time
		found    bool
	)
	for _, row := range ds.Rows {
		cell := row[column]
		if cell.IsNull() {
			continue
		}
		if dateCol == "" {
			best, found = cell, true
			continue
		}
		when := row[dateCol]
		if when.Kind != dataset.KindDate {
			continue
		}
		// ties keep the later row
		if !found || !when.Time.Before(bestTime) {
			best, bestTime, found = cell, when.Time, true
		}
	}
	return best, found
}

// group collects the rows that share one x position
type group struct {
	label string
	key   float64
	when  time.Time
	rows  []dataset.Row
}

// ResolveChart groups rows by the x column and aggregates each y column per
// group. kpiAggs maps source columns to the aggregation of a KPI in the same
// section and is consulted when the chart names none.
func ResolveChart(c spec.ChartSpec, ds *dataset.Dataset, profile *profiler.DatasetProfile, kpiAggs map[string]spec.Aggregation) (*ResolvedChart, error) {
	out := &ResolvedChart{Spec: c}

	var groups []*group
	switch xType := columnType(profile, c.XColumn); {
	case xType == profiler.TypeDate:
		out.Granularity = GranularityFor(dateRangeFor(profile, c.XColumn))
		groups = groupByDate(c.XColumn, ds, out.Granularity)
	case xType.IsNumeric():
		groups = groupByNumber(c.XColumn, ds)
	default:
		groups = groupByLabel(c.XColumn, ds)
	}

	allAdditive := true
	for _, y := range c.YColumns {
		agg := yAggregation(c, y, kpiAggs)
		allAdditive = allAdditive && additive(agg)
		out.Series = append(out.Series, Series{Column: y, Aggregation: agg, SourceType: columnType(profile, y)})
	}

	if out.Granularity != "" && allAdditive && len(groups) > 0 {
		groups = fillBuckets(groups, out.Granularity)
	}

	for _, g := range groups {
		out.Labels = append(out.Labels, g.label)
	}
	for i := range out.Series {
		s := &out.Series[i]
		s.Values = make([]float64, len(groups))
		for j, g := range groups {
			cells := make([]dataset.Value, len(g.rows))
			for k, row := range g.rows {
				cells[k] = row[s.Column]
			}
			v, err := Aggregate(s.Aggregation, cells)
			if err != nil {
				return nil, fmt.Errorf("chart %q: %s at %q: %w", c.Title, s.Column, g.label, err)
			}
			s.Values[j] = v
		}
	}
	return out, nil
}

func yAggregation(c spec.ChartSpec, column string, kpiAggs map[string]spec.Aggregation) spec.Aggregation {
	if c.Aggregation != "" {
		return c.Aggregation
	}
	if agg, ok := kpiAggs[column]; ok {
		return agg
	}
	return spec.AggSum
}

func groupByDate(column string, ds *dataset.Dataset, g Granularity) []*group {
	index := make(map[time.Time]*group)
	var groups []*group
	for _, row := range ds.Rows {
		cell := row[column]
		if cell.Kind != dataset.KindDate {
			continue
		}
		start := BucketStart(cell.Time, g)
		grp, ok := index[start]
		if !ok {
			grp = &group{label: BucketLabel(start, g), when: start}
			index[start] = grp
			groups = append(groups, grp)
		}
		grp.rows = append(grp.rows, row)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].when.Before(groups[j].when) })
	return groups
}

// fillBuckets inserts empty groups for buckets with no rows between the
// first and last populated bucket.
func fillBuckets(groups []*group, g Granularity) []*group {
	index := make(map[time.Time]*group, len(groups))
	for _, grp := range groups {
		index[grp.when] = grp
	}
	starts := BucketRange(groups[0].when, groups[len(groups)-1].when, g)
	out := make([]*group, 0, len(starts))
	for _, start := range starts {
		if grp, ok := index[start]; ok {
			out = append(out, grp)
			continue
		}
		out = append(out, &group{label: BucketLabel(start, g), when: start})
	}
	return out
}

func groupByNumber(column string, ds *dataset.Dataset) []*group {
	index := make(map[float64]*group)
	var groups []*group
	for _, row := range ds.Rows {
		cell := row[column]
		if !cell.IsNumeric() {
			continue
		}
		grp, ok := index[cell.Num]
		if !ok {
			grp = &group{label: strconv.FormatFloat(cell.Num, 'f', -1, 64), key: cell.Num}
			index[cell.Num] = grp
			groups = append(groups, grp)
		}
		grp.rows = append(grp.rows, row)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].key < groups[j].key })
	return groups
}

func groupByLabel(column string, ds *dataset.Dataset) []*group {
	index := make(map[string]*group)
	var groups []*group
	for _, row := range ds.Rows {
		cell := row[column]
		if cell.IsNull() {
			continue
		}
		grp, ok := index[cell.Raw]
		if !ok {
			grp = &group{label: cell.Raw}
			index[cell.Raw] = grp
			groups = append(groups, grp)
		}
		grp.rows = append(grp.rows, row)
	}
	return groups
}

// ResolveTable sorts and truncates rows. Nulls sort last in both
// directions and equal keys keep row order.
func ResolveTable(t spec.TableSpec, ds *dataset.Dataset, profile *profiler.DatasetProfile) *ResolvedTable {
	rows := make([]dataset.Row, len(ds.Rows))
	copy(rows, ds.Rows)

	if t.SortColumn != "" {
		desc := t.SortDirection == spec.SortDesc
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := rows[i][t.SortColumn], rows[j][t.SortColumn]
			switch {
			case a.IsNull() || b.IsNull():
				return !a.IsNull() && b.IsNull()
			case desc:
				return compareCells(b, a) < 0
			}
			return compareCells(a, b) < 0
		})
	}

	out := &ResolvedTable{Spec: t, Columns: append([]string(nil), t.Columns...), TotalRows: len(rows)}
	for _, col := range t.Columns {
		out.ColumnTypes = append(out.ColumnTypes, columnType(profile, col))
	}

	shown := len(rows)
	if t.MaxRows != nil && *t.MaxRows < shown {
		shown = *t.MaxRows
	}
	out.Rows = make([][]dataset.Value, shown)
	for i := 0; i < shown; i++ {
		cells := make([]dataset.Value, len(t.Columns))
		for j, col := range t.Columns {
			cells[j] = rows[i][col]
		}
		out.Rows[i] = cells
	}
	out.Truncated = out.TotalRows - shown
	return out
}

// compareCells orders numbers numerically, dates chronologically and
// everything else as text.
func compareCells(a, b dataset.Value) int {
	switch {
	case a.IsNumeric() && b.IsNumeric():
		return compareFloat(a.Num, b.Num)
	case a.Kind == dataset.KindDate && b.Kind == dataset.KindDate:
		return a.Time.Compare(b.Time)
	}
	return strings.Compare(a.Raw, b.Raw)
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func columnType(profile *profiler.DatasetProfile, name string) profiler.SemanticType {
	if c, ok := profile.Column(name); ok {
		return c.InferredType
	}
	return profiler.TypeString
}

// dateRangeFor prefers the dataset-wide range and falls back to the
// column's own bounds.
func dateRangeFor(profile *profiler.DatasetProfile, column string) *profiler.DateRange {
	if profile.DetectedDateRange != nil {
		return profile.DetectedDateRange
	}
	if c, ok := profile.Column(column); ok && c.MinDate != nil && c.MaxDate != nil {
		return &profiler.DateRange{Start: *c.MinDate, End: *c.MaxDate}
	}
	return nil
}
