package selector

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/dataset"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/profiler"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"
)

func load(t *testing.T, header []string, records [][]string) (*dataset.Dataset, *profiler.DatasetProfile) {
	t.Helper()
	ds, err := dataset.FromRecords(header, records)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	p, err := profiler.Profile(ds)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	return ds, p
}

func intp(n int) *int { return &n }

func TestGranularityFor(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		days int
		want Granularity
	}{
		{0, GranularityDay},
		{31, GranularityDay},
		{32, GranularityWeek},
		{92, GranularityWeek},
		{200, GranularityMonth},
		{365 * 2, GranularityMonth},
		{365*3 + 1, GranularityYear},
	}
	for _, tt := range tests {
		r := &profiler.DateRange{Start: start, End: start.AddDate(0, 0, tt.days)}
		if got := GranularityFor(r); got != tt.want {
			t.Fatalf("%d days: got %s, want %s", tt.days, got, tt.want)
		}
	}
	if GranularityFor(nil) != GranularityDay {
		t.Fatalf("nil range should default to day")
	}
}

func TestBucketStartWeekStartsMonday(t *testing.T) {
	sunday := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	got := BucketStart(sunday, GranularityWeek)
	if want := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("BucketStart = %s, want %s", got, want)
	}
	if label := BucketLabel(got, GranularityWeek); label != "2024-W10" {
		t.Fatalf("label = %s", label)
	}
}

func TestBucketRange(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	var labels []string
	for _, b := range BucketRange(start, end, GranularityMonth) {
		labels = append(labels, BucketLabel(b, GranularityMonth))
	}
	if diff := cmp.Diff([]string{"2024-01", "2024-02", "2024-03", "2024-04"}, labels); diff != "" {
		t.Fatalf("buckets (-want +got):\n%s", diff)
	}
}

func TestAggregate(t *testing.T) {
	cells := []dataset.Value{
		dataset.ParseCell("4"),
		dataset.ParseCell("n/a"),
		dataset.ParseCell("$6"),
		dataset.ParseCell("oops"),
		dataset.ParseCell("2"),
	}
	tests := map[spec.Aggregation]float64{
		spec.AggSum:    12,
		spec.AggAvg:    4,
		spec.AggCount:  4,
		spec.AggMin:    2,
		spec.AggMax:    6,
		spec.AggLatest: 2,
	}
	for agg, want := range tests {
		got, err := Aggregate(agg, cells)
		if err != nil || got != want {
			t.Fatalf("%s = %v, %v; want %v", agg, got, err, want)
		}
	}

	empty := []dataset.Value{dataset.Null}
	for _, agg := range []spec.Aggregation{spec.AggAvg, spec.AggMin, spec.AggMax, spec.AggLatest} {
		if _, err := Aggregate(agg, empty); !errors.Is(err, ErrNoValues) {
			t.Fatalf("%s over nothing: err = %v", agg, err)
		}
	}
	if v, err := Aggregate(spec.AggSum, empty); err != nil || v != 0 {
		t.Fatalf("sum over nothing = %v, %v", v, err)
	}
}

func TestResolveTableTruncates(t *testing.T) {
	var records [][]string
	for i := 0; i < 1000; i++ {
		records = append(records, []string{fmt.Sprintf("%d", i)})
	}
	ds, p := load(t, []string{"n"}, records)

	tbl := ResolveTable(spec.TableSpec{Columns: []string{"n"}, SortColumn: "n", SortDirection: spec.SortDesc, MaxRows: intp(10)}, ds, p)
	if len(tbl.Rows) != 10 || tbl.Truncated != 990 || tbl.TotalRows != 1000 {
		t.Fatalf("rows = %d, truncated = %d, total = %d", len(tbl.Rows), tbl.Truncated, tbl.TotalRows)
	}
	if tbl.Rows[0][0].Raw != "999" || tbl.Rows[9][0].Raw != "990" {
		t.Fatalf("sorted wrong: first %s last %s", tbl.Rows[0][0].Raw, tbl.Rows[9][0].Raw)
	}
}

func TestResolveTableSortsTypedWithNullsLast(t *testing.T) {
	ds, p := load(t, []string{"id", "n"}, [][]string{
		{"a", "10"}, {"b", ""}, {"c", "9"}, {"d", "100"}, {"e", "9"},
	})
	ids := func(tbl *ResolvedTable) []string {
		var out []string
		for _, r := range tbl.Rows {
			out = append(out, r[0].Raw)
		}
		return out
	}

	asc := ResolveTable(spec.TableSpec{Columns: []string{"id", "n"}, SortColumn: "n", SortDirection: spec.SortAsc}, ds, p)
	if diff := cmp.Diff([]string{"c", "e", "a", "d", "b"}, ids(asc)); diff != "" {
		t.Fatalf("asc (-want +got):\n%s", diff)
	}
	desc := ResolveTable(spec.TableSpec{Columns: []string{"id", "n"}, SortColumn: "n", SortDirection: spec.SortDesc}, ds, p)
	if diff := cmp.Diff([]string{"d", "a", "c", "e", "b"}, ids(desc)); diff != "" {
		t.Fatalf("desc (-want +got):\n%s", diff)
	}
	if asc.Truncated != 0 {
		t.Fatalf("nothing should be truncated")
	}
	if ds.Rows[0]["id"].Raw != "a" {
		t.Fatalf("sorting must not reorder the dataset")
	}
}

func TestResolveChartByMonthFillsGaps(t *testing.T) {
	ds, p := load(t, []string{"date", "spend"}, [][]string{
		{"2024-01-05", "10"},
		{"2024-01-20", "5"},
		{"2024-04-02", "7"},
		{"2024-07-30", "1"},
		{"", "99"},
	})
	c, err := ResolveChart(spec.ChartSpec{ChartType: spec.ChartLine, XColumn: "date", YColumns: []string{"spend"}, Title: "Spend"}, ds, p, nil)
	if err != nil {
		t.Fatalf("ResolveChart: %v", err)
	}
	if c.Granularity != GranularityMonth {
		t.Fatalf("granularity = %s", c.Granularity)
	}
	wantLabels := []string{"2024-01", "2024-02", "2024-03", "2024-04", "2024-05", "2024-06", "2024-07"}
	if diff := cmp.Diff(wantLabels, c.Labels); diff != "" {
		t.Fatalf("labels (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{15, 0, 0, 7, 0, 0, 1}, c.Series[0].Values); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
}

func TestResolveChartCategoricalUsesKPIAggregation(t *testing.T) {
	ds, p := load(t, []string{"dept", "spend"}, [][]string{
		{"Roads", "10"}, {"Finance", "4"}, {"Roads", "20"}, {"", "1000"},
	})
	section := spec.ReportSection{Title: "S", Items: []spec.Item{
		spec.KPIItem(spec.KPIDefinition{Label: "Avg", SourceColumn: "spend", Aggregation: spec.AggAvg, Format: spec.FormatNumber}),
		spec.ChartItem(spec.ChartSpec{ChartType: spec.ChartBar, XColumn: "dept", YColumns: []string{"spend"}, Title: "By dept"}),
	}}
	res := Resolve(section, ds, p)
	if len(res.Items) != 2 || res.Items[1].Err != nil {
		t.Fatalf("items = %+v", res.Items)
	}
	c := res.Items[1].Chart
	if diff := cmp.Diff([]string{"Roads", "Finance"}, c.Labels); diff != "" {
		t.Fatalf("labels (-want +got):\n%s", diff)
	}
	if c.Series[0].Aggregation != spec.AggAvg || !cmp.Equal(c.Series[0].Values, []float64{15, 4}) {
		t.Fatalf("series = %+v", c.Series[0])
	}
}

func TestResolveChartNumericAxisAscending(t *testing.T) {
	ds, p := load(t, []string{"year", "n"}, [][]string{{"2022", "1"}, {"2020", "2"}, {"2021", "3"}, {"2020", "4"}})
	c, err := ResolveChart(spec.ChartSpec{ChartType: spec.ChartLine, XColumn: "year", YColumns: []string{"n"}, XOrdered: true, Aggregation: spec.AggMax}, ds, p, nil)
	if err != nil {
		t.Fatalf("ResolveChart: %v", err)
	}
	if !cmp.Equal(c.Labels, []string{"2020", "2021", "2022"}) || !cmp.Equal(c.Series[0].Values, []float64{4, 3, 1}) {
		t.Fatalf("chart = %+v", c)
	}
}

func TestResolveKeepsGoingPastFailedItem(t *testing.T) {
	ds, p := load(t, []string{"dept", "n"}, [][]string{{"a", "1"}, {"b", ""}})
	section := spec.ReportSection{Title: "S", Items: []spec.Item{
		spec.ChartItem(spec.ChartSpec{ChartType: spec.ChartBar, XColumn: "dept", YColumns: []string{"n"}, Aggregation: spec.AggAvg, Title: "Avg"}),
		spec.TableItem(spec.TableSpec{Columns: []string{"dept"}}),
	}}
	res := Resolve(section, ds, p)
	if !errors.Is(res.Items[0].Err, ErrNoValues) {
		t.Fatalf("avg over an empty group should fail, got %v", res.Items[0].Err)
	}
	if res.Items[1].Err != nil || len(res.Items[1].Table.Rows) != 2 {
		t.Fatalf("table item = %+v", res.Items[1])
	}
}

func TestResolveKPILatestFollowsDates(t *testing.T) {
	ds, p := load(t, []string{"date", "status", "n"}, [][]string{
		{"2024-03-01", "green", "3"},
		{"2024-05-01", "red", "5"},
		{"2024-01-01", "amber", "1"},
	})
	k, err := ResolveKPI(spec.KPIDefinition{Label: "Status", SourceColumn: "status", Aggregation: spec.AggLatest}, ds, p)
	if err != nil {
		t.Fatalf("ResolveKPI: %v", err)
	}
	if k.Value != nil || k.Raw != "red" {
		t.Fatalf("kpi = %+v", k)
	}
	k, err = ResolveKPI(spec.KPIDefinition{Label: "N", SourceColumn: "n", Aggregation: spec.AggLatest}, ds, p)
	if err != nil || k.Value == nil || *k.Value != 5 {
		t.Fatalf("kpi = %+v, %v", k, err)
	}
}
