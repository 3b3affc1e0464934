package profiler

import (
	"math"
	"strings"
	"time"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/dataset"
)

const (
	// MaxSampleValues bounds ColumnProfile.SampleValues
	MaxSampleValues = 5

	dateThreshold     = 0.90
	numericThreshold  = 0.95
	markedThreshold   = 0.50
	minCategoricalCap = 20
	categoricalShare  = 0.05
)

var percentHints = []string{"percent", "pct", "%", "rate", "ratio", "share"}

// Profile infers a type and statistics for every column, preserving order.
// Individual bad cells never fail profiling; only a dataset without columns does.
func Profile(ds *dataset.Dataset) (*DatasetProfile, error) {
	if ds == nil {
		return nil, &ProfilingError{Reason: "no dataset"}
	}
	if len(ds.Columns) == 0 {
		return nil, &ProfilingError{Reason: "dataset has zero columns"}
	}

	profile := &DatasetProfile{
		RowCount: len(ds.Rows),
		Columns:  make([]ColumnProfile, 0, len(ds.Columns)),
	}

	for _, name := range ds.Columns {
		col := profileColumn(name, ds.Column(name), len(ds.Rows))
		profile.Columns = append(profile.Columns, col)

		if col.InferredType == TypeDate && col.MinDate != nil {
			profile.DetectedDateRange = widen(profile.DetectedDateRange, *col.MinDate, *col.MaxDate)
		}
	}

	return profile, nil
}

func profileColumn(name string, cells []dataset.Value, rowCount int) ColumnProfile {
	col := ColumnProfile{Name: name, SampleValues: []string{}}

	counts := make(map[dataset.Kind]int)
	distinct := make(map[string]struct{})
	nonNull := 0
	for _, v := range cells {
		if v.IsNull() {
			col.NullCount++
			continue
		}
		nonNull++
		counts[v.Kind]++
		distinct[v.Raw] = struct{}{}
		if len(col.SampleValues) < MaxSampleValues {
			col.SampleValues = append(col.SampleValues, v.Raw)
		}
	}

	col.Nullable = col.NullCount > 0
	col.DistinctCount = len(distinct)
	col.IsCategorical = col.DistinctCount <= categoricalCap(rowCount)
	col.InferredType = inferType(name, cells, counts, nonNull)
	col.PercentSigned = counts[dataset.KindPercent] > 0

	switch {
	case col.InferredType.IsNumeric():
		numericStats(&col, cells)
	case col.InferredType == TypeDate:
		dateStats(&col, cells)
	}

	return col
}

func categoricalCap(rowCount int) int {
	share := int(math.Floor(float64(rowCount) * categoricalShare))
	if share > minCategoricalCap {
		return share
	}
	return minCategoricalCap
}

// inferType walks the priority order date > currency > percent > number > string;
// the first rule that passes wins regardless of how the other kinds are spread.
func inferType(name string, cells []dataset.Value, counts map[dataset.Kind]int, nonNull int) SemanticType {
	if nonNull == 0 {
		return TypeString
	}
	share := func(kinds ...dataset.Kind) float64 {
		n := 0
		for _, k := range kinds {
			n += counts[k]
		}
		return float64(n) / float64(nonNull)
	}

	if share(dataset.KindDate) >= dateThreshold {
		return TypeDate
	}
	if share(dataset.KindNumber, dataset.KindCurrency) >= numericThreshold && share(dataset.KindCurrency) >= markedThreshold {
		return TypeCurrency
	}
	if share(dataset.KindNumber, dataset.KindPercent) >= numericThreshold {
		if share(dataset.KindPercent) >= markedThreshold {
			return TypePercent
		}
		if hasPercentHint(name) && boundedAsPercent(cells) {
			return TypePercent
		}
	}
	if share(dataset.KindNumber, dataset.KindCurrency, dataset.KindPercent) >= numericThreshold {
		return TypeNumber
	}
	return TypeString
}

func hasPercentHint(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range percentHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func boundedAsPercent(cells []dataset.Value) bool {
	inUnit, inHundred := true, true
	for _, v := range cells {
		if v.Kind != dataset.KindNumber {
			continue
		}
		if v.Num < 0 || v.Num > 1 {
			inUnit = false
		}
		if v.Num < 0 || v.Num > 100 {
			inHundred = false
		}
	}
	return inUnit || inHundred
}

func numericStats(col *ColumnProfile, cells []dataset.Value) {
	var (
		n        int
		sum      float64
		min, max float64
		integer  = true
	)
	for _, v := range cells {
		if !v.IsNumeric() {
			continue
		}
		if n == 0 || v.Num < min {
			min = v.Num
		}
		if n == 0 || v.Num > max {
			max = v.Num
		}
		if v.Num != math.Trunc(v.Num) {
			integer = false
		}
		sum += v.Num
		n++
	}
	if n == 0 {
		return
	}

	mean := sum / float64(n)
	var sq float64
	for _, v := range cells {
		if v.IsNumeric() {
			d := v.Num - mean
			sq += d * d
		}
	}
	variance := sq / float64(n)

	col.Min, col.Max, col.Mean, col.Variance = &min, &max, &mean, &variance
	col.IsInteger = integer
}

func dateStats(col *ColumnProfile, cells []dataset.Value) {
	var min, max time.Time
	found := false
	for _, v := range cells {
		if v.Kind != dataset.KindDate {
			continue
		}
		if !found || v.Time.Before(min) {
			min = v.Time
		}
		if !found || v.Time.After(max) {
			max = v.Time
		}
		found = true
	}
	if found {
		col.MinDate, col.MaxDate = &min, &max
	}
}

func widen(r *DateRange, start, end time.Time) *DateRange {
	if r == nil {
		return &DateRange{Start: start, End: end}
	}
	if start.Before(r.Start) {
		r.Start = start
	}
	if end.After(r.End) {
		r.End = end
	}
	return r
}
