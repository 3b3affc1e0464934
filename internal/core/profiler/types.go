package profiler

import (
	"fmt"
	"time"
)

// SemanticType is the inferred type of a column
type SemanticType string

const (
	TypeString   SemanticType = "string"
	TypeNumber   SemanticType = "number"
	TypeDate     SemanticType = "date"
	TypeCurrency SemanticType = "currency"
	TypePercent  SemanticType = "percent"
)

// IsNumeric reports whether aggregations like sum and avg apply
func (t SemanticType) IsNumeric() bool {
	return t == TypeNumber || t == TypeCurrency || t == TypePercent
}

// ColumnProfile summarizes one column
type ColumnProfile struct {
	Name          string       `json:"name"`
	InferredType  SemanticType `json:"inferred_type"`
	Nullable      bool         `json:"nullable"`
	NullCount     int          `json:"null_count"`
	DistinctCount int          `json:"distinct_count"`
	Min           *float64     `json:"min,omitempty"`
	Max           *float64     `json:"max,omitempty"`
	Mean          *float64     `json:"mean,omitempty"`
	Variance      *float64     `json:"variance,omitempty"`
	IsInteger     bool         `json:"is_integer,omitempty"`
	// PercentSigned is set when any cell was written with a % sign
	PercentSigned bool         `json:"percent_signed,omitempty"`
	MinDate       *time.Time   `json:"min_date,omitempty"`
	MaxDate       *time.Time   `json:"max_date,omitempty"`
	SampleValues  []string     `json:"sample_values"`
	IsCategorical bool         `json:"is_categorical"`
}

// DateRange is an inclusive time span
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Span returns the length of the range
func (r DateRange) Span() time.Duration {
	return r.End.Sub(r.Start)
}

// DatasetProfile is the per-request summary of a dataset
type DatasetProfile struct {
	RowCount          int             `json:"row_count"`
	Columns           []ColumnProfile `json:"columns"`
	DetectedDateRange *DateRange      `json:"detected_date_range,omitempty"`
}

// Column looks up a column profile by exact name
func (p *DatasetProfile) Column(name string) (*ColumnProfile, bool) {
	for i := range p.Columns {
		if p.Columns[i].Name == name {
			return &p.Columns[i], true
		}
	}
	return nil, false
}

// ColumnsOfType returns the columns with the given inferred type, in order
func (p *DatasetProfile) ColumnsOfType(types ...SemanticType) []ColumnProfile {
	var out []ColumnProfile
	for _, c := range p.Columns {
		for _, t := range types {
			if c.InferredType == t {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// ColumnQuality is the completeness of one column
type ColumnQuality struct {
	Name         string  `json:"name"`
	Completeness float64 `json:"completeness"`
}

// Completeness is the share of non-null cells across the whole dataset
func (p *DatasetProfile) Completeness() float64 {
	if p.RowCount == 0 || len(p.Columns) == 0 {
		return 1
	}
	nulls := 0
	for _, c := range p.Columns {
		nulls += c.NullCount
	}
	total := p.RowCount * len(p.Columns)
	return float64(total-nulls) / float64(total)
}

// Quality reports per-column completeness in column order
func (p *DatasetProfile) Quality() []ColumnQuality {
	out := make([]ColumnQuality, len(p.Columns))
	for i, c := range p.Columns {
		q := 1.0
		if p.RowCount > 0 {
			q = float64(p.RowCount-c.NullCount) / float64(p.RowCount)
		}
		out[i] = ColumnQuality{Name: c.Name, Completeness: q}
	}
	return out
}

// ProfilingError means the dataset structure could not be profiled at all
type ProfilingError struct {
	Reason string
}

func (e *ProfilingError) Error() string {
	return fmt.Sprintf("profiling failed: %s", e.Reason)
}
