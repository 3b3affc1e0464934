package spec

import (
	"fmt"
	"strings"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/profiler"
)

// Check names one validation rule. Checks run in declaration order.
type Check string

const (
	CheckColumnReference Check = "column_reference"
	CheckAggregationType Check = "aggregation_type"
	CheckChartStructure  Check = "chart_structure"
	CheckTableStructure  Check = "table_structure"
	CheckTitle           Check = "title"
	CheckEmptySection    Check = "empty_section"
	CheckItemShape       Check = "item_shape"
)

// Violation is one failed check
type Violation struct {
	Check   Check  `json:"check"`
	Path    string `json:"path"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s at %s: %s", v.Check, v.Path, v.Message)
}

// ValidationError carries every violation of a rejected specification
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return "specification rejected: " + e.Violations[0].String()
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("specification rejected with %d violations: %s", len(e.Violations), strings.Join(parts, "; "))
}

// ValidationResult is either accepted (no violations) or rejected
type ValidationResult struct {
	Violations []Violation
	accepted   *ReportSpecification
}

// Accepted reports whether the specification passed every check
func (r ValidationResult) Accepted() bool {
	return len(r.Violations) == 0 && r.accepted != nil
}

// Spec returns a private copy of the accepted specification, nil if rejected
func (r ValidationResult) Spec() *ReportSpecification {
	if !r.Accepted() {
		return nil
	}
	return r.accepted.Clone()
}

// Err returns a *ValidationError for rejected specifications
func (r ValidationResult) Err() error {
	if r.Accepted() {
		return nil
	}
	return &ValidationError{Violations: r.Violations}
}

// Validate checks a specification against a profile. It is structural and
// referential only and never stops at the first violation.
func Validate(s *ReportSpecification, profile *profiler.DatasetProfile) ValidationResult {
	if s == nil {
		return ValidationResult{Violations: []Violation{{Check: CheckTitle, Path: "$", Message: "specification is missing"}}}
	}
	if profile == nil {
		profile = &profiler.DatasetProfile{}
	}

	v := &validator{spec: s, profile: profile}
	v.columnReferences()
	v.aggregationTypes()
	v.chartStructure()
	v.tableStructure()
	v.titles()
	v.emptySections()
	v.itemShapes()

	if len(v.violations) > 0 {
		return ValidationResult{Violations: v.violations}
	}
	return ValidationResult{accepted: s.Clone()}
}

type validator struct {
	spec       *ReportSpecification
	profile    *profiler.DatasetProfile
	violations []Violation
}

func (v *validator) add(check Check, path, column, format string, args ...interface{}) {
	v.violations = append(v.violations, Violation{
		Check:   check,
		Path:    path,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
	})
}

// each visits every item with its path prefix
func (v *validator) each(fn func(path string, item Item)) {
	for i, sec := range v.spec.Sections {
		for j, item := range sec.Items {
			fn(fmt.Sprintf("sections[%d].items[%d]", i, j), item)
		}
	}
}

func (v *validator) column(name string) (*profiler.ColumnProfile, bool) {
	return v.profile.Column(name)
}

func (v *validator) requireColumn(path, name string) {
	if _, ok := v.column(name); !ok {
		v.add(CheckColumnReference, path, name, "column %q does not exist", name)
	}
}

func (v *validator) columnReferences() {
	v.each(func(path string, item Item) {
		if k := item.KPI; k != nil {
			v.requireColumn(path+".kpi.source_column", k.SourceColumn)
		}
		if c := item.Chart; c != nil {
			v.requireColumn(path+".chart.x_column", c.XColumn)
			for n, y := range c.YColumns {
				v.requireColumn(fmt.Sprintf("%s.chart.y_columns[%d]", path, n), y)
			}
		}
		if t := item.Table; t != nil {
			for n, col := range t.Columns {
				v.requireColumn(fmt.Sprintf("%s.table.columns[%d]", path, n), col)
			}
			if t.SortColumn != "" {
				v.requireColumn(path+".table.sort_column", t.SortColumn)
			}
		}
	})
}

func (v *validator) aggregationTypes() {
	v.each(func(path string, item Item) {
		if k := item.KPI; k != nil {
			if !k.Aggregation.Valid() {
				v.add(CheckAggregationType, path+".kpi.aggregation", k.SourceColumn, "unknown aggregation %q", k.Aggregation)
			} else if col, ok := v.column(k.SourceColumn); ok && k.Aggregation.NeedsNumeric() && !col.InferredType.IsNumeric() {
				v.add(CheckAggregationType, path+".kpi.aggregation", k.SourceColumn,
					"aggregation %s requires a numeric column, %q is %s", k.Aggregation, k.SourceColumn, col.InferredType)
			}
			if !k.Format.Valid() {
				v.add(CheckAggregationType, path+".kpi.format", k.SourceColumn, "unknown format %q", k.Format)
			}
		}
		if c := item.Chart; c != nil && c.Aggregation != "" && !c.Aggregation.Valid() {
			v.add(CheckAggregationType, path+".chart.aggregation", "", "unknown aggregation %q", c.Aggregation)
		}
	})
}

func (v *validator) chartStructure() {
	v.each(func(path string, item Item) {
		c := item.Chart
		if c == nil {
			return
		}
		path += ".chart"
		if !c.ChartType.Valid() {
			v.add(CheckChartStructure, path+".chart_type", "", "unknown chart type %q", c.ChartType)
			return
		}
		if len(c.YColumns) == 0 {
			v.add(CheckChartStructure, path+".y_columns", "", "%s chart needs at least one y column", c.ChartType)
		}

		x, xok := v.column(c.XColumn)
		switch c.ChartType {
		case ChartPie, ChartRadar:
			if len(c.YColumns) > 1 {
				v.add(CheckChartStructure, path+".y_columns", "", "%s chart allows at most one y column, got %d", c.ChartType, len(c.YColumns))
			}
			if xok && !x.IsCategorical {
				v.add(CheckChartStructure, path+".x_column", c.XColumn, "%s chart needs a categorical x column, %q has %d distinct values", c.ChartType, c.XColumn, x.DistinctCount)
			}
		case ChartLine, ChartArea:
			if xok && x.InferredType != profiler.TypeDate && !(x.InferredType.IsNumeric() && c.XOrdered) {
				v.add(CheckChartStructure, path+".x_column", c.XColumn, "%s chart needs a date x column or an ordered numeric axis, %q is %s", c.ChartType, c.XColumn, x.InferredType)
			}
		case ChartScatter:
			if xok && !x.InferredType.IsNumeric() {
				v.add(CheckChartStructure, path+".x_column", c.XColumn, "scatter chart needs a numeric x column, %q is %s", c.XColumn, x.InferredType)
			}
		}

		if c.Aggregation == AggCount {
			return
		}
		for n, name := range c.YColumns {
			if y, ok := v.column(name); ok && !y.InferredType.IsNumeric() {
				v.add(CheckChartStructure, fmt.Sprintf("%s.y_columns[%d]", path, n), name, "y column %q is %s, not numeric", name, y.InferredType)
			}
		}
	})
}

func (v *validator) tableStructure() {
	v.each(func(path string, item Item) {
		t := item.Table
		if t == nil {
			return
		}
		path += ".table"
		if len(t.Columns) == 0 {
			v.add(CheckTableStructure, path+".columns", "", "table lists no columns")
		}
		switch t.SortDirection {
		case "", SortAsc, SortDesc:
		default:
			v.add(CheckTableStructure, path+".sort_direction", t.SortColumn, "unknown sort direction %q", t.SortDirection)
		}
		if t.MaxRows != nil && *t.MaxRows < 0 {
			v.add(CheckTableStructure, path+".max_rows", "", "max_rows must not be negative, got %d", *t.MaxRows)
		}
	})
}

func (v *validator) titles() {
	if strings.TrimSpace(v.spec.Title) == "" {
		v.add(CheckTitle, "title", "", "report title is empty")
	}
	for i, sec := range v.spec.Sections {
		if strings.TrimSpace(sec.Title) == "" {
			v.add(CheckTitle, fmt.Sprintf("sections[%d].title", i), "", "section title is empty")
		}
	}
}

func (v *validator) emptySections() {
	if len(v.spec.Sections) == 0 {
		v.add(CheckEmptySection, "sections", "", "report has no sections")
	}
	for i, sec := range v.spec.Sections {
		if len(sec.Items) == 0 {
			v.add(CheckEmptySection, fmt.Sprintf("sections[%d].items", i), "", "section %q has no items", sec.Title)
		}
	}
}

func (v *validator) itemShapes() {
	v.each(func(path string, item Item) {
		if item.Kind() == "" {
			v.add(CheckItemShape, path, "", "item must hold exactly one of kpi, chart or table")
		}
	})
}
