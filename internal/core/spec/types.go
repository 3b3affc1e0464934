package spec

// Aggregation reduces a column to one value
type Aggregation string

const (
	AggSum    Aggregation = "sum"
	AggAvg    Aggregation = "avg"
	AggCount  Aggregation = "count"
	AggMin    Aggregation = "min"
	AggMax    Aggregation = "max"
	AggLatest Aggregation = "latest"
)

// Valid reports whether a is a known aggregation
func (a Aggregation) Valid() bool {
	switch a {
	case AggSum, AggAvg, AggCount, AggMin, AggMax, AggLatest:
		return true
	}
	return false
}

// NeedsNumeric reports whether the aggregation only makes sense on numbers
func (a Aggregation) NeedsNumeric() bool {
	return a == AggSum || a == AggAvg || a == AggMin || a == AggMax
}

// Format is how a KPI value is displayed
type Format string

const (
	FormatNumber   Format = "number"
	FormatCurrency Format = "currency"
	FormatPercent  Format = "percent"
)

// Valid reports whether f is a known format
func (f Format) Valid() bool {
	return f == FormatNumber || f == FormatCurrency || f == FormatPercent
}

// ChartType names a chart kind
type ChartType string

const (
	ChartBar     ChartType = "bar"
	ChartLine    ChartType = "line"
	ChartPie     ChartType = "pie"
	ChartArea    ChartType = "area"
	ChartScatter ChartType = "scatter"
	ChartRadar   ChartType = "radar"
)

// Valid reports whether c is a known chart type
func (c ChartType) Valid() bool {
	switch c {
	case ChartBar, ChartLine, ChartPie, ChartArea, ChartScatter, ChartRadar:
		return true
	}
	return false
}

// SortDirection orders table rows
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// KPIDefinition is a single headline figure
type KPIDefinition struct {
	Label        string      `json:"label"`
	SourceColumn string      `json:"source_column"`
	Aggregation  Aggregation `json:"aggregation"`
	Format       Format      `json:"format"`
	Description  string      `json:"description,omitempty"`
}

// ChartSpec describes one chart. Aggregation is optional and applies to
// every y column; XOrdered marks a numeric x axis as an ordered sequence.
type ChartSpec struct {
	ChartType   ChartType   `json:"chart_type"`
	XColumn     string      `json:"x_column"`
	YColumns    []string    `json:"y_columns"`
	Title       string      `json:"title"`
	Aggregation Aggregation `json:"aggregation,omitempty"`
	XOrdered    bool        `json:"x_ordered,omitempty"`
	Description string      `json:"description,omitempty"`
}

// TableSpec describes a data table
type TableSpec struct {
	Title         string        `json:"title,omitempty"`
	Columns       []string      `json:"columns"`
	SortColumn    string        `json:"sort_column,omitempty"`
	SortDirection SortDirection `json:"sort_direction,omitempty"`
	MaxRows       *int          `json:"max_rows,omitempty"`
	Description   string        `json:"description,omitempty"`
}

// ItemKind tags the populated member of an Item
type ItemKind string

const (
	ItemKPI   ItemKind = "kpi"
	ItemChart ItemKind = "chart"
	ItemTable ItemKind = "table"
)

// Item holds exactly one of KPI, Chart or Table
type Item struct {
	KPI   *KPIDefinition `json:"kpi,omitempty"`
	Chart *ChartSpec     `json:"chart,omitempty"`
	Table *TableSpec     `json:"table,omitempty"`
}

// Kind returns the populated member, or "" when zero or several are set
func (i Item) Kind() ItemKind {
	var kind ItemKind
	n := 0
	if i.KPI != nil {
		kind, n = ItemKPI, n+1
	}
	if i.Chart != nil {
		kind, n = ItemChart, n+1
	}
	if i.Table != nil {
		kind, n = ItemTable, n+1
	}
	if n != 1 {
		return ""
	}
	return kind
}

// KPIItem wraps a KPI definition
func KPIItem(k KPIDefinition) Item { return Item{KPI: &k} }

// ChartItem wraps a chart spec
func ChartItem(c ChartSpec) Item { return Item{Chart: &c} }

// TableItem wraps a table spec
func TableItem(t TableSpec) Item { return Item{Table: &t} }

// ReportSection is a titled, ordered group of items
type ReportSection struct {
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// ReportSpecification is the data-independent description of a report
type ReportSpecification struct {
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Template       string          `json:"template,omitempty"`
	NarrativeGoals []string        `json:"narrative_goals,omitempty"`
	Sections       []ReportSection `json:"sections"`
}

// Clone returns a deep copy
func (s *ReportSpecification) Clone() *ReportSpecification {
	if s == nil {
		return nil
	}
	out := *s
	out.NarrativeGoals = cloneStrings(s.NarrativeGoals)
	if s.Sections == nil {
		return &out
	}
	out.Sections = make([]ReportSection, len(s.Sections))
	for i, sec := range s.Sections {
		out.Sections[i] = ReportSection{Title: sec.Title}
		if sec.Items == nil {
			continue
		}
		out.Sections[i].Items = make([]Item, len(sec.Items))
		for j, it := range sec.Items {
			out.Sections[i].Items[j] = it.clone()
		}
	}
	return &out
}

func (i Item) clone() Item {
	var out Item
	if i.KPI != nil {
		k := *i.KPI
		out.KPI = &k
	}
	if i.Chart != nil {
		c := *i.Chart
		c.YColumns = cloneStrings(i.Chart.YColumns)
		out.Chart = &c
	}
	if i.Table != nil {
		t := *i.Table
		t.Columns = cloneStrings(i.Table.Columns)
		if i.Table.MaxRows != nil {
			m := *i.Table.MaxRows
			t.MaxRows = &m
		}
		out.Table = &t
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append(make([]string, 0, len(in)), in...)
}
