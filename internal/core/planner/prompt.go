package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/profiler"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"
)

// ColumnSummary is what the planning service learns about a column.
// Sample values are withheld so no raw cell data leaves the process.
type ColumnSummary struct {
	Name          string                `json:"name"`
	Type          profiler.SemanticType `json:"type"`
	Nullable      bool                  `json:"nullable"`
	DistinctCount int                   `json:"distinct_count"`
	IsCategorical bool                  `json:"is_categorical"`
	Min           *float64              `json:"min,omitempty"`
	Max           *float64              `json:"max,omitempty"`
	Mean          *float64              `json:"mean,omitempty"`
}

// Request is the user message sent to the planning service
type Request struct {
	Intent            string              `json:"intent"`
	RowCount          int                 `json:"row_count"`
	Columns           []ColumnSummary     `json:"columns"`
	DetectedDateRange *profiler.DateRange `json:"detected_date_range,omitempty"`
}

// NewRequest summarizes a profile for the planning service
func NewRequest(profile *profiler.DatasetProfile, intent string) Request {
	req := Request{
		Intent:            strings.TrimSpace(intent),
		RowCount:          profile.RowCount,
		Columns:           make([]ColumnSummary, len(profile.Columns)),
		DetectedDateRange: profile.DetectedDateRange,
	}
	for i, c := range profile.Columns {
		req.Columns[i] = ColumnSummary{
			Name:          c.Name,
			Type:          c.InferredType,
			Nullable:      c.Nullable,
			DistinctCount: c.DistinctCount,
			IsCategorical: c.IsCategorical,
			Min:           c.Min,
			Max:           c.Max,
			Mean:          c.Mean,
		}
	}
	if req.Intent == "" {
		req.Intent = "Produce a concise compliance report of the most important figures."
	}
	return req
}

// BuildSystemPrompt describes the response wire format to the model
func BuildSystemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You plan public-sector data reports. Reply with a single JSON object and nothing else.\n\n")

	sb.WriteString("=== RESPONSE SCHEMA ===\n")
	sb.WriteString(`{"title": string, "description": string, "narrative_goals": [string],` + "\n")
	sb.WriteString(` "sections": [{"title": string, "items": [ITEM, ...]}]}` + "\n")
	sb.WriteString("ITEM is exactly one of:\n")
	sb.WriteString(`  {"kpi": {"label": string, "source_column": string, "aggregation": AGG, "format": FORMAT}}` + "\n")
	sb.WriteString(`  {"chart": {"chart_type": CHART, "x_column": string, "y_columns": [string], "title": string}}` + "\n")
	sb.WriteString(`  {"table": {"title": string, "columns": [string], "sort_column": string, "sort_direction": "asc"|"desc", "max_rows": int}}` + "\n")
	sb.WriteString(fmt.Sprintf("AGG: %s\n", joinQuoted(spec.AggSum, spec.AggAvg, spec.AggCount, spec.AggMin, spec.AggMax, spec.AggLatest)))
	sb.WriteString(fmt.Sprintf("FORMAT: %s\n", joinQuoted(spec.FormatNumber, spec.FormatCurrency, spec.FormatPercent)))
	sb.WriteString(fmt.Sprintf("CHART: %s\n\n", joinQuoted(spec.ChartBar, spec.ChartLine, spec.ChartPie, spec.ChartArea, spec.ChartScatter, spec.ChartRadar)))

	sb.WriteString("Rules:\n")
	sb.WriteString("- Only reference column names given in the request, spelled exactly\n")
	sb.WriteString("- sum, avg, min and max need number, currency or percent columns\n")
	sb.WriteString("- pie and radar charts take one y column and a categorical x column\n")
	sb.WriteString("- line and area charts need a date x column\n")
	sb.WriteString("- Every section needs a title and at least one item\n")

	return sb.String()
}

// BuildUserMessage serializes the request
func BuildUserMessage(req Request) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode planning request: %w", err)
	}
	return string(data), nil
}

func joinQuoted[T ~string](values ...T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%q", string(v))
	}
	return strings.Join(parts, " | ")
}

// extractJSON drops Markdown code fences some models wrap around JSON.
// Nothing inside the object is altered.
func extractJSON(response string) string {
	s := strings.TrimSpace(response)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
