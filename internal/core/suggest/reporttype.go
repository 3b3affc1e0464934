package suggest

import (
	"math"
	"sort"
	"strings"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/profiler"
)

// ReportPattern describes a recognizable kind of government report
type ReportPattern struct {
	Key         string
	Name        string
	Description string
	// Required lists groups of alternative names; each group must match once.
	Required  [][]string
	Optional  []string
	Charts    []string
	Insights  []string
	Threshold float64
}

// ReportTypeMatch is a scored pattern for a given profile
type ReportTypeMatch struct {
	Type              string   `json:"type"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Confidence        float64  `json:"confidence"`
	ConfidenceLevel   string   `json:"confidence_level"`
	RecommendedCharts []string `json:"recommended_charts"`
	Insights          []string `json:"data_insights"`
}

// Patterns is the built-in catalogue, in tie-break order
var Patterns = []ReportPattern{
	{
		Key:         "budget_performance",
		Name:        "Budget Performance Report",
		Description: "Analysis of budget vs actual spending with variance calculations",
		Required: [][]string{
			{"budget", "planned", "allocated", "appropriated", "authorized", "estimated"},
			{"actual", "spent", "expended", "incurred", "paid", "disbursed"},
		},
		Optional:  []string{"department", "category", "date", "variance", "percentage", "division", "unit", "program", "fund"},
		Charts:    []string{"bar", "line", "pie"},
		Insights:  []string{"Compare budgeted vs actual spending across departments", "Identify areas of budget overruns or savings", "Calculate variance percentages and trends"},
		Threshold: 0.6,
	},
	{
		Key:         "financial_summary",
		Name:        "Financial Summary Report",
		Description: "Comprehensive financial overview with key metrics and trends",
		Required:    [][]string{{"amount", "revenue", "income", "receipts", "collections", "funds", "total", "value"}},
		Optional:    []string{"date", "category", "department", "type", "period", "quarter", "year", "fiscal"},
		Charts:      []string{"line", "bar", "area"},
		Insights:    []string{"Summarize totals across the reporting period", "Show how amounts are distributed across categories", "Track movement of key financial figures over time"},
		Threshold:   0.5,
	},
	{
		Key:         "operational_metrics",
		Name:        "Operational Metrics Report",
		Description: "Performance indicators and operational efficiency analysis",
		Required:    [][]string{{"metric", "value", "target", "goal", "performance", "score", "rating", "efficiency"}},
		Optional:    []string{"date", "department", "category", "status", "period", "quarter", "month"},
		Charts:      []string{"bar", "line"},
		Insights:    []string{"Track key performance indicators over time", "Compare actual vs target performance", "Identify areas needing improvement"},
		Threshold:   0.5,
	},
	{
		Key:         "department_comparison",
		Name:        "Department Comparison Report",
		Description: "Cross-departmental analysis and benchmarking",
		Required:    [][]string{{"department", "division", "unit", "agency", "bureau", "office", "section", "team", "program"}},
		Optional:    []string{"category", "date", "budget", "actual", "performance", "metric", "value"},
		Charts:      []string{"bar", "radar"},
		Insights:    []string{"Benchmark departments against each other", "Identify top and bottom performers", "Show relative performance rankings"},
		Threshold:   0.6,
	},
	{
		Key:         "trend_analysis",
		Name:        "Trend Analysis Report",
		Description: "Time-series analysis showing patterns and trends over time",
		Required:    [][]string{{"date", "time", "period", "quarter", "month", "year", "fiscal", "reporting"}},
		Optional:    []string{"category", "department", "metric", "value", "performance"},
		Charts:      []string{"line", "area", "scatter"},
		Insights:    []string{"Show patterns and trends over time", "Identify seasonal variations and growth rates", "Highlight periods of peak performance or decline"},
		Threshold:   0.7,
	},
	{
		Key:         "compliance_summary",
		Name:        "Compliance Summary Report",
		Description: "Regulatory compliance status and audit findings",
		Required:    [][]string{{"status", "compliance", "audit", "finding", "violation", "regulation", "requirement"}},
		Optional:    []string{"date", "department", "regulation", "finding", "severity", "action"},
		Charts:      []string{"pie", "bar"},
		Insights:    []string{"Summarize compliance status across units", "Surface open findings by severity", "Track remediation progress"},
		Threshold:   0.6,
	},
	{
		Key:         "resource_allocation",
		Name:        "Resource Allocation Report",
		Description: "Resource distribution and utilization analysis",
		Required:    [][]string{{"resource", "allocation", "utilization", "capacity", "workload", "staffing", "fte", "hours"}},
		Optional:    []string{"department", "date", "utilization", "capacity", "efficiency", "productivity"},
		Charts:      []string{"pie", "bar"},
		Insights:    []string{"Show how resources are distributed", "Compare utilization against capacity", "Identify over- and under-allocated units"},
		Threshold:   0.5,
	},
	{
		Key:         "customer_service",
		Name:        "Customer Service Report",
		Description: "Service quality metrics and customer satisfaction analysis",
		Required:    [][]string{{"satisfaction", "response_time", "quality", "rating", "score", "feedback", "complaint"}},
		Optional:    []string{"date", "agent", "category", "rating", "department", "service_type"},
		Charts:      []string{"bar", "line"},
		Insights:    []string{"Track satisfaction over time", "Compare service quality across teams", "Highlight recurring complaint categories"},
		Threshold:   0.5,
	},
	{
		Key:         "inventory_management",
		Name:        "Inventory Management Report",
		Description: "Stock levels, turnover rates, and inventory optimization",
		Required:    [][]string{{"inventory", "stock", "turnover", "level", "supply", "quantity", "count", "amount"}},
		Optional:    []string{"date", "category", "location", "turnover", "supplier", "cost"},
		Charts:      []string{"bar", "line", "pie"},
		Insights:    []string{"Show current stock levels by category", "Identify slow-moving items", "Track supply over time"},
		Threshold:   0.6,
	},
	{
		Key:         "project_status",
		Name:        "Project Status Report",
		Description: "Project progress, milestones, and completion tracking",
		Required:    [][]string{{"status", "progress", "milestone", "completion", "phase", "stage", "task"}},
		Optional:    []string{"date", "project", "milestone", "completion", "manager", "budget"},
		Charts:      []string{"bar", "pie"},
		Insights:    []string{"Summarize progress across projects", "Flag delayed milestones", "Show completion by phase"},
		Threshold:   0.6,
	},
}

// ClassifyReportType scores every pattern against the profile's column names
// and types. Matches below their pattern threshold are dropped; the rest are
// ordered by confidence, ties keeping catalogue order.
func ClassifyReportType(profile *profiler.DatasetProfile) []ReportTypeMatch {
	names := make([]string, len(profile.Columns))
	for i, c := range profile.Columns {
		names[i] = strings.ToLower(c.Name)
	}

	var matches []ReportTypeMatch
	for _, p := range Patterns {
		confidence := score(p, names, profile)
		if confidence < p.Threshold {
			continue
		}
		matches = append(matches, ReportTypeMatch{
			Type:              p.Key,
			Name:              p.Name,
			Description:       p.Description,
			Confidence:        confidence,
			ConfidenceLevel:   ConfidenceLevel(confidence),
			RecommendedCharts: p.Charts,
			Insights:          p.Insights,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// ConfidenceLevel turns a score into a label
func ConfidenceLevel(c float64) string {
	switch {
	case c >= 0.9:
		return "Excellent Match"
	case c >= 0.8:
		return "Very Good Match"
	case c >= 0.7:
		return "Good Match"
	case c >= 0.6:
		return "Fair Match"
	}
	return "Weak Match"
}

// score weighs required groups 0.6, any optional hit 0.3 and type fit 0.1
func score(p ReportPattern, names []string, profile *profiler.DatasetProfile) float64 {
	var s float64

	if len(p.Required) > 0 {
		hit := 0
		for _, group := range p.Required {
			if anyContains(names, group) {
				hit++
			}
		}
		s += float64(hit) / float64(len(p.Required)) * 0.6
	}

	if anyContains(names, p.Optional) {
		s += 0.3
	}

	s += typeFit(p.Key, profile) * 0.1

	return math.Min(1, math.Round(s*100)/100)
}

func anyContains(names, keywords []string) bool {
	for _, n := range names {
		for _, k := range keywords {
			if strings.Contains(n, k) {
				return true
			}
		}
	}
	return false
}

func typeFit(key string, profile *profiler.DatasetProfile) float64 {
	switch key {
	case "trend_analysis":
		if len(profile.ColumnsOfType(profiler.TypeDate)) > 0 {
			return 1
		}
	case "budget_performance", "financial_summary":
		switch n := len(profile.ColumnsOfType(profiler.TypeNumber, profiler.TypeCurrency)); {
		case n >= 2:
			return 1
		case n == 1:
			return 0.5
		}
	case "department_comparison":
		if len(profile.ColumnsOfType(profiler.TypeString)) > 0 {
			return 1
		}
	}
	return 0
}
