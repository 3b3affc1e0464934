package pipeline

import "github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"

// SpecSource is where a report specification came from. Every source is
// validated the same way; downstream stages never branch on it.
type SpecSource interface {
	Specification() *spec.ReportSpecification
	Label() string
	specSource()
}

// AI is a candidate produced by the planning service
type AI struct {
	Candidate *spec.ReportSpecification
	Provider  string
}

func (a AI) Specification() *spec.ReportSpecification { return a.Candidate }
func (a AI) Label() string                             { return "ai:" + a.Provider }
func (AI) specSource()                                 {}

// Heuristic is a specification from the deterministic suggester
type Heuristic struct {
	Spec *spec.ReportSpecification
}

func (h Heuristic) Specification() *spec.ReportSpecification { return h.Spec }
func (Heuristic) Label() string                                { return "heuristic" }
func (Heuristic) specSource()                                  {}

// Supplied is a specification sent by the caller, typically an edited
// version of an earlier suggestion
type Supplied struct {
	Spec *spec.ReportSpecification
}

func (s Supplied) Specification() *spec.ReportSpecification { return s.Spec }
func (Supplied) Label() string                                { return "supplied" }
func (Supplied) specSource()                                  {}
