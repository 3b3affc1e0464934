package pipeline

import (
	"errors"
	"fmt"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/planner"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/profiler"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/render"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"
)

// Stage names a step of the pipeline
type Stage string

const (
	StageProfile  Stage = "profile"
	StagePlan     Stage = "plan"
	StageValidate Stage = "validate"
	StageRender   Stage = "render"
	StageExport   Stage = "export"
	StageUnknown  Stage = "unknown"
)

// StageError tags an error with the stage that produced it
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf attributes err to a pipeline stage
func StageOf(err error) Stage {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}

	var (
		profilingErr  *profiler.ProfilingError
		validationErr *spec.ValidationError
		planningErr   *planner.PlanningFailure
		renderErr     *render.RenderError
		exportErr     *export.ExportError
	)
	// a rejected planning response wraps a ValidationError, so planning
	// is checked first
	switch {
	case errors.As(err, &profilingErr):
		return StageProfile
	case errors.As(err, &planningErr):
		return StagePlan
	case errors.As(err, &validationErr):
		return StageValidate
	case errors.As(err, &renderErr):
		return StageRender
	case errors.As(err, &exportErr):
		return StageExport
	}
	return StageUnknown
}
