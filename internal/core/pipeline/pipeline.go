package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/dataset"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/planner"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/profiler"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/render"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/suggest"
)

// maxConcurrentExports bounds the writers running for one request
const maxConcurrentExports = 4

// RequestContext carries everything one request needs. Nothing in it is
// shared with other requests except the read-only planner and exporters.
type RequestContext struct {
	ID      string
	Logger  zerolog.Logger
	Planner *planner.Adapter // nil disables AI planning
	Exports *export.Service
	Clock   func() time.Time
}

// NewRequestContext assigns a request ID and tags the logger with it
func NewRequestContext(logger zerolog.Logger, p *planner.Adapter, exports *export.Service) *RequestContext {
	id := uuid.NewString()
	return &RequestContext{
		ID:      id,
		Logger:  logger.With().Str("request_id", id).Logger(),
		Planner: p,
		Exports: exports,
		Clock:   time.Now,
	}
}

// Request is one report to produce
type Request struct {
	Dataset *dataset.Dataset
	Intent  string

	// Spec, when set, is used instead of planning or suggesting
	Spec *spec.ReportSpecification

	// UseAI asks the planning service first. On a PlanningFailure the
	// heuristic suggester is used only if FallbackOnPlanningFailure is set.
	UseAI                     bool
	FallbackOnPlanningFailure bool

	Formats []export.ExportFormat
}

// Artifact is one exported file
type Artifact struct {
	Format      export.ExportFormat
	ContentType string
	Extension   string
	Data        []byte
}

// Result is everything a request produced. PlanningFailure is set when the
// planning service failed and the heuristic fallback was used.
type Result struct {
	RequestID       string
	Profile         *profiler.DatasetProfile
	Source          SpecSource
	Spec            *spec.ReportSpecification
	PlanningFailure *planner.PlanningFailure
	Document        *render.Document
	Artifacts       []Artifact
	ExportErrors    map[export.ExportFormat]error
}

// Profile runs the type profiler
func (rc *RequestContext) Profile(ds *dataset.Dataset) (*profiler.DatasetProfile, error) {
	started := time.Now()
	profile, err := profiler.Profile(ds)
	if err != nil {
		return nil, &StageError{Stage: StageProfile, Err: err}
	}
	rc.Logger.Debug().
		Int("rows", profile.RowCount).
		Int("columns", len(profile.Columns)).
		Dur("elapsed", time.Since(started)).
		Msg("dataset profiled")
	return profile, nil
}

// Source picks the specification source for a request. The returned
// PlanningFailure is non-nil when planning failed and the fallback ran.
func (rc *RequestContext) Source(ctx context.Context, profile *profiler.DatasetProfile, req Request) (SpecSource, *planner.PlanningFailure, error) {
	if req.Spec != nil {
		return Supplied{Spec: req.Spec}, nil, nil
	}
	if !req.UseAI || rc.Planner == nil {
		return Heuristic{Spec: suggest.Suggest(profile)}, nil, nil
	}

	candidate, err := rc.Planner.Plan(ctx, profile, req.Intent)
	if err == nil {
		return AI{Candidate: candidate, Provider: rc.Planner.ProviderName()}, nil, nil
	}

	var failure *planner.PlanningFailure
	if !errors.As(err, &failure) || !req.FallbackOnPlanningFailure || failure.Kind == planner.FailureCancelled {
		return nil, nil, &StageError{Stage: StagePlan, Err: err}
	}
	rc.Logger.Warn().
		Err(err).
		Str("kind", string(failure.Kind)).
		Msg("planning failed, using heuristic suggestion")
	return Heuristic{Spec: suggest.Suggest(profile)}, failure, nil
}

// Validate checks a source's specification against the profile
func (rc *RequestContext) Validate(source SpecSource, profile *profiler.DatasetProfile) (*spec.ReportSpecification, error) {
	result := spec.Validate(source.Specification(), profile)
	if !result.Accepted() {
		rc.Logger.Info().
			Str("source", source.Label()).
			Int("violations", len(result.Violations)).
			Msg("specification rejected")
		return nil, &StageError{Stage: StageValidate, Err: result.Err()}
	}
	return result.Spec(), nil
}

// Render builds the document. Items that fail render as placeholders and
// are logged, never dropped.
func (rc *RequestContext) Render(s *spec.ReportSpecification, ds *dataset.Dataset, profile *profiler.DatasetProfile, source SpecSource) *render.Document {
	doc := render.Render(s, ds, profile, render.WithClock(rc.Clock), render.WithSource(source.Label()))
	for _, rerr := range doc.Errors {
		rc.Logger.Warn().Err(rerr).Msg("report item unavailable")
	}
	return doc
}

// Run takes a dataset through every stage. Export failures are per format
// and reported in Result.ExportErrors; every other failure aborts and is a
// *StageError.
func Run(ctx context.Context, rc *RequestContext, req Request) (*Result, error) {
	if req.Dataset == nil {
		return nil, &StageError{Stage: StageProfile, Err: &profiler.ProfilingError{Reason: "no dataset"}}
	}
	res := &Result{RequestID: rc.ID}

	var err error
	if res.Profile, err = rc.Profile(req.Dataset); err != nil {
		return nil, err
	}
	if res.Source, res.PlanningFailure, err = rc.Source(ctx, res.Profile, req); err != nil {
		return nil, err
	}
	if res.Spec, err = rc.Validate(res.Source, res.Profile); err != nil {
		return nil, err
	}
	res.Document = rc.Render(res.Spec, req.Dataset, res.Profile, res.Source)

	if len(req.Formats) > 0 {
		res.Artifacts, res.ExportErrors = ExportAll(ctx, rc, res.Document, req.Formats)
	}

	rc.Logger.Info().
		Str("source", res.Source.Label()).
		Int("sections", len(res.Document.Sections)).
		Int("unavailable", len(res.Document.Errors)).
		Int("artifacts", len(res.Artifacts)).
		Int("export_errors", len(res.ExportErrors)).
		Msg("report generated")
	return res, nil
}

// ExportAll writes doc in every format concurrently. A failing format does
// not affect the others; its error is keyed by format. Artifacts keep the
// order of formats.
func ExportAll(ctx context.Context, rc *RequestContext, doc *render.Document, formats []export.ExportFormat) ([]Artifact, map[export.ExportFormat]error) {
	artifacts := make([]*Artifact, len(formats))
	errs := make([]error, len(formats))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentExports)
	for i, format := range formats {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = &StageError{Stage: StageExport, Err: err}
				return nil
			}
			data, contentType, err := rc.Exports.Export(doc, format)
			if err != nil {
				errs[i] = &StageError{Stage: StageExport, Err: err}
				return nil
			}
			artifacts[i] = &Artifact{
				Format:      format,
				ContentType: contentType,
				Extension:   rc.Exports.GetFileExtension(format),
				Data:        data,
			}
			return nil
		})
	}
	g.Wait()

	var out []Artifact
	failed := make(map[export.ExportFormat]error)
	for i, format := range formats {
		if errs[i] != nil {
			failed[format] = errs[i]
			rc.Logger.Error().Err(errs[i]).Str("format", string(format)).Msg("export failed")
			continue
		}
		out = append(out, *artifacts[i])
	}
	if len(failed) == 0 {
		failed = nil
	}
	return out, failed
}

// Filename suggests a download name for an artifact
func (a Artifact) Filename(title string) string {
	return fmt.Sprintf("%s%s", slug(title), a.Extension)
}
