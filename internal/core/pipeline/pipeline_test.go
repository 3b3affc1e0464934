package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/dataset"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/planner"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/profiler"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/render"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"
)

// fakeProvider answers every call with the same text or error
type fakeProvider struct {
	text string
	err  error
}

func (f fakeProvider) GenerateResponse(context.Context, string, string) (string, error) {
	return f.text, f.err
}

func (fakeProvider) GetProviderName() string { return "fake" }

func spendDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	var records [][]string
	for m := 1; m <= 12; m++ {
		for i, dept := range []string{"Finance", "Parks", "Roads"} {
			records = append(records, []string{fmt.Sprintf("2024-%02d-01", m), dept, fmt.Sprintf("%d", 100*(i+1)+m)})
		}
	}
	ds, err := dataset.FromRecords([]string{"date", "department", "spend"}, records)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	return ds
}

func newContext(t *testing.T, provider *fakeProvider, logs *bytes.Buffer) *RequestContext {
	t.Helper()
	var p *planner.Adapter
	if provider != nil {
		p = planner.NewAdapter(provider, planner.WithTimeout(time.Second))
	}
	rc := NewRequestContext(zerolog.New(logs), p, export.NewService(export.DefaultStyle()))
	rc.Clock = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	return rc
}

const planned = `{"title": "Planned", "sections": [{"title": "S", "items": [
  {"kpi": {"label": "Total", "source_column": "spend", "aggregation": "sum", "format": "number"}}
]}]}`

func TestRunHeuristic(t *testing.T) {
	var logs bytes.Buffer
	rc := newContext(t, nil, &logs)

	res, err := Run(context.Background(), rc, Request{
		Dataset: spendDataset(t),
		UseAI:   true,
		Formats: []export.ExportFormat{export.FormatHTML, export.FormatMarkdown, export.FormatPDF},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := res.Source.(Heuristic); !ok {
		t.Fatalf("without a planner the heuristic source is used, got %T", res.Source)
	}
	if res.Document.Metadata.Source != "heuristic" || len(res.Document.Errors) != 0 {
		t.Fatalf("document metadata = %+v, errors = %v", res.Document.Metadata, res.Document.Errors)
	}

	var formats []export.ExportFormat
	for _, a := range res.Artifacts {
		formats = append(formats, a.Format)
		if len(a.Data) == 0 {
			t.Fatalf("%s artifact is empty", a.Format)
		}
	}
	if diff := cmp.Diff([]export.ExportFormat{export.FormatHTML, export.FormatMarkdown, export.FormatPDF}, formats); diff != "" {
		t.Fatalf("artifacts (-want +got):\n%s", diff)
	}
	if res.ExportErrors != nil {
		t.Fatalf("export errors = %v", res.ExportErrors)
	}
	if !strings.Contains(logs.String(), rc.ID) {
		t.Fatalf("logs are not tagged with the request id:\n%s", logs.String())
	}
}

func TestRunAI(t *testing.T) {
	rc := newContext(t, &fakeProvider{text: planned}, &bytes.Buffer{})
	res, err := Run(context.Background(), rc, Request{Dataset: spendDataset(t), UseAI: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ai, ok := res.Source.(AI); !ok || ai.Provider != "fake" || res.Spec.Title != "Planned" {
		t.Fatalf("source = %#v", res.Source)
	}
	if got := res.Document.Sections[0].Blocks[0].KPI.Value; got != "7,434" {
		t.Fatalf("kpi = %q", got)
	}
}

func TestRunPlanningFailure(t *testing.T) {
	broken := &fakeProvider{text: `{"sections": []}`}

	t.Run("fallback", func(t *testing.T) {
		res, err := Run(context.Background(), newContext(t, broken, &bytes.Buffer{}), Request{
			Dataset: spendDataset(t), UseAI: true, FallbackOnPlanningFailure: true,
		})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if _, ok := res.Source.(Heuristic); !ok {
			t.Fatalf("source = %T", res.Source)
		}
		if res.PlanningFailure == nil || res.PlanningFailure.Kind != planner.FailureInvalidResponse {
			t.Fatalf("planning failure should stay observable: %+v", res.PlanningFailure)
		}
	})

	t.Run("no fallback", func(t *testing.T) {
		_, err := Run(context.Background(), newContext(t, broken, &bytes.Buffer{}), Request{Dataset: spendDataset(t), UseAI: true})
		if StageOf(err) != StagePlan {
			t.Fatalf("stage = %s, err = %v", StageOf(err), err)
		}
		var failure *planner.PlanningFailure
		if !errors.As(err, &failure) || failure.Attempts != 2 {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestRunSuppliedSpecRejected(t *testing.T) {
	bad := &spec.ReportSpecification{Title: "Bad", Sections: []spec.ReportSection{{Title: "S", Items: []spec.Item{
		spec.KPIItem(spec.KPIDefinition{Label: "X", SourceColumn: "missing", Aggregation: spec.AggSum, Format: spec.FormatNumber}),
	}}}}
	_, err := Run(context.Background(), newContext(t, nil, &bytes.Buffer{}), Request{Dataset: spendDataset(t), Spec: bad})

	var validationErr *spec.ValidationError
	if StageOf(err) != StageValidate || !errors.As(err, &validationErr) {
		t.Fatalf("err = %v", err)
	}
	if validationErr.Violations[0].Column != "missing" {
		t.Fatalf("violations = %+v", validationErr.Violations)
	}
}

func TestRunProfilingError(t *testing.T) {
	_, err := Run(context.Background(), newContext(t, nil, &bytes.Buffer{}), Request{Dataset: &dataset.Dataset{}})
	var profilingErr *profiler.ProfilingError
	if StageOf(err) != StageProfile || !errors.As(err, &profilingErr) {
		t.Fatalf("err = %v", err)
	}
}

func TestExportAllIsolatesFailures(t *testing.T) {
	rc := newContext(t, nil, &bytes.Buffer{})
	doc := &render.Document{Title: "T", Metadata: render.Metadata{RendererVersion: render.Version}}

	artifacts, errs := ExportAll(context.Background(), rc, doc, []export.ExportFormat{export.FormatHTML, "pptx", export.FormatDOCX})
	if len(artifacts) != 2 || artifacts[0].Format != export.FormatHTML || artifacts[1].Format != export.FormatDOCX {
		t.Fatalf("artifacts = %+v", artifacts)
	}
	if len(errs) != 1 || !errors.Is(errs["pptx"], export.ErrUnsupportedFormat) || StageOf(errs["pptx"]) != StageExport {
		t.Fatalf("errors = %v", errs)
	}
}

func TestStageOf(t *testing.T) {
	tests := []struct {
		err  error
		want Stage
	}{
		{&profiler.ProfilingError{Reason: "x"}, StageProfile},
		{fmt.Errorf("wrapped: %w", &spec.ValidationError{}), StageValidate},
		{&planner.PlanningFailure{Kind: planner.FailureInvalidResponse, Err: &spec.ValidationError{}}, StagePlan},
		{&render.RenderError{Err: errors.New("x")}, StageRender},
		{&export.ExportError{Format: export.FormatPDF, Err: errors.New("x")}, StageExport},
		{&StageError{Stage: StageRender, Err: errors.New("x")}, StageRender},
		{errors.New("x"), StageUnknown},
	}
	for _, tt := range tests {
		if got := StageOf(tt.err); got != tt.want {
			t.Fatalf("StageOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestFilename(t *testing.T) {
	a := Artifact{Extension: ".pdf"}
	for title, want := range map[string]string{
		"Budget Performance Report": "budget-performance-report.pdf",
		"  Café: Q1/Q2  ":            "cafe-q1-q2.pdf",
		"!!!":                        "report.pdf",
	} {
		if got := a.Filename(title); got != want {
			t.Fatalf("Filename(%q) = %q, want %q", title, got, want)
		}
	}
}
