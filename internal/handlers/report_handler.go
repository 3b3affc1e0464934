package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/dataset"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/pipeline"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/planner"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/suggest"
)

// ReportHandler serves the report pipeline over HTTP. Every request gets
// its own pipeline.RequestContext; nothing is kept between requests.
type ReportHandler struct {
	planner   *planner.Adapter
	exports   *export.Service
	logger    zerolog.Logger
	maxUpload int
}

// NewReportHandler creates a report handler. planner may be nil, which
// disables AI planning.
func NewReportHandler(p *planner.Adapter, exports *export.Service, logger zerolog.Logger, maxUploadBytes int) *ReportHandler {
	return &ReportHandler{
		planner:   p,
		exports:   exports,
		logger:    logger,
		maxUpload: maxUploadBytes,
	}
}

// RegisterRoutes mounts the report endpoints on r
func (h *ReportHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/analyze", h.Analyze)
	r.Post("/suggest", h.Suggest)
	r.Post("/plan", h.Plan)
	r.Post("/render", h.Render)
}

// renderBudget bounds everything after planning: profile, render, export
const renderBudget = 30 * time.Second

// requestContext bounds one pipeline run. fasthttp never cancels the user
// context when a client disconnects, so this deadline is what ends
// abandoned work.
func (h *ReportHandler) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	budget := renderBudget
	if h.planner != nil {
		budget += h.planner.Budget()
	}
	return context.WithTimeout(c.UserContext(), budget)
}

func (h *ReportHandler) newRequest() *pipeline.RequestContext {
	return pipeline.NewRequestContext(h.logger, h.planner, h.exports)
}

// readDataset parses the uploaded "file" field
func (h *ReportHandler) readDataset(c *fiber.Ctx) (*dataset.Dataset, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, badRequest("file is required")
	}
	if h.maxUpload > 0 && file.Size > int64(h.maxUpload) {
		return nil, &requestError{
			status:  fiber.StatusRequestEntityTooLarge,
			message: fmt.Sprintf("file size must be at most %d bytes", h.maxUpload),
		}
	}

	fileHandle, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer fileHandle.Close()

	data, err := io.ReadAll(fileHandle)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return dataset.Load(data, file.Filename)
}

// formBool reads an optional boolean form field
func formBool(c *fiber.Ctx, key string, def bool) (bool, error) {
	v := strings.TrimSpace(c.FormValue(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, badRequest(fmt.Sprintf("%s must be true or false", key))
	}
	return b, nil
}

// Analyze godoc
// @Summary Profile a dataset
// @Description Upload a CSV or XLSX file and get per-column types, statistics, data quality and likely report types
// @Tags Reports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX dataset"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/analyze [post]
func (h *ReportHandler) Analyze(c *fiber.Ctx) error {
	ds, err := h.readDataset(c)
	if err != nil {
		return respondError(c, err)
	}
	rc := h.newRequest()
	profile, err := rc.Profile(ds)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"request_id":   rc.ID,
		"profile":      profile,
		"completeness": profile.Completeness(),
		"quality":      profile.Quality(),
		"report_types": suggest.ClassifyReportType(profile),
	})
}

// Suggest godoc
// @Summary Suggest a report specification
// @Description Deterministic report specification derived from the dataset profile
// @Tags Reports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX dataset"
// @Success 200 {object} map[string]interface{}
// @Router /api/suggest [post]
func (h *ReportHandler) Suggest(c *fiber.Ctx) error {
	ds, err := h.readDataset(c)
	if err != nil {
		return respondError(c, err)
	}
	rc := h.newRequest()
	profile, err := rc.Profile(ds)
	if err != nil {
		return respondError(c, err)
	}

	source := pipeline.Heuristic{Spec: suggest.Suggest(profile)}
	accepted, err := rc.Validate(source, profile)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"request_id": rc.ID,
		"source":     source.Label(),
		"spec":       accepted,
	})
}

// Plan godoc
// @Summary Plan a report specification with AI
// @Description Ask the configured planning service for a specification; optionally fall back to the heuristic suggestion
// @Tags Reports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX dataset"
// @Param intent formData string false "What the report should show"
// @Param fallback formData bool false "Use the heuristic suggestion when planning fails"
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Failure 503 {object} map[string]string
// @Router /api/plan [post]
func (h *ReportHandler) Plan(c *fiber.Ctx) error {
	if h.planner == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "AI planning is not configured",
		})
	}
	ds, err := h.readDataset(c)
	if err != nil {
		return respondError(c, err)
	}
	fallback, err := formBool(c, "fallback", false)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	rc := h.newRequest()
	profile, err := rc.Profile(ds)
	if err != nil {
		return respondError(c, err)
	}
	source, failure, err := rc.Source(ctx, profile, pipeline.Request{
		Dataset:                   ds,
		Intent:                    c.FormValue("intent"),
		UseAI:                     true,
		FallbackOnPlanningFailure: fallback,
	})
	if err != nil {
		return respondError(c, err)
	}
	accepted, err := rc.Validate(source, profile)
	if err != nil {
		return respondError(c, err)
	}

	body := fiber.Map{
		"request_id": rc.ID,
		"source":     source.Label(),
		"spec":       accepted,
	}
	if failure != nil {
		body["planning_failure"] = failure
	}
	return c.JSON(body)
}

// Render godoc
// @Summary Render a report
// @Description Render the dataset with a supplied, AI-planned or suggested specification. Without a format the rendered document is returned as JSON.
// @Tags Reports
// @Accept multipart/form-data
// @Produce json,application/pdf,text/html
// @Param format query string false "pdf, docx, html, xlsx or md"
// @Param file formData file true "CSV or XLSX dataset"
// @Param spec formData string false "Report specification JSON"
// @Param intent formData string false "What the report should show"
// @Param use_ai formData bool false "Plan with AI when no spec is supplied"
// @Param fallback formData bool false "Use the heuristic suggestion when planning fails (default true)"
// @Success 200 {file} binary
// @Failure 422 {object} map[string]interface{}
// @Router /api/render [post]
func (h *ReportHandler) Render(c *fiber.Ctx) error {
	var format export.ExportFormat
	if q := c.Query("format"); q != "" && q != "json" {
		f, err := export.ParseFormat(q)
		if err != nil {
			return respondError(c, badRequest(err.Error()))
		}
		format = f
	}

	ds, err := h.readDataset(c)
	if err != nil {
		return respondError(c, err)
	}
	req := pipeline.Request{Dataset: ds, Intent: c.FormValue("intent")}
	if raw := c.FormValue("spec"); raw != "" {
		if req.Spec, err = spec.Unmarshal([]byte(raw)); err != nil {
			return respondError(c, badRequest("spec is not a valid report specification: "+err.Error()))
		}
	}
	if req.UseAI, err = formBool(c, "use_ai", false); err != nil {
		return respondError(c, err)
	}
	if req.FallbackOnPlanningFailure, err = formBool(c, "fallback", true); err != nil {
		return respondError(c, err)
	}
	if format != "" {
		req.Formats = []export.ExportFormat{format}
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	rc := h.newRequest()
	res, err := pipeline.Run(ctx, rc, req)
	if err != nil {
		return respondError(c, err)
	}

	if format == "" {
		return h.renderJSON(c, res)
	}
	if exportErr := res.ExportErrors[format]; exportErr != nil {
		return respondError(c, exportErr)
	}

	artifact := res.Artifacts[0]
	c.Set(fiber.HeaderContentType, artifact.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", artifact.Filename(res.Document.Title)))
	c.Set("X-Request-ID", res.RequestID)
	c.Set("X-Report-Source", res.Source.Label())
	if res.PlanningFailure != nil {
		c.Set("X-Planning-Failure", string(res.PlanningFailure.Kind))
	}
	return c.Send(artifact.Data)
}

func (h *ReportHandler) renderJSON(c *fiber.Ctx, res *pipeline.Result) error {
	content, err := res.Document.Content()
	if err != nil {
		return respondError(c, &pipeline.StageError{Stage: pipeline.StageRender, Err: err})
	}

	unavailable := make([]string, 0, len(res.Document.Errors))
	for _, rerr := range res.Document.Errors {
		unavailable = append(unavailable, rerr.Error())
	}

	body := fiber.Map{
		"request_id":  res.RequestID,
		"source":      res.Source.Label(),
		"spec":        res.Spec,
		"document":    json.RawMessage(content),
		"metadata":    res.Document.Metadata,
		"unavailable": unavailable,
	}
	if res.PlanningFailure != nil {
		body["planning_failure"] = res.PlanningFailure
	}
	return c.JSON(body)
}
