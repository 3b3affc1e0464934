package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/planner"
)

const spendCSV = `date,department,spend
2024-01-01,Finance,"$1,200"
2024-02-01,Parks,$900
2024-03-01,Finance,"$1,050"
2024-04-01,Roads,"$2,284"
`

const plannedSpec = `{
  "title": "Spend Review",
  "sections": [
    {"title": "Overview", "items": [
      {"kpi": {"label": "Total", "source_column": "spend", "aggregation": "sum", "format": "currency"}},
      {"chart": {"chart_type": "bar", "x_column": "department", "y_columns": ["spend"], "title": "By department"}}
    ]}
  ]
}`

type fakeProvider struct {
	responses []string
	calls     int
}

func (p *fakeProvider) GetProviderName() string { return "fake" }

func (p *fakeProvider) GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	i := p.calls
	p.calls++
	if i >= len(p.responses) {
		return "", fmt.Errorf("unexpected call %d", i+1)
	}
	return p.responses[i], nil
}

func newApp(p *planner.Adapter, maxUpload int) *fiber.App {
	exports := export.NewService(export.DefaultStyle())
	app := fiber.New()
	app.Get("/health", NewHealthHandler("", exports).GetHealth)
	NewReportHandler(p, exports, zerolog.Nop(), maxUpload).RegisterRoutes(app.Group("/api"))
	return app
}

// upload builds a multipart request with a "file" part and extra fields
func upload(t *testing.T, target, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		part.Write(content)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func decode(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, data)
	}
	return out
}

func TestHealth(t *testing.T) {
	resp, data := do(t, newApp(nil, 0), httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode(t, data)
	if body["status"] != "ok" || body["ai_planning"] != false {
		t.Fatalf("body = %v", body)
	}
	if formats, _ := body["export_formats"].([]interface{}); len(formats) != 5 {
		t.Fatalf("export_formats = %v", body["export_formats"])
	}
}

func TestAnalyze(t *testing.T) {
	resp, data := do(t, newApp(nil, 0), upload(t, "/api/analyze", "spend.csv", []byte(spendCSV), nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	body := decode(t, data)
	profile, _ := body["profile"].(map[string]interface{})
	if profile["row_count"] != float64(4) {
		t.Fatalf("profile = %v", profile)
	}
	if body["completeness"] != float64(1) || body["request_id"] == "" {
		t.Fatalf("body = %v", body)
	}
	if _, ok := body["report_types"]; !ok {
		t.Fatalf("report_types missing: %v", body)
	}
}

func TestSuggest(t *testing.T) {
	resp, data := do(t, newApp(nil, 0), upload(t, "/api/suggest", "spend.csv", []byte(spendCSV), nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	body := decode(t, data)
	s, _ := body["spec"].(map[string]interface{})
	if body["source"] != "heuristic" || s["title"] == "" {
		t.Fatalf("body = %v", body)
	}
}

func TestUploadErrors(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	tests := []struct {
		name      string
		filename  string
		content   []byte
		maxUpload int
		want      int
	}{
		{"missing file", "", nil, 0, fiber.StatusBadRequest},
		{"too large", "spend.csv", []byte(spendCSV), 16, fiber.StatusRequestEntityTooLarge},
		{"not tabular", "logo.png", png, 0, fiber.StatusUnsupportedMediaType},
		{"duplicate header", "dup.csv", []byte("a,a\n1,2\n"), 0, fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, newApp(nil, tt.maxUpload), upload(t, "/api/analyze", tt.filename, tt.content, nil))
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.want, data)
			}
			if decode(t, data)["error"] == "" {
				t.Fatalf("error message missing")
			}
		})
	}
}

func TestRenderHTML(t *testing.T) {
	resp, data := do(t, newApp(nil, 0), upload(t, "/api/render?format=html", "spend.csv", []byte(spendCSV), nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	if ct := resp.Header.Get(fiber.HeaderContentType); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
	if cd := resp.Header.Get(fiber.HeaderContentDisposition); !strings.Contains(cd, ".html") {
		t.Fatalf("content disposition = %q", cd)
	}
	if resp.Header.Get("X-Report-Source") != "heuristic" || resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("headers = %v", resp.Header)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Fatalf("expected inline charts in the HTML report")
	}
}

func TestRenderJSONWithSuppliedSpec(t *testing.T) {
	resp, data := do(t, newApp(nil, 0), upload(t, "/api/render", "spend.csv", []byte(spendCSV), map[string]string{"spec": plannedSpec}))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	body := decode(t, data)
	doc, _ := body["document"].(map[string]interface{})
	if body["source"] != "supplied" || doc["title"] != "Spend Review" {
		t.Fatalf("body = %v", body)
	}
	if _, ok := doc["metadata"]; ok {
		t.Fatalf("document content must not carry metadata")
	}
	sections, _ := doc["sections"].([]interface{})
	blocks, _ := sections[0].(map[string]interface{})["blocks"].([]interface{})
	kpi, _ := blocks[0].(map[string]interface{})["kpi"].(map[string]interface{})
	if kpi["value"] != "$5,434.00" {
		t.Fatalf("kpi = %v", kpi)
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	missing := strings.Replace(plannedSpec, `"x_column": "department"`, `"x_column": "agency"`, 1)
	tests := []struct {
		name   string
		target string
		fields map[string]string
		want   int
	}{
		{"unknown format", "/api/render?format=pptx", nil, fiber.StatusBadRequest},
		{"malformed spec", "/api/render", map[string]string{"spec": "{"}, fiber.StatusBadRequest},
		{"bad flag", "/api/render", map[string]string{"use_ai": "maybe"}, fiber.StatusBadRequest},
		{"unknown column", "/api/render", map[string]string{"spec": missing}, fiber.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, newApp(nil, 0), upload(t, tt.target, "spend.csv", []byte(spendCSV), tt.fields))
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.want, data)
			}
		})
	}

	_, data := do(t, newApp(nil, 0), upload(t, "/api/render", "spend.csv", []byte(spendCSV), map[string]string{"spec": missing}))
	body := decode(t, data)
	violations, _ := body["violations"].([]interface{})
	if body["stage"] != "validate" || len(violations) == 0 {
		t.Fatalf("body = %v", body)
	}
	if v := violations[0].(map[string]interface{}); v["column"] != "agency" || v["check"] != "column_reference" {
		t.Fatalf("violation = %v", v)
	}
}

func TestPlan(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		resp, _ := do(t, newApp(nil, 0), upload(t, "/api/plan", "spend.csv", []byte(spendCSV), nil))
		if resp.StatusCode != fiber.StatusServiceUnavailable {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	})

	t.Run("accepted", func(t *testing.T) {
		p := planner.NewAdapter(&fakeProvider{responses: []string{plannedSpec}})
		resp, data := do(t, newApp(p, 0), upload(t, "/api/plan", "spend.csv", []byte(spendCSV), map[string]string{"intent": "spend by department"}))
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, data)
		}
		body := decode(t, data)
		if body["source"] != "ai:fake" || body["planning_failure"] != nil {
			t.Fatalf("body = %v", body)
		}
	})

	t.Run("failure without fallback", func(t *testing.T) {
		p := planner.NewAdapter(&fakeProvider{responses: []string{"nope", "still nope"}})
		resp, data := do(t, newApp(p, 0), upload(t, "/api/plan", "spend.csv", []byte(spendCSV), nil))
		if resp.StatusCode != fiber.StatusBadGateway {
			t.Fatalf("status = %d: %s", resp.StatusCode, data)
		}
		failure, _ := decode(t, data)["planning_failure"].(map[string]interface{})
		if failure["kind"] != "invalid_response" || failure["attempts"] != float64(2) {
			t.Fatalf("failure = %v", failure)
		}
	})

	t.Run("failure with fallback", func(t *testing.T) {
		p := planner.NewAdapter(&fakeProvider{responses: []string{"nope", "still nope"}})
		resp, data := do(t, newApp(p, 0), upload(t, "/api/plan", "spend.csv", []byte(spendCSV), map[string]string{"fallback": "true"}))
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, data)
		}
		body := decode(t, data)
		if body["source"] != "heuristic" || body["planning_failure"] == nil {
			t.Fatalf("body = %v", body)
		}
	})
}

func TestRequestContextHasDeadline(t *testing.T) {
	tests := []struct {
		name string
		p    *planner.Adapter
		want time.Duration
	}{
		{"heuristic only", nil, renderBudget},
		{"with planner", planner.NewAdapter(&fakeProvider{}, planner.WithTimeout(5*time.Second)), renderBudget + 10*time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewReportHandler(tt.p, export.NewService(export.DefaultStyle()), zerolog.Nop(), 0)
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				ctx, cancel := h.requestContext(c)
				defer cancel()
				deadline, ok := ctx.Deadline()
				if !ok {
					return c.SendStatus(fiber.StatusInternalServerError)
				}
				if left := time.Until(deadline); left > tt.want || left < tt.want-5*time.Second {
					return c.Status(fiber.StatusInternalServerError).SendString(left.String())
				}
				return c.SendStatus(fiber.StatusNoContent)
			})
			resp, data := do(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
			if resp.StatusCode != fiber.StatusNoContent {
				t.Fatalf("status = %d: %s", resp.StatusCode, data)
			}
		})
	}
}
