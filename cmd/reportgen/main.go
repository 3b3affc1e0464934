// Command reportgen renders a report from a CSV or XLSX file without the
// HTTP server.
//
//	reportgen -in spend.csv -formats pdf,html -out ./reports
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/config"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/dataset"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/llm"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/pipeline"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/planner"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/shared/utils"
)

type options struct {
	in       string
	out      string
	specPath string
	saveSpec string
	intent   string
	formats  string
	useAI    bool
	strict   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.in, "in", "", "dataset file (CSV or XLSX)")
	flag.StringVar(&opts.out, "out", ".", "output directory")
	flag.StringVar(&opts.specPath, "spec", "", "report specification JSON to use instead of planning")
	flag.StringVar(&opts.saveSpec, "save-spec", "", "write the specification that was used to this file")
	flag.StringVar(&opts.intent, "intent", "", "what the report should show (AI planning only)")
	flag.StringVar(&opts.formats, "formats", "pdf,docx,html", "comma separated export formats")
	flag.BoolVar(&opts.useAI, "ai", false, "plan the report with the configured AI provider")
	flag.BoolVar(&opts.strict, "strict", false, "fail instead of falling back when AI planning fails")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "reportgen: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	if opts.in == "" {
		return errors.New("-in is required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := utils.NewLogger(os.Stderr, true).Level(zerolog.InfoLevel)

	formats, err := parseFormats(opts.formats)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(opts.in)
	if err != nil {
		return err
	}
	ds, err := dataset.Load(data, opts.in)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.in, err)
	}

	req := pipeline.Request{
		Dataset:                   ds,
		Intent:                    opts.intent,
		UseAI:                     opts.useAI,
		FallbackOnPlanningFailure: !opts.strict,
		Formats:                   formats,
	}
	if opts.specPath != "" {
		raw, err := os.ReadFile(opts.specPath)
		if err != nil {
			return err
		}
		if req.Spec, err = spec.Unmarshal(raw); err != nil {
			return fmt.Errorf("%s: %w", opts.specPath, err)
		}
	}

	var adapter *planner.Adapter
	if opts.useAI {
		if !cfg.AIEnabled() {
			return errors.New("-ai needs LLM_API_KEY or OPENAI_API_KEY")
		}
		provider, err := llm.NewProvider(cfg.ProviderConfig())
		if err != nil {
			return err
		}
		adapter = planner.NewAdapter(provider, planner.WithTimeout(cfg.PlannerTimeout), planner.WithLogger(logger))
	}

	rc := pipeline.NewRequestContext(logger, adapter, export.NewService(cfg.ExportStyle()))
	res, err := pipeline.Run(ctx, rc, req)
	if err != nil {
		var invalid *spec.ValidationError
		if errors.As(err, &invalid) {
			for _, v := range invalid.Violations {
				fmt.Fprintf(os.Stderr, "  %s\n", v)
			}
		}
		return fmt.Errorf("%s stage failed: %w", pipeline.StageOf(err), err)
	}

	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return err
	}
	for _, a := range res.Artifacts {
		path := filepath.Join(opts.out, a.Filename(res.Document.Title))
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			return err
		}
		fmt.Println(path)
	}
	if opts.saveSpec != "" {
		raw, err := spec.MarshalIndent(res.Spec)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.saveSpec, raw, 0o644); err != nil {
			return err
		}
	}

	var errs []error
	for format, exportErr := range res.ExportErrors {
		errs = append(errs, fmt.Errorf("%s: %w", format, exportErr))
	}
	return errors.Join(errs...)
}

func parseFormats(list string) ([]export.ExportFormat, error) {
	var formats []export.ExportFormat
	seen := make(map[export.ExportFormat]bool)
	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		f, err := export.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		return nil, errors.New("no export formats given")
	}
	return formats, nil
}
