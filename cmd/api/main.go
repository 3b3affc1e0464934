package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/config"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/llm"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/planner"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/handlers"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/shared/utils"

	_ "github.com/MuhamadAgungGumelar/govreport-ai-be/cmd/api/docs"
)

// multipart envelope on top of the file itself
const uploadOverhead = 1 << 20

// @title GovReport API
// @version 1.0
// @description Turns uploaded tabular data into validated, rendered reports (PDF, DOCX, HTML, XLSX, Markdown)
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := utils.InitLogger(cfg.IsDevelopment())
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Init planning adapter (optional)
	var adapter *planner.Adapter
	aiProvider := ""
	if cfg.AIEnabled() {
		provider, err := llm.NewProvider(cfg.ProviderConfig())
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize planning provider")
		}
		adapter = planner.NewAdapter(provider,
			planner.WithTimeout(cfg.PlannerTimeout),
			planner.WithLogger(logger),
		)
		aiProvider = adapter.ProviderName()
	}

	exports := export.NewService(cfg.ExportStyle())

	utils.LogInfo("starting govreport api", map[string]interface{}{
		"port":           cfg.Port,
		"env":            cfg.Env,
		"ai_provider":    aiProvider,
		"planner_budget": cfg.PlannerTimeout.String(),
		"max_upload_mb":  cfg.MaxUploadSizeMB,
	})
	if adapter == nil {
		utils.LogWarn("AI planning disabled, set LLM_API_KEY or OPENAI_API_KEY to enable it", nil)
	}

	// Init handlers
	healthHandler := handlers.NewHealthHandler(aiProvider, exports)
	reportHandler := handlers.NewReportHandler(adapter, exports, logger, cfg.MaxUploadBytes())

	// Init Fiber app
	app := fiber.New(fiber.Config{
		AppName:   "GovReport API",
		BodyLimit: cfg.MaxUploadBytes() + uploadOverhead,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New())

	// Swagger
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Health check
	app.Get("/health", healthHandler.GetHealth)

	// Report routes
	reportHandler.RegisterRoutes(app.Group("/api"))

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
