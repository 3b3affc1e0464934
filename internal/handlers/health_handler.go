package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/render"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	aiProvider string
	exports    *export.Service
}

// NewHealthHandler creates a new health handler. aiProvider is empty when
// AI planning is disabled.
func NewHealthHandler(aiProvider string, exports *export.Service) *HealthHandler {
	return &HealthHandler{aiProvider: aiProvider, exports: exports}
}

// GetHealth godoc
// @Summary Health check
// @Description Check if the API is running and which features are enabled
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":           "ok",
		"service":          "govreport-api",
		"renderer_version": render.Version,
		"ai_planning":      h.aiProvider != "",
		"ai_provider":      h.aiProvider,
		"export_formats":   h.exports.Formats(),
	})
}
