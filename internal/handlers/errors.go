package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/dataset"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/pipeline"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/planner"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/shared/utils"
)

// requestError is a client mistake detected before the pipeline runs
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(msg string) error {
	return &requestError{status: fiber.StatusBadRequest, message: msg}
}

// statusFor maps a failure to an HTTP status
func statusFor(err error) int {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return reqErr.status
	}
	switch {
	case errors.Is(err, dataset.ErrUnsupportedFormat):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, dataset.ErrNoColumns), errors.Is(err, dataset.ErrDuplicateColumn):
		return fiber.StatusBadRequest
	}

	switch pipeline.StageOf(err) {
	case pipeline.StageProfile, pipeline.StageValidate:
		return fiber.StatusUnprocessableEntity
	case pipeline.StagePlan:
		var failure *planner.PlanningFailure
		if errors.As(err, &failure) {
			switch failure.Kind {
			case planner.FailureTimeout:
				return fiber.StatusGatewayTimeout
			case planner.FailureCancelled:
				return fiber.StatusRequestTimeout
			}
		}
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// respondError writes the JSON error body. Validation violations and
// planning failures are included so callers can fix their input.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	body := fiber.Map{"error": err.Error()}

	if status >= fiber.StatusInternalServerError {
		utils.LogError("report request failed", err, map[string]interface{}{
			"path":   c.Path(),
			"status": status,
		})
	}

	if _, ok := err.(*requestError); !ok && status != fiber.StatusUnsupportedMediaType {
		body["stage"] = pipeline.StageOf(err)
	}

	var failure *planner.PlanningFailure
	var invalid *spec.ValidationError
	switch {
	case errors.As(err, &failure):
		body["planning_failure"] = failure
	case errors.As(err, &invalid):
		body["violations"] = invalid.Violations
	}
	return c.Status(status).JSON(body)
}
