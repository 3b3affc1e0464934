package planner

import (
	"fmt"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"
)

// FailureKind classifies a planning failure
type FailureKind string

const (
	FailureTimeout         FailureKind = "timeout"
	FailureTransport       FailureKind = "transport_error"
	FailureInvalidResponse FailureKind = "invalid_response"
	// FailureCancelled means the caller's request ended before an answer
	FailureCancelled FailureKind = "cancelled"
)

// PlanningFailure is the only error Plan returns. Violations is set when the
// service answered with a spec the validator rejected.
type PlanningFailure struct {
	Kind       FailureKind      `json:"kind"`
	Attempts   int              `json:"attempts"`
	Provider   string           `json:"provider,omitempty"`
	Violations []spec.Violation `json:"violations,omitempty"`
	Err        error            `json:"-"`
}

func (f *PlanningFailure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("planning failed (%s) after %d attempt(s)", f.Kind, f.Attempts)
	}
	return fmt.Sprintf("planning failed (%s) after %d attempt(s): %v", f.Kind, f.Attempts, f.Err)
}

func (f *PlanningFailure) Unwrap() error {
	return f.Err
}

// Retryable reports whether another attempt may succeed
func (f *PlanningFailure) Retryable() bool {
	return f.Kind != FailureCancelled
}
