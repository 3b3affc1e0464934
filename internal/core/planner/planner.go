package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/llm"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/profiler"
	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"
)

const (
	// DefaultTimeout bounds each call to the planning service
	DefaultTimeout = 15 * time.Second

	maxAttempts = 2
)

// Adapter asks an external model for a report specification. It never
// falls back to heuristics on its own; callers decide what to do with a
// PlanningFailure.
type Adapter struct {
	provider llm.LLMProvider
	timeout  time.Duration
	logger   zerolog.Logger
}

// Option configures an Adapter
type Option func(*Adapter)

// WithTimeout sets the per-attempt deadline
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger attaches a request-scoped logger
func WithLogger(l zerolog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// NewAdapter wraps a provider
func NewAdapter(provider llm.LLMProvider, opts ...Option) *Adapter {
	a := &Adapter{
		provider: provider,
		timeout:  DefaultTimeout,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Budget is the longest Plan can take: every attempt running to its timeout
func (a *Adapter) Budget() time.Duration {
	return time.Duration(maxAttempts) * a.timeout
}

// ProviderName names the underlying model service
func (a *Adapter) ProviderName() string {
	return a.provider.GetProviderName()
}

// Plan returns a validator-accepted specification or a *PlanningFailure.
// A transient failure is retried once; a cancelled ctx abandons the
// pending call and discards whatever it later returns.
func (a *Adapter) Plan(ctx context.Context, profile *profiler.DatasetProfile, intent string) (*spec.ReportSpecification, error) {
	userMessage, err := BuildUserMessage(NewRequest(profile, intent))
	if err != nil {
		return nil, &PlanningFailure{Kind: FailureTransport, Provider: a.ProviderName(), Err: err}
	}
	systemPrompt := BuildSystemPrompt()

	var failure *PlanningFailure
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		started := time.Now()
		var s *spec.ReportSpecification
		s, failure = a.attempt(ctx, profile, systemPrompt, userMessage)
		if failure == nil {
			a.logger.Info().
				Str("provider", a.ProviderName()).
				Int("attempt", attempt).
				Dur("elapsed", time.Since(started)).
				Int("sections", len(s.Sections)).
				Msg("planning service returned an accepted specification")
			return s, nil
		}

		failure.Attempts = attempt
		failure.Provider = a.ProviderName()
		a.logger.Warn().
			Err(failure.Err).
			Str("provider", failure.Provider).
			Str("kind", string(failure.Kind)).
			Int("attempt", attempt).
			Int("violations", len(failure.Violations)).
			Msg("planning attempt failed")

		if !a.shouldRetry(failure) {
			break
		}
	}

	return nil, failure
}

func (a *Adapter) shouldRetry(f *PlanningFailure) bool {
	switch f.Kind {
	case FailureTimeout, FailureInvalidResponse:
		return true
	case FailureTransport:
		return llm.IsRetryable(f.Err)
	}
	return false
}

type callResult struct {
	text string
	err  error
}

func (a *Adapter) attempt(ctx context.Context, profile *profiler.DatasetProfile, systemPrompt, userMessage string) (*spec.ReportSpecification, *PlanningFailure) {
	if err := ctx.Err(); err != nil {
		return nil, &PlanningFailure{Kind: FailureCancelled, Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	// buffered so the goroutine can always deliver and exit, even when
	// nobody is listening any more
	results := make(chan callResult, 1)
	go func() {
		text, err := a.provider.GenerateResponse(callCtx, systemPrompt, userMessage)
		results <- callResult{text: text, err: err}
	}()

	var res callResult
	select {
	case <-callCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, &PlanningFailure{Kind: FailureCancelled, Err: err}
		}
		return nil, &PlanningFailure{Kind: FailureTimeout, Err: fmt.Errorf("no answer within %s: %w", a.timeout, context.DeadlineExceeded)}
	case res = <-results:
	}

	if res.err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, &PlanningFailure{Kind: FailureCancelled, Err: ctx.Err()}
		case errors.Is(res.err, context.DeadlineExceeded):
			return nil, &PlanningFailure{Kind: FailureTimeout, Err: res.err}
		case errors.Is(res.err, llm.ErrEmptyResponse):
			return nil, &PlanningFailure{Kind: FailureInvalidResponse, Err: res.err}
		}
		return nil, &PlanningFailure{Kind: FailureTransport, Err: res.err}
	}

	candidate, err := spec.Unmarshal([]byte(extractJSON(res.text)))
	if err != nil {
		return nil, &PlanningFailure{Kind: FailureInvalidResponse, Err: err}
	}

	result := spec.Validate(candidate, profile)
	if !result.Accepted() {
		return nil, &PlanningFailure{Kind: FailureInvalidResponse, Violations: result.Violations, Err: result.Err()}
	}
	return result.Spec(), nil
}
