package llm

import (
	"context"
	"fmt"
	"time"
)

// LLMProvider is the single blocking call the planner needs from a model
type LLMProvider interface {
	GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error)
	GetProviderName() string
}

// ProviderType untuk factory
type ProviderType string

const (
	ProviderOpenAI   ProviderType = "openai"
	ProviderGemini   ProviderType = "gemini"
	ProviderGroq     ProviderType = "groq"
	ProviderDeepSeek ProviderType = "deepseek"
	ProviderClaude   ProviderType = "claude"
)

// Default endpoints for OpenAI-compatible providers
const (
	DeepSeekBaseURL = "https://api.deepseek.com"
	GroqBaseURL     = "https://api.groq.com/openai/v1"
)

// ProviderConfig untuk create provider
type ProviderConfig struct {
	Type    ProviderType
	APIKey  string
	BaseURL string // overrides the provider default when set

	Model       string
	Temperature float32
	MaxTokens   int
	Seed        *int

	// HTTPTimeout caps a single HTTP exchange; the planner applies its own
	// per-attempt deadline through the context on top of this.
	HTTPTimeout time.Duration
}

// DefaultModel returns the model used when none is configured
func DefaultModel(t ProviderType) string {
	switch t {
	case ProviderGemini:
		return "gemini-2.5-flash"
	case ProviderGroq:
		return "llama-3.1-70b-versatile"
	case ProviderDeepSeek:
		return "deepseek-chat"
	case ProviderClaude:
		return "claude-3-5-sonnet-20241022"
	}
	return "gpt-4o"
}

// NewProvider factory untuk create LLM provider
func NewProvider(cfg ProviderConfig) (LLMProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for provider %s", cfg.Type)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel(cfg.Type)
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 60 * time.Second
	}

	switch cfg.Type {
	case ProviderOpenAI, "":
		return NewOpenAIProvider("OpenAI", cfg), nil
	case ProviderDeepSeek:
		if cfg.BaseURL == "" {
			cfg.BaseURL = DeepSeekBaseURL
		}
		return NewOpenAIProvider("DeepSeek", cfg), nil
	case ProviderGroq:
		if cfg.BaseURL == "" {
			cfg.BaseURL = GroqBaseURL
		}
		return NewOpenAIProvider("Groq", cfg), nil
	case ProviderGemini:
		return NewGeminiProvider(cfg), nil
	case ProviderClaude:
		return NewClaudeProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider type: %s", cfg.Type)
	}
}
