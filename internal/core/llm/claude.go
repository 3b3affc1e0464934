package llm

import (
	"context"
	"fmt"
	"net/http"
)

const claudeURL = "https://api.anthropic.com/v1/messages"

type ClaudeProvider struct {
	apiKey      string
	url         string
	model       string
	temperature float32
	maxTokens   int
	client      *http.Client
}

func NewClaudeProvider(cfg ProviderConfig) *ClaudeProvider {
	url := claudeURL
	if cfg.BaseURL != "" {
		url = cfg.BaseURL
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		// the messages API rejects requests without max_tokens
		maxTokens = 4096
	}
	return &ClaudeProvider{
		apiKey:      cfg.APIKey,
		url:         url,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		client:      &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

func (p *ClaudeProvider) GetProviderName() string {
	return "Anthropic Claude"
}

// Claude API request/response structures
type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float32         `json:"temperature"`
	Messages    []claudeMessage `json:"messages"`
	System      string          `json:"system,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (p *ClaudeProvider) GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	reqBody := claudeRequest{
		Model:       p.model,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		System:      systemPrompt,
		Messages:    []claudeMessage{{Role: "user", Content: userMessage}},
	}

	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	}

	var claudeResp claudeResponse
	if err := postJSON(ctx, p.client, "claude", p.url, headers, reqBody, &claudeResp); err != nil {
		return "", err
	}

	if len(claudeResp.Content) == 0 {
		return "", fmt.Errorf("claude: %w", ErrEmptyResponse)
	}

	return claudeResp.Content[0].Text, nil
}
