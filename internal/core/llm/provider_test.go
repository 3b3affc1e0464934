package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestOpenAICompatibleProvider(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"{\"title\":\"x\"}"}}]}`)
	}))
	defer srv.Close()

	seed := 42
	p, err := NewProvider(ProviderConfig{Type: ProviderDeepSeek, APIKey: "k", BaseURL: srv.URL + "/v1", Temperature: 0.2, Seed: &seed})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	out, err := p.GenerateResponse(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("GenerateResponse: %v", err)
	}
	if out != `{"title":"x"}` {
		t.Fatalf("out = %q", out)
	}
	if got.Model != "deepseek-chat" || got.ResponseFormat == nil || got.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Fatalf("request = %+v", got)
	}
	if got.Seed == nil || *got.Seed != 42 || len(got.Messages) != 2 {
		t.Fatalf("request = %+v", got)
	}
	if p.GetProviderName() != "DeepSeek" {
		t.Fatalf("name = %s", p.GetProviderName())
	}
}

func TestGeminiProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "k" {
			t.Errorf("missing api key header")
		}
		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.GenerationConfig.ResponseMimeType != "application/json" || req.SystemInstruction == nil {
			t.Errorf("request = %+v", req)
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`)
	}))
	defer srv.Close()

	p, _ := NewProvider(ProviderConfig{Type: ProviderGemini, APIKey: "k", BaseURL: srv.URL})
	out, err := p.GenerateResponse(context.Background(), "sys", "user")
	if err != nil || out != "{}" {
		t.Fatalf("out=%q err=%v", out, err)
	}
}

func TestClaudeProviderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":"overloaded"}`)
	}))
	defer srv.Close()

	p, _ := NewProvider(ProviderConfig{Type: ProviderClaude, APIKey: "k", BaseURL: srv.URL})
	_, err := p.GenerateResponse(context.Background(), "sys", "user")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("err = %v", err)
	}
	if !IsRetryable(err) {
		t.Fatalf("503 should be retryable")
	}
}

func TestNewProviderValidation(t *testing.T) {
	if _, err := NewProvider(ProviderConfig{Type: ProviderOpenAI}); err == nil {
		t.Fatalf("missing key should fail")
	}
	if _, err := NewProvider(ProviderConfig{Type: "watson", APIKey: "k"}); err == nil {
		t.Fatalf("unknown provider should fail")
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"cancelled", context.Canceled, false},
		{"rate limited", &openai.APIError{HTTPStatusCode: 429}, true},
		{"unauthorized", &openai.APIError{HTTPStatusCode: 401}, false},
		{"bad gateway", &openai.RequestError{HTTPStatusCode: 502}, true},
		{"rest bad request", &StatusError{StatusCode: 400}, false},
		{"network", fmt.Errorf("dial: %w", timeoutErr{}), true},
		{"empty", ErrEmptyResponse, true},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Fatalf("%s: IsRetryable = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDefaultModel(t *testing.T) {
	if DefaultModel(ProviderOpenAI) != "gpt-4o" || DefaultModel(ProviderGemini) == "" {
		t.Fatalf("unexpected defaults")
	}
}
