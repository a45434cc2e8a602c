package nl2sql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sqlmend/sqlmend/internal/observability"
	"github.com/sqlmend/sqlmend/internal/schema"
)

type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// OpenAIGenerator calls any chat-completions compatible endpoint, which keeps
// self-hosted gateways usable without code changes.
type OpenAIGenerator struct {
	baseURL       string
	apiKey        string
	model         string
	temperature   float64
	client        *http.Client
	schemaContext string
	dialectRules  string
}

func NewOpenAIGenerator(cfg OpenAIConfig, provider *schema.Provider) (*OpenAIGenerator, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("schema provider is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIGenerator{
		baseURL:       strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:        strings.TrimSpace(cfg.APIKey),
		model:         model,
		temperature:   cfg.Temperature,
		client:        &http.Client{Timeout: timeout},
		schemaContext: provider.Context(),
		dialectRules:  provider.DialectRules(),
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	result, err := g.generate(ctx, req)
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.ObserveGeneration("openai-compatible", promptKind(req), status, time.Since(start))
	return result, err
}

func (g *OpenAIGenerator) generate(ctx context.Context, req Request) (Result, error) {
	payload := map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "user", "content": buildPrompt(g.schemaContext, g.dialectRules, req)},
		},
		"temperature": g.temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, &GenerationError{Provider: "openai-compatible", Err: fmt.Errorf("marshal chat payload: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, &GenerationError{Provider: "openai-compatible", Err: fmt.Errorf("build chat request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Result{}, &GenerationError{Provider: "openai-compatible", Err: fmt.Errorf("request chat completion: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &GenerationError{Provider: "openai-compatible", Err: fmt.Errorf("read chat response body: %w", err)}
	}
	if resp.StatusCode >= 400 {
		return Result{}, &GenerationError{Provider: "openai-compatible", Err: fmt.Errorf("chat completion failed status=%d body=%s", resp.StatusCode, string(rawRespBody))}
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return Result{}, &GenerationError{Provider: "openai-compatible", Err: fmt.Errorf("decode chat completion response: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return Result{}, &GenerationError{Provider: "openai-compatible", Err: fmt.Errorf("empty chat completion choices")}
	}

	return Result{
		SQL:      ExtractSQL(parsed.Choices[0].Message.Content),
		Provider: "openai-compatible",
		Model:    g.model,
	}, nil
}
