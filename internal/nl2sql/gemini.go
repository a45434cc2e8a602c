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

type GeminiConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// GeminiGenerator calls the Gemini REST API. The prompt is assembled by
// buildPrompt and sent as a single user turn so every provider sees identical
// text.
type GeminiGenerator struct {
	baseURL       string
	apiKey        string
	model         string
	temperature   float64
	client        *http.Client
	schemaContext string
	dialectRules  string
}

func NewGeminiGenerator(cfg GeminiConfig, provider *schema.Provider) (*GeminiGenerator, error) {
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
		model = "gemini-2.5-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GeminiGenerator{
		baseURL:       strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:        strings.TrimSpace(cfg.APIKey),
		model:         model,
		temperature:   cfg.Temperature,
		client:        &http.Client{Timeout: timeout},
		schemaContext: provider.Context(),
		dialectRules:  provider.DialectRules(),
	}, nil
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	result, err := g.generate(ctx, req)
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.ObserveGeneration("gemini", promptKind(req), status, time.Since(start))
	return result, err
}

func (g *GeminiGenerator) generate(ctx context.Context, req Request) (Result, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: buildPrompt(g.schemaContext, g.dialectRules, req)}},
		}},
		GenerationConfig: geminiGenerationConfig{Temperature: g.temperature},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, &GenerationError{Provider: "gemini", Err: fmt.Errorf("marshal generate payload: %w", err)}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, &GenerationError{Provider: "gemini", Err: fmt.Errorf("build generate request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Result{}, &GenerationError{Provider: "gemini", Err: fmt.Errorf("request generation: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &GenerationError{Provider: "gemini", Err: fmt.Errorf("read generate response body: %w", err)}
	}
	if resp.StatusCode >= 400 {
		return Result{}, &GenerationError{Provider: "gemini", Err: fmt.Errorf("generate failed status=%d body=%s", resp.StatusCode, string(rawRespBody))}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return Result{}, &GenerationError{Provider: "gemini", Err: fmt.Errorf("decode generate response: %w", err)}
	}
	if parsed.Error != nil {
		return Result{}, &GenerationError{Provider: "gemini", Err: fmt.Errorf("generate rejected: %s", parsed.Error.Message)}
	}
	if len(parsed.Candidates) == 0 {
		return Result{}, &GenerationError{Provider: "gemini", Err: fmt.Errorf("empty generate candidates")}
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return Result{
		SQL:      ExtractSQL(text.String()),
		Provider: "gemini",
		Model:    g.model,
	}, nil
}
