package nl2sql

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sqlmend/sqlmend/internal/schema"
)

func newGeminiForTest(t *testing.T, srvURL string) *GeminiGenerator {
	t.Helper()
	gen, err := NewGeminiGenerator(GeminiConfig{
		BaseURL: srvURL,
		APIKey:  "k1",
		Model:   "gemini-2.5-flash",
	}, schema.Retail())
	if err != nil {
		t.Fatalf("NewGeminiGenerator() error = %v", err)
	}
	return gen
}

func TestGeminiGenerateExtractsSQL(t *testing.T) {
	var gotPath, gotKey, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		body, _ := io.ReadAll(r.Body)
		var req geminiRequest
		if err := json.Unmarshal(body, &req); err == nil && len(req.Contents) == 1 && len(req.Contents[0].Parts) == 1 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"` + "```sql\\nSELECT COUNT(*) FROM Customer\\n```" + `"}]}}]}`))
	}))
	defer srv.Close()

	result, err := newGeminiForTest(t, srv.URL).Generate(context.Background(), Request{Question: "How many customers do we have?"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.SQL != "SELECT COUNT(*) FROM Customer" {
		t.Fatalf("SQL = %q", result.SQL)
	}
	if result.Provider != "gemini" || result.Model != "gemini-2.5-flash" {
		t.Fatalf("provenance = %q %q", result.Provider, result.Model)
	}
	if gotPath != "/models/gemini-2.5-flash:generateContent" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "k1" {
		t.Fatalf("key = %q", gotKey)
	}
	if !strings.Contains(gotPrompt, "User Question: How many customers do we have?") {
		t.Fatalf("prompt missing question:\n%s", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "Database Schema:") {
		t.Fatalf("prompt missing schema context:\n%s", gotPrompt)
	}
}

func TestGeminiGenerateCorrectionCarriesFailureContext(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req geminiRequest
		if err := json.Unmarshal(body, &req); err == nil && len(req.Contents) == 1 && len(req.Contents[0].Parts) == 1 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"SELECT 1"}]}}]}`))
	}))
	defer srv.Close()

	_, err := newGeminiForTest(t, srv.URL).Generate(context.Background(), Request{
		Question:   "How many customers do we have?",
		PriorSQL:   "SELECT COUNT(*) FROM Customers",
		PriorError: `ERROR: relation "customers" does not exist`,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(gotPrompt, "SELECT COUNT(*) FROM Customers") {
		t.Fatalf("prompt missing failing SQL:\n%s", gotPrompt)
	}
	if !strings.Contains(gotPrompt, `ERROR: relation "customers" does not exist`) {
		t.Fatalf("prompt missing diagnostic:\n%s", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "Generate ONLY the corrected SQL query:") {
		t.Fatalf("prompt missing correction instruction:\n%s", gotPrompt)
	}
}

func TestGeminiGenerateJoinsMultipleParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"SELECT Country "},{"text":"FROM Country"}]}}]}`))
	}))
	defer srv.Close()

	result, err := newGeminiForTest(t, srv.URL).Generate(context.Background(), Request{Question: "list countries"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.SQL != "SELECT Country FROM Country" {
		t.Fatalf("SQL = %q", result.SQL)
	}
}

func TestGeminiGenerateMapsHTTPFailureToGenerationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newGeminiForTest(t, srv.URL).Generate(context.Background(), Request{Question: "q"})
	if err == nil {
		t.Fatalf("Generate() error = nil")
	}
	if !IsGenerationError(err) {
		t.Fatalf("error type = %T", err)
	}
}

func TestGeminiGenerateMapsEmptyCandidatesToGenerationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	_, err := newGeminiForTest(t, srv.URL).Generate(context.Background(), Request{Question: "q"})
	if !IsGenerationError(err) {
		t.Fatalf("error = %v", err)
	}
}

func TestGeminiGenerateAllowsEmptyStatement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"   "}]}}]}`))
	}))
	defer srv.Close()

	result, err := newGeminiForTest(t, srv.URL).Generate(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.SQL != "" {
		t.Fatalf("SQL = %q, want empty", result.SQL)
	}
}
