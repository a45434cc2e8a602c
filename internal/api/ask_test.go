package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sqlmend/sqlmend/internal/assist"
	"github.com/sqlmend/sqlmend/internal/config"
	"github.com/sqlmend/sqlmend/internal/executor"
	"github.com/sqlmend/sqlmend/internal/history"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("sqlmend-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}
	return cfg
}

func TestAskReturnsSessionOutcome(t *testing.T) {
	runner := &fakeSessionRunner{
		runOutcome: assist.Outcome{
			SessionID: "s-1",
			Question:  "How many customers are there?",
			RowSet:    &executor.RowSet{Columns: []string{"n"}, Rows: []executor.Row{{"n": int64(60)}}},
			FinalSQL:  "SELECT COUNT(*) AS n FROM Customer",
			Succeeded: true,
			Reason:    assist.ReasonSuccess,
			Attempts:  []assist.Attempt{{Number: 1, SQL: "SELECT COUNT(*) AS n FROM Customer"}},
			Provider:  "gemini",
			Model:     "gemini-2.5-flash",
		},
	}
	store := history.NewMemoryStore(10)
	archiver := &fakeArchiver{}

	h := NewHandler(testConfig(t), Dependencies{
		Assist:   runner,
		History:  store,
		Archiver: archiver,
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"How many customers are there?"}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", rr.Code, rr.Body.String())
	}
	if runner.gotQuestion != "How many customers are there?" {
		t.Fatalf("question = %q", runner.gotQuestion)
	}

	var response sessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if !response.Succeeded || response.Reason != assist.ReasonSuccess {
		t.Fatalf("unexpected response: %+v", response)
	}
	if response.RowCount != 1 || len(response.Rows) != 1 {
		t.Fatalf("rows not carried: %+v", response)
	}

	entries, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("history entries = %d", len(entries))
	}
	if entries[0].ID != "s-1" || entries[0].SQL != "SELECT COUNT(*) AS n FROM Customer" || entries[0].RowCount != 1 {
		t.Fatalf("unexpected history entry: %+v", entries[0])
	}
	if len(archiver.outcomes) != 1 || archiver.outcomes[0].SessionID != "s-1" {
		t.Fatalf("archiver calls = %+v", archiver.outcomes)
	}
}

func TestAskRecordsFailedSessions(t *testing.T) {
	runner := &fakeSessionRunner{
		runOutcome: assist.Outcome{
			SessionID: "s-2",
			Question:  "q",
			FinalSQL:  "SELECT broken",
			Succeeded: false,
			Reason:    assist.ReasonExhausted,
			Attempts: []assist.Attempt{
				{Number: 1, SQL: "SELECT broken", Error: "column \"broken\" does not exist"},
			},
		},
	}
	store := history.NewMemoryStore(10)

	h := NewHandler(testConfig(t), Dependencies{Assist: runner, History: store})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"q"}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	entries, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Succeeded {
		t.Fatalf("unexpected history entries: %+v", entries)
	}
}

func TestAskSkipsHistoryWhenNoStatementProduced(t *testing.T) {
	runner := &fakeSessionRunner{
		runOutcome: assist.Outcome{
			SessionID: "s-3",
			Question:  "q",
			Reason:    assist.ReasonGenerationError,
		},
	}
	store := history.NewMemoryStore(10)

	h := NewHandler(testConfig(t), Dependencies{Assist: runner, History: store})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"q"}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	entries, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("history entries = %d, want 0", len(entries))
	}
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	h := NewHandler(testConfig(t), Dependencies{Assist: &fakeSessionRunner{}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"  "}`)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if body["error_code"] != "QUESTION_REQUIRED" {
		t.Fatalf("error_code = %v", body["error_code"])
	}
}

func TestAskRequiresAssistDependency(t *testing.T) {
	h := NewHandler(testConfig(t), Dependencies{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"q"}`)))

	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rr.Code)
	}
}
