package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sqlmend/sqlmend/internal/archive"
)

type fakeRetention struct {
	summary archive.RetentionSummary
	err     error
	calls   int
}

func (f *fakeRetention) RunSweepOnce(context.Context) (archive.RetentionSummary, error) {
	f.calls++
	return f.summary, f.err
}

func TestArchiveSweepRunsRetention(t *testing.T) {
	retention := &fakeRetention{
		summary: archive.RetentionSummary{ObjectsScanned: 4, ObjectsDeleted: 2},
	}
	h := NewHandler(testConfig(t), Dependencies{Retention: retention})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/archive/sweep", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if retention.calls != 1 {
		t.Fatalf("calls = %d", retention.calls)
	}
	var body struct {
		Status  string                   `json:"status"`
		Summary archive.RetentionSummary `json:"summary"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if body.Status != "completed" || body.Summary.ObjectsDeleted != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestArchiveSweepReportsFailure(t *testing.T) {
	retention := &fakeRetention{err: errors.New("bucket down")}
	h := NewHandler(testConfig(t), Dependencies{Retention: retention})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/archive/sweep", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if body["error_code"] != "SWEEP_FAILED" {
		t.Fatalf("error_code = %v", body["error_code"])
	}
}

func TestArchiveSweepRequiresRetention(t *testing.T) {
	h := NewHandler(testConfig(t), Dependencies{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/archive/sweep", nil))

	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rr.Code)
	}
}
