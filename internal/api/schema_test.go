package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sqlmend/sqlmend/internal/schema"
)

func TestSchemaEndpointReturnsGroupsAndContext(t *testing.T) {
	h := NewHandler(testConfig(t), Dependencies{Schema: schema.Retail()})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/schema", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Groups []schema.Group `json:"groups"`
		Ctx    string         `json:"context"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if len(body.Groups) == 0 {
		t.Fatal("expected schema groups")
	}
	if !strings.Contains(body.Ctx, "Customer") {
		t.Fatalf("context missing tables: %q", body.Ctx)
	}
}

func TestSchemaEndpointRequiresProvider(t *testing.T) {
	h := NewHandler(testConfig(t), Dependencies{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/schema", nil))

	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rr.Code)
	}
}
