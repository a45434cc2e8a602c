package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

type sqlRequest struct {
	SQL string `json:"sql"`
}

// handleRunSQL executes caller-supplied SQL once, without the correction
// loop. The read-only guard lives here at the boundary; the executor itself
// runs whatever it is handed.
func handleRunSQL(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Assist == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASSIST_NOT_CONFIGURED", "assist dependencies are not configured", false, nil)
		return
	}

	var request sqlRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid sql request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return
	}
	if !isAllowedSQL(request.SQL) {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_NOT_ALLOWED", "only read-only SELECT/WITH queries are allowed", false, nil)
		return
	}

	outcome := deps.Assist.RunSQL(r.Context(), request.SQL)
	finishSession(r.Context(), deps, outcome)
	writeJSON(w, http.StatusOK, newSessionResponse(outcome))
}

func isAllowedSQL(sqlText string) bool {
	normalized := strings.ToLower(strings.TrimSpace(sqlText))
	if normalized == "" {
		return false
	}
	if strings.HasPrefix(normalized, "select") || strings.HasPrefix(normalized, "with") {
		return true
	}
	return false
}
