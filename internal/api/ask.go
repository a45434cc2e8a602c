package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sqlmend/sqlmend/internal/assist"
	"github.com/sqlmend/sqlmend/internal/executor"
	"github.com/sqlmend/sqlmend/internal/history"
)

type askRequest struct {
	Question string `json:"question"`
}

// sessionResponse is the wire form of a finished session. The session always
// answers 200; Reason says how it terminated.
type sessionResponse struct {
	SessionID string           `json:"session_id"`
	Question  string           `json:"question,omitempty"`
	Succeeded bool             `json:"succeeded"`
	Reason    string           `json:"reason"`
	FinalSQL  string           `json:"final_sql,omitempty"`
	Columns   []string         `json:"columns,omitempty"`
	Rows      []executor.Row   `json:"rows,omitempty"`
	Truncated bool             `json:"truncated,omitempty"`
	RowCount  int              `json:"row_count"`
	Attempts  []assist.Attempt `json:"attempts"`
	Provider  string           `json:"provider,omitempty"`
	Model     string           `json:"model,omitempty"`
}

func newSessionResponse(outcome assist.Outcome) sessionResponse {
	response := sessionResponse{
		SessionID: outcome.SessionID,
		Question:  outcome.Question,
		Succeeded: outcome.Succeeded,
		Reason:    outcome.Reason,
		FinalSQL:  outcome.FinalSQL,
		Attempts:  outcome.Attempts,
		Provider:  outcome.Provider,
		Model:     outcome.Model,
	}
	if response.Attempts == nil {
		response.Attempts = []assist.Attempt{}
	}
	if outcome.RowSet != nil {
		response.Columns = outcome.RowSet.Columns
		response.Rows = outcome.RowSet.Rows
		response.Truncated = outcome.RowSet.Truncated
		response.RowCount = outcome.RowSet.RowCount()
	}
	return response
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Assist == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASSIST_NOT_CONFIGURED", "assist dependencies are not configured", false, nil)
		return
	}

	var request askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	outcome := deps.Assist.Run(r.Context(), request.Question)
	finishSession(r.Context(), deps, outcome)
	writeJSON(w, http.StatusOK, newSessionResponse(outcome))
}

// finishSession archives the transcript and records the history entry.
// Both are best effort; the outcome already belongs to the caller. Sessions
// that never executed a statement leave no history.
func finishSession(ctx context.Context, deps Dependencies, outcome assist.Outcome) {
	if deps.Archiver != nil {
		_, _ = deps.Archiver.Archive(ctx, outcome)
	}
	if deps.History == nil || outcome.FinalSQL == "" {
		return
	}
	entry := history.Entry{
		ID:        outcome.SessionID,
		Question:  outcome.Question,
		SQL:       outcome.FinalSQL,
		Succeeded: outcome.Succeeded,
		CreatedAt: time.Now().UTC(),
	}
	if outcome.RowSet != nil {
		entry.RowCount = outcome.RowSet.RowCount()
	}
	if err := deps.History.Append(ctx, entry); err != nil && deps.Logger != nil {
		deps.Logger.WarnContext(ctx, "history append failed",
			slog.String("session_id", outcome.SessionID),
			slog.Any("error", err),
		)
	}
}
