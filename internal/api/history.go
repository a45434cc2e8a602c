package api

import (
	"errors"
	"net/http"

	"github.com/sqlmend/sqlmend/internal/history"
)

func handleListHistory(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.History == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "HISTORY_NOT_CONFIGURED", "history store is not configured", false, nil)
		return
	}

	entries, err := deps.History.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "HISTORY_ERROR", "failed to list history", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func handleGetHistory(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.History == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "HISTORY_NOT_CONFIGURED", "history store is not configured", false, nil)
		return
	}

	entry, err := deps.History.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "HISTORY_NOT_FOUND", "history entry was not found", false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "HISTORY_ERROR", "failed to load history entry", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleRerunHistory re-executes the stored SQL of one entry as a fresh
// single-shot session and records that session as a new entry.
func handleRerunHistory(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.History == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "HISTORY_NOT_CONFIGURED", "history store is not configured", false, nil)
		return
	}
	if deps.Assist == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASSIST_NOT_CONFIGURED", "assist dependencies are not configured", false, nil)
		return
	}

	entry, err := deps.History.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "HISTORY_NOT_FOUND", "history entry was not found", false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "HISTORY_ERROR", "failed to load history entry", true, map[string]any{"details": err.Error()})
		return
	}

	outcome := deps.Assist.RunSQL(r.Context(), entry.SQL)
	outcome.Question = entry.Question
	finishSession(r.Context(), deps, outcome)
	writeJSON(w, http.StatusOK, newSessionResponse(outcome))
}

func handleClearHistory(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.History == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "HISTORY_NOT_CONFIGURED", "history store is not configured", false, nil)
		return
	}

	if err := deps.History.Clear(r.Context()); err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "HISTORY_ERROR", "failed to clear history", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared"})
}
