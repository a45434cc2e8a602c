package api

import (
	"net/http"
)

func handleArchiveSweep(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Retention == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ARCHIVE_NOT_CONFIGURED", "archive retention is not configured", false, nil)
		return
	}

	summary, err := deps.Retention.RunSweepOnce(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SWEEP_FAILED", "transcript sweep failed", true, map[string]any{
			"details": err.Error(),
			"summary": summary,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "completed",
		"summary": summary,
	})
}
