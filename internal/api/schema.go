package api

import (
	"net/http"
)

// handleSchema returns the warehouse tables both structured and as the
// rendered context string that generation requests receive.
func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema provider is not configured", false, nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"groups":  deps.Schema.Groups(),
		"context": deps.Schema.Context(),
	})
}
