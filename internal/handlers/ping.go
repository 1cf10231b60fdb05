package handlers

import (
	"fmt"
	"net/http"

	"github.com/senyabanana/bid-award/internal/utils"
)

// PingHandler handles GET /api/ping.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, "ok"); err != nil {
		utils.Warn("failed to write ping response", map[string]any{"error": err.Error()})
	}
}
