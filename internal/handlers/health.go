package handlers

import (
	"net/http"

	"github.com/AnshRaj112/contacts-backend/internal/database"
)

// HealthChecker runs SELECT 1 against Postgres.
func (h *Handler) HealthChecker(w http.ResponseWriter, r *http.Request) {
	if err := database.Ping(r.Context(), h.db); err != nil {
		h.logger.Error("health check failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Error connecting to the database")
		return
	}
	writeMessage(w, "Welcome to the contacts API!")
}
