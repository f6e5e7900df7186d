package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"art-platform/backend/middleware"
	"art-platform/backend/models"
)

type EventsResponse struct {
	Events []models.LogEntry `json:"events"`
	Limit  int               `json:"limit"`
}

// SecurityEvents returns the signed-in user's own audit entries, newest first.
func (h *Handler) SecurityEvents(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 50
	}

	events, err := h.Store.ListLogEntries(r.Context(), userID, limit)
	if err != nil {
		slog.Error("failed to list security events", "source", "events", "user_id", userID, "error", err.Error())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(EventsResponse{Events: events, Limit: limit}); err != nil {
		slog.Error("failed to encode security events", "source", "events", "user_id", userID, "error", err.Error())
	}
}
