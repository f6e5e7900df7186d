package handlers

import (
	"log/slog"
	"net/http"

	"art-platform/frontend/templates"
)

// ComplianceDocuments lists every compliance document. No sign-in is needed.
func (h *Handler) ComplianceDocuments(w http.ResponseWriter, r *http.Request) {
	documents, err := h.Store.ListDocuments(r.Context())
	if err != nil {
		slog.Error("failed to list documents", "source", "documents", "error", err.Error())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, r, templates.ComplianceDocuments(documents))
}
