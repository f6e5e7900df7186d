package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"art-platform/backend/database"
	"art-platform/backend/security"

	"github.com/a-h/templ"
	"github.com/gorilla/sessions"
)

// Handler serves the web surface. All dependencies are injected by main.
type Handler struct {
	Store    database.Store
	Security *security.Service
	Sessions sessions.Store
}

func New(store database.Store, svc *security.Service, sessionStore sessions.Store) *Handler {
	return &Handler{Store: store, Security: svc, Sessions: sessionStore}
}

func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	renderStatus(w, r, http.StatusOK, c)
}

func renderStatus(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("failed to render page", "source", "http", "path", r.URL.Path, "error", err.Error())
	}
}

// fail maps flow errors to 400, 404 or 500. Details of unexpected errors stay in the log.
func fail(w http.ResponseWriter, r *http.Request, source, userID string, err error) {
	switch {
	case errors.Is(err, security.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, security.ErrUserNotFound):
		http.Error(w, "User not found", http.StatusNotFound)
	default:
		slog.Error("request failed", "source", source, "user_id", userID, "path", r.URL.Path, "error", err.Error())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
