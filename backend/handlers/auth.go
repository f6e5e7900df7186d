package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"art-platform/backend/accounts"
	"art-platform/backend/config"
	"art-platform/backend/database"
	"art-platform/backend/metrics"
	"art-platform/backend/middleware"
	"art-platform/backend/models"
	"art-platform/frontend/templates"

	"github.com/gorilla/sessions"
)

const minSessionSecretLen = 32

// NewSessionStore builds the cookie store from the session and TLS settings.
func NewSessionStore(c config.Config) (*sessions.CookieStore, error) {
	if c.Session.Secret == "" {
		return nil, fmt.Errorf("session secret is required (set SESSION_SECRET)")
	}
	if len(c.Session.Secret) < minSessionSecretLen {
		return nil, fmt.Errorf("session secret must be at least %d characters", minSessionSecretLen)
	}

	store := sessions.NewCookieStore([]byte(c.Session.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(c.Session.Timeout.Seconds()),
		HttpOnly: true,
		Secure:   c.TLS.Enabled,
		SameSite: http.SameSiteLaxMode,
	}
	return store, nil
}

// startSession issues a fresh session for user. Nothing from a cookie sent
// before authentication survives.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *models.User) error {
	session, _ := h.Sessions.Get(r, middleware.SessionName)
	session.ID = ""
	session.IsNew = true
	session.Values = map[interface{}]interface{}{
		middleware.SessionUserKey: user.ID,
	}
	return session.Save(r, w)
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, templates.Login("", "", middleware.CSRFToken(r.Context())))
}

func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, templates.Register("", "", middleware.CSRFToken(r.Context())))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	csrf := middleware.CSRFToken(r.Context())

	user, err := h.Store.FindUserByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			slog.Error("login failed: store error", "source", "auth", "error", err.Error())
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		metrics.AuthLoginsTotal.WithLabelValues("unknown_user").Inc()
		slog.Warn("login failed: user not found", "source", "auth", "email", email)
		renderStatus(w, r, http.StatusUnauthorized, templates.Login("Invalid email or password", email, csrf))
		return
	}

	if !accounts.CheckPassword(user.Password, password) {
		metrics.AuthLoginsTotal.WithLabelValues("bad_password").Inc()
		slog.Warn("login failed: invalid password", "source", "auth", "user_id", user.ID)
		renderStatus(w, r, http.StatusUnauthorized, templates.Login("Invalid email or password", email, csrf))
		return
	}

	if err := h.startSession(w, r, user); err != nil {
		slog.Error("login failed: session error", "source", "auth", "user_id", user.ID, "error", err.Error())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	metrics.AuthLoginsTotal.WithLabelValues("success").Inc()
	slog.Info("user logged in", "source", "auth", "user_id", user.ID)
	http.Redirect(w, r, "/security-settings", http.StatusSeeOther)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	csrf := middleware.CSRFToken(r.Context())

	if !accounts.ValidateEmail(email) {
		renderStatus(w, r, http.StatusUnprocessableEntity, templates.Register("Please enter a valid email address", email, csrf))
		return
	}
	if err := accounts.ValidatePassword(password); err != nil {
		slog.Warn("registration failed: weak password", "source", "auth", "email", email)
		renderStatus(w, r, http.StatusUnprocessableEntity, templates.Register(err.Error(), email, csrf))
		return
	}

	user, err := accounts.Create(r.Context(), h.Store, email, password)
	if errors.Is(err, database.ErrDuplicate) {
		slog.Warn("registration failed: email exists", "source", "auth", "email", email)
		renderStatus(w, r, http.StatusConflict, templates.Register("Email already registered", email, csrf))
		return
	}
	if err != nil {
		slog.Error("registration failed", "source", "auth", "error", err.Error())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("user registered", "source", "auth", "user_id", user.ID)

	if err := h.startSession(w, r, user); err != nil {
		slog.Error("registration failed: session error", "source", "auth", "user_id", user.ID, "error", err.Error())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/security-settings", http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.Sessions.Get(r, middleware.SessionName)
	userID, _ := session.Values[middleware.SessionUserKey].(string)
	slog.Info("user logged out", "source", "auth", "user_id", userID)

	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	session.Save(r, w)

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
