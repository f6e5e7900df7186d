package handlers

import (
	"net/http"

	"art-platform/backend/middleware"
	"art-platform/backend/security"
	"art-platform/frontend/templates"
)

// Index serves the landing page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	render(w, r, templates.Index())
}

// SecuritySettings shows whether 2FA is on for the signed-in user.
func (h *Handler) SecuritySettings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	enabled, err := h.Security.Status(r.Context(), userID)
	if err != nil {
		fail(w, r, "twofa", userID, err)
		return
	}

	render(w, r, templates.SecuritySettings(enabled, middleware.CSRFToken(r.Context())))
}

// ToggleTwoFA turns 2FA on (showing the new QR code) or off.
func (h *Handler) ToggleTwoFA(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	result, err := h.Security.ToggleTwoFA(r.Context(), userID)
	if err != nil {
		fail(w, r, "twofa", userID, err)
		return
	}

	var qrCode string
	if enabled, ok := result.(security.Enabled); ok {
		qrCode = enabled.QRCode
	}
	render(w, r, templates.TwoFASetup(qrCode, "", middleware.CSRFToken(r.Context())))
}

// TwoFASetup re-renders the current QR code, or sends disabled users back to settings.
func (h *Handler) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	view, err := h.Security.GetSetupView(r.Context(), userID)
	if err != nil {
		fail(w, r, "twofa", userID, err)
		return
	}
	if !view.Enabled {
		http.Redirect(w, r, "/security-settings", http.StatusSeeOther)
		return
	}

	render(w, r, templates.TwoFASetup(view.QRCode, "", middleware.CSRFToken(r.Context())))
}

// VerifyTwoFA checks a submitted code and shows the outcome.
func (h *Handler) VerifyTwoFA(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	status, err := h.Security.VerifyCode(r.Context(), userID, r.FormValue("token"))
	if err != nil {
		fail(w, r, "twofa", userID, err)
		return
	}

	render(w, r, templates.TwoFASetup("", string(status), middleware.CSRFToken(r.Context())))
}
