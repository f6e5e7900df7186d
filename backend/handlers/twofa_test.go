package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"art-platform/backend/database"
	"art-platform/backend/models"
	"art-platform/backend/security"

	"github.com/pquerna/otp/totp"
)

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestIndex_RendersLandingPage(t *testing.T) {
	h, _ := setupTestHandler(t)

	rr := httptest.NewRecorder()
	h.Index(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Welcome") {
		t.Errorf("Expected landing page, got %d", rr.Code)
	}
}

func TestSecuritySettings_ShowsState(t *testing.T) {
	h, store := setupTestHandler(t)
	secret := "JBSWY3DPEHPK3PXP"
	user := createTestUser(t, store, models.User{Email: "artist@example.com", TwoFAEnabled: true, TwoFASecret: &secret})

	rr := httptest.NewRecorder()
	h.SecuritySettings(rr, asUser(httptest.NewRequest("GET", "/security-settings", nil), user.ID))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `<strong id="twofa-state">enabled</strong>`) {
		t.Error("Settings should show 2FA as enabled")
	}
}

func TestSecuritySettings_UnknownUser(t *testing.T) {
	h, _ := setupTestHandler(t)

	rr := httptest.NewRecorder()
	h.SecuritySettings(rr, asUser(httptest.NewRequest("GET", "/security-settings", nil), "missing"))

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rr.Code)
	}
}

func TestToggleTwoFA_EnableRendersQRCode(t *testing.T) {
	h, store := setupTestHandler(t)
	user := createTestUser(t, store, models.User{Email: "artist@example.com"})

	rr := httptest.NewRecorder()
	h.ToggleTwoFA(rr, asUser(postForm("/security-settings/toggle-2fa", url.Values{}), user.ID))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `src="data:image/png;base64,`) {
		t.Error("Enabling should render a QR code")
	}

	updated, _ := store.FindUser(context.Background(), user.ID)
	if !updated.TwoFAEnabled || updated.TwoFASecret == nil {
		t.Error("User should be enabled with a secret")
	}
}

func TestToggleTwoFA_DisableRendersNoQRCode(t *testing.T) {
	h, store := setupTestHandler(t)
	secret := "JBSWY3DPEHPK3PXP"
	user := createTestUser(t, store, models.User{Email: "artist@example.com", TwoFAEnabled: true, TwoFASecret: &secret})

	rr := httptest.NewRecorder()
	h.ToggleTwoFA(rr, asUser(postForm("/security-settings/toggle-2fa", url.Values{}), user.ID))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), `id="qr-code"`) {
		t.Error("Disabling should not render a QR code")
	}

	updated, _ := store.FindUser(context.Background(), user.ID)
	if updated.TwoFAEnabled || updated.TwoFASecret != nil {
		t.Error("User should be disabled with no secret")
	}
}

func TestTwoFASetup_DisabledRedirects(t *testing.T) {
	h, store := setupTestHandler(t)
	user := createTestUser(t, store, models.User{Email: "artist@example.com"})

	rr := httptest.NewRecorder()
	h.TwoFASetup(rr, asUser(httptest.NewRequest("GET", "/twofa-setup", nil), user.ID))

	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/security-settings" {
		t.Errorf("Expected redirect to /security-settings, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestTwoFASetup_EnabledRendersQRCode(t *testing.T) {
	h, store := setupTestHandler(t)
	secret := "JBSWY3DPEHPK3PXP"
	user := createTestUser(t, store, models.User{Email: "artist@example.com", TwoFAEnabled: true, TwoFASecret: &secret})

	rr := httptest.NewRecorder()
	h.TwoFASetup(rr, asUser(httptest.NewRequest("GET", "/twofa-setup", nil), user.ID))

	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `id="qr-code"`) {
		t.Errorf("Expected QR code page, got %d", rr.Code)
	}

	updated, _ := store.FindUser(context.Background(), user.ID)
	if *updated.TwoFASecret != secret {
		t.Error("Setup page must not replace the secret")
	}
}

func TestVerifyTwoFA_ValidCode(t *testing.T) {
	h, store := setupTestHandler(t)
	secret := "JBSWY3DPEHPK3PXP"
	user := createTestUser(t, store, models.User{Email: "artist@example.com", TwoFAEnabled: true, TwoFASecret: &secret})

	code, _ := totp.GenerateCode(secret, time.Now())
	rr := httptest.NewRecorder()
	h.VerifyTwoFA(rr, asUser(postForm("/verify-2fa", url.Values{"token": {code}}), user.ID))

	if !strings.Contains(rr.Body.String(), "2FA verified successfully") {
		t.Errorf("Expected verified status, got %q", rr.Body.String())
	}
}

func TestVerifyTwoFA_InvalidCode(t *testing.T) {
	h, store := setupTestHandler(t)
	secret := "JBSWY3DPEHPK3PXP"
	user := createTestUser(t, store, models.User{Email: "artist@example.com", TwoFAEnabled: true, TwoFASecret: &secret})

	code, _ := totp.GenerateCode(secret, time.Now())
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	rr := httptest.NewRecorder()
	h.VerifyTwoFA(rr, asUser(postForm("/verify-2fa", url.Values{"token": {wrong}}), user.ID))

	if !strings.Contains(rr.Body.String(), "Verification failed") {
		t.Errorf("Expected failed status, got %q", rr.Body.String())
	}
}

func TestVerifyTwoFA_NotEnabled(t *testing.T) {
	h, store := setupTestHandler(t)
	user := createTestUser(t, store, models.User{Email: "artist@example.com"})

	rr := httptest.NewRecorder()
	h.VerifyTwoFA(rr, asUser(postForm("/verify-2fa", url.Values{"token": {"123456"}}), user.ID))

	if !strings.Contains(rr.Body.String(), "2FA not enabled") {
		t.Errorf("Expected not-enabled status, got %q", rr.Body.String())
	}
}

func TestVerifyTwoFA_MissingToken(t *testing.T) {
	h, store := setupTestHandler(t)
	user := createTestUser(t, store, models.User{Email: "artist@example.com"})

	rr := httptest.NewRecorder()
	h.VerifyTwoFA(rr, asUser(postForm("/verify-2fa", url.Values{}), user.ID))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without a token, got %d", rr.Code)
	}
}

type brokenStore struct{ database.Store }

func (brokenStore) ListDocuments(context.Context) ([]models.Document, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) FindUser(context.Context, string) (*models.User, error) {
	return nil, errors.New("connection refused")
}

func TestComplianceDocuments_StoreFailure(t *testing.T) {
	h, _ := setupTestHandler(t)
	h.Store = brokenStore{}

	rr := httptest.NewRecorder()
	h.ComplianceDocuments(rr, httptest.NewRequest("GET", "/compliance-documents", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "connection refused") {
		t.Error("Internal error details should not reach the caller")
	}
}

func TestComplianceDocuments_ListsAll(t *testing.T) {
	h, store := setupTestHandler(t)
	store.CreateDocument(context.Background(), &models.Document{Title: "Privacy Policy", URL: "/docs/privacy.pdf"})
	store.CreateDocument(context.Background(), &models.Document{Title: "Copyright Notice", URL: "/docs/copyright.pdf"})

	rr := httptest.NewRecorder()
	h.ComplianceDocuments(rr, httptest.NewRequest("GET", "/compliance-documents", nil))

	body := rr.Body.String()
	if rr.Code != http.StatusOK || !strings.Contains(body, "Privacy Policy") || !strings.Contains(body, "Copyright Notice") {
		t.Errorf("Expected both documents, got %d %q", rr.Code, body)
	}
}

func TestSecuritySettings_StoreFailure(t *testing.T) {
	h, _ := setupTestHandler(t)
	h.Security = security.NewService(brokenStore{}, security.NewTOTP("Art Platform", 1), security.QREncoder{Size: 200})

	rr := httptest.NewRecorder()
	h.SecuritySettings(rr, asUser(httptest.NewRequest("GET", "/security-settings", nil), "u1"))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rr.Code)
	}
	if rr.Body.String() != "Internal Server Error\n" {
		t.Errorf("Expected generic body, got %q", rr.Body.String())
	}
}
