package main

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"art-platform/backend/config"
	"art-platform/backend/database"
	"art-platform/backend/handlers"
	"art-platform/backend/models"
	"art-platform/backend/security"

	"github.com/pquerna/otp/totp"
)

type testApp struct {
	server *httptest.Server
	store  *database.GormStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	c := config.Defaults()
	c.Session.Secret = "test-secret-key-32-chars-long!!!"

	store, err := database.OpenGorm("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	sessionStore, err := handlers.NewSessionStore(c)
	if err != nil {
		t.Fatal(err)
	}
	svc := security.NewService(store, security.NewTOTP(c.TwoFA.Issuer, c.TwoFA.Skew), security.QREncoder{Size: c.TwoFA.QRSize})

	ctx, cancel := context.WithCancel(context.Background())
	server := httptest.NewServer(routes(ctx, handlers.New(store, svc, sessionStore), sessionStore, c))
	t.Cleanup(func() {
		server.Close()
		cancel()
		store.Close()
	})
	return &testApp{server: server, store: store}
}

// browser keeps cookies and does not follow redirects.
type browser struct {
	t      *testing.T
	app    *testApp
	client *http.Client
}

func (a *testApp) browser(t *testing.T) *browser {
	jar, _ := cookiejar.New(nil)
	return &browser{
		t:   t,
		app: a,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.Do(req)
	if err != nil {
		b.t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (b *browser) get(path string) (*http.Response, string) {
	req, _ := http.NewRequest("GET", b.app.server.URL+path, nil)
	return b.do(req)
}

func (b *browser) csrfToken() string {
	u, _ := url.Parse(b.app.server.URL)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == "_csrf" {
			return c.Value
		}
	}
	return ""
}

func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	if form == nil {
		form = url.Values{}
	}
	if b.csrfToken() == "" {
		b.get("/login")
	}
	form.Set("_csrf", b.csrfToken())
	req, _ := http.NewRequest("POST", b.app.server.URL+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) register(email string) *models.User {
	b.t.Helper()
	resp, body := b.post("/register", url.Values{"email": {email}, "password": {"Password1!"}})
	if resp.StatusCode != http.StatusSeeOther {
		b.t.Fatalf("register: expected 303, got %d: %s", resp.StatusCode, body)
	}
	user, err := b.app.store.FindUserByEmail(context.Background(), email)
	if err != nil {
		b.t.Fatal(err)
	}
	return user
}

func TestScenario_EnableVerifyDisableVerify(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)
	user := b.register("artist@example.com")

	resp, body := b.post("/security-settings/toggle-2fa", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "data:image/png;base64,") {
		t.Fatalf("Enabling should render a QR code, got %d", resp.StatusCode)
	}

	enrolled, _ := app.store.FindUser(context.Background(), user.ID)
	if !enrolled.TwoFAEnabled || enrolled.TwoFASecret == nil {
		t.Fatal("User should be enabled with a secret")
	}

	code, _ := totp.GenerateCode(*enrolled.TwoFASecret, time.Now())
	_, body = b.post("/verify-2fa", url.Values{"token": {code}})
	if !strings.Contains(body, "2FA verified successfully") {
		t.Errorf("Expected verified status, got %q", body)
	}

	_, body = b.post("/security-settings/toggle-2fa", nil)
	if strings.Contains(body, `id="qr-code"`) {
		t.Error("Disabling should not render a QR code")
	}
	disabled, _ := app.store.FindUser(context.Background(), user.ID)
	if disabled.TwoFAEnabled || disabled.TwoFASecret != nil {
		t.Error("User should be disabled with the secret cleared")
	}

	_, body = b.post("/verify-2fa", url.Values{"token": {"anything"}})
	if !strings.Contains(body, "2FA not enabled") {
		t.Errorf("Expected not-enabled status, got %q", body)
	}
}

func TestScenario_SettingsWithoutIdentity(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)

	resp, _ := b.get("/security-settings")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 without identity, got %d", resp.StatusCode)
	}

	resp, _ = b.get("/security-settings?userId=someone")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("A raw userId parameter must not be accepted, got %d", resp.StatusCode)
	}
}

func TestScenario_SetupPageRedirectsWhenDisabled(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)
	b.register("artist@example.com")

	resp, _ := b.get("/twofa-setup")
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/security-settings" {
		t.Errorf("Expected redirect to settings, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestScenario_ComplianceDocuments(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)

	resp, body := b.get("/compliance-documents")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "No documents have been published yet.") {
		t.Errorf("Empty list should render, got %d", resp.StatusCode)
	}

	app.store.CreateDocument(context.Background(), &models.Document{Title: "Privacy Policy", URL: "/docs/privacy.pdf"})
	app.store.CreateDocument(context.Background(), &models.Document{Title: "Artist Agreement", URL: "/docs/artist-agreement.pdf"})

	resp, body = b.get("/compliance-documents")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `data-count="2"`) || !strings.Contains(body, "Privacy Policy") || !strings.Contains(body, "Artist Agreement") {
		t.Errorf("Expected exactly the stored documents, got %q", body)
	}
}

func TestScenario_PostWithoutCSRFIsRejected(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)
	b.register("artist@example.com")

	req, _ := http.NewRequest("POST", app.server.URL+"/security-settings/toggle-2fa", nil)
	u, _ := url.Parse(app.server.URL)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == "_csrf" {
			continue
		}
		req.AddCookie(c)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 without CSRF token, got %d", resp.StatusCode)
	}
}

func TestScenario_HealthAndLanding(t *testing.T) {
	app := newTestApp(t)
	b := app.browser(t)

	resp, body := b.get("/health")
	if resp.StatusCode != http.StatusOK || body != "ok" {
		t.Errorf("Unexpected health response %d %q", resp.StatusCode, body)
	}

	resp, _ = b.get("/")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("X-Frame-Options") != "DENY" {
		t.Errorf("Landing page should render with security headers, got %d", resp.StatusCode)
	}

	resp, _ = b.get("/no-such-page")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Unknown paths should 404, got %d", resp.StatusCode)
	}
}
