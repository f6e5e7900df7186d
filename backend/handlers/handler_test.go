package handlers

import (
	"context"
	"net/http"
	"testing"

	"art-platform/backend/database"
	"art-platform/backend/middleware"
	"art-platform/backend/models"
	"art-platform/backend/security"

	"github.com/gorilla/sessions"
)

func setupTestHandler(t *testing.T) (*Handler, *database.GormStore) {
	t.Helper()
	store, err := database.OpenGorm("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	svc := security.NewService(store, security.NewTOTP("Art Platform", 1), security.QREncoder{Size: 200})
	cookies := sessions.NewCookieStore([]byte("test-secret-key-32-chars-long!!!"))
	cookies.Options = &sessions.Options{Path: "/", MaxAge: 3600, HttpOnly: true}

	return New(store, svc, cookies), store
}

func createTestUser(t *testing.T, store *database.GormStore, user models.User) *models.User {
	t.Helper()
	if err := store.CreateUser(context.Background(), &user); err != nil {
		t.Fatal(err)
	}
	return &user
}

// asUser attaches the identity RequireUser would resolve from the session.
func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}
