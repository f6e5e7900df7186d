package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	// SessionName is the cookie holding the signed session.
	SessionName = "session"
	// SessionUserKey is the session value holding the signed-in user's id.
	SessionUserKey = "user_id"
)

type userIDKey struct{}

// WithUserID returns a copy of ctx carrying the acting user's id.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// UserID returns the acting user's id, or "" when the request has none.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// SessionUserID reads the user id from the signed session cookie.
func SessionUserID(store sessions.Store, r *http.Request) string {
	session, err := store.Get(r, SessionName)
	if err != nil {
		return ""
	}
	id, _ := session.Values[SessionUserKey].(string)
	return id
}

// RequireUser resolves the acting user from the session. Requests without one
// are rejected with 400 because the account operations cannot proceed
// without an identity.
func RequireUser(store sessions.Store, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := SessionUserID(store, r)
		if id == "" {
			http.Error(w, "User ID is required", http.StatusBadRequest)
			return
		}
		next(w, r.WithContext(WithUserID(r.Context(), id)))
	}
}
