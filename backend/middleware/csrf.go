package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
)

const csrfCookie = "_csrf"

type csrfTokenKey struct{}

// CSRFToken returns the token forms should echo back in their _csrf field.
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfTokenKey{}).(string)
	return token
}

// CSRFProtection implements the double-submit cookie pattern with signed tokens.
type CSRFProtection struct {
	secret []byte
	secure bool
}

// NewCSRFProtection creates a new CSRF protection middleware. secure controls
// the cookie's Secure flag and should follow the TLS setting.
func NewCSRFProtection(secret string, secure bool) *CSRFProtection {
	return &CSRFProtection{secret: []byte(secret), secure: secure}
}

func (c *CSRFProtection) sign(randomBytes []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(randomBytes)
	return mac.Sum(nil)
}

func (c *CSRFProtection) generateToken() (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	token := append(randomBytes, c.sign(randomBytes)...)
	return base64.URLEncoding.EncodeToString(token), nil
}

func (c *CSRFProtection) validateToken(token string) bool {
	if token == "" {
		return false
	}

	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil || len(decoded) != 64 {
		return false
	}

	return hmac.Equal(decoded[32:], c.sign(decoded[:32]))
}

// Protect wraps a handler with CSRF protection. Safe methods get a token
// cookie (and the token in the request context); other methods must echo the
// cookie in the _csrf form field or the X-CSRF-Token header.
func (c *CSRFProtection) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, cookieErr := r.Cookie(csrfCookie)

		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			token := ""
			if cookieErr == nil && c.validateToken(cookie.Value) {
				token = cookie.Value
			} else {
				var err error
				if token, err = c.generateToken(); err != nil {
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     csrfCookie,
					Value:    token,
					Path:     "/",
					HttpOnly: false, // scripts may send it as a header
					SameSite: http.SameSiteStrictMode,
					Secure:   c.secure,
				})
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, token)))
			return
		}

		if cookieErr != nil {
			http.Error(w, "CSRF token missing", http.StatusForbidden)
			return
		}

		formToken := r.FormValue(csrfCookie)
		if formToken == "" {
			formToken = r.Header.Get("X-CSRF-Token")
		}

		if !hmac.Equal([]byte(formToken), []byte(cookie.Value)) || !c.validateToken(formToken) {
			http.Error(w, "CSRF token invalid", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, cookie.Value)))
	})
}
