// Package accounts holds the credential rules shared by registration and seeding.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"unicode"

	"art-platform/backend/models"

	"golang.org/x/crypto/bcrypt"
)

// Creator is the part of the store needed to add a user.
type Creator interface {
	CreateUser(ctx context.Context, user *models.User) error
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail reports whether email looks like a deliverable address.
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePassword requires 8+ characters with upper, lower, digit and special characters.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("Password must be at least 8 characters")
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return errors.New("Password needs upper and lower case letters, a number and a special character")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hashed), err
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Create stores a new user with a hashed password and 2FA off.
func Create(ctx context.Context, store Creator, email, password string) (*models.User, error) {
	hashed, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{Email: email, Password: hashed}
	if err := store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
