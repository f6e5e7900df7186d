package accounts

import (
	"context"
	"testing"

	"art-platform/backend/models"
)

func TestValidatePassword_TooShort(t *testing.T) {
	if err := ValidatePassword("Short1!"); err == nil {
		t.Error("Password under 8 chars should be rejected")
	}
}

func TestValidatePassword_NoUppercase(t *testing.T) {
	if err := ValidatePassword("password1!"); err == nil {
		t.Error("Password without uppercase should be rejected")
	}
}

func TestValidatePassword_NoNumber(t *testing.T) {
	if err := ValidatePassword("Password!"); err == nil {
		t.Error("Password without number should be rejected")
	}
}

func TestValidatePassword_NoSpecialChar(t *testing.T) {
	if err := ValidatePassword("Password1"); err == nil {
		t.Error("Password without special char should be rejected")
	}
}

func TestValidatePassword_Valid(t *testing.T) {
	if err := ValidatePassword("Password1!"); err != nil {
		t.Errorf("Valid password should be accepted, got error: %v", err)
	}
}

func TestValidateEmail_Invalid(t *testing.T) {
	invalidEmails := []string{
		"notanemail",
		"missing@domain",
		"@nodomain.com",
		"spaces in@email.com",
		"",
	}

	for _, email := range invalidEmails {
		if ValidateEmail(email) {
			t.Errorf("Email %q should be invalid", email)
		}
	}
}

func TestValidateEmail_Valid(t *testing.T) {
	validEmails := []string{
		"user@example.com",
		"user.name@example.com",
		"user+tag@example.co.uk",
	}

	for _, email := range validEmails {
		if !ValidateEmail(email) {
			t.Errorf("Email %q should be valid", email)
		}
	}
}

type captureStore struct{ created *models.User }

func (c *captureStore) CreateUser(ctx context.Context, user *models.User) error {
	c.created = user
	return nil
}

func TestCreate_HashesPassword(t *testing.T) {
	store := &captureStore{}

	user, err := Create(context.Background(), store, "artist@example.com", "Password1!")
	if err != nil {
		t.Fatal(err)
	}
	if store.created != user {
		t.Fatal("Create should hand the user to the store")
	}
	if user.Password == "Password1!" {
		t.Error("Password must not be stored in plain text")
	}
	if !CheckPassword(user.Password, "Password1!") {
		t.Error("Stored hash should match the password")
	}
	if CheckPassword(user.Password, "Password2!") {
		t.Error("Stored hash should not match another password")
	}
	if user.TwoFAEnabled || user.TwoFASecret != nil {
		t.Error("New accounts start with 2FA off")
	}
}
