package security

import "errors"

var (
	// ErrValidation marks a request missing a required input.
	ErrValidation = errors.New("validation failed")
	// ErrUserNotFound is returned when no user matches the given id.
	ErrUserNotFound = errors.New("user not found")
	// ErrInconsistentState is returned for a user marked enabled without a secret.
	ErrInconsistentState = errors.New("2FA enabled without a secret")
)
