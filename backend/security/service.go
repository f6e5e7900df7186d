// Package security implements the account two-factor flow: enrolling a TOTP
// secret, turning it off again and checking submitted codes.
package security

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"art-platform/backend/database"
	"art-platform/backend/metrics"
	"art-platform/backend/models"
)

// VerifyStatus is the message shown after a code is submitted.
type VerifyStatus string

const (
	StatusVerified   VerifyStatus = "2FA verified successfully"
	StatusFailed     VerifyStatus = "Verification failed"
	StatusNotEnabled VerifyStatus = "2FA not enabled"
)

// UserStore is the part of the record store the flow needs.
type UserStore interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
}

// ToggleResult is either Disabled or Enabled.
type ToggleResult interface {
	toggleResult()
}

// Disabled means 2FA was switched off and the secret removed.
type Disabled struct{}

// Enabled means a new secret was issued. The values belong to this response
// only; they are never reconstructed from an earlier toggle.
type Enabled struct {
	ProvisioningURI string
	QRCode          string // data URL
}

func (Disabled) toggleResult() {}
func (Enabled) toggleResult()  {}

// SetupView is what the setup page shows for an enrolled user.
type SetupView struct {
	Enabled         bool
	ProvisioningURI string
	QRCode          string
}

type Service struct {
	users    UserStore
	provider Provider
	qr       QREncoder
}

func NewService(users UserStore, provider Provider, qr QREncoder) *Service {
	return &Service{users: users, provider: provider, qr: qr}
}

func (s *Service) loadUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrValidation)
	}
	user, err := s.users.FindUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	return user, nil
}

// Status reports whether the user has 2FA turned on.
func (s *Service) Status(ctx context.Context, userID string) (bool, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.TwoFAEnabled, nil
}

// ToggleTwoFA flips the user's 2FA state. Turning it on issues a new secret
// and renders its QR code before anything is saved.
func (s *Service) ToggleTwoFA(ctx context.Context, userID string) (ToggleResult, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.TwoFAEnabled {
		user.TwoFAEnabled = false
		user.TwoFASecret = nil
		if err := s.users.SaveUser(ctx, user); err != nil {
			return nil, fmt.Errorf("save user %s: %w", userID, err)
		}
		metrics.TwoFATogglesTotal.WithLabelValues("disabled").Inc()
		slog.Info("2FA disabled", "source", "twofa", "user_id", user.ID)
		return Disabled{}, nil
	}

	key, err := s.provider.Generate(user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	qrCode, err := s.qr.DataURL(key)
	if err != nil {
		return nil, err
	}

	secret := key.Secret()
	user.TwoFASecret = &secret
	user.TwoFAEnabled = true
	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save user %s: %w", userID, err)
	}

	metrics.TwoFATogglesTotal.WithLabelValues("enabled").Inc()
	slog.Info("2FA enabled", "source", "twofa", "user_id", user.ID)
	return Enabled{ProvisioningURI: key.URL(), QRCode: qrCode}, nil
}

// GetSetupView re-renders the stored secret for an enrolled user. It never
// issues a new secret; a disabled user gets a view with Enabled false.
func (s *Service) GetSetupView(ctx context.Context, userID string) (SetupView, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return SetupView{}, err
	}
	if !user.TwoFAEnabled {
		return SetupView{}, nil
	}
	if user.TwoFASecret == nil {
		return SetupView{}, fmt.Errorf("%w: user %s", ErrInconsistentState, user.ID)
	}

	key, err := s.provider.KeyFor(user.Email, *user.TwoFASecret)
	if err != nil {
		return SetupView{}, err
	}
	qrCode, err := s.qr.DataURL(key)
	if err != nil {
		return SetupView{}, err
	}
	return SetupView{Enabled: true, ProvisioningURI: key.URL(), QRCode: qrCode}, nil
}

// VerifyCode checks token against the user's secret. It is read-only.
func (s *Service) VerifyCode(ctx context.Context, userID, token string) (VerifyStatus, error) {
	if userID == "" || token == "" {
		return "", fmt.Errorf("%w: user ID and token are required", ErrValidation)
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return "", err
	}

	if !user.TwoFAEnabled || user.TwoFASecret == nil {
		metrics.TwoFAVerificationsTotal.WithLabelValues("not_enabled").Inc()
		return StatusNotEnabled, nil
	}

	if !s.provider.Validate(token, *user.TwoFASecret) {
		metrics.TwoFAVerificationsTotal.WithLabelValues("failed").Inc()
		slog.Warn("2FA verification failed", "source", "twofa", "user_id", user.ID)
		return StatusFailed, nil
	}

	metrics.TwoFAVerificationsTotal.WithLabelValues("verified").Inc()
	slog.Info("2FA verified", "source", "twofa", "user_id", user.ID)
	return StatusVerified, nil
}
