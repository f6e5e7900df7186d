package security

import (
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Provider issues TOTP keys and checks submitted codes.
type Provider interface {
	// Generate creates a key with a fresh random secret.
	Generate(accountName string) (*otp.Key, error)
	// KeyFor rebuilds the key for an existing base32 secret.
	KeyFor(accountName, secret string) (*otp.Key, error)
	// Validate reports whether code matches secret at the current time step.
	Validate(code, secret string) bool
}

// TOTP is the RFC 6238 provider: 30 second steps, six digits, SHA1.
type TOTP struct {
	Issuer string
	Skew   uint

	now func() time.Time
}

func NewTOTP(issuer string, skew uint) *TOTP {
	return &TOTP{Issuer: issuer, Skew: skew, now: time.Now}
}

func (p *TOTP) opts(accountName string, secret []byte) totp.GenerateOpts {
	return totp.GenerateOpts{
		Issuer:      p.Issuer,
		AccountName: accountName,
		Period:      30,
		Secret:      secret,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	}
}

func (p *TOTP) Generate(accountName string) (*otp.Key, error) {
	return totp.Generate(p.opts(accountName, nil))
}

func (p *TOTP) KeyFor(accountName, secret string) (*otp.Key, error) {
	raw, err := decodeSecret(secret)
	if err != nil {
		return nil, err
	}
	return totp.Generate(p.opts(accountName, raw))
}

func (p *TOTP) Validate(code, secret string) bool {
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	ok, err := totp.ValidateCustom(code, secret, now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      p.Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

func decodeSecret(secret string) ([]byte, error) {
	s := strings.ToUpper(strings.TrimRight(strings.TrimSpace(secret), "="))
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode totp secret: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("decode totp secret: empty")
	}
	return raw, nil
}
