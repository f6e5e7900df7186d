package security

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/pquerna/otp"
)

// QREncoder renders provisioning URIs as images an authenticator app can scan.
type QREncoder struct {
	Size int
}

// DataURL returns the key's provisioning URI as a base64 PNG data URL.
func (e QREncoder) DataURL(key *otp.Key) (string, error) {
	img, err := key.Image(e.Size, e.Size)
	if err != nil {
		return "", fmt.Errorf("render qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
