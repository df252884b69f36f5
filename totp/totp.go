// Package totp generates second-factor secrets and verifies time-based
// one-time codes (RFC 6238) on top of github.com/pquerna/otp.
package totp

import (
	"bytes"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// DefaultIssuer labels provisioning URIs when Config.Issuer is empty.
	DefaultIssuer = "SecureApp"
	// DefaultPeriod is the time step in seconds.
	DefaultPeriod = 30
	// DefaultWindow is the number of steps accepted on each side of the current one.
	DefaultWindow = 1

	qrSize = 200
)

// ErrInvalidSecret is returned when a stored secret is not valid base32.
var ErrInvalidSecret = errors.New("invalid totp secret")

// Config controls code shape and tolerance.
type Config struct {
	Issuer string
	Period uint
	Window uint
	Digits otp.Digits
}

// Provision is what a user needs to enroll an authenticator app.
type Provision struct {
	Secret string // base32, unpadded
	URI    string // otpauth://totp/...
	// QRCode is a PNG data URL rendering of URI.
	QRCode string
}

// Generator issues secrets and checks codes.
type Generator struct {
	cfg Config
}

// New returns a Generator, filling zero fields with defaults.
func New(cfg Config) *Generator {
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Period == 0 {
		cfg.Period = DefaultPeriod
	}
	if cfg.Digits == 0 {
		cfg.Digits = otp.DigitsSix
	}
	return &Generator{cfg: cfg}
}

// Window returns the configured step tolerance.
func (g *Generator) Window() uint { return g.cfg.Window }

// GenerateSecret creates a fresh random secret for account and renders its
// provisioning URI and QR code.
func (g *Generator) GenerateSecret(account string) (*Provision, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      g.cfg.Issuer,
		AccountName: account,
		Period:      g.cfg.Period,
		Digits:      g.cfg.Digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}

	img, err := key.Image(qrSize, qrSize)
	if err != nil {
		return nil, fmt.Errorf("render totp qr: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode totp qr: %w", err)
	}

	return &Provision{
		Secret: key.Secret(),
		URI:    key.URL(),
		QRCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// Verify checks code against secret at now, accepting Window steps either
// side. On success it returns the matched step counter so callers can reject
// replays. Malformed codes are a plain mismatch, not an error.
func (g *Generator) Verify(secret, code string, now time.Time) (bool, int64, error) {
	code = strings.TrimSpace(code)
	if len(code) != g.cfg.Digits.Length() || !isNumeric(code) {
		return false, 0, nil
	}
	if _, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(strings.TrimRight(secret, "="))); err != nil || secret == "" {
		return false, 0, ErrInvalidSecret
	}

	period := int64(g.cfg.Period)
	base := now.Unix() / period
	window := int64(g.cfg.Window)

	matched := int64(-1)
	for offset := -window; offset <= window; offset++ {
		step := base + offset
		if step < 0 {
			continue
		}
		expected, err := totp.GenerateCodeCustom(secret, time.Unix(step*period, 0).UTC(), totp.ValidateOpts{
			Period:    g.cfg.Period,
			Digits:    g.cfg.Digits,
			Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil {
			return false, 0, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
		}
		// Every candidate is compared so timing does not reveal which step matched.
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 && matched < 0 {
			matched = step
		}
	}
	if matched < 0 {
		return false, 0, nil
	}
	return true, matched, nil
}

// Code returns the code for secret at t. It exists for tests and tooling.
func (g *Generator) Code(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t, totp.ValidateOpts{
		Period:    g.cfg.Period,
		Digits:    g.cfg.Digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}

func isNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
