package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the verification token algorithm.
type SigningMethod string

const (
	// MethodHS256 signs with a shared secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 private key.
	MethodEd25519 SigningMethod = "ed25519"

	// PurposeEmailVerification marks tokens that prove control of an email address.
	PurposeEmailVerification = "email_verification"

	minHMACKeyBytes = 32
)

// CodecConfig configures a Codec.
type CodecConfig struct {
	SigningMethod SigningMethod
	// PrivateKey is the HMAC secret for HS256, or an Ed25519 private key
	// (raw 64 bytes or PEM) for Ed25519.
	PrivateKey []byte
	// PublicKey is required for Ed25519 and ignored for HS256.
	PublicKey []byte
	TTL       time.Duration
	Issuer    string
	Leeway    time.Duration
}

// Codec signs and redeems email verification tokens.
type Codec struct {
	config CodecConfig
	now    func() time.Time
}

type verificationClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// NewCodec validates cfg.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("token: verification TTL must be > 0")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("token: invalid leeway")
	}
	switch cfg.SigningMethod {
	case MethodHS256, "":
		cfg.SigningMethod = MethodHS256
		if len(cfg.PrivateKey) < minHMACKeyBytes {
			return nil, fmt.Errorf("token: hs256 secret must be at least %d bytes", minHMACKeyBytes)
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("token: unsupported signing method %q", cfg.SigningMethod)
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)

	return &Codec{config: cfg, now: time.Now}, nil
}

// IssueVerification signs a token binding accountID to email verification.
func (c *Codec) IssueVerification(accountID string) (SelfContained, error) {
	if accountID == "" {
		return SelfContained{}, errors.New("token: empty account id")
	}
	now := c.now()
	exp := now.Add(c.config.TTL)

	claims := verificationClaims{
		Purpose: PurposeEmailVerification,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    c.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	key, err := c.signKey()
	if err != nil {
		return SelfContained{}, err
	}
	signed, err := jwt.NewWithClaims(c.method(), claims).SignedString(key)
	if err != nil {
		return SelfContained{}, err
	}
	return SelfContained{SignedPayload: signed, ExpiresAt: exp}, nil
}

// RedeemVerification returns the account id embedded in raw. Every failure
// is reported as ErrInvalid wrapping the cause.
func (c *Codec) RedeemVerification(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalid
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	claims := &verificationClaims{}
	parsed, err := jwt.NewParser(options...).ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return c.verifyKey()
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !parsed.Valid || claims.Purpose != PurposeEmailVerification || claims.Subject == "" {
		return "", ErrInvalid
	}
	return claims.Subject, nil
}

func (c *Codec) method() jwt.SigningMethod {
	if c.config.SigningMethod == MethodEd25519 {
		return jwt.SigningMethodEdDSA
	}
	return jwt.SigningMethodHS256
}

func (c *Codec) signKey() (interface{}, error) {
	if c.config.SigningMethod == MethodEd25519 {
		return parseEdPrivateKey(c.config.PrivateKey)
	}
	return c.config.PrivateKey, nil
}

func (c *Codec) verifyKey() (interface{}, error) {
	if c.config.SigningMethod == MethodEd25519 {
		return parseEdPublicKey(c.config.PublicKey)
	}
	return c.config.PrivateKey, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("token: invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("token: invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("token: invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("token: invalid ed25519 public key type")
	}
	return edKey, nil
}
