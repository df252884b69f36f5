package authcore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/mail"
	"github.com/MrEthical07/authcore/token"
)

// Config is the complete engine configuration. Start from [DefaultConfig]
// and override fields; [Builder.Build] validates the result.
type Config struct {
	Tokens        TokensConfig
	Password      PasswordConfig
	Factor        FactorConfig
	PasswordReset PasswordResetConfig
	Security      SecurityConfig
	Session       SessionConfig
	Links         LinksConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

/*
====================================
TOKENS CONFIG
====================================
*/

// TokensConfig controls verification and reset token issuance.
type TokensConfig struct {
	// SigningMethod is "hs256" (default) or "ed25519".
	SigningMethod string
	// VerificationSecret is the HS256 key, or the Ed25519 private key.
	VerificationSecret []byte
	// VerificationPublicKey is required for Ed25519.
	VerificationPublicKey []byte
	VerificationTTL       time.Duration
	ResetTTL              time.Duration
	Issuer                string
	Leeway                time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id parameters and the length policy.
type PasswordConfig struct {
	Memory           uint32 // in KB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MinLength        int
	MaxPasswordBytes int
}

/*
====================================
FACTOR CONFIG
====================================
*/

// FactorConfig controls TOTP enrollment and the pending second-factor context.
type FactorConfig struct {
	Issuer string
	// Window is the number of 30s steps accepted either side of now.
	Window      uint
	PendingTTL  time.Duration
	MaxAttempts int
	// EnforceReplayProtection rejects a code whose time step was already
	// accepted for the same account.
	EnforceReplayProtection bool
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

// PasswordResetConfig controls reset request disclosure and throttling.
type PasswordResetConfig struct {
	// RevealUnknownAccount makes RequestPasswordReset return ErrNoSuchAccount
	// for unknown emails instead of a uniform success.
	RevealUnknownAccount bool
	MaxRequests          int
	RequestWindow        time.Duration
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls the failed-login throttle.
type SecurityConfig struct {
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the Redis session store.
type SessionConfig struct {
	TTL         time.Duration
	RedisPrefix string
}

// LinksConfig is the fallback origin for mailed links when the request
// origin is not attached to the context.
type LinksConfig struct {
	BaseURL string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns production defaults. VerificationSecret is left
// empty and must be supplied.
func DefaultConfig() Config {
	return Config{
		Tokens: TokensConfig{
			SigningMethod:   string(token.MethodHS256),
			VerificationTTL: 24 * time.Hour,
			ResetTTL:        time.Hour,
			Issuer:          "authcore",
		},
		Password: PasswordConfig{
			Memory:           65536,
			Time:             3,
			Parallelism:      2,
			SaltLength:       16,
			KeyLength:        32,
			MinLength:        6,
			MaxPasswordBytes: 1024,
		},
		Factor: FactorConfig{
			Issuer:      "SecureApp",
			Window:      1,
			PendingTTL:  10 * time.Minute,
			MaxAttempts: 5,
		},
		PasswordReset: PasswordResetConfig{
			MaxRequests:   5,
			RequestWindow: time.Hour,
		},
		Security: SecurityConfig{
			EnableIPThrottle:      true,
			MaxLoginAttempts:      10,
			LoginCooldownDuration: 15 * time.Minute,
		},
		Session: SessionConfig{
			TTL:         24 * time.Hour,
			RedisPrefix: "authcore",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Tokens.VerificationSecret = cloneBytes(cfg.Tokens.VerificationSecret)
	out.Tokens.VerificationPublicKey = cloneBytes(cfg.Tokens.VerificationPublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate returns the first invalid field it finds. It checks shape only;
// key material is parsed again when the token codec is built.
func (c *Config) Validate() error {
	// Tokens
	switch token.SigningMethod(c.Tokens.SigningMethod) {
	case token.MethodHS256:
		if len(c.Tokens.VerificationSecret) < 32 {
			return errors.New("Tokens VerificationSecret must be at least 32 bytes for hs256")
		}
	case token.MethodEd25519:
		if len(c.Tokens.VerificationSecret) == 0 || len(c.Tokens.VerificationPublicKey) == 0 {
			return errors.New("ed25519 requires VerificationSecret and VerificationPublicKey")
		}
	default:
		return fmt.Errorf("unsupported Tokens SigningMethod %q", c.Tokens.SigningMethod)
	}
	if c.Tokens.VerificationTTL <= 0 {
		return errors.New("Tokens VerificationTTL must be > 0")
	}
	if c.Tokens.ResetTTL <= 0 {
		return errors.New("Tokens ResetTTL must be > 0")
	}
	if c.Tokens.Leeway < 0 || c.Tokens.Leeway > 2*time.Minute {
		return errors.New("Tokens Leeway must be between 0 and 2m")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}
	if c.Password.MaxPasswordBytes < c.Password.MinLength {
		return errors.New("Password MaxPasswordBytes must be >= MinLength")
	}

	// Factor
	if strings.TrimSpace(c.Factor.Issuer) == "" {
		return errors.New("Factor Issuer must not be empty")
	}
	if c.Factor.Window > 10 {
		return errors.New("Factor Window must be <= 10")
	}
	if c.Factor.PendingTTL <= 0 {
		return errors.New("Factor PendingTTL must be > 0")
	}
	if c.Factor.MaxAttempts <= 0 || c.Factor.MaxAttempts > 255 {
		return errors.New("Factor MaxAttempts must be between 1 and 255")
	}

	// Password reset
	if c.PasswordReset.MaxRequests < 0 {
		return errors.New("PasswordReset MaxRequests must be >= 0")
	}
	if c.PasswordReset.MaxRequests > 0 && c.PasswordReset.RequestWindow <= 0 {
		return errors.New("PasswordReset RequestWindow must be > 0 when MaxRequests is set")
	}

	// Security
	if c.Security.MaxLoginAttempts < 0 {
		return errors.New("Security MaxLoginAttempts must be >= 0")
	}
	if c.Security.MaxLoginAttempts > 0 && c.Security.LoginCooldownDuration <= 0 {
		return errors.New("Security LoginCooldownDuration must be > 0 when MaxLoginAttempts is set")
	}

	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}

	// Links
	if c.Links.BaseURL != "" {
		if _, err := mail.ParseOrigin(c.Links.BaseURL); err != nil {
			return fmt.Errorf("Links BaseURL: %v", err)
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
