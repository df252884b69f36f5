// Package config loads the authcore-server settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/store/gormstore"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath         = "CONFIG_PATH"
	EnvVerificationSecret = "AUTHCORE_VERIFICATION_SECRET"
	EnvDBConnection       = "DB_CONNECTION"
	EnvRedisAddr          = "REDIS_ADDR"
	EnvResendAPIKey       = "RESEND_API_KEY"
)

// ErrMissingSecret indicates neither the file nor the environment set a
// verification secret.
var ErrMissingSecret = errors.New("missing verification secret (set `auth.verification-secret` or " + EnvVerificationSecret + ")")

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Listen        string `yaml:"listen"`
	SecureCookies bool   `yaml:"secure-cookies"`
	Metrics       bool   `yaml:"metrics"`
}

// DatabaseConfig selects the account store.
type DatabaseConfig struct {
	Dialect string `yaml:"dialect"`
	DSN     string `yaml:"dsn"`
}

// RedisConfig points at the session and throttle backend. An empty Addr
// runs an in-process Redis, which is only suitable for development.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MailConfig selects the mail sender. Without an API key mail is logged.
type MailConfig struct {
	From         string `yaml:"from"`
	ResendAPIKey string `yaml:"resend-api-key"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// AuthConfig is the file form of the engine settings. Zero values keep
// the engine defaults.
type AuthConfig struct {
	BaseURL              string        `yaml:"base-url"`
	VerificationSecret   string        `yaml:"verification-secret"`
	VerificationTTL      time.Duration `yaml:"verification-ttl"`
	ResetTTL             time.Duration `yaml:"reset-ttl"`
	SessionTTL           time.Duration `yaml:"session-ttl"`
	RedisPrefix          string        `yaml:"redis-prefix"`
	MinPasswordLength    int           `yaml:"min-password-length"`
	TOTPIssuer           string        `yaml:"totp-issuer"`
	TOTPReplayProtection bool          `yaml:"totp-replay-protection"`
	RevealUnknownAccount bool          `yaml:"reveal-unknown-account"`
	MaxLoginAttempts     *int          `yaml:"max-login-attempts"`
	LoginCooldown        time.Duration `yaml:"login-cooldown"`
	AuditLog             bool          `yaml:"audit-log"`
}

// Config is the resolved server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Mail     MailConfig     `yaml:"mail"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
}

// Default returns the settings used for keys the file leaves out.
func Default() Config {
	return Config{
		Server: ServerConfig{Listen: ":3000", Metrics: true},
		Database: DatabaseConfig{
			Dialect: gormstore.DialectSQLite,
			DSN:     "authcore.db",
		},
		Mail: MailConfig{From: "SecureApp <no-reply@localhost>"},
		Log:  LogConfig{Level: "info"},
		Auth: AuthConfig{BaseURL: "http://localhost:3000"},
	}
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// Load reads path over [Default] and applies environment overrides. A
// missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return Config{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	applyEnv(&cfg)

	if strings.TrimSpace(cfg.Auth.VerificationSecret) == "" {
		return Config{}, ErrMissingSecret
	}
	cfg.Database.Dialect = detectDialect(cfg.Database.Dialect, cfg.Database.DSN)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvVerificationSecret)); v != "" {
		cfg.Auth.VerificationSecret = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDBConnection)); v != "" {
		cfg.Database.DSN = v
		cfg.Database.Dialect = ""
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisAddr)); v != "" {
		cfg.Redis.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvResendAPIKey)); v != "" {
		cfg.Mail.ResendAPIKey = v
	}
}

// detectDialect keeps an explicit dialect and otherwise infers postgres
// from a URL or key=value DSN.
func detectDialect(dialect, dsn string) string {
	if dialect != "" {
		return dialect
	}
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") || strings.Contains(lower, "host=") {
		return gormstore.DialectPostgres
	}
	return gormstore.DialectSQLite
}

// Engine converts the auth section into a validated engine configuration.
func (c Config) Engine() (authcore.Config, error) {
	out := authcore.DefaultConfig()
	a := c.Auth

	out.Tokens.VerificationSecret = []byte(a.VerificationSecret)
	out.Links.BaseURL = a.BaseURL
	if a.VerificationTTL > 0 {
		out.Tokens.VerificationTTL = a.VerificationTTL
	}
	if a.ResetTTL > 0 {
		out.Tokens.ResetTTL = a.ResetTTL
	}
	if a.SessionTTL > 0 {
		out.Session.TTL = a.SessionTTL
	}
	if a.RedisPrefix != "" {
		out.Session.RedisPrefix = a.RedisPrefix
	}
	if a.MinPasswordLength > 0 {
		out.Password.MinLength = a.MinPasswordLength
	}
	if a.TOTPIssuer != "" {
		out.Factor.Issuer = a.TOTPIssuer
	}
	out.Factor.EnforceReplayProtection = a.TOTPReplayProtection
	out.PasswordReset.RevealUnknownAccount = a.RevealUnknownAccount
	if a.MaxLoginAttempts != nil {
		out.Security.MaxLoginAttempts = *a.MaxLoginAttempts
	}
	if a.LoginCooldown > 0 {
		out.Security.LoginCooldownDuration = a.LoginCooldown
	}
	out.Audit.Enabled = a.AuditLog

	if err := out.Validate(); err != nil {
		return authcore.Config{}, err
	}
	return out, nil
}
