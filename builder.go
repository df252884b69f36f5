package authcore

import (
	"errors"
	"time"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/mail"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/session"
	"github.com/MrEthical07/authcore/store"
	"github.com/MrEthical07/authcore/token"
	"github.com/MrEthical07/authcore/totp"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Builder assembles an [Engine]. Configure it during initialization; a
// Builder can build exactly once.
type Builder struct {
	config   Config
	redis    redis.UniversalClient
	accounts store.AccountStore
	mailer   mail.Sender
	logger   log.FieldLogger

	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New starts from [DefaultConfig]. The verification secret, Redis client,
// account store and mailer must still be supplied before Build.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client used for sessions, throttles and replay marks.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAccountStore sets the durable account record store.
func (b *Builder) WithAccountStore(accounts store.AccountStore) *Builder {
	b.accounts = accounts
	return b
}

// WithMailer sets the outbound mail collaborator.
func (b *Builder) WithMailer(sender mail.Sender) *Builder {
	b.mailer = sender
	return b
}

// WithLogger sets the logger for swallowed infrastructure failures.
// Defaults to the logrus standard logger.
func (b *Builder) WithLogger(logger log.FieldLogger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit sink. A non-nil sink enables audit dispatch
// regardless of Config.Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the login latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build validates the configuration and the collaborators, then wires the
// engine. It returns an error on the second call.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.accounts == nil {
		return nil, errors.New("account store required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}
	if b.auditSink != nil {
		cfg.Audit.Enabled = true
		if cfg.Audit.BufferSize <= 0 {
			cfg.Audit.BufferSize = DefaultConfig().Audit.BufferSize
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	ph, err := password.NewArgon2(password.Config{
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MinLength:        cfg.Password.MinLength,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	})
	if err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(token.CodecConfig{
		SigningMethod: token.SigningMethod(cfg.Tokens.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Tokens.VerificationSecret),
		PublicKey:     cloneBytes(cfg.Tokens.VerificationPublicKey),
		TTL:           cfg.Tokens.VerificationTTL,
		Issuer:        cfg.Tokens.Issuer,
		Leeway:        cfg.Tokens.Leeway,
	})
	if err != nil {
		return nil, err
	}

	var fallback mail.Origin
	if cfg.Links.BaseURL != "" {
		fallback, err = mail.ParseOrigin(cfg.Links.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	engine := &Engine{
		config:    cloneConfig(cfg),
		accounts:  b.accounts,
		sessions:  session.NewStore(b.redis, cfg.Session.RedisPrefix, cfg.Session.TTL),
		passwords: ph,
		codec:     codec,
		factor: totp.New(totp.Config{
			Issuer: cfg.Factor.Issuer,
			Window: cfg.Factor.Window,
		}),
		mailer:   b.mailer,
		logger:   logger,
		origin:   fallback,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}

	engine.limiter = rate.New(b.redis, rate.Config{
		Prefix:                cfg.Session.RedisPrefix,
		EnableIPThrottle:      cfg.Security.EnableIPThrottle,
		MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
		LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
		MaxResetRequests:      cfg.PasswordReset.MaxRequests,
		ResetRequestWindow:    cfg.PasswordReset.RequestWindow,
	})
	if cfg.Factor.EnforceReplayProtection {
		engine.replay = newFactorReplayGuard(b.redis, cfg.Session.RedisPrefix, cfg.Factor.Window)
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
