package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters. A zero Max disables that limit.
type Config struct {
	Prefix string

	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration

	MaxResetRequests   int
	ResetRequestWindow time.Duration
}

// Limiter enforces fixed-window limits on failed logins and reset requests
// using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "authcore"
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckLogin returns ErrRateLimited when the identifier or client IP has
// exhausted its failed-login budget. It does not count an attempt.
func (l *Limiter) CheckLogin(ctx context.Context, identifier, ip string) error {
	if l == nil || l.config.MaxLoginAttempts <= 0 {
		return nil
	}
	if err := l.checkCounter(ctx, l.loginKey(identifier), l.config.MaxLoginAttempts); err != nil {
		return err
	}
	if l.config.EnableIPThrottle && ip != "" {
		return l.checkCounter(ctx, l.loginIPKey(ip), l.config.MaxLoginAttempts)
	}
	return nil
}

// IncrementLogin records a failed login for the identifier and IP.
func (l *Limiter) IncrementLogin(ctx context.Context, identifier, ip string) error {
	if l == nil || l.config.MaxLoginAttempts <= 0 {
		return nil
	}
	if _, err := l.incrementWithTTL(ctx, l.loginKey(identifier), l.config.LoginCooldownDuration); err != nil {
		return err
	}
	if l.config.EnableIPThrottle && ip != "" {
		if _, err := l.incrementWithTTL(ctx, l.loginIPKey(ip), l.config.LoginCooldownDuration); err != nil {
			return err
		}
	}
	return nil
}

// ResetLogin clears the failed-login counter for identifier. Called after a
// successful login or a completed password reset.
func (l *Limiter) ResetLogin(ctx context.Context, identifier string) error {
	if l == nil {
		return nil
	}
	if err := l.redis.Del(ctx, l.loginKey(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// AllowResetRequest counts a reset request for identifier and returns
// ErrRateLimited once the window budget is spent.
func (l *Limiter) AllowResetRequest(ctx context.Context, identifier string) error {
	if l == nil || l.config.MaxResetRequests <= 0 {
		return nil
	}
	count, err := l.incrementWithTTL(ctx, l.resetKey(identifier), l.config.ResetRequestWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxResetRequests) {
		return ErrRateLimited
	}
	return nil
}

// LoginAttempts returns the current failed-login counter for identifier.
// Missing keys return zero.
func (l *Limiter) LoginAttempts(ctx context.Context, identifier string) (int, error) {
	count, err := l.redis.Get(ctx, l.loginKey(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string, maxAttempts int) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(maxAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

func (l *Limiter) loginKey(identifier string) string {
	return l.config.Prefix + ":rl:login:" + strings.ToLower(identifier)
}

func (l *Limiter) loginIPKey(ip string) string {
	return l.config.Prefix + ":rl:login-ip:" + ip
}

func (l *Limiter) resetKey(identifier string) string {
	return l.config.Prefix + ":rl:reset:" + strings.ToLower(identifier)
}
