package authcore

import (
	"context"
	"errors"
	"testing"
)

func TestLoginUniformFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.verifiedAccount(t, "alice", "alice@example.com", "secret1")

	sess := env.newSession(t)
	_, errUnknown := env.engine.Login(context.Background(), sess, "nobody@example.com", "secret1")
	_, errWrong := env.engine.Login(context.Background(), sess, "alice@example.com", "wrong-pass")

	if !errors.Is(errUnknown, ErrAuthenticationFailed) || !errors.Is(errWrong, ErrAuthenticationFailed) {
		t.Fatalf("expected uniform ErrAuthenticationFailed, got %v and %v", errUnknown, errWrong)
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Fatalf("messages differ: %q vs %q", errUnknown, errWrong)
	}
	if _, ok := sess.Principal(); ok {
		t.Fatal("failed login must not set a principal")
	}
}

func TestLoginUnverifiedAccount(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice", "alice@example.com", "secret1")

	sess := env.newSession(t)
	_, err := env.engine.Login(context.Background(), sess, "alice@example.com", "secret1")
	if !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified, got %v", err)
	}
	if _, ok := sess.Principal(); ok || sess.Dirty() {
		t.Fatal("unverified login must leave the session untouched")
	}

	// A wrong password on an unverified account is still a plain failure.
	if _, err := env.engine.Login(context.Background(), sess, "alice@example.com", "nope-nope"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestLoginAuthenticatesAndRotatesSession(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.verifiedAccount(t, "alice", "alice@example.com", "secret1")

	sess := env.newSession(t)
	initialID := sess.ID

	res, err := env.engine.Login(context.Background(), sess, "ALICE@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !res.Authenticated || res.FactorPending || res.AccountID != id {
		t.Fatalf("unexpected result %+v", res)
	}
	if !sess.IsAuthenticated() || sess.Username != "alice" {
		t.Fatalf("expected authenticated session, got %+v", sess)
	}

	env.save(t, sess)
	if sess.ID == "" || sess.ID == initialID {
		t.Fatalf("expected rotated session id, got %q (was %q)", sess.ID, initialID)
	}

	acc := env.account(t, id)
	if acc.Activity.LoginCount != 1 || acc.Activity.LastLoginAt == nil {
		t.Fatalf("expected login activity recorded, got %+v", acc.Activity)
	}
	if len(acc.Notifications) != 1 || acc.Notifications[0].Message != LoginNotification {
		t.Fatalf("expected login notification, got %+v", acc.Notifications)
	}
}

func TestLoginThrottle(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.Security.MaxLoginAttempts = 3
	})
	env.verifiedAccount(t, "alice", "alice@example.com", "secret1")
	sess := env.newSession(t)

	for i := 0; i < 3; i++ {
		if _, err := env.engine.Login(context.Background(), sess, "alice@example.com", "bad-pass"); !errors.Is(err, ErrAuthenticationFailed) {
			t.Fatalf("attempt %d: expected ErrAuthenticationFailed, got %v", i, err)
		}
	}
	if _, err := env.engine.Login(context.Background(), sess, "alice@example.com", "secret1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricLoginRateLimited]; got != 1 {
		t.Fatalf("expected rate limit metric 1, got %d", got)
	}
}

func TestLoginSuccessClearsThrottle(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.Security.MaxLoginAttempts = 3
	})
	env.verifiedAccount(t, "alice", "alice@example.com", "secret1")

	for i := 0; i < 2; i++ {
		_, _ = env.engine.Login(context.Background(), env.newSession(t), "alice@example.com", "bad-pass")
	}
	if _, err := env.engine.Login(context.Background(), env.newSession(t), "alice@example.com", "secret1"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		_, _ = env.engine.Login(context.Background(), env.newSession(t), "alice@example.com", "bad-pass")
	}
	if _, err := env.engine.Login(context.Background(), env.newSession(t), "alice@example.com", "secret1"); err != nil {
		t.Fatalf("expected throttle reset after success, got %v", err)
	}
}
