package authcore

import (
	"context"
	"testing"
)

func BenchmarkLogin(b *testing.B) {
	env := newTestEnv(b, func(cfg *Config) {
		cfg.Security.MaxLoginAttempts = 0
	})
	env.verifiedAccount(b, "alice", "alice@example.com", "correct-password-123")
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sess := env.newSession(b)
		if _, err := env.engine.Login(ctx, sess, "alice@example.com", "correct-password-123"); err != nil {
			b.Fatalf("login failed: %v", err)
		}
	}
}

func BenchmarkLoginUnknownEmail(b *testing.B) {
	env := newTestEnv(b, func(cfg *Config) {
		cfg.Security.MaxLoginAttempts = 0
	})
	ctx := context.Background()
	sess := env.newSession(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := env.engine.Login(ctx, sess, "nobody@example.com", "whatever-123"); err != ErrAuthenticationFailed {
			b.Fatalf("expected ErrAuthenticationFailed, got %v", err)
		}
	}
}

func BenchmarkSessionLoadAndGate(b *testing.B) {
	env := newTestEnv(b, nil)
	id := env.verifiedAccount(b, "alice", "alice@example.com", "correct-password-123")

	sess := env.newSession(b)
	sess.SetAuthenticated(id, "alice")
	env.save(b, sess)
	store := env.engine.Sessions()
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		loaded, err := store.Load(ctx, sess.ID)
		if err != nil {
			b.Fatalf("load failed: %v", err)
		}
		if err := env.engine.RequireAuthenticated(loaded); err != nil {
			b.Fatalf("gate failed: %v", err)
		}
	}
}
