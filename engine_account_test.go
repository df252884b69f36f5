package authcore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MrEthical07/authcore/store"
)

func TestRegisterCreatesUnverifiedAccountAndMailsLink(t *testing.T) {
	env := newTestEnv(t, nil)

	res, err := env.engine.Register(context.Background(), RegisterRequest{
		Username: "alice",
		Email:    "  Alice@Example.COM ",
		Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !res.VerificationMailed {
		t.Fatal("expected verification mail to be sent")
	}

	acc := env.account(t, res.AccountID)
	if acc.Verified {
		t.Fatal("new account must start unverified")
	}
	if acc.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", acc.Email)
	}
	if acc.PasswordHash == "hunter22" || !strings.HasPrefix(acc.PasswordHash, "$argon2id$") {
		t.Fatalf("password must be stored as argon2id hash, got %q", acc.PasswordHash)
	}

	msg := env.mail.last(t)
	if msg.To != "alice@example.com" || msg.Subject != "Verify your email" {
		t.Fatalf("unexpected mail %+v", msg)
	}
	if !strings.Contains(msg.HTML, "http://localhost:3000/verify-email/") {
		t.Fatalf("expected fallback origin in link, got %q", msg.HTML)
	}
}

func TestRegisterUsesRequestOrigin(t *testing.T) {
	env := newTestEnv(t, nil)

	ctx := WithRequestOrigin(context.Background(), "https", "app.example.org")
	if _, err := env.engine.Register(ctx, RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if html := env.mail.last(t).HTML; !strings.Contains(html, `href="https://app.example.org/verify-email/`) {
		t.Fatalf("expected request origin in link, got %q", html)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	env := newTestEnv(t, nil)

	cases := []RegisterRequest{
		{Email: "a@example.com", Password: "secret1"},
		{Username: "alice", Password: "secret1"},
		{Username: "alice", Email: "a@example.com", Password: "   "},
		{Username: "   ", Email: "a@example.com", Password: "secret1"},
	}
	for _, req := range cases {
		if _, err := env.engine.Register(context.Background(), req); !errors.Is(err, ErrMissingField) {
			t.Fatalf("Register(%+v): expected ErrMissingField, got %v", req, err)
		}
	}
	if env.mail.count() != 0 {
		t.Fatal("no mail expected for rejected registrations")
	}
}

func TestRegisterFieldValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	cases := []struct {
		req   RegisterRequest
		field string
	}{
		{RegisterRequest{Username: "al", Email: "a@example.com", Password: "secret1"}, "username"},
		{RegisterRequest{Username: strings.Repeat("a", 21), Email: "a@example.com", Password: "secret1"}, "username"},
		{RegisterRequest{Username: "alice", Email: "not-an-email", Password: "secret1"}, "email"},
		{RegisterRequest{Username: "alice", Email: "a@example.com", Password: "12345"}, "password"},
	}
	for _, tc := range cases {
		_, err := env.engine.Register(context.Background(), tc.req)
		if !errors.Is(err, ErrInvalidField) {
			t.Fatalf("Register(%+v): expected ErrInvalidField, got %v", tc.req, err)
		}
		var fe *FieldError
		if !errors.As(err, &fe) || fe.Field != tc.field {
			t.Fatalf("expected field %q, got %v", tc.field, err)
		}
	}
}

func TestRegisterDuplicateEmailOrUsername(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "alice", "alice@example.com", "secret1")

	_, err := env.engine.Register(context.Background(), RegisterRequest{Username: "other", Email: "ALICE@example.com", Password: "secret1"})
	if !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount for email, got %v", err)
	}
	_, err = env.engine.Register(context.Background(), RegisterRequest{Username: "alice", Email: "new@example.com", Password: "secret1"})
	if !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount for username, got %v", err)
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricRegisterDuplicate]; got != 2 {
		t.Fatalf("expected 2 duplicate metrics, got %d", got)
	}
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.mail.fail = true

	res, err := env.engine.Register(context.Background(), RegisterRequest{Username: "carol", Email: "carol@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("mail failure must not fail registration: %v", err)
	}
	if res.VerificationMailed {
		t.Fatal("expected VerificationMailed=false")
	}
	if _, err := env.accounts.Find(context.Background(), store.ByEmail("carol@example.com")); err != nil {
		t.Fatalf("account must persist after mail failure: %v", err)
	}

	var logged bool
	for _, entry := range env.logs.AllEntries() {
		if strings.Contains(entry.Message, "mail delivery failed") {
			logged = true
		}
	}
	if !logged {
		t.Fatal("expected mail failure to be logged")
	}
}
