package session

import (
	"testing"
	"time"
)

func TestPrincipalSumType(t *testing.T) {
	var s Session
	if _, ok := s.Principal(); ok {
		t.Fatal("expected no principal on empty session")
	}

	now := time.Unix(1700000000, 0)
	s.SetPending("acct-1", now)
	p, ok := s.Principal()
	if !ok {
		t.Fatal("expected pending principal")
	}
	pending, ok := p.(PendingFactor)
	if !ok || pending.AccountID != "acct-1" || !pending.Since.Equal(now) {
		t.Fatalf("unexpected principal %#v", p)
	}
	if s.IsAuthenticated() {
		t.Fatal("pending session must not be authenticated")
	}

	s.SetPendingSecret("SECRET")
	s.SetAuthenticated("acct-1", "alice")
	if s.PendingAccountID != "" || s.PendingTOTPSecret != "" || s.PendingAttempts != 0 {
		t.Fatal("expected pending state cleared on authentication")
	}
	if _, ok := mustPrincipal(t, &s).(Authenticated); !ok {
		t.Fatal("expected authenticated principal")
	}
}

func TestRecordFailedAttemptSaturates(t *testing.T) {
	var s Session
	s.SetPending("acct-1", time.Now())
	for i := 0; i < 300; i++ {
		s.RecordFailedAttempt()
	}
	if s.PendingAttempts != 255 {
		t.Fatalf("expected saturation at 255, got %d", s.PendingAttempts)
	}
}

func TestDestroyClearsEverything(t *testing.T) {
	s := Session{ID: "id"}
	s.SetAuthenticated("acct-1", "alice")
	s.Destroy()
	if !s.Destroyed() || !s.Empty() || s.IsAuthenticated() {
		t.Fatal("expected destroyed empty session")
	}
	if s.PreviousID() != "id" {
		t.Fatalf("expected previous id retained for deletion, got %q", s.PreviousID())
	}
}

func mustPrincipal(t *testing.T, s *Session) Principal {
	t.Helper()
	p, ok := s.Principal()
	if !ok {
		t.Fatal("expected principal")
	}
	return p
}

func TestSetPendingSecretResetsAttempts(t *testing.T) {
	var s Session
	s.SetPending("acct-1", time.Now())
	s.RecordFailedAttempt()
	s.RecordFailedAttempt()

	s.SetPendingSecret("SECRET")
	if s.PendingAttempts != 0 {
		t.Fatalf("expected attempts reset with a new secret, got %d", s.PendingAttempts)
	}
	if s.PendingTOTPSecret != "SECRET" || s.PendingAccountID != "acct-1" {
		t.Fatal("expected pending account and secret retained")
	}
}
