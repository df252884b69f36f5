package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(CodecConfig{PrivateKey: testSecret, TTL: 24 * time.Hour, Issuer: "authcore"})
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	return c
}

func TestVerificationRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	tok, err := c.IssueVerification("acct-1")
	if err != nil {
		t.Fatalf("IssueVerification error: %v", err)
	}
	if tok.String() != tok.SignedPayload {
		t.Fatal("String must return the signed payload")
	}

	id, err := c.RedeemVerification(tok.SignedPayload)
	if err != nil {
		t.Fatalf("RedeemVerification error: %v", err)
	}
	if id != "acct-1" {
		t.Fatalf("expected acct-1, got %q", id)
	}
}

func TestVerificationExpiresAfterTTL(t *testing.T) {
	c := newTestCodec(t)
	issued := time.Now()
	c.now = func() time.Time { return issued }

	tok, err := c.IssueVerification("acct-1")
	if err != nil {
		t.Fatalf("IssueVerification error: %v", err)
	}
	if !tok.ExpiresAt.Equal(issued.Add(24 * time.Hour)) {
		t.Fatalf("unexpected expiry %v", tok.ExpiresAt)
	}

	c.now = func() time.Time { return issued.Add(24*time.Hour + time.Second) }
	if _, err := c.RedeemVerification(tok.SignedPayload); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid after expiry, got %v", err)
	}
}

func TestVerificationRejectsTampering(t *testing.T) {
	c := newTestCodec(t)
	tok, err := c.IssueVerification("acct-1")
	if err != nil {
		t.Fatalf("IssueVerification error: %v", err)
	}

	other, err := NewCodec(CodecConfig{PrivateKey: []byte(strings.Repeat("x", 32)), TTL: time.Hour, Issuer: "authcore"})
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	if _, err := other.RedeemVerification(tok.SignedPayload); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for foreign key, got %v", err)
	}

	for _, raw := range []string{"", "garbage", tok.SignedPayload + "x"} {
		if _, err := c.RedeemVerification(raw); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid for %q, got %v", raw, err)
		}
	}
}

func TestVerificationRejectsWrongPurpose(t *testing.T) {
	c := newTestCodec(t)
	claims := verificationClaims{
		Purpose: "something_else",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acct-1",
			Issuer:    "authcore",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, err := c.RedeemVerification(raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for wrong purpose, got %v", err)
	}
}

func TestVerificationRejectsAlgNone(t *testing.T) {
	c := newTestCodec(t)
	claims := verificationClaims{
		Purpose: PurposeEmailVerification,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acct-1",
			Issuer:    "authcore",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, err := c.RedeemVerification(raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for alg none, got %v", err)
	}
}

func TestEd25519Codec(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey error: %v", err)
	}
	c, err := NewCodec(CodecConfig{
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		TTL:           time.Hour,
	})
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	tok, err := c.IssueVerification("acct-9")
	if err != nil {
		t.Fatalf("IssueVerification error: %v", err)
	}
	id, err := c.RedeemVerification(tok.String())
	if err != nil || id != "acct-9" {
		t.Fatalf("expected acct-9, got %q err=%v", id, err)
	}
}

func TestNewCodecRejectsShortSecret(t *testing.T) {
	if _, err := NewCodec(CodecConfig{PrivateKey: []byte("short"), TTL: time.Hour}); err == nil {
		t.Fatal("expected short hs256 secret to be rejected")
	}
}

func TestResetToken(t *testing.T) {
	now := time.Now()
	a, err := NewResetToken(now, time.Hour)
	if err != nil {
		t.Fatalf("NewResetToken error: %v", err)
	}
	b, err := NewResetToken(now, time.Hour)
	if err != nil {
		t.Fatalf("NewResetToken error: %v", err)
	}

	if len(a.Value) != 64 || !WellFormedResetToken(a.Value) {
		t.Fatalf("unexpected reset token shape %q", a.Value)
	}
	if a.Value == b.Value {
		t.Fatal("expected distinct reset tokens")
	}
	if !a.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", a.ExpiresAt)
	}

	h := HashResetToken(a.Value)
	if h == a.Value || len(h) != 64 || h != HashResetToken(a.Value) {
		t.Fatalf("unexpected digest %q", h)
	}
	if WellFormedResetToken("zz") {
		t.Fatal("expected short value to be rejected")
	}

	var tok Token = a
	if _, ok := tok.(Stored); !ok {
		t.Fatal("expected Stored variant")
	}
}
