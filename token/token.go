// Package token issues and redeems the two single-use credentials handed to
// users out of band: self-contained signed email-verification tokens and
// stored opaque password-reset tokens.
//
// A [Token] is either [Stored] (the server keeps a digest and an expiry) or
// [SelfContained] (the signed payload carries its own expiry). Callers switch
// on the concrete type.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrInvalid covers every reason a presented token cannot be redeemed:
// bad signature, wrong purpose, expiry, malformed input.
var ErrInvalid = errors.New("invalid or expired token")

const resetTokenBytes = 32

// Token is the sealed union of Stored and SelfContained.
type Token interface {
	// String returns the value handed to the user.
	String() string
	token()
}

// Stored is an opaque random value. Only HashResetToken(Value) is persisted.
type Stored struct {
	Value     string
	ExpiresAt time.Time
}

// SelfContained is a signed payload that needs no server-side record.
type SelfContained struct {
	SignedPayload string
	ExpiresAt     time.Time
}

func (t Stored) String() string        { return t.Value }
func (t SelfContained) String() string { return t.SignedPayload }
func (Stored) token()                  {}
func (SelfContained) token()           {}

// NewResetToken returns 32 random bytes hex-encoded, valid for ttl from now.
func NewResetToken(now time.Time, ttl time.Duration) (Stored, error) {
	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return Stored{}, err
	}
	return Stored{
		Value:     hex.EncodeToString(raw),
		ExpiresAt: now.Add(ttl),
	}, nil
}

// HashResetToken returns the SHA-256 hex digest used to store and look up a
// reset token. Malformed input still hashes; the lookup simply misses.
func HashResetToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// WellFormedResetToken reports whether value has the shape NewResetToken produces.
func WellFormedResetToken(value string) bool {
	if len(value) != hex.EncodedLen(resetTokenBytes) {
		return false
	}
	_, err := hex.DecodeString(value)
	return err == nil
}
