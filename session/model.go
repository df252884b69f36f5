package session

import "time"

// Session is the per-client state carried between requests. It holds either
// an authenticated principal, a pending second-factor context, or nothing.
type Session struct {
	ID string

	AccountID string
	Username  string

	PendingAccountID  string
	PendingTOTPSecret string
	PendingSince      int64
	PendingAttempts   uint8

	CreatedAt int64
	ExpiresAt int64

	previousID string
	dirty      bool
	destroyed  bool
	persisted  bool
}

// Principal is the sum type of identities a session can carry.
type Principal interface {
	Account() string
	principal()
}

// Authenticated is a fully logged-in account.
type Authenticated struct {
	AccountID string
	Username  string
}

// PendingFactor is an account that passed the password check and still owes
// a second-factor code.
type PendingFactor struct {
	AccountID string
	Since     time.Time
	Attempts  int
}

func (p Authenticated) Account() string { return p.AccountID }
func (p PendingFactor) Account() string { return p.AccountID }
func (Authenticated) principal()        {}
func (PendingFactor) principal()        {}

// Principal resolves the session's identity. An authenticated identity wins
// over a pending one.
func (s *Session) Principal() (Principal, bool) {
	if s == nil {
		return nil, false
	}
	if s.AccountID != "" {
		return Authenticated{AccountID: s.AccountID, Username: s.Username}, true
	}
	if s.PendingAccountID != "" {
		return PendingFactor{
			AccountID: s.PendingAccountID,
			Since:     time.Unix(s.PendingSince, 0),
			Attempts:  int(s.PendingAttempts),
		}, true
	}
	return nil, false
}

// IsAuthenticated reports whether an account is logged in on this session.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.AccountID != ""
}

// SetAuthenticated logs accountID in, clears any pending factor state and
// requests a new session identifier.
func (s *Session) SetAuthenticated(accountID, username string) {
	s.AccountID = accountID
	s.Username = username
	s.clearPending()
	s.renew()
}

// SetPending records that accountID owes a second factor. Any authenticated
// identity and enrollment secret on the session is dropped.
func (s *Session) SetPending(accountID string, now time.Time) {
	s.AccountID = ""
	s.Username = ""
	s.PendingAccountID = accountID
	s.PendingTOTPSecret = ""
	s.PendingSince = now.Unix()
	s.PendingAttempts = 0
	s.renew()
}

// SetPendingSecret holds an enrollment secret until the first code is confirmed.
func (s *Session) SetPendingSecret(secret string) {
	s.PendingTOTPSecret = secret
	s.PendingAttempts = 0
	s.dirty = true
}

// ClearPendingSecret drops a held enrollment secret.
func (s *Session) ClearPendingSecret() {
	if s.PendingTOTPSecret == "" {
		return
	}
	s.PendingTOTPSecret = ""
	s.dirty = true
}

// RecordFailedAttempt increments the pending-factor attempt counter and
// returns the new count.
func (s *Session) RecordFailedAttempt() int {
	if s.PendingAttempts < 255 {
		s.PendingAttempts++
	}
	s.dirty = true
	return int(s.PendingAttempts)
}

// ClearPending removes all pending second-factor state.
func (s *Session) ClearPending() {
	s.clearPending()
}

// Destroy empties the session and marks it for deletion on save.
func (s *Session) Destroy() {
	s.AccountID = ""
	s.Username = ""
	s.clearPending()
	s.destroyed = true
	s.dirty = true
}

// Destroyed reports whether Destroy was called.
func (s *Session) Destroyed() bool { return s.destroyed }

// Dirty reports whether the session changed since it was loaded.
func (s *Session) Dirty() bool { return s.dirty }

// PreviousID returns the identifier replaced by the last renewal, if any.
func (s *Session) PreviousID() string { return s.previousID }

// Empty reports whether the session carries no state worth persisting.
func (s *Session) Empty() bool {
	return s.AccountID == "" && s.PendingAccountID == "" && s.PendingTOTPSecret == ""
}

func (s *Session) indexAccount() string {
	if s.AccountID != "" {
		return s.AccountID
	}
	return s.PendingAccountID
}

func (s *Session) clearPending() {
	if s.PendingAccountID == "" && s.PendingTOTPSecret == "" && s.PendingSince == 0 && s.PendingAttempts == 0 {
		return
	}
	s.PendingAccountID = ""
	s.PendingTOTPSecret = ""
	s.PendingSince = 0
	s.PendingAttempts = 0
	s.dirty = true
}

// renew marks the identifier for rotation on the next save. The new ID is
// assigned by the store so that only one rotation happens per save.
func (s *Session) renew() {
	if s.previousID == "" {
		s.previousID = s.ID
	}
	s.ID = ""
	s.persisted = false
	s.dirty = true
}
