package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no account matches the lookup criteria.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicate is returned when a create would violate email or username uniqueness.
	ErrDuplicate = errors.New("account already exists")
	// ErrPreconditionFailed is returned when a conditional update group no longer applies.
	ErrPreconditionFailed = errors.New("update precondition failed")
)

// Account is the durable identity record.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Verified     bool
	IsAdmin      bool

	ResetTokenHash      string
	ResetTokenExpiresAt *time.Time

	TOTP     TOTPState
	Activity Activity

	Notifications []Notification

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TOTPState is the persisted second-factor enrollment. Secret is only set
// together with Enabled.
type TOTPState struct {
	Enabled bool
	Secret  string
}

// Activity tracks completed logins.
type Activity struct {
	LastLoginAt *time.Time
	LoginCount  int64
}

// Notification is one entry in an account's append-only message list.
type Notification struct {
	ID        string
	Message   string
	Read      bool
	CreatedAt time.Time
}

// UnreadCount returns the number of unread notifications on the account.
func (a *Account) UnreadCount() int {
	n := 0
	for _, item := range a.Notifications {
		if !item.Read {
			n++
		}
	}
	return n
}

// NewAccount carries the fields needed to create an account.
type NewAccount struct {
	Username     string
	Email        string
	PasswordHash string
}

// Criteria selects a single account.
type Criteria struct {
	ID             string
	Email          string
	Username       string
	ResetTokenHash string
	// MatchAny switches Email and Username to an OR match.
	MatchAny bool
}

// ByID selects the account with the given identifier.
func ByID(id string) Criteria { return Criteria{ID: id} }

// ByEmail selects the account with the given email, compared case-insensitively.
func ByEmail(email string) Criteria { return Criteria{Email: NormalizeEmail(email)} }

// ByUsername selects the account with exactly the given username.
func ByUsername(username string) Criteria { return Criteria{Username: username} }

// ByEmailOrUsername selects an account whose email or username matches.
func ByEmailOrUsername(email, username string) Criteria {
	return Criteria{Email: NormalizeEmail(email), Username: username, MatchAny: true}
}

// ByResetTokenHash selects the account holding the given reset token digest.
func ByResetTokenHash(hash string) Criteria { return Criteria{ResetTokenHash: hash} }

// Empty reports whether the criteria selects nothing.
func (c Criteria) Empty() bool {
	return c.ID == "" && c.Email == "" && c.Username == "" && c.ResetTokenHash == ""
}

// Matches reports whether acc satisfies c. Backends without a query engine use it directly.
func (c Criteria) Matches(acc *Account) bool {
	if acc == nil || c.Empty() {
		return false
	}
	if c.MatchAny {
		return (c.Email != "" && acc.Email == c.Email) ||
			(c.Username != "" && acc.Username == c.Username)
	}
	if c.ID != "" && acc.ID != c.ID {
		return false
	}
	if c.Email != "" && acc.Email != c.Email {
		return false
	}
	if c.Username != "" && acc.Username != c.Username {
		return false
	}
	if c.ResetTokenHash != "" && acc.ResetTokenHash != c.ResetTokenHash {
		return false
	}
	return true
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AccountStore is the durable record store used by the engine.
type AccountStore interface {
	Find(ctx context.Context, c Criteria) (*Account, error)
	Create(ctx context.Context, in NewAccount) (*Account, error)
	Update(ctx context.Context, id string, group FieldGroup) error
	Delete(ctx context.Context, id string) error
	AppendNotification(ctx context.Context, id, message string) error
	MarkNotificationsRead(ctx context.Context, id string) error
}
