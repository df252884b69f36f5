package store

import "time"

// FieldGroup is a set of account fields updated together. The set of groups
// is closed; backends switch over the concrete types below.
type FieldGroup interface {
	fieldGroup()
}

// MarkVerified sets Verified. It never reverts.
type MarkVerified struct{}

// SetResetToken stores a reset token digest and its expiry, replacing any
// previous pair.
type SetResetToken struct {
	Hash      string
	ExpiresAt time.Time
}

// RedeemResetToken replaces the password hash and clears the reset token
// pair, but only while the stored digest equals Hash and has not expired at Now.
type RedeemResetToken struct {
	Hash         string
	Now          time.Time
	PasswordHash string
}

// EnableTOTP persists the secret and the enabled flag together, but only
// while TOTP is still disabled.
type EnableTOTP struct {
	Secret string
}

// RecordLogin increments the login counter and stamps the login time.
type RecordLogin struct {
	At time.Time
}

func (MarkVerified) fieldGroup()     {}
func (SetResetToken) fieldGroup()    {}
func (RedeemResetToken) fieldGroup() {}
func (EnableTOTP) fieldGroup()       {}
func (RecordLogin) fieldGroup()      {}

// Apply mutates acc according to group, enforcing the conditional groups'
// preconditions. It returns ErrPreconditionFailed without touching acc when
// a precondition does not hold.
func Apply(acc *Account, group FieldGroup) error {
	switch g := group.(type) {
	case MarkVerified:
		acc.Verified = true
	case SetResetToken:
		exp := g.ExpiresAt
		acc.ResetTokenHash = g.Hash
		acc.ResetTokenExpiresAt = &exp
	case RedeemResetToken:
		if g.Hash == "" || acc.ResetTokenHash != g.Hash ||
			acc.ResetTokenExpiresAt == nil || !acc.ResetTokenExpiresAt.After(g.Now) {
			return ErrPreconditionFailed
		}
		acc.PasswordHash = g.PasswordHash
		acc.ResetTokenHash = ""
		acc.ResetTokenExpiresAt = nil
	case EnableTOTP:
		if acc.TOTP.Enabled {
			return ErrPreconditionFailed
		}
		acc.TOTP = TOTPState{Enabled: true, Secret: g.Secret}
	case RecordLogin:
		at := g.At
		acc.Activity.LoginCount++
		acc.Activity.LastLoginAt = &at
	default:
		return ErrPreconditionFailed
	}
	return nil
}
