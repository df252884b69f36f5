package authcore

import "github.com/MrEthical07/authcore/totp"

// RegisterRequest is the sign-up form.
type RegisterRequest struct {
	Username string `validate:"required,min=3,max=20"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required"`
}

// RegisterResult identifies the created account. The account is unverified
// until the mailed link is redeemed.
type RegisterResult struct {
	AccountID string
	// VerificationMailed is false when the verification mail could not be
	// delivered. Registration still succeeded.
	VerificationMailed bool
}

// LoginResult reports where the session ended up after a correct password.
// Exactly one of Authenticated and FactorPending is true.
type LoginResult struct {
	Authenticated bool
	FactorPending bool
	AccountID     string
}

// FactorPrompt is returned by [Engine.BeginFactor]. Enrollment is set when
// the account has no second factor yet; otherwise the caller only asks for
// a code.
type FactorPrompt struct {
	Enrollment *totp.Provision
}

// Enrolling reports whether the prompt carries new secret material.
func (p *FactorPrompt) Enrolling() bool {
	return p != nil && p.Enrollment != nil
}

// FactorResult is returned by a successful [Engine.SubmitFactor].
type FactorResult struct {
	AccountID string
	Username  string
	// Enrolled is true when this submission enabled TOTP for the account.
	Enrolled bool
}
