package authcore

import "errors"

var (
	// ErrMissingField is returned when a required form field is empty after trimming.
	ErrMissingField = errors.New("all fields are required")
	// ErrInvalidField is returned when a field fails format or length validation.
	ErrInvalidField = errors.New("invalid field")
	// ErrDuplicateAccount is returned when the email or username is already registered.
	ErrDuplicateAccount = errors.New("email or username already exists")
	// ErrInvalidOrExpiredToken covers every verification or reset token that cannot be redeemed.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	// ErrAuthenticationFailed is the uniform login failure for unknown emails and wrong passwords.
	ErrAuthenticationFailed = errors.New("invalid email or password")
	// ErrNotVerified is returned when the password is correct but the email is unverified.
	ErrNotVerified = errors.New("email not verified")
	// ErrInvalidCode is returned when a second-factor code does not verify.
	ErrInvalidCode = errors.New("invalid authentication code")
	// ErrPasswordMismatch is returned when a new password and its confirmation differ or are empty.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrUnauthorized is returned when an operation needs a principal the session does not carry.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAlreadyAuthenticated is returned by the anonymous-only gate.
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	// ErrNoSuchAccount is returned by reset requests for unknown emails when disclosure is enabled.
	ErrNoSuchAccount = errors.New("no account with that email")
	// ErrFactorExpired is returned when the pending second-factor context outlived its TTL.
	ErrFactorExpired = errors.New("second factor challenge expired")
	// ErrFactorAttemptsExceeded is returned when too many codes were rejected for one pending login.
	ErrFactorAttemptsExceeded = errors.New("second factor attempts exceeded")
	// ErrFactorAlreadyEnabled is returned when TOTP was enabled with another secret while an enrollment was pending.
	ErrFactorAlreadyEnabled = errors.New("second factor already enabled")
	// ErrRateLimited is returned when a login or reset throttle is exhausted.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnavailable wraps store, session, and token backend failures.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrEngineNotReady is returned when a method is called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
