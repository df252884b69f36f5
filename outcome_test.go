package authcore

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestDescribeSuccess(t *testing.T) {
	tests := []struct {
		op       Operation
		message  string
		redirect string
	}{
		{OpRegister, "Registration successful! Check your email to verify.", "/login"},
		{OpVerifyEmail, "Email verified! You can now log in.", "/login"},
		{OpLogin, "Logged in successfully", "/dashboard"},
		{OpFactorRequired, "", "/2fa/setup"},
		{OpEnrollFactor, "2FA enabled and logged in!", "/dashboard"},
		{OpVerifyFactor, "Logged in with 2FA!", "/dashboard"},
		{OpRequestReset, "Password reset link sent to your email", "/login"},
		{OpCompleteReset, "Password reset successful! You can now log in.", "/login"},
		{OpLogout, "", "/"},
	}

	for _, tt := range tests {
		out := Describe(tt.op, nil)
		if !out.Success() || out.Kind.Status() != http.StatusOK {
			t.Fatalf("%s: expected success, got %+v", tt.op, out)
		}
		if out.Message != tt.message || out.Redirect != tt.redirect {
			t.Fatalf("%s: got %q -> %q", tt.op, out.Message, out.Redirect)
		}
	}
}

func TestDescribeFailures(t *testing.T) {
	tests := []struct {
		name     string
		op       Operation
		err      error
		kind     Kind
		message  string
		redirect string
	}{
		{"missing fields", OpRegister, ErrMissingField, KindInvalidInput, "All fields are required", "/register"},
		{"duplicate", OpRegister, ErrDuplicateAccount, KindConflict, "Email or username already exists", "/register"},
		{"username length", OpRegister, &FieldError{Field: "username", Reason: "must be between 3 and 20 characters"}, KindInvalidInput, "Username must be between 3 and 20 characters", "/register"},
		{"verify token", OpVerifyEmail, ErrInvalidOrExpiredToken, KindInvalidToken, "Email verification failed or expired.", "/login"},
		{"bad credentials", OpLogin, ErrAuthenticationFailed, KindAuthFailed, "Invalid email or password", "/login"},
		{"unverified", OpLogin, ErrNotVerified, KindUnverified, "Please verify your email before logging in", "/login"},
		{"login internal", OpLogin, errors.New("boom"), KindInternal, "Login failed", "/login"},
		{"bad code", OpVerifyFactor, ErrInvalidCode, KindAuthFailed, "Invalid authentication code", "/2fa/setup"},
		{"enrolled elsewhere", OpEnrollFactor, ErrFactorAlreadyEnabled, KindConflict, "Two-factor authentication is already enabled. Enter a code from your authenticator app.", "/2fa/setup"},
		{"factor no principal", OpBeginFactor, ErrUnauthorized, KindUnauthorized, "Unauthorized", "/login"},
		{"unknown email", OpRequestReset, ErrNoSuchAccount, KindNotFound, "No user with that email", "/forgot-password"},
		{"reset token", OpCompleteReset, ErrInvalidOrExpiredToken, KindInvalidToken, "Password reset token is invalid or expired", "/forgot-password"},
		{"reset form token", OpShowResetForm, ErrInvalidOrExpiredToken, KindInvalidToken, "Password reset token is invalid or expired", "/forgot-password"},
		{"mismatch", OpCompleteReset, ErrPasswordMismatch, KindInvalidInput, "Passwords do not match", "/reset-password/{token}"},
		{"gate", OpRequireAuthenticated, ErrUnauthorized, KindUnauthorized, "Please log in first.", "/login"},
		{"signed in", OpRequireAnonymous, ErrAlreadyAuthenticated, KindAlreadySignedIn, "", "/dashboard"},
		{"throttled", OpLogin, ErrRateLimited, KindRateLimited, "Too many attempts. Please try again later.", "/login"},
		{"backend", OpRegister, fmt.Errorf("%w: dial tcp", ErrUnavailable), KindUnavailable, "Something went wrong", "/register"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Describe(tt.op, tt.err)
			if out.Success() {
				t.Fatal("expected failure outcome")
			}
			if out.Kind != tt.kind || out.Message != tt.message || out.Redirect != tt.redirect {
				t.Fatalf("got %+v", out)
			}
		})
	}
}

func TestOutcomeExpand(t *testing.T) {
	out := Describe(OpCompleteReset, ErrPasswordMismatch).Expand("abc123")
	if out.Redirect != "/reset-password/abc123" {
		t.Fatalf("unexpected redirect %q", out.Redirect)
	}
}

func TestKindStatus(t *testing.T) {
	tests := map[Kind]int{
		KindInvalidInput:    http.StatusBadRequest,
		KindConflict:        http.StatusConflict,
		KindAuthFailed:      http.StatusUnauthorized,
		KindUnverified:      http.StatusForbidden,
		KindNotFound:        http.StatusNotFound,
		KindRateLimited:     http.StatusTooManyRequests,
		KindUnavailable:     http.StatusServiceUnavailable,
		KindInternal:        http.StatusInternalServerError,
		KindAlreadySignedIn: http.StatusForbidden,
	}
	for kind, status := range tests {
		if got := kind.Status(); got != status {
			t.Fatalf("%s: expected %d, got %d", kind, status, got)
		}
	}
}
