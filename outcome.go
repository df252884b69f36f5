package authcore

import (
	"errors"
	"net/http"
	"strings"
)

// Operation names a user-facing step whose result is described by [Describe].
type Operation string

const (
	OpRegister             Operation = "register"
	OpVerifyEmail          Operation = "verify_email"
	OpLogin                Operation = "login"
	OpFactorRequired       Operation = "factor_required"
	OpBeginFactor          Operation = "begin_factor"
	OpEnrollFactor         Operation = "enroll_factor"
	OpVerifyFactor         Operation = "verify_factor"
	OpRequestReset         Operation = "request_reset"
	OpShowResetForm        Operation = "show_reset_form"
	OpCompleteReset        Operation = "complete_reset"
	OpLogout               Operation = "logout"
	OpRequireAuthenticated Operation = "require_authenticated"
	OpRequireAnonymous     Operation = "require_anonymous"
)

// Kind classifies an outcome independently of wording.
type Kind string

const (
	KindSuccess         Kind = "success"
	KindInvalidInput    Kind = "invalid_input"
	KindConflict        Kind = "conflict"
	KindInvalidToken    Kind = "invalid_token"
	KindAuthFailed      Kind = "authentication_failed"
	KindUnverified      Kind = "unverified"
	KindUnauthorized    Kind = "unauthorized"
	KindAlreadySignedIn Kind = "already_authenticated"
	KindNotFound        Kind = "not_found"
	KindRateLimited     Kind = "rate_limited"
	KindUnavailable     Kind = "unavailable"
	KindInternal        Kind = "internal"
)

// TokenPlaceholder appears in redirects that lead back to a reset form.
// Replace it with [Outcome.Expand].
const TokenPlaceholder = "{token}"

const somethingWentWrong = "Something went wrong"

// Outcome is the user-visible result of an operation: a flash message and
// the page to send the user to.
type Outcome struct {
	Kind     Kind
	Message  string
	Redirect string
}

// Success reports whether the operation succeeded.
func (o Outcome) Success() bool {
	return o.Kind == KindSuccess
}

// Expand substitutes token into Redirect.
func (o Outcome) Expand(token string) Outcome {
	o.Redirect = strings.ReplaceAll(o.Redirect, TokenPlaceholder, token)
	return o
}

// Status maps Kind onto an HTTP status for JSON transports.
func (k Kind) Status() int {
	switch k {
	case KindSuccess:
		return http.StatusOK
	case KindInvalidInput, KindInvalidToken:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindAuthFailed, KindUnauthorized:
		return http.StatusUnauthorized
	case KindUnverified, KindAlreadySignedIn:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var successOutcomes = map[Operation]Outcome{
	OpRegister:             {Message: "Registration successful! Check your email to verify.", Redirect: "/login"},
	OpVerifyEmail:          {Message: "Email verified! You can now log in.", Redirect: "/login"},
	OpLogin:                {Message: "Logged in successfully", Redirect: "/dashboard"},
	OpFactorRequired:       {Redirect: "/2fa/setup"},
	OpBeginFactor:          {},
	OpEnrollFactor:         {Message: "2FA enabled and logged in!", Redirect: "/dashboard"},
	OpVerifyFactor:         {Message: "Logged in with 2FA!", Redirect: "/dashboard"},
	OpRequestReset:         {Message: "Password reset link sent to your email", Redirect: "/login"},
	OpShowResetForm:        {},
	OpCompleteReset:        {Message: "Password reset successful! You can now log in.", Redirect: "/login"},
	OpLogout:               {Redirect: "/"},
	OpRequireAuthenticated: {},
	OpRequireAnonymous:     {},
}

// failurePage is where each operation sends the user on a domain error.
var failurePage = map[Operation]string{
	OpRegister:             "/register",
	OpVerifyEmail:          "/login",
	OpLogin:                "/login",
	OpBeginFactor:          "/login",
	OpEnrollFactor:         "/2fa/setup",
	OpVerifyFactor:         "/2fa/setup",
	OpRequestReset:         "/forgot-password",
	OpShowResetForm:        "/forgot-password",
	OpCompleteReset:        "/reset-password/" + TokenPlaceholder,
	OpRequireAuthenticated: "/login",
	OpRequireAnonymous:     "/dashboard",
}

// Describe describes the describe operation and its observable behavior.
//
// Describe maps the error returned by op onto the message and redirect the
// user sees. A nil err yields the operation's success outcome. Backend
// failures share one generic message so no internal detail leaks.
func Describe(op Operation, err error) Outcome {
	if err == nil {
		out := successOutcomes[op]
		out.Kind = KindSuccess
		return out
	}

	page := failurePage[op]
	if page == "" {
		page = "/login"
	}
	fail := func(kind Kind, msg string) Outcome {
		return Outcome{Kind: kind, Message: msg, Redirect: page}
	}

	var fieldErr *FieldError
	switch {
	case errors.As(err, &fieldErr):
		return fail(KindInvalidInput, fieldMessage(fieldErr))
	case errors.Is(err, ErrMissingField):
		return fail(KindInvalidInput, "All fields are required")
	case errors.Is(err, ErrInvalidField):
		return fail(KindInvalidInput, "Invalid input")
	case errors.Is(err, ErrDuplicateAccount):
		return fail(KindConflict, "Email or username already exists")
	case errors.Is(err, ErrInvalidOrExpiredToken):
		if op == OpVerifyEmail {
			return fail(KindInvalidToken, "Email verification failed or expired.")
		}
		// A dead reset token sends the user back to request a new one.
		return Outcome{Kind: KindInvalidToken, Message: "Password reset token is invalid or expired", Redirect: "/forgot-password"}
	case errors.Is(err, ErrAuthenticationFailed):
		return fail(KindAuthFailed, "Invalid email or password")
	case errors.Is(err, ErrNotVerified):
		return fail(KindUnverified, "Please verify your email before logging in")
	case errors.Is(err, ErrInvalidCode):
		return fail(KindAuthFailed, "Invalid authentication code")
	case errors.Is(err, ErrPasswordMismatch):
		return fail(KindInvalidInput, "Passwords do not match")
	case errors.Is(err, ErrFactorExpired):
		return Outcome{Kind: KindUnauthorized, Message: "Your sign-in attempt expired. Please log in again.", Redirect: "/login"}
	case errors.Is(err, ErrFactorAttemptsExceeded):
		return Outcome{Kind: KindUnauthorized, Message: "Too many invalid codes. Please log in again.", Redirect: "/login"}
	case errors.Is(err, ErrFactorAlreadyEnabled):
		return fail(KindConflict, "Two-factor authentication is already enabled. Enter a code from your authenticator app.")
	case errors.Is(err, ErrUnauthorized):
		if op == OpRequireAuthenticated {
			return fail(KindUnauthorized, "Please log in first.")
		}
		return Outcome{Kind: KindUnauthorized, Message: "Unauthorized", Redirect: "/login"}
	case errors.Is(err, ErrAlreadyAuthenticated):
		return fail(KindAlreadySignedIn, "")
	case errors.Is(err, ErrNoSuchAccount):
		return fail(KindNotFound, "No user with that email")
	case errors.Is(err, ErrRateLimited):
		return fail(KindRateLimited, "Too many attempts. Please try again later.")
	case errors.Is(err, ErrUnavailable):
		return fail(KindUnavailable, genericMessage(op))
	default:
		return fail(KindInternal, genericMessage(op))
	}
}

func genericMessage(op Operation) string {
	if op == OpLogin {
		return "Login failed"
	}
	return somethingWentWrong
}

func fieldMessage(e *FieldError) string {
	if e.Field == "" {
		return "Invalid input"
	}
	return strings.ToUpper(e.Field[:1]) + e.Field[1:] + " " + e.Reason
}
