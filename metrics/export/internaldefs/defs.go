package internaldefs

import (
	"github.com/MrEthical07/authcore"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricRegisterSuccess, Name: "authcore_register_success_total", Help: "Accounts registered."},
	{ID: authcore.MetricRegisterDuplicate, Name: "authcore_register_duplicate_total", Help: "Registrations rejected for a taken email or username."},
	{ID: authcore.MetricRegisterInvalid, Name: "authcore_register_invalid_total", Help: "Registrations rejected for missing or invalid fields."},
	{ID: authcore.MetricVerificationSuccess, Name: "authcore_email_verification_success_total", Help: "Successful email verifications."},
	{ID: authcore.MetricVerificationFailure, Name: "authcore_email_verification_failure_total", Help: "Rejected email verification tokens."},
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Logins completed without a second factor."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Logins rejected for unknown email or wrong password."},
	{ID: authcore.MetricLoginUnverified, Name: "authcore_login_unverified_total", Help: "Logins rejected because the email is not verified."},
	{ID: authcore.MetricLoginRateLimited, Name: "authcore_login_rate_limited_total", Help: "Logins refused by the failed-attempt throttle."},
	{ID: authcore.MetricFactorRequired, Name: "authcore_factor_required_total", Help: "Logins that moved to a pending second factor."},
	{ID: authcore.MetricFactorEnrollmentStarted, Name: "authcore_factor_enrollment_started_total", Help: "TOTP enrollment secrets issued."},
	{ID: authcore.MetricFactorEnrolled, Name: "authcore_factor_enrolled_total", Help: "TOTP enrollments confirmed."},
	{ID: authcore.MetricFactorSuccess, Name: "authcore_factor_success_total", Help: "Accepted second-factor codes."},
	{ID: authcore.MetricFactorFailure, Name: "authcore_factor_failure_total", Help: "Rejected second-factor codes."},
	{ID: authcore.MetricFactorExpired, Name: "authcore_factor_expired_total", Help: "Pending second-factor contexts that expired."},
	{ID: authcore.MetricFactorAttemptsExceeded, Name: "authcore_factor_attempts_exceeded_total", Help: "Pending second-factor contexts dropped after too many codes."},
	{ID: authcore.MetricFactorReplay, Name: "authcore_factor_replay_total", Help: "Second-factor codes rejected as replays."},
	{ID: authcore.MetricPasswordResetRequest, Name: "authcore_password_reset_request_total", Help: "Password reset requests."},
	{ID: authcore.MetricPasswordResetRateLimited, Name: "authcore_password_reset_rate_limited_total", Help: "Password reset requests refused by the throttle."},
	{ID: authcore.MetricPasswordResetConfirmSuccess, Name: "authcore_password_reset_confirm_success_total", Help: "Completed password resets."},
	{ID: authcore.MetricPasswordResetConfirmFailure, Name: "authcore_password_reset_confirm_failure_total", Help: "Rejected password reset confirmations."},
	{ID: authcore.MetricSessionRotated, Name: "authcore_session_rotated_total", Help: "Session identifiers rotated on authentication."},
	{ID: authcore.MetricSessionsRevoked, Name: "authcore_sessions_revoked_total", Help: "Bulk session revocations."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Logouts."},
	{ID: authcore.MetricMailFailure, Name: "authcore_mail_failure_total", Help: "Failed mail deliveries."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricLoginLatency, Name: "authcore_login_password_seconds", Help: "Password verification latency during login."},
}

// HistogramBounds are the bucket upper bounds in seconds, matching the
// engine's millisecond buckets.
var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.2",
	"0.3",
	"0.5",
	"0.75",
	"1",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds spelled for instrument names.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_2",
	"0_3",
	"0_5",
	"0_75",
	"1",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
