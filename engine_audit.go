package authcore

import (
	"context"
	"errors"
	"time"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
)

const (
	auditEventRegisterSuccess       = "register_success"
	auditEventRegisterFailure       = "register_failure"
	auditEventVerificationMailed    = "email_verification_mailed"
	auditEventVerificationConfirm   = "email_verification_confirm"
	auditEventLoginSuccess          = "login_success"
	auditEventLoginFailure          = "login_failure"
	auditEventLoginRateLimited      = "login_rate_limited"
	auditEventFactorRequired        = "factor_required"
	auditEventFactorEnrollmentStart = "factor_enrollment_started"
	auditEventFactorEnabled         = "factor_enabled"
	auditEventFactorSuccess         = "factor_success"
	auditEventFactorFailure         = "factor_failure"
	auditEventPasswordResetRequest  = "password_reset_request"
	auditEventPasswordResetMailed   = "password_reset_mailed"
	auditEventPasswordResetConfirm  = "password_reset_confirm"
	auditEventSessionsRevoked       = "sessions_revoked"
	auditEventLogout                = "logout"
	auditEventNotificationsRead     = "notifications_marked_read"
)

// AuditErrorCode is the stable, non-sensitive error label carried in
// [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrMissingField     AuditErrorCode = "missing_field"
	auditErrInvalidField     AuditErrorCode = "invalid_field"
	auditErrDuplicate        AuditErrorCode = "duplicate"
	auditErrInvalidToken     AuditErrorCode = "invalid_token"
	auditErrInvalidCreds     AuditErrorCode = "invalid_credentials"
	auditErrNotVerified      AuditErrorCode = "not_verified"
	auditErrInvalidCode      AuditErrorCode = "invalid_code"
	auditErrPasswordMismatch AuditErrorCode = "password_mismatch"
	auditErrUnauthorized     AuditErrorCode = "unauthorized"
	auditErrNoSuchAccount    AuditErrorCode = "no_such_account"
	auditErrFactorExpired    AuditErrorCode = "factor_expired"
	auditErrAttemptsExceeded AuditErrorCode = "attempts_exceeded"
	auditErrFactorEnabled    AuditErrorCode = "factor_already_enabled"
	auditErrRateLimited      AuditErrorCode = "rate_limited"
	auditErrUnavailable      AuditErrorCode = "backend_unavailable"
	auditErrDeliveryFailed   AuditErrorCode = "delivery_failed"
	auditErrInternal         AuditErrorCode = "internal_error"
)

var errDeliveryFailed = errors.New("mail delivery failed")

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := internalaudit.Event{
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		AccountID: accountID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrMissingField):
		return auditErrMissingField
	case errors.Is(err, ErrInvalidField):
		return auditErrInvalidField
	case errors.Is(err, ErrDuplicateAccount):
		return auditErrDuplicate
	case errors.Is(err, ErrInvalidOrExpiredToken):
		return auditErrInvalidToken
	case errors.Is(err, ErrAuthenticationFailed):
		return auditErrInvalidCreds
	case errors.Is(err, ErrNotVerified):
		return auditErrNotVerified
	case errors.Is(err, ErrInvalidCode):
		return auditErrInvalidCode
	case errors.Is(err, ErrPasswordMismatch):
		return auditErrPasswordMismatch
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrNoSuchAccount):
		return auditErrNoSuchAccount
	case errors.Is(err, ErrFactorExpired):
		return auditErrFactorExpired
	case errors.Is(err, ErrFactorAttemptsExceeded):
		return auditErrAttemptsExceeded
	case errors.Is(err, ErrFactorAlreadyEnabled):
		return auditErrFactorEnabled
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrUnavailable):
		return auditErrUnavailable
	case errors.Is(err, errDeliveryFailed):
		return auditErrDeliveryFailed
	default:
		return auditErrInternal
	}
}
