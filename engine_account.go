package authcore

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/MrEthical07/authcore/mail"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/store"
	"github.com/go-playground/validator/v10"
)

// FieldError names the form field that failed validation. It matches
// ErrInvalidField under errors.Is.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidField
}

// Register describes the register operation and its observable behavior.
//
// Register creates an unverified account and mails a verification link to
// its email. It returns ErrMissingField, ErrInvalidField or
// ErrDuplicateAccount for bad input. A failed mail delivery does not fail
// registration; RegisterResult.VerificationMailed reports it instead.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = store.NormalizeEmail(req.Email)
	if req.Username == "" || req.Email == "" || strings.TrimSpace(req.Password) == "" {
		e.registerFailed(ctx, MetricRegisterInvalid, ErrMissingField)
		return nil, ErrMissingField
	}
	if err := e.validateRegistration(ctx, req); err != nil {
		e.registerFailed(ctx, MetricRegisterInvalid, err)
		return nil, err
	}

	existing, err := e.findAccount(ctx, store.ByEmailOrUsername(req.Email, req.Username))
	if err != nil {
		e.registerFailed(ctx, MetricRegisterInvalid, err)
		return nil, err
	}
	if existing != nil {
		e.registerFailed(ctx, MetricRegisterDuplicate, ErrDuplicateAccount)
		return nil, ErrDuplicateAccount
	}

	hash, err := e.passwords.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	acc, err := e.accounts.Create(ctx, store.NewAccount{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			e.registerFailed(ctx, MetricRegisterDuplicate, ErrDuplicateAccount)
			return nil, ErrDuplicateAccount
		}
		err = unavailable(err)
		e.registerFailed(ctx, MetricRegisterInvalid, err)
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, acc.ID, "", nil, nil)

	return &RegisterResult{
		AccountID:          acc.ID,
		VerificationMailed: e.mailVerification(ctx, acc),
	}, nil
}

func (e *Engine) mailVerification(ctx context.Context, acc *store.Account) bool {
	logger := e.logger.WithField("account_id", acc.ID)

	tok, err := e.codec.IssueVerification(acc.ID)
	if err != nil {
		logger.WithError(err).Error("authcore: issue verification token failed")
		e.emitAudit(ctx, auditEventVerificationMailed, false, acc.ID, "", err, nil)
		return false
	}
	origin, ok := e.linkOrigin(ctx)
	if !ok {
		logger.Error("authcore: no request origin or base url for verification link")
		e.emitAudit(ctx, auditEventVerificationMailed, false, acc.ID, "", errDeliveryFailed, nil)
		return false
	}
	return e.deliver(ctx, mail.VerificationMessage(acc.Email, origin, tok.String()), acc.ID, auditEventVerificationMailed)
}

func (e *Engine) registerFailed(ctx context.Context, metric MetricID, err error) {
	e.metricInc(metric)
	e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, nil)
}

func (e *Engine) validateRegistration(ctx context.Context, req RegisterRequest) error {
	if err := e.validate.StructCtx(ctx, req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return ErrInvalidField
	}
	return e.checkPassword(req.Password)
}

func (e *Engine) checkPassword(pw string) error {
	switch err := e.passwords.CheckPolicy(pw); {
	case errors.Is(err, password.ErrTooShort):
		return &FieldError{Field: "password", Reason: "must be at least " + strconv.Itoa(e.passwords.MinLength()) + " characters"}
	case errors.Is(err, password.ErrTooLong):
		return &FieldError{Field: "password", Reason: "is too long"}
	case err != nil:
		return ErrInvalidField
	}
	return nil
}

func fieldError(fe validator.FieldError) *FieldError {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "email":
		return &FieldError{Field: field, Reason: "must be a valid email address"}
	case "min", "max":
		if field == "username" {
			return &FieldError{Field: field, Reason: "must be between 3 and 20 characters"}
		}
		return &FieldError{Field: field, Reason: "has an invalid length"}
	default:
		return &FieldError{Field: field, Reason: "is invalid"}
	}
}
