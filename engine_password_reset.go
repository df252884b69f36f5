package authcore

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/mail"
	"github.com/MrEthical07/authcore/store"
	"github.com/MrEthical07/authcore/token"
)

// RequestPasswordReset describes the requestpasswordreset operation and its observable behavior.
//
// RequestPasswordReset stores a fresh reset token digest on the account and
// mails the raw token as a link. Any earlier token stops working. Unknown
// emails succeed silently unless PasswordReset.RevealUnknownAccount is set,
// in which case they return ErrNoSuchAccount. Delivery failures are logged
// and do not change the result.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if err := e.ready(); err != nil {
		return err
	}

	email = store.NormalizeEmail(email)
	if email == "" {
		return ErrMissingField
	}

	if err := e.limiter.AllowResetRequest(ctx, email); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricPasswordResetRateLimited)
			e.emitAudit(ctx, auditEventPasswordResetRequest, false, "", "", ErrRateLimited, nil)
			return ErrRateLimited
		}
		return unavailable(err)
	}

	acc, err := e.findAccount(ctx, store.ByEmail(email))
	if err != nil {
		return err
	}

	// Generated for unknown emails too, to keep both paths alike.
	tok, err := token.NewResetToken(e.now(), e.config.Tokens.ResetTTL)
	if err != nil {
		return err
	}

	e.metricInc(MetricPasswordResetRequest)
	if acc == nil {
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, "", "", ErrNoSuchAccount, nil)
		if e.config.PasswordReset.RevealUnknownAccount {
			return ErrNoSuchAccount
		}
		return nil
	}

	if err := e.accounts.Update(ctx, acc.ID, store.SetResetToken{
		Hash:      token.HashResetToken(tok.Value),
		ExpiresAt: tok.ExpiresAt,
	}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return unavailable(err)
	}
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, acc.ID, "", nil, nil)

	origin, ok := e.linkOrigin(ctx)
	if !ok {
		e.logger.WithField("account_id", acc.ID).Error("authcore: no request origin or base url for reset link")
		e.emitAudit(ctx, auditEventPasswordResetMailed, false, acc.ID, "", errDeliveryFailed, nil)
		return nil
	}
	e.deliver(ctx, mail.ResetMessage(acc.Email, origin, tok.Value), acc.ID, auditEventPasswordResetMailed)
	return nil
}

// ValidateResetToken reports whether raw is a live reset token without
// consuming it. Dead, unknown and malformed tokens return
// ErrInvalidOrExpiredToken.
func (e *Engine) ValidateResetToken(ctx context.Context, raw string) error {
	if err := e.ready(); err != nil {
		return err
	}
	_, err := e.liveResetAccount(ctx, raw)
	return err
}

// CompleteReset describes the completereset operation and its observable behavior.
//
// CompleteReset replaces the password of the account holding raw and clears
// the token in one conditional write, so of two concurrent redemptions at
// most one succeeds. It checks, in order: that password equals confirmation
// and is non-empty (ErrPasswordMismatch), the password policy
// (ErrInvalidField), and the token (ErrInvalidOrExpiredToken). On success
// every session of the account is revoked and its login throttle cleared.
func (e *Engine) CompleteReset(ctx context.Context, raw, password, confirmation string) error {
	if err := e.ready(); err != nil {
		return err
	}

	if password == "" || password != confirmation {
		return e.resetFailed(ctx, "", ErrPasswordMismatch)
	}
	if err := e.checkPassword(password); err != nil {
		return e.resetFailed(ctx, "", err)
	}

	acc, err := e.liveResetAccount(ctx, raw)
	if err != nil {
		return e.resetFailed(ctx, "", err)
	}

	hash, err := e.passwords.Hash(password)
	if err != nil {
		return err
	}

	err = e.accounts.Update(ctx, acc.ID, store.RedeemResetToken{
		Hash:         token.HashResetToken(raw),
		Now:          e.now(),
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrPreconditionFailed) || errors.Is(err, store.ErrNotFound) {
			return e.resetFailed(ctx, acc.ID, ErrInvalidOrExpiredToken)
		}
		return e.resetFailed(ctx, acc.ID, unavailable(err))
	}

	revoked, err := e.sessions.DeleteAccount(ctx, acc.ID)
	if err != nil {
		e.logger.WithError(err).WithField("account_id", acc.ID).Error("authcore: revoke sessions after reset failed")
	} else if revoked > 0 {
		e.metricInc(MetricSessionsRevoked)
		e.emitAudit(ctx, auditEventSessionsRevoked, true, acc.ID, "", nil, func() map[string]string {
			return map[string]string{"reason": "password_reset"}
		})
	}
	if err := e.limiter.ResetLogin(ctx, acc.Email); err != nil {
		e.logger.WithError(err).WithField("account_id", acc.ID).Warn("authcore: reset login throttle failed")
	}

	e.metricInc(MetricPasswordResetConfirmSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, acc.ID, "", nil, nil)
	return nil
}

func (e *Engine) liveResetAccount(ctx context.Context, raw string) (*store.Account, error) {
	if !token.WellFormedResetToken(raw) {
		return nil, ErrInvalidOrExpiredToken
	}
	acc, err := e.findAccount(ctx, store.ByResetTokenHash(token.HashResetToken(raw)))
	if err != nil {
		return nil, err
	}
	if acc == nil || acc.ResetTokenExpiresAt == nil || !acc.ResetTokenExpiresAt.After(e.now()) {
		return nil, ErrInvalidOrExpiredToken
	}
	return acc, nil
}

func (e *Engine) resetFailed(ctx context.Context, accountID string, err error) error {
	e.metricInc(MetricPasswordResetConfirmFailure)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, false, accountID, "", err, nil)
	return err
}
