package authcore

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/store"
)

// VerifyEmail describes the verifyemail operation and its observable behavior.
//
// VerifyEmail redeems a mailed verification token and marks the account
// verified. Every token failure, including a token for a deleted account,
// is ErrInvalidOrExpiredToken. Redeeming a token for an already verified
// account succeeds without changes.
func (e *Engine) VerifyEmail(ctx context.Context, raw string) error {
	if err := e.ready(); err != nil {
		return err
	}

	accountID, err := e.codec.RedeemVerification(raw)
	if err != nil {
		return e.verificationFailed(ctx, "", ErrInvalidOrExpiredToken)
	}

	acc, err := e.findAccount(ctx, store.ByID(accountID))
	if err != nil {
		return e.verificationFailed(ctx, accountID, err)
	}
	if acc == nil {
		return e.verificationFailed(ctx, accountID, ErrInvalidOrExpiredToken)
	}

	if acc.Verified {
		e.metricInc(MetricVerificationSuccess)
		e.emitAudit(ctx, auditEventVerificationConfirm, true, acc.ID, "", nil, func() map[string]string {
			return map[string]string{"already_verified": "true"}
		})
		return nil
	}

	if err := e.accounts.Update(ctx, acc.ID, store.MarkVerified{}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return e.verificationFailed(ctx, acc.ID, ErrInvalidOrExpiredToken)
		}
		return e.verificationFailed(ctx, acc.ID, unavailable(err))
	}

	e.metricInc(MetricVerificationSuccess)
	e.emitAudit(ctx, auditEventVerificationConfirm, true, acc.ID, "", nil, nil)
	return nil
}

func (e *Engine) verificationFailed(ctx context.Context, accountID string, err error) error {
	e.metricInc(MetricVerificationFailure)
	e.emitAudit(ctx, auditEventVerificationConfirm, false, accountID, "", err, nil)
	return err
}
