package authcore

import (
	"context"
	"errors"
	"strconv"

	"github.com/MrEthical07/authcore/session"
	"github.com/MrEthical07/authcore/store"
)

// BeginFactor describes the beginfactor operation and its observable behavior.
//
// BeginFactor prepares a second-factor step for the session's principal,
// which may be authenticated or pending. When the account has no TOTP yet a
// fresh secret is held on the session and returned as an enrollment; when it
// has one the prompt is a bare challenge and no secret material leaves the
// store. Sessions without a principal get ErrUnauthorized.
func (e *Engine) BeginFactor(ctx context.Context, sess *session.Session) (*FactorPrompt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	acc, err := e.factorAccount(ctx, sess)
	if err != nil {
		return nil, err
	}

	if acc.TOTP.Enabled {
		sess.ClearPendingSecret()
		return &FactorPrompt{}, nil
	}

	prov, err := e.factor.GenerateSecret(acc.Email)
	if err != nil {
		return nil, err
	}
	sess.SetPendingSecret(prov.Secret)

	e.metricInc(MetricFactorEnrollmentStarted)
	e.emitAudit(ctx, auditEventFactorEnrollmentStart, true, acc.ID, sess.ID, nil, nil)
	return &FactorPrompt{Enrollment: prov}, nil
}

// SubmitFactor describes the submitfactor operation and its observable behavior.
//
// SubmitFactor checks code against the secret held on the session while
// enrolling, or against the account's stored secret otherwise. A wrong code
// returns ErrInvalidCode and keeps the pending state; after
// Factor.MaxAttempts wrong codes, or once the pending context is older than
// Factor.PendingTTL, the pending state is dropped and ErrFactorAttemptsExceeded
// or ErrFactorExpired is returned. A correct code enables TOTP when
// enrolling and authenticates the session under a new id. If TOTP was
// enabled with another secret while enrolling, ErrFactorAlreadyEnabled is
// returned without counting an attempt.
func (e *Engine) SubmitFactor(ctx context.Context, sess *session.Session, code string) (*FactorResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	acc, err := e.factorAccount(ctx, sess)
	if err != nil {
		return nil, err
	}

	enrolling := !acc.TOTP.Enabled
	secret := acc.TOTP.Secret
	if enrolling {
		secret = sess.PendingTOTPSecret
	}

	ok, step, err := e.checkCode(ctx, acc.ID, secret, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, e.factorRejected(ctx, sess, acc.ID)
	}

	if enrolling {
		if err := e.accounts.Update(ctx, acc.ID, store.EnableTOTP{Secret: secret}); err != nil {
			if errors.Is(err, store.ErrPreconditionFailed) {
				// Enabled concurrently with a different secret. The code was
				// valid, so no attempt is counted; the next BeginFactor
				// issues a plain challenge.
				sess.ClearPendingSecret()
				e.metricInc(MetricFactorFailure)
				e.emitAudit(ctx, auditEventFactorFailure, false, acc.ID, sess.ID, ErrFactorAlreadyEnabled, nil)
				return nil, ErrFactorAlreadyEnabled
			}
			return nil, unavailable(err)
		}
		e.metricInc(MetricFactorEnrolled)
		e.emitAudit(ctx, auditEventFactorEnabled, true, acc.ID, "", nil, func() map[string]string {
			return map[string]string{"step": strconv.FormatInt(step, 10)}
		})
	}

	e.completeLogin(ctx, sess, acc)
	e.metricInc(MetricFactorSuccess)
	e.emitAudit(ctx, auditEventFactorSuccess, true, acc.ID, "", nil, nil)

	return &FactorResult{
		AccountID: acc.ID,
		Username:  acc.Username,
		Enrolled:  enrolling,
	}, nil
}

// factorAccount resolves the principal and enforces the pending TTL.
func (e *Engine) factorAccount(ctx context.Context, sess *session.Session) (*store.Account, error) {
	principal, ok := sess.Principal()
	if !ok {
		return nil, ErrUnauthorized
	}

	if pending, isPending := principal.(session.PendingFactor); isPending {
		if e.now().Sub(pending.Since) > e.config.Factor.PendingTTL {
			sess.ClearPending()
			e.metricInc(MetricFactorExpired)
			e.emitAudit(ctx, auditEventFactorFailure, false, pending.AccountID, sess.ID, ErrFactorExpired, nil)
			return nil, ErrFactorExpired
		}
	}

	acc, err := e.findAccount(ctx, store.ByID(principal.Account()))
	if err != nil {
		return nil, err
	}
	if acc == nil {
		sess.ClearPending()
		return nil, ErrUnauthorized
	}
	return acc, nil
}

func (e *Engine) checkCode(ctx context.Context, accountID, secret, code string) (bool, int64, error) {
	if secret == "" {
		return false, 0, nil
	}
	ok, step, err := e.factor.Verify(secret, code, e.now())
	if err != nil {
		e.logger.WithError(err).WithField("account_id", accountID).Error("authcore: totp secret unreadable")
		return false, 0, nil
	}
	if !ok || e.replay == nil {
		return ok, step, nil
	}

	fresh, err := e.replay.mark(ctx, accountID, step)
	if err != nil {
		return false, 0, err
	}
	if !fresh {
		e.metricInc(MetricFactorReplay)
		return false, 0, nil
	}
	return true, step, nil
}

func (e *Engine) factorRejected(ctx context.Context, sess *session.Session, accountID string) error {
	attempts := sess.RecordFailedAttempt()
	if attempts >= e.config.Factor.MaxAttempts {
		sess.ClearPending()
		e.metricInc(MetricFactorAttemptsExceeded)
		e.emitAudit(ctx, auditEventFactorFailure, false, accountID, sess.ID, ErrFactorAttemptsExceeded, nil)
		return ErrFactorAttemptsExceeded
	}
	e.metricInc(MetricFactorFailure)
	e.emitAudit(ctx, auditEventFactorFailure, false, accountID, sess.ID, ErrInvalidCode, nil)
	return ErrInvalidCode
}
