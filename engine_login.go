package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/session"
	"github.com/MrEthical07/authcore/store"
)

var errNilSession = errors.New("authcore: nil session")

// Login describes the login operation and its observable behavior.
//
// Login checks email and password and then moves sess forward:
// accounts without a second factor become authenticated with a rotated
// session id, accounts with TOTP enabled become pending and must finish with
// [Engine.SubmitFactor]. Unknown emails and wrong passwords both return
// ErrAuthenticationFailed. A correct password on an unverified account
// returns ErrNotVerified and leaves sess untouched.
//
// The caller persists sess afterwards.
func (e *Engine) Login(ctx context.Context, sess *session.Session, email, pw string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, errNilSession
	}

	email = store.NormalizeEmail(email)
	ip := clientIPFromContext(ctx)

	if err := e.limiter.CheckLogin(ctx, email, ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", sess.ID, ErrRateLimited, nil)
			return nil, ErrRateLimited
		}
		return nil, unavailable(err)
	}

	var acc *store.Account
	if email != "" {
		found, err := e.findAccount(ctx, store.ByEmail(email))
		if err != nil {
			return nil, err
		}
		acc = found
	}

	start := time.Now()
	if acc == nil {
		e.passwords.VerifyDummy(pw)
		e.metricObserve(MetricLoginLatency, time.Since(start))
		return nil, e.loginFailed(ctx, sess, email, ip, "")
	}

	ok, err := e.passwords.Verify(pw, acc.PasswordHash)
	e.metricObserve(MetricLoginLatency, time.Since(start))
	if err != nil {
		e.logger.WithError(err).WithField("account_id", acc.ID).Error("authcore: stored password hash unreadable")
	}
	if !ok {
		return nil, e.loginFailed(ctx, sess, email, ip, acc.ID)
	}

	if !acc.Verified {
		e.metricInc(MetricLoginUnverified)
		e.emitAudit(ctx, auditEventLoginFailure, false, acc.ID, sess.ID, ErrNotVerified, nil)
		return nil, ErrNotVerified
	}

	if acc.TOTP.Enabled {
		sess.SetPending(acc.ID, e.now())
		e.metricInc(MetricFactorRequired)
		e.emitAudit(ctx, auditEventFactorRequired, true, acc.ID, "", nil, nil)
		return &LoginResult{FactorPending: true, AccountID: acc.ID}, nil
	}

	e.completeLogin(ctx, sess, acc)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, acc.ID, "", nil, nil)
	return &LoginResult{Authenticated: true, AccountID: acc.ID}, nil
}

func (e *Engine) loginFailed(ctx context.Context, sess *session.Session, email, ip, accountID string) error {
	if err := e.limiter.IncrementLogin(ctx, email, ip); err != nil {
		e.logger.WithError(err).Warn("authcore: increment login throttle failed")
	}
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, accountID, sess.ID, ErrAuthenticationFailed, nil)
	return ErrAuthenticationFailed
}
