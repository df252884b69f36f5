package authcore

import (
	"context"

	"github.com/MrEthical07/authcore/session"
)

// RequireAuthenticated returns ErrUnauthorized unless sess carries an
// authenticated account. A pending second factor does not count.
func (e *Engine) RequireAuthenticated(sess *session.Session) error {
	if !sess.IsAuthenticated() {
		return ErrUnauthorized
	}
	return nil
}

// RequireAnonymous returns ErrAlreadyAuthenticated when sess carries an
// authenticated account.
func (e *Engine) RequireAnonymous(sess *session.Session) error {
	if sess.IsAuthenticated() {
		return ErrAlreadyAuthenticated
	}
	return nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout empties sess and marks it for deletion; the session store removes
// it on the next save. Logging out an anonymous session is a no-op beyond
// that.
func (e *Engine) Logout(ctx context.Context, sess *session.Session) {
	if sess == nil {
		return
	}
	var accountID string
	if p, ok := sess.Principal(); ok {
		accountID = p.Account()
	}
	sessionID := sess.ID
	sess.Destroy()

	if accountID == "" {
		return
	}
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, accountID, sessionID, nil, nil)
}

// RevokeSessions deletes every session bound to accountID and returns how
// many were removed.
func (e *Engine) RevokeSessions(ctx context.Context, accountID string) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	n, err := e.sessions.DeleteAccount(ctx, accountID)
	if err != nil {
		return 0, unavailable(err)
	}
	if n > 0 {
		e.metricInc(MetricSessionsRevoked)
		e.emitAudit(ctx, auditEventSessionsRevoked, true, accountID, "", nil, func() map[string]string {
			return map[string]string{"reason": "explicit"}
		})
	}
	return n, nil
}
