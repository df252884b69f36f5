package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/mail"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/session"
	"github.com/MrEthical07/authcore/store"
	"github.com/MrEthical07/authcore/token"
	"github.com/MrEthical07/authcore/totp"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

// LoginNotification is appended to an account's notifications on every
// completed login.
const LoginNotification = "You logged in successfully!"

// Engine runs the account flows. It is safe for concurrent use after
// [Builder.Build]; all per-request state lives in the account store and in
// the *session.Session passed by the caller.
type Engine struct {
	config    Config
	accounts  store.AccountStore
	sessions  *session.Store
	limiter   *rate.Limiter
	replay    *factorReplayGuard
	passwords *password.Argon2
	codec     *token.Codec
	factor    *totp.Generator
	mailer    mail.Sender
	logger    log.FieldLogger
	origin    mail.Origin
	validate  *validator.Validate
	audit     *internalaudit.Dispatcher
	metrics   *Metrics
	now       func() time.Time
}

// Close describes the close operation and its observable behavior.
//
// Close flushes buffered audit events. The engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Sessions returns the session store transports load and save through.
func (e *Engine) Sessions() *session.Store {
	if e == nil {
		return nil
	}
	return e.sessions
}

// Ping checks the Redis backend behind sessions and throttles.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	if _, err := e.sessions.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// AuditDropped returns the number of audit events lost to backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot returns empty maps when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

func (e *Engine) ready() error {
	if e == nil || e.accounts == nil || e.sessions == nil || e.passwords == nil {
		return ErrEngineNotReady
	}
	return nil
}

// unavailable wraps a backend failure so callers can tell it apart from
// domain errors with errors.Is(err, ErrUnavailable).
func unavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// findAccount returns (nil, nil) on a miss.
func (e *Engine) findAccount(ctx context.Context, c store.Criteria) (*store.Account, error) {
	acc, err := e.accounts.Find(ctx, c)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, unavailable(err)
	}
	return acc, nil
}

func (e *Engine) linkOrigin(ctx context.Context) (mail.Origin, bool) {
	if o, ok := originFromContext(ctx); ok {
		return mail.Origin{Scheme: o.scheme, Host: o.host}, true
	}
	return e.origin, e.origin.Valid()
}

// deliver sends msg after the triggering write has committed. Failures are
// logged and audited and never undo that write.
func (e *Engine) deliver(ctx context.Context, msg mail.Message, accountID, eventType string) bool {
	err := e.mailer.Send(ctx, msg)
	if err != nil {
		e.metricInc(MetricMailFailure)
		e.logger.WithError(err).WithFields(log.Fields{
			"account_id": accountID,
			"subject":    msg.Subject,
		}).Error("authcore: mail delivery failed")
		e.emitAudit(ctx, eventType, false, accountID, "", errDeliveryFailed, nil)
		return false
	}
	e.emitAudit(ctx, eventType, true, accountID, "", nil, nil)
	return true
}

// completeLogin moves sess to the authenticated state for acc. Activity and
// notification writes are best effort.
func (e *Engine) completeLogin(ctx context.Context, sess *session.Session, acc *store.Account) {
	now := e.now()
	if err := e.accounts.Update(ctx, acc.ID, store.RecordLogin{At: now}); err != nil {
		e.logger.WithError(err).WithField("account_id", acc.ID).Warn("authcore: record login failed")
	}
	if err := e.accounts.AppendNotification(ctx, acc.ID, LoginNotification); err != nil {
		e.logger.WithError(err).WithField("account_id", acc.ID).Warn("authcore: login notification failed")
	}
	if err := e.limiter.ResetLogin(ctx, acc.Email); err != nil {
		e.logger.WithError(err).WithField("account_id", acc.ID).Warn("authcore: reset login throttle failed")
	}

	sess.SetAuthenticated(acc.ID, acc.Username)
	e.metricInc(MetricSessionRotated)
}
