package authcore

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/store"
)

// Notifications returns the account's notifications, oldest first.
func (e *Engine) Notifications(ctx context.Context, accountID string) ([]store.Notification, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	acc, err := e.findAccount(ctx, store.ByID(accountID))
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrUnauthorized
	}
	return acc.Notifications, nil
}

// UnreadNotificationCount returns the number of unread notifications. An
// unknown account has none.
func (e *Engine) UnreadNotificationCount(ctx context.Context, accountID string) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	acc, err := e.findAccount(ctx, store.ByID(accountID))
	if err != nil {
		return 0, err
	}
	if acc == nil {
		return 0, nil
	}
	return acc.UnreadCount(), nil
}

// MarkNotificationsRead marks every notification of the account read.
func (e *Engine) MarkNotificationsRead(ctx context.Context, accountID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.accounts.MarkNotificationsRead(ctx, accountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnauthorized
		}
		return unavailable(err)
	}
	e.emitAudit(ctx, auditEventNotificationsRead, true, accountID, "", nil, nil)
	return nil
}
