// Package memstore is an in-process [store.AccountStore] used by tests and
// single-node development setups.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/authcore/store"
	"github.com/google/uuid"
)

// Store keeps accounts in memory behind a single mutex. Conditional update
// groups are evaluated and applied under the same lock.
type Store struct {
	mu       sync.Mutex
	accounts map[string]*store.Account
	now      func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[string]*store.Account),
		now:      time.Now,
	}
}

func (s *Store) Find(ctx context.Context, c store.Criteria) (*store.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID != "" && !c.MatchAny {
		acc, ok := s.accounts[c.ID]
		if !ok || !c.Matches(acc) {
			return nil, store.ErrNotFound
		}
		return clone(acc), nil
	}
	for _, acc := range s.accounts {
		if c.Matches(acc) {
			return clone(acc), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) Create(ctx context.Context, in store.NewAccount) (*store.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	email := store.NormalizeEmail(in.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.accounts {
		if acc.Email == email || acc.Username == in.Username {
			return nil, store.ErrDuplicate
		}
	}

	now := s.now().UTC()
	acc := &store.Account{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.accounts[acc.ID] = acc
	return clone(acc), nil
}

func (s *Store) Update(ctx context.Context, id string, group store.FieldGroup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return store.ErrNotFound
	}
	// Apply on a copy so a failed precondition leaves the record untouched.
	next := clone(acc)
	if err := store.Apply(next, group); err != nil {
		return err
	}
	next.UpdatedAt = s.now().UTC()
	s.accounts[id] = next
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.accounts, id)
	return nil
}

func (s *Store) AppendNotification(ctx context.Context, id, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return store.ErrNotFound
	}
	acc.Notifications = append(acc.Notifications, store.Notification{
		ID:        uuid.NewString(),
		Message:   message,
		CreatedAt: s.now().UTC(),
	})
	return nil
}

func (s *Store) MarkNotificationsRead(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return store.ErrNotFound
	}
	for i := range acc.Notifications {
		acc.Notifications[i].Read = true
	}
	return nil
}

func clone(acc *store.Account) *store.Account {
	out := *acc
	if acc.ResetTokenExpiresAt != nil {
		t := *acc.ResetTokenExpiresAt
		out.ResetTokenExpiresAt = &t
	}
	if acc.Activity.LastLoginAt != nil {
		t := *acc.Activity.LastLoginAt
		out.Activity.LastLoginAt = &t
	}
	if acc.Notifications != nil {
		out.Notifications = append([]store.Notification(nil), acc.Notifications...)
	}
	return &out
}
