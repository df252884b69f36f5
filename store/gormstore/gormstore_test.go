package gormstore

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Open(DialectSQLite, "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := New(db)
	require.NoError(t, s.AutoMigrate())
	return s
}

func TestCreateAndFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, store.NewAccount{Username: "alice", Email: " Alice@Example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "alice@example.com", created.Email)
	require.False(t, created.Verified)

	got, err := s.Find(ctx, store.ByEmail("ALICE@example.com"))
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	got, err = s.Find(ctx, store.ByEmailOrUsername("x@example.com", "alice"))
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	_, err = s.Find(ctx, store.ByUsername("bob"))
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Find(ctx, store.Criteria{})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, store.NewAccount{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	_, err = s.Create(ctx, store.NewAccount{Username: "alice2", Email: "ALICE@example.com", PasswordHash: "hash"})
	require.ErrorIs(t, err, store.ErrDuplicate)

	_, err = s.Create(ctx, store.NewAccount{Username: "alice", Email: "other@example.com", PasswordHash: "hash"})
	require.ErrorIs(t, err, store.ErrDuplicate)
}

func TestResetTokenLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acc, err := s.Create(ctx, store.NewAccount{Username: "carol", Email: "carol@example.com", PasswordHash: "old"})
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, s.Update(ctx, acc.ID, store.SetResetToken{Hash: "digest", ExpiresAt: now.Add(time.Hour)}))

	got, err := s.Find(ctx, store.ByResetTokenHash("digest"))
	require.NoError(t, err)
	require.Equal(t, acc.ID, got.ID)
	require.NotNil(t, got.ResetTokenExpiresAt)

	require.ErrorIs(t,
		s.Update(ctx, acc.ID, store.RedeemResetToken{Hash: "wrong", Now: now, PasswordHash: "new"}),
		store.ErrPreconditionFailed)

	require.NoError(t, s.Update(ctx, acc.ID, store.RedeemResetToken{Hash: "digest", Now: now, PasswordHash: "new"}))
	require.ErrorIs(t,
		s.Update(ctx, acc.ID, store.RedeemResetToken{Hash: "digest", Now: now, PasswordHash: "newer"}),
		store.ErrPreconditionFailed)

	got, err = s.Find(ctx, store.ByID(acc.ID))
	require.NoError(t, err)
	require.Equal(t, "new", got.PasswordHash)
	require.Empty(t, got.ResetTokenHash)
	require.Nil(t, got.ResetTokenExpiresAt)
}

func TestRedeemResetTokenOnlyOnceConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acc, err := s.Create(ctx, store.NewAccount{Username: "erin", Email: "erin@example.com", PasswordHash: "old"})
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, s.Update(ctx, acc.ID, store.SetResetToken{Hash: "digest", ExpiresAt: now.Add(time.Hour)}))

	const workers = 16
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Update(ctx, acc.ID, store.RedeemResetToken{Hash: "digest", Now: now, PasswordHash: "new-" + strconv.Itoa(i)})
		}(i)
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "more than one redemption succeeded")
			winner = i
			continue
		}
		require.ErrorIs(t, err, store.ErrPreconditionFailed)
	}
	require.NotEqual(t, -1, winner, "no redemption succeeded")

	got, err := s.Find(ctx, store.ByID(acc.ID))
	require.NoError(t, err)
	require.Equal(t, "new-"+strconv.Itoa(winner), got.PasswordHash)
	require.Empty(t, got.ResetTokenHash)
	require.Nil(t, got.ResetTokenExpiresAt)
}

func TestResetTokenExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acc, err := s.Create(ctx, store.NewAccount{Username: "dave", Email: "dave@example.com", PasswordHash: "old"})
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, s.Update(ctx, acc.ID, store.SetResetToken{Hash: "digest", ExpiresAt: now.Add(-time.Minute)}))
	require.ErrorIs(t,
		s.Update(ctx, acc.ID, store.RedeemResetToken{Hash: "digest", Now: now, PasswordHash: "new"}),
		store.ErrPreconditionFailed)
}

func TestEnableTOTPAndRecordLogin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acc, err := s.Create(ctx, store.NewAccount{Username: "erin", Email: "erin@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, acc.ID, store.EnableTOTP{Secret: "SECRET"}))
	require.ErrorIs(t, s.Update(ctx, acc.ID, store.EnableTOTP{Secret: "OTHER"}), store.ErrPreconditionFailed)

	require.NoError(t, s.Update(ctx, acc.ID, store.RecordLogin{At: time.Now()}))
	require.NoError(t, s.Update(ctx, acc.ID, store.RecordLogin{At: time.Now()}))
	require.NoError(t, s.Update(ctx, acc.ID, store.MarkVerified{}))

	got, err := s.Find(ctx, store.ByID(acc.ID))
	require.NoError(t, err)
	require.True(t, got.TOTP.Enabled)
	require.Equal(t, "SECRET", got.TOTP.Secret)
	require.EqualValues(t, 2, got.Activity.LoginCount)
	require.NotNil(t, got.Activity.LastLoginAt)
	require.True(t, got.Verified)

	require.ErrorIs(t, s.Update(ctx, "missing", store.MarkVerified{}), store.ErrNotFound)
}

func TestNotificationsAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acc, err := s.Create(ctx, store.NewAccount{Username: "frank", Email: "frank@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	require.NoError(t, s.AppendNotification(ctx, acc.ID, "first"))
	require.NoError(t, s.AppendNotification(ctx, acc.ID, "second"))

	got, err := s.Find(ctx, store.ByID(acc.ID))
	require.NoError(t, err)
	require.Len(t, got.Notifications, 2)
	require.Equal(t, "first", got.Notifications[0].Message)
	require.Equal(t, 2, got.UnreadCount())

	require.NoError(t, s.MarkNotificationsRead(ctx, acc.ID))
	got, err = s.Find(ctx, store.ByID(acc.ID))
	require.NoError(t, err)
	require.Zero(t, got.UnreadCount())

	require.ErrorIs(t, s.AppendNotification(ctx, "missing", "x"), store.ErrNotFound)

	require.NoError(t, s.Delete(ctx, acc.ID))
	_, err = s.Find(ctx, store.ByID(acc.ID))
	require.ErrorIs(t, err, store.ErrNotFound)
}
