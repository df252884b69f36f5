package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authcore/internal"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no live session exists for an identifier.
var ErrNotFound = errors.New("session not found")

// ErrRedisUnavailable wraps Redis transport failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

const deleteSessionScript = `
local existed = redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
return existed
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// Store is a Redis-backed session store. Each session lives under
// prefix:s:<id>. Sessions bound to an account, authenticated or pending, are
// also indexed under prefix:acct:<accountID> so they can be revoked together.
//
//	Docs: docs/session.md
type Store struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates a session Store. ttl is the lifetime applied on every save.
func NewStore(rdb redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "authcore"
	}
	return &Store{
		redis:  rdb,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the lifetime applied to saved sessions.
func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *Store) accountKey(accountID string) string {
	return s.prefix + ":acct:" + accountID
}

// New returns an empty, unsaved session with a fresh identifier.
func (s *Store) New() (*Session, error) {
	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &Session{
		ID:        sid.String(),
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}, nil
}

// Load fetches a session. Malformed identifiers and missing keys both yield
// ErrNotFound.
func (s *Store) Load(ctx context.Context, sessionID string) (*Session, error) {
	if _, err := internal.ParseSessionID(sessionID); err != nil {
		return nil, ErrNotFound
	}

	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		// A blob we cannot read is treated as absent and removed.
		_ = s.redis.Del(ctx, s.key(sessionID)).Err()
		return nil, ErrNotFound
	}
	sess.ID = sessionID
	sess.persisted = true
	return sess, nil
}

// LoadOrNew loads sessionID, or returns a fresh session when it is empty or unknown.
func (s *Store) LoadOrNew(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID != "" {
		sess, err := s.Load(ctx, sessionID)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return s.New()
}

// Save persists sess. A destroyed session is deleted. A renewed session gets
// a new identifier and its previous key is removed in the same transaction.
// Sessions with no state are not written, and a stored session that became
// empty is deleted.
//
//	Performance: 1 MULTI/EXEC round trip.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess.destroyed {
		id := sess.ID
		if id == "" {
			id = sess.previousID
		}
		if err := s.Delete(ctx, id); err != nil {
			return err
		}
		sess.previousID = ""
		sess.dirty = false
		sess.persisted = false
		return nil
	}

	if sess.ID == "" {
		sid, err := internal.NewSessionID()
		if err != nil {
			return err
		}
		sess.ID = sid.String()
	}

	now := s.now()
	if sess.CreatedAt == 0 {
		sess.CreatedAt = now.Unix()
	}
	sess.ExpiresAt = now.Add(s.ttl).Unix()

	previous := sess.previousID
	if sess.Empty() {
		// A stored session that lost its state must not survive under its
		// current id.
		if sess.persisted {
			if err := s.Delete(ctx, sess.ID); err != nil {
				return err
			}
		}
		if previous != "" && previous != sess.ID {
			if err := s.Delete(ctx, previous); err != nil {
				return err
			}
		}
		sess.previousID = ""
		sess.dirty = false
		sess.persisted = false
		return nil
	}

	data, err := Encode(sess)
	if err != nil {
		return err
	}
	accountID := sess.indexAccount()

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previous != "" && previous != sess.ID {
			pipe.Del(ctx, s.key(previous))
			if accountID != "" {
				pipe.SRem(ctx, s.accountKey(accountID), previous)
			}
		}
		pipe.Set(ctx, s.key(sess.ID), data, s.ttl)
		if accountID != "" {
			pipe.SAdd(ctx, s.accountKey(accountID), sess.ID)
			pipe.Expire(ctx, s.accountKey(accountID), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess.previousID = ""
	sess.dirty = false
	sess.persisted = true
	return nil
}

// Delete removes one session and its account index entry. Deleting a missing
// session is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	key := s.key(sessionID)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var accountID string
	if sess, decodeErr := Decode(data); decodeErr == nil {
		accountID = sess.indexAccount()
	}
	if accountID == "" {
		if err := s.redis.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		return nil
	}

	if err := deleteSessionLua.Run(ctx, s.redis, []string{key, s.accountKey(accountID)}, sessionID).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// DeleteAccount removes every indexed session of accountID.
//
// A session saved between the index read and the delete survives until its
// TTL; password reset callers accept that window.
func (s *Store) DeleteAccount(ctx context.Context, accountID string) (int, error) {
	accountKey := s.accountKey(accountID)

	ids, err := s.redis.SMembers(ctx, accountKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}
	keys = append(keys, accountKey)

	deleted, err := s.redis.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	// The index key itself is counted by DEL when present.
	if len(ids) > 0 {
		deleted--
	}
	if deleted < 0 {
		deleted = 0
	}
	return int(deleted), nil
}

// ActiveSessionIDs lists the indexed sessions of accountID.
func (s *Store) ActiveSessionIDs(ctx context.Context, accountID string) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.accountKey(accountID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return ids, nil
}

// Ping measures a Redis round trip.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
