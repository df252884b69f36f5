package authcore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/mail"
	"github.com/MrEthical07/authcore/session"
	"github.com/MrEthical07/authcore/store"
	"github.com/MrEthical07/authcore/store/memstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type mailbox struct {
	mu       sync.Mutex
	messages []mail.Message
	fail     bool
}

func (m *mailbox) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp down")
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mailbox) last(t testing.TB) mail.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		t.Fatal("no mail sent")
	}
	return m.messages[len(m.messages)-1]
}

func (m *mailbox) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// linkToken extracts the token that follows path in the first href of html.
func linkToken(t testing.TB, html, path string) string {
	t.Helper()
	i := strings.Index(html, path)
	if i < 0 {
		t.Fatalf("link %q not found in %q", path, html)
	}
	rest := html[i+len(path):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		t.Fatalf("unterminated link in %q", html)
	}
	return rest[:end]
}

type testEnv struct {
	engine   *Engine
	accounts *memstore.Store
	mail     *mailbox
	clock    *testClock
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	logs     *test.Hook
}

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Tokens.VerificationSecret = testSecret
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Links.BaseURL = "http://localhost:3000"
	return cfg
}

func newTestEnv(t testing.TB, mutate func(*Config)) *testEnv {
	t.Helper()

	mr, rdb := newTestRedis(t)
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	env := &testEnv{
		accounts: memstore.New(),
		mail:     &mailbox{},
		clock:    &testClock{now: time.Unix(1_700_000_000, 0).UTC()},
		mr:       mr,
		rdb:      rdb,
		logs:     hook,
	}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAccountStore(env.accounts).
		WithMailer(env.mail).
		WithLogger(logger).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	engine.now = env.clock.Now
	t.Cleanup(engine.Close)

	env.engine = engine
	return env
}

func (env *testEnv) newSession(t testing.TB) *session.Session {
	t.Helper()
	sess, err := env.engine.Sessions().New()
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return sess
}

func (env *testEnv) save(t testing.TB, sess *session.Session) {
	t.Helper()
	if err := env.engine.Sessions().Save(context.Background(), sess); err != nil {
		t.Fatalf("save session: %v", err)
	}
}

// register creates an account and returns its id and the mailed verification token.
func (env *testEnv) register(t testing.TB, username, email, pw string) (string, string) {
	t.Helper()
	res, err := env.engine.Register(context.Background(), RegisterRequest{Username: username, Email: email, Password: pw})
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	return res.AccountID, linkToken(t, env.mail.last(t).HTML, "/verify-email/")
}

// verifiedAccount registers and verifies an account.
func (env *testEnv) verifiedAccount(t testing.TB, username, email, pw string) string {
	t.Helper()
	id, tok := env.register(t, username, email, pw)
	if err := env.engine.VerifyEmail(context.Background(), tok); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	return id
}

func (env *testEnv) account(t testing.TB, id string) *store.Account {
	t.Helper()
	acc, err := env.accounts.Find(context.Background(), store.ByID(id))
	if err != nil {
		t.Fatalf("Find(%s): %v", id, err)
	}
	return acc
}
