package middleware

import (
	"context"
	"net/http"
	"sync"

	"github.com/MrEthical07/authcore/session"
	log "github.com/sirupsen/logrus"
)

// DefaultCookieName is the session cookie used when CookieConfig.Name is empty.
const DefaultCookieName = "authcore_session"

// CookieConfig controls the session cookie. The cookie is always HttpOnly
// and lives as long as the session store's TTL.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// SessionManager moves sessions between the session store and the cookie.
type SessionManager struct {
	store  *session.Store
	cookie CookieConfig
	logger log.FieldLogger
}

// NewSessionManager returns a manager over store. Zero cookie fields get
// defaults: name authcore_session, path "/", SameSite Lax.
func NewSessionManager(store *session.Store, cookie CookieConfig, logger log.FieldLogger) *SessionManager {
	if cookie.Name == "" {
		cookie.Name = DefaultCookieName
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	if cookie.SameSite == 0 {
		cookie.SameSite = http.SameSiteLaxMode
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &SessionManager{store: store, cookie: cookie, logger: logger}
}

// Load returns the session named by the request cookie, or a fresh one.
func (m *SessionManager) Load(r *http.Request) (*session.Session, error) {
	var id string
	if c, err := r.Cookie(m.cookie.Name); err == nil {
		id = c.Value
	}
	return m.store.LoadOrNew(r.Context(), id)
}

// Commit saves a changed session and writes the matching cookie. Destroyed
// and empty sessions expire the cookie. Must run before the response
// header is written.
func (m *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, sess *session.Session) error {
	if sess == nil || !sess.Dirty() {
		return nil
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return err
	}
	if sess.Destroyed() || sess.Empty() {
		http.SetCookie(w, m.expired())
		return nil
	}
	http.SetCookie(w, m.live(sess.ID))
	return nil
}

func (m *SessionManager) live(id string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookie.Name,
		Value:    id,
		Path:     m.cookie.Path,
		Domain:   m.cookie.Domain,
		MaxAge:   int(m.store.TTL().Seconds()),
		Secure:   m.cookie.Secure,
		HttpOnly: true,
		SameSite: m.cookie.SameSite,
	}
}

func (m *SessionManager) expired() *http.Cookie {
	c := m.live("")
	c.MaxAge = -1
	return c
}

type sessionContextKey struct{}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// FromContext returns the session placed by [Sessions] or [GinSessions].
func FromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return sess, ok && sess != nil
}

// Sessions loads the request's session into the context and commits it
// before the first byte of the response, or after the handler returns if
// it wrote nothing.
func Sessions(m *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := m.Load(r)
			if err != nil {
				m.logger.WithError(err).Error("authcore: session load failed")
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			ctx := WithSession(r.Context(), sess)
			cw := &commitWriter{ResponseWriter: w}
			cw.commit = func() {
				if err := m.Commit(ctx, w, sess); err != nil {
					m.logger.WithError(err).Error("authcore: session commit failed")
				}
			}

			next.ServeHTTP(cw, r.WithContext(ctx))
			cw.once.Do(cw.commit)
		})
	}
}

// commitWriter runs commit exactly once, before the header goes out.
type commitWriter struct {
	http.ResponseWriter
	commit func()
	once   sync.Once
}

func (w *commitWriter) WriteHeader(code int) {
	w.once.Do(w.commit)
	w.ResponseWriter.WriteHeader(code)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.once.Do(w.commit)
	return w.ResponseWriter.Write(b)
}

func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
