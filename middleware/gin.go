package middleware

import (
	"net/http"
	"sync"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/session"
	"github.com/gin-gonic/gin"
)

const ginSessionKey = "authcore.session"

// GinSession returns the session placed by [GinSessions].
func GinSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(ginSessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok && sess != nil
}

// GinSessions is the gin form of [Sessions]. The session is reachable both
// through [GinSession] and through [FromContext] on the request context.
func GinSessions(m *SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := m.Load(c.Request)
		if err != nil {
			m.logger.WithError(err).Error("authcore: session load failed")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
			return
		}

		ctx := WithSession(c.Request.Context(), sess)
		c.Request = c.Request.WithContext(ctx)
		c.Set(ginSessionKey, sess)

		w := &ginCommitWriter{ResponseWriter: c.Writer}
		w.commit = func() {
			if err := m.Commit(ctx, w.ResponseWriter, sess); err != nil {
				m.logger.WithError(err).Error("authcore: session commit failed")
			}
		}
		c.Writer = w

		c.Next()
		w.once.Do(w.commit)
	}
}

type ginCommitWriter struct {
	gin.ResponseWriter
	commit func()
	once   sync.Once
}

func (w *ginCommitWriter) WriteHeader(code int) {
	w.once.Do(w.commit)
	w.ResponseWriter.WriteHeader(code)
}

func (w *ginCommitWriter) WriteHeaderNow() {
	w.once.Do(w.commit)
	w.ResponseWriter.WriteHeaderNow()
}

func (w *ginCommitWriter) Write(b []byte) (int, error) {
	w.once.Do(w.commit)
	return w.ResponseWriter.Write(b)
}

func (w *ginCommitWriter) WriteString(s string) (int, error) {
	w.once.Do(w.commit)
	return w.ResponseWriter.WriteString(s)
}

// GinRequireAuthenticated is the gin form of [RequireAuthenticated]. It
// redirects with 303 and aborts the chain.
func GinRequireAuthenticated(engine *authcore.Engine) gin.HandlerFunc {
	return ginGate(authcore.OpRequireAuthenticated, engine.RequireAuthenticated)
}

// GinRequireAnonymous is the gin form of [RequireAnonymous].
func GinRequireAnonymous(engine *authcore.Engine) gin.HandlerFunc {
	return ginGate(authcore.OpRequireAnonymous, engine.RequireAnonymous)
}

func ginGate(op authcore.Operation, check func(*session.Session) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, _ := GinSession(c)
		if err := check(sess); err != nil {
			out := authcore.Describe(op, err)
			c.Redirect(http.StatusSeeOther, out.Redirect)
			c.Abort()
			return
		}
		c.Next()
	}
}
