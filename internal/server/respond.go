package server

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/middleware"
	"github.com/MrEthical07/authcore/session"
	"github.com/gin-gonic/gin"
)

var errNoSession = errors.New("session middleware not mounted")

// outcomeResponse is the JSON body of every account route.
type outcomeResponse struct {
	OK       bool   `json:"ok"`
	Kind     string `json:"kind"`
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// respond renders the outcome of op. Unexpected errors are logged; their
// text never reaches the client.
func (s *Server) respond(c *gin.Context, op authcore.Operation, err error) {
	s.respondOutcome(c, authcore.Describe(op, err), err)
}

func (s *Server) respondOutcome(c *gin.Context, out authcore.Outcome, err error) {
	if out.Kind == authcore.KindInternal || out.Kind == authcore.KindUnavailable {
		s.logger.WithError(err).WithField("path", c.FullPath()).Error("authcore: request failed")
	}
	c.JSON(out.Kind.Status(), outcomeResponse{
		OK:       out.Success(),
		Kind:     string(out.Kind),
		Message:  out.Message,
		Redirect: out.Redirect,
	})
}

func (s *Server) session(c *gin.Context) (*session.Session, bool) {
	sess, ok := middleware.GinSession(c)
	if !ok {
		s.logger.WithError(errNoSession).Error("authcore: request without session")
		c.AbortWithStatusJSON(http.StatusInternalServerError, outcomeResponse{Kind: string(authcore.KindInternal)})
		return nil, false
	}
	return sess, true
}
