// Package server is the reference HTTP transport for the authcore engine.
// It serves the account routes as JSON over gin, with the session carried
// in a cookie.
package server

import (
	"net/http"
	"strings"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/middleware"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Options configures [New]. Engine and Sessions are required.
type Options struct {
	Engine   *authcore.Engine
	Sessions *middleware.SessionManager
	Logger   log.FieldLogger
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
}

// Server wires the engine onto gin routes.
type Server struct {
	engine   *authcore.Engine
	sessions *middleware.SessionManager
	logger   log.FieldLogger
	metrics  http.Handler
}

// New constructs a Server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Server{
		engine:   opts.Engine,
		sessions: opts.Sessions,
		logger:   logger,
		metrics:  opts.Metrics,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), requestContext())

	r.GET("/healthz", s.Healthz)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}

	app := r.Group("")
	app.Use(middleware.GinSessions(s.sessions))

	// Email links are followed from mail clients in any session state.
	app.GET("/verify-email/:token", s.VerifyEmail)

	anon := app.Group("")
	anon.Use(middleware.GinRequireAnonymous(s.engine))
	anon.POST("/register", s.Register)
	anon.POST("/login", s.Login)
	anon.POST("/forgot-password", s.ForgotPassword)
	anon.GET("/reset-password/:token", s.ShowResetForm)
	anon.POST("/reset-password/:token", s.ResetPassword)

	// Reachable while a second factor is pending, so not gated.
	app.GET("/2fa/setup", s.FactorSetup)
	app.POST("/2fa/verify", s.FactorVerify)

	authed := app.Group("")
	authed.Use(middleware.GinRequireAuthenticated(s.engine))
	authed.POST("/logout", s.Logout)
	authed.GET("/dashboard", s.Dashboard)
	authed.GET("/notifications", s.Notifications)
	authed.POST("/notifications/mark-read", s.MarkNotificationsRead)
	authed.GET("/api/notifications/count", s.NotificationCount)

	return r
}

// requestContext copies the client IP and the public origin of the request
// into the request context for audit records and mailed links.
func requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := authcore.WithClientIP(c.Request.Context(), c.ClientIP())
		ctx = authcore.WithRequestOrigin(ctx, requestScheme(c.Request), c.Request.Host)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestScheme(r *http.Request) string {
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto == "http" || proto == "https" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": c.Writer.Status(),
			"ip":     c.ClientIP(),
		}).Debug("request")
	}
}
