package server

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/authcore"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

type loginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

type factorRequest struct {
	Token string `form:"token" json:"token"`
}

type forgotPasswordRequest struct {
	Email string `form:"email" json:"email"`
}

type resetPasswordRequest struct {
	Password  string `form:"password" json:"password"`
	Password2 string `form:"password2" json:"password2"`
}

// bind decodes a form or JSON body. A malformed body is answered as a
// missing-field failure of op.
func (s *Server) bind(c *gin.Context, op authcore.Operation, dst any) bool {
	if errBind := c.ShouldBind(dst); errBind != nil {
		s.respond(c, op, authcore.ErrMissingField)
		return false
	}
	return true
}

// Register creates an account and mails its verification link.
func (s *Server) Register(c *gin.Context) {
	var body registerRequest
	if !s.bind(c, authcore.OpRegister, &body) {
		return
	}
	_, err := s.engine.Register(c.Request.Context(), authcore.RegisterRequest{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	s.respond(c, authcore.OpRegister, err)
}

// VerifyEmail redeems the token from a verification link.
func (s *Server) VerifyEmail(c *gin.Context) {
	err := s.engine.VerifyEmail(c.Request.Context(), c.Param("token"))
	s.respond(c, authcore.OpVerifyEmail, err)
}

// Login checks credentials. Accounts with TOTP are sent on to /2fa/setup.
func (s *Server) Login(c *gin.Context) {
	var body loginRequest
	if !s.bind(c, authcore.OpLogin, &body) {
		return
	}
	sess, ok := s.session(c)
	if !ok {
		return
	}
	res, err := s.engine.Login(c.Request.Context(), sess, body.Email, body.Password)
	if err == nil && res.FactorPending {
		s.respond(c, authcore.OpFactorRequired, nil)
		return
	}
	s.respond(c, authcore.OpLogin, err)
}

// Logout ends the session.
func (s *Server) Logout(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	s.engine.Logout(c.Request.Context(), sess)
	s.respond(c, authcore.OpLogout, nil)
}

// FactorSetup returns either an enrollment (secret, otpauth URI and QR
// code) or a bare challenge for accounts that already use TOTP.
func (s *Server) FactorSetup(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	prompt, err := s.engine.BeginFactor(c.Request.Context(), sess)
	if err != nil {
		s.respond(c, authcore.OpBeginFactor, err)
		return
	}
	if !prompt.Enrolling() {
		c.JSON(http.StatusOK, gin.H{"ok": true, "enrolling": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"enrolling": true,
		"secret":    prompt.Enrollment.Secret,
		"uri":       prompt.Enrollment.URI,
		"qr":        prompt.Enrollment.QRCode,
	})
}

// FactorVerify checks a TOTP code, finishing enrollment or a pending login.
func (s *Server) FactorVerify(c *gin.Context) {
	var body factorRequest
	if !s.bind(c, authcore.OpVerifyFactor, &body) {
		return
	}
	sess, ok := s.session(c)
	if !ok {
		return
	}
	res, err := s.engine.SubmitFactor(c.Request.Context(), sess, body.Token)
	if err == nil && res.Enrolled {
		s.respond(c, authcore.OpEnrollFactor, nil)
		return
	}
	s.respond(c, authcore.OpVerifyFactor, err)
}

// ForgotPassword mails a reset link.
func (s *Server) ForgotPassword(c *gin.Context) {
	var body forgotPasswordRequest
	if !s.bind(c, authcore.OpRequestReset, &body) {
		return
	}
	err := s.engine.RequestPasswordReset(c.Request.Context(), body.Email)
	s.respond(c, authcore.OpRequestReset, err)
}

// ShowResetForm reports whether the token in the link is still live.
func (s *Server) ShowResetForm(c *gin.Context) {
	err := s.engine.ValidateResetToken(c.Request.Context(), c.Param("token"))
	s.respond(c, authcore.OpShowResetForm, err)
}

// ResetPassword sets a new password with a reset token.
func (s *Server) ResetPassword(c *gin.Context) {
	token := c.Param("token")
	var body resetPasswordRequest
	if errBind := c.ShouldBind(&body); errBind != nil {
		s.respondOutcome(c, authcore.Describe(authcore.OpCompleteReset, authcore.ErrPasswordMismatch).Expand(token), nil)
		return
	}
	err := s.engine.CompleteReset(c.Request.Context(), token, body.Password, body.Password2)
	s.respondOutcome(c, authcore.Describe(authcore.OpCompleteReset, err).Expand(token), err)
}

// Dashboard returns the signed-in account and its unread count.
func (s *Server) Dashboard(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	unread, err := s.engine.UnreadNotificationCount(c.Request.Context(), sess.AccountID)
	if err != nil {
		s.respond(c, authcore.OpRequireAuthenticated, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"id":       sess.AccountID,
		"username": sess.Username,
		"unread":   unread,
	})
}

// Notifications lists the account's notifications.
func (s *Server) Notifications(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	items, err := s.engine.Notifications(c.Request.Context(), sess.AccountID)
	if err != nil {
		s.respond(c, authcore.OpRequireAuthenticated, err)
		return
	}

	out := make([]gin.H, 0, len(items))
	for _, n := range items {
		out = append(out, gin.H{
			"id":         n.ID,
			"message":    n.Message,
			"read":       n.Read,
			"created_at": n.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out})
}

// MarkNotificationsRead marks every notification read.
func (s *Server) MarkNotificationsRead(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	if err := s.engine.MarkNotificationsRead(c.Request.Context(), sess.AccountID); err != nil {
		s.respond(c, authcore.OpRequireAuthenticated, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// NotificationCount returns the unread count.
func (s *Server) NotificationCount(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	count, err := s.engine.UnreadNotificationCount(c.Request.Context(), sess.AccountID)
	if err != nil {
		s.respond(c, authcore.OpRequireAuthenticated, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// Healthz reports whether Redis is reachable.
func (s *Server) Healthz(c *gin.Context) {
	if err := s.engine.Ping(c.Request.Context()); err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, authcore.ErrEngineNotReady) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
