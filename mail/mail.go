package mail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
)

// ErrInvalidMessage is returned when a message has no recipient or subject.
var ErrInvalidMessage = errors.New("mail: invalid message")

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Validate reports whether m can be handed to a transport.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("%w: missing recipient", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: missing subject", ErrInvalidMessage)
	}
	return nil
}

// Sender delivers messages. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to [Sender].
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

const (
	VerificationSubject = "Verify your email"
	ResetSubject        = "Password Reset"

	verificationPath = "/verify-email/"
	resetPath        = "/reset-password/"
)

// Origin is the scheme and host that links are built against.
type Origin struct {
	Scheme string
	Host   string
}

// ParseOrigin extracts scheme and host from a base URL such as
// "https://auth.example.com".
func ParseOrigin(base string) (Origin, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return Origin{}, err
	}
	if u.Scheme == "" || u.Host == "" {
		return Origin{}, fmt.Errorf("mail: base url %q needs scheme and host", base)
	}
	return Origin{Scheme: u.Scheme, Host: u.Host}, nil
}

// Valid reports whether both parts are present.
func (o Origin) Valid() bool {
	return o.Scheme != "" && o.Host != ""
}

// VerificationLink returns {scheme}://{host}/verify-email/{token}.
func VerificationLink(o Origin, token string) string {
	return link(o, verificationPath, token)
}

// ResetLink returns {scheme}://{host}/reset-password/{token}.
func ResetLink(o Origin, token string) string {
	return link(o, resetPath, token)
}

func link(o Origin, path, token string) string {
	return o.Scheme + "://" + o.Host + path + url.PathEscape(token)
}

// VerificationMessage builds the account verification email.
func VerificationMessage(to string, o Origin, token string) Message {
	href := html.EscapeString(VerificationLink(o, token))
	return Message{
		To:      to,
		Subject: VerificationSubject,
		HTML:    `<p>Click to verify your email: <a href="` + href + `">` + href + `</a></p>`,
	}
}

// ResetMessage builds the password reset email.
func ResetMessage(to string, o Origin, token string) Message {
	href := html.EscapeString(ResetLink(o, token))
	return Message{
		To:      to,
		Subject: ResetSubject,
		HTML:    `<p>Click to reset your password: <a href="` + href + `">` + href + `</a></p>`,
	}
}
