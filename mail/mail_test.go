package mail

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestLinks(t *testing.T) {
	o := Origin{Scheme: "https", Host: "auth.example.com"}
	require.Equal(t, "https://auth.example.com/verify-email/abc.def", VerificationLink(o, "abc.def"))
	require.Equal(t, "https://auth.example.com/reset-password/00ff", ResetLink(o, "00ff"))
}

func TestParseOrigin(t *testing.T) {
	o, err := ParseOrigin("http://localhost:3000/ignored")
	require.NoError(t, err)
	require.Equal(t, Origin{Scheme: "http", Host: "localhost:3000"}, o)
	require.True(t, o.Valid())

	_, err = ParseOrigin("localhost")
	require.Error(t, err)
}

func TestVerificationMessage(t *testing.T) {
	msg := VerificationMessage("a@example.com", Origin{Scheme: "http", Host: "h"}, "tok")
	require.Equal(t, "a@example.com", msg.To)
	require.Equal(t, "Verify your email", msg.Subject)
	require.Equal(t, `<p>Click to verify your email: <a href="http://h/verify-email/tok">http://h/verify-email/tok</a></p>`, msg.HTML)
}

func TestResetMessage(t *testing.T) {
	msg := ResetMessage("a@example.com", Origin{Scheme: "http", Host: "h"}, "tok")
	require.Equal(t, "Password Reset", msg.Subject)
	require.Contains(t, msg.HTML, `href="http://h/reset-password/tok"`)
}

func TestMessageValidate(t *testing.T) {
	require.ErrorIs(t, Message{Subject: "s"}.Validate(), ErrInvalidMessage)
	require.ErrorIs(t, Message{To: "a@b.c"}.Validate(), ErrInvalidMessage)
	require.NoError(t, Message{To: "a@b.c", Subject: "s"}.Validate())
}

func TestLogSender(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	err := NewLogSender(logger).Send(context.Background(), Message{To: "a@b.c", Subject: "s", HTML: "<p>x</p>"})
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	require.Equal(t, "a@b.c", entries[0].Data["to"])
	require.Equal(t, log.DebugLevel, entries[1].Level)

	require.ErrorIs(t, NewLogSender(logger).Send(context.Background(), Message{}), ErrInvalidMessage)
}

func TestNewResendSenderRequiresConfig(t *testing.T) {
	_, err := NewResendSender("", "from@example.com")
	require.Error(t, err)
	_, err = NewResendSender("re_key", "")
	require.Error(t, err)

	s, err := NewResendSender("re_key", "SecureApp <no-reply@example.com>")
	require.NoError(t, err)
	require.ErrorIs(t, s.Send(context.Background(), Message{}), ErrInvalidMessage)
}

func TestSenderFunc(t *testing.T) {
	var got Message
	var s Sender = SenderFunc(func(_ context.Context, m Message) error {
		got = m
		return nil
	})
	require.NoError(t, s.Send(context.Background(), Message{To: "x"}))
	require.Equal(t, "x", got.To)
}
