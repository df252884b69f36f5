package mail

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// LogSender writes messages to a logger instead of delivering them. The body
// is logged at debug level only, since it contains live links.
type LogSender struct {
	logger log.FieldLogger
}

func NewLogSender(logger log.FieldLogger) *LogSender {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	entry := s.logger.WithFields(log.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	})
	entry.Info("outbound mail")
	entry.WithField("html", msg.HTML).Debug("outbound mail body")
	return nil
}
