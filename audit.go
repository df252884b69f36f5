package authcore

import (
	"io"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
	log "github.com/sirupsen/logrus"
)

// AuditEvent is one security-relevant outcome emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = internalaudit.Sink

// NoOpSink drops every event.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers events in a channel, mostly for tests.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// LogrusSink writes events as structured log entries.
type LogrusSink = internalaudit.LogrusSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func NewLogrusSink(logger log.FieldLogger) *LogrusSink {
	return internalaudit.NewLogrusSink(logger)
}
