// Package audit delivers authcore audit events to a [Sink] off the request
// path.
//
// A [Dispatcher] owns one goroutine and a bounded queue. When the queue is
// full it either drops the event and counts it or blocks the caller until
// the request context ends, depending on [Config].DropIfFull. Close drains
// what is queued.
//
// Sinks shipped here write to a channel, to an io.Writer as JSON lines, or
// to a logrus logger. Which events exist is decided by the engine, not by
// this package.
package audit
