// Package mail defines the outbound mail collaborator used by the auth flows.
//
// [Sender] is the only contract the engine depends on. [ResendSender] delivers
// through the Resend API and [LogSender] writes messages to a logrus logger,
// which is what the development server uses when no API key is configured.
//
// Link and message builders keep the verification and reset wording in one
// place so that every transport sends identical content.
package mail
