// Package authcore implements the account lifecycle of a session-based web
// application: registration with email verification, password login, TOTP
// second-factor enrollment and challenge, password reset, and session
// gating.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. Per-request state lives in the
// account store and in the *session.Session the caller loads before and
// saves after each call.
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// the sentinel errors and [Describe]. Durable records go through
// store.AccountStore, outbound mail through mail.Sender, sessions through
// session.Store. Throttling and audit dispatch live under internal/.
//
// # What this package must NOT do
//
//   - Render pages or set cookies; transports do that (see middleware and
//     internal/server).
//   - Log or audit passwords, codes, secrets or token values.
//   - Roll back a committed account write because mail delivery failed.
package authcore
