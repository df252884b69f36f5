// Package session provides the per-client session object and its Redis-backed
// persistence.
//
// # Binary encoding
//
// Sessions are stored as a compact versioned binary blob (see [Encode]). A blob
// with an unknown version is treated as absent.
//
// # Identifier rotation
//
// Privilege changes (login, second-factor completion) call renew on the
// session; the next [Store.Save] assigns a fresh identifier and removes the
// old key, so an identifier observed before login is useless afterwards.
//
// # Architecture boundaries
//
// This package owns the [Store] and the [Session] model. It does NOT verify
// passwords or codes or decide who may log in. Those belong to the Engine.
package session
