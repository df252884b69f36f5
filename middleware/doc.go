// Package middleware carries authcore sessions over HTTP.
//
// # Sessions
//
// [SessionManager] maps the session cookie onto session.Store. [Sessions]
// (net/http) and [GinSessions] (gin) load the session before the handler
// runs and commit it before the response header is written, so a rotated
// session id reaches the client with the same response.
//
// # Gates
//
//   - [RequireAuthenticated], [GinRequireAuthenticated]: authenticated accounts only.
//   - [RequireAnonymous], [GinRequireAnonymous]: signed-out visitors only.
//
// Gates delegate the decision to the Engine and the response to
// authcore.Describe.
//
// # What this package must NOT do
//
//   - Authenticate credentials (Engine does).
//   - Encode sessions (session.Store does).
package middleware
