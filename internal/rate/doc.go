// Package rate provides Redis-backed fixed-window counters for failed logins
// and password-reset requests.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys:
//   - <prefix>:rl:login:<identifier>   failed logins per identifier
//   - <prefix>:rl:login-ip:<ip>        failed logins per client IP
//   - <prefix>:rl:reset:<identifier>   reset requests per identifier
package rate
