// Package internal holds helpers private to authcore, currently session
// identifier generation.
//
// Sub-packages:
//
//   - audit: async event dispatch to pluggable sinks
//   - config: YAML settings with environment overrides
//   - rate: Redis fixed-window login and reset throttles
//   - server: the gin HTTP surface over the Engine
package internal
