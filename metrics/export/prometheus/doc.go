// Package prometheus renders authcore engine metrics in Prometheus text
// exposition format.
//
// Counters are named authcore_*_total; the single histogram is
// authcore_login_password_seconds. Mount [PrometheusExporter.Handler] on
// the metrics route.
//
// # What this package must NOT do
//
//   - Register metrics in a global registry.
//   - Mutate engine state.
package prometheus
