// Package otel exposes authcore engine metrics as OpenTelemetry observable
// instruments.
//
// [NewOTelExporter] creates one Int64ObservableCounter per engine counter
// and one Int64ObservableGauge per login latency bucket. A single callback
// reads Engine.MetricsSnapshot on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
