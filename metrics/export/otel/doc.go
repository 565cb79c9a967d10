// Package otel publishes dmsclient metrics through an OpenTelemetry Meter.
//
// Counters are grouped into four labelled instruments: dmsclient.requests
// (outcome), dmsclient.session.events (event), dmsclient.refresh.monitor
// (action) and dmsclient.navigations (result). Request latency is exposed as
// cumulative bucket gauges keyed by "le". The freshness monitor's schedule is
// reported by dmsclient.refresh.scheduled and dmsclient.refresh.due_in.
//
// One callback reads the client on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate client state.
package otel
