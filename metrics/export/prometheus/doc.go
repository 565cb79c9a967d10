// Package prometheus exposes dmsclient metrics to Prometheus.
//
// [Exporter] is a client_golang Collector. Mount [Exporter.Handler] on an
// HTTP mux, or register the Exporter in a registry of your own. Counter
// names are prefixed dmsclient_ and end in _total; the single histogram is
// dmsclient_request_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry.
//   - Mutate client state.
package prometheus
