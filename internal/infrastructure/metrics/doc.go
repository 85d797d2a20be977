// Package metrics exposes expvar-published counters and gauges used by the
// GraphFlow client, instantiation flow, run journal and dev stub server. It
// is consumed by the stub server for the /debug/vars and /metrics endpoints.
package metrics
