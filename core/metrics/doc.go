// Package metrics defines the observability contract of the client. Sinks
// record published commands, device replies and web API calls; several sinks
// are combined with NewMultiSink. Implementations (Prometheus, InfluxDB) live
// in infra/metrics and register themselves by name.
package metrics
