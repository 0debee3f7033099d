// Package metric provides Prometheus metrics for the ingress server.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Registry wiring named counters/gauges/histograms
//   - collector.go: a sampled prometheus.Collector for goroutine and
//     worker-pool occupancy
//
// Metrics include:
//
//   - Connection admission counters (rejected, filtered)
//   - Firewall anomaly counters
//   - Rate-limit throttle/reject counters
//   - Request count and latency histogram
//   - Per-status-code response counters
//
// Metrics are exposed at /metrics in Prometheus format via Registry.Handler.
package metric
