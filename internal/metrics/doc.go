// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Session lifecycle counts (created, joined, finished, destroyed)
//   - Move throughput and rejection reasons
//   - Connected peer and active session gauges
package metrics
