// Package metrics exposes engine counters in the Prometheus text format.
//
// A Metrics value owns its own registry, so several instances (as in tests)
// never collide. It satisfies both connection.Metrics, for the notification
// dispatcher, and controls.Telemetry, for the controller.
package metrics
