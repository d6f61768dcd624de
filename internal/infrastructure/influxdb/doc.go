// Package influxdb records control execution telemetry in InfluxDB v2.
//
// Points are written through the non-blocking batched WriteAPI, so a slow or
// unreachable InfluxDB never delays a button press. Write failures surface
// asynchronously through the callback set with SetOnError.
//
// Measurements:
//
//	control_press      tags: control_id, surface_id     fields: pressed
//	action_execution   tags: control_id, connection_id, action   fields: count
//	trigger_fired      tags: control_id                 fields: test
//	learn              tags: connection_id              fields: ok, duration_ms
package influxdb
