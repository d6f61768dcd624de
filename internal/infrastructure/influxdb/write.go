package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementControlPress    = "control_press"
	MeasurementActionExecution = "action_execution"
	MeasurementTriggerFired    = "trigger_fired"
	MeasurementLearn           = "learn"
)

// RecordPress records a press or release of a control.
func (c *Client) RecordPress(controlID, surfaceID string, pressed bool) {
	c.writePoint(pressPoint(controlID, surfaceID, pressed, time.Now()))
}

// RecordActionExecution records one action dispatched to a connection.
func (c *Client) RecordActionExecution(controlID, connectionID, action string) {
	c.writePoint(actionPoint(controlID, connectionID, action, time.Now()))
}

// RecordTriggerFired records a trigger running its actions.
func (c *Client) RecordTriggerFired(controlID string, isTest bool) {
	c.writePoint(write.NewPoint(MeasurementTriggerFired,
		map[string]string{"control_id": controlID},
		map[string]interface{}{"test": isTest},
		time.Now()))
}

// RecordLearn records the outcome and duration of a learn request.
func (c *Client) RecordLearn(connectionID string, ok bool, duration time.Duration) {
	c.writePoint(learnPoint(connectionID, ok, duration, time.Now()))
}

func (c *Client) writePoint(p *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(p)
}

func pressPoint(controlID, surfaceID string, pressed bool, ts time.Time) *write.Point {
	if surfaceID == "" {
		surfaceID = "none"
	}
	return write.NewPoint(MeasurementControlPress,
		map[string]string{"control_id": controlID, "surface_id": surfaceID},
		map[string]interface{}{"pressed": pressed},
		ts)
}

func actionPoint(controlID, connectionID, action string, ts time.Time) *write.Point {
	return write.NewPoint(MeasurementActionExecution,
		map[string]string{"control_id": controlID, "connection_id": connectionID, "action": action},
		map[string]interface{}{"count": 1},
		ts)
}

func learnPoint(connectionID string, ok bool, duration time.Duration, ts time.Time) *write.Point {
	return write.NewPoint(MeasurementLearn,
		map[string]string{"connection_id": connectionID},
		map[string]interface{}{"ok": ok, "duration_ms": duration.Milliseconds()},
		ts)
}
