package controls

import (
	"time"

	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/model"
	"github.com/nerrad567/gray-logic-controls/internal/runner"
)

// Telemetry records engine activity. *influxdb.Client and *metrics.Metrics
// implement it.
type Telemetry interface {
	RecordPress(controlID, surfaceID string, pressed bool)
	RecordActionExecution(controlID, connectionID, action string)
	RecordTriggerFired(controlID string, isTest bool)
	RecordLearn(connectionID string, ok bool, duration time.Duration)
}

type noopTelemetry struct{}

func (noopTelemetry) RecordPress(string, string, bool)             {}
func (noopTelemetry) RecordActionExecution(string, string, string) {}
func (noopTelemetry) RecordTriggerFired(string, bool)              {}
func (noopTelemetry) RecordLearn(string, bool, time.Duration)      {}

// MultiTelemetry fans out to every sink. Nil sinks are skipped.
type MultiTelemetry []Telemetry

func (m MultiTelemetry) RecordPress(controlID, surfaceID string, pressed bool) {
	for _, t := range m {
		if t != nil {
			t.RecordPress(controlID, surfaceID, pressed)
		}
	}
}

func (m MultiTelemetry) RecordActionExecution(controlID, connectionID, action string) {
	for _, t := range m {
		if t != nil {
			t.RecordActionExecution(controlID, connectionID, action)
		}
	}
}

func (m MultiTelemetry) RecordTriggerFired(controlID string, isTest bool) {
	for _, t := range m {
		if t != nil {
			t.RecordTriggerFired(controlID, isTest)
		}
	}
}

func (m MultiTelemetry) RecordLearn(connectionID string, ok bool, duration time.Duration) {
	for _, t := range m {
		if t != nil {
			t.RecordLearn(connectionID, ok, duration)
		}
	}
}

// recordingExecutor records every external action before queueing it.
type recordingExecutor struct {
	next      runner.Executor
	telemetry Telemetry
}

func (e recordingExecutor) ExecuteAction(action model.ActionModel, extras model.RunExtras) connection.Pending {
	e.telemetry.RecordActionExecution(extras.ControlID, action.ConnectionID, action.Action)
	if e.next == nil {
		return nil
	}
	return e.next.ExecuteAction(action, extras)
}
