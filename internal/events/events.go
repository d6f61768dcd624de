package events

import "time"

// Event is anything carried by the bus.
type Event interface {
	// Kind names the event for logs and metrics.
	Kind() string
}

// VariableChanged is published when a custom variable changes value.
type VariableChanged struct {
	Name string
	Old  any
	New  any
}

// ControlPressed is published for every press and release of a bank control.
type ControlPressed struct {
	ControlID string
	SurfaceID string
	Pressed   bool
}

// Tick is published by the tick source.
type Tick struct {
	Time time.Time
}

// Startup is published once after boot.
type Startup struct {
	Time time.Time
}

// ConnectionStatus is published when a connection starts or stops.
type ConnectionStatus struct {
	ConnectionID string
	Running      bool
}

func (VariableChanged) Kind() string  { return "variable_changed" }
func (ControlPressed) Kind() string   { return "control_pressed" }
func (Tick) Kind() string             { return "tick" }
func (Startup) Kind() string          { return "startup" }
func (ConnectionStatus) Kind() string { return "connection_status" }
