package controls

import (
	"maps"
	"sync"

	"github.com/nerrad567/gray-logic-controls/internal/events"
)

// Variables holds custom variables. Changes are published on the bus.
// All methods are safe for concurrent use.
type Variables struct {
	mu     sync.RWMutex
	values map[string]any
	bus    Bus
}

// NewVariables creates an empty store. bus may be nil.
func NewVariables(bus Bus) *Variables {
	return &Variables{values: make(map[string]any), bus: bus}
}

// Variable returns a value.
func (v *Variables) Variable(name string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.values[name]
	return val, ok
}

// Set stores a value and reports whether it changed.
func (v *Variables) Set(name string, value any) bool {
	v.mu.Lock()
	old, existed := v.values[name]
	if existed && sameScalar(old, value) {
		v.mu.Unlock()
		return false
	}
	v.values[name] = value
	v.mu.Unlock()

	if v.bus != nil {
		v.bus.Publish(events.VariableChanged{Name: name, Old: old, New: value})
	}
	return true
}

// All returns a copy of every variable.
func (v *Variables) All() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return maps.Clone(v.values)
}

func sameScalar(a, b any) bool {
	switch a.(type) {
	case map[string]any, []any:
		return false
	}
	switch b.(type) {
	case map[string]any, []any:
		return false
	}
	return a == b
}
