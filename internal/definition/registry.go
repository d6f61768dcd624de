package definition

import (
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// Logger is the logging interface used by the registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry holds action, feedback and event definitions keyed by
// connection id and kind. All methods are safe for concurrent use.
// Returned definitions are copies.
type Registry struct {
	mu        sync.RWMutex
	actions   map[string]map[string]*ActionDefinition
	feedbacks map[string]map[string]*FeedbackDefinition
	events    map[string]*EventDefinition
	logger    Logger
}

// NewRegistry creates a registry holding the internal definitions.
func NewRegistry() *Registry {
	r := &Registry{
		actions:   make(map[string]map[string]*ActionDefinition),
		feedbacks: make(map[string]map[string]*FeedbackDefinition),
		events:    make(map[string]*EventDefinition),
		logger:    noopLogger{},
	}
	r.SetConnectionDefinitions(model.InternalConnection, internalActions(), internalFeedbacks())
	for _, e := range eventDefinitions() {
		e := e
		r.events[e.Type] = &e
	}
	return r
}

// SetLogger sets the logger.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetConnectionDefinitions replaces every definition of a connection.
func (r *Registry) SetConnectionDefinitions(connectionID string, actions []ActionDefinition, feedbacks []FeedbackDefinition) {
	actionMap := make(map[string]*ActionDefinition, len(actions))
	for _, a := range actions {
		a.ConnectionID = connectionID
		actionMap[a.Kind] = a.clone()
	}
	feedbackMap := make(map[string]*FeedbackDefinition, len(feedbacks))
	for _, f := range feedbacks {
		f.ConnectionID = connectionID
		if f.Type == "" {
			f.Type = FeedbackAdvanced
		}
		feedbackMap[f.Kind] = f.clone()
	}

	r.mu.Lock()
	r.actions[connectionID] = actionMap
	r.feedbacks[connectionID] = feedbackMap
	r.mu.Unlock()

	r.logger.Debug("definitions updated", "connection_id", connectionID,
		"actions", len(actionMap), "feedbacks", len(feedbackMap))
}

// RemoveConnection forgets every definition of a connection. The internal
// definitions cannot be removed.
func (r *Registry) RemoveConnection(connectionID string) {
	if connectionID == model.InternalConnection {
		return
	}
	r.mu.Lock()
	delete(r.actions, connectionID)
	delete(r.feedbacks, connectionID)
	r.mu.Unlock()
}

// ConnectionIDs returns every connection with definitions, including
// "internal", sorted.
func (r *Registry) ConnectionIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool, len(r.actions)+len(r.feedbacks))
	for id := range r.actions {
		seen[id] = true
	}
	for id := range r.feedbacks {
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetActionDefinition returns the definition or nil.
func (r *Registry) GetActionDefinition(connectionID, kind string) *ActionDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.actions[connectionID][kind]
	if !ok {
		return nil
	}
	return def.clone()
}

// GetFeedbackDefinition returns the definition or nil.
func (r *Registry) GetFeedbackDefinition(connectionID, kind string) *FeedbackDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.feedbacks[connectionID][kind]
	if !ok {
		return nil
	}
	return def.clone()
}

// GetEventDefinition returns the definition or nil.
func (r *Registry) GetEventDefinition(eventType string) *EventDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.events[eventType]
	if !ok {
		return nil
	}
	cpy := *def
	return &cpy
}

// CreateActionItem builds a new action of the given kind with default
// options and a fresh id, or returns nil if the kind is unknown.
func (r *Registry) CreateActionItem(connectionID, kind string) *model.ActionModel {
	def := r.GetActionDefinition(connectionID, kind)
	if def == nil {
		return nil
	}
	if connectionID == model.InternalConnection {
		return newInternalAction(def)
	}
	return &model.ActionModel{
		ID:           model.GenerateID(),
		ConnectionID: connectionID,
		Action:       kind,
		Options:      defaultOptions(def.Options),
	}
}

// CreateFeedbackItem builds a new feedback, or returns nil if the kind is
// unknown or booleanOnly is set and the feedback is not boolean.
func (r *Registry) CreateFeedbackItem(connectionID, kind string, booleanOnly bool) *model.FeedbackModel {
	def := r.GetFeedbackDefinition(connectionID, kind)
	if def == nil || (booleanOnly && !def.IsBoolean()) {
		return nil
	}
	f := &model.FeedbackModel{
		ID:           model.GenerateID(),
		ConnectionID: connectionID,
		Type:         kind,
		Options:      defaultOptions(def.Options),
	}
	if def.IsBoolean() {
		f.Style = model.DeepCopyMap(def.DefaultStyle)
	}
	if connectionID == model.InternalConnection {
		idx := latestFeedbackUpgrade()
		f.UpgradeIndex = &idx
	}
	return f
}

// CreateEventItem builds a new enabled trigger event, or nil if the type is unknown.
func (r *Registry) CreateEventItem(eventType string) *model.EventModel {
	def := r.GetEventDefinition(eventType)
	if def == nil {
		return nil
	}
	return &model.EventModel{
		ID:      model.GenerateID(),
		Type:    eventType,
		Enabled: true,
		Options: defaultOptions(def.Options),
	}
}
