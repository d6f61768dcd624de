package instance

import (
	"context"
	"sync"

	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/definition"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// ─── Mock Dependencies ───────────────────────────────────────────────

type call struct {
	op           string
	id           string
	connectionID string
}

type mockConnections struct {
	mu          sync.Mutex
	calls       []call
	learnValues map[string]any
	learnErr    error
	learnCalls  int
}

func (m *mockConnections) record(op, id, connectionID string) connection.Pending {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call{op: op, id: id, connectionID: connectionID})
	return connection.Done(nil)
}

func (m *mockConnections) ActionUpdate(a model.ActionModel, _ string) connection.Pending {
	return m.record(connection.OpActionUpdate, a.ID, a.ConnectionID)
}

func (m *mockConnections) ActionDelete(a model.ActionModel) connection.Pending {
	return m.record(connection.OpActionDelete, a.ID, a.ConnectionID)
}

func (m *mockConnections) FeedbackUpdate(f model.FeedbackModel, _ string) connection.Pending {
	return m.record(connection.OpFeedbackUpdate, f.ID, f.ConnectionID)
}

func (m *mockConnections) FeedbackDelete(f model.FeedbackModel) connection.Pending {
	return m.record(connection.OpFeedbackDelete, f.ID, f.ConnectionID)
}

func (m *mockConnections) ActionLearnValues(context.Context, model.ActionModel, string) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.learnCalls++
	return m.learnValues, m.learnErr
}

func (m *mockConnections) FeedbackLearnValues(context.Context, model.FeedbackModel, string) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.learnCalls++
	return m.learnValues, m.learnErr
}

func (m *mockConnections) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *mockConnections) ops() []call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]call(nil), m.calls...)
}

type mapVariables map[string]any

func (v mapVariables) Variable(name string) (any, bool) {
	val, ok := v[name]
	return val, ok
}

func newTestEnv() (*Env, *mockConnections) {
	conns := &mockConnections{}
	defs := definition.NewRegistry()
	defs.SetConnectionDefinitions("hue-1",
		[]definition.ActionDefinition{{Kind: "on"}, {Kind: "off"}},
		[]definition.FeedbackDefinition{
			{Kind: "is_on", Type: definition.FeedbackBoolean},
			{Kind: "colour", Type: definition.FeedbackAdvanced},
		})
	defs.SetConnectionDefinitions("sonos-1",
		[]definition.ActionDefinition{{Kind: "play"}}, nil)
	return NewEnv("bank:test", conns, defs, nil), conns
}

func ext(id, connectionID, kind string) model.ActionModel {
	return model.ActionModel{ID: id, ConnectionID: connectionID, Action: kind, Options: map[string]any{}}
}

// conditional returns a logic_if with two external children in "default".
func conditional(id string) model.ActionModel {
	return model.ActionModel{
		ID: id, ConnectionID: model.InternalConnection, Action: definition.ActionLogicIf,
		Options: map[string]any{"variable": "mode", "op": "eq", "value": "day"},
		Children: map[string][]model.ActionModel{
			definition.GroupDefault: {ext(id+"-c1", "hue-1", "on"), ext(id+"-c2", "hue-1", "off")},
		},
	}
}
