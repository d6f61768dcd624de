package controls

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/definition"
	"github.com/nerrad567/gray-logic-controls/internal/events"
	"github.com/nerrad567/gray-logic-controls/internal/location"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// ─── Mock Dependencies ───────────────────────────────────────────────

type call struct {
	op           string
	id           string
	connectionID string
	controlID    string
	isTest       bool
}

type mockConnections struct {
	mu          sync.Mutex
	calls       []call
	learnValues map[string]any
	learnErr    error
	learnCalls  int
	learnGate   chan struct{}
	learnStart  chan struct{}
}

func (m *mockConnections) record(c call) connection.Pending {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
	return connection.Done(nil)
}

func (m *mockConnections) ActionUpdate(a model.ActionModel, controlID string) connection.Pending {
	return m.record(call{op: connection.OpActionUpdate, id: a.ID, connectionID: a.ConnectionID, controlID: controlID})
}

func (m *mockConnections) ActionDelete(a model.ActionModel) connection.Pending {
	return m.record(call{op: connection.OpActionDelete, id: a.ID, connectionID: a.ConnectionID})
}

func (m *mockConnections) FeedbackUpdate(f model.FeedbackModel, controlID string) connection.Pending {
	return m.record(call{op: connection.OpFeedbackUpdate, id: f.ID, connectionID: f.ConnectionID, controlID: controlID})
}

func (m *mockConnections) FeedbackDelete(f model.FeedbackModel) connection.Pending {
	return m.record(call{op: connection.OpFeedbackDelete, id: f.ID, connectionID: f.ConnectionID})
}

func (m *mockConnections) ExecuteAction(a model.ActionModel, extras model.RunExtras) connection.Pending {
	return m.record(call{op: connection.OpActionExecute, id: a.ID, connectionID: a.ConnectionID, controlID: extras.ControlID, isTest: extras.IsTest})
}

func (m *mockConnections) learn(ctx context.Context) (map[string]any, error) {
	m.mu.Lock()
	m.learnCalls++
	gate, start := m.learnGate, m.learnStart
	m.mu.Unlock()

	if start != nil {
		start <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.learnValues, m.learnErr
}

func (m *mockConnections) ActionLearnValues(ctx context.Context, _ model.ActionModel, _ string) (map[string]any, error) {
	return m.learn(ctx)
}

func (m *mockConnections) FeedbackLearnValues(ctx context.Context, _ model.FeedbackModel, _ string) (map[string]any, error) {
	return m.learn(ctx)
}

func (m *mockConnections) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *mockConnections) ops(op string) []call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []call
	for _, c := range m.calls {
		if op == "" || c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockConnections) executed() []string {
	var ids []string
	for _, c := range m.ops(connection.OpActionExecute) {
		ids = append(ids, c.id)
	}
	return ids
}

func (m *mockConnections) learnCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.learnCalls
}

type mockGraphics struct {
	mu          sync.Mutex
	invalidated map[model.Location]int
}

func (g *mockGraphics) InvalidateButton(loc model.Location) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.invalidated == nil {
		g.invalidated = make(map[model.Location]int)
	}
	g.invalidated[loc]++
}

func (g *mockGraphics) count(loc model.Location) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.invalidated[loc]
}

func (g *mockGraphics) total() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.invalidated {
		n += c
	}
	return n
}

func (g *mockGraphics) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.invalidated = nil
}

type broadcast struct {
	channel string
	payload any
}

type mockBroadcaster struct {
	mu   sync.Mutex
	sent []broadcast
}

func (b *mockBroadcaster) Broadcast(channel string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, broadcast{channel: channel, payload: payload})
}

func (b *mockBroadcaster) on(channel string) []any {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []any
	for _, s := range b.sent {
		if s.channel == channel {
			out = append(out, s.payload)
		}
	}
	return out
}

func (b *mockBroadcaster) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = nil
}

type memStore struct {
	mu     sync.Mutex
	models map[string]model.ControlModel
}

func newMemStore() *memStore {
	return &memStore{models: make(map[string]model.ControlModel)}
}

func (s *memStore) List(context.Context) (map[string]model.ControlModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]model.ControlModel, len(s.models))
	for id, m := range s.models {
		out[id] = m.DeepCopy()
	}
	return out, nil
}

func (s *memStore) Save(_ context.Context, id string, m model.ControlModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[id] = m.DeepCopy()
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.models, id)
	return nil
}

func (s *memStore) get(id string) (model.ControlModel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[id]
	return m, ok
}

// ─── Harness ─────────────────────────────────────────────────────────

type harness struct {
	c        *Controller
	grid     *location.Grid
	defs     *definition.Registry
	conns    *mockConnections
	graphics *mockGraphics
	bcast    *mockBroadcaster
	store    *memStore
	bus      *events.Bus
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		grid:     location.NewGrid(3, 4, 8),
		defs:     definition.NewRegistry(),
		conns:    &mockConnections{},
		graphics: &mockGraphics{},
		bcast:    &mockBroadcaster{},
		store:    newMemStore(),
		bus:      events.NewBus(),
	}
	h.defs.SetConnectionDefinitions("hue-1",
		[]definition.ActionDefinition{{Kind: "on"}, {Kind: "off"}},
		[]definition.FeedbackDefinition{
			{Kind: "is_on", Type: definition.FeedbackBoolean, DefaultStyle: map[string]any{"bgcolor": 0xff0000}},
			{Kind: "colour", Type: definition.FeedbackAdvanced},
		})
	h.defs.SetConnectionDefinitions("sonos-1",
		[]definition.ActionDefinition{{Kind: "play"}}, nil)

	h.c = NewController(Deps{
		Grid:        h.grid,
		Definitions: h.defs,
		Connections: h.conns,
		Store:       h.store,
		Graphics:    h.graphics,
		Broadcaster: h.bcast,
		Bus:         h.bus,
		HoldTick:    10 * time.Millisecond,
	})
	t.Cleanup(h.c.Close)
	return h
}

// button creates a button at where.
func (h *harness) button(t *testing.T, where model.Location) string {
	t.Helper()
	id, ok := h.c.CreateControl(where, model.TypeButton)
	require.True(t, ok)
	return id
}

// addAction adds an action to the current step's set and returns its id.
func (h *harness) addAction(t *testing.T, id, setID, connectionID, kind string) string {
	t.Helper()
	actionID, err := h.c.ActionAdd(id, ActionListRef{SetID: setID}, connectionID, kind)
	require.NoError(t, err)
	require.NotEmpty(t, actionID)
	return actionID
}

// trigger creates an enabled trigger.
func (h *harness) trigger(t *testing.T) string {
	t.Helper()
	id := h.c.CreateTrigger()
	ok, err := h.c.OptionSet(id, "enabled", true)
	require.NoError(t, err)
	require.True(t, ok)
	return id
}

func (h *harness) reset() {
	h.conns.reset()
	h.graphics.reset()
	h.bcast.reset()
}

// eventually polls cond for up to a second.
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func at(page, row, col int) model.Location {
	return model.Location{Page: page, Row: row, Column: col}
}
