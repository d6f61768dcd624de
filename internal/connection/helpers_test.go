package connection

import (
	"context"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-controls/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// ─── Mock Host ───────────────────────────────────────────────────────

type mockHost struct {
	mu      sync.Mutex
	ops     []string
	started chan struct{}
	gate    chan struct{}
	err     error
	panics  bool

	learnValues map[string]any
	learnBlock  bool
}

func (h *mockHost) record(ctx context.Context, op string) error {
	if h.started != nil {
		h.started <- struct{}{}
	}
	if h.gate != nil {
		<-h.gate
	}
	if h.panics {
		panic("boom")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = append(h.ops, op)
	return h.err
}

func (h *mockHost) ActionUpdate(ctx context.Context, a model.ActionModel, _ string) error {
	return h.record(ctx, "update:"+a.ID)
}

func (h *mockHost) ActionDelete(ctx context.Context, a model.ActionModel) error {
	return h.record(ctx, "delete:"+a.ID)
}

func (h *mockHost) FeedbackUpdate(ctx context.Context, f model.FeedbackModel, _ string) error {
	return h.record(ctx, "fb-update:"+f.ID)
}

func (h *mockHost) FeedbackDelete(ctx context.Context, f model.FeedbackModel) error {
	return h.record(ctx, "fb-delete:"+f.ID)
}

func (h *mockHost) ExecuteAction(ctx context.Context, a model.ActionModel, _ model.RunExtras) error {
	return h.record(ctx, "execute:"+a.ID)
}

func (h *mockHost) ActionLearnValues(ctx context.Context, _ model.ActionModel, _ string) (map[string]any, error) {
	if h.learnBlock {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return h.learnValues, nil
}

func (h *mockHost) FeedbackLearnValues(ctx context.Context, _ model.FeedbackModel, _ string) (map[string]any, error) {
	return h.learnValues, nil
}

func (h *mockHost) recorded() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.ops...)
}

type staticResolver map[string]Host

func (d *Dispatcher) queueCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

func (r staticResolver) Host(id string) (Host, bool) {
	h, ok := r[id]
	return h, ok
}

// ─── Mock Metrics ────────────────────────────────────────────────────

type mockMetrics struct {
	mu       sync.Mutex
	dropped  int
	failed   int
	executed int
}

func (m *mockMetrics) NotificationDropped(string) {
	m.mu.Lock()
	m.dropped++
	m.mu.Unlock()
}

func (m *mockMetrics) NotificationFailed(string, string) {
	m.mu.Lock()
	m.failed++
	m.mu.Unlock()
}

func (m *mockMetrics) ActionExecuted(string) {
	m.mu.Lock()
	m.executed++
	m.mu.Unlock()
}

func (m *mockMetrics) counts() (dropped, failed, executed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped, m.failed, m.executed
}

// ─── Mock Broker ─────────────────────────────────────────────────────

type published struct {
	topic   string
	payload []byte
}

type mockBroker struct {
	mu        sync.Mutex
	published []published
	handlers  map[string]mqtt.MessageHandler
	onPublish func(topic string, payload []byte)
}

func newMockBroker() *mockBroker {
	return &mockBroker{handlers: make(map[string]mqtt.MessageHandler)}
}

func (b *mockBroker) Publish(topic string, payload []byte, _ byte, _ bool) error {
	b.mu.Lock()
	b.published = append(b.published, published{topic: topic, payload: payload})
	hook := b.onPublish
	b.mu.Unlock()
	if hook != nil {
		hook(topic, payload)
	}
	return nil
}

func (b *mockBroker) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = handler
	return nil
}

// deliver routes a message to the subscription whose filter matches.
func (b *mockBroker) deliver(topic string, payload []byte) error {
	b.mu.Lock()
	var handler mqtt.MessageHandler
	for filter, h := range b.handlers {
		if topicMatches(filter, topic) {
			handler = h
			break
		}
	}
	b.mu.Unlock()
	if handler == nil {
		return nil
	}
	return handler(topic, payload)
}

func (b *mockBroker) last() published {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.published[len(b.published)-1]
}

func topicMatches(filter, topic string) bool {
	f := strings.Split(filter, "/")
	t := strings.Split(topic, "/")
	if len(f) != len(t) {
		return false
	}
	for i := range f {
		if f[i] != "+" && f[i] != t[i] {
			return false
		}
	}
	return true
}
