package connection

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-controls/internal/infrastructure/mqtt"
)

type recordingListener struct {
	mu            sync.Mutex
	announcements map[string]Announcement
	status        map[string]bool
	values        map[string]map[string]any
}

func newRecordingListener() *recordingListener {
	return &recordingListener{
		announcements: make(map[string]Announcement),
		status:        make(map[string]bool),
		values:        make(map[string]map[string]any),
	}
}

func (l *recordingListener) ConnectionAnnounced(id string, a Announcement) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.announcements[id] = a
}

func (l *recordingListener) ConnectionStatus(id string, running bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status[id] = running
}

func (l *recordingListener) FeedbackValues(id string, values map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.values[id] = values
}

func TestManager_RegisterAndResolve(t *testing.T) {
	m := NewManager()
	m.Register("b", &mockHost{})
	m.Register("a", &mockHost{})

	assert.Equal(t, []string{"a", "b"}, m.IDs())
	_, ok := m.Host("a")
	assert.True(t, ok)

	m.Unregister("a")
	_, ok = m.Host("a")
	assert.False(t, ok)
}

func TestManager_AttachBrokerSubscribes(t *testing.T) {
	broker := newMockBroker()
	m := NewManager()
	require.NoError(t, m.AttachBroker(broker, 1, newRecordingListener()))

	topics := mqtt.Topics{}
	for _, topic := range []string{
		topics.AllConnectionDefinitions(),
		topics.AllConnectionStatus(),
		topics.AllFeedbackValues(),
		topics.AllResponses(),
	} {
		assert.Contains(t, broker.handlers, topic)
	}
}

func TestManager_Discovery(t *testing.T) {
	broker := newMockBroker()
	listener := newRecordingListener()
	m := NewManager()
	require.NoError(t, m.AttachBroker(broker, 1, listener))

	topics := mqtt.Topics{}
	require.NoError(t, broker.deliver(topics.ConnectionDefinitions("hue-1"),
		[]byte(`{"label":"Hue","actions":[{"id":"on","label":"Turn on"}],"feedbacks":[{"id":"is_on","type":"boolean"}]}`)))

	host, ok := m.Host("hue-1")
	require.True(t, ok)
	assert.IsType(t, &MQTTHost{}, host)

	ann := listener.announcements["hue-1"]
	assert.Equal(t, "Hue", ann.Label)
	require.Len(t, ann.Actions, 1)
	assert.Equal(t, "on", ann.Actions[0].Kind)
	require.Len(t, ann.Feedbacks, 1)
	assert.True(t, ann.Feedbacks[0].IsBoolean())

	require.NoError(t, broker.deliver(topics.ConnectionStatus("hue-1"), []byte(`{"running":true}`)))
	assert.True(t, listener.status["hue-1"])

	require.NoError(t, broker.deliver(topics.ConnectionFeedbackValues("hue-1"), []byte(`{"f1":true}`)))
	assert.Equal(t, map[string]any{"f1": true}, listener.values["hue-1"])

	assert.Error(t, broker.deliver(topics.ConnectionStatus("hue-1"), []byte(`{`)))
}

func TestManager_DiscoveryKeepsRegisteredHost(t *testing.T) {
	broker := newMockBroker()
	m := NewManager()
	custom := &mockHost{}
	m.Register("hue-1", custom)
	require.NoError(t, m.AttachBroker(broker, 1, nil))

	require.NoError(t, broker.deliver(mqtt.Topics{}.ConnectionDefinitions("hue-1"), []byte(`{"actions":[]}`)))
	host, _ := m.Host("hue-1")
	assert.Same(t, custom, host)
}

func TestManager_RoutesResponses(t *testing.T) {
	broker := newMockBroker()
	m := NewManager()
	require.NoError(t, m.AttachBroker(broker, 1, nil))
	require.NoError(t, broker.deliver(mqtt.Topics{}.ConnectionDefinitions("hue-1"), []byte(`{}`)))

	broker.onPublish = func(topic string, _ []byte) {
		if reqID, ok := strings.CutPrefix(topic, mqtt.TopicPrefix+"/request/hue-1/"); ok {
			_ = broker.deliver(mqtt.Topics{}.Response("hue-1", reqID), []byte(`{"options":{"scene":"relax"}}`))
		}
	}

	host, ok := m.Host("hue-1")
	require.True(t, ok)
	values, err := host.ActionLearnValues(context.Background(), action("a1", "hue-1"), "bank:1")
	require.NoError(t, err)
	assert.Equal(t, "relax", values["scene"])

	assert.NoError(t, broker.deliver(mqtt.Topics{}.Response("unknown", "r1"), []byte(`{}`)))
}
