package connection

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-controls/internal/definition"
	"github.com/nerrad567/gray-logic-controls/internal/infrastructure/mqtt"
)

// Announcement is what a connection publishes on its definitions topic.
type Announcement struct {
	Label     string                          `json:"label,omitempty"`
	Actions   []definition.ActionDefinition   `json:"actions"`
	Feedbacks []definition.FeedbackDefinition `json:"feedbacks"`
}

type statusMessage struct {
	Running bool `json:"running"`
}

// Listener receives connection lifecycle and data from the broker.
type Listener interface {
	ConnectionAnnounced(connectionID string, announcement Announcement)
	ConnectionStatus(connectionID string, running bool)
	FeedbackValues(connectionID string, values map[string]any)
}

// Manager is the registry of connection hosts.
type Manager struct {
	mu        sync.RWMutex
	hosts     map[string]Host
	mqttHosts map[string]*MQTTHost

	broker   Broker
	qos      byte
	listener Listener
	logger   Logger
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		hosts:     make(map[string]Host),
		mqttHosts: make(map[string]*MQTTHost),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// Register adds or replaces the host for a connection.
func (m *Manager) Register(connectionID string, host Host) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hosts[connectionID] = host
	if mh, ok := host.(*MQTTHost); ok {
		m.mqttHosts[connectionID] = mh
	} else {
		delete(m.mqttHosts, connectionID)
	}
}

// Unregister removes a connection's host.
func (m *Manager) Unregister(connectionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hosts, connectionID)
	delete(m.mqttHosts, connectionID)
}

// Host implements Resolver.
func (m *Manager) Host(connectionID string) (Host, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.hosts[connectionID]
	return h, ok
}

// IDs returns the registered connection ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.hosts))
	for id := range m.hosts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AttachBroker subscribes to the connection discovery, status, feedback and
// response topics. Announced connections get an MQTTHost automatically.
func (m *Manager) AttachBroker(broker Broker, qos byte, listener Listener) error {
	m.mu.Lock()
	m.broker = broker
	m.qos = qos
	m.listener = listener
	m.mu.Unlock()

	topics := mqtt.Topics{}
	subs := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{topics.AllConnectionDefinitions(), m.handleDefinitions},
		{topics.AllConnectionStatus(), m.handleStatus},
		{topics.AllFeedbackValues(), m.handleFeedbackValues},
		{topics.AllResponses(), m.handleResponse},
	}
	for _, s := range subs {
		if err := broker.Subscribe(s.topic, qos, s.handler); err != nil {
			return fmt.Errorf("subscribing to %s: %w", s.topic, err)
		}
	}
	return nil
}

func (m *Manager) handleDefinitions(topic string, payload []byte) error {
	connectionID, _, ok := mqtt.ParseConnectionTopic(topic)
	if !ok {
		return fmt.Errorf("unexpected definitions topic %q", topic)
	}
	var ann Announcement
	if err := json.Unmarshal(payload, &ann); err != nil {
		return fmt.Errorf("decoding definitions for %s: %w", connectionID, err)
	}

	m.mu.Lock()
	if _, exists := m.hosts[connectionID]; !exists {
		host := NewMQTTHost(connectionID, m.broker, m.qos)
		m.hosts[connectionID] = host
		m.mqttHosts[connectionID] = host
		m.logger.Info("connection discovered", "connection_id", connectionID)
	}
	listener := m.listener
	m.mu.Unlock()

	if listener != nil {
		listener.ConnectionAnnounced(connectionID, ann)
	}
	return nil
}

func (m *Manager) handleStatus(topic string, payload []byte) error {
	connectionID, _, ok := mqtt.ParseConnectionTopic(topic)
	if !ok {
		return fmt.Errorf("unexpected status topic %q", topic)
	}
	var status statusMessage
	if err := json.Unmarshal(payload, &status); err != nil {
		return fmt.Errorf("decoding status for %s: %w", connectionID, err)
	}

	m.mu.RLock()
	listener := m.listener
	m.mu.RUnlock()
	if listener != nil {
		listener.ConnectionStatus(connectionID, status.Running)
	}
	return nil
}

func (m *Manager) handleFeedbackValues(topic string, payload []byte) error {
	connectionID, _, ok := mqtt.ParseConnectionTopic(topic)
	if !ok {
		return fmt.Errorf("unexpected feedback topic %q", topic)
	}
	var values map[string]any
	if err := json.Unmarshal(payload, &values); err != nil {
		return fmt.Errorf("decoding feedback values for %s: %w", connectionID, err)
	}

	m.mu.RLock()
	listener := m.listener
	m.mu.RUnlock()
	if listener != nil {
		listener.FeedbackValues(connectionID, values)
	}
	return nil
}

func (m *Manager) handleResponse(topic string, payload []byte) error {
	connectionID, requestID, ok := mqtt.ParseResponseTopic(topic)
	if !ok {
		return fmt.Errorf("unexpected response topic %q", topic)
	}

	m.mu.RLock()
	host, exists := m.mqttHosts[connectionID]
	m.mu.RUnlock()
	if !exists {
		return nil
	}
	return host.HandleResponse(requestID, payload)
}
