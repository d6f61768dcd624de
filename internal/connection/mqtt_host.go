package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-controls/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// Broker is the subset of *mqtt.Client used by MQTT hosts.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Request types sent on the request topic.
const (
	RequestActionLearn   = "action_learn"
	RequestFeedbackLearn = "feedback_learn"
)

type actionMessage struct {
	ControlID string            `json:"controlId,omitempty"`
	Action    model.ActionModel `json:"action"`
	Extras    *model.RunExtras  `json:"extras,omitempty"`
}

type feedbackMessage struct {
	ControlID string              `json:"controlId,omitempty"`
	Feedback  model.FeedbackModel `json:"feedback"`
}

type requestMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type responseMessage struct {
	Options map[string]any `json:"options,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// MQTTHost implements Host for a connection reached over the MQTT broker.
type MQTTHost struct {
	connectionID string
	broker       Broker
	qos          byte

	mu      sync.Mutex
	pending map[string]chan responseMessage
}

// NewMQTTHost creates a host publishing on the connection's topics.
func NewMQTTHost(connectionID string, broker Broker, qos byte) *MQTTHost {
	return &MQTTHost{
		connectionID: connectionID,
		broker:       broker,
		qos:          qos,
		pending:      make(map[string]chan responseMessage),
	}
}

// ActionUpdate publishes the action's current configuration.
func (h *MQTTHost) ActionUpdate(ctx context.Context, action model.ActionModel, controlID string) error {
	return h.publish(ctx, "action", "update", actionMessage{ControlID: controlID, Action: action})
}

// ActionDelete tells the connection the action no longer exists.
func (h *MQTTHost) ActionDelete(ctx context.Context, action model.ActionModel) error {
	return h.publish(ctx, "action", "delete", actionMessage{Action: action})
}

// FeedbackUpdate publishes the feedback's current configuration.
func (h *MQTTHost) FeedbackUpdate(ctx context.Context, feedback model.FeedbackModel, controlID string) error {
	return h.publish(ctx, "feedback", "update", feedbackMessage{ControlID: controlID, Feedback: feedback})
}

// FeedbackDelete tells the connection the feedback no longer exists.
func (h *MQTTHost) FeedbackDelete(ctx context.Context, feedback model.FeedbackModel) error {
	return h.publish(ctx, "feedback", "delete", feedbackMessage{Feedback: feedback})
}

// ExecuteAction asks the connection to run the action now.
func (h *MQTTHost) ExecuteAction(ctx context.Context, action model.ActionModel, extras model.RunExtras) error {
	return h.publish(ctx, "action", "execute", actionMessage{ControlID: extras.ControlID, Action: action, Extras: &extras})
}

// ActionLearnValues requests live option values for the action.
func (h *MQTTHost) ActionLearnValues(ctx context.Context, action model.ActionModel, controlID string) (map[string]any, error) {
	return h.request(ctx, RequestActionLearn, actionMessage{ControlID: controlID, Action: action})
}

// FeedbackLearnValues requests live option values for the feedback.
func (h *MQTTHost) FeedbackLearnValues(ctx context.Context, feedback model.FeedbackModel, controlID string) (map[string]any, error) {
	return h.request(ctx, RequestFeedbackLearn, feedbackMessage{ControlID: controlID, Feedback: feedback})
}

func (h *MQTTHost) publish(ctx context.Context, entity, op string, msg any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding %s %s: %w", entity, op, err)
	}
	return h.broker.Publish(mqtt.Topics{}.ConnectionCommand(h.connectionID, entity, op), payload, h.qos, false)
}

// request publishes a request and waits for the matching response.
func (h *MQTTHost) request(ctx context.Context, reqType string, payload any) (map[string]any, error) {
	requestID := model.GenerateID()
	body, err := json.Marshal(requestMessage{Type: reqType, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", reqType, err)
	}

	ch := make(chan responseMessage, 1)
	h.mu.Lock()
	h.pending[requestID] = ch
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.pending, requestID)
		h.mu.Unlock()
	}()

	if err := h.broker.Publish(mqtt.Topics{}.Request(h.connectionID, requestID), body, h.qos, false); err != nil {
		return nil, fmt.Errorf("publishing %s request: %w", reqType, err)
	}

	select {
	case resp := <-ch:
		if resp.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrRemote, resp.Error)
		}
		return resp.Options, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRequestTimeout, h.connectionID, reqType, ctx.Err())
	}
}

// HandleResponse delivers a response payload to the waiting request.
// Responses for unknown or expired requests are ignored.
func (h *MQTTHost) HandleResponse(requestID string, payload []byte) error {
	var resp responseMessage
	if err := json.Unmarshal(payload, &resp); err != nil {
		return fmt.Errorf("decoding response %s: %w", requestID, err)
	}

	h.mu.Lock()
	ch, ok := h.pending[requestID]
	delete(h.pending, requestID)
	h.mu.Unlock()

	if ok {
		ch <- resp
	}
	return nil
}
