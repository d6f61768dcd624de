package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every Gray Logic Controls topic.
const TopicPrefix = "graycontrols"

// Topics builds MQTT topic strings. The zero value is ready to use:
//
//	mqtt.Topics{}.ConnectionCommand("hue-1", "action", "update")
//	// graycontrols/connection/hue-1/action/update
type Topics struct{}

// ConnectionCommand is the topic the engine publishes entity lifecycle
// messages on, e.g. entity "action" with op "update", "delete" or "execute".
func (Topics) ConnectionCommand(connectionID, entity, op string) string {
	return fmt.Sprintf("%s/connection/%s/%s/%s", TopicPrefix, connectionID, entity, op)
}

// ConnectionDefinitions is where a connection announces its action and
// feedback definitions (retained).
func (Topics) ConnectionDefinitions(connectionID string) string {
	return fmt.Sprintf("%s/connection/%s/definitions", TopicPrefix, connectionID)
}

// ConnectionFeedbackValues is where a connection pushes evaluated feedback values.
func (Topics) ConnectionFeedbackValues(connectionID string) string {
	return fmt.Sprintf("%s/connection/%s/feedback/values", TopicPrefix, connectionID)
}

// ConnectionStatus is where a connection reports running/stopped.
func (Topics) ConnectionStatus(connectionID string) string {
	return fmt.Sprintf("%s/connection/%s/status", TopicPrefix, connectionID)
}

// Request is the topic for a single request to a connection.
func (Topics) Request(connectionID, requestID string) string {
	return fmt.Sprintf("%s/request/%s/%s", TopicPrefix, connectionID, requestID)
}

// Response is the topic a connection answers a request on.
func (Topics) Response(connectionID, requestID string) string {
	return fmt.Sprintf("%s/response/%s/%s", TopicPrefix, connectionID, requestID)
}

// SystemStatus carries the engine's own online/offline state.
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// AllConnectionDefinitions matches every connection's definitions topic.
func (Topics) AllConnectionDefinitions() string {
	return TopicPrefix + "/connection/+/definitions"
}

// AllFeedbackValues matches every connection's feedback values topic.
func (Topics) AllFeedbackValues() string {
	return TopicPrefix + "/connection/+/feedback/values"
}

// AllConnectionStatus matches every connection's status topic.
func (Topics) AllConnectionStatus() string {
	return TopicPrefix + "/connection/+/status"
}

// AllResponses matches every response to every request.
func (Topics) AllResponses() string {
	return TopicPrefix + "/response/+/+"
}

// ParseConnectionTopic extracts the connection id and the remainder from a
// topic under graycontrols/connection/. ok is false for other topics.
//
//	ParseConnectionTopic("graycontrols/connection/hue-1/feedback/values")
//	// "hue-1", "feedback/values", true
func ParseConnectionTopic(topic string) (connectionID, rest string, ok bool) {
	tail, found := strings.CutPrefix(topic, TopicPrefix+"/connection/")
	if !found {
		return "", "", false
	}
	connectionID, rest, found = strings.Cut(tail, "/")
	if !found || connectionID == "" || rest == "" {
		return "", "", false
	}
	return connectionID, rest, true
}

// ParseResponseTopic extracts the connection and request ids from a response topic.
func ParseResponseTopic(topic string) (connectionID, requestID string, ok bool) {
	tail, found := strings.CutPrefix(topic, TopicPrefix+"/response/")
	if !found {
		return "", "", false
	}
	connectionID, requestID, found = strings.Cut(tail, "/")
	if !found || connectionID == "" || requestID == "" || strings.Contains(requestID, "/") {
		return "", "", false
	}
	return connectionID, requestID, true
}
