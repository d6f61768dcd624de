package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ConnectionCommand", topics.ConnectionCommand("hue-1", "action", "update"), "graycontrols/connection/hue-1/action/update"},
		{"ConnectionDefinitions", topics.ConnectionDefinitions("hue-1"), "graycontrols/connection/hue-1/definitions"},
		{"ConnectionFeedbackValues", topics.ConnectionFeedbackValues("hue-1"), "graycontrols/connection/hue-1/feedback/values"},
		{"ConnectionStatus", topics.ConnectionStatus("hue-1"), "graycontrols/connection/hue-1/status"},
		{"Request", topics.Request("hue-1", "r1"), "graycontrols/request/hue-1/r1"},
		{"Response", topics.Response("hue-1", "r1"), "graycontrols/response/hue-1/r1"},
		{"SystemStatus", topics.SystemStatus(), "graycontrols/system/status"},
		{"AllConnectionDefinitions", topics.AllConnectionDefinitions(), "graycontrols/connection/+/definitions"},
		{"AllFeedbackValues", topics.AllFeedbackValues(), "graycontrols/connection/+/feedback/values"},
		{"AllConnectionStatus", topics.AllConnectionStatus(), "graycontrols/connection/+/status"},
		{"AllResponses", topics.AllResponses(), "graycontrols/response/+/+"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.got, tt.name)
	}
}

func TestParseConnectionTopic(t *testing.T) {
	tests := []struct {
		topic    string
		wantID   string
		wantRest string
		wantOK   bool
	}{
		{"graycontrols/connection/hue-1/feedback/values", "hue-1", "feedback/values", true},
		{"graycontrols/connection/hue-1/definitions", "hue-1", "definitions", true},
		{"graycontrols/connection/hue-1", "", "", false},
		{"graycontrols/connection//definitions", "", "", false},
		{"graycontrols/request/hue-1/r1", "", "", false},
	}
	for _, tt := range tests {
		id, rest, ok := ParseConnectionTopic(tt.topic)
		assert.Equal(t, tt.wantOK, ok, tt.topic)
		assert.Equal(t, tt.wantID, id, tt.topic)
		assert.Equal(t, tt.wantRest, rest, tt.topic)
	}
}

func TestParseResponseTopic(t *testing.T) {
	id, req, ok := ParseResponseTopic("graycontrols/response/hue-1/r1")
	assert.True(t, ok)
	assert.Equal(t, "hue-1", id)
	assert.Equal(t, "r1", req)

	_, _, ok = ParseResponseTopic("graycontrols/response/hue-1/r1/extra")
	assert.False(t, ok, "extra segment")
	_, _, ok = ParseResponseTopic("graycontrols/request/hue-1/r1")
	assert.False(t, ok, "request topic")
}
