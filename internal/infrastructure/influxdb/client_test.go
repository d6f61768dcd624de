package influxdb

import (
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"

	"github.com/nerrad567/gray-logic-controls/internal/infrastructure/config"
)

func lineProtocol(p *write.Point) string {
	return write.PointToLineProtocol(p, time.Nanosecond)
}

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: true, URL: "http://127.0.0.1:1", Org: "o", Bucket: "b"})
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestNilClient_IsSafe(t *testing.T) {
	var c *Client
	assert.False(t, c.IsConnected())
	assert.NoError(t, c.Close())
	// Writes on a nil or closed client are dropped.
	c.RecordPress("bank:1", "s1", true)
	c.Flush()
}

func TestPoints(t *testing.T) {
	ts := time.Unix(0, 42)

	tests := []struct {
		name  string
		point *write.Point
		want  []string
	}{
		{
			name:  "press",
			point: pressPoint("bank:1", "", true, ts),
			want:  []string{"control_press,", "control_id=bank:1", "surface_id=none", "pressed=true", " 42"},
		},
		{
			name:  "action",
			point: actionPoint("trigger:1", "hue-1", "scene", ts),
			want:  []string{"action_execution,", "connection_id=hue-1", "action=scene", "count=1i"},
		},
		{
			name:  "learn",
			point: learnPoint("hue-1", false, 1500*time.Millisecond, ts),
			want:  []string{"learn,", "ok=false", "duration_ms=1500i"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := lineProtocol(tt.point)
			for _, fragment := range tt.want {
				assert.Contains(t, line, fragment)
			}
		})
	}
}
