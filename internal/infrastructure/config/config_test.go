package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars!"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
controls:
  pages: 10
  rows: 3
  columns: 5
database:
  path: "/tmp/test.db"
mqtt:
  broker:
    host: "broker.local"
    port: 1883
  qos: 1
api:
  port: 8080
security:
  jwt:
    secret: "`+testSecret+`"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Controls.Pages)
	assert.Equal(t, 3, cfg.Controls.Rows)
	assert.Equal(t, 5, cfg.Controls.Columns)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, "broker.local", cfg.MQTT.Broker.Host)
	// Defaults survive for unspecified keys.
	assert.Equal(t, 100, cfg.Controls.HoldTickMS)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
controls:
  pages: 0
security:
  jwt:
    secret: "`+testSecret+`"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "controls.pages")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Security.JWT.Secret = testSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "invalid qos", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "invalid port", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "missing jwt secret", mutate: func(c *Config) { c.Security.JWT.Secret = "" }, wantErr: true},
		{name: "short jwt secret", mutate: func(c *Config) { c.Security.JWT.Secret = "short" }, wantErr: true},
		{name: "hold tick too small", mutate: func(c *Config) { c.Controls.HoldTickMS = 1 }, wantErr: true},
		{name: "zero queue", mutate: func(c *Config) { c.Controls.OutboundQueueSize = 0 }, wantErr: true},
		{name: "influx without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("GRAYCONTROLS_DATABASE_PATH", "/env/db.sqlite")
	t.Setenv("GRAYCONTROLS_CONTROLS_PAGES", "12")
	t.Setenv("GRAYCONTROLS_MQTT_HOST", "mqtt.env")
	t.Setenv("GRAYCONTROLS_MQTT_PORT", "not-a-number")
	t.Setenv("GRAYCONTROLS_JWT_SECRET", "jwt-secret")

	cfg := defaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "/env/db.sqlite", cfg.Database.Path)
	assert.Equal(t, 12, cfg.Controls.Pages)
	assert.Equal(t, "mqtt.env", cfg.MQTT.Broker.Host)
	assert.Equal(t, 1883, cfg.MQTT.Broker.Port, "invalid override keeps the default")
	assert.Equal(t, "jwt-secret", cfg.Security.JWT.Secret)
}

func TestControlsConfig_Durations(t *testing.T) {
	c := ControlsConfig{HoldTickMS: 250, LearnTimeout: 3, StartupDelayMS: 1500}
	assert.Equal(t, 250*time.Millisecond, c.HoldTick())
	assert.Equal(t, 3*time.Second, c.LearnTimeoutDuration())
	assert.Equal(t, 1500*time.Millisecond, c.StartupDelay())
}
