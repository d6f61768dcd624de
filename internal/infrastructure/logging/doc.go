// Package logging provides structured logging for Gray Logic Controls.
//
// It wraps the standard log/slog package so every component logs with the
// same handler, level and default fields (service, version).
//
// Configuration (config.yaml):
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	runnerLog := logger.Component("runner")
//	runnerLog.Info("delayed actions aborted", "control_id", id)
//
// Never log secrets such as the JWT secret or MQTT credentials.
package logging
