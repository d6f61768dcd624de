// Package mqtt wraps the paho MQTT client for Gray Logic Controls.
//
// The broker is the transport between the controls engine and its
// connections (device integrations running as separate processes). The
// engine publishes action/feedback lifecycle messages to each connection,
// issues learn requests and waits for their responses, and listens for
// definition announcements, feedback values and connection status.
//
// Topic layout (see Topics):
//
//	graycontrols/connection/{connection_id}/{entity}/{op}   engine -> connection
//	graycontrols/connection/{connection_id}/definitions     connection -> engine
//	graycontrols/connection/{connection_id}/feedback/values connection -> engine
//	graycontrols/connection/{connection_id}/status          connection -> engine
//	graycontrols/request/{connection_id}/{request_id}       engine -> connection
//	graycontrols/response/{connection_id}/{request_id}      connection -> engine
//	graycontrols/system/status                              engine LWT
//
// The client reconnects automatically and restores its subscriptions.
// Handlers run on paho goroutines; panics are recovered and logged.
package mqtt
