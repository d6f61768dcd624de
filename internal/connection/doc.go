// Package connection is the engine's side of the connection RPC surface.
//
// A connection is an external integration (a lighting bridge, a media
// player, ...) that runs actions and evaluates feedbacks on the engine's
// behalf. Each one is reached through a Host, which performs blocking calls.
//
// The instance tree never calls a Host directly. It goes through the
// Dispatcher, which turns every update, delete and execute call into a
// message on a bounded per-connection queue drained by one goroutine per
// connection. Callers get back a Pending they may await or ignore; a full
// queue drops the message and logs a warning. Learn calls are the exception:
// they are awaited by the caller with a timeout.
//
// The Manager tracks the known Hosts. When attached to an MQTT broker it
// discovers connections from their definition announcements and creates an
// MQTTHost for each.
package connection
