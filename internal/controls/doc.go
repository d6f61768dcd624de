// Package controls is the registry of buttons and triggers and the single
// entry point for every command against them.
//
// A Controller owns the controlId → Control map. Bank controls ("bank:…")
// are bound to a slot on the location grid; trigger controls ("trigger:…")
// are standalone. Every control variant has a fixed set of capabilities
// (actions, feedbacks, action sets, steps, events, options, style) and a
// command against a control lacking the capability fails with a
// *CapabilityError.
//
// # Concurrency
//
// The Controller serializes every command, bus delivery and delayed action
// body with one mutex; the instance trees it owns have no locks of their
// own. Connection notifications are queued without waiting. Learn is the
// only call that waits on a connection; it runs outside the lock and is
// deduplicated by the active-learn set.
//
// # Results
//
// Commands against an unknown control or node return a zero value and a nil
// error. Capability violations, learn conflicts and caller contract
// violations (ErrControlExists, instance.ErrInvalidMove,
// instance.ErrChildGroupNotSupported) are errors.
package controls
