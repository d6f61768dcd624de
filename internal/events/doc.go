// Package events is the trigger event bus.
//
// Publishers (the variable store, the controls controller, the tick source,
// the connection manager) post typed events; trigger controls subscribe and
// evaluate their conditions on delivery.
//
// Publish never blocks: events are queued and delivered in publish order by
// Run on its own goroutine, so a publisher may hold locks that subscribers
// also take.
package events
