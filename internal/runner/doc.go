// Package runner executes a control's action lists.
//
// A Runner walks an ordered list of actions. Internal "wait" actions add to
// a running delay; every later action in the same list is scheduled on a
// cancellable timer. Internal "action_group" and "logic_if" actions walk
// their child groups when they run. Other internal actions go to an
// Internal implementation and external actions are queued to their
// connection.
//
// AbortDelayed cancels every pending timer and any held repeat. Timer bodies
// are handed to a serializer (the controls controller's lock) and re-check
// their registration under the runner's lock, so a body never runs after
// an abort, even when its timer fired before the abort was processed.
package runner
