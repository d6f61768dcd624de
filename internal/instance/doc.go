// Package instance holds the live action and feedback trees owned by a
// control, and keeps every node synchronised with the connection it is
// bound to.
//
// Ownership is a forest: each ActionInstance belongs to exactly one
// ActionList (a set, a trigger's action list, or a child group of an
// internal action), and likewise for feedbacks. Only internal nodes whose
// definition declares a child group may own nested lists.
//
// Mutations are applied synchronously and then reported to the bound
// connection through Connections. Those notifications are fire-and-forget:
// the returned Pending values may be awaited (import does this) but errors
// are logged by the dispatcher and never roll the tree back. Learn is the
// only call whose error reaches the caller.
//
// The tree has no locks. The owning control's controller serialises access.
package instance
