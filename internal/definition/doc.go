// Package definition resolves action, feedback and event kinds to their
// definitions.
//
// A definition describes the options an item accepts (with defaults) and,
// for internal actions, which named child groups it may own. Definitions for
// external connections arrive at runtime when a connection announces them;
// the internal definitions (wait, action_group, logic_if, ...) are built in.
//
// Lookups never fail with an error: an unknown connection or kind yields nil
// and the caller turns that into a benign false result.
package definition
