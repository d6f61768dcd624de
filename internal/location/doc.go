// Package location addresses controls on the button grid.
//
// A Grid maps (page, row, column) slots to bank control ids and back. At
// most one control occupies a slot and a control occupies at most one slot.
// Pages are numbered from 1; rows and columns from 0.
//
// The package also provides a PageRepository with a SQLite implementation
// for the operator-facing page names.
//
// # Thread Safety
//
// Grid is safe for concurrent use. SQLitePageRepository is safe for
// concurrent use from multiple goroutines (SQLite WAL mode + connection
// pooling).
package location
