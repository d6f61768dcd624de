package location

import "errors"

var (
	// ErrPageNotFound is returned when a page has no stored record.
	ErrPageNotFound = errors.New("page not found")

	// ErrInvalidPage is returned for page numbers outside the grid.
	ErrInvalidPage = errors.New("invalid page")

	// ErrInvalidName is returned for empty or oversized page names.
	ErrInvalidName = errors.New("invalid page name")
)
