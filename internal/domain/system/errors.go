package system

import "errors"

var (
	// ErrSystemNotFound indicates the system isn't in the catalog.
	ErrSystemNotFound = errors.New("system not found")
	// ErrInvalidCatalog indicates the catalog file can't be used.
	ErrInvalidCatalog = errors.New("invalid system catalog")
)
