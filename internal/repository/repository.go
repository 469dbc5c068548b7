// Package repository declares the persistence contracts used by the service layer.
// Implementations live in subpackages (postgres) and contain no business logic.
//
// Lookups that find nothing return sql.ErrNoRows, unwrapped, so callers can
// match it with errors.Is.
package repository

import (
	"errors"
	"fmt"
)

// ErrDuplicate is returned when an insert or update hits a unique constraint.
var ErrDuplicate = errors.New("duplicate key")

// MissingRelationError is returned when a post references an item or tag
// row that no longer exists. Field is "items" or "tags".
type MissingRelationError struct {
	Field string
	ID    int64
}

func (e *MissingRelationError) Error() string {
	return fmt.Sprintf("%s: %d does not exist", e.Field, e.ID)
}
