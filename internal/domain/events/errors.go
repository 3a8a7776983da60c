package events

import (
	"errors"
	"fmt"
)

// Domain-specific errors for event operations.
var (
	// ErrNotFound is returned when the referenced event does not exist.
	ErrNotFound = errors.New("event not found")

	// ErrNotOrganization is returned when a non-organization account tries
	// to create, edit, or delete events.
	ErrNotOrganization = errors.New("only organization accounts may manage events")

	// ErrNotOwner is returned when an organization touches an event it does
	// not own.
	ErrNotOwner = errors.New("event belongs to another organization")
)

// ValidationError identifies the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
