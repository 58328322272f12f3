package metamodel

import (
	"errors"
	"fmt"
)

// NotFoundError reports that a named schema element no longer exists.
//
// The store resolves names to live schema handles at call time, so a
// lookup that passed interpretation-time checks can still fail here if
// the schema was mutated in between.
type NotFoundError struct {
	// Kind is the element kind: "class", "attribute" or "reference".
	Kind string

	// Name is the element name that failed to resolve.
	Name string

	// Class is the owning class name for attribute/reference lookups.
	Class string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Class != "" {
		return fmt.Sprintf("%s %q not found on class %q", e.Kind, e.Name, e.Class)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// IsNotFound returns true if the error is a lookup failure.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ConflictError reports a store-level uniqueness violation: creating or
// renaming an element to a name already in use.
type ConflictError struct {
	Kind  string // "class", "attribute" or "reference"
	Name  string
	Class string // owning class for feature conflicts
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.Class != "" {
		return fmt.Sprintf("class %q already has a %s named %q", e.Class, e.Kind, e.Name)
	}
	return fmt.Sprintf("a %s named %q already exists", e.Kind, e.Name)
}

// IsConflict returns true if the error is a uniqueness violation.
// Uses errors.As to handle wrapped errors.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
