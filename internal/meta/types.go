package meta

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// UpperBoundMany is the sentinel upper bound for unbounded ("many")
// features. It is preserved verbatim through intent construction and
// application - never rewritten to a large finite number.
const UpperBoundMany = -1

// Default cardinality bounds for features when a descriptor omits them:
// single-valued and optional.
const (
	DefaultLowerBound = 0
	DefaultUpperBound = 1
)

// DefaultAttributeType is the primitive type assigned to attributes whose
// descriptor carries no type name.
const DefaultAttributeType = "string"

// NormalizeName returns the NFC normal form of an element name.
// All name comparisons in the metamodel go through this, so two spellings
// of the same composed/decomposed Unicode name refer to the same element.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// SameName reports whether two element names are equal after NFC
// normalization.
func SameName(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}

// Class is a node in the metamodel graph: a named type with inheritance,
// attributes and outgoing references.
type Class struct {
	Name       string      `json:"name"`
	Abstract   bool        `json:"abstract"`
	Interface  bool        `json:"interface"`
	SuperTypes []string    `json:"super_types,omitempty"` // class names, declaration order
	Attributes []Attribute `json:"attributes,omitempty"`
	References []Reference `json:"references,omitempty"`
}

// Attribute is a typed field on a class.
type Attribute struct {
	Name  string `json:"name"`
	Type  string `json:"type"` // primitive type name, e.g. "string", "int"
	Lower int    `json:"lower"`
	Upper int    `json:"upper"` // UpperBoundMany for unbounded
}

// Reference is a typed, optionally containing edge from one class to
// another.
type Reference struct {
	Name        string `json:"name"`
	Target      string `json:"target"` // target class name
	Containment bool   `json:"containment"`
	Lower       int    `json:"lower"`
	Upper       int    `json:"upper"` // UpperBoundMany for unbounded
}

// Bounds renders a cardinality pair for display, e.g. "[0..1]" or "[1..*]".
func Bounds(lower, upper int) string {
	if upper == UpperBoundMany {
		return fmt.Sprintf("[%d..*]", lower)
	}
	return fmt.Sprintf("[%d..%d]", lower, upper)
}
