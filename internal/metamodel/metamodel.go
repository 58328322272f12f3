// Package metamodel owns the schema graph consumed by the evolution
// pipeline: class/feature lookup plus the low-level mutation primitives
// the batch applier drives.
//
// The Store interface is the capability boundary between the pipeline and
// schema storage. The interpreter and the applier both take a Store at
// construction (never hidden process-wide state), which keeps validation
// and application testable against an in-memory schema.
//
// Names, not captured object identities, are the binding contract: every
// mutation primitive re-resolves its names to live schema handles at call
// time and fails with NotFoundError if the named element no longer exists.
package metamodel

import "github.com/metamorph-dev/metamorph/internal/meta"

// Store exposes class/feature lookup and mutation primitives over a
// schema graph.
//
// All name parameters are compared NFC-normalized (meta.NormalizeName).
// Cardinality bounds pass through verbatim, including the
// meta.UpperBoundMany sentinel.
type Store interface {
	// FindClassByName returns the class with the given name, if any.
	FindClassByName(name string) (*meta.Class, bool)

	// AllClasses returns every class in declaration order.
	AllClasses() []*meta.Class

	// ClassAttributes returns the attributes declared on the class.
	ClassAttributes(c *meta.Class) []meta.Attribute

	// ClassReferences returns the references declared on the class.
	ClassReferences(c *meta.Class) []meta.Reference

	// CreateClass adds a new class. Fails with ConflictError if the name
	// is taken.
	CreateClass(name string, superTypes []string, abstract, iface bool) (*meta.Class, error)

	// AddAttribute adds a typed attribute to a class.
	AddAttribute(className, attrName, typeName string, lower, upper int) (*meta.Attribute, error)

	// AddReference adds a reference from a source class to a target class.
	AddReference(sourceClass, targetClass, refName string, containment bool, lower, upper int) (*meta.Reference, error)

	// RemoveClass deletes a class.
	RemoveClass(name string) error

	// RemoveAttribute deletes an attribute from a class.
	RemoveAttribute(className, attrName string) error

	// RemoveReference deletes a reference from its source class.
	RemoveReference(className, refName string) error

	// RenameClass renames a class. Fails with ConflictError if the new
	// name is taken.
	RenameClass(name, newName string) error

	// SetAbstract replaces a class's abstract flag.
	SetAbstract(name string, abstract bool) error

	// SetSuperTypes clears and rebuilds a class's supertype list.
	SetSuperTypes(name string, superTypes []string) error

	// RenameAttribute renames an attribute on a class.
	RenameAttribute(className, attrName, newName string) error

	// RetypeAttribute replaces an attribute's type name.
	RetypeAttribute(className, attrName, typeName string) error

	// ReboundAttribute replaces an attribute's cardinality bounds.
	ReboundAttribute(className, attrName string, lower, upper int) error

	// RenameReference renames a reference on its source class.
	RenameReference(className, refName, newName string) error

	// RetargetReference points a reference at a different target class.
	// Fails with NotFoundError if the new target does not exist.
	RetargetReference(className, refName, targetClass string) error

	// ReboundReference replaces a reference's cardinality bounds.
	ReboundReference(className, refName string, lower, upper int) error

	// SetContainment replaces a reference's containment flag.
	SetContainment(className, refName string, containment bool) error
}
