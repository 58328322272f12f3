package meta

import "fmt"

// ChangeType categorizes what a change descriptor does to the schema.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeRemove ChangeType = "remove"
	ChangeModify ChangeType = "modify"
)

// validChangeTypes is the set of allowed change types.
var validChangeTypes = map[ChangeType]bool{
	ChangeAdd:    true,
	ChangeRemove: true,
	ChangeModify: true,
}

// ValidateChangeType returns an error if the change type is not recognized.
func ValidateChangeType(t ChangeType) error {
	if !validChangeTypes[t] {
		return fmt.Errorf("invalid change type %q: must be one of: add, remove, modify", t)
	}
	return nil
}

// ElementKind identifies which schema element a change descriptor targets.
type ElementKind string

const (
	ElementClass     ElementKind = "class"
	ElementAttribute ElementKind = "attribute"
	ElementReference ElementKind = "reference"
)

// validElementKinds is the set of allowed element kinds.
var validElementKinds = map[ElementKind]bool{
	ElementClass:     true,
	ElementAttribute: true,
	ElementReference: true,
}

// ValidateElementKind returns an error if the element kind is not recognized.
func ValidateElementKind(k ElementKind) error {
	if !validElementKinds[k] {
		return fmt.Errorf("invalid element kind %q: must be one of: class, attribute, reference", k)
	}
	return nil
}

// ChangeDescriptor is the external input to the interpreter: a loosely
// specified, model-level change intent. Details is an open map whose keys
// depend on the (change, element) pair; the interpreter turns it into a
// typed MutationIntent or flags the operation ambiguous.
//
// Descriptors are transient - consumed once by the interpreter. The
// operation keeps a verbatim copy of Details for audit and display.
type ChangeDescriptor struct {
	Change  ChangeType     `json:"change" yaml:"change"`
	Element ElementKind    `json:"element" yaml:"element"`
	Details map[string]any `json:"details" yaml:"with"`
}

// Detail keys recognized across the nine descriptor shapes.
const (
	DetailName        = "name"
	DetailClass       = "class"
	DetailSource      = "source"
	DetailTarget      = "target"
	DetailType        = "type"
	DetailContainment = "containment"
	DetailLower       = "lower"
	DetailUpper       = "upper"
	DetailAbstract    = "abstract"
	DetailInterface   = "interface"
	DetailSuperTypes  = "supertypes"
	DetailNewName     = "new_name"
	DetailNewType     = "new_type"
	DetailNewTarget   = "new_target"
	DetailNewLower    = "new_lower"
	DetailNewUpper    = "new_upper"
)
