package meta

// MutationIntent is a sealed interface over the nine concrete mutation
// descriptions the applier knows how to perform against a metamodel store.
// Only types in this package implement it (marker method pattern).
//
// This enables exhaustive type switches in the applier:
//
//	switch in := op.Intent.(type) {
//	case *AddClass:
//	    ...
//	case *AddAttribute:
//	    ...
//	}
//
// An intent holds fully resolved parameters. It is owned by exactly one
// operation and immutable once built, except for fields overwritten during
// ambiguity resolution.
type MutationIntent interface {
	mutationIntent() // Sealed - only the nine variants implement it
	Kind() string
}

// AddClass creates a new class.
type AddClass struct {
	Name       string   `json:"name"`
	Abstract   bool     `json:"abstract"`
	Interface  bool     `json:"interface"`
	SuperTypes []string `json:"super_types,omitempty"`
}

func (*AddClass) mutationIntent() {}

// Kind returns the intent kind name.
func (*AddClass) Kind() string { return "add-class" }

// AddAttribute adds a typed attribute to an existing class.
type AddAttribute struct {
	Class string `json:"class"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Lower int    `json:"lower"`
	Upper int    `json:"upper"`
}

func (*AddAttribute) mutationIntent() {}

// Kind returns the intent kind name.
func (*AddAttribute) Kind() string { return "add-attribute" }

// AddReference adds a reference from a source class to a target class.
type AddReference struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Name        string `json:"name"`
	Containment bool   `json:"containment"`
	Lower       int    `json:"lower"`
	Upper       int    `json:"upper"`
}

func (*AddReference) mutationIntent() {}

// Kind returns the intent kind name.
func (*AddReference) Kind() string { return "add-reference" }

// RemoveClass deletes a class by name.
type RemoveClass struct {
	Name string `json:"name"`
}

func (*RemoveClass) mutationIntent() {}

// Kind returns the intent kind name.
func (*RemoveClass) Kind() string { return "remove-class" }

// RemoveAttribute deletes an attribute from a class.
type RemoveAttribute struct {
	Class string `json:"class"`
	Name  string `json:"name"`
}

func (*RemoveAttribute) mutationIntent() {}

// Kind returns the intent kind name.
func (*RemoveAttribute) Kind() string { return "remove-attribute" }

// RemoveReference deletes a reference from its source class.
type RemoveReference struct {
	Class string `json:"class"`
	Name  string `json:"name"`
}

func (*RemoveReference) mutationIntent() {}

// Kind returns the intent kind name.
func (*RemoveReference) Kind() string { return "remove-reference" }

// ModifyClass renames a class and/or replaces its abstract flag and
// supertype list. Nil pointer fields mean "leave unchanged"; a non-nil
// SuperTypes replaces the whole list (clear-and-rebuild).
type ModifyClass struct {
	Name       string    `json:"name"`
	NewName    *string   `json:"new_name,omitempty"`
	Abstract   *bool     `json:"abstract,omitempty"`
	SuperTypes *[]string `json:"super_types,omitempty"`
}

func (*ModifyClass) mutationIntent() {}

// Kind returns the intent kind name.
func (*ModifyClass) Kind() string { return "modify-class" }

// ModifyAttribute renames, retypes and/or rebounds an attribute.
// Nil pointer fields mean "leave unchanged".
type ModifyAttribute struct {
	Class    string  `json:"class"`
	Name     string  `json:"name"`
	NewName  *string `json:"new_name,omitempty"`
	NewType  *string `json:"new_type,omitempty"`
	NewLower *int    `json:"new_lower,omitempty"`
	NewUpper *int    `json:"new_upper,omitempty"`
}

func (*ModifyAttribute) mutationIntent() {}

// Kind returns the intent kind name.
func (*ModifyAttribute) Kind() string { return "modify-attribute" }

// ModifyReference renames, retargets, rebounds and/or toggles containment
// on a reference. Nil pointer fields mean "leave unchanged".
type ModifyReference struct {
	Class          string  `json:"class"`
	Name           string  `json:"name"`
	NewName        *string `json:"new_name,omitempty"`
	NewTarget      *string `json:"new_target,omitempty"`
	NewLower       *int    `json:"new_lower,omitempty"`
	NewUpper       *int    `json:"new_upper,omitempty"`
	NewContainment *bool   `json:"new_containment,omitempty"`
}

func (*ModifyReference) mutationIntent() {}

// Kind returns the intent kind name.
func (*ModifyReference) Kind() string { return "modify-reference" }

// IntentKind returns the kind name of an intent, or "none" for nil.
// Used by the journal and the reporter, which must render operations whose
// interpretation failed outright (nil intent).
func IntentKind(in MutationIntent) string {
	if in == nil {
		return "none"
	}
	return in.Kind()
}
