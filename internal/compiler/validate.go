package compiler

import (
	"fmt"

	"github.com/metamorph-dev/metamorph/internal/meta"
)

// Validation error codes (E100-E199)
const (
	ErrDuplicateClass     = "E101" // duplicate class name
	ErrDanglingSuperType  = "E102" // supertype names no declared class
	ErrDanglingRefTarget  = "E103" // reference target names no declared class
	ErrInvalidBounds      = "E104" // lower/upper cardinality out of range
	ErrDuplicateFeature   = "E105" // duplicate attribute/reference name on a class
	ErrSelfSuperType      = "E106" // class lists itself as a supertype
	ErrEmptyName          = "E107" // empty class or feature name
	ErrEmptyAttributeType = "E108" // attribute with empty type name
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks compiled classes against structural schema rules.
// Returns all errors found (does not fail-fast). Names are compared
// NFC-normalized, matching store lookup semantics.
func Validate(classes []*meta.Class) []ValidationError {
	var errs []ValidationError

	declared := make(map[string]bool, len(classes))
	for i, c := range classes {
		if c.Name == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("class[%d]", i),
				Message: "class name must be non-empty",
				Code:    ErrEmptyName,
			})
			continue
		}
		key := meta.NormalizeName(c.Name)
		if declared[key] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("class.%s", c.Name),
				Message: fmt.Sprintf("duplicate class name: %q", c.Name),
				Code:    ErrDuplicateClass,
			})
		}
		declared[key] = true
	}

	for _, c := range classes {
		errs = append(errs, validateClass(c, declared)...)
	}
	return errs
}

// validateClass checks one class's supertypes, attributes and references.
func validateClass(c *meta.Class, declared map[string]bool) []ValidationError {
	var errs []ValidationError

	for _, st := range c.SuperTypes {
		if meta.SameName(st, c.Name) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("class.%s.supertypes", c.Name),
				Message: fmt.Sprintf("class %q cannot be its own supertype", c.Name),
				Code:    ErrSelfSuperType,
			})
			continue
		}
		if !declared[meta.NormalizeName(st)] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("class.%s.supertypes", c.Name),
				Message: fmt.Sprintf("supertype %q is not a declared class", st),
				Code:    ErrDanglingSuperType,
			})
		}
	}

	attrNames := make(map[string]bool, len(c.Attributes))
	for _, a := range c.Attributes {
		field := fmt.Sprintf("class.%s.attributes.%s", c.Name, a.Name)
		if a.Name == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("class.%s.attributes", c.Name),
				Message: "attribute name must be non-empty",
				Code:    ErrEmptyName,
			})
			continue
		}
		key := meta.NormalizeName(a.Name)
		if attrNames[key] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate attribute name: %q", a.Name),
				Code:    ErrDuplicateFeature,
			})
		}
		attrNames[key] = true

		if a.Type == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "attribute type must be non-empty",
				Code:    ErrEmptyAttributeType,
			})
		}
		errs = append(errs, validateBounds(field, a.Lower, a.Upper)...)
	}

	refNames := make(map[string]bool, len(c.References))
	for _, r := range c.References {
		field := fmt.Sprintf("class.%s.references.%s", c.Name, r.Name)
		if r.Name == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("class.%s.references", c.Name),
				Message: "reference name must be non-empty",
				Code:    ErrEmptyName,
			})
			continue
		}
		key := meta.NormalizeName(r.Name)
		if refNames[key] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate reference name: %q", r.Name),
				Code:    ErrDuplicateFeature,
			})
		}
		refNames[key] = true

		if !declared[meta.NormalizeName(r.Target)] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("target %q is not a declared class", r.Target),
				Code:    ErrDanglingRefTarget,
			})
		}
		errs = append(errs, validateBounds(field, r.Lower, r.Upper)...)
	}

	return errs
}

// validateBounds checks a cardinality pair. Upper -1 means "many" and is
// always legal; any other upper must be >= lower.
func validateBounds(field string, lower, upper int) []ValidationError {
	var errs []ValidationError
	if lower < 0 {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("lower bound %d must be >= 0", lower),
			Code:    ErrInvalidBounds,
		})
	}
	if upper < meta.UpperBoundMany {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("upper bound %d must be -1 (many) or >= 0", upper),
			Code:    ErrInvalidBounds,
		})
	}
	if upper != meta.UpperBoundMany && upper < lower {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("upper bound %d must be >= lower bound %d", upper, lower),
			Code:    ErrInvalidBounds,
		})
	}
	return errs
}
