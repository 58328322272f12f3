// Package compiler turns CUE schema definitions into metamodel classes.
//
// A schema file declares classes under a top-level "class" struct:
//
//	class: Book: {
//		attributes: title: {type: "string", lower: 1}
//		references: chapters: {target: "Chapter", containment: true, upper: -1}
//	}
//
// Compilation uses the CUE SDK's Go API directly (not a CLI subprocess)
// and reports errors with source positions. Structural validation (bound
// sanity, dangling names) is a separate pass, see Validate.
package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/metamorph-dev/metamorph/internal/meta"
)

// CompileSchema parses the top-level CUE value of a schema package into
// classes, in declaration order.
//
// The value should hold a "class" struct; a schema with no classes is
// legal and yields an empty slice.
func CompileSchema(v cue.Value) ([]*meta.Class, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	classesVal := v.LookupPath(cue.ParsePath("class"))
	if !classesVal.Exists() {
		return nil, nil
	}

	iter, err := classesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var classes []*meta.Class
	for iter.Next() {
		c, err := CompileClass(iter.Value())
		if err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, nil
}

// CompileClass parses a single CUE class struct. The class name comes
// from the struct label (the last path selector), e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`class: Book: {...}`)
//	c, err := CompileClass(v.LookupPath(cue.ParsePath("class.Book")))
func CompileClass(v cue.Value) (*meta.Class, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	c := &meta.Class{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		c.Name = labels[len(labels)-1].String()
	}
	if c.Name == "" {
		return nil, &CompileError{
			Field:   "class",
			Message: "class name is required",
			Pos:     v.Pos(),
		}
	}

	abstract, err := boolField(v, "abstract", false)
	if err != nil {
		return nil, err
	}
	c.Abstract = abstract

	iface, err := boolField(v, "interface", false)
	if err != nil {
		return nil, err
	}
	c.Interface = iface

	superTypesVal := v.LookupPath(cue.ParsePath("supertypes"))
	if superTypesVal.Exists() {
		iter, err := superTypesVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			name, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			c.SuperTypes = append(c.SuperTypes, name)
		}
	}

	c.Attributes, err = parseAttributes(c.Name, v)
	if err != nil {
		return nil, err
	}
	c.References, err = parseReferences(c.Name, v)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// parseAttributes extracts attribute declarations from the class struct.
func parseAttributes(className string, v cue.Value) ([]meta.Attribute, error) {
	attrsVal := v.LookupPath(cue.ParsePath("attributes"))
	if !attrsVal.Exists() {
		return nil, nil
	}

	iter, err := attrsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var attrs []meta.Attribute
	for iter.Next() {
		attrVal := iter.Value()

		typeName, err := stringField(attrVal, "type", meta.DefaultAttributeType)
		if err != nil {
			return nil, err
		}
		lower, err := intField(attrVal, "lower", meta.DefaultLowerBound)
		if err != nil {
			return nil, err
		}
		upper, err := intField(attrVal, "upper", meta.DefaultUpperBound)
		if err != nil {
			return nil, err
		}

		attrs = append(attrs, meta.Attribute{
			Name:  iter.Label(),
			Type:  typeName,
			Lower: lower,
			Upper: upper,
		})
	}
	return attrs, nil
}

// parseReferences extracts reference declarations from the class struct.
// Target is the one required field.
func parseReferences(className string, v cue.Value) ([]meta.Reference, error) {
	refsVal := v.LookupPath(cue.ParsePath("references"))
	if !refsVal.Exists() {
		return nil, nil
	}

	iter, err := refsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var refs []meta.Reference
	for iter.Next() {
		refName := iter.Label()
		refVal := iter.Value()

		targetVal := refVal.LookupPath(cue.ParsePath("target"))
		if !targetVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("class.%s.references.%s.target", className, refName),
				Message: "reference target is required",
				Pos:     refVal.Pos(),
			}
		}
		target, err := targetVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		containment, err := boolField(refVal, "containment", false)
		if err != nil {
			return nil, err
		}
		lower, err := intField(refVal, "lower", meta.DefaultLowerBound)
		if err != nil {
			return nil, err
		}
		upper, err := intField(refVal, "upper", meta.DefaultUpperBound)
		if err != nil {
			return nil, err
		}

		refs = append(refs, meta.Reference{
			Name:        refName,
			Target:      target,
			Containment: containment,
			Lower:       lower,
			Upper:       upper,
		})
	}
	return refs, nil
}

func stringField(v cue.Value, field, fallback string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return fallback, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func intField(v cue.Value, field string, fallback int) (int, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return fallback, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

func boolField(v cue.Value, field string, fallback bool) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return fallback, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}
