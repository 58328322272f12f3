package evolve

import (
	"fmt"
	"strings"

	"github.com/metamorph-dev/metamorph/internal/meta"
	"github.com/metamorph-dev/metamorph/internal/metamodel"
)

// Interpreter maps model-level change descriptors to typed mutation
// intents, running per-kind ambiguity checks against the current store
// state.
//
// Checks are short-circuit and run in a fixed order per kind: required
// fields first, then existence, then uniqueness, then referential
// integrity. The first violation sets the operation ambiguous with a
// human-readable reason; the (possibly incomplete) intent is kept so a
// resolution can patch it.
//
// Ambiguity reflects STORE state, not ledger state: two identical
// add-attribute descriptors interpreted back to back both come out
// pending - the second turns ambiguous only when re-interpreted after the
// first has been applied. The one ledger-aware check is class existence
// for added features: a class whose creation already sits in the pending
// queue counts as existing, because the queue applies in order and the
// class lands before its features. Uniqueness stays store-only.
type Interpreter struct {
	store  metamodel.Store
	ledger *Ledger
	clock  *Clock
	ids    IDGenerator
}

// NewInterpreter creates an interpreter bound to a store and a ledger.
func NewInterpreter(store metamodel.Store, ledger *Ledger, clock *Clock, ids IDGenerator) *Interpreter {
	return &Interpreter{
		store:  store,
		ledger: ledger,
		clock:  clock,
		ids:    ids,
	}
}

// ReasonUnknownKind is the ambiguity reason for a descriptor whose
// (change, element) pair matches none of the nine recognized operations.
// Such an operation carries no intent and can never be resolved.
const ReasonUnknownKind = "unknown change type or element"

// Interpret turns a descriptor into an operation, appends it to the
// ledger and files it into the pending queue or the ambiguity set.
//
// Interpret never fails on descriptor content - malformed input becomes
// an ambiguous operation, not an error. The returned error covers only
// ledger invariant breaches (e.g. an ID generator handing out
// duplicates).
func (it *Interpreter) Interpret(d meta.ChangeDescriptor) (*meta.Operation, error) {
	op := &meta.Operation{
		ID:      it.ids.Generate(),
		Seq:     it.clock.Next(),
		Change:  d.Change,
		Element: d.Element,
		Details: d.Details,
	}

	intent, reason := it.buildIntent(d)
	op.Intent = intent
	if reason != "" {
		op.State = meta.StateAmbiguous
		op.AmbiguityReason = reason
	} else {
		op.State = meta.StatePending
	}

	if err := it.ledger.Record(op); err != nil {
		return nil, fmt.Errorf("interpret: %w", err)
	}
	return op, nil
}

// buildIntent dispatches on the (change, element) pair. Each builder
// returns the intent (nil only for an unknown pair) plus an ambiguity
// reason, empty when the operation is safe to queue.
func (it *Interpreter) buildIntent(d meta.ChangeDescriptor) (meta.MutationIntent, string) {
	switch {
	case d.Change == meta.ChangeAdd && d.Element == meta.ElementClass:
		return it.buildAddClass(d.Details)
	case d.Change == meta.ChangeAdd && d.Element == meta.ElementAttribute:
		return it.buildAddAttribute(d.Details)
	case d.Change == meta.ChangeAdd && d.Element == meta.ElementReference:
		return it.buildAddReference(d.Details)
	case d.Change == meta.ChangeRemove && d.Element == meta.ElementClass:
		return it.buildRemoveClass(d.Details)
	case d.Change == meta.ChangeRemove && d.Element == meta.ElementAttribute:
		return it.buildRemoveAttribute(d.Details)
	case d.Change == meta.ChangeRemove && d.Element == meta.ElementReference:
		return it.buildRemoveReference(d.Details)
	case d.Change == meta.ChangeModify && d.Element == meta.ElementClass:
		return it.buildModifyClass(d.Details)
	case d.Change == meta.ChangeModify && d.Element == meta.ElementAttribute:
		return it.buildModifyAttribute(d.Details)
	case d.Change == meta.ChangeModify && d.Element == meta.ElementReference:
		return it.buildModifyReference(d.Details)
	default:
		return nil, ReasonUnknownKind
	}
}

func (it *Interpreter) buildAddClass(details map[string]any) (meta.MutationIntent, string) {
	name, hasName := stringDetail(details, meta.DetailName)
	abstract, _ := boolDetail(details, meta.DetailAbstract)
	iface, _ := boolDetail(details, meta.DetailInterface)
	superTypes, _ := stringsDetail(details, meta.DetailSuperTypes)

	intent := &meta.AddClass{
		Name:       name,
		Abstract:   abstract,
		Interface:  iface,
		SuperTypes: superTypes,
	}

	if !hasName {
		return intent, "class name is required"
	}
	if _, exists := it.store.FindClassByName(name); exists {
		return intent, fmt.Sprintf("a class named %q already exists", name)
	}
	return intent, ""
}

func (it *Interpreter) buildAddAttribute(details map[string]any) (meta.MutationIntent, string) {
	className, hasClass := stringDetail(details, meta.DetailClass)
	attrName, hasName := stringDetail(details, meta.DetailName)

	typeName, ok := stringDetail(details, meta.DetailType)
	if !ok {
		typeName = meta.DefaultAttributeType
	}
	lower, ok := intDetail(details, meta.DetailLower)
	if !ok {
		lower = meta.DefaultLowerBound
	}
	upper, ok := intDetail(details, meta.DetailUpper)
	if !ok {
		upper = meta.DefaultUpperBound
	}

	intent := &meta.AddAttribute{
		Class: className,
		Name:  attrName,
		Type:  typeName,
		Lower: lower,
		Upper: upper, // -1 ("many") preserved verbatim
	}

	if !hasClass {
		return intent, "class name is required"
	}
	if !hasName {
		return intent, "attribute name is required"
	}
	c, exists := it.store.FindClassByName(className)
	if !exists {
		if !it.pendingAddClass(className) {
			return intent, fmt.Sprintf("class %q does not exist", className)
		}
		// The class is queued for creation ahead of this operation; it
		// has no stored attributes to collide with yet.
		return intent, ""
	}
	if hasAttribute(it.store, c, attrName) {
		return intent, fmt.Sprintf("class %q already has an attribute named %q", c.Name, attrName)
	}
	return intent, ""
}

func (it *Interpreter) buildAddReference(details map[string]any) (meta.MutationIntent, string) {
	source, hasSource := stringDetail(details, meta.DetailSource)
	target, hasTarget := stringDetail(details, meta.DetailTarget)
	refName, hasName := stringDetail(details, meta.DetailName)

	containment, _ := boolDetail(details, meta.DetailContainment)
	lower, ok := intDetail(details, meta.DetailLower)
	if !ok {
		lower = meta.DefaultLowerBound
	}
	upper, ok := intDetail(details, meta.DetailUpper)
	if !ok {
		upper = meta.DefaultUpperBound
	}

	intent := &meta.AddReference{
		Source:      source,
		Target:      target,
		Name:        refName,
		Containment: containment,
		Lower:       lower,
		Upper:       upper,
	}

	if !hasSource {
		return intent, "source class name is required"
	}
	if !hasTarget {
		return intent, "target class name is required"
	}
	if !hasName {
		return intent, "reference name is required"
	}
	src, exists := it.store.FindClassByName(source)
	if !exists && !it.pendingAddClass(source) {
		return intent, fmt.Sprintf("source class %q does not exist", source)
	}
	if _, ok := it.store.FindClassByName(target); !ok && !it.pendingAddClass(target) {
		return intent, fmt.Sprintf("target class %q does not exist", target)
	}
	if exists && hasReference(it.store, src, refName) {
		return intent, fmt.Sprintf("class %q already has a reference named %q", src.Name, refName)
	}
	return intent, ""
}

func (it *Interpreter) buildRemoveClass(details map[string]any) (meta.MutationIntent, string) {
	name, hasName := stringDetail(details, meta.DetailName)
	intent := &meta.RemoveClass{Name: name}

	if !hasName {
		return intent, "class name is required"
	}
	c, exists := it.store.FindClassByName(name)
	if !exists {
		return intent, fmt.Sprintf("class %q does not exist", name)
	}

	// Referential-integrity guard: removing a class that other classes
	// still reference would leave dangling edges. The reason lists every
	// referencing class so the expert can see the full blast radius.
	var referencing []string
	for _, other := range it.store.AllClasses() {
		if meta.SameName(other.Name, c.Name) {
			continue
		}
		for _, ref := range it.store.ClassReferences(other) {
			if meta.SameName(ref.Target, c.Name) {
				referencing = append(referencing, other.Name)
				break
			}
		}
	}
	if len(referencing) > 0 {
		return intent, fmt.Sprintf("class %q is referenced by: %s", c.Name, strings.Join(referencing, ", "))
	}
	return intent, ""
}

func (it *Interpreter) buildRemoveAttribute(details map[string]any) (meta.MutationIntent, string) {
	className, hasClass := stringDetail(details, meta.DetailClass)
	attrName, hasName := stringDetail(details, meta.DetailName)
	intent := &meta.RemoveAttribute{Class: className, Name: attrName}

	if !hasClass {
		return intent, "class name is required"
	}
	if !hasName {
		return intent, "attribute name is required"
	}
	c, exists := it.store.FindClassByName(className)
	if !exists {
		return intent, fmt.Sprintf("class %q does not exist", className)
	}
	if !hasAttribute(it.store, c, attrName) {
		return intent, fmt.Sprintf("class %q has no attribute named %q", c.Name, attrName)
	}
	return intent, ""
}

func (it *Interpreter) buildRemoveReference(details map[string]any) (meta.MutationIntent, string) {
	className, hasClass := stringDetail(details, meta.DetailClass)
	refName, hasName := stringDetail(details, meta.DetailName)
	intent := &meta.RemoveReference{Class: className, Name: refName}

	if !hasClass {
		return intent, "class name is required"
	}
	if !hasName {
		return intent, "reference name is required"
	}
	c, exists := it.store.FindClassByName(className)
	if !exists {
		return intent, fmt.Sprintf("class %q does not exist", className)
	}
	if !hasReference(it.store, c, refName) {
		return intent, fmt.Sprintf("class %q has no reference named %q", c.Name, refName)
	}
	return intent, ""
}

func (it *Interpreter) buildModifyClass(details map[string]any) (meta.MutationIntent, string) {
	name, hasName := stringDetail(details, meta.DetailName)
	intent := &meta.ModifyClass{Name: name}

	if newName, ok := stringDetail(details, meta.DetailNewName); ok {
		intent.NewName = &newName
	}
	if abstract, ok := boolDetail(details, meta.DetailAbstract); ok {
		intent.Abstract = &abstract
	}
	if superTypes, ok := stringsDetail(details, meta.DetailSuperTypes); ok {
		intent.SuperTypes = &superTypes
	}

	if !hasName {
		return intent, "class name is required"
	}
	c, exists := it.store.FindClassByName(name)
	if !exists {
		return intent, fmt.Sprintf("class %q does not exist", name)
	}
	if intent.NewName != nil && !meta.SameName(*intent.NewName, c.Name) {
		if _, taken := it.store.FindClassByName(*intent.NewName); taken {
			return intent, fmt.Sprintf("a class named %q already exists", *intent.NewName)
		}
	}
	return intent, ""
}

func (it *Interpreter) buildModifyAttribute(details map[string]any) (meta.MutationIntent, string) {
	className, hasClass := stringDetail(details, meta.DetailClass)
	attrName, hasName := stringDetail(details, meta.DetailName)
	intent := &meta.ModifyAttribute{Class: className, Name: attrName}

	if newName, ok := stringDetail(details, meta.DetailNewName); ok {
		intent.NewName = &newName
	}
	if newType, ok := stringDetail(details, meta.DetailNewType); ok {
		intent.NewType = &newType
	}
	if lower, ok := intDetail(details, meta.DetailNewLower); ok {
		intent.NewLower = &lower
	}
	if upper, ok := intDetail(details, meta.DetailNewUpper); ok {
		intent.NewUpper = &upper
	}

	if !hasClass {
		return intent, "class name is required"
	}
	if !hasName {
		return intent, "attribute name is required"
	}
	c, exists := it.store.FindClassByName(className)
	if !exists {
		return intent, fmt.Sprintf("class %q does not exist", className)
	}
	if !hasAttribute(it.store, c, attrName) {
		return intent, fmt.Sprintf("class %q has no attribute named %q", c.Name, attrName)
	}
	if intent.NewName != nil && !meta.SameName(*intent.NewName, attrName) {
		if hasAttribute(it.store, c, *intent.NewName) {
			return intent, fmt.Sprintf("class %q already has an attribute named %q", c.Name, *intent.NewName)
		}
	}
	return intent, ""
}

func (it *Interpreter) buildModifyReference(details map[string]any) (meta.MutationIntent, string) {
	className, hasClass := stringDetail(details, meta.DetailClass)
	refName, hasName := stringDetail(details, meta.DetailName)
	intent := &meta.ModifyReference{Class: className, Name: refName}

	if newName, ok := stringDetail(details, meta.DetailNewName); ok {
		intent.NewName = &newName
	}
	if newTarget, ok := stringDetail(details, meta.DetailNewTarget); ok {
		intent.NewTarget = &newTarget
	}
	if lower, ok := intDetail(details, meta.DetailNewLower); ok {
		intent.NewLower = &lower
	}
	if upper, ok := intDetail(details, meta.DetailNewUpper); ok {
		intent.NewUpper = &upper
	}
	if containment, ok := boolDetail(details, meta.DetailContainment); ok {
		intent.NewContainment = &containment
	}

	if !hasClass {
		return intent, "class name is required"
	}
	if !hasName {
		return intent, "reference name is required"
	}
	c, exists := it.store.FindClassByName(className)
	if !exists {
		return intent, fmt.Sprintf("class %q does not exist", className)
	}
	if !hasReference(it.store, c, refName) {
		return intent, fmt.Sprintf("class %q has no reference named %q", c.Name, refName)
	}
	if intent.NewName != nil && !meta.SameName(*intent.NewName, refName) {
		if hasReference(it.store, c, *intent.NewName) {
			return intent, fmt.Sprintf("class %q already has a reference named %q", c.Name, *intent.NewName)
		}
	}
	if intent.NewTarget != nil {
		if _, exists := it.store.FindClassByName(*intent.NewTarget); !exists {
			return intent, fmt.Sprintf("target class %q does not exist", *intent.NewTarget)
		}
	}
	return intent, ""
}

// pendingAddClass reports whether the pending queue already holds an
// add-class intent for the given name. A feature added in the same batch
// as its class passes the existence check: the queue applies in order, so
// the class is created before the feature reaches the store.
func (it *Interpreter) pendingAddClass(name string) bool {
	for _, op := range it.ledger.Pending() {
		if add, ok := op.Intent.(*meta.AddClass); ok && meta.SameName(add.Name, name) {
			return true
		}
	}
	return false
}

// hasAttribute reports whether the class declares an attribute with the
// given name.
func hasAttribute(store metamodel.Store, c *meta.Class, name string) bool {
	for _, a := range store.ClassAttributes(c) {
		if meta.SameName(a.Name, name) {
			return true
		}
	}
	return false
}

// hasReference reports whether the class declares a reference with the
// given name.
func hasReference(store metamodel.Store, c *meta.Class, name string) bool {
	for _, r := range store.ClassReferences(c) {
		if meta.SameName(r.Name, name) {
			return true
		}
	}
	return false
}
