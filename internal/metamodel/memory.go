package metamodel

import "github.com/metamorph-dev/metamorph/internal/meta"

// Memory is the in-memory Store implementation.
//
// Classes are held in declaration order so that AllClasses is
// deterministic across runs - reports and referential-integrity messages
// depend on stable iteration order.
//
// Memory is not safe for concurrent use. The pipeline runs
// single-threaded; a caller running concurrent evolution sessions against
// one schema must serialize access externally.
type Memory struct {
	order   []string               // normalized names, declaration order
	classes map[string]*meta.Class // keyed by normalized name
}

// NewMemory creates an empty in-memory schema.
func NewMemory() *Memory {
	return &Memory{
		classes: make(map[string]*meta.Class),
	}
}

// FindClassByName returns the class with the given name, if any.
func (m *Memory) FindClassByName(name string) (*meta.Class, bool) {
	c, ok := m.classes[meta.NormalizeName(name)]
	return c, ok
}

// AllClasses returns every class in declaration order.
func (m *Memory) AllClasses() []*meta.Class {
	out := make([]*meta.Class, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.classes[key])
	}
	return out
}

// ClassAttributes returns the attributes declared on the class.
func (m *Memory) ClassAttributes(c *meta.Class) []meta.Attribute {
	return c.Attributes
}

// ClassReferences returns the references declared on the class.
func (m *Memory) ClassReferences(c *meta.Class) []meta.Reference {
	return c.References
}

// CreateClass adds a new class.
func (m *Memory) CreateClass(name string, superTypes []string, abstract, iface bool) (*meta.Class, error) {
	key := meta.NormalizeName(name)
	if _, exists := m.classes[key]; exists {
		return nil, &ConflictError{Kind: "class", Name: name}
	}

	c := &meta.Class{
		Name:       name,
		Abstract:   abstract,
		Interface:  iface,
		SuperTypes: append([]string(nil), superTypes...),
	}
	m.classes[key] = c
	m.order = append(m.order, key)
	return c, nil
}

// AddAttribute adds a typed attribute to a class.
func (m *Memory) AddAttribute(className, attrName, typeName string, lower, upper int) (*meta.Attribute, error) {
	c, ok := m.FindClassByName(className)
	if !ok {
		return nil, &NotFoundError{Kind: "class", Name: className}
	}
	if _, ok := findAttribute(c, attrName); ok {
		return nil, &ConflictError{Kind: "attribute", Name: attrName, Class: c.Name}
	}

	c.Attributes = append(c.Attributes, meta.Attribute{
		Name:  attrName,
		Type:  typeName,
		Lower: lower,
		Upper: upper, // sentinel -1 passes through verbatim
	})
	return &c.Attributes[len(c.Attributes)-1], nil
}

// AddReference adds a reference from a source class to a target class.
func (m *Memory) AddReference(sourceClass, targetClass, refName string, containment bool, lower, upper int) (*meta.Reference, error) {
	src, ok := m.FindClassByName(sourceClass)
	if !ok {
		return nil, &NotFoundError{Kind: "class", Name: sourceClass}
	}
	tgt, ok := m.FindClassByName(targetClass)
	if !ok {
		return nil, &NotFoundError{Kind: "class", Name: targetClass}
	}
	if _, ok := findReference(src, refName); ok {
		return nil, &ConflictError{Kind: "reference", Name: refName, Class: src.Name}
	}

	src.References = append(src.References, meta.Reference{
		Name:        refName,
		Target:      tgt.Name,
		Containment: containment,
		Lower:       lower,
		Upper:       upper,
	})
	return &src.References[len(src.References)-1], nil
}

// RemoveClass deletes a class.
func (m *Memory) RemoveClass(name string) error {
	key := meta.NormalizeName(name)
	if _, ok := m.classes[key]; !ok {
		return &NotFoundError{Kind: "class", Name: name}
	}

	delete(m.classes, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// RemoveAttribute deletes an attribute from a class.
func (m *Memory) RemoveAttribute(className, attrName string) error {
	c, ok := m.FindClassByName(className)
	if !ok {
		return &NotFoundError{Kind: "class", Name: className}
	}
	idx, ok := findAttribute(c, attrName)
	if !ok {
		return &NotFoundError{Kind: "attribute", Name: attrName, Class: c.Name}
	}
	c.Attributes = append(c.Attributes[:idx], c.Attributes[idx+1:]...)
	return nil
}

// RemoveReference deletes a reference from its source class.
func (m *Memory) RemoveReference(className, refName string) error {
	c, ok := m.FindClassByName(className)
	if !ok {
		return &NotFoundError{Kind: "class", Name: className}
	}
	idx, ok := findReference(c, refName)
	if !ok {
		return &NotFoundError{Kind: "reference", Name: refName, Class: c.Name}
	}
	c.References = append(c.References[:idx], c.References[idx+1:]...)
	return nil
}

// RenameClass renames a class, preserving its declaration-order slot.
// Other classes' supertype lists and reference targets that point at the
// old name are rewritten to follow the rename.
func (m *Memory) RenameClass(name, newName string) error {
	key := meta.NormalizeName(name)
	c, ok := m.classes[key]
	if !ok {
		return &NotFoundError{Kind: "class", Name: name}
	}
	newKey := meta.NormalizeName(newName)
	if newKey != key {
		if _, taken := m.classes[newKey]; taken {
			return &ConflictError{Kind: "class", Name: newName}
		}
	}

	oldName := c.Name
	c.Name = newName
	delete(m.classes, key)
	m.classes[newKey] = c
	for i, k := range m.order {
		if k == key {
			m.order[i] = newKey
			break
		}
	}

	// Keep the graph consistent: follow the rename everywhere.
	for _, other := range m.classes {
		for i, st := range other.SuperTypes {
			if meta.SameName(st, oldName) {
				other.SuperTypes[i] = newName
			}
		}
		for i := range other.References {
			if meta.SameName(other.References[i].Target, oldName) {
				other.References[i].Target = newName
			}
		}
	}
	return nil
}

// SetAbstract replaces a class's abstract flag.
func (m *Memory) SetAbstract(name string, abstract bool) error {
	c, ok := m.FindClassByName(name)
	if !ok {
		return &NotFoundError{Kind: "class", Name: name}
	}
	c.Abstract = abstract
	return nil
}

// SetSuperTypes clears and rebuilds a class's supertype list.
func (m *Memory) SetSuperTypes(name string, superTypes []string) error {
	c, ok := m.FindClassByName(name)
	if !ok {
		return &NotFoundError{Kind: "class", Name: name}
	}
	c.SuperTypes = append([]string(nil), superTypes...)
	return nil
}

// RenameAttribute renames an attribute on a class.
func (m *Memory) RenameAttribute(className, attrName, newName string) error {
	c, ok := m.FindClassByName(className)
	if !ok {
		return &NotFoundError{Kind: "class", Name: className}
	}
	idx, ok := findAttribute(c, attrName)
	if !ok {
		return &NotFoundError{Kind: "attribute", Name: attrName, Class: c.Name}
	}
	if !meta.SameName(attrName, newName) {
		if _, taken := findAttribute(c, newName); taken {
			return &ConflictError{Kind: "attribute", Name: newName, Class: c.Name}
		}
	}
	c.Attributes[idx].Name = newName
	return nil
}

// RetypeAttribute replaces an attribute's type name.
func (m *Memory) RetypeAttribute(className, attrName, typeName string) error {
	c, ok := m.FindClassByName(className)
	if !ok {
		return &NotFoundError{Kind: "class", Name: className}
	}
	idx, ok := findAttribute(c, attrName)
	if !ok {
		return &NotFoundError{Kind: "attribute", Name: attrName, Class: c.Name}
	}
	c.Attributes[idx].Type = typeName
	return nil
}

// ReboundAttribute replaces an attribute's cardinality bounds.
func (m *Memory) ReboundAttribute(className, attrName string, lower, upper int) error {
	c, ok := m.FindClassByName(className)
	if !ok {
		return &NotFoundError{Kind: "class", Name: className}
	}
	idx, ok := findAttribute(c, attrName)
	if !ok {
		return &NotFoundError{Kind: "attribute", Name: attrName, Class: c.Name}
	}
	c.Attributes[idx].Lower = lower
	c.Attributes[idx].Upper = upper
	return nil
}

// RenameReference renames a reference on its source class.
func (m *Memory) RenameReference(className, refName, newName string) error {
	c, ok := m.FindClassByName(className)
	if !ok {
		return &NotFoundError{Kind: "class", Name: className}
	}
	idx, ok := findReference(c, refName)
	if !ok {
		return &NotFoundError{Kind: "reference", Name: refName, Class: c.Name}
	}
	if !meta.SameName(refName, newName) {
		if _, taken := findReference(c, newName); taken {
			return &ConflictError{Kind: "reference", Name: newName, Class: c.Name}
		}
	}
	c.References[idx].Name = newName
	return nil
}

// RetargetReference points a reference at a different target class.
func (m *Memory) RetargetReference(className, refName, targetClass string) error {
	c, ok := m.FindClassByName(className)
	if !ok {
		return &NotFoundError{Kind: "class", Name: className}
	}
	idx, ok := findReference(c, refName)
	if !ok {
		return &NotFoundError{Kind: "reference", Name: refName, Class: c.Name}
	}
	tgt, ok := m.FindClassByName(targetClass)
	if !ok {
		return &NotFoundError{Kind: "class", Name: targetClass}
	}
	c.References[idx].Target = tgt.Name
	return nil
}

// ReboundReference replaces a reference's cardinality bounds.
func (m *Memory) ReboundReference(className, refName string, lower, upper int) error {
	c, ok := m.FindClassByName(className)
	if !ok {
		return &NotFoundError{Kind: "class", Name: className}
	}
	idx, ok := findReference(c, refName)
	if !ok {
		return &NotFoundError{Kind: "reference", Name: refName, Class: c.Name}
	}
	c.References[idx].Lower = lower
	c.References[idx].Upper = upper
	return nil
}

// SetContainment replaces a reference's containment flag.
func (m *Memory) SetContainment(className, refName string, containment bool) error {
	c, ok := m.FindClassByName(className)
	if !ok {
		return &NotFoundError{Kind: "class", Name: className}
	}
	idx, ok := findReference(c, refName)
	if !ok {
		return &NotFoundError{Kind: "reference", Name: refName, Class: c.Name}
	}
	c.References[idx].Containment = containment
	return nil
}

// findAttribute returns the index of the named attribute on c.
func findAttribute(c *meta.Class, name string) (int, bool) {
	for i, a := range c.Attributes {
		if meta.SameName(a.Name, name) {
			return i, true
		}
	}
	return 0, false
}

// findReference returns the index of the named reference on c.
func findReference(c *meta.Class, name string) (int, bool) {
	for i, r := range c.References {
		if meta.SameName(r.Name, name) {
			return i, true
		}
	}
	return 0, false
}
