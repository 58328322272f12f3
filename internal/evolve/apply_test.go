package evolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metamorph-dev/metamorph/internal/meta"
)

func TestApplyRefusesUnresolvedBatch(t *testing.T) {
	p := newPipeline(t, seedLibrarySchema(t), nil)

	p.interpret(t, meta.ChangeAdd, meta.ElementClass, map[string]any{"name": "Magazine"})
	p.interpret(t, meta.ChangeAdd, meta.ElementClass, map[string]any{"name": "Book"}) // ambiguous

	result := p.applier.ApplyPending()

	assert.False(t, result.Success)
	assert.Empty(t, result.Applied)
	assert.Empty(t, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "cannot apply batch: 1 unresolved ambiguous operation(s)", result.Errors[0])

	// Refusal leaves the pending queue intact and the store untouched.
	assert.Equal(t, 1, p.ledger.PendingCount())
	_, exists := p.store.FindClassByName("Magazine")
	assert.False(t, exists)
}

func TestApplyPendingSweep(t *testing.T) {
	p := newPipeline(t, seedLibrarySchema(t), nil)

	p.interpret(t, meta.ChangeAdd, meta.ElementClass, map[string]any{"name": "Magazine"})
	p.interpret(t, meta.ChangeAdd, meta.ElementAttribute, map[string]any{
		"class": "Magazine", "name": "issue", "type": "int",
	})

	result := p.applier.ApplyPending()

	assert.True(t, result.Success)
	require.Len(t, result.Applied, 2)
	assert.Empty(t, result.Failed)
	for _, op := range result.Applied {
		assert.Equal(t, meta.StateApplied, op.State)
	}
	assert.Equal(t, 0, p.ledger.PendingCount())

	// The attribute landed because ops apply in queue order: the class
	// exists by the time its attribute is added.
	c, exists := p.store.FindClassByName("Magazine")
	require.True(t, exists)
	require.Len(t, c.Attributes, 1)
	assert.Equal(t, "issue", c.Attributes[0].Name)
}

func TestApplyFailureIsolation(t *testing.T) {
	p := newPipeline(t, seedLibrarySchema(t), nil)

	// Both pending at interpretation time (store unchanged), but the
	// second collides once the first has been applied.
	p.interpret(t, meta.ChangeAdd, meta.ElementClass, map[string]any{"name": "Magazine"})
	p.interpret(t, meta.ChangeAdd, meta.ElementClass, map[string]any{"name": "Magazine"})
	p.interpret(t, meta.ChangeAdd, meta.ElementClass, map[string]any{"name": "Journal"})

	result := p.applier.ApplyPending()

	assert.False(t, result.Success)
	require.Len(t, result.Applied, 2)
	require.Len(t, result.Failed, 1)
	require.Len(t, result.Errors, 1)

	failed := result.Failed[0]
	assert.Equal(t, meta.StateFailed, failed.State)
	assert.NotEmpty(t, failed.FailureDetail)

	// The failure did not stop the sweep: Journal still landed.
	_, exists := p.store.FindClassByName("Journal")
	assert.True(t, exists)

	// Queue cleared even after failures - no automatic retry.
	assert.Equal(t, 0, p.ledger.PendingCount())
}

func TestApplyNamesResolvedAtApplyTime(t *testing.T) {
	store := seedLibrarySchema(t)
	p := newPipeline(t, store, nil)

	p.interpret(t, meta.ChangeRemove, meta.ElementAttribute, map[string]any{
		"class": "Book", "name": "title",
	})

	// The attribute vanishes between interpretation and apply. Names bind
	// intents, not handles, so the apply must fail on re-resolution.
	require.NoError(t, store.RemoveAttribute("Book", "title"))

	result := p.applier.ApplyPending()

	assert.False(t, result.Success)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0].FailureDetail, "title")
}

func TestApplyModifyClassChain(t *testing.T) {
	store := seedLibrarySchema(t)
	p := newPipeline(t, store, nil)

	p.interpret(t, meta.ChangeModify, meta.ElementClass, map[string]any{
		"name":       "Book",
		"new_name":   "Publication",
		"abstract":   true,
		"supertypes": []any{"Library"},
	})

	result := p.applier.ApplyPending()
	require.True(t, result.Success)

	c, exists := store.FindClassByName("Publication")
	require.True(t, exists)
	assert.True(t, c.Abstract)
	assert.Equal(t, []string{"Library"}, c.SuperTypes)

	// The rename was followed by the reference that targeted the old name.
	lib, _ := store.FindClassByName("Library")
	require.Len(t, lib.References, 1)
	assert.Equal(t, "Publication", lib.References[0].Target)
}

func TestApplyOneSidedRebound(t *testing.T) {
	store := seedLibrarySchema(t)
	p := newPipeline(t, store, nil)

	// Only the upper bound changes; the lower bound of Book.title (1)
	// must survive.
	p.interpret(t, meta.ChangeModify, meta.ElementAttribute, map[string]any{
		"class":     "Book",
		"name":      "title",
		"new_upper": -1,
	})

	result := p.applier.ApplyPending()
	require.True(t, result.Success)

	c, _ := store.FindClassByName("Book")
	require.Len(t, c.Attributes, 1)
	assert.Equal(t, 1, c.Attributes[0].Lower)
	assert.Equal(t, meta.UpperBoundMany, c.Attributes[0].Upper)
}

func TestApplyModifyReferenceChain(t *testing.T) {
	store := seedLibrarySchema(t)
	p := newPipeline(t, store, nil)

	p.interpret(t, meta.ChangeAdd, meta.ElementClass, map[string]any{"name": "Archive"})
	p.interpret(t, meta.ChangeModify, meta.ElementReference, map[string]any{
		"class":       "Library",
		"name":        "books",
		"new_name":    "holdings",
		"containment": false,
		"new_lower":   1,
	})

	// Retarget is checked against the store at interpretation time, so
	// Archive must exist before the modify descriptor names it. Two
	// sweeps mirror how a script with dependent steps runs.
	result := p.applier.ApplyPending()
	require.True(t, result.Success)

	p.interpret(t, meta.ChangeModify, meta.ElementReference, map[string]any{
		"class":      "Library",
		"name":       "holdings",
		"new_target": "Archive",
	})
	result = p.applier.ApplyPending()
	require.True(t, result.Success)

	lib, _ := store.FindClassByName("Library")
	require.Len(t, lib.References, 1)
	ref := lib.References[0]
	assert.Equal(t, "holdings", ref.Name)
	assert.Equal(t, "Archive", ref.Target)
	assert.False(t, ref.Containment)
	assert.Equal(t, 1, ref.Lower)
	assert.Equal(t, meta.UpperBoundMany, ref.Upper, "untouched upper bound keeps the many sentinel")
}

// Full round trip: interpret a batch, resolve the one ambiguity, apply,
// verify the final schema shape.
func TestApplyRoundTrip(t *testing.T) {
	store := seedLibrarySchema(t)
	p := newPipeline(t, store, nil)

	p.interpret(t, meta.ChangeAdd, meta.ElementClass, map[string]any{"name": "Author"})
	p.interpret(t, meta.ChangeAdd, meta.ElementAttribute, map[string]any{
		"class": "Book", "name": "title", // ambiguous: already present
	})
	op3 := p.interpret(t, meta.ChangeAdd, meta.ElementAttribute, map[string]any{
		"class": "Book", "name": "pages", "type": "int", "lower": 1, "upper": 1,
	})
	require.Equal(t, meta.StatePending, op3.State)

	ambiguous := p.ledger.Ambiguities()
	require.Len(t, ambiguous, 1)

	_, err := p.resolver.Resolve(ambiguous[0].ID, map[string]any{"name": "subtitle"})
	require.NoError(t, err)

	result := p.applier.ApplyPending()
	require.True(t, result.Success)
	assert.Len(t, result.Applied, 3)

	_, exists := store.FindClassByName("Author")
	assert.True(t, exists)

	book, _ := store.FindClassByName("Book")
	names := make([]string, 0, len(book.Attributes))
	for _, a := range book.Attributes {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"title", "pages", "subtitle"}, names)
}

// One sweep builds a class from scratch: the class itself, two
// attributes and a reference, all interpreted before anything touched
// the store, with the supplied bounds intact afterwards.
func TestApplyRoundTripNewClassWithFeatures(t *testing.T) {
	store := seedLibrarySchema(t)
	p := newPipeline(t, store, nil)

	p.interpret(t, meta.ChangeAdd, meta.ElementClass, map[string]any{"name": "Magazine"})
	p.interpret(t, meta.ChangeAdd, meta.ElementAttribute, map[string]any{
		"class": "Magazine", "name": "issue", "type": "int", "lower": 1, "upper": 1,
	})
	p.interpret(t, meta.ChangeAdd, meta.ElementAttribute, map[string]any{
		"class": "Magazine", "name": "editor",
	})
	p.interpret(t, meta.ChangeAdd, meta.ElementReference, map[string]any{
		"source": "Magazine", "target": "Book", "name": "articles",
		"containment": true, "upper": -1,
	})

	require.Equal(t, 4, p.ledger.PendingCount())
	require.Equal(t, 0, p.ledger.AmbiguousCount())

	result := p.applier.ApplyPending()
	require.True(t, result.Success)
	assert.Len(t, result.Applied, 4)
	assert.Empty(t, result.Failed)

	c, exists := store.FindClassByName("Magazine")
	require.True(t, exists)

	attrs := store.ClassAttributes(c)
	require.Len(t, attrs, 2)
	assert.Equal(t, "issue", attrs[0].Name)
	assert.Equal(t, "int", attrs[0].Type)
	assert.Equal(t, 1, attrs[0].Lower)
	assert.Equal(t, 1, attrs[0].Upper)
	assert.Equal(t, "editor", attrs[1].Name)
	assert.Equal(t, meta.DefaultAttributeType, attrs[1].Type)
	assert.Equal(t, meta.DefaultLowerBound, attrs[1].Lower)
	assert.Equal(t, meta.DefaultUpperBound, attrs[1].Upper)

	refs := store.ClassReferences(c)
	require.Len(t, refs, 1)
	assert.Equal(t, "articles", refs[0].Name)
	assert.Equal(t, "Book", refs[0].Target)
	assert.True(t, refs[0].Containment)
	assert.Equal(t, 0, refs[0].Lower)
	assert.Equal(t, meta.UpperBoundMany, refs[0].Upper, "many sentinel preserved through apply")
}

func TestApplyEmptyQueue(t *testing.T) {
	p := newPipeline(t, seedLibrarySchema(t), nil)

	result := p.applier.ApplyPending()

	assert.True(t, result.Success)
	assert.Empty(t, result.Applied)
	assert.Empty(t, result.Failed)
	assert.Empty(t, result.Errors)
}
