package evolve

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/metamorph-dev/metamorph/internal/meta"
	"github.com/metamorph-dev/metamorph/internal/metamodel"
)

// pipeline bundles the components most tests need, sharing one ledger.
type pipeline struct {
	store       *metamodel.Memory
	ledger      *Ledger
	interpreter *Interpreter
	resolver    *Resolver
	applier     *Applier
	reporter    *Reporter
}

func newPipeline(t *testing.T, store *metamodel.Memory, ids IDGenerator) *pipeline {
	t.Helper()
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	ledger := NewLedger()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	return &pipeline{
		store:       store,
		ledger:      ledger,
		interpreter: NewInterpreter(store, ledger, NewClock(), ids),
		resolver:    NewResolver(ledger),
		applier:     NewApplier(store, ledger, logger),
		reporter:    NewReporter(ledger),
	}
}

// seedLibrarySchema builds a small schema: Library --books--> Book, with
// Book.title.
func seedLibrarySchema(t *testing.T) *metamodel.Memory {
	t.Helper()
	m := metamodel.NewMemory()

	_, err := m.CreateClass("Library", nil, false, false)
	require.NoError(t, err)
	_, err = m.CreateClass("Book", nil, false, false)
	require.NoError(t, err)
	_, err = m.AddAttribute("Book", "title", "string", 1, 1)
	require.NoError(t, err)
	_, err = m.AddReference("Library", "Book", "books", true, 0, meta.UpperBoundMany)
	require.NoError(t, err)

	return m
}

// interpret is a shorthand that fails the test on ledger errors.
func (p *pipeline) interpret(t *testing.T, change meta.ChangeType, element meta.ElementKind, details map[string]any) *meta.Operation {
	t.Helper()
	op, err := p.interpreter.Interpret(meta.ChangeDescriptor{
		Change:  change,
		Element: element,
		Details: details,
	})
	require.NoError(t, err)
	return op
}
