package evolve

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metamorph-dev/metamorph/internal/meta"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestReportProjection(t *testing.T) {
	p := newPipeline(t, seedLibrarySchema(t), nil)

	p.interpret(t, meta.ChangeAdd, meta.ElementClass, map[string]any{"name": "Magazine"})
	p.interpret(t, meta.ChangeAdd, meta.ElementClass, map[string]any{"name": "Book"}) // ambiguous

	report := p.reporter.Report()

	assert.Equal(t, 2, report.TotalOperations)
	assert.Equal(t, 1, report.PendingCount)
	assert.Equal(t, 1, report.AmbiguousCount)
	require.Len(t, report.Operations, 2)

	first := report.Operations[0]
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, "add-class", first.Intent)
	assert.Equal(t, meta.StatePending, first.State)

	second := report.Operations[1]
	assert.Equal(t, meta.StateAmbiguous, second.State)
	assert.Equal(t, `a class named "Book" already exists`, second.AmbiguityReason)

	// Pure projection: building a report changes nothing.
	assert.Equal(t, 1, p.ledger.PendingCount())
	assert.Equal(t, 1, p.ledger.AmbiguousCount())
}

func TestReportEmpty(t *testing.T) {
	p := newPipeline(t, seedLibrarySchema(t), nil)

	report := p.reporter.Report()

	assert.Equal(t, 0, report.TotalOperations)
	assert.Empty(t, report.Operations)
	assert.Equal(t, "evolution report: 0 operation(s), 0 pending, 0 ambiguous\n", report.Render())
}

func TestReportRenderMixed(t *testing.T) {
	gen := NewFixedGenerator("op-1", "op-2", "op-3", "op-4")
	p := newPipeline(t, seedLibrarySchema(t), gen)

	p.interpret(t, meta.ChangeAdd, meta.ElementClass, map[string]any{"name": "Magazine"})
	p.interpret(t, meta.ChangeAdd, meta.ElementClass, map[string]any{"name": "Book"})
	p.interpret(t, meta.ChangeAdd, meta.ElementAttribute, map[string]any{"class": "Book", "name": "isbn"})
	p.interpret(t, meta.ChangeRemove, meta.ElementClass, map[string]any{"name": "Missing"})

	g := newGoldie(t)
	g.Assert(t, "report_mixed", []byte(p.reporter.Report().Render()))
}

func TestReportRenderAfterApply(t *testing.T) {
	gen := NewFixedGenerator("op-1", "op-2", "op-3")
	p := newPipeline(t, seedLibrarySchema(t), gen)

	p.interpret(t, meta.ChangeAdd, meta.ElementClass, map[string]any{"name": "Magazine"})
	p.interpret(t, meta.ChangeAdd, meta.ElementClass, map[string]any{"name": "Magazine"})
	p.interpret(t, meta.ChangeAdd, meta.ElementAttribute, map[string]any{"class": "Book", "name": "isbn"})

	result := p.applier.ApplyPending()
	require.False(t, result.Success)

	g := newGoldie(t)
	g.Assert(t, "report_after_apply", []byte(p.reporter.Report().Render()))
}
