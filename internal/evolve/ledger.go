package evolve

import (
	"fmt"

	"github.com/metamorph-dev/metamorph/internal/meta"
)

// Ledger is the append-only history of every interpreted operation plus
// two derived indices: the pending queue (ordered, insertion order =
// interpretation order) and the ambiguity set (unordered).
//
// Both indices hold operation IDs, never positions or copies. Transitions
// are O(1) map/slice work keyed by the stable ID, so moving an operation
// between indices can never corrupt the other index the way positional
// search-and-splice across two slices can.
//
// INVARIANT: an operation is in the pending queue iff its state is
// pending, and in the ambiguity set iff its state is ambiguous - never
// both. The log itself only grows; operations are transitioned in place,
// never removed.
type Ledger struct {
	log       []*meta.Operation
	byID      map[string]*meta.Operation
	pending   []string            // operation IDs, FIFO
	ambiguous map[string]struct{} // operation IDs
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		byID:      make(map[string]*meta.Operation),
		ambiguous: make(map[string]struct{}),
	}
}

// Record appends a freshly interpreted operation to the log and files it
// into exactly one derived index per its lifecycle state.
func (l *Ledger) Record(op *meta.Operation) error {
	if op.ID == "" {
		return fmt.Errorf("record: operation has no id")
	}
	if _, exists := l.byID[op.ID]; exists {
		return fmt.Errorf("record: duplicate operation id %q", op.ID)
	}

	switch op.State {
	case meta.StatePending:
		l.pending = append(l.pending, op.ID)
	case meta.StateAmbiguous:
		l.ambiguous[op.ID] = struct{}{}
	default:
		return fmt.Errorf("record: operation %q enters in state %q, want pending or ambiguous", op.ID, op.State)
	}

	l.log = append(l.log, op)
	l.byID[op.ID] = op
	return nil
}

// MoveToResolved transitions an operation out of the ambiguity set and
// onto the end of the pending queue. The caller (the resolver) has
// already flipped the operation's state.
func (l *Ledger) MoveToResolved(op *meta.Operation) error {
	if _, ok := l.byID[op.ID]; !ok {
		return NewUnknownOperationError(op.ID)
	}
	if _, ok := l.ambiguous[op.ID]; !ok {
		return fmt.Errorf("move to resolved: operation %q is not in the ambiguity set", op.ID)
	}

	delete(l.ambiguous, op.ID)
	l.pending = append(l.pending, op.ID)
	return nil
}

// Get returns the operation with the given ID.
func (l *Ledger) Get(id string) (*meta.Operation, bool) {
	op, ok := l.byID[id]
	return op, ok
}

// All returns every recorded operation in interpretation order.
func (l *Ledger) All() []*meta.Operation {
	out := make([]*meta.Operation, len(l.log))
	copy(out, l.log)
	return out
}

// Pending returns the pending operations in queue order.
func (l *Ledger) Pending() []*meta.Operation {
	out := make([]*meta.Operation, 0, len(l.pending))
	for _, id := range l.pending {
		out = append(out, l.byID[id])
	}
	return out
}

// Ambiguities returns the ambiguous operations in interpretation order.
// The set itself is unordered; iteration follows the log for stable
// display.
func (l *Ledger) Ambiguities() []*meta.Operation {
	out := make([]*meta.Operation, 0, len(l.ambiguous))
	for _, op := range l.log {
		if _, ok := l.ambiguous[op.ID]; ok {
			out = append(out, op)
		}
	}
	return out
}

// PendingCount returns the pending queue length.
func (l *Ledger) PendingCount() int {
	return len(l.pending)
}

// AmbiguousCount returns the ambiguity set size.
func (l *Ledger) AmbiguousCount() int {
	return len(l.ambiguous)
}

// Len returns the total number of recorded operations.
func (l *Ledger) Len() int {
	return len(l.log)
}

// ClearPending empties the pending queue. Called by the applier after a
// sweep - failed operations are not retried automatically.
func (l *Ledger) ClearPending() {
	l.pending = l.pending[:0]
}
