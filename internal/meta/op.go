package meta

import "fmt"

// LifecycleState tracks where an operation sits in the staged pipeline.
type LifecycleState string

const (
	// StatePending means the operation passed interpretation-time checks
	// and is queued for the next batch apply.
	StatePending LifecycleState = "pending"

	// StateAmbiguous means the operation cannot be safely applied without
	// external resolution input. Not an error: ledger state.
	StateAmbiguous LifecycleState = "ambiguous"

	// StateApplied is terminal: the mutation reached the metamodel store.
	StateApplied LifecycleState = "applied"

	// StateFailed is terminal: the store rejected the mutation at apply
	// time. Failed operations are never retried automatically.
	StateFailed LifecycleState = "failed"
)

// Terminal reports whether a state permits no further transitions.
func (s LifecycleState) Terminal() bool {
	return s == StateApplied || s == StateFailed
}

// CanTransition reports whether the lifecycle allows moving from s to next.
// The only legal moves are ambiguous→pending (resolution) and
// pending→applied/failed (batch apply).
func (s LifecycleState) CanTransition(next LifecycleState) bool {
	if s.Terminal() {
		return false
	}
	switch s {
	case StateAmbiguous:
		return next == StatePending
	case StatePending:
		return next == StateApplied || next == StateFailed
	default:
		return false
	}
}

// Operation is the ledger's unit of record: one interpreted change intent
// with its staged lifecycle state.
//
// ID is a stable opaque identifier (UUIDv7). The ledger's derived indices
// hold IDs, never positions - transitions are O(1) and immune to the
// identity-comparison bugs of index-by-value schemes across two lists.
type Operation struct {
	ID  string `json:"id"`
	Seq int64  `json:"seq"` // logical clock: interpretation order

	Change  ChangeType  `json:"change"`
	Element ElementKind `json:"element"`

	// Details is a verbatim copy of the descriptor payload, kept for
	// audit and display. The typed Intent, not Details, drives apply.
	Details map[string]any `json:"details,omitempty"`

	State LifecycleState `json:"state"`

	// AmbiguityReason is set iff State == StateAmbiguous and cleared on
	// resolution.
	AmbiguityReason string `json:"ambiguity_reason,omitempty"`

	// Intent is nil only when interpretation failed outright (unknown
	// change/element pair). Such an operation is permanently ambiguous.
	Intent MutationIntent `json:"-"`

	// FailureDetail is set iff State == StateFailed.
	FailureDetail string `json:"failure_detail,omitempty"`
}

// Ambiguous reports whether the operation awaits external resolution.
func (op *Operation) Ambiguous() bool {
	return op.State == StateAmbiguous
}

// Describe renders a short human-readable label, e.g. "add class".
func (op *Operation) Describe() string {
	return fmt.Sprintf("%s %s", op.Change, op.Element)
}
