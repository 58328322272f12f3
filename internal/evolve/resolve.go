package evolve

import (
	"github.com/metamorph-dev/metamorph/internal/meta"
)

// Resolver merges externally supplied resolution data into an ambiguous
// operation's intent and re-stages the operation as pending.
//
// Resolution is "resolve if needed", not a strict state machine: a
// non-ambiguous operation is returned unchanged, which makes resolution
// idempotent for callers that retry.
//
// Resolution does NOT re-run the interpreter's validation checks - the
// domain expert's input is trusted as authoritative. A resolution can
// therefore reintroduce a conflict (say, a new name that now collides);
// such a conflict surfaces as a failed operation at apply time, when the
// store re-resolves names. This is a documented design risk, kept rather
// than silently fixed.
type Resolver struct {
	ledger *Ledger
}

// NewResolver creates a resolver over the ledger.
func NewResolver(ledger *Ledger) *Resolver {
	return &Resolver{ledger: ledger}
}

// Resolve applies resolution data to the operation with the given ID.
//
// Fails with an unknown-operation error if the ID identifies no ledger
// entry, and with an unresolvable error if the operation carries no
// intent (unknown change/element pair - permanently stuck). Otherwise:
// supplied fields override the intent's, absent fields retain their prior
// values; the state flips to pending, the ambiguity reason is cleared and
// the ledger moves the operation onto the pending queue.
func (r *Resolver) Resolve(operationID string, resolution map[string]any) (*meta.Operation, error) {
	op, ok := r.ledger.Get(operationID)
	if !ok {
		return nil, NewUnknownOperationError(operationID)
	}

	if !op.State.CanTransition(meta.StatePending) {
		// Already pending, applied or failed: no-op.
		return op, nil
	}

	if op.Intent == nil {
		return nil, NewUnresolvableError(op.ID)
	}

	mergeResolution(op.Intent, resolution)

	op.State = meta.StatePending
	op.AmbiguityReason = ""
	if err := r.ledger.MoveToResolved(op); err != nil {
		return nil, err
	}
	return op, nil
}

// mergeResolution overwrites intent fields with caller-supplied values,
// field by field. The resolution map uses the same detail keys as change
// descriptors, so an expert patches an ambiguity with the same vocabulary
// that produced it.
func mergeResolution(intent meta.MutationIntent, resolution map[string]any) {
	switch in := intent.(type) {
	case *meta.AddClass:
		if name, ok := stringDetail(resolution, meta.DetailName); ok {
			in.Name = name
		}
		if abstract, ok := boolDetail(resolution, meta.DetailAbstract); ok {
			in.Abstract = abstract
		}
		if iface, ok := boolDetail(resolution, meta.DetailInterface); ok {
			in.Interface = iface
		}
		if superTypes, ok := stringsDetail(resolution, meta.DetailSuperTypes); ok {
			in.SuperTypes = superTypes
		}

	case *meta.AddAttribute:
		if class, ok := stringDetail(resolution, meta.DetailClass); ok {
			in.Class = class
		}
		if name, ok := stringDetail(resolution, meta.DetailName); ok {
			in.Name = name
		}
		if typeName, ok := stringDetail(resolution, meta.DetailType); ok {
			in.Type = typeName
		}
		if lower, ok := intDetail(resolution, meta.DetailLower); ok {
			in.Lower = lower
		}
		if upper, ok := intDetail(resolution, meta.DetailUpper); ok {
			in.Upper = upper
		}

	case *meta.AddReference:
		if source, ok := stringDetail(resolution, meta.DetailSource); ok {
			in.Source = source
		}
		if target, ok := stringDetail(resolution, meta.DetailTarget); ok {
			in.Target = target
		}
		if name, ok := stringDetail(resolution, meta.DetailName); ok {
			in.Name = name
		}
		if containment, ok := boolDetail(resolution, meta.DetailContainment); ok {
			in.Containment = containment
		}
		if lower, ok := intDetail(resolution, meta.DetailLower); ok {
			in.Lower = lower
		}
		if upper, ok := intDetail(resolution, meta.DetailUpper); ok {
			in.Upper = upper
		}

	case *meta.RemoveClass:
		if name, ok := stringDetail(resolution, meta.DetailName); ok {
			in.Name = name
		}

	case *meta.RemoveAttribute:
		if class, ok := stringDetail(resolution, meta.DetailClass); ok {
			in.Class = class
		}
		if name, ok := stringDetail(resolution, meta.DetailName); ok {
			in.Name = name
		}

	case *meta.RemoveReference:
		if class, ok := stringDetail(resolution, meta.DetailClass); ok {
			in.Class = class
		}
		if name, ok := stringDetail(resolution, meta.DetailName); ok {
			in.Name = name
		}

	case *meta.ModifyClass:
		if name, ok := stringDetail(resolution, meta.DetailName); ok {
			in.Name = name
		}
		if newName, ok := stringDetail(resolution, meta.DetailNewName); ok {
			in.NewName = &newName
		}
		if abstract, ok := boolDetail(resolution, meta.DetailAbstract); ok {
			in.Abstract = &abstract
		}
		if superTypes, ok := stringsDetail(resolution, meta.DetailSuperTypes); ok {
			in.SuperTypes = &superTypes
		}

	case *meta.ModifyAttribute:
		if class, ok := stringDetail(resolution, meta.DetailClass); ok {
			in.Class = class
		}
		if name, ok := stringDetail(resolution, meta.DetailName); ok {
			in.Name = name
		}
		if newName, ok := stringDetail(resolution, meta.DetailNewName); ok {
			in.NewName = &newName
		}
		if newType, ok := stringDetail(resolution, meta.DetailNewType); ok {
			in.NewType = &newType
		}
		if lower, ok := intDetail(resolution, meta.DetailNewLower); ok {
			in.NewLower = &lower
		}
		if upper, ok := intDetail(resolution, meta.DetailNewUpper); ok {
			in.NewUpper = &upper
		}

	case *meta.ModifyReference:
		if class, ok := stringDetail(resolution, meta.DetailClass); ok {
			in.Class = class
		}
		if name, ok := stringDetail(resolution, meta.DetailName); ok {
			in.Name = name
		}
		if newName, ok := stringDetail(resolution, meta.DetailNewName); ok {
			in.NewName = &newName
		}
		if newTarget, ok := stringDetail(resolution, meta.DetailNewTarget); ok {
			in.NewTarget = &newTarget
		}
		if lower, ok := intDetail(resolution, meta.DetailNewLower); ok {
			in.NewLower = &lower
		}
		if upper, ok := intDetail(resolution, meta.DetailNewUpper); ok {
			in.NewUpper = &upper
		}
		if containment, ok := boolDetail(resolution, meta.DetailContainment); ok {
			in.NewContainment = &containment
		}
	}
}
