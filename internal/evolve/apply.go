package evolve

import (
	"fmt"
	"log/slog"

	"github.com/metamorph-dev/metamorph/internal/meta"
	"github.com/metamorph-dev/metamorph/internal/metamodel"
)

// ApplyResult reports the outcome of one batch-apply sweep.
type ApplyResult struct {
	// Success is true only when every pending operation applied cleanly.
	// A refused batch (unresolved ambiguities) or any per-operation
	// failure turns it false.
	Success bool `json:"success"`

	// Applied holds the operations that reached the store, sweep order.
	Applied []*meta.Operation `json:"applied,omitempty"`

	// Failed holds the operations the store rejected, sweep order.
	Failed []*meta.Operation `json:"failed,omitempty"`

	// Errors carries one entry per failure (or the single refusal
	// message for an unresolved batch).
	Errors []string `json:"errors,omitempty"`
}

// Applier walks the pending queue and performs each mutation intent
// against the metamodel store.
//
// Failure isolation is per-operation: a store rejection marks only that
// operation failed and the sweep continues. Already-applied mutations are
// never rolled back. The all-or-nothing rule applies solely to the
// ambiguity precondition - a batch with unresolved ambiguities is refused
// before any mutation is attempted.
type Applier struct {
	store  metamodel.Store
	ledger *Ledger
	logger *slog.Logger
}

// NewApplier creates an applier bound to a store and a ledger.
func NewApplier(store metamodel.Store, ledger *Ledger, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{
		store:  store,
		ledger: ledger,
		logger: logger,
	}
}

// ApplyPending sweeps the pending queue.
//
// Precondition: the ambiguity set must be empty. Otherwise the call is
// refused outright - Success false, a single error citing the unresolved
// count, zero mutations attempted, pending queue untouched.
//
// After the sweep the pending queue is cleared regardless of outcome:
// failed operations are not retried automatically, a caller must
// re-interpret and re-submit.
func (a *Applier) ApplyPending() *ApplyResult {
	if n := a.ledger.AmbiguousCount(); n > 0 {
		a.logger.Warn("batch apply refused", "unresolved", n)
		return &ApplyResult{
			Success: false,
			Errors: []string{
				fmt.Sprintf("cannot apply batch: %d unresolved ambiguous operation(s)", n),
			},
		}
	}

	result := &ApplyResult{Success: true}

	for _, op := range a.ledger.Pending() {
		if err := a.applyOne(op); err != nil {
			op.State = meta.StateFailed
			op.FailureDetail = err.Error()
			result.Failed = append(result.Failed, op)
			result.Errors = append(result.Errors, fmt.Sprintf("%s (%s): %v", op.ID, op.Describe(), err))
			result.Success = false
			a.logger.Warn("operation failed",
				"op", op.ID,
				"kind", meta.IntentKind(op.Intent),
				"error", err,
			)
			continue
		}

		op.State = meta.StateApplied
		result.Applied = append(result.Applied, op)
		a.logger.Debug("operation applied",
			"op", op.ID,
			"kind", meta.IntentKind(op.Intent),
			"seq", op.Seq,
		)
	}

	a.ledger.ClearPending()
	return result
}

// applyOne performs a single mutation intent against the store. Every
// name in the intent is re-resolved by the store at this point - names,
// not captured handles, are the binding contract, so an element deleted
// since interpretation fails here with a lookup error.
//
// The type switch is exhaustive over the sealed MutationIntent variants.
func (a *Applier) applyOne(op *meta.Operation) error {
	switch in := op.Intent.(type) {
	case *meta.AddClass:
		_, err := a.store.CreateClass(in.Name, in.SuperTypes, in.Abstract, in.Interface)
		return err

	case *meta.AddAttribute:
		_, err := a.store.AddAttribute(in.Class, in.Name, in.Type, in.Lower, in.Upper)
		return err

	case *meta.AddReference:
		_, err := a.store.AddReference(in.Source, in.Target, in.Name, in.Containment, in.Lower, in.Upper)
		return err

	case *meta.RemoveClass:
		return a.store.RemoveClass(in.Name)

	case *meta.RemoveAttribute:
		return a.store.RemoveAttribute(in.Class, in.Name)

	case *meta.RemoveReference:
		return a.store.RemoveReference(in.Class, in.Name)

	case *meta.ModifyClass:
		return a.applyModifyClass(in)

	case *meta.ModifyAttribute:
		return a.applyModifyAttribute(in)

	case *meta.ModifyReference:
		return a.applyModifyReference(in)

	case nil:
		// Unreachable through the normal pipeline (nil-intent operations
		// are permanently ambiguous), but an intent can go missing if a
		// journal round-trip dropped it.
		return fmt.Errorf("operation has no mutation intent")

	default:
		return fmt.Errorf("unknown mutation intent type %T", op.Intent)
	}
}

// applyModifyClass performs rename, abstract flip and supertype list
// replace, in that order. The rename goes first so the later primitives
// resolve the class under its new name.
func (a *Applier) applyModifyClass(in *meta.ModifyClass) error {
	name := in.Name
	if in.NewName != nil {
		if err := a.store.RenameClass(name, *in.NewName); err != nil {
			return err
		}
		name = *in.NewName
	}
	if in.Abstract != nil {
		if err := a.store.SetAbstract(name, *in.Abstract); err != nil {
			return err
		}
	}
	if in.SuperTypes != nil {
		if err := a.store.SetSuperTypes(name, *in.SuperTypes); err != nil {
			return err
		}
	}
	return nil
}

// applyModifyAttribute performs rename, retype and rebound in that order.
func (a *Applier) applyModifyAttribute(in *meta.ModifyAttribute) error {
	name := in.Name
	if in.NewName != nil {
		if err := a.store.RenameAttribute(in.Class, name, *in.NewName); err != nil {
			return err
		}
		name = *in.NewName
	}
	if in.NewType != nil {
		if err := a.store.RetypeAttribute(in.Class, name, *in.NewType); err != nil {
			return err
		}
	}
	if in.NewLower != nil || in.NewUpper != nil {
		lower, upper, err := a.currentAttributeBounds(in.Class, name)
		if err != nil {
			return err
		}
		if in.NewLower != nil {
			lower = *in.NewLower
		}
		if in.NewUpper != nil {
			upper = *in.NewUpper // -1 sentinel preserved verbatim
		}
		if err := a.store.ReboundAttribute(in.Class, name, lower, upper); err != nil {
			return err
		}
	}
	return nil
}

// applyModifyReference performs rename, retarget, rebound and containment
// flip in that order.
func (a *Applier) applyModifyReference(in *meta.ModifyReference) error {
	name := in.Name
	if in.NewName != nil {
		if err := a.store.RenameReference(in.Class, name, *in.NewName); err != nil {
			return err
		}
		name = *in.NewName
	}
	if in.NewTarget != nil {
		if err := a.store.RetargetReference(in.Class, name, *in.NewTarget); err != nil {
			return err
		}
	}
	if in.NewLower != nil || in.NewUpper != nil {
		lower, upper, err := a.currentReferenceBounds(in.Class, name)
		if err != nil {
			return err
		}
		if in.NewLower != nil {
			lower = *in.NewLower
		}
		if in.NewUpper != nil {
			upper = *in.NewUpper
		}
		if err := a.store.ReboundReference(in.Class, name, lower, upper); err != nil {
			return err
		}
	}
	if in.NewContainment != nil {
		if err := a.store.SetContainment(in.Class, name, *in.NewContainment); err != nil {
			return err
		}
	}
	return nil
}

// currentAttributeBounds reads an attribute's bounds so a one-sided
// rebound keeps the other side unchanged.
func (a *Applier) currentAttributeBounds(className, attrName string) (lower, upper int, err error) {
	c, ok := a.store.FindClassByName(className)
	if !ok {
		return 0, 0, &metamodel.NotFoundError{Kind: "class", Name: className}
	}
	for _, attr := range a.store.ClassAttributes(c) {
		if meta.SameName(attr.Name, attrName) {
			return attr.Lower, attr.Upper, nil
		}
	}
	return 0, 0, &metamodel.NotFoundError{Kind: "attribute", Name: attrName, Class: c.Name}
}

// currentReferenceBounds reads a reference's bounds so a one-sided
// rebound keeps the other side unchanged.
func (a *Applier) currentReferenceBounds(className, refName string) (lower, upper int, err error) {
	c, ok := a.store.FindClassByName(className)
	if !ok {
		return 0, 0, &metamodel.NotFoundError{Kind: "class", Name: className}
	}
	for _, ref := range a.store.ClassReferences(c) {
		if meta.SameName(ref.Name, refName) {
			return ref.Lower, ref.Upper, nil
		}
	}
	return 0, 0, &metamodel.NotFoundError{Kind: "reference", Name: refName, Class: c.Name}
}
