package evolve

import (
	"fmt"
	"strings"

	"github.com/metamorph-dev/metamorph/internal/meta"
)

// Report is a read-only summary of the ledger for display to the domain
// expert. Pure projection: building one performs no mutation.
type Report struct {
	TotalOperations int                `json:"total_operations"`
	PendingCount    int                `json:"pending_count"`
	AmbiguousCount  int                `json:"ambiguous_count"`
	Operations      []OperationSummary `json:"operations"`
}

// OperationSummary is one ledger entry flattened for display.
type OperationSummary struct {
	ID              string              `json:"id"`
	Seq             int64               `json:"seq"`
	Change          meta.ChangeType     `json:"change"`
	Element         meta.ElementKind    `json:"element"`
	Intent          string              `json:"intent"` // intent kind, "none" if interpretation failed
	State           meta.LifecycleState `json:"state"`
	AmbiguityReason string              `json:"ambiguity_reason,omitempty"`
	FailureDetail   string              `json:"failure_detail,omitempty"`
}

// Reporter projects the ledger into reports.
type Reporter struct {
	ledger *Ledger
}

// NewReporter creates a reporter over the ledger.
func NewReporter(ledger *Ledger) *Reporter {
	return &Reporter{ledger: ledger}
}

// Report builds a summary of the full ledger in interpretation order.
func (r *Reporter) Report() *Report {
	ops := r.ledger.All()
	report := &Report{
		TotalOperations: len(ops),
		PendingCount:    r.ledger.PendingCount(),
		AmbiguousCount:  r.ledger.AmbiguousCount(),
		Operations:      make([]OperationSummary, 0, len(ops)),
	}

	for _, op := range ops {
		report.Operations = append(report.Operations, OperationSummary{
			ID:              op.ID,
			Seq:             op.Seq,
			Change:          op.Change,
			Element:         op.Element,
			Intent:          meta.IntentKind(op.Intent),
			State:           op.State,
			AmbiguityReason: op.AmbiguityReason,
			FailureDetail:   op.FailureDetail,
		})
	}
	return report
}

// Render produces the deterministic text form of a report. Output depends
// only on ledger content, never on wall time or map iteration order, so
// it is safe to compare against golden files.
func (r *Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "evolution report: %d operation(s), %d pending, %d ambiguous\n",
		r.TotalOperations, r.PendingCount, r.AmbiguousCount)

	for _, op := range r.Operations {
		b.WriteString("\n")
		fmt.Fprintf(&b, "  #%d [%s] %s %s (%s)\n", op.Seq, op.State, op.Change, op.Element, op.Intent)
		if op.AmbiguityReason != "" {
			fmt.Fprintf(&b, "      reason: %s\n", op.AmbiguityReason)
		}
		if op.FailureDetail != "" {
			fmt.Fprintf(&b, "      failure: %s\n", op.FailureDetail)
		}
	}

	return b.String()
}
