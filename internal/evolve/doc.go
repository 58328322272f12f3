// Package evolve implements the Metamorph evolution pipeline.
//
// The pipeline is the heart of Metamorph - it interprets model-level
// change descriptors into typed mutation intents, detects ambiguous or
// unsafe intents, holds them for external resolution, and applies batches
// of resolved intents to the metamodel store.
//
// ARCHITECTURE:
//
// Staged operation lifecycle:
//
//	interpret -> pending ----------------> applied | failed
//	          -> ambiguous -> (resolve) -> pending
//
// Ambiguous operations sit in the ledger's ambiguity set until a domain
// expert supplies resolution data; pending operations queue up for the
// next batch apply. Applied and failed are terminal. An operation whose
// descriptor named an unknown change/element pair enters ambiguous with
// no intent and can never be resolved - it stays stuck.
//
// Single-threaded pipeline:
// Interpretation, resolution and application run synchronously in one
// goroutine. This ensures:
// - Predictable interpretation order (the ledger's logical clock)
// - Reproducible reports
// - Simple reasoning about which schema state each check saw
//
// Batch apply protocol:
// ApplyPending refuses outright while the ambiguity set is non-empty.
// Otherwise each pending operation is applied to the store independently:
// one failure marks only that operation failed and the sweep continues.
// There is no rollback of already-applied mutations, and the pending
// queue is cleared after the sweep regardless of outcome - failed
// operations must be re-interpreted and re-submitted.
//
// Names, not captured object identities, bind intents to the store: the
// applier re-resolves every name at apply time, so an intent that passed
// interpretation-time checks can still fail if the schema moved.
package evolve
