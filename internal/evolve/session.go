package evolve

import (
	"fmt"
	"log/slog"

	"github.com/metamorph-dev/metamorph/internal/meta"
	"github.com/metamorph-dev/metamorph/internal/metamodel"
)

// Journal persists the evolution history for audit. Implemented by the
// SQLite journal; nil means no persistence.
type Journal interface {
	// AppendOperation records a freshly interpreted operation.
	AppendOperation(sessionID string, op *meta.Operation) error

	// RecordTransition records a lifecycle state change.
	RecordTransition(operationID string, from, to meta.LifecycleState, detail string) error
}

// Session drives one full interpret → resolve → apply cycle against a
// single schema. The pipeline assumes exactly one caller per session; if
// multiple sessions must edit the same schema, the store is the sole
// shared resource and must be serialized externally.
type Session struct {
	id          string
	store       metamodel.Store
	ledger      *Ledger
	interpreter *Interpreter
	resolver    *Resolver
	applier     *Applier
	reporter    *Reporter
	journal     Journal
	logger      *slog.Logger
}

// SessionOption configures a session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	clock   *Clock
	ids     IDGenerator
	journal Journal
	logger  *slog.Logger
}

// WithClock sets the logical clock, e.g. to resume seq numbering from a
// journal.
func WithClock(c *Clock) SessionOption {
	return func(cfg *sessionConfig) { cfg.clock = c }
}

// WithIDGenerator sets the operation/session ID source. Tests use
// FixedGenerator for deterministic golden output.
func WithIDGenerator(g IDGenerator) SessionOption {
	return func(cfg *sessionConfig) { cfg.ids = g }
}

// WithJournal attaches a persistent audit journal.
func WithJournal(j Journal) SessionOption {
	return func(cfg *sessionConfig) { cfg.journal = j }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) SessionOption {
	return func(cfg *sessionConfig) { cfg.logger = l }
}

// NewSession creates a session over the given store.
func NewSession(store metamodel.Store, opts ...SessionOption) *Session {
	cfg := &sessionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.clock == nil {
		cfg.clock = NewClock()
	}
	if cfg.ids == nil {
		cfg.ids = UUIDv7Generator{}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	ledger := NewLedger()
	s := &Session{
		id:          cfg.ids.Generate(),
		store:       store,
		ledger:      ledger,
		interpreter: NewInterpreter(store, ledger, cfg.clock, cfg.ids),
		resolver:    NewResolver(ledger),
		applier:     NewApplier(store, ledger, cfg.logger),
		reporter:    NewReporter(ledger),
		journal:     cfg.journal,
		logger:      cfg.logger,
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Ledger exposes the session's ledger for read access.
func (s *Session) Ledger() *Ledger {
	return s.ledger
}

// Interpret runs a descriptor through the interpreter and journals the
// resulting operation.
func (s *Session) Interpret(d meta.ChangeDescriptor) (*meta.Operation, error) {
	op, err := s.interpreter.Interpret(d)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("operation interpreted",
		"session", s.id,
		"op", op.ID,
		"kind", meta.IntentKind(op.Intent),
		"state", op.State,
	)

	if s.journal != nil {
		if err := s.journal.AppendOperation(s.id, op); err != nil {
			return op, fmt.Errorf("journal append: %w", err)
		}
	}
	return op, nil
}

// Resolve applies resolution data to an ambiguous operation and journals
// the transition.
func (s *Session) Resolve(operationID string, resolution map[string]any) (*meta.Operation, error) {
	before, ok := s.ledger.Get(operationID)
	wasAmbiguous := ok && before.Ambiguous()

	op, err := s.resolver.Resolve(operationID, resolution)
	if err != nil {
		return nil, err
	}

	if s.journal != nil && wasAmbiguous {
		if err := s.journal.RecordTransition(op.ID, meta.StateAmbiguous, meta.StatePending, "resolved"); err != nil {
			return op, fmt.Errorf("journal transition: %w", err)
		}
	}
	return op, nil
}

// Apply sweeps the pending queue and journals every terminal transition.
func (s *Session) Apply() (*ApplyResult, error) {
	result := s.applier.ApplyPending()

	if s.journal != nil {
		for _, op := range result.Applied {
			if err := s.journal.RecordTransition(op.ID, meta.StatePending, meta.StateApplied, ""); err != nil {
				return result, fmt.Errorf("journal transition: %w", err)
			}
		}
		for _, op := range result.Failed {
			if err := s.journal.RecordTransition(op.ID, meta.StatePending, meta.StateFailed, op.FailureDetail); err != nil {
				return result, fmt.Errorf("journal transition: %w", err)
			}
		}
	}
	return result, nil
}

// Report builds a read-only summary of the session's ledger.
func (s *Session) Report() *Report {
	return s.reporter.Report()
}
