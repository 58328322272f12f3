package journal

import (
	"encoding/json"
	"fmt"

	"github.com/metamorph-dev/metamorph/internal/meta"
)

// AppendOperation inserts an interpreted operation.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are
// silently ignored, so re-journaling after a partial failure is safe.
//
// The descriptor payload is serialized to JSON. The typed intent is NOT
// persisted: re-interpretation from the stored descriptor recreates it.
func (j *Journal) AppendOperation(sessionID string, op *meta.Operation) error {
	details, err := marshalDetails(op.Details)
	if err != nil {
		return fmt.Errorf("append operation: %w", err)
	}

	_, err = j.db.Exec(`
		INSERT INTO operations
		(id, session_id, seq, change, element, details, state, ambiguity_reason, failure_detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		op.ID,
		sessionID,
		op.Seq,
		string(op.Change),
		string(op.Element),
		details,
		string(op.State),
		op.AmbiguityReason,
		op.FailureDetail,
	)
	if err != nil {
		return fmt.Errorf("append operation: %w", err)
	}

	return nil
}

// RecordTransition appends a lifecycle transition and updates the
// operation's persisted state to match. Both writes happen in one
// transaction so a crash can never leave them disagreeing. Moves the
// lifecycle does not allow are rejected before anything is written.
func (j *Journal) RecordTransition(operationID string, from, to meta.LifecycleState, detail string) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("record transition: illegal move %s -> %s", from, to)
	}

	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("record transition: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// State update first: its row count doubles as the existence check,
	// before the transition insert can trip the foreign key.
	result, err := tx.Exec(`
		UPDATE operations
		SET state = ?,
		    ambiguity_reason = CASE WHEN ? = 'pending' THEN '' ELSE ambiguity_reason END,
		    failure_detail = CASE WHEN ? = 'failed' THEN ? ELSE failure_detail END
		WHERE id = ?
	`, string(to), string(to), string(to), detail, operationID)
	if err != nil {
		return fmt.Errorf("record transition: update state: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("record transition: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("record transition: unknown operation %q", operationID)
	}

	_, err = tx.Exec(`
		INSERT INTO transitions (operation_id, from_state, to_state, detail)
		VALUES (?, ?, ?, ?)
	`, operationID, string(from), string(to), detail)
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record transition: commit: %w", err)
	}
	return nil
}

// marshalDetails serializes a descriptor payload to JSON. A nil map
// serializes as an empty object so the column is never NULL.
func marshalDetails(details map[string]any) (string, error) {
	if details == nil {
		return "{}", nil
	}
	data, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("marshal details: %w", err)
	}
	return string(data), nil
}
