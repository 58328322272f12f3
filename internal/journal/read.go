package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/metamorph-dev/metamorph/internal/meta"
)

// OperationRecord is one persisted ledger entry.
type OperationRecord struct {
	ID              string              `json:"id"`
	SessionID       string              `json:"session_id"`
	Seq             int64               `json:"seq"`
	Change          meta.ChangeType     `json:"change"`
	Element         meta.ElementKind    `json:"element"`
	Details         map[string]any      `json:"details,omitempty"`
	State           meta.LifecycleState `json:"state"`
	AmbiguityReason string              `json:"ambiguity_reason,omitempty"`
	FailureDetail   string              `json:"failure_detail,omitempty"`
}

// TransitionRecord is one persisted lifecycle transition.
type TransitionRecord struct {
	OperationID string              `json:"operation_id"`
	From        meta.LifecycleState `json:"from"`
	To          meta.LifecycleState `json:"to"`
	Detail      string              `json:"detail,omitempty"`
}

// ListOperations returns all operations for a session.
// Ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the session has no records.
func (j *Journal) ListOperations(sessionID string) ([]OperationRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, session_id, seq, change, element, details, state, ambiguity_reason, failure_detail
		FROM operations
		WHERE session_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	return collectOperations(rows)
}

// OperationsByState returns all operations in a given lifecycle state
// across sessions, with the same deterministic ordering as ListOperations.
func (j *Journal) OperationsByState(state meta.LifecycleState) ([]OperationRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, session_id, seq, change, element, details, state, ambiguity_reason, failure_detail
		FROM operations
		WHERE state = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, string(state))
	if err != nil {
		return nil, fmt.Errorf("query operations by state: %w", err)
	}
	defer rows.Close()

	return collectOperations(rows)
}

// Transitions returns an operation's lifecycle history in write order.
func (j *Journal) Transitions(operationID string) ([]TransitionRecord, error) {
	rows, err := j.db.Query(`
		SELECT operation_id, from_state, to_state, detail
		FROM transitions
		WHERE operation_id = ?
		ORDER BY id ASC
	`, operationID)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	transitions := []TransitionRecord{}
	for rows.Next() {
		var tr TransitionRecord
		var from, to string
		if err := rows.Scan(&tr.OperationID, &from, &to, &tr.Detail); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		tr.From = meta.LifecycleState(from)
		tr.To = meta.LifecycleState(to)
		transitions = append(transitions, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}

	return transitions, nil
}

// Sessions returns the distinct session IDs in the journal, ordered.
// Empty slice (not nil) for an empty journal.
func (j *Journal) Sessions() ([]string, error) {
	rows, err := j.db.Query(`
		SELECT DISTINCT session_id FROM operations
		ORDER BY session_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// LastSeq returns the highest sequence number recorded for a session,
// or 0 for an unknown session. Used to resume a session's logical clock.
func (j *Journal) LastSeq(sessionID string) (int64, error) {
	var seq sql.NullInt64
	err := j.db.QueryRow(`
		SELECT MAX(seq) FROM operations WHERE session_id = ?
	`, sessionID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return seq.Int64, nil
}

// collectOperations scans all rows into records.
func collectOperations(rows *sql.Rows) ([]OperationRecord, error) {
	records := []OperationRecord{}
	for rows.Next() {
		var rec OperationRecord
		var change, element, details, state string
		if err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.Seq,
			&change,
			&element,
			&details,
			&state,
			&rec.AmbiguityReason,
			&rec.FailureDetail,
		); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}

		rec.Change = meta.ChangeType(change)
		rec.Element = meta.ElementKind(element)
		rec.State = meta.LifecycleState(state)
		if err := json.Unmarshal([]byte(details), &rec.Details); err != nil {
			return nil, fmt.Errorf("unmarshal details for %s: %w", rec.ID, err)
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}

	return records, nil
}
