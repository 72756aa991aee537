package store

import (
	"database/sql"
	"fmt"
)

// ─── File claims ─────────────────────────────────────────────────────────────
//
// Claims are advisory locks over files that live outside the store.
// The invariant: at most one active editing claim per filepath. Reading
// and reviewing claims do not exclude anyone; callers are expected to
// honor a conflict rather than ignore it.

// ClaimFile records that agentID holds filepath in the given mode.
// When another agent already holds an active editing claim the call
// fails with a ClaimConflictError naming the holder. Conflict check and
// upsert run in one transaction so two racing editing claims resolve to
// exactly one winner.
func (s *Store) ClaimFile(filepath, agentID, mode string) error {
	switch mode {
	case ClaimEditing, ClaimReading, ClaimReviewing:
	default:
		return fmt.Errorf("store: claim file: unknown mode %q", mode)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: claim file %q: %w", filepath, err)
	}
	defer func() { _ = tx.Rollback() }()

	var holder, heldMode string
	err = tx.QueryRow(
		`SELECT holder_agent_id, mode FROM file_claims WHERE filepath = ?`, filepath,
	).Scan(&holder, &heldMode)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("store: claim file %q: %w", filepath, err)
	}
	if err == nil && heldMode == ClaimEditing && holder != agentID {
		return &ClaimConflictError{Filepath: filepath, Holder: holder}
	}

	if _, err := tx.Exec(
		`INSERT INTO file_claims (filepath, holder_agent_id, mode, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(filepath) DO UPDATE SET
		   holder_agent_id = excluded.holder_agent_id,
		   mode            = excluded.mode,
		   updated_at      = excluded.updated_at`,
		filepath, agentID, mode, now(),
	); err != nil {
		return fmt.Errorf("store: claim file %q: %w", filepath, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: claim file %q: %w", filepath, err)
	}
	return nil
}

// ReleaseFile marks a claim released. Only the current holder may
// release; anyone else gets ErrNotHolder.
func (s *Store) ReleaseFile(filepath, agentID string) error {
	var holder string
	err := s.db.QueryRow(
		`SELECT holder_agent_id FROM file_claims WHERE filepath = ? AND mode != ?`,
		filepath, ClaimReleased,
	).Scan(&holder)
	if err == sql.ErrNoRows {
		return fmt.Errorf("store: release file %q: %w", filepath, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("store: release file %q: %w", filepath, err)
	}
	if holder != agentID {
		return fmt.Errorf("store: release file %q held by %q: %w", filepath, holder, ErrNotHolder)
	}

	if _, err := s.db.Exec(
		`UPDATE file_claims SET mode = ?, updated_at = ? WHERE filepath = ?`,
		ClaimReleased, now(), filepath,
	); err != nil {
		return fmt.Errorf("store: release file %q: %w", filepath, err)
	}
	return nil
}

// ForceReleaseFile clears a claim regardless of holder. This is the
// admin escape hatch for crashed or stuck agents.
func (s *Store) ForceReleaseFile(filepath string) error {
	res, err := s.db.Exec(
		`UPDATE file_claims SET mode = ?, updated_at = ? WHERE filepath = ? AND mode != ?`,
		ClaimReleased, now(), filepath, ClaimReleased,
	)
	if err != nil {
		return fmt.Errorf("store: force release %q: %w", filepath, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: force release %q: %w", filepath, err)
	}
	if n == 0 {
		return fmt.Errorf("store: force release %q: %w", filepath, ErrNotFound)
	}
	return nil
}

// ClaimStatus returns the current claim on a file, or ErrNotFound when
// the file has never been claimed.
func (s *Store) ClaimStatus(filepath string) (*Claim, error) {
	row := s.db.QueryRow(
		`SELECT filepath, holder_agent_id, mode, updated_at FROM file_claims WHERE filepath = ?`,
		filepath,
	)
	var c Claim
	err := row.Scan(&c.Filepath, &c.HolderID, &c.Mode, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store: claim %q: %w", filepath, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: claim %q: %w", filepath, err)
	}
	return &c, nil
}

// ListClaimsByAgent returns an agent's active (non-released) claims.
func (s *Store) ListClaimsByAgent(agentID string) ([]Claim, error) {
	rows, err := s.db.Query(
		`SELECT filepath, holder_agent_id, mode, updated_at
		 FROM file_claims WHERE holder_agent_id = ? AND mode != ?
		 ORDER BY filepath`,
		agentID, ClaimReleased,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list claims for %q: %w", agentID, err)
	}
	defer func() { _ = rows.Close() }()

	var claims []Claim
	for rows.Next() {
		var c Claim
		if err := rows.Scan(&c.Filepath, &c.HolderID, &c.Mode, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: list claims for %q: %w", agentID, err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}
