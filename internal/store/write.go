package store

import (
	"context"
	"fmt"

	"github.com/roach88/synthkit/internal/ir"
)

// WriteRun appends rec to the run log and returns its seq.
// rec.Seq is ignored; the store assigns it.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing an id twice
// returns the seq of the first write and leaves the row unchanged.
func (s *Store) WriteRun(ctx context.Context, rec ir.RunRecord) (int64, error) {
	if rec.ID == "" {
		return 0, fmt.Errorf("write run: empty id")
	}
	removedJSON, err := marshalRemoved(rec.RemovedStates)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}
	resultJSON, err := marshalResult(rec.Result)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, backend, spec_hash, system_hash, outcome, removed_states, error_message, result, tool_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Backend,
		rec.SpecHash,
		rec.SystemHash,
		string(rec.Outcome),
		removedJSON,
		rec.ErrorMessage,
		resultJSON,
		rec.ToolVersion,
		rec.IRVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}
	if n == 0 {
		var seq int64
		if err := s.db.QueryRowContext(ctx, `SELECT seq FROM runs WHERE id = ?`, rec.ID).Scan(&seq); err != nil {
			return 0, fmt.Errorf("write run: lookup existing %s: %w", rec.ID, err)
		}
		return seq, nil
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}
	return seq, nil
}

// RecordRun appends rec, discarding the assigned seq.
// It lets a Store serve as the dispatcher's recorder.
func (s *Store) RecordRun(ctx context.Context, rec ir.RunRecord) error {
	_, err := s.WriteRun(ctx, rec)
	return err
}
