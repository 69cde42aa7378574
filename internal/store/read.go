package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/synthkit/internal/ir"
)

const runColumns = `seq, id, backend, spec_hash, system_hash, outcome, removed_states, error_message, result, tool_version, ir_version`

// RunFilter narrows ListRuns. Zero fields match everything.
type RunFilter struct {
	Backend  string
	Outcome  ir.Outcome
	SpecHash string
	AfterSeq int64 // Only rows with seq > AfterSeq
	Limit    int   // Keep the newest Limit rows; 0 means all
}

// ReadRun returns the run with the given id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns matching runs ordered by seq ASC, id ASC COLLATE BINARY.
// With a Limit, the newest rows are kept and still returned oldest first.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListRuns(ctx context.Context, f RunFilter) ([]ir.RunRecord, error) {
	var where []string
	var args []any
	if f.Backend != "" {
		where = append(where, "backend = ?")
		args = append(args, f.Backend)
	}
	if f.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, string(f.Outcome))
	}
	if f.SpecHash != "" {
		where = append(where, "spec_hash = ?")
		args = append(args, f.SpecHash)
	}
	if f.AfterSeq > 0 {
		where = append(where, "seq > ?")
		args = append(args, f.AfterSeq)
	}

	query := `SELECT ` + runColumns + ` FROM runs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	if f.Limit > 0 {
		query = `SELECT * FROM (` + query + ` ORDER BY seq DESC LIMIT ?)`
		args = append(args, f.Limit)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.RunRecord{}
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LastSeq returns the highest assigned seq, or 0 for an empty log.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

// CountByOutcome tallies runs per outcome.
func (s *Store) CountByOutcome(ctx context.Context) (map[ir.Outcome]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM runs GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}
	defer rows.Close()

	out := make(map[ir.Outcome]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[ir.Outcome(outcome)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return out, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (ir.RunRecord, error) {
	var rec ir.RunRecord
	var outcome, removed, result string
	err := sc.Scan(
		&rec.Seq,
		&rec.ID,
		&rec.Backend,
		&rec.SpecHash,
		&rec.SystemHash,
		&outcome,
		&removed,
		&rec.ErrorMessage,
		&result,
		&rec.ToolVersion,
		&rec.IRVersion,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return ir.RunRecord{}, err
		}
		return ir.RunRecord{}, fmt.Errorf("scan run: %w", err)
	}
	rec.Outcome = ir.Outcome(outcome)
	if rec.RemovedStates, err = unmarshalRemoved(removed); err != nil {
		return ir.RunRecord{}, err
	}
	if rec.Result, err = unmarshalResult(result); err != nil {
		return ir.RunRecord{}, err
	}
	return rec, nil
}
