package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/synthkit/internal/ir"
)

// createTestStore opens a fresh store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun builds a realizable run with a minimal result.
func createTestRun(id, backend string) ir.RunRecord {
	return ir.RunRecord{
		ID:            id,
		Backend:       backend,
		SpecHash:      "spec-hash",
		SystemHash:    "system-hash",
		Outcome:       ir.OutcomeRealizable,
		RemovedStates: []string{},
		Result:        ir.Obj(ir.O("realizable", ir.Bool(true))),
		ToolVersion:   ir.ToolVersion,
		IRVersion:     ir.IRVersion,
	}
}
