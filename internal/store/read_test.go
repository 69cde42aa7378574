package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synthkit/internal/ir"
)

func TestReadRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestRun("run-1", "gr1c")
	rec.RemovedStates = []string{"s0"}
	rec.Result = ir.Obj(
		ir.O("realizable", ir.Bool(true)),
		ir.O("strategy", ir.Obj(
			ir.O("env_vars", ir.Strs([]string{"home"})),
			ir.O("nodes", ir.List{ir.Obj(ir.O("id", ir.Int(0)), ir.O("rank", ir.Int(2)))}),
		)),
	)
	require.NoError(t, s.RecordRun(ctx, rec))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	rec.Seq = 1
	assert.Equal(t, rec, got)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "nonexistent")
	assert.True(t, errors.Is(err, sql.ErrNoRows), "got %v", err)
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.ListRuns(context.Background(), RunFilter{})
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestListRuns_DeterministicOrdering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, s.RecordRun(ctx, createTestRun(id, "gr1c")))
	}

	runs, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, runIDs(runs), "insertion order, not id order")
	assert.Equal(t, []int64{1, 2, 3}, []int64{runs[0].Seq, runs[1].Seq, runs[2].Seq})
}

func TestListRuns_Filters(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := createTestRun("a", "gr1c")
	b := createTestRun("b", "jtlv")
	c := createTestRun("c", "gr1c")
	c.Outcome = ir.OutcomeUnrealizable
	c.SpecHash = "other"
	d := createTestRun("d", "jtlv")
	d.Outcome = ir.OutcomeBackendFailure
	for _, rec := range []ir.RunRecord{a, b, c, d} {
		require.NoError(t, s.RecordRun(ctx, rec))
	}

	tests := []struct {
		name   string
		filter RunFilter
		want   []string
	}{
		{"all", RunFilter{}, []string{"a", "b", "c", "d"}},
		{"backend", RunFilter{Backend: "jtlv"}, []string{"b", "d"}},
		{"outcome", RunFilter{Outcome: ir.OutcomeUnrealizable}, []string{"c"}},
		{"spec hash", RunFilter{SpecHash: "spec-hash"}, []string{"a", "b", "d"}},
		{"after seq", RunFilter{AfterSeq: 2}, []string{"c", "d"}},
		{"limit keeps newest", RunFilter{Limit: 2}, []string{"c", "d"}},
		{"combined", RunFilter{Backend: "gr1c", Limit: 1}, []string{"c"}},
		{"no match", RunFilter{Backend: "nusmv"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := s.ListRuns(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, runIDs(runs))
		})
	}
}

func TestLastSeq_Empty(t *testing.T) {
	s := createTestStore(t)
	seq, err := s.LastSeq(context.Background())
	require.NoError(t, err)
	assert.Zero(t, seq)
}

func TestCountByOutcome(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	fail := createTestRun("f", "gr1c")
	fail.Outcome = ir.OutcomeInvalidSystem
	for _, rec := range []ir.RunRecord{createTestRun("a", "gr1c"), createTestRun("b", "gr1c"), fail} {
		require.NoError(t, s.RecordRun(ctx, rec))
	}

	counts, err := s.CountByOutcome(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[ir.Outcome]int{
		ir.OutcomeRealizable:    2,
		ir.OutcomeInvalidSystem: 1,
	}, counts)
}

func runIDs(runs []ir.RunRecord) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}
