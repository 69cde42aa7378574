package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/synthkit/internal/ir"
	"github.com/roach88/synthkit/internal/spec"
)

// Snapshot is the canonical summary of a scenario execution compared
// against golden files. Hashes are left out so snapshots survive changes
// to formula encoding that keep the same shape.
func Snapshot(name string, result *Result) ir.Object {
	snap := ir.Obj(
		ir.O("scenario_name", ir.Str(name)),
		ir.O("outcome", ir.Str(string(result.Outcome))),
	)
	if msg := result.ErrorMessage(); msg != "" {
		snap["error"] = ir.Str(msg)
	}
	if run := result.Run; run != nil {
		removed := make([]string, 0, len(run.Removed()))
		for _, s := range run.Removed() {
			removed = append(removed, string(s))
		}
		counts := make(ir.Object, len(spec.Sections))
		for _, s := range spec.Sections {
			counts[string(s)] = ir.Int(len(run.Fragment.Formulas(s)))
		}
		snap["removed"] = ir.Strs(removed)
		snap["fragment"] = ir.Obj(
			ir.O("env_vars", ir.Strs(run.Fragment.EnvVars)),
			ir.O("sys_vars", ir.Strs(run.Fragment.SysVars)),
			ir.O("formulas", counts),
		)
		snap["realizable"] = ir.Bool(run.Result.Realizable)
	}

	records := make(ir.List, len(result.Records))
	for i, rec := range result.Records {
		records[i] = ir.Obj(
			ir.O("id", ir.Str(rec.ID)),
			ir.O("seq", ir.Int(rec.Seq)),
			ir.O("backend", ir.Str(rec.Backend)),
			ir.O("outcome", ir.Str(string(rec.Outcome))),
		)
	}
	snap["records"] = records
	return snap
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check Pass. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := SnapshotBytes(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}

// SnapshotBytes is the canonical JSON encoding of Snapshot.
func SnapshotBytes(name string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(Snapshot(name, result))
}

// GoldenPath returns the golden file for a scenario under dir.
func GoldenPath(dir, name string) string {
	return filepath.Join(dir, name+".golden")
}

// WriteGolden stores the snapshot of result under dir, creating dir when
// needed. Used by the CLI's --update outside of go test.
func WriteGolden(dir, name string, result *Result) error {
	data, err := SnapshotBytes(name, result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create golden dir: %w", err)
	}
	return os.WriteFile(GoldenPath(dir, name), data, 0o644)
}

// CompareGolden reports whether the golden file under dir matches the
// snapshot of result. A missing file yields an error wrapping
// os.ErrNotExist.
func CompareGolden(dir, name string, result *Result) (bool, error) {
	want, err := os.ReadFile(GoldenPath(dir, name))
	if err != nil {
		return false, err
	}
	got, err := SnapshotBytes(name, result)
	if err != nil {
		return false, err
	}
	return bytes.Equal(got, want), nil
}
