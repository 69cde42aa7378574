package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Discover returns the scenario files under path. A file is returned as
// is; a directory is searched recursively for .yaml and .yml files.
// Results are sorted so suites run in a stable order.
func Discover(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("scenario path %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".yaml", ".yml":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}
	slices.Sort(files)
	return files, nil
}

// SuiteEntry is the result of one scenario file in a suite run.
type SuiteEntry struct {
	Path     string
	Scenario *Scenario
	Result   *Result
	Err      error // Load or execution error; Result is nil when set
}

// Passed reports whether the scenario loaded, ran and passed.
func (e SuiteEntry) Passed() bool {
	return e.Err == nil && e.Result != nil && e.Result.Pass
}

// RunSuite loads and runs every scenario under path. A scenario that fails
// to load is reported in its entry and does not stop the suite.
func RunSuite(ctx context.Context, path string) ([]SuiteEntry, error) {
	files, err := Discover(path)
	if err != nil {
		return nil, err
	}
	entries := make([]SuiteEntry, 0, len(files))
	for _, file := range files {
		entry := SuiteEntry{Path: file}
		entry.Scenario, entry.Err = LoadScenario(file)
		if entry.Err == nil {
			entry.Result, entry.Err = RunContext(ctx, entry.Scenario)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
