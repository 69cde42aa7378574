package compiler

import (
	"github.com/roach88/synthkit/internal/spec"
	"github.com/roach88/synthkit/internal/ts"
)

// Assemble prunes a private copy of sys, compiles it and merges the result
// into frag. With a nil sys it returns frag and a nil report.
//
// The report is returned whenever sys is non-nil, also when compiling or
// merging fails, so callers can show what pruning did to a system that
// turned out to be invalid. Neither argument is modified.
func Assemble(frag *spec.Fragment, sys *ts.System) (*spec.Fragment, *PruneReport, error) {
	if frag == nil {
		frag = &spec.Fragment{}
	}
	if sys == nil {
		return frag, nil, nil
	}

	work, report := Prune(sys)
	compiled, err := Compile(work)
	if err != nil {
		return nil, &report, err
	}
	merged, err := spec.Combine(frag, compiled)
	if err != nil {
		return nil, &report, err
	}
	return merged, &report, nil
}
