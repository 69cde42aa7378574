package compiler

import (
	"github.com/roach88/synthkit/internal/ts"
)

// PruneReport describes one pruning run.
type PruneReport struct {
	Removed    []ts.State  `json:"removed"`    // In removal order
	Passes     int         `json:"passes"`     // SCC passes, including the last one that removed nothing
	Components []Component `json:"components"` // Components of the pruned system
}

// Prune returns a copy of sys restricted to its recurrent core, leaving sys
// untouched. See PruneInPlace.
func Prune(sys *ts.System) (*ts.System, PruneReport) {
	c := sys.Clone()
	report := PruneInPlace(c)
	return c, report
}

// PruneInPlace removes from sys every state that cannot recur on an infinite
// run.
//
// Each pass computes the SCCs and removes the states of trivial components
// (singletons without a self-loop) together with their transitions.
// Removing states can break cycles that kept other components alive, so
// passes repeat until one removes nothing. The state count strictly
// decreases between passes, so this terminates. The result may be empty.
func PruneInPlace(sys *ts.System) PruneReport {
	var report PruneReport
	for {
		components := StronglyConnectedComponents(sys)
		report.Passes++

		var trivial []ts.State
		for _, c := range components {
			if c.Trivial {
				trivial = append(trivial, c.States[0])
			}
		}
		if len(trivial) == 0 {
			report.Components = components
			return report
		}

		// Every state in trivial came from sys in this pass.
		_ = sys.RemoveStates(trivial...)
		report.Removed = append(report.Removed, trivial...)
	}
}
