package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/synthkit/internal/satcheck"
)

// CheckResult is the check command's result for one problem.
type CheckResult struct {
	Name       string           `json:"name"`
	Path       string           `json:"path"`
	Consistent bool             `json:"consistent"`
	Report     *satcheck.Report `json:"report"`
	// InitialStates lists the surviving states sys_init admits. Omitted
	// for problems without a system.
	InitialStates []string `json:"initial_states,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <problem>...",
		Short: "Run propositional sanity checks on compiled problems",
		Long: `Compile each problem and run SAT-based checks on the result.

The checks catch contradictory initial conditions, assumptions the
environment cannot satisfy for a single step, and safety sections with no
common first step. For problems with a system, the states the compiled
initial condition admits are listed.

Exit codes:
  0 - All problems consistent
  1 - A check failed or a problem does not compile
  2 - Command error`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	problems, err := loadValid(paths, formatter)
	if err != nil {
		return err
	}

	results := make([]CheckResult, 0, len(problems))
	failed := 0
	for _, lp := range problems {
		a, err := assemble(lp)
		if err != nil {
			_ = formatter.Error(errorCode(err), fmt.Sprintf("%s: %v", lp.Name, err), nil)
			return WrapExitError(ExitFailure, "problem does not compile", err)
		}
		report, err := satcheck.Check(a.merged)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("%s: %v", lp.Name, err), nil)
			return WrapExitError(ExitCommandError, "check failed", err)
		}
		r := CheckResult{
			Name:       lp.Name,
			Path:       lp.Path,
			Consistent: report.Consistent(),
			Report:     report,
		}
		if a.sys != nil {
			removed := make(map[string]bool)
			for _, s := range a.removed() {
				removed[s] = true
			}
			var surviving []string
			for _, s := range a.sys.States() {
				if !removed[string(s)] {
					surviving = append(surviving, string(s))
				}
			}
			r.InitialStates, err = satcheck.InitialStates(a.merged, surviving)
			if err != nil {
				return WrapExitError(ExitCommandError, "initial state check failed", err)
			}
			if r.InitialStates == nil {
				r.InitialStates = []string{}
			}
		}
		if !r.Consistent {
			failed++
		}
		results = append(results, r)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		outputCheckText(formatter, results)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d problem(s) failed the consistency checks", failed))
	}
	return nil
}

func outputCheckText(formatter *OutputFormatter, results []CheckResult) {
	w := formatter.Writer
	mark := func(ok bool) string {
		if ok {
			return "✓"
		}
		return "✗"
	}
	for _, r := range results {
		fmt.Fprintf(w, "%s %s\n", mark(r.Consistent), r.Name)
		fmt.Fprintf(w, "  %s initial condition satisfiable\n", mark(r.Report.InitSatisfiable))
		fmt.Fprintf(w, "  %s environment can take a step\n", mark(r.Report.AssumptionsSatisfiable))
		fmt.Fprintf(w, "  %s safety sections admit a first step\n", mark(r.Report.StepSatisfiable))
		if r.InitialStates != nil {
			fmt.Fprintf(w, "  initial states: %s\n", strings.Join(r.InitialStates, ", "))
		}
		if formatter.Verbose && len(r.Report.Witness) > 0 {
			var holds []string
			for name, v := range r.Report.Witness {
				if v {
					holds = append(holds, name)
				}
			}
			sort.Strings(holds)
			fmt.Fprintf(w, "  witness: {%s}\n", strings.Join(holds, ", "))
		}
	}
}
