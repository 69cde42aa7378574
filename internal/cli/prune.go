package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/synthkit/internal/compiler"
)

// ComponentView is one strongly connected component in command output.
type ComponentView struct {
	States  []string `json:"states"`
	Trivial bool     `json:"trivial"`
}

// PruneResult is the prune command's result for one problem.
type PruneResult struct {
	Name       string          `json:"name"`
	Path       string          `json:"path"`
	States     int             `json:"states"`
	Kept       []string        `json:"kept"`
	Removed    []string        `json:"removed"`
	Passes     int             `json:"passes"`
	Components []ComponentView `json:"components"`
}

// NewPruneCommand creates the prune command.
func NewPruneCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune <problem>...",
		Short: "Show the recurrent core of each problem's system",
		Long: `Compute the strongly connected components of each problem's system and
remove the states no infinite run can revisit.

Reports the removed states in removal order, the number of passes until
the fixed point and the components of what remains.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runPrune(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	problems, err := loadValid(paths, formatter)
	if err != nil {
		return err
	}

	results := make([]PruneResult, 0, len(problems))
	for _, lp := range problems {
		if lp.Problem.System == nil {
			msg := fmt.Sprintf("%s: problem has no system to prune", lp.Name)
			_ = formatter.Error(ErrCodeNoSystem, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
		sys, err := compiler.BuildSystem(lp.Problem.System)
		if err != nil {
			_ = formatter.Error(ErrCodeInvalidSystem, fmt.Sprintf("%s: %v", lp.Name, err), nil)
			return WrapExitError(ExitFailure, "system does not build", err)
		}

		pruned, report := compiler.Prune(sys)
		formatter.VerboseLog("%s: %d pass(es), %d state(s) removed", lp.Name, report.Passes, len(report.Removed))

		r := PruneResult{
			Name:       lp.Name,
			Path:       lp.Path,
			States:     sys.Len(),
			Kept:       []string{},
			Removed:    []string{},
			Passes:     report.Passes,
			Components: make([]ComponentView, 0, len(report.Components)),
		}
		for _, s := range pruned.States() {
			r.Kept = append(r.Kept, string(s))
		}
		for _, s := range report.Removed {
			r.Removed = append(r.Removed, string(s))
		}
		for _, c := range report.Components {
			view := ComponentView{States: make([]string, len(c.States)), Trivial: c.Trivial}
			for i, s := range c.States {
				view.States[i] = string(s)
			}
			r.Components = append(r.Components, view)
		}
		results = append(results, r)
	}

	if formatter.Format == "json" {
		return formatter.Success(results)
	}

	w := formatter.Writer
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s: kept %d of %d state(s) after %d pass(es)\n", r.Name, len(r.Kept), r.States, r.Passes)
		if len(r.Removed) > 0 {
			fmt.Fprintf(w, "  removed: %s\n", strings.Join(r.Removed, ", "))
		}
		for _, c := range r.Components {
			fmt.Fprintf(w, "  component {%s}\n", strings.Join(c.States, ", "))
		}
	}
	return nil
}
