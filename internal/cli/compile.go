package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/synthkit/internal/backend"
	"github.com/roach88/synthkit/internal/compiler"
	"github.com/roach88/synthkit/internal/ltl"
	"github.com/roach88/synthkit/internal/spec"
	"github.com/roach88/synthkit/internal/ts"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Syntax string // plain | gr1c | jtlv
	Output string // output file path
}

// CompiledProblem is the compile command's result for one problem.
type CompiledProblem struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	SpecHash string   `json:"spec_hash"`
	Removed  []string `json:"removed"`
	EnvVars  int      `json:"env_vars"`
	SysVars  int      `json:"sys_vars"`
	Formulas int      `json:"formulas"`
	Syntax   string   `json:"syntax"`
	Text     string   `json:"text"`
}

// assembly is a loaded problem after pruning, compiling and merging.
type assembly struct {
	sys    *ts.System            // nil when the problem has none
	req    *spec.Fragment        // requirement as written
	merged *spec.Fragment        // what a backend would receive
	report *compiler.PruneReport // nil without a system
}

// assemble builds lp and folds its system into its requirement the way
// the dispatcher does before calling a backend.
func assemble(lp LoadedProblem) (*assembly, error) {
	sys, req, err := compiler.Build(lp.Problem)
	if err != nil {
		return nil, err
	}
	merged, report, err := compiler.Assemble(req, sys)
	if err != nil {
		return &assembly{sys: sys, req: req, report: report}, err
	}
	return &assembly{sys: sys, req: req, merged: merged, report: report}, nil
}

// removed returns the pruned state names, never nil.
func (a *assembly) removed() []string {
	out := []string{}
	if a.report == nil {
		return out
	}
	for _, s := range a.report.Removed {
		out = append(out, string(s))
	}
	return out
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <problem>...",
		Short: "Compile problems to a single GR(1) specification",
		Long: `Compile problem files to the specification a backend would receive.

The system is pruned to its recurrent core, encoded with one variable per
state and merged into the requirement. The result is printed in the plain
formula syntax or rendered as gr1c or JTLV input.

Examples:
  synthkit compile robot.yaml
  synthkit compile robot.cue --syntax gr1c -o robot.spc
  synthkit compile ./problems --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Syntax, "syntax", "plain", "formula syntax (plain|gr1c|jtlv)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	render, err := rendererFor(opts.Syntax)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "invalid flag", err)
	}

	problems, err := loadValid(paths, formatter)
	if err != nil {
		return err
	}

	results := make([]CompiledProblem, 0, len(problems))
	for _, lp := range problems {
		formatter.VerboseLog("Compiling %s (%s)", lp.Name, lp.Path)
		a, err := assemble(lp)
		if err != nil {
			_ = formatter.Error(errorCode(err), fmt.Sprintf("%s: %v", lp.Name, err), nil)
			return WrapExitError(ExitFailure, "problem does not compile", err)
		}
		text, err := render(a.merged)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("%s: %v", lp.Name, err), nil)
			return WrapExitError(ExitCommandError, "render failed", err)
		}
		hash, err := a.merged.Hash()
		if err != nil {
			return WrapExitError(ExitCommandError, "hash failed", err)
		}
		results = append(results, CompiledProblem{
			Name:     lp.Name,
			Path:     lp.Path,
			SpecHash: hash,
			Removed:  a.removed(),
			EnvVars:  len(a.merged.EnvVars),
			SysVars:  len(a.merged.SysVars),
			Formulas: a.merged.Len(),
			Syntax:   opts.Syntax,
			Text:     text,
		})
	}

	if opts.Output != "" {
		if err := writeCompiled(results, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "write failed", err)
		}
	}

	return outputCompileSuccess(formatter, results, opts.Output)
}

// rendererFor returns the renderer for a --syntax value. gr1c and jtlv
// produce the exact engine input files.
func rendererFor(syntax string) (func(*spec.Fragment) (string, error), error) {
	switch syntax {
	case "plain":
		return func(f *spec.Fragment) (string, error) {
			return spec.Render(f, ltl.Printer{Syntax: ltl.Plain})
		}, nil
	case "gr1c":
		return backend.RenderGR1C, nil
	case "jtlv":
		return func(f *spec.Fragment) (string, error) {
			smv, ltlSpec, err := backend.RenderJTLV(f)
			if err != nil {
				return "", err
			}
			return smv + "\n" + ltlSpec, nil
		}, nil
	}
	return nil, fmt.Errorf("invalid syntax %q: must be one of plain, gr1c, jtlv", syntax)
}

// writeCompiled writes the rendered problems to path, separated by blank
// lines when there is more than one.
func writeCompiled(results []CompiledProblem, path string) error {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return os.WriteFile(path, []byte(strings.Join(texts, "\n")), 0o644)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, results []CompiledProblem, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(results)
	}

	w := formatter.Writer
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "✓ %s: %d env var(s), %d sys var(s), %d formula(s)\n", r.Name, r.EnvVars, r.SysVars, r.Formulas)
		if len(r.Removed) > 0 {
			fmt.Fprintf(w, "  pruned: %s\n", strings.Join(r.Removed, ", "))
		}
		if outputFile == "" {
			fmt.Fprintln(w)
			fmt.Fprint(w, r.Text)
		}
	}
	if outputFile != "" {
		fmt.Fprintf(w, "Wrote %s specification to %s\n", results[0].Syntax, outputFile)
	}
	return nil
}
