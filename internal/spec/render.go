package spec

import (
	"fmt"
	"strings"

	"github.com/roach88/synthkit/internal/ltl"
)

// Render writes f as text: variable lists, then each non-empty section
// with one formula per line. Used for diagnostics and the compile command.
func Render(f *Fragment, p ltl.Printer) (string, error) {
	var b strings.Builder
	if len(f.EnvVars) > 0 {
		fmt.Fprintf(&b, "env_vars: %s\n", strings.Join(f.EnvVars, ", "))
	}
	if len(f.SysVars) > 0 {
		fmt.Fprintf(&b, "sys_vars: %s\n", strings.Join(f.SysVars, ", "))
	}
	for _, s := range Sections {
		formulas := f.Formulas(s)
		if len(formulas) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s:\n", s)
		for i, e := range formulas {
			text, err := p.Format(e)
			if err != nil {
				return "", fmt.Errorf("render %s[%d]: %w", s, i, err)
			}
			fmt.Fprintf(&b, "  %s\n", text)
		}
	}
	return b.String(), nil
}

// Strings renders one section in the Plain syntax.
func Strings(formulas []ltl.Expr) []string {
	out := make([]string, len(formulas))
	for i, e := range formulas {
		out[i] = ltl.String(e)
	}
	return out
}
