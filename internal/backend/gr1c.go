package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/synthkit/internal/ltl"
	"github.com/roach88/synthkit/internal/spec"
	"github.com/roach88/synthkit/internal/synth"
)

// GR1C runs the gr1c synthesis tool.
type GR1C struct {
	Config Config
	Runner Runner
	Logger *slog.Logger
}

// notRealizable matches gr1c's verdict line for a spec without a winning
// strategy. Only whole stdout lines count.
var notRealizable = regexp.MustCompile(`(?im)^[ \t]*(?:specification is[ \t]+)?(?:not realizable|unrealizable)\.*[ \t]*$`)

// Synthesize renders f, runs "gr1c -t json" and reads the automaton.
func (g *GR1C) Synthesize(ctx context.Context, f *spec.Fragment) (*synth.Result, error) {
	input, err := RenderGR1C(f)
	if err != nil {
		return nil, &synth.BackendError{Backend: synth.GR1C, Message: "render spec", Err: err}
	}

	ws, err := newWorkspace(g.Config, "gr1c")
	if err != nil {
		return nil, &synth.BackendError{Backend: synth.GR1C, Err: err}
	}
	defer ws.close()
	specPath, err := ws.write("spec.spc", input)
	if err != nil {
		return nil, &synth.BackendError{Backend: synth.GR1C, Err: err}
	}

	ctx, cancel := withTimeout(ctx, g.Config)
	defer cancel()
	out, err := g.Runner.Run(ctx, ws.dir, g.Config.GR1CPath, "-t", "json", specPath)
	if err != nil {
		diag := ""
		if out != nil {
			diag = out.Diagnostic()
		}
		return nil, &synth.BackendError{Backend: synth.GR1C, Message: "run gr1c", Diagnostic: diag, Err: err}
	}

	res, err := ParseGR1COutput(out)
	if err != nil {
		return nil, err
	}
	g.logger().Debug("gr1c finished", "realizable", res.Realizable, "exit_code", out.ExitCode, "dir", ws.dir)
	return res, nil
}

func (g *GR1C) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// RenderGR1C writes f in the gr1c spec language.
func RenderGR1C(f *spec.Fragment) (string, error) {
	p := ltl.Printer{Syntax: ltl.GR1C}
	var b strings.Builder

	fmt.Fprintf(&b, "ENV:%s;\n", spaced(f.EnvVars))
	fmt.Fprintf(&b, "SYS:%s;\n", spaced(f.SysVars))

	sections := []struct {
		head     string
		formulas []ltl.Expr
		wrap     string
	}{
		{"ENVINIT", f.EnvInit, ""},
		{"ENVTRANS", f.EnvSafety, "[]"},
		{"ENVGOAL", f.EnvProgress, "[]<>"},
		{"SYSINIT", f.SysInit, ""},
		{"SYSTRANS", f.SysSafety, "[]"},
		{"SYSGOAL", f.SysProgress, "[]<>"},
	}
	for i, sec := range sections {
		if i%3 == 0 {
			b.WriteString("\n")
		}
		b.WriteString(sec.head + ":")
		for j, e := range sec.formulas {
			s, err := p.Format(e)
			if err != nil {
				return "", fmt.Errorf("%s[%d]: %w", sec.head, j, err)
			}
			if sec.wrap != "" || len(sec.formulas) > 1 {
				s = sec.wrap + "(" + s + ")"
			}
			if j == 0 {
				b.WriteString(" " + s)
			} else {
				b.WriteString("\n  & " + s)
			}
		}
		b.WriteString(";\n")
	}
	return b.String(), nil
}

func spaced(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return " " + strings.Join(names, " ")
}

// gr1cAutomaton is the document printed by "gr1c -t json".
type gr1cAutomaton struct {
	Version int                 `json:"version"`
	ENV     []map[string]string `json:"ENV"`
	SYS     []map[string]string `json:"SYS"`
	Nodes   map[string]gr1cNode `json:"nodes"`
}

type gr1cNode struct {
	State   []int    `json:"state"`
	Mode    int      `json:"mode"`
	RGrad   int      `json:"rgrad"`
	Initial bool     `json:"initial"`
	Child   []string `json:"child"`
}

// ParseGR1COutput interprets a finished gr1c process. A non-zero exit is a
// failure whatever the output says. An automaton on stdout is a realizable
// answer; otherwise stdout must carry the verdict line.
func ParseGR1COutput(out *Output) (*synth.Result, error) {
	if out.ExitCode != 0 {
		return nil, synth.NewBackendError(synth.GR1C, out.Diagnostic(), "gr1c exited with status %d", out.ExitCode)
	}
	body := bytes.TrimSpace(out.Stdout)
	if len(body) > 0 && body[0] == '{' {
		strategy, err := ParseGR1CAutomaton(body)
		if err != nil {
			return nil, &synth.BackendError{Backend: synth.GR1C, Message: "parse automaton", Diagnostic: string(out.Stdout), Err: err}
		}
		return &synth.Result{Realizable: true, Strategy: strategy}, nil
	}
	if notRealizable.Match(out.Stdout) {
		return &synth.Result{Realizable: false}, nil
	}
	return nil, synth.NewBackendError(synth.GR1C, out.Diagnostic(), "gr1c printed no automaton")
}

// ParseGR1CAutomaton reads gr1c's JSON automaton. State vectors list the
// ENV variables and then the SYS variables in declaration order.
func ParseGR1CAutomaton(data []byte) (*synth.Strategy, error) {
	var doc gr1cAutomaton
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	envVars, err := declared(doc.ENV)
	if err != nil {
		return nil, fmt.Errorf("ENV: %w", err)
	}
	sysVars, err := declared(doc.SYS)
	if err != nil {
		return nil, fmt.Errorf("SYS: %w", err)
	}
	vars := append(append([]string(nil), envVars...), sysVars...)

	keys := make([]string, 0, len(doc.Nodes))
	for k := range doc.Nodes {
		keys = append(keys, k)
	}
	ids := nodeIDs(keys)
	slices.SortFunc(keys, func(a, b string) int { return ids[a] - ids[b] })

	st := &synth.Strategy{EnvVars: envVars, SysVars: sysVars}
	for _, k := range keys {
		n := doc.Nodes[k]
		if len(n.State) != len(vars) {
			return nil, fmt.Errorf("node %s: state has %d values, want %d", k, len(n.State), len(vars))
		}
		values := make(ltl.Valuation, len(vars))
		for i, v := range vars {
			values[v] = n.State[i] != 0
		}
		var next []int
		for _, c := range n.Child {
			id, ok := ids[c]
			if !ok {
				return nil, fmt.Errorf("node %s: unknown child %s", k, c)
			}
			next = append(next, id)
		}
		st.Nodes = append(st.Nodes, synth.Node{
			ID:      ids[k],
			Initial: n.Initial,
			Rank:    n.RGrad,
			Values:  values,
			Next:    next,
		})
	}
	return st, nil
}

// declared flattens gr1c's [{"name": "boolean"}, ...] declarations.
func declared(decls []map[string]string) ([]string, error) {
	var out []string
	for _, d := range decls {
		if len(d) != 1 {
			return nil, fmt.Errorf("declaration with %d entries", len(d))
		}
		for name, typ := range d {
			if typ != "boolean" {
				return nil, fmt.Errorf("variable %s has unsupported type %s", name, typ)
			}
			out = append(out, name)
		}
	}
	return out, nil
}

// nodeIDs numbers node keys. Integer keys keep their value; otherwise keys
// are numbered in sorted order.
func nodeIDs(keys []string) map[string]int {
	ids := make(map[string]int, len(keys))
	numeric := true
	for _, k := range keys {
		n, err := strconv.Atoi(k)
		if err != nil {
			numeric = false
			break
		}
		ids[k] = n
	}
	if numeric {
		return ids
	}
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	for i, k := range sorted {
		ids[k] = i
	}
	return ids
}
