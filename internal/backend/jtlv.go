package backend

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/synthkit/internal/ltl"
	"github.com/roach88/synthkit/internal/spec"
	"github.com/roach88/synthkit/internal/synth"
)

// JTLV runs the JTLV GR(1) game solver (GROneMain) on the JVM.
type JTLV struct {
	Config Config
	Runner Runner
	Logger *slog.Logger
}

var jtlvUnrealizable = regexp.MustCompile(`(?i)(specification is unrealizable|not realizable)`)

// Synthesize renders f as an SMV module pair and an LTLSPEC file, runs
// GROneMain, and reads the .aut file it leaves next to the inputs.
func (j *JTLV) Synthesize(ctx context.Context, f *spec.Fragment) (*synth.Result, error) {
	if j.Config.JTLVClasspath == "" {
		return nil, &synth.BackendError{Backend: synth.JTLV, Message: "jtlv classpath not configured"}
	}
	smv, ltlSpec, err := RenderJTLV(f)
	if err != nil {
		return nil, &synth.BackendError{Backend: synth.JTLV, Message: "render spec", Err: err}
	}

	ws, err := newWorkspace(j.Config, "jtlv")
	if err != nil {
		return nil, &synth.BackendError{Backend: synth.JTLV, Err: err}
	}
	defer ws.close()
	smvPath, err := ws.write("spec.smv", smv)
	if err != nil {
		return nil, &synth.BackendError{Backend: synth.JTLV, Err: err}
	}
	ltlPath, err := ws.write("spec.ltl", ltlSpec)
	if err != nil {
		return nil, &synth.BackendError{Backend: synth.JTLV, Err: err}
	}

	ctx, cancel := withTimeout(ctx, j.Config)
	defer cancel()
	out, err := j.Runner.Run(ctx, ws.dir, j.Config.JavaPath,
		"-ea", "-Xmx512m", "-cp", j.Config.JTLVClasspath, "GROneMain", smvPath, ltlPath)
	if err != nil {
		diag := ""
		if out != nil {
			diag = out.Diagnostic()
		}
		return nil, &synth.BackendError{Backend: synth.JTLV, Message: "run jtlv", Diagnostic: diag, Err: err}
	}
	if out.ExitCode != 0 {
		return nil, synth.NewBackendError(synth.JTLV, out.Diagnostic(), "jtlv exited with status %d", out.ExitCode)
	}

	aut, err := ws.read("spec.aut")
	if err != nil {
		return nil, &synth.BackendError{Backend: synth.JTLV, Message: "read automaton", Diagnostic: out.Diagnostic(), Err: err}
	}
	res, err := ParseJTLVOutput(out, aut, f)
	if err != nil {
		return nil, err
	}
	j.logger().Debug("jtlv finished", "realizable", res.Realizable, "dir", ws.dir)
	return res, nil
}

func (j *JTLV) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

// RenderJTLV returns the SMV module file and the LTLSPEC file for f.
// Environment variables live in module env (prefix e.), system variables
// in module sys (prefix s.).
func RenderJTLV(f *spec.Fragment) (smv, ltlSpec string, err error) {
	var m strings.Builder
	m.WriteString("MODULE main\n\tVAR\n\t\te : env();\n\t\ts : sys();\n")
	writeModule(&m, "env", f.EnvVars)
	writeModule(&m, "sys", f.SysVars)

	owner := make(map[string]string, len(f.EnvVars)+len(f.SysVars))
	for _, v := range f.EnvVars {
		owner[v] = "e."
	}
	for _, v := range f.SysVars {
		owner[v] = "s."
	}
	p := ltl.Printer{Syntax: ltl.JTLV, Rename: func(n string) string { return owner[n] + n }}

	var l strings.Builder
	env, err := jtlvBlock(p, f.EnvInit, f.EnvSafety, f.EnvProgress)
	if err != nil {
		return "", "", fmt.Errorf("env: %w", err)
	}
	sys, err := jtlvBlock(p, f.SysInit, f.SysSafety, f.SysProgress)
	if err != nil {
		return "", "", fmt.Errorf("sys: %w", err)
	}
	l.WriteString(env)
	l.WriteString("\n")
	l.WriteString(sys)
	return m.String(), l.String(), nil
}

func writeModule(b *strings.Builder, name string, vars []string) {
	fmt.Fprintf(b, "\nMODULE %s\n", name)
	if len(vars) == 0 {
		return
	}
	b.WriteString("\tVAR\n")
	for _, v := range vars {
		fmt.Fprintf(b, "\t\t%s : boolean;\n", v)
	}
}

// jtlvBlock renders one LTLSPEC: init, then [](safety), then []<>(progress).
func jtlvBlock(p ltl.Printer, init, safety, progress []ltl.Expr) (string, error) {
	var conjuncts []string
	add := func(wrap string, formulas []ltl.Expr) error {
		for _, e := range formulas {
			s, err := p.Format(e)
			if err != nil {
				return err
			}
			conjuncts = append(conjuncts, wrap+"("+s+")")
		}
		return nil
	}
	if err := add("", init); err != nil {
		return "", err
	}
	if err := add("[]", safety); err != nil {
		return "", err
	}
	if err := add("[]<>", progress); err != nil {
		return "", err
	}
	if len(conjuncts) == 0 {
		conjuncts = []string{"TRUE"}
	}
	return "LTLSPEC\n(\n\t" + strings.Join(conjuncts, "\n\t& ") + "\n)\n;\n", nil
}

var (
	autState      = regexp.MustCompile(`^State (\d+) with rank (\S+) -> <([^>]*)>\s*$`)
	autSuccessors = regexp.MustCompile(`^\s*With successors\s*:\s*(.*)$`)
	autValuation  = regexp.MustCompile(`<([^>]*)>`)
)

// ParseJTLVOutput interprets a finished GROneMain run and its .aut file.
// Initial nodes are those whose valuation satisfies env_init and sys_init.
func ParseJTLVOutput(out *Output, aut []byte, f *spec.Fragment) (*synth.Result, error) {
	if jtlvUnrealizable.Match(out.Stdout) || jtlvUnrealizable.Match(out.Stderr) {
		traces, err := ParseJTLVCounterexamples(aut)
		if err != nil {
			return nil, &synth.BackendError{Backend: synth.JTLV, Message: "parse counterexamples", Diagnostic: string(aut), Err: err}
		}
		return &synth.Result{Counterexamples: traces}, nil
	}

	st, err := ParseJTLVAutomaton(aut)
	if err != nil {
		return nil, &synth.BackendError{Backend: synth.JTLV, Message: "parse automaton", Diagnostic: string(aut), Err: err}
	}
	if len(st.Nodes) == 0 {
		return nil, synth.NewBackendError(synth.JTLV, out.Diagnostic(), "jtlv produced an empty automaton")
	}
	st.EnvVars = f.EnvVars
	st.SysVars = f.SysVars
	if err := markInitial(st, f); err != nil {
		return nil, &synth.BackendError{Backend: synth.JTLV, Message: "evaluate initial condition", Err: err}
	}
	return &synth.Result{Realizable: true, Strategy: st}, nil
}

// ParseJTLVAutomaton reads the .aut strategy format:
//
//	State 0 with rank 0 -> <req:1, grant:0>
//		With successors : 1, 2
func ParseJTLVAutomaton(data []byte) (*synth.Strategy, error) {
	st := &synth.Strategy{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		if m := autState.FindStringSubmatch(text); m != nil {
			id, _ := strconv.Atoi(m[1])
			rank, _ := strconv.Atoi(m[2])
			values, err := parseValuation(m[3])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			st.Nodes = append(st.Nodes, synth.Node{ID: id, Rank: rank, Values: values})
			continue
		}
		if m := autSuccessors.FindStringSubmatch(text); m != nil {
			if len(st.Nodes) == 0 {
				return nil, fmt.Errorf("line %d: successors before any state", line)
			}
			next, err := parseIDs(m[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			last := &st.Nodes[len(st.Nodes)-1]
			last.Next = append(last.Next, next...)
			continue
		}
		return nil, fmt.Errorf("line %d: unexpected %q", line, text)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return st, st.Validate()
}

// ParseJTLVCounterexamples reads counterexample traces: runs of lines that
// each hold a <var:val, ...> valuation, separated by blank lines.
func ParseJTLVCounterexamples(data []byte) ([]synth.Trace, error) {
	var traces []synth.Trace
	var cur synth.Trace
	flush := func() {
		if len(cur) > 0 {
			traces = append(traces, cur)
			cur = nil
		}
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		text := sc.Text()
		if strings.TrimSpace(text) == "" {
			flush()
			continue
		}
		m := autValuation.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := parseValuation(m[1])
		if err != nil {
			return nil, err
		}
		cur = append(cur, v)
	}
	flush()
	return traces, sc.Err()
}

// parseValuation reads "req:1, grant:0". Ownership prefixes are dropped.
func parseValuation(s string) (ltl.Valuation, error) {
	out := make(ltl.Valuation)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, val, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("malformed assignment %q", part)
		}
		name = strings.TrimSpace(name)
		name = strings.TrimPrefix(strings.TrimPrefix(name, "e."), "s.")
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "true":
			out[name] = true
		case "0", "false":
			out[name] = false
		default:
			return nil, fmt.Errorf("variable %s has non-boolean value %q", name, val)
		}
	}
	return out, nil
}

func parseIDs(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad successor %q", part)
		}
		out = append(out, id)
	}
	return out, nil
}

func markInitial(st *synth.Strategy, f *spec.Fragment) error {
	init := append(append([]ltl.Expr(nil), f.EnvInit...), f.SysInit...)
	for i := range st.Nodes {
		ok := true
		for _, e := range init {
			v, err := ltl.Eval(e, st.Nodes[i].Values, nil)
			if err != nil {
				return err
			}
			if !v {
				ok = false
				break
			}
		}
		st.Nodes[i].Initial = ok
	}
	return nil
}
