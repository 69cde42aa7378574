package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/synthkit/internal/ltl"
	"github.com/roach88/synthkit/internal/satcheck"
	"github.com/roach88/synthkit/internal/spec"
	"github.com/roach88/synthkit/internal/synth"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Outcome  string // Dispatch outcome for context
	Dispatch string // Dispatch error, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "  Outcome: %s\n", e.Outcome)
	if e.Dispatch != "" {
		fmt.Fprintf(&buf, "  Error: %s\n", e.Dispatch)
	}
	return buf.String()
}

func failure(result *Result, typ, expected, actual string) *AssertionError {
	return &AssertionError{
		Type:     typ,
		Expected: expected,
		Actual:   actual,
		Outcome:  string(result.Outcome),
		Dispatch: result.ErrorMessage(),
	}
}

// requireRun fails assertions that need a completed dispatch.
func requireRun(result *Result, typ string) error {
	if result.Run == nil {
		return failure(result, typ, "a completed dispatch", "dispatch failed")
	}
	return nil
}

func assertOutcome(result *Result, a Assertion) error {
	if string(result.Outcome) != a.Outcome {
		return failure(result, AssertOutcome, a.Outcome, string(result.Outcome))
	}
	return nil
}

func assertRemoved(result *Result, a Assertion) error {
	var removed []string
	if result.Run != nil {
		for _, s := range result.Run.Removed() {
			removed = append(removed, string(s))
		}
	}
	if !slices.Equal(removed, a.States) {
		return failure(result, AssertRemoved, fmt.Sprintf("%v", a.States), fmt.Sprintf("%v", removed))
	}
	return nil
}

// assertFragmentContains compares formulas in printed Plain form, so
// spacing, redundant parentheses and operator spelling in the assertion do
// not matter, and a single-operand junction matches its operand.
func assertFragmentContains(result *Result, a Assertion) error {
	if err := requireRun(result, AssertFragmentContains); err != nil {
		return err
	}
	want, err := ltl.Parse(a.Formula)
	if err != nil {
		return fmt.Errorf("fragment_contains: %w", err)
	}
	got := spec.Strings(result.Run.Fragment.Formulas(spec.Section(a.Section)))
	if slices.Contains(got, ltl.String(want)) {
		return nil
	}
	return failure(result, AssertFragmentContains,
		fmt.Sprintf("%s in %s", ltl.String(want), a.Section),
		fmt.Sprintf("%s = %v", a.Section, got))
}

func assertStrategyValid(result *Result, _ Assertion) error {
	if err := requireRun(result, AssertStrategyValid); err != nil {
		return err
	}
	if result.Run.Result.Strategy == nil {
		return failure(result, AssertStrategyValid, "a strategy", "no strategy")
	}
	violations, err := synth.VerifyStrategy(result.Run.Result.Strategy, result.Run.Fragment)
	if err != nil {
		return fmt.Errorf("strategy_valid: %w", err)
	}
	if len(violations) > 0 {
		msgs := make([]string, len(violations))
		for i, v := range violations {
			msgs[i] = v.String()
		}
		return failure(result, AssertStrategyValid, "no violations", strings.Join(msgs, "; "))
	}
	return nil
}

func assertErrorContains(result *Result, a Assertion) error {
	msg := result.ErrorMessage()
	if !strings.Contains(msg, a.Text) {
		return failure(result, AssertErrorContains, fmt.Sprintf("error containing %q", a.Text), fmt.Sprintf("%q", msg))
	}
	return nil
}

// assertInitialStates compares the surviving states admitted by sys_init.
func assertInitialStates(result *Result, a Assertion) error {
	if err := requireRun(result, AssertInitialStates); err != nil {
		return err
	}
	if result.System == nil {
		return failure(result, AssertInitialStates, "a system", "spec-only problem")
	}
	removed := result.Run.Removed()
	var states []string
	for _, s := range result.System.States() {
		if !slices.Contains(removed, s) {
			states = append(states, string(s))
		}
	}
	got, err := satcheck.InitialStates(result.Run.Fragment, states)
	if err != nil {
		return fmt.Errorf("initial_states: %w", err)
	}
	if !slices.Equal(got, a.States) {
		return failure(result, AssertInitialStates, fmt.Sprintf("%v", a.States), fmt.Sprintf("%v", got))
	}
	return nil
}

func assertConsistent(result *Result, a Assertion) error {
	if err := requireRun(result, AssertConsistent); err != nil {
		return err
	}
	want := a.Want == nil || *a.Want
	report, err := satcheck.Check(result.Run.Fragment)
	if err != nil {
		return fmt.Errorf("consistent: %w", err)
	}
	if report.Consistent() != want {
		return failure(result, AssertConsistent,
			fmt.Sprintf("consistent=%t", want),
			fmt.Sprintf("init=%t assumptions=%t step=%t",
				report.InitSatisfiable, report.AssumptionsSatisfiable, report.StepSatisfiable))
	}
	return nil
}

// EvaluateAssertions runs every assertion and returns the failure messages.
// All assertions run; evaluation does not stop at the first failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertOutcome:
			err = assertOutcome(result, assertion)
		case AssertRemoved:
			err = assertRemoved(result, assertion)
		case AssertFragmentContains:
			err = assertFragmentContains(result, assertion)
		case AssertStrategyValid:
			err = assertStrategyValid(result, assertion)
		case AssertErrorContains:
			err = assertErrorContains(result, assertion)
		case AssertInitialStates:
			err = assertInitialStates(result, assertion)
		case AssertConsistent:
			err = assertConsistent(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
