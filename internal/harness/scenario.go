package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/synthkit/internal/compiler"
	"github.com/roach88/synthkit/internal/spec"
)

// Scenario is one conformance case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Backend is the id dispatched to. Defaults to gr1c.
	Backend string `yaml:"backend,omitempty"`

	// Register lists the backend ids the stub registry knows.
	// Defaults to gr1c and jtlv.
	Register []string `yaml:"register,omitempty"`

	// Verdict selects the stub answer: realizable, unrealizable or failure.
	Verdict string `yaml:"verdict"`

	// FailureMessage is the backend error text for the failure verdict.
	FailureMessage string `yaml:"failure_message,omitempty"`

	// Problem is the system and requirement to dispatch.
	Problem compiler.Problem `yaml:"problem"`

	// Assertions validate the dispatch.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a dispatch.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Outcome is the expected outcome (outcome).
	Outcome string `yaml:"outcome,omitempty"`

	// States are the expected state names (removed, initial_states).
	States []string `yaml:"states,omitempty"`

	// Section and Formula locate a formula (fragment_contains).
	Section string `yaml:"section,omitempty"`
	Formula string `yaml:"formula,omitempty"`

	// Text is the expected error substring (error_contains).
	Text string `yaml:"text,omitempty"`

	// Want is the expected truth value (consistent). Defaults to true.
	Want *bool `yaml:"want,omitempty"`
}

// Assertion type constants.
const (
	AssertOutcome          = "outcome"
	AssertRemoved          = "removed"
	AssertFragmentContains = "fragment_contains"
	AssertStrategyValid    = "strategy_valid"
	AssertErrorContains    = "error_contains"
	AssertInitialStates    = "initial_states"
	AssertConsistent       = "consistent"
)

// Verdict constants.
const (
	VerdictRealizable   = "realizable"
	VerdictUnrealizable = "unrealizable"
	VerdictFailure      = "failure"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// backendID returns the dispatched id with its default.
func (s *Scenario) backendID() string {
	if s.Backend == "" {
		return "gr1c"
	}
	return s.Backend
}

// registered returns the stub registry ids with their default.
func (s *Scenario) registered() []string {
	if len(s.Register) == 0 {
		return []string{"gr1c", "jtlv"}
	}
	return s.Register
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Verdict {
	case VerdictRealizable, VerdictUnrealizable:
	case VerdictFailure:
		if s.FailureMessage == "" {
			return fmt.Errorf("failure_message is required for verdict failure")
		}
	case "":
		return fmt.Errorf("verdict is required")
	default:
		return fmt.Errorf("unknown verdict %q", s.Verdict)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertOutcome:
		if a.Outcome == "" {
			return fmt.Errorf("assertions[%d]: outcome is required for outcome", index)
		}
	case AssertRemoved, AssertInitialStates:
		if a.States == nil {
			return fmt.Errorf("assertions[%d]: states is required for %s (use [] for none)", index, a.Type)
		}
	case AssertFragmentContains:
		if !slices.Contains(spec.Sections, spec.Section(a.Section)) {
			return fmt.Errorf("assertions[%d]: unknown section %q", index, a.Section)
		}
		if a.Formula == "" {
			return fmt.Errorf("assertions[%d]: formula is required for fragment_contains", index)
		}
	case AssertErrorContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for error_contains", index)
		}
	case AssertStrategyValid, AssertConsistent:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
