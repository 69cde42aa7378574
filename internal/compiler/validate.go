package compiler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/synthkit/internal/ltl"
	"github.com/roach88/synthkit/internal/spec"
)

// Validation error codes (E200-E299)
const (
	ErrProblemSchema      = "E200" // struct-level schema violation
	ErrDuplicateName      = "E201" // duplicate state or variable name
	ErrUnknownState       = "E202" // initial/transition references an undeclared state
	ErrUnknownProposition = "E203" // label uses a proposition outside the vocabulary
	ErrFormulaSyntax      = "E204" // formula text does not parse
	ErrNameCollision      = "E205" // state named like a proposition or spec variable
	ErrUndeclaredVariable = "E206" // formula references an undeclared variable
	ErrTemporalPlacement  = "E207" // next operator outside a safety formula
	ErrEmptyProblem       = "E208" // no system and no formulas
	ErrOwnershipConflict  = "E209" // variable declared as both env and sys
)

// ValidationError represents a problem-file validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// problemValidate checks struct tags on problem documents.
var problemValidate *validator.Validate

func init() {
	problemValidate = validator.New()
	_ = problemValidate.RegisterValidation("ident", validateIdent)

	// Report fields by their file names, not their Go names
	problemValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// identPattern matches names every backend accepts as a variable.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateIdent(fl validator.FieldLevel) bool {
	return identPattern.MatchString(fl.Field().String())
}

// ValidateProblem validates a problem document.
// Returns all errors found (does not fail-fast).
func ValidateProblem(p *Problem) []ValidationError {
	var errs []ValidationError

	if err := problemValidate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return []ValidationError{{Field: "problem", Message: err.Error(), Code: ErrProblemSchema}}
		}
		for _, fe := range fieldErrs {
			errs = append(errs, ValidationError{
				Field:   schemaField(fe.Namespace()),
				Message: fmt.Sprintf("failed %q constraint (value %v)", fe.Tag(), fe.Value()),
				Code:    ErrProblemSchema,
			})
		}
	}

	systemVars := make(map[string]bool)
	if p.System != nil {
		errs = append(errs, validateSystemDoc(p.System, systemVars)...)
	}
	errs = append(errs, validateSpecDoc(&p.Spec, systemVars)...)

	if p.System == nil && specFormulaCount(&p.Spec) == 0 {
		errs = append(errs, ValidationError{
			Field:   "problem",
			Message: "problem has neither a system nor any formula",
			Code:    ErrEmptyProblem,
		})
	}

	return errs
}

// schemaField drops the root type name: "Problem.system.states[0].name"
// becomes "system.states[0].name".
func schemaField(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return rest
}

// validateSystemDoc checks names and references, recording every system
// variable (propositions and states) into vars.
func validateSystemDoc(doc *SystemDoc, vars map[string]bool) []ValidationError {
	var errs []ValidationError

	props := make(map[string]bool)
	for i, p := range doc.Propositions {
		if props[p] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("system.propositions[%d]", i),
				Message: fmt.Sprintf("duplicate proposition %q", p),
				Code:    ErrDuplicateName,
			})
		}
		props[p] = true
		vars[p] = true
	}

	states := make(map[string]bool)
	for i, st := range doc.States {
		field := fmt.Sprintf("system.states[%d]", i)
		if states[st.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate state %q", st.Name),
				Code:    ErrDuplicateName,
			})
		}
		if props[st.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("state %q has the same name as a proposition", st.Name),
				Code:    ErrNameCollision,
			})
		}
		states[st.Name] = true
		vars[st.Name] = true

		for j, l := range st.Label {
			if !props[l] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.label[%d]", field, j),
					Message: fmt.Sprintf("label %q is not a declared proposition", l),
					Code:    ErrUnknownProposition,
				})
			}
		}
	}

	for i, name := range doc.Initial {
		if !states[name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("system.initial[%d]", i),
				Message: fmt.Sprintf("initial state %q is not declared", name),
				Code:    ErrUnknownState,
			})
		}
	}

	for i, t := range doc.Transitions {
		for _, end := range []struct{ side, name string }{{"from", t.From}, {"to", t.To}} {
			if end.name != "" && !states[end.name] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("system.transitions[%d].%s", i, end.side),
					Message: fmt.Sprintf("state %q is not declared", end.name),
					Code:    ErrUnknownState,
				})
			}
		}
	}

	return errs
}

// validateSpecDoc checks declarations and parses every formula.
// Formulas may reference declared spec variables and system variables.
func validateSpecDoc(doc *SpecDoc, systemVars map[string]bool) []ValidationError {
	var errs []ValidationError

	owner := make(map[string]string)
	for _, group := range []struct {
		name string
		vars []string
	}{{"env_vars", doc.EnvVars}, {"sys_vars", doc.SysVars}} {
		for i, v := range group.vars {
			field := fmt.Sprintf("spec.%s[%d]", group.name, i)
			if prev, ok := owner[v]; ok {
				code := ErrDuplicateName
				if prev != group.name {
					code = ErrOwnershipConflict
				}
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("variable %q already declared in %s", v, prev),
					Code:    code,
				})
				continue
			}
			owner[v] = group.name
			if group.name == "env_vars" && systemVars[v] {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("environment variable %q is owned by the system", v),
					Code:    ErrNameCollision,
				})
			}
		}
	}

	for _, s := range spec.Sections {
		for i, text := range doc.formulas(s) {
			field := fmt.Sprintf("spec.%s[%d]", s, i)
			e, err := ltl.Parse(text)
			if err != nil {
				errs = append(errs, ValidationError{Field: field, Message: err.Error(), Code: ErrFormulaSyntax})
				continue
			}
			for _, v := range ltl.Vars(e) {
				if _, ok := owner[v]; !ok && !systemVars[v] {
					errs = append(errs, ValidationError{
						Field:   field,
						Message: fmt.Sprintf("variable %q is not declared", v),
						Code:    ErrUndeclaredVariable,
					})
				}
			}
			if s != spec.EnvSafety && s != spec.SysSafety && ltl.HasNext(e) {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: "next operator is only allowed in safety formulas",
					Code:    ErrTemporalPlacement,
				})
			}
		}
	}

	return errs
}

func specFormulaCount(doc *SpecDoc) int {
	n := 0
	for _, s := range spec.Sections {
		n += len(doc.formulas(s))
	}
	return n
}
