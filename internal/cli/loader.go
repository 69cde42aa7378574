package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/roach88/synthkit/internal/compiler"
)

// LoadedProblem is one problem read from a problem file. A CUE file may
// hold several problems under a top-level "problem" struct.
type LoadedProblem struct {
	Name    string // Problem name, or the file name without extension
	Path    string
	Problem *compiler.Problem
}

// LoadError represents an error that occurred while loading a problem file.
type LoadError struct {
	Code    string
	Message string
	Path    string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Line returns the source line of the error, or 0 when unknown.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// problemExts lists the accepted problem file extensions.
var problemExts = []string{".cue", ".yaml", ".yml", ".json"}

// FindProblemFiles expands path into problem files. A file is returned as
// is; a directory is walked for files with a problem extension.
func FindProblemFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", path, err)}
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && slices.Contains(problemExts, strings.ToLower(filepath.Ext(p))) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no problem files found in %s", path)}
	}
	slices.Sort(files)
	return files, nil
}

// LoadProblems loads every problem under paths. Errors are collected per
// file; problems from files that loaded are returned alongside them.
func LoadProblems(paths []string) ([]LoadedProblem, []error) {
	var (
		out  []LoadedProblem
		errs []error
	)
	for _, path := range paths {
		files, err := FindProblemFiles(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, file := range files {
			problems, err := LoadProblemFile(file)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out = append(out, problems...)
		}
	}
	return out, errs
}

// LoadProblemFile reads one problem file. The format follows the extension:
// .cue through the CUE SDK, everything else as YAML (a superset of JSON).
// Problems without a name are listed under the file's base name.
func LoadProblemFile(path string) ([]LoadedProblem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "file not found"}
		}
		return nil, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: err.Error()}
	}

	var problems []*compiler.Problem
	if strings.ToLower(filepath.Ext(path)) == ".cue" {
		problems, err = compileCUE(path, data)
	} else {
		var p *compiler.Problem
		p, err = compiler.ParseProblemYAML(data)
		problems = []*compiler.Problem{p}
	}
	if err != nil {
		return nil, convertCompileError(err, path)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := make([]LoadedProblem, 0, len(problems))
	for _, p := range problems {
		name := p.Name
		if name == "" {
			name = base
		}
		out = append(out, LoadedProblem{Name: name, Path: path, Problem: p})
	}
	return out, nil
}

// compileCUE reads a CUE problem file. A top-level "problem" struct holds
// named problems; otherwise the whole file is one problem.
func compileCUE(path string, data []byte) ([]*compiler.Problem, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, compiler.FormatCUEError(err)
	}

	problemsVal := value.LookupPath(cue.ParsePath("problem"))
	if !problemsVal.Exists() {
		p, err := compiler.CompileProblem(value)
		if err != nil {
			return nil, err
		}
		return []*compiler.Problem{p}, nil
	}

	iter, err := problemsVal.Fields()
	if err != nil {
		return nil, compiler.FormatCUEError(err)
	}
	var out []*compiler.Problem
	for iter.Next() {
		p, err := compiler.CompileProblem(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, &compiler.CompileError{Field: "problem", Message: "no problems defined", Pos: problemsVal.Pos()}
	}
	return out, nil
}

// convertCompileError converts a loader error to a LoadError with position info.
func convertCompileError(err error, path string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Path:    path,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeBuildFailed,
		Message: err.Error(),
		Path:    path,
	}
}

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "cue":
		return ErrCodeBuildFailed
	case "":
		return ErrCodeGeneric
	default:
		return compiler.ErrProblemSchema
	}
}

// loadValid loads paths and validates every problem. It writes the first
// failure through formatter and returns the matching ExitError: load
// failures are command errors, invalid problems are failures.
func loadValid(paths []string, formatter *OutputFormatter) ([]LoadedProblem, error) {
	problems, errs := LoadProblems(paths)
	if len(errs) > 0 {
		return nil, formatter.Fail(ExitCommandError, "", "failed to load problems", errs[0])
	}
	for _, lp := range problems {
		formatter.VerboseLog("Validating problem %s (%s)", lp.Name, lp.Path)
		if verrs := compiler.ValidateProblem(lp.Problem); len(verrs) > 0 {
			_ = formatter.Error(verrs[0].Code, fmt.Sprintf("%s: %s", lp.Name, verrs[0].Error()), verrs)
			return nil, NewExitError(ExitFailure, fmt.Sprintf("problem %s is invalid", lp.Name))
		}
	}
	return problems, nil
}
