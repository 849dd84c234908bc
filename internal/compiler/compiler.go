// Package compiler drives source text through the front end, the code
// generator and the validator, and runs or writes the result.
package compiler

import (
	"fmt"
	"strings"

	"github.com/lhaig/clarwasm/internal/ast"
	"github.com/lhaig/clarwasm/internal/checker"
	"github.com/lhaig/clarwasm/internal/codegen"
	"github.com/lhaig/clarwasm/internal/diagnostic"
	"github.com/lhaig/clarwasm/internal/interp"
	"github.com/lhaig/clarwasm/internal/logging"
	"github.com/lhaig/clarwasm/internal/parser"
	"github.com/lhaig/clarwasm/internal/values"
	"github.com/lhaig/clarwasm/internal/wasm"
)

// Result holds the output of a compilation
type Result struct {
	Diagnostics *diagnostic.Diagnostics
	Module      *wasm.Module
	// ResultType is the type of the last top-level expression, nil when
	// there is none.
	ResultType *checker.Type
}

// ValidationError reports a generated module that breaks stack discipline
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "generated module is invalid:\n" + strings.Join(e.Problems, "\n")
}

// frontEnd parses and type checks source. On failure the returned error
// carries every diagnostic of the failing stage.
func frontEnd(filename, source string) (*ast.Program, *checker.CheckResult, error) {
	logging.BeginPhase("Parsing")
	p := parser.New(source)
	prog := p.Parse()
	if err := p.Diagnostics().Err(filename); err != nil {
		logging.LogError("Syntax", err)
		return nil, nil, err
	}

	logging.BeginPhase("Checking")
	res := checker.CheckWithResult(prog)
	if err := res.Diagnostics.Err(filename); err != nil {
		logging.LogError("Type", err)
		return nil, nil, err
	}
	for _, d := range res.Diagnostics.All() {
		if d.Severity == diagnostic.Warning {
			logging.LogWarning("Type", fmt.Sprintf("%s:%d:%d: %s", filename, d.Line, d.Column, d.Message))
		}
	}
	return prog, res, nil
}

// Check runs parse + check only (no codegen).
func Check(filename, source string) *diagnostic.Diagnostics {
	p := parser.New(source)
	prog := p.Parse()
	if p.Diagnostics().HasErrors() {
		return p.Diagnostics()
	}
	return checker.Check(prog)
}

// Compile runs the full pipeline: parse -> check -> generate -> validate.
func Compile(filename, source string, cfg *Config) (*Result, error) {
	prog, checked, err := frontEnd(filename, source)
	if err != nil {
		return nil, err
	}

	logging.BeginPhase("Generating")
	out, err := codegen.Generate(prog, checked, cfg.CodegenOptions())
	if err != nil {
		err = fmt.Errorf("%s: %w", filename, err)
		logging.LogError("Generate", err)
		return nil, err
	}

	logging.BeginPhase("Validating")
	if problems := wasm.Validate(out.Module); len(problems) > 0 {
		err := &ValidationError{Problems: problems}
		logging.LogError("Internal", err)
		return nil, err
	}
	logging.EndPhase(true)

	return &Result{
		Diagnostics: checked.Diagnostics,
		Module:      out.Module,
		ResultType:  out.ResultType,
	}, nil
}

// Run executes the top level of a compiled module and renders its value.
// The value is empty when the program has no top-level expression.
func Run(res *Result, cfg *Config) (string, error) {
	logging.BeginPhase("Running")
	vm, err := interp.New(res.Module, interp.WithMaxSteps(cfg.MaxSteps))
	if err != nil {
		logging.LogError("Runtime", err)
		return "", err
	}

	slots, err := vm.Invoke(codegen.TopLevel)
	if err != nil {
		logging.EndPhase(false)
		return "", err
	}
	logging.EndPhase(true)

	if res.ResultType == nil {
		return "", nil
	}
	return values.Format(res.ResultType, slots, vm.Memory())
}

// Eval compiles source and runs its top level
func Eval(filename, source string, cfg *Config) (string, error) {
	res, err := Compile(filename, source, cfg)
	if err != nil {
		return "", err
	}
	return Run(res, cfg)
}
