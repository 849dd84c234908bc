package codegen

import (
	"errors"
	"testing"

	"github.com/lhaig/clarwasm/internal/ast"
	"github.com/lhaig/clarwasm/internal/checker"
	"github.com/lhaig/clarwasm/internal/interp"
	"github.com/lhaig/clarwasm/internal/parser"
	"github.com/lhaig/clarwasm/internal/stdlib"
	"github.com/lhaig/clarwasm/internal/values"
	"github.com/lhaig/clarwasm/internal/wasm"
)

// frontEnd parses and checks src, failing the test on any diagnostic
func frontEnd(t *testing.T, src string) (*ast.Program, *checker.CheckResult) {
	t.Helper()
	p := parser.New(src)
	prog := p.Parse()
	if p.Diagnostics().HasErrors() {
		t.Fatalf("parse errors:\n%s", p.Diagnostics().Format("test.clar"))
	}
	res := checker.CheckWithResult(prog)
	if res.Diagnostics.HasErrors() {
		t.Fatalf("check errors:\n%s", res.Diagnostics.Format("test.clar"))
	}
	return prog, res
}

func compile(t *testing.T, src string) (*Output, error) {
	t.Helper()
	prog, res := frontEnd(t, src)
	return Generate(prog, res, DefaultOptions())
}

func mustCompile(t *testing.T, src string) *Output {
	t.Helper()
	out, err := compile(t, src)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if errs := wasm.Validate(out.Module); len(errs) > 0 {
		t.Fatalf("generated module is invalid:\n%v\n%s", errs, wasm.Text(out.Module))
	}
	return out
}

// execute compiles src, runs the top level and formats its result
func execute(t *testing.T, src string) (string, error) {
	t.Helper()
	out := mustCompile(t, src)
	vm, err := interp.New(out.Module, interp.WithMaxSteps(1000000))
	if err != nil {
		t.Fatalf("interp.New: %v", err)
	}
	slots, err := vm.Invoke(TopLevel)
	if err != nil {
		return "", err
	}
	if out.ResultType == nil {
		return "", nil
	}
	s, err := values.Format(out.ResultType, slots, vm.Memory())
	if err != nil {
		t.Fatalf("values.Format: %v", err)
	}
	return s, nil
}

func evaluate(t *testing.T, src string) string {
	t.Helper()
	got, err := execute(t, src)
	if err != nil {
		t.Fatalf("runtime error: %v\n%s", err, src)
	}
	return got
}

type evalCase struct {
	name string
	src  string
	want string
}

func runEvalCases(t *testing.T, tests []evalCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evaluate(t, tt.src); got != tt.want {
				t.Errorf("got %s, want %s\nsource: %s", got, tt.want, tt.src)
			}
		})
	}
}

func expectRuntimeError(t *testing.T, src string, code stdlib.ErrorCode) {
	t.Helper()
	_, err := execute(t, src)
	var rerr *stdlib.RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected runtime error %d, got %v", code, err)
	}
	if rerr.Code != code {
		t.Errorf("runtime error code = %d (%s), want %d", rerr.Code, rerr, code)
	}
}

func TestLiteralsAndBasics(t *testing.T) {
	runEvalCases(t, []evalCase{
		{"trivial", "true", "true"},
		{"int", "-170141183460469231731687303715884105728", "-170141183460469231731687303715884105728"},
		{"uint", "u340282366920938463463374607431768211455", "u340282366920938463463374607431768211455"},
		{"buffer", "0x612d62", "0x612d62"},
		{"ascii", `"hello"`, `"hello"`},
		{"utf8", `u"héllo"`, `u"héllo"`},
		{"principal", "'ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM", "'ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"},
		{"last expression wins", "1 2 u3", "u3"},
		{"list", "(list 1 2 3)", "(list 1 2 3)"},
		{"empty list", "(list)", "(list)"},
		{"list of optionals", "(list none (some 1))", "(list none (some 1))"},
		{"nested list", "(list (list 1) (list 2 3))", "(list (list 1) (list 2 3))"},
		{"some", "(some u5)", "(some u5)"},
		{"ok", "(ok 11)", "(ok 11)"},
		{"err", `(err "bad")`, `(err "bad")`},
	})
}

func TestArithmetic(t *testing.T) {
	runEvalCases(t, []evalCase{
		{"add", "(+ 1 2 3)", "6"},
		{"sub", "(- 10 3 2)", "5"},
		{"negate", "(- 5)", "-5"},
		{"mul", "(* u3 u4)", "u12"},
		{"div", "(/ -7 2)", "-3"},
		{"compare", "(> 9001 9000)", "true"},
		{"compare uint", "(<= u2 u1)", "false"},
		{"not", "(not false)", "true"},
		{"len list", "(len (list 1 2 3))", "u3"},
		{"len ascii", `(len "abcd")`, "u4"},
		{"len utf8", `(len u"héllo")`, "u5"},
		{"len buffer", "(len 0x)", "u0"},
	})

	t.Run("division by zero", func(t *testing.T) {
		expectRuntimeError(t, "(/ 1 0)", stdlib.CodeDivisionByZero)
	})
	t.Run("underflow", func(t *testing.T) {
		expectRuntimeError(t, "(- u1 u2)", stdlib.CodeUnderflow)
	})
}

func TestDefinitions(t *testing.T) {
	runEvalCases(t, []evalCase{
		{"call", "(define-private (inc (x int)) (+ x 1)) (inc 41)", "42"},
		{"call defined later", "(define-private (a) (b)) (define-private (b) u7) (a)", "u7"},
		{"constant", "(define-constant ten 10) (define-private (f) (+ ten 1)) (f)", "11"},
		{"data var", "(define-data-var n int 1) (var-set n (+ (var-get n) 2)) (var-get n)", "3"},
		{"optional data var", "(define-data-var v (optional int) none) (var-set v (some 4)) (var-get v)", "(some 4)"},
		{"data var keeps none", "(define-data-var v (optional int) none) (var-get v)", "none"},
		{"let", "(let ((a 1) (b (+ a 1))) (* a b))", "2"},
		{"let shadows outer", "(let ((a 1)) (let ((a 5)) a))", "5"},
		{"begin", "(begin 1 2 (some 3))", "(some 3)"},
		{"params flattened", "(define-private (pick (o (optional int)) (d int)) (default-to d o)) (pick none 9)", "9"},
	})

	t.Run("public function", func(t *testing.T) {
		out := mustCompile(t, "(define-public (hello (x uint)) (ok x))")
		id, ok := out.Module.FuncByName("hello")
		if !ok {
			t.Fatal("hello was not declared")
		}
		fn := out.Module.Func(id)
		if fn.Export != "hello" {
			t.Errorf("hello exported as %q", fn.Export)
		}
		if got := len(fn.Results); got != 4 {
			t.Errorf("(response uint NoType) should use 4 slots, got %d", got)
		}
		if out.ResultType != nil {
			t.Errorf("no top-level expression, but result type %s", out.ResultType)
		}
	})
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{
			name: "match binding named after a builtin",
			src: `(define-private (test (x (response int int)))
  (match x val (+ val 10) err (+ err 107)))
(test (err 18))`,
			want: ErrInternal,
		},
		{
			name: "match binding named after its own function",
			src: `(define-private (cursed (x (response int int)))
  (match x val (+ val 10) cursed (+ cursed 107)))
(cursed (err 18))`,
			want: ErrInternal,
		},
		{
			name: "let binding named after a function",
			src:  "(define-private (f) 1) (let ((f 2)) f)",
			want: ErrInternal,
		},
		{
			name: "equality on lists",
			src:  "(is-eq (list 1) (list 1))",
			want: ErrNotImplemented,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(t, tt.src)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want kind %v", err, tt.want)
			}
			var gerr *Error
			if !errors.As(err, &gerr) || gerr.Expr == nil {
				t.Errorf("error should carry the offending expression: %v", err)
			}
		})
	}

	t.Run("missing types", func(t *testing.T) {
		prog := parser.New("(+ 1 2)").Parse()
		res := &checker.CheckResult{ExprTypes: map[ast.Expression]*checker.Type{}}
		_, err := Generate(prog, res, DefaultOptions())
		if !errors.Is(err, ErrType) {
			t.Errorf("got %v, want a type error", err)
		}
		if errors.Is(err, ErrInternal) || errors.Is(err, ErrNotImplemented) {
			t.Errorf("kinds must be distinguishable: %v", err)
		}
	})
}
