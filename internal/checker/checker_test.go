package checker

import (
	"strings"
	"testing"

	"github.com/lhaig/clarwasm/internal/ast"
	"github.com/lhaig/clarwasm/internal/parser"
)

func checkSource(t *testing.T, src string) (*ast.Program, *CheckResult) {
	t.Helper()
	p := parser.New(src)
	prog := p.Parse()
	if p.Diagnostics().HasErrors() {
		t.Fatalf("parse errors: %s", p.Diagnostics().Format("test"))
	}
	return prog, CheckWithResult(prog)
}

func checkOK(t *testing.T, src string) (*ast.Program, *CheckResult) {
	t.Helper()
	prog, res := checkSource(t, src)
	if res.Diagnostics.HasErrors() {
		t.Fatalf("unexpected errors: %s", res.Diagnostics.Format("test"))
	}
	return prog, res
}

func TestTopLevelExpressionTypes(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"(if true (+ 1 1) (+ 2 2))", "int"},
		{"(some u1)", "(optional uint)"},
		{"(ok 1)", "(response int NoType)"},
		{"(err u1)", "(response NoType uint)"},
		{"(if true (ok 1) (err u2))", "(response int uint)"},
		{"(list 1 2 3)", "(list 3 int)"},
		{"(list (some 1) none)", "(list 2 (optional int))"},
		{"(list)", "(list 0 NoType)"},
		{"(is-eq 1 2 3)", "bool"},
		{"(and true false)", "bool"},
		{"(match (some 10) v (+ v 1) 1001)", "int"},
		{"(match (ok 1) v (+ v 1) e u0)", ""},
		{"(default-to 5 none)", "int"},
		{"(len 0x612d62)", "uint"},
		{`(len u"héllo")`, "uint"},
		{"(filter not (list true false))", "(list 2 bool)"},
		{"(filter is-ok (list (ok 1) (err u2)))", "(list 2 (response int uint))"},
		{"(let ((a 1) (b (+ a 1))) (+ a b))", "int"},
		{"(begin 1 true)", "bool"},
		{"(unwrap-panic (some 3))", "int"},
		{"(unwrap-err-panic (err u3))", "uint"},
		{"(is-none none)", "bool"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			prog, res := checkSource(t, tt.src)
			if tt.want == "" {
				if !res.Diagnostics.HasErrors() {
					t.Fatalf("expected a type error")
				}
				return
			}
			if res.Diagnostics.HasErrors() {
				t.Fatalf("unexpected errors: %s", res.Diagnostics.Format("test"))
			}
			got := res.TypeOf(prog.Exprs[0])
			if got.String() != tt.want {
				t.Errorf("type = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFunctionReturnTypeIncludesThrows(t *testing.T) {
	tests := []struct {
		name string
		src  string
		fn   string
		want string
	}{
		{
			name: "unwrap throw widens err",
			src: `(define-private (foo) (ok 1))
(define-public (bar) (ok (unwrap! (foo) (err u100))))`,
			fn:   "bar",
			want: "(response int uint)",
		},
		{
			name: "try on response",
			src:  `(define-private (tryharder (x (response int int))) (ok (+ (try! x) 10)))`,
			fn:   "tryharder",
			want: "(response int int)",
		},
		{
			name: "try on optional",
			src:  `(define-private (tryharder (x (optional int))) (some (+ (try! x) 10)))`,
			fn:   "tryharder",
			want: "(optional int)",
		},
		{
			name: "asserts throw",
			src: `(define-private (is-even (x int)) (is-eq (* (/ x 2) 2) x))
(define-private (check (x int)) (begin (asserts! (is-even x) u11) u99))`,
			fn:   "check",
			want: "uint",
		},
		{
			name: "callee defined later",
			src: `(define-private (a) (b))
(define-private (b) (some u1))`,
			fn:   "a",
			want: "(optional uint)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, res := checkOK(t, tt.src)
			fn := res.Functions[tt.fn]
			if fn == nil {
				t.Fatalf("function %s not recorded", tt.fn)
			}
			if fn.ReturnType.String() != tt.want {
				t.Errorf("return type = %s, want %s", fn.ReturnType, tt.want)
			}
		})
	}
}

func TestIsEqRecordsUnifiedOperandType(t *testing.T) {
	prog, res := checkOK(t, "(is-eq (some 1) none)")
	list := prog.Exprs[0].(*ast.List)
	got := res.EqualityTypes[list]
	if got == nil || got.String() != "(optional int)" {
		t.Fatalf("unified type = %v", got)
	}
	none := list.Elements[2]
	if res.TypeOf(none).String() != "(optional NoType)" {
		t.Errorf("operand types must stay untouched, none has %s", res.TypeOf(none))
	}

	prog, res = checkOK(t, "(is-eq 1 u1)")
	if _, ok := res.EqualityTypes[prog.Exprs[0].(*ast.List)]; ok {
		t.Error("incompatible operands must not get a unified type")
	}
}

func TestCheckErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"undeclared", "(+ x 1)", "undeclared variable 'x'"},
		{"mixed arithmetic", "(+ 1 u1)", "expects all operands to be int"},
		{"if branches", "(if true 1 u1)", "if branches must return the same type"},
		{"if condition", "(if 1 1 2)", "expected bool, got int"},
		{"unknown function", "(foo 1)", "unknown function 'foo'"},
		{"arity", "(define-private (f (x int)) x) (f 1 2)", "f expects 1 argument(s), got 2"},
		{"match non option", "(match 1 a a b b)", "match expects an optional or a response"},
		{"unwrap-err on optional", "(unwrap-err! (some 1) 2)", "expects a response"},
		{"nested define", "(begin (define-constant a 1) 2)", "only allowed at the top level"},
		{"reserved definition", "(define-private (filter) 1)", "name is reserved"},
		{"duplicate definition", "(define-constant a 1) (define-constant a 2)", "'a' is already defined"},
		{"public non response", "(define-public (f) 1)", "must return a response"},
		{"diverging throw", "(define-private (f (x (optional int))) (unwrap! x u1))", "different types"},
		{"recursion", "(define-private (f) (f))", "recursive call"},
		{"filter non bool", "(define-private (f (x int)) x) (filter f (list 1))", "must return bool"},
		{"filter element type", "(define-private (f (x uint)) true) (filter f (list 1))", "expects uint"},
		{"filter builtin element type", "(filter is-some (list 1 2))", "expects an optional"},
		{"filter comparison", "(filter < (list 1 2))", "unknown function '<'"},
		{"data var as value", "(define-data-var v int 1) (+ v 1)", "is a data variable"},
		{"var-set type", "(define-data-var v int 1) (var-set v u1)", "expected int, got uint"},
		{"negate uint", "(- u1)", "cannot negate a uint"},
		{"let duplicate", "(let ((a 1) (a 2)) a)", "already bound"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, res := checkSource(t, tt.src)
			if !res.Diagnostics.HasErrors() {
				t.Fatalf("expected an error")
			}
			out := res.Diagnostics.Format("test")
			if !strings.Contains(out, tt.msg) {
				t.Errorf("expected message containing %q, got:\n%s", tt.msg, out)
			}
		})
	}
}

func TestMatchAllowsShadowingBuiltinNames(t *testing.T) {
	// Binding-name policy belongs to code generation; the checker only types.
	_, res := checkOK(t, `(define-private (cursed (x (response int int)))
  (match x val (+ val 10) err (+ err 107)))`)
	if !res.Functions["cursed"].ReturnType.Equal(TypeInt) {
		t.Errorf("unexpected return type %s", res.Functions["cursed"].ReturnType)
	}
}

func TestIsReservedName(t *testing.T) {
	_, res := checkOK(t, `(define-data-var cursor int 6)
(define-constant limit 10)
(define-private (bump) (var-set cursor (+ (var-get cursor) 1)))`)

	for _, name := range []string{"err", "ok", "filter", "cursor", "limit", "bump", "true"} {
		if !res.IsReservedName(name) {
			t.Errorf("%q should be reserved", name)
		}
	}
	for _, name := range []string{"val", "x", "cursed"} {
		if res.IsReservedName(name) {
			t.Errorf("%q should not be reserved", name)
		}
	}
}
