package wasm

import (
	"strings"
	"testing"
)

func hasError(errors []string, substr string) bool {
	for _, e := range errors {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidateValidFunction(t *testing.T) {
	m := NewModule(1, 0)
	fb, _ := m.NewFunction("add", []ValType{I32, I32}, []ValType{I32})
	tmp := fb.AddLocal(I32)
	fb.Body().
		LocalGet(fb.Param(0)).
		LocalGet(fb.Param(1)).
		Op(OpI32Add).
		LocalTee(tmp).
		Drop().
		LocalGet(tmp)

	if errors := Validate(m); len(errors) > 0 {
		t.Errorf("expected no errors, got: %v", errors)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(m *Module)
		want  string
	}{
		{
			name: "underflow",
			build: func(m *Module) {
				fb, _ := m.NewFunction("f", nil, []ValType{I32})
				fb.Body().Op(OpI32Add)
			},
			want: "stack underflow",
		},
		{
			name: "wrong result",
			build: func(m *Module) {
				fb, _ := m.NewFunction("f", nil, []ValType{I32})
				fb.Body().I64Const(1)
			},
			want: "declared [i32]",
		},
		{
			name: "if branches disagree",
			build: func(m *Module) {
				fb, _ := m.NewFunction("f", nil, []ValType{I32})
				cons := fb.Dangling(nil, []ValType{I32})
				cons.I32Const(1)
				alt := fb.Dangling(nil, []ValType{I64})
				alt.I64Const(1)
				fb.Body().I32Const(1).IfElse(cons.ID(), alt.ID())
			},
			want: "if branches disagree",
		},
		{
			name: "branch outside scope",
			build: func(m *Module) {
				fb, _ := m.NewFunction("f", nil, nil)
				stray := fb.Dangling(nil, nil)
				fb.Body().I32Const(1).BrIf(stray.ID())
			},
			want: "not an enclosing block",
		},
		{
			name: "store operand types",
			build: func(m *Module) {
				fb, _ := m.NewFunction("f", nil, nil)
				fb.Body().I32Const(0).I32Const(1).Store(OpI64Store, 0)
			},
			want: "type mismatch",
		},
		{
			name: "unknown local",
			build: func(m *Module) {
				fb, _ := m.NewFunction("f", nil, []ValType{I32})
				fb.Body().LocalGet(3)
			},
			want: "unknown local 3",
		},
		{
			name: "immutable global",
			build: func(m *Module) {
				g := m.AddGlobal(I32, false, 0)
				fb, _ := m.NewFunction("f", nil, nil)
				fb.Body().I32Const(1).GlobalSet(g)
			},
			want: "immutable global",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModule(1, 0)
			tt.build(m)
			errors := Validate(m)
			if !hasError(errors, tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, errors)
			}
		})
	}
}

func TestValidateDivergingAlternative(t *testing.T) {
	m := NewModule(1, 0)
	fb, _ := m.NewFunction("f", []ValType{I32}, []ValType{I64, I64})
	ok := fb.Dangling(nil, []ValType{I64, I64})
	ok.I64Const(1).I64Const(0)
	// the early exit pushes a wider value and returns
	fail := fb.Dangling(nil, []ValType{I32, I64, I64})
	fail.I32Const(0).I64Const(2).I64Const(0).Drop().Drop().Drop().I64Const(0).I64Const(0).Return()
	fb.Body().LocalGet(fb.Param(0)).IfElse(ok.ID(), fail.ID())

	if errors := Validate(m); len(errors) > 0 {
		t.Errorf("a diverging alternative may declare other results, got: %v", errors)
	}
}

func TestValidateLoopBranchArity(t *testing.T) {
	m := NewModule(1, 0)
	fb, _ := m.NewFunction("f", nil, nil)
	counter := fb.AddLocal(I32)
	body := fb.Dangling(nil, nil)
	body.LocalGet(counter).I32Const(1).Op(OpI32Add).LocalTee(counter).I32Const(10).Op(OpI32LtU).BrIf(body.ID())
	fb.Body().Loop(body.ID())

	if errors := Validate(m); len(errors) > 0 {
		t.Errorf("expected no errors, got: %v", errors)
	}
}
