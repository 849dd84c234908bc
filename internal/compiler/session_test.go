package compiler

import (
	"testing"
)

func TestSession(t *testing.T) {
	s := NewSession(DefaultConfig())

	steps := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: `(define-private (double (x int)) (* x 2))`, want: ""},
		{input: `(double 21)`, want: "42"},
		{input: `(define-constant base 10) (+ base (double 1))`, want: "12"},
		{input: `(undefined-fn 1)`, wantErr: true},
		{input: `(define-private (broken) (+ 1 u1))`, wantErr: true},
		{input: `(- (double base) 5)`, want: "15"},
	}

	for _, step := range steps {
		got, err := s.Eval(step.input)
		if step.wantErr {
			if err == nil {
				t.Errorf("Eval(%q) should fail, got %q", step.input, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Eval(%q): %v", step.input, err)
		}
		if got != step.want {
			t.Errorf("Eval(%q) = %q, want %q", step.input, got, step.want)
		}
	}

	if n := len(s.Definitions()); n != 2 {
		t.Errorf("accepted %d definitions, want 2: %v", n, s.Definitions())
	}

	s.Reset()
	if _, err := s.Eval(`(double 1)`); err == nil {
		t.Error("definitions should be gone after Reset")
	}
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{`(+ 1 2)`, false},
		{`(define-private (f (x int))`, true},
		{`(begin (+ 1`, true},
		{`(+ 1 2))`, false},
	}

	for _, tt := range tests {
		if got := Incomplete(tt.source); got != tt.want {
			t.Errorf("Incomplete(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}
}
