package codegen

import (
	"testing"
)

func TestIsEq(t *testing.T) {
	runEvalCases(t, []evalCase{
		{"ints", "(is-eq 1 1)", "true"},
		{"ints differ", "(is-eq 1 2)", "false"},
		{"wide ints", "(is-eq -18446744073709551616 -18446744073709551616)", "true"},
		{"high word differs", "(is-eq u18446744073709551616 u0)", "false"},
		{"single operand", "(is-eq u1)", "true"},
		{"all equal", "(is-eq 1 1 1)", "true"},
		{"last differs", "(is-eq 1 1 2)", "false"},
		{"middle differs", "(is-eq 1 2 1)", "false"},
		{"bools", "(is-eq true (> 2 1))", "true"},
		{"bools differ", "(is-eq true false)", "false"},
		{"buffers", "(is-eq 0x0102 0x0102)", "true"},
		{"buffers differ in length", "(is-eq 0x0102 0x010203)", "false"},
		{"ascii", `(is-eq "abc" "abd")`, "false"},
		{"utf8", `(is-eq u"héllo" u"héllo")`, "true"},
		{"principals", "(is-eq 'ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM 'ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM)", "true"},
		{"some equal", "(is-eq (some 1) (some 1))", "true"},
		{"some differ", "(is-eq (some 1) (some 2))", "false"},
		{"some and none", "(is-eq (some 1) none)", "false"},
		{"none and some", "(is-eq none (some 1))", "false"},
		{"none and none", "(is-eq none none)", "true"},
		{"ok and err", "(is-eq (ok 1) (err 1))", "false"},
		{"ok equal", "(is-eq (ok u1) (ok u1))", "true"},
		{"err equal", `(is-eq (err "x") (err "x"))`, "true"},
		{"err differ", `(is-eq (err "x") (err "y"))`, "false"},
		{"nested", "(is-eq (some (ok (some 1))) (some (ok (some 1))))", "true"},
		{"nested differ", "(is-eq (some (err none)) (some (err (some u2))))", "false"},
		{"different types", "(is-eq 1 u1)", "false"},
		{"bound values", "(let ((a (some 3)) (b none)) (is-eq a b))", "false"},
		{"symmetric", "(let ((a (ok 3)) (b (err u3))) (is-eq (is-eq a b) (is-eq b a)))", "true"},
	})
}

func TestIsEqEvaluatesEveryOperand(t *testing.T) {
	src := `(define-data-var hits int 0)
(is-eq 1 u1 (begin (var-set hits (+ (var-get hits) 1)) 1) 2 (begin (var-set hits (+ (var-get hits) 1)) 1))
(var-get hits)`
	if got := evaluate(t, src); got != "2" {
		t.Errorf("every operand should run once, hits = %s", got)
	}
}
