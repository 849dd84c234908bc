package codegen

import (
	"testing"
)

func TestFilter(t *testing.T) {
	runEvalCases(t, []evalCase{
		{
			name: "user predicate",
			src: `(define-private (is-great (number int))
  (> number 2))
(filter is-great (list 1 2 3 4))`,
			want: "(list 3 4)",
		},
		{
			name: "builtin predicate",
			src:  "(filter not (list false false true false true true false))",
			want: "(list false false false false)",
		},
		{
			name: "buffer",
			src: `(define-private (is-dash (char (buff 1)))
  (is-eq char 0x2d)) ;; -
(filter is-dash 0x612d62)`,
			want: "0x2d",
		},
		{
			name: "ascii string",
			src: `(define-private (not-a (c (string-ascii 1)))
  (not (is-eq c "a")))
(filter not-a "banana")`,
			want: `"bnn"`,
		},
		{
			name: "utf8 string",
			src: `(define-private (not-e (c (string-utf8 1)))
  (not (is-eq c u"é")))
(filter not-e u"éclair é")`,
			want: `u"clair "`,
		},
		{
			name: "optional elements",
			src: `(define-private (present (o (optional int)))
  (is-some o))
(filter present (list (some 1) none (some 3)))`,
			want: "(list (some 1) (some 3))",
		},
		{
			name: "builtin is-some",
			src:  "(filter is-some (list (some 1) none (some 3)))",
			want: "(list (some 1) (some 3))",
		},
		{
			name: "builtin is-none",
			src:  "(filter is-none (list (some 1) none (some 3) none))",
			want: "(list none none)",
		},
		{
			name: "builtin is-err",
			src:  "(filter is-err (list (ok 1) (err u2) (ok 3) (err u4)))",
			want: "(list (err u2) (err u4))",
		},
		{
			name: "nothing survives",
			src: `(define-private (is-great (number int))
  (> number 10))
(filter is-great (list 1 2 3))`,
			want: "(list)",
		},
		{
			name: "empty input",
			src: `(define-private (is-great (number int))
  (> number 2))
(filter is-great (filter is-great (list 1 2)))`,
			want: "(list)",
		},
		{
			name: "length of result",
			src: `(define-private (is-great (number int))
  (> number 2))
(len (filter is-great (list 5 1 7 2 9)))`,
			want: "u3",
		},
		{
			name: "result outlives later allocations",
			src: `(define-private (is-great (number int))
  (> number 2))
(let ((kept (filter is-great (list 1 3 5))))
  (begin (list 7 7 7) kept))`,
			want: "(list 3 5)",
		},
	})
}
