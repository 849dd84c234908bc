package ast

import (
	"math/big"
	"testing"
)

func TestPrint(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"atom", &Atom{Name: "is-eq"}, "is-eq"},
		{"int", &IntLiteral{Value: big.NewInt(-5)}, "-5"},
		{"uint", &IntLiteral{Value: big.NewInt(10), Unsigned: true}, "u10"},
		{"buffer", &BufferLiteral{Value: []byte{0x61, 0x2d, 0x62}}, "0x612d62"},
		{"ascii", &StringLiteral{Value: "a\"b"}, `"a\"b"`},
		{"utf8", &StringLiteral{Value: "hi", UTF8: true}, `u"hi"`},
		{"principal", &PrincipalLiteral{Value: "ST1"}, "'ST1"},
		{
			"nested list",
			&List{Elements: []Expression{
				&Atom{Name: "if"},
				&Atom{Name: "true"},
				&List{Elements: []Expression{&Atom{Name: "+"}, &IntLiteral{Value: big.NewInt(1)}, &IntLiteral{Value: big.NewInt(1)}}},
				&IntLiteral{Value: big.NewInt(4)},
			}},
			"(if true (+ 1 1) 4)",
		},
		{"empty list", &List{}, "()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Print(tt.node); got != tt.want {
				t.Errorf("Print() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListHead(t *testing.T) {
	l := &List{Elements: []Expression{&Atom{Name: "filter"}, &Atom{Name: "not"}, &Atom{Name: "xs"}}}
	name, ok := l.Head()
	if !ok || name != "filter" {
		t.Fatalf("Head() = %q, %v", name, ok)
	}
	if len(l.Args()) != 2 {
		t.Errorf("Args() returned %d elements, want 2", len(l.Args()))
	}

	nested := &List{Elements: []Expression{&List{}}}
	if _, ok := nested.Head(); ok {
		t.Error("Head() on a list-headed list should report false")
	}
	if (&List{}).Args() != nil {
		t.Error("Args() on empty list should be nil")
	}
}
