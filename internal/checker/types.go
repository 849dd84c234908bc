package checker

import (
	"fmt"
	"strconv"

	"github.com/lhaig/clarwasm/internal/ast"
)

// Kind identifies the shape of a type signature
type Kind int

const (
	KindNoType Kind = iota
	KindInt
	KindUInt
	KindBool
	KindPrincipal
	KindOptional
	KindResponse
	KindList
	KindBuffer
	KindStringASCII
	KindStringUTF8
)

// Type is a resolved type signature. TypeParams holds the inner type of an
// optional, the ok and err types of a response, and the element type of a list.
// MaxLen is the maximum length of a sequence type.
type Type struct {
	Kind       Kind
	TypeParams []*Type
	MaxLen     int
}

// Builtin types
var (
	TypeNoType    = &Type{Kind: KindNoType}
	TypeInt       = &Type{Kind: KindInt}
	TypeUInt      = &Type{Kind: KindUInt}
	TypeBool      = &Type{Kind: KindBool}
	TypePrincipal = &Type{Kind: KindPrincipal}
)

// Optional returns (optional inner)
func Optional(inner *Type) *Type {
	return &Type{Kind: KindOptional, TypeParams: []*Type{inner}}
}

// Response returns (response ok err)
func Response(ok, err *Type) *Type {
	return &Type{Kind: KindResponse, TypeParams: []*Type{ok, err}}
}

// List returns (list maxLen elem)
func List(elem *Type, maxLen int) *Type {
	return &Type{Kind: KindList, TypeParams: []*Type{elem}, MaxLen: maxLen}
}

// Buffer returns (buff maxLen)
func Buffer(maxLen int) *Type { return &Type{Kind: KindBuffer, MaxLen: maxLen} }

// StringASCII returns (string-ascii maxLen)
func StringASCII(maxLen int) *Type { return &Type{Kind: KindStringASCII, MaxLen: maxLen} }

// StringUTF8 returns (string-utf8 maxLen)
func StringUTF8(maxLen int) *Type { return &Type{Kind: KindStringUTF8, MaxLen: maxLen} }

// Inner returns the payload type of an optional
func (t *Type) Inner() *Type { return t.TypeParams[0] }

// OkType returns the success payload type of a response
func (t *Type) OkType() *Type { return t.TypeParams[0] }

// ErrType returns the error payload type of a response
func (t *Type) ErrType() *Type { return t.TypeParams[1] }

// ElemType returns the element type of a list
func (t *Type) ElemType() *Type { return t.TypeParams[0] }

// IsSequence reports whether t is a list, buffer or string
func (t *Type) IsSequence() bool {
	switch t.Kind {
	case KindList, KindBuffer, KindStringASCII, KindStringUTF8:
		return true
	}
	return false
}

// String renders the type in source syntax
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindNoType:
		return "NoType"
	case KindInt:
		return "int"
	case KindUInt:
		return "uint"
	case KindBool:
		return "bool"
	case KindPrincipal:
		return "principal"
	case KindOptional:
		return fmt.Sprintf("(optional %s)", t.Inner())
	case KindResponse:
		return fmt.Sprintf("(response %s %s)", t.OkType(), t.ErrType())
	case KindList:
		return fmt.Sprintf("(list %d %s)", t.MaxLen, t.ElemType())
	case KindBuffer:
		return fmt.Sprintf("(buff %d)", t.MaxLen)
	case KindStringASCII:
		return fmt.Sprintf("(string-ascii %d)", t.MaxLen)
	case KindStringUTF8:
		return fmt.Sprintf("(string-utf8 %d)", t.MaxLen)
	default:
		return "unknown"
	}
}

// Equal reports structural equality of two signatures
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind || t.MaxLen != other.MaxLen || len(t.TypeParams) != len(other.TypeParams) {
		return false
	}
	for i := range t.TypeParams {
		if !t.TypeParams[i].Equal(other.TypeParams[i]) {
			return false
		}
	}
	return true
}

// Admits reports whether a value of type value can be used where t is expected
func (t *Type) Admits(value *Type) bool {
	lst, err := LeastSupertype(t, value)
	return err == nil && lst.Equal(t)
}

// LeastSupertype returns the smallest type that both a and b can be used as.
// NoType components are filled from the other side.
func LeastSupertype(a, b *Type) (*Type, error) {
	switch {
	case a.Kind == KindNoType:
		return b, nil
	case b.Kind == KindNoType:
		return a, nil
	case a.Kind != b.Kind:
		return nil, fmt.Errorf("type mismatch: %s and %s", a, b)
	}

	switch a.Kind {
	case KindOptional:
		inner, err := LeastSupertype(a.Inner(), b.Inner())
		if err != nil {
			return nil, err
		}
		return Optional(inner), nil
	case KindResponse:
		ok, err := LeastSupertype(a.OkType(), b.OkType())
		if err != nil {
			return nil, err
		}
		errType, err := LeastSupertype(a.ErrType(), b.ErrType())
		if err != nil {
			return nil, err
		}
		return Response(ok, errType), nil
	case KindList:
		elem, err := LeastSupertype(a.ElemType(), b.ElemType())
		if err != nil {
			return nil, err
		}
		return List(elem, maxInt(a.MaxLen, b.MaxLen)), nil
	case KindBuffer, KindStringASCII, KindStringUTF8:
		return &Type{Kind: a.Kind, MaxLen: maxInt(a.MaxLen, b.MaxLen)}, nil
	default:
		return a, nil
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ElementKind classifies how a sequence stores its elements
type ElementKind int

const (
	// ElemValue elements are full values laid out in memory
	ElemValue ElementKind = iota
	// ElemByte elements are single bytes (buffers, ASCII strings)
	ElemByte
	// ElemUnicodeScalar elements are 4-byte scalars (UTF-8 strings)
	ElemUnicodeScalar
)

// SequenceElement returns how t stores its elements and the type a single
// element has when it is passed around as a value.
func (t *Type) SequenceElement() (ElementKind, *Type, error) {
	switch t.Kind {
	case KindList:
		return ElemValue, t.ElemType(), nil
	case KindBuffer:
		return ElemByte, Buffer(1), nil
	case KindStringASCII:
		return ElemByte, StringASCII(1), nil
	case KindStringUTF8:
		return ElemUnicodeScalar, StringUTF8(1), nil
	default:
		return 0, nil, fmt.Errorf("expected a sequence, got %s", t)
	}
}

// ResolveType parses a type expression such as (response int uint)
func ResolveType(expr ast.Expression) (*Type, error) {
	if name, ok := ast.AtomName(expr); ok {
		switch name {
		case "int":
			return TypeInt, nil
		case "uint":
			return TypeUInt, nil
		case "bool":
			return TypeBool, nil
		case "principal":
			return TypePrincipal, nil
		}
		return nil, fmt.Errorf("unknown type '%s'", name)
	}

	list, ok := expr.(*ast.List)
	if !ok {
		return nil, fmt.Errorf("invalid type expression %s", ast.Print(expr))
	}
	head, ok := list.Head()
	if !ok {
		return nil, fmt.Errorf("invalid type expression %s", ast.Print(expr))
	}
	args := list.Args()

	switch head {
	case "optional":
		if len(args) != 1 {
			return nil, fmt.Errorf("optional expects 1 type argument, got %d", len(args))
		}
		inner, err := ResolveType(args[0])
		if err != nil {
			return nil, err
		}
		return Optional(inner), nil
	case "response":
		if len(args) != 2 {
			return nil, fmt.Errorf("response expects 2 type arguments, got %d", len(args))
		}
		ok, err := ResolveType(args[0])
		if err != nil {
			return nil, err
		}
		errType, err := ResolveType(args[1])
		if err != nil {
			return nil, err
		}
		return Response(ok, errType), nil
	case "list":
		if len(args) != 2 {
			return nil, fmt.Errorf("list expects a length and an element type")
		}
		n, err := resolveLength(args[0])
		if err != nil {
			return nil, err
		}
		elem, err := ResolveType(args[1])
		if err != nil {
			return nil, err
		}
		return List(elem, n), nil
	case "buff", "string-ascii", "string-utf8":
		if len(args) != 1 {
			return nil, fmt.Errorf("%s expects a length", head)
		}
		n, err := resolveLength(args[0])
		if err != nil {
			return nil, err
		}
		switch head {
		case "buff":
			return Buffer(n), nil
		case "string-ascii":
			return StringASCII(n), nil
		default:
			return StringUTF8(n), nil
		}
	}
	return nil, fmt.Errorf("unknown type constructor '%s'", head)
}

func resolveLength(expr ast.Expression) (int, error) {
	lit, ok := expr.(*ast.IntLiteral)
	if !ok || lit.Unsigned || lit.Value.Sign() < 0 || !lit.Value.IsInt64() {
		return 0, fmt.Errorf("invalid length %s", ast.Print(expr))
	}
	n, err := strconv.Atoi(lit.Value.String())
	if err != nil {
		return 0, err
	}
	return n, nil
}
