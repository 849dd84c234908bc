package codegen

import (
	"errors"
	"fmt"

	"github.com/lhaig/clarwasm/internal/ast"
)

// Kind classifies a lowering failure
type Kind int

const (
	// TypeError: an expression's type is missing or has the wrong shape
	TypeError Kind = iota
	// InternalError: an invariant of the generator itself was violated
	InternalError
	// NotImplemented: a construct or type shape the generator does not handle
	NotImplemented
)

// Sentinels matched by errors.Is against an *Error of the same kind
var (
	ErrType           = errors.New("type error")
	ErrInternal       = errors.New("internal error")
	ErrNotImplemented = errors.New("not implemented")
)

func (k Kind) sentinel() error {
	switch k {
	case InternalError:
		return ErrInternal
	case NotImplemented:
		return ErrNotImplemented
	default:
		return ErrType
	}
}

func (k Kind) String() string {
	return k.sentinel().Error()
}

// Error is a lowering failure. Expr is the construct being lowered.
type Error struct {
	Kind    Kind
	Message string
	Expr    ast.Expression
}

func (e *Error) Error() string {
	if e.Expr == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	line, col := e.Expr.Pos()
	return fmt.Sprintf("%d:%d: %s: %s in %s", line, col, e.Kind, e.Message, ast.Print(e.Expr))
}

// Is lets errors.Is match the kind sentinels
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func typeErrorf(expr ast.Expression, format string, args ...interface{}) error {
	return &Error{Kind: TypeError, Message: fmt.Sprintf(format, args...), Expr: expr}
}

func internalErrorf(expr ast.Expression, format string, args ...interface{}) error {
	return &Error{Kind: InternalError, Message: fmt.Sprintf(format, args...), Expr: expr}
}

func notImplementedf(expr ast.Expression, format string, args ...interface{}) error {
	return &Error{Kind: NotImplemented, Message: fmt.Sprintf(format, args...), Expr: expr}
}
