// Package codegen lowers a type-checked program into a wasm.Module.
//
// Every value is flattened into a fixed list of slots derived from its
// type (see wasmTypes). Control-flow words build dangling instruction
// sequences and dispatch between them with if/else or loop instructions.
package codegen

import (
	"github.com/lhaig/clarwasm/internal/ast"
	"github.com/lhaig/clarwasm/internal/checker"
	"github.com/lhaig/clarwasm/internal/stdlib"
	"github.com/lhaig/clarwasm/internal/wasm"
)

// TopLevel is the exported function that runs the top-level expressions
const TopLevel = ".top-level"

// Options controls module layout
type Options struct {
	MemoryPages uint32
	DataOffset  uint32
}

// DefaultOptions returns one page of memory with data from offset 1024
func DefaultOptions() Options {
	return Options{MemoryPages: 1, DataOffset: 1024}
}

// Output is a generated module and the type of the value its top-level
// function returns. ResultType is nil when the program has no top-level
// expression.
type Output struct {
	Module     *wasm.Module
	ResultType *checker.Type
}

type binding struct {
	locals []wasm.LocalID
	typ    *checker.Type
}

// Generator holds the state of one compilation. Word handlers receive it
// by pointer and must return before their caller continues.
type Generator struct {
	module   *wasm.Module
	result   *checker.CheckResult
	types    map[ast.Expression]*checker.Type
	stdlib   stdlib.Funcs
	stackPtr wasm.GlobalID

	funcs   map[string]wasm.FuncID
	globals map[string][]wasm.GlobalID

	// per function
	fb         *wasm.FunctionBuilder
	bindings   map[string]binding
	returnType *checker.Type // nil at the top level
}

// Generate lowers prog. res must come from a check of prog without errors.
func Generate(prog *ast.Program, res *checker.CheckResult, opts Options) (*Output, error) {
	g := &Generator{
		module:   wasm.NewModule(opts.MemoryPages, opts.DataOffset),
		result:   res,
		types:    make(map[ast.Expression]*checker.Type, len(res.ExprTypes)),
		funcs:    make(map[string]wasm.FuncID),
		globals:  make(map[string][]wasm.GlobalID),
		bindings: make(map[string]binding),
	}
	for expr, t := range res.ExprTypes {
		g.types[expr] = t
	}

	funcs, err := stdlib.Import(g.module)
	if err != nil {
		return nil, internalErrorf(nil, "%v", err)
	}
	g.stdlib = funcs
	g.stackPtr = g.module.AddGlobal(wasm.I32, true, 0)

	resultType, err := g.generateProgram(prog)
	if err != nil {
		return nil, err
	}
	g.module.Globals[g.stackPtr].Init = int64(g.module.DataEnd())
	return &Output{Module: g.module, ResultType: resultType}, nil
}

func (g *Generator) exprType(expr ast.Expression) (*checker.Type, error) {
	t := g.types[expr]
	if t == nil {
		return nil, typeErrorf(expr, "expression has no type")
	}
	return t, nil
}

// setExprType retypes expr. Children of retyped constructors pick the new
// type up when they are traversed.
func (g *Generator) setExprType(expr ast.Expression, t *checker.Type) {
	g.types[expr] = t
}

func (g *Generator) stdlibFunc(expr ast.Expression, name string) (wasm.FuncID, error) {
	id, ok := g.stdlib[name]
	if !ok {
		return 0, internalErrorf(expr, "missing runtime routine %s", name)
	}
	return id, nil
}

// retypable reports whether expr lowers from its recorded type, so that
// assigning it a wider type changes the code it produces
func retypable(expr ast.Expression) bool {
	switch e := expr.(type) {
	case *ast.Atom:
		return e.Name == "none"
	case *ast.List:
		head, _ := e.Head()
		switch head {
		case "some", "ok", "err", "list", "if", "match", "begin", "let", "default-to":
			return true
		}
	}
	return false
}

// traverse lowers expr onto b, leaving its value on the stack
func (g *Generator) traverse(b *wasm.SeqBuilder, expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		lo, hi := stdlib.FromBig(e.Value)
		b.I64Const(int64(lo)).I64Const(int64(hi))
		return nil
	case *ast.BufferLiteral:
		g.pushData(b, e.Value)
		return nil
	case *ast.StringLiteral:
		if e.UTF8 {
			g.pushData(b, utf8Scalars(e.Value))
		} else {
			g.pushData(b, []byte(e.Value))
		}
		return nil
	case *ast.PrincipalLiteral:
		g.pushData(b, []byte(e.Value))
		return nil
	case *ast.Atom:
		return g.traverseAtom(b, e)
	case *ast.List:
		return g.traverseList(b, e)
	}
	return notImplementedf(expr, "unsupported expression")
}

// traverseAs lowers expr and leaves it on the stack in the layout of want
func (g *Generator) traverseAs(b *wasm.SeqBuilder, expr ast.Expression, want *checker.Type) error {
	have, err := g.exprType(expr)
	if err != nil {
		return err
	}
	if have.Equal(want) {
		return g.traverse(b, expr)
	}
	if retypable(expr) {
		g.setExprType(expr, want)
		return g.traverse(b, expr)
	}
	if err := g.traverse(b, expr); err != nil {
		return err
	}
	return g.coerce(b, expr, have, want)
}

func (g *Generator) traverseList(b *wasm.SeqBuilder, l *ast.List) error {
	name, ok := l.Head()
	if !ok {
		return typeErrorf(l, "expected a word at the start of a list")
	}
	if word, ok := lookupWord(name); ok {
		return word.Traverse(g, b, l, l.Args())
	}
	if _, ok := g.funcs[name]; ok {
		return g.traverseCall(b, l, name, l.Args())
	}
	return notImplementedf(l, "unknown word '%s'", name)
}

func (g *Generator) traverseAtom(b *wasm.SeqBuilder, a *ast.Atom) error {
	switch a.Name {
	case "true":
		b.I32Const(1)
		return nil
	case "false":
		b.I32Const(0)
		return nil
	case "none":
		t, err := g.exprType(a)
		if err != nil {
			return err
		}
		if t.Kind != checker.KindOptional {
			return typeErrorf(a, "none typed as %s", t)
		}
		b.I32Const(0)
		addPlaceholder(b, t.Inner())
		return nil
	}
	if bound, ok := g.bindings[a.Name]; ok {
		pushLocals(b, bound.locals)
		return nil
	}
	if globals, ok := g.globals[a.Name]; ok {
		for _, id := range globals {
			b.GlobalGet(id)
		}
		return nil
	}
	return typeErrorf(a, "unbound name '%s'", a.Name)
}

// pushData stores data in a data segment and pushes its offset and length
func (g *Generator) pushData(b *wasm.SeqBuilder, data []byte) {
	offset := g.module.AddData(data)
	b.I32Const(int32(offset)).I32Const(int32(len(data)))
}

// utf8Scalars encodes s as 4-byte big-endian unicode scalars
func utf8Scalars(s string) []byte {
	out := make([]byte, 0, 4*len(s))
	for _, r := range s {
		out = append(out, byte(r>>24), byte(r>>16), byte(r>>8), byte(r))
	}
	return out
}

// bind binds name to locals holding a value of type t and returns a
// function that restores the previous binding
func (g *Generator) bind(expr ast.Expression, name string, locals []wasm.LocalID, t *checker.Type) (func(), error) {
	if g.result.IsReservedName(name) {
		return nil, internalErrorf(expr, "name '%s' is already in use", name)
	}
	prev, had := g.bindings[name]
	g.bindings[name] = binding{locals: locals, typ: t}
	return func() {
		if had {
			g.bindings[name] = prev
		} else {
			delete(g.bindings, name)
		}
	}, nil
}

// returnEarly leaves the current function with the value on the stack.
// At the top level there is nothing to return to, so it raises a short
// return runtime error.
func (g *Generator) returnEarly(b *wasm.SeqBuilder, expr ast.Expression) error {
	if g.returnType != nil {
		b.Return()
		return nil
	}
	raise, err := g.stdlibFunc(expr, stdlib.RaiseError)
	if err != nil {
		return err
	}
	b.I32Const(int32(stdlib.CodeShortReturn)).Call(raise).Unreachable()
	return nil
}
