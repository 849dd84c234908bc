package codegen

import (
	"github.com/lhaig/clarwasm/internal/ast"
	"github.com/lhaig/clarwasm/internal/checker"
	"github.com/lhaig/clarwasm/internal/wasm"
)

// Word lowers one builtin. Traverse receives the whole list and its
// arguments and leaves the word's value on b.
type Word interface {
	Name() string
	Traverse(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error
}

// SimpleWord is a word whose arguments are all evaluated in order before
// it runs. Visit only emits the operation itself.
type SimpleWord interface {
	Name() string
	Visit(g *Generator, b *wasm.SeqBuilder, expr *ast.List, argTypes []*checker.Type, retType *checker.Type) error
}

// simpleAdapter lowers the arguments of a SimpleWord and then visits it
type simpleAdapter struct {
	SimpleWord
}

func (s simpleAdapter) Traverse(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	argTypes := make([]*checker.Type, len(args))
	for i, arg := range args {
		t, err := g.exprType(arg)
		if err != nil {
			return err
		}
		argTypes[i] = t
		if err := g.traverse(b, arg); err != nil {
			return err
		}
	}
	ret, err := g.exprType(expr)
	if err != nil {
		return err
	}
	return s.Visit(g, b, expr, argTypes, ret)
}

// wordFunc adapts a function to Word
type wordFunc struct {
	name string
	fn   func(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error
}

func (w wordFunc) Name() string { return w.name }

func (w wordFunc) Traverse(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	return w.fn(g, b, expr, args)
}

var (
	words       = make(map[string]Word)
	simpleWords = make(map[string]SimpleWord)
)

func register(ws ...Word) {
	for _, w := range ws {
		words[w.Name()] = w
	}
}

func registerSimple(ws ...SimpleWord) {
	for _, w := range ws {
		simpleWords[w.Name()] = w
		register(simpleAdapter{w})
	}
}

func lookupSimpleWord(name string) (SimpleWord, bool) {
	w, ok := simpleWords[name]
	return w, ok
}

func lookupWord(name string) (Word, bool) {
	w, ok := words[name]
	return w, ok
}

func init() {
	register(
		wordFunc{"some", traverseSome},
		wordFunc{"ok", traverseOk},
		wordFunc{"err", traverseErr},
		wordFunc{"list", traverseListLiteral},
		wordFunc{"begin", traverseBegin},
		wordFunc{"let", traverseLet},
		wordFunc{"len", traverseLen},
		wordFunc{"var-get", traverseVarGet},
		wordFunc{"var-set", traverseVarSet},
		wordFunc{"define-private", traverseNestedDefine},
		wordFunc{"define-public", traverseNestedDefine},
		wordFunc{"define-read-only", traverseNestedDefine},
		wordFunc{"define-data-var", traverseNestedDefine},
		wordFunc{"define-constant", traverseNestedDefine},
		arithmetic{"+"},
		arithmetic{"-"},
		arithmetic{"*"},
		arithmetic{"/"},
	)
	registerSimple(
		comparison{"<"},
		comparison{">"},
		comparison{"<="},
		comparison{">="},
		not{},
		variantTest{name: "is-some", want: 1},
		variantTest{name: "is-none", want: 0},
		variantTest{name: "is-ok", want: 1},
		variantTest{name: "is-err", want: 0},
	)
	register(
		and{},
		or{},
		ifWord{},
		match{},
		unwrap{name: "unwrap!"},
		unwrap{name: "unwrap-err!", errVariant: true},
		unwrap{name: "unwrap-panic", panics: true},
		unwrap{name: "unwrap-err-panic", errVariant: true, panics: true},
		asserts{},
		try{},
		defaultTo{},
		isEq{},
		filter{},
	)
}

func traverseSome(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	t, err := g.exprType(expr)
	if err != nil {
		return err
	}
	if t.Kind != checker.KindOptional || len(args) != 1 {
		return typeErrorf(expr, "some typed as %s", t)
	}
	b.I32Const(1)
	return g.traverseAs(b, args[0], t.Inner())
}

func traverseOk(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	t, err := g.exprType(expr)
	if err != nil {
		return err
	}
	if t.Kind != checker.KindResponse || len(args) != 1 {
		return typeErrorf(expr, "ok typed as %s", t)
	}
	b.I32Const(1)
	if err := g.traverseAs(b, args[0], t.OkType()); err != nil {
		return err
	}
	addPlaceholder(b, t.ErrType())
	return nil
}

func traverseErr(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	t, err := g.exprType(expr)
	if err != nil {
		return err
	}
	if t.Kind != checker.KindResponse || len(args) != 1 {
		return typeErrorf(expr, "err typed as %s", t)
	}
	b.I32Const(0)
	addPlaceholder(b, t.OkType())
	return g.traverseAs(b, args[0], t.ErrType())
}

// traverseListLiteral writes the elements to a fresh stack region and
// pushes its offset and byte length
func traverseListLiteral(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	t, err := g.exprType(expr)
	if err != nil {
		return err
	}
	if t.Kind != checker.KindList {
		return typeErrorf(expr, "list typed as %s", t)
	}
	elem := t.ElemType()
	size := sizeOf(elem)
	total := g.fb.AddLocal(wasm.I32)
	b.I32Const(int32(size * uint32(len(args)))).LocalSet(total)
	start := g.reserveStackRegion(b, total)

	for i, arg := range args {
		if err := g.traverseAs(b, arg, elem); err != nil {
			return err
		}
		locals := g.saveToLocals(b, elem, false)
		writeToMemory(b, start, uint32(i)*size, elem, locals)
	}
	b.LocalGet(start).LocalGet(total)
	return nil
}

func traverseBegin(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	if len(args) == 0 {
		return typeErrorf(expr, "begin needs at least one expression")
	}
	t, err := g.exprType(expr)
	if err != nil {
		return err
	}
	return g.traverseBody(b, args, t)
}

// traverseBody lowers a sequence of expressions, dropping every value
// but the last, which is laid out as t
func (g *Generator) traverseBody(b *wasm.SeqBuilder, body []ast.Expression, t *checker.Type) error {
	for _, e := range body[:len(body)-1] {
		et, err := g.exprType(e)
		if err != nil {
			return err
		}
		if err := g.traverse(b, e); err != nil {
			return err
		}
		dropValue(b, et)
	}
	return g.traverseAs(b, body[len(body)-1], t)
}

func traverseLet(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	t, err := g.exprType(expr)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return typeErrorf(expr, "let needs bindings and a body")
	}
	pairs, ok := args[0].(*ast.List)
	if !ok {
		return typeErrorf(expr, "let expects a list of bindings")
	}

	var restores []func()
	defer func() {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}()
	for _, p := range pairs.Elements {
		pair, ok := p.(*ast.List)
		if !ok || len(pair.Elements) != 2 {
			return typeErrorf(p, "malformed let binding")
		}
		name, ok := ast.AtomName(pair.Elements[0])
		if !ok {
			return typeErrorf(pair, "let binding name must be a name")
		}
		vt, err := g.exprType(pair.Elements[1])
		if err != nil {
			return err
		}
		if err := g.traverse(b, pair.Elements[1]); err != nil {
			return err
		}
		locals := g.saveToLocals(b, vt, false)
		restore, err := g.bind(pair, name, locals, vt)
		if err != nil {
			return err
		}
		restores = append(restores, restore)
	}
	return g.traverseBody(b, args[1:], t)
}

// traverseLen pushes the element count of a sequence as a uint
func traverseLen(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	if len(args) != 1 {
		return typeErrorf(expr, "len expects one argument")
	}
	t, err := g.exprType(args[0])
	if err != nil {
		return err
	}
	width, err := elementSize(t)
	if err != nil {
		return typeErrorf(expr, "%v", err)
	}
	if err := g.traverse(b, args[0]); err != nil {
		return err
	}
	length := g.fb.AddLocal(wasm.I32)
	b.LocalSet(length).Drop().LocalGet(length)
	if width > 1 {
		b.I32Const(int32(width)).Op(wasm.OpI32DivU)
	}
	b.Op(wasm.OpI64ExtendI32U).I64Const(0)
	return nil
}

func traverseVarGet(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	globals, err := g.dataVar(expr, args)
	if err != nil {
		return err
	}
	for _, id := range globals {
		b.GlobalGet(id)
	}
	return nil
}

func traverseVarSet(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	globals, err := g.dataVar(expr, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return typeErrorf(expr, "var-set expects a name and a value")
	}
	name, _ := ast.AtomName(args[0])
	if err := g.traverseAs(b, args[1], g.result.DataVars[name].Type); err != nil {
		return err
	}
	for i := len(globals) - 1; i >= 0; i-- {
		b.GlobalSet(globals[i])
	}
	b.I32Const(1)
	return nil
}

func (g *Generator) dataVar(expr *ast.List, args []ast.Expression) ([]wasm.GlobalID, error) {
	if len(args) == 0 {
		return nil, typeErrorf(expr, "expected a data variable name")
	}
	name, ok := ast.AtomName(args[0])
	if !ok || g.result.DataVars[name] == nil {
		return nil, typeErrorf(expr, "unknown data variable %s", ast.Print(args[0]))
	}
	globals, ok := g.globals[name]
	if !ok {
		return nil, internalErrorf(expr, "data variable '%s' has no storage", name)
	}
	return globals, nil
}

func traverseNestedDefine(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	head, _ := expr.Head()
	return typeErrorf(expr, "%s is only allowed at the top level", head)
}
