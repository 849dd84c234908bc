package codegen

import (
	"github.com/lhaig/clarwasm/internal/ast"
	"github.com/lhaig/clarwasm/internal/checker"
	"github.com/lhaig/clarwasm/internal/wasm"
)

// generateProgram declares every defined function, compiles their bodies
// and then compiles the top-level expressions into TopLevel. Its result
// is the value of the last top-level expression that is not a definition.
func (g *Generator) generateProgram(prog *ast.Program) (*checker.Type, error) {
	type pending struct {
		fn *checker.FuncInfo
		fb *wasm.FunctionBuilder
	}
	var fns []pending
	for _, expr := range prog.Exprs {
		head, ok := checker.DefinitionHead(expr)
		if !ok {
			continue
		}
		switch head {
		case "define-private", "define-public", "define-read-only":
			fn := g.functionForDecl(expr.(*ast.List))
			if fn == nil {
				return nil, typeErrorf(expr, "function was not checked")
			}
			fb, err := g.declareFunction(expr, fn)
			if err != nil {
				return nil, err
			}
			fns = append(fns, pending{fn, fb})
		}
	}

	var resultType *checker.Type
	var topExprs []ast.Expression
	for _, expr := range prog.Exprs {
		if head, ok := checker.DefinitionHead(expr); ok {
			if head == "define-data-var" || head == "define-constant" {
				if err := g.declareStorage(expr.(*ast.List)); err != nil {
					return nil, err
				}
				topExprs = append(topExprs, expr)
			}
			continue
		}
		t, err := g.exprType(expr)
		if err != nil {
			return nil, err
		}
		resultType = t
		topExprs = append(topExprs, expr)
	}

	for _, p := range fns {
		if err := g.generateFunction(p.fn, p.fb); err != nil {
			return nil, err
		}
	}
	if err := g.generateTopLevel(topExprs, resultType); err != nil {
		return nil, err
	}
	return resultType, nil
}

func (g *Generator) functionForDecl(decl *ast.List) *checker.FuncInfo {
	for _, fn := range g.result.Functions {
		if fn.Decl == decl {
			return fn
		}
	}
	return nil
}

func (g *Generator) declareFunction(expr ast.Expression, fn *checker.FuncInfo) (*wasm.FunctionBuilder, error) {
	if fn.ReturnType == nil {
		return nil, typeErrorf(expr, "function '%s' has no return type", fn.Name)
	}
	var params []wasm.ValType
	for _, p := range fn.Params {
		params = append(params, wasmTypes(p.Type)...)
	}
	fb, err := g.module.NewFunction(fn.Name, params, wasmTypes(fn.ReturnType))
	if err != nil {
		return nil, internalErrorf(expr, "%v", err)
	}
	g.module.Export(fb.Func().ID, fn.Name)
	g.funcs[fn.Name] = fb.Func().ID
	return fb, nil
}

// enterFunction makes fb the function being generated, with no bindings
func (g *Generator) enterFunction(fb *wasm.FunctionBuilder, returnType *checker.Type) {
	g.fb = fb
	g.returnType = returnType
	g.bindings = make(map[string]binding)
}

func (g *Generator) generateFunction(fn *checker.FuncInfo, fb *wasm.FunctionBuilder) error {
	g.enterFunction(fb, fn.ReturnType)

	next := 0
	for _, p := range fn.Params {
		n := len(wasmTypes(p.Type))
		locals := make([]wasm.LocalID, n)
		for i := range locals {
			locals[i] = g.fb.Param(next + i)
		}
		next += n
		if _, err := g.bind(fn.Decl, p.Name, locals, p.Type); err != nil {
			return err
		}
	}
	return g.traverseAs(g.fb.Body(), fn.Body, fn.ReturnType)
}

func (g *Generator) generateTopLevel(exprs []ast.Expression, resultType *checker.Type) error {
	var results []wasm.ValType
	if resultType != nil {
		results = wasmTypes(resultType)
	}
	fb, err := g.module.NewFunction(TopLevel, nil, results)
	if err != nil {
		return internalErrorf(nil, "%v", err)
	}
	g.module.Export(fb.Func().ID, TopLevel)
	g.enterFunction(fb, nil)

	body := fb.Body()
	lastValue := -1
	for i, expr := range exprs {
		if _, ok := checker.DefinitionHead(expr); !ok {
			lastValue = i
		}
	}
	for i, expr := range exprs {
		if _, ok := checker.DefinitionHead(expr); ok {
			if err := g.initStorage(body, expr.(*ast.List)); err != nil {
				return err
			}
			continue
		}
		t, err := g.exprType(expr)
		if err != nil {
			return err
		}
		if err := g.traverse(body, expr); err != nil {
			return err
		}
		if i != lastValue {
			dropValue(body, t)
		}
	}
	return nil
}

// declareStorage allocates one mutable global per slot of a data
// variable or constant
func (g *Generator) declareStorage(decl *ast.List) error {
	name, ok := ast.AtomName(decl.Args()[0])
	if !ok {
		return typeErrorf(decl, "definition name must be a name")
	}
	v := g.storageInfo(name)
	if v == nil || v.Type == nil {
		return typeErrorf(decl, "'%s' was not checked", name)
	}
	var globals []wasm.GlobalID
	for _, vt := range wasmTypes(v.Type) {
		globals = append(globals, g.module.AddGlobal(vt, true, 0))
	}
	g.globals[name] = globals
	return nil
}

func (g *Generator) storageInfo(name string) *checker.VarInfo {
	if v := g.result.DataVars[name]; v != nil {
		return v
	}
	return g.result.Constants[name]
}

// initStorage stores the initial value of a data variable or constant
func (g *Generator) initStorage(b *wasm.SeqBuilder, decl *ast.List) error {
	name, _ := ast.AtomName(decl.Args()[0])
	v := g.storageInfo(name)
	if v == nil {
		return typeErrorf(decl, "'%s' was not checked", name)
	}
	if err := g.traverseAs(b, v.Value, v.Type); err != nil {
		return err
	}
	globals := g.globals[name]
	for i := len(globals) - 1; i >= 0; i-- {
		b.GlobalSet(globals[i])
	}
	return nil
}

func (g *Generator) traverseCall(b *wasm.SeqBuilder, expr *ast.List, name string, args []ast.Expression) error {
	fn := g.result.Functions[name]
	if fn == nil {
		return typeErrorf(expr, "unknown function '%s'", name)
	}
	if len(args) != len(fn.Params) {
		return typeErrorf(expr, "'%s' expects %d argument(s), got %d", name, len(fn.Params), len(args))
	}
	for i, arg := range args {
		if err := g.traverseAs(b, arg, fn.Params[i].Type); err != nil {
			return err
		}
	}
	b.Call(g.funcs[name])
	return nil
}
