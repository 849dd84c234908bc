// Package checker resolves the type signature of every expression in a
// contract and infers the return type of each defined function.
package checker

import (
	"fmt"
	"unicode/utf8"

	"github.com/lhaig/clarwasm/internal/ast"
	"github.com/lhaig/clarwasm/internal/diagnostic"
)

// DefineKind distinguishes the three function definition forms
type DefineKind int

const (
	DefinePrivate DefineKind = iota
	DefinePublic
	DefineReadOnly
)

// String returns the defining keyword
func (k DefineKind) String() string {
	switch k {
	case DefinePublic:
		return "define-public"
	case DefineReadOnly:
		return "define-read-only"
	default:
		return "define-private"
	}
}

type checkState int

const (
	unchecked checkState = iota
	checking
	checked
)

// ParamInfo holds information about a parameter
type ParamInfo struct {
	Name string
	Type *Type
}

// FuncInfo holds information about a defined function
type FuncInfo struct {
	Name       string
	Kind       DefineKind
	Params     []ParamInfo
	ReturnType *Type
	Decl       *ast.List
	Body       ast.Expression
	state      checkState
}

// VarInfo describes a data variable or a constant
type VarInfo struct {
	Name  string
	Type  *Type
	Decl  *ast.List
	Value ast.Expression
}

// CheckResult holds the results of type checking for use by later pipeline stages
type CheckResult struct {
	Diagnostics *diagnostic.Diagnostics
	ExprTypes   map[ast.Expression]*Type
	// EqualityTypes holds the least supertype of the operands of each
	// is-eq whose operands have one.
	EqualityTypes map[*ast.List]*Type
	Functions     map[string]*FuncInfo
	DataVars      map[string]*VarInfo
	Constants     map[string]*VarInfo
}

// TypeOf returns the recorded type of expr, or nil
func (r *CheckResult) TypeOf(expr ast.Expression) *Type {
	return r.ExprTypes[expr]
}

// IsReservedName reports whether name is a builtin word or a name the
// contract defines at the top level.
func (r *CheckResult) IsReservedName(name string) bool {
	if IsBuiltin(name) {
		return true
	}
	if _, ok := r.Functions[name]; ok {
		return true
	}
	if _, ok := r.DataVars[name]; ok {
		return true
	}
	_, ok := r.Constants[name]
	return ok
}

// Checker performs semantic analysis on the AST
type Checker struct {
	diag      *diagnostic.Diagnostics
	exprTypes map[ast.Expression]*Type
	eqTypes   map[*ast.List]*Type
	functions map[string]*FuncInfo
	dataVars  map[string]*VarInfo
	constants map[string]*VarInfo
	scope     *Scope

	currentFunc *FuncInfo
	throws      []*Type // early-return types seen in currentFunc
}

// CheckWithResult performs semantic analysis and returns results for downstream stages
func CheckWithResult(prog *ast.Program) *CheckResult {
	c := &Checker{
		diag:      diagnostic.New(),
		exprTypes: make(map[ast.Expression]*Type),
		eqTypes:   make(map[*ast.List]*Type),
		functions: make(map[string]*FuncInfo),
		dataVars:  make(map[string]*VarInfo),
		constants: make(map[string]*VarInfo),
		scope:     NewScope(nil),
	}

	c.registerDefinitions(prog)
	for _, expr := range prog.Exprs {
		c.checkTopLevel(expr)
	}

	return &CheckResult{
		Diagnostics:   c.diag,
		ExprTypes:     c.exprTypes,
		EqualityTypes: c.eqTypes,
		Functions:     c.functions,
		DataVars:      c.dataVars,
		Constants:     c.constants,
	}
}

// Check performs semantic analysis on an AST program
func Check(prog *ast.Program) *diagnostic.Diagnostics {
	return CheckWithResult(prog).Diagnostics
}

func (c *Checker) errorf(node ast.Node, format string, args ...interface{}) {
	line, col := node.Pos()
	c.diag.Errorf(line, col, format, args...)
}

// DefinitionHead returns the defining keyword of a top-level form, if any
func DefinitionHead(expr ast.Expression) (string, bool) {
	list, ok := expr.(*ast.List)
	if !ok {
		return "", false
	}
	head, _ := list.Head()
	switch head {
	case "define-private", "define-public", "define-read-only", "define-data-var", "define-constant":
		return head, true
	}
	return "", false
}

// registerDefinitions records every top-level definition so that calls
// may refer to functions defined later in the source.
func (c *Checker) registerDefinitions(prog *ast.Program) {
	for _, expr := range prog.Exprs {
		head, ok := DefinitionHead(expr)
		if !ok {
			continue
		}
		list := expr.(*ast.List)
		switch head {
		case "define-private", "define-public", "define-read-only":
			c.registerFunction(head, list)
		case "define-data-var":
			c.registerDataVar(list)
		case "define-constant":
			c.registerConstant(list)
		}
	}
}

func (c *Checker) claimName(node ast.Node, name string) bool {
	if IsBuiltin(name) {
		c.errorf(node, "cannot define '%s': name is reserved", name)
		return false
	}
	if c.functions[name] != nil || c.dataVars[name] != nil || c.constants[name] != nil {
		c.errorf(node, "'%s' is already defined", name)
		return false
	}
	return true
}

func (c *Checker) registerFunction(head string, list *ast.List) {
	args := list.Args()
	if len(args) != 2 {
		c.errorf(list, "%s expects a signature and a single body expression", head)
		return
	}
	sig, ok := args[0].(*ast.List)
	if !ok || len(sig.Elements) == 0 {
		c.errorf(list, "%s expects a signature list (name (arg type) ...)", head)
		return
	}
	name, ok := ast.AtomName(sig.Elements[0])
	if !ok {
		c.errorf(sig, "function name must be a name")
		return
	}
	if !c.claimName(sig, name) {
		return
	}

	fn := &FuncInfo{Name: name, Decl: list, Body: args[1]}
	switch head {
	case "define-public":
		fn.Kind = DefinePublic
	case "define-read-only":
		fn.Kind = DefineReadOnly
	}

	seen := make(map[string]bool)
	for _, p := range sig.Elements[1:] {
		pair, ok := p.(*ast.List)
		if !ok || len(pair.Elements) != 2 {
			c.errorf(p, "parameter must be of the form (name type)")
			return
		}
		pname, ok := ast.AtomName(pair.Elements[0])
		if !ok {
			c.errorf(pair, "parameter name must be a name")
			return
		}
		if seen[pname] {
			c.errorf(pair, "duplicate parameter '%s'", pname)
			return
		}
		seen[pname] = true
		ptype, err := ResolveType(pair.Elements[1])
		if err != nil {
			c.errorf(pair.Elements[1], "%s", err)
			return
		}
		fn.Params = append(fn.Params, ParamInfo{Name: pname, Type: ptype})
	}
	c.functions[name] = fn
}

func (c *Checker) registerDataVar(list *ast.List) {
	args := list.Args()
	if len(args) != 3 {
		c.errorf(list, "define-data-var expects a name, a type and an initial value")
		return
	}
	name, ok := ast.AtomName(args[0])
	if !ok {
		c.errorf(args[0], "data variable name must be a name")
		return
	}
	if !c.claimName(args[0], name) {
		return
	}
	typ, err := ResolveType(args[1])
	if err != nil {
		c.errorf(args[1], "%s", err)
		return
	}
	c.dataVars[name] = &VarInfo{Name: name, Type: typ, Decl: list, Value: args[2]}
}

func (c *Checker) registerConstant(list *ast.List) {
	args := list.Args()
	if len(args) != 2 {
		c.errorf(list, "define-constant expects a name and a value")
		return
	}
	name, ok := ast.AtomName(args[0])
	if !ok {
		c.errorf(args[0], "constant name must be a name")
		return
	}
	if !c.claimName(args[0], name) {
		return
	}
	c.constants[name] = &VarInfo{Name: name, Decl: list, Value: args[1]}
}

func (c *Checker) checkTopLevel(expr ast.Expression) {
	head, ok := DefinitionHead(expr)
	if !ok {
		c.checkExpr(expr)
		return
	}
	list := expr.(*ast.List)
	switch head {
	case "define-private", "define-public", "define-read-only":
		if fn := c.functionForDecl(list); fn != nil {
			c.checkFunction(fn)
		}
	case "define-data-var":
		name, _ := ast.AtomName(list.Args()[0])
		if v := c.dataVars[name]; v != nil && v.Decl == list {
			if t := c.checkExpr(v.Value); t != nil && !v.Type.Admits(t) {
				c.errorf(v.Value, "initial value of '%s' has type %s, expected %s", name, t, v.Type)
			}
		}
	case "define-constant":
		name, _ := ast.AtomName(list.Args()[0])
		if v := c.constants[name]; v != nil && v.Decl == list {
			v.Type = c.checkExpr(v.Value)
		}
	}
}

func (c *Checker) functionForDecl(list *ast.List) *FuncInfo {
	for _, fn := range c.functions {
		if fn.Decl == list {
			return fn
		}
	}
	return nil
}

// checkFunction checks a function body and infers its return type as the
// least supertype of the body and every early-return value inside it.
func (c *Checker) checkFunction(fn *FuncInfo) {
	switch fn.state {
	case checked:
		return
	case checking:
		c.errorf(fn.Decl, "recursive call to '%s' is not allowed", fn.Name)
		return
	}
	fn.state = checking

	savedScope, savedFunc, savedThrows := c.scope, c.currentFunc, c.throws
	c.scope = NewScope(nil)
	c.currentFunc = fn
	c.throws = nil
	defer func() {
		c.scope, c.currentFunc, c.throws = savedScope, savedFunc, savedThrows
		fn.state = checked
	}()

	for _, p := range fn.Params {
		_ = c.scope.Define(p.Name, &Symbol{Name: p.Name, Type: p.Type, Kind: SymParam})
	}

	ret := c.checkExpr(fn.Body)
	if ret == nil {
		return
	}
	for _, thrown := range c.throws {
		merged, err := LeastSupertype(ret, thrown)
		if err != nil {
			c.errorf(fn.Decl, "detected two execution paths in '%s' returning different types: %s and %s",
				fn.Name, ret, thrown)
			return
		}
		ret = merged
	}
	if fn.Kind == DefinePublic && ret.Kind != KindResponse {
		c.errorf(fn.Decl, "public function '%s' must return a response, got %s", fn.Name, ret)
		return
	}
	fn.ReturnType = ret
}

func (c *Checker) recordThrow(t *Type) {
	if c.currentFunc != nil && t != nil {
		c.throws = append(c.throws, t)
	}
}

// checkExpr resolves and records the type of expr. It returns nil after
// reporting an error.
func (c *Checker) checkExpr(expr ast.Expression) *Type {
	var t *Type
	switch e := expr.(type) {
	case *ast.IntLiteral:
		t = TypeInt
		if e.Unsigned {
			t = TypeUInt
		}
	case *ast.BufferLiteral:
		t = Buffer(len(e.Value))
	case *ast.StringLiteral:
		if e.UTF8 {
			t = StringUTF8(utf8.RuneCountInString(e.Value))
		} else {
			t = StringASCII(len(e.Value))
		}
	case *ast.PrincipalLiteral:
		t = TypePrincipal
	case *ast.Atom:
		t = c.checkAtom(e)
	case *ast.List:
		t = c.checkList(e)
	}
	if t != nil {
		c.exprTypes[expr] = t
	}
	return t
}

func (c *Checker) checkAtom(a *ast.Atom) *Type {
	switch a.Name {
	case "true", "false":
		return TypeBool
	case "none":
		return Optional(TypeNoType)
	}
	if sym := c.scope.Resolve(a.Name); sym != nil {
		return sym.Type
	}
	if v := c.constants[a.Name]; v != nil {
		if v.Type == nil {
			c.errorf(a, "constant '%s' used before its definition", a.Name)
		}
		return v.Type
	}
	if c.dataVars[a.Name] != nil {
		c.diag.ErrorWithHint(a.Line, a.Column, fmt.Sprintf("'%s' is a data variable", a.Name),
			fmt.Sprintf("read it with (var-get %s)", a.Name))
		return nil
	}
	c.errorf(a, "undeclared variable '%s'", a.Name)
	return nil
}

func (c *Checker) expectArgs(l *ast.List, name string, args []ast.Expression, n int) bool {
	if len(args) != n {
		c.errorf(l, "%s expects %d argument(s), got %d", name, n, len(args))
		return false
	}
	return true
}

func (c *Checker) expectMinArgs(l *ast.List, name string, args []ast.Expression, n int) bool {
	if len(args) < n {
		c.errorf(l, "%s expects at least %d argument(s), got %d", name, n, len(args))
		return false
	}
	return true
}

// checkAll checks each expression and returns their types, or nil if any failed
func (c *Checker) checkAll(args []ast.Expression) []*Type {
	types := make([]*Type, len(args))
	failed := false
	for i, arg := range args {
		types[i] = c.checkExpr(arg)
		if types[i] == nil {
			failed = true
		}
	}
	if failed {
		return nil
	}
	return types
}

func (c *Checker) checkList(l *ast.List) *Type {
	name, ok := l.Head()
	if !ok {
		c.errorf(l, "expected a function name at the start of %s", ast.Print(l))
		return nil
	}
	args := l.Args()

	switch name {
	case "define-private", "define-public", "define-read-only", "define-data-var", "define-constant":
		c.errorf(l, "%s is only allowed at the top level", name)
		return nil
	case "some", "ok", "err":
		if !c.expectArgs(l, name, args, 1) {
			return nil
		}
		inner := c.checkExpr(args[0])
		if inner == nil {
			return nil
		}
		switch name {
		case "some":
			return Optional(inner)
		case "ok":
			return Response(inner, TypeNoType)
		default:
			return Response(TypeNoType, inner)
		}
	case "list":
		return c.checkListLiteral(l, args)
	case "+", "-", "*", "/":
		return c.checkArithmetic(l, name, args)
	case "<", ">", "<=", ">=":
		return c.checkComparison(l, name, args)
	case "not":
		if !c.expectArgs(l, name, args, 1) {
			return nil
		}
		if !c.expectType(args[0], TypeBool) {
			return nil
		}
		return TypeBool
	case "and", "or":
		if !c.expectMinArgs(l, name, args, 1) {
			return nil
		}
		for _, arg := range args {
			if !c.expectType(arg, TypeBool) {
				return nil
			}
		}
		return TypeBool
	case "is-eq":
		return c.checkIsEq(l, args)
	case "if":
		return c.checkIf(l, args)
	case "match":
		return c.checkMatch(l, args)
	case "unwrap!", "unwrap-err!", "unwrap-panic", "unwrap-err-panic":
		return c.checkUnwrap(l, name, args)
	case "asserts!":
		if !c.expectArgs(l, name, args, 2) {
			return nil
		}
		if !c.expectType(args[0], TypeBool) {
			return nil
		}
		thrown := c.checkExpr(args[1])
		if thrown == nil {
			return nil
		}
		c.recordThrow(thrown)
		return TypeBool
	case "try!":
		return c.checkTry(l, args)
	case "default-to":
		return c.checkDefaultTo(l, args)
	case "is-some", "is-none", "is-ok", "is-err":
		if !c.expectArgs(l, name, args, 1) {
			return nil
		}
		t := c.checkExpr(args[0])
		if t == nil {
			return nil
		}
		want := KindOptional
		if name == "is-ok" || name == "is-err" {
			want = KindResponse
		}
		if t.Kind != want {
			c.errorf(args[0], "%s expects %s, got %s", name, kindName(want), t)
			return nil
		}
		return TypeBool
	case "filter":
		return c.checkFilter(l, args)
	case "len":
		if !c.expectArgs(l, name, args, 1) {
			return nil
		}
		t := c.checkExpr(args[0])
		if t == nil {
			return nil
		}
		if !t.IsSequence() {
			c.errorf(args[0], "len expects a sequence, got %s", t)
			return nil
		}
		return TypeUInt
	case "begin":
		if !c.expectMinArgs(l, name, args, 1) {
			return nil
		}
		types := c.checkAll(args)
		if types == nil {
			return nil
		}
		return types[len(types)-1]
	case "let":
		return c.checkLet(l, args)
	case "var-get", "var-set":
		return c.checkVar(l, name, args)
	}
	return c.checkCall(l, name, args)
}

func kindName(k Kind) string {
	switch k {
	case KindOptional:
		return "an optional"
	case KindResponse:
		return "a response"
	default:
		return (&Type{Kind: k}).String()
	}
}

// expectType checks expr and reports an error unless its type is want
func (c *Checker) expectType(expr ast.Expression, want *Type) bool {
	t := c.checkExpr(expr)
	if t == nil {
		return false
	}
	if !want.Admits(t) {
		c.errorf(expr, "expected %s, got %s", want, t)
		return false
	}
	return true
}

func (c *Checker) checkListLiteral(l *ast.List, args []ast.Expression) *Type {
	types := c.checkAll(args)
	if types == nil {
		return nil
	}
	elem := TypeNoType
	for i, t := range types {
		merged, err := LeastSupertype(elem, t)
		if err != nil {
			c.errorf(args[i], "list elements must share a type: %s", err)
			return nil
		}
		elem = merged
	}
	return List(elem, len(args))
}

func (c *Checker) checkArithmetic(l *ast.List, name string, args []ast.Expression) *Type {
	minArgs := 2
	if name == "-" {
		minArgs = 1
	}
	if !c.expectMinArgs(l, name, args, minArgs) {
		return nil
	}
	types := c.checkAll(args)
	if types == nil {
		return nil
	}
	first := types[0]
	if first.Kind != KindInt && first.Kind != KindUInt {
		c.errorf(args[0], "%s expects int or uint, got %s", name, first)
		return nil
	}
	if name == "-" && len(args) == 1 && first.Kind == KindUInt {
		c.errorf(l, "cannot negate a uint")
		return nil
	}
	for i, t := range types[1:] {
		if !t.Equal(first) {
			c.errorf(args[i+1], "%s expects all operands to be %s, got %s", name, first, t)
			return nil
		}
	}
	return first
}

func (c *Checker) checkComparison(l *ast.List, name string, args []ast.Expression) *Type {
	if !c.expectArgs(l, name, args, 2) {
		return nil
	}
	types := c.checkAll(args)
	if types == nil {
		return nil
	}
	if types[0].Kind != KindInt && types[0].Kind != KindUInt {
		c.errorf(args[0], "%s expects int or uint, got %s", name, types[0])
		return nil
	}
	if !types[0].Equal(types[1]) {
		c.errorf(args[1], "%s expects both operands to be %s, got %s", name, types[0], types[1])
		return nil
	}
	return TypeBool
}

// checkIsEq types each operand. When all operands share a least
// supertype it is recorded so that partially known values such as none
// or (ok 1) can be laid out like their peers.
func (c *Checker) checkIsEq(l *ast.List, args []ast.Expression) *Type {
	if !c.expectMinArgs(l, "is-eq", args, 1) {
		return nil
	}
	types := c.checkAll(args)
	if types == nil {
		return nil
	}
	unified := types[0]
	for _, t := range types[1:] {
		merged, err := LeastSupertype(unified, t)
		if err != nil {
			return TypeBool
		}
		unified = merged
	}
	c.eqTypes[l] = unified
	return TypeBool
}

func (c *Checker) checkIf(l *ast.List, args []ast.Expression) *Type {
	if !c.expectArgs(l, "if", args, 3) {
		return nil
	}
	if !c.expectType(args[0], TypeBool) {
		return nil
	}
	then := c.checkExpr(args[1])
	els := c.checkExpr(args[2])
	if then == nil || els == nil {
		return nil
	}
	merged, err := LeastSupertype(then, els)
	if err != nil {
		c.errorf(l, "if branches must return the same type: %s", err)
		return nil
	}
	return merged
}

// checkBranch checks body with name bound to typ in a fresh scope
func (c *Checker) checkBranch(nameExpr, body ast.Expression, typ *Type) *Type {
	name, ok := ast.AtomName(nameExpr)
	if !ok {
		c.errorf(nameExpr, "match binding must be a name, got %s", ast.Print(nameExpr))
		return nil
	}
	saved := c.scope
	c.scope = NewScope(saved)
	defer func() { c.scope = saved }()
	_ = c.scope.Define(name, &Symbol{Name: name, Type: typ, Kind: SymMatch})
	return c.checkExpr(body)
}

func (c *Checker) checkMatch(l *ast.List, args []ast.Expression) *Type {
	if len(args) == 0 {
		c.errorf(l, "match expects an input expression")
		return nil
	}
	input := c.checkExpr(args[0])
	if input == nil {
		return nil
	}

	var someType, noneType *Type
	switch input.Kind {
	case KindOptional:
		if !c.expectArgs(l, "match on an optional", args, 4) {
			return nil
		}
		someType = c.checkBranch(args[1], args[2], input.Inner())
		noneType = c.checkExpr(args[3])
	case KindResponse:
		if !c.expectArgs(l, "match on a response", args, 5) {
			return nil
		}
		someType = c.checkBranch(args[1], args[2], input.OkType())
		noneType = c.checkBranch(args[3], args[4], input.ErrType())
	default:
		c.errorf(args[0], "match expects an optional or a response, got %s", input)
		return nil
	}
	if someType == nil || noneType == nil {
		return nil
	}
	merged, err := LeastSupertype(someType, noneType)
	if err != nil {
		c.errorf(l, "match branches must return the same type: %s", err)
		return nil
	}
	return merged
}

func (c *Checker) checkUnwrap(l *ast.List, name string, args []ast.Expression) *Type {
	n := 1
	if name == "unwrap!" || name == "unwrap-err!" {
		n = 2
	}
	if !c.expectArgs(l, name, args, n) {
		return nil
	}
	input := c.checkExpr(args[0])
	if input == nil {
		return nil
	}
	if n == 2 {
		thrown := c.checkExpr(args[1])
		if thrown == nil {
			return nil
		}
		c.recordThrow(thrown)
	}

	errVariant := name == "unwrap-err!" || name == "unwrap-err-panic"
	switch {
	case errVariant && input.Kind == KindResponse:
		return input.ErrType()
	case !errVariant && input.Kind == KindResponse:
		return input.OkType()
	case !errVariant && input.Kind == KindOptional:
		return input.Inner()
	case errVariant:
		c.errorf(args[0], "%s expects a response, got %s", name, input)
	default:
		c.errorf(args[0], "%s expects an optional or a response, got %s", name, input)
	}
	return nil
}

func (c *Checker) checkTry(l *ast.List, args []ast.Expression) *Type {
	if !c.expectArgs(l, "try!", args, 1) {
		return nil
	}
	input := c.checkExpr(args[0])
	if input == nil {
		return nil
	}
	switch input.Kind {
	case KindOptional:
		c.recordThrow(Optional(TypeNoType))
		return input.Inner()
	case KindResponse:
		c.recordThrow(Response(TypeNoType, input.ErrType()))
		return input.OkType()
	}
	c.errorf(args[0], "try! expects an optional or a response, got %s", input)
	return nil
}

func (c *Checker) checkDefaultTo(l *ast.List, args []ast.Expression) *Type {
	if !c.expectArgs(l, "default-to", args, 2) {
		return nil
	}
	types := c.checkAll(args)
	if types == nil {
		return nil
	}
	if types[1].Kind != KindOptional {
		c.errorf(args[1], "default-to expects an optional, got %s", types[1])
		return nil
	}
	merged, err := LeastSupertype(types[0], types[1].Inner())
	if err != nil {
		c.errorf(l, "default-to: %s", err)
		return nil
	}
	return merged
}

func (c *Checker) checkFilter(l *ast.List, args []ast.Expression) *Type {
	if !c.expectArgs(l, "filter", args, 2) {
		return nil
	}
	fname, ok := ast.AtomName(args[0])
	if !ok {
		c.errorf(args[0], "filter expects a function name")
		return nil
	}
	seq := c.checkExpr(args[1])
	if seq == nil {
		return nil
	}
	_, elem, err := seq.SequenceElement()
	if err != nil {
		c.errorf(args[1], "filter: %s", err)
		return nil
	}

	var param, ret *Type
	switch fname {
	case "not":
		param, ret = TypeBool, TypeBool
	case "is-some", "is-none":
		if elem.Kind != KindOptional {
			c.errorf(args[1], "filter: '%s' expects an optional, sequence holds %s", fname, elem)
			return nil
		}
		param, ret = elem, TypeBool
	case "is-ok", "is-err":
		if elem.Kind != KindResponse {
			c.errorf(args[1], "filter: '%s' expects a response, sequence holds %s", fname, elem)
			return nil
		}
		param, ret = elem, TypeBool
	default:
		fn := c.functions[fname]
		if fn == nil {
			c.errorf(args[0], "filter: unknown function '%s'", fname)
			return nil
		}
		if len(fn.Params) != 1 {
			c.errorf(args[0], "filter: '%s' must take exactly one argument", fname)
			return nil
		}
		c.checkFunction(fn)
		param, ret = fn.Params[0].Type, fn.ReturnType
		if ret == nil {
			return nil
		}
	}
	if ret.Kind != KindBool {
		c.errorf(args[0], "filter: '%s' must return bool, returns %s", fname, ret)
		return nil
	}
	if !param.Admits(elem) {
		c.errorf(args[1], "filter: '%s' expects %s, sequence holds %s", fname, param, elem)
		return nil
	}
	return seq
}

func (c *Checker) checkLet(l *ast.List, args []ast.Expression) *Type {
	if !c.expectMinArgs(l, "let", args, 2) {
		return nil
	}
	bindings, ok := args[0].(*ast.List)
	if !ok {
		c.errorf(args[0], "let expects a list of bindings")
		return nil
	}

	saved := c.scope
	c.scope = NewScope(saved)
	defer func() { c.scope = saved }()

	for _, b := range bindings.Elements {
		pair, ok := b.(*ast.List)
		if !ok || len(pair.Elements) != 2 {
			c.errorf(b, "let binding must be of the form (name value)")
			return nil
		}
		name, ok := ast.AtomName(pair.Elements[0])
		if !ok {
			c.errorf(pair, "let binding name must be a name")
			return nil
		}
		t := c.checkExpr(pair.Elements[1])
		if t == nil {
			return nil
		}
		if err := c.scope.Define(name, &Symbol{Name: name, Type: t, Kind: SymLet}); err != nil {
			c.errorf(pair, "%s", err)
			return nil
		}
	}

	types := c.checkAll(args[1:])
	if types == nil {
		return nil
	}
	return types[len(types)-1]
}

func (c *Checker) checkVar(l *ast.List, name string, args []ast.Expression) *Type {
	n := 1
	if name == "var-set" {
		n = 2
	}
	if !c.expectArgs(l, name, args, n) {
		return nil
	}
	vname, ok := ast.AtomName(args[0])
	if !ok {
		c.errorf(args[0], "%s expects a data variable name", name)
		return nil
	}
	v := c.dataVars[vname]
	if v == nil {
		c.errorf(args[0], "unknown data variable '%s'", vname)
		return nil
	}
	if name == "var-get" {
		return v.Type
	}
	if !c.expectType(args[1], v.Type) {
		return nil
	}
	return TypeBool
}

func (c *Checker) checkCall(l *ast.List, name string, args []ast.Expression) *Type {
	fn := c.functions[name]
	if fn == nil {
		c.errorf(l, "unknown function '%s'", name)
		return nil
	}
	if !c.expectArgs(l, name, args, len(fn.Params)) {
		return nil
	}
	for i, arg := range args {
		if !c.expectType(arg, fn.Params[i].Type) {
			return nil
		}
	}
	c.checkFunction(fn)
	return fn.ReturnType
}

// IsBuiltin reports whether name is a word of the language
func IsBuiltin(name string) bool {
	return builtinNames[name]
}

var builtinNames = map[string]bool{
	"true": true, "false": true, "none": true,
	"define-private": true, "define-public": true, "define-read-only": true,
	"define-data-var": true, "define-constant": true,
	"some": true, "ok": true, "err": true, "list": true,
	"+": true, "-": true, "*": true, "/": true,
	"<": true, ">": true, "<=": true, ">=": true,
	"not": true, "and": true, "or": true, "is-eq": true,
	"if": true, "match": true,
	"unwrap!": true, "unwrap-err!": true, "unwrap-panic": true, "unwrap-err-panic": true,
	"asserts!": true, "try!": true, "default-to": true,
	"is-some": true, "is-none": true, "is-ok": true, "is-err": true,
	"filter": true, "len": true, "begin": true, "let": true,
	"var-get": true, "var-set": true,
}
