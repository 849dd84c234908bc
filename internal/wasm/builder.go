package wasm

// FunctionBuilder builds the body and locals of one function
type FunctionBuilder struct {
	mod *Module
	fn  *Function
}

// Func returns the function being built
func (b *FunctionBuilder) Func() *Function {
	return b.fn
}

// Module returns the module the function belongs to
func (b *FunctionBuilder) Module() *Module {
	return b.mod
}

// Param returns the local holding parameter i
func (b *FunctionBuilder) Param(i int) LocalID {
	return LocalID(i)
}

// AddLocal declares a new local of type vt
func (b *FunctionBuilder) AddLocal(vt ValType) LocalID {
	id := LocalID(b.fn.NumLocals())
	b.fn.Locals = append(b.fn.Locals, vt)
	return id
}

// Body returns a builder appending to the function's top-level sequence
func (b *FunctionBuilder) Body() *SeqBuilder {
	return &SeqBuilder{fb: b, seq: b.mod.Seq(b.fn.Body)}
}

// Dangling creates an unattached sequence with the given stack signature
func (b *FunctionBuilder) Dangling(params, results []ValType) *SeqBuilder {
	return &SeqBuilder{fb: b, seq: b.mod.newSeq(params, results)}
}

// SeqBuilder appends instructions to one sequence. Every method returns
// the builder so that calls can be chained.
type SeqBuilder struct {
	fb  *FunctionBuilder
	seq *InstrSeq
}

// ID returns the id of the sequence being built
func (s *SeqBuilder) ID() SeqID {
	return s.seq.ID
}

// Function returns the builder of the function the sequence belongs to
func (s *SeqBuilder) Function() *FunctionBuilder {
	return s.fb
}

// Dangling creates a new unattached sequence in the same function
func (s *SeqBuilder) Dangling(params, results []ValType) *SeqBuilder {
	return s.fb.Dangling(params, results)
}

// Instr appends a raw instruction
func (s *SeqBuilder) Instr(in Instr) *SeqBuilder {
	s.seq.Instrs = append(s.seq.Instrs, in)
	return s
}

// Op appends an operand-free instruction such as i32.add or drop
func (s *SeqBuilder) Op(op Opcode) *SeqBuilder {
	return s.Instr(Instr{Op: op})
}

func (s *SeqBuilder) I32Const(v int32) *SeqBuilder {
	return s.Instr(Instr{Op: OpI32Const, Value: int64(v)})
}

func (s *SeqBuilder) I64Const(v int64) *SeqBuilder {
	return s.Instr(Instr{Op: OpI64Const, Value: v})
}

func (s *SeqBuilder) LocalGet(id LocalID) *SeqBuilder {
	return s.Instr(Instr{Op: OpLocalGet, Local: id})
}

func (s *SeqBuilder) LocalSet(id LocalID) *SeqBuilder {
	return s.Instr(Instr{Op: OpLocalSet, Local: id})
}

func (s *SeqBuilder) LocalTee(id LocalID) *SeqBuilder {
	return s.Instr(Instr{Op: OpLocalTee, Local: id})
}

func (s *SeqBuilder) GlobalGet(id GlobalID) *SeqBuilder {
	return s.Instr(Instr{Op: OpGlobalGet, Global: id})
}

func (s *SeqBuilder) GlobalSet(id GlobalID) *SeqBuilder {
	return s.Instr(Instr{Op: OpGlobalSet, Global: id})
}

// Load appends a load with a static offset
func (s *SeqBuilder) Load(op Opcode, offset uint32) *SeqBuilder {
	return s.Instr(Instr{Op: op, Offset: offset})
}

// Store appends a store with a static offset
func (s *SeqBuilder) Store(op Opcode, offset uint32) *SeqBuilder {
	return s.Instr(Instr{Op: op, Offset: offset})
}

// MemoryCopy copies size bytes: stack is [dest, src, size]
func (s *SeqBuilder) MemoryCopy() *SeqBuilder {
	return s.Op(OpMemoryCopy)
}

func (s *SeqBuilder) Call(id FuncID) *SeqBuilder {
	return s.Instr(Instr{Op: OpCall, Func: id})
}

// IfElse pops an i32 and runs consequent when it is non-zero, otherwise alternative
func (s *SeqBuilder) IfElse(consequent, alternative SeqID) *SeqBuilder {
	return s.Instr(Instr{Op: OpIfElse, Seq: consequent, Alt: alternative})
}

// Block runs body; a branch to body exits it
func (s *SeqBuilder) Block(body SeqID) *SeqBuilder {
	return s.Instr(Instr{Op: OpBlock, Seq: body})
}

// Loop runs body; a branch to body restarts it
func (s *SeqBuilder) Loop(body SeqID) *SeqBuilder {
	return s.Instr(Instr{Op: OpLoop, Seq: body})
}

func (s *SeqBuilder) Br(target SeqID) *SeqBuilder {
	return s.Instr(Instr{Op: OpBr, Seq: target})
}

func (s *SeqBuilder) BrIf(target SeqID) *SeqBuilder {
	return s.Instr(Instr{Op: OpBrIf, Seq: target})
}

func (s *SeqBuilder) Return() *SeqBuilder {
	return s.Op(OpReturn)
}

func (s *SeqBuilder) Drop() *SeqBuilder {
	return s.Op(OpDrop)
}

func (s *SeqBuilder) Unreachable() *SeqBuilder {
	return s.Op(OpUnreachable)
}
