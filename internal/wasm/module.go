// Package wasm assembles WebAssembly modules from structured instruction
// sequences and encodes them to the binary format.
package wasm

import (
	"fmt"
)

// HostContext gives host routines access to the running instance
type HostContext interface {
	Memory() []byte
}

// HostFunc implements an imported function. Arguments and results are raw
// slot values: i32 values occupy the low 32 bits.
type HostFunc func(ctx HostContext, args []uint64) ([]uint64, error)

// Import names the module and field an imported function comes from
type Import struct {
	Module string
	Name   string
}

// Function is either an import or a function defined in the module
type Function struct {
	ID      FuncID
	Name    string
	Params  []ValType
	Results []ValType
	Locals  []ValType // locals declared after the parameters
	Body    SeqID
	Import  *Import
	Host    HostFunc
	Export  string
}

// IsImport reports whether the function is provided by the host
func (f *Function) IsImport() bool {
	return f.Import != nil
}

// LocalType returns the type of a parameter or local
func (f *Function) LocalType(id LocalID) (ValType, bool) {
	i := int(id)
	if i < len(f.Params) {
		return f.Params[i], true
	}
	i -= len(f.Params)
	if i < len(f.Locals) {
		return f.Locals[i], true
	}
	return 0, false
}

// NumLocals returns the number of parameters plus declared locals
func (f *Function) NumLocals() int {
	return len(f.Params) + len(f.Locals)
}

// Global is a module global with a constant initializer
type Global struct {
	ID      GlobalID
	Type    ValType
	Mutable bool
	Init    int64
}

// DataSegment is an active data segment copied into memory at instantiation
type DataSegment struct {
	Offset uint32
	Data   []byte
}

// Module is a module under construction
type Module struct {
	Funcs       []*Function
	Globals     []*Global
	Data        []*DataSegment
	MemoryPages uint32

	seqs    []*InstrSeq
	byName  map[string]FuncID
	dataEnd uint32
}

// NewModule creates an empty module whose literal data starts at dataOffset
func NewModule(memoryPages, dataOffset uint32) *Module {
	return &Module{
		MemoryPages: memoryPages,
		byName:      make(map[string]FuncID),
		dataEnd:     dataOffset,
	}
}

// AddImport declares a host function. Imports must be declared before any
// function is defined.
func (m *Module) AddImport(module, name string, params, results []ValType, host HostFunc) (FuncID, error) {
	for _, f := range m.Funcs {
		if !f.IsImport() {
			return 0, fmt.Errorf("import %s.%s declared after defined function %s", module, name, f.Name)
		}
	}
	if _, exists := m.byName[name]; exists {
		return 0, fmt.Errorf("function %s already declared", name)
	}
	id := FuncID(len(m.Funcs))
	m.Funcs = append(m.Funcs, &Function{
		ID:      id,
		Name:    name,
		Params:  params,
		Results: results,
		Import:  &Import{Module: module, Name: name},
		Host:    host,
	})
	m.byName[name] = id
	return id, nil
}

// NewFunction declares a function and returns a builder for its body
func (m *Module) NewFunction(name string, params, results []ValType) (*FunctionBuilder, error) {
	if _, exists := m.byName[name]; exists {
		return nil, fmt.Errorf("function %s already declared", name)
	}
	id := FuncID(len(m.Funcs))
	fn := &Function{ID: id, Name: name, Params: params, Results: results}
	fn.Body = m.newSeq(nil, results).ID
	m.Funcs = append(m.Funcs, fn)
	m.byName[name] = id
	return &FunctionBuilder{mod: m, fn: fn}, nil
}

// FuncByName looks up a function by name
func (m *Module) FuncByName(name string) (FuncID, bool) {
	id, ok := m.byName[name]
	return id, ok
}

// Func returns the function with the given id
func (m *Module) Func(id FuncID) *Function {
	return m.Funcs[id]
}

// Seq returns the instruction sequence with the given id
func (m *Module) Seq(id SeqID) *InstrSeq {
	return m.seqs[id]
}

// NumSeqs returns how many sequences the module holds
func (m *Module) NumSeqs() int {
	return len(m.seqs)
}

func (m *Module) newSeq(params, results []ValType) *InstrSeq {
	seq := &InstrSeq{ID: SeqID(len(m.seqs)), Params: params, Results: results}
	m.seqs = append(m.seqs, seq)
	return seq
}

// AddGlobal declares a global
func (m *Module) AddGlobal(vt ValType, mutable bool, init int64) GlobalID {
	id := GlobalID(len(m.Globals))
	m.Globals = append(m.Globals, &Global{ID: id, Type: vt, Mutable: mutable, Init: init})
	return id
}

// AddData places data in linear memory and returns its offset
func (m *Module) AddData(data []byte) uint32 {
	offset := m.dataEnd
	if len(data) > 0 {
		m.Data = append(m.Data, &DataSegment{Offset: offset, Data: data})
		m.dataEnd += uint32(len(data))
	}
	return offset
}

// DataEnd returns the first free byte after all data segments
func (m *Module) DataEnd() uint32 {
	return m.dataEnd
}

// Export exports a function under name
func (m *Module) Export(id FuncID, name string) {
	m.Funcs[id].Export = name
}
