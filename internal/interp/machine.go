// Package interp executes a wasm.Module directly from its structured
// instruction sequences.
package interp

import (
	"encoding/binary"
	"fmt"

	"github.com/lhaig/clarwasm/internal/wasm"
)

const (
	pageSize     = 64 * 1024
	maxCallDepth = 1024
)

// Trap is a fault raised by the machine itself
type Trap struct {
	Message string
}

func (t *Trap) Error() string {
	return "trap: " + t.Message
}

func trapf(format string, args ...interface{}) error {
	return &Trap{Message: fmt.Sprintf(format, args...)}
}

// Option configures a Machine
type Option func(*Machine)

// WithMaxSteps bounds the number of instructions a single Invoke may run.
// Zero means unbounded.
func WithMaxSteps(n int) Option {
	return func(m *Machine) { m.maxSteps = n }
}

// Machine is an instantiated module
type Machine struct {
	mod      *wasm.Module
	memory   []byte
	globals  []uint64
	maxSteps int
	steps    int
	depth    int
}

// New instantiates mod: memory is allocated, data segments are copied and
// globals take their initial values.
func New(mod *wasm.Module, opts ...Option) (*Machine, error) {
	m := &Machine{
		mod:     mod,
		memory:  make([]byte, int(mod.MemoryPages)*pageSize),
		globals: make([]uint64, len(mod.Globals)),
	}
	for _, opt := range opts {
		opt(m)
	}
	for i, g := range mod.Globals {
		m.globals[i] = fromConst(g.Type, g.Init)
	}
	for _, seg := range mod.Data {
		end := uint64(seg.Offset) + uint64(len(seg.Data))
		if end > uint64(len(m.memory)) {
			return nil, trapf("data segment at %d does not fit in memory", seg.Offset)
		}
		copy(m.memory[seg.Offset:], seg.Data)
	}
	return m, nil
}

func fromConst(vt wasm.ValType, v int64) uint64 {
	if vt == wasm.I32 {
		return uint64(uint32(int32(v)))
	}
	return uint64(v)
}

// Memory returns the instance's linear memory
func (m *Machine) Memory() []byte {
	return m.memory
}

// Global returns the current value of a global
func (m *Machine) Global(id wasm.GlobalID) uint64 {
	return m.globals[id]
}

// Invoke calls an exported or named function
func (m *Machine) Invoke(name string, args ...uint64) ([]uint64, error) {
	var fn *wasm.Function
	for _, f := range m.mod.Funcs {
		if f.Export == name || (fn == nil && f.Name == name) {
			fn = f
		}
	}
	if fn == nil {
		return nil, fmt.Errorf("no function named %q", name)
	}
	if len(args) != len(fn.Params) {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", name, len(fn.Params), len(args))
	}
	m.steps = 0
	m.depth = 0
	return m.call(fn, args)
}

func (m *Machine) call(fn *wasm.Function, args []uint64) ([]uint64, error) {
	if fn.IsImport() {
		if fn.Host == nil {
			return nil, trapf("unresolved import %s.%s", fn.Import.Module, fn.Import.Name)
		}
		results, err := fn.Host(m, args)
		if err != nil {
			return nil, err
		}
		if len(results) != len(fn.Results) {
			return nil, trapf("host function %s returned %d values, expected %d", fn.Name, len(results), len(fn.Results))
		}
		return results, nil
	}

	m.depth++
	defer func() { m.depth-- }()
	if m.depth > maxCallDepth {
		return nil, trapf("call stack exhausted")
	}

	fr := &frame{locals: make([]uint64, fn.NumLocals()), fn: fn}
	copy(fr.locals, args)
	if _, err := m.exec(fr, fn.Body); err != nil {
		return nil, err
	}
	n := len(fn.Results)
	if len(fr.stack) < n {
		return nil, trapf("function %s ended with %d values, expected %d", fn.Name, len(fr.stack), n)
	}
	return append([]uint64(nil), fr.stack[len(fr.stack)-n:]...), nil
}

type frame struct {
	fn     *wasm.Function
	locals []uint64
	stack  []uint64
}

func (f *frame) push(v uint64) {
	f.stack = append(f.stack, v)
}

func (f *frame) pop() uint64 {
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v
}

func (f *frame) popN(n int) []uint64 {
	vals := append([]uint64(nil), f.stack[len(f.stack)-n:]...)
	f.stack = f.stack[:len(f.stack)-n]
	return vals
}

// keep truncates the stack to base and re-pushes its top n values
func (f *frame) keep(base, n int) {
	vals := f.popN(n)
	f.stack = append(f.stack[:base], vals...)
}

type ctlKind int

const (
	ctlNext ctlKind = iota
	ctlBranch
	ctlReturn
)

type control struct {
	kind   ctlKind
	target wasm.SeqID
}

// block runs a structured sequence and resolves branches that target it
func (m *Machine) block(fr *frame, id wasm.SeqID, isLoop bool) (control, error) {
	seq := m.mod.Seq(id)
	base := len(fr.stack) - len(seq.Params)
	for {
		ctl, err := m.exec(fr, id)
		if err != nil {
			return control{}, err
		}
		if ctl.kind == ctlBranch && ctl.target == id {
			if isLoop {
				fr.keep(base, len(seq.Params))
				continue
			}
			fr.keep(base, len(seq.Results))
			return control{}, nil
		}
		return ctl, nil
	}
}

func (m *Machine) exec(fr *frame, id wasm.SeqID) (control, error) {
	for _, in := range m.mod.Seq(id).Instrs {
		m.steps++
		if m.maxSteps > 0 && m.steps > m.maxSteps {
			return control{}, trapf("instruction budget of %d exhausted", m.maxSteps)
		}

		switch in.Op {
		case wasm.OpUnreachable:
			return control{}, trapf("unreachable executed")
		case wasm.OpBlock, wasm.OpLoop:
			ctl, err := m.block(fr, in.Seq, in.Op == wasm.OpLoop)
			if err != nil || ctl.kind != ctlNext {
				return ctl, err
			}
		case wasm.OpIfElse:
			target := in.Seq
			if uint32(fr.pop()) == 0 {
				target = in.Alt
			}
			ctl, err := m.block(fr, target, false)
			if err != nil || ctl.kind != ctlNext {
				return ctl, err
			}
		case wasm.OpBr:
			return control{kind: ctlBranch, target: in.Seq}, nil
		case wasm.OpBrIf:
			if uint32(fr.pop()) != 0 {
				return control{kind: ctlBranch, target: in.Seq}, nil
			}
		case wasm.OpReturn:
			n := len(fr.fn.Results)
			fr.stack = fr.popN(n)
			return control{kind: ctlReturn}, nil
		case wasm.OpCall:
			callee := m.mod.Func(in.Func)
			args := fr.popN(len(callee.Params))
			results, err := m.call(callee, args)
			if err != nil {
				return control{}, err
			}
			fr.stack = append(fr.stack, results...)
		case wasm.OpDrop:
			fr.pop()
		case wasm.OpLocalGet:
			fr.push(fr.locals[in.Local])
		case wasm.OpLocalSet:
			fr.locals[in.Local] = fr.pop()
		case wasm.OpLocalTee:
			fr.locals[in.Local] = fr.stack[len(fr.stack)-1]
		case wasm.OpGlobalGet:
			fr.push(m.globals[in.Global])
		case wasm.OpGlobalSet:
			m.globals[in.Global] = fr.pop()
		case wasm.OpI32Load, wasm.OpI64Load:
			size := uint64(4)
			if in.Op == wasm.OpI64Load {
				size = 8
			}
			addr, err := m.address(fr.pop(), in.Offset, size)
			if err != nil {
				return control{}, err
			}
			if size == 4 {
				fr.push(uint64(binary.LittleEndian.Uint32(m.memory[addr:])))
			} else {
				fr.push(binary.LittleEndian.Uint64(m.memory[addr:]))
			}
		case wasm.OpI32Store, wasm.OpI64Store:
			val := fr.pop()
			size := uint64(4)
			if in.Op == wasm.OpI64Store {
				size = 8
			}
			addr, err := m.address(fr.pop(), in.Offset, size)
			if err != nil {
				return control{}, err
			}
			if size == 4 {
				binary.LittleEndian.PutUint32(m.memory[addr:], uint32(val))
			} else {
				binary.LittleEndian.PutUint64(m.memory[addr:], val)
			}
		case wasm.OpMemoryCopy:
			n := uint64(uint32(fr.pop()))
			src := uint64(uint32(fr.pop()))
			dst := uint64(uint32(fr.pop()))
			if src+n > uint64(len(m.memory)) || dst+n > uint64(len(m.memory)) {
				return control{}, trapf("out of bounds memory access")
			}
			copy(m.memory[dst:dst+n], m.memory[src:src+n])
		case wasm.OpI32Const, wasm.OpI64Const:
			fr.push(fromConst(valTypeOfConst(in.Op), in.Value))
		case wasm.OpI32Eqz:
			fr.push(boolValue(uint32(fr.pop()) == 0))
		case wasm.OpI64ExtendI32U:
			fr.push(uint64(uint32(fr.pop())))
		default:
			b := uint32(fr.pop())
			a := uint32(fr.pop())
			v, err := i32Binop(in.Op, a, b)
			if err != nil {
				return control{}, err
			}
			fr.push(uint64(v))
		}
	}
	return control{}, nil
}

func valTypeOfConst(op wasm.Opcode) wasm.ValType {
	if op == wasm.OpI64Const {
		return wasm.I64
	}
	return wasm.I32
}

func boolValue(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (m *Machine) address(base uint64, offset uint32, size uint64) (uint64, error) {
	addr := uint64(uint32(base)) + uint64(offset)
	if addr+size > uint64(len(m.memory)) {
		return 0, trapf("out of bounds memory access at %d", addr)
	}
	return addr, nil
}

func i32Binop(op wasm.Opcode, a, b uint32) (uint32, error) {
	switch op {
	case wasm.OpI32Eq:
		return uint32(boolValue(a == b)), nil
	case wasm.OpI32Ne:
		return uint32(boolValue(a != b)), nil
	case wasm.OpI32LtU:
		return uint32(boolValue(a < b)), nil
	case wasm.OpI32GeU:
		return uint32(boolValue(a >= b)), nil
	case wasm.OpI32Add:
		return a + b, nil
	case wasm.OpI32Sub:
		return a - b, nil
	case wasm.OpI32Mul:
		return a * b, nil
	case wasm.OpI32DivU:
		if b == 0 {
			return 0, trapf("integer divide by zero")
		}
		return a / b, nil
	case wasm.OpI32And:
		return a & b, nil
	case wasm.OpI32Or:
		return a | b, nil
	}
	return 0, trapf("unsupported opcode %s", op)
}
