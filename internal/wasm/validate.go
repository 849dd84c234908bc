package wasm

import (
	"fmt"
)

// Validate type-checks every defined function's instruction sequences and
// returns a list of error messages. An empty slice indicates the module is valid.
func Validate(m *Module) []string {
	var errors []string

	seenDefined := false
	for _, fn := range m.Funcs {
		if fn.IsImport() {
			if seenDefined {
				errors = append(errors, fmt.Sprintf("import %s follows a defined function", fn.Name))
			}
			continue
		}
		seenDefined = true
		v := &validator{mod: m, fn: fn}
		v.checkSeq(fn.Body, []label{{seq: fn.Body, arity: fn.Results}})
		errors = append(errors, v.errors...)
	}

	for _, g := range m.Globals {
		if g.Type != I32 && g.Type != I64 {
			errors = append(errors, fmt.Sprintf("global %d has invalid type %s", g.ID, g.Type))
		}
	}
	return errors
}

type label struct {
	seq   SeqID
	arity []ValType
}

type validator struct {
	mod    *Module
	fn     *Function
	errors []string
}

func (v *validator) errorf(seq SeqID, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	v.errors = append(v.errors, fmt.Sprintf("function %s: seq %d: %s", v.fn.Name, seq, msg))
}

// operand stack of one sequence
type stack struct {
	types []ValType
	v     *validator
	seq   SeqID
	bad   bool
}

func (s *stack) push(types ...ValType) {
	s.types = append(s.types, types...)
}

// pop removes the expected types from the top of the stack
func (s *stack) pop(want ...ValType) bool {
	if len(s.types) < len(want) {
		s.v.errorf(s.seq, "stack underflow: need %v, have %v", want, s.types)
		s.bad = true
		return false
	}
	top := s.types[len(s.types)-len(want):]
	for i := range want {
		if top[i] != want[i] {
			s.v.errorf(s.seq, "type mismatch: need %v on top of stack, have %v", want, s.types)
			s.bad = true
			return false
		}
	}
	s.types = s.types[:len(s.types)-len(want)]
	return true
}

func sameTypes(a, b []ValType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// checkSeq validates one sequence and reports whether it ends by
// unconditionally transferring control (return, br or unreachable).
func (v *validator) checkSeq(id SeqID, labels []label) (diverges bool) {
	if int(id) >= v.mod.NumSeqs() {
		v.errorf(id, "unknown sequence")
		return false
	}
	seq := v.mod.Seq(id)
	st := &stack{types: append([]ValType(nil), seq.Params...), v: v, seq: id}

	for _, in := range seq.Instrs {
		if st.bad {
			return false
		}
		switch in.Op {
		case OpUnreachable:
			return true
		case OpReturn:
			st.pop(v.fn.Results...)
			return true
		case OpBr:
			if l, ok := v.findLabel(labels, in.Seq); ok {
				st.pop(l.arity...)
			}
			return true
		case OpBrIf:
			st.pop(I32)
			if l, ok := v.findLabel(labels, in.Seq); ok && st.pop(l.arity...) {
				st.push(l.arity...)
			}
		case OpBlock, OpLoop:
			body := v.mod.Seq(in.Seq)
			if !st.pop(body.Params...) {
				continue
			}
			arity := body.Results
			if in.Op == OpLoop {
				arity = body.Params
			}
			v.checkSeq(in.Seq, append(labels, label{seq: in.Seq, arity: arity}))
			st.push(body.Results...)
		case OpIfElse:
			st.pop(I32)
			cons, alt := v.mod.Seq(in.Seq), v.mod.Seq(in.Alt)
			if !st.pop(cons.Params...) {
				continue
			}
			v.checkSeq(in.Seq, append(labels, label{seq: in.Seq, arity: cons.Results}))
			altDiverges := v.checkSeq(in.Alt, append(labels, label{seq: in.Alt, arity: alt.Results}))
			if !altDiverges && (!sameTypes(cons.Params, alt.Params) || !sameTypes(cons.Results, alt.Results)) {
				v.errorf(id, "if branches disagree: consequent %v -> %v, alternative %v -> %v",
					cons.Params, cons.Results, alt.Params, alt.Results)
			}
			st.push(cons.Results...)
		case OpCall:
			if int(in.Func) >= len(v.mod.Funcs) {
				v.errorf(id, "call to unknown function %d", in.Func)
				return false
			}
			callee := v.mod.Func(in.Func)
			if st.pop(callee.Params...) {
				st.push(callee.Results...)
			}
		case OpDrop:
			if len(st.types) == 0 {
				v.errorf(id, "drop on empty stack")
				return false
			}
			st.types = st.types[:len(st.types)-1]
		case OpLocalGet, OpLocalSet, OpLocalTee:
			vt, ok := v.fn.LocalType(in.Local)
			if !ok {
				v.errorf(id, "unknown local %d", in.Local)
				return false
			}
			switch in.Op {
			case OpLocalGet:
				st.push(vt)
			case OpLocalSet:
				st.pop(vt)
			default:
				if st.pop(vt) {
					st.push(vt)
				}
			}
		case OpGlobalGet, OpGlobalSet:
			if int(in.Global) >= len(v.mod.Globals) {
				v.errorf(id, "unknown global %d", in.Global)
				return false
			}
			g := v.mod.Globals[in.Global]
			if in.Op == OpGlobalGet {
				st.push(g.Type)
			} else {
				if !g.Mutable {
					v.errorf(id, "global.set on immutable global %d", in.Global)
				}
				st.pop(g.Type)
			}
		case OpI32Load, OpI64Load:
			if st.pop(I32) {
				st.push(loadTypes[in.Op])
			}
		case OpI32Store, OpI64Store:
			st.pop(I32, storeType[in.Op])
		case OpI32Const:
			st.push(I32)
		case OpI64Const:
			st.push(I64)
		case OpI32Eqz:
			if st.pop(I32) {
				st.push(I32)
			}
		case OpI64ExtendI32U:
			if st.pop(I32) {
				st.push(I64)
			}
		case OpMemoryCopy:
			st.pop(I32, I32, I32)
		default:
			if i32Binops[in.Op] {
				if st.pop(I32, I32) {
					st.push(I32)
				}
				continue
			}
			v.errorf(id, "unsupported opcode %s", in.Op)
			return false
		}
	}

	if !st.bad && !sameTypes(st.types, seq.Results) {
		v.errorf(id, "sequence leaves %v on the stack, declared %v", st.types, seq.Results)
	}
	return false
}

func (v *validator) findLabel(labels []label, target SeqID) (label, bool) {
	for i := len(labels) - 1; i >= 0; i-- {
		if labels[i].seq == target {
			return labels[i], true
		}
	}
	v.errorf(target, "branch target is not an enclosing block")
	return label{}, false
}
