package wasm

import "fmt"

// funcSig is a function type signature
type funcSig struct {
	params  []ValType
	results []ValType
}

type encoder struct {
	mod       *Module
	types     []funcSig
	typeCache map[string]int
}

// Encode produces the binary form of the module
func Encode(m *Module) ([]byte, error) {
	e := &encoder{mod: m, typeCache: make(map[string]int)}

	// Function signatures come first so that their indices are stable.
	for _, fn := range m.Funcs {
		e.typeIndex(fn.Params, fn.Results)
	}

	code, err := e.codeSection()
	if err != nil {
		return nil, err
	}

	var out []byte
	out = append(out, wasmMagic...)
	out = append(out, wasmVersion...)
	out = append(out, e.typeSection()...)
	out = append(out, e.importSection()...)
	out = append(out, e.functionSection()...)
	out = append(out, e.memorySection()...)
	if len(m.Globals) > 0 {
		out = append(out, e.globalSection()...)
	}
	out = append(out, e.exportSection()...)
	out = append(out, code...)
	if len(m.Data) > 0 {
		out = append(out, e.dataSection()...)
	}
	return out, nil
}

// typeIndex returns the type section index for a given signature, adding it if new.
func (e *encoder) typeIndex(params, results []ValType) int {
	key := sigKey(params, results)
	if idx, ok := e.typeCache[key]; ok {
		return idx
	}
	idx := len(e.types)
	e.types = append(e.types, funcSig{params: params, results: results})
	e.typeCache[key] = idx
	return idx
}

func sigKey(params, results []ValType) string {
	key := make([]byte, 0, len(params)+len(results)+1)
	for _, p := range params {
		key = append(key, byte(p))
	}
	key = append(key, '|')
	for _, r := range results {
		key = append(key, byte(r))
	}
	return string(key)
}

func (e *encoder) typeSection() []byte {
	var contents []byte
	for _, sig := range e.types {
		contents = append(contents, funcTypeTag)
		contents = append(contents, encodeValTypes(sig.params)...)
		contents = append(contents, encodeValTypes(sig.results)...)
	}
	return encodeSection(sectionType, encodeVector(len(e.types), contents))
}

func (e *encoder) importSection() []byte {
	var contents []byte
	count := 0
	for _, fn := range e.mod.Funcs {
		if !fn.IsImport() {
			continue
		}
		contents = append(contents, encodeString(fn.Import.Module)...)
		contents = append(contents, encodeString(fn.Import.Name)...)
		contents = append(contents, externFunc)
		contents = append(contents, encodeLEB128U(uint64(e.typeIndex(fn.Params, fn.Results)))...)
		count++
	}
	return encodeSection(sectionImport, encodeVector(count, contents))
}

func (e *encoder) functionSection() []byte {
	var contents []byte
	count := 0
	for _, fn := range e.mod.Funcs {
		if fn.IsImport() {
			continue
		}
		contents = append(contents, encodeLEB128U(uint64(e.typeIndex(fn.Params, fn.Results)))...)
		count++
	}
	return encodeSection(sectionFunction, encodeVector(count, contents))
}

func (e *encoder) memorySection() []byte {
	// limits: flags=0 (no max), min pages
	contents := []byte{0x00}
	contents = append(contents, encodeLEB128U(uint64(e.mod.MemoryPages))...)
	return encodeSection(sectionMemory, encodeVector(1, contents))
}

func (e *encoder) globalSection() []byte {
	var contents []byte
	for _, g := range e.mod.Globals {
		contents = append(contents, byte(g.Type))
		if g.Mutable {
			contents = append(contents, 0x01)
		} else {
			contents = append(contents, 0x00)
		}
		if g.Type == I64 {
			contents = append(contents, byte(OpI64Const))
		} else {
			contents = append(contents, byte(OpI32Const))
		}
		contents = append(contents, encodeLEB128S(g.Init)...)
		contents = append(contents, opEnd)
	}
	return encodeSection(sectionGlobal, encodeVector(len(e.mod.Globals), contents))
}

func (e *encoder) exportSection() []byte {
	var contents []byte
	count := 0
	for _, fn := range e.mod.Funcs {
		if fn.Export == "" {
			continue
		}
		contents = append(contents, encodeString(fn.Export)...)
		contents = append(contents, externFunc)
		contents = append(contents, encodeLEB128U(uint64(fn.ID))...)
		count++
	}

	contents = append(contents, encodeString("memory")...)
	contents = append(contents, externMemory)
	contents = append(contents, encodeLEB128U(0)...)
	count++

	return encodeSection(sectionExport, encodeVector(count, contents))
}

func (e *encoder) codeSection() ([]byte, error) {
	var contents []byte
	count := 0
	for _, fn := range e.mod.Funcs {
		if fn.IsImport() {
			continue
		}
		body, err := e.functionBody(fn)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", fn.Name, err)
		}
		contents = append(contents, encodeLEB128U(uint64(len(body)))...)
		contents = append(contents, body...)
		count++
	}
	return encodeSection(sectionCode, encodeVector(count, contents)), nil
}

func (e *encoder) dataSection() []byte {
	var contents []byte
	for _, seg := range e.mod.Data {
		contents = append(contents, 0x00) // active segment, memory 0
		contents = append(contents, byte(OpI32Const))
		contents = append(contents, encodeLEB128S(int64(int32(seg.Offset)))...)
		contents = append(contents, opEnd)
		contents = append(contents, encodeLEB128U(uint64(len(seg.Data)))...)
		contents = append(contents, seg.Data...)
	}
	return encodeSection(sectionData, encodeVector(len(e.mod.Data), contents))
}

func (e *encoder) functionBody(fn *Function) ([]byte, error) {
	groups := compactLocals(fn.Locals)
	out := encodeLEB128U(uint64(len(groups)))
	for _, g := range groups {
		out = append(out, encodeLEB128U(uint64(g.count))...)
		out = append(out, byte(g.vtype))
	}

	body, err := e.seqBody(fn.Body, []SeqID{fn.Body})
	if err != nil {
		return nil, err
	}
	out = append(out, body...)
	return append(out, opEnd), nil
}

// blockType encodes the type of a structured block: empty, a single
// result, or an index into the type section for anything wider.
func (e *encoder) blockType(seq *InstrSeq) []byte {
	if len(seq.Params) == 0 {
		switch len(seq.Results) {
		case 0:
			return []byte{blockEmpty}
		case 1:
			return []byte{byte(seq.Results[0])}
		}
	}
	return encodeLEB128S(int64(e.typeIndex(seq.Params, seq.Results)))
}

// seqBody encodes the instructions of a sequence. labels holds the
// enclosing branch targets, innermost last.
func (e *encoder) seqBody(id SeqID, labels []SeqID) ([]byte, error) {
	var out []byte
	for _, in := range e.mod.Seq(id).Instrs {
		switch in.Op {
		case OpBlock, OpLoop:
			out = append(out, byte(in.Op))
			out = append(out, e.blockType(e.mod.Seq(in.Seq))...)
			inner, err := e.seqBody(in.Seq, append(labels, in.Seq))
			if err != nil {
				return nil, err
			}
			out = append(out, inner...)
			out = append(out, opEnd)
		case OpIfElse:
			out = append(out, byte(in.Op))
			out = append(out, e.blockType(e.mod.Seq(in.Seq))...)
			cons, err := e.seqBody(in.Seq, append(labels, in.Seq))
			if err != nil {
				return nil, err
			}
			alt, err := e.seqBody(in.Alt, append(labels, in.Alt))
			if err != nil {
				return nil, err
			}
			out = append(out, cons...)
			out = append(out, opElse)
			out = append(out, alt...)
			out = append(out, opEnd)
		case OpBr, OpBrIf:
			depth := -1
			for i := len(labels) - 1; i >= 0; i-- {
				if labels[i] == in.Seq {
					depth = len(labels) - 1 - i
					break
				}
			}
			if depth < 0 {
				return nil, fmt.Errorf("branch to sequence %d outside its scope", in.Seq)
			}
			out = append(out, byte(in.Op))
			out = append(out, encodeLEB128U(uint64(depth))...)
		case OpCall:
			out = append(out, byte(in.Op))
			out = append(out, encodeLEB128U(uint64(in.Func))...)
		case OpLocalGet, OpLocalSet, OpLocalTee:
			out = append(out, byte(in.Op))
			out = append(out, encodeLEB128U(uint64(in.Local))...)
		case OpGlobalGet, OpGlobalSet:
			out = append(out, byte(in.Op))
			out = append(out, encodeLEB128U(uint64(in.Global))...)
		case OpI32Const:
			out = append(out, byte(in.Op))
			out = append(out, encodeLEB128S(int64(int32(in.Value)))...)
		case OpI64Const:
			out = append(out, byte(in.Op))
			out = append(out, encodeLEB128S(in.Value)...)
		case OpI32Load, OpI32Store:
			out = append(out, byte(in.Op), 0x02)
			out = append(out, encodeLEB128U(uint64(in.Offset))...)
		case OpI64Load, OpI64Store:
			out = append(out, byte(in.Op), 0x03)
			out = append(out, encodeLEB128U(uint64(in.Offset))...)
		case OpMemoryCopy:
			out = append(out, prefixFC)
			out = append(out, encodeLEB128U(uint64(in.Op&0xFF))...)
			out = append(out, 0x00, 0x00)
		default:
			if in.Op > 0xFF {
				return nil, fmt.Errorf("cannot encode %s", in.Op)
			}
			out = append(out, byte(in.Op))
		}
	}
	return out, nil
}
