package wasm

import "fmt"

// ValType is a WebAssembly value type
type ValType byte

const (
	I32 ValType = 0x7F
	I64 ValType = 0x7E
)

// String returns the text-format name of the value type
func (v ValType) String() string {
	switch v {
	case I32:
		return "i32"
	case I64:
		return "i64"
	default:
		return fmt.Sprintf("valtype(0x%02x)", byte(v))
	}
}

// Identifiers into a Module's arenas
type (
	FuncID   uint32
	LocalID  uint32
	GlobalID uint32
	SeqID    uint32
)

// Opcode is an instruction opcode. Values above 0xFF carry the 0xFC prefix
// in their high byte.
type Opcode uint16

// Opcodes
const (
	// Control
	OpUnreachable Opcode = 0x00
	OpBlock       Opcode = 0x02
	OpLoop        Opcode = 0x03
	OpIfElse      Opcode = 0x04
	OpBr          Opcode = 0x0C
	OpBrIf        Opcode = 0x0D
	OpReturn      Opcode = 0x0F
	OpCall        Opcode = 0x10
	OpDrop        Opcode = 0x1A

	// Variables
	OpLocalGet  Opcode = 0x20
	OpLocalSet  Opcode = 0x21
	OpLocalTee  Opcode = 0x22
	OpGlobalGet Opcode = 0x23
	OpGlobalSet Opcode = 0x24

	// Memory
	OpI32Load  Opcode = 0x28
	OpI64Load  Opcode = 0x29
	OpI32Store Opcode = 0x36
	OpI64Store Opcode = 0x37

	// Constants
	OpI32Const Opcode = 0x41
	OpI64Const Opcode = 0x42

	// i32 operations
	OpI32Eqz  Opcode = 0x45
	OpI32Eq   Opcode = 0x46
	OpI32Ne   Opcode = 0x47
	OpI32LtU  Opcode = 0x49
	OpI32GeU  Opcode = 0x4F
	OpI32Add  Opcode = 0x6A
	OpI32Sub  Opcode = 0x6B
	OpI32Mul  Opcode = 0x6C
	OpI32DivU Opcode = 0x6E
	OpI32And  Opcode = 0x71
	OpI32Or   Opcode = 0x72

	// Conversions
	OpI64ExtendI32U Opcode = 0xAD

	// Bulk memory
	OpMemoryCopy Opcode = 0xFC0A
)

var opNames = map[Opcode]string{
	OpUnreachable:   "unreachable",
	OpBlock:         "block",
	OpLoop:          "loop",
	OpIfElse:        "if",
	OpBr:            "br",
	OpBrIf:          "br_if",
	OpReturn:        "return",
	OpCall:          "call",
	OpDrop:          "drop",
	OpLocalGet:      "local.get",
	OpLocalSet:      "local.set",
	OpLocalTee:      "local.tee",
	OpGlobalGet:     "global.get",
	OpGlobalSet:     "global.set",
	OpI32Load:       "i32.load",
	OpI64Load:       "i64.load",
	OpI32Store:      "i32.store",
	OpI64Store:      "i64.store",
	OpI32Const:      "i32.const",
	OpI64Const:      "i64.const",
	OpI32Eqz:        "i32.eqz",
	OpI32Eq:         "i32.eq",
	OpI32Ne:         "i32.ne",
	OpI32LtU:        "i32.lt_u",
	OpI32GeU:        "i32.ge_u",
	OpI32Add:        "i32.add",
	OpI32Sub:        "i32.sub",
	OpI32Mul:        "i32.mul",
	OpI32DivU:       "i32.div_u",
	OpI32And:        "i32.and",
	OpI32Or:         "i32.or",
	OpI64ExtendI32U: "i64.extend_i32_u",
	OpMemoryCopy:    "memory.copy",
}

// String returns the text-format mnemonic
func (op Opcode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(0x%x)", uint16(op))
}

// numeric opcodes grouped by stack effect
var (
	i32Binops = map[Opcode]bool{
		OpI32Eq: true, OpI32Ne: true, OpI32LtU: true, OpI32GeU: true,
		OpI32Add: true, OpI32Sub: true, OpI32Mul: true, OpI32DivU: true,
		OpI32And: true, OpI32Or: true,
	}
	loadTypes = map[Opcode]ValType{OpI32Load: I32, OpI64Load: I64}
	storeType = map[Opcode]ValType{OpI32Store: I32, OpI64Store: I64}
)

// Instr is a single instruction. Only the operand fields its opcode uses
// are meaningful.
type Instr struct {
	Op     Opcode
	Value  int64    // i32.const / i64.const
	Local  LocalID  // local.*
	Global GlobalID // global.*
	Func   FuncID   // call
	Seq    SeqID    // block/loop body, if consequent, br/br_if target
	Alt    SeqID    // if alternative
	Offset uint32   // static offset of loads and stores
}

// InstrSeq is a structured instruction sequence with declared input and
// output stack types. Sequences are referenced by block, loop and if
// instructions; one that nothing references yet is dangling.
type InstrSeq struct {
	ID      SeqID
	Params  []ValType
	Results []ValType
	Instrs  []Instr
}
