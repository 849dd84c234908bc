package wasm

// WASM binary format constants
var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6D} // \0asm
var wasmVersion = []byte{0x01, 0x00, 0x00, 0x00}

// Section IDs
const (
	sectionType     byte = 1
	sectionImport   byte = 2
	sectionFunction byte = 3
	sectionMemory   byte = 5
	sectionGlobal   byte = 6
	sectionExport   byte = 7
	sectionCode     byte = 10
	sectionData     byte = 11
)

// Import/export kinds
const (
	externFunc   byte = 0x00
	externMemory byte = 0x02
)

const (
	funcTypeTag byte = 0x60
	blockEmpty  byte = 0x40
	opElse      byte = 0x05
	opEnd       byte = 0x0B
	prefixFC    byte = 0xFC
)

// encodeLEB128U encodes an unsigned integer as unsigned LEB128.
func encodeLEB128U(value uint64) []byte {
	var result []byte
	for {
		b := byte(value & 0x7F)
		value >>= 7
		if value != 0 {
			b |= 0x80
		}
		result = append(result, b)
		if value == 0 {
			return result
		}
	}
}

// encodeLEB128S encodes a signed integer as signed LEB128.
func encodeLEB128S(value int64) []byte {
	var result []byte
	more := true
	for more {
		b := byte(value & 0x7F)
		value >>= 7
		if (value == 0 && b&0x40 == 0) || (value == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		result = append(result, b)
	}
	return result
}

// encodeString encodes a name with its length prefix.
func encodeString(s string) []byte {
	result := encodeLEB128U(uint64(len(s)))
	return append(result, s...)
}

// encodeSection encodes a section with its ID and length prefix.
func encodeSection(id byte, contents []byte) []byte {
	result := []byte{id}
	result = append(result, encodeLEB128U(uint64(len(contents)))...)
	return append(result, contents...)
}

// encodeVector encodes a vector of items with a count prefix.
func encodeVector(count int, items []byte) []byte {
	result := encodeLEB128U(uint64(count))
	return append(result, items...)
}

func encodeValTypes(types []ValType) []byte {
	out := encodeLEB128U(uint64(len(types)))
	for _, t := range types {
		out = append(out, byte(t))
	}
	return out
}

type localGroup struct {
	count int
	vtype ValType
}

// compactLocals groups consecutive same-type locals for the code section
func compactLocals(types []ValType) []localGroup {
	var groups []localGroup
	for _, t := range types {
		if n := len(groups); n > 0 && groups[n-1].vtype == t {
			groups[n-1].count++
			continue
		}
		groups = append(groups, localGroup{count: 1, vtype: t})
	}
	return groups
}
