// Package values renders the flattened result of running generated code
// back into source syntax, such as (ok u10) or (list 3 4).
package values

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/lhaig/clarwasm/internal/checker"
	"github.com/lhaig/clarwasm/internal/stdlib"
)

// Format renders the value of type t held in slots. Sequences are read
// from mem.
func Format(t *checker.Type, slots []uint64, mem []byte) (string, error) {
	d := &decoder{mem: mem}
	s, rest, err := d.format(t, slots)
	if err != nil {
		return "", err
	}
	if len(rest) != 0 {
		return "", fmt.Errorf("%d unused slots after %s", len(rest), t)
	}
	return s, nil
}

type decoder struct {
	mem []byte
}

func (d *decoder) format(t *checker.Type, slots []uint64) (string, []uint64, error) {
	need := slotCount(t)
	if len(slots) < need {
		return "", nil, fmt.Errorf("%s needs %d slots, have %d", t, need, len(slots))
	}

	switch t.Kind {
	case checker.KindNoType:
		return "NoType", slots[1:], nil
	case checker.KindBool:
		return strconv.FormatBool(uint32(slots[0]) != 0), slots[1:], nil
	case checker.KindInt:
		return stdlib.ToBig(slots[0], slots[1], true).String(), slots[2:], nil
	case checker.KindUInt:
		return "u" + stdlib.ToBig(slots[0], slots[1], false).String(), slots[2:], nil
	case checker.KindOptional:
		rest := slots[1+slotCount(t.Inner()):]
		if uint32(slots[0]) == 0 {
			return "none", rest, nil
		}
		inner, _, err := d.format(t.Inner(), slots[1:])
		if err != nil {
			return "", nil, err
		}
		return "(some " + inner + ")", rest, nil
	case checker.KindResponse:
		okSlots := slots[1:]
		errSlots := okSlots[slotCount(t.OkType()):]
		rest := errSlots[slotCount(t.ErrType()):]
		if uint32(slots[0]) != 0 {
			ok, _, err := d.format(t.OkType(), okSlots)
			if err != nil {
				return "", nil, err
			}
			return "(ok " + ok + ")", rest, nil
		}
		e, _, err := d.format(t.ErrType(), errSlots)
		if err != nil {
			return "", nil, err
		}
		return "(err " + e + ")", rest, nil
	}

	data, err := d.region(uint32(slots[0]), uint32(slots[1]))
	if err != nil {
		return "", nil, err
	}
	rest := slots[2:]
	switch t.Kind {
	case checker.KindPrincipal:
		return "'" + string(data), rest, nil
	case checker.KindBuffer:
		return "0x" + hex.EncodeToString(data), rest, nil
	case checker.KindStringASCII:
		return strconv.Quote(string(data)), rest, nil
	case checker.KindStringUTF8:
		if len(data)%4 != 0 {
			return "", nil, fmt.Errorf("utf8 string length %d is not a multiple of 4", len(data))
		}
		var sb strings.Builder
		for i := 0; i < len(data); i += 4 {
			sb.WriteRune(rune(binary.BigEndian.Uint32(data[i:])))
		}
		return "u" + strconv.Quote(sb.String()), rest, nil
	case checker.KindList:
		s, err := d.list(t.ElemType(), data)
		return s, rest, err
	}
	return "", nil, fmt.Errorf("cannot format %s", t)
}

func (d *decoder) list(elem *checker.Type, data []byte) (string, error) {
	size := memorySize(elem)
	if uint32(len(data))%size != 0 {
		return "", fmt.Errorf("list of %d bytes does not hold whole %s elements", len(data), elem)
	}
	parts := []string{"list"}
	for off := uint32(0); off < uint32(len(data)); off += size {
		slots := readSlots(elem, data[off:off+size])
		s, _, err := d.format(elem, slots)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return "(" + strings.Join(parts, " ") + ")", nil
}

func (d *decoder) region(off, n uint32) ([]byte, error) {
	end := uint64(off) + uint64(n)
	if end > uint64(len(d.mem)) {
		return nil, fmt.Errorf("memory region [%d, %d) out of bounds", off, end)
	}
	return d.mem[off:end], nil
}

func slotCount(t *checker.Type) int {
	switch t.Kind {
	case checker.KindInt, checker.KindUInt:
		return 2
	case checker.KindOptional:
		return 1 + slotCount(t.Inner())
	case checker.KindResponse:
		return 1 + slotCount(t.OkType()) + slotCount(t.ErrType())
	case checker.KindPrincipal, checker.KindList, checker.KindBuffer,
		checker.KindStringASCII, checker.KindStringUTF8:
		return 2
	default:
		return 1
	}
}

// memorySize mirrors the in-memory layout used by generated code
func memorySize(t *checker.Type) uint32 {
	switch t.Kind {
	case checker.KindInt, checker.KindUInt:
		return 16
	case checker.KindOptional:
		return 4 + memorySize(t.Inner())
	case checker.KindResponse:
		return 4 + memorySize(t.OkType()) + memorySize(t.ErrType())
	case checker.KindPrincipal, checker.KindList, checker.KindBuffer,
		checker.KindStringASCII, checker.KindStringUTF8:
		return 8
	default:
		return 4
	}
}

// readSlots loads the slots of a value of type t laid out in data
func readSlots(t *checker.Type, data []byte) []uint64 {
	switch t.Kind {
	case checker.KindInt, checker.KindUInt:
		return []uint64{binary.LittleEndian.Uint64(data), binary.LittleEndian.Uint64(data[8:])}
	case checker.KindOptional:
		return append([]uint64{uint64(binary.LittleEndian.Uint32(data))}, readSlots(t.Inner(), data[4:])...)
	case checker.KindResponse:
		slots := []uint64{uint64(binary.LittleEndian.Uint32(data))}
		slots = append(slots, readSlots(t.OkType(), data[4:])...)
		return append(slots, readSlots(t.ErrType(), data[4+memorySize(t.OkType()):])...)
	case checker.KindPrincipal, checker.KindList, checker.KindBuffer,
		checker.KindStringASCII, checker.KindStringUTF8:
		return []uint64{uint64(binary.LittleEndian.Uint32(data)), uint64(binary.LittleEndian.Uint32(data[4:]))}
	default:
		return []uint64{uint64(binary.LittleEndian.Uint32(data))}
	}
}
