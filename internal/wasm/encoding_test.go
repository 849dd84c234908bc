package wasm

import (
	"bytes"
	"strings"
	"testing"
)

func TestLEB128(t *testing.T) {
	unsigned := []struct {
		in   uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{624485, []byte{0xE5, 0x8E, 0x26}},
	}
	for _, tt := range unsigned {
		if got := encodeLEB128U(tt.in); !bytes.Equal(got, tt.want) {
			t.Errorf("encodeLEB128U(%d) = %x, want %x", tt.in, got, tt.want)
		}
	}

	signed := []struct {
		in   int64
		want []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0x7F}},
		{63, []byte{0x3F}},
		{64, []byte{0xC0, 0x00}},
		{-123456, []byte{0xC0, 0xBB, 0x78}},
	}
	for _, tt := range signed {
		if got := encodeLEB128S(tt.in); !bytes.Equal(got, tt.want) {
			t.Errorf("encodeLEB128S(%d) = %x, want %x", tt.in, got, tt.want)
		}
	}
}

func TestCompactLocals(t *testing.T) {
	groups := compactLocals([]ValType{I32, I32, I64, I64, I64, I32})
	want := []localGroup{{2, I32}, {3, I64}, {1, I32}}
	if len(groups) != len(want) {
		t.Fatalf("got %d groups, want %d", len(groups), len(want))
	}
	for i := range want {
		if groups[i] != want[i] {
			t.Errorf("group %d = %+v, want %+v", i, groups[i], want[i])
		}
	}
}

func TestEncodeMinimalModule(t *testing.T) {
	m := NewModule(1, 1024)
	fb, err := m.NewFunction("answer", nil, []ValType{I32})
	if err != nil {
		t.Fatal(err)
	}
	fb.Body().I32Const(42)
	m.Export(fb.Func().ID, "answer")

	got, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var want []byte
	want = append(want, 0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00)
	want = append(want, 0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7F)
	want = append(want, 0x02, 0x01, 0x00)
	want = append(want, 0x03, 0x02, 0x01, 0x00)
	want = append(want, 0x05, 0x03, 0x01, 0x00, 0x01)
	want = append(want, 0x07, 0x13, 0x02)
	want = append(want, 0x06, 'a', 'n', 's', 'w', 'e', 'r', 0x00, 0x00)
	want = append(want, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00)
	want = append(want, 0x0A, 0x06, 0x01, 0x04, 0x00, 0x41, 0x2A, 0x0B)

	if !bytes.Equal(got, want) {
		t.Errorf("encoding mismatch\n got: % x\nwant: % x", got, want)
	}
}

func TestEncodeLoopBranchDepth(t *testing.T) {
	m := NewModule(1, 0)
	fb, _ := m.NewFunction("spin", nil, nil)
	loop := fb.Dangling(nil, nil)
	inner := fb.Dangling(nil, nil)
	inner.I32Const(1).BrIf(loop.ID())
	empty := fb.Dangling(nil, nil)
	loop.I32Const(0).IfElse(inner.ID(), empty.ID())
	fb.Body().Loop(loop.ID())

	got, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// loop void; i32.const 0; if void; i32.const 1; br_if 1; else; end; end
	body := []byte{0x03, 0x40, 0x41, 0x00, 0x04, 0x40, 0x41, 0x01, 0x0D, 0x01, 0x05, 0x0B, 0x0B, 0x0B}
	if !bytes.Contains(got, body) {
		t.Errorf("expected body % x in % x", body, got)
	}
}

func TestEncodeMultiValueBlockUsesTypeIndex(t *testing.T) {
	m := NewModule(1, 0)
	pair := []ValType{I64, I64}
	fb, _ := m.NewFunction("pair", nil, pair)
	cons := fb.Dangling(nil, pair)
	cons.I64Const(1).I64Const(0)
	alt := fb.Dangling(nil, pair)
	alt.I64Const(2).I64Const(0)
	fb.Body().I32Const(1).IfElse(cons.ID(), alt.ID())

	got, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// the block type is index 0, shared with the function signature
	if !bytes.Contains(got, []byte{0x41, 0x01, 0x04, 0x00, 0x42, 0x01, 0x42, 0x00, 0x05}) {
		t.Errorf("multi-value if not encoded with a type index: % x", got)
	}
}

func TestEncodeBranchOutsideScope(t *testing.T) {
	m := NewModule(1, 0)
	fb, _ := m.NewFunction("bad", nil, nil)
	stray := fb.Dangling(nil, nil)
	fb.Body().I32Const(0).BrIf(stray.ID())
	if _, err := Encode(m); err == nil {
		t.Fatal("expected an error for a branch to a non-enclosing sequence")
	}
}

func TestEncodeImportsGlobalsData(t *testing.T) {
	m := NewModule(2, 1024)
	host, err := m.AddImport("clarity", "stdlib.runtime-error", []ValType{I32}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	m.AddGlobal(I32, true, 2048)
	off := m.AddData([]byte("ab"))
	if off != 1024 || m.DataEnd() != 1026 {
		t.Errorf("data placed at %d, end %d", off, m.DataEnd())
	}
	fb, _ := m.NewFunction("trap", nil, nil)
	fb.Body().I32Const(1).Call(host).Unreachable()

	if _, err := m.AddImport("clarity", "late", nil, nil, nil); err == nil {
		t.Error("imports after defined functions must be rejected")
	}

	got, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	name := encodeString("stdlib.runtime-error")
	if !bytes.Contains(got, name) {
		t.Error("import name missing")
	}
	// mutable i32 global initialised to 2048
	if !bytes.Contains(got, []byte{0x06, 0x07, 0x01, 0x7F, 0x01, 0x41, 0x80, 0x10, 0x0B}) {
		t.Errorf("global section missing: % x", got)
	}
	// active data segment at 1024
	if !bytes.Contains(got, []byte{0x0B, 0x09, 0x01, 0x00, 0x41, 0x80, 0x08, 0x0B, 0x02, 'a', 'b'}) {
		t.Errorf("data section missing: % x", got)
	}
}

func TestText(t *testing.T) {
	m := NewModule(1, 0)
	fb, _ := m.NewFunction("pick", []ValType{I32}, []ValType{I32})
	cons := fb.Dangling(nil, []ValType{I32})
	cons.I32Const(7)
	alt := fb.Dangling(nil, []ValType{I32})
	alt.I32Const(9)
	fb.Body().LocalGet(fb.Param(0)).IfElse(cons.ID(), alt.ID())
	m.Export(fb.Func().ID, "pick")

	out := Text(m)
	for _, want := range []string{
		`(func $pick (export "pick") (param i32) (result i32)`,
		"local.get 0",
		"if $s1 (result i32)",
		"i32.const 7",
		"else $s2",
		"i32.const 9",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Text() missing %q:\n%s", want, out)
		}
	}
}
