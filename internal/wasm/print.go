package wasm

import (
	"fmt"
	"strings"
)

// Text renders the module in the WebAssembly text format
func Text(m *Module) string {
	var sb strings.Builder
	sb.WriteString("(module\n")

	for _, fn := range m.Funcs {
		if !fn.IsImport() {
			continue
		}
		fmt.Fprintf(&sb, "  (import %q %q (func $%s%s))\n",
			fn.Import.Module, fn.Import.Name, fn.Name, signature(fn.Params, fn.Results))
	}

	fmt.Fprintf(&sb, "  (memory (export \"memory\") %d)\n", m.MemoryPages)

	for _, g := range m.Globals {
		typ := g.Type.String()
		if g.Mutable {
			typ = "(mut " + typ + ")"
		}
		fmt.Fprintf(&sb, "  (global $g%d %s (%s.const %d))\n", g.ID, typ, g.Type, g.Init)
	}

	for _, fn := range m.Funcs {
		if fn.IsImport() {
			continue
		}
		fmt.Fprintf(&sb, "  (func $%s", fn.Name)
		if fn.Export != "" {
			fmt.Fprintf(&sb, " (export %q)", fn.Export)
		}
		sb.WriteString(signature(fn.Params, fn.Results))
		if len(fn.Locals) > 0 {
			sb.WriteString(" (local")
			for _, l := range fn.Locals {
				sb.WriteString(" " + l.String())
			}
			sb.WriteString(")")
		}
		sb.WriteString("\n")
		printSeq(&sb, m, fn.Body, 2)
		sb.WriteString("  )\n")
	}

	for _, seg := range m.Data {
		fmt.Fprintf(&sb, "  (data (i32.const %d) \"", seg.Offset)
		for _, b := range seg.Data {
			fmt.Fprintf(&sb, "\\%02x", b)
		}
		sb.WriteString("\")\n")
	}

	sb.WriteString(")\n")
	return sb.String()
}

func signature(params, results []ValType) string {
	var sb strings.Builder
	if len(params) > 0 {
		sb.WriteString(" (param")
		for _, p := range params {
			sb.WriteString(" " + p.String())
		}
		sb.WriteString(")")
	}
	if len(results) > 0 {
		sb.WriteString(" (result")
		for _, r := range results {
			sb.WriteString(" " + r.String())
		}
		sb.WriteString(")")
	}
	return sb.String()
}

func printSeq(sb *strings.Builder, m *Module, id SeqID, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, in := range m.Seq(id).Instrs {
		switch in.Op {
		case OpBlock, OpLoop:
			body := m.Seq(in.Seq)
			fmt.Fprintf(sb, "%s%s $s%d%s\n", indent, in.Op, in.Seq, signature(body.Params, body.Results))
			printSeq(sb, m, in.Seq, depth+1)
			fmt.Fprintf(sb, "%send\n", indent)
		case OpIfElse:
			cons := m.Seq(in.Seq)
			fmt.Fprintf(sb, "%sif $s%d%s\n", indent, in.Seq, signature(cons.Params, cons.Results))
			printSeq(sb, m, in.Seq, depth+1)
			fmt.Fprintf(sb, "%selse $s%d\n", indent, in.Alt)
			printSeq(sb, m, in.Alt, depth+1)
			fmt.Fprintf(sb, "%send\n", indent)
		case OpBr, OpBrIf:
			fmt.Fprintf(sb, "%s%s $s%d\n", indent, in.Op, in.Seq)
		case OpCall:
			fmt.Fprintf(sb, "%scall $%s\n", indent, m.Func(in.Func).Name)
		case OpLocalGet, OpLocalSet, OpLocalTee:
			fmt.Fprintf(sb, "%s%s %d\n", indent, in.Op, in.Local)
		case OpGlobalGet, OpGlobalSet:
			fmt.Fprintf(sb, "%s%s $g%d\n", indent, in.Op, in.Global)
		case OpI32Const:
			fmt.Fprintf(sb, "%s%s %d\n", indent, in.Op, int32(in.Value))
		case OpI64Const:
			fmt.Fprintf(sb, "%s%s %d\n", indent, in.Op, in.Value)
		case OpI32Load, OpI64Load, OpI32Store, OpI64Store:
			if in.Offset != 0 {
				fmt.Fprintf(sb, "%s%s offset=%d\n", indent, in.Op, in.Offset)
			} else {
				fmt.Fprintf(sb, "%s%s\n", indent, in.Op)
			}
		default:
			fmt.Fprintf(sb, "%s%s\n", indent, in.Op)
		}
	}
}
