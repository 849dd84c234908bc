package ast

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// Print renders a node back into source form. Lists are printed on one line.
func Print(node Node) string {
	var sb strings.Builder
	printNode(&sb, node)
	return sb.String()
}

func printNode(sb *strings.Builder, node Node) {
	switch n := node.(type) {
	case nil:
		return
	case *Program:
		for i, e := range n.Exprs {
			if i > 0 {
				sb.WriteString("\n")
			}
			printNode(sb, e)
		}
	case *Atom:
		sb.WriteString(n.Name)
	case *IntLiteral:
		if n.Unsigned {
			sb.WriteString("u")
		}
		sb.WriteString(n.Value.String())
	case *BufferLiteral:
		sb.WriteString("0x")
		sb.WriteString(hex.EncodeToString(n.Value))
	case *StringLiteral:
		if n.UTF8 {
			sb.WriteString("u")
		}
		sb.WriteString(strconv.Quote(n.Value))
	case *PrincipalLiteral:
		sb.WriteString("'")
		sb.WriteString(n.Value)
	case *List:
		sb.WriteString("(")
		for i, e := range n.Elements {
			if i > 0 {
				sb.WriteString(" ")
			}
			printNode(sb, e)
		}
		sb.WriteString(")")
	}
}
