// Package printer outputs tape-language text from an instruction tree.
//
// The printer can operate in two modes:
// - Pretty: each loop opens a new indented block
// - Minified: the whole program on one line, no commentary
//
// Dump renders the tree itself, one node per line, for debugging and for
// the compiler's tree output.
package printer

import (
	"fmt"
	"strings"

	"codeberg.org/saruga/bfc/internal/ast"
)

// Options controls printer output.
type Options struct {
	// MinifyWhitespace prints the program on a single line
	MinifyWhitespace bool
}

// Printer outputs tape-language source.
type Printer struct {
	options Options
	buf     strings.Builder
	indent  int
}

// New creates a new printer.
func New(options Options) *Printer {
	return &Printer{options: options}
}

// Print outputs the program as source text. Re-parsing the output yields a
// tree with the same behavior as nodes.
func (p *Printer) Print(nodes []ast.Node) string {
	p.buf.Reset()
	p.indent = 0
	p.printBlock(nodes)
	if !p.options.MinifyWhitespace && p.buf.Len() > 0 {
		p.buf.WriteByte('\n')
	}
	return p.buf.String()
}

// Source prints nodes as canonical pretty source.
func Source(nodes []ast.Node) string {
	return New(Options{}).Print(nodes)
}

// ----------------------------------------------------------------------------
// Output Helpers
// ----------------------------------------------------------------------------

func (p *Printer) print(s string) {
	p.buf.WriteString(s)
}

func (p *Printer) printRepeated(pos, neg byte, amount int) {
	c := pos
	if amount < 0 {
		c, amount = neg, -amount
	}
	for i := 0; i < amount; i++ {
		p.buf.WriteByte(c)
	}
}

func (p *Printer) printNewline() {
	if p.options.MinifyWhitespace {
		return
	}
	p.buf.WriteByte('\n')
	p.buf.WriteString(strings.Repeat("    ", p.indent))
}

// ----------------------------------------------------------------------------
// Node Printing
// ----------------------------------------------------------------------------

func (p *Printer) printBlock(nodes []ast.Node) {
	prevLoop := false
	for i, n := range nodes {
		_, isLoop := n.(ast.Loop)
		// Loops sit on their own lines
		if i > 0 && (isLoop || prevLoop) {
			p.printNewline()
		}
		p.printNode(n)
		prevLoop = isLoop
	}
}

func (p *Printer) printNode(n ast.Node) {
	switch n := n.(type) {
	case ast.CellShift:
		p.printRepeated('+', '-', int(n.Amount))
	case ast.PointerShift:
		p.printRepeated('>', '<', n.Amount)
	case ast.Read:
		p.print(",")
	case ast.Write:
		p.print(".")
	case ast.Set:
		p.print("[-]")
		p.printRepeated('+', '-', int(n.Amount))
	case ast.Loop:
		p.print("[")
		if len(n.Body) > 0 {
			p.indent++
			p.printNewline()
			p.printBlock(n.Body)
			p.indent--
			p.printNewline()
		}
		p.print("]")
	}
}

// ----------------------------------------------------------------------------
// Tree Dump
// ----------------------------------------------------------------------------

// Dump renders the tree one node per line with amounts and spans:
//
//	CellShift +3 @0..2
//	Loop @3..8
//	    PointerShift +1 @4..4
func Dump(nodes []ast.Node) string {
	var sb strings.Builder
	dumpBlock(&sb, nodes, 0)
	return sb.String()
}

func dumpBlock(sb *strings.Builder, nodes []ast.Node, depth int) {
	for _, n := range nodes {
		sb.WriteString(strings.Repeat("    ", depth))
		sb.WriteString(n.Kind().String())
		switch n := n.(type) {
		case ast.CellShift:
			fmt.Fprintf(sb, " %+d", n.Amount)
		case ast.PointerShift:
			fmt.Fprintf(sb, " %+d", n.Amount)
		case ast.Set:
			fmt.Fprintf(sb, " %d", n.Amount)
		}
		sb.WriteString(" @")
		sb.WriteString(n.Span().String())
		sb.WriteByte('\n')

		if loop, ok := n.(ast.Loop); ok {
			dumpBlock(sb, loop.Body, depth+1)
		}
	}
}
