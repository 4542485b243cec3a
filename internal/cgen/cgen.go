// Package cgen translates an instruction tree into a C program.
//
// The generated program owns a zeroed byte tape and a data pointer into
// it. Cell arithmetic relies on unsigned char wraparound, which matches the
// tree's int8 semantics modulo 256.
package cgen

import (
	"strconv"
	"strings"

	"codeberg.org/saruga/bfc/internal/ast"
	"codeberg.org/saruga/bfc/internal/sourcemap"
)

// DefaultTapeSize is the number of cells allocated when Options.TapeSize is
// unset.
const DefaultTapeSize = 30000

// Options controls code generation.
type Options struct {
	// TapeSize is the length of the tape array. Zero or negative means
	// DefaultTapeSize.
	TapeSize int

	// Compact drops indentation and line breaks inside main.
	Compact bool

	// SourceMap receives one mapping per emitted statement. Nil disables
	// mapping.
	SourceMap *sourcemap.Generator
}

// Generator emits C source.
type Generator struct {
	options Options
	buf     strings.Builder
	indent  int

	// Generated position, 0-based, for source map output
	line int
	col  int
}

// New creates a new generator.
func New(options Options) *Generator {
	if options.TapeSize <= 0 {
		options.TapeSize = DefaultTapeSize
	}
	return &Generator{options: options}
}

// Generate returns a complete C translation unit for nodes.
func (g *Generator) Generate(nodes []ast.Node) string {
	g.buf.Reset()
	g.indent = 0
	g.line, g.col = 0, 0

	g.print("#include <stdio.h>\n")
	if g.options.Compact {
		g.print("int main(void){")
	} else {
		g.print("\nint main(void) {")
	}
	g.indent++
	g.printNewline()
	g.print("static unsigned char tape[" + strconv.Itoa(g.options.TapeSize) + "];")
	g.printNewline()
	g.print("unsigned char *ptr = tape;")
	if len(nodes) > 0 && !g.options.Compact {
		g.buf.WriteByte('\n')
		g.line++
		g.col = 0
	}
	g.printBlock(nodes)
	g.printNewline()
	g.print("return 0;")
	g.indent--
	g.printNewline()
	g.print("}\n")
	return g.buf.String()
}

// ----------------------------------------------------------------------------
// Output Helpers
// ----------------------------------------------------------------------------

func (g *Generator) print(s string) {
	g.buf.WriteString(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		g.line += strings.Count(s, "\n")
		g.col = len(s) - i - 1
	} else {
		g.col += len(s)
	}
}

func (g *Generator) printNewline() {
	if g.options.Compact {
		return
	}
	g.print("\n" + strings.Repeat("    ", g.indent))
}

func (g *Generator) addMapping(span ast.Span) {
	if g.options.SourceMap == nil || !span.Valid {
		return
	}
	g.options.SourceMap.AddMapping(g.line, g.col, span.Start)
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func (g *Generator) printBlock(nodes []ast.Node) {
	for _, n := range nodes {
		g.printNewline()
		g.printNode(n)
	}
}

func (g *Generator) printNode(n ast.Node) {
	g.addMapping(n.Span())

	switch n := n.(type) {
	case ast.CellShift:
		g.printShift("*ptr", int(n.Amount))
	case ast.PointerShift:
		g.printShift("ptr", n.Amount)
	case ast.Read:
		g.print("{ int c = getchar(); if (c != EOF) *ptr = (unsigned char)c; }")
	case ast.Write:
		g.print("putchar(*ptr);")
	case ast.Set:
		g.print("*ptr = " + strconv.Itoa(int(n.Amount)) + ";")
	case ast.Loop:
		g.print("while (*ptr) {")
		g.indent++
		g.printBlock(n.Body)
		g.indent--
		if len(n.Body) > 0 {
			g.printNewline()
		}
		g.print("}")
	}
}

func (g *Generator) printShift(target string, amount int) {
	op := " += "
	if amount < 0 {
		op, amount = " -= ", -amount
	}
	g.print(target + op + strconv.Itoa(amount) + ";")
}

// Generate is a convenience wrapper that generates C for nodes with the
// given options.
func Generate(nodes []ast.Node, options Options) string {
	return New(options).Generate(nodes)
}
