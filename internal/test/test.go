// Package test provides testing utilities shared by the compiler packages:
// compact node constructors for writing expected trees, and tree
// assertions that print a structural diff on failure.
package test

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"codeberg.org/saruga/bfc/internal/ast"
	"codeberg.org/saruga/bfc/internal/parser"
)

// Cell builds a CellShift spanning start..end.
func Cell(amount int8, start, end int) ast.CellShift {
	return ast.CellShift{Amount: amount, Loc: ast.SpanOf(start, end)}
}

// Ptr builds a PointerShift spanning start..end.
func Ptr(amount int, start, end int) ast.PointerShift {
	return ast.PointerShift{Amount: amount, Loc: ast.SpanOf(start, end)}
}

// Loop builds a Loop spanning start..end.
func Loop(start, end int, body ...ast.Node) ast.Loop {
	return ast.Loop{Body: body, Loc: ast.SpanOf(start, end)}
}

// Set builds a Set spanning start..end.
func Set(amount int8, start, end int) ast.Set {
	return ast.Set{Amount: amount, Loc: ast.SpanOf(start, end)}
}

// Read builds a Read at pos.
func Read(pos int) ast.Read {
	return ast.Read{Loc: ast.At(pos)}
}

// Write builds a Write at pos.
func Write(pos int) ast.Write {
	return ast.Write{Loc: ast.At(pos)}
}

// Tree collects nodes into a sibling list.
func Tree(nodes ...ast.Node) []ast.Node {
	return nodes
}

// MustParse parses source and fails the test immediately on error.
func MustParse(t testing.TB, source string) []ast.Node {
	t.Helper()
	nodes, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse %q: %v", source, err)
	}
	return nodes
}

// AssertTree checks two trees for structural equality and reports a diff
// (and a full dump of the actual tree) if they differ.
func AssertTree(t testing.TB, actual, expected []ast.Node) {
	t.Helper()
	if ast.Equal(actual, expected) {
		return
	}
	diff := cmp.Diff(expected, actual, cmpopts.EquateEmpty())
	t.Errorf("tree mismatch (-expected +actual):\n%s\nactual:\n%s", diff, spew.Sdump(actual))
}
