// Package ast defines the instruction tree for tape programs.
//
// The tree is designed to be:
// - Closed: Node is implemented only by the six variants in this file
// - Owned: a Loop exclusively owns its body, so trees have no sharing or cycles
// - Comparable: spans and amounts are plain values, so equality is structural
package ast

import "fmt"

// ----------------------------------------------------------------------------
// Source Location
// ----------------------------------------------------------------------------

// Span is an inclusive range of zero-based character offsets into the
// original source. The zero Span is absent: the node was synthesized and
// has no single faithful origin.
type Span struct {
	Start int
	End   int
	Valid bool
}

// SpanOf returns a present span covering offsets start through end.
func SpanOf(start, end int) Span {
	return Span{Start: start, End: end, Valid: true}
}

// At returns a present span covering the single offset pos.
func At(pos int) Span {
	return SpanOf(pos, pos)
}

// NoSpan is the absent span.
var NoSpan = Span{}

func (s Span) String() string {
	if !s.Valid {
		return "?"
	}
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// ----------------------------------------------------------------------------
// Nodes
// ----------------------------------------------------------------------------

// Kind identifies a node variant.
type Kind uint8

const (
	KindCellShift Kind = iota
	KindPointerShift
	KindRead
	KindWrite
	KindLoop
	KindSet
)

var kindNames = [...]string{
	KindCellShift:    "CellShift",
	KindPointerShift: "PointerShift",
	KindRead:         "Read",
	KindWrite:        "Write",
	KindLoop:         "Loop",
	KindSet:          "Set",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Node is a single instruction. The set of implementations is closed.
type Node interface {
	Kind() Kind
	Span() Span
	isNode()
}

// CellShift adds Amount to the current cell.
type CellShift struct {
	Amount int8
	Loc    Span
}

// PointerShift moves the tape position by Amount.
type PointerShift struct {
	Amount int
	Loc    Span
}

// Read reads one input unit into the current cell.
type Read struct {
	Loc Span
}

// Write emits the current cell.
type Write struct {
	Loc Span
}

// Loop repeats Body while the current cell is non-zero.
type Loop struct {
	Body []Node
	Loc  Span
}

// Set assigns Amount to the current cell. Only the optimizer produces it.
type Set struct {
	Amount int8
	Loc    Span
}

func (CellShift) Kind() Kind    { return KindCellShift }
func (PointerShift) Kind() Kind { return KindPointerShift }
func (Read) Kind() Kind         { return KindRead }
func (Write) Kind() Kind        { return KindWrite }
func (Loop) Kind() Kind         { return KindLoop }
func (Set) Kind() Kind          { return KindSet }

func (n CellShift) Span() Span    { return n.Loc }
func (n PointerShift) Span() Span { return n.Loc }
func (n Read) Span() Span         { return n.Loc }
func (n Write) Span() Span        { return n.Loc }
func (n Loop) Span() Span         { return n.Loc }
func (n Set) Span() Span          { return n.Loc }

func (CellShift) isNode()    {}
func (PointerShift) isNode() {}
func (Read) isNode()         {}
func (Write) isNode()        {}
func (Loop) isNode()         {}
func (Set) isNode()          {}

// ----------------------------------------------------------------------------
// Arithmetic
// ----------------------------------------------------------------------------

// AddCell sums two cell amounts modulo 256. Cells are eight bits wide in
// the generated code, and Go defines signed overflow as two's complement
// wraparound, so the int8 sum is exactly the cell-width sum.
func AddCell(a, b int8) int8 {
	return a + b
}

// ----------------------------------------------------------------------------
// Equality
// ----------------------------------------------------------------------------

// Equal reports whether two sibling lists are structurally identical,
// including spans.
func Equal(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !NodeEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// NodeEqual reports whether two nodes are structurally identical.
func NodeEqual(a, b Node) bool {
	switch a := a.(type) {
	case Loop:
		b, ok := b.(Loop)
		return ok && a.Loc == b.Loc && Equal(a.Body, b.Body)
	case nil:
		return b == nil
	default:
		if _, ok := b.(Loop); ok {
			return false
		}
		// The remaining variants hold only comparable fields.
		return a == b
	}
}

// ----------------------------------------------------------------------------
// Traversal
// ----------------------------------------------------------------------------

// Walk visits nodes in pre-order. If fn returns false for a Loop, its body
// is skipped.
func Walk(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		if !fn(n) {
			continue
		}
		if loop, ok := n.(Loop); ok {
			Walk(loop.Body, fn)
		}
	}
}

// Count returns the number of nodes in the tree, loop bodies included.
func Count(nodes []Node) int {
	count := 0
	Walk(nodes, func(Node) bool {
		count++
		return true
	})
	return count
}

// Depth returns the maximum loop nesting depth.
func Depth(nodes []Node) int {
	deepest := 0
	for _, n := range nodes {
		if loop, ok := n.(Loop); ok {
			if d := 1 + Depth(loop.Body); d > deepest {
				deepest = d
			}
		}
	}
	return deepest
}
