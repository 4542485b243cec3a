package optimizer

import "codeberg.org/saruga/bfc/internal/ast"

// Rule is one local rewrite. Apply must not modify its input and must
// recurse into loop bodies itself.
type Rule struct {
	Name  string
	Apply func([]ast.Node) []ast.Node
}

// Rules returns the rewrite rules in the order a pass applies them.
func Rules() []Rule {
	return []Rule{
		{Name: "coalesce-cell-shifts", Apply: CoalesceCellShifts},
		{Name: "coalesce-pointer-shifts", Apply: CoalescePointerShifts},
		{Name: "zero-loops", Apply: ZeroLoops},
	}
}

// Pass applies every rule once, in order, across the whole tree.
func Pass(nodes []ast.Node) []ast.Node {
	for _, rule := range Rules() {
		nodes = rule.Apply(nodes)
	}
	return nodes
}

// ----------------------------------------------------------------------------
// Shift Coalescing
// ----------------------------------------------------------------------------

// CoalesceCellShifts merges runs of adjacent CellShift siblings into one
// node, summing amounts modulo the cell width, and drops runs whose net
// amount is zero.
func CoalesceCellShifts(nodes []ast.Node) []ast.Node {
	var out []ast.Node
	var run *ast.CellShift

	flush := func() {
		if run != nil && run.Amount != 0 {
			out = append(out, *run)
		}
		run = nil
	}

	for _, n := range nodes {
		shift, ok := n.(ast.CellShift)
		if !ok {
			flush()
			if loop, ok := n.(ast.Loop); ok {
				n = ast.Loop{Body: CoalesceCellShifts(loop.Body), Loc: loop.Loc}
			}
			out = append(out, n)
			continue
		}
		if run == nil {
			run = &shift
			continue
		}
		run = &ast.CellShift{
			Amount: ast.AddCell(run.Amount, shift.Amount),
			Loc:    ast.MergeSpans(run.Loc, shift.Loc),
		}
	}
	flush()

	return out
}

// CoalescePointerShifts merges runs of adjacent PointerShift siblings and
// drops runs whose net movement is zero.
func CoalescePointerShifts(nodes []ast.Node) []ast.Node {
	var out []ast.Node
	var run *ast.PointerShift

	flush := func() {
		if run != nil && run.Amount != 0 {
			out = append(out, *run)
		}
		run = nil
	}

	for _, n := range nodes {
		shift, ok := n.(ast.PointerShift)
		if !ok {
			flush()
			if loop, ok := n.(ast.Loop); ok {
				n = ast.Loop{Body: CoalescePointerShifts(loop.Body), Loc: loop.Loc}
			}
			out = append(out, n)
			continue
		}
		if run == nil {
			run = &shift
			continue
		}
		run = &ast.PointerShift{
			Amount: run.Amount + shift.Amount,
			Loc:    ast.MergeSpans(run.Loc, shift.Loc),
		}
	}
	flush()

	return out
}

// ----------------------------------------------------------------------------
// Zero Loops
// ----------------------------------------------------------------------------

// ZeroLoops replaces the clear-cell idiom [-] with a direct Set of zero
// carrying the loop's span.
func ZeroLoops(nodes []ast.Node) []ast.Node {
	out := make([]ast.Node, 0, len(nodes))
	for _, n := range nodes {
		if loop, ok := n.(ast.Loop); ok {
			if isDecrementOnly(loop.Body) {
				n = ast.Set{Amount: 0, Loc: loop.Loc}
			} else {
				n = ast.Loop{Body: ZeroLoops(loop.Body), Loc: loop.Loc}
			}
		}
		out = append(out, n)
	}
	return out
}

func isDecrementOnly(body []ast.Node) bool {
	if len(body) != 1 {
		return false
	}
	shift, ok := body[0].(ast.CellShift)
	return ok && shift.Amount == -1
}
