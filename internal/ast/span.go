package ast

// MergeSpans combines the spans of two nodes being collapsed into one.
//
// When both spans are present and touch or overlap (spans are inclusive,
// so end+1 == start counts as touching), the result runs from the earlier
// start to the later end. Present but non-contiguous spans degrade
// to b, the span of the later operation; exact provenance is not kept in
// that case. If either span is absent the result is absent.
func MergeSpans(a, b Span) Span {
	if !a.Valid || !b.Valid {
		return NoSpan
	}

	first, second := a, b
	if b.Start < a.Start {
		first, second = b, a
	}

	if first.End+1 >= second.Start {
		return SpanOf(first.Start, second.End)
	}
	return b
}
