// Package parser turns tape-language source into an instruction tree.
//
// Parsing is a single left-to-right scan. Eight characters are meaningful
// (+ - > < . , [ ]); everything else is commentary and is skipped. The only
// thing validated is bracket balance.
package parser

import (
	"errors"
	"fmt"

	"codeberg.org/saruga/bfc/internal/ast"
	"codeberg.org/saruga/bfc/internal/diagnostic"
	"codeberg.org/saruga/bfc/internal/sourcemap"
)

// ErrUnmatchedBracket is the structural error every parse failure wraps.
var ErrUnmatchedBracket = errors.New("unmatched bracket")

// ErrorKind records which side of a bracket pair is missing.
type ErrorKind uint8

const (
	// StrayClose is a ']' with no open loop.
	StrayClose ErrorKind = iota
	// UnclosedOpen is a '[' still open at end of input.
	UnclosedOpen
)

// Error is a structural parse error located at a single character offset.
type Error struct {
	Kind    ErrorKind
	Message string
	Offset  int // Character offset (0-based)
	Line    int // 1-based
	Column  int // 1-based
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

func (e *Error) Unwrap() error {
	return ErrUnmatchedBracket
}

// scope is an open loop: the sibling list of the enclosing scope and the
// offset of the '[' that opened it.
type scope struct {
	parent []ast.Node
	open   int
}

// Parse parses source into a tree. On failure the error is an *Error.
func Parse(source string) ([]ast.Node, error) {
	var (
		current []ast.Node
		stack   []scope
		offset  int
	)

	for _, c := range source {
		switch c {
		case '+':
			current = append(current, ast.CellShift{Amount: 1, Loc: ast.At(offset)})
		case '-':
			current = append(current, ast.CellShift{Amount: -1, Loc: ast.At(offset)})
		case '>':
			current = append(current, ast.PointerShift{Amount: 1, Loc: ast.At(offset)})
		case '<':
			current = append(current, ast.PointerShift{Amount: -1, Loc: ast.At(offset)})
		case '.':
			current = append(current, ast.Write{Loc: ast.At(offset)})
		case ',':
			current = append(current, ast.Read{Loc: ast.At(offset)})
		case '[':
			stack = append(stack, scope{parent: current, open: offset})
			current = nil
		case ']':
			if len(stack) == 0 {
				return nil, newError(source, StrayClose, offset)
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			loop := ast.Loop{Body: current, Loc: ast.SpanOf(top.open, offset)}
			current = append(top.parent, loop)
		}
		offset++
	}

	if len(stack) > 0 {
		return nil, newError(source, UnclosedOpen, stack[len(stack)-1].open)
	}

	return current, nil
}

// ParseWithDiagnostics parses source and reports a failure as a located
// diagnostic instead of an error value.
func ParseWithDiagnostics(source string) ([]ast.Node, *diagnostic.DiagnosticList) {
	dl := diagnostic.NewDiagnosticList(source)
	nodes, err := Parse(source)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			dl.AddError(diagnostic.CodeUnmatchedBracket, perr.Offset, perr.Offset, perr.Message)
		}
		return nil, dl
	}
	return nodes, dl
}

func newError(source string, kind ErrorKind, offset int) *Error {
	line, col := sourcemap.NewLineIndex(source).OffsetToLineColumn(offset)
	msg := "unmatched bracket: ']' has no opening '['"
	if kind == UnclosedOpen {
		msg = "unmatched bracket: '[' is never closed"
	}
	return &Error{
		Kind:    kind,
		Message: msg,
		Offset:  offset,
		Line:    line + 1,
		Column:  col + 1,
	}
}
