// Package diagnostic provides error reporting for the compiler pipeline.
//
// Diagnostics carry a severity, a stable code, and a source range in both
// character offsets and 1-based line/column form, and can be rendered with
// the offending source line and a caret underneath it.
package diagnostic

import (
	"fmt"
	"strings"

	"codeberg.org/saruga/bfc/internal/sourcemap"
)

// Severity represents the severity level of a diagnostic.
type Severity uint8

const (
	// Error stops compilation.
	Error Severity = iota
	// Warning is a non-blocking issue.
	Warning
	// Info is an informational message.
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Code identifies a class of diagnostic.
type Code string

const (
	// CodeUnmatchedBracket is a '[' or ']' without its partner.
	CodeUnmatchedBracket Code = "E0001"

	// CodeNoFixedPoint is an optimizer run stopped by the pass cap.
	CodeNoFixedPoint Code = "W0001"
)

// Position represents a position in source code. A zero Line means the
// diagnostic is not tied to a location.
type Position struct {
	Offset int // Character offset (0-based)
	Line   int // Line number (1-based)
	Column int // Column number (1-based, in characters)
}

// Range represents an inclusive range in source code.
type Range struct {
	Start Position
	End   Position
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Range    Range
}

// HasLocation reports whether the diagnostic points into the source.
func (d *Diagnostic) HasLocation() bool {
	return d.Range.Start.Line > 0
}

// Error returns a formatted one-line string.
func (d *Diagnostic) Error() string {
	if !d.HasLocation() {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%d:%d: %s: %s", d.Range.Start.Line, d.Range.Start.Column, d.Severity, d.Message)
}

// DiagnosticList collects diagnostics for one source.
type DiagnosticList struct {
	diagnostics []Diagnostic
	lineIndex   *sourcemap.LineIndex
	hasErrors   bool
}

// NewDiagnosticList creates a new diagnostic list for the given source.
func NewDiagnosticList(source string) *DiagnosticList {
	return &DiagnosticList{
		lineIndex: sourcemap.NewLineIndex(source),
	}
}

// Add adds a diagnostic to the list.
func (dl *DiagnosticList) Add(d Diagnostic) {
	dl.diagnostics = append(dl.diagnostics, d)
	if d.Severity == Error {
		dl.hasErrors = true
	}
}

// AddError adds an error diagnostic covering offsets start through end.
func (dl *DiagnosticList) AddError(code Code, start, end int, message string) {
	dl.Add(Diagnostic{
		Severity: Error,
		Code:     code,
		Message:  message,
		Range:    dl.MakeRange(start, end),
	})
}

// AddWarning adds a warning that is not tied to a source location.
func (dl *DiagnosticList) AddWarning(code Code, message string) {
	dl.Add(Diagnostic{
		Severity: Warning,
		Code:     code,
		Message:  message,
	})
}

// MakePosition converts a character offset to a Position.
func (dl *DiagnosticList) MakePosition(offset int) Position {
	line, col := dl.lineIndex.OffsetToLineColumn(offset)
	return Position{
		Offset: offset,
		Line:   line + 1,
		Column: col + 1,
	}
}

// MakeRange converts character offsets to a Range.
func (dl *DiagnosticList) MakeRange(start, end int) Range {
	return Range{
		Start: dl.MakePosition(start),
		End:   dl.MakePosition(end),
	}
}

// HasErrors returns true if there are any error-level diagnostics.
func (dl *DiagnosticList) HasErrors() bool {
	return dl.hasErrors
}

// Diagnostics returns all collected diagnostics.
func (dl *DiagnosticList) Diagnostics() []Diagnostic {
	return dl.diagnostics
}

// Errors returns only error-level diagnostics.
func (dl *DiagnosticList) Errors() []Diagnostic {
	return dl.filter(Error)
}

// Warnings returns only warning-level diagnostics.
func (dl *DiagnosticList) Warnings() []Diagnostic {
	return dl.filter(Warning)
}

func (dl *DiagnosticList) filter(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range dl.diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the total number of diagnostics.
func (dl *DiagnosticList) Count() int {
	return len(dl.diagnostics)
}

// Format formats all diagnostics as a human-readable string.
func (dl *DiagnosticList) Format() string {
	var sb strings.Builder
	for i := range dl.diagnostics {
		sb.WriteString(dl.FormatDiagnostic(&dl.diagnostics[i]))
	}
	return sb.String()
}

// FormatDiagnostic formats a single diagnostic with source context:
//
//	1:4: error: unmatched bracket
//	    ++[>+
//	       ^
func (dl *DiagnosticList) FormatDiagnostic(d *Diagnostic) string {
	var sb strings.Builder
	sb.WriteString(d.Error())
	sb.WriteByte('\n')

	if !d.HasLocation() {
		return sb.String()
	}

	sourceLine := dl.lineIndex.Line(d.Range.Start.Line - 1)
	if sourceLine == "" {
		return sb.String()
	}

	sb.WriteString("    ")
	sb.WriteString(sourceLine)
	sb.WriteByte('\n')

	caret := strings.Repeat(" ", d.Range.Start.Column-1+4) + "^"
	if d.Range.End.Line == d.Range.Start.Line && d.Range.End.Column > d.Range.Start.Column {
		caret += strings.Repeat("~", d.Range.End.Column-d.Range.Start.Column)
	}
	sb.WriteString(caret)
	sb.WriteByte('\n')

	return sb.String()
}
