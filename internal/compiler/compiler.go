// Package compiler provides the main compilation API.
//
// It coordinates parsing, optimization, and emission to turn tape-language
// source into C, canonical source, or a tree dump.
package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/saruga/bfc/internal/ast"
	"codeberg.org/saruga/bfc/internal/cgen"
	"codeberg.org/saruga/bfc/internal/diagnostic"
	"codeberg.org/saruga/bfc/internal/optimizer"
	"codeberg.org/saruga/bfc/internal/parser"
	"codeberg.org/saruga/bfc/internal/printer"
	"codeberg.org/saruga/bfc/internal/sourcemap"
)

// Emit selects the output format.
type Emit uint8

const (
	// EmitC produces a C translation unit
	EmitC Emit = iota

	// EmitSource produces canonical tape-language source
	EmitSource

	// EmitTree produces the indented tree dump
	EmitTree
)

var emitNames = [...]string{
	EmitC:      "c",
	EmitSource: "bf",
	EmitTree:   "tree",
}

func (e Emit) String() string {
	if int(e) < len(emitNames) {
		return emitNames[e]
	}
	return "unknown"
}

// ParseEmit maps a format name ("c", "bf", "tree") to an Emit value.
func ParseEmit(name string) (Emit, error) {
	for i, n := range emitNames {
		if strings.EqualFold(n, name) {
			return Emit(i), nil
		}
	}
	return EmitC, fmt.Errorf("unknown output format %q (want c, bf, or tree)", name)
}

// Options controls compilation behavior.
type Options struct {
	// Optimize runs the peephole optimizer before emission
	Optimize bool

	// MaxPasses caps optimizer passes. Zero or negative means the
	// optimizer's default.
	MaxPasses int

	// Emit selects the output format
	Emit Emit

	// TapeSize is the number of cells in generated C
	TapeSize int

	// Compact minimizes whitespace in C and source output
	Compact bool

	// GenerateSourceMap enables source map generation (C output only)
	GenerateSourceMap bool

	// SourceMapOptions configures source map output
	SourceMapOptions SourceMapOptions

	// Logger receives pipeline progress. Nil means slog.Default().
	Logger *slog.Logger
}

// SourceMapOptions configures source map generation.
type SourceMapOptions struct {
	// File is the name of the generated file (for the "file" field)
	File string

	// SourceName is the name of the original source (for the "sources" array)
	SourceName string

	// IncludeSource embeds the original source in "sourcesContent"
	IncludeSource bool
}

// DefaultOptions returns options for optimized C output.
func DefaultOptions() Options {
	return Options{
		Optimize:  true,
		MaxPasses: optimizer.DefaultMaxPasses,
		Emit:      EmitC,
		TapeSize:  cgen.DefaultTapeSize,
	}
}

// Result contains the compilation output.
type Result struct {
	// Code is the emitted output. Empty if parsing failed.
	Code string

	// Program is the tree that was emitted
	Program []ast.Node

	// Diagnostics holds parse errors and optimizer warnings
	Diagnostics *diagnostic.DiagnosticList

	// Statistics about the compilation
	Stats Stats

	// SourceMap is the generated source map (nil if not requested)
	SourceMap *sourcemap.SourceMap
}

// Err returns the first error diagnostic, or nil.
func (r Result) Err() error {
	if r.Diagnostics == nil {
		return nil
	}
	if errs := r.Diagnostics.Errors(); len(errs) > 0 {
		return &errs[0]
	}
	return nil
}

// Stats provides compilation statistics.
type Stats struct {
	OriginalSize   int
	NodesParsed    int
	NodesOptimized int
	Passes         int
	Converged      bool
	MaxDepth       int
}

// Compiler runs the compilation pipeline.
type Compiler struct {
	options Options
	logger  *slog.Logger
}

// New creates a new compiler with the given options.
func New(options Options) *Compiler {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{options: options, logger: logger}
}

// Compile compiles the given source.
func (c *Compiler) Compile(source string) Result {
	result := Result{
		Stats: Stats{OriginalSize: len(source)},
	}

	// 1. Parse into a tree
	nodes, diags := parser.ParseWithDiagnostics(source)
	result.Diagnostics = diags
	if diags.HasErrors() {
		c.logger.Debug("Parse failed", "errors", len(diags.Errors()))
		return result
	}
	result.Stats.NodesParsed = ast.Count(nodes)
	result.Stats.MaxDepth = ast.Depth(nodes)

	// 2. Optimize
	result.Stats.Converged = true
	if c.options.Optimize {
		opt := optimizer.Optimize(nodes, optimizer.Options{
			MaxPasses: c.options.MaxPasses,
			Logger:    c.logger,
		})
		nodes = opt.Program
		result.Stats.Passes = opt.Passes
		result.Stats.Converged = opt.Converged
		if !opt.Converged {
			diags.AddWarning(diagnostic.CodeNoFixedPoint, opt.Warning())
		}
	}
	result.Program = nodes
	result.Stats.NodesOptimized = ast.Count(nodes)

	// 3. Emit
	switch c.options.Emit {
	case EmitSource:
		result.Code = printer.New(printer.Options{MinifyWhitespace: c.options.Compact}).Print(nodes)
	case EmitTree:
		result.Code = printer.Dump(nodes)
	default:
		var sourceMapGen *sourcemap.Generator
		if c.options.GenerateSourceMap {
			sourceMapGen = sourcemap.NewGenerator(source)
			sourceMapGen.SetFile(c.options.SourceMapOptions.File)
			sourceMapGen.SetSourceName(c.options.SourceMapOptions.SourceName)
			sourceMapGen.IncludeSourceContent(c.options.SourceMapOptions.IncludeSource)
		}

		result.Code = cgen.New(cgen.Options{
			TapeSize:  c.options.TapeSize,
			Compact:   c.options.Compact,
			SourceMap: sourceMapGen,
		}).Generate(nodes)

		if sourceMapGen != nil {
			result.SourceMap = sourceMapGen.Generate()
		}
	}

	c.logger.Debug("Compilation finished",
		"emit", c.options.Emit,
		"nodes", result.Stats.NodesOptimized,
		"bytes", len(result.Code))
	return result
}

// ----------------------------------------------------------------------------
// Convenience Functions
// ----------------------------------------------------------------------------

// Compile compiles source with optional custom options.
// If no options are provided, DefaultOptions() is used.
func Compile(source string, opts ...Options) Result {
	var options Options
	if len(opts) > 0 {
		options = opts[0]
	} else {
		options = DefaultOptions()
	}
	return New(options).Compile(source)
}
