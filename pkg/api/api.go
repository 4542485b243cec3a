// Package api provides the public API for the bfc compiler.
//
// This package is intended for programmatic use of the compiler.
// For CLI usage, see cmd/bfc.
package api

import (
	"slices"

	lru "github.com/hashicorp/golang-lru"

	"codeberg.org/saruga/bfc/internal/ast"
	"codeberg.org/saruga/bfc/internal/compiler"
	"codeberg.org/saruga/bfc/internal/printer"
)

// CompileOptions controls compilation behavior.
type CompileOptions struct {
	// NoOptimize skips the peephole optimizer.
	NoOptimize bool

	// MaxPasses caps optimizer passes. Zero means the default of 20.
	MaxPasses int

	// Emit selects the output: "c" (default), "bf", or "tree".
	Emit string

	// TapeSize is the number of cells in generated C. Zero means 30000.
	TapeSize int

	// Compact minimizes whitespace in the output.
	Compact bool

	// SourceMap enables source map generation for C output.
	SourceMap bool

	// SourceMapOptions configures source map generation.
	// Only used when SourceMap is true.
	SourceMapOptions SourceMapOptions
}

// SourceMapOptions configures source map generation.
type SourceMapOptions struct {
	// File is the name of the generated file (for the "file" field in the source map).
	File string

	// SourceName is the name of the original source file (for the "sources" array).
	SourceName string

	// IncludeSource embeds the original program in "sourcesContent".
	IncludeSource bool
}

// CompileResult contains the compilation output.
type CompileResult struct {
	// Code is the emitted output. Empty if Errors is non-empty.
	Code string

	// Tree is the indented dump of the emitted tree.
	Tree string

	// Errors contains formatted parse errors.
	Errors []string

	// Warnings contains optimizer warnings, such as a missed fixed point.
	Warnings []string

	// OriginalSize is the size of the input in bytes.
	OriginalSize int

	// OutputSize is the size of Code in bytes.
	OutputSize int

	// Passes is the number of optimizer passes that ran.
	Passes int

	// SourceMap is the generated source map as a JSON string.
	// Empty if source map generation was not requested.
	SourceMap string

	// SourceMapDataURI is the source map as a data URI for inline embedding.
	SourceMapDataURI string
}

// clone copies the slices so callers never share storage with the cache.
func (r CompileResult) clone() CompileResult {
	r.Errors = slices.Clone(r.Errors)
	r.Warnings = slices.Clone(r.Warnings)
	return r
}

// Compile compiles a program to optimized C with default options.
func Compile(source string) CompileResult {
	return CompileWithOptions(source, CompileOptions{})
}

// CompileWithOptions compiles a program with custom options.
func CompileWithOptions(source string, opts CompileOptions) CompileResult {
	options, err := toOptions(opts)
	if err != nil {
		return CompileResult{Errors: []string{err.Error()}, OriginalSize: len(source)}
	}

	result := compiler.New(options).Compile(source)

	apiResult := CompileResult{
		Code:         result.Code,
		OriginalSize: result.Stats.OriginalSize,
		OutputSize:   len(result.Code),
		Passes:       result.Stats.Passes,
	}
	for _, d := range result.Diagnostics.Errors() {
		apiResult.Errors = append(apiResult.Errors, d.Error())
	}
	for _, d := range result.Diagnostics.Warnings() {
		apiResult.Warnings = append(apiResult.Warnings, d.Message)
	}
	if len(apiResult.Errors) == 0 {
		apiResult.Tree = printer.Dump(result.Program)
	}

	// Include source map if generated
	if result.SourceMap != nil {
		apiResult.SourceMap = result.SourceMap.ToJSON()
		apiResult.SourceMapDataURI = result.SourceMap.ToDataURI()
	}

	return apiResult
}

func toOptions(opts CompileOptions) (compiler.Options, error) {
	options := compiler.DefaultOptions()
	options.Optimize = !opts.NoOptimize
	if opts.MaxPasses > 0 {
		options.MaxPasses = opts.MaxPasses
	}
	if opts.Emit != "" {
		emit, err := compiler.ParseEmit(opts.Emit)
		if err != nil {
			return options, err
		}
		options.Emit = emit
	}
	if opts.TapeSize > 0 {
		options.TapeSize = opts.TapeSize
	}
	options.Compact = opts.Compact
	options.GenerateSourceMap = opts.SourceMap
	options.SourceMapOptions = compiler.SourceMapOptions{
		File:          opts.SourceMapOptions.File,
		SourceName:    opts.SourceMapOptions.SourceName,
		IncludeSource: opts.SourceMapOptions.IncludeSource,
	}
	return options, nil
}

// ----------------------------------------------------------------------------
// Cached Compiler
// ----------------------------------------------------------------------------

type cacheKey struct {
	source string
	opts   CompileOptions
}

// Compiler memoizes compilation results. It is safe for concurrent use.
type Compiler struct {
	cache *lru.Cache
}

// NewCompiler creates a compiler that remembers up to size results.
func NewCompiler(size int) (*Compiler, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Compiler{cache: cache}, nil
}

// Compile is CompileWithOptions backed by the cache.
func (c *Compiler) Compile(source string, opts CompileOptions) CompileResult {
	key := cacheKey{source: source, opts: opts}
	if cached, ok := c.cache.Get(key); ok {
		return cached.(CompileResult).clone()
	}
	result := CompileWithOptions(source, opts)
	c.cache.Add(key, result.clone())
	return result
}

// Len returns the number of cached results.
func (c *Compiler) Len() int {
	return c.cache.Len()
}

// ----------------------------------------------------------------------------
// Inspection API
// ----------------------------------------------------------------------------

// InspectResult describes the tree a program parses and optimizes to.
type InspectResult struct {
	// Nodes is the optimized tree.
	Nodes []NodeInfo `json:"nodes"`

	// NodeCount is the number of nodes in Nodes, loop bodies included.
	NodeCount int `json:"nodeCount"`

	// Depth is the maximum loop nesting depth.
	Depth int `json:"depth"`

	// Errors contains any errors encountered during parsing.
	Errors []string `json:"errors,omitempty"`
}

// NodeInfo describes one instruction.
type NodeInfo struct {
	// Kind is the node kind, such as "CellShift" or "Loop".
	Kind string `json:"kind"`

	// Amount is the shift or set amount. Zero for other kinds.
	Amount int `json:"amount,omitempty"`

	// Start and End are inclusive character offsets, -1 if unknown.
	Start int `json:"start"`
	End   int `json:"end"`

	// Body holds loop children.
	Body []NodeInfo `json:"body,omitempty"`
}

// Inspect parses and optimizes source and returns the tree as plain data.
func Inspect(source string) InspectResult {
	options := compiler.DefaultOptions()
	options.Emit = compiler.EmitTree
	result := compiler.New(options).Compile(source)

	if err := result.Err(); err != nil {
		return InspectResult{Nodes: []NodeInfo{}, Errors: []string{err.Error()}}
	}
	return InspectResult{
		Nodes:     convertNodes(result.Program),
		NodeCount: result.Stats.NodesOptimized,
		Depth:     ast.Depth(result.Program),
	}
}

// convertNodes converts internal nodes to API types.
func convertNodes(nodes []ast.Node) []NodeInfo {
	result := make([]NodeInfo, len(nodes))
	for i, n := range nodes {
		info := NodeInfo{Kind: n.Kind().String(), Start: -1, End: -1}
		if span := n.Span(); span.Valid {
			info.Start, info.End = span.Start, span.End
		}
		switch n := n.(type) {
		case ast.CellShift:
			info.Amount = int(n.Amount)
		case ast.PointerShift:
			info.Amount = n.Amount
		case ast.Set:
			info.Amount = int(n.Amount)
		case ast.Loop:
			info.Body = convertNodes(n.Body)
		}
		result[i] = info
	}
	return result
}
