package api

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	result := Compile("++++[>++<-]>.")

	require.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.True(t, strings.HasPrefix(result.Code, "#include <stdio.h>"))
	assert.Contains(t, result.Code, "*ptr += 4;")
	assert.Contains(t, result.Code, "while (*ptr) {")
	assert.Equal(t, 13, result.OriginalSize)
	assert.Equal(t, len(result.Code), result.OutputSize)
	assert.Equal(t, 2, result.Passes)
	assert.True(t, strings.HasPrefix(result.Tree, "CellShift +4 @0..3\n"))
	assert.Empty(t, result.SourceMap)
}

func TestCompileErrors(t *testing.T) {
	result := Compile("+]")

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "1:2: error: unmatched bracket: ']' has no opening '['", result.Errors[0])
	assert.Empty(t, result.Code)
	assert.Empty(t, result.Tree)
}

func TestCompileWithOptions(t *testing.T) {
	t.Run("source output", func(t *testing.T) {
		result := CompileWithOptions("+++ [-] >>", CompileOptions{Emit: "bf", Compact: true})
		require.Empty(t, result.Errors)
		assert.Equal(t, "+++[-]>>", result.Code)
	})

	t.Run("no optimize", func(t *testing.T) {
		result := CompileWithOptions("++", CompileOptions{NoOptimize: true, Emit: "tree"})
		assert.Equal(t, "CellShift +1 @0..0\nCellShift +1 @1..1\n", result.Code)
		assert.Equal(t, 0, result.Passes)
	})

	t.Run("tape size", func(t *testing.T) {
		result := CompileWithOptions("", CompileOptions{TapeSize: 8})
		assert.Contains(t, result.Code, "tape[8]")
	})

	t.Run("pass cap", func(t *testing.T) {
		result := CompileWithOptions("+++[-]", CompileOptions{MaxPasses: 1})
		require.Empty(t, result.Errors)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "no fixed point")
		assert.Equal(t, 1, result.Passes)
	})

	t.Run("bad emit", func(t *testing.T) {
		result := CompileWithOptions("+", CompileOptions{Emit: "wasm"})
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "wasm")
	})
}

func TestCompileSourceMap(t *testing.T) {
	result := CompileWithOptions("+.", CompileOptions{
		SourceMap: true,
		SourceMapOptions: SourceMapOptions{
			File:       "hello.c",
			SourceName: "hello.bf",
		},
	})

	require.NotEmpty(t, result.SourceMap)
	var sm map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.SourceMap), &sm))
	assert.Equal(t, float64(3), sm["version"])
	assert.Equal(t, "hello.c", sm["file"])
	assert.Equal(t, []interface{}{"hello.bf"}, sm["sources"])
	assert.True(t, strings.HasPrefix(result.SourceMapDataURI, "data:application/json;base64,"))
}

func TestCompilerCache(t *testing.T) {
	c, err := NewCompiler(2)
	require.NoError(t, err)

	first := c.Compile("+.", CompileOptions{})
	second := c.Compile("+.", CompileOptions{})
	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.Len())

	// Options are part of the key
	compact := c.Compile("+.", CompileOptions{Compact: true})
	assert.NotEqual(t, first.Code, compact.Code)
	assert.Equal(t, 2, c.Len())

	// The oldest entry is evicted past capacity
	c.Compile("-.", CompileOptions{})
	assert.Equal(t, 2, c.Len())
}

func TestCompilerCacheResultsAreIndependent(t *testing.T) {
	c, err := NewCompiler(4)
	require.NoError(t, err)

	first := c.Compile("[", CompileOptions{})
	require.Len(t, first.Errors, 1)
	first.Errors[0] = "tampered"

	second := c.Compile("[", CompileOptions{})
	require.Len(t, second.Errors, 1)
	assert.Contains(t, second.Errors[0], "never closed")

	capped := CompileOptions{MaxPasses: 1}
	warned := c.Compile("+++[-]", capped)
	require.Len(t, warned.Warnings, 1)
	warned.Warnings[0] = "tampered"

	again := c.Compile("+++[-]", capped)
	require.Len(t, again.Warnings, 1)
	assert.Contains(t, again.Warnings[0], "no fixed point")
}

func TestCompilerCacheConcurrent(t *testing.T) {
	c, err := NewCompiler(16)
	require.NoError(t, err)

	want := Compile(",[.,]")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, c.Compile(",[.,]", CompileOptions{}))
		}()
	}
	wg.Wait()
}

func TestNewCompilerInvalidSize(t *testing.T) {
	_, err := NewCompiler(0)
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	result := Inspect("+[-]>[<+>-]")

	require.Empty(t, result.Errors)
	assert.Equal(t, 1, result.Depth)
	assert.Equal(t, 8, result.NodeCount)
	require.Len(t, result.Nodes, 4)

	assert.Equal(t, NodeInfo{Kind: "CellShift", Amount: 1, Start: 0, End: 0}, result.Nodes[0])
	assert.Equal(t, NodeInfo{Kind: "Set", Amount: 0, Start: 1, End: 3}, result.Nodes[1])
	assert.Equal(t, "Loop", result.Nodes[3].Kind)
	assert.Len(t, result.Nodes[3].Body, 4)

	data, err := json.Marshal(result.Nodes[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"Set","start":1,"end":3}`, string(data))
}

func TestInspectErrors(t *testing.T) {
	result := Inspect("[")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "never closed")
	assert.Empty(t, result.Nodes)
}
