//go:build js && wasm

// Command bfc-wasm is the WebAssembly build of the compiler.
// It exposes compilation functions to JavaScript via syscall/js.
package main

import (
	"encoding/json"
	"syscall/js"

	"codeberg.org/saruga/bfc/pkg/api"
)

var version = "0.1.0"

// jsOptions mirrors the JavaScript options object.
type jsOptions struct {
	Optimize  *bool  `json:"optimize"`
	MaxPasses int    `json:"maxPasses"`
	Emit      string `json:"emit"`
	TapeSize  int    `json:"tapeSize"`
	Compact   bool   `json:"compact"`
	SourceMap bool   `json:"sourceMap"`
}

func main() {
	js.Global().Set("__bfc", js.ValueOf(map[string]interface{}{
		"compile": js.FuncOf(compileJS),
		"inspect": js.FuncOf(inspectJS),
		"version": version,
	}))

	// Keep the Go runtime alive
	select {}
}

// compileJS is the JavaScript-callable compile function.
// Signature: __bfc.compile(source: string, options?: object) => object
func compileJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("compile requires at least 1 argument (source)")
	}
	source := args[0].String()

	var opts api.CompileOptions
	if len(args) > 1 && !args[1].IsUndefined() && !args[1].IsNull() {
		jsOpts, err := parseOptions(args[1])
		if err != nil {
			return makeError("invalid options: " + err.Error())
		}
		if jsOpts.Optimize != nil {
			opts.NoOptimize = !*jsOpts.Optimize
		}
		opts.MaxPasses = jsOpts.MaxPasses
		opts.Emit = jsOpts.Emit
		opts.TapeSize = jsOpts.TapeSize
		opts.Compact = jsOpts.Compact
		opts.SourceMap = jsOpts.SourceMap
	}

	result := api.CompileWithOptions(source, opts)
	return map[string]interface{}{
		"code":         result.Code,
		"errors":       toJSArray(result.Errors),
		"warnings":     toJSArray(result.Warnings),
		"originalSize": result.OriginalSize,
		"outputSize":   result.OutputSize,
		"passes":       result.Passes,
		"sourceMap":    result.SourceMap,
	}
}

// inspectJS returns the optimized tree as a JSON string.
// Signature: __bfc.inspect(source: string) => string
func inspectJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("inspect requires 1 argument (source)")
	}
	data, err := json.Marshal(api.Inspect(args[0].String()))
	if err != nil {
		return makeError(err.Error())
	}
	return string(data)
}

// parseOptions decodes a JS options object through JSON.
func parseOptions(jsVal js.Value) (jsOptions, error) {
	var opts jsOptions
	jsonStr := js.Global().Get("JSON").Call("stringify", jsVal).String()
	err := json.Unmarshal([]byte(jsonStr), &opts)
	return opts, err
}

func toJSArray(items []string) []interface{} {
	out := make([]interface{}, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}

// makeError creates a result object with an error.
func makeError(msg string) interface{} {
	return map[string]interface{}{
		"code":         "",
		"errors":       []interface{}{msg},
		"warnings":     []interface{}{},
		"originalSize": 0,
		"outputSize":   0,
	}
}
