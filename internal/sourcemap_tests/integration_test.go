package sourcemap_tests

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"codeberg.org/saruga/bfc/internal/compiler"
	"codeberg.org/saruga/bfc/internal/sourcemap"
)

func compileWithMap(t testing.TB, source string, compact bool) compiler.Result {
	t.Helper()
	opts := compiler.DefaultOptions()
	opts.Compact = compact
	opts.GenerateSourceMap = true
	opts.SourceMapOptions = compiler.SourceMapOptions{
		File:          "out.c",
		SourceName:    "in.bf",
		IncludeSource: true,
	}

	result := compiler.New(opts).Compile(source)
	if err := result.Err(); err != nil {
		t.Fatalf("compile errors: %v", err)
	}
	if result.SourceMap == nil {
		t.Fatal("Expected source map to be generated")
	}
	return result
}

// ============================================================================
// Full Integration Tests
// ============================================================================

func TestSourceMapIntegrationBasic(t *testing.T) {
	result := compileWithMap(t, "+++[>+<-]>.", false)

	if result.SourceMap.Version != 3 {
		t.Errorf("Version = %d, want 3", result.SourceMap.Version)
	}
	if result.SourceMap.Mappings == "" {
		t.Error("Mappings should not be empty")
	}
	if len(result.SourceMap.Names) != 0 {
		t.Errorf("Names = %v, want none", result.SourceMap.Names)
	}
}

func TestSourceMapOneMappingPerStatement(t *testing.T) {
	result := compileWithMap(t, "+++[>+<-]>.", false)

	mappings, err := sourcemap.DecodeMappings(result.SourceMap.Mappings)
	if err != nil {
		t.Fatalf("Failed to decode mappings: %v", err)
	}

	// +++, loop, four body shifts, >, .
	if len(mappings) != 8 {
		t.Errorf("got %d mappings, want 8", len(mappings))
	}
}

func TestSourceMapMultipleLines(t *testing.T) {
	source := "+++\n>>\n."
	result := compileWithMap(t, source, false)

	mappings, err := sourcemap.DecodeMappings(result.SourceMap.Mappings)
	if err != nil {
		t.Fatalf("Failed to decode mappings: %v", err)
	}
	if len(mappings) != 3 {
		t.Fatalf("got %d mappings, want 3", len(mappings))
	}

	for i, want := range []int{0, 1, 2} {
		if mappings[i].SrcLine != want || mappings[i].SrcCol != 0 {
			t.Errorf("mapping %d: source %d:%d, want %d:0", i, mappings[i].SrcLine, mappings[i].SrcCol, want)
		}
	}
	// Pretty output puts each statement on its own line
	if mappings[1].GenLine != mappings[0].GenLine+1 || mappings[2].GenLine != mappings[1].GenLine+1 {
		t.Errorf("expected consecutive generated lines, got %+v", mappings)
	}
}

func TestSourceMapValidMappingPositions(t *testing.T) {
	source := `read a byte and echo it back
,[.,]
then move right and clear three cells
>[-]>[-]>[-]
`
	for _, compact := range []bool{false, true} {
		result := compileWithMap(t, source, compact)

		mappings, err := sourcemap.DecodeMappings(result.SourceMap.Mappings)
		if err != nil {
			t.Fatalf("Failed to decode mappings: %v", err)
		}

		outputLines := strings.Split(result.Code, "\n")
		index := sourcemap.NewLineIndex(source)
		runes := []rune(source)

		for i, m := range mappings {
			// Generated positions should be within output bounds
			if m.GenLine >= len(outputLines) {
				t.Fatalf("Mapping %d: GenLine %d exceeds output lines %d", i, m.GenLine, len(outputLines))
			}
			line := outputLines[m.GenLine]
			if m.GenCol >= len(line) {
				t.Fatalf("Mapping %d: GenCol %d exceeds line length %d", i, m.GenCol, len(line))
			}
			if line[m.GenCol] == ' ' {
				t.Errorf("Mapping %d: generated position points at whitespace in %q", i, line)
			}

			// Source positions should land on an instruction
			offset := index.LineColumnToOffset(m.SrcLine, m.SrcCol)
			if offset >= len(runes) || !strings.ContainsRune("+-<>,.[]", runes[offset]) {
				t.Errorf("Mapping %d: source %d:%d is not an instruction", i, m.SrcLine, m.SrcCol)
			}
		}
	}
}

func TestSourceMapCoalescedRunStart(t *testing.T) {
	result := compileWithMap(t, "  +++", false)

	mappings, err := sourcemap.DecodeMappings(result.SourceMap.Mappings)
	if err != nil {
		t.Fatalf("Failed to decode mappings: %v", err)
	}
	if len(mappings) != 1 || mappings[0].SrcCol != 2 {
		t.Errorf("expected a single mapping to column 2, got %+v", mappings)
	}
}

func TestSourceMapJSON(t *testing.T) {
	result := compileWithMap(t, "+.", false)

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(result.SourceMap.ToJSON()), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed["version"] != float64(3) {
		t.Errorf("version = %v, want 3", parsed["version"])
	}
	if parsed["file"] != "out.c" {
		t.Errorf("file = %v, want out.c", parsed["file"])
	}
	sources, ok := parsed["sources"].([]interface{})
	if !ok || len(sources) != 1 || sources[0] != "in.bf" {
		t.Errorf("sources = %v, want [in.bf]", parsed["sources"])
	}
}

func TestSourceMapDataURI(t *testing.T) {
	result := compileWithMap(t, "+.", true)

	uri := result.SourceMap.ToDataURI()
	const prefix = "data:application/json;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("unexpected data URI: %s", uri)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	if string(decoded) != result.SourceMap.ToJSON() {
		t.Error("data URI does not round-trip to the JSON source map")
	}
}

func TestSourceMapComment(t *testing.T) {
	result := compileWithMap(t, "+", false)

	if got := result.SourceMap.ToComment(false); got != "//# sourceMappingURL=out.c.map" {
		t.Errorf("ToComment(false) = %q", got)
	}
	if got := result.SourceMap.ToComment(true); !strings.HasPrefix(got, "//# sourceMappingURL=data:") {
		t.Errorf("ToComment(true) = %q", got)
	}
}

func TestSourceMapSourcesContent(t *testing.T) {
	source := "comment +."
	result := compileWithMap(t, source, false)

	if len(result.SourceMap.SourcesContent) != 1 || result.SourceMap.SourcesContent[0] != source {
		t.Errorf("SourcesContent = %v, want [%q]", result.SourceMap.SourcesContent, source)
	}
}

func TestSourceMapDisabled(t *testing.T) {
	result := compiler.Compile("+.", compiler.DefaultOptions())
	if result.SourceMap != nil {
		t.Error("Expected no source map when disabled")
	}
}

func TestSourceMapEmptySource(t *testing.T) {
	result := compileWithMap(t, "", false)

	if result.SourceMap.Version != 3 {
		t.Errorf("Version = %d, want 3", result.SourceMap.Version)
	}
	if result.SourceMap.Mappings != "" {
		t.Errorf("Mappings = %q, want empty", result.SourceMap.Mappings)
	}
}

func TestSourceMapCommentsOnly(t *testing.T) {
	result := compileWithMap(t, "nothing to run here", false)

	if result.SourceMap.Mappings != "" {
		t.Errorf("Mappings = %q, want empty for a program without instructions", result.SourceMap.Mappings)
	}
}

// ============================================================================
// Benchmark Tests
// ============================================================================

func BenchmarkSourceMapGeneration(b *testing.B) {
	source := strings.Repeat("++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.\n", 50)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		compileWithMap(b, source, true)
	}
}
