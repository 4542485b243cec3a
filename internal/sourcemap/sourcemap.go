package sourcemap

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// SourceMap is a Source Map v3 document.
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// Mapping ties a generated position to a source position. All fields are
// 0-indexed.
type Mapping struct {
	GenLine int
	GenCol  int
	SrcLine int
	SrcCol  int
}

// Generator collects mappings for a single source program.
type Generator struct {
	index         *LineIndex
	source        string
	file          string
	sourceName    string
	includeSource bool
	mappings      []Mapping
}

// NewGenerator creates a generator for the given original source.
func NewGenerator(source string) *Generator {
	return &Generator{
		index:  NewLineIndex(source),
		source: source,
	}
}

// SetFile sets the generated file name.
func (g *Generator) SetFile(file string) {
	g.file = file
}

// SetSourceName sets the original source file name.
func (g *Generator) SetSourceName(name string) {
	g.sourceName = name
}

// IncludeSourceContent embeds the original source in sourcesContent.
func (g *Generator) IncludeSourceContent(include bool) {
	g.includeSource = include
}

// AddMapping records that generated position (genLine, genCol) came from the
// character at srcOffset. Mappings must be added in generated order.
func (g *Generator) AddMapping(genLine, genCol, srcOffset int) {
	srcLine, srcCol := g.index.OffsetToLineColumnUTF16(srcOffset)
	g.mappings = append(g.mappings, Mapping{
		GenLine: genLine,
		GenCol:  genCol,
		SrcLine: srcLine,
		SrcCol:  srcCol,
	})
}

// Mappings returns the mappings recorded so far.
func (g *Generator) Mappings() []Mapping {
	return g.mappings
}

// Generate produces the SourceMap.
func (g *Generator) Generate() *SourceMap {
	sm := &SourceMap{
		Version:  3,
		File:     g.file,
		Sources:  []string{},
		Names:    []string{},
		Mappings: encodeMappings(g.mappings),
	}
	if g.sourceName != "" {
		sm.Sources = []string{g.sourceName}
	}
	if g.includeSource && g.source != "" {
		sm.SourcesContent = []string{g.source}
	}
	return sm
}

func encodeMappings(mappings []Mapping) string {
	var buf strings.Builder
	var prevCol, prevSrcLine, prevSrcCol, line int

	for i, m := range mappings {
		if m.GenLine > line {
			buf.WriteString(strings.Repeat(";", m.GenLine-line))
			line = m.GenLine
			prevCol = 0
		} else if i > 0 {
			buf.WriteByte(',')
		}

		AppendVLQ(&buf, m.GenCol-prevCol)
		AppendVLQ(&buf, 0) // single source
		AppendVLQ(&buf, m.SrcLine-prevSrcLine)
		AppendVLQ(&buf, m.SrcCol-prevSrcCol)

		prevCol, prevSrcLine, prevSrcCol = m.GenCol, m.SrcLine, m.SrcCol
	}

	return buf.String()
}

// DecodeMappings decodes a mappings string produced by Generate.
func DecodeMappings(mappings string) ([]Mapping, error) {
	var result []Mapping
	var srcLine, srcCol int

	for genLine, line := range strings.Split(mappings, ";") {
		genCol := 0
		for _, segment := range strings.Split(line, ",") {
			if segment == "" {
				continue
			}

			var fields [4]int
			pos := 0
			for i := range fields {
				v, n, err := DecodeVLQ(segment[pos:])
				if err != nil {
					return nil, fmt.Errorf("line %d segment %q: %w", genLine, segment, err)
				}
				fields[i] = v
				pos += n
			}

			genCol += fields[0]
			srcLine += fields[2]
			srcCol += fields[3]
			result = append(result, Mapping{
				GenLine: genLine,
				GenCol:  genCol,
				SrcLine: srcLine,
				SrcCol:  srcCol,
			})
		}
	}

	return result, nil
}

// ToJSON returns the source map as JSON.
func (sm *SourceMap) ToJSON() string {
	data, _ := json.Marshal(sm)
	return string(data)
}

// ToDataURI returns the source map as a data URI for inline embedding.
func (sm *SourceMap) ToDataURI() string {
	return "data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(sm.ToJSON()))
}

// ToComment returns a C comment linking generated code to its source map.
func (sm *SourceMap) ToComment(inline bool) string {
	if inline {
		return "//# sourceMappingURL=" + sm.ToDataURI()
	}
	return "//# sourceMappingURL=" + sm.File + ".map"
}
