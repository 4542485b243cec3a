package sourcemap

import "sort"

// LineIndex converts character offsets into line/column pairs.
//
// Offsets count runes, not bytes, matching the offsets the parser records
// in node spans. Line starts are precomputed so lookups are O(log n).
type LineIndex struct {
	runes      []rune
	lineStarts []int // character offset of each line start
}

// NewLineIndex creates a LineIndex for the given source.
func NewLineIndex(source string) *LineIndex {
	runes := []rune(source)
	idx := &LineIndex{
		runes:      runes,
		lineStarts: []int{0},
	}

	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '\n':
			idx.addLineStart(i + 1)
		case '\r':
			// CRLF counts as a single line break
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			idx.addLineStart(i + 1)
		}
	}

	return idx
}

func (idx *LineIndex) addLineStart(offset int) {
	// A trailing newline does not open a new line
	if offset < len(idx.runes) {
		idx.lineStarts = append(idx.lineStarts, offset)
	}
}

// Len returns the length of the source in characters.
func (idx *LineIndex) Len() int {
	return len(idx.runes)
}

// LineCount returns the number of lines in the source.
func (idx *LineIndex) LineCount() int {
	return len(idx.lineStarts)
}

// OffsetToLineColumn converts a character offset to a 0-indexed line and
// a 0-indexed column counted in characters. Offsets past the end clamp to
// the end of the source.
func (idx *LineIndex) OffsetToLineColumn(offset int) (line, col int) {
	offset = idx.clamp(offset)
	line = idx.lineOf(offset)
	return line, offset - idx.lineStarts[line]
}

// OffsetToLineColumnUTF16 is like OffsetToLineColumn but counts the column
// in UTF-16 code units, as required by the source map format.
func (idx *LineIndex) OffsetToLineColumnUTF16(offset int) (line, col int) {
	offset = idx.clamp(offset)
	line = idx.lineOf(offset)
	for _, r := range idx.runes[idx.lineStarts[line]:offset] {
		if r >= 0x10000 {
			col += 2 // surrogate pair
		} else {
			col++
		}
	}
	return line, col
}

// LineColumnToOffset converts a 0-indexed line and character column back to
// a character offset, clamped to the source bounds.
func (idx *LineIndex) LineColumnToOffset(line, col int) int {
	if line < 0 {
		line = 0
	}
	if line >= len(idx.lineStarts) {
		line = len(idx.lineStarts) - 1
	}
	return idx.clamp(idx.lineStarts[line] + col)
}

// Line returns the text of the 0-indexed line without its line break.
func (idx *LineIndex) Line(line int) string {
	if line < 0 || line >= len(idx.lineStarts) {
		return ""
	}
	start := idx.lineStarts[line]
	end := len(idx.runes)
	if line+1 < len(idx.lineStarts) {
		end = idx.lineStarts[line+1]
	}
	for end > start && (idx.runes[end-1] == '\n' || idx.runes[end-1] == '\r') {
		end--
	}
	return string(idx.runes[start:end])
}

func (idx *LineIndex) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(idx.runes) {
		return len(idx.runes)
	}
	return offset
}

func (idx *LineIndex) lineOf(offset int) int {
	line := sort.Search(len(idx.lineStarts), func(i int) bool {
		return idx.lineStarts[i] > offset
	}) - 1
	if line < 0 {
		return 0
	}
	return line
}
