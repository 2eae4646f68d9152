package server

import (
	"unicode/utf8"

	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/transport"
)

// ApplyIncrementalChange splices newContent into content over the span r
// denotes, adapted from the teacher's incremental-sync helper of the same
// name (server/incremental.go) to the transport package's Range/Position
// types in this module.
func ApplyIncrementalChange(r transport.Range, newContent string, content string, encoding string) string {
	start, _ := PositionToOffset(r.Start, content, encoding)
	end, _ := PositionToOffset(r.End, content, encoding)
	return content[:start] + newContent + content[end:]
}

// PositionToOffset converts an LSP Position to a byte offset into s,
// honoring the negotiated encoding's code-unit width for surrogate pairs.
func PositionToOffset(pos transport.Position, s string, encoding string) (uint, error) {
	if len(s) == 0 {
		return 0, nil
	}
	indices := lineIndices(s)
	if pos.Line > uint32(len(indices)) {
		return 0, nil
	} else if pos.Line == uint32(len(indices)) {
		return uint(len(s)), nil
	}
	currChar := indices[pos.Line]
	for i := 0; i < int(pos.Character); i++ {
		if int(currChar) >= len(s) {
			break
		}
		r, w := utf8.DecodeRuneInString(s[currChar:])
		if w == 0 {
			break
		}
		currChar += uint(w)
		if encoding == "utf-16" && r >= 0x10000 {
			i++
			if i == int(pos.Character) {
				break
			}
		}
	}
	return currChar, nil
}

// OffsetToPosition is PositionToOffset's inverse.
func OffsetToPosition(offset uint, s string, encoding string) (transport.Position, error) {
	if len(s) == 0 || offset == 0 {
		return transport.Position{Line: 0, Character: 0}, nil
	}
	var line, char uint32
	str := []byte(s)
	for i := uint(0); i < offset && i < uint(len(str)); {
		r, w := utf8.DecodeRune(str[i:])
		if w == 0 {
			break
		}
		if r == '\n' {
			line++
			char = 0
		} else {
			char++
			if r >= 0x10000 && encoding == "utf-16" {
				char++
			}
		}
		i += uint(w)
	}
	return transport.Position{Line: line, Character: char}, nil
}

func lineIndices(s string) []uint {
	lines := []uint{0}
	for i, w := 0, 0; i < len(s); i += w {
		r, width := utf8.DecodeRuneInString(s[i:])
		if r == '\n' {
			lines = append(lines, uint(i)+1)
		}
		w = width
	}
	return lines
}

// astPosition and lspPosition convert between internal/ast's tokenizer
// convention and the LSP wire convention — both are zero-indexed
// line/column pairs, so the two are a direct field-for-field mapping with
// no column conversion. Columns therefore agree with the negotiated wire
// encoding only on lines where the tokenizer's column units match it
// (preprocess.Scan counts bytes, so ASCII-only lines).
func astPosition(p transport.Position) ast.Position {
	return ast.Position{Line: p.Line, Column: p.Character}
}

func lspPosition(p ast.Position) transport.Position {
	return transport.Position{Line: p.Line, Character: p.Column}
}

func astRange(r transport.Range) ast.Range {
	return ast.Range{Start: astPosition(r.Start), End: astPosition(r.End)}
}

func lspRange(r ast.Range) transport.Range {
	return transport.Range{Start: lspPosition(r.Start), End: lspPosition(r.End)}
}
