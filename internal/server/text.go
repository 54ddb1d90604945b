package server

import (
	"unicode/utf8"

	"github.com/matkrin/mdecd/internal/diff"
	"github.com/matkrin/mdecd/internal/lsp"
)

// Positions count lines the way LSP clients do: "\n", "\r\n" and a lone "\r"
// all end a line, and characters are UTF-16 code units.

func applyChanges(text string, changes []lsp.TextDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		start := offsetForPosition(text, change.Range.Start)
		end := offsetForPosition(text, change.Range.End)
		if end < start {
			end = start
		}
		text = text[:start] + change.Text + text[end:]
	}
	return text
}

// lineBreakLen returns the length of the line terminator at text[i], or 0.
func lineBreakLen(text string, i int) int {
	switch text[i] {
	case '\n':
		return 1
	case '\r':
		if i+1 < len(text) && text[i+1] == '\n' {
			return 2
		}
		return 1
	}
	return 0
}

func utf16Len(r rune) uint {
	if r > 0xFFFF {
		return 2
	}
	return 1
}

func offsetForPosition(text string, pos lsp.Position) int {
	i := 0
	for line := uint(0); line < pos.Line; {
		if i >= len(text) {
			return len(text)
		}
		if n := lineBreakLen(text, i); n > 0 {
			i += n
			line++
			continue
		}
		i++
	}

	var units uint
	for i < len(text) && lineBreakLen(text, i) == 0 {
		r, size := utf8.DecodeRuneInString(text[i:])
		need := utf16Len(r)
		if units+need > pos.Character {
			break
		}
		units += need
		i += size
	}
	return i
}

func positionForOffset(text string, offset int) lsp.Position {
	var pos lsp.Position
	i := 0
	for i < offset {
		if n := lineBreakLen(text, i); n > 0 {
			i += n
			pos.Line++
			pos.Character = 0
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		pos.Character += utf16Len(r)
		i += size
	}
	return pos
}

// textEdit converts change against text into an LSP edit. An end point
// between "\r" and "\n" has no LSP position, so the edit is widened to take
// in the whole terminator.
func textEdit(text string, change diff.TextChange) lsp.TextEdit {
	from, to, insert := change.From, change.To, change.Insert
	if splitsCRLF(text, from) {
		from--
		insert = "\r" + insert
	}
	if splitsCRLF(text, to) {
		to++
		insert += "\n"
	}

	return lsp.TextEdit{
		Range: lsp.Range{
			Start: positionForOffset(text, from),
			End:   positionForOffset(text, to),
		},
		NewText: insert,
	}
}

func splitsCRLF(text string, offset int) bool {
	return offset > 0 && offset < len(text) && text[offset-1] == '\r' && text[offset] == '\n'
}
