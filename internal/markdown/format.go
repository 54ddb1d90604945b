// Package markdown rewrites the indentation and whitespace of Markdown text.
//
// Only leading indentation, trailing whitespace, line endings and the final
// newline are touched. Frontmatter at the top of a document and fenced code
// blocks are copied through byte for byte.
package markdown

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/matkrin/mdecd/internal/rules"
)

const (
	frontmatterMarker = "---"
	fenceMarker       = "```"
)

var lineBreak = regexp.MustCompile(`\r?\n`)

// Format returns content reformatted to r. Applying Format to its own
// output with the same rules returns that output unchanged.
func Format(content string, r rules.Rules) string {
	if r.IndentSize <= 0 {
		r.IndentSize = rules.DefaultIndentSize
	}

	eol := r.EndOfLine.Sequence()
	lines := lineBreak.Split(content, -1)
	last := len(lines) - 1
	inFrontmatter := false
	inCodeBlock := false

	for i, line := range lines {
		// With LF endings a "\r" left in front of the joining "\n" would
		// read back as a CRLF break on the next pass.
		crBeforeBreak := eol == "\n" && (i < last || r.InsertFinalNewline)
		if crBeforeBreak {
			line = strings.TrimRight(line, "\r")
			lines[i] = line
		}

		trimmed := trimMarkerLine(line)

		if i == 0 && trimmed == frontmatterMarker {
			inFrontmatter = true
			continue
		}
		if inFrontmatter {
			if trimmed == frontmatterMarker {
				inFrontmatter = false
			}
			continue
		}

		if strings.HasPrefix(trimmed, fenceMarker) {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			continue
		}

		cutset := " \t"
		if crBeforeBreak {
			cutset = " \t\r"
		}
		lines[i] = formatLine(line, r, cutset)
	}

	formatted := strings.Join(lines, eol)
	if r.InsertFinalNewline && !strings.HasSuffix(formatted, eol) {
		formatted += eol
	}

	return formatted
}

// trimMarkerLine trims whitespace and byte order marks around a possible
// frontmatter or fence marker.
func trimMarkerLine(line string) string {
	return strings.TrimFunc(line, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

func formatLine(line string, r rules.Rules, trailing string) string {
	body := strings.TrimLeft(line, " \t")
	leading := line[:len(line)-len(body)]

	tabs := strings.Count(leading, "\t")
	spaces := len(leading) - tabs
	level := indentLevel(tabs, spaces, r.IndentSize)

	var indent string
	if r.IndentStyle == rules.IndentTab {
		indent = strings.Repeat("\t", level)
	} else {
		indent = strings.Repeat(" ", level*r.IndentSize)
	}

	line = indent + body
	if r.TrimTrailingWhitespace {
		line = strings.TrimRight(line, trailing)
	}
	return line
}

// indentLevel converts leading whitespace to a whole indent level. A tab
// counts as one level, a space as 1/size of a level. Halves round to the
// nearest even level, so two spaces at size 4 are level 0 and six are 2.
func indentLevel(tabs, spaces, size int) int {
	units := tabs*size + spaces
	level := units / size
	rem := units % size

	switch {
	case 2*rem > size:
		level++
	case 2*rem == size && level%2 == 1:
		level++
	}
	return level
}
