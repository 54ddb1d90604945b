// Package diff reduces two versions of a text to one contiguous edit.
//
// It is not a general diff: it finds the longest common prefix and suffix
// and replaces whatever lies between them. That is minimal for edits that
// touch a single region, and a valid (if larger) edit otherwise.
package diff

import "unicode/utf8"

// TextChange replaces the byte range [From, To) of the old text with Insert.
type TextChange struct {
	From   int
	To     int
	Insert string
}

// Apply returns text with the change applied.
func (c TextChange) Apply(text string) string {
	return text[:c.From] + c.Insert + text[c.To:]
}

// Calculate returns the change turning oldText into newText. ok is false
// when the texts are identical.
//
// Offsets are byte offsets and always fall on rune boundaries of both
// texts, so the change can be converted to line and character positions.
func Calculate(oldText, newText string) (change TextChange, ok bool) {
	if oldText == newText {
		return TextChange{}, false
	}

	start := 0
	for start < len(oldText) && start < len(newText) && oldText[start] == newText[start] {
		start++
	}
	for start > 0 && !runeStart(oldText, start) {
		start--
	}

	oldEnd := len(oldText)
	newEnd := len(newText)
	for oldEnd > start && newEnd > start && oldText[oldEnd-1] == newText[newEnd-1] {
		oldEnd--
		newEnd--
	}
	// The common suffix is byte-identical, so a rune boundary in one text
	// is a rune boundary in the other.
	for oldEnd < len(oldText) && !runeStart(oldText, oldEnd) {
		oldEnd++
		newEnd++
	}

	if start == oldEnd && start == newEnd {
		return TextChange{}, false
	}

	return TextChange{
		From:   start,
		To:     oldEnd,
		Insert: newText[start:newEnd],
	}, true
}

func runeStart(text string, i int) bool {
	return i >= len(text) || utf8.RuneStart(text[i])
}
