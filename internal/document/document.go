package document

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// document is the mutable per-URI state, owned by the Store and guarded by
// the Store's lock.
type document struct {
	uri     string
	version int32
	text    string
}

func (d *document) snapshot() Snapshot {
	return Snapshot{URI: d.uri, Version: d.version, Text: d.text}
}

// apply produces the new text buffer for a batch of changes. Changes are
// applied in protocol order, each against the buffer the previous one
// produced.
func (d *document) apply(changes []Change) {
	text := d.text
	for _, change := range changes {
		if change.Whole {
			text = change.NewText
			continue
		}
		start := offsetForPosition(text, change.Range.Start)
		end := offsetForPosition(text, change.Range.End)
		if end < start {
			end = start
		}
		var sb strings.Builder
		sb.Grow(len(text) - (end - start) + len(change.NewText))
		sb.WriteString(text[:start])
		sb.WriteString(change.NewText)
		sb.WriteString(text[end:])
		text = sb.String()
	}
	d.text = text
}

// offsetForPosition maps a (line, UTF-16 character) position to a byte
// offset, clamping past-the-end positions to the line or document end.
func offsetForPosition(text string, pos Position) int {
	off := 0
	for line := uint32(0); line < pos.Line; line++ {
		nl := strings.IndexByte(text[off:], '\n')
		if nl < 0 {
			return len(text)
		}
		off += nl + 1
	}

	remaining := pos.Character
	for off < len(text) && remaining > 0 {
		r, size := utf8.DecodeRuneInString(text[off:])
		if r == '\n' {
			break
		}
		units := uint32(utf16.RuneLen(r))
		if units > remaining {
			break
		}
		remaining -= units
		off += size
	}
	return off
}
