package document

// Position is a zero-based (line, UTF-16 character) location, matching the
// protocol's position encoding.
type Position struct {
	Line      uint32
	Character uint32
}

// Range is a half-open [Start, End) region of a document.
type Range struct {
	Start Position
	End   Position
}

// Change is one content change: either an incremental replacement of Range
// by NewText, or a whole-document replacement when Whole is set.
type Change struct {
	Range   Range
	NewText string
	Whole   bool
}

// Snapshot is an immutable view of a document at one version. It stays valid
// after further edits.
type Snapshot struct {
	URI     string
	Version int32
	Text    string
}
