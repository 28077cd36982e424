package diagnostics

import "fmt"

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Position is a zero-based (line, UTF-16 character) location.
type Position struct {
	Line      uint32
	Character uint32
}

// Range is a half-open [Start, End) region of a document.
type Range struct {
	Start Position
	End   Position
}

// Diagnostic is one parse or type finding attached to a source range.
type Diagnostic struct {
	Range    Range
	Severity Severity
	Code     string
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d %s[%s]: %s",
		d.Range.Start.Line, d.Range.Start.Character, d.Severity, d.Code, d.Message)
}

// List collects diagnostics during a pass. The zero value is ready to use.
type List struct {
	items []Diagnostic
}

// Add appends a diagnostic.
func (l *List) Add(d Diagnostic) {
	l.items = append(l.items, d)
}

// Errorf records an error diagnostic at the given range.
func (l *List) Errorf(r Range, code string, format string, args ...any) {
	l.Add(Diagnostic{
		Range:    r,
		Severity: SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Warningf records a warning diagnostic at the given range.
func (l *List) Warningf(r Range, code string, format string, args ...any) {
	l.Add(Diagnostic{
		Range:    r,
		Severity: SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Items returns the collected diagnostics. The returned slice is a copy.
func (l *List) Items() []Diagnostic {
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of collected diagnostics.
func (l *List) Len() int {
	return len(l.items)
}

// ErrorCount returns how many diagnostics are errors.
func (l *List) ErrorCount() int {
	n := 0
	for _, d := range l.items {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}
