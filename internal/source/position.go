// Package source holds source files and positions within them.
package source

import "strconv"

// Position represents a location in a source file.
//
// Position is a value type. The zero value means "no position" and is
// reported as invalid by IsValid.
type Position struct {
	// Filename is the name of the source file.
	Filename string

	// Line is the 1-based line number.
	Line int

	// Column is the 1-based column, counted in runes.
	Column int

	// Offset is the 0-based byte offset from the start of the file.
	Offset int
}

// String returns "filename:line:column".
func (p Position) String() string {
	return p.Filename + ":" + strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// IsValid reports whether the position has a line number.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Before reports whether p comes before other in the same file.
func (p Position) Before(other Position) bool {
	return p.Offset < other.Offset
}

// After reports whether p comes after other in the same file.
func (p Position) After(other Position) bool {
	return p.Offset > other.Offset
}

// Span is a range from Start to End.
type Span struct {
	Start Position
	End   Position
}

// String returns "filename:line:col-col" for single-line spans and
// "filename:line:col-line:col" otherwise.
func (s Span) String() string {
	if s.Start.Line == s.End.Line {
		return s.Start.String() + "-" + strconv.Itoa(s.End.Column)
	}
	return s.Start.String() + "-" + strconv.Itoa(s.End.Line) + ":" + strconv.Itoa(s.End.Column)
}

// IsValid reports whether both ends are valid and ordered.
func (s Span) IsValid() bool {
	return s.Start.IsValid() && s.End.IsValid() && !s.End.Before(s.Start)
}

// Contains reports whether pos lies within the span, inclusive.
func (s Span) Contains(pos Position) bool {
	return !pos.Before(s.Start) && !pos.After(s.End)
}
