// Package diag defines the diagnostics reported by every compiler stage.
//
// A diagnostic is a single *Error value carrying a Category, the Stage that
// raised it, a human readable detail message, an optional source position,
// and the Origin (file and scope label) it is attributed to. Stages return
// the first diagnostic they encounter and stop.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teness/tessc/internal/source"
)

// Category classifies a diagnostic.
type Category int

const (
	IllegalCharacter Category = iota
	InvalidSyntax
	UnknownNode
	DuplicateName
	NoSuchVariable
	TypeError
	RuntimeException
	InvalidIndex
)

var categoryNames = [...]string{
	IllegalCharacter: "Illegal Character",
	InvalidSyntax:    "Invalid Syntax",
	UnknownNode:      "Unknown Node",
	DuplicateName:    "Duplicate Name",
	NoSuchVariable:   "No such Variable",
	TypeError:        "Type Error",
	RuntimeException: "Runtime Exception",
	InvalidIndex:     "Invalid Index",
}

func (c Category) String() string {
	if c >= 0 && int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Stage names the pipeline stage that raised a diagnostic.
type Stage int

const (
	Lexing Stage = iota
	Parsing
	Building
	Execution
)

func (s Stage) String() string {
	switch s {
	case Lexing:
		return "lexing"
	case Parsing:
		return "parsing"
	case Building:
		return "building"
	case Execution:
		return "execution"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// StageOf returns the stage a category is raised in.
func StageOf(c Category) Stage {
	switch c {
	case IllegalCharacter:
		return Lexing
	case InvalidSyntax:
		return Parsing
	case RuntimeException, InvalidIndex:
		return Execution
	default:
		return Building
	}
}

// Origin identifies the file and scope a diagnostic is attributed to.
type Origin struct {
	File  string
	Scope string
}

// Error is a compiler diagnostic.
type Error struct {
	Category Category
	Stage    Stage
	Details  string
	Pos      source.Position
	Origin   Origin

	// Incomplete marks syntax errors raised at end of input.
	Incomplete bool

	// Cause is the underlying error, if any.
	Cause error
}

// New creates a diagnostic at pos. The stage is derived from the category.
func New(c Category, origin Origin, pos source.Position, format string, args ...any) *Error {
	return &Error{
		Category: c,
		Stage:    StageOf(c),
		Details:  fmt.Sprintf(format, args...),
		Pos:      pos,
		Origin:   origin,
	}
}

// Error renders the diagnostic as a single line:
//
//	Type Error: cannot add int and float, file main, line 3, pos 9
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Category.String())
	b.WriteString(": ")
	b.WriteString(e.Details)
	b.WriteString(", file ")
	b.WriteString(e.file())
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, ", line %d, pos %d", e.Pos.Line, e.Pos.Column)
	}
	return b.String()
}

// Message returns the details without category or location.
func (e *Error) Message() string { return e.Details }

func (e *Error) Unwrap() error { return e.Cause }

// CausedBy sets the underlying error and returns e.
func (e *Error) CausedBy(cause error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) file() string {
	if e.Origin.File != "" {
		return e.Origin.File
	}
	return e.Pos.Filename
}

// As returns the diagnostic in err's chain, if any.
func As(err error) (*Error, bool) {
	var d *Error
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// Is reports whether err carries a diagnostic of category c.
func Is(err error, c Category) bool {
	d, ok := As(err)
	return ok && d.Category == c
}

// IsIncomplete reports whether err is a syntax error raised at end of input.
func IsIncomplete(err error) bool {
	d, ok := As(err)
	return ok && d.Incomplete
}

// Excerpt returns the offending source line followed by a caret line
// pointing at the diagnostic's column. It returns "" without a position.
func Excerpt(e *Error, f *source.File) string {
	if !e.Pos.IsValid() || f == nil {
		return ""
	}
	line := f.Line(e.Pos.Line)
	col := e.Pos.Column
	if col < 1 {
		col = 1
	}
	return line + "\n" + strings.Repeat(" ", col-1) + "^"
}
