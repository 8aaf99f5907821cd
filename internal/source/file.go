package source

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Extension is the file extension of TenessScript sources.
const Extension = ".tss"

// File is a named source text.
type File struct {
	name string
	text string
}

// NewFile creates a File. The text is normalized to NFC so that identifiers
// spelled with different code-point sequences lex identically.
func NewFile(name, text string) *File {
	return &File{name: name, text: norm.NFC.String(text)}
}

// Name returns the file name as given.
func (f *File) Name() string { return f.name }

// Text returns the normalized source text.
func (f *File) Text() string { return f.text }

// Stem returns the base name without directory and extension.
// "examples/fib.tss" has stem "fib".
func (f *File) Stem() string {
	base := filepath.Base(f.name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Line returns the text of the given 1-based line without its newline.
// It returns "" for lines out of range.
func (f *File) Line(n int) string {
	if n < 1 {
		return ""
	}
	lines := strings.Split(f.text, "\n")
	if n > len(lines) {
		return ""
	}
	return strings.TrimSuffix(lines[n-1], "\r")
}
