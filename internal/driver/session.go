package driver

import (
	"context"
	"strings"

	"github.com/teness/tessc/internal/source"
)

// SessionFile is the file name interactive input is compiled under.
const SessionFile = "repl" + source.Extension

// Session accumulates interactive input. Each accepted entry is appended to
// the session source; an entry that fails to compile is discarded.
type Session struct {
	d       *Driver
	entries []string
	unit    *Unit
}

// NewSession starts an empty session compiled by d.
func (d *Driver) NewSession() *Session {
	return &Session{d: d}
}

// Source returns the accepted input.
func (s *Session) Source() string {
	return strings.Join(s.entries, "\n")
}

// Check parses the session source followed by entry. A diagnostic for which
// diag.IsIncomplete holds means more input is needed.
func (s *Session) Check(entry string) error {
	_, _, err := Parse(s.File(entry))
	return err
}

// Add compiles the session with entry appended and keeps entry on success.
func (s *Session) Add(entry string) (*Unit, error) {
	u, err := s.d.Frontend(s.File(entry))
	if err != nil {
		return nil, err
	}
	s.entries = append(s.entries, entry)
	s.unit = u
	return u, nil
}

// Unit returns the last successfully compiled unit, or nil.
func (s *Session) Unit() *Unit { return s.unit }

// Run generates and executes the last compiled unit.
func (s *Session) Run(ctx context.Context) (int, error) {
	if s.unit == nil {
		return 0, nil
	}
	m, err := s.d.Generate(ctx, s.unit)
	if err != nil {
		return 0, err
	}
	return s.d.Run(ctx, s.unit, m)
}

// Reset drops all accepted input.
func (s *Session) Reset() {
	s.entries = nil
	s.unit = nil
}

// File returns the session source followed by entry.
func (s *Session) File(entry string) *source.File {
	text := entry
	if len(s.entries) > 0 {
		text = s.Source() + "\n" + entry
	}
	return source.NewFile(SessionFile, text)
}
