// Package symtab implements the scope chain used for name resolution.
//
// Scopes live in an arena owned by a Table and are addressed by Context
// handles. Each record links to its parent by handle, so resolution is an
// iterative walk and no record holds a pointer to another.
package symtab

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teness/tessc/internal/diag"
	"github.com/teness/tessc/internal/source"
)

// Context is a handle to a scope record in a Table.
type Context int

// NoContext is the parent of the root Context.
const NoContext Context = -1

// RootLabel is the label of the root Context of every Table.
const RootLabel = "<main>"

// ScopeKind describes what introduced a scope.
type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeTopLevel
	ScopeFunction
	ScopeBlock
	ScopeLoop
)

func (sk ScopeKind) String() string {
	switch sk {
	case ScopeModule:
		return "module"
	case ScopeTopLevel:
		return "toplevel"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	case ScopeLoop:
		return "loop"
	default:
		return "unknown"
	}
}

type record struct {
	parent  Context
	label   string
	kind    ScopeKind
	depth   int
	symbols map[string]*Symbol
	order   []*Symbol
}

// Table is the arena of scope records for one compilation unit.
type Table struct {
	file    *source.File
	records []record
}

// NewTable creates a Table for f with a root Context labelled RootLabel.
func NewTable(f *source.File) *Table {
	t := &Table{file: f}
	t.records = append(t.records, record{
		parent:  NoContext,
		label:   RootLabel,
		kind:    ScopeModule,
		symbols: make(map[string]*Symbol),
	})
	return t
}

// File returns the source file the table was created for.
func (t *Table) File() *source.File { return t.file }

// Root returns the root Context.
func (t *Table) Root() Context { return 0 }

// Len returns the number of Contexts in the table.
func (t *Table) Len() int { return len(t.records) }

// Child creates a Context nested in parent.
func (t *Table) Child(parent Context, kind ScopeKind, label string) Context {
	p := t.get(parent)
	t.records = append(t.records, record{
		parent:  parent,
		label:   label,
		kind:    kind,
		depth:   p.depth + 1,
		symbols: make(map[string]*Symbol),
	})
	return Context(len(t.records) - 1)
}

// Parent returns the enclosing Context, or false for the root.
func (t *Table) Parent(c Context) (Context, bool) {
	p := t.get(c).parent
	return p, p != NoContext
}

// Label returns the display label of c.
func (t *Table) Label(c Context) string { return t.get(c).label }

// Kind returns what introduced c.
func (t *Table) Kind(c Context) ScopeKind { return t.get(c).kind }

// Depth returns the nesting depth of c; the root has depth 0.
func (t *Table) Depth(c Context) int { return t.get(c).depth }

// Origin returns the diagnostic origin for c: the file stem and c's label.
func (t *Table) Origin(c Context) diag.Origin {
	return diag.Origin{File: t.file.Stem(), Scope: t.get(c).label}
}

// Declare binds sym.Name in c. Declaring a name already bound in the same
// Context fails with a Duplicate Name diagnostic at sym.Pos; names bound in
// enclosing Contexts are shadowed.
func (t *Table) Declare(c Context, sym *Symbol) error {
	r := t.get(c)
	if existing, ok := r.symbols[sym.Name]; ok {
		return diag.New(diag.DuplicateName, t.Origin(c), sym.Pos,
			"'%s' is already declared at line %d, pos %d",
			sym.Name, existing.Pos.Line, existing.Pos.Column)
	}
	sym.Context = c
	sym.Index = len(r.order)
	r.symbols[sym.Name] = sym
	r.order = append(r.order, sym)
	return nil
}

// Resolve finds name in c or the nearest enclosing Context. An unbound
// name fails with a No such Variable diagnostic at use, attributed to c.
func (t *Table) Resolve(c Context, name string, use source.Position) (*Symbol, error) {
	for cur := c; cur != NoContext; cur = t.records[cur].parent {
		if sym, ok := t.records[cur].symbols[name]; ok {
			sym.Used = true
			return sym, nil
		}
	}
	return nil, diag.New(diag.NoSuchVariable, t.Origin(c), use, "'%s' is not defined", name)
}

// LookupLocal returns the symbol bound to name in c only.
func (t *Table) LookupLocal(c Context, name string) *Symbol {
	return t.get(c).symbols[name]
}

// Symbols returns the symbols declared in c in declaration order.
func (t *Table) Symbols(c Context) []*Symbol {
	r := t.get(c)
	out := make([]*Symbol, len(r.order))
	copy(out, r.order)
	return out
}

// Enclosing returns the nearest Context of the given kind, starting at c.
func (t *Table) Enclosing(c Context, kind ScopeKind) (Context, bool) {
	for cur := c; cur != NoContext; cur = t.records[cur].parent {
		if t.records[cur].kind == kind {
			return cur, true
		}
	}
	return NoContext, false
}

// Unused returns the variables declared in c that were never resolved,
// sorted by position.
func (t *Table) Unused(c Context) []*Symbol {
	var out []*Symbol
	for _, sym := range t.get(c).order {
		if !sym.Used && sym.Kind == SymbolVariable {
			out = append(out, sym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pos.Before(out[j].Pos) })
	return out
}

// DebugString renders the Context tree rooted at the root Context.
func (t *Table) DebugString() string {
	children := make(map[Context][]Context)
	for i := 1; i < len(t.records); i++ {
		p := t.records[i].parent
		children[p] = append(children[p], Context(i))
	}

	var b strings.Builder
	var walk func(c Context)
	walk = func(c Context) {
		r := t.records[c]
		indent := strings.Repeat("  ", r.depth)
		fmt.Fprintf(&b, "%s%s (%s)\n", indent, r.label, r.kind)
		for _, sym := range r.order {
			fmt.Fprintf(&b, "%s  %s\n", indent, sym)
		}
		for _, child := range children[c] {
			walk(child)
		}
	}
	walk(t.Root())
	return b.String()
}

func (t *Table) get(c Context) *record {
	if c < 0 || int(c) >= len(t.records) {
		panic(fmt.Sprintf("symtab: invalid context %d", int(c)))
	}
	return &t.records[c]
}
