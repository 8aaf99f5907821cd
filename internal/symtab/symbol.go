package symtab

import (
	"github.com/teness/tessc/internal/source"
	"github.com/teness/tessc/internal/types"
)

// SymbolKind classifies a declared name.
type SymbolKind int

const (
	SymbolVariable SymbolKind = iota
	SymbolParameter
	SymbolFunction
)

func (sk SymbolKind) String() string {
	switch sk {
	case SymbolVariable:
		return "variable"
	case SymbolParameter:
		return "parameter"
	case SymbolFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Symbol is the declaration info bound to a name in a Context.
type Symbol struct {
	Name string
	Kind SymbolKind
	Type types.Type

	// Pos is where the name was declared.
	Pos source.Position

	// Context is the scope that owns the symbol. Set by Declare.
	Context Context

	// Index is the declaration order within its Context.
	Index int

	// Used is set when the symbol is resolved.
	Used bool
}

func (s *Symbol) String() string {
	typ := "<untyped>"
	if s.Type != nil {
		typ = s.Type.String()
	}
	return s.Kind.String() + " " + s.Name + ": " + typ + " at " + s.Pos.String()
}

// IsAssignable reports whether the symbol may appear on the left of '='.
func (s *Symbol) IsAssignable() bool {
	return s.Kind == SymbolVariable || s.Kind == SymbolParameter
}
