// Package ast defines the syntax tree produced by the parser.
//
// The node set is closed: Expr and Stmt carry unexported marker methods,
// so only the types in this package satisfy them and a type switch over
// them can be exhaustive.
package ast

import (
	"github.com/teness/tessc/internal/source"
)

// Node is implemented by every syntax tree node.
type Node interface {
	// Pos returns the position of the node's first token.
	Pos() source.Position
	// End returns the position of the node's last token.
	End() source.Position
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement or declaration node.
type Stmt interface {
	Node
	stmtNode()
}

// Program is the root of a parsed compilation unit: top-level function
// declarations and statements in source order.
type Program struct {
	Filename string
	Stmts    []Stmt
	EOF      source.Position
}

func (p *Program) Pos() source.Position {
	if len(p.Stmts) > 0 {
		return p.Stmts[0].Pos()
	}
	return p.EOF
}

func (p *Program) End() source.Position { return p.EOF }

// Funcs returns the top-level function declarations in order.
func (p *Program) Funcs() []*FuncDecl {
	var out []*FuncDecl
	for _, s := range p.Stmts {
		if fn, ok := s.(*FuncDecl); ok {
			out = append(out, fn)
		}
	}
	return out
}

// TopLevel returns the top-level statements that are not function
// declarations.
func (p *Program) TopLevel() []Stmt {
	var out []Stmt
	for _, s := range p.Stmts {
		if _, ok := s.(*FuncDecl); !ok {
			out = append(out, s)
		}
	}
	return out
}
