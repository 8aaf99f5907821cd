package ast

import (
	"github.com/teness/tessc/internal/lexer"
	"github.com/teness/tessc/internal/source"
)

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	Expression Expr
	Semicolon  lexer.Token
}

func (e *ExprStmt) Pos() source.Position { return e.Expression.Pos() }
func (e *ExprStmt) End() source.Position { return e.Semicolon.Position }
func (e *ExprStmt) stmtNode()            {}

// VarDecl declares a variable: var name [type] [= init];
// At least one of Type and Init is set.
type VarDecl struct {
	VarPos    source.Position
	Name      *IdentifierExpr
	Type      *IdentifierExpr
	Init      Expr
	Semicolon lexer.Token
}

func (v *VarDecl) Pos() source.Position { return v.VarPos }
func (v *VarDecl) End() source.Position { return v.Semicolon.Position }
func (v *VarDecl) stmtNode()            {}

// BlockStmt is a braced statement list. It opens a new scope.
type BlockStmt struct {
	LeftBrace  lexer.Token
	Stmts      []Stmt
	RightBrace lexer.Token
}

func (b *BlockStmt) Pos() source.Position { return b.LeftBrace.Position }
func (b *BlockStmt) End() source.Position { return b.RightBrace.Position }
func (b *BlockStmt) stmtNode()            {}

// IfStmt is if (cond) { ... } [else ...]. Else is nil, an *IfStmt or a
// *BlockStmt.
type IfStmt struct {
	IfPos     source.Position
	Condition Expr
	Then      *BlockStmt
	Else      Stmt
}

func (i *IfStmt) Pos() source.Position { return i.IfPos }
func (i *IfStmt) End() source.Position {
	if i.Else != nil {
		return i.Else.End()
	}
	return i.Then.End()
}
func (i *IfStmt) stmtNode() {}

// LoopStmt covers both loop forms:
//
//	while (cond) { body }
//	for (init; cond; post) { body }
//
// For a while loop Init and Post are nil. A nil Condition loops forever.
type LoopStmt struct {
	Keyword   lexer.Token
	Init      Stmt
	Condition Expr
	Post      Expr
	Body      *BlockStmt
}

func (l *LoopStmt) Pos() source.Position { return l.Keyword.Position }
func (l *LoopStmt) End() source.Position { return l.Body.End() }
func (l *LoopStmt) stmtNode()            {}

// IsFor reports whether the loop was written with the for keyword.
func (l *LoopStmt) IsFor() bool { return l.Keyword.Type == lexer.TokenFor }

// ReturnStmt is return [value];
type ReturnStmt struct {
	ReturnPos source.Position
	Value     Expr
	Semicolon lexer.Token
}

func (r *ReturnStmt) Pos() source.Position { return r.ReturnPos }
func (r *ReturnStmt) End() source.Position { return r.Semicolon.Position }
func (r *ReturnStmt) stmtNode()            {}

// BreakStmt exits the innermost loop.
type BreakStmt struct {
	Keyword lexer.Token
}

func (b *BreakStmt) Pos() source.Position { return b.Keyword.Position }
func (b *BreakStmt) End() source.Position { return endOf(b.Keyword) }
func (b *BreakStmt) stmtNode()            {}

// ContinueStmt jumps to the next iteration of the innermost loop.
type ContinueStmt struct {
	Keyword lexer.Token
}

func (c *ContinueStmt) Pos() source.Position { return c.Keyword.Position }
func (c *ContinueStmt) End() source.Position { return endOf(c.Keyword) }
func (c *ContinueStmt) stmtNode()            {}

// Param is a function parameter: name type.
type Param struct {
	Name *IdentifierExpr
	Type *IdentifierExpr
}

// FuncDecl is func name(params) [result] { body }.
// A nil Result means the function returns nothing.
type FuncDecl struct {
	FuncPos source.Position
	Name    *IdentifierExpr
	Params  []*Param
	Result  *IdentifierExpr
	Body    *BlockStmt
}

func (f *FuncDecl) Pos() source.Position { return f.FuncPos }
func (f *FuncDecl) End() source.Position { return f.Body.End() }
func (f *FuncDecl) stmtNode()            {}
