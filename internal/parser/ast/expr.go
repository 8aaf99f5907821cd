package ast

import (
	"github.com/teness/tessc/internal/lexer"
	"github.com/teness/tessc/internal/source"
)

// LiteralKind identifies the type of a literal.
type LiteralKind int

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralBool
	LiteralString
)

// LiteralExpr is a constant written in source: 42, 3.5, true, "hi".
// Value holds the decoded constant: int64, float64, bool or string.
type LiteralExpr struct {
	Token lexer.Token
	Kind  LiteralKind
	Value any
}

func (l *LiteralExpr) Pos() source.Position { return l.Token.Position }
func (l *LiteralExpr) End() source.Position { return endOf(l.Token) }
func (l *LiteralExpr) exprNode()            {}

// IdentifierExpr is a reference to a named variable or function.
type IdentifierExpr struct {
	Token lexer.Token
	Name  string
}

func (i *IdentifierExpr) Pos() source.Position { return i.Token.Position }
func (i *IdentifierExpr) End() source.Position { return endOf(i.Token) }
func (i *IdentifierExpr) exprNode()            {}

// BinaryExpr is an arithmetic or comparison operation: left op right.
type BinaryExpr struct {
	Left     Expr
	Operator lexer.Token
	Right    Expr
}

func (b *BinaryExpr) Pos() source.Position { return b.Left.Pos() }
func (b *BinaryExpr) End() source.Position { return b.Right.End() }
func (b *BinaryExpr) exprNode()            {}

// LogicalExpr is a short-circuiting && or ||.
type LogicalExpr struct {
	Left     Expr
	Operator lexer.Token
	Right    Expr
}

func (l *LogicalExpr) Pos() source.Position { return l.Left.Pos() }
func (l *LogicalExpr) End() source.Position { return l.Right.End() }
func (l *LogicalExpr) exprNode()            {}

// UnaryExpr is a prefix operation: -x or !x.
type UnaryExpr struct {
	Operator lexer.Token
	Operand  Expr
}

func (u *UnaryExpr) Pos() source.Position { return u.Operator.Position }
func (u *UnaryExpr) End() source.Position { return u.Operand.End() }
func (u *UnaryExpr) exprNode()            {}

// AssignmentExpr stores into a variable: x = v, x += v, ...
type AssignmentExpr struct {
	Target   *IdentifierExpr
	Operator lexer.Token
	Value    Expr
}

func (a *AssignmentExpr) Pos() source.Position { return a.Target.Pos() }
func (a *AssignmentExpr) End() source.Position { return a.Value.End() }
func (a *AssignmentExpr) exprNode()            {}

// CallExpr is a function call: callee(args...).
type CallExpr struct {
	Callee     *IdentifierExpr
	Args       []Expr
	RightParen lexer.Token
}

func (c *CallExpr) Pos() source.Position { return c.Callee.Pos() }
func (c *CallExpr) End() source.Position { return c.RightParen.Position }
func (c *CallExpr) exprNode()            {}

// GroupingExpr is a parenthesized expression.
type GroupingExpr struct {
	LeftParen  lexer.Token
	Inner      Expr
	RightParen lexer.Token
}

func (g *GroupingExpr) Pos() source.Position { return g.LeftParen.Position }
func (g *GroupingExpr) End() source.Position { return g.RightParen.Position }
func (g *GroupingExpr) exprNode()            {}

// endOf returns the position of the last byte of tok. Tokens never span
// lines, so the column advances by the lexeme's rune count.
func endOf(tok lexer.Token) source.Position {
	p := tok.Position
	if tok.Length > 0 {
		n := len([]rune(tok.Lexeme))
		p.Column += n - 1
		p.Offset += tok.Length - 1
	}
	return p
}
