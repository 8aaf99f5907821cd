// Package parser builds a syntax tree from a token sequence.
//
// Statements are parsed by recursive descent and expressions by precedence
// climbing. Parsing stops at the first error, which is returned as an
// Invalid Syntax diagnostic positioned at the offending token.
package parser

import (
	"strconv"
	"strings"

	"github.com/teness/tessc/internal/diag"
	"github.com/teness/tessc/internal/lexer"
	"github.com/teness/tessc/internal/parser/ast"
)

// Parser consumes a token slice produced by the lexer.
type Parser struct {
	tokens []lexer.Token
	pos    int
	origin diag.Origin

	// loopDepth counts enclosing loops, for break and continue.
	loopDepth int
}

// New creates a Parser over tokens. A missing trailing EOF token is
// supplied.
func New(tokens []lexer.Token, origin diag.Origin) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.TokenEOF {
		eof := lexer.Token{Type: lexer.TokenEOF}
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1]
			eof.Position = last.Position
			eof.Position.Column += len([]rune(last.Lexeme))
			eof.Position.Offset += last.Length
		}
		tokens = append(tokens[:len(tokens):len(tokens)], eof)
	}
	return &Parser{tokens: tokens, origin: origin}
}

// Parse parses a whole program.
func Parse(tokens []lexer.Token, origin diag.Origin) (*ast.Program, error) {
	return New(tokens, origin).ParseProgram()
}

// ParseProgram parses declarations and statements until EOF.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{Filename: p.origin.File}

	for !p.isAtEnd() {
		var stmt ast.Stmt
		var err error
		if p.check(lexer.TokenFunc) {
			stmt, err = p.parseFuncDecl()
		} else {
			stmt, err = p.parseStmt()
		}
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}

	prog.EOF = p.current().Position
	return prog, nil
}

// Declarations

func (p *Parser) parseFuncDecl() (*ast.FuncDecl, error) {
	funcTok := p.advance()

	name, err := p.parseIdentifier("function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenLeftParen, "'(' after function name"); err != nil {
		return nil, err
	}

	var params []*ast.Param
	if !p.check(lexer.TokenRightParen) {
		for {
			param, err := p.parseParam()
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	if _, err := p.consume(lexer.TokenRightParen, "')' after parameters"); err != nil {
		return nil, err
	}

	var result *ast.IdentifierExpr
	if p.check(lexer.TokenIdentifier) {
		var err error
		if result, err = p.parseIdentifier("result type"); err != nil {
			return nil, err
		}
	}

	if !p.check(lexer.TokenLeftBrace) {
		return nil, p.errorAtCurrent("expected '{' before function body")
	}

	outerLoops := p.loopDepth
	p.loopDepth = 0
	body, err := p.parseBlock()
	p.loopDepth = outerLoops
	if err != nil {
		return nil, err
	}

	return &ast.FuncDecl{
		FuncPos: funcTok.Position,
		Name:    name,
		Params:  params,
		Result:  result,
		Body:    body,
	}, nil
}

func (p *Parser) parseParam() (*ast.Param, error) {
	name, err := p.parseIdentifier("parameter name")
	if err != nil {
		return nil, err
	}
	p.match(lexer.TokenColon)
	typ, err := p.parseIdentifier("parameter type")
	if err != nil {
		return nil, err
	}
	return &ast.Param{Name: name, Type: typ}, nil
}

func (p *Parser) parseVarDecl() (*ast.VarDecl, error) {
	varTok := p.advance()

	name, err := p.parseIdentifier("variable name")
	if err != nil {
		return nil, err
	}

	decl := &ast.VarDecl{VarPos: varTok.Position, Name: name}

	if p.match(lexer.TokenColon) || p.check(lexer.TokenIdentifier) {
		if decl.Type, err = p.parseIdentifier("type name"); err != nil {
			return nil, err
		}
	}

	if p.match(lexer.TokenAssign) {
		if decl.Init, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}

	if decl.Type == nil && decl.Init == nil {
		return nil, p.errorAtCurrent("expected type or initializer for variable '%s'", name.Name)
	}

	if decl.Semicolon, err = p.consume(lexer.TokenSemicolon, "';' after variable declaration"); err != nil {
		return nil, err
	}
	return decl, nil
}

// Statements

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.current().Type {
	case lexer.TokenVar:
		return p.parseVarDecl()
	case lexer.TokenIf:
		return p.parseIfStmt()
	case lexer.TokenWhile:
		return p.parseWhileStmt()
	case lexer.TokenFor:
		return p.parseForStmt()
	case lexer.TokenReturn:
		return p.parseReturnStmt()
	case lexer.TokenBreak, lexer.TokenContinue:
		return p.parseJumpStmt()
	case lexer.TokenLeftBrace:
		return p.parseBlock()
	case lexer.TokenFunc:
		return nil, p.errorAtCurrent("function declarations are only allowed at top level")
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseBlock() (*ast.BlockStmt, error) {
	left, err := p.consume(lexer.TokenLeftBrace, "'{'")
	if err != nil {
		return nil, err
	}

	block := &ast.BlockStmt{LeftBrace: left}
	for !p.check(lexer.TokenRightBrace) && !p.isAtEnd() {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
	}

	if block.RightBrace, err = p.consume(lexer.TokenRightBrace, "'}' after block"); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *Parser) parseIfStmt() (*ast.IfStmt, error) {
	ifTok := p.advance()

	cond, err := p.parseCondition("if")
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	stmt := &ast.IfStmt{IfPos: ifTok.Position, Condition: cond, Then: then}
	if p.match(lexer.TokenElse) {
		if p.check(lexer.TokenIf) {
			stmt.Else, err = p.parseIfStmt()
		} else {
			stmt.Else, err = p.parseBlock()
		}
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseWhileStmt() (*ast.LoopStmt, error) {
	keyword := p.advance()

	cond, err := p.parseCondition("while")
	if err != nil {
		return nil, err
	}
	body, err := p.parseLoopBody()
	if err != nil {
		return nil, err
	}
	return &ast.LoopStmt{Keyword: keyword, Condition: cond, Body: body}, nil
}

func (p *Parser) parseForStmt() (*ast.LoopStmt, error) {
	keyword := p.advance()
	loop := &ast.LoopStmt{Keyword: keyword}

	if _, err := p.consume(lexer.TokenLeftParen, "'(' after 'for'"); err != nil {
		return nil, err
	}

	var err error
	switch {
	case p.match(lexer.TokenSemicolon):
	case p.check(lexer.TokenVar):
		if loop.Init, err = p.parseVarDecl(); err != nil {
			return nil, err
		}
	default:
		if loop.Init, err = p.parseExprStmt(); err != nil {
			return nil, err
		}
	}

	if !p.check(lexer.TokenSemicolon) {
		if loop.Condition, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(lexer.TokenSemicolon, "';' after loop condition"); err != nil {
		return nil, err
	}

	if !p.check(lexer.TokenRightParen) {
		if loop.Post, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(lexer.TokenRightParen, "')' after for clauses"); err != nil {
		return nil, err
	}

	if loop.Body, err = p.parseLoopBody(); err != nil {
		return nil, err
	}
	return loop, nil
}

func (p *Parser) parseLoopBody() (*ast.BlockStmt, error) {
	p.loopDepth++
	defer func() { p.loopDepth-- }()
	return p.parseBlock()
}

func (p *Parser) parseCondition(keyword string) (ast.Expr, error) {
	if _, err := p.consume(lexer.TokenLeftParen, "'(' after '"+keyword+"'"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenRightParen, "')' after condition"); err != nil {
		return nil, err
	}
	return cond, nil
}

func (p *Parser) parseReturnStmt() (*ast.ReturnStmt, error) {
	ret := p.advance()
	stmt := &ast.ReturnStmt{ReturnPos: ret.Position}

	var err error
	if !p.check(lexer.TokenSemicolon) {
		if stmt.Value, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	if stmt.Semicolon, err = p.consume(lexer.TokenSemicolon, "';' after return"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseJumpStmt() (ast.Stmt, error) {
	keyword := p.current()
	if p.loopDepth == 0 {
		return nil, p.errorAt(keyword, "'%s' outside of a loop", keyword.Lexeme)
	}
	p.advance()
	if _, err := p.consume(lexer.TokenSemicolon, "';' after '"+keyword.Lexeme+"'"); err != nil {
		return nil, err
	}
	if keyword.Type == lexer.TokenBreak {
		return &ast.BreakStmt{Keyword: keyword}, nil
	}
	return &ast.ContinueStmt{Keyword: keyword}, nil
}

func (p *Parser) parseExprStmt() (*ast.ExprStmt, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	semi, err := p.consume(lexer.TokenSemicolon, "';' after expression")
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Expression: expr, Semicolon: semi}, nil
}

// Expressions

func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parsePrecedence(PrecAssignment)
}

// parsePrecedence parses an expression whose operators bind at least as
// tightly as prec.
func (p *Parser) parsePrecedence(prec Precedence) (ast.Expr, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for prec <= getPrecedence(p.current().Type) {
		if left, err = p.parseInfix(left); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parsePrefix() (ast.Expr, error) {
	tok := p.current()
	switch tok.Type {
	case lexer.TokenInt:
		p.advance()
		n, err := strconv.ParseInt(tok.Lexeme, 10, 32)
		if err != nil {
			return nil, p.errorAt(tok, "integer literal %s is out of range", tok.Lexeme)
		}
		return &ast.LiteralExpr{Token: tok, Kind: ast.LiteralInt, Value: n}, nil

	case lexer.TokenFloat:
		p.advance()
		f, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, p.errorAt(tok, "invalid float literal %s", tok.Lexeme)
		}
		return &ast.LiteralExpr{Token: tok, Kind: ast.LiteralFloat, Value: f}, nil

	case lexer.TokenTrue, lexer.TokenFalse:
		p.advance()
		return &ast.LiteralExpr{Token: tok, Kind: ast.LiteralBool, Value: tok.Type == lexer.TokenTrue}, nil

	case lexer.TokenString:
		p.advance()
		return &ast.LiteralExpr{Token: tok, Kind: ast.LiteralString, Value: unquote(tok.Lexeme)}, nil

	case lexer.TokenIdentifier:
		p.advance()
		return &ast.IdentifierExpr{Token: tok, Name: tok.Lexeme}, nil

	case lexer.TokenLeftParen:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		right, err := p.consume(lexer.TokenRightParen, "')' after expression")
		if err != nil {
			return nil, err
		}
		return &ast.GroupingExpr{LeftParen: tok, Inner: inner, RightParen: right}, nil

	case lexer.TokenMinus, lexer.TokenNot:
		p.advance()
		operand, err := p.parsePrecedence(PrecUnary)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Operator: tok, Operand: operand}, nil
	}

	return nil, p.errorAt(tok, "expected expression, got %s", describe(tok))
}

func (p *Parser) parseInfix(left ast.Expr) (ast.Expr, error) {
	op := p.current()
	switch {
	case op.IsAssignment():
		return p.parseAssignment(left)
	case op.Type == lexer.TokenAnd || op.Type == lexer.TokenOr:
		p.advance()
		right, err := p.parsePrecedence(rightBinding(op.Type))
		if err != nil {
			return nil, err
		}
		return &ast.LogicalExpr{Left: left, Operator: op, Right: right}, nil
	case op.Type == lexer.TokenLeftParen:
		return p.parseCall(left)
	default:
		p.advance()
		right, err := p.parsePrecedence(rightBinding(op.Type))
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Left: left, Operator: op, Right: right}, nil
	}
}

// parseAssignment parses the right side of an assignment.
func (p *Parser) parseAssignment(left ast.Expr) (ast.Expr, error) {
	op := p.current()
	target, ok := left.(*ast.IdentifierExpr)
	if !ok {
		return nil, p.errorAt(op, "invalid assignment target")
	}
	p.advance()

	value, err := p.parsePrecedence(rightBinding(op.Type))
	if err != nil {
		return nil, err
	}
	return &ast.AssignmentExpr{Target: target, Operator: op, Value: value}, nil
}

func (p *Parser) parseCall(left ast.Expr) (ast.Expr, error) {
	paren := p.current()
	callee, ok := left.(*ast.IdentifierExpr)
	if !ok {
		return nil, p.errorAt(paren, "only named functions can be called")
	}
	p.advance()

	call := &ast.CallExpr{Callee: callee}
	if !p.check(lexer.TokenRightParen) {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}

	var err error
	if call.RightParen, err = p.consume(lexer.TokenRightParen, "')' after arguments"); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *Parser) parseIdentifier(what string) (*ast.IdentifierExpr, error) {
	tok, err := p.consume(lexer.TokenIdentifier, what)
	if err != nil {
		return nil, err
	}
	return &ast.IdentifierExpr{Token: tok, Name: tok.Lexeme}, nil
}

// Token cursor

func (p *Parser) current() lexer.Token {
	return p.tokens[p.pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.pos]
	if !p.isAtEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) check(typ lexer.TokenType) bool {
	return p.current().Type == typ
}

func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, typ := range types {
		if p.check(typ) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(typ lexer.TokenType, expected string) (lexer.Token, error) {
	if p.check(typ) {
		return p.advance(), nil
	}
	return lexer.Token{}, p.errorAtCurrent("expected %s, got %s", expected, describe(p.current()))
}

func (p *Parser) isAtEnd() bool {
	return p.current().Type == lexer.TokenEOF
}

func (p *Parser) errorAtCurrent(format string, args ...any) error {
	return p.errorAt(p.current(), format, args...)
}

func (p *Parser) errorAt(tok lexer.Token, format string, args ...any) error {
	err := diag.New(diag.InvalidSyntax, p.origin, tok.Position, format, args...)
	err.Incomplete = tok.Type == lexer.TokenEOF
	return err
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokenEOF:
		return "end of file"
	case lexer.TokenIdentifier:
		return "identifier '" + tok.Lexeme + "'"
	case lexer.TokenInt, lexer.TokenFloat, lexer.TokenString:
		return "literal " + tok.Lexeme
	default:
		return "'" + tok.Lexeme + "'"
	}
}

// unquote decodes a string literal lexeme, quotes included.
func unquote(lexeme string) string {
	if len(lexeme) < 2 {
		return ""
	}
	s := lexeme[1 : len(lexeme)-1]

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
