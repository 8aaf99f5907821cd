package lexer

import (
	"fmt"

	"github.com/teness/tessc/internal/source"
)

// TokenType represents the type of a token.
type TokenType int

// Token types, grouped by category.
const (
	// Special tokens
	TokenEOF TokenType = iota

	// Literals
	TokenInt
	TokenFloat
	TokenString

	// Identifiers
	TokenIdentifier

	// Keywords
	TokenFunc
	TokenVar
	TokenIf
	TokenElse
	TokenWhile
	TokenFor
	TokenReturn
	TokenBreak
	TokenContinue
	TokenTrue
	TokenFalse

	// Arithmetic operators
	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenPercent // %

	// Comparison operators
	TokenEqual        // ==
	TokenNotEqual     // !=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=

	// Logical operators
	TokenAnd // &&
	TokenOr  // ||
	TokenNot // !

	// Assignment operators
	TokenAssign  // =
	TokenPlusEq  // +=
	TokenMinusEq // -=
	TokenStarEq  // *=
	TokenSlashEq // /=

	// Punctuation
	TokenLeftParen  // (
	TokenRightParen // )
	TokenLeftBrace  // {
	TokenRightBrace // }
	TokenComma      // ,
	TokenSemicolon  // ;
	TokenColon      // :
)

var tokenNames = map[TokenType]string{
	TokenEOF:          "EOF",
	TokenInt:          "INT",
	TokenFloat:        "FLOAT",
	TokenString:       "STRING",
	TokenIdentifier:   "IDENTIFIER",
	TokenFunc:         "func",
	TokenVar:          "var",
	TokenIf:           "if",
	TokenElse:         "else",
	TokenWhile:        "while",
	TokenFor:          "for",
	TokenReturn:       "return",
	TokenBreak:        "break",
	TokenContinue:     "continue",
	TokenTrue:         "true",
	TokenFalse:        "false",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenStar:         "*",
	TokenSlash:        "/",
	TokenPercent:      "%",
	TokenEqual:        "==",
	TokenNotEqual:     "!=",
	TokenLess:         "<",
	TokenLessEqual:    "<=",
	TokenGreater:      ">",
	TokenGreaterEqual: ">=",
	TokenAnd:          "&&",
	TokenOr:           "||",
	TokenNot:          "!",
	TokenAssign:       "=",
	TokenPlusEq:       "+=",
	TokenMinusEq:      "-=",
	TokenStarEq:       "*=",
	TokenSlashEq:      "/=",
	TokenLeftParen:    "(",
	TokenRightParen:   ")",
	TokenLeftBrace:    "{",
	TokenRightBrace:   "}",
	TokenComma:        ",",
	TokenSemicolon:    ";",
	TokenColon:        ":",
}

// String returns the operator or keyword spelling, or an upper-case
// category name for literal and identifier tokens.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is a lexical unit with its source position.
type Token struct {
	Type TokenType

	// Lexeme is the exact source text of the token. String literals keep
	// their quotes and escapes.
	Lexeme string

	// Position is where the token starts.
	Position source.Position

	// Length is the byte length of the lexeme.
	Length int
}

// String returns a debug representation used by the token dump:
//
//	1:5 IDENTIFIER "x"
func (t Token) String() string {
	return fmt.Sprintf("%d:%d %s %q", t.Position.Line, t.Position.Column, t.Type, t.Lexeme)
}

// IsKeyword reports whether the token is a reserved word.
func (t Token) IsKeyword() bool {
	return t.Type >= TokenFunc && t.Type <= TokenFalse
}

// IsLiteral reports whether the token is a literal value.
func (t Token) IsLiteral() bool {
	switch t.Type {
	case TokenInt, TokenFloat, TokenString, TokenTrue, TokenFalse:
		return true
	}
	return false
}

// IsAssignment reports whether the token is an assignment operator.
func (t Token) IsAssignment() bool {
	return t.Type >= TokenAssign && t.Type <= TokenSlashEq
}

var keywords = map[string]TokenType{
	"func":     TokenFunc,
	"var":      TokenVar,
	"if":       TokenIf,
	"else":     TokenElse,
	"while":    TokenWhile,
	"for":      TokenFor,
	"return":   TokenReturn,
	"break":    TokenBreak,
	"continue": TokenContinue,
	"true":     TokenTrue,
	"false":    TokenFalse,
}

// LookupKeyword returns the keyword token type for ident, or
// TokenIdentifier if ident is not reserved.
func LookupKeyword(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdentifier
}
