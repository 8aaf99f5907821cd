package parser

import (
	"github.com/teness/tessc/internal/lexer"
)

// Precedence is the binding power of an infix operator. Higher binds
// tighter.
type Precedence int

const (
	PrecNone       Precedence = iota
	PrecAssignment            // = += -= *= /=
	PrecOr                    // ||
	PrecAnd                   // &&
	PrecEquality              // == !=
	PrecComparison            // < <= > >=
	PrecTerm                  // + -
	PrecFactor                // * / %
	PrecUnary                 // ! -
	PrecCall                  // ()
	PrecPrimary
)

func (p Precedence) String() string {
	switch p {
	case PrecNone:
		return "none"
	case PrecAssignment:
		return "assignment"
	case PrecOr:
		return "or"
	case PrecAnd:
		return "and"
	case PrecEquality:
		return "equality"
	case PrecComparison:
		return "comparison"
	case PrecTerm:
		return "term"
	case PrecFactor:
		return "factor"
	case PrecUnary:
		return "unary"
	case PrecCall:
		return "call"
	default:
		return "primary"
	}
}

// getPrecedence returns the infix precedence of a token, or PrecNone if
// the token is not an infix operator.
func getPrecedence(tokenType lexer.TokenType) Precedence {
	switch tokenType {
	case lexer.TokenAssign, lexer.TokenPlusEq, lexer.TokenMinusEq,
		lexer.TokenStarEq, lexer.TokenSlashEq:
		return PrecAssignment
	case lexer.TokenOr:
		return PrecOr
	case lexer.TokenAnd:
		return PrecAnd
	case lexer.TokenEqual, lexer.TokenNotEqual:
		return PrecEquality
	case lexer.TokenLess, lexer.TokenLessEqual,
		lexer.TokenGreater, lexer.TokenGreaterEqual:
		return PrecComparison
	case lexer.TokenPlus, lexer.TokenMinus:
		return PrecTerm
	case lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent:
		return PrecFactor
	case lexer.TokenLeftParen:
		return PrecCall
	default:
		return PrecNone
	}
}

// isRightAssociative reports whether chains of the operator group from the
// right. Only assignments do.
func isRightAssociative(tokenType lexer.TokenType) bool {
	return getPrecedence(tokenType) == PrecAssignment
}

// rightBinding is the minimum precedence of the right operand of an infix
// operator: the operator's own level for right-associative operators and
// one above it otherwise.
func rightBinding(tokenType lexer.TokenType) Precedence {
	prec := getPrecedence(tokenType)
	if isRightAssociative(tokenType) {
		return prec
	}
	return prec + 1
}
