// Package lexer turns TenessScript source text into tokens.
//
// Whitespace and comments are skipped. Positions are 1-based lines and
// rune columns. The first unrecognized character stops the scan with an
// Illegal Character diagnostic.
package lexer

import (
	"unicode"
	"unicode/utf8"

	"github.com/teness/tessc/internal/diag"
	"github.com/teness/tessc/internal/source"
)

// Lexer scans one source file.
type Lexer struct {
	source   string
	filename string
	origin   diag.Origin

	// start is the byte offset of the token being scanned.
	start int
	// current is the byte offset being examined.
	current int

	line int
	// column is the 1-based rune column of current.
	column int

	startLine   int
	startColumn int
}

// New creates a Lexer over f. Diagnostics are attributed to origin.
func New(f *source.File, origin diag.Origin) *Lexer {
	return &Lexer{
		source:   f.Text(),
		filename: f.Name(),
		origin:   origin,
		line:     1,
		column:   1,
	}
}

// Tokenize scans the whole file. On success the final token is TokenEOF.
func Tokenize(f *source.File, origin diag.Origin) ([]Token, error) {
	l := New(f, origin)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// NextToken returns the next token. After the end of input it keeps
// returning TokenEOF.
func (l *Lexer) NextToken() (Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return Token{}, err
	}

	l.mark()
	if l.isAtEnd() {
		return l.makeToken(TokenEOF), nil
	}

	ch := l.advance()

	if isLetter(ch) {
		return l.scanIdentifier(), nil
	}
	if isDigit(ch) {
		return l.scanNumber(), nil
	}

	switch ch {
	case '(':
		return l.makeToken(TokenLeftParen), nil
	case ')':
		return l.makeToken(TokenRightParen), nil
	case '{':
		return l.makeToken(TokenLeftBrace), nil
	case '}':
		return l.makeToken(TokenRightBrace), nil
	case ',':
		return l.makeToken(TokenComma), nil
	case ';':
		return l.makeToken(TokenSemicolon), nil
	case ':':
		return l.makeToken(TokenColon), nil
	case '%':
		return l.makeToken(TokenPercent), nil

	case '+':
		return l.either('=', TokenPlusEq, TokenPlus), nil
	case '-':
		return l.either('=', TokenMinusEq, TokenMinus), nil
	case '*':
		return l.either('=', TokenStarEq, TokenStar), nil
	case '/':
		return l.either('=', TokenSlashEq, TokenSlash), nil
	case '=':
		return l.either('=', TokenEqual, TokenAssign), nil
	case '!':
		return l.either('=', TokenNotEqual, TokenNot), nil
	case '<':
		return l.either('=', TokenLessEqual, TokenLess), nil
	case '>':
		return l.either('=', TokenGreaterEqual, TokenGreater), nil

	case '&':
		if l.match('&') {
			return l.makeToken(TokenAnd), nil
		}
	case '|':
		if l.match('|') {
			return l.makeToken(TokenOr), nil
		}

	case '"':
		return l.scanString()
	}

	return Token{}, l.errorAt(l.startLine, l.startColumn, l.start, "unexpected character %q", ch)
}

func (l *Lexer) either(next rune, two, one TokenType) Token {
	if l.match(next) {
		return l.makeToken(two)
	}
	return l.makeToken(one)
}

func (l *Lexer) mark() {
	l.start = l.current
	l.startLine = l.line
	l.startColumn = l.column
}

// advance consumes one rune and updates line and column.
func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch, size := utf8.DecodeRuneInString(l.source[l.current:])
	l.current += size
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	ch, _ := utf8.DecodeRuneInString(l.source[l.current:])
	return ch
}

func (l *Lexer) peekNext() rune {
	if l.isAtEnd() {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.current:])
	if l.current+size >= len(l.source) {
		return 0
	}
	ch, _ := utf8.DecodeRuneInString(l.source[l.current+size:])
	return ch
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.peek() != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l *Lexer) skipWhitespaceAndComments() error {
	for !l.isAtEnd() {
		switch ch := l.peek(); {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '/' && l.peekNext() == '/':
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		case ch == '/' && l.peekNext() == '*':
			if err := l.skipBlockComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

// skipBlockComment skips a possibly nested /* ... */ comment.
func (l *Lexer) skipBlockComment() error {
	l.mark()
	l.advance()
	l.advance()

	depth := 1
	for !l.isAtEnd() && depth > 0 {
		switch {
		case l.peek() == '/' && l.peekNext() == '*':
			l.advance()
			l.advance()
			depth++
		case l.peek() == '*' && l.peekNext() == '/':
			l.advance()
			l.advance()
			depth--
		default:
			l.advance()
		}
	}
	if depth > 0 {
		return l.errorAt(l.startLine, l.startColumn, l.start, "unterminated block comment")
	}
	return nil
}

func (l *Lexer) scanIdentifier() Token {
	for isLetter(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}
	return l.makeToken(LookupKeyword(l.source[l.start:l.current]))
}

// scanNumber scans an integer or a float. A float needs digits on both
// sides of the dot and may carry an exponent.
func (l *Lexer) scanNumber() Token {
	for isDigit(l.peek()) {
		l.advance()
	}

	typ := TokenInt
	if l.peek() == '.' && isDigit(l.peekNext()) {
		typ = TokenFloat
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	if p := l.peek(); p == 'e' || p == 'E' {
		saved := *l
		l.advance()
		if s := l.peek(); s == '+' || s == '-' {
			l.advance()
		}
		if !isDigit(l.peek()) {
			*l = saved
		} else {
			typ = TokenFloat
			for isDigit(l.peek()) {
				l.advance()
			}
		}
	}

	return l.makeToken(typ)
}

// scanString scans a double-quoted literal. Escapes are kept in the lexeme
// and decoded by the parser.
func (l *Lexer) scanString() (Token, error) {
	for !l.isAtEnd() {
		switch l.peek() {
		case '"':
			l.advance()
			return l.makeToken(TokenString), nil
		case '\n':
			return Token{}, l.errorAt(l.startLine, l.startColumn, l.start, "unterminated string literal")
		case '\\':
			l.advance()
			if !l.isAtEnd() {
				l.advance()
			}
		default:
			l.advance()
		}
	}
	return Token{}, l.errorAt(l.startLine, l.startColumn, l.start, "unterminated string literal")
}

func (l *Lexer) makeToken(typ TokenType) Token {
	return Token{
		Type:     typ,
		Lexeme:   l.source[l.start:l.current],
		Position: l.position(l.startLine, l.startColumn, l.start),
		Length:   l.current - l.start,
	}
}

func (l *Lexer) position(line, column, offset int) source.Position {
	return source.Position{Filename: l.filename, Line: line, Column: column, Offset: offset}
}

func (l *Lexer) errorAt(line, column, offset int, format string, args ...any) error {
	return diag.New(diag.IllegalCharacter, l.origin, l.position(line, column, offset), format, args...)
}

// IsIdentifier reports whether s lexes as a single identifier token.
func IsIdentifier(s string) bool {
	if s == "" || LookupKeyword(s) != TokenIdentifier {
		return false
	}
	for i, ch := range s {
		if !isLetter(ch) && (i == 0 || !isDigit(ch)) {
			return false
		}
	}
	return true
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
