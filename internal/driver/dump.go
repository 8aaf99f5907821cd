package driver

import (
	"strings"

	"github.com/sanity-io/litter"

	"github.com/teness/tessc/internal/lexer"
	"github.com/teness/tessc/internal/parser/ast"
)

// TokenDump renders one token per line.
func TokenDump(tokens []lexer.Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.String())
		b.WriteByte('\n')
	}
	return b.String()
}

var astDumper = litter.Options{
	HidePrivateFields: true,
	HideZeroValues:    true,
	StripPackageNames: true,
}

// ASTDump renders the syntax tree of prog.
func ASTDump(prog *ast.Program) string {
	return astDumper.Sdump(prog) + "\n"
}
