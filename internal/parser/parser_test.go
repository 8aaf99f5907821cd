package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/teness/tessc/internal/diag"
	"github.com/teness/tessc/internal/lexer"
	"github.com/teness/tessc/internal/parser/ast"
	"github.com/teness/tessc/internal/source"
)

var testOrigin = diag.Origin{File: "test", Scope: "<main>"}

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parseSource(src)
	if err != nil {
		t.Fatalf("parse(%q) error: %v", src, err)
	}
	return prog
}

func parseSource(src string) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(source.NewFile("test.tss", src), testOrigin)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, testOrigin)
}

// sexpr renders an expression fully parenthesized so tests can check
// grouping without walking the tree by hand.
func sexpr(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		return n.Token.Lexeme
	case *ast.IdentifierExpr:
		return n.Name
	case *ast.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", n.Operator.Lexeme, sexpr(n.Left), sexpr(n.Right))
	case *ast.LogicalExpr:
		return fmt.Sprintf("(%s %s %s)", n.Operator.Lexeme, sexpr(n.Left), sexpr(n.Right))
	case *ast.UnaryExpr:
		return fmt.Sprintf("(%s %s)", n.Operator.Lexeme, sexpr(n.Operand))
	case *ast.AssignmentExpr:
		return fmt.Sprintf("(%s %s %s)", n.Operator.Lexeme, n.Target.Name, sexpr(n.Value))
	case *ast.GroupingExpr:
		return sexpr(n.Inner)
	case *ast.CallExpr:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = sexpr(a)
		}
		return fmt.Sprintf("(call %s %s)", n.Callee.Name, strings.Join(args, " "))
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3;", "(+ 1 (* 2 3))"},
		{"(1 + 2) * 3;", "(* (+ 1 2) 3)"},
		{"a - b - c;", "(- (- a b) c)"},
		{"a / b % c;", "(% (/ a b) c)"},
		{"a = b = c;", "(= a (= b c))"},
		{"x += y * 2;", "(+= x (* y 2))"},
		{"a || b && c;", "(|| a (&& b c))"},
		{"a == b < c;", "(== a (< b c))"},
		{"-a * b;", "(* (- a) b)"},
		{"!done || x >= 1.5;", "(|| (! done) (>= x 1.5))"},
		{"f(1, g(2) + 3);", "(call f 1 (+ (call g 2) 3))"},
		{"-f(x);", "(- (call f x))"},
		{"print();", "(call print )"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			prog := parse(t, tt.src)
			stmt, ok := prog.Stmts[0].(*ast.ExprStmt)
			if !ok {
				t.Fatalf("statement is %T, want *ast.ExprStmt", prog.Stmts[0])
			}
			if got := sexpr(stmt.Expression); got != tt.want {
				t.Errorf("parse(%q) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		src   string
		kind  ast.LiteralKind
		value any
	}{
		{"42;", ast.LiteralInt, int64(42)},
		{"2.5;", ast.LiteralFloat, 2.5},
		{"true;", ast.LiteralBool, true},
		{"false;", ast.LiteralBool, false},
		{`"a\tb\n";`, ast.LiteralString, "a\tb\n"},
		{`"say \"hi\"";`, ast.LiteralString, `say "hi"`},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			lit, ok := parse(t, tt.src).Stmts[0].(*ast.ExprStmt).Expression.(*ast.LiteralExpr)
			if !ok {
				t.Fatal("expression is not a literal")
			}
			if lit.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", lit.Kind, tt.kind)
			}
			if lit.Value != tt.value {
				t.Errorf("value = %#v, want %#v", lit.Value, tt.value)
			}
		})
	}
}

func TestParseVarDecl(t *testing.T) {
	tests := []struct {
		src      string
		name     string
		typeName string
		hasInit  bool
	}{
		{"var x = 1;", "x", "", true},
		{"var x int = 1;", "x", "int", true},
		{"var x: float;", "x", "float", false},
		{"var s string;", "s", "string", false},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			decl, ok := parse(t, tt.src).Stmts[0].(*ast.VarDecl)
			if !ok {
				t.Fatal("statement is not a VarDecl")
			}
			if decl.Name.Name != tt.name {
				t.Errorf("name = %q, want %q", decl.Name.Name, tt.name)
			}
			gotType := ""
			if decl.Type != nil {
				gotType = decl.Type.Name
			}
			if gotType != tt.typeName {
				t.Errorf("type = %q, want %q", gotType, tt.typeName)
			}
			if (decl.Init != nil) != tt.hasInit {
				t.Errorf("has init = %v, want %v", decl.Init != nil, tt.hasInit)
			}
		})
	}
}

func TestParseFuncDecl(t *testing.T) {
	prog := parse(t, "func add(a int, b: int) int { return a + b; }\nfunc hello() { print(\"hi\"); }")

	funcs := prog.Funcs()
	if len(funcs) != 2 {
		t.Fatalf("got %d functions, want 2", len(funcs))
	}

	add := funcs[0]
	if add.Name.Name != "add" || len(add.Params) != 2 {
		t.Fatalf("add = %s with %d params", add.Name.Name, len(add.Params))
	}
	if add.Params[1].Name.Name != "b" || add.Params[1].Type.Name != "int" {
		t.Errorf("second param = %s %s, want b int", add.Params[1].Name.Name, add.Params[1].Type.Name)
	}
	if add.Result == nil || add.Result.Name != "int" {
		t.Error("add should return int")
	}
	ret, ok := add.Body.Stmts[0].(*ast.ReturnStmt)
	if !ok || sexpr(ret.Value) != "(+ a b)" {
		t.Errorf("add body = %T", add.Body.Stmts[0])
	}

	if funcs[1].Result != nil {
		t.Error("hello should have no result type")
	}
	if len(prog.TopLevel()) != 0 {
		t.Errorf("got %d top-level statements, want 0", len(prog.TopLevel()))
	}
}

func TestParseControlFlow(t *testing.T) {
	src := `
if (x < 1) { x = 1; } else if (x < 2) { x = 2; } else { x = 3; }
while (x > 0) { x -= 1; if (x == 5) { break; } }
for (var i = 0; i < 10; i += 1) { continue; }
for (;;) { break; }
`
	prog := parse(t, src)
	if len(prog.Stmts) != 4 {
		t.Fatalf("got %d statements, want 4", len(prog.Stmts))
	}

	ifStmt := prog.Stmts[0].(*ast.IfStmt)
	elseIf, ok := ifStmt.Else.(*ast.IfStmt)
	if !ok {
		t.Fatalf("else branch is %T, want *ast.IfStmt", ifStmt.Else)
	}
	if _, ok := elseIf.Else.(*ast.BlockStmt); !ok {
		t.Errorf("final else is %T, want *ast.BlockStmt", elseIf.Else)
	}

	while := prog.Stmts[1].(*ast.LoopStmt)
	if while.IsFor() || while.Init != nil || while.Post != nil {
		t.Error("while loop should have no init or post")
	}
	if sexpr(while.Condition) != "(> x 0)" {
		t.Errorf("while condition = %s", sexpr(while.Condition))
	}

	forLoop := prog.Stmts[2].(*ast.LoopStmt)
	if !forLoop.IsFor() {
		t.Error("IsFor() = false for a for loop")
	}
	if _, ok := forLoop.Init.(*ast.VarDecl); !ok {
		t.Errorf("for init = %T, want *ast.VarDecl", forLoop.Init)
	}
	if sexpr(forLoop.Post) != "(+= i 1)" {
		t.Errorf("for post = %s", sexpr(forLoop.Post))
	}

	forever := prog.Stmts[3].(*ast.LoopStmt)
	if forever.Init != nil || forever.Condition != nil || forever.Post != nil {
		t.Error("for (;;) should have no clauses")
	}
}

func TestParsePositions(t *testing.T) {
	prog := parse(t, "var x = 1;\n  print(x + 2);")

	decl := prog.Stmts[0].(*ast.VarDecl)
	if got := decl.Pos(); got.Line != 1 || got.Column != 1 {
		t.Errorf("VarDecl.Pos() = %v, want 1:1", got)
	}

	call := prog.Stmts[1].(*ast.ExprStmt).Expression.(*ast.CallExpr)
	if got := call.Pos(); got.Line != 2 || got.Column != 3 {
		t.Errorf("CallExpr.Pos() = %v, want 2:3", got)
	}
	bin := call.Args[0].(*ast.BinaryExpr)
	if got := bin.Pos(); got.Column != 9 {
		t.Errorf("BinaryExpr.Pos() column = %d, want 9", got.Column)
	}
	if got := bin.End(); got.Column != 13 {
		t.Errorf("BinaryExpr.End() column = %d, want 13", got.Column)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		line, col  int
		incomplete bool
		contains   string
	}{
		{"missing semicolon", "var x = 1\nvar y = 2;", 2, 1, false, "';'"},
		{"missing initializer and type", "var x;", 1, 6, false, "type or initializer"},
		{"bad assignment target", "1 = 2;", 1, 3, false, "assignment target"},
		{"call on literal", "3(4);", 1, 2, false, "named functions"},
		{"break outside loop", "break;", 1, 1, false, "outside of a loop"},
		{"nested function", "while (true) { func f() {} }", 1, 16, false, "top level"},
		{"unexpected token", "var x = );", 1, 9, false, "expected expression"},
		{"unclosed block", "if (x) { x = 1;", 1, 16, true, "'}'"},
		{"unclosed call", "print(1,", 1, 9, true, "expression"},
		{"missing function body", "func f() int;", 1, 13, false, "'{'"},
		{"integer overflow", "var x = 99999999999;", 1, 9, false, "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSource(tt.src)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			d, ok := diag.As(err)
			if !ok {
				t.Fatalf("error %v is not a diagnostic", err)
			}
			if d.Category != diag.InvalidSyntax {
				t.Errorf("category = %v, want Invalid Syntax", d.Category)
			}
			if d.Pos.Line != tt.line || d.Pos.Column != tt.col {
				t.Errorf("position = %d:%d, want %d:%d (%s)", d.Pos.Line, d.Pos.Column, tt.line, tt.col, d.Details)
			}
			if d.Incomplete != tt.incomplete {
				t.Errorf("incomplete = %v, want %v", d.Incomplete, tt.incomplete)
			}
			if !strings.Contains(d.Details, tt.contains) {
				t.Errorf("details %q should contain %q", d.Details, tt.contains)
			}
		})
	}
}

func TestParseBreakInsideFunctionInsideLoopIsRejected(t *testing.T) {
	// Loop depth does not leak into function bodies.
	_, err := parseSource("func f() { break; }")
	if !diag.Is(err, diag.InvalidSyntax) {
		t.Fatalf("error = %v, want Invalid Syntax", err)
	}
}

func TestParseEmptyProgram(t *testing.T) {
	prog := parse(t, "  // nothing here\n")
	if len(prog.Stmts) != 0 {
		t.Errorf("got %d statements, want 0", len(prog.Stmts))
	}
	if !prog.EOF.IsValid() {
		t.Error("EOF position should be valid")
	}
}

func TestNewSuppliesEOF(t *testing.T) {
	tokens := []lexer.Token{
		{Type: lexer.TokenIdentifier, Lexeme: "x", Position: source.Position{Line: 1, Column: 1}, Length: 1},
		{Type: lexer.TokenSemicolon, Lexeme: ";", Position: source.Position{Line: 1, Column: 2, Offset: 1}, Length: 1},
	}
	prog, err := Parse(tokens, testOrigin)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(prog.Stmts) != 1 {
		t.Errorf("got %d statements, want 1", len(prog.Stmts))
	}
	if prog.EOF.Column != 3 {
		t.Errorf("EOF column = %d, want 3", prog.EOF.Column)
	}
}
