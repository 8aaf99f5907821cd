package ir

import (
	"github.com/teness/tessc/internal/diag"
	"github.com/teness/tessc/internal/lexer"
	"github.com/teness/tessc/internal/parser/ast"
	"github.com/teness/tessc/internal/symtab"
	"github.com/teness/tessc/internal/types"
)

// PrintBuiltin is the name of the built-in output function. It is used only
// when no user declaration of the name is visible.
const PrintBuiltin = "print"

// printfSignature is the C printf the print builtin lowers to.
var printfSignature = &types.Function{
	Params:   []types.Type{types.String},
	Result:   types.Int,
	Variadic: true,
}

type opKey struct {
	kind types.Kind
	tok  lexer.TokenType
}

// binaryOps selects the opcode for an operator by operand kind. Operands
// must have equal types; pairs missing here are type errors.
var binaryOps = map[opKey]BinaryOperator{
	{types.KindInt, lexer.TokenPlus}:         OpAdd,
	{types.KindInt, lexer.TokenMinus}:        OpSub,
	{types.KindInt, lexer.TokenStar}:         OpMul,
	{types.KindInt, lexer.TokenSlash}:        OpDiv,
	{types.KindInt, lexer.TokenPercent}:      OpMod,
	{types.KindInt, lexer.TokenEqual}:        OpEq,
	{types.KindInt, lexer.TokenNotEqual}:     OpNeq,
	{types.KindInt, lexer.TokenLess}:         OpLt,
	{types.KindInt, lexer.TokenLessEqual}:    OpLe,
	{types.KindInt, lexer.TokenGreater}:      OpGt,
	{types.KindInt, lexer.TokenGreaterEqual}: OpGe,

	{types.KindFloat, lexer.TokenPlus}:         OpFAdd,
	{types.KindFloat, lexer.TokenMinus}:        OpFSub,
	{types.KindFloat, lexer.TokenStar}:         OpFMul,
	{types.KindFloat, lexer.TokenSlash}:        OpFDiv,
	{types.KindFloat, lexer.TokenPercent}:      OpFMod,
	{types.KindFloat, lexer.TokenEqual}:        OpFEq,
	{types.KindFloat, lexer.TokenNotEqual}:     OpFNeq,
	{types.KindFloat, lexer.TokenLess}:         OpFLt,
	{types.KindFloat, lexer.TokenLessEqual}:    OpFLe,
	{types.KindFloat, lexer.TokenGreater}:      OpFGt,
	{types.KindFloat, lexer.TokenGreaterEqual}: OpFGe,

	{types.KindBool, lexer.TokenEqual}:    OpEq,
	{types.KindBool, lexer.TokenNotEqual}: OpNeq,
}

// compoundOps maps compound assignment operators to their arithmetic token.
var compoundOps = map[lexer.TokenType]lexer.TokenType{
	lexer.TokenPlusEq:  lexer.TokenPlus,
	lexer.TokenMinusEq: lexer.TokenMinus,
	lexer.TokenStarEq:  lexer.TokenStar,
	lexer.TokenSlashEq: lexer.TokenSlash,
}

func (b *Builder) lowerExpr(expr ast.Expr) (*Value, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return b.lowerLiteral(e), nil
	case *ast.IdentifierExpr:
		return b.lowerIdentifier(e)
	case *ast.GroupingExpr:
		return b.lowerExpr(e.Inner)
	case *ast.BinaryExpr:
		return b.lowerBinary(e)
	case *ast.LogicalExpr:
		return b.lowerLogical(e)
	case *ast.UnaryExpr:
		return b.lowerUnary(e)
	case *ast.AssignmentExpr:
		return b.lowerAssignment(e)
	case *ast.CallExpr:
		return b.lowerCall(e)
	default:
		return nil, b.errorf(diag.UnknownNode, expr.Pos(), "no lowering for expression %T", expr)
	}
}

func (b *Builder) lowerLiteral(lit *ast.LiteralExpr) *Value {
	fn := b.currentFunc
	switch lit.Kind {
	case ast.LiteralFloat:
		return fn.NewConst(types.Float, lit.Value)
	case ast.LiteralBool:
		return fn.NewConst(types.Bool, lit.Value)
	case ast.LiteralString:
		return b.module.NewString(lit.Value.(string))
	default:
		return fn.NewConst(types.Int, lit.Value)
	}
}

// lookupVariable resolves a name that must denote a variable or parameter.
func (b *Builder) lookupVariable(id *ast.IdentifierExpr) (*symtab.Symbol, error) {
	sym, err := b.table.Resolve(b.ctx, id.Name, id.Pos())
	if err != nil {
		return nil, err
	}
	if sym.Kind == symtab.SymbolFunction {
		return nil, b.errorf(diag.TypeError, id.Pos(), "function '%s' used as a value", id.Name)
	}
	return sym, nil
}

func (b *Builder) lowerIdentifier(id *ast.IdentifierExpr) (*Value, error) {
	sym, err := b.lookupVariable(id)
	if err != nil {
		return nil, err
	}
	dest := b.currentFunc.NewTemp(sym.Type)
	b.emit(&Load{Dest: dest, Address: b.slots[sym]})
	return dest, nil
}

func (b *Builder) lowerBinary(e *ast.BinaryExpr) (*Value, error) {
	left, err := b.lowerExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := b.lowerExpr(e.Right)
	if err != nil {
		return nil, err
	}
	return b.emitBinary(e.Operator, left, right)
}

func (b *Builder) emitBinary(op lexer.Token, left, right *Value) (*Value, error) {
	if !left.Type.Equals(right.Type) {
		return nil, b.errorf(diag.TypeError, op.Position,
			"mismatched types %s and %s for '%s'", left.Type, right.Type, op.Lexeme)
	}
	code, ok := binaryOps[opKey{left.Type.Kind(), op.Type}]
	if !ok {
		return nil, b.errorf(diag.TypeError, op.Position,
			"operator '%s' is not defined on %s", op.Lexeme, left.Type)
	}

	typ := left.Type
	if code.IsComparison() {
		typ = types.Bool
	}
	dest := b.currentFunc.NewTemp(typ)
	b.emit(&BinaryOp{Op: code, Dest: dest, Left: left, Right: right})
	return dest, nil
}

func (b *Builder) lowerUnary(e *ast.UnaryExpr) (*Value, error) {
	operand, err := b.lowerExpr(e.Operand)
	if err != nil {
		return nil, err
	}

	var code UnaryOperator
	switch {
	case e.Operator.Type == lexer.TokenMinus && operand.Type.Kind() == types.KindInt:
		code = OpNeg
	case e.Operator.Type == lexer.TokenMinus && operand.Type.Kind() == types.KindFloat:
		code = OpFNeg
	case e.Operator.Type == lexer.TokenNot && types.IsBoolean(operand.Type):
		code = OpNot
	default:
		return nil, b.errorf(diag.TypeError, e.Operator.Position,
			"operator '%s' is not defined on %s", e.Operator.Lexeme, operand.Type)
	}

	dest := b.currentFunc.NewTemp(operand.Type)
	b.emit(&UnaryOp{Op: code, Dest: dest, Operand: operand})
	return dest, nil
}

// lowerLogical evaluates the right operand only when the left one does not
// decide the result. The result is kept in a bool slot.
func (b *Builder) lowerLogical(e *ast.LogicalExpr) (*Value, error) {
	prefix := "or"
	if e.Operator.Type == lexer.TokenAnd {
		prefix = "and"
	}

	left, err := b.lowerExpr(e.Left)
	if err != nil {
		return nil, err
	}
	if !types.IsBoolean(left.Type) {
		return nil, b.errorf(diag.TypeError, e.Left.Pos(),
			"operand of '%s' must be bool, got %s", e.Operator.Lexeme, left.Type)
	}

	fn := b.currentFunc
	result := b.emitAlloca(types.Bool, prefix)
	b.emit(&Store{Address: result, Value: left})

	rhsBlock := fn.NewBlock(prefix + ".rhs")
	endBlock := fn.NewBlock(prefix + ".end")
	if prefix == "and" {
		b.branch(left, rhsBlock, endBlock)
	} else {
		b.branch(left, endBlock, rhsBlock)
	}

	b.currentBlock = rhsBlock
	right, err := b.lowerExpr(e.Right)
	if err != nil {
		return nil, err
	}
	if !types.IsBoolean(right.Type) {
		return nil, b.errorf(diag.TypeError, e.Right.Pos(),
			"operand of '%s' must be bool, got %s", e.Operator.Lexeme, right.Type)
	}
	b.emit(&Store{Address: result, Value: right})
	b.jump(endBlock)

	b.currentBlock = endBlock
	dest := fn.NewTemp(types.Bool)
	b.emit(&Load{Dest: dest, Address: result})
	return dest, nil
}

func (b *Builder) lowerAssignment(e *ast.AssignmentExpr) (*Value, error) {
	sym, err := b.lookupVariable(e.Target)
	if err != nil {
		return nil, err
	}
	if !sym.IsAssignable() {
		return nil, b.errorf(diag.TypeError, e.Target.Pos(), "cannot assign to '%s'", sym.Name)
	}
	slot := b.slots[sym]

	value, err := b.lowerExpr(e.Value)
	if err != nil {
		return nil, err
	}

	if arith, ok := compoundOps[e.Operator.Type]; ok {
		current := b.currentFunc.NewTemp(sym.Type)
		b.emit(&Load{Dest: current, Address: slot})
		op := e.Operator
		op.Type = arith
		op.Lexeme = op.Lexeme[:1]
		value, err = b.emitBinary(op, current, value)
		if err != nil {
			return nil, err
		}
	}

	if !value.Type.AssignableTo(sym.Type) {
		return nil, b.errorf(diag.TypeError, e.Value.Pos(),
			"cannot assign a value of type %s to '%s' of type %s", value.Type, sym.Name, sym.Type)
	}
	b.emit(&Store{Address: slot, Value: value})
	return value, nil
}

func (b *Builder) lowerCall(e *ast.CallExpr) (*Value, error) {
	sym, err := b.table.Resolve(b.ctx, e.Callee.Name, e.Callee.Pos())
	if err != nil {
		if e.Callee.Name == PrintBuiltin && diag.Is(err, diag.NoSuchVariable) {
			return b.lowerPrint(e)
		}
		return nil, err
	}

	sig, ok := sym.Type.(*types.Function)
	if !ok {
		return nil, b.errorf(diag.TypeError, e.Callee.Pos(), "'%s' is not a function", sym.Name)
	}
	if len(e.Args) != len(sig.Params) {
		return nil, b.errorf(diag.TypeError, e.Callee.Pos(),
			"%s expects %d arguments, got %d", sym.Name, len(sig.Params), len(e.Args))
	}

	args := make([]*Value, len(e.Args))
	for i, arg := range e.Args {
		v, err := b.lowerExpr(arg)
		if err != nil {
			return nil, err
		}
		if !v.Type.AssignableTo(sig.Params[i]) {
			return nil, b.errorf(diag.TypeError, arg.Pos(),
				"argument %d of %s must be %s, got %s", i+1, sym.Name, sig.Params[i], v.Type)
		}
		args[i] = v
	}

	call := &Call{Callee: b.funcs[sym], Args: args}
	if types.IsVoid(sig.Result) {
		b.emit(call)
		return b.voidValue(), nil
	}
	call.Dest = b.currentFunc.NewTemp(sig.Result)
	b.emit(call)
	return call.Dest, nil
}

// lowerPrint lowers print(x) to printf with a format chosen by x's type.
// Bools print as 1 or 0.
func (b *Builder) lowerPrint(e *ast.CallExpr) (*Value, error) {
	if len(e.Args) != 1 {
		return nil, b.errorf(diag.TypeError, e.Callee.Pos(), "print expects 1 argument, got %d", len(e.Args))
	}
	arg, err := b.lowerExpr(e.Args[0])
	if err != nil {
		return nil, err
	}

	var format string
	switch arg.Type.Kind() {
	case types.KindInt, types.KindBool:
		format = "%d\n"
	case types.KindFloat:
		format = "%f\n"
	case types.KindString:
		format = "%s\n"
	default:
		return nil, b.errorf(diag.TypeError, e.Args[0].Pos(), "cannot print a value of type %s", arg.Type)
	}

	printf := b.module.DeclareExternal("printf", printfSignature)
	b.emit(&Call{Callee: printf, Args: []*Value{b.module.NewString(format), arg}})
	return b.voidValue(), nil
}

// voidValue is the result of a call that produces nothing. It is never
// emitted as an operand.
func (b *Builder) voidValue() *Value {
	return b.currentFunc.NewTemp(types.Void)
}
