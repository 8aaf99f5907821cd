package ir

import (
	"fmt"

	"github.com/teness/tessc/internal/diag"
	"github.com/teness/tessc/internal/parser/ast"
	"github.com/teness/tessc/internal/source"
	"github.com/teness/tessc/internal/symtab"
	"github.com/teness/tessc/internal/types"
)

// EntryPolicy selects how the entry function of a module is chosen.
type EntryPolicy int

const (
	// EntryAuto uses the user's entry function when one is defined, running
	// the top-level statements at its start, and synthesizes one otherwise.
	EntryAuto EntryPolicy = iota
	// EntryAlways always synthesizes an entry function for the top-level
	// statements.
	EntryAlways
)

func (p EntryPolicy) String() string {
	if p == EntryAlways {
		return "always"
	}
	return "auto"
}

// ParseEntryPolicy converts "auto" or "always" to an EntryPolicy.
func ParseEntryPolicy(s string) (EntryPolicy, error) {
	switch s {
	case "", "auto":
		return EntryAuto, nil
	case "always":
		return EntryAlways, nil
	}
	return EntryAuto, fmt.Errorf("unknown entry policy %q (want auto or always)", s)
}

// DefaultEntryName is the name of the user-defined entry function.
const DefaultEntryName = "main"

// SynthesizedEntryName returns the name of the entry function generated for
// the file with the given stem.
func SynthesizedEntryName(stem string) string {
	return "load_" + stem
}

// Options configures a Builder.
type Options struct {
	EntryName   string
	EntryPolicy EntryPolicy
}

type loopTargets struct {
	breakTarget    *BasicBlock
	continueTarget *BasicBlock
}

// Builder lowers a Program into a Module, checking names and types along
// the way. The first violation aborts the build.
type Builder struct {
	table *symtab.Table
	opts  Options

	module       *Module
	currentFunc  *Function
	currentBlock *BasicBlock
	ctx          symtab.Context

	// slots maps variables and parameters to their stack slots.
	slots map[*symtab.Symbol]*Value
	// funcs maps function symbols to their IR functions.
	funcs map[*symtab.Symbol]*Function

	loops []loopTargets
}

// NewBuilder creates a Builder that declares names in table.
func NewBuilder(table *symtab.Table, opts Options) *Builder {
	if opts.EntryName == "" {
		opts.EntryName = DefaultEntryName
	}
	return &Builder{
		table: table,
		opts:  opts,
		ctx:   table.Root(),
		slots: make(map[*symtab.Symbol]*Value),
		funcs: make(map[*symtab.Symbol]*Function),
	}
}

// Build lowers prog. No module is returned when an error occurs.
func (b *Builder) Build(prog *ast.Program) (*Module, error) {
	stem := b.table.File().Stem()
	b.module = NewModule(stem)
	root := b.table.Root()

	decls := prog.Funcs()
	for _, decl := range decls {
		if err := b.declareFunction(decl); err != nil {
			return nil, err
		}
	}

	topCtx := b.table.Child(root, symtab.ScopeTopLevel, "<toplevel>")

	var userEntry *ast.FuncDecl
	if b.opts.EntryPolicy == EntryAuto {
		for _, decl := range decls {
			if decl.Name.Name == b.opts.EntryName {
				userEntry = decl
			}
		}
	}

	if userEntry != nil {
		b.module.Entry = userEntry.Name.Name
	} else {
		name := SynthesizedEntryName(stem)
		for _, decl := range decls {
			if decl.Name.Name == name {
				return nil, b.errorf(diag.DuplicateName, decl.Name.Pos(),
					"'%s' is reserved for the entry function", name)
			}
		}
		entry := NewFunction(name, nil, types.NewFunction(nil, types.Int))
		b.module.Functions = append([]*Function{entry}, b.module.Functions...)
		b.module.Entry = name

		b.beginFunction(entry, topCtx)
		if err := b.lowerStmts(prog.TopLevel()); err != nil {
			return nil, err
		}
		b.finishFunction()
	}

	for _, decl := range decls {
		var err error
		if decl == userEntry {
			err = b.lowerFunction(decl, topCtx, prog.TopLevel())
		} else {
			err = b.lowerFunction(decl, root, nil)
		}
		if err != nil {
			return nil, err
		}
	}

	return b.module, nil
}

// Unused returns the variables declared anywhere in the unit that were
// never read or assigned.
func (b *Builder) Unused() []*symtab.Symbol {
	var out []*symtab.Symbol
	for c := 0; c < b.table.Len(); c++ {
		out = append(out, b.table.Unused(symtab.Context(c))...)
	}
	return out
}

// declareFunction resolves a function's signature, binds its name in the
// root Context and adds an empty IR function to the module.
func (b *Builder) declareFunction(decl *ast.FuncDecl) error {
	var params []types.Type
	var names []string
	for _, p := range decl.Params {
		typ, err := b.resolveValueType(p.Type)
		if err != nil {
			return err
		}
		params = append(params, typ)
		names = append(names, p.Name.Name)
	}

	result := types.Void
	if decl.Result != nil {
		typ, err := b.resolveType(decl.Result)
		if err != nil {
			return err
		}
		result = typ
	}

	sig := types.NewFunction(params, result)
	sym := &symtab.Symbol{Name: decl.Name.Name, Kind: symtab.SymbolFunction, Type: sig, Pos: decl.Name.Pos()}
	if err := b.table.Declare(b.table.Root(), sym); err != nil {
		return err
	}

	fn := NewFunction(decl.Name.Name, names, sig)
	b.funcs[sym] = fn
	b.module.AddFunction(fn)
	return nil
}

// lowerFunction lowers the body of decl in a function Context nested in
// parent. prologue statements run first, in parent.
func (b *Builder) lowerFunction(decl *ast.FuncDecl, parent symtab.Context, prologue []ast.Stmt) error {
	sym := b.table.LookupLocal(b.table.Root(), decl.Name.Name)
	fn := b.funcs[sym]

	b.beginFunction(fn, parent)
	if err := b.lowerStmts(prologue); err != nil {
		return err
	}

	b.ctx = b.table.Child(parent, symtab.ScopeFunction, decl.Name.Name)
	for i, p := range decl.Params {
		param := fn.Parameters[i]
		psym := &symtab.Symbol{Name: p.Name.Name, Kind: symtab.SymbolParameter, Type: param.Type, Pos: p.Name.Pos()}
		if err := b.table.Declare(b.ctx, psym); err != nil {
			return err
		}
		slot := b.emitAlloca(param.Type, p.Name.Name)
		b.emit(&Store{Address: slot, Value: param})
		b.slots[psym] = slot
	}

	// Parameters and the outermost body statements share a Context.
	if err := b.lowerStmts(decl.Body.Stmts); err != nil {
		return err
	}
	b.finishFunction()
	return nil
}

func (b *Builder) beginFunction(fn *Function, ctx symtab.Context) {
	b.currentFunc = fn
	b.currentBlock = fn.Entry
	b.ctx = ctx
	b.loops = nil
}

// finishFunction terminates every open block with a return of the zero
// value of the function's result type.
func (b *Builder) finishFunction() {
	fn := b.currentFunc
	for _, block := range fn.Blocks {
		if block.IsTerminated() {
			continue
		}
		if types.IsVoid(fn.ReturnType) {
			block.AddInstruction(&Return{})
		} else {
			block.AddInstruction(&Return{Value: b.zeroValue(fn.ReturnType)})
		}
	}
	b.currentFunc = nil
	b.currentBlock = nil
	b.ctx = b.table.Root()
}

// Statements

func (b *Builder) lowerStmts(stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if err := b.lowerStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) lowerStmt(stmt ast.Stmt) error {
	if b.currentBlock.IsTerminated() {
		b.currentBlock = b.currentFunc.NewBlock("dead")
	}

	switch s := stmt.(type) {
	case *ast.VarDecl:
		return b.lowerVarDecl(s)
	case *ast.ExprStmt:
		_, err := b.lowerExpr(s.Expression)
		return err
	case *ast.BlockStmt:
		return b.lowerBlock(s, "block")
	case *ast.IfStmt:
		return b.lowerIf(s)
	case *ast.LoopStmt:
		return b.lowerLoop(s)
	case *ast.ReturnStmt:
		return b.lowerReturn(s)
	case *ast.BreakStmt:
		if len(b.loops) == 0 {
			return b.errorf(diag.InvalidSyntax, s.Pos(), "break outside of a loop")
		}
		b.jump(b.loops[len(b.loops)-1].breakTarget)
		return nil
	case *ast.ContinueStmt:
		if len(b.loops) == 0 {
			return b.errorf(diag.InvalidSyntax, s.Pos(), "continue outside of a loop")
		}
		b.jump(b.loops[len(b.loops)-1].continueTarget)
		return nil
	default:
		return b.errorf(diag.UnknownNode, stmt.Pos(), "no lowering for statement %T", stmt)
	}
}

// lowerBlock lowers a block statement in a new child Context.
func (b *Builder) lowerBlock(block *ast.BlockStmt, label string) error {
	outer := b.ctx
	b.ctx = b.table.Child(outer, symtab.ScopeBlock, label)
	defer func() { b.ctx = outer }()
	return b.lowerStmts(block.Stmts)
}

func (b *Builder) lowerVarDecl(decl *ast.VarDecl) error {
	var declared types.Type
	if decl.Type != nil {
		typ, err := b.resolveValueType(decl.Type)
		if err != nil {
			return err
		}
		declared = typ
	}

	var init *Value
	if decl.Init != nil {
		v, err := b.lowerExpr(decl.Init)
		if err != nil {
			return err
		}
		if types.IsVoid(v.Type) {
			return b.errorf(diag.TypeError, decl.Init.Pos(), "initializer of '%s' has no value", decl.Name.Name)
		}
		if declared != nil && !v.Type.AssignableTo(declared) {
			return b.errorf(diag.TypeError, decl.Init.Pos(),
				"cannot initialize '%s' of type %s with a value of type %s", decl.Name.Name, declared, v.Type)
		}
		if declared == nil {
			declared = v.Type
		}
		init = v
	}
	if declared == nil {
		return b.errorf(diag.InvalidSyntax, decl.Pos(), "variable '%s' needs a type or an initializer", decl.Name.Name)
	}

	sym := &symtab.Symbol{Name: decl.Name.Name, Kind: symtab.SymbolVariable, Type: declared, Pos: decl.Name.Pos()}
	if err := b.table.Declare(b.ctx, sym); err != nil {
		return err
	}

	if init == nil {
		init = b.zeroValue(declared)
	}
	slot := b.emitAlloca(declared, decl.Name.Name)
	b.emit(&Store{Address: slot, Value: init})
	b.slots[sym] = slot
	return nil
}

func (b *Builder) lowerIf(stmt *ast.IfStmt) error {
	cond, err := b.lowerCondition(stmt.Condition, "if")
	if err != nil {
		return err
	}

	fn := b.currentFunc
	thenBlock := fn.NewBlock("if.then")
	var elseBlock *BasicBlock
	if stmt.Else != nil {
		elseBlock = fn.NewBlock("if.else")
	}
	endBlock := fn.NewBlock("if.end")

	if elseBlock != nil {
		b.branch(cond, thenBlock, elseBlock)
	} else {
		b.branch(cond, thenBlock, endBlock)
	}

	b.currentBlock = thenBlock
	if err := b.lowerBlock(stmt.Then, "if.then"); err != nil {
		return err
	}
	b.jumpIfOpen(endBlock)

	if elseBlock != nil {
		b.currentBlock = elseBlock
		var err error
		if block, ok := stmt.Else.(*ast.BlockStmt); ok {
			err = b.lowerBlock(block, "if.else")
		} else {
			err = b.lowerStmt(stmt.Else)
		}
		if err != nil {
			return err
		}
		b.jumpIfOpen(endBlock)
	}

	b.currentBlock = endBlock
	return nil
}

func (b *Builder) lowerLoop(loop *ast.LoopStmt) error {
	outer := b.ctx
	b.ctx = b.table.Child(outer, symtab.ScopeLoop, "loop")
	defer func() { b.ctx = outer }()

	if loop.Init != nil {
		if err := b.lowerStmt(loop.Init); err != nil {
			return err
		}
	}

	fn := b.currentFunc
	condBlock := fn.NewBlock("loop.cond")
	bodyBlock := fn.NewBlock("loop.body")
	var postBlock *BasicBlock
	if loop.Post != nil {
		postBlock = fn.NewBlock("loop.post")
	}
	endBlock := fn.NewBlock("loop.end")

	continueTarget := condBlock
	if postBlock != nil {
		continueTarget = postBlock
	}

	b.jump(condBlock)
	b.currentBlock = condBlock
	if loop.Condition != nil {
		cond, err := b.lowerCondition(loop.Condition, "loop")
		if err != nil {
			return err
		}
		b.branch(cond, bodyBlock, endBlock)
	} else {
		b.jump(bodyBlock)
	}

	b.currentBlock = bodyBlock
	b.loops = append(b.loops, loopTargets{breakTarget: endBlock, continueTarget: continueTarget})
	err := b.lowerBlock(loop.Body, "loop.body")
	b.loops = b.loops[:len(b.loops)-1]
	if err != nil {
		return err
	}
	b.jumpIfOpen(continueTarget)

	if postBlock != nil {
		b.currentBlock = postBlock
		if _, err := b.lowerExpr(loop.Post); err != nil {
			return err
		}
		b.jump(condBlock)
	}

	b.currentBlock = endBlock
	return nil
}

func (b *Builder) lowerCondition(expr ast.Expr, what string) (*Value, error) {
	cond, err := b.lowerExpr(expr)
	if err != nil {
		return nil, err
	}
	if !types.IsBoolean(cond.Type) {
		return nil, b.errorf(diag.TypeError, expr.Pos(), "%s condition must be bool, got %s", what, cond.Type)
	}
	return cond, nil
}

func (b *Builder) lowerReturn(stmt *ast.ReturnStmt) error {
	fn := b.currentFunc
	want := fn.ReturnType

	if stmt.Value == nil {
		if !types.IsVoid(want) {
			return b.errorf(diag.TypeError, stmt.Pos(), "%s must return a value of type %s", fn.Name, want)
		}
		b.emit(&Return{})
		return nil
	}

	v, err := b.lowerExpr(stmt.Value)
	if err != nil {
		return err
	}
	if types.IsVoid(want) {
		return b.errorf(diag.TypeError, stmt.Value.Pos(), "%s does not return a value", fn.Name)
	}
	if !v.Type.AssignableTo(want) {
		return b.errorf(diag.TypeError, stmt.Value.Pos(),
			"cannot return a value of type %s from %s, want %s", v.Type, fn.Name, want)
	}
	b.emit(&Return{Value: v})
	return nil
}

// Emission helpers

func (b *Builder) emit(instr Instruction) {
	b.currentBlock.AddInstruction(instr)
}

func (b *Builder) emitAlloca(typ types.Type, name string) *Value {
	slot := b.currentFunc.NewValue(name, typ, ValueSlot)
	b.emit(&Alloca{Dest: slot, Type: typ})
	return slot
}

func (b *Builder) jump(target *BasicBlock) {
	b.emit(&Jump{Target: target})
	b.currentBlock.AddSuccessor(target)
}

func (b *Builder) jumpIfOpen(target *BasicBlock) {
	if !b.currentBlock.IsTerminated() {
		b.jump(target)
	}
}

func (b *Builder) branch(cond *Value, ifTrue, ifFalse *BasicBlock) {
	b.emit(&Branch{Condition: cond, TrueBlock: ifTrue, FalseBlock: ifFalse})
	b.currentBlock.AddSuccessor(ifTrue)
	b.currentBlock.AddSuccessor(ifFalse)
}

func (b *Builder) zeroValue(typ types.Type) *Value {
	switch typ.Kind() {
	case types.KindFloat:
		return b.currentFunc.NewConst(types.Float, 0.0)
	case types.KindBool:
		return b.currentFunc.NewConst(types.Bool, false)
	case types.KindString:
		return b.module.NewString("")
	default:
		return b.currentFunc.NewConst(types.Int, int64(0))
	}
}

// resolveType maps a type name to its type.
func (b *Builder) resolveType(id *ast.IdentifierExpr) (types.Type, error) {
	typ, ok := types.Lookup(id.Name)
	if !ok {
		return nil, b.errorf(diag.TypeError, id.Pos(), "unknown type '%s'", id.Name)
	}
	return typ, nil
}

// resolveValueType is resolveType for variables and parameters, which
// cannot be void.
func (b *Builder) resolveValueType(id *ast.IdentifierExpr) (types.Type, error) {
	typ, err := b.resolveType(id)
	if err != nil {
		return nil, err
	}
	if types.IsVoid(typ) {
		return nil, b.errorf(diag.TypeError, id.Pos(), "void is not a value type")
	}
	return typ, nil
}

func (b *Builder) errorf(c diag.Category, pos source.Position, format string, args ...any) error {
	return diag.New(c, b.table.Origin(b.ctx), pos, format, args...)
}
