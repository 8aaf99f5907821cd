// Package llvmgen translates an IR module into an LLVM module.
//
// Types map as int -> i32, float -> double, bool -> i1, string -> i8* and
// void -> void. Stack slots become allocas hoisted into the entry block;
// string constants become private immutable globals.
package llvmgen

import (
	"fmt"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/teness/tessc/internal/ir"
	"github.com/teness/tessc/internal/types"
)

// Options configures code generation.
type Options struct {
	// Triple is the target triple recorded in the module. Empty leaves it
	// unset.
	Triple string

	// MainWrapper adds a C "main" that calls the module's entry function
	// when the entry is not already named main. A user function named main
	// is then emitted as UserMainName.
	MainWrapper bool
}

// UserMainName is the symbol of a user function named main that is not the
// module's entry, when a main wrapper is generated.
const UserMainName = "tss.main"

type generator struct {
	src  *ir.Module
	dst  *llir.Module
	opts Options

	funcs   map[*ir.Function]*llir.Func
	strings map[*ir.Value]*llir.Global

	// per function
	locals map[*ir.Value]value.Value
	blocks map[*ir.BasicBlock]*llir.Block
}

// Generate translates m. The IR must have passed Verify.
func Generate(m *ir.Module, opts Options) (*llir.Module, error) {
	g := &generator{
		src:     m,
		dst:     llir.NewModule(),
		opts:    opts,
		funcs:   make(map[*ir.Function]*llir.Func),
		strings: make(map[*ir.Value]*llir.Global),
	}
	g.dst.SourceFilename = m.Name
	g.dst.TargetTriple = opts.Triple

	for _, s := range m.Strings {
		text := s.Constant.(string)
		global := g.dst.NewGlobalDef(s.Name, constant.NewCharArrayFromString(text+"\x00"))
		global.Immutable = true
		global.Linkage = enum.LinkagePrivate
		g.strings[s] = global
	}

	defined := make(map[string]bool)
	for _, fn := range m.Functions {
		defined[fn.Name] = true
	}
	for _, fn := range m.Externals {
		if defined[fn.Name] {
			return nil, fmt.Errorf("function %s conflicts with an external declaration", fn.Name)
		}
		g.declare(fn)
	}
	for _, fn := range m.Functions {
		g.declare(fn)
	}

	for _, fn := range m.Functions {
		if err := g.function(fn); err != nil {
			return nil, fmt.Errorf("function %s: %w", fn.Name, err)
		}
	}

	if g.wrapsEntry() {
		g.mainWrapper(m.Function(m.Entry))
	}
	return g.dst, nil
}

// Type maps a TenessScript type to its LLVM type.
func Type(t types.Type) lltypes.Type {
	switch t.Kind() {
	case types.KindInt:
		return lltypes.I32
	case types.KindFloat:
		return lltypes.Double
	case types.KindBool:
		return lltypes.I1
	case types.KindString:
		return lltypes.NewPointer(lltypes.I8)
	default:
		return lltypes.Void
	}
}

func (g *generator) wrapsEntry() bool {
	return g.opts.MainWrapper && g.src.Entry != "" && g.src.Entry != "main"
}

func (g *generator) declare(fn *ir.Function) {
	var params []*llir.Param
	for i, typ := range fn.Signature.Params {
		name := ""
		if i < len(fn.Parameters) {
			name = "arg." + fn.Parameters[i].Name
		}
		params = append(params, llir.NewParam(name, Type(typ)))
	}
	name := fn.Name
	if name == "main" && !fn.External && g.wrapsEntry() {
		name = UserMainName
	}
	f := g.dst.NewFunc(name, Type(fn.ReturnType), params...)
	f.Sig.Variadic = fn.Signature.Variadic
	g.funcs[fn] = f
}

func (g *generator) function(fn *ir.Function) error {
	f := g.funcs[fn]
	g.locals = make(map[*ir.Value]value.Value)
	g.blocks = make(map[*ir.BasicBlock]*llir.Block)

	for i, p := range fn.Parameters {
		g.locals[p] = f.Params[i]
	}
	for _, block := range fn.Blocks {
		g.blocks[block] = f.NewBlock(block.Label)
	}

	entry := g.blocks[fn.Entry]
	for _, block := range fn.Blocks {
		for _, instr := range block.Instructions {
			if a, ok := instr.(*ir.Alloca); ok {
				slot := entry.NewAlloca(Type(a.Type))
				slot.SetName(fmt.Sprintf("%s.addr%d", a.Dest.Name, a.Dest.ID))
				g.locals[a.Dest] = slot
			}
		}
	}

	for _, block := range fn.Blocks {
		b := g.blocks[block]
		for _, instr := range block.Instructions {
			if err := g.instruction(b, instr); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *generator) instruction(b *llir.Block, instr ir.Instruction) error {
	switch in := instr.(type) {
	case *ir.Alloca:
		// hoisted
	case *ir.Copy:
		v, err := g.value(in.Value)
		if err != nil {
			return err
		}
		g.locals[in.Dest] = v
	case *ir.Load:
		addr, err := g.value(in.Address)
		if err != nil {
			return err
		}
		g.locals[in.Dest] = b.NewLoad(Type(in.Dest.Type), addr)
	case *ir.Store:
		addr, err := g.value(in.Address)
		if err != nil {
			return err
		}
		v, err := g.value(in.Value)
		if err != nil {
			return err
		}
		b.NewStore(v, addr)
	case *ir.BinaryOp:
		return g.binary(b, in)
	case *ir.UnaryOp:
		return g.unary(b, in)
	case *ir.Call:
		return g.call(b, in)
	case *ir.Jump:
		b.NewBr(g.blocks[in.Target])
	case *ir.Branch:
		cond, err := g.value(in.Condition)
		if err != nil {
			return err
		}
		b.NewCondBr(cond, g.blocks[in.TrueBlock], g.blocks[in.FalseBlock])
	case *ir.Return:
		if in.Value == nil {
			b.NewRet(nil)
			return nil
		}
		v, err := g.value(in.Value)
		if err != nil {
			return err
		}
		b.NewRet(v)
	default:
		return fmt.Errorf("unsupported instruction %T", instr)
	}
	return nil
}

var intPredicates = map[ir.BinaryOperator]enum.IPred{
	ir.OpEq:  enum.IPredEQ,
	ir.OpNeq: enum.IPredNE,
	ir.OpLt:  enum.IPredSLT,
	ir.OpLe:  enum.IPredSLE,
	ir.OpGt:  enum.IPredSGT,
	ir.OpGe:  enum.IPredSGE,
}

var floatPredicates = map[ir.BinaryOperator]enum.FPred{
	ir.OpFEq:  enum.FPredOEQ,
	ir.OpFNeq: enum.FPredONE,
	ir.OpFLt:  enum.FPredOLT,
	ir.OpFLe:  enum.FPredOLE,
	ir.OpFGt:  enum.FPredOGT,
	ir.OpFGe:  enum.FPredOGE,
}

func (g *generator) binary(b *llir.Block, op *ir.BinaryOp) error {
	x, err := g.value(op.Left)
	if err != nil {
		return err
	}
	y, err := g.value(op.Right)
	if err != nil {
		return err
	}

	var v value.Value
	switch op.Op {
	case ir.OpAdd:
		v = b.NewAdd(x, y)
	case ir.OpSub:
		v = b.NewSub(x, y)
	case ir.OpMul:
		v = b.NewMul(x, y)
	case ir.OpDiv:
		v = b.NewSDiv(x, y)
	case ir.OpMod:
		v = b.NewSRem(x, y)
	case ir.OpFAdd:
		v = b.NewFAdd(x, y)
	case ir.OpFSub:
		v = b.NewFSub(x, y)
	case ir.OpFMul:
		v = b.NewFMul(x, y)
	case ir.OpFDiv:
		v = b.NewFDiv(x, y)
	case ir.OpFMod:
		v = b.NewFRem(x, y)
	default:
		if pred, ok := intPredicates[op.Op]; ok {
			v = b.NewICmp(pred, x, y)
		} else if pred, ok := floatPredicates[op.Op]; ok {
			v = b.NewFCmp(pred, x, y)
		} else {
			return fmt.Errorf("unsupported binary operator %s", op.Op)
		}
	}
	g.locals[op.Dest] = v
	return nil
}

func (g *generator) unary(b *llir.Block, op *ir.UnaryOp) error {
	x, err := g.value(op.Operand)
	if err != nil {
		return err
	}
	switch op.Op {
	case ir.OpNeg:
		g.locals[op.Dest] = b.NewSub(constant.NewInt(lltypes.I32, 0), x)
	case ir.OpFNeg:
		g.locals[op.Dest] = b.NewFNeg(x)
	case ir.OpNot:
		g.locals[op.Dest] = b.NewXor(x, constant.True)
	default:
		return fmt.Errorf("unsupported unary operator %s", op.Op)
	}
	return nil
}

// call passes bools to variadic externals as i32, matching C promotion.
func (g *generator) call(b *llir.Block, c *ir.Call) error {
	callee, ok := g.funcs[c.Callee]
	if !ok {
		return fmt.Errorf("call to undeclared function %s", c.Callee.Name)
	}

	fixed := len(c.Callee.Signature.Params)
	args := make([]value.Value, len(c.Args))
	for i, arg := range c.Args {
		v, err := g.value(arg)
		if err != nil {
			return err
		}
		if i >= fixed && arg.Type.Kind() == types.KindBool {
			v = b.NewZExt(v, lltypes.I32)
		}
		args[i] = v
	}

	call := b.NewCall(callee, args...)
	if c.Dest != nil {
		g.locals[c.Dest] = call
	}
	return nil
}

func (g *generator) value(v *ir.Value) (value.Value, error) {
	switch v.Kind {
	case ir.ValueConstant:
		return constantOf(v)
	case ir.ValueGlobal:
		global, ok := g.strings[v]
		if !ok {
			return nil, fmt.Errorf("unknown string constant %s", v)
		}
		zero := constant.NewInt(lltypes.I64, 0)
		return constant.NewGetElementPtr(global.ContentType, global, zero, zero), nil
	default:
		local, ok := g.locals[v]
		if !ok {
			return nil, fmt.Errorf("value %s used before definition", v)
		}
		return local, nil
	}
}

func constantOf(v *ir.Value) (constant.Constant, error) {
	switch c := v.Constant.(type) {
	case int64:
		return constant.NewInt(lltypes.I32, c), nil
	case float64:
		return constant.NewFloat(lltypes.Double, c), nil
	case bool:
		return constant.NewBool(c), nil
	}
	return nil, fmt.Errorf("unsupported constant %v of type %s", v.Constant, v.Type)
}

func (g *generator) mainWrapper(entry *ir.Function) {
	main := g.dst.NewFunc("main", lltypes.I32)
	b := main.NewBlock("entry")
	call := b.NewCall(g.funcs[entry])
	if entry.ReturnType.Kind() == types.KindInt {
		b.NewRet(call)
	} else {
		b.NewRet(constant.NewInt(lltypes.I32, 0))
	}
}
