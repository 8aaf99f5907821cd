package optimizer

import (
	"math"

	"github.com/teness/tessc/internal/ir"
	"github.com/teness/tessc/internal/types"
)

// ConstantFoldingPass evaluates operations on constant operands at compile
// time and turns branches on constant conditions into jumps.
//
//	t1 = add const(2), const(3)      t1 = const(5)
//	t2 = mul t1, const(4)       =>   t2 = const(20)
//
// Integer results wrap to 32 bits. Division and remainder by zero are left
// for the runtime.
type ConstantFoldingPass struct {
	stats *Stats
}

func (c *ConstantFoldingPass) Name() string { return "ConstantFolding" }

func (c *ConstantFoldingPass) Run(fn *ir.Function) (bool, error) {
	// constants maps values defined by a Copy of a constant to that constant.
	constants := make(map[*ir.Value]*ir.Value)
	changed := false

	for _, block := range fn.Blocks {
		for i, instr := range block.Instructions {
			if substitute(instr, constants) {
				changed = true
			}

			switch in := instr.(type) {
			case *ir.Copy:
				if in.Value.IsConstant() {
					constants[in.Dest] = in.Value
				}
			case *ir.BinaryOp:
				if v := c.foldBinary(fn, in); v != nil {
					block.Instructions[i] = &ir.Copy{Dest: in.Dest, Value: v}
					constants[in.Dest] = v
					c.folded()
					changed = true
				}
			case *ir.UnaryOp:
				if v := c.foldUnary(fn, in); v != nil {
					block.Instructions[i] = &ir.Copy{Dest: in.Dest, Value: v}
					constants[in.Dest] = v
					c.folded()
					changed = true
				}
			case *ir.Branch:
				if cond, ok := in.Condition.Constant.(bool); ok && in.Condition.IsConstant() {
					taken, dropped := in.TrueBlock, in.FalseBlock
					if !cond {
						taken, dropped = dropped, taken
					}
					block.Instructions[i] = &ir.Jump{Target: taken}
					if dropped != taken {
						block.RemoveSuccessor(dropped)
					}
					c.folded()
					changed = true
				}
			}
		}
	}
	return changed, nil
}

func (c *ConstantFoldingPass) folded() {
	if c.stats != nil {
		c.stats.ConstantsFolded++
	}
}

// substitute replaces operands known to be constant. Slot addresses are
// never constant, so only value operands are considered.
func substitute(instr ir.Instruction, constants map[*ir.Value]*ir.Value) bool {
	changed := false
	replace := func(v **ir.Value) {
		if *v == nil {
			return
		}
		if k, ok := constants[*v]; ok {
			*v = k
			changed = true
		}
	}

	switch in := instr.(type) {
	case *ir.BinaryOp:
		replace(&in.Left)
		replace(&in.Right)
	case *ir.UnaryOp:
		replace(&in.Operand)
	case *ir.Copy:
		replace(&in.Value)
	case *ir.Store:
		replace(&in.Value)
	case *ir.Call:
		for i := range in.Args {
			replace(&in.Args[i])
		}
	case *ir.Branch:
		replace(&in.Condition)
	case *ir.Return:
		replace(&in.Value)
	}
	return changed
}

func (c *ConstantFoldingPass) foldBinary(fn *ir.Function, op *ir.BinaryOp) *ir.Value {
	if !op.Left.IsConstant() || !op.Right.IsConstant() {
		return nil
	}

	switch l := op.Left.Constant.(type) {
	case int64:
		r, ok := op.Right.Constant.(int64)
		if !ok {
			return nil
		}
		return foldInt(fn, op.Op, l, r)
	case float64:
		r, ok := op.Right.Constant.(float64)
		if !ok {
			return nil
		}
		return foldFloat(fn, op.Op, l, r)
	case bool:
		r, ok := op.Right.Constant.(bool)
		if !ok {
			return nil
		}
		switch op.Op {
		case ir.OpEq:
			return boolConst(fn, l == r)
		case ir.OpNeq:
			return boolConst(fn, l != r)
		}
	}
	return nil
}

func foldInt(fn *ir.Function, op ir.BinaryOperator, l, r int64) *ir.Value {
	var result int64
	switch op {
	case ir.OpAdd:
		result = l + r
	case ir.OpSub:
		result = l - r
	case ir.OpMul:
		result = l * r
	case ir.OpDiv, ir.OpMod:
		if r == 0 || (l == math.MinInt32 && r == -1) {
			return nil
		}
		if op == ir.OpDiv {
			result = l / r
		} else {
			result = l % r
		}
	case ir.OpEq:
		return boolConst(fn, l == r)
	case ir.OpNeq:
		return boolConst(fn, l != r)
	case ir.OpLt:
		return boolConst(fn, l < r)
	case ir.OpLe:
		return boolConst(fn, l <= r)
	case ir.OpGt:
		return boolConst(fn, l > r)
	case ir.OpGe:
		return boolConst(fn, l >= r)
	default:
		return nil
	}
	return fn.NewConst(types.Int, int64(int32(result)))
}

// foldFloat follows ordered comparison semantics: every comparison with a
// NaN operand is false.
func foldFloat(fn *ir.Function, op ir.BinaryOperator, l, r float64) *ir.Value {
	ordered := !math.IsNaN(l) && !math.IsNaN(r)
	switch op {
	case ir.OpFAdd:
		return fn.NewConst(types.Float, l+r)
	case ir.OpFSub:
		return fn.NewConst(types.Float, l-r)
	case ir.OpFMul:
		return fn.NewConst(types.Float, l*r)
	case ir.OpFDiv:
		return fn.NewConst(types.Float, l/r)
	case ir.OpFMod:
		return fn.NewConst(types.Float, math.Mod(l, r))
	case ir.OpFEq:
		return boolConst(fn, ordered && l == r)
	case ir.OpFNeq:
		return boolConst(fn, ordered && l != r)
	case ir.OpFLt:
		return boolConst(fn, ordered && l < r)
	case ir.OpFLe:
		return boolConst(fn, ordered && l <= r)
	case ir.OpFGt:
		return boolConst(fn, ordered && l > r)
	case ir.OpFGe:
		return boolConst(fn, ordered && l >= r)
	}
	return nil
}

func (c *ConstantFoldingPass) foldUnary(fn *ir.Function, op *ir.UnaryOp) *ir.Value {
	if !op.Operand.IsConstant() {
		return nil
	}
	switch v := op.Operand.Constant.(type) {
	case int64:
		if op.Op == ir.OpNeg {
			return fn.NewConst(types.Int, int64(int32(-v)))
		}
	case float64:
		if op.Op == ir.OpFNeg {
			return fn.NewConst(types.Float, -v)
		}
	case bool:
		if op.Op == ir.OpNot {
			return boolConst(fn, !v)
		}
	}
	return nil
}

func boolConst(fn *ir.Function, b bool) *ir.Value {
	return fn.NewConst(types.Bool, b)
}
