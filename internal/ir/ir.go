// Package ir defines the intermediate representation produced from the
// syntax tree, and the Builder that lowers a Program into it.
//
// A Module holds Functions; a Function holds BasicBlocks; a block holds
// Instructions and ends in exactly one terminator (Jump, Branch or Return).
// Local variables live in stack slots created by Alloca and are accessed
// through Load and Store, so values other than slots are defined once.
package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/teness/tessc/internal/types"
)

// ValueKind distinguishes the kinds of Values.
type ValueKind int

const (
	ValueTemporary ValueKind = iota // result of an instruction
	ValueConstant                   // compile-time constant
	ValueParameter                  // function parameter
	ValueSlot                       // stack slot created by Alloca
	ValueGlobal                     // module-level string constant
)

// Value is an operand or result of an instruction.
type Value struct {
	ID   int
	Name string

	// Type is the type of the value. For slots it is the type of the
	// stored variable.
	Type types.Type
	Kind ValueKind

	// Constant holds int64, float64 or bool for constants and the text
	// for string globals.
	Constant any
}

func (v *Value) String() string {
	switch v.Kind {
	case ValueConstant:
		return fmt.Sprintf("const(%v)", v.Constant)
	case ValueParameter:
		return fmt.Sprintf("param(%s.%d)", v.Name, v.ID)
	case ValueSlot:
		return fmt.Sprintf("%s.%d", v.Name, v.ID)
	case ValueGlobal:
		return "@" + v.Name
	default:
		return fmt.Sprintf("t%d", v.ID)
	}
}

// IsConstant reports whether v is a compile-time constant.
func (v *Value) IsConstant() bool {
	return v.Kind == ValueConstant
}

// Instruction is a single IR operation.
type Instruction interface {
	String() string
	// Operands returns the values read by the instruction.
	Operands() []*Value
	// Result returns the value defined by the instruction, or nil.
	Result() *Value
}

// BinaryOperator is a typed binary opcode. Integer and float operations
// are distinct opcodes; comparisons produce bool.
type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSub
	OpMul
	OpDiv
	OpMod

	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFMod

	// Integer and bool comparisons.
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe

	// Float comparisons.
	OpFEq
	OpFNeq
	OpFLt
	OpFLe
	OpFGt
	OpFGe
)

var binaryNames = [...]string{
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpMod: "mod",
	OpFAdd: "fadd", OpFSub: "fsub", OpFMul: "fmul", OpFDiv: "fdiv", OpFMod: "fmod",
	OpEq: "eq", OpNeq: "ne", OpLt: "lt", OpLe: "le", OpGt: "gt", OpGe: "ge",
	OpFEq: "feq", OpFNeq: "fne", OpFLt: "flt", OpFLe: "fle", OpFGt: "fgt", OpFGe: "fge",
}

func (op BinaryOperator) String() string {
	if op >= 0 && int(op) < len(binaryNames) {
		return binaryNames[op]
	}
	return "?"
}

// IsComparison reports whether the operator yields bool.
func (op BinaryOperator) IsComparison() bool {
	return op >= OpEq
}

// IsFloat reports whether the operator works on float operands.
func (op BinaryOperator) IsFloat() bool {
	return (op >= OpFAdd && op <= OpFMod) || op >= OpFEq
}

// BinaryOp computes Dest = Left Op Right.
type BinaryOp struct {
	Op    BinaryOperator
	Dest  *Value
	Left  *Value
	Right *Value
}

func (b *BinaryOp) String() string {
	return fmt.Sprintf("%s = %s %s, %s", b.Dest, b.Op, b.Left, b.Right)
}

func (b *BinaryOp) Operands() []*Value { return []*Value{b.Left, b.Right} }
func (b *BinaryOp) Result() *Value     { return b.Dest }

// UnaryOperator is a typed unary opcode.
type UnaryOperator int

const (
	OpNeg  UnaryOperator = iota // -x on int
	OpFNeg                      // -x on float
	OpNot                       // !x on bool
)

func (op UnaryOperator) String() string {
	switch op {
	case OpNeg:
		return "neg"
	case OpFNeg:
		return "fneg"
	case OpNot:
		return "not"
	default:
		return "?"
	}
}

// UnaryOp computes Dest = Op Operand.
type UnaryOp struct {
	Op      UnaryOperator
	Dest    *Value
	Operand *Value
}

func (u *UnaryOp) String() string {
	return fmt.Sprintf("%s = %s %s", u.Dest, u.Op, u.Operand)
}

func (u *UnaryOp) Operands() []*Value { return []*Value{u.Operand} }
func (u *UnaryOp) Result() *Value     { return u.Dest }

// Copy binds Dest to Value. Constant folding rewrites operations into copies.
type Copy struct {
	Dest  *Value
	Value *Value
}

func (c *Copy) String() string {
	return fmt.Sprintf("%s = %s", c.Dest, c.Value)
}

func (c *Copy) Operands() []*Value { return []*Value{c.Value} }
func (c *Copy) Result() *Value     { return c.Dest }

// Alloca reserves a stack slot for a variable of Type.
type Alloca struct {
	Dest *Value
	Type types.Type
}

func (a *Alloca) String() string {
	return fmt.Sprintf("%s = alloca %s", a.Dest, a.Type)
}

func (a *Alloca) Operands() []*Value { return nil }
func (a *Alloca) Result() *Value     { return a.Dest }

// Load reads the variable stored in the slot Address.
type Load struct {
	Dest    *Value
	Address *Value
}

func (l *Load) String() string {
	return fmt.Sprintf("%s = load %s", l.Dest, l.Address)
}

func (l *Load) Operands() []*Value { return []*Value{l.Address} }
func (l *Load) Result() *Value     { return l.Dest }

// Store writes Value into the slot Address.
type Store struct {
	Address *Value
	Value   *Value
}

func (s *Store) String() string {
	return fmt.Sprintf("store %s, %s", s.Value, s.Address)
}

func (s *Store) Operands() []*Value { return []*Value{s.Address, s.Value} }
func (s *Store) Result() *Value     { return nil }

// Call invokes Callee. Dest is nil when the result is unused or void.
type Call struct {
	Dest   *Value
	Callee *Function
	Args   []*Value
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	call := fmt.Sprintf("call %s(%s)", c.Callee.Name, strings.Join(args, ", "))
	if c.Dest != nil {
		return c.Dest.String() + " = " + call
	}
	return call
}

func (c *Call) Operands() []*Value { return c.Args }
func (c *Call) Result() *Value     { return c.Dest }

// Jump transfers control to Target.
type Jump struct {
	Target *BasicBlock
}

func (j *Jump) String() string { return "jump " + j.Target.Label }

func (j *Jump) Operands() []*Value { return nil }
func (j *Jump) Result() *Value     { return nil }

// Branch transfers control to TrueBlock or FalseBlock on Condition.
type Branch struct {
	Condition  *Value
	TrueBlock  *BasicBlock
	FalseBlock *BasicBlock
}

func (b *Branch) String() string {
	return fmt.Sprintf("branch %s, %s, %s", b.Condition, b.TrueBlock.Label, b.FalseBlock.Label)
}

func (b *Branch) Operands() []*Value { return []*Value{b.Condition} }
func (b *Branch) Result() *Value     { return nil }

// Return leaves the function. Value is nil for void functions.
type Return struct {
	Value *Value
}

func (r *Return) String() string {
	if r.Value != nil {
		return "return " + r.Value.String()
	}
	return "return"
}

func (r *Return) Operands() []*Value {
	if r.Value != nil {
		return []*Value{r.Value}
	}
	return nil
}

func (r *Return) Result() *Value { return nil }

// quote renders string constants in dumps.
func quote(s string) string { return strconv.Quote(s) }
