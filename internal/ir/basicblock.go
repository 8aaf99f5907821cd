package ir

import (
	"fmt"
	"strings"

	"github.com/teness/tessc/internal/types"
)

// BasicBlock is a straight-line instruction sequence with a single entry.
type BasicBlock struct {
	Label        string
	Instructions []Instruction
	Successors   []*BasicBlock
	Predecessors []*BasicBlock

	// Index is the block's position in its function.
	Index int
}

// NewBasicBlock creates an empty block.
func NewBasicBlock(label string) *BasicBlock {
	return &BasicBlock{Label: label}
}

// AddInstruction appends instr to the block.
func (bb *BasicBlock) AddInstruction(instr Instruction) {
	bb.Instructions = append(bb.Instructions, instr)
}

// AddSuccessor records a control-flow edge from bb to succ.
func (bb *BasicBlock) AddSuccessor(succ *BasicBlock) {
	for _, s := range bb.Successors {
		if s == succ {
			return
		}
	}
	bb.Successors = append(bb.Successors, succ)
	succ.Predecessors = append(succ.Predecessors, bb)
}

// RemoveSuccessor deletes the edge from bb to succ, if present.
func (bb *BasicBlock) RemoveSuccessor(succ *BasicBlock) {
	bb.Successors = removeBlock(bb.Successors, succ)
	succ.Predecessors = removeBlock(succ.Predecessors, bb)
}

func removeBlock(list []*BasicBlock, target *BasicBlock) []*BasicBlock {
	out := list[:0]
	for _, b := range list {
		if b != target {
			out = append(out, b)
		}
	}
	return out
}

// Terminator returns the block's final Jump, Branch or Return, or nil.
func (bb *BasicBlock) Terminator() Instruction {
	if len(bb.Instructions) == 0 {
		return nil
	}
	switch last := bb.Instructions[len(bb.Instructions)-1].(type) {
	case *Jump, *Branch, *Return:
		return last
	}
	return nil
}

// IsTerminated reports whether the block ends in a terminator.
func (bb *BasicBlock) IsTerminated() bool {
	return bb.Terminator() != nil
}

func (bb *BasicBlock) String() string {
	var sb strings.Builder
	sb.WriteString(bb.Label)
	sb.WriteString(":\n")

	if len(bb.Predecessors) > 0 {
		sb.WriteString("  ; predecessors: ")
		for i, pred := range bb.Predecessors {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(pred.Label)
		}
		sb.WriteString("\n")
	}

	for _, instr := range bb.Instructions {
		sb.WriteString("  ")
		sb.WriteString(instr.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Function is a named sequence of basic blocks. External functions have
// a signature and no blocks.
type Function struct {
	Name       string
	Parameters []*Value
	ReturnType types.Type
	Signature  *types.Function

	Blocks []*BasicBlock
	Entry  *BasicBlock

	// External functions are declared only and resolved at link time.
	External bool

	nextValueID int
	labels      map[string]int
}

// NewFunction creates a function with an entry block. One parameter value
// is created per parameter type, named by paramNames.
func NewFunction(name string, paramNames []string, sig *types.Function) *Function {
	fn := &Function{
		Name:       name,
		ReturnType: sig.Result,
		Signature:  sig,
		labels:     make(map[string]int),
	}
	for i, typ := range sig.Params {
		fn.Parameters = append(fn.Parameters, fn.NewValue(paramNames[i], typ, ValueParameter))
	}
	fn.Entry = fn.NewBlock("entry")
	return fn
}

// NewExternalFunction declares a function defined outside the module.
func NewExternalFunction(name string, sig *types.Function) *Function {
	return &Function{
		Name:       name,
		ReturnType: sig.Result,
		Signature:  sig,
		External:   true,
	}
}

// NewBlock appends a block to the function. Labels are made unique by
// suffixing a counter: "if.then", "if.then.1", ...
func (f *Function) NewBlock(label string) *BasicBlock {
	n := f.labels[label]
	f.labels[label] = n + 1
	if n > 0 {
		label = fmt.Sprintf("%s.%d", label, n)
	}

	bb := NewBasicBlock(label)
	bb.Index = len(f.Blocks)
	f.Blocks = append(f.Blocks, bb)
	return bb
}

// NewValue creates a value with a fresh ID.
func (f *Function) NewValue(name string, typ types.Type, kind ValueKind) *Value {
	v := &Value{ID: f.nextValueID, Name: name, Type: typ, Kind: kind}
	f.nextValueID++
	return v
}

// NewTemp creates an unnamed temporary.
func (f *Function) NewTemp(typ types.Type) *Value {
	return f.NewValue("", typ, ValueTemporary)
}

// NewConst creates a constant of typ holding c.
func (f *Function) NewConst(typ types.Type, c any) *Value {
	v := f.NewValue("", typ, ValueConstant)
	v.Constant = c
	return v
}

// Renumber reassigns block indexes after blocks are removed.
func (f *Function) Renumber() {
	for i, bb := range f.Blocks {
		bb.Index = i
	}
}

func (f *Function) String() string {
	var sb strings.Builder

	if f.External {
		sb.WriteString("declare ")
		sb.WriteString(f.Name)
		sb.WriteString(strings.TrimPrefix(f.Signature.String(), "func"))
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString("func ")
	sb.WriteString(f.Name)
	sb.WriteString("(")
	for i, param := range f.Parameters {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(param.String())
		sb.WriteString(": ")
		sb.WriteString(param.Type.String())
	}
	sb.WriteString(") ")
	sb.WriteString(f.ReturnType.String())
	sb.WriteString(" {\n")

	for i, block := range f.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(block.String())
	}

	sb.WriteString("}\n")
	return sb.String()
}

// Module is a compilation unit: defined functions, external declarations
// and string constants.
type Module struct {
	Name      string
	Functions []*Function
	Externals []*Function
	Strings   []*Value

	// Entry is the name of the function execution starts at.
	Entry string

	stringIndex map[string]*Value
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, stringIndex: make(map[string]*Value)}
}

// AddFunction appends a defined function.
func (m *Module) AddFunction(fn *Function) {
	m.Functions = append(m.Functions, fn)
}

// Function returns the defined function called name, or nil.
func (m *Module) Function(name string) *Function {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// DeclareExternal returns the external function called name, declaring it
// with sig on first use.
func (m *Module) DeclareExternal(name string, sig *types.Function) *Function {
	for _, fn := range m.Externals {
		if fn.Name == name {
			return fn
		}
	}
	fn := NewExternalFunction(name, sig)
	m.Externals = append(m.Externals, fn)
	return fn
}

// NewString returns the global holding text, creating it on first use.
func (m *Module) NewString(text string) *Value {
	if v, ok := m.stringIndex[text]; ok {
		return v
	}
	v := &Value{
		ID:       len(m.Strings),
		Name:     fmt.Sprintf(".str.%d", len(m.Strings)),
		Type:     types.String,
		Kind:     ValueGlobal,
		Constant: text,
	}
	m.stringIndex[text] = v
	m.Strings = append(m.Strings, v)
	return v
}

func (m *Module) String() string {
	var sb strings.Builder

	sb.WriteString("; Module: ")
	sb.WriteString(m.Name)
	sb.WriteString("\n")
	if m.Entry != "" {
		sb.WriteString("; Entry: ")
		sb.WriteString(m.Entry)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if len(m.Strings) > 0 {
		for _, s := range m.Strings {
			sb.WriteString(s.String())
			sb.WriteString(" = ")
			sb.WriteString(quote(s.Constant.(string)))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(m.Externals) > 0 {
		for _, fn := range m.Externals {
			sb.WriteString(fn.String())
		}
		sb.WriteString("\n")
	}

	for i, fn := range m.Functions {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fn.String())
	}
	return sb.String()
}

// Verify checks structural well-formedness and returns every violation
// found.
func (m *Module) Verify() []error {
	var errs []error

	if m.Entry != "" && m.Function(m.Entry) == nil {
		errs = append(errs, fmt.Errorf("entry function %s is not defined", m.Entry))
	}

	known := make(map[*Function]bool)
	for _, fn := range m.Functions {
		known[fn] = true
	}
	for _, fn := range m.Externals {
		known[fn] = true
	}

	for _, fn := range m.Functions {
		inFunc := make(map[*BasicBlock]bool)
		for _, block := range fn.Blocks {
			inFunc[block] = true
		}

		for _, block := range fn.Blocks {
			if !block.IsTerminated() {
				errs = append(errs, fmt.Errorf("block %s in function %s has no terminator", block.Label, fn.Name))
			}
			for i, instr := range block.Instructions {
				if i < len(block.Instructions)-1 && isTerminator(instr) {
					errs = append(errs, fmt.Errorf("block %s in function %s has a terminator before its end", block.Label, fn.Name))
				}
				switch in := instr.(type) {
				case *Jump:
					if !inFunc[in.Target] {
						errs = append(errs, fmt.Errorf("jump in %s targets a block outside the function", fn.Name))
					}
				case *Branch:
					if !inFunc[in.TrueBlock] || !inFunc[in.FalseBlock] {
						errs = append(errs, fmt.Errorf("branch in %s targets a block outside the function", fn.Name))
					}
				case *Call:
					if !known[in.Callee] {
						errs = append(errs, fmt.Errorf("call in %s to unknown function %s", fn.Name, in.Callee.Name))
					}
				}
			}
		}

		if len(fn.Entry.Predecessors) > 0 {
			errs = append(errs, fmt.Errorf("entry block of function %s has predecessors", fn.Name))
		}
	}

	return errs
}

func isTerminator(instr Instruction) bool {
	switch instr.(type) {
	case *Jump, *Branch, *Return:
		return true
	}
	return false
}
