package optimizer

import (
	"github.com/teness/tessc/internal/ir"
)

// DeadCodeEliminationPass removes pure instructions whose results are never
// used, stack slots that are written but never read, and blocks that cannot
// be reached from the entry block.
type DeadCodeEliminationPass struct{}

func (d *DeadCodeEliminationPass) Name() string { return "DeadCodeElimination" }

func (d *DeadCodeEliminationPass) Run(fn *ir.Function) (bool, error) {
	changed := false
	for {
		round := d.removeUnreachableBlocks(fn)
		if d.removeDeadSlots(fn) {
			round = true
		}
		if d.removeUnusedInstructions(fn) {
			round = true
		}
		if !round {
			return changed, nil
		}
		changed = true
	}
}

// isCritical reports whether instr has an effect beyond its result.
func isCritical(instr ir.Instruction) bool {
	switch instr.(type) {
	case *ir.Store, *ir.Call, *ir.Return, *ir.Branch, *ir.Jump:
		return true
	}
	return false
}

// removeUnusedInstructions deletes pure instructions whose result no other
// instruction reads. Chains are removed over repeated rounds.
func (d *DeadCodeEliminationPass) removeUnusedInstructions(fn *ir.Function) bool {
	used := make(map[*ir.Value]bool)
	for _, block := range fn.Blocks {
		for _, instr := range block.Instructions {
			for _, operand := range instr.Operands() {
				used[operand] = true
			}
		}
	}

	changed := false
	for _, block := range fn.Blocks {
		kept := block.Instructions[:0]
		for _, instr := range block.Instructions {
			if isCritical(instr) || used[instr.Result()] {
				kept = append(kept, instr)
				continue
			}
			changed = true
		}
		block.Instructions = kept
	}
	return changed
}

// removeDeadSlots deletes the stores into slots that are never loaded. The
// Alloca is then unused and goes on the next round.
func (d *DeadCodeEliminationPass) removeDeadSlots(fn *ir.Function) bool {
	loaded := make(map[*ir.Value]bool)
	for _, block := range fn.Blocks {
		for _, instr := range block.Instructions {
			if l, ok := instr.(*ir.Load); ok {
				loaded[l.Address] = true
			}
		}
	}

	changed := false
	for _, block := range fn.Blocks {
		kept := block.Instructions[:0]
		for _, instr := range block.Instructions {
			if s, ok := instr.(*ir.Store); ok && !loaded[s.Address] {
				changed = true
				continue
			}
			kept = append(kept, instr)
		}
		block.Instructions = kept
	}
	return changed
}

// removeUnreachableBlocks drops blocks not reachable from the entry and
// detaches their outgoing edges.
func (d *DeadCodeEliminationPass) removeUnreachableBlocks(fn *ir.Function) bool {
	reachable := make(map[*ir.BasicBlock]bool)
	stack := []*ir.BasicBlock{fn.Entry}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reachable[current] {
			continue
		}
		reachable[current] = true
		for _, succ := range current.Successors {
			if !reachable[succ] {
				stack = append(stack, succ)
			}
		}
	}

	kept := make([]*ir.BasicBlock, 0, len(fn.Blocks))
	var dead []*ir.BasicBlock
	for _, block := range fn.Blocks {
		if reachable[block] {
			kept = append(kept, block)
		} else {
			dead = append(dead, block)
		}
	}
	if len(dead) == 0 {
		return false
	}

	for _, block := range dead {
		for _, succ := range append([]*ir.BasicBlock(nil), block.Successors...) {
			block.RemoveSuccessor(succ)
		}
	}
	fn.Blocks = kept
	fn.Renumber()
	return true
}
