// Package optimizer implements machine-independent passes over the IR.
package optimizer

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/teness/tessc/internal/ir"
)

// Pass is a single transformation over a function.
type Pass interface {
	// Name returns a human-readable name for the pass.
	Name() string

	// Run transforms fn and reports whether anything changed.
	Run(fn *ir.Function) (bool, error)
}

// Optimizer runs its passes over every defined function until none of them
// changes anything, or maxIterations rounds have run.
type Optimizer struct {
	passes        []Pass
	maxIterations int
	logger        *slog.Logger
	stats         *Stats
}

// DefaultMaxIterations bounds the fixed-point iteration.
const DefaultMaxIterations = 10

// New creates an optimizer for the given level. Level 0 runs no passes;
// any higher level runs constant folding and dead code elimination.
func New(level int, logger *slog.Logger) *Optimizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	o := &Optimizer{
		maxIterations: DefaultMaxIterations,
		logger:        logger,
		stats:         NewStats(),
	}
	if level > 0 {
		o.passes = []Pass{
			&ConstantFoldingPass{stats: o.stats},
			&DeadCodeEliminationPass{},
		}
	}
	return o
}

// AddPass appends a pass to the pipeline.
func (o *Optimizer) AddPass(pass Pass) {
	o.passes = append(o.passes, pass)
}

// SetMaxIterations sets the maximum number of rounds per function.
func (o *Optimizer) SetMaxIterations(max int) {
	o.maxIterations = max
}

// Stats returns the statistics collected so far.
func (o *Optimizer) Stats() *Stats { return o.stats }

// Optimize runs the pipeline on every defined function in module.
func (o *Optimizer) Optimize(module *ir.Module) error {
	for _, fn := range module.Functions {
		if err := o.OptimizeFunction(fn); err != nil {
			return fmt.Errorf("optimizing %s: %w", fn.Name, err)
		}
	}
	return nil
}

// OptimizeFunction runs the pipeline on fn.
func (o *Optimizer) OptimizeFunction(fn *ir.Function) error {
	if fn.External || len(o.passes) == 0 {
		return nil
	}

	instrs, blocks := countInstructions(fn), len(fn.Blocks)
	for round := 0; round < o.maxIterations; round++ {
		changed := false
		for _, pass := range o.passes {
			ok, err := pass.Run(fn)
			if err != nil {
				return fmt.Errorf("pass %s: %w", pass.Name(), err)
			}
			o.stats.PassExecutions[pass.Name()]++
			if ok {
				o.logger.Debug("pass changed function", "pass", pass.Name(), "function", fn.Name, "round", round)
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	o.stats.InstructionsRemoved += instrs - countInstructions(fn)
	o.stats.BlocksRemoved += blocks - len(fn.Blocks)
	return nil
}

func countInstructions(fn *ir.Function) int {
	count := 0
	for _, block := range fn.Blocks {
		count += len(block.Instructions)
	}
	return count
}

// Stats summarizes what the optimizer did.
type Stats struct {
	InstructionsRemoved int
	BlocksRemoved       int
	ConstantsFolded     int

	// PassExecutions counts runs per pass name.
	PassExecutions map[string]int
}

// NewStats creates an empty Stats.
func NewStats() *Stats {
	return &Stats{PassExecutions: make(map[string]int)}
}

func (s *Stats) String() string {
	return fmt.Sprintf("instructions removed: %d, blocks removed: %d, constants folded: %d",
		s.InstructionsRemoved, s.BlocksRemoved, s.ConstantsFolded)
}
