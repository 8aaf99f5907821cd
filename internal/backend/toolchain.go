package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/teness/tessc/internal/diag"
	"github.com/teness/tessc/internal/source"
)

// Toolchain implements Backend with the LLVM command-line tools.
type Toolchain struct {
	Runner Runner

	// Tool names or paths.
	Opt string
	Llc string
	Lli string
	CC  string

	// Stdout and Stderr receive the output of executed programs.
	Stdout io.Writer
	Stderr io.Writer

	Logger *slog.Logger
}

var _ Backend = (*Toolchain)(nil)

// NewToolchain returns a Toolchain that runs opt, llc, lli and cc from
// PATH and forwards program output to the process' stdout and stderr.
func NewToolchain(logger *slog.Logger) *Toolchain {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Toolchain{
		Runner: ExecRunner{},
		Opt:    "opt",
		Llc:    "llc",
		Lli:    "lli",
		CC:     "cc",
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logger,
	}
}

// run executes tool with stdin as its input and returns its stdout.
func (tc *Toolchain) run(ctx context.Context, tool string, args []string, stdin string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	tc.Logger.Debug("running tool", "tool", tool, "args", strings.Join(args, " "))

	err := tc.Runner.Run(ctx, Command{
		Name:   tool,
		Args:   args,
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w, stderr: %s", tool, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func (tc *Toolchain) CompileAndOptimize(ctx context.Context, m *Module, level int) (*Module, error) {
	if level < 0 || level > 3 {
		return nil, fmt.Errorf("optimization level %d out of range 0-3", level)
	}
	if level == 0 {
		return m, nil
	}
	out, err := tc.run(ctx, tc.Opt, []string{"-S", "-O" + strconv.Itoa(level), "-o", "-", "-"}, m.Text)
	if err != nil {
		return nil, err
	}
	return &Module{Name: m.Name, Text: string(out)}, nil
}

func (tc *Toolchain) llcArgs(filetype string, target Target) []string {
	args := []string{"-filetype=" + filetype}
	if target.Triple != "" {
		args = append(args, "-mtriple="+target.Triple)
	}
	if target.CPU != "" {
		args = append(args, "-mcpu="+target.CPU)
	}
	return append(args, "-o", "-", "-")
}

func (tc *Toolchain) EmitObject(ctx context.Context, m *Module, target Target) ([]byte, error) {
	return tc.run(ctx, tc.Llc, tc.llcArgs("obj", target), m.Text)
}

func (tc *Toolchain) EmitAssembly(ctx context.Context, m *Module, target Target) (string, error) {
	out, err := tc.run(ctx, tc.Llc, tc.llcArgs("asm", target), m.Text)
	return string(out), err
}

// Link writes obj to a temporary file and links it into an executable at
// output.
func (tc *Toolchain) Link(ctx context.Context, obj []byte, output string) error {
	dir, err := os.MkdirTemp("", "tessc-")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	objPath := filepath.Join(dir, "out.o")
	if err := os.WriteFile(objPath, obj, 0o644); err != nil {
		return fmt.Errorf("writing object file: %w", err)
	}
	_, err = tc.run(ctx, tc.CC, []string{objPath, "-o", output}, "")
	return err
}

func (tc *Toolchain) CreateExecutionEngine(ctx context.Context, m *Module, target Target) (Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &lliEngine{tc: tc, module: m, target: target, symbols: m.Symbols()}, nil
}

// lliEngine interprets a module with lli. The exit status of lli is the
// return value of the entry function, truncated to 8 bits like the exit
// status of a linked executable.
type lliEngine struct {
	tc      *Toolchain
	module  *Module
	target  Target
	symbols map[string]bool
}

func (e *lliEngine) ResolveSymbol(name string) bool { return e.symbols[name] }

func (e *lliEngine) Run(ctx context.Context, name string) (int, error) {
	if !e.symbols[name] {
		return 0, fmt.Errorf("function %s is not defined in %s", name, e.module.Name)
	}

	args := []string{"--entry-function=" + name}
	if e.target.Triple != "" {
		args = append(args, "-mtriple="+e.target.Triple)
	}
	args = append(args, "-")

	var stderr bytes.Buffer
	stderrOut := io.Writer(&stderr)
	if e.tc.Stderr != nil {
		stderrOut = io.MultiWriter(&stderr, e.tc.Stderr)
	}
	e.tc.Logger.Debug("executing", "module", e.module.Name, "entry", name)

	err := e.tc.Runner.Run(ctx, Command{
		Name:   e.tc.Lli,
		Args:   args,
		Stdin:  strings.NewReader(e.module.Text),
		Stdout: e.tc.Stdout,
		Stderr: stderrOut,
	})
	if err == nil {
		return 0, nil
	}
	code, ok := ExitCode(err)
	if !ok {
		return 0, fmt.Errorf("%s failed: %w", e.tc.Lli, err)
	}
	msg := strings.TrimSpace(stderr.String())
	origin := diag.Origin{File: e.module.Name, Scope: name}
	switch {
	case code < 0:
		d := diag.New(diag.RuntimeException, origin, source.Position{}, "%s was terminated by a signal", name)
		if msg != "" {
			d.Details += ": " + msg
		}
		return code, d.CausedBy(err)
	case reportsFailure(msg, e.tc.Lli):
		return code, diag.New(diag.RuntimeException, origin, source.Position{},
			"%s exited with status %d: %s", name, code, msg).CausedBy(err)
	}
	return code, nil
}

// reportsFailure reports whether stderr carries a diagnostic from the
// interpreter itself rather than output of the program.
func reportsFailure(stderr, tool string) bool {
	prefix := filepath.Base(tool) + ":"
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, prefix) || strings.HasPrefix(line, "Stack dump:") {
			return true
		}
	}
	return false
}
