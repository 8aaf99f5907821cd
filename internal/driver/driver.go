// Package driver runs the compiler pipeline over one source file: lexing,
// parsing, IR building, optimization, LLVM generation and the backend.
package driver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/teness/tessc/internal/backend"
	"github.com/teness/tessc/internal/config"
	"github.com/teness/tessc/internal/diag"
	"github.com/teness/tessc/internal/ir"
	"github.com/teness/tessc/internal/lexer"
	"github.com/teness/tessc/internal/llvmgen"
	"github.com/teness/tessc/internal/optimizer"
	"github.com/teness/tessc/internal/parser"
	"github.com/teness/tessc/internal/parser/ast"
	"github.com/teness/tessc/internal/source"
	"github.com/teness/tessc/internal/symtab"
)

// Unit is one compiled source file and the products of each stage.
type Unit struct {
	ID      string
	File    *source.File
	Tokens  []lexer.Token
	Program *ast.Program
	Table   *symtab.Table
	Module  *ir.Module
	Unused  []*symtab.Symbol
	Stats   *optimizer.Stats
}

// Driver compiles units with fixed options.
type Driver struct {
	Options config.Options
	Backend backend.Backend
	Logger  *slog.Logger

	// Link turns an object file into an executable. Nil disables linking.
	Link func(ctx context.Context, obj []byte, output string) error
}

// New creates a Driver backed by tc.
func New(opts config.Options, tc *backend.Toolchain, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Driver{
		Options: opts,
		Backend: tc,
		Logger:  logger,
		Link:    tc.Link,
	}
}

// NewLogger returns a text logger writing records at or above level to w.
// Unknown levels fall back to info.
func NewLogger(level string, w io.Writer) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// OutputPath derives the executable path for input: the input without its
// .tss extension, with .exe on Windows.
func OutputPath(input string) string {
	out := strings.TrimSuffix(input, source.Extension)
	if out == input {
		out += ".out"
	}
	if runtime.GOOS == "windows" {
		out += ".exe"
	}
	return out
}

// ReadFile loads a source file from disk.
func ReadFile(path string) (*source.File, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	return source.NewFile(path, string(text)), nil
}

// Origin is the diagnostic origin of the lexing and parsing stages of f.
func Origin(f *source.File) diag.Origin {
	return diag.Origin{File: f.Stem(), Scope: symtab.RootLabel}
}

// Parse lexes and parses f without building it.
func Parse(f *source.File) ([]lexer.Token, *ast.Program, error) {
	origin := Origin(f)
	tokens, err := lexer.Tokenize(f, origin)
	if err != nil {
		return nil, nil, err
	}
	prog, err := parser.Parse(tokens, origin)
	if err != nil {
		return tokens, nil, err
	}
	return tokens, prog, nil
}

// Frontend runs every stage up to and including the IR optimizer.
func (d *Driver) Frontend(f *source.File) (*Unit, error) {
	u := &Unit{ID: uuid.NewString(), File: f}
	log := d.Logger.With("unit", u.ID, "file", f.Name())

	tokens, prog, err := Parse(f)
	if err != nil {
		return nil, err
	}
	u.Tokens, u.Program = tokens, prog
	log.Debug("parsed", "tokens", len(tokens), "statements", len(prog.Stmts))

	u.Table = symtab.NewTable(f)
	b := ir.NewBuilder(u.Table, ir.Options{
		EntryName:   d.Options.EntryName,
		EntryPolicy: d.Options.Policy(),
	})
	u.Module, err = b.Build(prog)
	if err != nil {
		return nil, err
	}
	if errs := u.Module.Verify(); len(errs) > 0 {
		return nil, fmt.Errorf("IR verification failed: %w", errs[0])
	}
	log.Debug("built", "functions", len(u.Module.Functions), "entry", u.Module.Entry)

	u.Unused = b.Unused()
	for _, sym := range u.Unused {
		log.Warn("variable declared and not used", "name", sym.Name, "pos", sym.Pos.String())
	}

	level := 0
	if d.Options.Optimize {
		level = d.Options.OptLevel
	}
	opt := optimizer.New(level, log)
	if err := opt.Optimize(u.Module); err != nil {
		return nil, fmt.Errorf("optimization failed: %w", err)
	}
	if errs := u.Module.Verify(); len(errs) > 0 {
		return nil, fmt.Errorf("IR verification after optimization failed: %w", errs[0])
	}
	u.Stats = opt.Stats()
	log.Debug("optimized", "stats", u.Stats.String())
	return u, nil
}

func (d *Driver) target() backend.Target {
	if d.Options.Triple != "" {
		return backend.Target{Triple: d.Options.Triple}
	}
	return backend.DefaultTarget()
}

// Generate lowers the unit to LLVM and runs the backend optimizer.
func (d *Driver) Generate(ctx context.Context, u *Unit) (*backend.Module, error) {
	lm, err := llvmgen.Generate(u.Module, llvmgen.Options{
		Triple:      d.target().Triple,
		MainWrapper: true,
	})
	if err != nil {
		return nil, fmt.Errorf("generating LLVM IR: %w", err)
	}
	m := backend.FromLLIR(lm)
	if !d.Options.Optimize {
		return m, nil
	}
	return d.Backend.CompileAndOptimize(ctx, m, d.Options.OptLevel)
}

// Result describes a finished compilation.
type Result struct {
	Unit *Unit
	// Output is the linked executable, empty when the program was run.
	Output string
	// ExitCode is the entry function's result when the program was run.
	ExitCode int
	Dumps    []string
}

// Compile builds the file at path and either links it into output or runs
// it, as configured. An empty output derives the path from the input.
func (d *Driver) Compile(ctx context.Context, path, output string) (*Result, error) {
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if output == "" {
		output = d.Options.OutputPath
	}
	if output == "" {
		output = OutputPath(path)
	}

	u, err := d.Frontend(f)
	if err != nil {
		return nil, err
	}
	res := &Result{Unit: u}
	log := d.Logger.With("unit", u.ID)

	if d.Options.DumpTokens {
		if err := d.dump(res, output+".tokens", TokenDump(u.Tokens)); err != nil {
			return nil, err
		}
	}
	if d.Options.DumpAST {
		if err := d.dump(res, output+".ast", ASTDump(u.Program)); err != nil {
			return nil, err
		}
	}

	m, err := d.Generate(ctx, u)
	if err != nil {
		return nil, err
	}
	if d.Options.DumpIR {
		if err := d.dump(res, output+".ll", m.Text); err != nil {
			return nil, err
		}
	}
	if d.Options.DumpAsm {
		asm, err := d.Backend.EmitAssembly(ctx, m, d.target())
		if err != nil {
			return nil, err
		}
		if err := d.dump(res, output+".s", asm); err != nil {
			return nil, err
		}
	}

	if d.Options.ExecuteImmediately {
		code, err := d.Run(ctx, u, m)
		res.ExitCode = code
		return res, err
	}

	obj, err := d.Backend.EmitObject(ctx, m, d.target())
	if err != nil {
		return nil, err
	}
	if d.Link == nil {
		return nil, fmt.Errorf("no linker configured for %s", output)
	}
	if err := d.Link(ctx, obj, output); err != nil {
		return nil, err
	}
	res.Output = output
	log.Debug("linked", "output", output)
	return res, nil
}

// EntryCandidates lists the functions tried, in order, when running u.
func EntryCandidates(u *Unit) []string {
	names := []string{u.Module.Entry, ir.DefaultEntryName, ir.SynthesizedEntryName(u.File.Stem())}
	out := names[:0]
	seen := make(map[string]bool)
	for _, n := range names {
		if n != "" && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// Run executes m in an execution engine, starting at the first entry
// candidate the module defines.
func (d *Driver) Run(ctx context.Context, u *Unit, m *backend.Module) (int, error) {
	engine, err := d.Backend.CreateExecutionEngine(ctx, m, d.target())
	if err != nil {
		return 0, err
	}
	for _, name := range EntryCandidates(u) {
		if engine.ResolveSymbol(name) {
			d.Logger.Debug("running", "unit", u.ID, "entry", name)
			return engine.Run(ctx, name)
		}
	}
	return 0, diag.New(diag.RuntimeException, Origin(u.File), u.Program.EOF,
		"no entry function in %s", u.File.Name())
}

func (d *Driver) dump(res *Result, path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing dump: %w", err)
	}
	res.Dumps = append(res.Dumps, path)
	d.Logger.Debug("wrote dump", "path", path)
	return nil
}
