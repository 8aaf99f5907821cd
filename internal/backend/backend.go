// Package backend turns generated LLVM modules into optimized IR, assembly,
// object code or a running program.
package backend

import (
	"context"
	"runtime"
	"strings"

	llir "github.com/llir/llvm/ir"
)

// Module is LLVM IR in textual form.
type Module struct {
	// Name identifies the module in diagnostics.
	Name string
	Text string
}

// FromLLIR renders m for the backend.
func FromLLIR(m *llir.Module) *Module {
	return &Module{Name: m.SourceFilename, Text: m.String()}
}

// Symbols returns the names of the functions the module defines.
func (m *Module) Symbols() map[string]bool {
	out := make(map[string]bool)
	for _, line := range strings.Split(m.Text, "\n") {
		if !strings.HasPrefix(line, "define ") {
			continue
		}
		at := strings.IndexByte(line, '@')
		if at < 0 {
			continue
		}
		name := line[at+1:]
		if end := strings.IndexByte(name, '('); end >= 0 {
			name = name[:end]
		}
		out[strings.Trim(name, `"`)] = true
	}
	return out
}

// Target describes the machine code is generated for.
type Target struct {
	Triple string
	// CPU is passed to the code generator when set.
	CPU string
}

// DefaultTriple returns the triple of the host.
func DefaultTriple() string {
	arch := map[string]string{
		"amd64": "x86_64",
		"arm64": "aarch64",
		"386":   "i686",
		"arm":   "armv7",
	}[runtime.GOARCH]
	if arch == "" {
		arch = runtime.GOARCH
	}

	switch runtime.GOOS {
	case "darwin":
		return arch + "-apple-darwin"
	case "windows":
		return arch + "-pc-windows-msvc"
	default:
		return arch + "-unknown-" + runtime.GOOS + "-gnu"
	}
}

// DefaultTarget returns the host target.
func DefaultTarget() Target {
	return Target{Triple: DefaultTriple()}
}

// Backend compiles finished modules. Every method may run external tools
// and honours ctx cancellation.
type Backend interface {
	// CompileAndOptimize runs the optimizer at level 0-3 and returns the
	// optimized module.
	CompileAndOptimize(ctx context.Context, m *Module, level int) (*Module, error)

	// EmitObject compiles m to a relocatable object file.
	EmitObject(ctx context.Context, m *Module, target Target) ([]byte, error)

	// EmitAssembly compiles m to target assembly.
	EmitAssembly(ctx context.Context, m *Module, target Target) (string, error)

	// CreateExecutionEngine prepares m for just-in-time execution.
	CreateExecutionEngine(ctx context.Context, m *Module, target Target) (Engine, error)
}

// Engine executes functions of a loaded module.
type Engine interface {
	// ResolveSymbol reports whether the module defines name.
	ResolveSymbol(name string) bool

	// Run calls the parameterless function name and returns its result.
	// Only a failure to execute it is reported as a Runtime Exception.
	Run(ctx context.Context, name string) (int, error)
}
