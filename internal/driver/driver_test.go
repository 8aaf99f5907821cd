package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/teness/tessc/internal/backend"
	"github.com/teness/tessc/internal/config"
	"github.com/teness/tessc/internal/diag"
	"github.com/teness/tessc/internal/source"
)

type fakeBackend struct {
	levels []int
	ran    []string
	code   int
	err    error
}

func (b *fakeBackend) CompileAndOptimize(_ context.Context, m *backend.Module, level int) (*backend.Module, error) {
	b.levels = append(b.levels, level)
	return m, nil
}

func (b *fakeBackend) EmitObject(context.Context, *backend.Module, backend.Target) ([]byte, error) {
	return []byte("obj"), nil
}

func (b *fakeBackend) EmitAssembly(context.Context, *backend.Module, backend.Target) (string, error) {
	return "\t.text\n", nil
}

func (b *fakeBackend) CreateExecutionEngine(_ context.Context, m *backend.Module, _ backend.Target) (backend.Engine, error) {
	return &fakeEngine{b: b, symbols: m.Symbols()}, nil
}

type fakeEngine struct {
	b       *fakeBackend
	symbols map[string]bool
}

func (e *fakeEngine) ResolveSymbol(name string) bool { return e.symbols[name] }

func (e *fakeEngine) Run(_ context.Context, name string) (int, error) {
	e.b.ran = append(e.b.ran, name)
	return e.b.code, e.b.err
}

type linkCall struct {
	obj    string
	output string
}

func newDriver(opts config.Options, logs *bytes.Buffer) (*Driver, *fakeBackend, *[]linkCall) {
	fb := &fakeBackend{}
	var links []linkCall
	d := &Driver{
		Options: opts,
		Backend: fb,
		Logger:  NewLogger("debug", logs),
		Link: func(_ context.Context, obj []byte, output string) error {
			links = append(links, linkCall{string(obj), output})
			return nil
		},
	}
	return d, fb, &links
}

func writeSource(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFrontend(t *testing.T) {
	var logs bytes.Buffer
	d, _, _ := newDriver(config.Default(), &logs)

	u, err := d.Frontend(source.NewFile("prog.tss", "var x = 1; var y = x + 2; print(y);"))
	if err != nil {
		t.Fatalf("Frontend() error = %v", err)
	}
	if u.Module.Entry != "load_prog" {
		t.Errorf("Entry = %q, want load_prog", u.Module.Entry)
	}
	if len(u.Unused) != 0 {
		t.Errorf("Unused = %v, want none", u.Unused)
	}
	if u.ID == "" || !strings.Contains(logs.String(), "unit="+u.ID) {
		t.Errorf("logs do not carry unit id %q:\n%s", u.ID, logs.String())
	}
	if len(u.Stats.PassExecutions) == 0 {
		t.Error("optimizer did not run")
	}
}

func TestFrontend_UnusedWarning(t *testing.T) {
	var logs bytes.Buffer
	d, _, _ := newDriver(config.Default(), &logs)

	u, err := d.Frontend(source.NewFile("prog.tss", "var idle = 3;"))
	if err != nil {
		t.Fatalf("Frontend() error = %v", err)
	}
	if len(u.Unused) != 1 || u.Unused[0].Name != "idle" {
		t.Fatalf("Unused = %v, want idle", u.Unused)
	}
	if !strings.Contains(logs.String(), "variable declared and not used") || !strings.Contains(logs.String(), "name=idle") {
		t.Errorf("missing warning in logs:\n%s", logs.String())
	}
}

func TestFrontend_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		cat  diag.Category
	}{
		{"illegal character", "var x = 1 $ 2;", diag.IllegalCharacter},
		{"syntax", "var = 1;", diag.InvalidSyntax},
		{"duplicate", "var x = 1; var x = 2;", diag.DuplicateName},
		{"undefined", "print(y);", diag.NoSuchVariable},
		{"type", `var s = "a" + 1;`, diag.TypeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _, _ := newDriver(config.Default(), &bytes.Buffer{})
			_, err := d.Frontend(source.NewFile("prog.tss", tt.src))
			if !diag.Is(err, tt.cat) {
				t.Fatalf("Frontend() error = %v, want %v", err, tt.cat)
			}
			if d, _ := diag.As(err); d.Origin.File != "prog" {
				t.Errorf("Origin.File = %q, want prog", d.Origin.File)
			}
		})
	}
}

func TestCompile_LinksWithDumps(t *testing.T) {
	opts := config.Default()
	opts.DumpTokens = true
	opts.DumpAST = true
	opts.DumpIR = true
	opts.DumpAsm = true
	d, fb, links := newDriver(opts, &bytes.Buffer{})

	path := writeSource(t, "prog.tss", "var x = 40; print(x + 2);")
	res, err := d.Compile(context.Background(), path, "")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	out := strings.TrimSuffix(path, ".tss")
	if runtime.GOOS == "windows" {
		out += ".exe"
	}
	if res.Output != out {
		t.Errorf("Output = %q, want %q", res.Output, out)
	}
	if len(*links) != 1 || (*links)[0] != (linkCall{"obj", out}) {
		t.Errorf("links = %+v", *links)
	}
	if len(fb.levels) != 1 || fb.levels[0] != 2 {
		t.Errorf("backend optimization levels = %v, want [2]", fb.levels)
	}

	want := map[string]string{
		".tokens": `IDENTIFIER "x"`,
		".ast":    "VarDecl",
		".ll":     "define i32 @load_prog()",
		".s":      ".text",
	}
	if len(res.Dumps) != len(want) {
		t.Errorf("Dumps = %v", res.Dumps)
	}
	for ext, substr := range want {
		data, err := os.ReadFile(out + ext)
		if err != nil {
			t.Errorf("dump %s: %v", ext, err)
			continue
		}
		if !strings.Contains(string(data), substr) {
			t.Errorf("dump %s does not contain %q:\n%s", ext, substr, data)
		}
	}
}

func TestCompile_NoOptimize(t *testing.T) {
	opts := config.Default()
	opts.Optimize = false
	d, fb, _ := newDriver(opts, &bytes.Buffer{})

	path := writeSource(t, "prog.tss", "print(1);")
	if _, err := d.Compile(context.Background(), path, filepath.Join(t.TempDir(), "bin")); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(fb.levels) != 0 {
		t.Errorf("backend optimizer ran with levels %v", fb.levels)
	}
}

func TestCompile_Run(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		policy string
		want   string
	}{
		{"synthesized entry", "print(1);", "auto", "load_prog"},
		{"user main", "func main() int { return 3; }", "auto", "main"},
		{"always synthesize", "func main() int { return 3; }", "always", "load_prog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := config.Default()
			opts.ExecuteImmediately = true
			opts.EntryPolicy = tt.policy
			d, fb, links := newDriver(opts, &bytes.Buffer{})
			fb.code = 3

			res, err := d.Compile(context.Background(), writeSource(t, "prog.tss", tt.src), "")
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			if len(fb.ran) != 1 || fb.ran[0] != tt.want {
				t.Errorf("ran %v, want [%s]", fb.ran, tt.want)
			}
			if res.ExitCode != 3 || res.Output != "" {
				t.Errorf("result = %+v", res)
			}
			if len(*links) != 0 {
				t.Error("linked while running")
			}
		})
	}
}

func TestCompile_AlwaysWithUserMain(t *testing.T) {
	const src = "print(42); func main() int { return 7; }"

	opts := config.Default()
	opts.EntryPolicy = "always"
	opts.DumpIR = true
	d, _, _ := newDriver(opts, &bytes.Buffer{})
	path := writeSource(t, "prog.tss", src)
	res, err := d.Compile(context.Background(), path, "")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	ll, err := os.ReadFile(res.Output + ".ll")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"define i32 @main()", "call i32 @load_prog()", "define i32 @tss.main()"} {
		if !strings.Contains(string(ll), want) {
			t.Errorf("linked module does not contain %q:\n%s", want, ll)
		}
	}

	opts.ExecuteImmediately = true
	d, fb, _ := newDriver(opts, &bytes.Buffer{})
	if _, err := d.Compile(context.Background(), path, ""); err != nil {
		t.Fatalf("Compile() with run error = %v", err)
	}
	if len(fb.ran) != 1 || fb.ran[0] != "load_prog" {
		t.Errorf("ran %v, want [load_prog]", fb.ran)
	}
}

func TestCompile_MissingFile(t *testing.T) {
	d, _, _ := newDriver(config.Default(), &bytes.Buffer{})
	if _, err := d.Compile(context.Background(), filepath.Join(t.TempDir(), "nope.tss"), ""); err == nil {
		t.Error("Compile() of a missing file succeeded")
	}
}

func TestOutputPath(t *testing.T) {
	suffix := ""
	if runtime.GOOS == "windows" {
		suffix = ".exe"
	}
	tests := map[string]string{
		"prog.tss":         "prog" + suffix,
		"dir/fib.tss":      "dir/fib" + suffix,
		"noext":            "noext.out" + suffix,
		"archive.tss.back": "archive.tss.back.out" + suffix,
	}
	for in, want := range tests {
		if got := OutputPath(in); got != want {
			t.Errorf("OutputPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("warn", &buf)
	log.Info("hidden")
	log.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("logs = %q", buf.String())
	}

	buf.Reset()
	NewLogger("bogus", &buf).Debug("quiet")
	if buf.Len() != 0 {
		t.Errorf("unknown level logged debug records: %q", buf.String())
	}
}

func TestSession(t *testing.T) {
	d, fb, _ := newDriver(config.Default(), &bytes.Buffer{})
	s := d.NewSession()

	if err := s.Check("func twice(n int) int {"); !diag.IsIncomplete(err) {
		t.Fatalf("Check() error = %v, want incomplete", err)
	}
	if err := s.Check("func twice(n int) int { return n * 2; }"); err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	if _, err := s.Add("func twice(n int) int { return n * 2; }"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := s.Add("print(missing);"); !diag.Is(err, diag.NoSuchVariable) {
		t.Fatalf("Add() error = %v, want No such Variable", err)
	}
	u, err := s.Add("print(twice(21));")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if strings.Contains(s.Source(), "missing") {
		t.Errorf("rejected entry kept in session:\n%s", s.Source())
	}
	if u.Module.Function("twice") == nil || u.Module.Entry != "load_repl" {
		t.Errorf("module:\n%s", u.Module)
	}

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(fb.ran) != 1 || fb.ran[0] != "load_repl" {
		t.Errorf("ran %v, want [load_repl]", fb.ran)
	}

	s.Reset()
	if s.Source() != "" || s.Unit() != nil {
		t.Error("Reset() kept input")
	}
}
