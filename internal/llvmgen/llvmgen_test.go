package llvmgen

import (
	"strings"
	"testing"

	llir "github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"

	"github.com/teness/tessc/internal/ir"
	"github.com/teness/tessc/internal/lexer"
	"github.com/teness/tessc/internal/parser"
	"github.com/teness/tessc/internal/source"
	"github.com/teness/tessc/internal/symtab"
	"github.com/teness/tessc/internal/types"
)

func buildModule(t *testing.T, src string) *ir.Module {
	t.Helper()
	return buildModuleWith(t, src, ir.Options{})
}

func buildModuleWith(t *testing.T, src string, opts ir.Options) *ir.Module {
	t.Helper()
	f := source.NewFile("gen.tss", src)
	table := symtab.NewTable(f)
	origin := table.Origin(table.Root())
	tokens, err := lexer.Tokenize(f, origin)
	if err != nil {
		t.Fatal(err)
	}
	prog, err := parser.Parse(tokens, origin)
	if err != nil {
		t.Fatal(err)
	}
	m, err := ir.NewBuilder(table, opts).Build(prog)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestType(t *testing.T) {
	tests := []struct {
		in   types.Type
		want lltypes.Type
	}{
		{types.Int, lltypes.I32},
		{types.Float, lltypes.Double},
		{types.Bool, lltypes.I1},
		{types.String, lltypes.NewPointer(lltypes.I8)},
		{types.Void, lltypes.Void},
	}
	for _, tt := range tests {
		if got := Type(tt.in); !got.Equal(tt.want) {
			t.Errorf("Type(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestGenerate(t *testing.T) {
	m := buildModule(t, `
func half(x float) float { return x / 2.0; }
func less(a int, b int) bool { return a < b; }
var n = 3;
var f = half(5.0);
print(less(n, 4));
print(f < 1.0);
print(-n % 2);
print(!true);
print("done");
`)
	out, err := Generate(m, Options{Triple: "x86_64-unknown-linux-gnu", MainWrapper: true})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	text := out.String()

	for _, want := range []string{
		`target triple = "x86_64-unknown-linux-gnu"`,
		`define i32 @load_gen()`,
		`define double @half(double %arg.x)`,
		`define i1 @less(i32 %arg.a, i32 %arg.b)`,
		`%n.addr`,
		`alloca i32`,
		`fdiv double`,
		`icmp slt i32`,
		`fcmp olt double`,
		`srem i32`,
		`sub i32 0`,
		`xor i1`,
		`zext i1`,
		`@printf(`,
		`c"done\00"`,
		`define i32 @main()`,
		`call i32 @load_gen()`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output lacks %q\n%s", want, text)
		}
	}
}

func TestGenerate_AllocasHoisted(t *testing.T) {
	m := buildModule(t, "for (var i = 0; i < 3; i += 1) { var sq = i * i; print(sq); }")
	out, err := Generate(m, Options{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var fn *llir.Func
	for _, f := range out.Funcs {
		if f.Name() == "load_gen" {
			fn = f
		}
	}
	if fn == nil {
		t.Fatal("load_gen not generated")
	}
	allocas := 0
	for _, block := range fn.Blocks {
		for _, inst := range block.Insts {
			if _, ok := inst.(*llir.InstAlloca); ok {
				if block != fn.Blocks[0] {
					t.Errorf("alloca in block %s, want the entry block", block.Name())
				}
				allocas++
			}
		}
	}
	if allocas != 2 {
		t.Errorf("got %d allocas, want 2", allocas)
	}
}

func TestGenerate_NoWrapperForUserMain(t *testing.T) {
	m := buildModule(t, "func main() int { return 0; }")
	out, err := Generate(m, Options{MainWrapper: true})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got := strings.Count(out.String(), "define i32 @main()"); got != 1 {
		t.Errorf("main defined %d times, want 1", got)
	}
}

func TestGenerate_WrapperCallsSynthesizedEntry(t *testing.T) {
	m := buildModuleWith(t, "print(42); func main() int { return 7; } print(main());",
		ir.Options{EntryPolicy: ir.EntryAlways})
	out, err := Generate(m, Options{MainWrapper: true})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var main, user *llir.Func
	for _, f := range out.Funcs {
		switch f.Name() {
		case "main":
			main = f
		case UserMainName:
			user = f
		}
	}
	if main == nil || user == nil {
		t.Fatalf("module lacks main or %s:\n%s", UserMainName, out)
	}
	call, ok := main.Blocks[0].Insts[0].(*llir.InstCall)
	if !ok || call.Callee.Ident() != "@load_gen" {
		t.Errorf("main does not call load_gen:\n%s", main.LLString())
	}
	if !strings.Contains(out.String(), "call i32 @"+`"`+UserMainName+`"`+"()") &&
		!strings.Contains(out.String(), "call i32 @"+UserMainName+"()") {
		t.Errorf("load_gen does not call the user main:\n%s", out)
	}
}

func TestGenerate_ExternalConflict(t *testing.T) {
	m := buildModule(t, "func printf(s string) int { return 0; }")
	m.DeclareExternal("printf", &types.Function{Params: []types.Type{types.String}, Result: types.Int, Variadic: true})
	if _, err := Generate(m, Options{}); err == nil {
		t.Error("Generate() succeeded, want a name conflict")
	}
}
