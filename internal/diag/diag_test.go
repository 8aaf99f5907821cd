package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/teness/tessc/internal/source"
)

func TestErrorString(t *testing.T) {
	origin := Origin{File: "main", Scope: "<main>"}

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "with position",
			err:  New(TypeError, origin, source.Position{Line: 3, Column: 9}, "cannot add %s and %s", "int", "float"),
			want: "Type Error: cannot add int and float, file main, line 3, pos 9",
		},
		{
			name: "without position",
			err:  New(RuntimeException, origin, source.Position{}, "program exited with status 2"),
			want: "Runtime Exception: program exited with status 2, file main",
		},
		{
			name: "file from position",
			err:  New(IllegalCharacter, Origin{}, source.Position{Filename: "a.tss", Line: 1, Column: 2}, "'@'"),
			want: "Illegal Character: '@', file a.tss, line 1, pos 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCategoryStage(t *testing.T) {
	tests := []struct {
		cat  Category
		name string
		want Stage
	}{
		{IllegalCharacter, "Illegal Character", Lexing},
		{InvalidSyntax, "Invalid Syntax", Parsing},
		{UnknownNode, "Unknown Node", Building},
		{DuplicateName, "Duplicate Name", Building},
		{NoSuchVariable, "No such Variable", Building},
		{TypeError, "Type Error", Building},
		{RuntimeException, "Runtime Exception", Execution},
		{InvalidIndex, "Invalid Index", Execution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cat.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := StageOf(tt.cat); got != tt.want {
				t.Errorf("StageOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAsThroughWrapping(t *testing.T) {
	d := New(NoSuchVariable, Origin{File: "f"}, source.Position{Line: 1, Column: 7}, "'y' is not defined")
	wrapped := fmt.Errorf("build: %w", d)

	got, ok := As(wrapped)
	if !ok {
		t.Fatal("As() did not find the diagnostic")
	}
	if got != d {
		t.Errorf("As() = %p, want %p", got, d)
	}
	if !Is(wrapped, NoSuchVariable) {
		t.Error("Is(NoSuchVariable) = false, want true")
	}
	if Is(wrapped, TypeError) {
		t.Error("Is(TypeError) = true, want false")
	}
	if Is(errors.New("plain"), TypeError) {
		t.Error("plain error should not match a category")
	}
}

func TestIncomplete(t *testing.T) {
	d := New(InvalidSyntax, Origin{}, source.Position{Line: 1, Column: 1}, "expected '}'")
	if IsIncomplete(d) {
		t.Error("IsIncomplete() = true before marking")
	}
	d.Incomplete = true
	if !IsIncomplete(d) {
		t.Error("IsIncomplete() = false after marking")
	}
}

func TestExcerpt(t *testing.T) {
	f := source.NewFile("e.tss", "var x = 1;\nprint(y);\n")
	d := New(NoSuchVariable, Origin{}, source.Position{Line: 2, Column: 7}, "'y'")

	want := "print(y);\n      ^"
	if got := Excerpt(d, f); got != want {
		t.Errorf("Excerpt() = %q, want %q", got, want)
	}
	if got := Excerpt(New(TypeError, Origin{}, source.Position{}, "x"), f); got != "" {
		t.Errorf("Excerpt() without position = %q, want empty", got)
	}
}
