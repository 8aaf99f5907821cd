package source

import "testing"

func TestPositionString(t *testing.T) {
	tests := []struct {
		name string
		pos  Position
		want string
	}{
		{"simple", Position{Filename: "main.tss", Line: 1, Column: 1}, "main.tss:1:1"},
		{"larger", Position{Filename: "fib.tss", Line: 42, Column: 15}, "fib.tss:42:15"},
		{"empty filename", Position{Line: 3, Column: 7}, ":3:7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pos.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPositionIsValid(t *testing.T) {
	if (Position{}).IsValid() {
		t.Error("zero Position should be invalid")
	}
	if !(Position{Line: 1, Column: 1}).IsValid() {
		t.Error("Position at 1:1 should be valid")
	}
}

func TestPositionOrdering(t *testing.T) {
	a := Position{Line: 1, Column: 1, Offset: 0}
	b := Position{Line: 1, Column: 5, Offset: 4}

	if !a.Before(b) {
		t.Error("a.Before(b) = false, want true")
	}
	if !b.After(a) {
		t.Error("b.After(a) = false, want true")
	}
	if a.After(a) || a.Before(a) {
		t.Error("position should be neither before nor after itself")
	}
}

func TestSpan(t *testing.T) {
	start := Position{Filename: "a.tss", Line: 2, Column: 3, Offset: 10}
	end := Position{Filename: "a.tss", Line: 2, Column: 9, Offset: 16}
	s := Span{Start: start, End: end}

	if got, want := s.String(), "a.tss:2:3-9"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if !s.IsValid() {
		t.Error("IsValid() = false, want true")
	}
	if !s.Contains(Position{Line: 2, Column: 5, Offset: 12}) {
		t.Error("span should contain offset 12")
	}
	if s.Contains(Position{Line: 3, Column: 1, Offset: 20}) {
		t.Error("span should not contain offset 20")
	}

	multi := Span{Start: start, End: Position{Filename: "a.tss", Line: 4, Column: 2, Offset: 30}}
	if got, want := multi.String(), "a.tss:2:3-4:2"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFile(t *testing.T) {
	f := NewFile("dir/prog.tss", "var x = 1;\r\nvar y = 2;\n")

	if got, want := f.Stem(), "prog"; got != want {
		t.Errorf("Stem() = %q, want %q", got, want)
	}
	if got, want := f.Line(1), "var x = 1;"; got != want {
		t.Errorf("Line(1) = %q, want %q", got, want)
	}
	if got, want := f.Line(2), "var y = 2;"; got != want {
		t.Errorf("Line(2) = %q, want %q", got, want)
	}
	if got := f.Line(10); got != "" {
		t.Errorf("Line(10) = %q, want empty", got)
	}
}

func TestFileNormalizesText(t *testing.T) {
	// "e" followed by a combining acute accent composes to U+00E9.
	f := NewFile("n.tss", "var cafe\u0301 = 1;")
	if got, want := f.Text(), "var caf\u00e9 = 1;"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}
