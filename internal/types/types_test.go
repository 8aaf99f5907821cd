package types

import "testing"

func TestPrimitiveType_String(t *testing.T) {
	tests := []struct {
		typ      Type
		expected string
	}{
		{Int, "int"},
		{Float, "float"},
		{Bool, "bool"},
		{String, "string"},
		{Void, "void"},
		{Invalid, "<invalid>"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPrimitiveType_Equals(t *testing.T) {
	tests := []struct {
		name     string
		t1, t2   Type
		expected bool
	}{
		{"int equals int", Int, Int, true},
		{"float equals float", Float, Float, true},
		{"int not equals float", Int, Float, false},
		{"bool not equals int", Bool, Int, false},
		{"string equals string", String, String, true},
		{"invalid never equal", Invalid, Invalid, false},
		{"int not equals function", Int, NewFunction(nil, Int), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t1.Equals(tt.t2); got != tt.expected {
				t.Errorf("%v.Equals(%v) = %v, want %v", tt.t1, tt.t2, got, tt.expected)
			}
		})
	}
}

func TestAssignableTo(t *testing.T) {
	tests := []struct {
		name     string
		from, to Type
		expected bool
	}{
		{"int to int", Int, Int, true},
		{"int to float", Int, Float, false},
		{"float to int", Float, Int, false},
		{"void to void", Void, Void, false},
		{"function to function", NewFunction(nil, Int), NewFunction(nil, Int), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.AssignableTo(tt.to); got != tt.expected {
				t.Errorf("%v.AssignableTo(%v) = %v, want %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

func TestFunctionType(t *testing.T) {
	add := NewFunction([]Type{Int, Int}, Int)
	same := NewFunction([]Type{Int, Int}, Int)
	other := NewFunction([]Type{Int, Float}, Int)
	proc := NewFunction([]Type{String}, Void)
	printf := &Function{Params: []Type{String}, Result: Int, Variadic: true}

	tests := []struct {
		typ  *Function
		want string
	}{
		{add, "func(int, int) int"},
		{proc, "func(string)"},
		{printf, "func(string, ...) int"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}

	if !add.Equals(same) {
		t.Error("identical signatures should be equal")
	}
	if add.Equals(other) {
		t.Error("different parameter types should not be equal")
	}
	if add.Kind() != KindFunction {
		t.Errorf("Kind() = %v, want func", add.Kind())
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"int", "float", "bool", "string", "void"} {
		typ, ok := Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) not found", name)
			continue
		}
		if typ.String() != name {
			t.Errorf("Lookup(%q) = %v", name, typ)
		}
	}
	if _, ok := Lookup("char"); ok {
		t.Error("Lookup(char) should fail")
	}
}

func TestPredicates(t *testing.T) {
	if !IsNumeric(Int) || !IsNumeric(Float) || IsNumeric(Bool) {
		t.Error("IsNumeric misclassifies primitives")
	}
	if !IsBoolean(Bool) || IsBoolean(Int) {
		t.Error("IsBoolean misclassifies primitives")
	}
	if !IsVoid(Void) || IsVoid(String) {
		t.Error("IsVoid misclassifies primitives")
	}
}
