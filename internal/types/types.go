// Package types defines the TenessScript type system.
//
// There are no implicit conversions: two values interoperate only when
// their types are equal.
package types

import (
	"fmt"
	"strings"
)

// Type is a TenessScript type.
type Type interface {
	String() string
	Equals(other Type) bool
	AssignableTo(target Type) bool
	Kind() Kind
}

// Kind enumerates the type categories.
type Kind int

const (
	KindInvalid Kind = iota
	KindVoid
	KindInt
	KindFloat
	KindBool
	KindString
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindFunction:
		return "func"
	default:
		return "<invalid>"
	}
}

// basic is a primitive type identified by its kind alone.
type basic struct {
	kind Kind
}

func (b *basic) String() string { return b.kind.String() }

func (b *basic) Equals(other Type) bool {
	o, ok := other.(*basic)
	return ok && o.kind == b.kind && b.kind != KindInvalid
}

// AssignableTo holds only for equal, non-void types.
func (b *basic) AssignableTo(target Type) bool {
	return b.kind != KindVoid && b.Equals(target)
}

func (b *basic) Kind() Kind { return b.kind }

// Predefined primitive types.
var (
	Invalid Type = &basic{KindInvalid}
	Void    Type = &basic{KindVoid}
	Int     Type = &basic{KindInt}
	Float   Type = &basic{KindFloat}
	Bool    Type = &basic{KindBool}
	String  Type = &basic{KindString}
)

// Function is the type of a function: its parameter types and its result.
type Function struct {
	Params []Type
	Result Type
	// Variadic functions accept any number of extra arguments.
	Variadic bool
}

// NewFunction creates a function type.
func NewFunction(params []Type, result Type) *Function {
	return &Function{Params: params, Result: result}
}

func (f *Function) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	if f.Variadic {
		params = append(params, "...")
	}
	s := fmt.Sprintf("func(%s)", strings.Join(params, ", "))
	if f.Result != nil && f.Result.Kind() != KindVoid {
		s += " " + f.Result.String()
	}
	return s
}

func (f *Function) Equals(other Type) bool {
	o, ok := other.(*Function)
	if !ok || f.Variadic != o.Variadic || len(f.Params) != len(o.Params) {
		return false
	}
	if !f.Result.Equals(o.Result) {
		return false
	}
	for i, p := range f.Params {
		if !p.Equals(o.Params[i]) {
			return false
		}
	}
	return true
}

// AssignableTo is always false; functions are not first-class values.
func (f *Function) AssignableTo(Type) bool { return false }

func (f *Function) Kind() Kind { return KindFunction }

// Lookup returns the primitive type spelled name in source, if any.
func Lookup(name string) (Type, bool) {
	switch name {
	case "int":
		return Int, true
	case "float":
		return Float, true
	case "bool":
		return Bool, true
	case "string":
		return String, true
	case "void":
		return Void, true
	}
	return nil, false
}

// IsNumeric reports whether t is int or float.
func IsNumeric(t Type) bool {
	k := t.Kind()
	return k == KindInt || k == KindFloat
}

// IsBoolean reports whether t is bool.
func IsBoolean(t Type) bool { return t.Kind() == KindBool }

// IsVoid reports whether t is void.
func IsVoid(t Type) bool { return t.Kind() == KindVoid }
