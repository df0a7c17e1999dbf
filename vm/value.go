// Package vm implements the bytecode interpreter: the value model, the
// shared table container, the opcode set, and the dispatch loop that runs a
// compiled Chunk against a caller-supplied scope.
package vm

import "fmt"

// ValueType names a Value's dynamic type, used only in error messages.
type ValueType string

const (
	NilType            ValueType = "nil"
	BooleanType        ValueType = "boolean"
	NumberType         ValueType = "number"
	StringType         ValueType = "string"
	TableType          ValueType = "table"
	FunctionType       ValueType = "function"
)

// Value is the tagged variant every opcode operand resolves to. Every
// implementing type is either a plain comparable struct (Nil, Boolean,
// Integer, String) or a pointer (*Table, *Function, *NativeFunction), so a
// Value is always safe to use as a Go map key: two Values compare equal
// exactly when spec says they should (structurally for primitives, by
// handle identity for tables and functions).
type Value interface {
	Type() ValueType
	String() string
}

// Nil is the absence of a value. The zero value is the only Nil.
type Nil struct{}

func (Nil) Type() ValueType { return NilType }
func (Nil) String() string  { return "nil" }

// Boolean wraps a bool.
type Boolean struct{ V bool }

func (b Boolean) Type() ValueType { return BooleanType }
func (b Boolean) String() string  { return fmt.Sprintf("%v", b.V) }

// Integer is the VM's only numeric type (spec.md's Non-goals exclude float
// coercions).
type Integer struct{ V int64 }

func (i Integer) Type() ValueType { return NumberType }
func (i Integer) String() string  { return fmt.Sprintf("%d", i.V) }

// String is an immutable UTF-8 byte sequence.
type String struct{ V string }

func (s String) Type() ValueType { return StringType }
func (s String) String() string  { return s.V }

// NewString constructs a string-typed Value from a borrowed byte sequence.
// Used throughout the compiler and interpreter to turn opcode operand names
// into lookup keys.
func NewString(literal string) Value { return String{V: literal} }

// CoerceToBool reports Lua's truthiness rule: Nil and Boolean(false) are
// false, everything else — including Integer(0) and the empty string — is
// true.
func CoerceToBool(v Value) bool {
	switch t := v.(type) {
	case nil:
		return false
	case Nil:
		return false
	case Boolean:
		return t.V
	default:
		return true
	}
}

// IsNil reports whether v is the absent value. A nil Go interface is
// treated the same as an explicit Nil{}, since scope lookups that miss
// return a bare nil interface.
func IsNil(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Nil)
	return ok
}

// AsNonNil is the Nillable split from spec.md §3: ok is false iff v is Nil.
func AsNonNil(v Value) (Value, bool) {
	if IsNil(v) {
		return nil, false
	}
	return v, true
}

// Equal implements spec.md §6's equality rules: structural for primitives,
// identity for tables, functions, and native functions (guaranteed by Go's
// interface comparison on pointer-typed dynamic values).
func Equal(a, b Value) bool {
	if IsNil(a) && IsNil(b) {
		return true
	}
	if IsNil(a) != IsNil(b) {
		return false
	}
	return a == b
}
