package vm

import "github.com/google/uuid"

// Function owns a compiled Chunk. Functions are shared — multiple call
// sites may reference the same handle — and carry no captured environment
// beyond what the caller passes in as locals and globals (spec.md §3).
type Function struct {
	ID    uuid.UUID
	Name  string
	Chunk *Chunk
}

// NewFunction wraps chunk as a callable Function value.
func NewFunction(name string, chunk *Chunk) *Function {
	return &Function{ID: uuid.New(), Name: name, Chunk: chunk}
}

func (f *Function) Type() ValueType { return FunctionType }
func (f *Function) String() string  { return "function: " + f.ID.String() }

// NativeCallable is the host-provided implementation behind a
// NativeFunction value: it receives the raw arguments Table and the
// globals handle, and returns a results Table (spec.md §4.6).
type NativeCallable func(args *Table, globals *Table) (*Table, *Error)

// NativeFunction wraps a host callable. It is a pointer type so two
// NativeFunction values compare equal only when they share the same
// handle — "NativeFunctions equal by callable identity" (spec.md §6) —
// without ever needing to compare the underlying Go func value, which
// would panic if used as a map key directly.
type NativeFunction struct {
	ID   uuid.UUID
	Name string
	Call NativeCallable
}

// NewNativeFunction wraps fn as a callable NativeFunction value.
func NewNativeFunction(name string, fn NativeCallable) *NativeFunction {
	return &NativeFunction{ID: uuid.New(), Name: name, Call: fn}
}

func (n *NativeFunction) Type() ValueType { return FunctionType }
func (n *NativeFunction) String() string  { return "function: " + n.ID.String() }
