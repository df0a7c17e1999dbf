package vm

import "fmt"

// ErrorKind tags the category of a runtime Error, the structured upgrade
// spec.md §9 invites over a flat string: "a small tagged error kind
// (TypeMismatch, NilIndex, NotImplemented, Propagated)".
type ErrorKind int

const (
	TypeMismatch ErrorKind = iota
	NilIndex
	NotImplemented
	// Propagated is reserved for a host that itself wraps a nested VM
	// embedding's failure; vm.Execute never produces it — a callee's Error
	// unwinds through Call frames with its own Kind intact (spec.md §7's
	// "errors abort the current activation immediately and propagate to
	// the caller" does not say the category changes in transit).
	Propagated
	ResourceExhausted
)

// Error is the VM's single diagnostic channel (spec.md §7). It formats to
// the flat human-readable strings spec.md specifies only at Error(), so
// callers that need to branch on the failure category can still inspect
// Kind.
type Error struct {
	Kind    ErrorKind
	Message string
	// Cause holds the wrapped Error when Kind == Propagated. vm.Execute
	// itself never sets it; it exists for a host that nests one VM
	// embedding inside another and wants to tag the outer failure while
	// still keeping the inner one inspectable.
	Cause *Error
}

func (e *Error) Error() string {
	if e == nil {
		return "runtime error: unknown"
	}
	return e.Message
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// errAttemptToCall reports calling a non-function value (spec.md §7).
func errAttemptToCall(v Value) *Error {
	return newError(TypeMismatch, "attempt to call a %s value", typeNameOf(v))
}

// errAttemptToCallWith reports an arguments operand that isn't a table
// (spec.md §7's "attempt to initiate a function call with a X value").
func errAttemptToCallWith(v Value) *Error {
	return newError(TypeMismatch, "attempt to initiate a function call with a %s value", typeNameOf(v))
}

// errAttemptToIndex reports indexing a non-table value.
func errAttemptToIndex(v Value) *Error {
	return newError(TypeMismatch, "attempt to index a %s value", typeNameOf(v))
}

// errNilIndex reports IndexRead/IndexWrite resolving index to Nil.
func errNilIndex() *Error {
	return newError(NilIndex, "table index is nil")
}

// errNotImplemented reports an operator dispatch with no matching case.
func errNotImplemented(op fmt.Stringer, first, second Value) *Error {
	return newError(NotImplemented, "operation %s not implemented for %s and %s",
		op, typeNameOf(first), typeNameOf(second))
}

// errResourceExhausted reports recursion past Config.MaxCallDepth (the §8
// configuration addition). Not one of spec.md's four listed kinds — adding
// a fifth was judged clearer than mislabeling resource exhaustion as
// NotImplemented; see DESIGN.md.
func errResourceExhausted(depth int) *Error {
	return newError(ResourceExhausted, "call depth exceeded maximum of %d", depth)
}

func typeNameOf(v Value) ValueType {
	if IsNil(v) {
		return NilType
	}
	return v.Type()
}
