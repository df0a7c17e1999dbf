package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkWith(instrs ...Instruction) *Chunk {
	c := NewChunk()
	c.Instructions = instrs
	return c
}

func runTop(t *testing.T, chunk *Chunk, consts []Value) (*Table, *Error) {
	t.Helper()
	chunk.Consts = consts
	fn := NewFunction("<test>", chunk)
	globals := NewTable()
	return Execute(fn, Locals{}, globals, 0, DefaultConfig())
}

// Scenario 1 from SPEC_FULL.md §12 / spec.md §8: returning a non-table
// value is a diagnostic, never a silent success.
func TestLoadAndReturnNonTableIsError(t *testing.T) {
	chunk := chunkWith(
		Instruction{Op: OpLoad, Constant: 0, Destination: "r", DestinationLocal: true},
		Instruction{Op: OpReturn, Result: "r"},
	)
	_, err := runTop(t, chunk, []Value{Integer{V: 42}})
	require.Error(t, err)
	assert.Equal(t, TypeMismatch, err.Kind)
}

// Scenario 2: a value written with IndexWrite is present in the returned table.
func TestTableCreateAndWrite(t *testing.T) {
	chunk := chunkWith(
		Instruction{Op: OpCreate, Destination: "t", DestinationLocal: true},
		Instruction{Op: OpLoad, Constant: 0, Destination: "k", DestinationLocal: true},
		Instruction{Op: OpLoad, Constant: 1, Destination: "v", DestinationLocal: true},
		Instruction{Op: OpIndexWrite, Indexee: "t", Index: "k", Value: "v"},
		Instruction{Op: OpReturn, Result: "t"},
	)
	result, err := runTop(t, chunk, []Value{String{V: "name"}, String{V: "luamoon"}})
	require.Nil(t, err)
	v, ok := result.Get(String{V: "name"})
	require.True(t, ok)
	assert.Equal(t, String{V: "luamoon"}, v)
}

// Scenario 3: writing an unbound (nil-resolving) value removes the key.
func TestNilWriteRemoves(t *testing.T) {
	chunk := chunkWith(
		Instruction{Op: OpCreate, Destination: "t", DestinationLocal: true},
		Instruction{Op: OpLoad, Constant: 0, Destination: "k", DestinationLocal: true},
		Instruction{Op: OpLoad, Constant: 1, Destination: "v", DestinationLocal: true},
		Instruction{Op: OpIndexWrite, Indexee: "t", Index: "k", Value: "v"},
		Instruction{Op: OpIndexWrite, Indexee: "t", Index: "k", Value: "missing"},
		Instruction{Op: OpReturn, Result: "t"},
	)
	result, err := runTop(t, chunk, []Value{String{V: "name"}, String{V: "luamoon"}})
	require.Nil(t, err)
	_, ok := result.Get(String{V: "name"})
	assert.False(t, ok)
}

// Scenario 4: a local binding shadows a global of the same name.
func TestLocalShadowsGlobal(t *testing.T) {
	globals := NewTable()
	globals.Insert(NewString("x"), Integer{V: 1})
	locals := Locals{NewString("x"): Integer{V: 2}}

	v, ok := retrieveNamed("x", locals, globals)
	require.True(t, ok)
	assert.Equal(t, Integer{V: 2}, v)
}

// Scenario 5: a conditional jump on a false condition falls through.
func TestConditionalJumpNotTaken(t *testing.T) {
	chunk := chunkWith(
		Instruction{Op: OpLoad, Constant: 0, Destination: "c", DestinationLocal: true},
		Instruction{Op: OpJump, Target: 4, If: "c", HasIf: true},
		Instruction{Op: OpCreate, Destination: "t", DestinationLocal: true},
		Instruction{Op: OpReturn, Result: "t"},
	)
	result, err := runTop(t, chunk, []Value{Boolean{V: false}})
	require.Nil(t, err)
	assert.Equal(t, 0, result.Len())
}

// Scenario 6: calling a native function hands it the raw arguments table,
// and an empty-table result clears the destination.
func TestCallNative(t *testing.T) {
	var seen *Table
	sink := NewNativeFunction("print", func(args, globals *Table) (*Table, *Error) {
		seen = args
		return NewTable(), nil
	})

	globals := NewTable()
	globals.Insert(NewString("print"), sink)

	chunk := chunkWith(
		Instruction{Op: OpLoad, Constant: 1, Destination: "k", DestinationLocal: true},
		Instruction{Op: OpCreate, Destination: "args", DestinationLocal: true},
		Instruction{Op: OpLoad, Constant: 0, Destination: "msg", DestinationLocal: true},
		Instruction{Op: OpIndexWrite, Indexee: "args", Index: "k", Value: "msg"},
		Instruction{Op: OpCall, Function: "print", Arguments: "args", Destination: "_", DestinationLocal: true},
		Instruction{Op: OpCreate, Destination: "t", DestinationLocal: true},
		Instruction{Op: OpReturn, Result: "t"},
	)
	chunk.Consts = []Value{String{V: "hi"}, String{V: "(k)"}}
	fn := NewFunction("<test>", chunk)
	locals := Locals{}
	result, err := Execute(fn, locals, globals, 0, DefaultConfig())
	require.Nil(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, 0, result.Len())
	_, hasDest := locals[NewString("_")]
	assert.False(t, hasDest)
}

func TestCoerceToBool(t *testing.T) {
	assert.False(t, CoerceToBool(Nil{}))
	assert.False(t, CoerceToBool(Boolean{V: false}))
	assert.True(t, CoerceToBool(Boolean{V: true}))
	assert.True(t, CoerceToBool(Integer{V: 0}))
	assert.True(t, CoerceToBool(String{V: ""}))
}

func TestRetrieveFallsBackToGlobals(t *testing.T) {
	globals := NewTable()
	globals.Insert(NewString("g"), Integer{V: 9})
	locals := Locals{}

	v, ok := retrieveNamed("g", locals, globals)
	require.True(t, ok)
	assert.Equal(t, Integer{V: 9}, v)

	_, ok = retrieveNamed("missing", locals, globals)
	assert.False(t, ok)
}

func TestTwoEmptyReturnsAreDistinctTables(t *testing.T) {
	chunk := chunkWith()
	fn := NewFunction("<empty>", chunk)
	globals := NewTable()

	a, err := Execute(fn, Locals{}, globals, 0, DefaultConfig())
	require.Nil(t, err)
	b, err := Execute(fn, Locals{}, globals, 0, DefaultConfig())
	require.Nil(t, err)
	assert.NotSame(t, a, b)
}

func TestCreateHasNoMetatable(t *testing.T) {
	tbl := NewTable()
	assert.Nil(t, tbl.Metatable())
}

func TestBinaryLessThanOrEqualIntegers(t *testing.T) {
	result, err := evalBinary(BinLessThanOrEqual, Integer{V: 1}, Integer{V: 2}, NewTable(), 0, DefaultConfig())
	require.Nil(t, err)
	assert.Equal(t, Boolean{V: true}, result)
}

func TestBinaryLessThanOrEqualMetamethod(t *testing.T) {
	globals := NewTable()
	var capturedArgs *Table
	handler := NewNativeFunction("__le", func(args, g *Table) (*Table, *Error) {
		capturedArgs = args
		return Array(Boolean{V: true}), nil
	})
	meta := NewTable()
	meta.Insert(NewString("__le"), handler)
	obj := NewTable()
	obj.SetMetatable(meta)

	result, err := evalBinary(BinLessThanOrEqual, obj, Integer{V: 5}, globals, 0, DefaultConfig())
	require.Nil(t, err)
	assert.Equal(t, Boolean{V: true}, result)

	first, ok := capturedArgs.Get(Integer{V: 1})
	require.True(t, ok)
	assert.Same(t, obj, first)
	second, ok := capturedArgs.Get(Integer{V: 2})
	require.True(t, ok)
	assert.Equal(t, Integer{V: 5}, second)
}

func TestBinaryOperatorNotImplemented(t *testing.T) {
	_, err := evalBinary(BinAdd, String{V: "a"}, String{V: "b"}, NewTable(), 0, DefaultConfig())
	require.Error(t, err)
	assert.Equal(t, NotImplemented, err.Kind)
}

// Distinct tables with no __eq metamethod are simply unequal, not an error.
func TestBinaryEqualDistinctTablesNoMetamethod(t *testing.T) {
	result, err := evalBinary(BinEqual, NewTable(), NewTable(), NewTable(), 0, DefaultConfig())
	require.Nil(t, err)
	assert.Equal(t, Boolean{V: false}, result)
}

// A table's own __eq metamethod is consulted once raw identity fails.
func TestBinaryEqualMetamethod(t *testing.T) {
	globals := NewTable()
	handler := NewNativeFunction("__eq", func(args, g *Table) (*Table, *Error) {
		return Array(Boolean{V: true}), nil
	})
	meta := NewTable()
	meta.Insert(NewString("__eq"), handler)
	a := NewTable()
	a.SetMetatable(meta)
	b := NewTable()

	result, err := evalBinary(BinEqual, a, b, globals, 0, DefaultConfig())
	require.Nil(t, err)
	assert.Equal(t, Boolean{V: true}, result)
}

// A callee's Error keeps its original Kind as it unwinds through Call
// frames — Execute must never relabel it Propagated.
func TestCallPreservesCalleeErrorKind(t *testing.T) {
	inner := NewFunction("<inner>", chunkWith(
		Instruction{Op: OpReturn, Result: "(missing)"},
	))
	outer := NewFunction("<outer>", chunkWith(
		Instruction{Op: OpCreate, Destination: "(args)", DestinationLocal: true},
		Instruction{Op: OpCall, Function: "(inner)", Arguments: "(args)", Destination: "_", DestinationLocal: true},
		Instruction{Op: OpReturn, Result: "(args)"},
	))

	globals := NewTable()
	globals.Insert(NewString("(inner)"), inner)

	_, err := Execute(outer, Locals{}, globals, 0, DefaultConfig())
	require.Error(t, err)
	assert.Equal(t, TypeMismatch, err.Kind)
}

func TestMaxCallDepthExceeded(t *testing.T) {
	chunk := NewChunk()
	fn := NewFunction("recurse", chunk)
	args := NewTable()
	chunk.Instructions = []Instruction{
		{Op: OpCall, Function: "(self)", Arguments: "(args)", Destination: "_", DestinationLocal: true},
		{Op: OpReturn, Result: "(args)"},
	}
	globals := NewTable()
	globals.Insert(NewString("(self)"), fn)
	globals.Insert(NewString("(args)"), args)
	locals := Locals{}
	cfg := &Config{MaxCallDepth: 3}

	_, err := Execute(fn, locals, globals, 0, cfg)
	require.Error(t, err)
	assert.Equal(t, ResourceExhausted, err.Kind)
}
