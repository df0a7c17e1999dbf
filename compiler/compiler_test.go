package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luacore/compiler"
	"luacore/lexer"
	"luacore/parser"
	"luacore/stdlib"
	"luacore/vm"
)

func run(t *testing.T, source string) (*vm.Table, *vm.Table) {
	t.Helper()
	tokens := lexer.Tokenize(source)
	prog, perr := parser.New(tokens).ParseProgram()
	require.Nil(t, perr)

	fn := compiler.Compile(prog)
	globals := stdlib.Register(vm.NewTable())
	globals.Insert(vm.NewString("_G"), globals)

	result, err := vm.Execute(fn, vm.Locals{}, globals, 0, vm.DefaultConfig())
	require.Nil(t, err)
	return result, globals
}

func TestCompileLocalArithmeticReturn(t *testing.T) {
	result, _ := run(t, `
		local x = 1
		local y = 2
		return x + y
	`)
	v, ok := result.Get(vm.Integer{V: 1})
	require.True(t, ok)
	assert.Equal(t, vm.Integer{V: 3}, v)
}

func TestCompileIfElse(t *testing.T) {
	result, _ := run(t, `
		local x = 5
		local y = 0
		if x < 3 then
			y = 1
		else
			y = 2
		end
		return y
	`)
	v, _ := result.Get(vm.Integer{V: 1})
	assert.Equal(t, vm.Integer{V: 2}, v)
}

func TestCompileWhileLoop(t *testing.T) {
	result, _ := run(t, `
		local i = 0
		local total = 0
		while i <= 3 do
			total = total + i
			i = i + 1
		end
		return total
	`)
	v, _ := result.Get(vm.Integer{V: 1})
	assert.Equal(t, vm.Integer{V: 6}, v)
}

func TestCompileFunctionCallAndReturn(t *testing.T) {
	result, _ := run(t, `
		function add(a, b)
			return a + b
		end
		return add(3, 4)
	`)
	v, _ := result.Get(vm.Integer{V: 1})
	assert.Equal(t, vm.Integer{V: 7}, v)
}

func TestCompileTableIndexAssignAndRead(t *testing.T) {
	result, _ := run(t, `
		local t = {}
		t.name = "luamoon"
		return t.name
	`)
	v, _ := result.Get(vm.Integer{V: 1})
	assert.Equal(t, vm.String{V: "luamoon"}, v)
}

func TestCompileGlobalAssignment(t *testing.T) {
	_, globals := run(t, `
		count = 41
		count = count + 1
	`)
	v, ok := globals.Get(vm.NewString("count"))
	require.True(t, ok)
	assert.Equal(t, vm.Integer{V: 42}, v)
}

func TestCompileAndOrShortCircuit(t *testing.T) {
	result, _ := run(t, `
		local a = false
		local b = a and 2
		local c = true or 3
		return b
	`)
	v, ok := result.Get(vm.Integer{V: 1})
	require.True(t, ok)
	assert.Equal(t, vm.Boolean{V: false}, v)
}

func TestCompileOrFallsThroughWhenLeftFalsy(t *testing.T) {
	result, _ := run(t, `
		local a = nil
		local b = a or 5
		return b
	`)
	v, ok := result.Get(vm.Integer{V: 1})
	require.True(t, ok)
	assert.Equal(t, vm.Integer{V: 5}, v)
}

func TestCompileVariableCopyIsIndependent(t *testing.T) {
	result, _ := run(t, `
		local x = 1
		local y = x
		x = 2
		return y
	`)
	v, _ := result.Get(vm.Integer{V: 1})
	assert.Equal(t, vm.Integer{V: 1}, v)
}
