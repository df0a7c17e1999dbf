package stdlib_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luacore/stdlib"
	"luacore/vm"
)

func TestPcallCatchesError(t *testing.T) {
	globals := vm.NewTable()
	failing := vm.NewNativeFunction("boom", func(args, g *vm.Table) (*vm.Table, *vm.Error) {
		return nil, &vm.Error{Kind: vm.TypeMismatch, Message: "boom"}
	})

	args := vm.Array(failing)
	result, err := stdlib.Pcall(args, globals)
	require.Nil(t, err)

	ok, _ := result.Get(vm.Integer{V: 1})
	assert.Equal(t, vm.Boolean{V: false}, ok)
	msg, _ := result.Get(vm.Integer{V: 2})
	assert.Equal(t, vm.String{V: "boom"}, msg)
}

func TestPcallForwardsSuccessResults(t *testing.T) {
	globals := vm.NewTable()
	succeeding := vm.NewNativeFunction("ok", func(args, g *vm.Table) (*vm.Table, *vm.Error) {
		first, _ := args.Get(vm.Integer{V: 1})
		return vm.Array(first), nil
	})

	args := vm.Array(succeeding, vm.Integer{V: 7})
	result, err := stdlib.Pcall(args, globals)
	require.Nil(t, err)

	ok, _ := result.Get(vm.Integer{V: 1})
	assert.Equal(t, vm.Boolean{V: true}, ok)
	value, _ := result.Get(vm.Integer{V: 2})
	assert.Equal(t, vm.Integer{V: 7}, value)
}

func TestRegisterInstallsBoth(t *testing.T) {
	globals := stdlib.Register(vm.NewTable())
	_, ok := globals.Get(vm.NewString("print"))
	assert.True(t, ok)
	_, ok = globals.Get(vm.NewString("pcall"))
	assert.True(t, ok)
}
