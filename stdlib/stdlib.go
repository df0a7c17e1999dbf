// Package stdlib registers the tiny native standard library
// (print, pcall) into a VM's globals table — the host collaborator
// spec.md §1 describes as explicitly out of scope for the VM core, kept
// here the way the teacher's interpreter.go registers its own natives
// and the Rust original's lua_lib module supplies print/pcall.
package stdlib

import (
	"fmt"

	"luacore/vm"
)

// Register installs print and pcall into globals and returns globals for
// chaining, matching playground/src/main.rs's pattern of building the
// initial globals table before execution.
func Register(globals *vm.Table) *vm.Table {
	globals.Insert(vm.NewString("print"), vm.NewNativeFunction("print", Print))
	globals.Insert(vm.NewString("pcall"), vm.NewNativeFunction("pcall", Pcall))
	return globals
}

// Print writes every 1..N integer-keyed argument, Pretty-formatted, to
// stdout space-separated, and returns an empty result table.
func Print(args *vm.Table, globals *vm.Table) (*vm.Table, *vm.Error) {
	var parts []string
	for i := int64(1); ; i++ {
		v, ok := args.Get(vm.Integer{V: i})
		if !ok {
			break
		}
		parts = append(parts, vm.Pretty(v))
	}
	for i, p := range parts {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(p)
	}
	fmt.Println()
	return vm.NewTable(), nil
}

// Pcall invokes the function bound to integer key 1 of args with the
// remaining integer-keyed entries (shifted down to start at 1 again) as
// its own argument table, intercepting a propagating Error the way
// spec.md §7 describes pcall being built: "a native function may convert
// a propagating error into a normal return."
//
// On success it returns {1: true, 2: result1, 3: result2, ...} where
// result1.. are the callee's own integer-keyed results; on failure it
// returns {1: false, 2: message}.
func Pcall(args *vm.Table, globals *vm.Table) (*vm.Table, *vm.Error) {
	callee, ok := args.Get(vm.Integer{V: 1})
	if !ok {
		return vm.Array(vm.Boolean{V: false}, vm.NewString("pcall requires a function argument")), nil
	}

	innerArgs := vm.NewTable()
	for i := int64(2); ; i++ {
		v, ok := args.Get(vm.Integer{V: i})
		if !ok {
			break
		}
		innerArgs.Insert(vm.Integer{V: i - 1}, v)
	}

	result, err := vm.Invoke(callee, innerArgs, globals)
	if err != nil {
		return vm.Array(vm.Boolean{V: false}, vm.NewString(err.Error())), nil
	}

	values := []vm.Value{vm.Boolean{V: true}}
	for i := int64(1); ; i++ {
		v, ok := result.Get(vm.Integer{V: i})
		if !ok {
			break
		}
		values = append(values, v)
	}
	return vm.Array(values...), nil
}
