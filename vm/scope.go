package vm

// Locals is a per-activation mapping from name-as-Value to Value, mutated
// only by the activation that owns it (spec.md §3). Integer keys appear
// when a table is reused as an argument bag (spec.md §3), so Locals is
// keyed by Value, not string, even though names are the overwhelmingly
// common case.
type Locals map[Value]Value

// retrieve is the only read path for opcode operands (spec.md §4.3): look
// up key in locals first, then globals under its mutex. Absent is
// reported by returning ok == false; it is never conflated with an
// explicit Nil binding because Nil is never actually stored (spec.md §3
// invariant 1).
func retrieve(key Value, locals Locals, globals *Table) (Value, bool) {
	if v, ok := locals[key]; ok {
		return v, true
	}
	return globals.Get(key)
}

// retrieveNamed resolves a string operand name against scope; this is the
// shape every opcode operand actually uses (spec.md §4.2: "all operand
// names are string keys").
func retrieveNamed(name string, locals Locals, globals *Table) (Value, bool) {
	return retrieve(NewString(name), locals, globals)
}

// bind writes value to name, honoring the instruction's DestinationLocal
// flag: true writes to locals (the only behavior spec.md's §4.2 table
// describes as implemented), false writes to globals (the REDESIGN FLAG
// resolution — see SPEC_FULL.md §4.2 and DESIGN.md). A Nil value clears
// the binding instead of storing it (spec.md §3 invariant 1).
func bind(name string, value Value, local bool, locals Locals, globals *Table) {
	key := NewString(name)
	if local {
		if IsNil(value) {
			delete(locals, key)
			return
		}
		locals[key] = value
		return
	}
	globals.Insert(key, value)
}

// clear removes name's binding from the scope DestinationLocal selects.
func clear(name string, local bool, locals Locals, globals *Table) {
	key := NewString(name)
	if local {
		delete(locals, key)
		return
	}
	globals.Remove(key)
}
