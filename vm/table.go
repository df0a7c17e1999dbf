package vm

import (
	"sync"

	"github.com/google/uuid"
)

// Table is a shared, mutable container: a Value-to-Value mapping plus an
// optional metatable. Tables are held by reference; Go's garbage collector
// reclaims one once no holder remains (spec.md §3's "destroyed when no
// holder remains" is satisfied for free — no cycle collector is needed or
// attempted, matching spec.md §9's note that cyclic table references, such
// as globals holding itself under "_G", are accepted and never reclaimed
// eagerly).
//
// The mutex is held only for the duration of a single read-modify or write
// step, per spec.md §5's shared-resource policy.
type Table struct {
	ID   uuid.UUID
	mu   sync.Mutex
	data map[Value]Value
	meta *Table
}

// NewTable returns a fresh, empty table with no metatable — spec.md §8
// invariant 7.
func NewTable() *Table {
	return &Table{
		ID:   uuid.New(),
		data: make(map[Value]Value),
	}
}

// Get returns the value bound to key and whether it was present. The Nil
// key never has a binding (spec.md §3 invariant 1), so callers never need
// to special-case it.
func (t *Table) Get(key Value) (Value, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.data[key]
	return v, ok
}

// Insert binds key to value, unless value is Nil, in which case the
// binding is removed instead (spec.md §3 invariant 1, §8 invariant 2).
func (t *Table) Insert(key, value Value) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if IsNil(value) {
		delete(t.data, key)
		return
	}
	t.data[key] = value
}

// Remove unconditionally removes key's binding, if any.
func (t *Table) Remove(key Value) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.data, key)
}

// Len returns the number of bindings currently held. Used by tests and the
// debug dump; not part of the opcode surface.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.data)
}

// Snapshot copies the mapping out from under the lock and releases it
// before the caller does anything with the copy — this is how the
// interpreter avoids ever holding two table locks at once (spec.md §5):
// read the source snapshot, release its lock, then take the destination's.
func (t *Table) Snapshot() map[Value]Value {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[Value]Value, len(t.data))
	for k, v := range t.data {
		out[k] = v
	}
	return out
}

// Metatable returns the table's metatable, or nil if it has none. Per
// spec.md §3 invariant 3, a non-nil metatable is always itself a valid
// Table.
func (t *Table) Metatable() *Table {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.meta
}

// SetMetatable installs meta as t's metatable. A nil meta clears it.
func (t *Table) SetMetatable(meta *Table) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.meta = meta
}

func (t *Table) Type() ValueType { return TableType }
func (t *Table) String() string  { return "table: " + t.ID.String() }

// Array builds a table whose keys are consecutive integers starting at 1
// (Lua convention) — this resolves the indexing-convention Open Question
// spec.md §9 leaves unsettled; see DESIGN.md.
func Array(values ...Value) *Table {
	t := NewTable()
	for i, v := range values {
		t.Insert(Integer{V: int64(i + 1)}, v)
	}
	return t
}
