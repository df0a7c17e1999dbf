package vm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// Pretty formats a Value as a single-line string, adapted from the
// teacher's outputingpritier.go to the table-based value model: tables
// print their bindings sorted by key string for determinism instead of
// the teacher's ArrayVal/MapVal split.
func Pretty(v Value) string {
	if IsNil(v) {
		return "nil"
	}
	switch t := v.(type) {
	case Integer:
		return fmt.Sprintf("%d", t.V)
	case String:
		return fmt.Sprintf("%q", t.V)
	case Boolean:
		return fmt.Sprintf("%v", t.V)
	case *Function:
		return "[function: " + t.Name + "]"
	case *NativeFunction:
		return "[function: " + t.Name + "]"
	case *Table:
		return prettyTable(t)
	default:
		return v.String()
	}
}

func prettyTable(t *Table) string {
	snap := t.Snapshot()
	keys := make([]string, 0, len(snap))
	index := make(map[string]Value, len(snap))
	for k := range snap {
		s := Pretty(k)
		keys = append(keys, s)
		index[s] = k
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, Pretty(snap[index[k]]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Disassemble renders a Chunk's instructions for the CLI's "compile" phase.
func Disassemble(chunk *Chunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "constants (%d):\n", len(chunk.Consts))
	for i, c := range chunk.Consts {
		fmt.Fprintf(&b, "  #%d = %s\n", i, Pretty(c))
	}
	fmt.Fprintf(&b, "instructions (%d):\n", len(chunk.Instructions))
	for i, instr := range chunk.Instructions {
		fmt.Fprintf(&b, "  %04d  %s\n", i, instr)
	}
	return b.String()
}

// Dump deep-prints v's Go representation via go-spew, for the CLI's "dump"
// phase and for debugging test failures — the rest of the retrieval pack
// (ProbeChain-go-probe) reaches for go-spew wherever a plain %v isn't
// enough; this repo does the same instead of hand-rolling a reflective
// dumper.
func Dump(v Value) string {
	return spew.Sdump(v)
}
