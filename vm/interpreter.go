package vm

import (
	"golang.org/x/exp/maps"
)

// cloneArgs copies an arguments Table's mapping into a Locals map for a
// new activation (spec.md §4.6: "clone the arguments Table's mapping and
// pass it as the new activation's locals"). maps.Clone is the
// golang.org/x/exp generic-maps helper the rest of the retrieval pack
// (sneller, funxy) already depends on, standing in for the hand-rolled
// copy loop the teacher would otherwise write.
func cloneArgs(args *Table) Locals {
	return Locals(maps.Clone(args.Snapshot()))
}

// Execute runs fn's opcodes in order from index 0 until a Return fires or
// the instruction vector is exhausted, returning a Table of results
// (spec.md §2, §4.4). locals is mutated in place by the activation that
// owns it; globals is shared and mutex-guarded.
//
// depth is the current call-recursion depth, threaded through nested Call
// opcodes so cfg.MaxCallDepth can turn runaway recursion into a
// ResourceExhausted Error instead of overflowing the host stack (spec.md
// §9's "Global interpreter recursion" note; SPEC_FULL.md §8). Pass depth
// 0 and cfg nil (equivalent to DefaultConfig()) for a top-level call.
func Execute(fn *Function, locals Locals, globals *Table, depth int, cfg *Config) (*Table, *Error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if depth > cfg.MaxCallDepth {
		return nil, errResourceExhausted(cfg.MaxCallDepth)
	}

	code := fn.Chunk.Instructions
	ip := 0

	for {
		if ip == len(code) {
			// Reaching the final instruction without a Return is a normal
			// terminal condition equivalent to returning an empty table
			// (spec.md §3 invariant 4, §8 invariant 5) — a fresh table
			// each time, so two such executions never alias.
			return NewTable(), nil
		}

		instr := code[ip]
		if cfg.Trace {
			traceLog(fn.Name, ip, instr)
		}

		switch instr.Op {
		case OpCall:
			argsVal, ok := retrieveNamed(instr.Arguments, locals, globals)
			if !ok {
				argsVal = Nil{}
			}
			argsTable, ok := argsVal.(*Table)
			if !ok {
				return nil, errAttemptToCallWith(argsVal)
			}

			funcVal, _ := retrieveNamed(instr.Function, locals, globals)
			result, err := call(funcVal, argsTable, globals, depth, cfg)
			if err != nil {
				return nil, err
			}
			resultVal, ok := result.Get(Integer{V: 1})
			if !ok {
				clear(instr.Destination, instr.DestinationLocal, locals, globals)
			} else {
				bind(instr.Destination, resultVal, instr.DestinationLocal, locals, globals)
			}

		case OpIndexRead:
			indexeeVal, _ := retrieveNamed(instr.Indexee, locals, globals)
			table, ok := indexeeVal.(*Table)
			if !ok {
				return nil, errAttemptToIndex(indexeeVal)
			}
			indexVal, _ := retrieveNamed(instr.Index, locals, globals)
			if _, ok := AsNonNil(indexVal); !ok {
				return nil, errNilIndex()
			}
			value, ok := table.Get(indexVal)
			if !ok {
				clear(instr.Destination, instr.DestinationLocal, locals, globals)
			} else {
				bind(instr.Destination, value, instr.DestinationLocal, locals, globals)
			}

		case OpIndexWrite:
			indexeeVal, _ := retrieveNamed(instr.Indexee, locals, globals)
			table, ok := indexeeVal.(*Table)
			if !ok {
				return nil, errAttemptToIndex(indexeeVal)
			}
			indexVal, _ := retrieveNamed(instr.Index, locals, globals)
			if _, ok := AsNonNil(indexVal); !ok {
				return nil, errNilIndex()
			}
			valueVal, _ := retrieveNamed(instr.Value, locals, globals)
			if value, ok := AsNonNil(valueVal); ok {
				table.Insert(indexVal, value)
			} else {
				table.Remove(indexVal)
			}

		case OpLoad:
			constant, ok := fn.Chunk.ConstAt(instr.Constant)
			if !ok {
				clear(instr.Destination, instr.DestinationLocal, locals, globals)
			} else {
				bind(instr.Destination, constant, instr.DestinationLocal, locals, globals)
			}

		case OpReAssign:
			actor, ok := retrieveNamed(instr.Actor, locals, globals)
			if !ok {
				clear(instr.Destination, instr.DestinationLocal, locals, globals)
				break
			}
			value, ok := retrieve(actor, locals, globals)
			if !ok {
				clear(instr.Destination, instr.DestinationLocal, locals, globals)
			} else {
				bind(instr.Destination, value, instr.DestinationLocal, locals, globals)
			}

		case OpCreate:
			bind(instr.Destination, NewTable(), instr.DestinationLocal, locals, globals)

		case OpBinaryOperation:
			first, _ := retrieveNamed(instr.First, locals, globals)
			second, _ := retrieveNamed(instr.Second, locals, globals)
			result, err := evalBinary(instr.BinOp, first, second, globals, depth, cfg)
			if err != nil {
				return nil, err
			}
			bind(instr.Destination, result, instr.DestinationLocal, locals, globals)

		case OpUnaryOperation:
			operand, _ := retrieveNamed(instr.Operand, locals, globals)
			result, err := evalUnary(instr.UnOp, operand)
			if err != nil {
				return nil, err
			}
			bind(instr.Destination, result, instr.DestinationLocal, locals, globals)

		case OpJump:
			if !instr.HasIf {
				ip = instr.Target
				continue
			}
			check, _ := retrieveNamed(instr.If, locals, globals)
			if CoerceToBool(check) {
				ip = instr.Target
				continue
			}

		case OpReturn:
			result, ok := retrieveNamed(instr.Result, locals, globals)
			if !ok {
				return nil, newError(TypeMismatch, "attempt to return a nil value")
			}
			table, ok := result.(*Table)
			if !ok {
				return nil, newError(TypeMismatch, "attempt to return a %s value", typeNameOf(result))
			}
			return table, nil

		case OpNoOp:
			// no effect

		default:
			return nil, newError(NotImplemented, "unknown opcode %v", instr.Op)
		}

		ip++
	}
}

// call resolves Call's function operand against the two shapes spec.md
// §4.6 describes: a user Function (recurse into Execute with a cloned
// locals map) or a NativeFunction (dispatch into host code, passing the
// arguments table as-is).
func call(funcVal Value, args *Table, globals *Table, depth int, cfg *Config) (*Table, *Error) {
	switch fn := funcVal.(type) {
	case *Function:
		return Execute(fn, cloneArgs(args), globals, depth+1, cfg)
	case *NativeFunction:
		return fn.Call(args, globals)
	default:
		return nil, errAttemptToCall(funcVal)
	}
}

// Invoke is call's exported form, for host collaborators — such as
// stdlib's pcall — that need to call an arbitrary Value the same way the
// Call opcode would, without threading a recursion-depth counter through
// their own native implementation.
func Invoke(funcVal Value, args *Table, globals *Table) (*Table, *Error) {
	return call(funcVal, args, globals, 0, DefaultConfig())
}
