package vm

// metamethodNames maps each BinaryOp to the well-known metatable key
// consulted when neither operand's primitive type satisfies the
// operation directly (spec.md §4.5, §9's "Metamethod names are fixed
// strings keyed in the metatable").
var metamethodNames = map[BinaryOp]string{
	BinEqual:              "__eq",
	BinLessThan:           "__lt",
	BinLessThanOrEqual:    "__le",
	BinAdd:                "__add",
	BinSubtract:           "__sub",
}

// evalBinary implements spec.md §4.5: inspect the tags of the two
// resolved operands, dispatch on (op, tag, tag) the way spec.md §9
// recommends, rather than the hand-coded match-per-operator the Rust
// original uses for __le alone, and fall back to a metatable-held
// metamethod looked up by the operator's name (metamethodNames).
func evalBinary(op BinaryOp, first, second Value, globals *Table, depth int, cfg *Config) (Value, *Error) {
	switch op {
	case BinEqual:
		if v, ok := primitiveEqual(first, second); ok {
			return Boolean{V: v}, nil
		}
	case BinNotEqual:
		if v, ok := primitiveEqual(first, second); ok {
			return Boolean{V: !v}, nil
		}
	case BinLessThan, BinLessThanOrEqual:
		if v, ok := primitiveOrder(op, first, second); ok {
			return Boolean{V: v}, nil
		}
	case BinGreaterThan:
		if v, ok := primitiveOrder(BinLessThan, second, first); ok {
			return Boolean{V: v}, nil
		}
	case BinGreaterThanOrEqual:
		if v, ok := primitiveOrder(BinLessThanOrEqual, second, first); ok {
			return Boolean{V: v}, nil
		}
	case BinAdd:
		if v, ok := primitiveArith(op, first, second); ok {
			return v, nil
		}
	case BinSubtract:
		if v, ok := primitiveArith(op, first, second); ok {
			return v, nil
		}
	}

	name, hasMeta := metamethodNames[op]
	if !hasMeta {
		// NotEqual/GreaterThan/GreaterThanOrEqual reduce to a metamethod
		// op above; if that reduction's primitive case already failed,
		// retry through the reduced op's own metamethod before giving up.
		switch op {
		case BinNotEqual:
			result, err := evalBinary(BinEqual, first, second, globals, depth, cfg)
			if err == nil {
				return Boolean{V: !CoerceToBool(result)}, nil
			}
			return nil, err
		case BinGreaterThan:
			return evalBinary(BinLessThan, second, first, globals, depth, cfg)
		case BinGreaterThanOrEqual:
			return evalBinary(BinLessThanOrEqual, second, first, globals, depth, cfg)
		}
		return nil, errNotImplemented(op, first, second)
	}

	if result, ok, err := tryMetamethod(name, first, second, globals, depth, cfg); ok || err != nil {
		if err != nil {
			return nil, err
		}
		if op == BinLessThanOrEqual || op == BinLessThan || op == BinEqual {
			return Boolean{V: CoerceToBool(result)}, nil
		}
		return result, nil
	}

	// Two tables that are neither raw-identical nor reconciled by an
	// __eq metamethod are simply unequal, not an error — unlike the other
	// operators, equality always has a definite answer for any type pair.
	if op == BinEqual {
		return Boolean{V: false}, nil
	}

	return nil, errNotImplemented(op, first, second)
}

// primitiveEqual reports whether first and second are equal without
// consulting a metamethod, and whether that verdict is final. Two tables
// that are not raw-identical are left unresolved (ok == false) so
// evalBinary's __eq fallback gets a chance to run — spec.md §6's identity
// rule is the *default* for tables, not the only answer, once __eq is in
// play.
func primitiveEqual(first, second Value) (bool, bool) {
	if a, ok := first.(*Table); ok {
		b, ok := second.(*Table)
		if !ok {
			return false, true
		}
		if a == b {
			return true, true
		}
		return false, false
	}
	if _, ok := second.(*Table); ok {
		return false, true
	}
	return Equal(first, second), true
}

func primitiveOrder(op BinaryOp, first, second Value) (bool, bool) {
	switch a := first.(type) {
	case Integer:
		b, ok := second.(Integer)
		if !ok {
			return false, false
		}
		if op == BinLessThan {
			return a.V < b.V, true
		}
		return a.V <= b.V, true
	case String:
		b, ok := second.(String)
		if !ok {
			return false, false
		}
		if op == BinLessThan {
			return a.V < b.V, true
		}
		return a.V <= b.V, true
	}
	return false, false
}

func primitiveArith(op BinaryOp, first, second Value) (Value, bool) {
	a, aok := first.(Integer)
	b, bok := second.(Integer)
	if !aok || !bok {
		return nil, false
	}
	if op == BinAdd {
		return Integer{V: a.V + b.V}, true
	}
	return Integer{V: a.V - b.V}, true
}

// tryMetamethod consults first's metatable, then second's, for a name
// entry. ok is false when neither operand is a Table with a matching
// metamethod, in which case evalBinary reports the operation as
// unimplemented for this type pair (or, for Equal, as false).
func tryMetamethod(name string, first, second Value, globals *Table, depth int, cfg *Config) (Value, bool, *Error) {
	for _, operand := range [2]Value{first, second} {
		table, ok := operand.(*Table)
		if !ok {
			continue
		}
		meta := table.Metatable()
		if meta == nil {
			continue
		}
		handler, ok := meta.Get(NewString(name))
		if !ok || IsNil(handler) {
			continue
		}
		result, err := invokeMetamethod(handler, first, second, globals, depth, cfg)
		if err != nil {
			return nil, true, err
		}
		return result, true, nil
	}
	return nil, false, nil
}

// invokeMetamethod packs the operands under integer keys 1 and 2 (Lua
// convention) and calls handler, returning its first result. The Rust
// original assigns both operands to key 0, so the second silently
// overwrites the first — spec.md §9 flags this as a bug; this
// implementation uses the corrected keys.
func invokeMetamethod(handler, first, second Value, globals *Table, depth int, cfg *Config) (Value, *Error) {
	args := Array(first, second)

	switch fn := handler.(type) {
	case *Function:
		result, err := Execute(fn, cloneArgs(args), globals, depth+1, cfg)
		if err != nil {
			return nil, err
		}
		v, _ := result.Get(Integer{V: 1})
		return v, nil
	case *NativeFunction:
		result, err := fn.Call(args, globals)
		if err != nil {
			return nil, err
		}
		v, _ := result.Get(Integer{V: 1})
		return v, nil
	default:
		return nil, errAttemptToCall(handler)
	}
}

// evalUnary implements spec.md §4.5's lone unary operator.
func evalUnary(op UnaryOp, operand Value) (Value, *Error) {
	switch op {
	case UnNot:
		return Boolean{V: !CoerceToBool(operand)}, nil
	default:
		return nil, newError(NotImplemented, "unary operation not implemented")
	}
}
