package pickle

// canonicalizer turns the intermediate, position-addressed Value tree the
// opcode loop builds into the canonical, memo-ref-free tree described in
// spec.md §4.7: arbitrary-precision Int is widened to I64 when it fits,
// List/Tuple/Dict/Set/FrozenSet are rebuilt using their canonical (hashed,
// for Dict/Set/FrozenSet) representations, and every MemoRef is resolved
// in place.
type canonicalizer struct {
	memo           *memoTable
	pos            func() int64
	persistentLoad func(Ref) (Value, error)
}

func newCanonicalizer(memo *memoTable, pos func() int64, persistentLoad func(Ref) (Value, error)) *canonicalizer {
	return &canonicalizer{memo: memo, pos: pos, persistentLoad: persistentLoad}
}

func (c *canonicalizer) value(v Value) (Value, error) {
	switch x := v.(type) {
	case MemoRef:
		return c.memo.resolveRecursive(c.pos(), uint32(x), c.value)

	case None, Bool, I64, F64, Bytes, String:
		return x, nil

	case Int:
		if x.V.IsInt64() {
			return I64(x.V.Int64()), nil
		}
		return x, nil

	case *rawList:
		items, err := c.values(x.Items)
		if err != nil {
			return nil, err
		}
		return &List{Items: items}, nil

	case *rawTuple:
		items, err := c.values(x.Items)
		if err != nil {
			return nil, err
		}
		return &Tuple{Items: items}, nil

	case *rawDict:
		return c.dict(x)

	case *rawSet:
		return c.set(x.Items, false)

	case *rawFrozenSet:
		return c.set(x.Items, true)

	case Ref:
		pid, err := c.value(x.Pid)
		if err != nil {
			return nil, err
		}
		if c.persistentLoad != nil {
			return c.persistentLoad(Ref{Pid: pid})
		}
		return Ref{Pid: pid}, nil

	case Global:
		return nil, errUnresolvedGlobal(c.pos())

	// Already-canonical values can reach here when a PersistentLoad hook
	// injects a finished value into the tree.
	case *List, *Tuple, *Dict, *Set, *FrozenSet:
		return x, nil

	default:
		return nil, errUnsupported(c.pos(), 0)
	}
}

func (c *canonicalizer) values(in []Value) ([]Value, error) {
	out := make([]Value, len(in))
	for i, v := range in {
		cv, err := c.value(v)
		if err != nil {
			return nil, err
		}
		out[i] = cv
	}
	return out, nil
}

func (c *canonicalizer) dict(x *rawDict) (*Dict, error) {
	d := NewDictWithSizeHint(len(x.Keys))
	for i, k := range x.Keys {
		ck, err := c.value(k)
		if err != nil {
			return nil, err
		}
		if !isHashable(ck) {
			return nil, errInvalidValue(c.pos(), "unhashable dict key: "+typeName(ck))
		}
		cv, err := c.value(x.Values[i])
		if err != nil {
			return nil, err
		}
		d.Set(ck, cv)
	}
	return d, nil
}

func (c *canonicalizer) set(items []Value, frozen bool) (Value, error) {
	var o *ordered
	var result Value
	if frozen {
		s := NewFrozenSet()
		o, result = &s.ordered, s
	} else {
		s := NewSet()
		o, result = &s.ordered, s
	}
	for _, item := range items {
		ci, err := c.value(item)
		if err != nil {
			return nil, err
		}
		if !isHashable(ci) {
			return nil, errInvalidValue(c.pos(), "unhashable set element: "+typeName(ci))
		}
		o.Add(ci)
	}
	return result, nil
}
