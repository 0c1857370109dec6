package pickle

// memoTable implements the PUT/GET-family bookkeeping described in
// spec.md §4.5, grounded on de.rs's Deserializer::memoize/resolve/
// resolve_recursive.
//
// The decode loop only ever stores the still-unresolved intermediate Value
// under an id (put) and hands out MemoRef placeholders for it (ref).
// Canonicalization later walks those placeholders via resolveRecursive,
// which detects a cycle by noticing that the slot it is about to fill in
// is the very one currently being resolved further up the call stack.
type memoTable struct {
	slots    map[uint32]Value
	everPut  map[uint32]bool
	resolved map[uint32]bool
	refs     map[uint32]int32
}

func newMemoTable() *memoTable {
	return &memoTable{
		slots:    make(map[uint32]Value),
		everPut:  make(map[uint32]bool),
		resolved: make(map[uint32]bool),
		refs:     make(map[uint32]int32),
	}
}

// put stores v under id, for MEMOIZE/PUT/BINPUT/LONG_BINPUT.
func (m *memoTable) put(id uint32, v Value) {
	m.slots[id] = v
	m.everPut[id] = true
	m.resolved[id] = false
}

// ref returns a MemoRef placeholder for id and increments its refcount,
// for GET/BINGET/LONG_BINGET.
func (m *memoTable) ref(id uint32) MemoRef {
	m.refs[id]++
	return MemoRef(id)
}

// peek returns id's stored value without consuming a reference or mutating
// any bookkeeping. Used by the visitor driver (visitor.go), which — unlike
// the canonicalizer — has no Go object to share across repeated references
// to the same memo id and so must be able to walk the same raw value more
// than once.
func (m *memoTable) peek(id uint32) (Value, bool) {
	v, ok := m.slots[id]
	return v, ok
}

// resolve dereferences v if it is a MemoRef, otherwise returns v unchanged.
// Unlike resolveRecursive it does not consume the slot, since the decode
// loop that calls it (REDUCE's argument tuple) runs before canonicalization
// and the referenced value may still be needed elsewhere in the stream.
func (m *memoTable) resolve(v Value) Value {
	ref, ok := v.(MemoRef)
	if !ok {
		return v
	}
	id := uint32(ref)
	m.refs[id]--
	if raw, ok := m.slots[id]; ok {
		return raw
	}
	return v
}

// resolveRecursive resolves a MemoRef during canonicalization. resolve is
// called back to canonicalize the raw value the first time id is visited;
// it must not be called again for the same id by the caller (memoTable
// handles re-entrancy itself). Returns a Recursive error if id is already
// being resolved further up the call stack, and a MissingMemo error if id
// was never PUT at all.
func (m *memoTable) resolveRecursive(pos int64, id uint32, resolve func(Value) (Value, error)) (Value, error) {
	if m.resolved[id] {
		v := m.slots[id]
		m.refs[id]--
		return v, nil
	}

	raw, ok := m.slots[id]
	if !ok {
		if m.everPut[id] {
			return nil, errRecursive(pos)
		}
		return nil, errMissingMemo(pos, id)
	}

	delete(m.slots, id) // mark in progress: present-but-not-resolved becomes absent
	canon, err := resolve(raw)
	if err != nil {
		return nil, err
	}
	m.slots[id] = canon
	m.resolved[id] = true
	m.refs[id]--
	return canon, nil
}
