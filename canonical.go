package pickle

import (
	"fmt"
	"hash/maphash"
	"math"
	"math/big"

	"github.com/aristanetworks/gomap"
)

// List is a canonical, memo-ref-free pickle list.
type List struct {
	Items []Value
}

func (*List) isValue() {}

// Tuple is a canonical, memo-ref-free pickle tuple.
type Tuple struct {
	Items []Value
}

func (*Tuple) isValue() {}

// Dict is the canonical form of a pickle dict: a hashed container using
// Python-style equality (1 == 1.0 == True, and big.Int participates in
// numeric equality), with Python dict's observable insertion order
// preserved — the first occurrence of a key fixes its position, later
// writes to the same key update the value in place.
//
// The zero Dict is not usable; construct with NewDict.
type Dict struct {
	m     *gomap.Map[Value, Value]
	order []Value
}

func (*Dict) isValue() {}

// NewDict returns an empty Dict ready for use.
func NewDict() *Dict {
	return NewDictWithSizeHint(0)
}

// NewDictWithSizeHint returns an empty Dict with preallocated space for
// size items.
func NewDictWithSizeHint(size int) *Dict {
	return &Dict{m: gomap.NewHint[Value, Value](size, valueEqual, valueHash)}
}

// Set sets key to value, preserving key's original position if key is
// already present.
func (d *Dict) Set(key, value Value) {
	if _, had := d.m.Get(key); !had {
		d.order = append(d.order, key)
	}
	d.m.Set(key, value)
}

// Get returns the value associated with key, and whether key is present.
func (d *Dict) Get(key Value) (Value, bool) {
	return d.m.Get(key)
}

// Len returns the number of entries in the dictionary.
func (d *Dict) Len() int {
	return d.m.Len()
}

// Iter calls yield for every (key, value) pair in insertion order, stopping
// early if yield returns false.
func (d *Dict) Iter(yield func(key, value Value) bool) {
	for _, k := range d.order {
		v, ok := d.m.Get(k)
		if !ok {
			continue
		}
		if !yield(k, v) {
			return
		}
	}
}

func (d *Dict) String() string {
	s := "{"
	first := true
	d.Iter(func(k, v Value) bool {
		if !first {
			s += ", "
		}
		first = false
		s += fmt.Sprintf("%v: %v", k, v)
		return true
	})
	return s + "}"
}

// Set is the canonical form of a pickle set: an ordered set of hashable
// values under Python equality, insertion order preserved.
type Set struct {
	ordered
}

func (*Set) isValue() {}

// NewSet returns an empty Set ready for use.
func NewSet() *Set { return &Set{newOrdered()} }

// FrozenSet is the canonical, immutable counterpart to Set.
type FrozenSet struct {
	ordered
}

func (*FrozenSet) isValue() {}

// NewFrozenSet returns an empty FrozenSet ready for use.
func NewFrozenSet() *FrozenSet { return &FrozenSet{newOrdered()} }

// ordered implements the shared insertion-ordered hashed-membership backing
// for Set and FrozenSet.
type ordered struct {
	m     *gomap.Map[Value, struct{}]
	order []Value
}

func newOrdered() ordered {
	return ordered{m: gomap.NewHint[Value, struct{}](0, valueEqual, valueHash)}
}

// Add inserts v if not already present, returning whether it was added.
func (o *ordered) Add(v Value) bool {
	if _, had := o.m.Get(v); had {
		return false
	}
	o.m.Set(v, struct{}{})
	o.order = append(o.order, v)
	return true
}

// Has reports whether v is a member.
func (o *ordered) Has(v Value) bool {
	_, ok := o.m.Get(v)
	return ok
}

// Len returns the number of members.
func (o *ordered) Len() int { return o.m.Len() }

// Iter calls yield for every member in insertion order, stopping early if
// yield returns false.
func (o *ordered) Iter(yield func(v Value) bool) {
	for _, v := range o.order {
		if _, ok := o.m.Get(v); !ok {
			continue
		}
		if !yield(v) {
			return
		}
	}
}

func (o *ordered) String() string {
	s := "{"
	first := true
	o.Iter(func(v Value) bool {
		if !first {
			s += ", "
		}
		first = false
		s += fmt.Sprintf("%v", v)
		return true
	})
	return s + "}"
}

// isHashable reports whether a canonical Value may be used as a Dict key
// or Set/FrozenSet member. List, Dict and Set are mutable and excluded; a
// Tuple is hashable only if all its items are, and a Ref only if its Pid
// is. Everything else, including FrozenSet, is hashable.
func isHashable(v Value) bool {
	switch x := v.(type) {
	case *List, *Dict, *Set:
		return false
	case *Tuple:
		for _, item := range x.Items {
			if !isHashable(item) {
				return false
			}
		}
		return true
	case Ref:
		return isHashable(x.Pid)
	default:
		return true
	}
}

// valueEqual implements Python-style cross-type equality over the closed
// set of canonical Value variants: numeric types compare by value across
// Bool/I64/Int/F64, Bytes and String never compare equal to each other or
// to anything else, and containers compare elementwise/by-membership.
func valueEqual(xa, xb Value) bool {
	switch a := xa.(type) {
	case None:
		_, ok := xb.(None)
		return ok

	case Bool:
		return numEqual(boolToI64(bool(a)), nil, xb)
	case I64:
		return numEqual(int64(a), nil, xb)
	case Int:
		return numEqual(0, a.V, xb)
	case F64:
		return floatEqual(float64(a), xb)

	case Bytes:
		b, ok := xb.(Bytes)
		return ok && string(a) == string(b)
	case String:
		b, ok := xb.(String)
		return ok && a == b

	case *Tuple:
		b, ok := xb.(*Tuple)
		if !ok || len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !valueEqual(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true

	case *FrozenSet:
		b, ok := xb.(*FrozenSet)
		return ok && setEqual(&a.ordered, &b.ordered)

	case Ref:
		b, ok := xb.(Ref)
		return ok && valueEqual(a.Pid, b.Pid)
	}

	panic(fmt.Sprintf("unhashable type: %s", typeName(xa)))
}

func setEqual(a, b *ordered) bool {
	if a.Len() != b.Len() {
		return false
	}
	ok := true
	a.Iter(func(v Value) bool {
		if !b.Has(v) {
			ok = false
			return false
		}
		return true
	})
	return ok
}

// numEqual compares a bool/I64 value (as i, with bi nil) or a big.Int value
// (bi non-nil) against xb, which may be any numeric canonical Value.
func numEqual(i int64, bi *big.Int, xb Value) bool {
	if bi == nil {
		switch b := xb.(type) {
		case Bool:
			return i == boolToI64(bool(b))
		case I64:
			return i == int64(b)
		case Int:
			return b.V.IsInt64() && b.V.Int64() == i
		case F64:
			return float64(i) == float64(b)
		}
		return false
	}

	switch b := xb.(type) {
	case Bool:
		return bi.IsInt64() && bi.Int64() == boolToI64(bool(b))
	case I64:
		return bi.IsInt64() && bi.Int64() == int64(b)
	case Int:
		return bi.Cmp(b.V) == 0
	case F64:
		bf, acc := bigIntToFloat64(bi)
		return acc == big.Exact && bf == float64(b)
	}
	return false
}

func floatEqual(f float64, xb Value) bool {
	switch b := xb.(type) {
	case Bool:
		return f == float64(boolToI64(bool(b)))
	case I64:
		return f == float64(b)
	case Int:
		bf, acc := bigIntToFloat64(b.V)
		return acc == big.Exact && bf == f
	case F64:
		return f == float64(b)
	}
	return false
}

func bigIntToFloat64(b *big.Int) (float64, big.Accuracy) {
	f := new(big.Float).SetInt(b)
	v, acc := f.Float64()
	return v, acc
}

func boolToI64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// valueHash returns a hash of v consistent with valueEqual: equal values
// hash equal.
func valueHash(seed maphash.Seed, v Value) uint64 {
	switch x := v.(type) {
	case None:
		return 0

	case Bool:
		return hashInt(seed, boolToI64(bool(x)))
	case I64:
		return hashInt(seed, int64(x))
	case Int:
		if x.V.IsInt64() {
			return hashInt(seed, x.V.Int64())
		}
		if f, acc := bigIntToFloat64(x.V); acc == big.Exact {
			return hashFloat(seed, f)
		}
		var h maphash.Hash
		h.SetSeed(seed)
		h.WriteString("bigInt")
		h.Write(x.V.Bytes())
		return h.Sum64()
	case F64:
		return hashFloat(seed, float64(x))

	case Bytes:
		return maphash.Bytes(seed, x)
	case String:
		return maphash.String(seed, string(x))

	case *Tuple:
		var h maphash.Hash
		h.SetSeed(seed)
		h.WriteString("tuple")
		for _, item := range x.Items {
			writeUint64(&h, valueHash(seed, item))
		}
		return h.Sum64()

	case *FrozenSet:
		var h maphash.Hash
		h.SetSeed(seed)
		h.WriteString("frozenset")
		sum := uint64(0)
		x.Iter(func(v Value) bool {
			sum += valueHash(seed, v)
			return true
		})
		writeUint64(&h, sum)
		return h.Sum64()

	case Ref:
		var h maphash.Hash
		h.SetSeed(seed)
		h.WriteString("persid")
		writeUint64(&h, valueHash(seed, x.Pid))
		return h.Sum64()
	}

	panic(fmt.Sprintf("unhashable type: %s", typeName(v)))
}

func hashInt(seed maphash.Seed, i int64) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	writeUint64(&h, uint64(i))
	return h.Sum64()
}

func hashFloat(seed maphash.Seed, f float64) uint64 {
	if i := int64(f); float64(i) == f {
		return hashInt(seed, i)
	}
	var h maphash.Hash
	h.SetSeed(seed)
	writeUint64(&h, math.Float64bits(f))
	return h.Sum64()
}

func writeUint64(h *maphash.Hash, u uint64) {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> (8 * i))
	}
	h.Write(b[:])
}

// valueDeepEqual is a structural equality check over canonical Value trees,
// used by tests and the fuzz harness to assert round-trip identity.
// reflect.DeepEqual cannot be used directly: two Dicts (or Sets) built from
// the same entries in different orders, or simply seeded differently by
// maphash, are not reflect.DeepEqual even though they represent the same
// pickle value.
func valueDeepEqual(a, b Value) bool {
	switch x := a.(type) {
	case None:
		_, ok := b.(None)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case I64:
		y, ok := b.(I64)
		return ok && x == y
	case Int:
		y, ok := b.(Int)
		return ok && x.V.Cmp(y.V) == 0
	case F64:
		y, ok := b.(F64)
		return ok && x == y
	case Bytes:
		y, ok := b.(Bytes)
		return ok && string(x) == string(y)
	case String:
		y, ok := b.(String)
		return ok && x == y

	case *List:
		y, ok := b.(*List)
		return ok && valueSliceDeepEqual(x.Items, y.Items)
	case *Tuple:
		y, ok := b.(*Tuple)
		return ok && valueSliceDeepEqual(x.Items, y.Items)

	case *Dict:
		y, ok := b.(*Dict)
		if !ok || x.Len() != y.Len() {
			return false
		}
		eq := true
		x.Iter(func(k, v Value) bool {
			yv, has := y.Get(k)
			if !has || !valueDeepEqual(v, yv) {
				eq = false
				return false
			}
			return true
		})
		return eq

	case *Set:
		y, ok := b.(*Set)
		return ok && orderedDeepEqual(&x.ordered, &y.ordered)
	case *FrozenSet:
		y, ok := b.(*FrozenSet)
		return ok && orderedDeepEqual(&x.ordered, &y.ordered)

	case Ref:
		y, ok := b.(Ref)
		return ok && valueDeepEqual(x.Pid, y.Pid)
	}
	return false
}

func valueSliceDeepEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valueDeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func orderedDeepEqual(a, b *ordered) bool {
	if a.Len() != b.Len() {
		return false
	}
	eq := true
	a.Iter(func(v Value) bool {
		if !b.Has(v) {
			eq = false
			return false
		}
		return true
	})
	return eq
}
