package pickle

import "testing"

func newTestCanonicalizer(memo *memoTable, persistentLoad func(Ref) (Value, error)) *canonicalizer {
	var pos int64
	return newCanonicalizer(memo, func() int64 { return pos }, persistentLoad)
}

func TestCanonicalizeWidensSmallInt(t *testing.T) {
	c := newTestCanonicalizer(newMemoTable(), nil)
	got, err := c.value(bigIntV("42"))
	if err != nil {
		t.Fatal(err)
	}
	if i, ok := got.(I64); !ok || i != 42 {
		t.Errorf("got %#v, want I64(42)", got)
	}
}

func TestCanonicalizeKeepsBigInt(t *testing.T) {
	c := newTestCanonicalizer(newMemoTable(), nil)
	huge := bigIntV("123456789012345678901234567890")
	got, err := c.value(huge)
	if err != nil {
		t.Fatal(err)
	}
	if bi, ok := got.(Int); !ok || bi.V.Cmp(huge.(Int).V) != 0 {
		t.Errorf("got %#v, want Int(%s)", got, huge.(Int).V)
	}
}

func TestCanonicalizeDictRejectsUnhashableKey(t *testing.T) {
	c := newTestCanonicalizer(newMemoTable(), nil)
	rd := &rawDict{Keys: []Value{&rawList{}}, Values: []Value{I64(1)}}
	_, err := c.value(rd)
	if err == nil {
		t.Fatal("expected InvalidValue error for list key")
	}
	perr, ok := err.(*Error)
	if !ok || perr.Kind != InvalidValue {
		t.Fatalf("got %v, want InvalidValue", err)
	}
}

func TestCanonicalizeSetRejectsUnhashableElement(t *testing.T) {
	c := newTestCanonicalizer(newMemoTable(), nil)
	_, err := c.value(&rawSet{Items: []Value{&rawDict{}}})
	if err == nil {
		t.Fatal("expected InvalidValue error for dict element")
	}
}

func TestCanonicalizeTupleAndFrozenSetAreHashable(t *testing.T) {
	c := newTestCanonicalizer(newMemoTable(), nil)
	rd := &rawDict{
		Keys:   []Value{&rawTuple{Items: []Value{I64(1), I64(2)}}},
		Values: []Value{String("ok")},
	}
	got, err := c.value(rd)
	if err != nil {
		t.Fatal(err)
	}
	d := got.(*Dict)
	v, ok := d.Get(&Tuple{Items: []Value{I64(1), I64(2)}})
	if !ok || v != String("ok") {
		t.Errorf("got %v, %v", v, ok)
	}
}

func TestCanonicalizeUnresolvedGlobalIsError(t *testing.T) {
	c := newTestCanonicalizer(newMemoTable(), nil)
	_, err := c.value(Global{Kind: GlobalSet})
	if err == nil {
		t.Fatal("expected UnresolvedGlobal error")
	}
	perr, ok := err.(*Error)
	if !ok || perr.Kind != UnresolvedGlobal {
		t.Fatalf("got %v, want UnresolvedGlobal", err)
	}
}

func TestCanonicalizeRefWithPersistentLoad(t *testing.T) {
	hook := func(ref Ref) (Value, error) {
		id, _ := AsInt64(ref.Pid)
		return String("loaded object " + string(rune('0'+id))), nil
	}
	c := newTestCanonicalizer(newMemoTable(), hook)
	got, err := c.value(Ref{Pid: I64(7)})
	if err != nil {
		t.Fatal(err)
	}
	if got != String("loaded object 7") {
		t.Errorf("got %#v", got)
	}
}

func TestCanonicalizeRefWithoutPersistentLoad(t *testing.T) {
	c := newTestCanonicalizer(newMemoTable(), nil)
	got, err := c.value(Ref{Pid: String("oid123")})
	if err != nil {
		t.Fatal(err)
	}
	ref, ok := got.(Ref)
	if !ok || ref.Pid != String("oid123") {
		t.Errorf("got %#v", got)
	}
}
