package pickle

import (
	"io"
	"math/big"
)

// Visitor receives a single pickle value as it is parsed, without the
// decoder first materializing it as a canonical Value tree. It mirrors
// serde's Deserializer/Visitor split: a caller that only wants, say, the
// third field of a dict can stop calling MapAccess.Next once it has it,
// rather than paying for a Dict nobody keeps.
//
// Exactly one of the On* methods is called for any given value. Container
// values (List, Tuple, Set, FrozenSet map to OnSeq; Dict maps to OnMap)
// hand the visitor a SeqAccess/MapAccess that re-enters this same
// dispatch for each element, so nested structures never need a canonical
// intermediate.
type Visitor interface {
	OnNone() error
	OnBool(bool) error
	OnI64(int64) error
	OnBigInt(*big.Int) error
	OnF64(float64) error
	OnBytes([]byte) error
	OnString(string) error
	OnSeq(SeqAccess) error
	OnMap(MapAccess) error
	OnRef(Ref) error
}

// SeqAccess drives a List, Tuple, Set, or FrozenSet element by element.
type SeqAccess interface {
	// Next visits the next element with sub, if any, and reports whether
	// there was one. Once Next returns false, it must not be called again.
	Next(sub Visitor) (bool, error)
}

// MapAccess drives a Dict entry by entry.
type MapAccess interface {
	// Next visits the next entry's key and value with keyV and valueV, if
	// any, and reports whether there was one.
	Next(keyV, valueV Visitor) (bool, error)
}

// VisitBytes parses data and drives v over the single pickle value it
// contains, without building a canonical Value tree. Trailing bytes after
// STOP are rejected, exactly as in FromBytes.
func VisitBytes(data []byte, v Visitor) error {
	r := newByteReader(data)
	dec := NewDecoder(r)
	raw, err := dec.run()
	if err != nil {
		return err
	}
	if err := newVisitDriver(dec).drive(raw, v); err != nil {
		return err
	}
	if r.remaining()+dec.r.Buffered() > 0 {
		return errTrailingBytes(dec.pos)
	}
	return nil
}

// VisitReader parses a single pickle value from r and drives v over it.
func VisitReader(r io.Reader, v Visitor) error {
	dec := NewDecoder(r)
	raw, err := dec.run()
	if err != nil {
		return err
	}
	return newVisitDriver(dec).drive(raw, v)
}

type visitDriver struct {
	dec        *Decoder
	inProgress map[uint32]bool
}

func newVisitDriver(dec *Decoder) *visitDriver {
	return &visitDriver{dec: dec, inProgress: make(map[uint32]bool)}
}

func (d *visitDriver) pos() int64 { return d.dec.pos }

func (d *visitDriver) drive(raw Value, v Visitor) error {
	switch x := raw.(type) {
	case MemoRef:
		return d.driveMemoRef(uint32(x), v)

	case None:
		return v.OnNone()
	case Bool:
		return v.OnBool(bool(x))
	case I64:
		return v.OnI64(int64(x))
	case Int:
		if x.V.IsInt64() {
			return v.OnI64(x.V.Int64())
		}
		return v.OnBigInt(x.V)
	case F64:
		return v.OnF64(float64(x))
	case Bytes:
		return v.OnBytes([]byte(x))
	case String:
		return v.OnString(string(x))

	case *rawList:
		return v.OnSeq(&sliceSeqAccess{d: d, items: x.Items})
	case *rawTuple:
		return v.OnSeq(&sliceSeqAccess{d: d, items: x.Items})
	case *rawSet:
		return v.OnSeq(&sliceSeqAccess{d: d, items: x.Items})
	case *rawFrozenSet:
		return v.OnSeq(&sliceSeqAccess{d: d, items: x.Items})

	case *rawDict:
		return v.OnMap(&sliceMapAccess{d: d, keys: x.Keys, values: x.Values})

	case Ref:
		resolvedPid, err := d.resolveToValue(x.Pid)
		if err != nil {
			return err
		}
		return v.OnRef(Ref{Pid: resolvedPid})

	case Global:
		return errUnresolvedGlobal(d.pos())

	default:
		return errUnsupported(d.pos(), 0)
	}
}

// resolveToValue is used only for the payload of a persistent reference,
// which a Visitor receives as an opaque Ref rather than by further
// OnXxx dispatch — that payload is usually a short id, not a structure
// worth streaming.
func (d *visitDriver) resolveToValue(raw Value) (Value, error) {
	c := newCanonicalizer(d.dec.memo, d.pos, nil)
	return c.value(raw)
}

func (d *visitDriver) driveMemoRef(id uint32, v Visitor) error {
	if d.inProgress[id] {
		return errRecursive(d.pos())
	}
	raw, ok := d.dec.memo.peek(id)
	if !ok {
		return errMissingMemo(d.pos(), id)
	}
	d.inProgress[id] = true
	err := d.drive(raw, v)
	delete(d.inProgress, id)
	return err
}

type sliceSeqAccess struct {
	d     *visitDriver
	items []Value
	i     int
}

func (s *sliceSeqAccess) Next(sub Visitor) (bool, error) {
	if s.i >= len(s.items) {
		return false, nil
	}
	item := s.items[s.i]
	s.i++
	if err := s.d.drive(item, sub); err != nil {
		return false, err
	}
	return true, nil
}

type sliceMapAccess struct {
	d      *visitDriver
	keys   []Value
	values []Value
	i      int
}

func (m *sliceMapAccess) Next(keyV, valueV Visitor) (bool, error) {
	if m.i >= len(m.keys) {
		return false, nil
	}
	k, v := m.keys[m.i], m.values[m.i]
	m.i++
	if err := m.d.drive(k, keyV); err != nil {
		return false, err
	}
	if err := m.d.drive(v, valueV); err != nil {
		return false, err
	}
	return true, nil
}
