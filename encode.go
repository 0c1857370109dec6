package pickle

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"strings"
)

// highestProtocol is the newest pickle protocol this supplementary encoder
// can produce. Protocol 5's only addition over 4 is out-of-band buffers
// (BYTEARRAY8/NEXT_BUFFER/READONLY_BUFFER) for a bytearray type this
// decoder's canonical Value model has no counterpart for, so it is not
// offered here.
const highestProtocol = 4

// TypeError is returned when Encode is asked to serialize a Value outside
// the canonical set this package produces (see canonicalize.go).
type TypeError struct {
	typ string
}

func (te *TypeError) Error() string {
	return fmt.Sprintf("pickle: encode: no support for type '%s'", te.typ)
}

// Encoder writes canonical Value trees as pickle byte streams. It exists to
// exercise the round-trip properties a decoder wants to test against, not
// as a general Go-value serializer: callers that want to pickle an
// application struct first convert it to a Value (usually a small,
// explicit conversion function, the same shape canonicalize.go's
// conversions take).
type Encoder struct {
	w      io.Writer
	config *EncoderConfig
}

// EncoderConfig tunes an Encoder.
type EncoderConfig struct {
	// Protocol selects the pickle protocol version to emit, 0-4.
	Protocol int

	// PersistentRef, if non-nil, is consulted before encoding every value.
	// If it returns a non-nil Ref, that reference is emitted in place of
	// the value.
	PersistentRef func(Value) *Ref
}

// NewEncoder returns an Encoder writing protocol 2, which both Python 2
// and Python 3 can read.
func NewEncoder(w io.Writer) *Encoder {
	return NewEncoderWithConfig(w, &EncoderConfig{Protocol: 2})
}

// NewEncoderWithConfig is like NewEncoder but lets the caller tune config.
func NewEncoderWithConfig(w io.Writer, config *EncoderConfig) *Encoder {
	return &Encoder{w: w, config: config}
}

// Encode writes the pickle encoding of v.
func (e *Encoder) Encode(v Value) error {
	proto := e.config.Protocol
	if !(0 <= proto && proto <= highestProtocol) {
		return fmt.Errorf("pickle: encode: invalid protocol %d", proto)
	}
	if proto >= 2 {
		if err := e.emit(byte(opProto), byte(proto)); err != nil {
			return err
		}
	}
	if err := e.encode(v); err != nil {
		return err
	}
	return e.emit(byte(opStop))
}

func (e *Encoder) emitb(b []byte) error {
	_, err := e.w.Write(b)
	return err
}

func (e *Encoder) emits(s string) error {
	return e.emitb([]byte(s))
}

func (e *Encoder) emit(bv ...byte) error {
	return e.emitb(bv)
}

func (e *Encoder) emitf(format string, argv ...interface{}) error {
	_, err := fmt.Fprintf(e.w, format, argv...)
	return err
}

func (e *Encoder) encode(v Value) error {
	if getref := e.config.PersistentRef; getref != nil {
		if _, isRef := v.(Ref); !isRef {
			if ref := getref(v); ref != nil {
				return e.encodeRef(ref)
			}
		}
	}

	switch x := v.(type) {
	case None:
		return e.emit(byte(opNone))
	case Bool:
		return e.encodeBool(bool(x))
	case I64:
		return e.encodeInt(int64(x))
	case Int:
		return e.encodeLong(x.V)
	case F64:
		return e.encodeFloat(float64(x))
	case Bytes:
		return e.encodeBytes([]byte(x))
	case String:
		return e.encodeUnicode(string(x))
	case *List:
		return e.encodeList(x.Items)
	case *Tuple:
		return e.encodeTuple(x.Items)
	case *Dict:
		return e.encodeDict(x)
	case *Set:
		return e.encodeSet(&x.ordered, false)
	case *FrozenSet:
		return e.encodeSet(&x.ordered, true)
	case Ref:
		return e.encodeRef(&x)
	default:
		return &TypeError{typ: typeName(v)}
	}
}

func (e *Encoder) encodeTuple(items []Value) error {
	l := len(items)

	if e.config.Protocol >= 2 && 1 <= l && l <= 3 {
		for _, item := range items {
			if err := e.encode(item); err != nil {
				return err
			}
		}
		var op Opcode
		switch l {
		case 1:
			op = opTuple1
		case 2:
			op = opTuple2
		case 3:
			op = opTuple3
		}
		return e.emit(byte(op))
	}

	if e.config.Protocol >= 1 && l == 0 {
		return e.emit(byte(opEmptyTuple))
	}

	if err := e.emit(byte(opMark)); err != nil {
		return err
	}
	for _, item := range items {
		if err := e.encode(item); err != nil {
			return err
		}
	}
	return e.emit(byte(opTuple))
}

func (e *Encoder) encodeList(items []Value) error {
	if e.config.Protocol >= 1 && len(items) == 0 {
		return e.emit(byte(opEmptyList))
	}
	if err := e.emit(byte(opMark)); err != nil {
		return err
	}
	for _, item := range items {
		if err := e.encode(item); err != nil {
			return err
		}
	}
	return e.emit(byte(opList))
}

func (e *Encoder) encodeBool(b bool) error {
	if e.config.Protocol >= 2 {
		op := opNewFalse
		if b {
			op = opNewTrue
		}
		return e.emit(byte(op))
	}
	if b {
		return e.emits("I01\n")
	}
	return e.emits("I00\n")
}

func (e *Encoder) encodeBytes(byt []byte) error {
	l := len(byt)

	if e.config.Protocol >= 3 {
		if l < 256 {
			return e.emit(byte(opShortBinBytes), byte(l))
		}
		b := make([]byte, 5)
		b[0] = byte(opBinBytes)
		binary.LittleEndian.PutUint32(b[1:], uint32(l))
		if err := e.emitb(b); err != nil {
			return err
		}
		return e.emitb(byt)
	}

	// protocol 0-2: Python 3's pickler falls back to
	// _codecs.encode('latin1 decoded text', 'latin1') for bytes objects.
	runes := make([]rune, l)
	for i, c := range byt {
		runes[i] = rune(c)
	}
	return e.encodeCall(Global{Kind: GlobalEncode}, []Value{String(runes), String("latin1")})
}

func (e *Encoder) encodeString(s string) error {
	if e.config.Protocol >= 3 {
		return e.encodeUnicode(s)
	}

	l := len(s)
	if e.config.Protocol >= 1 {
		if l < 256 {
			if err := e.emit(byte(opShortBinString), byte(l)); err != nil {
				return err
			}
		} else {
			b := make([]byte, 5)
			b[0] = byte(opBinString)
			binary.LittleEndian.PutUint32(b[1:], uint32(l))
			if err := e.emitb(b); err != nil {
				return err
			}
		}
		return e.emits(s)
	}

	return e.emitf("%c%s\n", byte(opString), pyquote(s))
}

func (e *Encoder) encodeUnicode(s string) error {
	if e.config.Protocol >= 1 {
		l := len(s)
		if l < 256 && e.config.Protocol >= 4 {
			if err := e.emit(byte(opShortBinUnicode), byte(l)); err != nil {
				return err
			}
		} else {
			b := make([]byte, 5)
			b[0] = byte(opBinUnicode)
			binary.LittleEndian.PutUint32(b[1:], uint32(l))
			if err := e.emitb(b); err != nil {
				return err
			}
		}
		return e.emits(s)
	}

	return e.emitf("%c%s\n", byte(opUnicode), pyencodeRawUnicodeEscape(s))
}

func (e *Encoder) encodeFloat(f float64) error {
	if e.config.Protocol >= 1 {
		b := make([]byte, 9)
		b[0] = byte(opBinFloat)
		binary.BigEndian.PutUint64(b[1:], math.Float64bits(f))
		return e.emitb(b)
	}
	return e.emitf("%c%g\n", byte(opFloat), f)
}

func (e *Encoder) encodeInt(i int64) error {
	if e.config.Protocol >= 1 {
		switch {
		case i >= 0 && i < math.MaxUint8:
			return e.emit(byte(opBinInt1), byte(i))
		case i >= 0 && i < math.MaxUint16:
			return e.emit(byte(opBinInt2), byte(i), byte(i>>8))
		case i >= math.MinInt32 && i <= math.MaxInt32:
			b := make([]byte, 5)
			b[0] = byte(opBinInt)
			binary.LittleEndian.PutUint32(b[1:], uint32(int32(i)))
			return e.emitb(b)
		}
	}
	return e.emitf("%c%d\n", byte(opInt), i)
}

func (e *Encoder) encodeLong(b *big.Int) error {
	if e.config.Protocol >= 2 {
		data := encodeBinaryLong(b)
		if len(data) < 256 {
			if err := e.emit(byte(opLong1), byte(len(data))); err != nil {
				return err
			}
			return e.emitb(data)
		}
		buf := make([]byte, 5)
		buf[0] = byte(opLong4)
		binary.LittleEndian.PutUint32(buf[1:], uint32(len(data)))
		if err := e.emitb(buf); err != nil {
			return err
		}
		return e.emitb(data)
	}
	return e.emitf("%c%dL\n", byte(opLong), b)
}

// encodeBinaryLong is the inverse of decodeBinaryLong: little-endian
// two's-complement encoding of an arbitrary-precision integer.
func encodeBinaryLong(v *big.Int) []byte {
	if v.Sign() == 0 {
		return nil
	}

	abs := new(big.Int).Abs(v)
	nbytes := (abs.BitLen() / 8) + 1
	be := abs.FillBytes(make([]byte, nbytes))

	if v.Sign() < 0 {
		full := new(big.Int).Lsh(big.NewInt(1), uint(nbytes)*8)
		twos := new(big.Int).Add(full, v)
		be = twos.FillBytes(make([]byte, nbytes))
	}
	if v.Sign() > 0 && be[0]&0x80 != 0 {
		be = append([]byte{0}, be...)
	}

	le := make([]byte, len(be))
	for i, b := range be {
		le[len(be)-1-i] = b
	}
	// trim redundant leading (i.e. trailing, once reversed back) sign bytes
	for len(le) > 1 {
		last := le[len(le)-1]
		prev := le[len(le)-2]
		signExtension := (last == 0x00 && prev&0x80 == 0) || (last == 0xff && prev&0x80 != 0)
		if !signExtension {
			break
		}
		le = le[:len(le)-1]
	}
	return le
}

func (e *Encoder) encodeDict(d *Dict) error {
	if e.config.Protocol >= 1 && d.Len() == 0 {
		return e.emit(byte(opEmptyDict))
	}
	if err := e.emit(byte(opMark)); err != nil {
		return err
	}
	var encErr error
	d.Iter(func(k, v Value) bool {
		if err := e.encode(k); err != nil {
			encErr = err
			return false
		}
		if err := e.encode(v); err != nil {
			encErr = err
			return false
		}
		return true
	})
	if encErr != nil {
		return encErr
	}
	return e.emit(byte(opDict))
}

func (e *Encoder) encodeSet(o *ordered, frozen bool) error {
	// protocol 4 has native SET/FROZENSET framing; earlier protocols
	// represent both as REDUCE(builtins.set/frozenset, (list,)).
	if e.config.Protocol >= 4 {
		if !frozen {
			if err := e.emit(byte(opEmptySet)); err != nil {
				return err
			}
			if o.Len() == 0 {
				return nil
			}
			if err := e.emit(byte(opMark)); err != nil {
				return err
			}
			var encErr error
			o.Iter(func(v Value) bool {
				if err := e.encode(v); err != nil {
					encErr = err
					return false
				}
				return true
			})
			if encErr != nil {
				return encErr
			}
			return e.emit(byte(opAddItems))
		}

		if err := e.emit(byte(opMark)); err != nil {
			return err
		}
		var encErr error
		o.Iter(func(v Value) bool {
			if err := e.encode(v); err != nil {
				encErr = err
				return false
			}
			return true
		})
		if encErr != nil {
			return encErr
		}
		return e.emit(byte(opFrozenSet))
	}

	items := make([]Value, 0, o.Len())
	o.Iter(func(v Value) bool {
		items = append(items, v)
		return true
	})
	kind := GlobalSet
	if frozen {
		kind = GlobalFrozenset
	}
	return e.encodeCall(Global{Kind: kind}, []Value{&List{Items: items}})
}

func (e *Encoder) encodeCall(callable Global, args []Value) error {
	if err := e.encodeGlobal(callable); err != nil {
		return err
	}
	if err := e.encodeTuple(args); err != nil {
		return err
	}
	return e.emit(byte(opReduce))
}

var errP0123GlobalStringLineOnly = errors.New(`pickle: encode: protocol 0-3: global module & name must not contain '\n'`)

func (e *Encoder) encodeGlobal(g Global) error {
	module, name := globalName(g.Kind)

	if e.config.Protocol >= 4 {
		if err := e.encodeString(module); err != nil {
			return err
		}
		if err := e.encodeString(name); err != nil {
			return err
		}
		return e.emit(byte(opStackGlobal))
	}

	if strings.Contains(module, "\n") || strings.Contains(name, "\n") {
		return errP0123GlobalStringLineOnly
	}
	return e.emitf("%c%s\n%s\n", byte(opGlobal), module, name)
}

func globalName(k GlobalKind) (module, name string) {
	switch k {
	case GlobalSet:
		return "builtins", "set"
	case GlobalFrozenset:
		return "builtins", "frozenset"
	case GlobalEncode:
		return "_codecs", "encode"
	}
	return "", ""
}

var errP0PersIDStringLineOnly = errors.New(`pickle: encode: protocol 0: persistent id must be a string without '\n'`)

func (e *Encoder) encodeRef(v *Ref) error {
	if e.config.Protocol == 0 {
		s, ok := v.Pid.(String)
		if !ok || strings.Contains(string(s), "\n") {
			return errP0PersIDStringLineOnly
		}
		return e.emitf("%c%s\n", byte(opPersid), string(s))
	}

	if err := e.encode(v.Pid); err != nil {
		return err
	}
	return e.emit(byte(opBinPersid))
}
