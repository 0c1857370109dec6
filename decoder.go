package pickle

import (
	"bufio"
	"io"
	"math"
)

// Opcode is a single pickle instruction byte.
type Opcode byte

// The full opcode set across protocols 0-5. Names follow CPython's
// pickle.py and de.rs's opcode match arms.
const (
	opMark            Opcode = '('
	opStop            Opcode = '.'
	opPop             Opcode = '0'
	opPopMark         Opcode = '1'
	opDup             Opcode = '2'
	opFloat           Opcode = 'F'
	opInt             Opcode = 'I'
	opBinInt          Opcode = 'J'
	opBinInt1         Opcode = 'K'
	opLong            Opcode = 'L'
	opBinInt2         Opcode = 'M'
	opNone            Opcode = 'N'
	opPersid          Opcode = 'P'
	opBinPersid       Opcode = 'Q'
	opReduce          Opcode = 'R'
	opString          Opcode = 'S'
	opBinString       Opcode = 'T'
	opShortBinString  Opcode = 'U'
	opUnicode         Opcode = 'V'
	opBinUnicode      Opcode = 'X'
	opAppend          Opcode = 'a'
	opBuild           Opcode = 'b'
	opGlobal          Opcode = 'c'
	opDict            Opcode = 'd'
	opEmptyDict       Opcode = '}'
	opAppends         Opcode = 'e'
	opGet             Opcode = 'g'
	opBinGet          Opcode = 'h'
	opInst            Opcode = 'i'
	opLongBinGet      Opcode = 'j'
	opList            Opcode = 'l'
	opEmptyList       Opcode = ']'
	opObj             Opcode = 'o'
	opPut             Opcode = 'p'
	opBinPut          Opcode = 'q'
	opLongBinPut      Opcode = 'r'
	opSetItem         Opcode = 's'
	opTuple           Opcode = 't'
	opEmptyTuple      Opcode = ')'
	opSetItems        Opcode = 'u'
	opBinFloat        Opcode = 'G'

	opProto           Opcode = 0x80
	opNewObj          Opcode = 0x81
	opExt1            Opcode = 0x82
	opExt2            Opcode = 0x83
	opExt4            Opcode = 0x84
	opTuple1          Opcode = 0x85
	opTuple2          Opcode = 0x86
	opTuple3          Opcode = 0x87
	opNewTrue         Opcode = 0x88
	opNewFalse        Opcode = 0x89
	opLong1           Opcode = 0x8a
	opLong4           Opcode = 0x8b

	opBinBytes        Opcode = 'B'
	opShortBinBytes   Opcode = 'C'

	opShortBinUnicode Opcode = 0x8c
	opBinUnicode8     Opcode = 0x8d
	opBinBytes8       Opcode = 0x8e
	opEmptySet        Opcode = 0x8f
	opAddItems        Opcode = 0x90
	opFrozenSet       Opcode = 0x91
	opNewObjEx        Opcode = 0x92
	opStackGlobal     Opcode = 0x93
	opMemoize         Opcode = 0x94
	opFrame           Opcode = 0x95

	opByteArray8      Opcode = 0x96
	opNextBuffer      Opcode = 0x97
	opReadonlyBuffer  Opcode = 0x98
)

// DecoderConfig holds optional behavior for a Decoder.
type DecoderConfig struct {
	// PersistentLoad resolves a persistent reference produced by PERSID or
	// BINPERSID. If nil, persistent references survive decoding as an
	// opaque, comparable Ref value.
	PersistentLoad func(Ref) (Value, error)

	// DecodeStrings selects how the legacy STRING/BINSTRING/SHORT_BINSTRING
	// opcodes are decoded. These opcodes predate pickle's bytes/str split
	// and carry no encoding information of their own; by default their
	// payload decodes to Bytes. When DecodeStrings is true, it instead
	// decodes to String, validated as UTF-8 (StringNotUTF8 if it isn't).
	DecodeStrings bool
}

// Decoder reads a single pickle value from a byte stream, protocols 0-4.
// The protocol-5 opcodes BYTEARRAY8, NEXT_BUFFER and READONLY_BUFFER are
// rejected with an Unsupported error.
type Decoder struct {
	r      *bufio.Reader
	pos    int64
	stack  []Value
	marks  []int
	memo   *memoTable
	config *DecoderConfig
}

// NewDecoder returns a Decoder with default configuration.
func NewDecoder(r io.Reader) *Decoder {
	return NewDecoderWithConfig(r, nil)
}

// NewDecoderWithConfig returns a Decoder using cfg. A nil cfg is
// equivalent to NewDecoder.
func NewDecoderWithConfig(r io.Reader, cfg *DecoderConfig) *Decoder {
	if cfg == nil {
		cfg = &DecoderConfig{}
	}
	return &Decoder{
		r:      bufio.NewReader(r),
		memo:   newMemoTable(),
		config: cfg,
	}
}

// FromBytes decodes a single pickle value from data, rejecting any trailing
// bytes after the STOP opcode.
func FromBytes(data []byte) (Value, error) {
	r := newByteReader(data)
	dec := NewDecoder(r)
	v, err := dec.Decode()
	if err != nil {
		return nil, err
	}
	// dec.r may have buffered ahead of what Decode actually consumed, so
	// trailing input can hide inside bufio's own buffer as well as in the
	// still-unread tail of the underlying byteReader.
	if r.remaining()+dec.r.Buffered() > 0 {
		return nil, errTrailingBytes(dec.pos)
	}
	return v, nil
}

// FromReader decodes a single pickle value from r. Unlike FromBytes it does
// not check for trailing data, since r may be an open-ended stream; callers
// that need the check can wrap r and inspect it themselves.
func FromReader(r io.Reader) (Value, error) {
	return NewDecoder(r).Decode()
}

// byteReader is a minimal io.Reader over an in-memory slice that lets
// FromBytes detect trailing input after STOP without consuming it through
// the Decoder's own buffering.
type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader { return &byteReader{data: data} }

func (b *byteReader) Read(p []byte) (int, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}

func (b *byteReader) remaining() int { return len(b.data) - b.pos }

// Decode reads and returns one complete, canonicalized pickle value.
func (d *Decoder) Decode() (Value, error) {
	v, err := d.run()
	if err != nil {
		return nil, err
	}
	c := newCanonicalizer(d.memo, func() int64 { return d.pos }, d.config.PersistentLoad)
	return c.value(v)
}

// run executes the opcode dispatch loop and returns the intermediate value
// left on the stack by STOP, uncanonicalized.
func (d *Decoder) run() (Value, error) {
	for {
		op, err := d.readOpcode()
		if err != nil {
			return nil, err
		}

		switch op {
		case opStop:
			return d.pop()

		case opProto:
			if _, err := d.readByte(); err != nil {
				return nil, err
			}

		case opFrame:
			if _, err := d.readUint64(); err != nil {
				return nil, err
			}

		case opMark:
			d.mark()

		case opPop:
			// With nothing pushed since the last MARK, POP discards that MARK.
			if n := len(d.marks); n > 0 && d.marks[n-1] == len(d.stack) {
				d.marks = d.marks[:n-1]
			} else if _, err := d.pop(); err != nil {
				return nil, err
			}

		case opPopMark:
			if _, err := d.popMark(); err != nil {
				return nil, err
			}

		case opDup:
			v, err := d.top()
			if err != nil {
				return nil, err
			}
			d.push(v)

		case opNone:
			d.push(None{})

		case opNewTrue:
			d.push(Bool(true))

		case opNewFalse:
			d.push(Bool(false))

		case opInt:
			line, err := d.readLine()
			if err != nil {
				return nil, err
			}
			v, err := decodeTextInt(d.pos, line)
			if err != nil {
				return nil, err
			}
			d.push(v)

		case opLong:
			line, err := d.readLine()
			if err != nil {
				return nil, err
			}
			v, err := decodeTextLong(d.pos, line)
			if err != nil {
				return nil, err
			}
			d.push(v)

		case opLong1:
			if err := d.loadLongN(false); err != nil {
				return nil, err
			}

		case opLong4:
			if err := d.loadLongN(true); err != nil {
				return nil, err
			}

		case opFloat:
			line, err := d.readLine()
			if err != nil {
				return nil, err
			}
			v, err := decodeTextFloat(d.pos, line)
			if err != nil {
				return nil, err
			}
			d.push(v)

		case opBinFloat:
			f, err := d.readFloat64BE()
			if err != nil {
				return nil, err
			}
			d.push(F64(f))

		case opBinInt:
			n, err := d.readInt32()
			if err != nil {
				return nil, err
			}
			d.push(I64(n))

		case opBinInt1:
			b, err := d.readByte()
			if err != nil {
				return nil, err
			}
			d.push(I64(b))

		case opBinInt2:
			n, err := d.readUint16()
			if err != nil {
				return nil, err
			}
			d.push(I64(n))

		case opString:
			line, err := d.readLine()
			if err != nil {
				return nil, err
			}
			b, err := decodeQuotedString(d.pos, line)
			if err != nil {
				return nil, err
			}
			if err := d.pushLegacyString(b); err != nil {
				return nil, err
			}

		case opBinString:
			n, err := d.readInt32()
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, errNegativeLength(d.pos)
			}
			b, err := d.readBytes(int(n))
			if err != nil {
				return nil, err
			}
			if err := d.pushLegacyString(b); err != nil {
				return nil, err
			}

		case opShortBinString:
			n, err := d.readByte()
			if err != nil {
				return nil, err
			}
			b, err := d.readBytes(int(n))
			if err != nil {
				return nil, err
			}
			if err := d.pushLegacyString(b); err != nil {
				return nil, err
			}

		case opBinBytes:
			n, err := d.readUint32()
			if err != nil {
				return nil, err
			}
			b, err := d.readBytes(int(n))
			if err != nil {
				return nil, err
			}
			d.push(Bytes(b))

		case opShortBinBytes:
			n, err := d.readByte()
			if err != nil {
				return nil, err
			}
			b, err := d.readBytes(int(n))
			if err != nil {
				return nil, err
			}
			d.push(Bytes(b))

		case opBinBytes8:
			n, err := d.readUint64()
			if err != nil {
				return nil, err
			}
			b, err := d.readBytes(int(n))
			if err != nil {
				return nil, err
			}
			d.push(Bytes(b))

		case opUnicode:
			line, err := d.readLine()
			if err != nil {
				return nil, err
			}
			s, err := decodeRawUnicodeEscape(d.pos, line)
			if err != nil {
				return nil, err
			}
			d.push(String(s))

		case opBinUnicode:
			n, err := d.readUint32()
			if err != nil {
				return nil, err
			}
			b, err := d.readBytes(int(n))
			if err != nil {
				return nil, err
			}
			s, err := decodeUTF8(d.pos, b)
			if err != nil {
				return nil, err
			}
			d.push(String(s))

		case opShortBinUnicode:
			n, err := d.readByte()
			if err != nil {
				return nil, err
			}
			b, err := d.readBytes(int(n))
			if err != nil {
				return nil, err
			}
			s, err := decodeUTF8(d.pos, b)
			if err != nil {
				return nil, err
			}
			d.push(String(s))

		case opBinUnicode8:
			n, err := d.readUint64()
			if err != nil {
				return nil, err
			}
			b, err := d.readBytes(int(n))
			if err != nil {
				return nil, err
			}
			s, err := decodeUTF8(d.pos, b)
			if err != nil {
				return nil, err
			}
			d.push(String(s))

		case opEmptyList:
			d.push(&rawList{})

		case opList:
			items, err := d.popMark()
			if err != nil {
				return nil, err
			}
			d.push(&rawList{Items: items})

		case opAppend:
			v, err := d.pop()
			if err != nil {
				return nil, err
			}
			lst, err := d.topList()
			if err != nil {
				return nil, err
			}
			lst.Items = append(lst.Items, v)

		case opAppends:
			items, err := d.popMark()
			if err != nil {
				return nil, err
			}
			lst, err := d.topList()
			if err != nil {
				return nil, err
			}
			lst.Items = append(lst.Items, items...)

		case opEmptyTuple:
			d.push(&rawTuple{})

		case opTuple:
			items, err := d.popMark()
			if err != nil {
				return nil, err
			}
			d.push(&rawTuple{Items: items})

		case opTuple1:
			a, err := d.pop()
			if err != nil {
				return nil, err
			}
			d.push(&rawTuple{Items: []Value{a}})

		case opTuple2:
			b, err := d.pop()
			if err != nil {
				return nil, err
			}
			a, err := d.pop()
			if err != nil {
				return nil, err
			}
			d.push(&rawTuple{Items: []Value{a, b}})

		case opTuple3:
			c, err := d.pop()
			if err != nil {
				return nil, err
			}
			b, err := d.pop()
			if err != nil {
				return nil, err
			}
			a, err := d.pop()
			if err != nil {
				return nil, err
			}
			d.push(&rawTuple{Items: []Value{a, b, c}})

		case opEmptyDict:
			d.push(&rawDict{})

		case opDict:
			items, err := d.popMark()
			if err != nil {
				return nil, err
			}
			if len(items)%2 != 0 {
				return nil, errInvalidStackTop(d.pos, "even number of dict items", "odd number")
			}
			rd := &rawDict{}
			for i := 0; i < len(items); i += 2 {
				rd.Keys = append(rd.Keys, items[i])
				rd.Values = append(rd.Values, items[i+1])
			}
			d.push(rd)

		case opSetItem:
			v, err := d.pop()
			if err != nil {
				return nil, err
			}
			k, err := d.pop()
			if err != nil {
				return nil, err
			}
			rd, err := d.topDict()
			if err != nil {
				return nil, err
			}
			rd.Keys = append(rd.Keys, k)
			rd.Values = append(rd.Values, v)

		case opSetItems:
			items, err := d.popMark()
			if err != nil {
				return nil, err
			}
			if len(items)%2 != 0 {
				return nil, errInvalidStackTop(d.pos, "even number of dict items", "odd number")
			}
			rd, err := d.topDict()
			if err != nil {
				return nil, err
			}
			for i := 0; i < len(items); i += 2 {
				rd.Keys = append(rd.Keys, items[i])
				rd.Values = append(rd.Values, items[i+1])
			}

		case opEmptySet:
			d.push(&rawSet{})

		case opAddItems:
			items, err := d.popMark()
			if err != nil {
				return nil, err
			}
			rs, err := d.topSet()
			if err != nil {
				return nil, err
			}
			rs.Items = append(rs.Items, items...)

		case opFrozenSet:
			items, err := d.popMark()
			if err != nil {
				return nil, err
			}
			d.push(&rawFrozenSet{Items: items})

		case opGet:
			line, err := d.readLine()
			if err != nil {
				return nil, err
			}
			id, err := parseMemoID(d.pos, line)
			if err != nil {
				return nil, err
			}
			d.push(d.memo.ref(id))

		case opBinGet:
			b, err := d.readByte()
			if err != nil {
				return nil, err
			}
			d.push(d.memo.ref(uint32(b)))

		case opLongBinGet:
			n, err := d.readUint32()
			if err != nil {
				return nil, err
			}
			d.push(d.memo.ref(n))

		case opPut:
			line, err := d.readLine()
			if err != nil {
				return nil, err
			}
			id, err := parseMemoID(d.pos, line)
			if err != nil {
				return nil, err
			}
			v, err := d.top()
			if err != nil {
				return nil, err
			}
			d.memo.put(id, v)

		case opBinPut:
			b, err := d.readByte()
			if err != nil {
				return nil, err
			}
			v, err := d.top()
			if err != nil {
				return nil, err
			}
			d.memo.put(uint32(b), v)

		case opLongBinPut:
			n, err := d.readUint32()
			if err != nil {
				return nil, err
			}
			v, err := d.top()
			if err != nil {
				return nil, err
			}
			d.memo.put(n, v)

		case opMemoize:
			v, err := d.top()
			if err != nil {
				return nil, err
			}
			// MEMOIZE's id is the number of entries already in the memo.
			d.memo.put(uint32(len(d.memo.slots)), v)

		case opPersid:
			line, err := d.readLine()
			if err != nil {
				return nil, err
			}
			d.push(Ref{Pid: String(line)})

		case opBinPersid:
			pid, err := d.pop()
			if err != nil {
				return nil, err
			}
			d.push(Ref{Pid: pid})

		case opGlobal:
			modLine, err := d.readLine()
			if err != nil {
				return nil, err
			}
			nameLine, err := d.readLine()
			if err != nil {
				return nil, err
			}
			g, err := decodeGlobal(d.pos, string(modLine), string(nameLine))
			if err != nil {
				return nil, err
			}
			d.push(g)

		case opStackGlobal:
			nameV, err := d.pop()
			if err != nil {
				return nil, err
			}
			modV, err := d.pop()
			if err != nil {
				return nil, err
			}
			name, ok := nameV.(String)
			if !ok {
				return nil, errInvalidStackTop(d.pos, "string", typeName(nameV))
			}
			mod, ok := modV.(String)
			if !ok {
				return nil, errInvalidStackTop(d.pos, "string", typeName(modV))
			}
			g, err := decodeGlobal(d.pos, string(mod), string(name))
			if err != nil {
				return nil, err
			}
			d.push(g)

		case opReduce:
			argsV, err := d.pop()
			if err != nil {
				return nil, err
			}
			callableV, err := d.pop()
			if err != nil {
				return nil, err
			}
			g, ok := callableV.(Global)
			if !ok {
				return nil, errInvalidStackTop(d.pos, "global", typeName(callableV))
			}
			args, ok := argsV.(*rawTuple)
			if !ok {
				return nil, errInvalidStackTop(d.pos, "tuple", typeName(argsV))
			}
			v, err := reduceApply(d.pos, d.memo, g, args)
			if err != nil {
				return nil, err
			}
			d.push(v)

		case opBuild, opInst, opObj, opNewObj, opNewObjEx, opExt1, opExt2, opExt4:
			return nil, errUnsupported(d.pos, byte(op))

		case opNextBuffer, opReadonlyBuffer:
			return nil, errUnsupported(d.pos, byte(op))

		default:
			return nil, errUnsupported(d.pos, byte(op))
		}
	}
}

func (d *Decoder) readOpcode() (Opcode, error) {
	b, err := d.readByte()
	if err != nil {
		return 0, err
	}
	return Opcode(b), nil
}

func (d *Decoder) push(v Value) { d.stack = append(d.stack, v) }

func (d *Decoder) pop() (Value, error) {
	if len(d.stack) == 0 {
		return nil, errStackUnderflow(d.pos)
	}
	v := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	return v, nil
}

func (d *Decoder) top() (Value, error) {
	if len(d.stack) == 0 {
		return nil, errStackUnderflow(d.pos)
	}
	return d.stack[len(d.stack)-1], nil
}

func (d *Decoder) topList() (*rawList, error) {
	v, err := d.top()
	if err != nil {
		return nil, err
	}
	lst, ok := v.(*rawList)
	if !ok {
		return nil, errInvalidStackTop(d.pos, "list", typeName(v))
	}
	return lst, nil
}

func (d *Decoder) topDict() (*rawDict, error) {
	v, err := d.top()
	if err != nil {
		return nil, err
	}
	rd, ok := v.(*rawDict)
	if !ok {
		return nil, errInvalidStackTop(d.pos, "dict", typeName(v))
	}
	return rd, nil
}

func (d *Decoder) topSet() (*rawSet, error) {
	v, err := d.top()
	if err != nil {
		return nil, err
	}
	rs, ok := v.(*rawSet)
	if !ok {
		return nil, errInvalidStackTop(d.pos, "set", typeName(v))
	}
	return rs, nil
}

func (d *Decoder) mark() { d.marks = append(d.marks, len(d.stack)) }

func (d *Decoder) popMark() ([]Value, error) {
	if len(d.marks) == 0 {
		return nil, errStackUnderflow(d.pos)
	}
	m := d.marks[len(d.marks)-1]
	d.marks = d.marks[:len(d.marks)-1]
	if m > len(d.stack) {
		return nil, errStackUnderflow(d.pos)
	}
	items := append([]Value(nil), d.stack[m:]...)
	d.stack = d.stack[:m]
	return items, nil
}

func (d *Decoder) loadLongN(is4 bool) error {
	var n int
	if is4 {
		raw, err := d.readInt32()
		if err != nil {
			return err
		}
		if raw < 0 {
			return errNegativeLength(d.pos)
		}
		n = int(raw)
	} else {
		b, err := d.readByte()
		if err != nil {
			return err
		}
		n = int(b)
	}
	data, err := d.readBytes(n)
	if err != nil {
		return err
	}
	v := decodeBinaryLong(data)
	d.push(Int{V: v})
	return nil
}

func (d *Decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, d.ioErr(err)
	}
	d.pos++
	return b, nil
}

func (d *Decoder) readBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, errNegativeLength(d.pos)
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return nil, d.ioErr(err)
		}
	}
	d.pos += int64(n)
	return buf, nil
}

// readLine reads up to and including a newline, returning the line without
// the terminator. Pickle's ASCII opcodes are always newline-terminated.
func (d *Decoder) readLine() ([]byte, error) {
	line, err := d.r.ReadString('\n')
	if err != nil {
		return nil, d.ioErr(err)
	}
	d.pos += int64(len(line))
	line = line[:len(line)-1]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return []byte(line), nil
}

func (d *Decoder) readUint16() (uint16, error) {
	b, err := d.readBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

func (d *Decoder) readUint32() (uint32, error) {
	b, err := d.readBytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

func (d *Decoder) readInt32() (int32, error) {
	u, err := d.readUint32()
	return int32(u), err
}

func (d *Decoder) readUint64() (uint64, error) {
	b, err := d.readBytes(8)
	if err != nil {
		return 0, err
	}
	var u uint64
	for i := 7; i >= 0; i-- {
		u = u<<8 | uint64(b[i])
	}
	return u, nil
}

func (d *Decoder) readFloat64BE() (float64, error) {
	b, err := d.readBytes(8)
	if err != nil {
		return 0, err
	}
	var bits uint64
	for i := 0; i < 8; i++ {
		bits = bits<<8 | uint64(b[i])
	}
	return math.Float64frombits(bits), nil
}

func (d *Decoder) ioErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errEOF(d.pos)
	}
	return errIO(d.pos, err)
}

func parseMemoID(pos int64, line []byte) (uint32, error) {
	var n uint32
	if len(line) == 0 {
		return 0, errInvalidLiteral(pos, line)
	}
	for _, c := range line {
		if c < '0' || c > '9' {
			return 0, errInvalidLiteral(pos, line)
		}
		n = n*10 + uint32(c-'0')
	}
	return n, nil
}

// decodeQuotedString decodes the payload of the ASCII STRING opcode, which
// CPython's pickler writes Python-repr-quoted (leading/trailing matching
// quote characters) before the backslash escapes handled by
// decodeStringEscape. It returns the raw decoded bytes; the caller decides
// whether those bytes become Bytes or (DecodeStrings) text.
func decodeQuotedString(pos int64, line []byte) ([]byte, error) {
	if len(line) < 2 {
		return nil, errInvalidLiteral(pos, line)
	}
	q := line[0]
	if (q != '\'' && q != '"') || line[len(line)-1] != q {
		return nil, errInvalidLiteral(pos, line)
	}
	return decodeStringEscape(pos, line[1:len(line)-1])
}

// pushLegacyString pushes a STRING/BINSTRING/SHORT_BINSTRING payload,
// decoding it as Bytes or, when the decoder is configured for
// DecodeStrings, as UTF-8 text.
func (d *Decoder) pushLegacyString(b []byte) error {
	if d.config != nil && d.config.DecodeStrings {
		s, err := decodeUTF8(d.pos, b)
		if err != nil {
			return err
		}
		d.push(String(s))
		return nil
	}
	d.push(Bytes(b))
	return nil
}

// decodeGlobal maps a (module, name) pair to one of the three reductions
// this decoder supports. Anything else is UnsupportedGlobal.
func decodeGlobal(pos int64, module, name string) (Global, error) {
	switch module {
	case "__builtin__", "builtins":
		switch name {
		case "set":
			return Global{Kind: GlobalSet}, nil
		case "frozenset":
			return Global{Kind: GlobalFrozenset}, nil
		}
	case "_codecs":
		if name == "encode" {
			return Global{Kind: GlobalEncode}, nil
		}
	}
	return Global{}, errUnsupportedGlobal(pos, module, name)
}

// reduceApply implements REDUCE for the three Global kinds this decoder
// resolves, per de.rs's reduce_global. Each argument is resolved through the memo first, since an argument supplied
// via a GET/BINGET back-reference arrives as a MemoRef rather than the
// inline value (de.rs:745's self.resolve(argtuple.pop())).
func reduceApply(pos int64, memo *memoTable, g Global, args *rawTuple) (Value, error) {
	resolved := make([]Value, len(args.Items))
	for i, a := range args.Items {
		resolved[i] = memo.resolve(a)
	}

	switch g.Kind {
	case GlobalSet, GlobalFrozenset:
		if len(resolved) != 1 {
			return nil, errInvalidValue(pos, "set/frozenset takes exactly one argument")
		}
		lst, ok := resolved[0].(*rawList)
		if !ok {
			return nil, errInvalidStackTop(pos, "list", typeName(resolved[0]))
		}
		if g.Kind == GlobalSet {
			return &rawSet{Items: lst.Items}, nil
		}
		return &rawFrozenSet{Items: lst.Items}, nil

	case GlobalEncode:
		if len(resolved) != 2 {
			return nil, errInvalidValue(pos, "_codecs.encode takes exactly two arguments")
		}
		if _, ok := resolved[1].(String); !ok {
			return nil, errInvalidStackTop(pos, "string", typeName(resolved[1]))
		}
		s, ok := resolved[0].(String)
		if !ok {
			return nil, errInvalidStackTop(pos, "string", typeName(resolved[0]))
		}
		runes := []rune(string(s))
		b := make([]byte, len(runes))
		for i, r := range runes {
			b[i] = byte(r)
		}
		return Bytes(b), nil
	}
	return nil, errInvalidValue(pos, "unsupported reduction")
}
