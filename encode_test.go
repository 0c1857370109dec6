package pickle

import (
	"bytes"
	"io"
	"math/big"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	bigVal, _ := new(big.Int).SetString("123456789012345678901234567890", 10)

	tests := []struct {
		name  string
		input Value
	}{
		{"none", None{}},
		{"bool true", Bool(true)},
		{"bool false", Bool(false)},
		{"small int", I64(0)},
		{"negative int", I64(-1)},
		{"int16 boundary", I64(258)},
		{"int32 boundary", I64(65537)},
		{"big int", Int{V: bigVal}},
		{"float", F64(3.14159)},
		{"bytes", Bytes("hello, world")},
		{"unicode string", String("héllo \u2603")},
		{"empty list", &List{}},
		{"list", &List{Items: []Value{I64(1), I64(2), I64(3)}}},
		{"empty tuple", &Tuple{}},
		{"tuple1", &Tuple{Items: []Value{I64(1)}}},
		{"tuple2", &Tuple{Items: []Value{I64(1), I64(2)}}},
		{"tuple3", &Tuple{Items: []Value{I64(1), I64(2), I64(3)}}},
		{"tuple4", &Tuple{Items: []Value{I64(1), I64(2), I64(3), I64(4)}}},
		{"dict", dictOf(String("Foo"), String("Qux"), String("Bar"), I64(4))},
		{"set", setOf(I64(1), I64(2), I64(3))},
		{"frozenset", frozenSetOf(I64(1), I64(2))},
		{"nested", &List{Items: []Value{
			dictOf(String("a"), &Tuple{Items: []Value{I64(1), Bool(true)}}),
		}}},
	}

	for _, proto := range []int{0, 1, 2, 3, 4} {
		for _, tt := range tests {
			var buf bytes.Buffer
			e := NewEncoderWithConfig(&buf, &EncoderConfig{Protocol: proto})
			if err := e.Encode(tt.input); err != nil {
				t.Errorf("protocol %d, %s: encode error: %s", proto, tt.name, err)
				continue
			}

			got, err := FromBytes(buf.Bytes())
			if err != nil {
				t.Errorf("protocol %d, %s: decode error: %s", proto, tt.name, err)
				continue
			}

			if !valueDeepEqual(got, tt.input) {
				t.Errorf("protocol %d, %s:\nhave: %#v\nwant: %#v", proto, tt.name, got, tt.input)
			}
		}
	}
}

func TestEncodeDefaultProtocol(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	if err := e.Encode(I64(7)); err != nil {
		t.Fatal(err)
	}
	if buf.Len() < 2 || buf.Bytes()[0] != byte(opProto) || buf.Bytes()[1] != 2 {
		t.Errorf("NewEncoder did not default to protocol 2: %q", buf.Bytes())
	}
}

func TestEncodeWriteError(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoderWithConfig(&buf, &EncoderConfig{Protocol: 2})
	if err := e.Encode(&List{Items: []Value{I64(1), I64(2), I64(3)}}); err != nil {
		t.Fatal(err)
	}
	full := buf.Len()

	for n := int64(full - 1); n >= 0; n-- {
		var out bytes.Buffer
		e := NewEncoderWithConfig(limitWriter(&out, n), &EncoderConfig{Protocol: 2})
		err := e.Encode(&List{Items: []Value{I64(1), I64(2), I64(3)}})
		if err != io.EOF {
			t.Errorf("write limited to %d bytes: got %#v, want io.EOF", n, err)
		}
	}
}

func dictOf(kv ...Value) *Dict {
	d := NewDict()
	for i := 0; i+1 < len(kv); i += 2 {
		d.Set(kv[i], kv[i+1])
	}
	return d
}

func setOf(items ...Value) *Set {
	s := NewSet()
	for _, v := range items {
		s.Add(v)
	}
	return s
}

func frozenSetOf(items ...Value) *FrozenSet {
	s := NewFrozenSet()
	for _, v := range items {
		s.Add(v)
	}
	return s
}

// limitedWriter is like io.LimitedReader but for writes.
type limitedWriter struct {
	w io.Writer
	n int64
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if l.n <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > l.n {
		p = p[:l.n]
	}
	n, err := l.w.Write(p)
	l.n -= int64(n)
	return n, err
}

func limitWriter(w io.Writer, n int64) io.Writer { return &limitedWriter{w, n} }
