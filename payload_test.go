package pickle

import (
	"math/big"
	"testing"
)

func TestDecodeTextInt(t *testing.T) {
	cases := []struct {
		in   string
		want Value
	}{
		{"00", Bool(false)},
		{"01", Bool(true)},
		{"42", I64(42)},
		{"-7", I64(-7)},
	}
	for _, c := range cases {
		got, err := decodeTextInt(0, []byte(c.in))
		if err != nil {
			t.Errorf("%q: %s", c.in, err)
			continue
		}
		if !valueDeepEqual(got, c.want) {
			t.Errorf("%q: got %#v, want %#v", c.in, got, c.want)
		}
	}

	if _, err := decodeTextInt(0, []byte("not a number")); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestDecodeTextLong(t *testing.T) {
	got, err := decodeTextLong(0, []byte("99999999999999999999L"))
	if err != nil {
		t.Fatal(err)
	}
	want, _ := new(big.Int).SetString("99999999999999999999", 10)
	if got.(Int).V.Cmp(want) != 0 {
		t.Errorf("got %s, want %s", got.(Int).V, want)
	}
}

func TestDecodeBinaryLong(t *testing.T) {
	cases := []struct {
		data []byte
		want int64
	}{
		{nil, 0},
		{[]byte{0}, 0},
		{[]byte{0xff}, -1},
		{[]byte{0x2a}, 42},
		{[]byte{0xd6}, -42},
		{[]byte{0x01, 0x01}, 257},
	}
	for _, c := range cases {
		got := decodeBinaryLong(c.data)
		if got.Int64() != c.want {
			t.Errorf("decodeBinaryLong(%x) = %s, want %d", c.data, got, c.want)
		}
	}
}

func TestBinaryLongRoundTrip(t *testing.T) {
	vals := []int64{0, 1, -1, 42, -42, 127, -128, 128, 255, 256, -256, 1 << 40, -(1 << 40)}
	for _, v := range vals {
		enc := encodeBinaryLong(big.NewInt(v))
		got := decodeBinaryLong(enc)
		if got.Int64() != v {
			t.Errorf("round trip %d: got %s via %x", v, got, enc)
		}
	}
}

func TestDecodeStringEscape(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`hello`, "hello"},
		{`tab\there`, "tab\there"},
		{`new\nline`, "new\nline"},
		{`quote\'s`, "quote's"},
		{`back\\slash`, `back\slash`},
		{`hex\x41`, "hexA"},
	}
	for _, c := range cases {
		got, err := decodeStringEscape(0, []byte(c.in))
		if err != nil {
			t.Errorf("%q: %s", c.in, err)
			continue
		}
		if string(got) != c.want {
			t.Errorf("%q: got %q, want %q", c.in, got, c.want)
		}
	}

	// octal escapes are not part of this narrow escape set
	if _, err := decodeStringEscape(0, []byte(`\101`)); err == nil {
		t.Error("expected error for octal escape")
	}
	if _, err := decodeStringEscape(0, []byte(`trailing\`)); err == nil {
		t.Error("expected error for trailing backslash")
	}
}

func TestDecodeRawUnicodeEscape(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`hello`, "hello"},
		{`\U0001f600`, "\U0001f600"},
		// non-ASCII input bytes are taken one at a time as Latin-1 code
		// points, never decoded as UTF-8
		{"caf\xe9", "café"},
		// a non-uU backslash sequence passes through byte-at-a-time
		{`back\slash`, "back\\slash"},
	}
	for _, c := range cases {
		got, err := decodeRawUnicodeEscape(0, []byte(c.in))
		if err != nil {
			t.Errorf("%q: %s", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("%q: got %q, want %q", c.in, got, c.want)
		}
	}

	if _, err := decodeRawUnicodeEscape(0, []byte(`\u00`)); err == nil {
		t.Error("expected error for truncated \\u escape")
	}
}

func TestDecodeRawUnicodeEscapeInvalidScalar(t *testing.T) {
	cases := []string{
		`\ud800`,     // lone high surrogate
		`\udfff`,     // lone low surrogate
		`\U00110000`, // one past the last valid scalar value
		`\Uffffffff`,
	}
	for _, in := range cases {
		if _, err := decodeRawUnicodeEscape(0, []byte(in)); err == nil {
			t.Errorf("%q: expected InvalidLiteral error for invalid scalar value", in)
		}
	}
}

func TestDecodeUTF8(t *testing.T) {
	if _, err := decodeUTF8(0, []byte{0xff, 0xfe}); err == nil {
		t.Error("expected StringNotUTF8 error")
	}
	s, err := decodeUTF8(0, []byte("héllo"))
	if err != nil || s != "héllo" {
		t.Errorf("got %q, %v", s, err)
	}
}
