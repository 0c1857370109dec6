package pickle

import (
	"fmt"
	"math/big"
)

// AsInt64 tries to represent a decoded Value as int64.
//
// A Python int always decodes to I64; a Python long only decodes to I64 if
// canonicalization widened it (see canonicalize.go), otherwise it is an
// Int carrying a *big.Int. AsInt64 accepts both, so callers that don't
// care about the distinction can treat "integer" uniformly.
func AsInt64(v Value) (int64, error) {
	switch x := v.(type) {
	case I64:
		return int64(x), nil
	case Int:
		if !x.V.IsInt64() {
			return 0, fmt.Errorf("pickle: long outside of int64 range")
		}
		return x.V.Int64(), nil
	}
	return 0, fmt.Errorf("pickle: expect int|long; got %s", typeName(v))
}

// AsBigInt represents any integral Value as a *big.Int.
func AsBigInt(v Value) (*big.Int, error) {
	switch x := v.(type) {
	case I64:
		return big.NewInt(int64(x)), nil
	case Int:
		return x.V, nil
	}
	return nil, fmt.Errorf("pickle: expect int|long; got %s", typeName(v))
}

// AsBytes tries to represent a decoded Value as Bytes. Unlike Python 2,
// where str doubled as both text and binary data, this decoder's String
// and Bytes are always distinct: AsBytes does not accept String.
func AsBytes(v Value) (Bytes, error) {
	if x, ok := v.(Bytes); ok {
		return x, nil
	}
	return nil, fmt.Errorf("pickle: expect bytes; got %s", typeName(v))
}

// AsString tries to represent a decoded Value as string. It does not
// accept Bytes.
func AsString(v Value) (string, error) {
	if x, ok := v.(String); ok {
		return string(x), nil
	}
	return "", fmt.Errorf("pickle: expect string; got %s", typeName(v))
}

// stringEQ compares an arbitrary Value to a plain Go string.
func stringEQ(v Value, s string) bool {
	x, err := AsString(v)
	return err == nil && x == s
}
