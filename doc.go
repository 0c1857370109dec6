// Package pickle decodes and encodes Python's pickle serialization format,
// protocol versions 0 through 4, without ever executing arbitrary code: a
// pickle stream is read as a small opcode-driven stack machine into a
// closed algebra of Value types, not into live Go objects reached by
// reflection or callbacks into application code.
//
// Use Decoder to decode a pickle from an input stream:
//
//	d := pickle.NewDecoder(r)
//	obj, err := d.Decode() // obj is a pickle.Value
//
// Use Encoder to write a Value back out as a pickle stream:
//
//	e := pickle.NewEncoder(w)
//	err := e.Encode(obj)
//
// # Type mapping
//
// Decoding never produces a bare Go interface{} or map[interface{}]interface{};
// it always produces one of the following concrete Value implementations:
//
//	Python             Go
//	------             --
//	None               pickle.None
//	bool               pickle.Bool
//	int (small)        pickle.I64
//	int (arbitrary)    pickle.Int       (*big.Int-backed)
//	float              pickle.F64
//	bytes / str (py2)  pickle.Bytes
//	str (py3) / unicode pickle.String
//	list               *pickle.List
//	tuple              *pickle.Tuple
//	dict               *pickle.Dict
//	set                *pickle.Set
//	frozenset          *pickle.FrozenSet
//
// Dict, Set and FrozenSet use Python's own equality and hashing rules: 1,
// 1.0 and True all hash and compare equal to each other, arbitrary-precision
// Int participates in that numeric equality, and Get/Set/Add all run in
// amortized O(1). Iteration over a Dict, Set or FrozenSet always visits
// entries in their original insertion order, matching CPython's dict and
// the common case for set display.
//
// Class instances and calls to functions are not replayed: this package
// supports exactly three REDUCE reductions (builtins.set, builtins.frozenset
// and _codecs.encode, the three CPython uses to pickle its own set, frozenset
// and bytes-under-protocol-≤2 types) and returns UnsupportedGlobal for every
// other global reference. This is deliberate: unlike CPython's own unpickler,
// this package cannot be made to construct an arbitrary class instance or run
// arbitrary code, so decoding a pickle from an untrusted source is safe by
// construction.
//
// # Pickle protocol versions
//
// Over time the pickle stream format evolved. Protocol 0 is human-readable
// text; protocols 1 and 2 extend it in backward-compatible ways with binary
// encodings for efficiency. Protocol 2 is the highest protocol understood by
// Python 2's standard pickle module. Protocol 3 added a way to represent
// Python 3 bytes objects; protocol 4 further extends protocol 3 and switches
// to binary-only opcodes throughout. Protocol 5 adds support for
// out-of-band buffers, which this package does not decode: its
// BYTEARRAY8, NEXT_BUFFER and READONLY_BUFFER opcodes are rejected with an
// Unsupported error. See
// https://docs.python.org/3/library/pickle.html#data-stream-format for the
// authoritative description.
//
// Decode auto-detects the protocol in use; callers never need to specify it.
//
// On encoding, NewEncoder defaults to protocol 2 for compatibility with both
// Python 2 and Python 3. A different protocol can be requested explicitly:
//
//	e := pickle.NewEncoderWithConfig(w, &pickle.EncoderConfig{
//		Protocol: 4,
//	})
//	err := e.Encode(obj)
//
// See EncoderConfig.Protocol for details.
//
// # Persistent references
//
// Pickle was originally created for ZODB (http://zodb.org), an object
// database where on-disk objects can reference each other the way one
// in-memory object can hold a pointer to another. A pickle containing such a
// reference decodes, by default, to an opaque Ref value. An application that
// wants to resolve these references — for example by loading the referenced
// object from a database — can hook into decoding:
//
//	d := pickle.NewDecoderWithConfig(r, &pickle.DecoderConfig{
//		PersistentLoad: func(ref pickle.Ref) (pickle.Value, error) {
//			return lookupByID(ref.Pid)
//		},
//	})
//	obj, err := d.Decode()
//
// Encoding supports the inverse hook via EncoderConfig.PersistentRef.
package pickle
