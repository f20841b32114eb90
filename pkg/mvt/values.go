// pkg/mvt/values.go - v1/v2 property values
package mvt

// Value field tags within a v1/v2 Value message, per the MVT 2.1
// spec: exactly one of these is set on any instance.
const (
	valueFieldString = 1
	valueFieldFloat  = 2
	valueFieldDouble = 3
	valueFieldInt    = 4
	valueFieldUint   = 5
	valueFieldSint   = 6
	valueFieldBool   = 7
)

type valueKind int

const (
	valueKindString valueKind = iota
	valueKindFloat
	valueKindDouble
	valueKindInt
	valueKindUint
	valueKindSint
	valueKindBool
	valueKindRaw
)

// Value is a single attribute value destined for a v1/v2 layer's
// values table. Dedup compares the encoded bytes, so distinct
// encodings of the same logical number -- int 19 vs uint 19 vs double
// 19.0 -- are distinct entries by design.
type Value struct {
	kind    valueKind
	str     string
	f32     float32
	f64     float64
	i64     int64
	u64     uint64
	b       bool
	encoded []byte
}

func StringValue(s string) Value { return Value{kind: valueKindString, str: s} }
func FloatValue(f float32) Value { return Value{kind: valueKindFloat, f32: f} }
func DoubleValue(f float64) Value { return Value{kind: valueKindDouble, f64: f} }
func IntValue(i int64) Value      { return Value{kind: valueKindInt, i64: i} }
func UintValue(u uint64) Value    { return Value{kind: valueKindUint, u64: u} }
func SintValue(i int64) Value     { return Value{kind: valueKindSint, i64: i} }
func BoolValue(b bool) Value      { return Value{kind: valueKindBool, b: b} }

// RawValue wraps an already-encoded Value message (the inner tagged
// field bytes, not wrapped in the outer `values` field) and is
// accepted as-is, without re-validating its contents.
func RawValue(encoded []byte) Value {
	return Value{kind: valueKindRaw, encoded: append([]byte(nil), encoded...)}
}

func (v Value) Kind() valueKind { return v.kind }

// Bytes returns the encoded Value message content. For a RawValue it
// is the stored bytes; for every other kind it is computed on each call.
func (v Value) Bytes() []byte {
	if v.encoded != nil {
		return v.encoded
	}
	switch v.kind {
	case valueKindString:
		return appendStringField(nil, valueFieldString, v.str)
	case valueKindFloat:
		return appendFixed32Field(nil, valueFieldFloat, float32Bits(v.f32))
	case valueKindDouble:
		return appendFixed64Field(nil, valueFieldDouble, float64Bits(v.f64))
	case valueKindInt:
		return appendVarintField(nil, valueFieldInt, uint64(v.i64))
	case valueKindUint:
		return appendVarintField(nil, valueFieldUint, v.u64)
	case valueKindSint:
		return appendVarintField(nil, valueFieldSint, zigzag64(v.i64))
	case valueKindBool:
		u := uint64(0)
		if v.b {
			u = 1
		}
		return appendVarintField(nil, valueFieldBool, u)
	default:
		return v.encoded
	}
}

func valueKey(v Value) string { return string(v.Bytes()) }

// AsInt64 extracts a numeric interpretation of the value for callers
// that want to re-attribute it as a v3 structured int attribute
// during copy (see copy.go). A bool maps to 1 or 0; ok is false for
// string, float, double and raw values.
func (v Value) AsInt64() (int64, bool) {
	switch v.kind {
	case valueKindInt, valueKindSint:
		return v.i64, true
	case valueKindUint:
		return int64(v.u64), true
	case valueKindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsFloat64 extracts a float64 interpretation, used the same way.
func (v Value) AsFloat64() (float64, bool) {
	switch v.kind {
	case valueKindDouble:
		return v.f64, true
	case valueKindFloat:
		return float64(v.f32), true
	default:
		return 0, false
	}
}

// AsString extracts the string, if the value holds one.
func (v Value) AsString() (string, bool) {
	if v.kind == valueKindString {
		return v.str, true
	}
	return "", false
}
