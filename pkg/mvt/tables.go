// pkg/mvt/tables.go - per-layer interning tables
//
// A two-phase dedup scheme: below dedupHashThreshold entries, a new
// addition is deduplicated with a linear scan; at the threshold, a
// hash map is populated from the existing entries and used from then
// on. Numeric value tables (v3) pass threshold 0 and never promote,
// since bitwise float equality at small N doesn't benefit from
// hashing.
package mvt

import (
	"encoding/binary"
	"strconv"
)

const dedupHashThreshold = 20

// table is a deduplicating, order-preserving collection whose index
// assignment is the zero-based position an entry was first added at.
// key must return a string that is equal for two values the caller
// considers duplicates (e.g. identity for strings, bit-pattern for
// floats).
type table[T any] struct {
	entries   []T
	index     map[string]uint32 // nil until promoted (or never, if threshold == 0)
	threshold int
	key       func(T) string
}

func newTable[T any](key func(T) string, threshold int) *table[T] {
	return &table[T]{key: key, threshold: threshold}
}

// Add deduplicates v against existing entries and returns its index.
func (t *table[T]) Add(v T) uint32 {
	k := t.key(v)
	if idx, ok := t.lookup(k); ok {
		return idx
	}
	return t.insert(v, k)
}

// AddWithoutDupCheck always appends, even if an equal entry exists.
func (t *table[T]) AddWithoutDupCheck(v T) uint32 {
	return t.insert(v, t.key(v))
}

func (t *table[T]) lookup(k string) (uint32, bool) {
	if t.index != nil {
		idx, ok := t.index[k]
		return idx, ok
	}
	for i := range t.entries {
		if t.key(t.entries[i]) == k {
			return uint32(i), true
		}
	}
	return 0, false
}

func (t *table[T]) insert(v T, k string) uint32 {
	idx := uint32(len(t.entries))
	t.entries = append(t.entries, v)
	if t.index != nil {
		if _, exists := t.index[k]; !exists {
			t.index[k] = idx
		}
	} else if t.threshold > 0 && len(t.entries) >= t.threshold {
		t.promote()
	}
	return idx
}

// promote populates the hash map from the entries accumulated so
// far, lazily paying the hashing cost only once a layer has grown
// large enough for it to matter.
func (t *table[T]) promote() {
	t.index = make(map[string]uint32, len(t.entries))
	for i, e := range t.entries {
		k := t.key(e)
		if _, exists := t.index[k]; !exists {
			t.index[k] = uint32(i)
		}
	}
}

func (t *table[T]) Len() int { return len(t.entries) }

func (t *table[T]) At(i int) (T, error) {
	var zero T
	if i < 0 || i >= len(t.entries) {
		return zero, newOutOfRangeError("table", i, len(t.entries))
	}
	return t.entries[i], nil
}

func stringKey(s string) string { return s }

func float64Key(f float64) string { return strconv.FormatUint(float64Bits(f), 16) }
func float32Key(f float32) string { return strconv.FormatUint(uint64(float32Bits(f)), 16) }
func int64Key(i int64) string     { return strconv.FormatInt(i, 16) }

// encodeStringTable appends each entry of t, in table order, as a
// repeated string field (keys, or v3 string_values).
func encodeStringTable(buf []byte, field int, t *table[string]) []byte {
	for _, s := range t.entries {
		buf = appendStringField(buf, field, s)
	}
	return buf
}

// encodeValueTable appends each entry of t (a v1/v2 values table) as
// its own nested Value message.
func encodeValueTable(buf []byte, field int, t *table[Value]) []byte {
	for _, v := range t.entries {
		buf = appendBytesField(buf, field, v.Bytes())
	}
	return buf
}

func encodePackedDoubles(buf []byte, field int, t *table[float64]) []byte {
	if t.Len() == 0 {
		return buf
	}
	payload := make([]byte, 0, t.Len()*8)
	for _, v := range t.entries {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], float64Bits(v))
		payload = append(payload, b[:]...)
	}
	return appendBytesField(buf, field, payload)
}

func encodePackedFloats(buf []byte, field int, t *table[float32]) []byte {
	if t.Len() == 0 {
		return buf
	}
	payload := make([]byte, 0, t.Len()*4)
	for _, v := range t.entries {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], float32Bits(v))
		payload = append(payload, b[:]...)
	}
	return appendBytesField(buf, field, payload)
}

func encodePackedInts(buf []byte, field int, t *table[int64]) []byte {
	if t.Len() == 0 {
		return buf
	}
	var payload []byte
	for _, v := range t.entries {
		payload = appendVarint(payload, zigzag64(v))
	}
	return appendBytesField(buf, field, payload)
}
