// pkg/mvt/wire.go - minimal append-style protobuf wire writer
//
// Encoding needs exactly one thing from a protobuf writer: append a
// tag plus payload to a growing []byte, with no intermediate message
// objects, so that committing and rolling back a feature is just
// slicing that []byte. No generated-code Marshaler (gogo/protobuf,
// google.golang.org/protobuf) exposes that, so it's hand-rolled here
// rather than pulled from a dependency.
package mvt

import (
	"encoding/binary"
	"math"
)

const (
	wireVarint    = 0
	wireFixed64   = 1
	wireLengthDel = 2
	wireFixed32   = 5
)

// Tile/layer/feature/scaling field numbers. Version < 3 tags follow
// the published MVT 2.1 wire format bit-for-bit; version 3 tags
// (string table split, numeric value tables, scalings, tile locator)
// follow this module's own pinning of the still-evolving v3 draft.
const (
	tileFieldLayers = 3

	layerFieldName             = 1
	layerFieldFeatures         = 2
	layerFieldKeys             = 3
	layerFieldValues           = 4
	layerFieldExtent           = 5
	layerFieldStringValues     = 6
	layerFieldDoubleValues     = 7
	layerFieldFloatValues      = 8
	layerFieldIntValues        = 9
	layerFieldElevationScaling = 10
	layerFieldAttributeScaling = 11
	layerFieldTileX            = 12
	layerFieldTileY            = 13
	layerFieldTileZoom         = 14
	layerFieldVersion          = 15

	featureFieldID                  = 1
	featureFieldTags                = 2
	featureFieldType                = 3
	featureFieldGeometry            = 4
	featureFieldStringID            = 6
	featureFieldAttributes          = 7
	featureFieldGeometricAttributes = 8
	featureFieldElevations          = 9

	scalingFieldOffset     = 1
	scalingFieldMultiplier = 2
	scalingFieldBase       = 3
)

func appendVarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

func appendTag(buf []byte, field int, wireType int) []byte {
	return appendVarint(buf, uint64(field)<<3|uint64(wireType))
}

func appendVarintField(buf []byte, field int, v uint64) []byte {
	buf = appendTag(buf, field, wireVarint)
	return appendVarint(buf, v)
}

func appendFixed64Field(buf []byte, field int, bits uint64) []byte {
	buf = appendTag(buf, field, wireFixed64)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], bits)
	return append(buf, b[:]...)
}

func appendFixed32Field(buf []byte, field int, bits uint32) []byte {
	buf = appendTag(buf, field, wireFixed32)
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], bits)
	return append(buf, b[:]...)
}

// appendBytesField writes tag(field, LEN) + varint(len(data)) + data.
// This is the single primitive every nested/packed/string field in
// this package is built from -- including splicing an already-encoded
// layer verbatim (add_existing_layer) and wrapping each committed
// feature message.
func appendBytesField(buf []byte, field int, data []byte) []byte {
	buf = appendTag(buf, field, wireLengthDel)
	buf = appendVarint(buf, uint64(len(data)))
	return append(buf, data...)
}

func appendStringField(buf []byte, field int, s string) []byte {
	return appendBytesField(buf, field, []byte(s))
}

// appendPackedVarints writes a packed repeated field: the MVT
// geometry and v1/v2 tags streams are both packed uint32 arrays.
func appendPackedVarints(buf []byte, field int, vals []uint32) []byte {
	if len(vals) == 0 {
		return buf
	}
	var payload []byte
	for _, v := range vals {
		payload = appendVarint(payload, uint64(v))
	}
	return appendBytesField(buf, field, payload)
}

func zigzag32(n int32) uint32 { return uint32((n << 1) ^ (n >> 31)) }
func zigzag64(n int64) uint64 { return uint64((n << 1) ^ (n >> 63)) }

func float64Bits(f float64) uint64 { return math.Float64bits(f) }
func float32Bits(f float32) uint32 { return math.Float32bits(f) }
