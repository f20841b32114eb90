// pkg/mvt/reader.go - minimal tile/layer/feature reader
//
// The symmetric counterpart to wire.go: decodes the bytes this
// package's builders produce, for round-trip verification and for
// feeding CopyFeature from an existing (already-encoded) layer. It
// reads only the fields this package itself writes; it is not a
// general-purpose MVT decoder, and this package has no other decoder.
package mvt

import (
	"encoding/binary"
	"fmt"
	"math"
)

func readVarint(b []byte) (uint64, int, error) {
	var x uint64
	var s uint
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c < 0x80 {
			if i > 9 || (i == 9 && c > 1) {
				return 0, 0, fmt.Errorf("mvt: varint overflow")
			}
			return x | uint64(c)<<s, i + 1, nil
		}
		x |= uint64(c&0x7f) << s
		s += 7
	}
	return 0, 0, fmt.Errorf("mvt: truncated varint")
}

func unzigzag32(u uint32) int32 { return int32(u>>1) ^ -int32(u&1) }
func unzigzag64(u uint64) int64 { return int64(u>>1) ^ -int64(u&1) }

type wireField struct {
	num  uint32
	typ  uint32
	vi   uint64
	data []byte
}

// scanFields splits data into a flat list of (field number, wire
// type, value) records in wire order, the way every message this
// package emits can be walked.
func scanFields(data []byte) ([]wireField, error) {
	var out []wireField
	i := 0
	for i < len(data) {
		tag, n, err := readVarint(data[i:])
		if err != nil {
			return nil, err
		}
		i += n
		num := uint32(tag >> 3)
		typ := uint32(tag & 0x7)
		f := wireField{num: num, typ: typ}
		switch typ {
		case wireVarint:
			v, n, err := readVarint(data[i:])
			if err != nil {
				return nil, err
			}
			f.vi = v
			i += n
		case wireFixed64:
			if i+8 > len(data) {
				return nil, fmt.Errorf("mvt: truncated fixed64")
			}
			f.vi = binary.LittleEndian.Uint64(data[i : i+8])
			i += 8
		case wireFixed32:
			if i+4 > len(data) {
				return nil, fmt.Errorf("mvt: truncated fixed32")
			}
			f.vi = uint64(binary.LittleEndian.Uint32(data[i : i+4]))
			i += 4
		case wireLengthDel:
			l, n, err := readVarint(data[i:])
			if err != nil {
				return nil, err
			}
			i += n
			if i+int(l) > len(data) {
				return nil, fmt.Errorf("mvt: truncated length-delimited field")
			}
			f.data = data[i : i+int(l)]
			i += int(l)
		default:
			return nil, fmt.Errorf("mvt: unsupported wire type %d", typ)
		}
		out = append(out, f)
	}
	return out, nil
}

func readPackedVarints(data []byte) ([]uint32, error) {
	var out []uint32
	i := 0
	for i < len(data) {
		v, n, err := readVarint(data[i:])
		if err != nil {
			return nil, err
		}
		out = append(out, uint32(v))
		i += n
	}
	return out, nil
}

// ParseTile splits a serialized tile into its raw layer byte ranges,
// in wire order, without interpreting their contents.
func ParseTile(data []byte) ([][]byte, error) {
	fields, err := scanFields(data)
	if err != nil {
		return nil, err
	}
	var layers [][]byte
	for _, f := range fields {
		if f.num == tileFieldLayers && f.typ == wireLengthDel {
			layers = append(layers, f.data)
		}
	}
	return layers, nil
}

// ReadLayer is a parsed view over one serialized layer: header
// fields plus the raw feature byte ranges and interning tables,
// enough to satisfy DecodedFeatureSource for each of its features.
type ReadLayer struct {
	Name     string
	Version  uint32
	Extent   uint32
	Locator  *TileLocator
	keys     []string
	values   []Value
	strs     []string
	doubles  []float64
	floats   []float32
	ints     []int64
	rawFeats [][]byte
}

// ParseLayer decodes one layer's header and dictionaries, leaving its
// features as raw byte ranges accessible via Feature/FeatureCount.
func ParseLayer(data []byte) (*ReadLayer, error) {
	fields, err := scanFields(data)
	if err != nil {
		return nil, err
	}
	l := &ReadLayer{Extent: 4096, Version: 1}
	var locX, locY, locZ uint32
	var haveLoc bool
	for _, f := range fields {
		switch f.num {
		case layerFieldName:
			l.Name = string(f.data)
		case layerFieldVersion:
			l.Version = uint32(f.vi)
		case layerFieldExtent:
			l.Extent = uint32(f.vi)
		case layerFieldFeatures:
			l.rawFeats = append(l.rawFeats, f.data)
		case layerFieldKeys:
			l.keys = append(l.keys, string(f.data))
		case layerFieldValues:
			v, err := parseValueMessage(f.data)
			if err != nil {
				return nil, err
			}
			l.values = append(l.values, v)
		case layerFieldStringValues:
			l.strs = append(l.strs, string(f.data))
		case layerFieldDoubleValues:
			ds, err := readPackedDoubles(f.data)
			if err != nil {
				return nil, err
			}
			l.doubles = append(l.doubles, ds...)
		case layerFieldFloatValues:
			fs, err := readPackedFloats(f.data)
			if err != nil {
				return nil, err
			}
			l.floats = append(l.floats, fs...)
		case layerFieldIntValues:
			is, err := readPackedSignedInts(f.data)
			if err != nil {
				return nil, err
			}
			l.ints = append(l.ints, is...)
		case layerFieldTileX:
			locX, haveLoc = uint32(f.vi), true
		case layerFieldTileY:
			locY = uint32(f.vi)
		case layerFieldTileZoom:
			locZ = uint32(f.vi)
		}
	}
	if haveLoc {
		l.Locator = &TileLocator{X: locX, Y: locY, Zoom: locZ}
	}
	return l, nil
}

func readPackedDoubles(data []byte) ([]float64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("mvt: malformed packed double array")
	}
	out := make([]float64, 0, len(data)/8)
	for i := 0; i < len(data); i += 8 {
		out = append(out, math.Float64frombits(binary.LittleEndian.Uint64(data[i:i+8])))
	}
	return out, nil
}

func readPackedFloats(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("mvt: malformed packed float array")
	}
	out := make([]float32, 0, len(data)/4)
	for i := 0; i < len(data); i += 4 {
		out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(data[i:i+4])))
	}
	return out, nil
}

func readPackedSignedInts(data []byte) ([]int64, error) {
	vs, err := readPackedVarintsWide(data)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(vs))
	for i, v := range vs {
		out[i] = unzigzag64(v)
	}
	return out, nil
}

func readPackedVarintsWide(data []byte) ([]uint64, error) {
	var out []uint64
	i := 0
	for i < len(data) {
		v, n, err := readVarint(data[i:])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		i += n
	}
	return out, nil
}

func parseValueMessage(data []byte) (Value, error) {
	fields, err := scanFields(data)
	if err != nil {
		return Value{}, err
	}
	for _, f := range fields {
		switch f.num {
		case valueFieldString:
			return StringValue(string(f.data)), nil
		case valueFieldFloat:
			return FloatValue(math.Float32frombits(uint32(f.vi))), nil
		case valueFieldDouble:
			return DoubleValue(math.Float64frombits(f.vi)), nil
		case valueFieldInt:
			return IntValue(int64(f.vi)), nil
		case valueFieldUint:
			return UintValue(f.vi), nil
		case valueFieldSint:
			return SintValue(unzigzag64(f.vi)), nil
		case valueFieldBool:
			return BoolValue(f.vi != 0), nil
		}
	}
	return RawValue(data), nil
}

// FeatureCount returns the number of raw features this layer holds.
func (l *ReadLayer) FeatureCount() int { return len(l.rawFeats) }

// Feature parses and returns the i'th feature as a DecodedFeatureSource,
// resolving its tags/attributes against this layer's dictionaries.
func (l *ReadLayer) Feature(i int) (DecodedFeatureSource, error) {
	if i < 0 || i >= len(l.rawFeats) {
		return nil, newOutOfRangeError("feature", i, len(l.rawFeats))
	}
	fields, err := scanFields(l.rawFeats[i])
	if err != nil {
		return nil, err
	}
	rf := &readFeature{geomType: GeometryUnknown}
	for _, f := range fields {
		switch f.num {
		case featureFieldID:
			rf.hasInt = true
			rf.intID = f.vi
		case featureFieldStringID:
			rf.hasStr = true
			rf.strID = string(f.data)
		case featureFieldType:
			rf.geomType = GeometryType(f.vi)
		case featureFieldGeometry:
			cmds, err := readPackedVarints(f.data)
			if err != nil {
				return nil, err
			}
			rf.cmds = cmds
		case featureFieldTags:
			pairs, err := readPackedVarintsWide(f.data)
			if err != nil {
				return nil, err
			}
			for j := 0; j+1 < len(pairs); j += 2 {
				ki, vi := int(pairs[j]), int(pairs[j+1])
				if ki < 0 || ki >= len(l.keys) || vi < 0 || vi >= len(l.values) {
					return nil, newOutOfRangeError("tag reference", ki, len(l.keys))
				}
				rf.props = append(rf.props, Property{Key: l.keys[ki], Value: l.values[vi]})
			}
		case featureFieldAttributes:
			pairs, err := readPackedVarintsWide(f.data)
			if err != nil {
				return nil, err
			}
			for j := 0; j+1 < len(pairs); j += 2 {
				ki := int(pairs[j])
				ref := pairs[j+1]
				table, idx := int(ref&0x3), int(ref>>2)
				if ki < 0 || ki >= len(l.keys) {
					return nil, newOutOfRangeError("attribute key reference", ki, len(l.keys))
				}
				v, err := l.resolveAttrRef(table, idx)
				if err != nil {
					return nil, err
				}
				rf.props = append(rf.props, Property{Key: l.keys[ki], Value: v})
			}
		}
	}
	return rf, nil
}

func (l *ReadLayer) resolveAttrRef(table, idx int) (Value, error) {
	switch table {
	case attrTableString:
		if idx < 0 || idx >= len(l.strs) {
			return Value{}, newOutOfRangeError("string_values", idx, len(l.strs))
		}
		return StringValue(l.strs[idx]), nil
	case attrTableDouble:
		if idx < 0 || idx >= len(l.doubles) {
			return Value{}, newOutOfRangeError("double_values", idx, len(l.doubles))
		}
		return DoubleValue(l.doubles[idx]), nil
	case attrTableFloat:
		if idx < 0 || idx >= len(l.floats) {
			return Value{}, newOutOfRangeError("float_values", idx, len(l.floats))
		}
		return FloatValue(l.floats[idx]), nil
	case attrTableInt:
		if idx < 0 || idx >= len(l.ints) {
			return Value{}, newOutOfRangeError("int_values", idx, len(l.ints))
		}
		return IntValue(l.ints[idx]), nil
	default:
		return Value{}, fmt.Errorf("mvt: unknown attribute table %d", table)
	}
}

// readFeature is the concrete DecodedFeatureSource produced by ReadLayer.Feature.
type readFeature struct {
	hasInt   bool
	intID    uint64
	hasStr   bool
	strID    string
	geomType GeometryType
	cmds     []uint32
	props    []Property
}

func (f *readFeature) HasIntegerID() bool          { return f.hasInt }
func (f *readFeature) IntegerID() uint64           { return f.intID }
func (f *readFeature) HasStringID() bool           { return f.hasStr }
func (f *readFeature) StringID() string            { return f.strID }
func (f *readFeature) GeometryType() GeometryType   { return f.geomType }
func (f *readFeature) GeometryCommands() []uint32   { return f.cmds }
func (f *readFeature) Properties() []Property       { return f.props }
