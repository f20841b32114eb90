// pkg/mvt/builder_layer.go - fresh layer builder
package mvt

// Scaling is an affine transform (offset, multiplier, base) applied
// to a packed numeric attribute stream, used for both v3 attribute
// scalings and the single elevation scaling.
type Scaling struct {
	Offset     int64
	Multiplier float64
	Base       float64
}

type AttributeScaling = Scaling
type ElevationScaling = Scaling

// TileLocator is the optional per-layer (zoom, x, y) locator available
// on v3 layers; the extent that completes it is the layer's own.
type TileLocator struct {
	Zoom uint32
	X    uint32
	Y    uint32
}

// LayerBuilder owns one layer's encoded buffer, its key/value
// dictionaries, and its feature count. It issues interned indices to
// FeatureBuilder instances constructed against it; only one feature
// builder may be active at a time.
type LayerBuilder struct {
	name    string
	version uint32
	extent  uint32
	locator *TileLocator

	buf []byte

	keys         *table[string]
	values       *table[Value]   // v1/v2 only
	stringValues *table[string]  // v3 only
	doubleValues *table[float64] // v3 only
	floatValues  *table[float32] // v3 only
	intValues    *table[int64]   // v3 only

	attrScalings []Scaling
	elevScaling  *Scaling

	featureCount  uint64
	activeFeature bool
}

func newLayerBuilder(name string, version, extent uint32) *LayerBuilder {
	invariant(version >= 1 && version <= 3, "layer version must be 1..3, got %d", version)

	l := &LayerBuilder{
		name:    name,
		version: version,
		extent:  extent,
		keys:    newTable(stringKey, dedupHashThreshold),
	}
	if version < 3 {
		l.values = newTable(valueKey, dedupHashThreshold)
	} else {
		l.stringValues = newTable(stringKey, dedupHashThreshold)
		l.doubleValues = newTable(float64Key, 0)
		l.floatValues = newTable(float32Key, 0)
		l.intValues = newTable(int64Key, 0)
	}

	// Header fields go first, at construction, since everything after
	// is appended in commit order as features and dictionaries arrive.
	l.buf = appendVarintField(l.buf, layerFieldVersion, uint64(version))
	l.buf = appendStringField(l.buf, layerFieldName, name)
	l.buf = appendVarintField(l.buf, layerFieldExtent, uint64(extent))
	return l
}

func (l *LayerBuilder) Name() string    { return l.name }
func (l *LayerBuilder) Version() uint32 { return l.version }
func (l *LayerBuilder) Extent() uint32  { return l.extent }

// SetTileLocator attaches the optional (zoom, x, y) locator. Valid on
// v3 layers only.
func (l *LayerBuilder) SetTileLocator(locator TileLocator) {
	invariant(l.version == 3, "tile locator requires layer version 3, got %d", l.version)
	l.locator = &locator
}

func (l *LayerBuilder) TileLocator() (TileLocator, bool) {
	if l.locator == nil {
		return TileLocator{}, false
	}
	return *l.locator, true
}

func (l *LayerBuilder) AddKey(s string) uint32                  { return l.keys.Add(s) }
func (l *LayerBuilder) AddKeyWithoutDupCheck(s string) uint32    { return l.keys.AddWithoutDupCheck(s) }

func (l *LayerBuilder) AddValue(v Value) uint32 {
	invariant(l.version < 3, "add_value requires layer version < 3, got %d", l.version)
	return l.values.Add(v)
}

func (l *LayerBuilder) AddValueWithoutDupCheck(v Value) uint32 {
	invariant(l.version < 3, "add_value requires layer version < 3, got %d", l.version)
	return l.values.AddWithoutDupCheck(v)
}

func (l *LayerBuilder) AddStringValue(s string) uint32 {
	invariant(l.version == 3, "add_string_value requires layer version 3, got %d", l.version)
	return l.stringValues.Add(s)
}

func (l *LayerBuilder) AddStringValueWithoutDupCheck(s string) uint32 {
	invariant(l.version == 3, "add_string_value requires layer version 3, got %d", l.version)
	return l.stringValues.AddWithoutDupCheck(s)
}

func (l *LayerBuilder) AddDoubleValue(f float64) uint32 {
	invariant(l.version == 3, "add_double_value requires layer version 3, got %d", l.version)
	return l.doubleValues.Add(f)
}

func (l *LayerBuilder) AddDoubleValueWithoutDupCheck(f float64) uint32 {
	invariant(l.version == 3, "add_double_value requires layer version 3, got %d", l.version)
	return l.doubleValues.AddWithoutDupCheck(f)
}

func (l *LayerBuilder) AddFloatValue(f float32) uint32 {
	invariant(l.version == 3, "add_float_value requires layer version 3, got %d", l.version)
	return l.floatValues.Add(f)
}

func (l *LayerBuilder) AddFloatValueWithoutDupCheck(f float32) uint32 {
	invariant(l.version == 3, "add_float_value requires layer version 3, got %d", l.version)
	return l.floatValues.AddWithoutDupCheck(f)
}

func (l *LayerBuilder) AddIntValue(i int64) uint32 {
	invariant(l.version == 3, "add_int_value requires layer version 3, got %d", l.version)
	return l.intValues.Add(i)
}

func (l *LayerBuilder) AddIntValueWithoutDupCheck(i int64) uint32 {
	invariant(l.version == 3, "add_int_value requires layer version 3, got %d", l.version)
	return l.intValues.AddWithoutDupCheck(i)
}

func (l *LayerBuilder) AddAttributeScaling(s Scaling) uint32 {
	invariant(l.version == 3, "attribute scalings require layer version 3, got %d", l.version)
	idx := uint32(len(l.attrScalings))
	l.attrScalings = append(l.attrScalings, s)
	return idx
}

func (l *LayerBuilder) AttributeScaling(i int) (Scaling, error) {
	if i < 0 || i >= len(l.attrScalings) {
		return Scaling{}, newOutOfRangeError("attribute_scaling", i, len(l.attrScalings))
	}
	return l.attrScalings[i], nil
}

func (l *LayerBuilder) SetElevationScaling(s Scaling) {
	invariant(l.version == 3, "elevation scaling requires layer version 3, got %d", l.version)
	l.elevScaling = &s
}

func (l *LayerBuilder) GetElevationScaling() (Scaling, bool) {
	if l.elevScaling == nil {
		return Scaling{}, false
	}
	return *l.elevScaling, true
}

func (l *LayerBuilder) FeatureCount() uint64 { return l.featureCount }

// estimatedSize is a cheap heuristic, not an exact byte count: it
// lets TileBuilder.Serialize preallocate without re-walking every
// layer twice.
func (l *LayerBuilder) estimatedSize() int {
	size := len(l.buf)
	size += l.keys.Len() * 8
	if l.values != nil {
		size += l.values.Len() * 8
	}
	if l.stringValues != nil {
		size += l.stringValues.Len()*8 + l.doubleValues.Len()*8 + l.floatValues.Len()*4 + l.intValues.Len()*5
	}
	return size
}

// mark, append, and truncateTo are the internal operations a
// FeatureBuilder uses to splice itself into the layer buffer and to
// roll back: the layer buffer is append-only while no feature is in
// flight, and a feature's mark is the length captured before it
// existed.
func (l *LayerBuilder) mark() int { return len(l.buf) }

func (l *LayerBuilder) append(b []byte) { l.buf = append(l.buf, b...) }

func (l *LayerBuilder) truncateTo(mark int) { l.buf = l.buf[:mark] }

// serialize emits the complete layer message: header and committed
// features (already in l.buf, in commit order), then the key/value
// dictionaries, then (v3 only) the numeric tables, scalings, and tile
// locator.
func (l *LayerBuilder) serialize() []byte {
	buf := append([]byte(nil), l.buf...)
	buf = encodeStringTable(buf, layerFieldKeys, l.keys)

	if l.version < 3 {
		buf = encodeValueTable(buf, layerFieldValues, l.values)
		return buf
	}

	buf = encodeStringTable(buf, layerFieldStringValues, l.stringValues)
	buf = encodePackedDoubles(buf, layerFieldDoubleValues, l.doubleValues)
	buf = encodePackedFloats(buf, layerFieldFloatValues, l.floatValues)
	buf = encodePackedInts(buf, layerFieldIntValues, l.intValues)
	for _, s := range l.attrScalings {
		buf = appendBytesField(buf, layerFieldAttributeScaling, encodeScaling(s))
	}
	if l.elevScaling != nil {
		buf = appendBytesField(buf, layerFieldElevationScaling, encodeScaling(*l.elevScaling))
	}
	if l.locator != nil {
		buf = appendVarintField(buf, layerFieldTileX, uint64(l.locator.X))
		buf = appendVarintField(buf, layerFieldTileY, uint64(l.locator.Y))
		buf = appendVarintField(buf, layerFieldTileZoom, uint64(l.locator.Zoom))
	}
	return buf
}

func encodeScaling(s Scaling) []byte {
	var b []byte
	b = appendVarintField(b, scalingFieldOffset, zigzag64(s.Offset))
	b = appendFixed64Field(b, scalingFieldMultiplier, float64Bits(s.Multiplier))
	b = appendFixed64Field(b, scalingFieldBase, float64Bits(s.Base))
	return b
}
