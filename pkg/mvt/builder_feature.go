// pkg/mvt/builder_feature.go - feature state machine
//
// featureCore holds the shared state; FeatureBuilder (generic, used
// for copy-through) and the Point/LineString/Polygon variants each
// wrap it but expose only the operations their shape allows,
// restricting by exposed method set rather than embedding (which
// would promote every method and defeat the restriction).
package mvt

type featureState int

const (
	stateInit featureState = iota
	stateIDSet
	stateGeomSet
	stateAttrsSet
	stateDone
)

type idKind int

const (
	idNone idKind = iota
	idInteger
	idString
)

const (
	attrTableString = 0
	attrTableDouble = 1
	attrTableFloat  = 2
	attrTableInt    = 3
)

type featureCore struct {
	layer   *LayerBuilder
	mark    int
	state   featureState
	allowed GeometryType // GeometryUnknown means "generic, any shape"

	idKind    idKind
	integerID uint64
	stringID  string

	geomType GeometryType
	geom     geometryAccumulator

	tags      []byte // v1/v2 packed (key-index, value-index) pairs
	attrs     []byte // v3 packed (key-index, table-ref) pairs
	geomAttrs []byte // v3 per-vertex geometric attributes, same shape as attrs
	elevs     []byte // v3 packed zig-zag elevation deltas
}

// newFeatureCore asserts the single-active-feature-builder-per-layer
// discipline and captures the rollback mark.
func newFeatureCore(l *LayerBuilder, allowed GeometryType) *featureCore {
	invariant(!l.activeFeature, "layer %q already has an active feature builder", l.name)
	l.activeFeature = true
	return &featureCore{layer: l, mark: l.mark(), allowed: allowed}
}

func (f *featureCore) SetIntegerID(id uint64) {
	invariant(f.state == stateInit, "set_integer_id must be the first call on a feature")
	f.idKind = idInteger
	f.integerID = id
	f.state = stateIDSet
}

func (f *featureCore) SetStringID(id string) {
	invariant(f.state == stateInit, "set_string_id must be the first call on a feature")
	invariant(f.layer.version == 3, "string ids require layer version 3, got version %d", f.layer.version)
	f.idKind = idString
	f.stringID = id
	f.state = stateIDSet
}

func (f *featureCore) checkGeometryPreconditions(t GeometryType) {
	invariant(f.state != stateDone, "geometry op called on a finished feature")
	invariant(f.state == stateInit || f.state == stateIDSet || f.state == stateGeomSet,
		"geometry op called after attributes have been added")
	if f.allowed != GeometryUnknown {
		invariant(t == f.allowed, "geometry type %v does not match this builder's shape (%v)", t, f.allowed)
	}
	if f.geomType != GeometryUnknown {
		invariant(f.geomType == t, "feature already has geometry type %v, cannot add %v", f.geomType, t)
	}
}

func (f *featureCore) commitGeometryState(t GeometryType) {
	f.geomType = t
	f.state = stateGeomSet
}

func (f *featureCore) AddPoint(seq PointSequence) error {
	f.checkGeometryPreconditions(GeometryPoint)
	if err := f.geom.addMultiPoint(seq); err != nil {
		return err
	}
	f.commitGeometryState(GeometryPoint)
	return nil
}

func (f *featureCore) AddLineStringPart(points []Point) error {
	f.checkGeometryPreconditions(GeometryLineString)
	if err := f.geom.addLineStringPart(points); err != nil {
		return err
	}
	f.commitGeometryState(GeometryLineString)
	return nil
}

func (f *featureCore) AddRing(points []Point) error {
	f.checkGeometryPreconditions(GeometryPolygon)
	if err := f.geom.addRing(points); err != nil {
		return err
	}
	f.commitGeometryState(GeometryPolygon)
	return nil
}

func (f *featureCore) AddSplinePart(points []Point) error {
	invariant(f.layer.version == 3, "spline geometry requires layer version 3, got version %d", f.layer.version)
	f.checkGeometryPreconditions(GeometrySpline)
	if err := f.geom.addLineStringPart(points); err != nil {
		return err
	}
	f.commitGeometryState(GeometrySpline)
	return nil
}

// setRawGeometry splices an already command/zigzag-encoded geometry
// stream verbatim, used by copy_feature (copy.go) to avoid decoding
// and re-encoding a feature that is just passing through.
func (f *featureCore) setRawGeometry(t GeometryType, cmds []uint32) {
	invariant(f.state == stateInit || f.state == stateIDSet, "raw geometry can only be set once, before any geometry op")
	f.geomType = t
	f.geom.cmds = append([]uint32(nil), cmds...)
	f.state = stateGeomSet
}

func (f *featureCore) requireGeometrySet(op string) {
	invariant(f.state != stateDone, "%s called on a finished feature", op)
	invariant(f.state == stateGeomSet || f.state == stateAttrsSet, "%s requires geometry to be set first", op)
}

func (f *featureCore) AddProperty(key string, value Value) {
	f.requireGeometrySet("add_property")
	invariant(f.layer.version < 3, "add_property (tags) requires layer version < 3, got %d", f.layer.version)
	keyIdx := f.layer.AddKey(key)
	valIdx := f.layer.AddValue(value)
	f.tags = appendVarint(f.tags, uint64(keyIdx))
	f.tags = appendVarint(f.tags, uint64(valIdx))
	f.state = stateAttrsSet
}

func (f *featureCore) appendAttributeRef(key string, table int, index uint32) {
	f.requireGeometrySet("add attribute")
	invariant(f.layer.version == 3, "structured attributes require layer version 3, got %d", f.layer.version)
	keyIdx := f.layer.AddKey(key)
	f.attrs = appendVarint(f.attrs, uint64(keyIdx))
	f.attrs = appendVarint(f.attrs, (uint64(index)<<2)|uint64(table))
	f.state = stateAttrsSet
}

func (f *featureCore) AddStringAttribute(key, value string) {
	f.appendAttributeRef(key, attrTableString, f.layer.AddStringValue(value))
}

func (f *featureCore) AddDoubleAttribute(key string, value float64) {
	f.appendAttributeRef(key, attrTableDouble, f.layer.AddDoubleValue(value))
}

func (f *featureCore) AddFloatAttribute(key string, value float32) {
	f.appendAttributeRef(key, attrTableFloat, f.layer.AddFloatValue(value))
}

func (f *featureCore) AddIntAttribute(key string, value int64) {
	f.appendAttributeRef(key, attrTableInt, f.layer.AddIntValue(value))
}

func (f *featureCore) AddGeometricAttribute(key string, value float64) {
	f.requireGeometrySet("add_geometric_attribute")
	invariant(f.layer.version == 3, "geometric attributes require layer version 3, got %d", f.layer.version)
	keyIdx := f.layer.AddKey(key)
	f.geomAttrs = appendVarint(f.geomAttrs, uint64(keyIdx))
	f.geomAttrs = appendVarint(f.geomAttrs, (uint64(f.layer.AddDoubleValue(value))<<2)|attrTableDouble)
}

func (f *featureCore) AddElevation(delta int32) {
	invariant(f.layer.version == 3, "elevation requires layer version 3, got %d", f.layer.version)
	f.elevs = appendVarint(f.elevs, uint64(zigzag32(delta)))
}

// Commit requires geometry to be set; calling it earlier is a
// programmer error. Calling it on a finished feature is a no-op.
func (f *featureCore) Commit() {
	if f.state == stateDone {
		return
	}
	invariant(f.state == stateGeomSet || f.state == stateAttrsSet,
		"commit requires geometry to be set (state %d)", f.state)

	var payload []byte
	switch f.idKind {
	case idInteger:
		payload = appendVarintField(payload, featureFieldID, f.integerID)
	case idString:
		payload = appendStringField(payload, featureFieldStringID, f.stringID)
	}
	payload = appendVarintField(payload, featureFieldType, uint64(f.geomType))
	payload = appendPackedVarints(payload, featureFieldGeometry, f.geom.cmds)
	if len(f.tags) > 0 {
		payload = appendBytesField(payload, featureFieldTags, f.tags)
	}
	if len(f.attrs) > 0 {
		payload = appendBytesField(payload, featureFieldAttributes, f.attrs)
	}
	if len(f.geomAttrs) > 0 {
		payload = appendBytesField(payload, featureFieldGeometricAttributes, f.geomAttrs)
	}
	if len(f.elevs) > 0 {
		payload = appendBytesField(payload, featureFieldElevations, f.elevs)
	}

	f.layer.append(appendBytesField(nil, layerFieldFeatures, payload))
	f.layer.featureCount++
	f.finish()
}

// Rollback truncates the layer buffer back to the mark captured at
// construction; it never increments the feature count. Dictionary
// entries interned by this feature's attribute calls are not rolled
// back -- a deliberate trade of minor bloat for O(1) rollback. A
// no-op on a finished feature.
func (f *featureCore) Rollback() {
	if f.state == stateDone {
		return
	}
	f.layer.truncateTo(f.mark)
	f.finish()
}

func (f *featureCore) finish() {
	f.state = stateDone
	f.layer.activeFeature = false
}

// --- FeatureBuilder: the generic, unrestricted variant -------------

// FeatureBuilder accepts any geometry shape and is used for
// copy-through (copy_feature) as well as ordinary generic feature
// construction.
type FeatureBuilder struct{ core *featureCore }

// NewFeatureBuilder constructs a generic feature builder on l. Only
// one feature builder -- of any variant -- may be active on a layer
// at a time.
func (l *LayerBuilder) NewFeatureBuilder() *FeatureBuilder {
	return &FeatureBuilder{core: newFeatureCore(l, GeometryUnknown)}
}

func (b *FeatureBuilder) SetIntegerID(id uint64) { b.core.SetIntegerID(id) }
func (b *FeatureBuilder) SetStringID(id string)  { b.core.SetStringID(id) }

func (b *FeatureBuilder) AddPoint(points ...Point) error { return b.core.AddPoint(Points(points)) }
func (b *FeatureBuilder) AddPointSequence(seq PointSequence) error { return b.core.AddPoint(seq) }
func (b *FeatureBuilder) AddLineString(points []Point) error       { return b.core.AddLineStringPart(points) }
func (b *FeatureBuilder) AddRing(points []Point) error             { return b.core.AddRing(points) }
func (b *FeatureBuilder) AddSpline(points []Point) error           { return b.core.AddSplinePart(points) }

func (b *FeatureBuilder) AddProperty(key string, value Value) { b.core.AddProperty(key, value) }
func (b *FeatureBuilder) AddStringAttribute(key, value string)        { b.core.AddStringAttribute(key, value) }
func (b *FeatureBuilder) AddDoubleAttribute(key string, value float64) { b.core.AddDoubleAttribute(key, value) }
func (b *FeatureBuilder) AddFloatAttribute(key string, value float32)  { b.core.AddFloatAttribute(key, value) }
func (b *FeatureBuilder) AddIntAttribute(key string, value int64)      { b.core.AddIntAttribute(key, value) }
func (b *FeatureBuilder) AddGeometricAttribute(key string, value float64) {
	b.core.AddGeometricAttribute(key, value)
}
func (b *FeatureBuilder) AddElevation(delta int32) { b.core.AddElevation(delta) }

func (b *FeatureBuilder) setRawGeometry(t GeometryType, cmds []uint32) { b.core.setRawGeometry(t, cmds) }

func (b *FeatureBuilder) Commit()   { b.core.Commit() }
func (b *FeatureBuilder) Rollback() { b.core.Rollback() }

// --- Shape-restricted variants --------------------------------------

type PointFeatureBuilder struct{ core *featureCore }

func (l *LayerBuilder) NewPointFeatureBuilder() *PointFeatureBuilder {
	return &PointFeatureBuilder{core: newFeatureCore(l, GeometryPoint)}
}

func (b *PointFeatureBuilder) SetIntegerID(id uint64) { b.core.SetIntegerID(id) }
func (b *PointFeatureBuilder) SetStringID(id string)  { b.core.SetStringID(id) }
func (b *PointFeatureBuilder) AddPoint(points ...Point) error {
	return b.core.AddPoint(Points(points))
}
func (b *PointFeatureBuilder) AddPointSequence(seq PointSequence) error { return b.core.AddPoint(seq) }
func (b *PointFeatureBuilder) AddProperty(key string, value Value)      { b.core.AddProperty(key, value) }
func (b *PointFeatureBuilder) AddStringAttribute(key, value string) {
	b.core.AddStringAttribute(key, value)
}
func (b *PointFeatureBuilder) AddDoubleAttribute(key string, value float64) {
	b.core.AddDoubleAttribute(key, value)
}
func (b *PointFeatureBuilder) AddFloatAttribute(key string, value float32) {
	b.core.AddFloatAttribute(key, value)
}
func (b *PointFeatureBuilder) AddIntAttribute(key string, value int64) {
	b.core.AddIntAttribute(key, value)
}
func (b *PointFeatureBuilder) Commit()   { b.core.Commit() }
func (b *PointFeatureBuilder) Rollback() { b.core.Rollback() }

type LineStringFeatureBuilder struct{ core *featureCore }

func (l *LayerBuilder) NewLineStringFeatureBuilder() *LineStringFeatureBuilder {
	return &LineStringFeatureBuilder{core: newFeatureCore(l, GeometryLineString)}
}

func (b *LineStringFeatureBuilder) SetIntegerID(id uint64) { b.core.SetIntegerID(id) }
func (b *LineStringFeatureBuilder) SetStringID(id string)  { b.core.SetStringID(id) }

// AddLineString adds one part; call it again for a MULTILINESTRING.
func (b *LineStringFeatureBuilder) AddLineString(points []Point) error {
	return b.core.AddLineStringPart(points)
}
func (b *LineStringFeatureBuilder) AddProperty(key string, value Value) { b.core.AddProperty(key, value) }
func (b *LineStringFeatureBuilder) AddStringAttribute(key, value string) {
	b.core.AddStringAttribute(key, value)
}
func (b *LineStringFeatureBuilder) AddDoubleAttribute(key string, value float64) {
	b.core.AddDoubleAttribute(key, value)
}
func (b *LineStringFeatureBuilder) AddFloatAttribute(key string, value float32) {
	b.core.AddFloatAttribute(key, value)
}
func (b *LineStringFeatureBuilder) AddIntAttribute(key string, value int64) {
	b.core.AddIntAttribute(key, value)
}
func (b *LineStringFeatureBuilder) Commit()   { b.core.Commit() }
func (b *LineStringFeatureBuilder) Rollback() { b.core.Rollback() }

type PolygonFeatureBuilder struct{ core *featureCore }

func (l *LayerBuilder) NewPolygonFeatureBuilder() *PolygonFeatureBuilder {
	return &PolygonFeatureBuilder{core: newFeatureCore(l, GeometryPolygon)}
}

func (b *PolygonFeatureBuilder) SetIntegerID(id uint64) { b.core.SetIntegerID(id) }
func (b *PolygonFeatureBuilder) SetStringID(id string)  { b.core.SetStringID(id) }

// AddRing adds one ring (exterior or interior, winding recorded not
// validated); call it again for each additional ring.
func (b *PolygonFeatureBuilder) AddRing(points []Point) error { return b.core.AddRing(points) }
func (b *PolygonFeatureBuilder) AddProperty(key string, value Value) { b.core.AddProperty(key, value) }
func (b *PolygonFeatureBuilder) AddStringAttribute(key, value string) {
	b.core.AddStringAttribute(key, value)
}
func (b *PolygonFeatureBuilder) AddDoubleAttribute(key string, value float64) {
	b.core.AddDoubleAttribute(key, value)
}
func (b *PolygonFeatureBuilder) AddFloatAttribute(key string, value float32) {
	b.core.AddFloatAttribute(key, value)
}
func (b *PolygonFeatureBuilder) AddIntAttribute(key string, value int64) {
	b.core.AddIntAttribute(key, value)
}
func (b *PolygonFeatureBuilder) Commit()   { b.core.Commit() }
func (b *PolygonFeatureBuilder) Rollback() { b.core.Rollback() }
