// pkg/mvt/copy.go - feature splicing helpers
//
// CopyFeature moves a decoded feature from an existing layer into a
// fresh one without re-deriving its geometry or attribute bytes where
// that would be safe: id and geometry are spliced verbatim, while
// properties are individually re-interned against the destination
// layer's dictionaries (key/value indices are not portable across
// layers).
package mvt

import "errors"

// ErrTooManyPoints is returned by AddPointsFromContainer when a point
// container is too large to encode as a single command run.
var ErrTooManyPoints = errors.New("mvt: point container exceeds the maximum encodable size")

// DecodedFeatureSource is the minimal view CopyFeature needs from a
// decoded feature, satisfied by any decoder's feature type.
type DecodedFeatureSource interface {
	HasIntegerID() bool
	IntegerID() uint64
	HasStringID() bool
	StringID() string
	GeometryType() GeometryType
	GeometryCommands() []uint32
	Properties() []Property
}

// Property is a single decoded key/value pair, independent of the
// source layer's interning scheme.
type Property struct {
	Key   string
	Value Value
}

// CopyFeature splices id and geometry verbatim from src into a new
// feature on layer, re-interns each property against layer's own
// dictionaries, and commits. It never touches layer's version, so
// copying between a v3 source and a v1/v2 destination (or the
// reverse) only works when src carries no version-specific state --
// callers are responsible for that compatibility check.
func CopyFeature(src DecodedFeatureSource, layer *LayerBuilder) {
	fb := layer.NewFeatureBuilder()

	switch {
	case src.HasIntegerID():
		fb.SetIntegerID(src.IntegerID())
	case src.HasStringID():
		fb.SetStringID(src.StringID())
	}

	fb.setRawGeometry(src.GeometryType(), src.GeometryCommands())

	for _, p := range src.Properties() {
		addDecomposedAttribute(fb, layer, p)
	}

	fb.Commit()
}

// addDecomposedAttribute re-interns one property against the
// destination layer, routing it to add_property (v1/v2 tags) or the
// matching structured attribute setter (v3) based on the destination
// layer's version, not the source's.
func addDecomposedAttribute(fb *FeatureBuilder, layer *LayerBuilder, p Property) {
	if layer.Version() < 3 {
		fb.AddProperty(p.Key, p.Value)
		return
	}
	if s, ok := p.Value.AsString(); ok {
		fb.AddStringAttribute(p.Key, s)
		return
	}
	if f, ok := p.Value.AsFloat64(); ok {
		fb.AddDoubleAttribute(p.Key, f)
		return
	}
	if i, ok := p.Value.AsInt64(); ok {
		fb.AddIntAttribute(p.Key, i)
		return
	}
	// Raw/unrecognized encodings fall back to the string table with
	// their literal bytes so nothing is silently dropped.
	fb.AddStringAttribute(p.Key, string(p.Value.Bytes()))
}

// AddPointsFromContainer adds every point in seq as a single POINT
// (or MULTIPOINT) geometry, failing instead of wrapping around if the
// container is too large for one command run.
func AddPointsFromContainer(fb *FeatureBuilder, seq PointSequence) error {
	if seq.Len() >= 1<<29 {
		return ErrTooManyPoints
	}
	return fb.AddPointSequence(seq)
}
