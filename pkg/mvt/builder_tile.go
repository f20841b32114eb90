// pkg/mvt/builder_tile.go - tile builder
package mvt

// layerSlot is a tagged variant: a layer is either fresh (still being
// built) or existing (an opaque, already-encoded byte range passed
// through verbatim). The tile builder stores the tag inline rather
// than dispatching dynamically.
type layerSlot struct {
	existing bool
	fresh    *LayerBuilder
	raw      []byte
}

// TileBuilder owns the ordered list of layer builds and is the only
// component with a terminal operation: once Serialize is called, the
// tile builder (and everything beneath it) should be discarded.
type TileBuilder struct {
	layers []*layerSlot
}

func NewTileBuilder() *TileBuilder {
	return &TileBuilder{}
}

// AddLayer registers a new fresh layer and returns a handle to it.
// The layer is emitted at Serialize time only if it ends up with at
// least one committed feature; empty layers are silently dropped.
func (t *TileBuilder) AddLayer(name string, version, extent uint32) *LayerBuilder {
	l := newLayerBuilder(name, version, extent)
	t.layers = append(t.layers, &layerSlot{fresh: l})
	return l
}

// AddExistingLayer appends an already-encoded layer byte range
// verbatim at serialization time. The bytes are trusted to be a valid
// layer message; this is not checked.
func (t *TileBuilder) AddExistingLayer(data []byte) {
	t.layers = append(t.layers, &layerSlot{existing: true, raw: append([]byte(nil), data...)})
}

func (t *TileBuilder) estimatedSize() int {
	size := 0
	for _, slot := range t.layers {
		if slot.existing {
			size += len(slot.raw) + 10
		} else {
			size += slot.fresh.estimatedSize() + 10
		}
	}
	return size
}

// Serialize emits the tile: layers in insertion order, existing
// layers spliced verbatim, fresh layers asked to emit themselves only
// when they hold at least one committed feature. This is the single
// terminal operation on a tile builder.
func (t *TileBuilder) Serialize() []byte {
	buf := make([]byte, 0, t.estimatedSize())
	for _, slot := range t.layers {
		if slot.existing {
			buf = appendBytesField(buf, tileFieldLayers, slot.raw)
			continue
		}
		if slot.fresh.FeatureCount() == 0 {
			continue
		}
		buf = appendBytesField(buf, tileFieldLayers, slot.fresh.serialize())
	}
	return buf
}
