// pkg/mvt/builder_test.go - tile/layer/feature builder tests
package mvt

import (
	"testing"
)

func buildSimpleTile(t *testing.T, version uint32) ([]byte, *LayerBuilder) {
	t.Helper()
	tb := NewTileBuilder()
	layer := tb.AddLayer("points", version, 4096)
	fb := layer.NewPointFeatureBuilder()
	fb.SetIntegerID(1)
	if err := fb.AddPoint(Point{X: 10, Y: 10}); err != nil {
		t.Fatalf("AddPoint: %v", err)
	}
	if version < 3 {
		fb.AddProperty("name", StringValue("a"))
	} else {
		fb.AddStringAttribute("name", "a")
	}
	fb.Commit()
	return tb.Serialize(), layer
}

func TestEmptyLayerSuppression(t *testing.T) {
	tb := NewTileBuilder()
	tb.AddLayer("empty", 2, 4096) // never gets a committed feature
	layer := tb.AddLayer("populated", 2, 4096)
	fb := layer.NewPointFeatureBuilder()
	if err := fb.AddPoint(Point{X: 1, Y: 1}); err != nil {
		t.Fatalf("AddPoint: %v", err)
	}
	fb.Commit()

	out := tb.Serialize()
	layers, err := ParseTile(out)
	if err != nil {
		t.Fatalf("ParseTile: %v", err)
	}
	if len(layers) != 1 {
		t.Fatalf("expected 1 layer in output (empty layer suppressed), got %d", len(layers))
	}
	rl, err := ParseLayer(layers[0])
	if err != nil {
		t.Fatalf("ParseLayer: %v", err)
	}
	if rl.Name != "populated" {
		t.Errorf("expected surviving layer to be %q, got %q", "populated", rl.Name)
	}
}

func TestRollbackAtomicity(t *testing.T) {
	// S3: commit id=1, rollback id=2..7, commit id=8 -> output [1, 8] in order.
	tb := NewTileBuilder()
	layer := tb.AddLayer("ids", 2, 4096)

	commit := func(id uint64) {
		fb := layer.NewPointFeatureBuilder()
		fb.SetIntegerID(id)
		if err := fb.AddPoint(Point{X: int32(id), Y: int32(id)}); err != nil {
			t.Fatalf("AddPoint: %v", err)
		}
		fb.Commit()
	}
	rollback := func(id uint64) {
		fb := layer.NewPointFeatureBuilder()
		fb.SetIntegerID(id)
		if err := fb.AddPoint(Point{X: int32(id), Y: int32(id)}); err != nil {
			t.Fatalf("AddPoint: %v", err)
		}
		fb.Rollback()
	}

	commit(1)
	for id := uint64(2); id <= 7; id++ {
		rollback(id)
	}
	commit(8)

	if layer.FeatureCount() != 2 {
		t.Fatalf("expected feature count 2, got %d", layer.FeatureCount())
	}

	layers, err := ParseTile(tb.Serialize())
	if err != nil {
		t.Fatalf("ParseTile: %v", err)
	}
	rl, err := ParseLayer(layers[0])
	if err != nil {
		t.Fatalf("ParseLayer: %v", err)
	}
	if rl.FeatureCount() != 2 {
		t.Fatalf("expected 2 features in serialized output, got %d", rl.FeatureCount())
	}
	f0, err := rl.Feature(0)
	if err != nil {
		t.Fatal(err)
	}
	f1, err := rl.Feature(1)
	if err != nil {
		t.Fatal(err)
	}
	if !f0.HasIntegerID() || f0.IntegerID() != 1 {
		t.Errorf("expected first surviving feature id 1, got %v (has=%v)", f0.IntegerID(), f0.HasIntegerID())
	}
	if !f1.HasIntegerID() || f1.IntegerID() != 8 {
		t.Errorf("expected second surviving feature id 8, got %v (has=%v)", f1.IntegerID(), f1.HasIntegerID())
	}
}

func TestStringIDRequiresVersion3(t *testing.T) {
	// S1: string_id is fatal on v2, works on v3.
	tb := NewTileBuilder()
	v3 := tb.AddLayer("v3layer", 3, 4096)
	fb := v3.NewFeatureBuilder()
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("set_string_id should not panic on a v3 layer: %v", r)
			}
		}()
		fb.SetStringID("abc")
	}()

	v2 := tb.AddLayer("v2layer", 2, 4096)
	fb2 := v2.NewFeatureBuilder()
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected a panic from set_string_id on a version 2 layer")
			}
		}()
		fb2.SetStringID("abc")
	}()
}

func TestKeyDedupExactIndices(t *testing.T) {
	// S2-style: exact index assignment for a known add sequence.
	tb := NewTileBuilder()
	layer := tb.AddLayer("layer", 2, 4096)

	if idx := layer.AddKey("a"); idx != 0 {
		t.Errorf("expected index 0 for first key, got %d", idx)
	}
	if idx := layer.AddKey("b"); idx != 1 {
		t.Errorf("expected index 1 for second key, got %d", idx)
	}
	if idx := layer.AddKey("a"); idx != 0 {
		t.Errorf("expected repeated key to reuse index 0, got %d", idx)
	}
	if idx := layer.AddKey("c"); idx != 2 {
		t.Errorf("expected index 2 for third distinct key, got %d", idx)
	}
}

func TestValueDedupByTypeAndBits(t *testing.T) {
	tb := NewTileBuilder()
	layer := tb.AddLayer("layer", 2, 4096)

	i1 := layer.AddValue(IntValue(19))
	i2 := layer.AddValue(IntValue(19))
	if i1 != i2 {
		t.Errorf("two identical int values should dedup to the same index, got %d and %d", i1, i2)
	}

	d := layer.AddValue(DoubleValue(19.0))
	if d == i1 {
		t.Error("double 19.0 and int 19 must not dedup to the same index")
	}
}

func TestInterningThresholdPromotion(t *testing.T) {
	// At N=20 the table promotes from linear scan to a hash map; both
	// regimes must keep dedup correct across the boundary.
	tb := NewTileBuilder()
	layer := tb.AddLayer("layer", 2, 4096)

	var firstIndices []uint32
	for i := 0; i < 25; i++ {
		firstIndices = append(firstIndices, layer.AddKey(keyName(i)))
	}
	for i := 0; i < 25; i++ {
		idx := layer.AddKey(keyName(i))
		if idx != firstIndices[i] {
			t.Errorf("key %d: expected index %d on re-add, got %d", i, firstIndices[i], idx)
		}
	}
}

func keyName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return string(letters[i%26]) + string(rune('0'+i/26))
}

func TestTileLocatorRoundTrip(t *testing.T) {
	// S4: x=5, y=3, zoom=12, extent=8192.
	tb := NewTileBuilder()
	layer := tb.AddLayer("locatorlayer", 3, 8192)
	layer.SetTileLocator(TileLocator{X: 5, Y: 3, Zoom: 12})
	fb := layer.NewPointFeatureBuilder()
	if err := fb.AddPoint(Point{X: 1, Y: 1}); err != nil {
		t.Fatalf("AddPoint: %v", err)
	}
	fb.Commit()

	layers, err := ParseTile(tb.Serialize())
	if err != nil {
		t.Fatalf("ParseTile: %v", err)
	}
	rl, err := ParseLayer(layers[0])
	if err != nil {
		t.Fatalf("ParseLayer: %v", err)
	}
	if rl.Extent != 8192 {
		t.Errorf("expected extent 8192, got %d", rl.Extent)
	}
	if rl.Locator == nil {
		t.Fatal("expected a tile locator to round-trip")
	}
	if *rl.Locator != (TileLocator{X: 5, Y: 3, Zoom: 12}) {
		t.Errorf("locator round-trip mismatch: got %+v", *rl.Locator)
	}
}

func TestPointContainerTooLarge(t *testing.T) {
	// S5: a container of size 2^29 fails with a geometry error, and
	// the partial bytes are rolled back (no feature is committed).
	tb := NewTileBuilder()
	layer := tb.AddLayer("huge", 2, 4096)
	fb := layer.NewFeatureBuilder()

	err := AddPointsFromContainer(fb, oversizedPoints{})
	if err == nil {
		t.Fatal("expected an error for an oversized point container")
	}
	fb.Rollback()

	if layer.FeatureCount() != 0 {
		t.Errorf("expected feature count 0 after a failed geometry add, got %d", layer.FeatureCount())
	}
}

// oversizedPoints reports a length at the 2^29 boundary without
// allocating that many points.
type oversizedPoints struct{}

func (oversizedPoints) Len() int         { return 1 << 29 }
func (oversizedPoints) At(i int) Point   { return Point{} }

func TestElevationAndAttributeScalingRoundTrip(t *testing.T) {
	// S6: elevation scaling (11, 2.2, 3.3) plus three attribute
	// scalings read back from the layer builder at the indices it
	// issued; an out-of-range index fails.
	tb := NewTileBuilder()
	layer := tb.AddLayer("scaled", 3, 4096)
	layer.SetElevationScaling(Scaling{Offset: 11, Multiplier: 2.2, Base: 3.3})

	var idxs []uint32
	for _, s := range []Scaling{
		{Offset: 0, Multiplier: 1, Base: 0},
		{Offset: 1, Multiplier: 0.5, Base: 10},
		{Offset: -1, Multiplier: 100, Base: -5},
	} {
		idxs = append(idxs, layer.AddAttributeScaling(s))
	}

	fb := layer.NewPointFeatureBuilder()
	if err := fb.AddPoint(Point{X: 1, Y: 1}); err != nil {
		t.Fatalf("AddPoint: %v", err)
	}
	fb.Commit()

	got, ok := layer.GetElevationScaling()
	if !ok || got != (Scaling{Offset: 11, Multiplier: 2.2, Base: 3.3}) {
		t.Errorf("elevation scaling mismatch: got %+v ok=%v", got, ok)
	}
	for i, idx := range idxs {
		s, err := layer.AttributeScaling(int(idx))
		if err != nil {
			t.Fatalf("AttributeScaling(%d): %v", idx, err)
		}
		if i == 1 && s.Base != 10 {
			t.Errorf("attribute scaling %d mismatch: %+v", idx, s)
		}
	}

	if _, err := layer.AttributeScaling(99); err == nil {
		t.Error("expected an out-of-range error for an invalid scaling index")
	}
}

func TestGeometryVariantRestriction(t *testing.T) {
	tb := NewTileBuilder()
	layer := tb.AddLayer("shapes", 2, 4096)

	lineFB := layer.NewLineStringFeatureBuilder()
	if err := lineFB.AddLineString([]Point{{X: 0, Y: 0}, {X: 1, Y: 1}}); err != nil {
		t.Fatalf("AddLineString: %v", err)
	}
	lineFB.Commit()

	polyFB := layer.NewPolygonFeatureBuilder()
	if err := polyFB.AddRing([]Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}}); err != nil {
		t.Fatalf("AddRing: %v", err)
	}
	polyFB.Commit()

	if layer.FeatureCount() != 2 {
		t.Fatalf("expected 2 features, got %d", layer.FeatureCount())
	}
}

func TestCommitWithoutGeometryPanics(t *testing.T) {
	tb := NewTileBuilder()
	layer := tb.AddLayer("layer", 2, 4096)
	fb := layer.NewFeatureBuilder()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic from committing a feature with no geometry")
		}
	}()
	fb.Commit()
}

func TestCopyFeatureSemanticRoundTrip(t *testing.T) {
	src, _ := buildSimpleTile(t, 2)
	layers, err := ParseTile(src)
	if err != nil {
		t.Fatalf("ParseTile: %v", err)
	}
	rl, err := ParseLayer(layers[0])
	if err != nil {
		t.Fatalf("ParseLayer: %v", err)
	}
	srcFeat, err := rl.Feature(0)
	if err != nil {
		t.Fatalf("Feature(0): %v", err)
	}

	tb := NewTileBuilder()
	dst := tb.AddLayer("copied", 2, 4096)
	CopyFeature(srcFeat, dst)

	outLayers, err := ParseTile(tb.Serialize())
	if err != nil {
		t.Fatalf("ParseTile (copy): %v", err)
	}
	outLayer, err := ParseLayer(outLayers[0])
	if err != nil {
		t.Fatalf("ParseLayer (copy): %v", err)
	}
	copied, err := outLayer.Feature(0)
	if err != nil {
		t.Fatalf("Feature(0) (copy): %v", err)
	}
	if !copied.HasIntegerID() || copied.IntegerID() != 1 {
		t.Errorf("expected copied feature id 1, got %v (has=%v)", copied.IntegerID(), copied.HasIntegerID())
	}
	props := copied.Properties()
	if len(props) != 1 || props[0].Key != "name" {
		t.Fatalf("expected one copied property named 'name', got %+v", props)
	}
	if s, ok := props[0].Value.AsString(); !ok || s != "a" {
		t.Errorf("expected copied property value 'a', got %q (ok=%v)", s, ok)
	}
}

func TestAddExistingLayerRoundTrip(t *testing.T) {
	// A tile built entirely from an opaque, already-encoded layer must
	// splice those bytes back out unchanged.
	raw, _ := buildSimpleTile(t, 2)
	srcLayers, err := ParseTile(raw)
	if err != nil {
		t.Fatalf("ParseTile: %v", err)
	}

	tb := NewTileBuilder()
	tb.AddExistingLayer(srcLayers[0])
	out := tb.Serialize()

	outLayers, err := ParseTile(out)
	if err != nil {
		t.Fatalf("ParseTile (roundtrip): %v", err)
	}
	if len(outLayers) != 1 {
		t.Fatalf("expected 1 layer, got %d", len(outLayers))
	}
	if string(outLayers[0]) != string(srcLayers[0]) {
		t.Error("existing layer bytes did not round-trip byte-exact")
	}
}
