// pkg/mvt/encode_geojson.go - GeoJSON-to-tile encoding
//
// Projects WGS84 coordinates into a layer's local pixel grid at a
// given tile coordinate (geometry.go's applyGeometryTransform walks
// the orb geometry tree), then drives a LayerBuilder from the
// projected geometry and properties.
package mvt

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// EncodeOptions controls how a GeoJSON feature collection is turned
// into one layer of one tile.
type EncodeOptions struct {
	LayerName string
	Version   uint32
	Extent    uint32
	Z, X, Y   int
}

// EncodeFeatureCollection adds one layer to tb, built from fc's
// features projected into the tile at (Z, X, Y). A feature whose
// geometry fails validation (too few points for its shape) is rolled
// back and skipped rather than aborting the whole tile; the first
// such error is returned once every feature has been attempted, so
// callers can log it without losing a partially built tile.
func EncodeFeatureCollection(tb *TileBuilder, fc *geojson.FeatureCollection, opts EncodeOptions) error {
	layer := tb.AddLayer(opts.LayerName, opts.Version, opts.Extent)
	project := tileProjector(opts.Z, opts.X, opts.Y, opts.Extent)

	var firstErr error
	for _, feat := range fc.Features {
		if err := encodeFeature(layer, feat, project); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func encodeFeature(layer *LayerBuilder, feat *geojson.Feature, project func(orb.Point) orb.Point) error {
	projected := applyGeometryTransform(feat.Geometry, project)

	fb := layer.NewFeatureBuilder()
	if id, ok := feat.ID.(float64); ok {
		fb.SetIntegerID(uint64(id))
	}

	var geomErr error
	switch g := projected.(type) {
	case orb.Point:
		geomErr = fb.AddPoint(toPoint(g))
	case orb.MultiPoint:
		geomErr = fb.AddPointSequence(toPoints(g))
	case orb.LineString:
		geomErr = fb.AddLineString(toPoints(orb.MultiPoint(g)))
	case orb.MultiLineString:
		for _, ls := range g {
			if err := fb.AddLineString(toPoints(orb.MultiPoint(ls))); err != nil {
				geomErr = err
				break
			}
		}
	case orb.Polygon:
		for _, ring := range g {
			if err := fb.AddRing(toPoints(orb.MultiPoint(ring))); err != nil {
				geomErr = err
				break
			}
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			for _, ring := range poly {
				if err := fb.AddRing(toPoints(orb.MultiPoint(ring))); err != nil {
					geomErr = err
					break
				}
			}
		}
	default:
		geomErr = newGeometryError("encode_feature", fmt.Sprintf("unsupported geometry type %T", g))
	}
	if geomErr != nil {
		fb.Rollback()
		return geomErr
	}

	for key, val := range feat.Properties {
		addDecomposedAttribute(fb, layer, Property{Key: key, Value: propertyValue(val)})
	}
	fb.Commit()
	return nil
}

func propertyValue(v interface{}) Value {
	switch t := v.(type) {
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case float64:
		return DoubleValue(t)
	case int:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	default:
		return StringValue(fmt.Sprintf("%v", t))
	}
}

func toPoint(p orb.Point) Point { return Point{X: int32(math.Round(p[0])), Y: int32(math.Round(p[1]))} }

func toPoints(mp orb.MultiPoint) Points {
	out := make(Points, len(mp))
	for i, p := range mp {
		out[i] = toPoint(p)
	}
	return out
}

// tileProjector builds the WGS84-to-tile-pixel transform for tile
// (z, x, y) at the given extent: standard Web Mercator, scaled from
// the tile's global fraction into local pixel space.
func tileProjector(z, x, y int, extent uint32) func(orb.Point) orb.Point {
	n := math.Exp2(float64(z))
	ext := float64(extent)
	return func(p orb.Point) orb.Point {
		lon, lat := p[0], p[1]
		latRad := lat * math.Pi / 180
		globalX := (lon + 180) / 360 * n
		globalY := (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n

		tileX := (globalX - float64(x)) * ext
		tileY := (globalY - float64(y)) * ext
		return orb.Point{tileX, tileY}
	}
}
