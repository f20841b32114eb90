// pkg/mvt/geometry_encode.go - geometry command stream encoding
//
// Follows the MVT geometry encoding: a command integer (id in the low
// 3 bits, repeat count in the rest) precedes a run of zig-zag encoded
// coordinate deltas, the whole thing packed as a repeated uint32
// field. Validation here is limited to point/part/ring length checks;
// self-intersection and winding order are explicitly out of scope.
package mvt

const (
	cmdMoveTo    = 1
	cmdLineTo    = 2
	cmdClosePath = 7
)

// maxCommandCount is the largest repeat count a command integer can
// carry: the count occupies all but the low 3 bits of a uint32.
const maxCommandCount = 1<<29 - 1

// GeometryType mirrors the MVT feature geometry enum.
type GeometryType uint32

const (
	GeometryUnknown    GeometryType = 0
	GeometryPoint      GeometryType = 1
	GeometryLineString GeometryType = 2
	GeometryPolygon    GeometryType = 3
	GeometrySpline     GeometryType = 4 // v3 only
)

// Point is a single quantized coordinate within a layer's extent
// grid, not a geographic coordinate.
type Point struct {
	X, Y int32
}

// PointSequence is any sized, indexable container of points. It lets
// AddPointsFromContainer accept something other than a plain slice.
type PointSequence interface {
	Len() int
	At(i int) Point
}

// Points adapts a plain slice to PointSequence.
type Points []Point

func (p Points) Len() int        { return len(p) }
func (p Points) At(i int) Point  { return p[i] }

func commandInteger(cmd uint32, count int) uint32 {
	return (cmd & 0x7) | (uint32(count) << 3)
}

// geometryAccumulator builds the packed command/parameter stream for
// one feature's geometry, tracking the cursor across every part so
// multi-part geometries (MULTILINESTRING, MULTIPOLYGON) delta-encode
// correctly against the previous part's last point.
type geometryAccumulator struct {
	cmds   []uint32
	cx, cy int32
}

func (g *geometryAccumulator) command(cmd uint32, count int) {
	g.cmds = append(g.cmds, commandInteger(cmd, count))
}

func (g *geometryAccumulator) moveTo(p Point) {
	dx := p.X - g.cx
	dy := p.Y - g.cy
	g.cx, g.cy = p.X, p.Y
	g.cmds = append(g.cmds, zigzag32(dx), zigzag32(dy))
}

func (g *geometryAccumulator) addMultiPoint(seq PointSequence) error {
	n := seq.Len()
	if n == 0 {
		return newGeometryError("add_point", "at least one point is required")
	}
	if n > maxCommandCount {
		return newGeometryError("add_point", "too many points")
	}
	g.command(cmdMoveTo, n)
	for i := 0; i < n; i++ {
		g.moveTo(seq.At(i))
	}
	return nil
}

func (g *geometryAccumulator) addLineStringPart(points []Point) error {
	if len(points) < 2 {
		return newGeometryError("add_linestring", "a linestring part needs at least 2 points")
	}
	if len(points) > maxCommandCount {
		return newGeometryError("add_linestring", "too many points")
	}
	g.command(cmdMoveTo, 1)
	g.moveTo(points[0])
	g.command(cmdLineTo, len(points)-1)
	for _, p := range points[1:] {
		g.moveTo(p)
	}
	return nil
}

func (g *geometryAccumulator) addRing(points []Point) error {
	if len(points) < 4 {
		return newGeometryError("add_polygon", "a ring needs at least 4 points including the closing point")
	}
	if len(points) > maxCommandCount {
		return newGeometryError("add_polygon", "too many points")
	}
	g.command(cmdMoveTo, 1)
	g.moveTo(points[0])
	g.command(cmdLineTo, len(points)-2)
	for _, p := range points[1 : len(points)-1] {
		g.moveTo(p)
	}
	g.command(cmdClosePath, 1)
	return nil
}
