// pkg/mvt/errors.go - recoverable vs fatal error handling
package mvt

import "fmt"

// GeometryError reports a recoverable geometry validation failure,
// such as too many or too few points. Callers either rollback the
// feature in progress or discard the tile; the builder never panics
// for these, only for programmer errors (see invariant).
type GeometryError struct {
	Op  string
	Msg string
}

func (e *GeometryError) Error() string { return fmt.Sprintf("mvt: %s: %s", e.Op, e.Msg) }

func newGeometryError(op, msg string) *GeometryError {
	return &GeometryError{Op: op, Msg: msg}
}

// OutOfRangeError is returned when a table index (e.g. an attribute
// scaling index) falls outside what has been added so far.
type OutOfRangeError struct {
	What  string
	Index int
	Len   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("mvt: %s index %d out of range [0,%d)", e.What, e.Index, e.Len)
}

func newOutOfRangeError(what string, index, length int) *OutOfRangeError {
	return &OutOfRangeError{What: what, Index: index, Len: length}
}

// invariant panics on a wrong state transition or other programmer
// error: committing before geometry is set, a second active feature
// builder on one layer, a string id on a version < 3 layer, and so
// on. These indicate a bug in the caller, not a runtime condition, so
// they're surfaced as fatal assertions rather than returned errors.
func invariant(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("mvt: invariant violation: "+format, args...))
	}
}
