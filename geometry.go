package mica

import (
	"fmt"
	"math"
)

// ObjectID identifies a geometric object. IDs are assigned by the Store and
// are never reused within a Store's lifetime.
type ObjectID uint32

// ShapeKind distinguishes the five geometric object kinds. Vertex count and
// order are kind-specific and fixed at creation.
type ShapeKind uint8

const (
	KindPoint     ShapeKind = iota // 1 vertex: the point
	KindLine                       // 2 vertices: endpoints
	KindCircle                     // 2 vertices: center, then a point on the rim
	KindRectangle                  // 2 vertices: opposite corners
	KindDiamond                    // 4 vertices: west, north, east, south
)

// String returns the lowercase kind name.
func (k ShapeKind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindLine:
		return "line"
	case KindCircle:
		return "circle"
	case KindRectangle:
		return "rectangle"
	case KindDiamond:
		return "diamond"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// vertexCount returns the exact vertex count required by a kind, or -1 for an
// unknown kind.
func (k ShapeKind) vertexCount() int {
	switch k {
	case KindPoint:
		return 1
	case KindLine, KindCircle, KindRectangle:
		return 2
	case KindDiamond:
		return 4
	default:
		return -1
	}
}

// Style holds the visual properties of a geometric object.
type Style struct {
	StrokeColor Color
	FillColor   Color
	StrokeWidth float64
	StrokeAlpha float64
	FillAlpha   float64
}

// DefaultStyle is a 1px white stroke with no fill.
var DefaultStyle = Style{
	StrokeColor: ColorWhite,
	StrokeWidth: 1,
	StrokeAlpha: 1,
}

// VisibilityClass classifies an object's relationship to a viewport box.
type VisibilityClass uint8

const (
	Offscreen        VisibilityClass = iota // no overlap with the viewport
	PartiallyVisible                        // overlaps the viewport edge
	FullyVisible                            // entirely inside the viewport (or its buffer margin)
)

// VisibilityEntry is a memoized visibility classification. Entries are only
// valid for the scale and viewport box they were computed at.
type VisibilityEntry struct {
	Class VisibilityClass
	// OnScreen is the storage-space sub-box of the object currently inside
	// the viewport. Only set for PartiallyVisible.
	OnScreen Box
	// TextureOffset is the pixel offset of OnScreen within the object's full
	// render at the entry's scale, used for texture-region extraction.
	// Only set for PartiallyVisible.
	TextureOffset Vec2

	viewport Box // viewport the entry was computed against
}

// Object is a single geometric object. A flat struct is used for all kinds to
// avoid interface dispatch on the hot path; kind-specific behavior is
// exhaustively switched on Kind.
//
// Objects are owned by a Store: mutate only through Store.Update.
type Object struct {
	ID       ObjectID
	Kind     ShapeKind
	Vertices []StorageCoord
	Style    Style

	// Bounds is derived from Vertices and recomputed whenever they change.
	Bounds Box

	// version increments on every Update; the texture cache uses it to
	// detect stale renders.
	version uint64

	// memo caches visibility classification per scale. Cleared entirely on
	// any vertex or bounds change; partial invalidation is a correctness
	// hazard since a bounds change can flip any cached class.
	memo map[ZoomLevel]VisibilityEntry
}

// Version returns the object's mutation version.
func (o *Object) Version() uint64 { return o.version }

// validateVertices checks the vertex arity and kind-specific ordering rules.
func validateVertices(kind ShapeKind, vertices []StorageCoord) error {
	want := kind.vertexCount()
	if want < 0 {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidVertexCount, kind)
	}
	if len(vertices) != want {
		return fmt.Errorf("%w: %s requires %d vertices, got %d",
			ErrInvalidVertexCount, kind, want, len(vertices))
	}
	for _, v := range vertices {
		if !finite(v.X, v.Y) {
			return fmt.Errorf("%w: %s vertex", ErrInvalidCoordinate, kind)
		}
	}
	if kind == KindDiamond {
		w, n, e, s := vertices[0], vertices[1], vertices[2], vertices[3]
		// Vertices must arrive in west/north/east/south order.
		if w.X > e.X || n.Y > s.Y {
			return fmt.Errorf("%w: diamond vertices must be in west/north/east/south order",
				ErrInvalidVertexCount)
		}
	}
	return nil
}

// computeBounds derives the axis-aligned bounds for a validated vertex set.
func computeBounds(kind ShapeKind, vertices []StorageCoord) Box {
	switch kind {
	case KindCircle:
		center, rim := vertices[0], vertices[1]
		r := math.Hypot(rim.X-center.X, rim.Y-center.Y)
		return Box{
			MinX: center.X - r, MinY: center.Y - r,
			MaxX: center.X + r, MaxY: center.Y + r,
		}
	default:
		b := Box{
			MinX: vertices[0].X, MinY: vertices[0].Y,
			MaxX: vertices[0].X, MaxY: vertices[0].Y,
		}
		for _, v := range vertices[1:] {
			b.MinX = min(b.MinX, v.X)
			b.MinY = min(b.MinY, v.Y)
			b.MaxX = max(b.MaxX, v.X)
			b.MaxY = max(b.MaxY, v.Y)
		}
		return b
	}
}

// classifyVisibility classifies object bounds against a viewport box at the
// given scale.
//
// Tie-break for objects straddling the buffer margin: bounds entirely inside
// the margin-expanded viewport classify FullyVisible; bounds crossing the
// expanded edge classify PartiallyVisible against the unexpanded viewport.
func classifyVisibility(bounds Box, viewport Box, margin float64, scale ZoomLevel) VisibilityEntry {
	entry := VisibilityEntry{viewport: viewport}

	if !bounds.Intersects(viewport) {
		entry.Class = Offscreen
		return entry
	}
	if viewport.Expand(margin).Contains(bounds) {
		entry.Class = FullyVisible
		return entry
	}

	entry.Class = PartiallyVisible
	entry.OnScreen = bounds.Intersection(viewport)
	s := float64(scale)
	entry.TextureOffset = Vec2{
		X: (entry.OnScreen.MinX - bounds.MinX) * s,
		Y: (entry.OnScreen.MinY - bounds.MinY) * s,
	}
	return entry
}
