package mica

import (
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs when a color is handed to the renderer.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default stroke/fill tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// Vec2 is a 2D vector used for sizes, offsets, and directions. It carries no
// coordinate-space meaning; typed coordinates live in coords.go.
type Vec2 struct {
	X, Y float64
}

// Box is an axis-aligned box in storage space. The coordinate system has its
// origin at the top-left, with Y increasing downward.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent of the box.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Intersects reports whether b and other overlap. Boxes sharing only an edge
// are considered intersecting. Both the sampling window and the camera cull
// with this exact predicate; they must never diverge.
func (b Box) Intersects(other Box) bool {
	return !(b.MaxX < other.MinX || b.MinX > other.MaxX ||
		b.MaxY < other.MinY || b.MinY > other.MaxY)
}

// Contains reports whether other lies entirely inside b (edges inclusive).
func (b Box) Contains(other Box) bool {
	return other.MinX >= b.MinX && other.MaxX <= b.MaxX &&
		other.MinY >= b.MinY && other.MaxY <= b.MaxY
}

// Intersection returns the overlapping region of b and other. The zero Box is
// returned when they do not overlap.
func (b Box) Intersection(other Box) Box {
	r := Box{
		MinX: max(b.MinX, other.MinX),
		MinY: max(b.MinY, other.MinY),
		MaxX: min(b.MaxX, other.MaxX),
		MaxY: min(b.MaxY, other.MaxY),
	}
	if r.MinX > r.MaxX || r.MinY > r.MaxY {
		return Box{}
	}
	return r
}

// Union returns the smallest Box containing both a and b.
func (b Box) Union(other Box) Box {
	return Box{
		MinX: min(b.MinX, other.MinX),
		MinY: min(b.MinY, other.MinY),
		MaxX: max(b.MaxX, other.MaxX),
		MaxY: max(b.MaxY, other.MaxY),
	}
}

// Expand returns the box grown by margin on every side.
func (b Box) Expand(margin float64) Box {
	return Box{
		MinX: b.MinX - margin,
		MinY: b.MinY - margin,
		MaxX: b.MaxX + margin,
		MaxY: b.MaxY + margin,
	}
}

// ZoomLevel is one of the eight legal integer zoom factors.
type ZoomLevel int

// The eight legal zoom levels. Any other value is rejected.
const (
	Zoom1   ZoomLevel = 1
	Zoom2   ZoomLevel = 2
	Zoom4   ZoomLevel = 4
	Zoom8   ZoomLevel = 8
	Zoom16  ZoomLevel = 16
	Zoom32  ZoomLevel = 32
	Zoom64  ZoomLevel = 64
	Zoom128 ZoomLevel = 128
)

// ZoomLevels lists the legal zoom levels in ascending order.
var ZoomLevels = [8]ZoomLevel{Zoom1, Zoom2, Zoom4, Zoom8, Zoom16, Zoom32, Zoom64, Zoom128}

// Valid reports whether z is one of the eight legal zoom levels.
func (z ZoomLevel) Valid() bool {
	return z > 0 && z <= 128 && z&(z-1) == 0
}

// Direction identifies a directional movement input.
type Direction uint8

const (
	DirUp    Direction = iota // negative Y
	DirDown                   // positive Y
	DirLeft                   // negative X
	DirRight                  // positive X
)

// Delta returns the movement vector for the direction at the given magnitude.
func (d Direction) Delta(magnitude float64) (dx, dy float64) {
	switch d {
	case DirUp:
		return 0, -magnitude
	case DirDown:
		return 0, magnitude
	case DirLeft:
		return -magnitude, 0
	case DirRight:
		return magnitude, 0
	default:
		return 0, 0
	}
}

// Target identifies which layer receives directional input.
type Target uint8

const (
	TargetDataLayer   Target = iota // fixed-scale sampling window
	TargetMirrorLayer               // zoomable camera
	TargetInactive                  // reserved; directional input is a no-op
)

// EvictionPolicy selects which cached texture is discarded at capacity.
type EvictionPolicy uint8

const (
	EvictLRU  EvictionPolicy = iota // least recently accessed wins
	EvictLFU                        // least access count wins
	EvictFIFO                       // oldest insertion wins
)

// Validation errors are returned to callers as typed results and never panic.
// Internal invariant breaches (ErrCacheCapacity) panic in debug mode.
var (
	ErrNotFound           = errors.New("mica: object not found")
	ErrInvalidVertexCount = errors.New("mica: invalid vertex count")
	ErrInvalidZoomLevel   = errors.New("mica: invalid zoom level")
	ErrInvalidScale       = errors.New("mica: invalid scale")
	ErrInvalidCoordinate  = errors.New("mica: non-finite coordinate")
	ErrCacheCapacity      = errors.New("mica: cache over capacity")
)

// WhitePixel is a 1x1 white image used for solid fills by the default renderer.
var WhitePixel *ebiten.Image

func init() {
	WhitePixel = ebiten.NewImage(1, 1)
	WhitePixel.Fill(ColorWhite.toRGBA())
}
