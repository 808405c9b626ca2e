package mica

import "math"

// Camera is the mirror layer's view into storage space: position, zoom scale,
// rotation, and viewport size. It displays cached textures sampled by the
// data layer; it never owns geometry.
//
// Owned exclusively by the mirror layer; mutated by PanBy, SetScale, and
// SetRotation.
type Camera struct {
	// Position is the storage-space point the camera centers on.
	Position StorageCoord
	// Scale is the zoom factor. Always equal to the active zoom level.
	Scale float64
	// Rotation is the camera rotation in radians (clockwise).
	Rotation float64
	// Size is the viewport size in device pixels.
	Size Vec2

	// level is the active zoom level, applied by the coordinator. SetScale
	// rejects any other value.
	level ZoomLevel

	viewMatrix    [6]float64
	invViewMatrix [6]float64
	dirty         bool
}

// NewCamera creates a camera with the given viewport size at zoom level 1.
func NewCamera(size Vec2) *Camera {
	return &Camera{
		Scale: 1,
		Size:  size,
		level: Zoom1,
		dirty: true,
	}
}

// PanBy shifts the camera position in storage space.
func (c *Camera) PanBy(dx, dy float64) {
	c.Position.X += dx
	c.Position.Y += dy
	c.dirty = true
}

// SetScale sets the camera scale. s must equal the active zoom level;
// arbitrary scales would break pixel alignment with the cached textures.
func (c *Camera) SetScale(s float64) error {
	if s != float64(c.level) {
		return ErrInvalidScale
	}
	c.Scale = s
	c.dirty = true
	return nil
}

// SetRotation sets the camera rotation in radians.
func (c *Camera) SetRotation(r float64) {
	c.Rotation = r
	c.dirty = true
}

// applyLevel is called by the zoom coordinator when the active level changes.
func (c *Camera) applyLevel(level ZoomLevel) {
	c.level = level
	c.Scale = float64(level)
	c.dirty = true
}

// Level returns the active zoom level.
func (c *Camera) Level() ZoomLevel { return c.level }

// ViewMatrix recomputes and returns the cached view matrix if dirty.
//
// viewMatrix = Translate(cx, cy) * Scale(zoom) * Rotate(-rotation) * Translate(-X, -Y)
// where cx, cy = viewport center.
func (c *Camera) ViewMatrix() [6]float64 {
	if !c.dirty {
		return c.viewMatrix
	}
	c.dirty = false

	cx := c.Size.X / 2
	cy := c.Size.Y / 2

	cos := math.Cos(-c.Rotation)
	sin := math.Sin(-c.Rotation)
	z := c.Scale

	a := z * cos
	b := -z * sin
	cc := z * sin
	d := z * cos
	tx := cx + z*(-cos*c.Position.X+sin*c.Position.Y)
	ty := cy + z*(-sin*c.Position.X-cos*c.Position.Y)

	c.viewMatrix = [6]float64{a, cc, b, d, tx, ty}
	c.invViewMatrix = invertAffine(c.viewMatrix)
	return c.viewMatrix
}

// WorldToScreen converts a storage-space point to device coordinates.
func (c *Camera) WorldToScreen(p StorageCoord) DeviceCoord {
	c.ViewMatrix()
	x, y := transformPoint(c.viewMatrix, p.X, p.Y)
	return DeviceCoord{X: x, Y: y}
}

// ScreenToWorld converts a device-space point to storage coordinates.
func (c *Camera) ScreenToWorld(p DeviceCoord) StorageCoord {
	c.ViewMatrix()
	x, y := transformPoint(c.invViewMatrix, p.X, p.Y)
	return StorageCoord{X: x, Y: y}
}

// VisibleBounds returns the axis-aligned storage-space box covered by the
// camera's viewport, accounting for rotation.
func (c *Camera) VisibleBounds() Box {
	c.ViewMatrix()
	inv := c.invViewMatrix

	x0, y0 := transformPoint(inv, 0, 0)
	x1, y1 := transformPoint(inv, c.Size.X, 0)
	x2, y2 := transformPoint(inv, c.Size.X, c.Size.Y)
	x3, y3 := transformPoint(inv, 0, c.Size.Y)

	return Box{
		MinX: min(min(x0, x1), min(x2, x3)),
		MinY: min(min(y0, y1), min(y2, y3)),
		MaxX: max(max(x0, x1), max(x2, x3)),
		MaxY: max(max(y0, y1), max(y2, y3)),
	}
}

// MarkDirty forces a recomputation of the view matrix.
func (c *Camera) MarkDirty() {
	c.dirty = true
}

// --- Affine helpers ---

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// invertAffine computes the inverse of a 2D affine matrix [a, b, c, d, tx, ty].
// Returns the identity matrix if the matrix is singular.
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}
