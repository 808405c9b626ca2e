package mica

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// TextureRenderer produces a texture for an object at a zoom scale. The
// engine calls it synchronously on a cache miss; the returned handle is
// usable the next tick. Hosts with their own rendering backend replace the
// default with their own implementation.
type TextureRenderer interface {
	Render(obj *Object, scale ZoomLevel) *ebiten.Image
}

// VectorRenderer is the default TextureRenderer. It rasterizes the five
// shape kinds with the vector package at the requested scale, so each zoom
// level gets a crisp re-render instead of an upscaled blur.
type VectorRenderer struct {
	// Antialias enables antialiased strokes and fills.
	Antialias bool
}

// Render rasterizes obj into a new texture sized to its bounds at scale.
func (r *VectorRenderer) Render(obj *Object, scale ZoomLevel) *ebiten.Image {
	s := float64(scale)
	w := int(math.Ceil(obj.Bounds.Width() * s))
	h := int(math.Ceil(obj.Bounds.Height() * s))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := ebiten.NewImage(w, h)

	// Texture-local coordinates: storage point mapped into the texture.
	tx := func(v StorageCoord) (float32, float32) {
		return float32((v.X - obj.Bounds.MinX) * s), float32((v.Y - obj.Bounds.MinY) * s)
	}

	style := obj.Style
	stroke := style.StrokeColor.withAlpha(style.StrokeAlpha).toRGBA()
	fill := style.FillColor.withAlpha(style.FillAlpha).toRGBA()
	width := float32(style.StrokeWidth * s)
	if width <= 0 {
		width = 1
	}

	switch obj.Kind {
	case KindPoint:
		x, y := tx(obj.Vertices[0])
		vector.DrawFilledCircle(img, x, y, width/2, stroke, r.Antialias)

	case KindLine:
		x0, y0 := tx(obj.Vertices[0])
		x1, y1 := tx(obj.Vertices[1])
		vector.StrokeLine(img, x0, y0, x1, y1, width, stroke, r.Antialias)

	case KindCircle:
		cx, cy := tx(obj.Vertices[0])
		radius := float32(math.Hypot(
			obj.Vertices[1].X-obj.Vertices[0].X,
			obj.Vertices[1].Y-obj.Vertices[0].Y) * s)
		if style.FillAlpha > 0 {
			vector.DrawFilledCircle(img, cx, cy, radius, fill, r.Antialias)
		}
		vector.StrokeCircle(img, cx, cy, radius, width, stroke, r.Antialias)

	case KindRectangle:
		x0, y0 := tx(StorageCoord{X: obj.Bounds.MinX, Y: obj.Bounds.MinY})
		rw := float32(obj.Bounds.Width() * s)
		rh := float32(obj.Bounds.Height() * s)
		if style.FillAlpha > 0 {
			vector.DrawFilledRect(img, x0, y0, rw, rh, fill, r.Antialias)
		}
		vector.StrokeRect(img, x0, y0, rw, rh, width, stroke, r.Antialias)

	case KindDiamond:
		r.drawDiamond(img, obj, tx, width, stroke, fill, style.FillAlpha > 0)
	}

	return img
}

// drawDiamond fills the quad as a two-triangle fan, then strokes its edges.
func (r *VectorRenderer) drawDiamond(img *ebiten.Image, obj *Object,
	tx func(StorageCoord) (float32, float32), width float32, stroke, fill colorRGBA, filled bool) {

	var xs, ys [4]float32
	for i, v := range obj.Vertices {
		xs[i], ys[i] = tx(v)
	}

	if filled {
		fr := float32(fill.R) / 255
		fg := float32(fill.G) / 255
		fb := float32(fill.B) / 255
		fa := float32(fill.A) / 255
		verts := make([]ebiten.Vertex, 4)
		for i := range verts {
			verts[i] = ebiten.Vertex{
				DstX: xs[i], DstY: ys[i],
				ColorR: fr, ColorG: fg, ColorB: fb, ColorA: fa,
			}
		}
		// west/north/east/south order: two triangles around the west-east
		// diagonal.
		indices := []uint16{0, 1, 2, 0, 2, 3}
		img.DrawTriangles(verts, indices, WhitePixel, &ebiten.DrawTrianglesOptions{})
	}

	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		vector.StrokeLine(img, xs[i], ys[i], xs[j], ys[j], width, stroke, r.Antialias)
	}
}

// --- Color helpers ---

// withAlpha returns the color with its alpha multiplied by a.
func (c Color) withAlpha(a float64) Color {
	return Color{R: c.R, G: c.G, B: c.B, A: c.A * a}
}

// toRGBA converts a Color to a premultiplied 8-bit color.
func (c Color) toRGBA() colorRGBA {
	return colorRGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

// colorRGBA implements the color.Color interface for image fills.
type colorRGBA struct {
	R, G, B, A uint8
}

func (c colorRGBA) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	a = uint32(c.A) * 0x101
	return
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
