package mica

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Stock filters for the pre and post pipeline stages. Hosts register them
// with Pipeline.AddPreFilter/AddPostFilter; anything implementing Filter
// slots in the same way.
//
// Ebitengine works in premultiplied alpha throughout, so every color scale
// below multiplies the RGB channels by alpha as well.

// --- TintFilter ---

// TintFilter multiplies the source by a color. With ColorWhite it is an
// identity copy; lowering A fades the layer, which is how a host can apply
// the coordinator's presented opacities to a whole frame.
type TintFilter struct {
	Color Color
	op    ebiten.DrawImageOptions
}

// NewTintFilter creates a tint filter with the given color.
func NewTintFilter(c Color) *TintFilter {
	return &TintFilter{Color: c}
}

// Apply draws src into dst scaled by the tint color.
func (f *TintFilter) Apply(src, dst *ebiten.Image) {
	f.op.GeoM.Reset()
	f.op.ColorScale.Reset()
	f.op.ColorScale.Scale(
		float32(clamp01(f.Color.R)*clamp01(f.Color.A)),
		float32(clamp01(f.Color.G)*clamp01(f.Color.A)),
		float32(clamp01(f.Color.B)*clamp01(f.Color.A)),
		float32(clamp01(f.Color.A)),
	)
	dst.DrawImage(src, &f.op)
}

// Padding returns 0; a tint never grows the image.
func (f *TintFilter) Padding() int { return 0 }

// --- GrayscaleFilter ---

const grayscaleShaderSrc = `//kage:unit pixels
package main

var Strength float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	l := dot(c.rgb, vec3(0.2126, 0.7152, 0.0722))
	c.rgb = mix(c.rgb, vec3(l), Strength)
	return c
}
`

// Lazy shader compilation (no sync.Once — mica is single-threaded).
var grayscaleShader *ebiten.Shader

func ensureGrayscaleShader() *ebiten.Shader {
	if grayscaleShader == nil {
		s, err := ebiten.NewShader([]byte(grayscaleShaderSrc))
		if err != nil {
			panic("mica: failed to compile grayscale shader: " + err.Error())
		}
		grayscaleShader = s
	}
	return grayscaleShader
}

// GrayscaleFilter desaturates the source toward Rec. 709 luma. Strength 0 is
// a no-op, 1 is full grayscale; values are clamped to [0, 1]. Useful as a
// post filter for dimming the mirror layer during zoom transitions.
type GrayscaleFilter struct {
	Strength float64
	uniforms map[string]any
	op       ebiten.DrawRectShaderOptions
}

// NewGrayscaleFilter creates a grayscale filter at full strength.
func NewGrayscaleFilter() *GrayscaleFilter {
	return &GrayscaleFilter{
		Strength: 1,
		uniforms: make(map[string]any, 1),
	}
}

// Apply renders the desaturated source into dst.
func (f *GrayscaleFilter) Apply(src, dst *ebiten.Image) {
	shader := ensureGrayscaleShader()
	f.uniforms["Strength"] = float32(clamp01(f.Strength))
	bounds := src.Bounds()
	f.op.Images[0] = src
	f.op.Uniforms = f.uniforms
	dst.DrawRectShader(bounds.Dx(), bounds.Dy(), shader, &f.op)
}

// Padding returns 0; desaturation is per-pixel.
func (f *GrayscaleFilter) Padding() int { return 0 }

// --- ShadowFilter ---

// ShadowFilter draws a black silhouette of the source at an offset, then the
// source on top. The silhouette is exact for any source content: scaling the
// premultiplied RGB channels to zero leaves only alpha.
type ShadowFilter struct {
	// OffsetX and OffsetY displace the shadow in pixels.
	OffsetX, OffsetY int
	// Alpha is the shadow opacity in [0, 1].
	Alpha float64

	op ebiten.DrawImageOptions
}

// NewShadowFilter creates a shadow filter with the given pixel offset and
// shadow opacity.
func NewShadowFilter(offsetX, offsetY int, alpha float64) *ShadowFilter {
	return &ShadowFilter{OffsetX: offsetX, OffsetY: offsetY, Alpha: alpha}
}

// Apply draws the offset silhouette behind the source image.
func (f *ShadowFilter) Apply(src, dst *ebiten.Image) {
	op := &f.op

	op.GeoM.Reset()
	op.GeoM.Translate(float64(f.OffsetX), float64(f.OffsetY))
	op.ColorScale.Reset()
	op.ColorScale.Scale(0, 0, 0, float32(clamp01(f.Alpha)))
	dst.DrawImage(src, op)

	op.GeoM.Reset()
	op.ColorScale.Reset()
	dst.DrawImage(src, op)
}

// Padding returns the largest offset magnitude so the pipeline's working
// buffer has room for the displaced silhouette.
func (f *ShadowFilter) Padding() int {
	return int(math.Max(math.Abs(float64(f.OffsetX)), math.Abs(float64(f.OffsetY))))
}
