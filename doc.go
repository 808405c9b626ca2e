// Package mica is the dual-layer coordination core for a pannable, zoomable
// canvas of user-drawn geometric shapes, built on [Ebitengine].
//
// Mica is a library, not an application: a rendering/UI host drives it
// through object CRUD, directional move events, zoom changes, and one
// [Engine.Tick] per rendered frame, and presents the visible set, transform,
// and frame texture it gets back.
//
// # Two layers, three spaces
//
// Geometry lives in storage space, independent of zoom. Two layers view it:
//
//   - The data layer ([Window]) samples a scrollable window of storage space
//     at a fixed scale of exactly 1, keeping memory proportional to the
//     window rather than the zoom.
//   - The mirror layer ([Camera]) pans, zooms, and rotates over textures
//     rendered from the data layer's samples and held in a [TextureCache].
//
// Conversions between storage, render, and device space are pure functions
// in coords.go; the three coordinate kinds are distinct types and never mix
// without an explicit conversion.
//
// # Zoom coordination
//
// The [Coordinator] is a state machine over the eight legal zoom levels
// {1, 2, 4, 8, 16, 32, 64, 128}. At level 1 directional input moves the
// sampling window and both layers are opaque; at any other level input pans
// the camera and the data layer is hidden. The switch is instantaneous; a
// gween-driven crossfade smooths only the presented opacities.
//
// # Quick start
//
//	eng := mica.NewEngine(mica.Config{ViewportSize: mica.Vec2{X: 640, Y: 480}})
//	id, _ := eng.CreateObject(mica.KindRectangle,
//		[]mica.StorageCoord{{X: 0, Y: 0}, {X: 10, Y: 10}}, mica.DefaultStyle)
//	eng.Move(mica.DirRight, 25)
//	_ = eng.SetZoom(mica.Zoom4)
//	result := eng.Tick(1.0 / 60)
//	_ = id
//	_ = result.VisibleObjects
//
// Hosts that render shapes themselves implement [TextureRenderer]; the
// default [VectorRenderer] rasterizes the five shape kinds with
// ebiten/v2/vector.
//
// [Ebitengine]: https://ebitengine.org
package mica
