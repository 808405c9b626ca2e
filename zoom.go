package mica

import (
	"fmt"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// LayerVisibility holds the opacity of each layer.
type LayerVisibility struct {
	DataOpacity   float64
	MirrorOpacity float64
}

// CoordinationState is the single process-wide coordination record:
// current/previous zoom level, input routing target, and layer visibility.
// Initialized at startup; mutated only by the Coordinator; read by renderers.
type CoordinationState struct {
	ZoomLevel         ZoomLevel
	PreviousZoomLevel ZoomLevel
	WASDTarget        Target
	LayerVisibility   LayerVisibility
	SyncVersion       uint64
}

// layerFade crossfades the presented layer opacities.
type layerFade struct {
	data   *gween.Tween
	mirror *gween.Tween
	done   bool
}

// Coordinator is the zoom-dependent state machine. It decides which layer
// receives directional input and how visible each layer is, per zoom level,
// and drives the transition crossfade purely for presentation smoothing —
// routing and visibility switch instantly on SetZoom and never wait for the
// transition to finish.
type Coordinator struct {
	state  CoordinationState
	window *Window
	camera *Camera

	// presented opacities lag state.LayerVisibility by the crossfade.
	presented LayerVisibility
	fade      *layerFade
	// duration of the crossfade in seconds.
	duration float32
}

// NewCoordinator creates a coordinator at zoom level 1 with the given
// transition duration in seconds.
func NewCoordinator(window *Window, camera *Camera, transitionSeconds float64) *Coordinator {
	return &Coordinator{
		state: CoordinationState{
			ZoomLevel:         Zoom1,
			PreviousZoomLevel: Zoom1,
			WASDTarget:        TargetDataLayer,
			LayerVisibility:   LayerVisibility{DataOpacity: 1, MirrorOpacity: 1},
		},
		window:    window,
		camera:    camera,
		presented: LayerVisibility{DataOpacity: 1, MirrorOpacity: 1},
		duration:  float32(transitionSeconds),
	}
}

// State returns a copy of the coordination state.
func (z *Coordinator) State() CoordinationState { return z.state }

// PresentedOpacity returns the crossfaded opacities renderers should draw
// with. These converge on State().LayerVisibility over the transition
// duration.
func (z *Coordinator) PresentedOpacity() LayerVisibility { return z.presented }

// SetZoom transitions the state machine to the given level. Non-member
// values are rejected. The routing target and snap visibilities update
// immediately; only the presented opacities animate. A SetZoom arriving
// mid-transition supersedes the in-flight crossfade (last write wins).
func (z *Coordinator) SetZoom(level ZoomLevel) error {
	if !level.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidZoomLevel, level)
	}

	changed := level != z.state.ZoomLevel
	z.state.PreviousZoomLevel = z.state.ZoomLevel
	z.state.ZoomLevel = level

	if level == Zoom1 {
		z.state.WASDTarget = TargetDataLayer
		z.state.LayerVisibility = LayerVisibility{DataOpacity: 1, MirrorOpacity: 1}
	} else {
		z.state.WASDTarget = TargetMirrorLayer
		z.state.LayerVisibility = LayerVisibility{DataOpacity: 0, MirrorOpacity: 1}
	}
	if changed {
		z.state.SyncVersion++
	}

	if z.camera != nil {
		z.camera.applyLevel(level)
	}

	// Restart the crossfade even for a same-level SetZoom; the snap state is
	// already correct, so the restart is only presentation.
	z.startFade()
	return nil
}

// startFade begins a crossfade from the presented opacities to the snap
// targets.
func (z *Coordinator) startFade() {
	if z.duration <= 0 {
		z.presented = z.state.LayerVisibility
		z.fade = nil
		return
	}
	z.fade = &layerFade{
		data: gween.New(float32(z.presented.DataOpacity),
			float32(z.state.LayerVisibility.DataOpacity), z.duration, ease.Linear),
		mirror: gween.New(float32(z.presented.MirrorOpacity),
			float32(z.state.LayerVisibility.MirrorOpacity), z.duration, ease.Linear),
	}
}

// Update advances the crossfade by dt seconds.
func (z *Coordinator) Update(dt float64) {
	if z.fade == nil || z.fade.done {
		return
	}
	d, doneD := z.fade.data.Update(float32(dt))
	m, doneM := z.fade.mirror.Update(float32(dt))
	z.presented.DataOpacity = float64(d)
	z.presented.MirrorOpacity = float64(m)
	if doneD && doneM {
		z.fade.done = true
		z.presented = z.state.LayerVisibility
	}
}

// RouteMove dispatches a directional move to the layer selected by the
// current routing target. At TargetInactive the call is a no-op, not an
// error.
func (z *Coordinator) RouteMove(dir Direction, magnitude float64) {
	dx, dy := dir.Delta(magnitude)
	switch z.state.WASDTarget {
	case TargetDataLayer:
		if z.window != nil {
			z.window.MoveBy(dx, dy)
		}
	case TargetMirrorLayer:
		if z.camera != nil {
			z.camera.PanBy(dx, dy)
		}
	case TargetInactive:
		// Reserved; unreachable in the 8-level design.
	}
}
