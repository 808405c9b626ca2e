package mica

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Config is the engine configuration surface. Zero values take defaults.
type Config struct {
	// ViewportSize is the host viewport in device pixels.
	ViewportSize Vec2
	// MaxVisibleObjects caps the sampling window's result length.
	MaxVisibleObjects int
	// SamplingBufferMargin expands the sampling bounds in storage units.
	SamplingBufferMargin float64
	// MaxCacheSize caps the texture cache entry count.
	MaxCacheSize int
	// MaxTextureAge evicts textures older than this on sweep. Zero keeps
	// textures until invalidation or capacity eviction.
	MaxTextureAge time.Duration
	// EvictionPolicy selects the cache eviction strategy.
	EvictionPolicy EvictionPolicy
	// ZoomTransitionDuration is the presentation crossfade length.
	ZoomTransitionDuration time.Duration
	// Renderer produces textures on cache misses. Defaults to a
	// VectorRenderer.
	Renderer TextureRenderer
}

const (
	defaultViewportW         = 800
	defaultViewportH         = 600
	defaultMaxVisibleObjects = 512
	defaultBufferMargin      = 64
	defaultMaxCacheSize      = 256
	defaultTransition        = 300 * time.Millisecond
)

func (cfg *Config) fillDefaults() {
	if cfg.ViewportSize.X <= 0 {
		cfg.ViewportSize.X = defaultViewportW
	}
	if cfg.ViewportSize.Y <= 0 {
		cfg.ViewportSize.Y = defaultViewportH
	}
	if cfg.MaxVisibleObjects <= 0 {
		cfg.MaxVisibleObjects = defaultMaxVisibleObjects
	}
	if cfg.SamplingBufferMargin <= 0 {
		cfg.SamplingBufferMargin = defaultBufferMargin
	}
	if cfg.MaxCacheSize <= 0 {
		cfg.MaxCacheSize = defaultMaxCacheSize
	}
	if cfg.ZoomTransitionDuration <= 0 {
		cfg.ZoomTransitionDuration = defaultTransition
	}
	if cfg.Renderer == nil {
		cfg.Renderer = &VectorRenderer{Antialias: true}
	}
}

// FrameResult is what a Tick hands back to the host.
type FrameResult struct {
	// VisibleObjects is the current visible object set in ascending id
	// order. The slice is reused across ticks; copy to retain.
	VisibleObjects []ObjectID
	// CameraTransform is the active affine transform: the sampling offset
	// at zoom 1, the camera view matrix otherwise.
	CameraTransform [6]float64
	// LayerOpacity is the crossfaded presentation opacity per layer.
	LayerOpacity LayerVisibility
	// CacheStats is the texture cache snapshot after this tick.
	CacheStats CacheStats
	// Frame is the pipeline output, or nil when no frame source is set.
	Frame *ebiten.Image
}

// pendingMove is a queued directional input, drained at the start of a tick
// so routing always precedes the downstream tick steps.
type pendingMove struct {
	dir       Direction
	magnitude float64
}

// Engine is the dual-layer coordination core. It owns the geometry store,
// the sampling window (data layer), the camera (mirror layer), the texture
// cache, the zoom coordinator, and the filter pipeline, and runs one logical
// tick per rendered frame.
//
// Single-threaded by design: all calls must come from the host's frame loop.
type Engine struct {
	store    *Store
	window   *Window
	camera   *Camera
	cache    *TextureCache
	coord    *Coordinator
	pipeline *Pipeline
	renderer TextureRenderer

	moves []pendingMove
	clock float64 // seconds, advanced by Tick

	frameSource *ebiten.Image
	sink        EventSink

	result FrameResult

	debug bool
	stats tickStats
}

// NewEngine wires the core components per the given configuration.
func NewEngine(cfg Config) *Engine {
	cfg.fillDefaults()

	store := NewStore(cfg.SamplingBufferMargin)
	window := NewWindow(store, cfg.ViewportSize, cfg.SamplingBufferMargin, cfg.MaxVisibleObjects)
	camera := NewCamera(cfg.ViewportSize)
	cache := NewTextureCache(cfg.MaxCacheSize, cfg.EvictionPolicy, cfg.MaxTextureAge.Seconds())
	store.SetInvalidator(cache)

	return &Engine{
		store:    store,
		window:   window,
		camera:   camera,
		cache:    cache,
		coord:    NewCoordinator(window, camera, cfg.ZoomTransitionDuration.Seconds()),
		pipeline: NewPipeline(),
		renderer: cfg.Renderer,
	}
}

// Store returns the geometry store. Mutate only through its public
// operations.
func (e *Engine) Store() *Store { return e.store }

// Camera returns the mirror-layer camera.
func (e *Engine) Camera() *Camera { return e.camera }

// Window returns the data-layer sampling window.
func (e *Engine) Window() *Window { return e.window }

// Pipeline returns the filter pipeline for pre/post filter registration.
func (e *Engine) Pipeline() *Pipeline { return e.pipeline }

// Coordination returns a copy of the coordination state.
func (e *Engine) Coordination() CoordinationState { return e.coord.State() }

// SetFrameSource sets the texture the filter pipeline runs on each tick.
// With no frame source, Tick skips the pipeline and FrameResult.Frame is nil.
func (e *Engine) SetFrameSource(src *ebiten.Image) {
	e.frameSource = src
}

// SetDebugMode toggles debug mode: invariant breaches panic and per-tick
// stats are logged to stderr.
func (e *Engine) SetDebugMode(enabled bool) {
	e.debug = enabled
	e.cache.debug = enabled
}

// --- Object CRUD ---

// CreateObject adds a geometric object and returns its id.
func (e *Engine) CreateObject(kind ShapeKind, vertices []StorageCoord, style Style) (ObjectID, error) {
	id, err := e.store.Add(kind, vertices, style)
	if err != nil {
		return 0, err
	}
	e.window.MarkDirty()
	e.emit(EngineEvent{Type: EventObjectAdded, ObjectID: id})
	return id, nil
}

// UpdateObject mutates an object. The visibility memo is cleared and the
// cached textures for the id are invalidated.
func (e *Engine) UpdateObject(id ObjectID, upd ObjectUpdate) error {
	if err := e.store.Update(id, upd); err != nil {
		return err
	}
	e.window.MarkDirty()
	e.emit(EngineEvent{Type: EventObjectUpdated, ObjectID: id})
	return nil
}

// RemoveObject deletes an object, cascading a texture invalidation.
func (e *Engine) RemoveObject(id ObjectID) error {
	if err := e.store.Remove(id); err != nil {
		return err
	}
	e.window.MarkDirty()
	e.emit(EngineEvent{Type: EventObjectRemoved, ObjectID: id})
	return nil
}

// --- Input ---

// Move queues a directional movement event. The event is routed at the start
// of the next Tick, so the target reflects the zoom level current at that
// time.
func (e *Engine) Move(dir Direction, magnitude float64) {
	e.moves = append(e.moves, pendingMove{dir: dir, magnitude: magnitude})
}

// SetZoom changes the zoom level immediately. A change arriving mid-
// transition supersedes the in-flight crossfade; there is no queued zoom
// history.
func (e *Engine) SetZoom(level ZoomLevel) error {
	if err := e.coord.SetZoom(level); err != nil {
		return err
	}
	st := e.coord.State()
	e.emit(EngineEvent{
		Type:              EventZoomChanged,
		ZoomLevel:         st.ZoomLevel,
		PreviousZoomLevel: st.PreviousZoomLevel,
	})
	return nil
}

// CacheStats returns the texture cache statistics snapshot.
func (e *Engine) CacheStats() CacheStats {
	return e.cache.Stats()
}

// --- Tick ---

// Tick runs one frame of the core, advancing the logical clock by dt
// seconds. Step order is fixed: input routing, window/camera update,
// resample and visibility recompute, cache get-or-render, filter pipeline.
// No step reads a downstream step's output from the same tick.
func (e *Engine) Tick(dt float64) FrameResult {
	e.clock += dt
	e.cache.Advance(e.clock)

	var t0 time.Time
	if e.debug {
		t0 = time.Now()
	}

	// 1. Input routing.
	for _, m := range e.moves {
		e.coord.RouteMove(m.dir, m.magnitude)
	}
	e.moves = e.moves[:0]

	// 2. Window/camera update (transition crossfade, view matrix refresh).
	e.coord.Update(dt)
	e.camera.ViewMatrix()
	if e.debug {
		e.stats.routeTime = time.Since(t0)
		t0 = time.Now()
	}

	// 3. Resample and visibility recompute.
	visible := e.window.Resample()
	state := e.coord.State()
	level := state.ZoomLevel
	viewport := e.activeViewport(level)
	for _, id := range visible {
		// Memo write; errors impossible for ids the window just sampled.
		_, _ = e.store.VisibilityFor(id, level, viewport)
	}
	if e.debug {
		e.stats.sampleTime = time.Since(t0)
		e.stats.visibleCount = len(visible)
		t0 = time.Now()
	}

	// 4. Cache get-or-render.
	for _, id := range visible {
		e.ensureTexture(id, level, viewport)
	}
	e.cache.Sweep()
	if e.debug {
		e.stats.cacheTime = time.Since(t0)
		t0 = time.Now()
	}

	// 5. Filter pipeline.
	var frame *ebiten.Image
	if e.frameSource != nil {
		cam := e.camera
		if level == Zoom1 {
			cam = nil // data layer presents unscaled
		}
		frame = e.pipeline.Run(e.frameSource, cam)
	}
	if e.debug {
		e.stats.pipelineTime = time.Since(t0)
		e.logTick()
	}

	e.result = FrameResult{
		VisibleObjects:  visible,
		CameraTransform: e.activeTransform(level),
		LayerOpacity:    e.coord.PresentedOpacity(),
		CacheStats:      e.cache.Stats(),
		Frame:           frame,
	}
	e.emit(EngineEvent{Type: EventFrame, VisibleCount: len(visible)})
	return e.result
}

// ensureTexture resolves a cache miss by synchronous re-render. Offscreen
// objects are skipped; a stale version is re-rendered.
func (e *Engine) ensureTexture(id ObjectID, level ZoomLevel, viewport Box) {
	vis, err := e.store.VisibilityFor(id, level, viewport)
	if err != nil || vis.Class == Offscreen {
		return
	}
	obj, err := e.store.Get(id)
	if err != nil {
		return
	}
	if t, ok := e.cache.GetOrRequest(id, level); ok && t.Version == obj.Version() {
		return
	}
	if e.renderer == nil {
		return
	}
	handle := e.renderer.Render(&obj, level)
	// level comes from the coordinator, which only holds legal values.
	_, _ = e.cache.Put(id, level, obj.Bounds, handle, obj.Version())
}

// activeViewport returns the storage-space viewport box for visibility
// classification at the given level.
func (e *Engine) activeViewport(level ZoomLevel) Box {
	if level == Zoom1 {
		return e.window.Bounds()
	}
	return e.camera.VisibleBounds()
}

// activeTransform returns the transform the host should present with: the
// sampling offset at zoom 1, the camera view matrix otherwise.
func (e *Engine) activeTransform(level ZoomLevel) [6]float64 {
	if level == Zoom1 {
		off := e.window.Offset()
		return [6]float64{1, 0, 0, 1, -off.X, -off.Y}
	}
	return e.camera.ViewMatrix()
}
