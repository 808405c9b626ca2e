package mica

// Window is the data layer: a fixed-scale rectangular sampling window over
// storage space. Its scale is always exactly 1 and it never rotates — a hard
// invariant, not a default. The window's purpose is to keep the sampled set
// O(window size) regardless of how far the mirror layer is zoomed in.
//
// Owned exclusively by the data layer; mutated only by MoveBy.
type Window struct {
	// Position is the top-left corner of the window in storage space.
	Position StorageCoord
	// Size is the viewport size at scale 1.
	Size Vec2
	// BufferMargin expands the sampled bounds so objects just outside the
	// window are pre-sampled before they scroll in.
	BufferMargin float64

	store      *Store
	maxVisible int

	needsResample bool
	visible       []ObjectID
	// version increments on every effective resample; renderers use it to
	// detect window churn.
	version uint64
}

// NewWindow creates a sampling window over the given store.
func NewWindow(store *Store, size Vec2, bufferMargin float64, maxVisible int) *Window {
	return &Window{
		Size:          size,
		BufferMargin:  bufferMargin,
		store:         store,
		maxVisible:    maxVisible,
		needsResample: true,
	}
}

// Bounds returns the window's unexpanded bounds in storage space.
func (w *Window) Bounds() Box {
	return Box{
		MinX: w.Position.X,
		MinY: w.Position.Y,
		MaxX: w.Position.X + w.Size.X,
		MaxY: w.Position.Y + w.Size.Y,
	}
}

// Offset returns the storage→render translation for the window.
func (w *Window) Offset() Vec2 {
	return Vec2{X: w.Position.X, Y: w.Position.Y}
}

// MoveBy shifts the window and marks it for resampling.
func (w *Window) MoveBy(dx, dy float64) {
	w.Position.X += dx
	w.Position.Y += dy
	w.needsResample = true
}

// Version returns the resample version counter.
func (w *Window) Version() uint64 { return w.version }

// Resample recomputes the visible-object subset: the window bounds expanded
// by BufferMargin are intersected against the store, and the result is capped
// at the configured maximum.
//
// The cap drops objects deterministically in ascending id order — objects
// with higher ids are dropped first. This is an explicit completeness/
// performance tradeoff: a window over a dense region samples a stable prefix
// rather than a random subset.
//
// Calling Resample again without an intervening MoveBy returns the identical
// list without re-querying.
func (w *Window) Resample() []ObjectID {
	if !w.needsResample {
		return w.visible
	}
	ids := w.store.QueryIntersecting(w.Bounds().Expand(w.BufferMargin))
	if w.maxVisible > 0 && len(ids) > w.maxVisible {
		ids = ids[:w.maxVisible]
	}
	w.visible = ids
	w.needsResample = false
	w.version++
	return w.visible
}

// MarkDirty forces the next Resample to re-query, e.g. after store mutations.
func (w *Window) MarkDirty() {
	w.needsResample = true
}
