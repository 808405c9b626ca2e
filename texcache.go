package mica

import (
	"fmt"
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Texture is a cached render of one object at one scale. Textures are NOT
// shared across scales: a re-render at a different scale changes pixel
// content, so the cache key is (object id, scale).
//
// A Texture holds only the object's id, never the object — the cache must not
// keep geometry alive or form a reference cycle with the store.
type Texture struct {
	ObjectID ObjectID
	Scale    ZoomLevel
	// Bounds is the storage-space rectangle the handle was rendered from.
	Bounds Box
	// Handle is the opaque render-target reference.
	Handle *ebiten.Image
	// CreatedAt is the engine clock time the texture was inserted.
	CreatedAt float64
	// Version is the object version the texture was rendered at.
	Version uint64

	valid bool

	// eviction bookkeeping; all deterministic given identical access
	// histories.
	createdSeq  uint64
	accessSeq   uint64
	accessCount uint64
}

// Valid reports whether the texture is still usable.
func (t *Texture) Valid() bool { return t.valid }

// CacheStats is the cache statistics snapshot exposed to hosts.
type CacheStats struct {
	// Size is the current entry count.
	Size int
	// HitRate is hits / (hits + misses) since creation; 0 before any lookup.
	HitRate float64
	// Evictions counts capacity evictions (not invalidations or sweeps).
	Evictions uint64
	// Loaded counts textures ever inserted.
	Loaded uint64
}

type texKey struct {
	id    ObjectID
	scale ZoomLevel
}

// TextureCache holds rendered textures keyed by (object id, scale) with a
// runtime-selected eviction policy. A single owned instance; other components
// reach it only through its public operations.
//
// A lookup miss is not an error — it signals the caller to render-and-insert.
type TextureCache struct {
	entries map[texKey]*Texture
	maxSize int
	policy  EvictionPolicy
	maxAge  float64 // seconds of engine clock; 0 disables age sweeping

	now float64 // engine clock, advanced by Advance

	seq    uint64 // shared access/creation sequence
	hits   uint64
	misses uint64
	evict  uint64
	loaded uint64

	debug bool
}

// NewTextureCache creates a cache with the given capacity, policy, and
// maximum texture age in engine-clock seconds (0 disables age sweeping).
func NewTextureCache(maxSize int, policy EvictionPolicy, maxAge float64) *TextureCache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &TextureCache{
		entries: make(map[texKey]*Texture),
		maxSize: maxSize,
		policy:  policy,
		maxAge:  maxAge,
	}
}

// Advance moves the cache's clock forward. The engine calls this once per
// tick; using a logical clock keeps age sweeps deterministic.
func (c *TextureCache) Advance(now float64) {
	c.now = now
}

// Len returns the current entry count.
func (c *TextureCache) Len() int { return len(c.entries) }

// GetOrRequest returns the cached texture for (id, scale), or (nil, false) on
// a miss. A miss is the signal to render the object and Put the result; it is
// never surfaced as an error.
func (c *TextureCache) GetOrRequest(id ObjectID, scale ZoomLevel) (*Texture, bool) {
	t, ok := c.entries[texKey{id, scale}]
	if !ok || !t.valid {
		c.misses++
		return nil, false
	}
	c.hits++
	c.seq++
	t.accessSeq = c.seq
	t.accessCount++
	return t, true
}

// Put inserts a texture for (id, scale), evicting per the configured policy
// first when at capacity. The capacity invariant size <= maxSize holds after
// every Put; a violation is a programming error, not a caller error.
//
// The scale must be a legal zoom level. Invalidate only sweeps the legal
// levels, so an off-level entry could never be removed by it.
func (c *TextureCache) Put(id ObjectID, scale ZoomLevel, bounds Box, handle *ebiten.Image, version uint64) (*Texture, error) {
	if !scale.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidZoomLevel, scale)
	}
	key := texKey{id, scale}
	if old, ok := c.entries[key]; ok {
		c.release(old)
		delete(c.entries, key)
	}
	for len(c.entries) >= c.maxSize {
		c.evictOne()
	}

	c.seq++
	t := &Texture{
		ObjectID:   id,
		Scale:      scale,
		Bounds:     bounds,
		Handle:     handle,
		CreatedAt:  c.now,
		Version:    version,
		valid:      true,
		createdSeq: c.seq,
		accessSeq:  c.seq,
	}
	c.entries[key] = t
	c.loaded++

	if len(c.entries) > c.maxSize {
		// Unreachable unless eviction is broken.
		c.invariantViolated(fmt.Errorf("%w: %d > %d", ErrCacheCapacity, len(c.entries), c.maxSize))
	}
	return t, nil
}

// Invalidate removes the entries for all scales of an object. Called on store
// mutation and removal. Invalidated entries are removed, not marked stale; a
// texture never outlives the object it mirrors.
func (c *TextureCache) Invalidate(id ObjectID) {
	for _, scale := range ZoomLevels {
		key := texKey{id, scale}
		if t, ok := c.entries[key]; ok {
			c.release(t)
			delete(c.entries, key)
		}
	}
}

// Sweep removes entries whose age exceeds the maximum texture age or whose
// valid flag has been cleared.
func (c *TextureCache) Sweep() {
	for key, t := range c.entries {
		if !t.valid || (c.maxAge > 0 && c.now-t.CreatedAt > c.maxAge) {
			c.release(t)
			delete(c.entries, key)
		}
	}
}

// Stats returns a statistics snapshot.
func (c *TextureCache) Stats() CacheStats {
	s := CacheStats{
		Size:      len(c.entries),
		Evictions: c.evict,
		Loaded:    c.loaded,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// evictOne removes a single victim chosen by the configured policy. Victim
// selection is a pure function of the entries' access history: sequence
// counters break all ties, so identical histories evict identically.
func (c *TextureCache) evictOne() {
	var victimKey texKey
	var victim *Texture
	for key, t := range c.entries {
		if victim == nil || c.prefer(t, victim) {
			victimKey = key
			victim = t
		}
	}
	if victim == nil {
		return
	}
	c.release(victim)
	delete(c.entries, victimKey)
	c.evict++
}

// prefer reports whether a is a better eviction victim than b under the
// configured policy.
func (c *TextureCache) prefer(a, b *Texture) bool {
	switch c.policy {
	case EvictLFU:
		if a.accessCount != b.accessCount {
			return a.accessCount < b.accessCount
		}
		return a.accessSeq < b.accessSeq
	case EvictFIFO:
		return a.createdSeq < b.createdSeq
	default: // EvictLRU
		return a.accessSeq < b.accessSeq
	}
}

// release invalidates a texture and frees its handle.
func (c *TextureCache) release(t *Texture) {
	t.valid = false
	if t.Handle != nil {
		t.Handle.Deallocate()
		t.Handle = nil
	}
}

// Region extracts the on-screen sub-image of a partially visible texture
// using the memoized visibility entry. For FullyVisible entries the whole
// handle is returned; for Offscreen entries nil.
func (c *TextureCache) Region(t *Texture, vis VisibilityEntry) *ebiten.Image {
	if t == nil || t.Handle == nil {
		return nil
	}
	switch vis.Class {
	case FullyVisible:
		return t.Handle
	case PartiallyVisible:
		s := float64(t.Scale)
		x0 := int(math.Floor(vis.TextureOffset.X))
		y0 := int(math.Floor(vis.TextureOffset.Y))
		x1 := x0 + int(math.Ceil(vis.OnScreen.Width()*s))
		y1 := y0 + int(math.Ceil(vis.OnScreen.Height()*s))
		r := image.Rect(x0, y0, x1, y1).Intersect(t.Handle.Bounds())
		if r.Empty() {
			return nil
		}
		return t.Handle.SubImage(r).(*ebiten.Image)
	default:
		return nil
	}
}

// invariantViolated reports an internal invariant breach: panic in debug
// mode, stderr log otherwise.
func (c *TextureCache) invariantViolated(err error) {
	if c.debug {
		panic(err)
	}
	logInvariant(err)
}
