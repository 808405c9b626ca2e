package mica

import (
	"errors"
	"image"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func putTestTexture(c *TextureCache, id ObjectID, scale ZoomLevel) *Texture {
	// Nil handles keep cache tests off the GPU; release tolerates them.
	t, _ := c.Put(id, scale, Box{MaxX: 10, MaxY: 10}, nil, 0)
	return t
}

func cacheHas(c *TextureCache, id ObjectID, scale ZoomLevel) bool {
	_, ok := c.GetOrRequest(id, scale)
	return ok
}

func TestCacheMissThenHit(t *testing.T) {
	c := NewTextureCache(8, EvictLRU, 0)

	if _, ok := c.GetOrRequest(1, Zoom2); ok {
		t.Fatal("empty cache reported a hit")
	}
	putTestTexture(c, 1, Zoom2)
	tex, ok := c.GetOrRequest(1, Zoom2)
	if !ok {
		t.Fatal("inserted texture not found")
	}
	if tex.ObjectID != 1 || tex.Scale != Zoom2 {
		t.Errorf("texture = %+v", tex)
	}

	// Scales are distinct keys: same id at another scale is a miss.
	if _, ok := c.GetOrRequest(1, Zoom4); ok {
		t.Error("hit at a scale never inserted")
	}

	s := c.Stats()
	if s.HitRate != 1.0/3.0 {
		t.Errorf("hit rate = %v, want 1/3", s.HitRate)
	}
	if s.Loaded != 1 || s.Size != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestCacheFIFOEviction(t *testing.T) {
	c := NewTextureCache(2, EvictFIFO, 0)

	putTestTexture(c, 1, Zoom1)
	putTestTexture(c, 2, Zoom1)
	// Access order must not matter under FIFO.
	c.GetOrRequest(1, Zoom1)
	c.GetOrRequest(1, Zoom1)

	putTestTexture(c, 3, Zoom1)

	if cacheHas(c, 1, Zoom1) {
		t.Error("oldest entry survived FIFO eviction")
	}
	if !cacheHas(c, 2, Zoom1) || !cacheHas(c, 3, Zoom1) {
		t.Error("newer entries evicted under FIFO")
	}
	if c.Stats().Evictions != 1 {
		t.Errorf("evictions = %d", c.Stats().Evictions)
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := NewTextureCache(2, EvictLRU, 0)

	putTestTexture(c, 1, Zoom1)
	putTestTexture(c, 2, Zoom1)
	c.GetOrRequest(1, Zoom1) // 1 is now most recently used

	putTestTexture(c, 3, Zoom1)

	if cacheHas(c, 2, Zoom1) {
		t.Error("least recently used entry survived")
	}
	if !cacheHas(c, 1, Zoom1) || !cacheHas(c, 3, Zoom1) {
		t.Error("wrong LRU victim")
	}
}

func TestCacheLFUEviction(t *testing.T) {
	c := NewTextureCache(2, EvictLFU, 0)

	putTestTexture(c, 1, Zoom1)
	putTestTexture(c, 2, Zoom1)
	c.GetOrRequest(1, Zoom1)
	c.GetOrRequest(1, Zoom1)
	c.GetOrRequest(2, Zoom1)

	putTestTexture(c, 3, Zoom1)

	if cacheHas(c, 2, Zoom1) {
		t.Error("less frequently used entry survived")
	}
	if !cacheHas(c, 1, Zoom1) {
		t.Error("more frequently used entry evicted")
	}
}

func TestCacheEvictionIsDeterministic(t *testing.T) {
	// Identical access histories must evict identical victims, run after run.
	run := func() []bool {
		c := NewTextureCache(3, EvictLRU, 0)
		for id := ObjectID(1); id <= 3; id++ {
			putTestTexture(c, id, Zoom1)
		}
		c.GetOrRequest(2, Zoom1)
		c.GetOrRequest(1, Zoom1)
		putTestTexture(c, 4, Zoom1)
		putTestTexture(c, 5, Zoom1)
		var present []bool
		for id := ObjectID(1); id <= 5; id++ {
			_, ok := c.entries[texKey{id, Zoom1}]
			present = append(present, ok)
		}
		return present
	}

	first := run()
	for i := 0; i < 10; i++ {
		if got := run(); len(got) != len(first) {
			t.Fatal("length mismatch")
		} else {
			for j := range got {
				if got[j] != first[j] {
					t.Fatalf("run %d diverged at id %d", i, j+1)
				}
			}
		}
	}
	// Victims were 3 (never re-accessed) then 2 (older access than 1).
	want := []bool{true, false, false, true, true}
	for j, w := range want {
		if first[j] != w {
			t.Fatalf("presence = %v, want %v", first, want)
		}
	}
}

func TestCacheCapacityInvariant(t *testing.T) {
	c := NewTextureCache(4, EvictLRU, 0)
	for id := ObjectID(1); id <= 50; id++ {
		putTestTexture(c, id, Zoom1)
		putTestTexture(c, id, Zoom8)
		if c.Len() > 4 {
			t.Fatalf("size %d exceeds capacity after put %d", c.Len(), id)
		}
	}
}

func TestCachePutReplacesInPlace(t *testing.T) {
	c := NewTextureCache(2, EvictLRU, 0)
	putTestTexture(c, 1, Zoom1)
	putTestTexture(c, 2, Zoom1)

	// Re-inserting an existing key replaces it without evicting a neighbor.
	if _, err := c.Put(1, Zoom1, Box{MaxX: 20, MaxY: 20}, nil, 7); err != nil {
		t.Fatal(err)
	}

	if c.Len() != 2 {
		t.Fatalf("len = %d", c.Len())
	}
	if !cacheHas(c, 2, Zoom1) {
		t.Error("neighbor evicted by in-place replace")
	}
	tex, _ := c.GetOrRequest(1, Zoom1)
	if tex.Version != 7 || tex.Bounds.MaxX != 20 {
		t.Errorf("replacement not applied: %+v", tex)
	}
	if c.Stats().Evictions != 0 {
		t.Errorf("evictions = %d", c.Stats().Evictions)
	}
}

func TestCacheInvalidateRemovesAllScales(t *testing.T) {
	c := NewTextureCache(16, EvictLRU, 0)
	for _, z := range ZoomLevels {
		putTestTexture(c, 1, z)
	}
	putTestTexture(c, 2, Zoom1)

	c.Invalidate(1)

	for _, z := range ZoomLevels {
		if cacheHas(c, 1, z) {
			t.Errorf("scale %d survived invalidation", z)
		}
	}
	if !cacheHas(c, 2, Zoom1) {
		t.Error("invalidation removed another object's texture")
	}
	// Invalidations are not capacity evictions.
	if c.Stats().Evictions != 0 {
		t.Errorf("evictions = %d", c.Stats().Evictions)
	}
}

func TestCacheSweepByAge(t *testing.T) {
	c := NewTextureCache(16, EvictLRU, 5.0)

	c.Advance(0)
	putTestTexture(c, 1, Zoom1)
	c.Advance(3)
	putTestTexture(c, 2, Zoom1)

	c.Advance(6) // object 1 is 6s old, object 2 is 3s old
	c.Sweep()

	if cacheHas(c, 1, Zoom1) {
		t.Error("expired texture survived sweep")
	}
	if !cacheHas(c, 2, Zoom1) {
		t.Error("fresh texture swept")
	}

	// maxAge 0 disables sweeping entirely.
	d := NewTextureCache(16, EvictLRU, 0)
	d.Advance(0)
	putTestTexture(d, 1, Zoom1)
	d.Advance(1e9)
	d.Sweep()
	if !cacheHas(d, 1, Zoom1) {
		t.Error("sweep ran with maxAge 0")
	}
}

func TestCachePutRejectsInvalidScale(t *testing.T) {
	c := NewTextureCache(4, EvictLRU, 0)

	for _, scale := range []ZoomLevel{0, 3, 5, 100, 256} {
		if _, err := c.Put(1, scale, Box{MaxX: 10, MaxY: 10}, nil, 0); !errors.Is(err, ErrInvalidZoomLevel) {
			t.Errorf("Put at scale %d: got %v", scale, err)
		}
	}
	if c.Len() != 0 {
		t.Errorf("rejected puts left %d entries", c.Len())
	}
	// Nothing escapes the key space Invalidate sweeps.
	c.Invalidate(1)
	if c.Len() != 0 {
		t.Errorf("len after invalidate = %d", c.Len())
	}
}

func TestCacheRegionPartialExtraction(t *testing.T) {
	c := NewTextureCache(4, EvictLRU, 0)

	// A 10x10 object rendered at scale 4: 40x40 texture. The viewport clips
	// it to the storage sub-box (5, 3)..(10, 10).
	handle := ebiten.NewImage(40, 40)
	tex, err := c.Put(1, Zoom4, Box{MaxX: 10, MaxY: 10}, handle, 0)
	if err != nil {
		t.Fatal(err)
	}
	vis := VisibilityEntry{
		Class:         PartiallyVisible,
		OnScreen:      Box{MinX: 5, MinY: 3, MaxX: 10, MaxY: 10},
		TextureOffset: Vec2{X: 20, Y: 12},
	}

	got := c.Region(tex, vis)
	if got == nil {
		t.Fatal("nil region for a partially visible texture")
	}
	// 5x7 storage units at scale 4, anchored at the texture offset.
	want := image.Rect(20, 12, 40, 40)
	if got.Bounds() != want {
		t.Errorf("region bounds = %v, want %v", got.Bounds(), want)
	}
}

func TestCacheRegionClampsToHandle(t *testing.T) {
	c := NewTextureCache(4, EvictLRU, 0)
	handle := ebiten.NewImage(40, 40)
	tex, _ := c.Put(1, Zoom4, Box{MaxX: 10, MaxY: 10}, handle, 0)

	// A stale on-screen box reaching past the rendered texture clamps to the
	// handle instead of sub-imaging out of range.
	vis := VisibilityEntry{
		Class:         PartiallyVisible,
		OnScreen:      Box{MinX: 8, MinY: 8, MaxX: 14, MaxY: 14},
		TextureOffset: Vec2{X: 32, Y: 32},
	}
	got := c.Region(tex, vis)
	if got == nil {
		t.Fatal("nil region")
	}
	want := image.Rect(32, 32, 40, 40)
	if got.Bounds() != want {
		t.Errorf("clamped bounds = %v, want %v", got.Bounds(), want)
	}

	// An offset entirely outside the handle means nothing to extract.
	vis.TextureOffset = Vec2{X: 100, Y: 100}
	if got := c.Region(tex, vis); got != nil {
		t.Errorf("out-of-range region = %v", got.Bounds())
	}
}

func TestCacheRegionFullAndOffscreen(t *testing.T) {
	c := NewTextureCache(4, EvictLRU, 0)
	handle := ebiten.NewImage(10, 10)
	tex, _ := c.Put(1, Zoom1, Box{MaxX: 10, MaxY: 10}, handle, 0)

	if got := c.Region(tex, VisibilityEntry{Class: FullyVisible}); got != handle {
		t.Error("fully visible region is not the whole handle")
	}
	if got := c.Region(tex, VisibilityEntry{Class: Offscreen}); got != nil {
		t.Error("offscreen region not nil")
	}
	if got := c.Region(nil, VisibilityEntry{Class: FullyVisible}); got != nil {
		t.Error("nil texture region not nil")
	}
}
