package mica

import (
	"fmt"
	"slices"
)

// Invalidator receives by-id invalidation signals when geometry changes.
// The texture cache implements it. The store holds only this interface and
// the cache holds only object ids, so neither owns the other.
type Invalidator interface {
	Invalidate(id ObjectID)
}

// ObjectUpdate describes a partial mutation applied by Store.Update.
// Nil fields are left unchanged.
type ObjectUpdate struct {
	Vertices []StorageCoord
	Style    *Style
}

// Store owns all geometric objects in storage space, their derived bounds,
// and the per-scale visibility memo. It is a single owned instance; all
// mutation goes through Add, Update, and Remove.
type Store struct {
	objects map[ObjectID]*Object
	// sorted ascending ids, rebuilt lazily; gives QueryIntersecting and the
	// sampling cap a deterministic order.
	sorted      []ObjectID
	sortedDirty bool

	invalidator Invalidator

	// classifyMargin is the buffer margin used by the FullyVisible tie-break
	// in classifyVisibility. Mirrors the sampling window's buffer margin.
	classifyMargin float64

	// nextID is a plain counter (no atomic — mica is single-threaded).
	nextID ObjectID
}

// NewStore creates an empty geometry store. margin is the buffer margin used
// by visibility classification; pass the sampling buffer margin.
func NewStore(margin float64) *Store {
	return &Store{
		objects:        make(map[ObjectID]*Object),
		classifyMargin: margin,
	}
}

// SetInvalidator registers the consumer of invalidation signals.
func (st *Store) SetInvalidator(inv Invalidator) {
	st.invalidator = inv
}

// Len returns the number of stored objects.
func (st *Store) Len() int { return len(st.objects) }

// Add validates the vertex set for the kind, computes bounds, and stores a
// new object. Returns the assigned id.
func (st *Store) Add(kind ShapeKind, vertices []StorageCoord, style Style) (ObjectID, error) {
	if err := validateVertices(kind, vertices); err != nil {
		return 0, err
	}
	st.nextID++
	obj := &Object{
		ID:       st.nextID,
		Kind:     kind,
		Vertices: slices.Clone(vertices),
		Style:    style,
		Bounds:   computeBounds(kind, vertices),
		memo:     make(map[ZoomLevel]VisibilityEntry),
	}
	st.objects[obj.ID] = obj
	st.sortedDirty = true
	return obj.ID, nil
}

// Get returns a copy of the object. The copy shares no mutable state with the
// store; mutate through Update.
func (st *Store) Get(id ObjectID) (Object, error) {
	obj, ok := st.objects[id]
	if !ok {
		return Object{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	cp := *obj
	cp.Vertices = slices.Clone(obj.Vertices)
	cp.memo = nil
	return cp, nil
}

// Update applies a partial mutation. New vertices are re-validated against
// the object's kind; bounds are recomputed and the visibility memo is cleared
// entirely — never partially, since a bounds change can flip any cached
// class. The texture cache is invalidated for the id.
func (st *Store) Update(id ObjectID, upd ObjectUpdate) error {
	obj, ok := st.objects[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if upd.Vertices != nil {
		if err := validateVertices(obj.Kind, upd.Vertices); err != nil {
			return err
		}
		obj.Vertices = slices.Clone(upd.Vertices)
		obj.Bounds = computeBounds(obj.Kind, obj.Vertices)
	}
	if upd.Style != nil {
		obj.Style = *upd.Style
	}
	clear(obj.memo)
	obj.version++
	if st.invalidator != nil {
		st.invalidator.Invalidate(id)
	}
	return nil
}

// Remove deletes the object and cascades a texture cache invalidation.
func (st *Store) Remove(id ObjectID) error {
	if _, ok := st.objects[id]; !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	delete(st.objects, id)
	st.sortedDirty = true
	if st.invalidator != nil {
		st.invalidator.Invalidate(id)
	}
	return nil
}

// sortedIDs returns all ids in ascending order, rebuilding lazily.
func (st *Store) sortedIDs() []ObjectID {
	if st.sortedDirty || st.sorted == nil {
		st.sorted = st.sorted[:0]
		for id := range st.objects {
			st.sorted = append(st.sorted, id)
		}
		slices.Sort(st.sorted)
		st.sortedDirty = false
	}
	return st.sorted
}

// QueryIntersecting returns the ids of all objects whose bounds intersect
// box, in ascending id order. The sampling window and the camera both cull
// through this single predicate.
func (st *Store) QueryIntersecting(box Box) []ObjectID {
	var out []ObjectID
	for _, id := range st.sortedIDs() {
		if st.objects[id].Bounds.Intersects(box) {
			out = append(out, id)
		}
	}
	return out
}

// VisibilityFor returns the object's visibility classification at the given
// scale and viewport, memoized per scale. A memo entry computed against a
// different viewport box is stale and is recomputed.
func (st *Store) VisibilityFor(id ObjectID, scale ZoomLevel, viewport Box) (VisibilityEntry, error) {
	obj, ok := st.objects[id]
	if !ok {
		return VisibilityEntry{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if !scale.Valid() {
		return VisibilityEntry{}, fmt.Errorf("%w: %d", ErrInvalidZoomLevel, scale)
	}
	if entry, ok := obj.memo[scale]; ok && entry.viewport == viewport {
		return entry, nil
	}
	entry := classifyVisibility(obj.Bounds, viewport, st.classifyMargin, scale)
	obj.memo[scale] = entry
	return entry, nil
}

// memoLen reports the number of memoized scales for an object. Test hook.
func (st *Store) memoLen(id ObjectID) int {
	if obj, ok := st.objects[id]; ok {
		return len(obj.memo)
	}
	return 0
}
