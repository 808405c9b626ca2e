package mica

import (
	"fmt"
	"image"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Filter is the interface for effects applied to a frame texture by the
// pre-filter and post-filter stages.
type Filter interface {
	// Apply renders src into dst with the filter effect.
	Apply(src, dst *ebiten.Image)
	// Padding returns the extra pixels needed around the source to
	// accommodate the effect. Zero means no padding.
	Padding() int
}

// Stage identifies a pipeline stage. The numeric values are the execution
// order; there is no way to construct a Pipeline that runs them differently.
type Stage uint8

const (
	StagePre      Stage = 1
	StageViewport Stage = 2
	StagePost     Stage = 3
)

// ExecutionOrder is the fixed stage order. It exists as a package constant so
// the ordering contract is visible in the API, not just in Run's body.
var ExecutionOrder = [3]Stage{StagePre, StageViewport, StagePost}

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StagePre:
		return "pre"
	case StageViewport:
		return "viewport"
	case StagePost:
		return "post"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// StageRecord holds one stage's timing and error from the most recent run.
type StageRecord struct {
	Stage    Stage
	Duration time.Duration
	Err      error
}

// StageFailure is one entry in the pipeline's error history.
type StageFailure struct {
	Stage Stage
	Err   error
	// Run is the pipeline run counter at the time of the failure.
	Run uint64
}

// failureRingSize is the capacity of the error history ring buffer.
const failureRingSize = 32

// Pipeline applies the ordered three-stage filter pipeline to a frame
// texture: pre-filters, then the viewport transform, then post-filters,
// unconditionally in that order. The viewport stage cannot be skipped or
// reordered by construction — callers can only add pre and post filters.
//
// A stage that fails (a filter panic) degrades gracefully: the stage's input
// is carried forward as its output and the failure is recorded, so a broken
// filter never costs the frame.
type Pipeline struct {
	pre  []Filter
	post []Filter

	records [3]StageRecord
	runs    uint64

	failures []StageFailure
	failHead int

	pool     targetPool
	retained []*ebiten.Image
}

// NewPipeline creates an empty pipeline (viewport transform only).
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// AddPreFilter appends a filter to the pre-viewport stage.
func (p *Pipeline) AddPreFilter(f Filter) { p.pre = append(p.pre, f) }

// AddPostFilter appends a filter to the post-viewport stage.
func (p *Pipeline) AddPostFilter(f Filter) { p.post = append(p.post, f) }

// LastRun returns the stage records of the most recent run, in execution
// order.
func (p *Pipeline) LastRun() [3]StageRecord { return p.records }

// Failures returns the error history, oldest first, up to the ring capacity.
func (p *Pipeline) Failures() []StageFailure {
	if len(p.failures) < failureRingSize {
		return p.failures
	}
	out := make([]StageFailure, 0, failureRingSize)
	out = append(out, p.failures[p.failHead:]...)
	out = append(out, p.failures[:p.failHead]...)
	return out
}

// Run executes the pipeline on src and returns the final frame texture. The
// returned image is valid until the next Run. cam may be nil, in which case
// the viewport stage is an identity copy.
func (p *Pipeline) Run(src *ebiten.Image, cam *Camera) *ebiten.Image {
	// Pooled textures handed out last run are reusable now.
	for _, img := range p.retained {
		p.pool.Release(img)
	}
	p.retained = p.retained[:0]
	p.runs++

	current := src
	for i, stage := range ExecutionOrder {
		start := time.Now()
		out, err := p.runStage(stage, current, cam)
		p.records[i] = StageRecord{Stage: stage, Duration: time.Since(start), Err: err}
		if err != nil {
			p.recordFailure(stage, err)
			continue // degrade: carry the stage input forward
		}
		current = out
	}
	return current
}

// runStage executes a single stage, converting filter panics into errors.
func (p *Pipeline) runStage(stage Stage, src *ebiten.Image, cam *Camera) (out *ebiten.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = src
			err = fmt.Errorf("mica: %v stage: %v", stage, r)
		}
	}()

	switch stage {
	case StagePre:
		return p.runFilters(p.pre, src), nil
	case StageViewport:
		return p.viewportTransform(src, cam), nil
	default:
		return p.runFilters(p.post, src), nil
	}
}

// runFilters applies a filter chain, ping-ponging through pooled targets.
func (p *Pipeline) runFilters(filters []Filter, src *ebiten.Image) *ebiten.Image {
	if len(filters) == 0 || src == nil {
		return src
	}
	bounds := src.Bounds()
	pad := 0
	for _, f := range filters {
		pad += f.Padding()
	}
	w := bounds.Dx() + pad*2
	h := bounds.Dy() + pad*2

	current := src
	for _, f := range filters {
		dst := p.acquire(w, h)
		f.Apply(current, dst)
		current = dst
	}
	return current
}

// viewportTransform draws src through the camera's view matrix into a target
// sized to the camera viewport. With no camera the stage is an identity copy.
func (p *Pipeline) viewportTransform(src *ebiten.Image, cam *Camera) *ebiten.Image {
	if src == nil {
		return nil
	}
	if cam == nil {
		dst := p.acquire(src.Bounds().Dx(), src.Bounds().Dy())
		var op ebiten.DrawImageOptions
		dst.DrawImage(src, &op)
		return dst
	}
	dst := p.acquire(int(math.Ceil(cam.Size.X)), int(math.Ceil(cam.Size.Y)))
	m := cam.ViewMatrix()
	var op ebiten.DrawImageOptions
	op.GeoM.SetElement(0, 0, m[0])
	op.GeoM.SetElement(1, 0, m[1])
	op.GeoM.SetElement(0, 1, m[2])
	op.GeoM.SetElement(1, 1, m[3])
	op.GeoM.SetElement(0, 2, m[4])
	op.GeoM.SetElement(1, 2, m[5])
	dst.DrawImage(src, &op)
	return dst
}

// acquire takes a pooled target and retains it until the next Run.
func (p *Pipeline) acquire(w, h int) *ebiten.Image {
	img := p.pool.Acquire(w, h)
	p.retained = append(p.retained, img)
	return img
}

// recordFailure appends to the error history ring buffer.
func (p *Pipeline) recordFailure(stage Stage, err error) {
	f := StageFailure{Stage: stage, Err: err, Run: p.runs}
	if len(p.failures) < failureRingSize {
		p.failures = append(p.failures, f)
		return
	}
	p.failures[p.failHead] = f
	p.failHead = (p.failHead + 1) % failureRingSize
}

// --- Pooled offscreen targets ---

// targetPool manages reusable offscreen images keyed by power-of-two
// dimensions. After warmup, Acquire/Release are zero-alloc.
type targetPool struct {
	buckets map[uint64][]*ebiten.Image
}

func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// Acquire returns a cleared offscreen image with at least (w, h) pixels,
// rounded up to the next power of two.
func (p *targetPool) Acquire(w, h int) *ebiten.Image {
	pw := nextPowerOfTwo(w)
	ph := nextPowerOfTwo(h)
	key := poolKey(pw, ph)

	if p.buckets != nil {
		if stack := p.buckets[key]; len(stack) > 0 {
			img := stack[len(stack)-1]
			p.buckets[key] = stack[:len(stack)-1]
			img.Clear()
			return img
		}
	}

	return ebiten.NewImageWithOptions(
		image.Rect(0, 0, pw, ph),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
}

// Release returns an image to the pool. The image is cleared on the next
// Acquire, not here.
func (p *targetPool) Release(img *ebiten.Image) {
	if img == nil {
		return
	}
	b := img.Bounds()
	key := poolKey(b.Dx(), b.Dy())
	if p.buckets == nil {
		p.buckets = make(map[uint64][]*ebiten.Image)
	}
	p.buckets[key] = append(p.buckets[key], img)
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 1).
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << int(math.Ceil(math.Log2(float64(n))))
}
