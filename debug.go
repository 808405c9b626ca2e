package mica

import (
	"fmt"
	"os"
	"time"
)

// tickStats holds per-tick timing metrics. Only populated when the engine's
// debug mode is on.
type tickStats struct {
	routeTime    time.Duration
	sampleTime   time.Duration
	cacheTime    time.Duration
	pipelineTime time.Duration
	visibleCount int
}

// logTick prints tick timing stats to stderr.
func (e *Engine) logTick() {
	s := e.stats
	total := s.routeTime + s.sampleTime + s.cacheTime + s.pipelineTime
	_, _ = fmt.Fprintf(os.Stderr,
		"[mica] route: %v | sample: %v | cache: %v | pipeline: %v | total: %v\n",
		s.routeTime, s.sampleTime, s.cacheTime, s.pipelineTime, total)
	_, _ = fmt.Fprintf(os.Stderr,
		"[mica] visible: %d | cache size: %d\n",
		s.visibleCount, e.cache.Len())
}

// logInvariant reports an internal invariant breach on stderr. Debug mode
// panics instead; see TextureCache.invariantViolated.
func logInvariant(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "[mica] invariant violated: %v\n", err)
}
