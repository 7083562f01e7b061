// Package brushctx holds the per-stroke scratch state shared across a
// backend's stamp rendering calls: the stroke's deterministic RNG, velocity
// tracking, and a pool of reusable named scratch surfaces.
package brushctx

import (
	"math"

	"github.com/inkforge/brushengine/internal/colormath"
	"github.com/inkforge/brushengine/internal/layer"
)

// scratchKey identifies one reusable scratch surface by purpose tag and
// size, mirroring mask.DistanceContext's "grow buffers keyed by the shape
// that needs them" discipline.
type scratchKey struct {
	tag  string
	w, h int
}

// Context carries everything one stroke's backend needs beyond the preset
// itself: a seeded RNG for jitter/scatter, a running sample/stamp counter,
// a registry of reusable scratch layer.Surfaces (e.g. the wet backend's
// stamped-body scratch) so a long stroke doesn't reallocate a full-canvas
// buffer per stamp, and the smudge backend's pre-stroke source snapshot.
type Context struct {
	RNG *colormath.RNG

	// ColorLinear is the straight-alpha linear ink color resolved from the
	// stroke's colorHex at BeginStroke; backends that deposit new ink read
	// this instead of hardcoding a color.
	ColorLinear colormath.RGBA

	SampleCount int
	StampCount  int

	lastX, lastY   float64
	lastT          float64
	hasLast        bool
	lastSpeedPxS   float64

	scratch map[scratchKey]*layer.Surface

	smudgeSource *layer.Surface
}

// NewContext creates a fresh per-stroke context seeded from seed.
func NewContext(seed uint32) *Context {
	return &Context{
		RNG:     colormath.NewRNG(seed),
		scratch: make(map[scratchKey]*layer.Surface),
	}
}

// UpdateVelocity folds in one new pointer sample's position/time and
// returns the instantaneous speed in px/s. A sample less than 1 ms after the
// last accepted one is not folded in and returns the previous speed, so a
// duplicate-timestamp sample can't produce an infinite or NaN speed.
func (c *Context) UpdateVelocity(x, y, tMs float64) float64 {
	const epsilonMs = 1.0
	if !c.hasLast {
		c.lastX, c.lastY, c.lastT = x, y, tMs
		c.hasLast = true
		c.lastSpeedPxS = 0
		return 0
	}

	dt := tMs - c.lastT
	if dt < epsilonMs {
		return c.lastSpeedPxS
	}
	dx := x - c.lastX
	dy := y - c.lastY
	dist := math.Sqrt(dx*dx + dy*dy)
	speed := dist / (dt / 1000.0)

	c.lastX, c.lastY, c.lastT = x, y, tMs
	c.lastSpeedPxS = speed
	return speed
}

// Scratch returns a reusable surface tagged with name, sized exactly w x h,
// allocating it on the first request for that (tag, w, h).
// Content is not guaranteed cleared between calls; callers that need a
// blank buffer should Clear it themselves.
func (c *Context) Scratch(tag string, w, h int) *layer.Surface {
	key := scratchKey{tag: tag, w: w, h: h}
	if s, ok := c.scratch[key]; ok {
		return s
	}
	// A different (w,h) for the same tag is a distinct cache entry; stale
	// smaller entries are simply left to be garbage collected with the
	// context at stroke end rather than evicted, since a stroke allocates
	// the same scratch size repeatedly in practice.
	s := layer.NewSurface(w, h)
	c.scratch[key] = s
	return s
}

// EnsureSmudgeSource snapshots src into the context's smudge-source buffer
// exactly once per stroke (subsequent calls are no-ops), giving the smudge
// backend a stable pre-stroke reference to sample "pull" colors from even
// as later stamps mutate the live layer.
func (c *Context) EnsureSmudgeSource(src *layer.Surface) *layer.Surface {
	if c.smudgeSource != nil {
		return c.smudgeSource
	}
	c.smudgeSource = src.Clone()
	return c.smudgeSource
}

// Dispose releases the context's scratch buffers. Call once at stroke end.
func (c *Context) Dispose() {
	c.scratch = nil
	c.smudgeSource = nil
}
