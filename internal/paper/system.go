// Package paper models the paper substrate: tooth sampling for ink
// deposition/edge tearing, cached grain tile patterns, and the ink shading
// curve that ties them together.
package paper

import (
	"github.com/inkforge/brushengine/internal/brushtypes"
	"github.com/inkforge/brushengine/internal/colormath"
)

// Options configures a System for one stroke context.
type Options struct {
	Seed                      int64
	ToothScale                float64 // not read: the tooth tile size is always 64/GrainScale, clamped to [16,256]
	GrainScale                float64
	Absorb                    float64 // ink absorption strength used by ShadeInk
	Carve                     float64 // flank "tearing" strength used by ShadeInk
	GrainPersistAcrossStrokes bool    // if false, grain phase is reseeded per stroke
}

// System is the per-stroke paper/substrate model: one tooth tile plus a
// handle into the shared, read-mostly grain tile cache.
type System struct {
	tooth        *toothTile
	seed         int64
	absorb       float64
	carve        float64
	grainAnchorX float64
	grainAnchorY float64
}

// NewSystem builds a fresh tooth tile for a stroke context and returns a
// System bound to it.
//
// The grain pattern's rotation anchor is fixed once here, for the lifetime
// of the stroke, rather than recomputed per stamp: a stamp-local anchor
// would make the grain phase at a given canvas pixel depend on whichever
// nearby stamp last sampled it, producing visible seams between stamps.
// When opts.GrainPersistAcrossStrokes is true the anchor is pinned at the
// origin so every stroke shares the same paper phase; otherwise it is
// derived from the stroke's seed so the phase resets per stroke.
func NewSystem(opts Options) *System {
	scale := opts.GrainScale
	if scale <= 0 {
		scale = 1
	}
	anchorX, anchorY := 0.0, 0.0
	if !opts.GrainPersistAcrossStrokes {
		rng := colormath.NewRNG(uint32(opts.Seed))
		anchorX = rng.Float64Range(-4096, 4096)
		anchorY = rng.Float64Range(-4096, 4096)
	}
	return &System{
		tooth:        buildToothTile(opts.Seed, scale),
		seed:         opts.Seed,
		absorb:       opts.Absorb,
		carve:        opts.Carve,
		grainAnchorX: anchorX,
		grainAnchorY: anchorY,
	}
}

// ToothSample is the {body, flank} pair returned by SampleTooth.
type ToothSample struct {
	Body, Flank float64
}

// SampleTooth reads the tooth tile at (x,y) in device pixels, wrapping at
// tile boundaries.
func (s *System) SampleTooth(x, y float64) ToothSample {
	body, flank := s.tooth.sample(x, y)
	return ToothSample{Body: body, Flank: flank}
}

// GetGrainPattern returns a sampler for the requested grain kind/scale,
// rotated about the System's stroke-stable anchor, backed by the shared
// grain tile cache. Every caller within the same stroke gets the same
// anchor, so the same canvas pixel always samples the same grain value
// regardless of which stamp is currently being rendered.
func (s *System) GetGrainPattern(kind brushtypes.GrainKind, scale, rotateDeg float64) GrainSampler {
	size := grainTileSize(scale)
	tile := sharedGrainCache.get(kind, size, s.seed)
	return GrainSampler{tile: tile, scale: scale, rotateDeg: rotateDeg, anchorX: s.grainAnchorX, anchorY: s.grainAnchorY}
}

// GrainSampler samples a cached grain tile at arbitrary device coordinates
// under a fixed scale/rotation/anchor, so a backend can query it per-pixel
// without re-resolving the cache each time.
type GrainSampler struct {
	tile      *grainTile
	scale     float64
	rotateDeg float64
	anchorX   float64
	anchorY   float64
}

// At returns the grain intensity in [0,1] at device coordinate (x,y).
func (g GrainSampler) At(x, y float64) float64 {
	if g.tile == nil {
		return 0
	}
	return g.tile.sampleRotated(x, y, g.scale, g.rotateDeg, g.anchorX, g.anchorY)
}

// ShadeInk applies the paper's ink deposition curve:
//
//	shadeInk(a,x,y) = clamp01(a * (1 + absorb*(body*0.8 + flank*0.2)) * (1 - 0.15*carve*flank))
func (s *System) ShadeInk(alpha, x, y float64) float64 {
	sample := s.SampleTooth(x, y)
	depositBoost := 1 + s.absorb*(sample.Body*0.8+sample.Flank*0.2)
	tear := 1 - 0.15*s.carve*sample.Flank
	return colormath.Clamp01(alpha * depositBoost * tear)
}

// GetNormalMap is a placeholder extension point for a future lighting pass.
// No backend in this engine currently consumes a normal map, so this
// reports unavailability rather than computing one.
func (s *System) GetNormalMap() (NormalMap, bool) {
	return NormalMap{}, false
}

// NormalMap is reserved for a future lighting pass.
type NormalMap struct {
	Width, Height int
	Data          []float64
}
