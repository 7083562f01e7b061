package paper

import (
	"math"
	"sync"

	"github.com/aquilax/go-perlin"

	"github.com/inkforge/brushengine/internal/brushtypes"
	"github.com/inkforge/brushengine/internal/colormath"
)

// grainTile is a cached, tileable intensity field for one (kind,size,seed) key:
// paper=random dots, canvas=diagonal hatch, noise=FBM tile, none=flat.
type grainTile struct {
	size   int
	values []float64
}

type grainCacheKey struct {
	kind brushtypes.GrainKind
	size int
	seed int64
}

// grainCache is the read-mostly tile cache shared by all strokes: writes
// only occur on a first-use miss. A RWMutex keeps concurrent readers
// lock-free while serializing the rare insert.
type grainCache struct {
	mu      sync.RWMutex
	entries map[grainCacheKey]*grainTile
}

var sharedGrainCache = &grainCache{entries: make(map[grainCacheKey]*grainTile)}

func (c *grainCache) get(kind brushtypes.GrainKind, size int, seed int64) *grainTile {
	key := grainCacheKey{kind: kind, size: size, seed: seed}

	c.mu.RLock()
	if t, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		return t
	}
	c.mu.RUnlock()

	tile := buildGrainTile(kind, size, seed)

	c.mu.Lock()
	// Double-insert races must not corrupt the cache: last writer simply
	// overwrites with an equally valid tile for the same key.
	c.entries[key] = tile
	c.mu.Unlock()

	return tile
}

func grainTileSize(scale float64) int {
	if scale <= 0 {
		scale = 1
	}
	size := int(96.0 / scale)
	return clampInt(size, 16, 256)
}

func buildGrainTile(kind brushtypes.GrainKind, size int, seed int64) *grainTile {
	t := &grainTile{size: size, values: make([]float64, size*size)}
	if kind == brushtypes.GrainNone {
		return t
	}

	switch kind {
	case brushtypes.GrainPaper:
		buildPaperDots(t, seed)
	case brushtypes.GrainCanvas:
		buildCanvasHatch(t)
	case brushtypes.GrainNoise:
		buildPerlinField(t, seed)
	}
	return t
}

func buildPaperDots(t *grainTile, seed int64) {
	rng := colormath.NewRNG(uint32(seed))
	// Start from a mid-gray FBM base so unpopulated cells aren't pure black,
	// then scatter brighter dot centers, mirroring the wash-then-noise
	// layering in texture.GenerateSeamlessTexture.
	for y := 0; y < t.size; y++ {
		for x := 0; x < t.size; x++ {
			u := float64(x) / float64(t.size)
			v := float64(y) / float64(t.size)
			n := colormath.FBM2(u*8, v*8, 3, 2.0, 0.5, uint32(seed))
			t.values[y*t.size+x] = colormath.Clamp01((n + 1) * 0.5 * 0.4)
		}
	}
	dots := t.size * t.size / 6
	for i := 0; i < dots; i++ {
		cx := int(rng.Float64() * float64(t.size))
		cy := int(rng.Float64() * float64(t.size))
		idx := colormath.WrapIndex(cy, t.size)*t.size + colormath.WrapIndex(cx, t.size)
		t.values[idx] = colormath.Clamp01(t.values[idx] + rng.Float64Range(0.3, 0.8))
	}
}

func buildCanvasHatch(t *grainTile) {
	for y := 0; y < t.size; y++ {
		for x := 0; x < t.size; x++ {
			diag := math.Mod(float64(x+y), 6.0)
			v := 0.3
			if diag < 1.5 {
				v = 0.8
			}
			t.values[y*t.size+x] = v
		}
	}
}

func buildPerlinField(t *grainTile, seed int64) {
	p := perlin.NewPerlin(2.0, 2.0, 3, seed)
	for y := 0; y < t.size; y++ {
		for x := 0; x < t.size; x++ {
			nx := float64(x) / float64(t.size) * 4
			ny := float64(y) / float64(t.size) * 4
			val := p.Noise2D(nx, ny)
			t.values[y*t.size+x] = colormath.Clamp01((val + 1.0) / 2.0)
		}
	}
}

// sampleRotated reads the tile at (x,y) after rotating the sample point
// about anchor by -rotateDeg and scaling by 1/scale. Callers pass a fixed
// per-stroke anchor so the grain's phase stays stable along a stroke
// instead of drifting with each stamp's own position.
func (t *grainTile) sampleRotated(x, y, scale, rotateDeg float64, anchorX, anchorY float64) float64 {
	if t.size == 0 {
		return 0
	}
	dx := x - anchorX
	dy := y - anchorY

	rad := -rotateDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	rx := dx*cos - dy*sin
	ry := dx*sin + dy*cos

	if scale <= 0 {
		scale = 1
	}
	ix := colormath.WrapIndex(int(rx/scale), t.size)
	iy := colormath.WrapIndex(int(ry/scale), t.size)
	return t.values[iy*t.size+ix]
}
