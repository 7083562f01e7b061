package backend

import (
	"math"

	"github.com/inkforge/brushengine/internal/brushctx"
	"github.com/inkforge/brushengine/internal/brushtypes"
	"github.com/inkforge/brushengine/internal/colormath"
	"github.com/inkforge/brushengine/internal/layer"
	"github.com/inkforge/brushengine/internal/paper"
)

// Smudge pulls existing canvas color along the stroke path instead of
// depositing new ink: each segment samples the pre-stroke snapshot at its
// start point and deposits that single sample a short, capped distance
// forward along the segment's tangent, under a radial falloff centered on
// the deposit point. It deposits no ink color of its own, and caps each
// written pixel's alpha at the larger of that pixel's current alpha and the
// pulled sample's alpha, so a smudge moves existing alpha rather than
// adding more than either side had.
type Smudge struct{}

func (Smudge) RenderStroke(dst *layer.Surface, stamps []brushtypes.Stamp, params brushtypes.EngineParams, ctx *brushctx.Context, sub *paper.System) {
	if len(stamps) == 0 {
		return
	}

	source := ctx.EnsureSmudgeSource(dst)
	shape := params.Shape
	follow := params.StrokePath.FollowAmt
	if follow <= 0 {
		follow = 0.5
	}

	baseSize := shape.BaseSizePx * shape.SizeScale
	if baseSize <= 0 {
		baseSize = 1
	}

	prev := stamps[0]
	for i := 1; i < len(stamps); i++ {
		cur := stamps[i]
		r := (baseSize / 2) * cur.WidthScale
		smudgeSegment(dst, source, prev, cur, r, follow, colormath.Clamp01(cur.Pressure))
		prev = cur
		ctx.StampCount++
	}
}

// smudgeAdvanceCapPx bounds how far a single segment carries its pulled
// sample forward, so a fast, widely-spaced stroke still drags paint in
// short hops rather than smearing it across the whole segment.
const smudgeAdvanceCapPx = 12.0

func smudgeSegment(dst, source *layer.Surface, from, to brushtypes.Stamp, radius, follow, strength float64) {
	dx := to.X - from.X
	dy := to.Y - from.Y
	length := math.Hypot(dx, dy)
	tx, ty := 1.0, 0.0
	if length > 1e-6 {
		tx, ty = dx/length, dy/length
	}

	advance := math.Min(radius*0.6, smudgeAdvanceCapPx)
	centerX := from.X + advance*tx
	centerY := from.Y + advance*ty
	pulled := bilinearSample(source, from.X, from.Y)

	minX := int(math.Floor(centerX - radius))
	maxX := int(math.Ceil(centerX + radius))
	minY := int(math.Floor(centerY - radius))
	maxY := int(math.Ceil(centerY + radius))
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > dst.W {
		maxX = dst.W
	}
	if maxY > dst.H {
		maxY = dst.H
	}

	r2 := radius * radius
	if r2 <= 0 {
		return
	}

	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			ox := float64(x) + 0.5 - centerX
			oy := float64(y) + 0.5 - centerY
			d2 := ox*ox + oy*oy
			if d2 > r2 {
				continue
			}
			k := 1 - d2/r2
			if k < 0 {
				k = 0
			}

			existing := dst.At(x, y)
			mixT := colormath.Clamp01(strength * follow * k)
			mixed := colormath.LerpRGBA(existing, pulled, mixT)
			// Never raise alpha above the max of source/existing: a smudge
			// redistributes ink, it does not manufacture new opacity.
			capA := math.Max(existing.A, pulled.A)
			if mixed.A > capA {
				mixed.A = capA
			}
			dst.Set(x, y, mixed)
		}
	}
}

func bilinearSample(s *layer.Surface, x, y float64) colormath.RGBA {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	c00 := s.At(x0, y0)
	c10 := s.At(x0+1, y0)
	c01 := s.At(x0, y0+1)
	c11 := s.At(x0+1, y0+1)

	top := colormath.LerpRGBA(c00, c10, fx)
	bot := colormath.LerpRGBA(c01, c11, fx)
	return colormath.LerpRGBA(top, bot, fy)
}
