package backend

import (
	"math"

	"github.com/inkforge/brushengine/internal/brushctx"
	"github.com/inkforge/brushengine/internal/brushtypes"
	"github.com/inkforge/brushengine/internal/colormath"
	"github.com/inkforge/brushengine/internal/layer"
	"github.com/inkforge/brushengine/internal/paper"
)

// Stamping is the default backend: each stamp draws one soft-oval
// tip, sized by the stamp's width scale, shaded by pressure-derived alpha and the paper's ink-deposition
// curve, then composited with "lighten-over" accumulation within a single
// stroke to avoid double-darkening overlapping stamps of translucent ink.
type Stamping struct{}

func (Stamping) RenderStroke(dst *layer.Surface, stamps []brushtypes.Stamp, params brushtypes.EngineParams, ctx *brushctx.Context, sub *paper.System) {
	drawStampSeries(dst, stamps, params, ctx, sub)
}

// drawStampSeries is the shared per-stamp rasterization loop used by the
// stamping backend and by the wet backend's first (scratch) pass. Ribbon
// draws its tips with drawOneStamp directly, between its segment fills.
func drawStampSeries(dst *layer.Surface, stamps []brushtypes.Stamp, params brushtypes.EngineParams, ctx *brushctx.Context, sub *paper.System) {
	shape := params.Shape
	flow := params.Rendering.Flow
	if flow <= 0 {
		flow = 1
	}

	for _, st := range stamps {
		drawOneStamp(dst, st, shape, flow, params, ctx, sub)
		ctx.StampCount++
	}
}

func drawOneStamp(dst *layer.Surface, st brushtypes.Stamp, shape brushtypes.ShapeParams, flow float64, params brushtypes.EngineParams, ctx *brushctx.Context, sub *paper.System) {
	baseSize := shape.BaseSizePx * shape.SizeScale
	if baseSize <= 0 {
		baseSize = 1
	}
	size := baseSize * st.WidthScale
	if size < 0.5 {
		size = 0.5
	}

	rx := size / 2
	ry := rx * shape.Roundness
	if ry < 0.5 {
		ry = 0.5
	}

	angle := shape.AngleDeg + st.AngleDeg
	rad := angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	alpha := colormath.Clamp01(st.Pressure) * flow

	grain := paper.GrainSampler{}
	if params.Grain.Kind != brushtypes.GrainNone {
		grain = sub.GetGrainPattern(params.Grain.Kind, params.Grain.Scale, params.Grain.RotateDeg)
	}

	minX := int(math.Floor(st.X - rx - 1))
	maxX := int(math.Ceil(st.X + rx + 1))
	minY := int(math.Floor(st.Y - ry - 1))
	maxY := int(math.Ceil(st.Y + ry + 1))

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

	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			dx := float64(x) + 0.5 - st.X
			dy := float64(y) + 0.5 - st.Y
			// Rotate into the tip's local (unrotated) frame.
			lx := dx*cos + dy*sin
			ly := -dx*sin + dy*cos

			a := softOvalAlpha(lx, ly, rx, ry, shape.Softness)
			if a <= 0 {
				continue
			}
			a *= alpha
			if params.Grain.Kind != brushtypes.GrainNone {
				g := grain.At(float64(x), float64(y))
				a *= colormath.Lerp(1, g, params.Grain.Depth)
			}
			a = sub.ShadeInk(a, float64(x), float64(y))
			if a <= 0 {
				continue
			}

			ink := ctx.ColorLinear
			stampColor := colormath.RGBA{R: ink.R * a, G: ink.G * a, B: ink.B * a, A: a}
			existing := dst.At(x, y)
			// Within one stroke, accumulate with a max-alpha rule instead
			// of Porter-Duff over repeatedly, so overlapping stamps of
			// translucent ink build toward the stroke's target alpha
			// rather than darkening past it on every re-pass.
			if stampColor.A > existing.A {
				dst.Set(x, y, stampColor)
			}
		}
	}
}
