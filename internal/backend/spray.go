package backend

import (
	"math"

	"github.com/inkforge/brushengine/internal/brushctx"
	"github.com/inkforge/brushengine/internal/brushtypes"
	"github.com/inkforge/brushengine/internal/colormath"
	"github.com/inkforge/brushengine/internal/layer"
	"github.com/inkforge/brushengine/internal/paper"
)

// Spray scatters StrokePath.Count small dots per stamp position within a
// radius scaled by the stamp's width scale (pressure scales each dot's
// alpha), for airbrush/spray-can presets.
type Spray struct{}

func (Spray) RenderStroke(dst *layer.Surface, stamps []brushtypes.Stamp, params brushtypes.EngineParams, ctx *brushctx.Context, sub *paper.System) {
	shape := params.Shape
	path := params.StrokePath
	flow := params.Rendering.Flow
	if flow <= 0 {
		flow = 1
	}

	count := path.Count
	if count <= 0 {
		count = 1
	}

	baseSize := shape.BaseSizePx * shape.SizeScale
	if baseSize <= 0 {
		baseSize = 1
	}
	dotR := baseSize / 8
	if dotR < 0.5 {
		dotR = 0.5
	}

	for _, st := range stamps {
		radius := (baseSize / 2) * st.WidthScale
		for i := 0; i < count; i++ {
			// Uniform disc sampling via sqrt(rng) radial distribution.
			rr := math.Sqrt(ctx.RNG.Float64()) * radius
			theta := ctx.RNG.Float64() * 2 * math.Pi
			px := st.X + rr*math.Cos(theta)
			py := st.Y + rr*math.Sin(theta)

			drawSprayDot(dst, px, py, dotR, colormath.Clamp01(st.Pressure)*flow, params, sub, ctx.ColorLinear)
		}
		ctx.StampCount++
	}
}

func drawSprayDot(dst *layer.Surface, cx, cy, r, alpha float64, params brushtypes.EngineParams, sub *paper.System, ink colormath.RGBA) {
	minX := int(math.Floor(cx - r))
	maxX := int(math.Ceil(cx + r))
	minY := int(math.Floor(cy - r))
	maxY := int(math.Ceil(cy + r))
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
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			a := softOvalAlpha(dx, dy, r, r, 60)
			if a <= 0 {
				continue
			}
			a *= alpha
			if params.Grain.Kind != brushtypes.GrainNone {
				g := sub.GetGrainPattern(params.Grain.Kind, params.Grain.Scale, params.Grain.RotateDeg).At(float64(x), float64(y))
				a *= colormath.Lerp(1, g, params.Grain.Depth)
			}
			a = sub.ShadeInk(a, float64(x), float64(y))
			if a <= 0 {
				continue
			}

			dot := colormath.RGBA{R: ink.R * a, G: ink.G * a, B: ink.B * a, A: a}
			existing := dst.At(x, y)
			if dot.A > existing.A {
				dst.Set(x, y, dot)
			}
		}
	}
}
