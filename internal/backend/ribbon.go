package backend

import (
	"math"

	"github.com/inkforge/brushengine/internal/brushctx"
	"github.com/inkforge/brushengine/internal/brushtypes"
	"github.com/inkforge/brushengine/internal/colormath"
	"github.com/inkforge/brushengine/internal/layer"
	"github.com/inkforge/brushengine/internal/paper"
)

// Ribbon connects consecutive stamps with a filled quad so a fast stroke
// doesn't show gaps between widely-spaced round tips, then caps each
// segment with the same soft-oval tip as Stamping for rounded ends.
type Ribbon struct{}

func (Ribbon) RenderStroke(dst *layer.Surface, stamps []brushtypes.Stamp, params brushtypes.EngineParams, ctx *brushctx.Context, sub *paper.System) {
	if len(stamps) == 0 {
		return
	}
	shape := params.Shape
	flow := params.Rendering.Flow
	if flow <= 0 {
		flow = 1
	}

	for i := 0; i < len(stamps); i++ {
		drawOneStamp(dst, stamps[i], shape, flow, params, ctx, sub)
		ctx.StampCount++
		if i == 0 {
			continue
		}
		drawRibbonSegment(dst, stamps[i-1], stamps[i], shape, flow, params, ctx, sub)
	}
}

func drawRibbonSegment(dst *layer.Surface, a, b brushtypes.Stamp, shape brushtypes.ShapeParams, flow float64, params brushtypes.EngineParams, ctx *brushctx.Context, sub *paper.System) {
	baseSize := shape.BaseSizePx * shape.SizeScale
	if baseSize <= 0 {
		baseSize = 1
	}
	ra := baseSize * a.WidthScale / 2
	rb := baseSize * b.WidthScale / 2
	if ra < 0.25 {
		ra = 0.25
	}
	if rb < 0.25 {
		rb = 0.25
	}

	dx := b.X - a.X
	dy := b.Y - a.Y
	length := math.Hypot(dx, dy)
	if length < 1e-6 {
		return
	}
	// unit normal
	nx := -dy / length
	ny := dx / length

	minX := int(math.Floor(minF4(a.X-ra, b.X-rb))) - 1
	maxX := int(math.Ceil(maxF4(a.X+ra, b.X+rb))) + 1
	minY := int(math.Floor(minF4(a.Y-ra, b.Y-rb))) - 1
	maxY := int(math.Ceil(maxF4(a.Y+ra, b.Y+rb))) + 1
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
			px, py := float64(x)+0.5, float64(y)+0.5
			// Project (px,py) onto the segment to get t in [0,1] and the
			// perpendicular offset from the centerline.
			vx, vy := px-a.X, py-a.Y
			t := (vx*dx + vy*dy) / (length * length)
			if t < 0 || t > 1 {
				continue
			}
			perp := vx*nx + vy*ny
			r := colormath.Lerp(ra, rb, t)
			if math.Abs(perp) > r {
				continue
			}

			edgeSoft := shape.Softness / 100.0
			if edgeSoft > 1 {
				edgeSoft = 1
			}
			falloff := 1.0
			if edgeSoft > 0 {
				inner := r * (1 - edgeSoft)
				if math.Abs(perp) > inner {
					span := r - inner
					if span > 0 {
						u := (math.Abs(perp) - inner) / span
						falloff = 1 - u*u*(3-2*u)
					}
				}
			}

			pressure := colormath.Lerp(a.Pressure, b.Pressure, t)
			al := colormath.Clamp01(pressure) * flow * falloff
			if params.Grain.Kind != brushtypes.GrainNone {
				g := sub.GetGrainPattern(params.Grain.Kind, params.Grain.Scale, params.Grain.RotateDeg).At(px, py)
				al *= colormath.Lerp(1, g, params.Grain.Depth)
			}
			al = sub.ShadeInk(al, px, py)
			if al <= 0 {
				continue
			}

			ink := ctx.ColorLinear
			stampColor := colormath.RGBA{R: ink.R * al, G: ink.G * al, B: ink.B * al, A: al}
			existing := dst.At(x, y)
			if stampColor.A > existing.A {
				dst.Set(x, y, stampColor)
			}
		}
	}
}

func minF4(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF4(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
