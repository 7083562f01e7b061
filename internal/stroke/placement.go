// Package stroke resamples a pointer path by arc length and emits the
// stamps a backend will rasterize: streamline smoothing, spacing/jitter/
// scatter, taper and predictive head extension.
package stroke

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/inkforge/brushengine/internal/brushtypes"
	"github.com/inkforge/brushengine/internal/colormath"
)

// Sample is one path point already carrying its tracked pressure, the
// output of internal/pressure.Tracker.Update for that sample.
type Sample struct {
	Point    orb.Point
	TMs      float64
	Pressure float64
}

// Options bundles the placement configuration a preset supplies, plus the
// deterministic RNG the engine hands this stroke.
type Options struct {
	StrokePath brushtypes.StrokePathParams
	BaseSizePx float64
	RNG        *colormath.RNG
}

const predictClampPx = 24.0

// PathToStamps resamples path by arc length and emits stamps. It is
// deterministic given (path, opts, seed): all randomness flows through
// opts.RNG. Empty paths produce no stamps; a single-point path produces one
// stamp with tangent 0.
func PathToStamps(path []Sample, opts Options) []brushtypes.Stamp {
	if len(path) == 0 {
		return nil
	}
	if len(path) == 1 {
		p := path[0]
		return []brushtypes.Stamp{{
			X: p.Point.X(), Y: p.Point.Y(), AngleDeg: 0, Pressure: colormath.Clamp01(p.Pressure),
			T: 0, WidthScale: widthScaleAt(0, opts.StrokePath), TangentDeg: 0,
		}}
	}

	smoothed := applyStreamline(path, opts.StrokePath.StreamlinePct)
	withArc, total := computeArcLength(smoothed)

	if total < 1e-6 {
		p := smoothed[0]
		return []brushtypes.Stamp{{
			X: p.Point.X(), Y: p.Point.Y(), AngleDeg: 0, Pressure: colormath.Clamp01(p.Pressure),
			T: 0, WidthScale: widthScaleAt(0, opts.StrokePath), TangentDeg: 0,
		}}
	}

	stepPx := math.Max(0.25, opts.StrokePath.SpacingPct/100.0*opts.BaseSizePx)

	var stamps []brushtypes.Stamp
	count := opts.StrokePath.Count
	if count < 1 {
		count = 1
	}

	arcPos := 0.0
	for arcPos <= total {
		pos, tangent := sampleAtArcLength(withArc, arcPos)
		pressure := samplePressureAtArcLength(withArc, arcPos)
		t := arcPos / total

		localStep := stepPx
		if opts.StrokePath.KSpeed != 0 {
			localSeg := localSegmentLength(withArc, arcPos)
			nominal := stepPx
			if nominal > 0 {
				factor := colormath.ClampF(1+opts.StrokePath.KSpeed*(localSeg/nominal-1), 0.5, 2.0)
				localStep = math.Max(opts.StrokePath.MinStepPx, stepPx*factor)
			}
		}

		jitterAlong := 0.0
		if opts.RNG != nil && opts.StrokePath.JitterPct != 0 {
			jitterAlong = opts.RNG.Signed() * (opts.StrokePath.JitterPct / 100.0) * localStep
		}
		placedArc := arcPos + jitterAlong

		ppos, ptangent := sampleAtArcLength(withArc, placedArc)
		ppressure := samplePressureAtArcLength(withArc, placedArc)

		n := count
		for k := 0; k < n; k++ {
			normalOffset := 0.0
			if n > 1 {
				normalOffset = opts.StrokePath.ScatterPx * ((float64(k) - float64(n-1)/2) / math.Max(1, float64(n-1)))
			}
			if opts.RNG != nil {
				normalOffset += 0.25 * opts.StrokePath.ScatterPx * opts.RNG.Signed()
			}

			nx, ny := normalOf(ptangent)
			sx := ppos.X() + nx*normalOffset
			sy := ppos.Y() + ny*normalOffset

			angleJitter := 0.0
			if opts.RNG != nil && opts.StrokePath.AngleJitterDeg != 0 {
				angleJitter = opts.RNG.Float64Range(-opts.StrokePath.AngleJitterDeg, opts.StrokePath.AngleJitterDeg)
			}
			follow := opts.StrokePath.FollowAmt
			angle := follow*ptangent + angleJitter

			stamps = append(stamps, brushtypes.Stamp{
				X: sx, Y: sy, AngleDeg: angle,
				Pressure:   colormath.Clamp01(ppressure),
				T:          colormath.Clamp01(t),
				WidthScale: widthScaleAt(t, opts.StrokePath),
				TangentDeg: ptangent,
			})
		}

		arcPos += localStep
	}

	if opts.StrokePath.PredictPx > 0 && len(stamps) > 0 {
		last := stamps[len(stamps)-1]
		predict := math.Min(opts.StrokePath.PredictPx, predictClampPx)
		rad := last.TangentDeg * math.Pi / 180
		nudged := last
		nudged.X += math.Cos(rad) * predict
		nudged.Y += math.Sin(rad) * predict
		stamps = append(stamps, nudged)
	}

	return stamps
}

type arcSample struct {
	point    orb.Point
	pressure float64
	arc      float64
	tangent  float64 // degrees, direction to next point (or from previous for last)
}

// applyStreamline runs a one-pole low-pass filter over the path with
// alpha = max(0.05, 1 - streamline/100). Applied before any predictive
// nudge: smoothing the raw path first keeps the head extension's direction
// estimate stable instead of chasing jittery input.
func applyStreamline(path []Sample, streamlinePct float64) []Sample {
	alpha := math.Max(0.05, 1-streamlinePct/100.0)
	out := make([]Sample, len(path))
	out[0] = path[0]
	for i := 1; i < len(path); i++ {
		px := out[i-1].Point.X() + alpha*(path[i].Point.X()-out[i-1].Point.X())
		py := out[i-1].Point.Y() + alpha*(path[i].Point.Y()-out[i-1].Point.Y())
		out[i] = Sample{
			Point:    orb.Point{px, py},
			TMs:      path[i].TMs,
			Pressure: path[i].Pressure,
		}
	}
	return out
}

func computeArcLength(path []Sample) ([]arcSample, float64) {
	out := make([]arcSample, len(path))
	arc := 0.0
	for i := range path {
		out[i].point = path[i].Point
		out[i].pressure = path[i].Pressure
		if i > 0 {
			dx := path[i].Point.X() - path[i-1].Point.X()
			dy := path[i].Point.Y() - path[i-1].Point.Y()
			seg := math.Hypot(dx, dy)
			if seg < 1e-6 {
				seg = 0
			}
			arc += seg
		}
		out[i].arc = arc
	}

	for i := range out {
		var tangent float64
		switch {
		case len(out) == 1:
			tangent = 0
		case i == len(out)-1:
			tangent = segmentAngle(out[i-1].point, out[i].point)
		default:
			tangent = segmentAngle(out[i].point, out[i+1].point)
		}
		out[i].tangent = tangent
	}

	return out, arc
}

func segmentAngle(a, b orb.Point) float64 {
	dx := b.X() - a.X()
	dy := b.Y() - a.Y()
	if math.Abs(dx) < 1e-9 && math.Abs(dy) < 1e-9 {
		return 0
	}
	return math.Atan2(dy, dx) * 180 / math.Pi
}

func sampleAtArcLength(path []arcSample, arc float64) (orb.Point, float64) {
	if arc <= path[0].arc {
		return path[0].point, path[0].tangent
	}
	last := path[len(path)-1]
	if arc >= last.arc {
		return last.point, last.tangent
	}
	for i := 1; i < len(path); i++ {
		if arc <= path[i].arc {
			segLen := path[i].arc - path[i-1].arc
			var t float64
			if segLen > 1e-9 {
				t = (arc - path[i-1].arc) / segLen
			}
			x := colormath.Lerp(path[i-1].point.X(), path[i].point.X(), t)
			y := colormath.Lerp(path[i-1].point.Y(), path[i].point.Y(), t)
			tangent := path[i-1].tangent
			return orb.Point{x, y}, tangent
		}
	}
	return last.point, last.tangent
}

func samplePressureAtArcLength(path []arcSample, arc float64) float64 {
	if arc <= path[0].arc {
		return path[0].pressure
	}
	last := path[len(path)-1]
	if arc >= last.arc {
		return last.pressure
	}
	for i := 1; i < len(path); i++ {
		if arc <= path[i].arc {
			segLen := path[i].arc - path[i-1].arc
			var t float64
			if segLen > 1e-9 {
				t = (arc - path[i-1].arc) / segLen
			}
			return colormath.Lerp(path[i-1].pressure, path[i].pressure, t)
		}
	}
	return last.pressure
}

func localSegmentLength(path []arcSample, arc float64) float64 {
	for i := 1; i < len(path); i++ {
		if arc <= path[i].arc {
			return path[i].arc - path[i-1].arc
		}
	}
	return 0
}

func normalOf(tangentDeg float64) (nx, ny float64) {
	rad := tangentDeg * math.Pi / 180
	return -math.Sin(rad), math.Cos(rad)
}

// widthScaleAt compounds start/end taper profiles (evaluated via monotone
// LUT), endBias shaping and uniformity lerp, clamped to [0,1].
func widthScaleAt(t float64, sp brushtypes.StrokePathParams) float64 {
	start := taperValue(sp.TaperStart, t)
	end := taperValue(sp.TaperEnd, 1-t)
	base := start * end

	if sp.EndBias != 0 {
		bias := colormath.Lerp(1, 2-t, colormath.Clamp01(sp.EndBias))
		base *= bias
	}

	uniform := colormath.Clamp01(sp.Uniformity)
	base = colormath.Lerp(base, 1.0, uniform)

	return colormath.Clamp01(base)
}

func taperValue(controlY []float64, t float64) float64 {
	if len(controlY) == 0 {
		return 1.0
	}
	pts := make([]colormath.ControlPoint, len(controlY))
	n := len(controlY)
	for i, y := range controlY {
		x := 0.0
		if n > 1 {
			x = float64(i) / float64(n-1)
		}
		pts[i] = colormath.ControlPoint{X: x, Y: y}
	}
	lut := colormath.MonotoneCubicLUT(pts)
	return colormath.SampleLUT(lut, t)
}
