package colormath

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// LUTSize is the resolution of curve lookup tables produced by this package.
const LUTSize = 256

// ControlPoint is a single (x,y) knot of a tone curve, both in [0,1].
type ControlPoint struct {
	X, Y float64
}

// curveCache memoizes LUTs by their sanitized control-point key so repeated
// preset lookups (e.g. the same taper profile reused across many stamps)
// don't re-fit the spline every time. Single-writer via mutex: a double
// build on a cache miss just overwrites with an identical result.
type curveCache struct {
	mu      sync.RWMutex
	entries map[string][LUTSize]float64
}

var monotoneCache = &curveCache{entries: make(map[string][LUTSize]float64)}

func sanitizeKey(points []ControlPoint) string {
	sorted := make([]ControlPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var b strings.Builder
	for _, p := range sorted {
		fmt.Fprintf(&b, "%.6f:%.6f;", Clamp01(p.X), Clamp01(p.Y))
	}
	return b.String()
}

// MonotoneCubicLUT builds a 256-entry lookup table from control points using
// the Fritsch-Carlson method, which guarantees the interpolant never
// overshoots between monotone input knots (required for taper/tone curves
// where overshoot would produce negative widths or alphas). Results are
// cached by a sanitized, order-independent key.
func MonotoneCubicLUT(points []ControlPoint) [LUTSize]float64 {
	if len(points) == 0 {
		var lut [LUTSize]float64
		for i := range lut {
			lut[i] = float64(i) / float64(LUTSize-1)
		}
		return lut
	}

	key := sanitizeKey(points)

	monotoneCache.mu.RLock()
	if lut, ok := monotoneCache.entries[key]; ok {
		monotoneCache.mu.RUnlock()
		return lut
	}
	monotoneCache.mu.RUnlock()

	lut := fitMonotoneCubic(points)

	monotoneCache.mu.Lock()
	monotoneCache.entries[key] = lut
	monotoneCache.mu.Unlock()

	return lut
}

func fitMonotoneCubic(points []ControlPoint) [LUTSize]float64 {
	pts := make([]ControlPoint, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })

	n := len(pts)
	var lut [LUTSize]float64
	if n == 1 {
		v := Clamp01(pts[0].Y)
		for i := range lut {
			lut[i] = v
		}
		return lut
	}

	// Secant slopes between consecutive knots.
	d := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		dx := pts[i+1].X - pts[i].X
		if dx <= 0 {
			d[i] = 0
			continue
		}
		d[i] = (pts[i+1].Y - pts[i].Y) / dx
	}

	// Initial tangents: average of adjacent secants (Fritsch-Carlson).
	m := make([]float64, n)
	m[0] = d[0]
	m[n-1] = d[n-2]
	for i := 1; i < n-1; i++ {
		if d[i-1]*d[i] <= 0 {
			m[i] = 0
		} else {
			m[i] = (d[i-1] + d[i]) / 2
		}
	}

	// Enforce monotonicity: rescale (alpha,beta) so the Hermite segment
	// can't overshoot.
	for i := 0; i < n-1; i++ {
		if d[i] == 0 {
			m[i] = 0
			m[i+1] = 0
			continue
		}
		a := m[i] / d[i]
		b := m[i+1] / d[i]
		s := a*a + b*b
		if s > 9 {
			t := 3 / math.Sqrt(s)
			m[i] = t * a * d[i]
			m[i+1] = t * b * d[i]
		}
	}

	hermite := func(i int, t float64) float64 {
		h00 := 2*t*t*t - 3*t*t + 1
		h10 := t*t*t - 2*t*t + t
		h01 := -2*t*t*t + 3*t*t
		h11 := t*t*t - t*t
		dx := pts[i+1].X - pts[i].X
		return h00*pts[i].Y + h10*dx*m[i] + h01*pts[i+1].Y + h11*dx*m[i+1]
	}

	segIdx := 0
	for k := 0; k < LUTSize; k++ {
		x := float64(k) / float64(LUTSize-1)
		for segIdx < n-2 && x > pts[segIdx+1].X {
			segIdx++
		}
		if x <= pts[0].X {
			lut[k] = Clamp01(pts[0].Y)
			continue
		}
		if x >= pts[n-1].X {
			lut[k] = Clamp01(pts[n-1].Y)
			continue
		}
		dx := pts[segIdx+1].X - pts[segIdx].X
		var t float64
		if dx > 0 {
			t = (x - pts[segIdx].X) / dx
		}
		lut[k] = Clamp01(hermite(segIdx, t))
	}
	return lut
}

// SampleLUT reads a LUT at parameter t in [0,1] with linear interpolation
// between adjacent entries.
func SampleLUT(lut [LUTSize]float64, t float64) float64 {
	t = Clamp01(t)
	pos := t * float64(LUTSize-1)
	i0 := int(pos)
	if i0 >= LUTSize-1 {
		return lut[LUTSize-1]
	}
	frac := pos - float64(i0)
	return Lerp(lut[i0], lut[i0+1], frac)
}

// CubicBezierLUT builds a 256-entry easing LUT from a cubic Bezier defined
// by control points (x1,y1) and (x2,y2) (endpoints are fixed at (0,0) and
// (1,1)), via bisection on t for each sampled x — the standard CSS
// easing-function construction.
func CubicBezierLUT(x1, y1, x2, y2 float64) [LUTSize]float64 {
	bx := func(t float64) float64 {
		mt := 1 - t
		return 3*mt*mt*t*x1 + 3*mt*t*t*x2 + t*t*t
	}
	by := func(t float64) float64 {
		mt := 1 - t
		return 3*mt*mt*t*y1 + 3*mt*t*t*y2 + t*t*t
	}

	var lut [LUTSize]float64
	for i := 0; i < LUTSize; i++ {
		targetX := float64(i) / float64(LUTSize-1)
		lo, hi := 0.0, 1.0
		t := targetX
		for iter := 0; iter < 24; iter++ {
			t = (lo + hi) / 2
			if bx(t) < targetX {
				lo = t
			} else {
				hi = t
			}
		}
		lut[i] = Clamp01(by(t))
	}
	return lut
}
