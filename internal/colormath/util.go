package colormath

import "math"

// Clamp01 clamps x to [0,1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// ClampF clamps x to [lo,hi].
func ClampF(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Smoothstep performs a Hermite smoothing of x between edge0 and edge1.
func Smoothstep(edge0, edge1, x float64) float64 {
	if edge0 == edge1 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := Clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}

// WrapUnit wraps x into [0,1), used for toroidal paper/grain sampling.
func WrapUnit(x float64) float64 {
	x = math.Mod(x, 1.0)
	if x < 0 {
		x += 1
	}
	return x
}

// WrapIndex wraps an integer index into [0,max).
func WrapIndex(x, max int) int {
	if max <= 0 {
		return 0
	}
	x %= max
	if x < 0 {
		x += max
	}
	return x
}
