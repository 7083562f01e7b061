package colormath

import "math"

// Hash2 is a fast integer hash of a 2D lattice coordinate into [0,1),
// deterministic given seed. Used as the gradient source for ValueNoise2.
func Hash2(ix, iy int, seed uint32) float64 {
	h := uint32(ix)*374761393 + uint32(iy)*668265263 + seed*2246822519
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return float64(h) / 4294967296.0
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

// ValueNoise2 samples 2D value noise at (x,y) in roughly [-1,1], built from
// bilinear interpolation of Hash2 lattice corners with a quintic fade curve.
func ValueNoise2(x, y float64, seed uint32) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	ix0, iy0 := int(x0), int(y0)

	tx := fade(x - x0)
	ty := fade(y - y0)

	v00 := Hash2(ix0, iy0, seed)
	v10 := Hash2(ix0+1, iy0, seed)
	v01 := Hash2(ix0, iy0+1, seed)
	v11 := Hash2(ix0+1, iy0+1, seed)

	vx0 := Lerp(v00, v10, tx)
	vx1 := Lerp(v01, v11, tx)
	v := Lerp(vx0, vx1, ty)

	return v*2 - 1
}

// FBM2 sums octaves of ValueNoise2 with the given lacunarity (frequency
// multiplier per octave) and gain (amplitude multiplier per octave),
// normalized so the result stays within roughly [-1,1].
func FBM2(x, y float64, octaves int, lacunarity, gain float64, seed uint32) float64 {
	if octaves < 1 {
		octaves = 1
	}
	amp := 0.5
	freq := 1.0
	sum := 0.0
	norm := 0.0
	for i := 0; i < octaves; i++ {
		sum += amp * ValueNoise2(x*freq, y*freq, seed+uint32(i)*101)
		norm += amp
		amp *= gain
		freq *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}
