package paper

import (
	"image"

	"github.com/disintegration/gift"

	"github.com/inkforge/brushengine/internal/colormath"
)

// toothTile holds the body/flank microstructure for one stroke context,
// generated once from FBM noise the way texture.applyPaperGrain builds a
// seamless paper tile, but sized to a single re-tileable tooth patch
// instead of a full map texture.
type toothTile struct {
	size  int
	body  []float64 // medium-contrast pepper, [0,1]
	flank []float64 // high-contrast with a light blur, [0,1]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func toothTileSize(grainScale float64) int {
	if grainScale <= 0 {
		grainScale = 1
	}
	size := int(64.0 / grainScale)
	return clampInt(size, 16, 256)
}

func buildToothTile(seed int64, grainScale float64) *toothTile {
	size := toothTileSize(grainScale)
	tt := &toothTile{size: size, body: make([]float64, size*size), flank: make([]float64, size*size)}

	s32 := uint32(seed)
	for y := 0; y < size; y++ {
		v := float64(y) / float64(size)
		for x := 0; x < size; x++ {
			u := float64(x) / float64(size)
			i := y*size + x

			body := colormath.FBM2(u*6, v*6, 4, 2.0, 0.5, s32)
			tt.body[i] = colormath.Clamp01((body + 1) * 0.5)

			flank := colormath.FBM2(u*10, v*10, 3, 2.3, 0.55, s32+911)
			flank = colormath.Clamp01((flank + 1) * 0.5)
			// High-contrast pass: sharpen toward 0/1 before the blur below.
			if flank < 0.5 {
				flank = flank * flank * 2
			} else {
				flank = 1 - (1-flank)*(1-flank)*2
			}
			tt.flank[i] = colormath.Clamp01(flank)
		}
	}

	tt.flank = blurFlank(tt.flank, size)
	return tt
}

// blurFlank applies a light Gaussian blur to the flank channel via
// disintegration/gift, the same blur library mask/processor.go uses for
// mask softening, rather than hand-rolling a box blur for this pass.
func blurFlank(values []float64, size int) []float64 {
	src := image.NewGray(image.Rect(0, 0, size, size))
	for i, v := range values {
		src.Pix[i] = uint8(colormath.Clamp01(v) * 255)
	}

	g := gift.New(gift.GaussianBlur(float32(0.8)))
	dst := image.NewGray(g.Bounds(src.Bounds()))
	g.Draw(dst, src)

	out := make([]float64, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := dst.GrayAt(x, y)
			out[y*size+x] = float64(c.Y) / 255.0
		}
	}
	return out
}

func (tt *toothTile) sample(x, y float64) (body, flank float64) {
	ix := colormath.WrapIndex(int(x), tt.size)
	iy := colormath.WrapIndex(int(y), tt.size)
	i := iy*tt.size + ix
	return tt.body[i], tt.flank[i]
}
