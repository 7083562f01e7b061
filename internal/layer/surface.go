// Package layer implements sized raster surfaces, the layer stack,
// blend/opacity compositing and resize-with-preserve.
package layer

import (
	"context"
	"image"
	"runtime"

	"github.com/inkforge/brushengine/internal/colormath"
	"github.com/inkforge/brushengine/internal/workerpool"
)

// toNRGBAParallelThreshold is the row count above which ToNRGBA fans the
// sRGB8 conversion out across a workerpool.Pool instead of running it
// inline; small surfaces aren't worth the goroutine overhead.
const toNRGBAParallelThreshold = 256

// Surface is an owned, linear-premultiplied RGBA raster, stored as
// structure-of-arrays float32 planes, with an alpha plane alongside R/G/B
// since brush layers are not opaque.
type Surface struct {
	W, H int
	R    []float32
	G    []float32
	B    []float32
	A    []float32
}

// NewSurface allocates a transparent surface of the given device pixel
// size.
func NewSurface(w, h int) *Surface {
	n := w * h
	return &Surface{W: w, H: h, R: make([]float32, n), G: make([]float32, n), B: make([]float32, n), A: make([]float32, n)}
}

func (s *Surface) idx(x, y int) int { return y*s.W + x }

// InBounds reports whether (x,y) addresses a pixel of this surface.
func (s *Surface) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.W && y < s.H
}

// At returns the premultiplied-linear color at (x,y). Out-of-bounds reads
// return transparent black rather than panicking, silently skipping
// instead of failing the stroke.
func (s *Surface) At(x, y int) colormath.RGBA {
	if !s.InBounds(x, y) {
		return colormath.RGBA{}
	}
	i := s.idx(x, y)
	return colormath.RGBA{R: float64(s.R[i]), G: float64(s.G[i]), B: float64(s.B[i]), A: float64(s.A[i])}
}

// Set writes a premultiplied-linear color at (x,y). Out-of-bounds writes
// are silently skipped.
func (s *Surface) Set(x, y int, c colormath.RGBA) {
	if !s.InBounds(x, y) {
		return
	}
	i := s.idx(x, y)
	s.R[i] = float32(c.R)
	s.G[i] = float32(c.G)
	s.B[i] = float32(c.B)
	s.A[i] = float32(c.A)
}

// Clear fills the entire surface with c.
func (s *Surface) Clear(c colormath.RGBA) {
	for i := range s.R {
		s.R[i] = float32(c.R)
		s.G[i] = float32(c.G)
		s.B[i] = float32(c.B)
		s.A[i] = float32(c.A)
	}
}

// Clone returns an independent deep copy.
func (s *Surface) Clone() *Surface {
	out := NewSurface(s.W, s.H)
	copy(out.R, s.R)
	copy(out.G, s.G)
	copy(out.B, s.B)
	copy(out.A, s.A)
	return out
}

// ToNRGBA converts the surface to an 8-bit straight-alpha sRGB image, the
// standard write boundary for export/PNG encoding. Each row writes disjoint
// output bytes, so above toNRGBAParallelThreshold rows the conversion is
// split into row bands and run across a workerpool.Pool.
func (s *Surface) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, s.W, s.H))
	if s.H <= toNRGBAParallelThreshold {
		s.convertRows(out, 0, s.H)
		return out
	}

	pool := workerpool.New(workerpool.Config{
		Workers: runtime.NumCPU(),
		Run: func(ctx context.Context, job workerpool.Job) error {
			s.convertRows(out, job.Start, job.End)
			return nil
		},
	})
	pool.Run(context.Background(), workerpool.SplitRows(s.H, runtime.NumCPU()))
	return out
}

func (s *Surface) convertRows(out *image.NRGBA, yStart, yEnd int) {
	for y := yStart; y < yEnd; y++ {
		for x := 0; x < s.W; x++ {
			c := s.At(x, y)
			r, g, b, a := colormath.LinearRGBAToSRGB8(c)
			o := out.PixOffset(x, y)
			out.Pix[o] = r
			out.Pix[o+1] = g
			out.Pix[o+2] = b
			out.Pix[o+3] = a
		}
	}
}

// FromNRGBA builds a Surface from an 8-bit straight-alpha sRGB image.
func FromNRGBA(img *image.NRGBA) *Surface {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := NewSurface(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
			out.Set(x, y, colormath.SRGB8ToLinearRGBA(c.R, c.G, c.B, c.A))
		}
	}
	return out
}
