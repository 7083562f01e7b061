package layer

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkforge/brushengine/internal/colormath"
)

func TestNewStackHasOneDefaultLayer(t *testing.T) {
	s := NewStack(100, 100, 1)
	require.Len(t, s.Layers, 1)
	assert.Equal(t, s.Layers[0].ID, s.ActiveLayerID)
}

func TestCompositeEmptyStackIsAllZero(t *testing.T) {
	s := &Stack{CssW: 4, CssH: 4, Dpr: 1}
	dst := NewSurface(4, 4)
	CompositeTo(dst, s)
	for i := range dst.A {
		require.Zerof(t, dst.R[i]+dst.G[i]+dst.B[i]+dst.A[i], "expected all-zero buffer for empty stack, found nonzero at %d", i)
	}
}

func TestInvisibleLayerSkipped(t *testing.T) {
	s := NewStack(4, 4, 1)
	l := s.Layers[0]
	l.Pixels.Clear(colormath.RGBA{R: 1, G: 0, B: 0, A: 1})
	l.Visible = false

	dst := NewSurface(4, 4)
	CompositeTo(dst, s)
	assert.Zero(t, dst.At(0, 0).A, "expected invisible layer to be skipped")
}

func TestZeroOpacityLayerSkipped(t *testing.T) {
	s := NewStack(4, 4, 1)
	l := s.Layers[0]
	l.Pixels.Clear(colormath.RGBA{R: 1, G: 0, B: 0, A: 1})
	l.Opacity = 0

	dst := NewSurface(4, 4)
	CompositeTo(dst, s)
	assert.Zero(t, dst.At(0, 0).A, "expected zero-opacity layer to be skipped")
}

func TestOpaqueLayerOverTransparentBackground(t *testing.T) {
	s := NewStack(2, 2, 1)
	l := s.Layers[0]
	l.Pixels.Clear(colormath.RGBA{R: 0.2, G: 0.4, B: 0.6, A: 1})

	dst := NewSurface(2, 2)
	CompositeTo(dst, s)
	c := dst.At(0, 0)
	require.Equal(t, 1.0, c.A, "expected opaque result")
	assert.InDelta(t, 0.2, c.R, 0.001, "expected red channel to survive compositing unchanged")
}

func TestMultiplyBlendDarkens(t *testing.T) {
	s := NewStack(1, 1, 1)
	bg := s.AddLayer("bg")
	bg.Pixels.Clear(colormath.RGBA{R: 1, G: 1, B: 1, A: 1})
	// reorder so bg is drawn first
	s.Layers[0], s.Layers[1] = s.Layers[1], s.Layers[0]

	fg := s.Layers[1]
	fg.Blend = BlendMultiply
	fg.Pixels.Clear(colormath.RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1})

	dst := NewSurface(1, 1)
	CompositeTo(dst, s)
	c := dst.At(0, 0)
	assert.InDelta(t, 0.5, c.R, 0.01, "expected multiply(1,0.5)=0.5")
}

func TestResizeStackPreserveScalesContent(t *testing.T) {
	s := NewStack(100, 100, 1)
	l := s.Layers[0]
	l.Pixels.Clear(colormath.RGBA{R: 1, G: 0, B: 0, A: 1})

	s.ResizeStack(200, 200, 1, true)
	w, h := s.DeviceSize()
	require.Equal(t, 200, w)
	require.Equal(t, 200, h)

	c := l.Pixels.At(100, 100)
	assert.GreaterOrEqual(t, c.A, 0.99, "expected preserved opaque content after upscale")
}

func TestResizeStackNoPreserveClears(t *testing.T) {
	s := NewStack(100, 100, 1)
	l := s.Layers[0]
	l.Pixels.Clear(colormath.RGBA{R: 1, G: 0, B: 0, A: 1})

	s.ResizeStack(200, 200, 1, false)
	assert.Zero(t, l.Pixels.At(50, 50).A, "expected cleared surface after non-preserving resize")
}

func TestRemoveLayerFallsBackToTopmost(t *testing.T) {
	s := NewStack(4, 4, 1)
	second := s.AddLayer("second")
	s.ActiveLayerID = second.ID
	s.RemoveLayer(second.ID)
	assert.Equal(t, s.Layers[len(s.Layers)-1].ID, s.ActiveLayerID)
}

func TestParseBlendModeUnknownFallsBackToNormal(t *testing.T) {
	assert.Equal(t, BlendNormal, ParseBlendMode("not-a-real-mode"))
}

func TestToNRGBAParallelPathMatchesSerialPath(t *testing.T) {
	w, h := 4, toNRGBAParallelThreshold+10
	s := NewSurface(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			frac := float64(y) / float64(h)
			s.Set(x, y, colormath.RGBA{R: frac, G: 1 - frac, B: 0.5, A: 1})
		}
	}

	got := s.ToNRGBA()

	want := image.NewNRGBA(image.Rect(0, 0, w, h))
	s.convertRows(want, 0, h)

	require.Equal(t, want.Pix, got.Pix, "expected parallel row-band conversion to match the serial reference")
}
