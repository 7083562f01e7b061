package layer

import (
	"image"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// Layer is one entry in a Stack: a named, blendable, optionally-hidden
// raster surface.
type Layer struct {
	ID      string
	Name    string
	Opacity float64
	Blend   BlendMode
	Visible bool
	Pixels  *Surface
}

// Stack is the ordered collection of layers that make up one canvas,
// addressed in CSS pixels with a device pixel ratio.
type Stack struct {
	CssW, CssH    float64
	Dpr           float64
	Layers        []*Layer
	ActiveLayerID string
}

// DeviceSize returns the backing pixel dimensions implied by CssW/CssH/Dpr,
// rounded up so no CSS pixel is left unbacked.
func (s *Stack) DeviceSize() (int, int) {
	w := int(s.CssW*s.Dpr + 0.999999)
	h := int(s.CssH*s.Dpr + 0.999999)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// NewStack creates an empty stack sized to cssW x cssH CSS pixels at the
// given device pixel ratio, with one default background layer.
func NewStack(cssW, cssH, dpr float64) *Stack {
	if dpr <= 0 {
		dpr = 1
	}
	s := &Stack{CssW: cssW, CssH: cssH, Dpr: dpr}
	l := s.AddLayer("Layer 1")
	s.ActiveLayerID = l.ID
	return s
}

// AddLayer appends a new fully-opaque, visible, normal-blend layer sized to
// the stack's current device dimensions and returns it. IDs are generated
// with google/uuid.
func (s *Stack) AddLayer(name string) *Layer {
	w, h := s.DeviceSize()
	l := &Layer{
		ID:      uuid.NewString(),
		Name:    name,
		Opacity: 1.0,
		Blend:   BlendNormal,
		Visible: true,
		Pixels:  NewSurface(w, h),
	}
	s.Layers = append(s.Layers, l)
	return l
}

// RemoveLayer deletes the layer with the given id, if present. If the
// removed layer was active, activation falls to the topmost remaining
// layer.
func (s *Stack) RemoveLayer(id string) {
	for i, l := range s.Layers {
		if l.ID != id {
			continue
		}
		s.Layers = append(s.Layers[:i], s.Layers[i+1:]...)
		if s.ActiveLayerID == id {
			s.ActiveLayerID = ""
			if n := len(s.Layers); n > 0 {
				s.ActiveLayerID = s.Layers[n-1].ID
			}
		}
		return
	}
}

// LayerByID returns the layer with the given id, or nil.
func (s *Stack) LayerByID(id string) *Layer {
	for _, l := range s.Layers {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// ActiveLayer returns the layer named by ActiveLayerID, or nil.
func (s *Stack) ActiveLayer() *Layer {
	if s.ActiveLayerID == "" {
		return nil
	}
	return s.LayerByID(s.ActiveLayerID)
}

// ResizeStack changes the stack's CSS size and/or device pixel ratio. When
// preserve is true, every layer's existing pixel content is scaled into the
// new device dimensions with golang.org/x/image/draw's bilinear scaler
// (CatmullRom upsampling quality is unnecessary at brush-stroke
// resolutions; ApproxBiLinear keeps the resize cheap). When preserve is
// false, every layer is simply reallocated transparent.
func (s *Stack) ResizeStack(cssW, cssH, dpr float64, preserve bool) {
	if dpr <= 0 {
		dpr = 1
	}
	s.CssW, s.CssH, s.Dpr = cssW, cssH, dpr
	newW, newH := s.DeviceSize()

	for _, l := range s.Layers {
		if !preserve {
			l.Pixels = NewSurface(newW, newH)
			continue
		}
		l.Pixels = resizeSurface(l.Pixels, newW, newH)
	}
}

func resizeSurface(src *Surface, newW, newH int) *Surface {
	if src.W == newW && src.H == newH {
		return src
	}
	srcImg := src.ToNRGBA()
	dstImg := image.NewNRGBA(image.Rect(0, 0, newW, newH))
	draw.ApproxBiLinear.Scale(dstImg, dstImg.Bounds(), srcImg, srcImg.Bounds(), draw.Over, nil)
	return FromNRGBA(dstImg)
}
