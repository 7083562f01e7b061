package layer

import "github.com/inkforge/brushengine/internal/colormath"

// CompositeTo flattens the stack's visible layers, bottom to top, into dst,
// honoring per-layer opacity and blend mode: it walks an arbitrary ordered
// []*Layer with blend-mode dispatch and a per-layer opacity multiplier
// applied to the source alpha before compositing over.
//
// dst must already be sized to the stack's device dimensions; it is
// cleared to transparent black before compositing.
func CompositeTo(dst *Surface, s *Stack) {
	dst.Clear(colormath.RGBA{})
	for _, l := range s.Layers {
		if !l.Visible || l.Opacity <= 0 {
			continue
		}
		compositeLayer(dst, l)
	}
}

func compositeLayer(dst *Surface, l *Layer) {
	src := l.Pixels
	if src == nil {
		return
	}
	w, h := dst.W, dst.H
	if src.W < w {
		w = src.W
	}
	if src.H < h {
		h = src.H
	}
	op := colormath.ClampF(l.Opacity, 0, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sc := src.At(x, y)
			if sc.A <= 0 {
				continue
			}
			if op < 1 {
				sc.R *= op
				sc.G *= op
				sc.B *= op
				sc.A *= op
			}
			dc := dst.At(x, y)
			dst.Set(x, y, blendOver(dc, sc, l.Blend))
		}
	}
}
