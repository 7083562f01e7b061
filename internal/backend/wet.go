package backend

import (
	"image"
	"image/color"

	"github.com/disintegration/gift"

	"github.com/inkforge/brushengine/internal/brushctx"
	"github.com/inkforge/brushengine/internal/brushtypes"
	"github.com/inkforge/brushengine/internal/colormath"
	"github.com/inkforge/brushengine/internal/layer"
	"github.com/inkforge/brushengine/internal/paper"
)

// Wet renders stamps onto a scratch surface first, then blurs the wet
// footprint with gift.GaussianBlur before compositing onto dst. When
// Rendering.WetEdges is set it blurs wider and adds density where the
// blurred footprint falls below the original stamped alpha, mimicking
// watercolor/wet-media edge pooling: a soft blurred body with a slightly
// denser rim left behind as the "wet edge". Without WetEdges no rim is added.
type Wet struct{}

func (Wet) RenderStroke(dst *layer.Surface, stamps []brushtypes.Stamp, params brushtypes.EngineParams, ctx *brushctx.Context, sub *paper.System) {
	if len(stamps) == 0 {
		return
	}

	scratch := ctx.Scratch("wet-body", dst.W, dst.H)
	scratch.Clear(colormath.RGBA{})
	drawStampSeries(scratch, stamps, params, ctx, sub)

	alphaImg := image.NewGray(image.Rect(0, 0, dst.W, dst.H))
	for y := 0; y < dst.H; y++ {
		for x := 0; x < dst.W; x++ {
			a := scratch.At(x, y).A
			alphaImg.SetGray(x, y, color.Gray{Y: unitToByte(a)})
		}
	}

	sigma := float32(1.5)
	if params.Rendering.WetEdges {
		sigma = 2.5
	}
	g := gift.New(gift.GaussianBlur(sigma))
	blurred := image.NewGray(g.Bounds(alphaImg.Bounds()))
	g.Draw(blurred, alphaImg)

	for y := 0; y < dst.H; y++ {
		for x := 0; x < dst.W; x++ {
			blurredA := float64(blurred.GrayAt(x, y).Y) / 255.0
			original := scratch.At(x, y).A

			a := blurredA
			if params.Rendering.WetEdges && original > 0 && blurredA < original {
				// Thin rim where the blurred footprint still trails the
				// original stamped edge gets a density bump, approximating
				// a wet-edge pooling ring.
				rim := original - blurredA
				a = colormath.Clamp01(blurredA + rim*0.6)
			}
			if a <= 0 {
				continue
			}
			ink := ctx.ColorLinear
			c := colormath.RGBA{R: ink.R * a, G: ink.G * a, B: ink.B * a, A: a}
			existing := dst.At(x, y)
			dst.Set(x, y, blendOverWet(existing, c))
		}
	}
}

func unitToByte(v float64) uint8 {
	iv := int(v*255.0 + 0.5)
	if iv < 0 {
		iv = 0
	}
	if iv > 255 {
		iv = 255
	}
	return uint8(iv)
}

// blendOverWet is a plain Porter-Duff "over" of premultiplied-linear colors,
// used for compositing the wet backend's finished footprint onto dst
// (blend-mode dispatch happens one level up, at the layer-stack stage).
func blendOverWet(dst, src colormath.RGBA) colormath.RGBA {
	if src.A <= 0 {
		return dst
	}
	inv := 1 - src.A
	return colormath.RGBA{
		R: src.R + dst.R*inv,
		G: src.G + dst.G*inv,
		B: src.B + dst.B*inv,
		A: src.A + dst.A*inv,
	}
}
