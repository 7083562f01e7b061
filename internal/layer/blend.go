package layer

import (
	"math"

	"github.com/inkforge/brushengine/internal/colormath"
)

// BlendMode names one of the Porter-Duff + Photoshop-style blend modes a
// layer can use. Modeled as a closed tagged enum rather than a string or
// registry, so dispatch is a plain switch with no reflection and the
// compiler can flag an unhandled case.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendColorDodge
	BlendColorBurn
	BlendHardLight
	BlendSoftLight
	BlendDifference
	BlendExclusion
)

// ParseBlendMode maps a preset's blend-mode name to a BlendMode. Unknown
// names fall back to BlendNormal (source-over).
func ParseBlendMode(name string) BlendMode {
	switch name {
	case "multiply":
		return BlendMultiply
	case "screen":
		return BlendScreen
	case "overlay":
		return BlendOverlay
	case "darken":
		return BlendDarken
	case "lighten":
		return BlendLighten
	case "color-dodge", "colordodge":
		return BlendColorDodge
	case "color-burn", "colorburn":
		return BlendColorBurn
	case "hard-light", "hardlight":
		return BlendHardLight
	case "soft-light", "softlight":
		return BlendSoftLight
	case "difference":
		return BlendDifference
	case "exclusion":
		return BlendExclusion
	case "normal", "source-over", "":
		return BlendNormal
	default:
		return BlendNormal
	}
}

// blendChannel applies the separable blend function to straight-alpha
// linear channel values cb (backdrop) and cs (source), per the standard
// Photoshop/CSS compositing-and-blending formulas.
func blendChannel(mode BlendMode, cb, cs float64) float64 {
	switch mode {
	case BlendMultiply:
		return cb * cs
	case BlendScreen:
		return cb + cs - cb*cs
	case BlendOverlay:
		return blendChannel(BlendHardLight, cs, cb)
	case BlendDarken:
		return minF(cb, cs)
	case BlendLighten:
		return maxF(cb, cs)
	case BlendColorDodge:
		if cb == 0 {
			return 0
		}
		if cs == 1 {
			return 1
		}
		return minF(1, cb/(1-cs))
	case BlendColorBurn:
		if cb == 1 {
			return 1
		}
		if cs == 0 {
			return 0
		}
		return 1 - minF(1, (1-cb)/cs)
	case BlendHardLight:
		if cs <= 0.5 {
			return blendChannel(BlendMultiply, cb, 2*cs)
		}
		return blendChannel(BlendScreen, cb, 2*cs-1)
	case BlendSoftLight:
		if cs <= 0.5 {
			return cb - (1-2*cs)*cb*(1-cb)
		}
		var d float64
		if cb <= 0.25 {
			d = ((16*cb-12)*cb + 4) * cb
		} else {
			d = sqrtF(cb)
		}
		return cb + (2*cs-1)*(d-cb)
	case BlendDifference:
		return absF(cb - cs)
	case BlendExclusion:
		return cb + cs - 2*cb*cs
	default:
		return cs
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func absF(a float64) float64 {
	if a < 0 {
		return -a
	}
	return a
}

func sqrtF(a float64) float64 {
	return math.Sqrt(a)
}

// blendOver composites premultiplied-linear src over premultiplied-linear
// dst using the Porter-Duff "over" operator, with the separable blend mode
// applied to the straight-alpha color channels before compositing (the
// standard two-stage Photoshop blend-then-composite model).
func blendOver(dst, src colormath.RGBA, mode BlendMode) colormath.RGBA {
	if src.A <= 0 {
		return dst
	}

	straightDst := colormath.Unpremultiply(dst)
	straightSrc := colormath.Unpremultiply(src)

	blended := straightSrc
	if mode != BlendNormal && straightDst.A > 0 {
		blended = colormath.RGBA{
			R: blendChannel(mode, straightDst.R, straightSrc.R),
			G: blendChannel(mode, straightDst.G, straightSrc.G),
			B: blendChannel(mode, straightDst.B, straightSrc.B),
			A: straightSrc.A,
		}
	}

	sa := straightSrc.A
	da := straightDst.A
	outA := sa + da*(1-sa)
	if outA <= 0 {
		return colormath.RGBA{}
	}

	mix := func(blendedC, srcC, dstC float64) float64 {
		// Crossfade between the blended result and the plain source so
		// premultiplied edges (common for a stroke's feathered alpha) don't
		// blend against a nonexistent backdrop color.
		effective := colormath.Lerp(srcC, blendedC, da)
		return (effective*sa + dstC*da*(1-sa)) / outA
	}

	straight := colormath.RGBA{
		R: colormath.Clamp01(mix(blended.R, straightSrc.R, straightDst.R)),
		G: colormath.Clamp01(mix(blended.G, straightSrc.G, straightDst.G)),
		B: colormath.Clamp01(mix(blended.B, straightSrc.B, straightDst.B)),
		A: colormath.Clamp01(outA),
	}
	return colormath.Premultiply(straight)
}
