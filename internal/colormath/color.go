package colormath

import (
	"fmt"
	"math"
	"strings"
)

// SRGBToLinear is the exact 256-entry sRGB (0-255) -> linear (0-1) table.
var SRGBToLinear [256]float64

// LinearToSRGB8 is a 4096-entry linear (0-1) -> sRGB 8-bit LUT, sampled at
// LinearToSRGB8Size evenly spaced points across [0,1].
const LinearToSRGB8Size = 4096

var LinearToSRGB8 [LinearToSRGB8Size]uint8

func srgbToLinearExact(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// LinearToSRGB converts a single linear value in [0,1] to sRGB gamma space
// analytically (not via the LUT), used when building the LUT itself and
// anywhere exact precision matters more than LUT-speed.
func LinearToSRGB(c float64) float64 {
	c = Clamp01(c)
	if c <= 0.0031308 {
		return c * 12.92
	}
	return 1.055*math.Pow(c, 1/2.4) - 0.055
}

func init() {
	for i := 0; i < 256; i++ {
		SRGBToLinear[i] = srgbToLinearExact(float64(i) / 255.0)
	}
	for i := 0; i < LinearToSRGB8Size; i++ {
		lin := float64(i) / float64(LinearToSRGB8Size-1)
		srgb := LinearToSRGB(lin)
		v := int(math.Round(srgb * 255.0))
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		LinearToSRGB8[i] = uint8(v)
	}
}

// LinearToSRGB8LUT maps a linear value in [0,1] to an 8-bit sRGB byte via
// the precomputed LUT with linear interpolation between entries.
func LinearToSRGB8LUT(lin float64) uint8 {
	lin = Clamp01(lin)
	pos := lin * float64(LinearToSRGB8Size-1)
	i0 := int(pos)
	if i0 >= LinearToSRGB8Size-1 {
		return LinearToSRGB8[LinearToSRGB8Size-1]
	}
	frac := pos - float64(i0)
	v := Lerp(float64(LinearToSRGB8[i0]), float64(LinearToSRGB8[i0+1]), frac)
	return uint8(math.Round(v))
}

// RGBA is a straight (non-premultiplied) linear color in [0,1] per channel.
type RGBA struct {
	R, G, B, A float64
}

// Premultiply converts a straight-alpha linear color to premultiplied form.
func Premultiply(c RGBA) RGBA {
	return RGBA{R: c.R * c.A, G: c.G * c.A, B: c.B * c.A, A: c.A}
}

// Unpremultiply converts a premultiplied linear color back to straight
// alpha. A zero-alpha pixel unpremultiplies to transparent black.
func Unpremultiply(c RGBA) RGBA {
	if c.A <= 0 {
		return RGBA{}
	}
	inv := 1 / c.A
	return RGBA{R: Clamp01(c.R * inv), G: Clamp01(c.G * inv), B: Clamp01(c.B * inv), A: c.A}
}

// LerpRGBA linearly interpolates two premultiplied-linear colors by t.
func LerpRGBA(a, b RGBA, t float64) RGBA {
	return RGBA{
		R: Lerp(a.R, b.R, t),
		G: Lerp(a.G, b.G, t),
		B: Lerp(a.B, b.B, t),
		A: Lerp(a.A, b.A, t),
	}
}

// ParseHexColor parses a "#rrggbb" or "rrggbb" string into a straight,
// opaque linear color (A=1).
func ParseHexColor(s string) (RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var r, g, b uint8
	if len(s) != 6 {
		return RGBA{}, fmt.Errorf("invalid hex color length: %d", len(s))
	}
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return RGBA{R: SRGBToLinear[r], G: SRGBToLinear[g], B: SRGBToLinear[b], A: 1}, nil
}

// SRGB8ToLinearRGBA converts 8-bit straight-alpha sRGB channels into a
// premultiplied-linear RGBA color, the standard pixel-read boundary
// conversion for loading textures/presets.
func SRGB8ToLinearRGBA(r, g, b, a uint8) RGBA {
	straight := RGBA{
		R: SRGBToLinear[r],
		G: SRGBToLinear[g],
		B: SRGBToLinear[b],
		A: float64(a) / 255.0,
	}
	return Premultiply(straight)
}

// LinearRGBAToSRGB8 converts a premultiplied-linear RGBA color back to
// straight-alpha 8-bit sRGB channels, the standard pixel-write boundary
// conversion for export/compositing to a final raster.
func LinearRGBAToSRGB8(c RGBA) (r, g, b, a uint8) {
	straight := Unpremultiply(c)
	r = LinearToSRGB8LUT(straight.R)
	g = LinearToSRGB8LUT(straight.G)
	b = LinearToSRGB8LUT(straight.B)
	a = uint8(math.Round(Clamp01(straight.A) * 255))
	return
}
