// Package backend implements the five rasterizer backends (stamping,
// ribbon, spray, wet, smudge) behind a shared tip-rendering contract. Each
// backend rasterizes a stroke's stamps sequentially.
package backend

import (
	"github.com/inkforge/brushengine/internal/brushctx"
	"github.com/inkforge/brushengine/internal/brushtypes"
	"github.com/inkforge/brushengine/internal/layer"
	"github.com/inkforge/brushengine/internal/paper"
)

// Backend renders a resampled stroke's stamps onto a target surface.
type Backend interface {
	// RenderStroke draws stamps onto dst, reading preset shape/rendering
	// parameters from params and using ctx for RNG/scratch state and paper
	// for substrate shading/grain.
	RenderStroke(dst *layer.Surface, stamps []brushtypes.Stamp, params brushtypes.EngineParams, ctx *brushctx.Context, sub *paper.System)
}

// Resolve picks the concrete Backend for a preset, falling back to the
// stamping backend for brushtypes.BackendAuto or an unrecognized name
// rather than failing the stroke.
func Resolve(name brushtypes.Backend) Backend {
	switch name {
	case brushtypes.BackendRibbon:
		return &Ribbon{}
	case brushtypes.BackendSpray:
		return &Spray{}
	case brushtypes.BackendWet:
		return &Wet{}
	case brushtypes.BackendSmudge:
		return &Smudge{}
	default:
		return &Stamping{}
	}
}

// softOvalAlpha returns the tip footprint's alpha in [0,1] at an offset
// (dx,dy) from the stamp center, for a tip of half-size (rx,ry) and edge
// softness in percent (0 = hard edge, 100 = fully soft falloff to the
// center). This is the one tip-shape primitive shared by every backend
// that draws a round/oval dab (stamping, ribbon, spray).
func softOvalAlpha(dx, dy, rx, ry, softnessPct float64) float64 {
	if rx <= 0 || ry <= 0 {
		return 0
	}
	nx := dx / rx
	ny := dy / ry
	d := nx*nx + ny*ny
	if d >= 1 {
		return 0
	}
	if softnessPct <= 0 {
		return 1
	}
	soft := softnessPct / 100.0
	if soft > 1 {
		soft = 1
	}
	// Inner radius (in normalized units) below which alpha is fully opaque;
	// beyond it, smoothstep to 0 at d=1.
	innerD := (1 - soft) * (1 - soft)
	if d <= innerD {
		return 1
	}
	t := (d - innerD) / (1 - innerD)
	// Smoothstep falloff, matching the cheap two-term Hermite used
	// elsewhere in the color/noise pipeline.
	return 1 - t*t*(3-2*t)
}
