// Package engine implements the facade that sequences pressure tracking,
// stroke placement, backend rasterization, paper shading and layer
// compositing behind a small public API, and owns the layer stack and
// history.
package engine

import (
	"bytes"
	"fmt"
	"image/png"
	"log/slog"
	"strings"

	"github.com/paulmach/orb"

	"github.com/inkforge/brushengine/internal/backend"
	"github.com/inkforge/brushengine/internal/brushctx"
	"github.com/inkforge/brushengine/internal/brushtypes"
	"github.com/inkforge/brushengine/internal/colormath"
	"github.com/inkforge/brushengine/internal/history"
	"github.com/inkforge/brushengine/internal/layer"
	"github.com/inkforge/brushengine/internal/paper"
	"github.com/inkforge/brushengine/internal/pressure"
	"github.com/inkforge/brushengine/internal/stroke"
)

// DefaultHistoryLimit is the default number of undo steps an Engine keeps.
const DefaultHistoryLimit = 100

// Engine owns the layer stack and history for one editing session, and
// orchestrates strokes against them.
type Engine struct {
	Stack   *layer.Stack
	History *history.History
	Logger  *slog.Logger

	activeStroke *StrokeHandle
}

// New creates an Engine over a freshly created layer stack sized to
// cssW x cssH at dpr, with an empty bounded history.
func New(cssW, cssH, dpr float64, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		Stack:   layer.NewStack(cssW, cssH, dpr),
		History: history.New(DefaultHistoryLimit),
		Logger:  logger,
	}
	// Seed history with the empty starting state so the first stroke's
	// undo has something to land on.
	e.History.Push("initial", e.Stack)
	return e
}

// StrokeHandle is the opaque per-stroke state returned by BeginStroke.
type StrokeHandle struct {
	preset    brushtypes.BrushPreset
	backend   backend.Backend
	tracker   *pressure.Tracker
	ctx       *brushctx.Context
	paper     *paper.System
	layer     *layer.Layer
	scratch   *layer.Surface
	rawPath   []stroke.Sample
	committed bool
}

// BeginStroke starts a stroke against the engine's current active layer
// using preset, seeded with seed. colorHex ("#rrggbb" or "rrggbb") is
// parsed into a linear ink color and carried on the stroke's brushctx.Context
// for backends to paint with; an unparseable color falls back to opaque
// black rather than failing the stroke.
func (e *Engine) BeginStroke(preset brushtypes.BrushPreset, colorHex string, seed uint32) (*StrokeHandle, error) {
	active := e.Stack.ActiveLayer()
	if active == nil {
		return nil, newErr(ErrContextUnavailable, "no active layer to stroke into")
	}
	if active.Pixels.W <= 0 || active.Pixels.H <= 0 {
		return nil, newErr(ErrContextUnavailable, "active layer has no addressable pixel surface")
	}

	be := resolveWithWarning(preset.Engine.Backend, e.Logger)

	ctx := brushctx.NewContext(seed)
	ctx.ColorLinear = resolveInkColor(colorHex, e.Logger)

	h := &StrokeHandle{
		preset:  preset,
		backend: be,
		tracker: pressure.NewTracker(preset.Engine.Input.Pressure),
		ctx:     ctx,
		paper: paper.NewSystem(paper.Options{
			Seed:                      int64(seed),
			GrainScale:                preset.Engine.Grain.Scale,
			Absorb:                    1.0,
			Carve:                     1.0,
			GrainPersistAcrossStrokes: preset.Engine.Grain.PersistAcrossStrokes,
		}),
		layer:   active,
		scratch: layer.NewSurface(active.Pixels.W, active.Pixels.H),
	}
	e.activeStroke = h
	return h, nil
}

func resolveInkColor(colorHex string, logger *slog.Logger) colormath.RGBA {
	c, err := colormath.ParseHexColor(colorHex)
	if err != nil {
		if logger != nil {
			logger.Warn("unparseable stroke color, falling back to black", "color_hex", colorHex, "error", err)
		}
		return colormath.RGBA{A: 1}
	}
	return c
}

func resolveWithWarning(name brushtypes.Backend, logger *slog.Logger) backend.Backend {
	switch name {
	case brushtypes.BackendAuto, brushtypes.BackendStamping, brushtypes.BackendRibbon,
		brushtypes.BackendSpray, brushtypes.BackendWet, brushtypes.BackendSmudge:
		return backend.Resolve(name)
	default:
		if logger != nil {
			logger.Warn("unknown brush backend, falling back to stamping", "backend", string(name))
		}
		return backend.Resolve(brushtypes.BackendStamping)
	}
}

// PushSample feeds one raw pointer sample into the in-progress stroke,
// running it through the pressure tracker immediately so placement later
// resamples a path whose pressures are already calibrated/smoothed.
func (e *Engine) PushSample(h *StrokeHandle, pt brushtypes.PathPoint) {
	if h == nil || h.committed {
		return
	}
	p := h.tracker.Update(pt)
	h.rawPath = append(h.rawPath, stroke.Sample{
		Point:    orb.Point{pt.X, pt.Y},
		TMs:      pt.TMs,
		Pressure: p,
	})
	h.ctx.SampleCount++
}

// EndStroke resamples the accumulated path into stamps, rasterizes them
// with the resolved backend into the stroke's scratch surface, composites
// the scratch onto the active layer, and records a history entry. Returns
// the number of stamps rasterized.
func (e *Engine) EndStroke(h *StrokeHandle) (int, error) {
	if h == nil {
		return 0, newErr(ErrContextUnavailable, "nil stroke handle")
	}
	defer func() {
		h.ctx.Dispose()
		h.committed = true
		if e.activeStroke == h {
			e.activeStroke = nil
		}
	}()

	current := e.Stack.LayerByID(h.layer.ID)
	if current == nil || current.Pixels.W != h.layer.Pixels.W || current.Pixels.H != h.layer.Pixels.H {
		return 0, newErr(ErrSizeMismatch, "active layer backing store changed size mid-stroke")
	}

	opts := stroke.Options{
		StrokePath: h.preset.Engine.StrokePath,
		BaseSizePx: h.preset.Engine.Shape.BaseSizePx * h.preset.Engine.Shape.SizeScale,
		RNG:        h.ctx.RNG,
	}
	stamps := stroke.PathToStamps(h.rawPath, opts)
	if len(stamps) == 0 {
		return 0, nil
	}

	h.backend.RenderStroke(h.scratch, stamps, h.preset.Engine, h.ctx, h.paper)

	compositeStampLayer(h.layer.Pixels, h.scratch)

	e.History.Push("stroke", e.Stack)

	return len(stamps), nil
}

// compositeStampLayer composites src (a stroke's freshly-rasterized
// premultiplied-linear scratch surface) over dst with plain source-over: a
// stroke's own paint accumulation onto its target layer is always normal
// blend regardless of that layer's blend mode in the stack (the layer's
// blend mode only applies when the layer itself is composited into the
// stack via layer.CompositeTo).
func compositeStampLayer(dst, src *layer.Surface) {
	w, h := dst.W, dst.H
	if src.W < w {
		w = src.W
	}
	if src.H < h {
		h = src.H
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sc := src.At(x, y)
			if sc.A <= 0 {
				continue
			}
			dc := dst.At(x, y)
			inv := 1 - sc.A
			dst.Set(x, y, colormath.RGBA{
				R: sc.R + dc.R*inv,
				G: sc.G + dc.G*inv,
				B: sc.B + dc.B*inv,
				A: sc.A + dc.A*inv,
			})
		}
	}
}

// SetActiveLayer switches the engine's active layer by id. A nonexistent
// id is a no-op (the previous active layer remains active).
func (e *Engine) SetActiveLayer(id string) {
	if e.Stack.LayerByID(id) != nil {
		e.Stack.ActiveLayerID = id
	}
}

// Undo restores the previous history entry, a no-op when there is nothing
// to undo.
func (e *Engine) Undo() bool {
	_, ok := e.History.Undo(e.Stack)
	return ok
}

// Redo restores the next history entry, a no-op when there is nothing to
// redo.
func (e *Engine) Redo() bool {
	_, ok := e.History.Redo(e.Stack)
	return ok
}

// ExportPng composites the full stack and encodes the result as PNG bytes
// using png.DefaultCompression.
func (e *Engine) ExportPng() ([]byte, error) {
	return e.ExportPngCompressed("default")
}

// ExportPngCompressed composites the full stack and encodes the result as
// PNG bytes at the requested compression level: "default", "speed", "best"
// or "none". Unknown values fall back to "default".
func (e *Engine) ExportPngCompressed(level string) ([]byte, error) {
	w, h := e.Stack.DeviceSize()
	dst := layer.NewSurface(w, h)
	layer.CompositeTo(dst, e.Stack)

	img := dst.ToNRGBA()
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "default":
		enc.CompressionLevel = png.DefaultCompression
	case "speed", "fast", "best-speed":
		enc.CompressionLevel = png.BestSpeed
	case "best", "best-compression":
		enc.CompressionLevel = png.BestCompression
	case "none", "no", "nocompression", "no-compression":
		enc.CompressionLevel = png.NoCompression
	default:
		enc.CompressionLevel = png.DefaultCompression
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, img); err != nil {
		return nil, newErr(ErrIOFailure, fmt.Sprintf("encode export png: %v", err))
	}
	return buf.Bytes(), nil
}
