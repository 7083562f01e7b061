package backend

import (
	"math"
	"testing"

	"github.com/inkforge/brushengine/internal/brushctx"
	"github.com/inkforge/brushengine/internal/brushtypes"
	"github.com/inkforge/brushengine/internal/colormath"
	"github.com/inkforge/brushengine/internal/layer"
	"github.com/inkforge/brushengine/internal/paper"
)

func basicParams() brushtypes.EngineParams {
	return brushtypes.EngineParams{
		Shape: brushtypes.ShapeParams{
			Roundness:  1,
			Softness:   20,
			SizeScale:  1,
			BaseSizePx: 20,
		},
		Rendering: brushtypes.RenderingParams{Flow: 1},
	}
}

func straightStamps(n int) []brushtypes.Stamp {
	out := make([]brushtypes.Stamp, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, brushtypes.Stamp{
			X: float64(i * 5), Y: 50,
			Pressure: 1, WidthScale: 1,
		})
	}
	return out
}

func TestResolveUnknownFallsBackToStamping(t *testing.T) {
	b := Resolve(brushtypes.Backend("nonsense"))
	if _, ok := b.(*Stamping); !ok {
		t.Fatalf("expected unknown backend name to resolve to Stamping, got %T", b)
	}
	if _, ok := Resolve(brushtypes.BackendAuto).(*Stamping); !ok {
		t.Fatal("expected auto to resolve to Stamping")
	}
}

func TestResolveKnownBackends(t *testing.T) {
	cases := map[brushtypes.Backend]Backend{
		brushtypes.BackendRibbon: &Ribbon{},
		brushtypes.BackendSpray:  &Spray{},
		brushtypes.BackendWet:    &Wet{},
		brushtypes.BackendSmudge: &Smudge{},
	}
	for name, want := range cases {
		got := Resolve(name)
		if got == nil {
			t.Fatalf("Resolve(%v) returned nil", name)
		}
		switch want.(type) {
		case *Ribbon:
			if _, ok := got.(*Ribbon); !ok {
				t.Errorf("Resolve(%v) = %T, want Ribbon", name, got)
			}
		case *Spray:
			if _, ok := got.(*Spray); !ok {
				t.Errorf("Resolve(%v) = %T, want Spray", name, got)
			}
		case *Wet:
			if _, ok := got.(*Wet); !ok {
				t.Errorf("Resolve(%v) = %T, want Wet", name, got)
			}
		case *Smudge:
			if _, ok := got.(*Smudge); !ok {
				t.Errorf("Resolve(%v) = %T, want Smudge", name, got)
			}
		}
	}
}

func TestStampingPaintsSomethingOntoSurface(t *testing.T) {
	dst := layer.NewSurface(200, 100)
	ctx := brushctx.NewContext(1)
	sub := paper.NewSystem(paper.Options{Seed: 1, GrainScale: 1})
	(&Stamping{}).RenderStroke(dst, straightStamps(10), basicParams(), ctx, sub)

	found := false
	for i := range dst.A {
		if dst.A[i] > 0 {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("expected stamping backend to paint nonzero alpha somewhere")
	}
	if ctx.StampCount != 10 {
		t.Fatalf("expected stamp count 10, got %d", ctx.StampCount)
	}
}

func TestStampingUsesContextInkColor(t *testing.T) {
	dst := layer.NewSurface(200, 100)
	ctx := brushctx.NewContext(1)
	ctx.ColorLinear = colormath.RGBA{R: 1, G: 0, B: 0, A: 1}
	sub := paper.NewSystem(paper.Options{Seed: 1, GrainScale: 1})
	(&Stamping{}).RenderStroke(dst, straightStamps(10), basicParams(), ctx, sub)

	c := dst.At(100, 50)
	if c.A <= 0 {
		t.Fatal("expected a painted pixel at the stroke center")
	}
	if c.R <= c.G || c.R <= c.B {
		t.Fatalf("expected the context's red ink color to dominate, got %+v", c)
	}
}

func TestStampingGrainPhaseIsStableAcrossStamps(t *testing.T) {
	params := basicParams()
	params.Grain = brushtypes.GrainParams{Kind: brushtypes.GrainPaper, Depth: 1, Scale: 2}

	run := func(stamps []brushtypes.Stamp) *layer.Surface {
		dst := layer.NewSurface(200, 100)
		ctx := brushctx.NewContext(1)
		ctx.ColorLinear = colormath.RGBA{A: 1}
		sub := paper.NewSystem(paper.Options{Seed: 5, GrainScale: 2})
		(&Stamping{}).RenderStroke(dst, stamps, params, ctx, sub)
		return dst
	}

	// One pass where a stamp sits right on top of (60,50), and another
	// where the nearest stamp is some distance away: the grain sample at
	// (60,50) must come out the same either way, since it's keyed off a
	// stroke-stable anchor rather than whichever stamp last touched it.
	near := run([]brushtypes.Stamp{{X: 60, Y: 50, Pressure: 1, WidthScale: 1}})
	far := run([]brushtypes.Stamp{
		{X: 0, Y: 50, Pressure: 1, WidthScale: 1},
		{X: 120, Y: 50, Pressure: 1, WidthScale: 1},
		{X: 60, Y: 50, Pressure: 1, WidthScale: 1},
	})

	a := near.At(60, 50)
	b := far.At(60, 50)
	if a != b {
		t.Fatalf("expected grain-shaded alpha at a shared pixel to match regardless of stamp layout, got %+v vs %+v", a, b)
	}
}

func TestRibbonFillsGapsBetweenStamps(t *testing.T) {
	dst := layer.NewSurface(200, 100)
	ctx := brushctx.NewContext(1)
	sub := paper.NewSystem(paper.Options{Seed: 1, GrainScale: 1})
	stamps := []brushtypes.Stamp{
		{X: 0, Y: 50, Pressure: 1, WidthScale: 1},
		{X: 40, Y: 50, Pressure: 1, WidthScale: 1},
	}
	(&Ribbon{}).RenderStroke(dst, stamps, basicParams(), ctx, sub)

	mid := dst.At(20, 50)
	if mid.A <= 0 {
		t.Fatal("expected ribbon to fill alpha at the segment midpoint")
	}
}

func TestSprayStaysWithinRadius(t *testing.T) {
	dst := layer.NewSurface(100, 100)
	ctx := brushctx.NewContext(7)
	sub := paper.NewSystem(paper.Options{Seed: 1, GrainScale: 1})
	params := basicParams()
	params.StrokePath.Count = 30
	stamps := []brushtypes.Stamp{{X: 50, Y: 50, Pressure: 1, WidthScale: 1}}
	(&Spray{}).RenderStroke(dst, stamps, params, ctx, sub)

	far := dst.At(0, 0)
	if far.A != 0 {
		t.Fatal("expected spray to leave distant pixels untouched")
	}
}

func TestSmudgeSegmentDepositsAheadOfSegmentStart(t *testing.T) {
	dst := layer.NewSurface(100, 50)
	source := layer.NewSurface(100, 50)
	source.Clear(colormath.RGBA{R: 1, A: 1})

	from := brushtypes.Stamp{X: 10, Y: 25, Pressure: 1}
	to := brushtypes.Stamp{X: 80, Y: 25, Pressure: 1}
	const radius = 10.0
	smudgeSegment(dst, source, from, to, radius, 1.0, 1.0)

	// advance = min(radius*0.6, 12) = 6, along the +X tangent from (10,25).
	center := dst.At(16, 25)
	if center.A <= 0 {
		t.Fatalf("expected paint deposited near from+advance*tangent (16,25), got %+v", center)
	}

	// The segment's far end (near `to`) is well outside the deposit disc
	// and must be untouched, unlike the old recenter-at-`to` behavior.
	untouched := dst.At(80, 25)
	if untouched.A != 0 {
		t.Fatalf("expected no paint near the segment's far end, got %+v", untouched)
	}
}

func TestSmudgeSegmentFalloffVanishesBeyondRadius(t *testing.T) {
	dst := layer.NewSurface(60, 60)
	source := layer.NewSurface(60, 60)
	source.Clear(colormath.RGBA{R: 1, A: 1})

	// A zero-length segment: advance defaults to the +X tangent, so the
	// deposit center lands at (from.X+advance, from.Y).
	from := brushtypes.Stamp{X: 30, Y: 30, Pressure: 1}
	to := brushtypes.Stamp{X: 30, Y: 30, Pressure: 1}
	const radius = 8.0
	smudgeSegment(dst, source, from, to, radius, 1.0, 1.0)
	advance := math.Min(radius*0.6, smudgeAdvanceCapPx)
	centerX := from.X + advance

	outside := dst.At(int(centerX+radius+5), 30)
	if outside.A != 0 {
		t.Fatalf("expected zero falloff well outside the deposit radius, got %+v", outside)
	}
}

func TestSmudgeNeverRaisesAlphaAboveSource(t *testing.T) {
	dst := layer.NewSurface(50, 50)
	dst.Clear(colormath.RGBA{R: 0.5, A: 0.5})
	ctx := brushctx.NewContext(3)
	sub := paper.NewSystem(paper.Options{Seed: 1, GrainScale: 1})
	params := basicParams()
	params.StrokePath.FollowAmt = 0.8
	stamps := []brushtypes.Stamp{
		{X: 10, Y: 25, Pressure: 1, WidthScale: 1},
		{X: 20, Y: 25, Pressure: 1, WidthScale: 1},
		{X: 30, Y: 25, Pressure: 1, WidthScale: 1},
	}
	(&Smudge{}).RenderStroke(dst, stamps, params, ctx, sub)

	for i := range dst.A {
		if dst.A[i] > 0.5+1e-6 {
			t.Fatalf("expected smudge to never raise alpha above source 0.5, got %v", dst.A[i])
		}
	}
}

func TestWetPaintsAtStampCenter(t *testing.T) {
	dst := layer.NewSurface(100, 100)
	ctx := brushctx.NewContext(1)
	sub := paper.NewSystem(paper.Options{Seed: 1, GrainScale: 1})
	stamps := []brushtypes.Stamp{{X: 50, Y: 50, Pressure: 1, WidthScale: 1}}
	(&Wet{}).RenderStroke(dst, stamps, basicParams(), ctx, sub)

	center := dst.At(50, 50)
	if center.A <= 0 {
		t.Fatal("expected wet backend to paint something at the stamp center")
	}
}

func TestSoftOvalAlphaZeroOutsideEllipse(t *testing.T) {
	if a := softOvalAlpha(100, 100, 5, 5, 20); a != 0 {
		t.Fatalf("expected 0 outside the ellipse, got %v", a)
	}
	if a := softOvalAlpha(0, 0, 5, 5, 20); a != 1 {
		t.Fatalf("expected 1 at the ellipse center, got %v", a)
	}
}
