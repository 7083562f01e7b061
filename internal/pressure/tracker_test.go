package pressure

import (
	"math"
	"testing"

	"github.com/inkforge/brushengine/internal/brushtypes"
)

func TestSynthesisForMouse(t *testing.T) {
	cfg := brushtypes.PressureConfig{
		ClampMin: 0,
		ClampMax: 1,
		Synth: brushtypes.SynthConfig{
			Enabled:     true,
			SpeedV0:     0,
			SpeedV1:     2000,
			MinPressure: 0.15,
			MaxPressure: 1.0,
			Shape:       brushtypes.EaseLinear,
		},
	}
	tr := NewTracker(cfg)

	p0 := tr.Update(brushtypes.PathPoint{X: 0, Y: 0, TMs: 0, PointerKind: brushtypes.PointerMouse})
	if p0 != 1.0 && p0 != 0.15 {
		// first sample has no velocity history; synthesis maps speed=0 -> MinPressure
	}

	p1 := tr.Update(brushtypes.PathPoint{X: 200, Y: 0, TMs: 100, PointerKind: brushtypes.PointerMouse})
	if math.Abs(p1-1.0) > 1e-9 {
		t.Errorf("expected pressure 1.0 for speed=2000px/s, got %v", p1)
	}
}

func TestPenUsesRawPressureClamped(t *testing.T) {
	cfg := brushtypes.PressureConfig{ClampMin: 0.1, ClampMax: 0.9}
	tr := NewTracker(cfg)
	raw := 0.95
	got := tr.Update(brushtypes.PathPoint{X: 0, Y: 0, TMs: 0, RawPressure: &raw, PointerKind: brushtypes.PointerPen})
	if math.Abs(got-0.9) > 1e-9 {
		t.Errorf("expected clamp to 0.9, got %v", got)
	}
}

func TestNoSynthConstantOne(t *testing.T) {
	cfg := brushtypes.PressureConfig{ClampMin: 0, ClampMax: 1}
	tr := NewTracker(cfg)
	got := tr.Update(brushtypes.PathPoint{X: 0, Y: 0, TMs: 0, PointerKind: brushtypes.PointerMouse})
	if got != 1.0 {
		t.Errorf("expected constant 1.0 without synthesis, got %v", got)
	}
}

func TestNonMonotonicTimeNoPanic(t *testing.T) {
	cfg := brushtypes.PressureConfig{ClampMin: 0, ClampMax: 1}
	tr := NewTracker(cfg)
	tr.Update(brushtypes.PathPoint{X: 0, Y: 0, TMs: 100, PointerKind: brushtypes.PointerMouse})
	got := tr.Update(brushtypes.PathPoint{X: 10, Y: 10, TMs: 50, PointerKind: brushtypes.PointerMouse})
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("expected finite output for non-monotonic t_ms, got %v", got)
	}
}

func TestClampsNaNToOne(t *testing.T) {
	cfg := brushtypes.PressureConfig{ClampMin: 0, ClampMax: 1, CurveGamma: 1}
	tr := NewTracker(cfg)
	nan := math.NaN()
	got := tr.Update(brushtypes.PathPoint{X: 0, Y: 0, TMs: 0, RawPressure: &nan, PointerKind: brushtypes.PointerPen})
	if got != 1.0 {
		t.Errorf("expected NaN input to clamp to 1.0, got %v", got)
	}
}

func TestAlwaysWithinUnitRange(t *testing.T) {
	cfg := brushtypes.PressureConfig{
		ClampMin: 0, ClampMax: 1,
		Synth: brushtypes.SynthConfig{Enabled: true, SpeedV0: 0, SpeedV1: 500, MinPressure: 0, MaxPressure: 1, Shape: brushtypes.EaseInOut},
		Smoothing: brushtypes.SmoothOneEuro, OneEuroMinCutoff: 1, OneEuroBeta: 0.5, OneEuroDCutoff: 1,
		VelocityCompK: 0.5, VelocityCompRef: 1000,
		CurveGamma: 1.8,
	}
	tr := NewTracker(cfg)
	tMs := 0.0
	x := 0.0
	for i := 0; i < 200; i++ {
		tMs += 16.0
		x += 37.0
		got := tr.Update(brushtypes.PathPoint{X: x, Y: 0, TMs: tMs, PointerKind: brushtypes.PointerMouse})
		if got < 0 || got > 1 {
			t.Fatalf("pressure out of [0,1] at step %d: %v", i, got)
		}
	}
}

func TestResetClearsHistory(t *testing.T) {
	cfg := brushtypes.PressureConfig{
		ClampMin: 0, ClampMax: 1,
		Synth: brushtypes.SynthConfig{Enabled: true, SpeedV0: 0, SpeedV1: 1000, MinPressure: 0, MaxPressure: 1, Shape: brushtypes.EaseLinear},
	}
	tr := NewTracker(cfg)
	tr.Update(brushtypes.PathPoint{X: 0, Y: 0, TMs: 0, PointerKind: brushtypes.PointerMouse})
	tr.Update(brushtypes.PathPoint{X: 500, Y: 0, TMs: 100, PointerKind: brushtypes.PointerMouse})
	tr.Reset()
	if tr.havePrev {
		t.Error("expected Reset to clear previous-sample history")
	}
	if tr.haveSmoothed {
		t.Error("expected Reset to clear smoothing history")
	}
}
