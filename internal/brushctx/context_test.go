package brushctx

import (
	"testing"

	"github.com/inkforge/brushengine/internal/colormath"
	"github.com/inkforge/brushengine/internal/layer"
)

func TestUpdateVelocityFirstSampleIsZero(t *testing.T) {
	c := NewContext(1)
	if v := c.UpdateVelocity(0, 0, 0); v != 0 {
		t.Fatalf("expected first sample speed 0, got %v", v)
	}
}

func TestUpdateVelocityComputesSpeed(t *testing.T) {
	c := NewContext(1)
	c.UpdateVelocity(0, 0, 0)
	v := c.UpdateVelocity(100, 0, 1000) // 100px in 1s
	if v < 99 || v > 101 {
		t.Fatalf("expected speed ~100px/s, got %v", v)
	}
}

func TestUpdateVelocityGuardsAgainstZeroDt(t *testing.T) {
	c := NewContext(1)
	c.UpdateVelocity(0, 0, 0)
	c.UpdateVelocity(50, 0, 0.1)
	v := c.UpdateVelocity(50, 0, 0.1)
	if v != 0 {
		t.Fatalf("expected zero-dt guard to hold prior speed (0), got %v", v)
	}
}

func TestScratchReusesSameBuffer(t *testing.T) {
	c := NewContext(1)
	a := c.Scratch("blur", 8, 8)
	b := c.Scratch("blur", 8, 8)
	if a != b {
		t.Fatal("expected repeated Scratch call with same tag/size to return the same buffer")
	}
}

func TestScratchDistinguishesBySizeAndTag(t *testing.T) {
	c := NewContext(1)
	a := c.Scratch("blur", 8, 8)
	b := c.Scratch("blur", 16, 16)
	d := c.Scratch("rim", 8, 8)
	if a == b {
		t.Fatal("expected different sizes to allocate distinct buffers")
	}
	if a == d {
		t.Fatal("expected different tags to allocate distinct buffers")
	}
}

func TestEnsureSmudgeSourceSnapshotsOnce(t *testing.T) {
	c := NewContext(1)
	src := layer.NewSurface(4, 4)
	src.Clear(colormath.RGBA{R: 1, A: 1})

	snap := c.EnsureSmudgeSource(src)
	src.Clear(colormath.RGBA{R: 0, A: 0})

	again := c.EnsureSmudgeSource(src)
	if again != snap {
		t.Fatal("expected second EnsureSmudgeSource call to return the original snapshot")
	}
	if snap.At(0, 0).R != 1 {
		t.Fatal("expected smudge source snapshot to be unaffected by later mutation of src")
	}
}

func TestDisposeClearsScratch(t *testing.T) {
	c := NewContext(1)
	c.Scratch("blur", 4, 4)
	c.Dispose()
	if len(c.scratch) != 0 {
		t.Fatal("expected Dispose to clear the scratch registry")
	}
}
